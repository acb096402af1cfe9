// Package logging persists dispatch decisions and request outcomes so they
// can be queried after the fact.
package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/ridesim/core/model"
)

// RecordKind classifies a LogRecord.
type RecordKind string

const (
	KindAssigned  RecordKind = "assigned"
	KindCompleted RecordKind = "completed"
	KindFailed    RecordKind = "failed"
)

// LogRecord captures one dispatch decision or request outcome.
type LogRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Tick       uint64          `json:"tick"`
	Kind       RecordKind      `json:"kind"`
	RequestID  model.RequestID `json:"request_id"`
	RiderID    model.RiderID   `json:"rider_id"`
	DriverID   *model.DriverID `json:"driver_id,omitempty"`
	ETA        int             `json:"eta"`
	Score      float64         `json:"score"`
	Candidates int             `json:"candidates"`
	Reason     string          `json:"reason,omitempty"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start     time.Time
	End       time.Time
	DriverID  *model.DriverID
	RequestID *model.RequestID
	Kind      RecordKind
	// Limit keeps the most recent matches when positive.
	Limit int
}

// Match reports whether r satisfies every filter of q except Limit.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.RequestID != nil && r.RequestID != *q.RequestID {
		return false
	}
	if q.DriverID != nil && (r.DriverID == nil || *r.DriverID != *q.DriverID) {
		return false
	}
	return true
}

func (q LogQuery) limit(res []LogRecord) []LogRecord {
	if q.Limit > 0 && len(res) > q.Limit {
		return res[len(res)-q.Limit:]
	}
	return res
}

// ParseKind validates a kind filter. The empty string is accepted.
func ParseKind(s string) (RecordKind, error) {
	switch k := RecordKind(s); k {
	case "", KindAssigned, KindCompleted, KindFailed:
		return k, nil
	default:
		return "", fmt.Errorf("unknown record kind %q", s)
	}
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// Options selects and configures a store.
type Options struct {
	// Backend is "jsonl" or "sqlite".
	Backend    string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Open creates the store described by opts. A jsonl backend with a positive
// MaxSizeMB rotates its file.
func Open(opts Options) (LogStore, error) {
	switch opts.Backend {
	case "", "jsonl":
		if opts.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(opts.Path, opts.MaxSizeMB, opts.MaxBackups, opts.MaxAgeDays)
		}
		return NewJSONLStore(opts.Path)
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
