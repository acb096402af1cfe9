// Package export writes the request history in CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/ridesim/core/model"
)

var csvHeader = []string{
	"request_id", "rider_id", "driver_id", "status",
	"pickup_x", "pickup_y", "dropoff_x", "dropoff_y",
	"eta", "created_tick", "updated_tick", "created_at", "updated_at", "reason",
}

// WriteJSON writes the requests to w as a JSON array.
func WriteJSON(w io.Writer, reqs []model.RideRequest) error {
	if reqs == nil {
		reqs = []model.RideRequest{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reqs)
}

// WriteCSV writes one row per request. Unassigned requests have an empty
// driver_id.
func WriteCSV(w io.Writer, reqs []model.RideRequest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range reqs {
		driver := ""
		if r.DriverID != nil {
			driver = r.DriverID.String()
		}
		rec := []string{
			r.ID.String(),
			r.RiderID.String(),
			driver,
			string(r.Status),
			strconv.Itoa(r.Pickup.X),
			strconv.Itoa(r.Pickup.Y),
			strconv.Itoa(r.Dropoff.X),
			strconv.Itoa(r.Dropoff.Y),
			strconv.Itoa(r.ETA),
			strconv.FormatUint(r.CreatedTick, 10),
			strconv.FormatUint(r.UpdatedTick, 10),
			r.CreatedAt.Format(time.RFC3339),
			r.UpdatedAt.Format(time.RFC3339),
			r.Reason,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write picks the format from the extension of path (".csv" or ".json").
func Write(w io.Writer, path string, reqs []model.RideRequest) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return WriteCSV(w, reqs)
	case ".json":
		return WriteJSON(w, reqs)
	default:
		return fmt.Errorf("unsupported export format: %s", filepath.Ext(path))
	}
}
