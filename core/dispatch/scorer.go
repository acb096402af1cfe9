package dispatch

import (
	"math"
	"sort"

	"github.com/kilianp07/ridesim/core/model"
)

// DriverScore is the breakdown of a driver's score for one pickup.
type DriverScore struct {
	DriverID      model.DriverID `json:"driver_id"`
	ETA           int            `json:"eta"`
	FairnessBonus float64        `json:"fairness_bonus"`
	IdleBonus     float64        `json:"idle_bonus"`
	Score         float64        `json:"score"`
}

// Scorer ranks drivers for a pickup. Lower scores win:
//
//	score = ETA + trips*FairnessWeight - min(idle*IdleWeight, MaxIdleBonus)
//
// Equal scores are broken by the lower driver id.
type Scorer struct {
	cfg Config
}

// NewScorer returns a scorer using cfg.
func NewScorer(cfg Config) Scorer { return Scorer{cfg: cfg} }

// Config returns the weights in use.
func (s Scorer) Config() Config { return s.cfg }

// Evaluate scores a single driver.
func (s Scorer) Evaluate(d *model.Driver, pickup model.Position, speed int) DriverScore {
	eta := model.ETA(d.Position, pickup, speed)
	fair := float64(d.TotalTrips) * s.cfg.FairnessWeight
	idle := float64(d.IdleTicks) * s.cfg.IdleWeight
	if s.cfg.MaxIdleBonus > 0 {
		idle = math.Min(idle, s.cfg.MaxIdleBonus)
	}
	return DriverScore{
		DriverID:      d.ID,
		ETA:           eta,
		FairnessBonus: fair,
		IdleBonus:     idle,
		Score:         float64(eta) + fair - idle,
	}
}

// Rank scores every candidate and sorts them best first.
func (s Scorer) Rank(pickup model.Position, candidates []*model.Driver, speed int) []DriverScore {
	out := make([]DriverScore, len(candidates))
	for i, d := range candidates {
		out[i] = s.Evaluate(d, pickup, speed)
	}
	sort.SliceStable(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// Select returns the best candidate. ok is false when candidates is empty.
func (s Scorer) Select(pickup model.Position, candidates []*model.Driver, speed int) (best DriverScore, ok bool) {
	for i, d := range candidates {
		sc := s.Evaluate(d, pickup, speed)
		if i == 0 || better(sc, best) {
			best = sc
		}
	}
	return best, len(candidates) > 0
}

func better(a, b DriverScore) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DriverID < b.DriverID
}
