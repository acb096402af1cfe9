package dispatch

import "fmt"

// Config holds the scoring weights.
type Config struct {
	FairnessWeight float64 `json:"fairness_weight"`
	IdleWeight     float64 `json:"idle_weight"`
	// MaxIdleBonus caps the idle credit. Zero or negative disables the cap.
	MaxIdleBonus float64 `json:"max_idle_bonus"`
}

// DefaultConfig returns the standard weights.
func DefaultConfig() Config {
	return Config{FairnessWeight: 10, IdleWeight: 1, MaxIdleBonus: 50}
}

// SetDefaults fills unset weights.
func (c *Config) SetDefaults() {
	if c.FairnessWeight == 0 && c.IdleWeight == 0 && c.MaxIdleBonus == 0 {
		*c = DefaultConfig()
	}
}

// Validate rejects negative weights.
func (c Config) Validate() error {
	if c.FairnessWeight < 0 || c.IdleWeight < 0 {
		return fmt.Errorf("scoring weights must not be negative")
	}
	return nil
}
