package config

import (
	"fmt"
	"strings"
)

// HTTPConfig configures the public API server.
type HTTPConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
	// LogsToken protects the decision log endpoint when set.
	LogsToken string `json:"logs_token"`
}

// SetDefaults applies defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.CORSOrigins == nil {
		c.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
}

// Validate checks the listen address.
func (c HTTPConfig) Validate() error {
	if !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("http: addr %q must be host:port", c.Addr)
	}
	return nil
}
