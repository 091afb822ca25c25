package types

import "time"

// Scenario is a named load profile. Identity is the name; definitions are
// immutable once loaded from configuration.
type Scenario struct {
	Name            string `json:"name" yaml:"name"`
	Label           string `json:"label,omitempty" yaml:"label,omitempty"`
	Users           int    `json:"users" yaml:"users"`
	DurationSeconds int    `json:"duration_seconds" yaml:"duration_seconds"`
	WarmupSeconds   int    `json:"warmup_seconds" yaml:"warmup_seconds"`
	Repetitions     int    `json:"repetitions" yaml:"repetitions"`
}

func (s Scenario) Duration() time.Duration {
	return time.Duration(s.DurationSeconds) * time.Second
}

func (s Scenario) Warmup() time.Duration {
	return time.Duration(s.WarmupSeconds) * time.Second
}

// DisplayName prefers the human label when one is configured.
func (s Scenario) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}
