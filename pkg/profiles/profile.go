// Package profiles loads per-subscription detection profiles from YAML.
// A profile overrides the global detection thresholds for one subscription;
// zero-valued fields inherit the configured defaults.
package profiles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds threshold overrides for one subscription.
type Profile struct {
	Subscription        string  `yaml:"subscription"`
	ZScoreThreshold     float64 `yaml:"z_score_threshold,omitempty"`
	MinCostThreshold    float64 `yaml:"min_cost_threshold,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`
	MinHistoryDays      int     `yaml:"min_history_days,omitempty"`
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Subscription == "" {
		return nil, fmt.Errorf("profile %s: subscription is required", path)
	}
	return &p, nil
}
