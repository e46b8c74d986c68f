package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProgramFile is the on-disk definition of the tier ladder and reward catalog.
type ProgramFile struct {
	Tiers   []TierSpec   `yaml:"tiers"`
	Rewards []RewardSpec `yaml:"rewards"`
}

// TierSpec describes one tier.
type TierSpec struct {
	Name      string                 `yaml:"name"`
	Threshold int64                  `yaml:"threshold"`
	Benefits  map[string]interface{} `yaml:"benefits"`
}

// RewardSpec describes one catalog reward.
type RewardSpec struct {
	Name           string `yaml:"name"`
	PointsCost     int64  `yaml:"points_cost"`
	Active         *bool  `yaml:"active"`
	Inventory      *int   `yaml:"inventory"`
	PerMemberLimit *int   `yaml:"per_member_limit"`
	AutoApprove    bool   `yaml:"auto_approve"`
	VoucherPrefix  string `yaml:"voucher_prefix"`
}

// LoadProgramFile reads and validates a program file.
func LoadProgramFile(path string) (*ProgramFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file: %w", err)
	}
	return ParseProgram(data)
}

// ParseProgram decodes and validates a YAML program definition.
func ParseProgram(data []byte) (*ProgramFile, error) {
	var p ProgramFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode program file: %w", err)
	}
	seen := make(map[string]bool, len(p.Tiers))
	for _, t := range p.Tiers {
		if t.Name == "" {
			return nil, fmt.Errorf("tier with threshold %d has no name", t.Threshold)
		}
		if t.Threshold < 0 {
			return nil, fmt.Errorf("tier %q has a negative threshold", t.Name)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate tier %q", t.Name)
		}
		seen[t.Name] = true
	}
	for _, r := range p.Rewards {
		if r.Name == "" || r.PointsCost <= 0 {
			return nil, fmt.Errorf("reward %q needs a name and a positive points cost", r.Name)
		}
	}
	return &p, nil
}
