// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Simulation SimulationConfig `toml:"simulation"`
}

// SimulationConfig maps simulation settings. Pointer fields distinguish
// unset keys from explicit zeroes.
type SimulationConfig struct {
	DecayRate          *float64 `toml:"decay-rate"`
	ThresholdDecayRate *float64 `toml:"threshold-decay-rate"`
	MinThreshold       *float64 `toml:"min-threshold"`
	SpikeMagnitude     *float64 `toml:"spike-magnitude"`
	RefractoryPeriod   *int     `toml:"refractory-period"`
	TickMs             *int     `toml:"tick-ms"`
	ChartHeight        *int     `toml:"chart-height"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
