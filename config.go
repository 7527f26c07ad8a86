// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// Report settings
	Currency string `yaml:"currency"`

	// Storage
	StoragePath string `yaml:"storage_path"`
	SaveResults bool   `yaml:"save_results"`

	// Logging
	Debug    bool `yaml:"debug"`
	JSONLogs bool `yaml:"json_logs"`

	Engine EngineConfig `yaml:"engine"`
}

// EngineConfig holds the static business constants used by the analysis core
type EngineConfig struct {
	SeasonalWeights      []float64 `yaml:"seasonal_weights"`
	PowerBloatBuffer     float64   `yaml:"power_bloat_buffer"`
	NightOwlThreshold    float64   `yaml:"p6_night_owl_threshold"`
	CapacitorBaseCost    float64   `yaml:"capacitor_bank_base_cost"`
	CapacitorCostPerUnit float64   `yaml:"capacitor_cost_per_unit"`
	AveragePowerPrice    float64   `yaml:"average_power_price"`
	AverageEnergyPrice   float64   `yaml:"average_energy_price"`
	PeriodPowerPrices    []float64 `yaml:"period_power_prices"`
	HighPrioritySavings  float64   `yaml:"high_priority_savings"`
	PermanencePenalty    float64   `yaml:"permanence_penalty"`
	IndexedNightOwlBonus float64   `yaml:"indexed_night_owl_bonus"`
	TopProposals         int       `yaml:"top_n"`
	ElectricityTaxRate   float64   `yaml:"electricity_tax_rate"`
	VATRate              float64   `yaml:"vat_rate"`
}

// DefaultEngineConfig returns the engine constants shipped with voltaudit
func DefaultEngineConfig() EngineConfig {
	weights := make([]float64, len(DefaultSeasonalWeights))
	copy(weights, DefaultSeasonalWeights)
	powerPrices := make([]float64, NumPeriods)
	copy(powerPrices, DefaultPeriodPowerPrices[:])

	return EngineConfig{
		SeasonalWeights:      weights,
		PowerBloatBuffer:     DefaultPowerBloatBuffer,
		NightOwlThreshold:    DefaultNightOwlThreshold,
		CapacitorBaseCost:    DefaultCapacitorBaseCost,
		CapacitorCostPerUnit: DefaultCapacitorCostPerUnit,
		AveragePowerPrice:    DefaultAveragePowerPrice,
		AverageEnergyPrice:   DefaultAverageEnergyPrice,
		PeriodPowerPrices:    powerPrices,
		HighPrioritySavings:  DefaultHighPrioritySavings,
		PermanencePenalty:    DefaultPermanencePenalty,
		IndexedNightOwlBonus: DefaultIndexedNightOwlBonus,
		TopProposals:         DefaultTopProposals,
		ElectricityTaxRate:   DefaultElectricityTaxRate,
		VATRate:              DefaultVATRate,
	}
}

// SeasonalWeight returns the weight for a calendar month, 1/12 when unknown
func (c EngineConfig) SeasonalWeight(month int) float64 {
	idx := month - 1
	if idx < 0 || idx >= len(c.SeasonalWeights) || c.SeasonalWeights[idx] <= 0 {
		return 1.0 / 12.0
	}
	return c.SeasonalWeights[idx]
}

// PeriodPowerPrice returns the right-sizing price assumption for a 0-based period
func (c EngineConfig) PeriodPowerPrice(idx int) float64 {
	if idx < 0 || idx >= len(c.PeriodPowerPrices) {
		return c.AveragePowerPrice
	}
	return c.PeriodPowerPrices[idx]
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Set defaults
	config := &Config{
		Currency:    "€",
		StoragePath: getDefaultStoragePath(),
		SaveResults: true,
		Engine:      DefaultEngineConfig(),
	}

	// A .env next to the binary is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// If no path provided, return defaults with env var overrides
	if path == "" {
		if err := config.applyEnvironmentVariables(); err != nil {
			return nil, err
		}
		return config, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	if err := config.applyEnvironmentVariables(); err != nil {
		return nil, err
	}

	return config, nil
}

// getDefaultStoragePath returns the default storage path
func getDefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voltaudit"
	}
	return filepath.Join(home, ".config", "voltaudit")
}

// applyEnvironmentVariables overrides config with environment variables
func (c *Config) applyEnvironmentVariables() error {
	if val := os.Getenv("VOLTAUDIT_STORAGE_PATH"); val != "" {
		c.StoragePath = val
	}
	if val := os.Getenv("VOLTAUDIT_CURRENCY"); val != "" {
		c.Currency = val
	}
	if val := os.Getenv("VOLTAUDIT_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
	if val := os.Getenv("VOLTAUDIT_JSON_LOGS"); val == "true" || val == "1" {
		c.JSONLogs = true
	}
	if val := os.Getenv("VOLTAUDIT_SAVE_RESULTS"); val != "" {
		c.SaveResults = val == "true" || val == "1"
	}
	if val := os.Getenv("VOLTAUDIT_TOP_N"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return &ConfigError{Field: "VOLTAUDIT_TOP_N", Message: fmt.Sprintf("not an integer: %q", val)}
		}
		c.Engine.TopProposals = n
	}
	if val := os.Getenv("VOLTAUDIT_VAT_RATE"); val != "" {
		rate, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return &ConfigError{Field: "VOLTAUDIT_VAT_RATE", Message: fmt.Sprintf("not a number: %q", val)}
		}
		c.Engine.VATRate = rate
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var problems []string

	e := c.Engine

	if len(e.SeasonalWeights) != 12 {
		problems = append(problems, fmt.Sprintf("seasonal_weights must have 12 entries, got %d", len(e.SeasonalWeights)))
	} else {
		sum := 0.0
		for i, w := range e.SeasonalWeights {
			if w < 0 {
				problems = append(problems, fmt.Sprintf("seasonal_weights[%d] must not be negative", i))
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 0.001 {
			problems = append(problems, fmt.Sprintf("seasonal_weights must sum to 1.0, got %.4f", sum))
		}
	}

	if e.PowerBloatBuffer < 0 || e.PowerBloatBuffer > 1 {
		problems = append(problems, "power_bloat_buffer must be between 0 and 1")
	}
	if e.NightOwlThreshold <= 0 || e.NightOwlThreshold > 1 {
		problems = append(problems, "p6_night_owl_threshold must be between 0 and 1")
	}
	if e.CapacitorBaseCost < 0 || e.CapacitorCostPerUnit < 0 {
		problems = append(problems, "capacitor costs must not be negative")
	}
	if e.AveragePowerPrice < 0 || e.AverageEnergyPrice < 0 {
		problems = append(problems, "average prices must not be negative")
	}
	if len(e.PeriodPowerPrices) > NumPeriods {
		problems = append(problems, fmt.Sprintf("period_power_prices accepts at most %d entries", NumPeriods))
	}
	if e.TopProposals < 1 {
		problems = append(problems, "top_n must be at least 1")
	}
	if e.ElectricityTaxRate < 0 || e.VATRate < 0 {
		problems = append(problems, "tax rates must not be negative")
	}

	// Set default storage path if empty
	if c.StoragePath == "" {
		c.StoragePath = getDefaultStoragePath()
	}
	if c.Currency == "" {
		c.Currency = "€"
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}
