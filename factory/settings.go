/*
Package factory converts JSON configuration into validated engine settings.

PURPOSE:
  The engine itself takes plain values (a selection policy, a base rate, a
  function catalog). This package owns the JSON shape of that configuration,
  validates it on parse, and keeps malformed settings out of the engine.

JSON SCHEMA:
  {
    "points_policy": "maior" | "primeira" | "soma",
    "base_rate": 12.5,
    "functions": [
      {"id": "garcom", "name": "Garçom", "weight": 1.0},
      {"id": "chef", "name": "Chef de Cozinha", "weight": 1.5}
    ]
  }

USAGE:
  settings, err := factory.Load("./settings.json")
  mult := payroll.EffectiveMultiplier(selected, settings.PointsPolicy)

SEE ALSO:
  - payroll/points.go: Consumes the policy and base rate
  - cmd/server/main.go: Loads settings at startup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/dirgocs/daywin/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SettingsJSON is the JSON representation of engine settings.
type SettingsJSON struct {
	PointsPolicy string         `json:"points_policy"`
	BaseRate     float64        `json:"base_rate"`
	Functions    []FunctionJSON `json:"functions,omitempty"`
}

// FunctionJSON is one catalog entry.
type FunctionJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the validated, engine-ready configuration values.
type Settings struct {
	PointsPolicy payroll.SelectionPolicy
	BaseRate     decimal.Decimal
	Functions    []payroll.Function
}

// Default returns the settings used when no configuration file is provided:
// "maior" policy and a base rate of 10 currency units per hour.
func Default() Settings {
	return Settings{
		PointsPolicy: payroll.PolicyMaior,
		BaseRate:     decimal.NewFromInt(10),
	}
}

// Parse decodes and validates settings JSON.
func Parse(data []byte) (Settings, error) {
	var raw SettingsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Settings{}, fmt.Errorf("invalid settings JSON: %w", err)
	}
	return fromJSON(raw)
}

// Load reads and parses a settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}

func fromJSON(raw SettingsJSON) (Settings, error) {
	policy := payroll.SelectionPolicy(raw.PointsPolicy)
	if raw.PointsPolicy == "" {
		policy = payroll.PolicyMaior
	} else if !policy.Valid() {
		return Settings{}, fmt.Errorf("unknown points_policy %q (use maior, primeira or soma)", raw.PointsPolicy)
	}

	if raw.BaseRate < 0 {
		return Settings{}, fmt.Errorf("base_rate must not be negative, got %v", raw.BaseRate)
	}
	baseRate := decimal.NewFromFloat(raw.BaseRate)
	if baseRate.IsZero() {
		baseRate = Default().BaseRate
	}

	functions := make([]payroll.Function, 0, len(raw.Functions))
	for _, f := range raw.Functions {
		if f.ID == "" || f.Name == "" {
			return Settings{}, fmt.Errorf("function entries need both id and name")
		}
		if f.Weight <= 0 {
			return Settings{}, fmt.Errorf("function %q: weight must be positive, got %v", f.ID, f.Weight)
		}
		functions = append(functions, payroll.Function{
			ID:     payroll.FunctionID(f.ID),
			Name:   f.Name,
			Weight: decimal.NewFromFloat(f.Weight),
		})
	}

	return Settings{
		PointsPolicy: policy,
		BaseRate:     baseRate,
		Functions:    functions,
	}, nil
}
