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
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(NewNopLogger()).WithClock(func() time.Time { return fixedNow })
}

func TestCleanFloat(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
	}{
		{"comma decimal with thousands dot", "1.200,50", 1200.50},
		{"dot decimal", "1200.50", 1200.50},
		{"three digit suffix is thousands", "1.200", 1200},
		{"short suffix is decimal", "1.5", 1.5},
		{"multiple dots", "1.234.567", 1234567},
		{"currency and spaces", "€ 1.234,56", 1234.56},
		{"unit suffix", "12,5 kWh", 12.5},
		{"negative", "-15,30", -15.30},
		{"nil", nil, 0},
		{"empty", "", 0},
		{"invalid", "invalid", 0},
		{"float passthrough", 3.25, 3.25},
		{"int passthrough", 7, 7},
		{"json number keeps its dot", json.Number("0.125"), 0.125},
		{"json number with three decimals", json.Number("12.345"), 12.345},
		{"json number exponent", json.Number("1e3"), 1000},
		{"json number in comma notation", json.Number("0,5"), 0.5},
		{"NaN", math.NaN(), 0},
		{"bool", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CleanFloat(tt.in), 1e-9)
		})
	}
}

func TestNormalizeToDaily(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizeToDaily(365, PerYear), 1e-9)
	assert.InDelta(t, 1.0, NormalizeToDaily(30.4167, PerMonth), 1e-9)
	assert.Equal(t, 0.1, NormalizeToDaily(0.1, PerDay))

	assert.Equal(t, PerYear, ParsePeriodicity("Anual"))
	assert.Equal(t, PerYear, ParsePeriodicity("per year"))
	assert.Equal(t, PerMonth, ParsePeriodicity("monthly"))
	assert.Equal(t, PerMonth, ParsePeriodicity("mensual"))
	assert.Equal(t, PerDay, ParsePeriodicity("diario"))
	assert.Equal(t, PerDay, ParsePeriodicity(""))
}

func TestInferTariffType(t *testing.T) {
	tests := map[string]TariffType{
		"2.0TD":                TariffLowVoltageSimple,
		"":                     TariffLowVoltageSimple,
		"Tarifa doméstica":     TariffLowVoltageSimple,
		"3.0TD":                TariffLowVoltageBusiness,
		"Tarifa PYME":          TariffLowVoltageBusiness,
		"LOW_VOLTAGE_BUSINESS": TariffLowVoltageBusiness,
		"6.1TD":                TariffHighVoltage,
		"6.1 TD Alta Tensión":  TariffHighVoltage,
		"HIGH_VOLTAGE":         TariffHighVoltage,
	}

	for label, want := range tests {
		assert.Equal(t, want, InferTariffType(label), "label %q", label)
	}
}

func TestNormalizeCompleteInvoice(t *testing.T) {
	raw := RawInvoice{
		"Fecha_Inicio":        "01/01/2024",
		"fecha_fin":           "31/01/2024",
		"dias_facturados":     "30",
		"tarifa":              "3.0TD",
		"consumo_p1":          "1.200,50",
		"energy_p2":           800,
		"kwh_p3":              "300",
		"potencia_p1":         "15",
		"power_p2":            15.0,
		"contracted_power_p3": "15",
		"maximetro_p1":        "9,5",
		"precio_energia_p1":   "0,18",
		"energy_price_p2":     0.15,
		"unit_price_p3":       "0,11",
		"importe_potencia":    "120,00",
		"importe_energia":     "310,40",
		"importe_reactiva":    "12,00",
		"alquiler":            "2,50",
	}

	inv := newTestNormalizer().Normalize(raw)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), inv.PeriodStart)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), inv.PeriodEnd)
	assert.Equal(t, 30, inv.DaysInvoiced)
	assert.Equal(t, TariffLowVoltageBusiness, inv.TariffType)
	assert.Equal(t, "3.0TD", inv.TariffLabel)

	assert.Equal(t, Periods{1200.5, 800, 300, 0, 0, 0}, inv.EnergyConsumption)
	assert.Equal(t, Periods{15, 15, 15, 0, 0, 0}, inv.ContractedPower)
	assert.True(t, inv.HasMaxDemand)
	assert.Equal(t, 9.5, inv.MaxDemand[0])

	assert.Equal(t, 120.0, inv.CostPower)
	assert.InDelta(t, 310.40, inv.CostEnergy, 1e-9)
	assert.Equal(t, 12.0, inv.CostReactive)
	assert.Equal(t, 2.5, inv.CostRental)
	assert.Empty(t, inv.Warnings)
}

func TestNormalizeEmptyRecord(t *testing.T) {
	inv := newTestNormalizer().Normalize(RawInvoice{})

	require.NotNil(t, inv.Warnings)
	assert.Equal(t, fixedNow, inv.PeriodEnd)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), inv.PeriodStart)
	assert.Equal(t, 30, inv.DaysInvoiced)
	assert.Equal(t, TariffLowVoltageSimple, inv.TariffType)
	assert.False(t, inv.HasMaxDemand)
	assert.Zero(t, inv.ObservedCost())
}

func TestNormalizeDateReconciliation(t *testing.T) {
	t.Run("missing dates use day count", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(RawInvoice{"days": "20"})

		assert.Equal(t, fixedNow, inv.PeriodEnd)
		assert.Equal(t, fixedNow.AddDate(0, 0, -20), inv.PeriodStart)
		assert.Equal(t, 20, inv.DaysInvoiced)
		assert.Len(t, inv.Warnings, 2)
	})

	t.Run("missing day count is recomputed", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(RawInvoice{
			"period_start": "2024-02-01",
			"period_end":   "2024-02-29",
		})
		assert.Equal(t, 28, inv.DaysInvoiced)
		assert.Empty(t, inv.Warnings)
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(RawInvoice{
			"period_start": "2024-02-01T00:00:00Z",
			"period_end":   "2024-02-03T06:00:00Z",
		})
		assert.Equal(t, 3, inv.DaysInvoiced)
	})

	t.Run("inverted period floors at one day", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(RawInvoice{
			"period_start": "2024-02-10",
			"period_end":   "2024-02-01",
		})
		assert.Equal(t, 1, inv.DaysInvoiced)
	})

	t.Run("invalid end date falls back to now", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(RawInvoice{
			"period_start": "2024-03-01",
			"period_end":   "not a date",
		})
		assert.Equal(t, fixedNow, inv.PeriodEnd)
		assert.Equal(t, 14, inv.DaysInvoiced)
	})
}

func TestNormalizeMissingPriceWarning(t *testing.T) {
	inv := newTestNormalizer().Normalize(RawInvoice{
		"period_start":    "2024-01-01",
		"period_end":      "2024-01-31",
		"energy_p1":       "100",
		"energy_price_p1": "0,15",
		"energy_p2":       "250",
	})

	require.Len(t, inv.Warnings, 1)
	assert.Contains(t, inv.Warnings[0], "P2")
	assert.Contains(t, inv.Warnings[0], "250.00 kWh")
}

func TestNormalizeCostFallback(t *testing.T) {
	base := func() RawInvoice {
		return RawInvoice{"period_start": "2024-01-01", "period_end": "2024-01-31"}
	}

	t.Run("remainder assigned to energy", func(t *testing.T) {
		raw := base()
		raw["subtotal"] = "300"
		raw["reactive_cost"] = "20"
		raw["meter_rental"] = "10"

		inv := newTestNormalizer().Normalize(raw)
		assert.Equal(t, 270.0, inv.CostEnergy)
		assert.Zero(t, inv.CostPower)
		assert.Len(t, inv.Warnings, 1)
	})

	t.Run("negative remainder clamps to subtotal", func(t *testing.T) {
		raw := base()
		raw["subtotal"] = "50"
		raw["reactive_cost"] = "40"
		raw["meter_rental"] = "30"

		inv := newTestNormalizer().Normalize(raw)
		assert.Equal(t, 50.0, inv.CostEnergy)
	})

	t.Run("no fallback when power cost is present", func(t *testing.T) {
		raw := base()
		raw["subtotal"] = "300"
		raw["power_cost"] = "80"

		inv := newTestNormalizer().Normalize(raw)
		assert.Zero(t, inv.CostEnergy)
		assert.Equal(t, 80.0, inv.CostPower)
	})
}

func TestNormalizeNegativeCostClamped(t *testing.T) {
	inv := newTestNormalizer().Normalize(RawInvoice{
		"period_start": "2024-01-01",
		"period_end":   "2024-01-31",
		"cost_power":   "-10",
		"cost_energy":  "40",
	})

	assert.Zero(t, inv.CostPower)
	assert.Equal(t, 40.0, inv.CostEnergy)
	require.Len(t, inv.Warnings, 1)
	assert.Contains(t, inv.Warnings[0], "negative power cost")
}

func TestNormalizePowerPrices(t *testing.T) {
	dates := RawInvoice{"period_start": "2024-01-01", "period_end": "2024-01-31"}
	with := func(extra RawInvoice) RawInvoice {
		raw := RawInvoice{}
		for k, v := range dates {
			raw[k] = v
		}
		for k, v := range extra {
			raw[k] = v
		}
		return raw
	}

	t.Run("stated annual", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(with(RawInvoice{
			"power_price_p1":     "36,5",
			"power_price_period": "anual",
		}))
		assert.InDelta(t, 0.1, inv.PowerPriceDaily[0], 1e-9)
		assert.Empty(t, inv.Warnings)
	})

	t.Run("guessed annual", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(with(RawInvoice{"power_price_p1": 30.0}))
		assert.InDelta(t, 30.0/365, inv.PowerPriceDaily[0], 1e-9)
		assert.Len(t, inv.Warnings, 1)
	})

	t.Run("guessed monthly", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(with(RawInvoice{"power_price_p1": 2.5}))
		assert.InDelta(t, 2.5/30.4167, inv.PowerPriceDaily[0], 1e-9)
	})

	t.Run("daily passes through", func(t *testing.T) {
		inv := newTestNormalizer().Normalize(with(RawInvoice{"power_price_p1": "0,08"}))
		assert.InDelta(t, 0.08, inv.PowerPriceDaily[0], 1e-9)
		assert.Empty(t, inv.Warnings)
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := RawInvoice{
		"energy_p1":     "1.000",
		"energy_p2":     "500",
		"subtotal":      "200",
		"tariff":        "6.1TD",
		"max_demand_p1": "12",
	}

	n := newTestNormalizer()
	assert.Equal(t, n.Normalize(raw), n.Normalize(raw))
}

func TestNormalizeCaseCollisions(t *testing.T) {
	n := newTestNormalizer()

	for i := 0; i < 100; i++ {
		inv := n.Normalize(RawInvoice{"Energy_P1": "10", "energy_p1": "20"})
		require.Equal(t, 20.0, inv.EnergyConsumption[0])
	}

	// without an exact lower-case key the first sorted spelling wins
	for i := 0; i < 100; i++ {
		inv := n.Normalize(RawInvoice{"Energy_P1": "10", "ENERGY_P1": "30"})
		require.Equal(t, 30.0, inv.EnergyConsumption[0])
	}
}

func TestNormalizeJSONMatchesYAML(t *testing.T) {
	jsonRaw, err := DecodeRawInvoice([]byte(`{
		"period_start": "2024-01-01", "period_end": "2024-01-31", "days": 30,
		"contracted_power_p1": 20, "max_demand_p1": 12.345,
		"energy_p1": 1000, "energy_price_p1": 0.125, "power_price_p1": 0.104
	}`), FormatJSON)
	require.NoError(t, err)

	yamlRaw, err := DecodeRawInvoice([]byte(`
period_start: "2024-01-01"
period_end: "2024-01-31"
days: 30
contracted_power_p1: 20
max_demand_p1: 12.345
energy_p1: 1000
energy_price_p1: 0.125
power_price_p1: 0.104
`), FormatYAML)
	require.NoError(t, err)

	n := newTestNormalizer()
	fromJSON := n.Normalize(jsonRaw)
	fromYAML := n.Normalize(yamlRaw)

	assert.Equal(t, fromYAML, fromJSON)
	assert.Equal(t, 0.125, fromJSON.EnergyPrice[0])
	assert.Equal(t, 12.345, fromJSON.MaxDemand[0])
	assert.Equal(t, 0.104, fromJSON.PowerPriceDaily[0])

	opps := NewAuditor(DefaultEngineConfig(), NewNopLogger()).Audit(fromJSON)
	require.Len(t, opps, 1)
	assert.Equal(t, OpportunityPowerOptimization, opps[0].Type)
}
