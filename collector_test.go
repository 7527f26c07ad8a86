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
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("invoice.yaml"))
	assert.Equal(t, FormatYAML, DetectFormat("INVOICE.YML"))
	assert.Equal(t, FormatJSON, DetectFormat("invoice.json"))
	assert.Equal(t, FormatJSON, DetectFormat("-"))
}

func TestDecodeRawInvoice(t *testing.T) {
	t.Run("json keeps numbers exact and flattens sections", func(t *testing.T) {
		raw, err := DecodeRawInvoice([]byte(`{"energy": {"p1": 1200.5, "p2": "300"}, "price": {"p1": 0.125}, "max_demand": {"p1": 12.345}, "tariff": "2.0TD"}`), FormatJSON)
		require.NoError(t, err)

		assert.Equal(t, []string{"energy_p1", "energy_p2", "max_demand_p1", "price_p1", "tariff"}, raw.SortedKeys())
		assert.Equal(t, 1200.5, CleanFloat(raw["energy_p1"]))
		assert.Equal(t, 300.0, CleanFloat(raw["energy_p2"]))
		assert.Equal(t, 0.125, CleanFloat(raw["price_p1"]))
		assert.Equal(t, 12.345, CleanFloat(raw["max_demand_p1"]))
	})

	t.Run("top-level key wins over flattened section", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			raw, err := DecodeRawInvoice([]byte(`{"energy": {"p1": 1}, "energy_p1": 2, "a": {"b": {"c": 3}}, "a_b": {"c": 4}}`), FormatJSON)
			require.NoError(t, err)

			require.Equal(t, 2.0, CleanFloat(raw["energy_p1"]))
			require.Equal(t, 3.0, CleanFloat(raw["a_b_c"]))
		}
	})

	t.Run("yaml", func(t *testing.T) {
		raw, err := DecodeRawInvoice([]byte("consumo:\n  p1: \"1.200,50\"\ndias: 30\n"), FormatYAML)
		require.NoError(t, err)

		assert.Equal(t, 1200.5, CleanFloat(raw["consumo_p1"]))
		assert.Equal(t, 30.0, CleanFloat(raw["dias"]))
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeRawInvoice([]byte(`{"energy": `), FormatJSON)
		assert.Error(t, err)
	})

	t.Run("null document", func(t *testing.T) {
		_, err := DecodeRawInvoice([]byte(`null`), FormatJSON)
		assert.Error(t, err)
	})
}

func TestLoadRawInvoiceFromStdin(t *testing.T) {
	c := NewCollector(NewNopLogger())
	c.stdin = strings.NewReader(`{"energy_p1": "10"}`)

	raw, err := c.LoadRawInvoice("-")
	require.NoError(t, err)
	assert.Equal(t, 10.0, CleanFloat(raw["energy_p1"]))
}

func TestLoadRawInvoiceErrors(t *testing.T) {
	c := NewCollector(NewNopLogger())

	_, err := c.LoadRawInvoice(filepath.Join(t.TempDir(), "missing.json"))
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "invoice", inputErr.Kind)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: [unclosed"), 0644))
	_, err = c.LoadRawInvoice(path)
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, FormatYAML, inputErr.Format)
}

func TestDecodeCatalog(t *testing.T) {
	t.Run("yaml document", func(t *testing.T) {
		catalog, err := DecodeCatalog([]byte(`
tariffs:
  - id: a
    name: Plan A
    pricing_type: fixed
    power_price: [0.1, 0.05]
    energy_price: [0.2]
    fixed_fee: 4
`), FormatYAML)
		require.NoError(t, err)
		require.Len(t, catalog, 1)
		assert.Equal(t, PricingFixed, catalog[0].PricingType)
		assert.Equal(t, []float64{0.1, 0.05}, catalog[0].PowerPrice)
		assert.Equal(t, 4.0, catalog[0].FixedFee)
	})

	t.Run("yaml list", func(t *testing.T) {
		catalog, err := DecodeCatalog([]byte("- id: a\n  name: A\n  pricing_type: indexed\n"), FormatYAML)
		require.NoError(t, err)
		require.Len(t, catalog, 1)
		assert.Equal(t, PricingIndexed, catalog[0].PricingType)
	})

	t.Run("json list", func(t *testing.T) {
		catalog, err := DecodeCatalog([]byte(`[{"id": "a", "name": "A", "pricingType": "fixed", "permanenceMonths": 12}]`), FormatJSON)
		require.NoError(t, err)
		require.Len(t, catalog, 1)
		assert.Equal(t, 12, catalog[0].PermanenceMonths)
	})

	t.Run("json document", func(t *testing.T) {
		catalog, err := DecodeCatalog([]byte(`{"tariffs": [{"id": "a"}, {"id": "b"}]}`), FormatJSON)
		require.NoError(t, err)
		assert.Len(t, catalog, 2)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeCatalog([]byte("  \n"), FormatYAML)
		assert.Error(t, err)
	})
}

func TestLoadCatalogRejectsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tariffs": [{"id": "a", "name": "A", "pricingType": "spot"}]}`), 0644))

	_, err := NewCollector(NewNopLogger()).LoadCatalog(path)

	var catErr *CatalogError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "a", catErr.TariffID)
}

func TestSampleFilesEndToEnd(t *testing.T) {
	c := NewCollector(NewNopLogger())

	raw, err := c.LoadRawInvoice(filepath.Join("testdata", "invoice_3.0td.yaml"))
	require.NoError(t, err)
	catalog, err := c.LoadCatalog(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, catalog, 4)

	inv := newTestNormalizer().Normalize(raw)
	assert.Equal(t, TariffLowVoltageBusiness, inv.TariffType)
	assert.Equal(t, 30, inv.DaysInvoiced)
	assert.Equal(t, Periods{1200.5, 2300, 3100.25, 0, 0, 0}, inv.EnergyConsumption)
	assert.Equal(t, Periods{18.4, 20.1, 12, 0, 0, 0}, inv.MaxDemand)
	assert.InDelta(t, 1010.75, inv.CostEnergy, 1e-9)
	assert.InDelta(t, 45.20, inv.CostReactive, 1e-9)
	assert.Empty(t, inv.Warnings)

	bundle, err := newTestEngine().Run(context.Background(), inv, catalog)
	require.NoError(t, err)

	assert.Equal(t, time.January, bundle.Metadata.MidpointMonth)
	require.Len(t, bundle.TopProposals, 3)
	assert.True(t, bundle.TopProposals[0].IsBestValue)
	assert.NotEqual(t, "premium", bundle.TopProposals[0].TariffID)

	types := map[OpportunityType]bool{}
	for _, opp := range bundle.Opportunities {
		types[opp.Type] = true
	}
	assert.True(t, types[OpportunityReactiveCompensation])
	assert.True(t, types[OpportunityPowerOptimization])
}
