// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import "fmt"

const (
	// DaysPerYear is used for every daily-to-annual conversion
	DaysPerYear = 365.0

	// DaysPerMonth is the average month length used to normalize monthly prices
	DaysPerMonth = 30.4167

	// DefaultInvoiceDays is assumed when neither a start date nor a day count is available
	DefaultInvoiceDays = 30
)

// Engine defaults. All of them can be overridden from the config file.
const (
	DefaultPowerBloatBuffer     = 0.15
	DefaultNightOwlThreshold    = 0.50
	DefaultBusinessHoursShare   = 0.60
	DefaultFlatProfileMaxShare  = 0.35
	DefaultAveragePowerPrice    = 0.12 // currency per kW per day
	DefaultAverageEnergyPrice   = 0.15 // currency per kWh
	DefaultCapacitorBaseCost    = 500.0
	DefaultCapacitorCostPerUnit = 0.5 // per currency unit of annual reactive penalty
	DefaultHighPrioritySavings  = 100.0
	DefaultPermanencePenalty    = 50.0
	DefaultIndexedNightOwlBonus = 20.0
	DefaultTopProposals         = 3
	DefaultElectricityTaxRate   = 0.0511
	DefaultVATRate              = 0.21
	DefaultPeakShareThreshold   = 0.50
	DefaultValleyShareThreshold = 0.30
	DefaultEfficiencyAuditKWh   = 100000.0
	DefaultSolarEvaluationKWh   = 30000.0
	DefaultEfficiencyReduction  = 0.15
	DefaultSolarCoverage        = 0.50
)

// DefaultSeasonalWeights is the share of a typical year's consumption per
// calendar month, January first. Sums to 1.0.
var DefaultSeasonalWeights = []float64{
	0.100, 0.090, 0.085, 0.075, 0.070, 0.075,
	0.090, 0.085, 0.075, 0.075, 0.085, 0.095,
}

// DefaultPeriodPowerPrices are the per-period power price assumptions
// (currency per kW per day) used when right-sizing contracted power.
var DefaultPeriodPowerPrices = Periods{0.15, 0.12, 0.08, 0.06, 0.04, 0.03}

// Field aliases, tried in order. Extraction output has changed over time so
// several spellings of the same field are in circulation, in English and Spanish.
var (
	periodStartKeys = []string{"period_start", "billing_start", "start_date", "fecha_inicio", "inicio_periodo", "desde"}
	periodEndKeys   = []string{"period_end", "billing_end", "end_date", "fecha_fin", "fin_periodo", "hasta"}
	daysKeys        = []string{"days_invoiced", "billing_days", "days", "dias_facturados", "dias"}
	tariffKeys      = []string{"tariff_type", "access_tariff", "tariff", "peaje", "tarifa_acceso", "tarifa"}

	costPowerKeys    = []string{"cost_power", "power_cost", "importe_potencia", "termino_potencia", "total_potencia"}
	costEnergyKeys   = []string{"cost_energy", "energy_cost", "importe_energia", "termino_energia", "total_energia"}
	costReactiveKeys = []string{"cost_reactive", "reactive_cost", "importe_reactiva", "energia_reactiva", "reactiva"}
	costRentalKeys   = []string{"cost_rental", "meter_rental", "rental", "alquiler_equipos", "alquiler_contador", "alquiler"}
	subtotalKeys     = []string{"total_tax_excluded", "subtotal", "base_imponible", "total_sin_impuestos", "importe_sin_iva"}

	powerPricePeriodKeys = []string{"power_price_period", "power_price_unit", "periodicidad_potencia", "unidad_precio_potencia"}
)

// periodKeyTemplates map a logical per-period field to its key spellings.
// %d is replaced by the 1-based period number.
var (
	energyConsumptionTemplates = []string{"energy_p%d", "energy_consumption_p%d", "consumption_p%d", "kwh_p%d", "consumo_p%d", "energia_p%d", "energia_activa_p%d"}
	contractedPowerTemplates   = []string{"contracted_power_p%d", "power_p%d", "potencia_contratada_p%d", "potencia_p%d", "pot_p%d"}
	maxDemandTemplates         = []string{"max_demand_p%d", "max_power_p%d", "maximeter_p%d", "maximetro_p%d", "demanda_maxima_p%d", "potencia_maxima_p%d"}
	energyPriceTemplates       = []string{"energy_price_p%d", "price_energy_p%d", "unit_price_p%d", "precio_energia_p%d", "precio_p%d"}
	powerPriceTemplates        = []string{"power_price_p%d", "price_power_p%d", "precio_potencia_p%d"}
)

// expandPeriodKeys returns the alias list for one period
func expandPeriodKeys(templates []string, period int) []string {
	keys := make([]string, len(templates))
	for i, tmpl := range templates {
		keys[i] = fmt.Sprintf(tmpl, period)
	}
	return keys
}
