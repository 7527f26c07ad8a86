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
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// PricePeriodicity is the billing frequency a price is quoted in
type PricePeriodicity string

const (
	PerDay   PricePeriodicity = "daily"
	PerMonth PricePeriodicity = "monthly"
	PerYear  PricePeriodicity = "annual"
)

// ParsePeriodicity recognizes periodicity words in English and Spanish
func ParsePeriodicity(s string) PricePeriodicity {
	l := strings.ToLower(strings.TrimSpace(s))
	switch {
	case l == "":
		return PerDay
	case strings.Contains(l, "year"), strings.Contains(l, "annual"), strings.Contains(l, "anual"), strings.Contains(l, "año"):
		return PerYear
	case strings.Contains(l, "month"), strings.Contains(l, "mensual"), strings.Contains(l, "mes"):
		return PerMonth
	default:
		return PerDay
	}
}

// NormalizeToDaily converts a price quoted per year or per month into a daily price
func NormalizeToDaily(price float64, periodicity PricePeriodicity) float64 {
	switch periodicity {
	case PerYear:
		return price / DaysPerYear
	case PerMonth:
		return price / DaysPerMonth
	default:
		return price
	}
}

// CleanFloat parses a locale-ambiguous numeric value. It never fails:
// anything it cannot make sense of is 0.
func CleanFloat(v interface{}) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(t)
	case float32:
		return finiteOrZero(float64(t))
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case uint:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		// JSON literals always use a dot for decimals
		if d, err := decimal.NewFromString(string(t)); err == nil {
			return finiteOrZero(d.InexactFloat64())
		}
		return cleanNumericString(string(t))
	case string:
		return cleanNumericString(t)
	default:
		return 0
	}
}

func finiteOrZero(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// cleanNumericString applies the separator rules:
//   - a comma means dots are thousands separators and the comma is the decimal point
//   - a single dot followed by exactly 3 digits is a thousands separator
//   - multiple dots are thousands separators
func cleanNumericString(s string) float64 {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)

	// Strip currency symbols and unit suffixes around the number
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '+' && r != '.' && r != ','
	})
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if s == "" {
		return 0
	}

	dots := strings.Count(s, ".")
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		if last := strings.LastIndex(s, ","); last >= 0 {
			s = strings.ReplaceAll(s[:last], ",", "") + "." + s[last+1:]
		}
	case dots == 1:
		frac := s[strings.Index(s, ".")+1:]
		if len(frac) == 3 && isDigits(frac) {
			s = strings.Replace(s, ".", "", 1)
		}
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return finiteOrZero(f)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// dateLayouts are tried in order when a date arrives as text
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
}

func parseDate(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// rawFields is a case-insensitive view over a raw invoice
type rawFields map[string]interface{}

// newRawFields folds keys to lower case. A key already in lower case wins
// over its mixed-case spellings; among those the first in sorted order wins.
func newRawFields(raw RawInvoice) rawFields {
	fields := make(rawFields, len(raw))
	for _, k := range raw.SortedKeys() {
		folded := strings.ToLower(strings.TrimSpace(k))
		if _, taken := fields[folded]; taken && k != folded {
			continue
		}
		fields[folded] = raw[k]
	}
	return fields
}

// lookup tries each alias in priority order and returns the first non-empty value
func (f rawFields) lookup(keys []string) (interface{}, bool) {
	for _, key := range keys {
		v, ok := f[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (f rawFields) number(keys []string) (float64, bool) {
	v, ok := f.lookup(keys)
	if !ok {
		return 0, false
	}
	return CleanFloat(v), true
}

func (f rawFields) text(keys []string) string {
	v, ok := f.lookup(keys)
	if !ok {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// periods extracts one value per period; found is true if any period matched
func (f rawFields) periods(templates []string) (Periods, bool) {
	var values Periods
	found := false
	for p := 1; p <= NumPeriods; p++ {
		if v, ok := f.number(expandPeriodKeys(templates, p)); ok {
			values[p-1] = v
			found = true
		}
	}
	return values, found
}

// InferTariffType maps a free-text tariff label to a tariff type
func InferTariffType(label string) TariffType {
	l := strings.ToLower(label)
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(l)

	for _, kw := range []string{"6.1", "6.2", "6.3", "6.4", "6.x", "highvoltage", "altatension", "altatensión"} {
		if strings.Contains(compact, kw) {
			return TariffHighVoltage
		}
	}
	for _, kw := range []string{"3.0", "3.1", "business", "pyme", "empresa"} {
		if strings.Contains(compact, kw) {
			return TariffLowVoltageBusiness
		}
	}
	return TariffLowVoltageSimple
}

// Normalizer sanitizes raw extraction output into a canonical Invoice
type Normalizer struct {
	logger *Logger
	now    func() time.Time
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger *Logger) *Normalizer {
	return &Normalizer{
		logger: logger.WithComponent("normalizer"),
		now:    time.Now,
	}
}

// WithClock replaces the clock used when the invoice end date is missing
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Normalize builds a canonical invoice. Every numeric field is populated and
// data problems are reported in Warnings rather than as errors.
func (n *Normalizer) Normalize(raw RawInvoice) *Invoice {
	fields := newRawFields(raw)
	inv := &Invoice{Warnings: []string{}}

	n.reconcileDates(fields, inv)

	inv.TariffLabel = fields.text(tariffKeys)
	inv.TariffType = InferTariffType(inv.TariffLabel)

	inv.EnergyConsumption, _ = fields.periods(energyConsumptionTemplates)
	inv.ContractedPower, _ = fields.periods(contractedPowerTemplates)
	inv.EnergyPrice, _ = fields.periods(energyPriceTemplates)

	var maxDemandFound bool
	inv.MaxDemand, maxDemandFound = fields.periods(maxDemandTemplates)
	inv.HasMaxDemand = maxDemandFound && inv.MaxDemand.Sum() > 0

	n.normalizePowerPrices(fields, inv)
	n.extractCosts(fields, inv)

	for p := 0; p < NumPeriods; p++ {
		if inv.EnergyConsumption[p] > 0 && inv.EnergyPrice[p] == 0 {
			n.warn(inv, fmt.Sprintf("P%d: %.2f kWh consumed but no energy unit price found; cost breakdown may be incomplete",
				p+1, inv.EnergyConsumption[p]))
		}
	}

	n.logger.Debug("Invoice normalized",
		"days", inv.DaysInvoiced,
		"tariff", inv.TariffType,
		"kwh", inv.EnergyConsumption.Sum(),
		"warnings", len(inv.Warnings),
	)

	return inv
}

func (n *Normalizer) warn(inv *Invoice, msg string) {
	inv.Warnings = append(inv.Warnings, msg)
	n.logger.LogNormalizationWarning(msg)
}

// reconcileDates fills the billing period, deriving whatever is missing
func (n *Normalizer) reconcileDates(fields rawFields, inv *Invoice) {
	days := 0
	if v, ok := fields.number(daysKeys); ok && v > 0 {
		days = int(math.Round(v))
	}

	endRaw, _ := fields.lookup(periodEndKeys)
	end, ok := parseDate(endRaw)
	if !ok {
		end = n.now()
		n.warn(inv, "period end date missing or invalid; assuming today")
	}

	startRaw, _ := fields.lookup(periodStartKeys)
	start, ok := parseDate(startRaw)
	if !ok {
		back := days
		if back <= 0 {
			back = DefaultInvoiceDays
		}
		start = end.AddDate(0, 0, -back)
		n.warn(inv, fmt.Sprintf("period start date missing or invalid; assuming %d days before the end date", back))
	}

	if days <= 0 {
		days = int(math.Ceil(end.Sub(start).Hours() / 24))
		if days < 1 {
			days = 1
		}
	}

	inv.PeriodStart = start
	inv.PeriodEnd = end
	inv.DaysInvoiced = days
}

// normalizePowerPrices converts printed power prices into currency per kW per day
func (n *Normalizer) normalizePowerPrices(fields rawFields, inv *Invoice) {
	printed, found := fields.periods(powerPriceTemplates)
	if !found {
		return
	}

	label := fields.text(powerPricePeriodKeys)
	periodicity := ParsePeriodicity(label)
	if label == "" {
		periodicity = guessPowerPricePeriodicity(printed)
		if periodicity != PerDay {
			n.warn(inv, fmt.Sprintf("power price periodicity not stated; treating printed prices as %s", periodicity))
		}
	}

	for p := range printed {
		inv.PowerPriceDaily[p] = NormalizeToDaily(printed[p], periodicity)
	}
}

// guessPowerPricePeriodicity uses the magnitude of the largest printed power
// price: daily prices are cents, monthly are units, annual are tens.
func guessPowerPricePeriodicity(printed Periods) PricePeriodicity {
	highest := 0.0
	for _, v := range printed {
		highest = math.Max(highest, v)
	}
	switch {
	case highest > 5:
		return PerYear
	case highest >= 0.5:
		return PerMonth
	default:
		return PerDay
	}
}

// extractCosts reads the invoice cost breakdown
func (n *Normalizer) extractCosts(fields rawFields, inv *Invoice) {
	inv.CostPower = n.cost(fields, inv, costPowerKeys, "power cost")
	inv.CostEnergy = n.cost(fields, inv, costEnergyKeys, "energy cost")
	inv.CostReactive = n.cost(fields, inv, costReactiveKeys, "reactive energy cost")
	inv.CostRental = n.cost(fields, inv, costRentalKeys, "meter rental")
	inv.TotalTaxExcluded = n.cost(fields, inv, subtotalKeys, "tax-excluded subtotal")

	if inv.CostPower == 0 && inv.CostEnergy == 0 && inv.TotalTaxExcluded > 0 {
		remainder := inv.TotalTaxExcluded - inv.CostReactive - inv.CostRental
		if remainder < 0 {
			remainder = inv.TotalTaxExcluded
		}
		inv.CostEnergy = remainder
		n.warn(inv, fmt.Sprintf("power and energy costs missing; %.2f of the tax-excluded subtotal assigned to energy", remainder))
	}
}

func (n *Normalizer) cost(fields rawFields, inv *Invoice, keys []string, name string) float64 {
	v, _ := fields.number(keys)
	if v < 0 {
		n.warn(inv, fmt.Sprintf("negative %s (%.2f) ignored", name, v))
		return 0
	}
	return v
}
