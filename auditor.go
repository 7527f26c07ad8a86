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
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Auditor detects discrete, quantified savings opportunities on one invoice
type Auditor struct {
	config EngineConfig
	logger *Logger
}

// NewAuditor creates a new auditor
func NewAuditor(config EngineConfig, logger *Logger) *Auditor {
	return &Auditor{
		config: config,
		logger: logger.WithComponent("auditor"),
	}
}

// Audit runs every check. Missing optional data skips the check.
func (a *Auditor) Audit(inv *Invoice) []AuditOpportunity {
	opportunities := []AuditOpportunity{}

	if opp, ok := a.checkReactivePenalty(inv); ok {
		opportunities = append(opportunities, opp)
	}
	if opp, ok := a.checkContractedPower(inv); ok {
		opportunities = append(opportunities, opp)
	}

	for _, opp := range opportunities {
		a.logger.LogOpportunity(string(opp.Type), opp.Priority, opp.AnnualSavings)
	}
	a.logger.LogAnalysisStage("audit")

	return opportunities
}

// checkReactivePenalty annualizes the reactive energy surcharge and sizes a
// capacitor bank from it
func (a *Auditor) checkReactivePenalty(inv *Invoice) (AuditOpportunity, bool) {
	if inv.CostReactive <= 0 {
		return AuditOpportunity{}, false
	}

	annualPenalty := annualize(inv.CostReactive, inv.DaysInvoiced)
	hardware := a.config.CapacitorBaseCost + a.config.CapacitorCostPerUnit*annualPenalty
	roi := hardware / (annualPenalty / 12)

	return AuditOpportunity{
		Type:  OpportunityReactiveCompensation,
		Title: "Eliminate reactive energy penalty",
		Description: fmt.Sprintf(
			"The invoice carries a reactive energy surcharge of %.2f over %d days (about %.2f per year). "+
				"A capacitor bank would remove it and pay for itself in about %.1f months.",
			inv.CostReactive, inv.DaysInvoiced, annualPenalty, roi),
		AnnualSavings:  annualPenalty,
		InvestmentCost: &hardware,
		ROIMonths:      &roi,
		Priority:       PriorityHigh,
	}, true
}

// checkContractedPower bundles every over-contracted active period into one opportunity
func (a *Auditor) checkContractedPower(inv *Invoice) (AuditOpportunity, bool) {
	if !inv.HasMaxDemand {
		return AuditOpportunity{}, false
	}

	adjustments := overContractedPeriods(inv, a.config.PowerBloatBuffer, func(int) float64 {
		return a.config.AveragePowerPrice
	})
	if len(adjustments) == 0 {
		return AuditOpportunity{}, false
	}

	total := 0.0
	lines := make([]string, 0, len(adjustments))
	for _, adj := range adjustments {
		total += adj.AnnualSavings
		lines = append(lines, fmt.Sprintf("P%d %.1f kW to %.1f kW", adj.Period, adj.CurrentPower, adj.RecommendedPower))
	}

	priority := PriorityMedium
	if total > a.config.HighPrioritySavings {
		priority = PriorityHigh
	}

	return AuditOpportunity{
		Type:  OpportunityPowerOptimization,
		Title: "Reduce contracted power",
		Description: fmt.Sprintf("Contracted power exceeds measured demand by more than %.0f%%. Suggested: %s.",
			a.config.PowerBloatBuffer*100, strings.Join(lines, ", ")),
		AnnualSavings: total,
		Priority:      priority,
	}, true
}

// overContractedPeriods returns one adjustment per active period whose
// contracted power exceeds max demand plus buffer. A zero max demand means
// the meter printed no reading for that period, so it is skipped rather than
// flagged. Adjustments whose savings round to zero or less are dropped too.
func overContractedPeriods(inv *Invoice, buffer float64, price func(idx int) float64) []PowerAdjustment {
	var adjustments []PowerAdjustment

	for p := 0; p < ActivePeriods(inv.TariffType); p++ {
		contracted := inv.ContractedPower[p]
		demand := inv.MaxDemand[p]
		if demand <= 0 || contracted <= demand*(1+buffer) {
			continue
		}

		recommended := ceilToTenth(demand * (1 + buffer))
		savings := (contracted - recommended) * price(p) * DaysPerYear
		if savings <= 0 {
			continue
		}

		adjustments = append(adjustments, PowerAdjustment{
			Period:           p + 1,
			CurrentPower:     contracted,
			MaxDemand:        demand,
			RecommendedPower: recommended,
			PricePerKWDay:    price(p),
			AnnualSavings:    savings,
		})
	}

	return adjustments
}

// ceilToTenth rounds up to one decimal. Float noise below 1e-6 is removed
// first so 46.00000000000001 stays 46.0.
func ceilToTenth(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(6).RoundCeil(1).Float64()
	return f
}

// annualize pro-rates an amount billed over a number of days to a year
func annualize(amount float64, days int) float64 {
	if days < 1 {
		days = 1
	}
	return amount / float64(days) * DaysPerYear
}
