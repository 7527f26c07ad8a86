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
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Engine projects one invoice onto a year and ranks a tariff catalog against it
type Engine struct {
	config    EngineConfig
	logger    *Logger
	auditor   *Auditor
	profiler  *Profiler
	optimizer *Optimizer
}

// NewEngine creates a new engine and its analyzers
func NewEngine(config EngineConfig, logger *Logger) *Engine {
	return &Engine{
		config:    config,
		logger:    logger.WithComponent("engine"),
		auditor:   NewAuditor(config, logger),
		profiler:  NewProfiler(config, logger),
		optimizer: NewOptimizer(config, logger),
	}
}

// ProjectAnnual scales consumption observed in one month to a full year
func (c EngineConfig) ProjectAnnual(observedKWh float64, month time.Month) float64 {
	return observedKWh / c.SeasonalWeight(int(month))
}

// WithTax applies electricity tax and then VAT to a tax-excluded amount
func (c EngineConfig) WithTax(amount float64) float64 {
	return amount * (1 + c.ElectricityTaxRate) * (1 + c.VATRate)
}

// invoiceMidpoint returns the date halfway through the billing period
func invoiceMidpoint(inv *Invoice) time.Time {
	return inv.PeriodStart.Add(inv.PeriodEnd.Sub(inv.PeriodStart) / 2)
}

// Run analyzes the invoice and simulates every candidate. Business data
// problems never fail a run; the only error is a cancelled context.
func (e *Engine) Run(ctx context.Context, inv *Invoice, catalog []TariffCandidate) (*ResultBundle, error) {
	logger := e.logger.WithInvoice(inv)
	logger.Info("Starting analysis", "candidates", len(catalog))

	var (
		opportunities   []AuditOpportunity
		profile         ClientProfile
		recommendations []Recommendation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		opportunities = e.auditor.Audit(inv)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		profile = e.profiler.Analyze(inv)
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		recommendations = e.optimizer.Analyze(inv)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyzing invoice: %w", err)
	}

	active := ActivePeriods(inv.TariffType)
	midpoint := invoiceMidpoint(inv)
	factor := e.config.SeasonalWeight(int(midpoint.Month()))

	var projected Periods
	for p := 0; p < active; p++ {
		projected[p] = e.config.ProjectAnnual(inv.EnergyConsumption[p], midpoint.Month())
	}
	logger.LogAnalysisStage("seasonal_projection")

	currentAnnual := annualize(inv.ObservedCost(), inv.DaysInvoiced)
	passThrough := annualize(inv.CostReactive+inv.CostRental, inv.DaysInvoiced)

	results := make([]SimulationResult, 0, len(catalog))
	for _, candidate := range catalog {
		result := e.simulate(inv, candidate, active, projected, currentAnnual, passThrough, profile)
		logger.LogSimulation(result.TariffID, result.AnnualCostTotal, result.AnnualSavings, result.Score)
		results = append(results, result)
	}
	logger.LogAnalysisStage("simulation")

	top := e.rank(results)

	if best := firstOrNil(top); best != nil && best.AnnualSavings > 0 {
		priority := PriorityMedium
		if best.AnnualSavings > e.config.HighPrioritySavings {
			priority = PriorityHigh
		}
		opportunities = append(opportunities, AuditOpportunity{
			Type:  OpportunityTariffSaving,
			Title: fmt.Sprintf("Switch to %s", best.TariffName),
			Description: fmt.Sprintf("%s from %s is projected at %.2f per year before taxes, against %.2f today.",
				best.TariffName, best.Company, best.AnnualCostTotal, currentAnnual),
			AnnualSavings: best.AnnualSavings,
			Priority:      priority,
		})
		logger.LogOpportunity(string(OpportunityTariffSaving), priority, best.AnnualSavings)
	}

	totalSavings := 0.0
	for _, opp := range opportunities {
		totalSavings += opp.AnnualSavings
	}

	warnings := make([]string, len(inv.Warnings))
	copy(warnings, inv.Warnings)

	bundle := &ResultBundle{
		Metadata: AnalysisMetadata{
			InvoiceDays:        inv.DaysInvoiced,
			ProjectedAnnualKWh: projected.Sum(),
			SeasonalityFactor:  factor,
			MidpointMonth:      midpoint.Month(),
			ActivePeriods:      active,
			TariffType:         inv.TariffType,
		},
		CurrentStatus: CurrentStatus{
			PeriodStart:          inv.PeriodStart,
			PeriodEnd:            inv.PeriodEnd,
			CostPower:            inv.CostPower,
			CostEnergy:           inv.CostEnergy,
			CostReactive:         inv.CostReactive,
			CostRental:           inv.CostRental,
			InvoiceTotal:         inv.ObservedCost(),
			AnnualCostProjected:  currentAnnual,
			AnnualCostWithTax:    e.config.WithTax(currentAnnual),
			ContractedPower:      inv.ContractedPower,
			PowerPriceDaily:      inv.PowerPriceDaily,
			EnergyConsumption:    inv.EnergyConsumption,
			ProjectedKWhByPeriod: projected,
			Warnings:             warnings,
		},
		Opportunities:         opportunities,
		Recommendations:       recommendations,
		Profile:               profile,
		TopProposals:          top,
		TotalPotentialSavings: totalSavings,
	}

	logger.Info("Analysis completed",
		"opportunities", len(bundle.Opportunities),
		"recommendations", len(bundle.Recommendations),
		"proposals", len(bundle.TopProposals),
		"warnings", len(warnings),
	)

	return bundle, nil
}

// simulate prices one candidate over the projected year
func (e *Engine) simulate(inv *Invoice, candidate TariffCandidate, active int, projected Periods,
	currentAnnual, passThrough float64, profile ClientProfile) SimulationResult {

	power, energy := 0.0, 0.0
	for p := 0; p < active; p++ {
		power += inv.ContractedPower[p] * candidate.PowerPriceAt(p) * DaysPerYear
		energy += projected[p] * candidate.EnergyPriceAt(p)
	}
	fixed := finiteOrZero(candidate.FixedFee) * 12

	total := power + energy + fixed + passThrough
	savings := currentAnnual - total

	score := savings
	if candidate.HasPermanence() {
		score -= e.config.PermanencePenalty
	}
	if candidate.PricingType == PricingIndexed && profile.HasTag(TagWeekendWarrior) {
		score += e.config.IndexedNightOwlBonus
	}

	return SimulationResult{
		TariffID:              candidate.ID,
		TariffName:            candidate.Name,
		Company:               candidate.Company,
		Tariff:                candidate,
		AnnualCostTotal:       total,
		AnnualCostPower:       power,
		AnnualCostEnergy:      energy,
		AnnualCostFixed:       fixed,
		AnnualCostPassThrough: passThrough,
		AnnualCostWithTax:     e.config.WithTax(total),
		AnnualSavings:         savings,
		Score:                 score,
	}
}

// rank orders results by score, then savings, then catalog order, and keeps
// the top entries with the first marked as best value
func (e *Engine) rank(results []SimulationResult) []SimulationResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].AnnualSavings > results[j].AnnualSavings
	})

	n := e.config.TopProposals
	if n < 1 {
		n = DefaultTopProposals
	}
	if n > len(results) {
		n = len(results)
	}

	top := results[:n:n]
	if len(top) > 0 {
		top[0].IsBestValue = true
	}
	return top
}

func firstOrNil(results []SimulationResult) *SimulationResult {
	if len(results) == 0 {
		return nil
	}
	return &results[0]
}
