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
	"sort"

	"github.com/dustin/go-humanize"
)

// Optimizer produces prioritized optimization recommendations
type Optimizer struct {
	config EngineConfig
	logger *Logger
}

// NewOptimizer creates a new optimizer
func NewOptimizer(config EngineConfig, logger *Logger) *Optimizer {
	return &Optimizer{
		config: config,
		logger: logger.WithComponent("optimizer"),
	}
}

// Analyze merges the power, energy-shift and scale passes and sorts the result
// by priority, then by annual savings.
func (o *Optimizer) Analyze(inv *Invoice) []Recommendation {
	recommendations := []Recommendation{}
	recommendations = append(recommendations, o.powerRightSizing(inv)...)
	recommendations = append(recommendations, o.energyShift(inv)...)
	recommendations = append(recommendations, o.scaleAnalysis(inv)...)

	sort.SliceStable(recommendations, func(i, j int) bool {
		ri, rj := recommendations[i].Priority.Rank(), recommendations[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return recommendations[i].AnnualSavings > recommendations[j].AnnualSavings
	})

	o.logger.LogAnalysisStage("optimize")
	return recommendations
}

func (o *Optimizer) powerRightSizing(inv *Invoice) []Recommendation {
	if !inv.HasMaxDemand {
		return nil
	}

	adjustments := overContractedPeriods(inv, o.config.PowerBloatBuffer, o.config.PeriodPowerPrice)
	if len(adjustments) == 0 {
		return nil
	}

	total := 0.0
	actions := make([]string, 0, len(adjustments))
	for _, adj := range adjustments {
		total += adj.AnnualSavings
		actions = append(actions, fmt.Sprintf("Lower P%d contracted power from %.1f kW to %.1f kW (peak demand %.1f kW, saves %.2f per year)",
			adj.Period, adj.CurrentPower, adj.RecommendedPower, adj.MaxDemand, adj.AnnualSavings))
	}

	priority := PriorityMedium
	if total > o.config.HighPrioritySavings {
		priority = PriorityHigh
	}

	return []Recommendation{{
		Type:          RecommendationPowerOptimization,
		Title:         "Right-size contracted power",
		Description:   fmt.Sprintf("%d period(s) are contracted well above the measured peak demand.", len(adjustments)),
		AnnualSavings: total,
		Priority:      priority,
		Details:       &RecommendationDetails{PowerAdjustments: adjustments},
		ActionItems:   actions,
	}}
}

// energyShift is advisory only and carries no quantified savings
func (o *Optimizer) energyShift(inv *Invoice) []Recommendation {
	total := inv.EnergyConsumption.Sum()
	if total <= 0 {
		return nil
	}

	var recommendations []Recommendation
	peakShare := inv.EnergyConsumption[0] / total
	valleyShare := (inv.EnergyConsumption[2] + inv.EnergyConsumption[5]) / total

	if peakShare > DefaultPeakShareThreshold {
		recommendations = append(recommendations, Recommendation{
			Type:        RecommendationEnergyShift,
			Title:       "Shift load out of peak hours",
			Description: fmt.Sprintf("%.0f%% of consumption falls in P1, the most expensive period.", peakShare*100),
			Priority:    PriorityMedium,
			Details:     &RecommendationDetails{PeakShare: peakShare},
			ActionItems: []string{
				"Move deferrable loads (heating water, charging, batch processes) to valley hours",
				"Program timers on equipment that can run unattended",
			},
		})
	}

	if valleyShare < DefaultValleyShareThreshold && inv.TariffType != TariffHighVoltage {
		recommendations = append(recommendations, Recommendation{
			Type:        RecommendationTariffRecommendation,
			Title:       "Consider a more time-differentiated tariff",
			Description: fmt.Sprintf("Only %.0f%% of consumption falls in valley periods.", valleyShare*100),
			Priority:    PriorityLow,
			Details:     &RecommendationDetails{ValleyShare: valleyShare},
		})
	}

	return recommendations
}

func (o *Optimizer) scaleAnalysis(inv *Invoice) []Recommendation {
	annualKWh := annualize(inv.EnergyConsumption.Sum(), inv.DaysInvoiced)

	switch {
	case annualKWh > DefaultEfficiencyAuditKWh:
		savings := annualKWh * DefaultEfficiencyReduction * o.config.AverageEnergyPrice
		return []Recommendation{{
			Type:  RecommendationEfficiencyAudit,
			Title: "Commission a full energy audit",
			Description: fmt.Sprintf("At about %s kWh per year, a %.0f%% reduction is typical after an audit.",
				humanize.Comma(int64(annualKWh)), DefaultEfficiencyReduction*100),
			AnnualSavings: savings,
			Priority:      PriorityHigh,
			Details: &RecommendationDetails{
				AnnualKWh:   annualKWh,
				SavingsLow:  annualKWh * 0.10 * o.config.AverageEnergyPrice,
				SavingsHigh: annualKWh * 0.20 * o.config.AverageEnergyPrice,
			},
			ActionItems: []string{
				"Audit lighting, HVAC and motor loads",
				"Install sub-metering on the largest consumers",
			},
		}}
	case annualKWh >= DefaultSolarEvaluationKWh:
		savings := annualKWh * DefaultSolarCoverage * o.config.AverageEnergyPrice
		return []Recommendation{{
			Type:  RecommendationSolarEvaluation,
			Title: "Evaluate solar self-consumption",
			Description: fmt.Sprintf("At about %s kWh per year, solar could cover around %.0f%% of demand.",
				humanize.Comma(int64(annualKWh)), DefaultSolarCoverage*100),
			AnnualSavings: savings,
			Priority:      PriorityMedium,
			Details:       &RecommendationDetails{AnnualKWh: annualKWh},
		}}
	default:
		return nil
	}
}
