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
	"time"
)

// NumPeriods is the number of regulatory time-of-use periods (P1..P6)
const NumPeriods = 6

// Periods holds one value per billing period, P1 at index 0
type Periods [NumPeriods]float64

// Sum returns the total across all periods
func (p Periods) Sum() float64 {
	total := 0.0
	for _, v := range p {
		total += v
	}
	return total
}

// TariffType identifies the regulated access tariff of a supply point
type TariffType string

const (
	TariffLowVoltageSimple   TariffType = "LOW_VOLTAGE_SIMPLE"   // 2.0TD
	TariffLowVoltageBusiness TariffType = "LOW_VOLTAGE_BUSINESS" // 3.0TD
	TariffHighVoltage        TariffType = "HIGH_VOLTAGE"         // 6.1TD
)

// AccessCode returns the regulatory access tariff code
func (t TariffType) AccessCode() string {
	switch t {
	case TariffLowVoltageBusiness:
		return "3.0TD"
	case TariffHighVoltage:
		return "6.1TD"
	default:
		return "2.0TD"
	}
}

// Priority ranks opportunities and recommendations
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank returns a sortable weight, higher is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// RawInvoice is the loosely-typed record produced by document extraction
type RawInvoice map[string]interface{}

// Invoice is the canonical, reconciled view of one billing period
type Invoice struct {
	PeriodStart  time.Time  `json:"periodStart"`
	PeriodEnd    time.Time  `json:"periodEnd"`
	DaysInvoiced int        `json:"daysInvoiced"`
	TariffType   TariffType `json:"tariffType"`
	TariffLabel  string     `json:"tariffLabel,omitempty"`

	ContractedPower   Periods `json:"contractedPower"`   // kW
	MaxDemand         Periods `json:"maxDemand"`         // kW
	HasMaxDemand      bool    `json:"hasMaxDemand"`      // true when any maximeter reading was present
	EnergyConsumption Periods `json:"energyConsumption"` // kWh
	EnergyPrice       Periods `json:"energyPrice"`       // currency per kWh, as printed
	PowerPriceDaily   Periods `json:"powerPriceDaily"`   // currency per kW per day

	CostPower        float64 `json:"costPower"`
	CostEnergy       float64 `json:"costEnergy"`
	CostReactive     float64 `json:"costReactive"`
	CostRental       float64 `json:"costRental"`
	TotalTaxExcluded float64 `json:"totalTaxExcluded"`

	Warnings []string `json:"warnings"`
}

// ObservedCost returns the billed cost for the invoiced period
func (inv *Invoice) ObservedCost() float64 {
	return inv.CostPower + inv.CostEnergy + inv.CostRental + inv.CostReactive
}

// PricingType distinguishes fixed-price from market-indexed offers
type PricingType string

const (
	PricingFixed   PricingType = "fixed"
	PricingIndexed PricingType = "indexed"
)

// TariffCandidate is one marketed offer from the catalog
type TariffCandidate struct {
	ID               string      `json:"id" yaml:"id" validate:"required"`
	Name             string      `json:"name" yaml:"name" validate:"required"`
	Company          string      `json:"company" yaml:"company"`
	PricingType      PricingType `json:"pricingType" yaml:"pricing_type" validate:"required,oneof=fixed indexed"`
	PermanenceMonths int         `json:"permanenceMonths" yaml:"permanence_months" validate:"gte=0"`
	PowerPrice       []float64   `json:"powerPrice" yaml:"power_price" validate:"max=6,dive,gte=0"`   // currency per kW per day
	EnergyPrice      []float64   `json:"energyPrice" yaml:"energy_price" validate:"max=6,dive,gte=0"` // currency per kWh
	FixedFee         float64     `json:"fixedFee" yaml:"fixed_fee" validate:"gte=0"`                  // currency per month
}

// OpportunityType classifies an audit finding
type OpportunityType string

const (
	OpportunityReactiveCompensation OpportunityType = "REACTIVE_COMPENSATION"
	OpportunityPowerOptimization    OpportunityType = "POWER_OPTIMIZATION"
	OpportunityTariffSaving         OpportunityType = "TARIFF_SAVING"
)

// AuditOpportunity is a discrete, quantified savings finding
type AuditOpportunity struct {
	Type           OpportunityType `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	AnnualSavings  float64         `json:"annualSavings"`
	InvestmentCost *float64        `json:"investmentCost,omitempty"`
	ROIMonths      *float64        `json:"roiMonths,omitempty"`
	Priority       Priority        `json:"priority"`
}

// RecommendationType classifies an optimization recommendation
type RecommendationType string

const (
	RecommendationPowerOptimization    RecommendationType = "POWER_OPTIMIZATION"
	RecommendationEnergyShift          RecommendationType = "ENERGY_SHIFT"
	RecommendationTariffRecommendation RecommendationType = "TARIFF_RECOMMENDATION"
	RecommendationEfficiencyAudit      RecommendationType = "EFFICIENCY_AUDIT"
	RecommendationSolarEvaluation      RecommendationType = "SOLAR_EVALUATION"
)

// PowerAdjustment is one over-contracted period
type PowerAdjustment struct {
	Period           int     `json:"period"` // 1-based
	CurrentPower     float64 `json:"currentPower"`
	MaxDemand        float64 `json:"maxDemand"`
	RecommendedPower float64 `json:"recommendedPower"`
	PricePerKWDay    float64 `json:"pricePerKwDay"`
	AnnualSavings    float64 `json:"annualSavings"`
}

// RecommendationDetails carries the figures behind a recommendation
type RecommendationDetails struct {
	PowerAdjustments []PowerAdjustment `json:"powerAdjustments,omitempty"`
	PeakShare        float64           `json:"peakShare,omitempty"`
	ValleyShare      float64           `json:"valleyShare,omitempty"`
	AnnualKWh        float64           `json:"annualKwh,omitempty"`
	SavingsLow       float64           `json:"savingsLow,omitempty"`
	SavingsHigh      float64           `json:"savingsHigh,omitempty"`
}

// Recommendation is a broader, prioritized optimization suggestion
type Recommendation struct {
	Type          RecommendationType     `json:"type"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	AnnualSavings float64                `json:"annualSavings"`
	Priority      Priority               `json:"priority"`
	Details       *RecommendationDetails `json:"details,omitempty"`
	ActionItems   []string               `json:"actionItems,omitempty"`
}

// ProfileTag is a behavioral label
type ProfileTag string

const (
	TagUnknown        ProfileTag = "UNKNOWN"
	TagWeekendWarrior ProfileTag = "WEEKEND_WARRIOR"
	TagBusinessHours  ProfileTag = "BUSINESS_HOURS"
	TagFlatProfile    ProfileTag = "FLAT_PROFILE"
	TagHighVoltage    ProfileTag = "HIGH_VOLTAGE"
	TagStandard       ProfileTag = "STANDARD"
)

// ClientProfile describes how the customer consumes
type ClientProfile struct {
	Tags          []ProfileTag `json:"tags"`
	SalesArgument string       `json:"salesArgument"`
}

// HasTag reports whether the profile carries the given tag
func (p ClientProfile) HasTag(tag ProfileTag) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SimulationResult is the projected annual cost of one candidate tariff
type SimulationResult struct {
	TariffID              string          `json:"tariffId"`
	TariffName            string          `json:"tariffName"`
	Company               string          `json:"company"`
	Tariff                TariffCandidate `json:"tariff"`
	AnnualCostTotal       float64         `json:"annualCostTotal"`
	AnnualCostPower       float64         `json:"annualCostPower"`
	AnnualCostEnergy      float64         `json:"annualCostEnergy"`
	AnnualCostFixed       float64         `json:"annualCostFixed"`
	AnnualCostPassThrough float64         `json:"annualCostPassThrough"` // reactive + rental
	AnnualCostWithTax     float64         `json:"annualCostWithTax"`
	AnnualSavings         float64         `json:"annualSavings"`
	Score                 float64         `json:"score"`
	IsBestValue           bool            `json:"isBestValue"`
}

// AnalysisMetadata describes how the projection was made
type AnalysisMetadata struct {
	InvoiceDays        int        `json:"invoiceDays"`
	ProjectedAnnualKWh float64    `json:"projectedAnnualKwh"`
	SeasonalityFactor  float64    `json:"seasonalityFactor"` // weight of the invoice midpoint month
	MidpointMonth      time.Month `json:"midpointMonth"`
	ActivePeriods      int        `json:"activePeriods"`
	TariffType         TariffType `json:"tariffType"`
}

// CurrentStatus summarizes what the customer is paying today
type CurrentStatus struct {
	PeriodStart          time.Time `json:"periodStart"`
	PeriodEnd            time.Time `json:"periodEnd"`
	CostPower            float64   `json:"costPower"`
	CostEnergy           float64   `json:"costEnergy"`
	CostReactive         float64   `json:"costReactive"`
	CostRental           float64   `json:"costRental"`
	InvoiceTotal         float64   `json:"invoiceTotal"`
	AnnualCostProjected  float64   `json:"annualCostProjected"`
	AnnualCostWithTax    float64   `json:"annualCostWithTax"`
	ContractedPower      Periods   `json:"contractedPower"`
	PowerPriceDaily      Periods   `json:"powerPriceDaily"` // invoiced price, per kW per day
	EnergyConsumption    Periods   `json:"energyConsumption"`
	ProjectedKWhByPeriod Periods   `json:"projectedKwhByPeriod"`
	Warnings             []string  `json:"warnings"`
}

// ResultBundle is the complete output of one engine run
type ResultBundle struct {
	Metadata              AnalysisMetadata   `json:"metadata"`
	CurrentStatus         CurrentStatus      `json:"currentStatus"`
	Opportunities         []AuditOpportunity `json:"opportunities"`
	Recommendations       []Recommendation   `json:"recommendations"`
	Profile               ClientProfile      `json:"profile"`
	TopProposals          []SimulationResult `json:"topProposals"`
	TotalPotentialSavings float64            `json:"totalPotentialSavings"`
}

// BestProposal returns the best-value proposal, or nil when the catalog was empty
func (b *ResultBundle) BestProposal() *SimulationResult {
	for i := range b.TopProposals {
		if b.TopProposals[i].IsBestValue {
			return &b.TopProposals[i]
		}
	}
	return nil
}
