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
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatCurrency formats a value with thousands separators and two decimals
func FormatCurrency(symbol string, value float64) string {
	return humanize.FormatFloat("#,###.##", value) + " " + symbol
}

// FormatKWh formats an energy amount
func FormatKWh(value float64) string {
	return humanize.FormatFloat("#,###.", value) + " kWh"
}

// FormatPercentage formats a 0..1 share as a percentage
func FormatPercentage(share float64) string {
	return fmt.Sprintf("%.1f%%", share*100)
}

func priorityIcon(p Priority) string {
	switch p {
	case PriorityHigh:
		return "🔴"
	case PriorityMedium:
		return "🟡"
	default:
		return "🔵"
	}
}

// Reporter generates markdown reports from result bundles
type Reporter struct {
	logger   *Logger
	currency string
}

// NewReporter creates a new report generator
func NewReporter(currency string, logger *Logger) *Reporter {
	return &Reporter{
		logger:   logger,
		currency: currency,
	}
}

// GenerateReport writes the report to outputPath, or stdout when empty
func (r *Reporter) GenerateReport(bundle *ResultBundle, outputPath string) error {
	r.logger.Info("Generating report")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	r.Render(writer, bundle)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}
	return nil
}

// Render writes the markdown report
func (r *Reporter) Render(w io.Writer, bundle *ResultBundle) {
	r.writeHeader(w, bundle)
	r.writeSummary(w, bundle)
	r.writeWarnings(w, bundle)
	r.writeConsumption(w, bundle)
	r.writeProposals(w, bundle)
	r.writeOpportunities(w, bundle)
	r.writeRecommendations(w, bundle)
	r.writeProfile(w, bundle)
	r.writeFooter(w)
}

func (r *Reporter) money(v float64) string {
	return FormatCurrency(r.currency, v)
}

func (r *Reporter) writeHeader(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, "# Electricity Tariff Proposal\n\n")
	fmt.Fprintf(w, "**Invoice Period:** %s to %s (%d days)\n\n",
		b.CurrentStatus.PeriodStart.Format("2006-01-02"),
		b.CurrentStatus.PeriodEnd.Format("2006-01-02"),
		b.Metadata.InvoiceDays,
	)
	fmt.Fprintf(w, "**Access Tariff:** %s (%d active periods)\n\n",
		b.Metadata.TariffType.AccessCode(), b.Metadata.ActivePeriods)
	fmt.Fprintf(w, "**voltaudit version:** %s\n\n", GetVersion())
	fmt.Fprintf(w, "---\n\n")
}

func (r *Reporter) writeSummary(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, "## 📊 Summary\n\n")
	fmt.Fprintf(w, "| Item | Amount |\n")
	fmt.Fprintf(w, "|------|--------|\n")
	fmt.Fprintf(w, "| Invoice total (tax excluded) | %s |\n", r.money(b.CurrentStatus.InvoiceTotal))
	fmt.Fprintf(w, "| Current annual spend | %s |\n", r.money(b.CurrentStatus.AnnualCostProjected))
	fmt.Fprintf(w, "| Current annual spend with taxes | %s |\n", r.money(b.CurrentStatus.AnnualCostWithTax))
	fmt.Fprintf(w, "| Projected annual consumption | %s |\n", FormatKWh(b.Metadata.ProjectedAnnualKWh))
	fmt.Fprintf(w, "\n")

	if best := b.BestProposal(); best != nil {
		if best.AnnualSavings > 0 {
			fmt.Fprintf(w, "> **✅ Best value:** %s (%s) saves %s per year\n\n",
				best.TariffName, best.Company, r.money(best.AnnualSavings))
		} else {
			fmt.Fprintf(w, "> **ℹ️ Best value:** %s (%s), but no candidate beats the current spend\n\n",
				best.TariffName, best.Company)
		}
	}

	if b.TotalPotentialSavings > 0 {
		fmt.Fprintf(w, "> **💰 Total potential savings:** %s per year\n\n", r.money(b.TotalPotentialSavings))
	}
}

func (r *Reporter) writeWarnings(w io.Writer, b *ResultBundle) {
	if len(b.CurrentStatus.Warnings) == 0 {
		return
	}

	fmt.Fprintf(w, "## ⚠️ Data Warnings\n\n")
	fmt.Fprintf(w, "Figures below are provisional until these are checked against the invoice:\n\n")
	for _, warning := range b.CurrentStatus.Warnings {
		fmt.Fprintf(w, "- %s\n", warning)
	}
	fmt.Fprintf(w, "\n")
}

func (r *Reporter) writeConsumption(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, "## ⚡ Consumption by Period\n\n")
	fmt.Fprintf(w, "| Period | Contracted | Power Price | Invoiced | Projected Annual |\n")
	fmt.Fprintf(w, "|--------|------------|-------------|----------|------------------|\n")
	for p := 0; p < b.Metadata.ActivePeriods; p++ {
		price := "-"
		if v := b.CurrentStatus.PowerPriceDaily[p]; v > 0 {
			price = fmt.Sprintf("%.6f %s/kW/day", v, r.currency)
		}
		fmt.Fprintf(w, "| P%d | %.1f kW | %s | %s | %s |\n",
			p+1,
			b.CurrentStatus.ContractedPower[p],
			price,
			FormatKWh(b.CurrentStatus.EnergyConsumption[p]),
			FormatKWh(b.CurrentStatus.ProjectedKWhByPeriod[p]),
		)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "*Annual projection uses a seasonal weight of %.3f for %s.*\n\n",
		b.Metadata.SeasonalityFactor, b.Metadata.MidpointMonth)
}

func (r *Reporter) writeProposals(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, "## 🏷️ Tariff Proposals\n\n")

	if len(b.TopProposals) == 0 {
		fmt.Fprintf(w, "No tariff candidates were supplied.\n\n")
		return
	}

	fmt.Fprintf(w, "| # | Tariff | Company | Pricing | Annual Cost | With Taxes | Savings | Score |\n")
	fmt.Fprintf(w, "|---|--------|---------|---------|-------------|------------|---------|-------|\n")
	for i, p := range b.TopProposals {
		name := p.TariffName
		if p.IsBestValue {
			name = "⭐ **" + name + "**"
		}
		pricing := string(p.Tariff.PricingType)
		if p.Tariff.HasPermanence() {
			pricing += fmt.Sprintf(", %d mo. permanence", p.Tariff.PermanenceMonths)
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s | %s | %.1f |\n",
			i+1, name, p.Company, pricing,
			r.money(p.AnnualCostTotal),
			r.money(p.AnnualCostWithTax),
			r.money(p.AnnualSavings),
			p.Score,
		)
	}
	fmt.Fprintf(w, "\n")

	best := b.TopProposals[0]
	fmt.Fprintf(w, "### Cost breakdown: %s\n\n", best.TariffName)
	fmt.Fprintf(w, "- Power: %s\n", r.money(best.AnnualCostPower))
	fmt.Fprintf(w, "- Energy: %s\n", r.money(best.AnnualCostEnergy))
	fmt.Fprintf(w, "- Fixed fees: %s\n", r.money(best.AnnualCostFixed))
	fmt.Fprintf(w, "- Reactive and rental: %s\n\n", r.money(best.AnnualCostPassThrough))
}

func (r *Reporter) writeOpportunities(w io.Writer, b *ResultBundle) {
	if len(b.Opportunities) == 0 {
		return
	}

	fmt.Fprintf(w, "## 🔍 Audit Findings\n\n")
	for _, opp := range b.Opportunities {
		fmt.Fprintf(w, "#### %s %s\n\n", priorityIcon(opp.Priority), opp.Title)
		fmt.Fprintf(w, "%s\n\n", opp.Description)
		fmt.Fprintf(w, "**Annual Savings:** %s\n\n", r.money(opp.AnnualSavings))
		if opp.InvestmentCost != nil && opp.ROIMonths != nil {
			fmt.Fprintf(w, "**Investment:** %s, payback in %.1f months\n\n", r.money(*opp.InvestmentCost), *opp.ROIMonths)
		}
	}
}

func (r *Reporter) writeRecommendations(w io.Writer, b *ResultBundle) {
	if len(b.Recommendations) == 0 {
		return
	}

	fmt.Fprintf(w, "## Recommendations\n\n")
	for _, rec := range b.Recommendations {
		fmt.Fprintf(w, "#### %s %s\n\n", priorityIcon(rec.Priority), rec.Title)
		fmt.Fprintf(w, "%s\n\n", rec.Description)
		if rec.AnnualSavings > 0 {
			fmt.Fprintf(w, "**Estimated Savings:** %s per year", r.money(rec.AnnualSavings))
			if d := rec.Details; d != nil && d.SavingsHigh > 0 {
				fmt.Fprintf(w, " (range %s to %s)", r.money(d.SavingsLow), r.money(d.SavingsHigh))
			}
			fmt.Fprintf(w, "\n\n")
		}
		for _, item := range rec.ActionItems {
			fmt.Fprintf(w, "- %s\n", item)
		}
		if len(rec.ActionItems) > 0 {
			fmt.Fprintf(w, "\n")
		}
	}
}

func (r *Reporter) writeProfile(w io.Writer, b *ResultBundle) {
	tags := make([]string, 0, len(b.Profile.Tags))
	for _, t := range b.Profile.Tags {
		tags = append(tags, "`"+string(t)+"`")
	}

	fmt.Fprintf(w, "## 👤 Client Profile\n\n")
	fmt.Fprintf(w, "**Tags:** %s\n\n", strings.Join(tags, " "))
	fmt.Fprintf(w, "%s\n\n", b.Profile.SalesArgument)
}

func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*Annual figures are projected from a single invoice and a typical seasonal curve. Actual costs vary with usage, weather and regulated charges. Check the supplier's contract terms before switching.*\n\n")
	fmt.Fprintf(w, "*Generated by voltaudit*\n")
}
