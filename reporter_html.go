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
	"html"
	"io"
	"os"
	"strings"
)

// HTMLReporter generates HTML reports from result bundles
type HTMLReporter struct {
	logger   *Logger
	currency string
	charts   *ChartGenerator
}

// NewHTMLReporter creates a new HTML report generator
func NewHTMLReporter(currency string, logger *Logger) *HTMLReporter {
	return &HTMLReporter{
		logger:   logger,
		currency: currency,
		charts:   NewChartGenerator(),
	}
}

// GenerateHTMLReport generates an HTML report
func (r *HTMLReporter) GenerateHTMLReport(bundle *ResultBundle, outputPath string) error {
	r.logger.Info("Generating HTML report")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create HTML report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	r.Render(writer, bundle)

	if outputPath != "" {
		r.logger.Info("HTML report saved", "path", outputPath)
	}

	return nil
}

// Render writes the HTML document
func (r *HTMLReporter) Render(w io.Writer, bundle *ResultBundle) {
	r.writeHTMLHeader(w, bundle)
	r.writeHTMLSummary(w, bundle)
	r.writeHTMLWarnings(w, bundle)
	r.writeHTMLProposals(w, bundle)
	r.writeHTMLCharts(w, bundle)
	r.writeHTMLOpportunities(w, bundle)
	r.writeHTMLRecommendations(w, bundle)
	r.writeHTMLProfile(w, bundle)
	r.writeHTMLFooter(w)
}

func (r *HTMLReporter) money(v float64) string {
	return html.EscapeString(FormatCurrency(r.currency, v))
}

func priorityClass(p Priority) string {
	return strings.ToLower(string(p))
}

func (r *HTMLReporter) writeHTMLHeader(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Electricity Tariff Proposal</title>
    <style>
        :root {
            --primary-color: #2F80ED;
            --secondary-color: #27AE60;
            --warning-color: #F2C94C;
            --danger-color: #EB5757;
            --bg-color: #0B1320;
            --card-bg: #16202F;
            --text-color: #E6EDF6;
            --text-muted: #94A3B8;
            --border-color: #263247;
        }

        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Ubuntu, sans-serif;
            background: var(--bg-color);
            color: var(--text-color);
            line-height: 1.6;
            padding: 20px;
        }

        .container { max-width: 1100px; margin: 0 auto; }

        header {
            background: linear-gradient(135deg, var(--primary-color), var(--secondary-color));
            padding: 36px;
            border-radius: 16px;
            margin-bottom: 30px;
        }

        h1 { font-size: 2.2em; margin-bottom: 8px; }
        .subtitle { color: rgba(255, 255, 255, 0.9); }

        .card {
            background: var(--card-bg);
            border-radius: 12px;
            padding: 28px;
            margin-bottom: 28px;
            border: 1px solid var(--border-color);
        }

        h2 {
            color: var(--primary-color);
            margin-bottom: 18px;
            border-bottom: 2px solid var(--border-color);
            padding-bottom: 8px;
        }

        table { width: 100%%; border-collapse: collapse; margin: 16px 0; }
        th, td { padding: 10px; text-align: left; border-bottom: 1px solid var(--border-color); }
        th { background: rgba(47, 128, 237, 0.12); color: var(--primary-color); }
        tr.best { background: rgba(39, 174, 96, 0.12); font-weight: 600; }

        .metric-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 18px;
        }

        .metric-card {
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 18px;
            text-align: center;
        }

        .metric-value { font-size: 1.8em; font-weight: bold; color: var(--secondary-color); }
        .metric-label { color: var(--text-muted); font-size: 0.9em; }

        .badge {
            display: inline-block;
            padding: 4px 10px;
            border-radius: 20px;
            font-size: 0.8em;
            font-weight: 600;
            margin: 3px;
            background: #3F51B5;
            color: white;
        }

        .insight-box {
            border-left: 4px solid var(--secondary-color);
            background: rgba(39, 174, 96, 0.05);
            padding: 18px;
            margin: 14px 0;
            border-radius: 4px;
        }
        .insight-box.high { border-left-color: var(--danger-color); background: rgba(235, 87, 87, 0.06); }
        .insight-box.medium { border-left-color: var(--warning-color); background: rgba(242, 201, 76, 0.06); }
        .insight-title { font-weight: 600; margin-bottom: 8px; }
        .insight-action { color: var(--text-muted); margin-top: 8px; }

        .warning-list li { color: var(--warning-color); margin-left: 20px; }
        .chart { width: 100%%; border-radius: 8px; margin: 10px 0; }

        footer {
            text-align: center;
            padding: 28px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
            margin-top: 36px;
        }

        @media print {
            body { background: white; color: black; }
            .card { border: 1px solid #ddd; break-inside: avoid; }
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>⚡ Electricity Tariff Proposal</h1>
            <div class="subtitle">Invoice Period: %s to %s (%d days)</div>
            <div class="subtitle">Access tariff %s, %d active periods</div>
            <div class="subtitle" style="opacity: 0.7; font-size: 0.9em; margin-top: 8px;">voltaudit %s</div>
        </header>
`,
		b.CurrentStatus.PeriodStart.Format("2 Jan 2006"),
		b.CurrentStatus.PeriodEnd.Format("2 Jan 2006"),
		b.Metadata.InvoiceDays,
		html.EscapeString(b.Metadata.TariffType.AccessCode()),
		b.Metadata.ActivePeriods,
		html.EscapeString(GetVersion()),
	)
}

func (r *HTMLReporter) writeHTMLSummary(w io.Writer, b *ResultBundle) {
	bestLabel := "No candidates"
	bestSavings := 0.0
	if best := b.BestProposal(); best != nil {
		bestLabel = best.TariffName
		bestSavings = best.AnnualSavings
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>📊 Summary</h2>
            <div class="metric-grid">
                <div class="metric-card">
                    <div class="metric-label">Current Annual Spend</div>
                    <div class="metric-value">%s</div>
                    <span class="badge">%s with taxes</span>
                </div>
                <div class="metric-card">
                    <div class="metric-label">Projected Consumption</div>
                    <div class="metric-value">%s</div>
                    <span class="badge">Seasonal weight %.3f</span>
                </div>
                <div class="metric-card">
                    <div class="metric-label">Best Value</div>
                    <div class="metric-value">%s</div>
                    <span class="badge">Saves %s</span>
                </div>
                <div class="metric-card">
                    <div class="metric-label">Total Potential Savings</div>
                    <div class="metric-value">%s</div>
                    <span class="badge">Per year</span>
                </div>
            </div>
        </div>
`,
		r.money(b.CurrentStatus.AnnualCostProjected),
		r.money(b.CurrentStatus.AnnualCostWithTax),
		html.EscapeString(FormatKWh(b.Metadata.ProjectedAnnualKWh)),
		b.Metadata.SeasonalityFactor,
		html.EscapeString(bestLabel),
		r.money(bestSavings),
		r.money(b.TotalPotentialSavings),
	)
}

func (r *HTMLReporter) writeHTMLWarnings(w io.Writer, b *ResultBundle) {
	if len(b.CurrentStatus.Warnings) == 0 {
		return
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>⚠️ Data Warnings</h2>
            <ul class="warning-list">
`)
	for _, warning := range b.CurrentStatus.Warnings {
		fmt.Fprintf(w, "                <li>%s</li>\n", html.EscapeString(warning))
	}
	fmt.Fprintf(w, `            </ul>
        </div>
`)
}

func (r *HTMLReporter) writeHTMLProposals(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, `
        <div class="card">
            <h2>🏷️ Tariff Proposals</h2>
`)

	if len(b.TopProposals) == 0 {
		fmt.Fprintf(w, `            <p>No tariff candidates were supplied.</p>
        </div>
`)
		return
	}

	fmt.Fprintf(w, `            <table>
                <thead>
                    <tr><th>#</th><th>Tariff</th><th>Company</th><th>Pricing</th><th>Annual Cost</th><th>With Taxes</th><th>Savings</th><th>Score</th></tr>
                </thead>
                <tbody>
`)
	for i, p := range b.TopProposals {
		class := ""
		name := html.EscapeString(p.TariffName)
		if p.IsBestValue {
			class = ` class="best"`
			name = "⭐ " + name
		}
		fmt.Fprintf(w, "                    <tr%s><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%.1f</td></tr>\n",
			class, i+1, name,
			html.EscapeString(p.Company),
			html.EscapeString(string(p.Tariff.PricingType)),
			r.money(p.AnnualCostTotal),
			r.money(p.AnnualCostWithTax),
			r.money(p.AnnualSavings),
			p.Score,
		)
	}
	fmt.Fprintf(w, `                </tbody>
            </table>
        </div>
`)
}

func (r *HTMLReporter) writeHTMLCharts(w io.Writer, b *ResultBundle) {
	costChart, costErr := r.charts.GenerateCostComparisonChart(b)
	if costErr != nil {
		r.logger.Debug("Skipping cost chart", "reason", costErr)
	}
	usageChart, usageErr := r.charts.GenerateConsumptionChart(b)
	if usageErr != nil {
		r.logger.Debug("Skipping consumption chart", "reason", usageErr)
	}
	if costErr != nil && usageErr != nil {
		return
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>📈 Charts</h2>
`)
	if costErr == nil {
		fmt.Fprintf(w, "            <img class=\"chart\" alt=\"Annual cost comparison\" src=\"data:image/png;base64,%s\">\n", costChart)
	}
	if usageErr == nil {
		fmt.Fprintf(w, "            <img class=\"chart\" alt=\"Consumption by period\" src=\"data:image/png;base64,%s\">\n", usageChart)
	}
	fmt.Fprintf(w, `        </div>
`)
}

func (r *HTMLReporter) writeHTMLOpportunities(w io.Writer, b *ResultBundle) {
	if len(b.Opportunities) == 0 {
		return
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>🔍 Audit Findings</h2>
`)
	for _, opp := range b.Opportunities {
		fmt.Fprintf(w, `            <div class="insight-box %s">
                <div class="insight-title">%s</div>
                <p>%s</p>
                <div class="insight-action">Annual savings: %s`,
			priorityClass(opp.Priority),
			html.EscapeString(opp.Title),
			html.EscapeString(opp.Description),
			r.money(opp.AnnualSavings),
		)
		if opp.InvestmentCost != nil && opp.ROIMonths != nil {
			fmt.Fprintf(w, ". Investment %s, payback in %.1f months", r.money(*opp.InvestmentCost), *opp.ROIMonths)
		}
		fmt.Fprintf(w, `</div>
            </div>
`)
	}
	fmt.Fprintf(w, `        </div>
`)
}

func (r *HTMLReporter) writeHTMLRecommendations(w io.Writer, b *ResultBundle) {
	if len(b.Recommendations) == 0 {
		return
	}

	fmt.Fprintf(w, `
        <div class="card">
            <h2>💡 Recommendations</h2>
`)
	for _, rec := range b.Recommendations {
		fmt.Fprintf(w, `            <div class="insight-box %s">
                <div class="insight-title">%s</div>
                <p>%s</p>
`,
			priorityClass(rec.Priority),
			html.EscapeString(rec.Title),
			html.EscapeString(rec.Description),
		)
		if rec.AnnualSavings > 0 {
			fmt.Fprintf(w, "                <div class=\"insight-action\">Estimated savings: %s per year</div>\n", r.money(rec.AnnualSavings))
		}
		if len(rec.ActionItems) > 0 {
			fmt.Fprintf(w, "                <ul>\n")
			for _, item := range rec.ActionItems {
				fmt.Fprintf(w, "                    <li>%s</li>\n", html.EscapeString(item))
			}
			fmt.Fprintf(w, "                </ul>\n")
		}
		fmt.Fprintf(w, "            </div>\n")
	}
	fmt.Fprintf(w, `        </div>
`)
}

func (r *HTMLReporter) writeHTMLProfile(w io.Writer, b *ResultBundle) {
	fmt.Fprintf(w, `
        <div class="card">
            <h2>👤 Client Profile</h2>
            <p>`)
	for _, tag := range b.Profile.Tags {
		fmt.Fprintf(w, `<span class="badge">%s</span>`, html.EscapeString(string(tag)))
	}
	fmt.Fprintf(w, `</p>
            <p style="margin-top: 12px;">%s</p>
        </div>
`, html.EscapeString(b.Profile.SalesArgument))
}

func (r *HTMLReporter) writeHTMLFooter(w io.Writer) {
	fmt.Fprintf(w, `
        <footer>
            <p><em>Annual figures are projected from a single invoice and a typical seasonal curve. Actual costs vary with usage, weather and regulated charges. Check the supplier's contract terms before switching.</em></p>
            <p style="margin-top: 10px;">Generated by voltaudit</p>
        </footer>
    </div>
</body>
</html>
`)
}
