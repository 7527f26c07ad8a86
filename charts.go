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
	"encoding/base64"
	"fmt"

	charts "github.com/vicanso/go-charts/v2"
)

// ChartGenerator handles chart generation
type ChartGenerator struct {
	theme string
}

// NewChartGenerator creates a new chart generator
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{
		theme: "dark", // Match our HTML report dark theme
	}
}

// GenerateCostComparisonChart creates a bar chart of the current annual spend
// against each proposal
func (cg *ChartGenerator) GenerateCostComparisonChart(bundle *ResultBundle) (string, error) {
	if len(bundle.TopProposals) == 0 {
		return "", fmt.Errorf("no proposals to compare")
	}

	labels := []string{"Current"}
	costs := []float64{bundle.CurrentStatus.AnnualCostProjected}
	for _, p := range bundle.TopProposals {
		labels = append(labels, p.TariffName)
		costs = append(costs, p.AnnualCostTotal)
	}

	p, err := charts.BarRender(
		[][]float64{costs},
		charts.TitleTextOptionFunc("Annual Cost Comparison"),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Annual cost (tax excluded)"}, charts.PositionRight),
		charts.ThemeOptionFunc(cg.getTheme()),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render cost chart: %w", err)
	}

	return encodeChart(p)
}

// GenerateConsumptionChart creates a pie chart of invoiced consumption by period
func (cg *ChartGenerator) GenerateConsumptionChart(bundle *ResultBundle) (string, error) {
	var values []float64
	var labels []string
	for p := 0; p < bundle.Metadata.ActivePeriods; p++ {
		kwh := bundle.CurrentStatus.EnergyConsumption[p]
		if kwh <= 0 {
			continue
		}
		values = append(values, kwh)
		labels = append(labels, fmt.Sprintf("P%d", p+1))
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no consumption data available")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc("Consumption by Period"),
		charts.LegendLabelsOptionFunc(labels, charts.PositionRight),
		charts.ThemeOptionFunc(cg.getTheme()),
		charts.WidthOptionFunc(600),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
		charts.PieSeriesShowLabel(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render consumption chart: %w", err)
	}

	return encodeChart(p)
}

// encodeChart converts a rendered chart to base64 for embedding in HTML
func encodeChart(p *charts.Painter) (string, error) {
	buf, err := p.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// getTheme returns the chart theme name
func (cg *ChartGenerator) getTheme() string {
	return cg.theme
}
