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
	"strings"
)

const (
	unknownProfileArgument  = "Not enough consumption data to profile this supply point. Review a complete invoice before proposing a tariff."
	standardProfileArgument = "Standard consumption profile. Savings come mainly from a better-priced tariff and right-sized contracted power."
)

// Profiler classifies consumption behavior into tags and a sales narrative
type Profiler struct {
	config EngineConfig
	logger *Logger
}

// NewProfiler creates a new profiler
func NewProfiler(config EngineConfig, logger *Logger) *Profiler {
	return &Profiler{
		config: config,
		logger: logger.WithComponent("profiler"),
	}
}

// Analyze tags the invoice. Checks are independent and each tag adds one
// sentence to the narrative.
func (p *Profiler) Analyze(inv *Invoice) ClientProfile {
	total := inv.EnergyConsumption.Sum()
	if total <= 0 {
		return ClientProfile{
			Tags:          []ProfileTag{TagUnknown},
			SalesArgument: unknownProfileArgument,
		}
	}

	share := func(idx ...int) float64 {
		s := 0.0
		for _, i := range idx {
			s += inv.EnergyConsumption[i]
		}
		return s / total
	}

	var tags []ProfileTag
	var argument []string

	if share(5) > p.config.NightOwlThreshold {
		tags = append(tags, TagWeekendWarrior)
		argument = append(argument, "Most of the energy is used at night and on weekends, in the cheapest hours; an indexed or strongly time-differentiated tariff rewards that pattern.")
	}

	if share(0, 1) > DefaultBusinessHoursShare {
		tags = append(tags, TagBusinessHours)
		argument = append(argument, "Consumption concentrates in business hours, so a fixed price protects the budget from peak-hour market spikes.")
	}

	flat := true
	for i := range inv.EnergyConsumption {
		if share(i) > DefaultFlatProfileMaxShare {
			flat = false
			break
		}
	}
	if flat {
		tags = append(tags, TagFlatProfile)
		argument = append(argument, "Usage is spread evenly across periods, which makes costs predictable and suits a single-price offer.")
	}

	if inv.TariffType == TariffHighVoltage {
		tags = append(tags, TagHighVoltage)
		argument = append(argument, "As a high-voltage supply with six billing periods, fine tuning of contracted power per period has a large impact.")
	}

	if len(tags) == 0 {
		tags = append(tags, TagStandard)
		argument = append(argument, standardProfileArgument)
	}

	p.logger.LogAnalysisStage("profile")

	return ClientProfile{
		Tags:          tags,
		SalesArgument: strings.Join(argument, " "),
	}
}
