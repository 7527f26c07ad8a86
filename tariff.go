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
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var catalogValidator = validator.New()

// ActivePeriods returns how many billing periods a tariff type uses. Both
// low-voltage types are billed on three periods.
func ActivePeriods(t TariffType) int {
	if t == TariffHighVoltage {
		return NumPeriods
	}
	return 3
}

// priceAt returns the price for a 0-based period, 0 when missing or not finite
func priceAt(prices []float64, idx int) float64 {
	if idx < 0 || idx >= len(prices) {
		return 0
	}
	p := prices[idx]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p
}

// PowerPriceAt returns the daily power price for a 0-based period
func (t TariffCandidate) PowerPriceAt(idx int) float64 {
	return priceAt(t.PowerPrice, idx)
}

// EnergyPriceAt returns the energy price for a 0-based period
func (t TariffCandidate) EnergyPriceAt(idx int) float64 {
	return priceAt(t.EnergyPrice, idx)
}

// HasPermanence reports whether the offer carries a minimum contract term
func (t TariffCandidate) HasPermanence() bool {
	return t.PermanenceMonths > 0
}

// ValidateCatalog checks every candidate before it reaches the engine.
// Duplicate ids are rejected as well as struct-level violations.
func ValidateCatalog(catalog []TariffCandidate) error {
	seen := make(map[string]int, len(catalog))

	for i := range catalog {
		candidate := catalog[i]
		var problems []string

		if err := catalogValidator.Struct(candidate); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("validating tariff %d: %w", i, err)
			}
			for _, fe := range verrs {
				problems = append(problems, describeFieldError(fe))
			}
		}

		if prev, dup := seen[candidate.ID]; dup && candidate.ID != "" {
			problems = append(problems, fmt.Sprintf("id duplicates tariff %d", prev))
		}
		seen[candidate.ID] = i

		if len(problems) > 0 {
			return &CatalogError{
				Index:    i,
				TariffID: candidate.ID,
				Problems: problems,
			}
		}
	}

	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Namespace())
	case "max":
		return fmt.Sprintf("%s has more than %s periods", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
}
