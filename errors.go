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
)

// InputError represents a raw invoice or catalog file that could not be read or decoded
type InputError struct {
	Kind   string // invoice or catalog
	Path   string
	Format string
	Err    error
}

func (e *InputError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("failed to load %s from %s (%s): %v", e.Kind, e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("failed to load %s from %s: %v", e.Kind, e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// CatalogError represents a tariff catalog entry that fails boundary validation
type CatalogError struct {
	Index    int
	TariffID string
	Problems []string
}

func (e *CatalogError) Error() string {
	id := e.TariffID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("invalid tariff #%d (%s): %s", e.Index, id, strings.Join(e.Problems, "; "))
}

// ValidationError represents a configuration or input validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation error for %s (%s): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// StorageError represents a proposal archive operation error
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s at %s: %v", e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}
