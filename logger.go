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
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with domain-specific methods
type Logger struct {
	*slog.Logger
}

// NewLogger creates a text-formatted logger
func NewLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// NewJSONLogger creates a JSON-formatted logger
func NewJSONLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// NewNopLogger creates a logger that drops everything
func NewNopLogger() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.With("component", component)}
}

// WithInvoice adds the invoiced period to the logger
func (l *Logger) WithInvoice(inv *Invoice) *Logger {
	return &Logger{l.With(
		"period_start", inv.PeriodStart.Format("2006-01-02"),
		"period_end", inv.PeriodEnd.Format("2006-01-02"),
		"tariff", inv.TariffType.AccessCode(),
	)}
}

// LogAnalysisStage logs analysis stage completion
func (l *Logger) LogAnalysisStage(stage string) {
	l.Debug("Analysis stage completed",
		"stage", stage,
	)
}

// LogNormalizationWarning logs a data-quality warning raised while normalizing
func (l *Logger) LogNormalizationWarning(warning string) {
	l.Warn("Invoice data warning",
		"warning", warning,
	)
}

// LogOpportunity logs a detected savings opportunity
func (l *Logger) LogOpportunity(kind string, priority Priority, annualSavings float64) {
	l.Debug("Opportunity detected",
		"type", kind,
		"priority", priority,
		"annual_savings", fmt.Sprintf("%.2f", annualSavings),
	)
}

// LogSimulation logs the simulated cost of one tariff candidate
func (l *Logger) LogSimulation(tariffID string, annualCost, savings, score float64) {
	l.Debug("Tariff simulated",
		"tariff_id", tariffID,
		"annual_cost", fmt.Sprintf("%.2f", annualCost),
		"savings", fmt.Sprintf("%.2f", savings),
		"score", fmt.Sprintf("%.2f", score),
	)
}

// LogStorageOperation logs storage operations
func (l *Logger) LogStorageOperation(operation, path string) {
	l.Debug("Storage operation",
		"operation", operation,
		"path", path,
	)
}

// UserMessage outputs a message directly to stdout (bypassing structured logging)
func (l *Logger) UserMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
