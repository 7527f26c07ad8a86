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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "voltaudit",
		Usage:   "Audit an electricity invoice and rank competing tariffs against it",
		Version: GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
				EnvVars: []string{"VOLTAUDIT_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "Emit logs as JSON",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			normalizeCommand(),
			catalogCommand(),
			historyCommand(),
			versionCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger shared by every command
func setup(c *cli.Context) (*Config, *Logger, error) {
	path := c.String("config")
	if !c.IsSet("config") {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}

	config, err := LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if c.Bool("debug") {
		config.Debug = true
	}
	if c.Bool("json-logs") {
		config.JSONLogs = true
	}

	logger := NewLogger(config.Debug)
	if config.JSONLogs {
		logger = NewJSONLogger(config.Debug)
	}

	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		return nil, nil, err
	}

	logger.Debug("Configuration loaded", "config_file", path, "storage", config.StoragePath)
	return config, logger, nil
}

// openOutput returns stdout when path is empty
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func writeJSON(path string, v interface{}) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Normalize an invoice, audit it and simulate a tariff catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "invoice",
				Aliases:  []string{"i"},
				Usage:    "Extracted invoice record (.json, .yaml, or - for JSON on stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "Tariff catalog (.json or .yaml)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "markdown",
				Usage:   "Report format (markdown, html, json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file for report (default: stdout)",
			},
			&cli.StringFlag{
				Name:  "client",
				Value: "client",
				Usage: "Client reference used when archiving the proposal",
			},
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Do not archive the proposal",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	config, logger, err := setup(c)
	if err != nil {
		return err
	}

	format := strings.ToLower(c.String("format"))
	switch format {
	case "markdown", "md", "html", "json":
	default:
		return &ValidationError{Field: "format", Value: format, Message: "must be markdown, html or json"}
	}

	collector := NewCollector(logger)

	logger.Info("Loading invoice", "path", c.String("invoice"))
	raw, err := collector.LoadRawInvoice(c.String("invoice"))
	if err != nil {
		return err
	}

	logger.Info("Loading tariff catalog", "path", c.String("catalog"))
	catalog, err := collector.LoadCatalog(c.String("catalog"))
	if err != nil {
		return err
	}

	invoice := NewNormalizer(logger).Normalize(raw)

	engine := NewEngine(config.Engine, logger)
	bundle, err := engine.Run(c.Context, invoice, catalog)
	if err != nil {
		return err
	}

	if config.SaveResults && !c.Bool("no-save") {
		storage, err := NewStorage(config.StoragePath, logger)
		if err != nil {
			logger.Warn("Failed to initialize storage", "error", err)
		} else {
			proposal := NewProposal(c.String("client"), bundle, time.Now())
			proposal.InvoicePath = c.String("invoice")
			proposal.CatalogPath = c.String("catalog")
			if path, err := storage.SaveProposal(proposal); err != nil {
				logger.Warn("Failed to archive proposal", "error", err)
			} else {
				logger.Info("Proposal archived", "id", proposal.ID, "path", path)
			}
		}
	}

	switch format {
	case "html":
		return NewHTMLReporter(config.Currency, logger).GenerateHTMLReport(bundle, c.String("output"))
	case "json":
		return writeJSON(c.String("output"), bundle)
	default:
		return NewReporter(config.Currency, logger).GenerateReport(bundle, c.String("output"))
	}
}

func normalizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "Print the canonical invoice built from an extracted record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "invoice",
				Aliases:  []string{"i"},
				Usage:    "Extracted invoice record (.json, .yaml, or - for JSON on stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file (default: stdout)",
			},
		},
		Action: func(c *cli.Context) error {
			_, logger, err := setup(c)
			if err != nil {
				return err
			}

			raw, err := NewCollector(logger).LoadRawInvoice(c.String("invoice"))
			if err != nil {
				return err
			}
			logger.Debug("Raw invoice fields", "keys", strings.Join(raw.SortedKeys(), ","))

			return writeJSON(c.String("output"), NewNormalizer(logger).Normalize(raw))
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Validate a tariff catalog and list its offers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"c"},
				Usage:    "Tariff catalog (.json or .yaml)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			_, logger, err := setup(c)
			if err != nil {
				return err
			}

			catalog, err := NewCollector(logger).LoadCatalog(c.String("catalog"))
			if err != nil {
				return err
			}

			logger.UserMessage("%d tariff(s) valid", len(catalog))
			for _, t := range catalog {
				logger.UserMessage("  %-16s %-32s %-20s %-8s permanence %d mo., fixed fee %.2f/mo.",
					t.ID, t.Name, t.Company, t.PricingType, t.PermanenceMonths, t.FixedFee)
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List archived proposals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "accept",
				Usage: "Mark the proposal with this id as accepted",
			},
		},
		Action: func(c *cli.Context) error {
			config, logger, err := setup(c)
			if err != nil {
				return err
			}

			storage, err := NewStorage(config.StoragePath, logger)
			if err != nil {
				return err
			}

			if id := c.String("accept"); id != "" {
				p, err := storage.MarkAccepted(id)
				if err != nil {
					return err
				}
				logger.UserMessage("Proposal %s for %s marked %s", p.ID, p.ClientRef, p.Status)
				return nil
			}

			proposals, err := storage.ListProposals()
			if err != nil {
				return err
			}
			if len(proposals) == 0 {
				logger.UserMessage("No archived proposals in %s", config.StoragePath)
				return nil
			}

			for _, p := range proposals {
				best := "-"
				savings := 0.0
				if p.Result != nil {
					if b := p.Result.BestProposal(); b != nil {
						best = b.TariffName
						savings = b.AnnualSavings
					}
				}
				logger.UserMessage("%s  %s  %-16s %-9s best: %s (%s)",
					p.CreatedAt.Format("2006-01-02 15:04"), p.ID, p.ClientRef, p.Status,
					best, FormatCurrency(config.Currency, savings))
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version details",
		Action: func(c *cli.Context) error {
			fmt.Println(VersionDetails())
			return nil
		},
	}
}
