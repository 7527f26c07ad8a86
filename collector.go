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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input formats accepted for invoice and catalog files
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Collector loads the raw invoice and tariff catalog handed over by upstream collaborators
type Collector struct {
	logger *Logger
	stdin  io.Reader
}

// NewCollector creates a new input collector
func NewCollector(logger *Logger) *Collector {
	return &Collector{
		logger: logger.WithComponent("collector"),
		stdin:  os.Stdin,
	}
}

// DetectFormat picks the decoder from the file extension. "-" is JSON on stdin.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func (c *Collector) open(kind, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, &InputError{Kind: kind, Path: "stdin", Err: err}
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Kind: kind, Path: path, Err: err}
	}
	return data, nil
}

// LoadRawInvoice reads one extracted invoice record
func (c *Collector) LoadRawInvoice(path string) (RawInvoice, error) {
	data, err := c.open("invoice", path)
	if err != nil {
		return nil, err
	}

	format := DetectFormat(path)
	raw, err := DecodeRawInvoice(data, format)
	if err != nil {
		return nil, &InputError{Kind: "invoice", Path: path, Format: format, Err: err}
	}

	c.logger.Debug("Raw invoice loaded", "path", path, "format", format, "fields", len(raw))
	return raw, nil
}

// DecodeRawInvoice decodes an invoice record and flattens nested sections,
// so {"energy": {"p1": 10}} becomes {"energy_p1": 10}
func DecodeRawInvoice(data []byte, format string) (RawInvoice, error) {
	var doc map[string]interface{}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&doc); err != nil {
			return nil, err
		}
	}

	if doc == nil {
		return nil, fmt.Errorf("document is empty or not an object")
	}

	raw := make(RawInvoice, len(doc))
	flattenInto(raw, "", doc)
	return raw, nil
}

// flattenInto writes the scalars of one level before descending, so a
// shallower key always wins over a flattened nested key of the same name.
func flattenInto(dst RawInvoice, prefix string, src map[string]interface{}) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var nested []string
	for _, k := range keys {
		if _, ok := src[k].(map[string]interface{}); ok {
			nested = append(nested, k)
			continue
		}
		key := joinKey(prefix, k)
		if _, taken := dst[key]; !taken {
			dst[key] = src[k]
		}
	}

	for _, k := range nested {
		flattenInto(dst, joinKey(prefix, k), src[k].(map[string]interface{}))
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}

// catalogFile is the on-disk layout of a tariff catalog
type catalogFile struct {
	Tariffs []TariffCandidate `json:"tariffs" yaml:"tariffs"`
}

// LoadCatalog reads and validates a tariff catalog. Validation failures are
// returned before anything reaches the engine.
func (c *Collector) LoadCatalog(path string) ([]TariffCandidate, error) {
	data, err := c.open("catalog", path)
	if err != nil {
		return nil, err
	}

	format := DetectFormat(path)
	catalog, err := DecodeCatalog(data, format)
	if err != nil {
		return nil, &InputError{Kind: "catalog", Path: path, Format: format, Err: err}
	}

	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	c.logger.Debug("Tariff catalog loaded", "path", path, "tariffs", len(catalog))
	return catalog, nil
}

// DecodeCatalog accepts either a {tariffs: [...]} document or a bare list
func DecodeCatalog(data []byte, format string) ([]TariffCandidate, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	var file catalogFile
	var list []TariffCandidate
	isList := trimmed[0] == '[' || trimmed[0] == '-'

	switch {
	case format == FormatYAML && isList:
		if err := yaml.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	case format == FormatYAML:
		if err := yaml.Unmarshal(trimmed, &file); err != nil {
			return nil, err
		}
	case isList:
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	default:
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, err
		}
	}

	return file.Tariffs, nil
}

// SortedKeys returns the raw invoice keys in order
func (r RawInvoice) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
