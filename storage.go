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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Proposal statuses
const (
	ProposalDraft    = "draft"
	ProposalAccepted = "accepted"
)

// Proposal is an archived engine result. Identity and timestamps live here,
// outside the result bundle.
type Proposal struct {
	ID          string        `json:"id"`
	ClientRef   string        `json:"clientRef"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	InvoicePath string        `json:"invoicePath,omitempty"`
	CatalogPath string        `json:"catalogPath,omitempty"`
	Result      *ResultBundle `json:"result"`
}

// NewProposal wraps a result bundle as a draft proposal
func NewProposal(clientRef string, result *ResultBundle, createdAt time.Time) *Proposal {
	return &Proposal{
		ID:        uuid.NewString(),
		ClientRef: sanitizeClientRef(clientRef),
		Status:    ProposalDraft,
		CreatedAt: createdAt,
		Result:    result,
	}
}

var clientRefPattern = regexp.MustCompile(`[^a-z0-9-]+`)

func sanitizeClientRef(ref string) string {
	ref = clientRefPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(ref)), "-")
	ref = strings.Trim(ref, "-")
	if ref == "" {
		return "client"
	}
	return ref
}

// Storage archives proposals as JSON files
type Storage struct {
	basePath string
	logger   *Logger
}

// NewStorage creates a new proposal archive
func NewStorage(basePath string, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, &StorageError{
			Operation: "create_directory",
			Path:      basePath,
			Err:       err,
		}
	}

	logger.Debug("Storage initialized", "path", basePath)

	return &Storage{
		basePath: basePath,
		logger:   logger,
	}, nil
}

// SaveProposal writes a proposal and returns its path
func (s *Storage) SaveProposal(p *Proposal) (string, error) {
	filename := fmt.Sprintf("%s_proposal_%s_%s.json",
		p.ClientRef, p.CreatedAt.UTC().Format("2006-01-02_15-04-05"), p.ID)
	path := filepath.Join(s.basePath, filename)

	s.logger.LogStorageOperation("save_proposal", path)

	return path, s.saveJSON(path, p)
}

// LoadLatestProposal loads the most recent proposal for a client, nil when none exists
func (s *Storage) LoadLatestProposal(clientRef string) (*Proposal, error) {
	matches, err := s.proposalFiles(sanitizeClientRef(clientRef))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// File names sort by creation time
	latest := matches[len(matches)-1]
	s.logger.LogStorageOperation("load_latest_proposal", latest)

	var p Proposal
	if err := s.loadJSON(latest, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProposals returns every archived proposal, newest first
func (s *Storage) ListProposals() ([]*Proposal, error) {
	matches, err := s.proposalFiles("*")
	if err != nil {
		return nil, err
	}

	proposals := make([]*Proposal, 0, len(matches))
	for _, path := range matches {
		var p Proposal
		if err := s.loadJSON(path, &p); err != nil {
			s.logger.Warn("Skipping unreadable proposal", "path", path, "error", err)
			continue
		}
		proposals = append(proposals, &p)
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.After(proposals[j].CreatedAt)
	})
	return proposals, nil
}

// MarkAccepted flips an archived proposal to accepted
func (s *Storage) MarkAccepted(id string) (*Proposal, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, &StorageError{
			Operation: "validate_id",
			Path:      s.basePath,
			Err:       fmt.Errorf("invalid proposal id %q: %w", id, err),
		}
	}
	id = parsed.String()

	matches, err := filepath.Glob(filepath.Join(s.basePath, fmt.Sprintf("*_proposal_*_%s.json", id)))
	if err != nil || len(matches) == 0 {
		return nil, &StorageError{
			Operation: "find_proposal",
			Path:      s.basePath,
			Err:       fmt.Errorf("proposal %s not found", id),
		}
	}

	var p Proposal
	if err := s.loadJSON(matches[0], &p); err != nil {
		return nil, err
	}
	p.Status = ProposalAccepted

	s.logger.LogStorageOperation("accept_proposal", matches[0])
	return &p, s.saveJSON(matches[0], &p)
}

func (s *Storage) proposalFiles(clientRef string) ([]string, error) {
	pattern := filepath.Join(s.basePath, fmt.Sprintf("%s_proposal_*.json", clientRef))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &StorageError{
			Operation: "glob_proposals",
			Path:      pattern,
			Err:       err,
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// saveJSON saves data as JSON to a file
func (s *Storage) saveJSON(path string, data interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return &StorageError{
			Operation: "create_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return &StorageError{
			Operation: "encode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// loadJSON loads data from a JSON file
func (s *Storage) loadJSON(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return &StorageError{
			Operation: "open_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		return &StorageError{
			Operation: "decode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}
