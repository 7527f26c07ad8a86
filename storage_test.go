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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "proposals"), NewNopLogger())
	require.NoError(t, err)
	return s
}

func sampleBundle(savings float64) *ResultBundle {
	return &ResultBundle{
		Metadata: AnalysisMetadata{InvoiceDays: 30, ActivePeriods: 3, TariffType: TariffLowVoltageSimple},
		TopProposals: []SimulationResult{
			{TariffID: "a", TariffName: "Plan A", AnnualSavings: savings, IsBestValue: true},
		},
		Opportunities:   []AuditOpportunity{},
		Recommendations: []Recommendation{},
		Profile:         ClientProfile{Tags: []ProfileTag{TagStandard}},
	}
}

func TestSanitizeClientRef(t *testing.T) {
	assert.Equal(t, "acme-corp-s-l", sanitizeClientRef("ACME Corp, S.L."))
	assert.Equal(t, "client", sanitizeClientRef("  ¿?  "))
	assert.Equal(t, "bar-12", sanitizeClientRef("bar-12"))
}

func TestNewProposal(t *testing.T) {
	created := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	p := NewProposal("Bar Pepe", sampleBundle(10), created)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "bar-pepe", p.ClientRef)
	assert.Equal(t, ProposalDraft, p.Status)
	assert.Equal(t, created, p.CreatedAt)

	other := NewProposal("Bar Pepe", sampleBundle(10), created)
	assert.NotEqual(t, p.ID, other.ID)
}

func TestSaveAndLoadLatestProposal(t *testing.T) {
	s := newTestStorage(t)

	older := NewProposal("acme", sampleBundle(10), time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	newer := NewProposal("acme", sampleBundle(20), time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC))
	// unrelated client sharing the archive
	foreign := NewProposal("zeta", sampleBundle(99), time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))

	for _, p := range []*Proposal{newer, older, foreign} {
		path, err := s.SaveProposal(p)
		require.NoError(t, err)
		assert.FileExists(t, path)
	}

	latest, err := s.LoadLatestProposal("ACME")
	require.NoError(t, err)
	require.NotNil(t, latest)

	assert.Equal(t, newer.ID, latest.ID)
	assert.True(t, newer.CreatedAt.Equal(latest.CreatedAt))
	require.NotNil(t, latest.Result)
	assert.Equal(t, 20.0, latest.Result.TopProposals[0].AnnualSavings)
}

func TestLoadLatestProposalUnknownClient(t *testing.T) {
	s := newTestStorage(t)

	p, err := s.LoadLatestProposal("nobody")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestListProposals(t *testing.T) {
	s := newTestStorage(t)

	first := NewProposal("a", sampleBundle(1), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := NewProposal("b", sampleBundle(2), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	third := NewProposal("c", sampleBundle(3), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	for _, p := range []*Proposal{first, second, third} {
		_, err := s.SaveProposal(p)
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.basePath, "d_proposal_broken.json"), []byte("{"), 0644))

	list, err := s.ListProposals()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, third.ID, list[1].ID)
	assert.Equal(t, first.ID, list[2].ID)
}

func TestMarkAccepted(t *testing.T) {
	s := newTestStorage(t)

	p := NewProposal("acme", sampleBundle(5), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := s.SaveProposal(p)
	require.NoError(t, err)

	accepted, err := s.MarkAccepted(p.ID)
	require.NoError(t, err)
	assert.Equal(t, ProposalAccepted, accepted.Status)

	reloaded, err := s.LoadLatestProposal("acme")
	require.NoError(t, err)
	assert.Equal(t, ProposalAccepted, reloaded.Status)

	_, err = s.MarkAccepted(uuid.NewString())
	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "find_proposal", storageErr.Operation)
}

func TestMarkAcceptedRejectsInvalidIDs(t *testing.T) {
	s := newTestStorage(t)

	p := NewProposal("acme", sampleBundle(5), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err := s.SaveProposal(p)
	require.NoError(t, err)

	for _, id := range []string{"*", "?", "", "../" + p.ID, "does-not-exist"} {
		_, err := s.MarkAccepted(id)

		var storageErr *StorageError
		require.True(t, errors.As(err, &storageErr), id)
		assert.Equal(t, "validate_id", storageErr.Operation, id)
	}

	latest, err := s.LoadLatestProposal("acme")
	require.NoError(t, err)
	assert.Equal(t, ProposalDraft, latest.Status)
}
