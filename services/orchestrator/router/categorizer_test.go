// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDesk/services/llm"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

type mockLLM struct {
	response string
	err      error
	calls    int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestCategorizer(t *testing.T, oracle llm.LLMClient) *Categorizer {
	t.Helper()
	vocab, err := LoadEmbeddedVocab()
	require.NoError(t, err)
	return NewCategorizer(vocab, oracle)
}

func TestCategorizeSingleCategoryWithOracleBoost(t *testing.T) {
	oracle := &mockLLM{response: `{"category": "it_support", "confidence": 0.90}`}
	cat := newTestCategorizer(t, oracle)

	result, err := cat.Categorize(context.Background(), "I forgot my SAP password")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryITSupport, result.Primary)
	assert.Equal(t, []datatypes.TicketCategory{datatypes.CategoryITSupport}, result.Detected)
	assert.InDelta(t, 0.90, result.Confidence, 1e-9)
}

func TestCategorizeMultiIntentUsesWeakestLink(t *testing.T) {
	oracle := &mockLLM{response: `{"category": "it_support", "confidence": 0.95}`}
	cat := newTestCategorizer(t, oracle)

	result, err := cat.Categorize(context.Background(),
		"I need a password reset and also want to check my vacation balance")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryMulti, result.Primary)
	assert.ElementsMatch(t, []datatypes.TicketCategory{
		datatypes.CategoryITSupport, datatypes.CategoryHRInquiry,
	}, result.Detected)

	// Final confidence is the minimum across detected categories.
	minConf := 1.0
	for _, conf := range result.PerCategory {
		if conf < minConf {
			minConf = conf
		}
	}
	assert.InDelta(t, minConf, result.Confidence, 1e-9)
	assert.Less(t, result.Confidence, 0.95, "weakest branch must gate the verdict")
}

func TestCategorizeUnknownForcesClari(t *testing.T) {
	oracle := &mockLLM{response: `{"category": "unknown", "confidence": 0.2}`}
	cat := newTestCategorizer(t, oracle)

	result, err := cat.Categorize(context.Background(), "the thing is broken somehow")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryUnknown, result.Primary)
	assert.Empty(t, result.Detected)
	assert.LessOrEqual(t, result.Confidence, 0.6)
	assert.GreaterOrEqual(t, result.Confidence, 0.5,
		"unknown must land in the clarification band, not silent escalation")
}

func TestCategorizeOracleOnlyWhenNoKeywords(t *testing.T) {
	oracle := &mockLLM{response: `{"category": "legal", "confidence": 0.8}`}
	cat := newTestCategorizer(t, oracle)

	result, err := cat.Categorize(context.Background(),
		"Can I forward the draft our vendor sent to my personal mailbox before signing?")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryLegal, result.Primary)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestCategorizeKeywordOnlyModeWithoutOracle(t *testing.T) {
	cat := newTestCategorizer(t, nil)

	result, err := cat.Categorize(context.Background(), "my vpn is down")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryITSupport, result.Primary)
	assert.Greater(t, result.Confidence, 0.6)
}

func TestCategorizeOracleOutageIsFatal(t *testing.T) {
	oracle := &mockLLM{err: errors.New("connection refused")}
	vocab, err := LoadEmbeddedVocab()
	require.NoError(t, err)
	cat := NewCategorizer(vocab, oracle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel quickly so the retry loop exits on context rather than
	// sleeping through the full backoff schedule.
	go cancel()
	_, err = cat.Categorize(ctx, "reset my password")
	assert.Error(t, err)
}

func TestCategorizeUnparseableOracleIsInconclusive(t *testing.T) {
	oracle := &mockLLM{response: "I think this is probably an IT issue?"}
	cat := newTestCategorizer(t, oracle)

	result, err := cat.Categorize(context.Background(), "reset my password please")

	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryITSupport, result.Primary)
	// Falls back to the keyword heuristic.
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
}

func TestOrderDetectedTieBreakUsesOracle(t *testing.T) {
	counts := map[datatypes.TicketCategory]int{
		datatypes.CategoryITSupport: 1,
		datatypes.CategoryFinance:   1,
	}
	verdict := &categorizedVerdict{Category: datatypes.CategoryFinance, Confidence: 0.9}

	ordered := orderDetected(
		[]datatypes.TicketCategory{datatypes.CategoryITSupport, datatypes.CategoryFinance},
		counts, verdict)

	assert.Equal(t, datatypes.CategoryFinance, ordered[0])
}

func TestParseOracleVerdictCodeFences(t *testing.T) {
	v, err := parseOracleVerdict("```json\n{\"category\": \"finance\", \"confidence\": 0.75}\n```")
	require.NoError(t, err)
	assert.Equal(t, datatypes.CategoryFinance, v.Category)
	assert.InDelta(t, 0.75, v.Confidence, 1e-9)
}

func TestParseOracleVerdictRejectsBogusCategory(t *testing.T) {
	_, err := parseOracleVerdict(`{"category": "astrology", "confidence": 0.9}`)
	assert.Error(t, err)
}
