// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ModerationOracle scores text on the per-category severity scale. It may be
// unreachable; callers treat errors as a degraded-service signal, never as a
// verdict.
type ModerationOracle interface {
	Analyze(ctx context.Context, text string) (map[string]int, error)
}

// OpenAIModerator adapts the OpenAI moderation endpoint to the severity
// scale. The endpoint returns per-category probabilities in [0,1]; these are
// scaled linearly onto [SeverityMin, SeverityMax].
type OpenAIModerator struct {
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIModerator builds a moderator from OPENAI_API_KEY (or the
// container secret the main service key uses).
func NewOpenAIModerator() (*OpenAIModerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKeyBytes, err := os.ReadFile("/run/secrets/openai_api_key")
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
	}
	return &OpenAIModerator{
		client:  openai.NewClient(apiKey),
		timeout: 10 * time.Second,
	}, nil
}

// Analyze implements ModerationOracle.
func (m *OpenAIModerator) Analyze(ctx context.Context, text string) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: openai.ModerationTextStable,
	})
	if err != nil {
		slog.Warn("Moderation API call failed", "error", err)
		return nil, fmt.Errorf("moderation API call failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("moderation API returned no results")
	}
	scores := resp.Results[0].CategoryScores
	return map[string]int{
		CategoryHate:     scaleSeverity(maxFloat32(scores.Hate, scores.HateThreatening, scores.Harassment)),
		CategoryViolence: scaleSeverity(maxFloat32(scores.Violence, scores.ViolenceGraphic)),
		CategorySexual:   scaleSeverity(maxFloat32(scores.Sexual, scores.SexualMinors)),
		CategorySelfHarm: scaleSeverity(scores.SelfHarm),
	}, nil
}

func scaleSeverity(p float32) int {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return int(math.Round(float64(p) * SeverityMax))
}

func maxFloat32(vals ...float32) float32 {
	m := float32(0)
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

// ZeroSeverityScores returns an all-zero score map with every category key
// present. Used when the pattern layer short-circuits or the oracle is down.
func ZeroSeverityScores() map[string]int {
	return map[string]int{
		CategoryHate:     0,
		CategoryViolence: 0,
		CategorySexual:   0,
		CategorySelfHarm: 0,
	}
}
