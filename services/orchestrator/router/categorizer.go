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
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianDesk/services/llm"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

var routerTracer = otel.Tracer("aleutiandesk.orchestrator.router")

const (
	// minKeywordMatches is the minimum keyword hits for a category to count
	// as detected by the keyword layer.
	minKeywordMatches = 1

	// unknownConfidence forces unknown tickets into the clarification band
	// rather than silent escalation or silent resolution.
	unknownConfidence = 0.55

	maxOracleRetries  = 3
	initialRetryDelay = 1 * time.Second
)

// Categorization is the router verdict for one ticket text.
type Categorization struct {
	Primary    datatypes.TicketCategory   `json:"primary_category"`
	Detected   []datatypes.TicketCategory `json:"all_detected_categories"`
	Confidence float64                    `json:"confidence"`

	// PerCategory carries the confidence of each detected category;
	// multi-intent final confidence is their minimum.
	PerCategory map[datatypes.TicketCategory]float64 `json:"per_category,omitempty"`

	// Reasoning is a short human-readable account for the agent trace.
	Reasoning string `json:"reasoning,omitempty"`
}

// Categorizer combines the keyword layer with a semantic oracle. A nil
// oracle runs keyword-only mode for development deployments.
type Categorizer struct {
	vocab  *VocabStore
	oracle llm.LLMClient
}

func NewCategorizer(vocab *VocabStore, oracle llm.LLMClient) *Categorizer {
	return &Categorizer{vocab: vocab, oracle: oracle}
}

const categorizePromptTemplate = `Classify this enterprise support request into exactly one category:
it_support, hr_inquiry, facilities, legal, finance, or unknown.

Request:
---
%s
---

Respond with strict JSON only, no prose:
{"category": "<category>", "confidence": <number between 0 and 1>}`

type oracleVerdict struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// Categorize implements the router contract.
//
// Keyword matching produces the candidate set; the oracle disambiguates and
// supplies the numeric confidence. Two or more keyword categories yield the
// multi sentinel with the weakest-link confidence. When keywords and oracle
// are both inconclusive the verdict is unknown with a confidence that lands
// in the clarification band.
func (c *Categorizer) Categorize(ctx context.Context, text string) (Categorization, error) {
	ctx, span := routerTracer.Start(ctx, "Categorizer.Categorize")
	defer span.End()

	counts := c.vocab.Match(text)
	var candidates []datatypes.TicketCategory
	for cat, n := range counts {
		if n >= minKeywordMatches {
			candidates = append(candidates, cat)
		}
	}

	verdict, oracleErr := c.consultOracle(ctx, text)
	if oracleErr != nil && c.oracle != nil {
		// The semantic oracle is structural to categorization; exhausted
		// retries are fatal to this stage.
		return Categorization{}, oracleErr
	}

	switch len(candidates) {
	case 0:
		if verdict != nil && verdict.Category != datatypes.CategoryUnknown && verdict.Confidence >= 0.5 {
			span.SetAttributes(attribute.String("router.primary", string(verdict.Category)))
			return Categorization{
				Primary:    verdict.Category,
				Detected:   []datatypes.TicketCategory{verdict.Category},
				Confidence: verdict.Confidence,
				PerCategory: map[datatypes.TicketCategory]float64{
					verdict.Category: verdict.Confidence,
				},
				Reasoning: "No keyword match; semantic understanding only",
			}, nil
		}
		span.SetAttributes(attribute.String("router.primary", string(datatypes.CategoryUnknown)))
		return Categorization{
			Primary:    datatypes.CategoryUnknown,
			Detected:   nil,
			Confidence: unknownConfidence,
			Reasoning:  "Neither keyword matching nor semantic understanding produced a category",
		}, nil

	case 1:
		primary := candidates[0]
		confidence := keywordConfidence(counts[primary])
		if verdict != nil && verdict.Category == primary && verdict.Confidence > confidence {
			confidence = verdict.Confidence
		}
		span.SetAttributes(attribute.String("router.primary", string(primary)))
		return Categorization{
			Primary:     primary,
			Detected:    []datatypes.TicketCategory{primary},
			Confidence:  confidence,
			PerCategory: map[datatypes.TicketCategory]float64{primary: confidence},
			Reasoning:   "Based on keyword analysis and semantic understanding",
		}, nil

	default:
		detected := orderDetected(candidates, counts, verdict)
		perCategory := make(map[datatypes.TicketCategory]float64, len(detected))
		minConf := 1.0
		for _, cat := range detected {
			conf := keywordConfidence(counts[cat])
			if verdict != nil && verdict.Category == cat && verdict.Confidence > conf {
				conf = verdict.Confidence
			}
			perCategory[cat] = conf
			if conf < minConf {
				minConf = conf
			}
		}
		slog.Info("Ambiguity detected, routing as multi-intent", "categories", detected)
		span.SetAttributes(attribute.String("router.primary", string(datatypes.CategoryMulti)))
		return Categorization{
			Primary:     datatypes.CategoryMulti,
			Detected:    detected,
			Confidence:  minConf,
			PerCategory: perCategory,
			Reasoning:   "Multiple intents detected; confidence is the weakest branch",
		}, nil
	}
}

// keywordConfidence maps raw match counts onto [0.7, 0.9].
func keywordConfidence(matches int) float64 {
	if matches > 3 {
		matches = 3
	}
	return 0.6 + 0.1*float64(matches)
}

// orderDetected sorts detected categories by match strength. Equal-strength
// ties go to the oracle's top semantic choice, then to the stable category
// priority order.
func orderDetected(candidates []datatypes.TicketCategory,
	counts map[datatypes.TicketCategory]int, verdict *categorizedVerdict) []datatypes.TicketCategory {

	ordered := datatypes.SortCategories(candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := counts[ordered[i]], counts[ordered[j]]
		if ci != cj {
			return ci > cj
		}
		if verdict != nil {
			if ordered[i] == verdict.Category {
				return true
			}
			if ordered[j] == verdict.Category {
				return false
			}
		}
		return false
	})
	return ordered
}

type categorizedVerdict struct {
	Category   datatypes.TicketCategory
	Confidence float64
}

// consultOracle asks the LLM for a holistic verdict with bounded retries.
// A nil oracle returns (nil, nil): keyword-only mode.
func (c *Categorizer) consultOracle(ctx context.Context, text string) (*categorizedVerdict, error) {
	if c.oracle == nil {
		return nil, nil
	}

	maxTokens := 64
	temp := float32(0.0)
	prompt := fmt.Sprintf(categorizePromptTemplate, text)

	var lastErr error
	retryDelay := initialRetryDelay
	for attempt := 0; attempt <= maxOracleRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Retrying categorization oracle", "attempt", attempt, "delay", retryDelay, "lastError", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		raw, err := c.oracle.Generate(ctx, prompt, llm.GenerationParams{
			MaxTokens:   &maxTokens,
			Temperature: &temp,
		})
		if err != nil {
			lastErr = err
			continue
		}
		verdict, err := parseOracleVerdict(raw)
		if err != nil {
			slog.Warn("Categorization oracle returned unparseable verdict", "error", err)
			// Unparseable output is inconclusive, not an outage.
			return nil, nil
		}
		return verdict, nil
	}
	return nil, fmt.Errorf("categorization oracle failed after %d attempts: %w", maxOracleRetries+1, lastErr)
}

func parseOracleVerdict(raw string) (*categorizedVerdict, error) {
	// Models occasionally wrap JSON in code fences.
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var v oracleVerdict
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, fmt.Errorf("parse oracle verdict: %w", err)
	}
	cat := datatypes.TicketCategory(strings.ToLower(strings.TrimSpace(v.Category)))
	switch cat {
	case datatypes.CategoryITSupport, datatypes.CategoryHRInquiry, datatypes.CategoryFacilities,
		datatypes.CategoryLegal, datatypes.CategoryFinance, datatypes.CategoryUnknown:
	default:
		return nil, fmt.Errorf("oracle returned unknown category %q", v.Category)
	}
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return &categorizedVerdict{Category: cat, Confidence: v.Confidence}, nil
}
