// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package safety implements the multi-layer content safety gate that every
// inbound ticket passes before categorization: an embedded pattern layer, a
// moderation-oracle toxicity layer, and an LLM jailbreak-judge layer.
package safety

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// BlockReason says which layer blocked a request, or ReasonNone.
type BlockReason string

const (
	ReasonNone              BlockReason = "none"
	ReasonJailbreakPattern  BlockReason = "jailbreak_pattern"
	ReasonPIIDetected       BlockReason = "pii_detected"
	ReasonToxicityThreshold BlockReason = "toxicity_threshold"
	ReasonLLMFlagged        BlockReason = "llm_flagged"
)

// Severity scale bounds for moderation scores. Scores are integers in
// [SeverityMin, SeverityMax]; DefaultSeverityThreshold is the default
// meets-or-exceeds blocking threshold, overridable via configuration.
const (
	SeverityMin              = 0
	SeverityMax              = 7
	DefaultSeverityThreshold = 4
)

// Moderation categories reported on every verdict.
const (
	CategoryHate     = "hate"
	CategoryViolence = "violence"
	CategorySexual   = "sexual"
	CategorySelfHarm = "self_harm"
)

// ContentSafetyResult is the immutable verdict of one gate evaluation.
//
// SeverityScores is always populated (zeroes when the pattern layer
// short-circuits before the moderation call) so audit consumers see a
// uniform shape. UsedFallback marks verdicts produced while the moderation
// oracle was unreachable; such verdicts relied on local checks only.
type ContentSafetyResult struct {
	Blocked        bool           `json:"blocked"`
	Reason         BlockReason    `json:"reason"`
	SeverityScores map[string]int `json:"severity_scores"`
	UsedFallback   bool           `json:"used_fallback"`
	MatchedPattern string         `json:"matched_pattern,omitempty"`
}

// AuditEntry is one immutable record of a blocking verdict.
type AuditEntry struct {
	ID             string         `json:"id"`
	TicketID       string         `json:"ticket_id,omitempty"`
	UserID         string         `json:"user_id,omitempty"`
	SourceIP       string         `json:"source_ip,omitempty"`
	Reason         BlockReason    `json:"reason"`
	MatchedPattern string         `json:"matched_pattern,omitempty"`
	SeverityScores map[string]int `json:"severity_scores,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// =============================================================================
// Pattern File
// =============================================================================

type PatternConfidence string

const (
	ConfidenceLow    PatternConfidence = "low"
	ConfidenceMedium PatternConfidence = "medium"
	ConfidenceHigh   PatternConfidence = "high"
)

func (c *PatternConfidence) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := PatternConfidence(s)
	switch incoming {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		*c = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for confidence: %q", incoming)
	}
}

// SafetyPatternFile is the parsed form of the embedded safety_patterns.yaml.
type SafetyPatternFile struct {
	Rules []PatternRule `yaml:"rules"`
}

// PatternRule groups patterns that share a block reason.
type PatternRule struct {
	Name     string    `yaml:"name"`
	Reason   string    `yaml:"reason"`
	Priority int       `yaml:"priority"`
	Patterns []Pattern `yaml:"patterns"`
}

// Pattern is one blocking regular expression.
type Pattern struct {
	ID          string            `yaml:"id"`
	Description string            `yaml:"description"`
	Regex       string            `yaml:"regex"`
	Confidence  PatternConfidence `yaml:"confidence"`
	LuhnCheck   bool              `yaml:"luhn_check"`

	compiled *regexp.Regexp
}

// CompileRegexes compiles every pattern in the file. Any compile failure is
// fatal: an uncompilable blocklist must never ship.
func (f *SafetyPatternFile) CompileRegexes() error {
	for i := range f.Rules {
		for j := range f.Rules[i].Patterns {
			p := &f.Rules[i].Patterns[j]
			re, err := regexp.Compile(p.Regex)
			if err != nil {
				return fmt.Errorf("failed to compile the regex %s: %w", p.Regex, err)
			}
			p.compiled = re
		}
	}
	return nil
}

// SortByPriority orders rules highest-priority first, the order Match
// evaluates them in.
func (f *SafetyPatternFile) SortByPriority() {
	sort.Slice(f.Rules, func(i, j int) bool {
		return f.Rules[i].Priority > f.Rules[j].Priority
	})
}
