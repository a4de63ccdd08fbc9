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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var gateTracer = otel.Tracer("aleutiandesk.safety.gate")

// GateConfig carries the tunables of the safety gate.
type GateConfig struct {
	// SeverityThreshold blocks when any moderation category meets or
	// exceeds it. Defaults to DefaultSeverityThreshold.
	SeverityThreshold int

	// MaxOracleRetries bounds moderation retries beyond the first attempt.
	MaxOracleRetries int
}

// DefaultGateConfig returns production defaults.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		SeverityThreshold: DefaultSeverityThreshold,
		MaxOracleRetries:  3,
	}
}

// EvaluateInput is the raw material of one gate decision. Only Text affects
// the verdict; the rest is audit metadata.
type EvaluateInput struct {
	Text     string
	TicketID string
	UserID   string
	SourceIP string
}

// Gate runs the three safety layers in strict order, short-circuiting on
// the first block. Every blocking verdict is written to the audit log
// before Evaluate returns.
type Gate struct {
	patterns  *PatternSet
	moderator ModerationOracle
	judge     JailbreakJudge
	audit     AuditLog
	cfg       GateConfig
}

// NewGate wires the gate. moderator and judge may be nil in degraded
// deployments; the gate then relies on local checks and marks its verdicts
// with used_fallback. audit must not be nil.
func NewGate(patterns *PatternSet, moderator ModerationOracle, judge JailbreakJudge,
	audit AuditLog, cfg GateConfig) *Gate {

	if cfg.SeverityThreshold <= 0 {
		cfg.SeverityThreshold = DefaultSeverityThreshold
	}
	if cfg.MaxOracleRetries <= 0 {
		cfg.MaxOracleRetries = 3
	}
	return &Gate{
		patterns:  patterns,
		moderator: moderator,
		judge:     judge,
		audit:     audit,
		cfg:       cfg,
	}
}

// Evaluate inspects text through the pattern, toxicity, and LLM layers.
//
// The returned error is non-nil only when a blocking verdict could not be
// made durable in the audit log; in that case the caller must fail the
// request rather than report the block.
func (g *Gate) Evaluate(ctx context.Context, in EvaluateInput) (ContentSafetyResult, error) {
	ctx, span := gateTracer.Start(ctx, "Gate.Evaluate")
	defer span.End()

	// Layer 1: embedded patterns. Never fails, never calls out.
	if match, ok := g.patterns.Match(in.Text); ok {
		slog.Info("Safety gate blocked at pattern layer",
			"reason", match.Reason, "pattern", match.PatternID, "ticket_id", in.TicketID)
		span.SetAttributes(attribute.String("safety.reason", string(match.Reason)))
		result := ContentSafetyResult{
			Blocked:        true,
			Reason:         match.Reason,
			SeverityScores: ZeroSeverityScores(),
			MatchedPattern: match.PatternID,
		}
		return g.recordBlock(ctx, in, result)
	}

	// Layer 2: moderation oracle. Unreachable oracle downgrades to
	// local-checks-only rather than failing the ticket.
	scores, usedFallback := g.moderate(ctx, in.Text)
	for category, severity := range scores {
		if severity >= g.cfg.SeverityThreshold {
			slog.Info("Safety gate blocked at toxicity layer",
				"category", category, "severity", severity, "ticket_id", in.TicketID)
			span.SetAttributes(attribute.String("safety.reason", string(ReasonToxicityThreshold)))
			result := ContentSafetyResult{
				Blocked:        true,
				Reason:         ReasonToxicityThreshold,
				SeverityScores: scores,
				UsedFallback:   usedFallback,
			}
			return g.recordBlock(ctx, in, result)
		}
	}

	// Layer 3: semantic jailbreak judge. Same degradation policy.
	if g.judge != nil {
		manipulation, err := g.judge.IsManipulation(ctx, in.Text)
		if err != nil {
			slog.Warn("Jailbreak judge unavailable, relying on local checks", "error", err)
			usedFallback = true
		} else if manipulation {
			slog.Info("Safety gate blocked at LLM layer", "ticket_id", in.TicketID)
			span.SetAttributes(attribute.String("safety.reason", string(ReasonLLMFlagged)))
			result := ContentSafetyResult{
				Blocked:        true,
				Reason:         ReasonLLMFlagged,
				SeverityScores: scores,
				UsedFallback:   usedFallback,
			}
			return g.recordBlock(ctx, in, result)
		}
	}

	return ContentSafetyResult{
		Blocked:        false,
		Reason:         ReasonNone,
		SeverityScores: scores,
		UsedFallback:   usedFallback,
	}, nil
}

// moderate calls the moderation oracle with bounded retries and exponential
// backoff. Exhausted retries mean fallback, not failure.
func (g *Gate) moderate(ctx context.Context, text string) (map[string]int, bool) {
	if g.moderator == nil {
		return ZeroSeverityScores(), true
	}
	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxOracleRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			slog.Warn("Retrying moderation oracle", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ZeroSeverityScores(), true
			case <-time.After(backoff):
			}
		}
		scores, err := g.moderator.Analyze(ctx, text)
		if err == nil {
			return scores, false
		}
		lastErr = err
	}
	slog.Error("Moderation oracle unreachable after retries, using fallback", "error", lastErr)
	return ZeroSeverityScores(), true
}

// recordBlock persists the audit entry for a blocking verdict. The write is
// issued on a detached context so a client disconnect cannot cancel it.
func (g *Gate) recordBlock(ctx context.Context, in EvaluateInput, result ContentSafetyResult) (ContentSafetyResult, error) {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	entry := AuditEntry{
		TicketID:       in.TicketID,
		UserID:         in.UserID,
		SourceIP:       in.SourceIP,
		Reason:         result.Reason,
		MatchedPattern: result.MatchedPattern,
		SeverityScores: result.SeverityScores,
		Timestamp:      time.Now().UTC(),
	}
	if err := g.audit.Record(auditCtx, entry); err != nil {
		slog.Error("Failed to persist safety audit entry", "error", err)
		return ContentSafetyResult{}, err
	}
	return result, nil
}
