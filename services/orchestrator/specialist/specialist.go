// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package specialist implements the per-category handlers that resolve
// ticket text: knowledge-base lookup, deterministic runbook execution, and
// LLM answer composition, folded into a single confidence signal.
package specialist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/llm"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/observability"
	"github.com/AleutianAI/AleutianDesk/services/runbook"
)

var specialistTracer = otel.Tracer("aleutiandesk.orchestrator.specialist")

// Confidence constants for the runbook path. A successful runbook is the
// strongest signal a specialist can produce; a failed one caps confidence
// below the clarification band so the ticket escalates.
const (
	runbookSuccessConfidence = 0.98
	runbookFailureCeiling    = 0.35

	// noArticleConfidence lands in the clarification band: the specialist
	// has nothing to answer from, so ask the user rather than escalate.
	noArticleConfidence = 0.55

	kbSearchLimit = 3
)

// Response is one specialist's verdict on a ticket.
type Response struct {
	ResolutionText string
	Confidence     float64
	ActionsTaken   []string
	Reasoning      string
}

// Specialist handles tickets for exactly one support domain.
type Specialist struct {
	category datatypes.TicketCategory
	agent    datatypes.AgentType
	kb       knowledge.Store
	exec     runbook.Executor
	oracle   llm.LLMClient
}

// AgentType identifies this specialist in the conversation trace.
func (s *Specialist) AgentType() datatypes.AgentType { return s.agent }

// Category returns the domain this specialist owns.
func (s *Specialist) Category() datatypes.TicketCategory { return s.category }

// runbookTrigger maps request phrasing to a deterministic runbook. Params
// are derived from the ticket at execution time.
type runbookTrigger struct {
	phrases []string
	name    string
}

// triggersByCategory is the closed action-pattern table. Only phrasings
// listed here can cause side effects.
var triggersByCategory = map[datatypes.TicketCategory][]runbookTrigger{
	datatypes.CategoryITSupport: {
		{phrases: []string{"reset my password", "password reset", "forgot my password", "reset password", "olvidé mi contraseña"}, name: runbook.ResetPassword},
		{phrases: []string{"check license", "license check", "software license", "license for"}, name: runbook.CheckLicense},
	},
	datatypes.CategoryFacilities: {
		{phrases: []string{"book a room", "book a meeting room", "room booking", "reserve a room", "reservar una sala"}, name: runbook.BookRoom},
	},
	datatypes.CategoryHRInquiry: {
		{phrases: []string{"update my payroll", "update payroll", "change my direct deposit", "update my bank"}, name: runbook.UpdatePayroll},
	},
	datatypes.CategoryFinance: {
		{phrases: []string{"update my payroll", "update payroll"}, name: runbook.UpdatePayroll},
	},
}

func matchTrigger(category datatypes.TicketCategory, text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, trigger := range triggersByCategory[category] {
		for _, phrase := range trigger.phrases {
			if strings.Contains(lowered, phrase) {
				return trigger.name, true
			}
		}
	}
	return "", false
}

// HandleInput carries everything a specialist may consult. Conversation is
// read-only here; it exists so clarification re-entries can see which
// runbooks already ran and skip re-executing them.
type HandleInput struct {
	Text         string
	UserID       string
	Conversation *datatypes.AgentConversation
}

// Handle resolves ticket text for this specialist's domain.
//
// Order of signals:
//  1. Complexity factors hard-cap confidence; no runbook runs on a
//     complex ticket.
//  2. A matched action pattern executes its runbook (at most once per
//     ticket across re-entries) and dominates confidence.
//  3. Otherwise the answer is composed from retrieved articles with
//     confidence proportional to top-article relevance.
func (s *Specialist) Handle(ctx context.Context, in HandleInput) (Response, error) {
	ctx, span := specialistTracer.Start(ctx, fmt.Sprintf("Specialist.Handle.%s", s.category))
	defer span.End()
	span.SetAttributes(attribute.String("specialist.category", string(s.category)))

	if complex, reason := assessComplexity(in.Text); complex {
		slog.Info("Complexity ceiling applied", "category", s.category, "reason", reason)
		resolution, err := s.composeFromArticles(ctx, in.Text)
		if err != nil {
			return Response{}, err
		}
		return Response{
			ResolutionText: resolution.text +
				"\n\nGiven the stakes involved, a human specialist will review this ticket.",
			Confidence: complexityCeiling,
			Reasoning:  "Complexity factors cap confidence: " + reason,
		}, nil
	}

	if name, ok := matchTrigger(s.category, in.Text); ok {
		return s.handleRunbook(ctx, in, name)
	}

	resolution, err := s.composeFromArticles(ctx, in.Text)
	if err != nil {
		return Response{}, err
	}
	return Response{
		ResolutionText: resolution.text,
		Confidence:     resolution.confidence,
		Reasoning:      resolution.reasoning,
	}, nil
}

func (s *Specialist) handleRunbook(ctx context.Context, in HandleInput, name string) (Response, error) {
	action := "runbook:" + name

	// Re-entry after clarification must not re-execute a runbook that
	// already succeeded for this ticket.
	if in.Conversation != nil && in.Conversation.HasAction(action) {
		slog.Info("Runbook already executed for ticket, skipping", "runbook", name)
		return Response{
			ResolutionText: fmt.Sprintf("The %s automation already completed for this ticket.", name),
			Confidence:     runbookSuccessConfidence,
			ActionsTaken:   []string{action},
			Reasoning:      "Runbook previously executed; result reused",
		}, nil
	}

	params := map[string]string{"user_id": in.UserID}
	result, err := s.exec.Execute(ctx, name, params)
	if m := observability.DefaultMetrics; m != nil {
		m.RecordRunbook(name, err == nil && result.Success)
	}
	if err != nil || !result.Success {
		// A failed runbook is non-fatal: the pipeline continues with a
		// capped confidence so the ticket escalates instead of resolving.
		errMsg := result.Error
		if err != nil {
			errMsg = err.Error()
		}
		slog.Warn("Runbook execution failed", "runbook", name, "error", errMsg)
		return Response{
			ResolutionText: fmt.Sprintf("The %s automation could not be completed. "+
				"A human agent will follow up.", name),
			Confidence: runbookFailureCeiling,
			Reasoning:  fmt.Sprintf("Runbook %s failed: %s", name, errMsg),
		}, nil
	}

	return Response{
		ResolutionText: result.Message,
		Confidence:     runbookSuccessConfidence,
		ActionsTaken:   []string{action},
		Reasoning:      fmt.Sprintf("Runbook %s executed successfully at %s",
			name, result.Timestamp.Format(time.RFC3339)),
	}, nil
}

type articleResolution struct {
	text       string
	confidence float64
	reasoning  string
}

const composePromptTemplate = `You are the %s specialist of an enterprise service desk.
Answer the user's request using ONLY the knowledge base articles below.
Be concise and actionable. Do not invent policies.

Knowledge base articles:
%s

User request:
%s`

func (s *Specialist) composeFromArticles(ctx context.Context, text string) (articleResolution, error) {
	results, err := s.kb.Search(ctx, text, s.category, kbSearchLimit)
	if err != nil {
		return articleResolution{}, fmt.Errorf("knowledge search for %s specialist: %w", s.category, err)
	}
	if len(results) == 0 {
		return articleResolution{
			text: "I could not find a relevant policy or guide for this request. " +
				"Could you share more detail about what you need?",
			confidence: noArticleConfidence,
			reasoning:  "No knowledge base article matched",
		}, nil
	}

	top := results[0]
	confidence := 0.5 + 0.45*top.Relevance
	reasoning := fmt.Sprintf("Top article %q relevance %.2f", top.Article.Title, top.Relevance)

	if s.oracle == nil {
		return articleResolution{
			text:       fmt.Sprintf("%s\n\n%s", top.Article.Title, top.Article.Content),
			confidence: confidence,
			reasoning:  reasoning,
		}, nil
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, r.Article.Title, r.Article.Content)
	}
	maxTokens := 512
	temp := float32(0.2)
	answer, err := s.oracle.Generate(ctx,
		fmt.Sprintf(composePromptTemplate, s.category, sb.String(), text),
		llm.GenerationParams{MaxTokens: &maxTokens, Temperature: &temp})
	if err != nil {
		return articleResolution{}, fmt.Errorf("specialist resolution oracle failed: %w", err)
	}
	return articleResolution{
		text:       answer,
		confidence: confidence,
		reasoning:  reasoning,
	}, nil
}
