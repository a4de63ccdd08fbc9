// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline drives a ticket through the orchestration state machine:
// safety gate, router, parallel specialists, and confidence aggregation.
// Every step appends to the ticket's agent conversation so the final trace
// reads in causal order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/confidence"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/observability"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/router"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/specialist"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/store"
	"github.com/AleutianAI/AleutianDesk/services/safety"
)

var pipelineTracer = otel.Tracer("aleutiandesk.orchestrator.pipeline")

// blockedMessage is the only text a user ever sees for a safety block. The
// actual layer and pattern stay in the audit log and the agent trace.
const blockedMessage = "This request cannot be processed because it conflicts with " +
	"our acceptable use policy. If you believe this is a mistake, please contact " +
	"your service desk administrator."

const clarificationMessage = "I couldn't determine which team should handle this " +
	"request. Could you describe what you need in a bit more detail? For example, " +
	"mention the system, policy, or location involved."

// categoryLabels are the user-facing section headers for multi-intent
// responses.
var categoryLabels = map[datatypes.TicketCategory]string{
	datatypes.CategoryITSupport:  "IT Support",
	datatypes.CategoryHRInquiry:  "HR",
	datatypes.CategoryFacilities: "Facilities",
	datatypes.CategoryLegal:      "Legal",
	datatypes.CategoryFinance:    "Finance",
}

// Orchestrator wires the pipeline stages over the persistence layer.
type Orchestrator struct {
	store       *store.Store
	gate        *safety.Gate
	categorizer *router.Categorizer
	specialists *specialist.Registry
	metrics     *observability.PipelineMetrics
	notifier    Notifier
}

// New builds an Orchestrator. metrics may be nil (tests); a nil notifier
// falls back to LogNotifier.
func New(st *store.Store, gate *safety.Gate, cat *router.Categorizer,
	reg *specialist.Registry, metrics *observability.PipelineMetrics,
	notifier Notifier) *Orchestrator {

	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Orchestrator{
		store:       st,
		gate:        gate,
		categorizer: cat,
		specialists: reg,
		metrics:     metrics,
		notifier:    notifier,
	}
}

// Submit opens a new ticket and runs it through the pipeline. When the
// request names a prior ticket, the submission is treated as a reply to it
// instead of opening a duplicate.
func (o *Orchestrator) Submit(ctx context.Context, req *datatypes.SubmitTicketRequest, sourceIP string) (*datatypes.TicketResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate submission: %w", err)
	}
	if req.PriorTicketID != "" {
		return o.Reply(ctx, req.PriorTicketID, &datatypes.TicketReplyRequest{
			UserID:  req.UserID,
			Message: req.Description,
		}, sourceIP)
	}

	ticket := datatypes.NewTicket(req.UserID, req.Description, req.Channel, req.Priority)
	if err := advance(ticket, datatypes.StatusInProgress); err != nil {
		return nil, err
	}
	if err := o.store.SaveTicket(ctx, ticket); err != nil {
		return nil, err
	}
	conv := datatypes.NewConversation(ticket.ID)

	return o.run(ctx, ticket, conv, sourceIP)
}

// Reply feeds a user clarification back into a pending_user or escalated
// ticket. The new message compounds onto the existing description and the
// full context re-enters the pipeline; confidence is recomputed from
// scratch for the new cycle.
func (o *Orchestrator) Reply(ctx context.Context, ticketID string, req *datatypes.TicketReplyRequest, sourceIP string) (*datatypes.TicketResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate reply: %w", err)
	}
	ticket, err := o.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != datatypes.StatusPendingUser && ticket.Status != datatypes.StatusEscalated {
		return nil, fmt.Errorf("%w: cannot reply to ticket in status %s", ErrInvalidState, ticket.Status)
	}
	if err := advance(ticket, datatypes.StatusInProgress); err != nil {
		return nil, err
	}
	ticket.Description = ticket.Description + "\n\n" + req.Message
	ticket.Resolution = ""
	ticket.EscalationReason = ""

	conv, err := o.store.GetConversation(ctx, ticketID)
	if errors.Is(err, store.ErrNotFound) {
		conv = datatypes.NewConversation(ticketID)
	} else if err != nil {
		return nil, err
	}

	return o.run(ctx, ticket, conv, sourceIP)
}

// Reopen re-enters an escalated ticket into the pipeline without new user
// input. Operators use it after the desk configuration changed, for example
// a vocabulary update or new knowledge articles, to see whether the desk can
// now resolve the ticket on its own.
func (o *Orchestrator) Reopen(ctx context.Context, ticketID string, sourceIP string) (*datatypes.TicketResponse, error) {
	ticket, err := o.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != datatypes.StatusEscalated {
		return nil, fmt.Errorf("%w: cannot reopen ticket in status %s", ErrInvalidState, ticket.Status)
	}
	if err := advance(ticket, datatypes.StatusInProgress); err != nil {
		return nil, err
	}
	ticket.Resolution = ""
	ticket.EscalationReason = ""

	conv, err := o.store.GetConversation(ctx, ticketID)
	if errors.Is(err, store.ErrNotFound) {
		conv = datatypes.NewConversation(ticketID)
	} else if err != nil {
		return nil, err
	}

	return o.run(ctx, ticket, conv, sourceIP)
}

// Confirm closes a resolved ticket on user confirmation.
func (o *Orchestrator) Confirm(ctx context.Context, ticketID string) (*datatypes.TicketResponse, error) {
	ticket, err := o.store.MutateTicket(ctx, ticketID, func(t *datatypes.Ticket) error {
		if t.Status != datatypes.StatusResolved {
			return fmt.Errorf("%w: cannot confirm ticket in status %s", ErrInvalidState, t.Status)
		}
		return advance(t, datatypes.StatusClosed)
	})
	if err != nil {
		return nil, err
	}
	return o.buildResponse(ctx, ticket)
}

// Get returns the current state of a ticket with its trace and explanation.
func (o *Orchestrator) Get(ctx context.Context, ticketID string) (*datatypes.TicketResponse, error) {
	ticket, err := o.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return o.buildResponse(ctx, ticket)
}

// Feedback records a user rating for an existing ticket.
func (o *Orchestrator) Feedback(ctx context.Context, req *datatypes.FeedbackRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validate feedback: %w", err)
	}
	if _, err := o.store.GetTicket(ctx, req.TicketID); err != nil {
		return err
	}
	return o.store.SaveFeedback(ctx, req)
}

// Metrics aggregates the stored ticket population into the operator view.
func (o *Orchestrator) Metrics(ctx context.Context) (*datatypes.MetricsResponse, error) {
	tickets, err := o.store.ListTickets(ctx)
	if err != nil {
		return nil, err
	}

	resp := &datatypes.MetricsResponse{
		TicketsByCategory: make(map[datatypes.TicketCategory]int),
		TicketsByChannel:  make(map[datatypes.ChannelType]int),
		PeriodEnd:         time.Now().UTC(),
	}
	var confidenceSum float64
	var confidenceCount int
	for _, t := range tickets {
		resp.TotalTickets++
		switch t.Status {
		case datatypes.StatusResolved, datatypes.StatusClosed:
			resp.ResolvedTickets++
		case datatypes.StatusEscalated:
			resp.EscalatedTickets++
		case datatypes.StatusBlocked:
			resp.BlockedTickets++
		}
		resp.TicketsByCategory[t.Category]++
		resp.TicketsByChannel[t.Channel]++
		if t.ConfidenceScore != nil {
			confidenceSum += *t.ConfidenceScore
			confidenceCount++
		}
		if resp.PeriodStart.IsZero() || t.CreatedAt.Before(resp.PeriodStart) {
			resp.PeriodStart = t.CreatedAt
		}
	}
	if confidenceCount > 0 {
		resp.AverageConfidenceScore = confidenceSum / float64(confidenceCount)
	}
	return resp, nil
}

// =============================================================================
// Pipeline core
// =============================================================================

// run executes one pipeline cycle for a ticket already in in_progress. The
// ticket and conversation are persisted together at each externally visible
// outcome; a fatal mid-pipeline error leaves the stored ticket untouched so
// the request can be retried.
func (o *Orchestrator) run(ctx context.Context, ticket *datatypes.Ticket, conv *datatypes.AgentConversation, sourceIP string) (*datatypes.TicketResponse, error) {
	ctx, span := pipelineTracer.Start(ctx, "Orchestrator.run")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticket.ID))
	start := time.Now()

	// Stage 1: safety gate.
	if err := advance(ticket, datatypes.StatusSafetyCheck); err != nil {
		return nil, err
	}
	verdict, err := o.gate.Evaluate(ctx, safety.EvaluateInput{
		Text:     ticket.Description,
		TicketID: ticket.ID,
		UserID:   ticket.UserID,
		SourceIP: sourceIP,
	})
	if err != nil {
		// The blocking verdict could not be made durable; fail the request
		// rather than reporting an unaudited block.
		return nil, fmt.Errorf("safety audit not durable: %w", err)
	}
	if verdict.Blocked {
		return o.finishBlocked(ctx, ticket, conv, verdict, start)
	}
	safetyReasoning := "All safety layers passed"
	if verdict.UsedFallback {
		safetyReasoning = "Moderation oracle unavailable; local checks only"
	}
	conv.Append(datatypes.AgentMessage{
		AgentType:  datatypes.AgentSafety,
		Content:    "Content safety verified",
		Confidence: 1.0,
		Reasoning:  safetyReasoning,
	})

	// Stage 2: routing and categorization.
	if err := advance(ticket, datatypes.StatusRouting); err != nil {
		return nil, err
	}
	if err := advance(ticket, datatypes.StatusCategorization); err != nil {
		return nil, err
	}
	cat, err := o.categorizer.Categorize(ctx, ticket.Description)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordOracleFailure("categorization")
		}
		slog.Error("Categorization oracle exhausted", "ticket_id", ticket.ID, "error", err)
		return nil, fmt.Errorf("%w: categorization: %v", ErrOracleUnavailable, err)
	}
	conv.Append(datatypes.AgentMessage{
		AgentType:  datatypes.AgentRouter,
		Content:    fmt.Sprintf("Categorized as %s", cat.Primary),
		Confidence: cat.Confidence,
		Reasoning:  cat.Reasoning,
	})
	ticket.Category = cat.Primary
	ticket.DetectedCategories = cat.Detected

	// Stage 3: specialists.
	if err := advance(ticket, datatypes.StatusSpecialist); err != nil {
		return nil, err
	}
	var specialistConfs []float64
	var resolution string
	if cat.Primary == datatypes.CategoryUnknown {
		resolution = clarificationMessage
	} else {
		cats := datatypes.SortCategories(cat.Detected)
		responses, err := o.fanOut(ctx, ticket, conv, cats)
		if err != nil {
			if o.metrics != nil {
				o.metrics.RecordOracleFailure("specialist")
			}
			slog.Error("Specialist stage failed", "ticket_id", ticket.ID, "error", err)
			return nil, fmt.Errorf("%w: specialist: %v", ErrOracleUnavailable, err)
		}
		// Join deterministically: trace messages and response segments
		// always appear in category priority order, regardless of which
		// goroutine finished first.
		var segments []string
		for _, c := range cats {
			resp := responses[c]
			conv.Append(datatypes.AgentMessage{
				AgentType:    datatypes.SpecialistAgentFor(c),
				Content:      resp.ResolutionText,
				Confidence:   resp.Confidence,
				Reasoning:    resp.Reasoning,
				ActionsTaken: resp.ActionsTaken,
			})
			specialistConfs = append(specialistConfs, resp.Confidence)
			if len(cats) > 1 {
				segments = append(segments, fmt.Sprintf("[%s]\n%s", categoryLabels[c], resp.ResolutionText))
			} else {
				segments = append(segments, resp.ResolutionText)
			}
		}
		resolution = strings.Join(segments, "\n\n")
		if len(cats) == 1 {
			ticket.AssignedAgent = string(datatypes.SpecialistAgentFor(cats[0]))
		} else {
			ticket.AssignedAgent = string(datatypes.AgentAggregator)
		}
	}

	// Stage 4: confidence aggregation.
	if err := advance(ticket, datatypes.StatusConfidenceCalc); err != nil {
		return nil, err
	}
	final, next := confidence.Aggregate(cat.Confidence, specialistConfs)
	ticket.SetConfidence(final)
	ticket.Resolution = resolution
	conv.Append(datatypes.AgentMessage{
		AgentType:  datatypes.AgentAggregator,
		Content:    fmt.Sprintf("Final confidence %.2f, outcome %s", final, next),
		Confidence: final,
		Reasoning:  "Final confidence is the minimum across categorization and all specialists",
	})

	if err := advance(ticket, next); err != nil {
		return nil, err
	}
	switch next {
	case datatypes.StatusResolved:
		now := time.Now().UTC()
		ticket.ResolvedAt = &now
	case datatypes.StatusEscalated:
		ticket.EscalationReason = fmt.Sprintf("Confidence %.2f below automation threshold", final)
		conv.Append(datatypes.AgentMessage{
			AgentType: datatypes.AgentEscalation,
			Content:   "Ticket handed to a human specialist",
			Reasoning: ticket.EscalationReason,
		})
	}

	resp, err := o.persistOutcome(ctx, ticket, conv, start)
	if err != nil {
		return nil, err
	}
	// Notify only after the escalated state is durable; a hand-off for a
	// ticket that was never persisted would strand the human side.
	if next == datatypes.StatusEscalated {
		o.notifier.NotifyEscalation(ctx, ticket)
	}
	return resp, nil
}

// fanOut runs one specialist per category in parallel. The conversation is
// read-only during the fan-out; specialists consult it for already-executed
// runbooks but never append to it.
func (o *Orchestrator) fanOut(ctx context.Context, ticket *datatypes.Ticket,
	conv *datatypes.AgentConversation, cats []datatypes.TicketCategory) (map[datatypes.TicketCategory]specialist.Response, error) {

	type result struct {
		cat  datatypes.TicketCategory
		resp specialist.Response
		err  error
	}
	results := make([]result, len(cats))
	var wg sync.WaitGroup
	for i, c := range cats {
		wg.Add(1)
		go func(i int, c datatypes.TicketCategory) {
			defer wg.Done()
			specStart := time.Now()
			sp, err := o.specialists.Get(c)
			if err != nil {
				results[i] = result{cat: c, err: err}
				return
			}
			resp, err := sp.Handle(ctx, specialist.HandleInput{
				Text:         ticket.Description,
				UserID:       ticket.UserID,
				Conversation: conv,
			})
			if o.metrics != nil {
				o.metrics.RecordSpecialist(string(c), time.Since(specStart).Seconds())
			}
			results[i] = result{cat: c, resp: resp, err: err}
		}(i, c)
	}
	wg.Wait()

	out := make(map[datatypes.TicketCategory]specialist.Response, len(cats))
	for _, r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("%s specialist: %w", r.cat, r.err)
		}
		out[r.cat] = r.resp
	}
	return out, nil
}

// finishBlocked terminates a ticket at the safety gate. The user-facing
// resolution is the fixed policy message; the layer and pattern live only
// in the trace and the audit log.
func (o *Orchestrator) finishBlocked(ctx context.Context, ticket *datatypes.Ticket,
	conv *datatypes.AgentConversation, verdict safety.ContentSafetyResult, start time.Time) (*datatypes.TicketResponse, error) {

	if o.metrics != nil {
		o.metrics.RecordSafetyBlock(string(verdict.Reason))
	}
	conv.Append(datatypes.AgentMessage{
		AgentType: datatypes.AgentSafety,
		Content:   "Request blocked by the safety gate",
		Reasoning: fmt.Sprintf("reason=%s pattern=%s", verdict.Reason, verdict.MatchedPattern),
	})
	if err := advance(ticket, datatypes.StatusBlocked); err != nil {
		return nil, err
	}
	ticket.Resolution = blockedMessage
	return o.persistOutcome(ctx, ticket, conv, start)
}

// persistOutcome writes the ticket and its conversation in one store
// transaction, so a stored ticket state is never observable without its
// trace. A version conflict means another writer advanced the ticket while
// this cycle ran; the outcome is reapplied once onto the fresh version, and
// a second conflict is surfaced to the caller.
func (o *Orchestrator) persistOutcome(ctx context.Context, ticket *datatypes.Ticket,
	conv *datatypes.AgentConversation, start time.Time) (*datatypes.TicketResponse, error) {

	err := o.store.SaveTicketState(ctx, ticket, conv)
	if errors.Is(err, store.ErrVersionConflict) {
		stored, gerr := o.store.GetTicket(ctx, ticket.ID)
		if gerr != nil {
			return nil, gerr
		}
		// This cycle's outcome is authoritative for every field; only the
		// version is adopted from the concurrent write.
		ticket.Version = stored.Version
		slog.Warn("Outcome write conflicted, reapplying on fresh version",
			"ticket_id", ticket.ID, "version", stored.Version)
		err = o.store.SaveTicketState(ctx, ticket, conv)
	}
	if err != nil {
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.RecordOutcome(string(ticket.Status), time.Since(start).Seconds())
	}
	return &datatypes.TicketResponse{
		Ticket:             ticket,
		Conversation:       conv,
		Explanation:        datatypes.BuildExplanationGraph(conv),
		NextSteps:          nextStepsFor(ticket.Status),
		RequiresUserAction: ticket.Status == datatypes.StatusPendingUser,
	}, nil
}

// buildResponse assembles the read-path view for an already-stored ticket.
func (o *Orchestrator) buildResponse(ctx context.Context, ticket *datatypes.Ticket) (*datatypes.TicketResponse, error) {
	conv, err := o.store.GetConversation(ctx, ticket.ID)
	if errors.Is(err, store.ErrNotFound) {
		conv = nil
	} else if err != nil {
		return nil, err
	}
	return &datatypes.TicketResponse{
		Ticket:             ticket,
		Conversation:       conv,
		Explanation:        datatypes.BuildExplanationGraph(conv),
		NextSteps:          nextStepsFor(ticket.Status),
		RequiresUserAction: ticket.Status == datatypes.StatusPendingUser,
	}, nil
}

// advance moves a ticket along one state machine edge, rejecting edges the
// machine does not have.
func advance(t *datatypes.Ticket, next datatypes.TicketStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func nextStepsFor(status datatypes.TicketStatus) []string {
	switch status {
	case datatypes.StatusResolved:
		return []string{
			"Review the resolution above.",
			"Confirm the ticket to close it.",
		}
	case datatypes.StatusPendingUser:
		return []string{
			"Reply to this ticket with the requested details.",
		}
	case datatypes.StatusEscalated:
		return []string{
			"A human specialist has been notified and will follow up.",
			"You can reply to add more context in the meantime.",
		}
	case datatypes.StatusBlocked:
		return []string{
			"Contact your service desk administrator if you believe this was blocked in error.",
		}
	default:
		return nil
	}
}
