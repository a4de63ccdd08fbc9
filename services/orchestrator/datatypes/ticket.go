// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides the data structures for the desk orchestrator
// service: tickets, the agent conversation trace, the explanation graph
// projection, and the HTTP request/response types.
package datatypes

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Enums
// =============================================================================

// TicketCategory identifies the support domain a ticket belongs to.
type TicketCategory string

const (
	CategoryITSupport  TicketCategory = "it_support"
	CategoryHRInquiry  TicketCategory = "hr_inquiry"
	CategoryFacilities TicketCategory = "facilities"
	CategoryLegal      TicketCategory = "legal"
	CategoryFinance    TicketCategory = "finance"

	// CategoryMulti is the sentinel primary category for tickets that map
	// to more than one domain. The concrete domains live in
	// Ticket.DetectedCategories.
	CategoryMulti TicketCategory = "multi"

	// CategoryUnknown means neither keyword matching nor the semantic
	// oracle produced a usable category.
	CategoryUnknown TicketCategory = "unknown"
)

// CategoryPriorityOrder is the stable ordering used when composing
// multi-intent responses and joining parallel specialist results.
// Response segments always appear in this order regardless of which
// specialist finished first.
var CategoryPriorityOrder = []TicketCategory{
	CategoryITSupport,
	CategoryHRInquiry,
	CategoryFacilities,
	CategoryLegal,
	CategoryFinance,
}

// SortCategories returns the given categories in CategoryPriorityOrder.
// Categories outside the closed specialist set are dropped.
func SortCategories(cats []TicketCategory) []TicketCategory {
	present := make(map[TicketCategory]bool, len(cats))
	for _, c := range cats {
		present[c] = true
	}
	var out []TicketCategory
	for _, c := range CategoryPriorityOrder {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// TicketPriority is the user-facing urgency of a ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// TicketStatus is the state-machine state of a ticket. See CanTransitionTo
// for the allowed edges.
type TicketStatus string

const (
	StatusOpen           TicketStatus = "open"
	StatusInProgress     TicketStatus = "in_progress"
	StatusSafetyCheck    TicketStatus = "safety_check"
	StatusBlocked        TicketStatus = "blocked"
	StatusRouting        TicketStatus = "routing"
	StatusCategorization TicketStatus = "categorization"
	StatusSpecialist     TicketStatus = "specialist"
	StatusConfidenceCalc TicketStatus = "confidence_calc"
	StatusResolved       TicketStatus = "resolved"
	StatusPendingUser    TicketStatus = "pending_user"
	StatusEscalated      TicketStatus = "escalated"
	StatusClosed         TicketStatus = "closed"
)

// ticketTransitions is the edge set of the ticket state machine.
//
//	open → in_progress → safety_check → {blocked | routing}
//	routing → categorization → specialist → confidence_calc
//	confidence_calc → {resolved | pending_user | escalated}
//	pending_user → in_progress     (user reply, context compounds)
//	escalated → in_progress        (human intervention)
//	resolved → closed              (user confirmation)
//
// blocked and closed are terminal.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen:           {StatusInProgress},
	StatusInProgress:     {StatusSafetyCheck},
	StatusSafetyCheck:    {StatusBlocked, StatusRouting},
	StatusRouting:        {StatusCategorization},
	StatusCategorization: {StatusSpecialist},
	StatusSpecialist:     {StatusConfidenceCalc},
	StatusConfidenceCalc: {StatusResolved, StatusPendingUser, StatusEscalated},
	StatusPendingUser:    {StatusInProgress},
	StatusEscalated:      {StatusInProgress},
	StatusResolved:       {StatusClosed},
	StatusBlocked:        {},
	StatusClosed:         {},
}

// CanTransitionTo reports whether the state machine allows moving from the
// receiver state to next.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state has no outgoing edges.
func (s TicketStatus) IsTerminal() bool {
	return len(ticketTransitions[s]) == 0
}

// AgentType identifies which pipeline component emitted an AgentMessage.
type AgentType string

const (
	AgentSafety               AgentType = "safety"
	AgentRouter               AgentType = "router"
	AgentITSpecialist         AgentType = "it_specialist"
	AgentHRSpecialist         AgentType = "hr_specialist"
	AgentFacilitiesSpecialist AgentType = "facilities_specialist"
	AgentLegalSpecialist      AgentType = "legal_specialist"
	AgentFinanceSpecialist    AgentType = "finance_specialist"
	AgentAggregator           AgentType = "aggregator"
	AgentOrchestrator         AgentType = "orchestrator"
	AgentEscalation           AgentType = "escalation"
)

// SpecialistAgentFor maps a domain category to the agent type of the
// specialist that handles it.
func SpecialistAgentFor(cat TicketCategory) AgentType {
	switch cat {
	case CategoryITSupport:
		return AgentITSpecialist
	case CategoryHRInquiry:
		return AgentHRSpecialist
	case CategoryFacilities:
		return AgentFacilitiesSpecialist
	case CategoryLegal:
		return AgentLegalSpecialist
	case CategoryFinance:
		return AgentFinanceSpecialist
	default:
		return AgentITSpecialist
	}
}

// ChannelType is the inbound channel the ticket arrived through.
type ChannelType string

const (
	ChannelWeb   ChannelType = "web"
	ChannelTeams ChannelType = "teams"
	ChannelVoice ChannelType = "voice"
	ChannelAPI   ChannelType = "api"
)

// =============================================================================
// Core Aggregates
// =============================================================================

// Ticket represents one user support request tracked through the state
// machine.
//
// # Invariants
//
//   - Status only changes along the edges in ticketTransitions.
//   - Category is only assigned after the safety gate allows the text.
//   - ConfidenceScore is set exactly once per categorization/resolution
//     cycle; a pending_user re-entry starts a new cycle and recomputes it.
//   - Description accumulates user turns; it is never truncated or reset.
//   - Tickets are never deleted, only terminally closed or blocked.
//
// Version supports optimistic concurrency in the store: it is incremented
// on every persisted write, and a write whose Version does not match the
// stored value fails with a conflict.
type Ticket struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id"`
	Description        string           `json:"description"`
	Category           TicketCategory   `json:"category"`
	DetectedCategories []TicketCategory `json:"detected_categories,omitempty"`
	Priority           TicketPriority   `json:"priority"`
	Status             TicketStatus     `json:"status"`
	Channel            ChannelType      `json:"channel"`
	AssignedAgent      string           `json:"assigned_agent,omitempty"`
	ConfidenceScore    *float64         `json:"confidence_score,omitempty"`
	Resolution         string           `json:"resolution,omitempty"`
	EscalationReason   string           `json:"escalation_reason,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	ResolvedAt         *time.Time       `json:"resolved_at,omitempty"`
	Version            uint64           `json:"version"`
}

// urgencyMarkers promote an unprioritized ticket to high priority.
var urgencyMarkers = []string{"urgent", "asap"}

// DerivePriority infers priority from urgency markers in the description.
// An explicit priority on the request always wins over the inference.
func DerivePriority(description string) TicketPriority {
	lowered := strings.ToLower(description)
	for _, marker := range urgencyMarkers {
		if strings.Contains(lowered, marker) {
			return PriorityHigh
		}
	}
	return PriorityMedium
}

// NewTicket creates an open ticket with a generated ID.
func NewTicket(userID, description string, channel ChannelType, priority TicketPriority) *Ticket {
	now := time.Now().UTC()
	if channel == "" {
		channel = ChannelWeb
	}
	if priority == "" {
		priority = DerivePriority(description)
	}
	return &Ticket{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: description,
		Category:    CategoryUnknown,
		Priority:    priority,
		Status:      StatusOpen,
		Channel:     channel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SetConfidence records the pipeline confidence for the current cycle.
func (t *Ticket) SetConfidence(score float64) {
	t.ConfidenceScore = &score
}

// AgentMessage is one step emitted by a pipeline component. Messages are
// append-only: once added to a conversation they are never mutated.
type AgentMessage struct {
	AgentType    AgentType `json:"agent_type"`
	Content      string    `json:"content"`
	Confidence   float64   `json:"confidence"`
	Reasoning    string    `json:"reasoning,omitempty"`
	ActionsTaken []string  `json:"actions_taken,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// AgentConversation is the full ordered trace for one ticket. Message order
// is causal: the safety message precedes the router message, which precedes
// the specialist message(s), which precede the final aggregation message.
type AgentConversation struct {
	ID        string         `json:"id"`
	TicketID  string         `json:"ticket_id"`
	Messages  []AgentMessage `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewConversation creates an empty conversation for the given ticket.
func NewConversation(ticketID string) *AgentConversation {
	return &AgentConversation{
		ID:        uuid.NewString(),
		TicketID:  ticketID,
		CreatedAt: time.Now().UTC(),
	}
}

// Append adds a message to the conversation, stamping it with the current
// time if the caller did not.
func (c *AgentConversation) Append(msg AgentMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	c.Messages = append(c.Messages, msg)
}

// HasAction reports whether any message in the conversation already records
// the given action. Used to keep clarification re-entries from re-executing
// runbooks that already ran.
func (c *AgentConversation) HasAction(action string) bool {
	for _, msg := range c.Messages {
		for _, a := range msg.ActionsTaken {
			if a == action {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// Request / Response Types
// =============================================================================

const (
	// MaxDescriptionBytes is the maximum size of a ticket description or
	// follow-up message. Checked in bytes, not runes, to bound memory.
	MaxDescriptionBytes = 32 * 1024
)

var ticketValidate *validator.Validate

func init() {
	ticketValidate = validator.New()
	_ = ticketValidate.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxDescriptionBytes
	})
}

// SubmitTicketRequest is the inbound ticket submission payload.
//
// PriorTicketID links a follow-up submission to an existing ticket in
// pending_user; the orchestrator then re-enters the pipeline with the
// concatenated context instead of opening a new ticket.
type SubmitTicketRequest struct {
	UserID        string         `json:"user_id" validate:"required"`
	Description   string         `json:"description" validate:"required,min=1,maxbytes"`
	Channel       ChannelType    `json:"channel,omitempty" validate:"omitempty,oneof=web teams voice api"`
	Priority      TicketPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
	PriorTicketID string         `json:"prior_ticket_id,omitempty" validate:"omitempty,uuid4"`
}

// Validate checks the request against its validation tags.
func (r *SubmitTicketRequest) Validate() error {
	return ticketValidate.Struct(r)
}

// TicketReplyRequest carries a user clarification for a pending_user ticket.
type TicketReplyRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required,min=1,maxbytes"`
}

// Validate checks the request against its validation tags.
func (r *TicketReplyRequest) Validate() error {
	return ticketValidate.Struct(r)
}

// FeedbackRequest records a user rating for a processed ticket.
type FeedbackRequest struct {
	TicketID           string `json:"ticket_id" validate:"required,uuid4"`
	UserID             string `json:"user_id" validate:"required"`
	Rating             int    `json:"rating" validate:"required,gte=1,lte=5"`
	WasHelpful         bool   `json:"was_helpful"`
	ResolutionAccurate bool   `json:"resolution_accurate"`
	Comments           string `json:"comments,omitempty" validate:"omitempty,maxbytes"`
}

// Validate checks the request against its validation tags.
func (r *FeedbackRequest) Validate() error {
	return ticketValidate.Struct(r)
}

// TicketResponse bundles everything a channel adapter needs after a
// pipeline run: the updated ticket, the full agent trace, the explanation
// tree projection, and suggested next steps.
type TicketResponse struct {
	Ticket              *Ticket            `json:"ticket"`
	Conversation        *AgentConversation `json:"conversation"`
	Explanation         *ExplanationNode   `json:"explanation_graph"`
	NextSteps           []string           `json:"next_steps"`
	RequiresUserAction  bool               `json:"requires_user_action"`
}

// MetricsResponse is the aggregate service-desk view for operators.
type MetricsResponse struct {
	TotalTickets           int                    `json:"total_tickets"`
	ResolvedTickets        int                    `json:"resolved_tickets"`
	EscalatedTickets       int                    `json:"escalated_tickets"`
	BlockedTickets         int                    `json:"blocked_tickets"`
	AverageConfidenceScore float64                `json:"average_confidence_score"`
	TicketsByCategory      map[TicketCategory]int `json:"tickets_by_category"`
	TicketsByChannel       map[ChannelType]int    `json:"tickets_by_channel"`
	PeriodStart            time.Time              `json:"period_start"`
	PeriodEnd              time.Time              `json:"period_end"`
}
