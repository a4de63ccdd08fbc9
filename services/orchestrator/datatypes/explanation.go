// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// ExplanationNode is one step in the decision tree shown to users and
// auditors. The graph is a pure projection of the agent conversation: it is
// rebuilt from messages on demand and never stored separately, so it cannot
// drift from the trace it explains.
type ExplanationNode struct {
	Agent      AgentType          `json:"agent"`
	Summary    string             `json:"summary"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning,omitempty"`
	Actions    []string           `json:"actions,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Children   []*ExplanationNode `json:"children,omitempty"`
}

func isSpecialistAgent(a AgentType) bool {
	switch a {
	case AgentITSpecialist, AgentHRSpecialist, AgentFacilitiesSpecialist,
		AgentLegalSpecialist, AgentFinanceSpecialist:
		return true
	}
	return false
}

func nodeFromMessage(msg AgentMessage) *ExplanationNode {
	return &ExplanationNode{
		Agent:      msg.AgentType,
		Summary:    msg.Content,
		Confidence: msg.Confidence,
		Reasoning:  msg.Reasoning,
		Actions:    msg.ActionsTaken,
		Timestamp:  msg.Timestamp,
	}
}

// BuildExplanationGraph projects a conversation into its decision tree.
//
// The root is the orchestrator. Safety, router, and aggregator messages
// become direct children in causal order. Specialist messages attach under
// the router message that dispatched them, so parallel multi-intent
// branches appear as siblings. A conversation with no messages yields a
// bare orchestrator root.
func BuildExplanationGraph(conv *AgentConversation) *ExplanationNode {
	root := &ExplanationNode{
		Agent:   AgentOrchestrator,
		Summary: "Ticket processing pipeline",
	}
	if conv == nil {
		return root
	}
	root.Timestamp = conv.CreatedAt

	var lastRouter *ExplanationNode
	for _, msg := range conv.Messages {
		node := nodeFromMessage(msg)
		switch {
		case msg.AgentType == AgentRouter:
			lastRouter = node
			root.Children = append(root.Children, node)
		case isSpecialistAgent(msg.AgentType) && lastRouter != nil:
			lastRouter.Children = append(lastRouter.Children, node)
		default:
			root.Children = append(root.Children, node)
		}
	}
	return root
}
