// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

// runSubmitCommand opens a new ticket and prints the pipeline outcome.
func runSubmitCommand(cmd *cobra.Command, args []string) {
	payload := map[string]string{
		"user_id":     userID,
		"description": args[0],
		"channel":     channel,
	}
	if priority != "" {
		payload["priority"] = priority
	}

	var resp datatypes.TicketResponse
	if err := doJSON("POST", "/v1/tickets", payload, &resp); err != nil {
		fail(err)
	}
	printTicketResponse(&resp)
}

// runReplyCommand answers a clarification request on a pending ticket.
func runReplyCommand(cmd *cobra.Command, args []string) {
	payload := map[string]string{
		"user_id": userID,
		"message": args[1],
	}

	var resp datatypes.TicketResponse
	if err := doJSON("POST", "/v1/tickets/"+args[0]+"/reply", payload, &resp); err != nil {
		fail(err)
	}
	printTicketResponse(&resp)
}

// runStatusCommand shows the current state and agent trace of a ticket.
func runStatusCommand(cmd *cobra.Command, args []string) {
	var resp datatypes.TicketResponse
	if err := doJSON("GET", "/v1/tickets/"+args[0], nil, &resp); err != nil {
		fail(err)
	}
	printTicketResponse(&resp)
}

// runConfirmCommand closes a resolved ticket.
func runConfirmCommand(cmd *cobra.Command, args []string) {
	var resp struct {
		Ticket *datatypes.Ticket `json:"ticket"`
	}
	if err := doJSON("POST", "/v1/tickets/"+args[0]+"/confirm", nil, &resp); err != nil {
		fail(err)
	}
	if jsonOutput {
		printJSON(resp)
		return
	}
	fmt.Printf("Ticket %s is now %s\n", resp.Ticket.ID, resp.Ticket.Status)
}

// printTicketResponse renders one pipeline outcome for a human operator.
func printTicketResponse(resp *datatypes.TicketResponse) {
	if jsonOutput {
		printJSON(resp)
		return
	}

	t := resp.Ticket
	fmt.Printf("Ticket:   %s\n", t.ID)
	fmt.Printf("Status:   %s\n", t.Status)
	if t.Category != "" {
		fmt.Printf("Category: %s\n", t.Category)
	}
	if t.ConfidenceScore != nil {
		fmt.Printf("Confidence: %.2f\n", *t.ConfidenceScore)
	}
	if t.Resolution != "" {
		fmt.Printf("\nResolution:\n%s\n", t.Resolution)
	}
	if t.EscalationReason != "" {
		fmt.Printf("\nEscalation: %s\n", t.EscalationReason)
	}

	if resp.Conversation != nil && len(resp.Conversation.Messages) > 0 {
		fmt.Println("\nAgent trace:")
		for _, msg := range resp.Conversation.Messages {
			fmt.Printf("  [%s] conf=%.2f %s\n", msg.AgentType, msg.Confidence, msg.Content)
		}
	}

	if len(resp.NextSteps) > 0 {
		fmt.Println("\nNext steps:")
		for _, step := range resp.NextSteps {
			fmt.Printf("  - %s\n", step)
		}
	}
	if resp.RequiresUserAction {
		fmt.Printf("\nThis ticket is waiting on you. Reply with:\n  deskctl reply %s \"<details>\"\n", t.ID)
	}
}
