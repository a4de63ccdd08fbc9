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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	userID     string
	channel    string
	priority   string
	jsonOutput bool

	rootCmd = &cobra.Command{
		Use:   "deskctl",
		Short: "A cli to operate the AleutianDesk ticket orchestrator",
		Long: `Deskctl submits tickets to a running desk orchestrator and
inspects how the agent pipeline handled them.`,
	}

	// --- Tickets ---
	submitCmd = &cobra.Command{
		Use:   "submit [description]",
		Short: "Submit a new support ticket and print the pipeline outcome",
		Args:  cobra.ExactArgs(1),
		Run:   runSubmitCommand, // Defined in cmd_ticket.go
	}
	replyCmd = &cobra.Command{
		Use:   "reply [ticket-id] [message]",
		Short: "Answer a clarification request on a pending ticket",
		Args:  cobra.ExactArgs(2),
		Run:   runReplyCommand, // Defined in cmd_ticket.go
	}
	statusCmd = &cobra.Command{
		Use:   "status [ticket-id]",
		Short: "Show the current state and agent trace of a ticket",
		Args:  cobra.ExactArgs(1),
		Run:   runStatusCommand, // Defined in cmd_ticket.go
	}
	confirmCmd = &cobra.Command{
		Use:   "confirm [ticket-id]",
		Short: "Close a resolved ticket",
		Args:  cobra.ExactArgs(1),
		Run:   runConfirmCommand, // Defined in cmd_ticket.go
	}

	// --- Operations ---
	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Show aggregate desk metrics",
		Run:   runMetricsCommand, // Defined in cmd_metrics.go
	}
	ingestCmd = &cobra.Command{
		Use:   "ingest [json_file]",
		Short: "Load knowledge base articles from a JSON file",
		Args:  cobra.ExactArgs(1),
		Run:   runIngestCommand, // Defined in cmd_knowledge.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "cli-user",
		"User ID to act as")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output raw JSON for scripting")

	submitCmd.Flags().StringVarP(&channel, "channel", "c", "api",
		"Submission channel (web, teams, voice, api)")
	submitCmd.Flags().StringVarP(&priority, "priority", "p", "",
		"Ticket priority (low, medium, high, critical)")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(replyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(ingestCmd)
}
