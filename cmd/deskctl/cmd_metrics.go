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

// runMetricsCommand shows aggregate desk metrics for the whole ticket store.
func runMetricsCommand(cmd *cobra.Command, args []string) {
	var metrics datatypes.MetricsResponse
	if err := doJSON("GET", "/v1/metrics", nil, &metrics); err != nil {
		fail(err)
	}
	if jsonOutput {
		printJSON(metrics)
		return
	}

	fmt.Println("Desk Metrics")
	fmt.Println("------------")
	fmt.Printf("Total tickets:     %d\n", metrics.TotalTickets)
	fmt.Printf("Resolved:          %d\n", metrics.ResolvedTickets)
	fmt.Printf("Escalated:         %d\n", metrics.EscalatedTickets)
	fmt.Printf("Blocked:           %d\n", metrics.BlockedTickets)
	fmt.Printf("Avg confidence:    %.2f\n", metrics.AverageConfidenceScore)
	if !metrics.PeriodStart.IsZero() {
		fmt.Printf("Period:            %s to %s\n",
			metrics.PeriodStart.Format("2006-01-02 15:04"),
			metrics.PeriodEnd.Format("2006-01-02 15:04"))
	}

	if len(metrics.TicketsByCategory) > 0 {
		fmt.Println("\nBy category:")
		for category, count := range metrics.TicketsByCategory {
			fmt.Printf("  %-12s %d\n", category, count)
		}
	}
	if len(metrics.TicketsByChannel) > 0 {
		fmt.Println("\nBy channel:")
		for ch, count := range metrics.TicketsByChannel {
			fmt.Printf("  %-12s %d\n", ch, count)
		}
	}
}
