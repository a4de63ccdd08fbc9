// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command deskctl is the operator CLI for the AleutianDesk service.
//
// It talks to a running desk orchestrator over HTTP:
//
//	deskctl submit "I forgot my password"   # open a ticket
//	deskctl reply <ticket-id> "extra info"  # answer a clarification
//	deskctl status <ticket-id>              # show ticket state and trace
//	deskctl confirm <ticket-id>             # close a resolved ticket
//	deskctl metrics                         # aggregate desk metrics
//	deskctl ingest articles.json            # load knowledge articles
//
// The target server is taken from DESK_API_URL (default
// http://localhost:12210).
package main

import "log"

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
