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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianDesk/services/knowledge"
)

// runIngestCommand loads knowledge base articles from a JSON file and
// upserts each one through the admin API. The file holds an array of
// articles in the same shape as GET /v1/knowledge/articles returns.
func runIngestCommand(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fail(fmt.Errorf("read %s: %w", args[0], err))
	}

	var articles []knowledge.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		fail(fmt.Errorf("parse %s: %w", args[0], err))
	}
	if len(articles) == 0 {
		fail(fmt.Errorf("%s contains no articles", args[0]))
	}

	var failed int
	for _, article := range articles {
		if err := doJSON("POST", "/v1/knowledge/articles", article, nil); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to ingest %q: %v\n", article.ID, err)
			failed++
			continue
		}
		if !jsonOutput {
			fmt.Printf("Ingested %s (%s)\n", article.ID, article.Title)
		}
	}

	if failed > 0 {
		fail(fmt.Errorf("%d of %d articles failed", failed, len(articles)))
	}
	fmt.Printf("Ingested %d articles\n", len(articles))
}
