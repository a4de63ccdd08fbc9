// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge provides the knowledge-base collaborator specialists
// query for relevant articles: a Weaviate-backed store for deployments and
// a seeded in-memory store for development and tests.
package knowledge

import (
	"context"
	"time"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

// Article is one knowledge-base entry.
type Article struct {
	ID        string                   `json:"id"`
	Category  datatypes.TicketCategory `json:"category"`
	Title     string                   `json:"title"`
	Content   string                   `json:"content"`
	Tags      []string                 `json:"tags,omitempty"`
	Source    string                   `json:"source,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// SearchResult pairs an article with its relevance in [0,1]. Results are
// returned best-first; specialists derive answer confidence from the top
// result's relevance.
type SearchResult struct {
	Article   Article `json:"article"`
	Relevance float64 `json:"relevance"`
}

// Store is the knowledge-base contract used by specialists and the article
// management API.
type Store interface {
	Search(ctx context.Context, query string, category datatypes.TicketCategory, limit int) ([]SearchResult, error)
	Upsert(ctx context.Context, article Article) error
	Get(ctx context.Context, id string) (Article, error)
	List(ctx context.Context, category datatypes.TicketCategory) ([]Article, error)
	Delete(ctx context.Context, id string) error
}
