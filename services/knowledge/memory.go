// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

// ErrArticleNotFound is returned by Get and Delete for unknown article IDs.
var ErrArticleNotFound = errors.New("knowledge article not found")

// MemoryStore is a seeded in-process Store. It backs development
// deployments without a Weaviate instance and all unit tests. Scoring is
// term overlap against tags, title, and content, weighted in that order.
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]Article
}

// NewMemoryStore returns a store preloaded with the given articles.
// Pass SeedArticles() for the standard development corpus.
func NewMemoryStore(seed []Article) *MemoryStore {
	s := &MemoryStore{articles: make(map[string]Article, len(seed))}
	for _, a := range seed {
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = time.Now().UTC()
		}
		s.articles[a.ID] = a
	}
	return s
}

// Search implements Store. Relevance is the fraction of query terms found
// in the article, boosted for tag hits, clamped to [0,1].
func (s *MemoryStore) Search(ctx context.Context, query string, category datatypes.TicketCategory, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, a := range s.articles {
		if category != "" && a.Category != category {
			continue
		}
		score := scoreArticle(a, terms)
		if score > 0 {
			results = append(results, SearchResult{Article: a, Relevance: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		// Stable order for equal scores keeps responses reproducible.
		return results[i].Article.ID < results[j].Article.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, article Article) error {
	if article.ID == "" {
		return errors.New("article id is required")
	}
	article.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[article.ID] = article
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok {
		return Article{}, ErrArticleNotFound
	}
	return a, nil
}

// List implements Store. An empty category lists everything.
func (s *MemoryStore) List(ctx context.Context, category datatypes.TicketCategory) ([]Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Article
	for _, a := range s.articles {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return ErrArticleNotFound
	}
	delete(s.articles, id)
	return nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80)
	})
	var terms []string
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

func scoreArticle(a Article, terms []string) float64 {
	title := strings.ToLower(a.Title)
	content := strings.ToLower(a.Content)
	tagSet := make(map[string]bool, len(a.Tags))
	for _, t := range a.Tags {
		for _, tok := range tokenize(t) {
			tagSet[tok] = true
		}
	}

	var weight float64
	for _, term := range terms {
		switch {
		case tagSet[term]:
			weight += 1.0
		case strings.Contains(title, term):
			weight += 0.8
		case strings.Contains(content, term):
			weight += 0.5
		}
	}
	score := weight / float64(len(terms))
	if score > 1 {
		score = 1
	}
	return score
}
