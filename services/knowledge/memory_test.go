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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

func TestMemoryStoreSearchRanksPasswordArticleFirst(t *testing.T) {
	store := NewMemoryStore(SeedArticles())

	results, err := store.Search(context.Background(), "I forgot my password and need a reset",
		datatypes.CategoryITSupport, 3)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "it-001", results[0].Article.ID)
	assert.Greater(t, results[0].Relevance, 0.3)
	assert.LessOrEqual(t, results[0].Relevance, 1.0)
}

func TestMemoryStoreSearchFiltersByCategory(t *testing.T) {
	store := NewMemoryStore(SeedArticles())

	results, err := store.Search(context.Background(), "payroll payment", datatypes.CategoryFinance, 5)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, datatypes.CategoryFinance, r.Article.Category)
	}
}

func TestMemoryStoreSearchSpanishTags(t *testing.T) {
	store := NewMemoryStore(SeedArticles())

	results, err := store.Search(context.Background(), "olvidé mi contraseña",
		datatypes.CategoryITSupport, 3)

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "it-001", results[0].Article.ID)
}

func TestMemoryStoreSearchNoMatch(t *testing.T) {
	store := NewMemoryStore(SeedArticles())

	results, err := store.Search(context.Background(), "zzzz qqqq", datatypes.CategoryLegal, 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	article := Article{
		ID:       "it-099",
		Category: datatypes.CategoryITSupport,
		Title:    "Docking Station Setup",
		Content:  "Connect the USB-C cable to the left port.",
		Tags:     []string{"dock", "monitor"},
	}
	require.NoError(t, store.Upsert(ctx, article))

	got, err := store.Get(ctx, "it-099")
	require.NoError(t, err)
	assert.Equal(t, "Docking Station Setup", got.Title)
	assert.False(t, got.UpdatedAt.IsZero())

	listed, err := store.List(ctx, datatypes.CategoryITSupport)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, store.Delete(ctx, "it-099"))
	_, err = store.Get(ctx, "it-099")
	assert.ErrorIs(t, err, ErrArticleNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "it-099"), ErrArticleNotFound)
}

func TestMemoryStoreUpsertRequiresID(t *testing.T) {
	store := NewMemoryStore(nil)
	assert.Error(t, store.Upsert(context.Background(), Article{Title: "no id"}))
}
