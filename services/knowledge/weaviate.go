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
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

const (
	articleClassName = "KnowledgeArticle"
	chunkClassName   = "KnowledgeChunk"

	chunkSize    = 1000
	chunkOverlap = chunkSize / 10
)

// WeaviateStore implements Store on a Weaviate instance. Whole articles live
// in KnowledgeArticle; search runs BM25 over KnowledgeChunk and folds hits
// back to their parent articles.
type WeaviateStore struct {
	client *weaviate.Client
}

func NewWeaviateStore(client *weaviate.Client) *WeaviateStore {
	return &WeaviateStore{client: client}
}

// EnsureSchema creates the knowledge classes if missing and loads the seed
// corpus into an empty store.
func (w *WeaviateStore) EnsureSchema(ctx context.Context) error {
	datatypes.EnsureWeaviateSchema(w.client)

	existing, err := w.List(ctx, "")
	if err != nil {
		return fmt.Errorf("check existing articles: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	slog.Info("Knowledge base empty, loading seed articles")
	for _, a := range SeedArticles() {
		if err := w.Upsert(ctx, a); err != nil {
			return fmt.Errorf("seed article %s: %w", a.ID, err)
		}
	}
	return nil
}

// articleUUID derives a stable Weaviate object ID from the article ID so
// re-ingesting an article overwrites instead of duplicating.
func articleUUID(articleID string) string {
	hash := sha256.Sum256([]byte(articleID))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

func chunkUUID(articleID string, part int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s_part_%d", articleID, part)))
	id, _ := uuid.FromBytes(hash[:16])
	return id.String()
}

// Upsert implements Store. The article body is split with a recursive
// character splitter and the chunks batch-imported; stale chunks from a
// previous version are removed first.
func (w *WeaviateStore) Upsert(ctx context.Context, article Article) error {
	if article.ID == "" {
		return fmt.Errorf("article id is required")
	}
	if err := w.deleteChunks(ctx, article.ID); err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	_, err := w.client.Data().Creator().
		WithClassName(articleClassName).
		WithID(articleUUID(article.ID)).
		WithProperties(map[string]interface{}{
			"article_id": article.ID,
			"title":      article.Title,
			"content":    article.Content,
			"category":   string(article.Category),
			"keywords":   article.Tags,
			"updated_at": now,
		}).
		Do(ctx)
	if err != nil {
		// Creator fails on an existing ID; fall back to update-in-place.
		err = w.client.Data().Updater().
			WithClassName(articleClassName).
			WithID(articleUUID(article.ID)).
			WithProperties(map[string]interface{}{
				"article_id": article.ID,
				"title":      article.Title,
				"content":    article.Content,
				"category":   string(article.Category),
				"keywords":   article.Tags,
				"updated_at": now,
			}).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("upsert article %s: %w", article.ID, err)
		}
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)
	text := article.Title + "\n\n" + article.Content
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return fmt.Errorf("failed to split article %s: %w", article.ID, err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "article", article.ID)
		return nil
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		objects[i] = &models.Object{
			Class: chunkClassName,
			ID:    strfmt.UUID(chunkUUID(article.ID, i+1)),
			Properties: map[string]interface{}{
				"content":        chunk,
				"source":         fmt.Sprintf("%s_part_%d", article.ID, i+1),
				"parent_article": article.ID,
				"category":       string(article.Category),
				"ingested_at":    now,
			},
		}
	}

	resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to save chunks to Weaviate: %w", err)
	}
	for _, item := range resp {
		if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "article", article.ID, "error", errItem.Message)
			}
		}
	}
	slog.Info("Ingested knowledge article", "article", article.ID, "chunks", len(chunks))
	return nil
}

type chunkQueryResponse struct {
	Get struct {
		KnowledgeChunk []struct {
			Content       string `json:"content"`
			ParentArticle string `json:"parent_article"`
			Category      string `json:"category"`
			Additional    struct {
				Score string `json:"score"`
			} `json:"_additional"`
		} `json:"KnowledgeChunk"`
	} `json:"Get"`
}

// Search implements Store via BM25 over chunks. Chunk scores fold to the
// best-scoring chunk per parent; raw BM25 scores are unbounded and get
// squashed to [0,1).
func (w *WeaviateStore) Search(ctx context.Context, query string, category datatypes.TicketCategory, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "parent_article"},
		{Name: "category"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "score"}}},
	}

	getBuilder := w.client.GraphQL().Get().
		WithClassName(chunkClassName).
		WithFields(fields...).
		WithBM25(w.client.GraphQL().Bm25ArgBuilder().WithQuery(query)).
		WithLimit(limit * 4)

	if category != "" {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueString(string(category)))
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("knowledge search error: %s", result.Errors[0].Message)
	}

	parsed, err := datatypes.ParseGraphQLResponse[chunkQueryResponse](result)
	if err != nil {
		return nil, err
	}

	bestByParent := make(map[string]float64)
	var order []string
	for _, hit := range parsed.Get.KnowledgeChunk {
		raw, _ := strconv.ParseFloat(hit.Additional.Score, 64)
		if _, seen := bestByParent[hit.ParentArticle]; !seen {
			order = append(order, hit.ParentArticle)
		}
		if raw > bestByParent[hit.ParentArticle] {
			bestByParent[hit.ParentArticle] = raw
		}
	}

	var results []SearchResult
	for _, parent := range order {
		if len(results) >= limit {
			break
		}
		article, err := w.Get(ctx, parent)
		if err != nil {
			slog.Warn("Chunk references missing parent article", "article", parent)
			continue
		}
		raw := bestByParent[parent]
		results = append(results, SearchResult{
			Article:   article,
			Relevance: raw / (raw + 1.5),
		})
	}
	return results, nil
}

type articleQueryResponse struct {
	Get struct {
		KnowledgeArticle []struct {
			ArticleID string   `json:"article_id"`
			Title     string   `json:"title"`
			Content   string   `json:"content"`
			Category  string   `json:"category"`
			Keywords  []string `json:"keywords"`
			UpdatedAt int64    `json:"updated_at"`
		} `json:"KnowledgeArticle"`
	} `json:"Get"`
}

var articleFields = []graphql.Field{
	{Name: "article_id"},
	{Name: "title"},
	{Name: "content"},
	{Name: "category"},
	{Name: "keywords"},
	{Name: "updated_at"},
}

// Get implements Store.
func (w *WeaviateStore) Get(ctx context.Context, id string) (Article, error) {
	result, err := w.client.GraphQL().Get().
		WithClassName(articleClassName).
		WithFields(articleFields...).
		WithWhere(filters.Where().
			WithPath([]string{"article_id"}).
			WithOperator(filters.Equal).
			WithValueString(id)).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return Article{}, fmt.Errorf("get article %s: %w", id, err)
	}
	parsed, err := datatypes.ParseGraphQLResponse[articleQueryResponse](result)
	if err != nil {
		return Article{}, err
	}
	if len(parsed.Get.KnowledgeArticle) == 0 {
		return Article{}, ErrArticleNotFound
	}
	hit := parsed.Get.KnowledgeArticle[0]
	return Article{
		ID:        hit.ArticleID,
		Title:     hit.Title,
		Content:   hit.Content,
		Category:  datatypes.TicketCategory(hit.Category),
		Tags:      hit.Keywords,
		UpdatedAt: time.UnixMilli(hit.UpdatedAt).UTC(),
	}, nil
}

// List implements Store. An empty category lists everything.
func (w *WeaviateStore) List(ctx context.Context, category datatypes.TicketCategory) ([]Article, error) {
	getBuilder := w.client.GraphQL().Get().
		WithClassName(articleClassName).
		WithFields(articleFields...).
		WithLimit(200)
	if category != "" {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"category"}).
			WithOperator(filters.Equal).
			WithValueString(string(category)))
	}
	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	parsed, err := datatypes.ParseGraphQLResponse[articleQueryResponse](result)
	if err != nil {
		return nil, err
	}
	articles := make([]Article, 0, len(parsed.Get.KnowledgeArticle))
	for _, hit := range parsed.Get.KnowledgeArticle {
		articles = append(articles, Article{
			ID:        hit.ArticleID,
			Title:     hit.Title,
			Content:   hit.Content,
			Category:  datatypes.TicketCategory(hit.Category),
			Tags:      hit.Keywords,
			UpdatedAt: time.UnixMilli(hit.UpdatedAt).UTC(),
		})
	}
	return articles, nil
}

// Delete implements Store: removes the article object and all of its chunks.
func (w *WeaviateStore) Delete(ctx context.Context, id string) error {
	if _, err := w.Get(ctx, id); err != nil {
		return err
	}
	err := w.client.Data().Deleter().
		WithClassName(articleClassName).
		WithID(articleUUID(id)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return w.deleteChunks(ctx, id)
}

func (w *WeaviateStore) deleteChunks(ctx context.Context, articleID string) error {
	_, err := w.client.Batch().ObjectsBatchDeleter().
		WithClassName(chunkClassName).
		WithWhere(filters.Where().
			WithPath([]string{"parent_article"}).
			WithOperator(filters.Equal).
			WithValueString(articleID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("delete chunks for %s: %w", articleID, err)
	}
	return nil
}
