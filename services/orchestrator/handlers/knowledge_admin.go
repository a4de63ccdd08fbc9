// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

// ListArticles lists knowledge base articles, optionally filtered by the
// category query parameter.
func ListArticles(kb knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := datatypes.TicketCategory(c.Query("category"))
		articles, err := kb.List(c.Request.Context(), category)
		if err != nil {
			slog.Error("Failed to list knowledge articles", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list articles"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
	}
}

// GetArticle returns one article by ID.
func GetArticle(kb knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		article, err := kb.Get(c.Request.Context(), c.Param("articleId"))
		if errors.Is(err, knowledge.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to get knowledge article", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get article"})
			return
		}
		c.JSON(http.StatusOK, article)
	}
}

// UpsertArticle creates or replaces an article. Specialists see the change
// on their next search.
func UpsertArticle(kb knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var article knowledge.Article
		if err := c.ShouldBindJSON(&article); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if article.ID == "" || article.Title == "" || article.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id, title, and content are required"})
			return
		}
		if article.UpdatedAt.IsZero() {
			article.UpdatedAt = time.Now().UTC()
		}

		if err := kb.Upsert(c.Request.Context(), article); err != nil {
			slog.Error("Failed to upsert knowledge article", "article_id", article.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store article"})
			return
		}
		slog.Info("Knowledge article upserted", "article_id", article.ID, "category", article.Category)
		c.JSON(http.StatusOK, gin.H{"status": "stored", "article_id": article.ID})
	}
}

// SearchArticles runs the same relevance search the specialists use, for
// operators tuning the knowledge base.
func SearchArticles(kb knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
			return
		}
		category := datatypes.TicketCategory(c.Query("category"))
		limit := 5
		if raw := c.Query("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		results, err := kb.Search(c.Request.Context(), query, category, limit)
		if err != nil {
			slog.Error("Knowledge search failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	}
}

// DeleteArticle removes an article and its derived search chunks.
func DeleteArticle(kb knowledge.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("articleId")
		err := kb.Delete(c.Request.Context(), id)
		if errors.Is(err, knowledge.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		if err != nil {
			slog.Error("Failed to delete knowledge article", "article_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted", "article_id": id})
	}
}
