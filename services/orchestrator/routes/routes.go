// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/handlers"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/pipeline"
	"github.com/AleutianAI/AleutianDesk/services/safety"
)

func SetupRoutes(router *gin.Engine, orch *pipeline.Orchestrator, kb knowledge.Store,
	audit *safety.BadgerAuditLog) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics/prometheus", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		tickets := v1.Group("/tickets")
		{
			tickets.POST("", handlers.SubmitTicket(orch))
			tickets.GET("/:ticketId", handlers.GetTicket(orch))
			tickets.GET("/:ticketId/conversation", handlers.GetTicketConversation(orch))
			tickets.POST("/:ticketId/reply", handlers.ReplyTicket(orch))
			tickets.POST("/:ticketId/confirm", handlers.ConfirmTicket(orch))
			tickets.POST("/:ticketId/reopen", handlers.ReopenTicket(orch))
		}
		v1.POST("/feedback", handlers.SubmitFeedback(orch))
		v1.GET("/metrics", handlers.GetDeskMetrics(orch))

		// Knowledge base administration routes
		articles := v1.Group("/knowledge/articles")
		{
			articles.GET("", handlers.ListArticles(kb))
			articles.GET("/:articleId", handlers.GetArticle(kb))
			articles.POST("", handlers.UpsertArticle(kb))
			articles.DELETE("/:articleId", handlers.DeleteArticle(kb))
		}
		v1.GET("/knowledge/search", handlers.SearchArticles(kb))

		// Safety administration routes
		v1.GET("/audit/blocks", handlers.ListSafetyBlocks(audit))
	}
}
