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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/pipeline"
)

// SubmitTicket accepts a new support request and runs the full pipeline
// synchronously. The response carries the ticket, the agent trace, and the
// explanation graph.
func SubmitTicket(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.SubmitTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		slog.Info("Received ticket submission", "user_id", req.UserID, "channel", req.Channel)

		resp, err := orch.Submit(c.Request.Context(), &req, c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// GetTicket returns the current state of a ticket with its trace.
func GetTicket(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := orch.Get(c.Request.Context(), c.Param("ticketId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ReplyTicket feeds a user clarification into a pending_user or escalated
// ticket and re-runs the pipeline over the compounded context.
func ReplyTicket(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.TicketReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		resp, err := orch.Reply(c.Request.Context(), c.Param("ticketId"), &req, c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ReopenTicket re-runs the pipeline on an escalated ticket. Useful after a
// vocabulary or knowledge base update.
func ReopenTicket(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := orch.Reopen(c.Request.Context(), c.Param("ticketId"), c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// GetTicketConversation returns only the agent trace for a ticket.
func GetTicketConversation(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := orch.Get(c.Request.Context(), c.Param("ticketId"))
		if err != nil {
			writeError(c, err)
			return
		}
		if resp.Conversation == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No conversation recorded for this ticket"})
			return
		}
		c.JSON(http.StatusOK, resp.Conversation)
	}
}

// ConfirmTicket closes a resolved ticket on user confirmation.
func ConfirmTicket(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := orch.Confirm(c.Request.Context(), c.Param("ticketId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// SubmitFeedback records a user rating for a processed ticket.
func SubmitFeedback(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := orch.Feedback(c.Request.Context(), &req); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
	}
}

// GetDeskMetrics returns the aggregate ticket metrics for operators.
func GetDeskMetrics(orch *pipeline.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := orch.Metrics(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
