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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/pipeline"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/store"
)

// writeError maps pipeline and store errors onto HTTP statuses. User-facing
// bodies stay generic; the cause goes to the log and the trace, never to the
// wire.
func writeError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": validationErrs.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	case errors.Is(err, store.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket was modified concurrently, please retry"})
	case errors.Is(err, pipeline.ErrInvalidState), errors.Is(err, pipeline.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed in the ticket's current state"})
	case errors.Is(err, pipeline.ErrOracleUnavailable):
		slog.Error("Pipeline oracle unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "The service is temporarily unable to process this request. Please try again.",
		})
	default:
		slog.Error("Unhandled orchestration error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong processing this request. Please try again.",
		})
	}
}
