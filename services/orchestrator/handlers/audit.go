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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianDesk/services/safety"
)

// ListSafetyBlocks returns the audit log of blocking safety verdicts in a
// time window. Defaults to the last 24 hours; override with from/to query
// parameters in RFC 3339.
func ListSafetyBlocks(audit *safety.BadgerAuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		to := time.Now().UTC()
		from := to.Add(-24 * time.Hour)

		if raw := c.Query("from"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
				return
			}
			from = parsed
		}
		if raw := c.Query("to"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
				return
			}
			to = parsed
		}

		entries, err := audit.List(c.Request.Context(), from, to)
		if err != nil {
			slog.Error("Failed to list safety audit entries", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
	}
}
