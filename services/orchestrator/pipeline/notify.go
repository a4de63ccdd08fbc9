// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pipeline

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

// Notifier is invoked after an escalation outcome is durable, so a human
// specialist can pick the ticket up. Implementations must not block the
// response path on slow downstreams.
type Notifier interface {
	NotifyEscalation(ctx context.Context, ticket *datatypes.Ticket)
}

// LogNotifier records the hand-off in the service log. Deployments with a
// paging or chat integration substitute their own Notifier.
type LogNotifier struct{}

func (LogNotifier) NotifyEscalation(_ context.Context, t *datatypes.Ticket) {
	slog.Warn("Ticket escalated to human specialist",
		"ticket_id", t.ID,
		"category", t.Category,
		"priority", t.Priority,
		"reason", t.EscalationReason)
}
