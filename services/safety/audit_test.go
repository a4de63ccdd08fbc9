// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDesk/pkg/storage/badgerdb"
)

func TestBadgerAuditLogRoundTrip(t *testing.T) {
	db, err := badgerdb.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	log := NewBadgerAuditLog(db)
	ctx := context.Background()

	err = log.Record(ctx, AuditEntry{
		TicketID: "ticket-1",
		Reason:   ReasonJailbreakPattern,
		SourceIP: "10.0.0.9",
	})
	require.NoError(t, err)

	err = log.Record(ctx, AuditEntry{
		TicketID: "ticket-2",
		Reason:   ReasonToxicityThreshold,
	})
	require.NoError(t, err)

	entries, err := log.List(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ReasonJailbreakPattern, entries[0].Reason)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestBadgerAuditLogWindowFilter(t *testing.T) {
	db, err := badgerdb.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	log := NewBadgerAuditLog(db)
	ctx := context.Background()

	old := AuditEntry{Reason: ReasonPIIDetected, Timestamp: time.Now().UTC().Add(-48 * time.Hour)}
	recent := AuditEntry{Reason: ReasonLLMFlagged, Timestamp: time.Now().UTC()}
	require.NoError(t, log.Record(ctx, old))
	require.NoError(t, log.Record(ctx, recent))

	entries, err := log.List(ctx, time.Now().UTC().Add(-time.Hour), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ReasonLLMFlagged, entries[0].Reason)
}
