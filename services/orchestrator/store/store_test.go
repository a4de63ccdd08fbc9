// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianDesk/pkg/storage/badgerdb"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badgerdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func TestTicketRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := datatypes.NewTicket("jdoe", "my laptop will not boot", datatypes.ChannelWeb, "")
	require.NoError(t, s.SaveTicket(ctx, ticket))
	assert.Equal(t, uint64(1), ticket.Version)

	got, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
	assert.Equal(t, "my laptop will not boot", got.Description)
	assert.Equal(t, datatypes.StatusOpen, got.Status)
	assert.Equal(t, uint64(1), got.Version)
}

func TestGetTicketNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetTicket(context.Background(), "no-such-ticket")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTicketStaleVersionConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := datatypes.NewTicket("jdoe", "vpn keeps dropping", datatypes.ChannelAPI, "")
	require.NoError(t, s.SaveTicket(ctx, ticket))

	// Two readers load version 1, both try to write.
	first, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := s.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)

	first.Status = datatypes.StatusInProgress
	require.NoError(t, s.SaveTicket(ctx, first))

	second.Status = datatypes.StatusInProgress
	err = s.SaveTicket(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestSaveTicketNewWithNonzeroVersionConflicts(t *testing.T) {
	s := newTestStore(t)
	ticket := datatypes.NewTicket("jdoe", "hello", datatypes.ChannelWeb, "")
	ticket.Version = 3
	err := s.SaveTicket(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestMutateTicketRetriesOnceOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := datatypes.NewTicket("jdoe", "badge reader broken", datatypes.ChannelWeb, "")
	require.NoError(t, s.SaveTicket(ctx, ticket))

	// The first fn invocation races a concurrent writer; the retry sees the
	// fresh version and succeeds.
	raced := false
	got, err := s.MutateTicket(ctx, ticket.ID, func(t *datatypes.Ticket) error {
		if !raced {
			raced = true
			other, err := s.GetTicket(ctx, t.ID)
			if err != nil {
				return err
			}
			other.Priority = datatypes.PriorityHigh
			return s.SaveTicket(ctx, other)
		}
		t.Status = datatypes.StatusInProgress
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusInProgress, got.Status)
	assert.Equal(t, datatypes.PriorityHigh, got.Priority, "retry must reapply over the fresh state")
}

func TestSaveTicketStateWritesBothOrNeither(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ticket := datatypes.NewTicket("jdoe", "printer jams on every job", datatypes.ChannelWeb, "")
	conv := datatypes.NewConversation(ticket.ID)
	conv.Append(datatypes.AgentMessage{AgentType: datatypes.AgentSafety, Content: "allowed"})
	require.NoError(t, s.SaveTicketState(ctx, ticket, conv))
	assert.Equal(t, uint64(1), ticket.Version)

	got, err := s.GetConversation(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)

	// A stale ticket write must not land the new conversation either.
	stale := *ticket
	stale.Version = 0
	conv.Append(datatypes.AgentMessage{AgentType: datatypes.AgentRouter, Content: "it_support"})
	err = s.SaveTicketState(ctx, &stale, conv)
	assert.ErrorIs(t, err, ErrVersionConflict)

	after, err := s.GetConversation(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, after.Messages, 1)
}

func TestSaveTicketStateRejectsMismatchedConversation(t *testing.T) {
	s := newTestStore(t)

	ticket := datatypes.NewTicket("jdoe", "door badge rejected", datatypes.ChannelWeb, "")
	conv := datatypes.NewConversation("some-other-ticket")
	err := s.SaveTicketState(context.Background(), ticket, conv)
	require.Error(t, err)
	assert.Equal(t, uint64(0), ticket.Version)
}

func TestListTickets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveTicket(ctx, datatypes.NewTicket("jdoe", "issue", datatypes.ChannelWeb, "")))
	}
	tickets, err := s.ListTickets(ctx)
	require.NoError(t, err)
	assert.Len(t, tickets, 3)
}

func TestConversationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv := datatypes.NewConversation("ticket-42")
	conv.Append(datatypes.AgentMessage{AgentType: datatypes.AgentSafety, Content: "allowed"})
	conv.Append(datatypes.AgentMessage{AgentType: datatypes.AgentRouter, Content: "it_support"})
	require.NoError(t, s.SaveConversation(ctx, conv))

	got, err := s.GetConversation(ctx, "ticket-42")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, datatypes.AgentSafety, got.Messages[0].AgentType)
	assert.Equal(t, datatypes.AgentRouter, got.Messages[1].AgentType)
}

func TestFeedbackAppendsPerTicket(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fb := &datatypes.FeedbackRequest{TicketID: "ticket-9", UserID: "jdoe", Rating: 5, WasHelpful: true}
	require.NoError(t, s.SaveFeedback(ctx, fb))
	require.NoError(t, s.SaveFeedback(ctx, &datatypes.FeedbackRequest{TicketID: "ticket-9", UserID: "jdoe", Rating: 2}))

	list, err := s.ListFeedback(ctx, "ticket-9")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := s.ListFeedback(ctx, "ticket-8")
	require.NoError(t, err)
	assert.Empty(t, other)
}
