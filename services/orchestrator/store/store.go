// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists tickets, conversation traces, and feedback in
// Badger. Tickets carry an optimistic version; writes with a stale version
// fail with ErrVersionConflict so concurrent pipeline runs cannot silently
// overwrite each other.
//
// Keyspace:
//
//	ticket/<ticket_id>            one Ticket, JSON
//	conv/<ticket_id>              one AgentConversation, JSON
//	feedback/<ticket_id>/<uuid>   one FeedbackRequest, JSON
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

var (
	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a ticket write carries a version
	// that no longer matches the stored one.
	ErrVersionConflict = errors.New("ticket version conflict")
)

const (
	ticketPrefix   = "ticket/"
	convPrefix     = "conv/"
	feedbackPrefix = "feedback/"
)

// Store wraps a Badger handle with the orchestrator keyspace.
type Store struct {
	db *badger.DB
}

// NewStore creates a Store over an already-open Badger database. The caller
// owns the database lifecycle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// =============================================================================
// Tickets
// =============================================================================

// SaveTicket persists a ticket. The version check and increment happen
// inside a single transaction:
//
//   - For a new ticket, t.Version must be 0.
//   - For an existing ticket, t.Version must equal the stored version.
//
// On success t.Version is incremented. Tickets are never deleted; there is
// deliberately no DeleteTicket.
func (s *Store) SaveTicket(ctx context.Context, t *datatypes.Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" {
		return errors.New("ticket ID is empty")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return writeTicket(txn, t)
	})
}

// writeTicket performs the version-checked ticket write inside an open
// transaction. On success t.Version is incremented.
func writeTicket(txn *badger.Txn, t *datatypes.Ticket) error {
	key := []byte(ticketPrefix + t.ID)
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		if t.Version != 0 {
			return fmt.Errorf("%w: ticket %s not stored but version is %d",
				ErrVersionConflict, t.ID, t.Version)
		}
	case err != nil:
		return fmt.Errorf("read ticket %s: %w", t.ID, err)
	default:
		var stored datatypes.Ticket
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return fmt.Errorf("decode ticket %s: %w", t.ID, err)
		}
		if stored.Version != t.Version {
			return fmt.Errorf("%w: ticket %s stored version %d, write version %d",
				ErrVersionConflict, t.ID, stored.Version, t.Version)
		}
	}

	t.Version++
	data, err := json.Marshal(t)
	if err != nil {
		t.Version--
		return fmt.Errorf("encode ticket %s: %w", t.ID, err)
	}
	if err := txn.Set(key, data); err != nil {
		t.Version--
		return fmt.Errorf("write ticket %s: %w", t.ID, err)
	}
	return nil
}

// SaveTicketState persists a ticket and its conversation in one
// transaction. Either both land or neither does, so a stored ticket can
// never be observed without the trace that produced its state. The ticket
// write carries the same version check as SaveTicket; on conflict the
// conversation is not written either.
func (s *Store) SaveTicketState(ctx context.Context, t *datatypes.Ticket, conv *datatypes.AgentConversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" {
		return errors.New("ticket ID is empty")
	}
	if conv.TicketID != t.ID {
		return fmt.Errorf("conversation ticket ID %s does not match ticket %s", conv.TicketID, t.ID)
	}
	convData, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation for ticket %s: %w", t.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := writeTicket(txn, t); err != nil {
			return err
		}
		return txn.Set([]byte(convPrefix+t.ID), convData)
	})
}

// GetTicket loads one ticket by ID.
func (s *Store) GetTicket(ctx context.Context, id string) (*datatypes.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var t datatypes.Ticket
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ticketPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("ticket %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read ticket %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MutateTicket loads a ticket, applies fn, and saves it, retrying once with
// a fresh load if another writer bumped the version in between. fn must be
// safe to run twice.
func (s *Store) MutateTicket(ctx context.Context, id string, fn func(*datatypes.Ticket) error) (*datatypes.Ticket, error) {
	for attempt := 0; attempt < 2; attempt++ {
		t, err := s.GetTicket(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(t); err != nil {
			return nil, err
		}
		err = s.SaveTicket(ctx, t)
		if errors.Is(err, ErrVersionConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("ticket %s: %w after retry", id, ErrVersionConflict)
}

// ListTickets returns every stored ticket. The metrics aggregation walks
// the full keyspace; ticket volume at a single desk stays well within what
// a prefix scan handles.
func (s *Store) ListTickets(ctx context.Context) ([]*datatypes.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var tickets []*datatypes.Ticket
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(ticketPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var t datatypes.Ticket
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return fmt.Errorf("decode ticket %s: %w", it.Item().Key(), err)
			}
			tickets = append(tickets, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// =============================================================================
// Conversations
// =============================================================================

// SaveConversation persists the full trace for a ticket, replacing any
// previous snapshot. The conversation is append-only in memory; persisting
// the whole value keeps the write path simple.
func (s *Store) SaveConversation(ctx context.Context, conv *datatypes.AgentConversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if conv.TicketID == "" {
		return errors.New("conversation ticket ID is empty")
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation for ticket %s: %w", conv.TicketID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(convPrefix+conv.TicketID), data)
	})
}

// GetConversation loads the trace for a ticket.
func (s *Store) GetConversation(ctx context.Context, ticketID string) (*datatypes.AgentConversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var conv datatypes.AgentConversation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(convPrefix + ticketID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("conversation for ticket %s: %w", ticketID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read conversation for ticket %s: %w", ticketID, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &conv)
		})
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// =============================================================================
// Feedback
// =============================================================================

// SaveFeedback appends one feedback record for a ticket.
func (s *Store) SaveFeedback(ctx context.Context, fb *datatypes.FeedbackRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("encode feedback for ticket %s: %w", fb.TicketID, err)
	}
	key := []byte(feedbackPrefix + fb.TicketID + "/" + uuid.NewString())
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// ListFeedback returns all feedback recorded for a ticket.
func (s *Store) ListFeedback(ctx context.Context, ticketID string) ([]*datatypes.FeedbackRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*datatypes.FeedbackRequest
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(feedbackPrefix + ticketID + "/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var fb datatypes.FeedbackRequest
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &fb)
			}); err != nil {
				return fmt.Errorf("decode feedback %s: %w", it.Item().Key(), err)
			}
			out = append(out, &fb)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
