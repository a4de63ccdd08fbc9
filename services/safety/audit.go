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
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// AuditLog records blocking verdicts. Record must not return until the
// entry is durable: the gate refuses to answer a blocked request whose
// audit entry could still be lost.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

const auditKeyPrefix = "audit/"

// BadgerAuditLog is the embedded, append-only audit store. Keys are ordered
// by timestamp so operators can range-scan a time window.
type BadgerAuditLog struct {
	db *badger.DB
}

func NewBadgerAuditLog(db *badger.DB) *BadgerAuditLog {
	return &BadgerAuditLog{db: db}
}

// Record implements AuditLog. Entries are insert-only; an existing key is
// never overwritten because the key embeds a fresh UUID.
func (a *BadgerAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	key := fmt.Sprintf("%s%s/%s", auditKeyPrefix, entry.Timestamp.Format(time.RFC3339Nano), entry.ID)

	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), payload)
	})
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// List returns every audit entry in the given window, oldest first. Zero
// bounds mean unbounded on that side.
func (a *BadgerAuditLog) List(ctx context.Context, from, to time.Time) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(auditKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek([]byte(auditKeyPrefix)); it.ValidForPrefix([]byte(auditKeyPrefix)); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry AuditEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("unmarshal audit entry: %w", err)
				}
				if !from.IsZero() && entry.Timestamp.Before(from) {
					return nil
				}
				if !to.IsZero() && entry.Timestamp.After(to) {
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
