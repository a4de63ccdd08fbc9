// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runbook executes named, side-effecting automation operations on
// behalf of specialist agents: password resets, room bookings, license
// checks, payroll updates. A runbook either succeeds with a result message
// or fails; it never partially applies.
package runbook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Known runbook names. The set is closed: specialists may only trigger
// runbooks listed here.
const (
	ResetPassword = "reset_password"
	BookRoom      = "book_room"
	CheckLicense  = "check_license"
	UpdatePayroll = "update_payroll"
)

// ErrUnknownRunbook is returned when a name is not in the closed set.
var ErrUnknownRunbook = errors.New("runbook not found")

// Result is the outcome of one runbook execution.
type Result struct {
	Success   bool      `json:"success"`
	Runbook   string    `json:"runbook"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Executor runs runbooks. Execute returns an error only for transport or
// lookup failures; a runbook that ran and failed comes back as a Result
// with Success=false.
type Executor interface {
	Execute(ctx context.Context, name string, params map[string]string) (Result, error)
}

// LocalExecutor simulates runbook automation in-process. It backs
// development deployments and tests; production uses HTTPExecutor against
// the automation gateway.
type LocalExecutor struct {
	// Latency simulates automation round-trip time. Zero in tests.
	Latency time.Duration
}

// Execute implements Executor.
func (e *LocalExecutor) Execute(ctx context.Context, name string, params map[string]string) (Result, error) {
	if !IsKnown(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRunbook, name)
	}
	if e.Latency > 0 {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(e.Latency):
		}
	}
	return Result{
		Success:   true,
		Runbook:   name,
		Message:   localMessage(name, params),
		Timestamp: time.Now().UTC(),
	}, nil
}

// IsKnown reports whether name is in the closed runbook set.
func IsKnown(name string) bool {
	switch name {
	case ResetPassword, BookRoom, CheckLicense, UpdatePayroll:
		return true
	}
	return false
}

func localMessage(name string, params map[string]string) string {
	switch name {
	case ResetPassword:
		user := params["user_id"]
		return fmt.Sprintf("Runbook 'ResetPassword' executed. Temporary password sent to %s@company.com via SMS.", user)
	case BookRoom:
		room := paramOr(params, "room", "Conference Room A")
		at := paramOr(params, "time", "2:00 PM")
		return fmt.Sprintf("Runbook 'BookRoom' executed. Room %s booked for %s. Calendar invite sent.", room, at)
	case CheckLicense:
		software := paramOr(params, "software", "Unknown")
		return fmt.Sprintf("Runbook 'CheckLicense' executed. License for %s is valid until 2025-12-31.", software)
	case UpdatePayroll:
		return "Runbook 'UpdatePayroll' executed. Payroll information updated."
	}
	return "Runbook executed successfully."
}

func paramOr(params map[string]string, key, fallback string) string {
	if v, ok := params[key]; ok && v != "" {
		return v
	}
	return fallback
}
