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

import "errors"

var (
	// ErrOracleUnavailable means a structural LLM oracle (categorization or
	// specialist resolution) exhausted its retries. The ticket is left in
	// its pre-run state and the request is safe to retry.
	ErrOracleUnavailable = errors.New("semantic oracle unavailable")

	// ErrInvalidTransition means an operation would move a ticket along an
	// edge the state machine does not have.
	ErrInvalidTransition = errors.New("invalid ticket state transition")

	// ErrInvalidState means the ticket exists but is not in a state that
	// allows the requested operation (e.g. replying to a closed ticket).
	ErrInvalidState = errors.New("operation not allowed in current ticket state")
)
