// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package confidence implements the weakest-link aggregation policy that
// turns stage confidences into the ticket's next status.
package confidence

import "github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"

// Band thresholds. These are structural constants of the state machine,
// not tuning knobs: boundary values belong to the higher band.
const (
	AutoResolveThreshold   = 0.8
	ClarificationThreshold = 0.5
)

// Aggregate combines the categorization confidence with every specialist
// confidence using the weakest-link policy: the weakest stage gates the
// whole pipeline, so a strong categorization can never mask a weak
// resolution or vice versa.
func Aggregate(categorization float64, specialists []float64) (float64, datatypes.TicketStatus) {
	final := categorization
	for _, c := range specialists {
		if c < final {
			final = c
		}
	}
	return final, StatusFor(final)
}

// StatusFor maps a final confidence onto the next ticket status.
func StatusFor(final float64) datatypes.TicketStatus {
	switch {
	case final >= AutoResolveThreshold:
		return datatypes.StatusResolved
	case final >= ClarificationThreshold:
		return datatypes.StatusPendingUser
	default:
		return datatypes.StatusEscalated
	}
}
