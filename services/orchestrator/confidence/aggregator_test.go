// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianDesk/services/orchestrator/datatypes"
)

func TestAggregateWeakestLink(t *testing.T) {
	tests := []struct {
		name           string
		categorization float64
		specialists    []float64
		wantFinal      float64
		wantStatus     datatypes.TicketStatus
	}{
		{"all strong resolves", 0.9, []float64{0.98, 0.95}, 0.9, datatypes.StatusResolved},
		{"weak specialist gates", 0.9, []float64{0.98, 0.55}, 0.55, datatypes.StatusPendingUser},
		{"weak categorization gates", 0.55, []float64{0.98}, 0.55, datatypes.StatusPendingUser},
		{"failed runbook escalates", 0.9, []float64{0.35}, 0.35, datatypes.StatusEscalated},
		{"no specialists uses categorization", 0.85, nil, 0.85, datatypes.StatusResolved},
		{"boundary 0.8 resolves", 0.8, []float64{0.9}, 0.8, datatypes.StatusResolved},
		{"boundary 0.5 asks user", 0.5, []float64{0.5}, 0.5, datatypes.StatusPendingUser},
		{"just under 0.5 escalates", 0.9, []float64{0.499}, 0.499, datatypes.StatusEscalated},
		{"just under 0.8 asks user", 0.799, []float64{0.95}, 0.799, datatypes.StatusPendingUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, status := Aggregate(tt.categorization, tt.specialists)
			assert.InDelta(t, tt.wantFinal, final, 1e-9)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestStatusForBands(t *testing.T) {
	assert.Equal(t, datatypes.StatusResolved, StatusFor(1.0))
	assert.Equal(t, datatypes.StatusPendingUser, StatusFor(0.79))
	assert.Equal(t, datatypes.StatusEscalated, StatusFor(0.0))
}
