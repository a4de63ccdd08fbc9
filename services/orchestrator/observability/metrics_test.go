// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper: Create isolated metrics for testing
// ============================================================================

// newTestMetrics creates a PipelineMetrics instance with a custom registry.
// This avoids conflicts with the global Prometheus registry and allows
// parallel testing.
func newTestMetrics(t *testing.T) *PipelineMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		cv := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      name,
				Help:      help,
			},
			labels,
		)
		require.NoError(t, reg.Register(cv))
		return cv
	}
	histogram := func(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
		hv := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      name,
				Help:      help,
				Buckets:   []float64{0.1, 1.0, 10.0},
			},
			labels,
		)
		require.NoError(t, reg.Register(hv))
		return hv
	}

	return &PipelineMetrics{
		TicketsProcessed: counter(pipelineSubsystem, "tickets_processed_total",
			"Total pipeline runs by outcome status", "status"),
		SafetyBlocks: counter("safety", "blocks_total",
			"Total blocking safety gate verdicts by reason", "reason"),
		OracleFailures: counter(pipelineSubsystem, "oracle_failures_total",
			"Total fatal LLM oracle failures by pipeline stage", "stage"),
		RunbookExecutions: counter("runbook", "executions_total",
			"Total runbook executions by name and result", "runbook", "result"),
		PipelineDurationSeconds: histogram(pipelineSubsystem, "duration_seconds",
			"End-to-end ticket pipeline latency in seconds", "status"),
		SpecialistDurationSeconds: histogram(pipelineSubsystem, "specialist_duration_seconds",
			"Per-specialist handling latency in seconds", "category"),
	}
}

// ============================================================================
// Helper Method Tests
// ============================================================================

func TestPipelineMetrics_RecordOutcome(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordOutcome("resolved", 0.42)
	m.RecordOutcome("resolved", 1.3)
	m.RecordOutcome("escalated", 2.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicketsProcessed.WithLabelValues("resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicketsProcessed.WithLabelValues("escalated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TicketsProcessed.WithLabelValues("blocked")))
}

func TestPipelineMetrics_RecordOutcome_ObservesDuration(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordOutcome("resolved", 0.42)
	m.RecordOutcome("pending_user", 0.1)

	// One histogram series per outcome status.
	assert.Equal(t, 2, testutil.CollectAndCount(m.PipelineDurationSeconds))
}

func TestPipelineMetrics_RecordSafetyBlock(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSafetyBlock("jailbreak_pattern")
	m.RecordSafetyBlock("jailbreak_pattern")
	m.RecordSafetyBlock("toxicity_threshold")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SafetyBlocks.WithLabelValues("jailbreak_pattern")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SafetyBlocks.WithLabelValues("toxicity_threshold")))
}

func TestPipelineMetrics_RecordOracleFailure(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordOracleFailure("categorization")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleFailures.WithLabelValues("categorization")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OracleFailures.WithLabelValues("specialist")))
}

func TestPipelineMetrics_RecordRunbook(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordRunbook("reset_password", true)
	m.RecordRunbook("reset_password", true)
	m.RecordRunbook("reset_password", false)

	assert.Equal(t, 2.0,
		testutil.ToFloat64(m.RunbookExecutions.WithLabelValues("reset_password", "success")))
	assert.Equal(t, 1.0,
		testutil.ToFloat64(m.RunbookExecutions.WithLabelValues("reset_password", "failure")))
}

func TestPipelineMetrics_RecordSpecialist(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSpecialist("it_support", 0.2)
	m.RecordSpecialist("hr", 0.4)

	assert.Equal(t, 2, testutil.CollectAndCount(m.SpecialistDurationSeconds))
}
