// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the desk
// orchestrator.
//
// # Description
//
// This package implements Prometheus metrics for monitoring the ticket
// pipeline. Metrics include:
//   - Pipeline run counters (by outcome status)
//   - Safety gate block counters (by layer reason)
//   - Oracle failure counters (by pipeline stage)
//   - Runbook execution counters (by runbook and result)
//   - Pipeline latency histograms
//
// # Integration
//
// Metrics are exposed via the /metrics/prometheus endpoint. Use with
// Prometheus + Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutiandesk"

// Subsystem for pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for ticket pipeline runs.
//
// # Description
//
// Provides counters and histograms for monitoring pipeline throughput,
// safety verdicts, and oracle health. Initialize once at startup via
// InitMetrics().
//
// # Fields
//
//   - TicketsProcessed: Counter of pipeline runs by outcome status
//   - SafetyBlocks: Counter of blocking safety verdicts by reason
//   - OracleFailures: Counter of fatal oracle exhaustion by stage
//   - RunbookExecutions: Counter of runbook runs by name and result
//   - PipelineDurationSeconds: Histogram of end-to-end pipeline latency
//   - SpecialistDurationSeconds: Histogram of per-specialist latency
//
// # Thread Safety
//
// All operations are thread-safe.
type PipelineMetrics struct {
	// TicketsProcessed counts pipeline runs by outcome.
	// Labels: status (resolved, pending_user, escalated, blocked)
	TicketsProcessed *prometheus.CounterVec

	// SafetyBlocks counts blocking safety verdicts by layer.
	// Labels: reason (jailbreak_pattern, pii_detected, toxicity_threshold, llm_flagged)
	SafetyBlocks *prometheus.CounterVec

	// OracleFailures counts fatal LLM oracle failures.
	// Labels: stage (categorization, specialist)
	OracleFailures *prometheus.CounterVec

	// RunbookExecutions counts runbook runs.
	// Labels: runbook (reset_password, book_room, ...), result (success, failure)
	RunbookExecutions *prometheus.CounterVec

	// PipelineDurationSeconds measures end-to-end pipeline latency.
	// Labels: status
	PipelineDurationSeconds *prometheus.HistogramVec

	// SpecialistDurationSeconds measures per-specialist handling latency.
	// Labels: category
	SpecialistDurationSeconds *prometheus.HistogramVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after the Prometheus registry is available.
//
// # Outputs
//
//   - *PipelineMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		TicketsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "tickets_processed_total",
				Help:      "Total pipeline runs by outcome status",
			},
			[]string{"status"},
		),

		SafetyBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "safety",
				Name:      "blocks_total",
				Help:      "Total blocking safety gate verdicts by reason",
			},
			[]string{"reason"},
		),

		OracleFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "oracle_failures_total",
				Help:      "Total fatal LLM oracle failures by pipeline stage",
			},
			[]string{"stage"},
		),

		RunbookExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "runbook",
				Name:      "executions_total",
				Help:      "Total runbook executions by name and result",
			},
			[]string{"runbook", "result"},
		),

		PipelineDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "duration_seconds",
				Help:      "End-to-end ticket pipeline latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"status"},
		),

		SpecialistDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "specialist_duration_seconds",
				Help:      "Per-specialist handling latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"category"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordOutcome records one completed pipeline run.
//
// # Inputs
//
//   - status: The outcome status of the run.
//   - seconds: End-to-end latency in seconds.
func (m *PipelineMetrics) RecordOutcome(status string, seconds float64) {
	m.TicketsProcessed.WithLabelValues(status).Inc()
	m.PipelineDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordSafetyBlock records one blocking safety verdict.
//
// # Inputs
//
//   - reason: The gate layer reason that blocked.
func (m *PipelineMetrics) RecordSafetyBlock(reason string) {
	m.SafetyBlocks.WithLabelValues(reason).Inc()
}

// RecordOracleFailure records a fatal oracle exhaustion.
//
// # Inputs
//
//   - stage: The pipeline stage whose oracle failed.
func (m *PipelineMetrics) RecordOracleFailure(stage string) {
	m.OracleFailures.WithLabelValues(stage).Inc()
}

// RecordRunbook records one runbook execution.
//
// # Inputs
//
//   - runbook: The runbook name.
//   - success: Whether the runbook reported success.
func (m *PipelineMetrics) RecordRunbook(runbook string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.RunbookExecutions.WithLabelValues(runbook, result).Inc()
}

// RecordSpecialist records one specialist handling duration.
//
// # Inputs
//
//   - category: The specialist's domain category.
//   - seconds: Handling latency in seconds.
func (m *PipelineMetrics) RecordSpecialist(category string, seconds float64) {
	m.SpecialistDurationSeconds.WithLabelValues(category).Observe(seconds)
}
