// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/AleutianDesk/services/safety"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Config Tests
// =============================================================================

// TestApplyConfigDefaults_AllDefaults verifies default values are applied.
//
// # Description
//
// Tests that applyConfigDefaults correctly fills in missing values
// when an empty Config is provided.
func TestApplyConfigDefaults_AllDefaults(t *testing.T) {
	// Arrange
	cfg := Config{}

	// Act
	result := applyConfigDefaults(cfg)

	// Assert
	assert.Equal(t, 12210, result.Port, "default port should be 12210")
	assert.Equal(t, "ollama", result.LLMBackend, "default LLM backend should be ollama")
	assert.Equal(t, "./data/desk", result.DataDir, "default data dir should be ./data/desk")
	assert.Equal(t, safety.DefaultSeverityThreshold, result.SeverityThreshold,
		"default severity threshold should match the safety gate default")
	assert.Equal(t, "aleutian-otel-collector:4317", result.OTelEndpoint,
		"default OTel endpoint should be aleutian-otel-collector:4317")
	assert.True(t, result.EnableMetrics, "metrics should be enabled by default")
}

// TestApplyConfigDefaults_PreservesCustomValues verifies custom values are not overwritten.
//
// # Description
//
// Tests that applyConfigDefaults does not overwrite user-provided values.
func TestApplyConfigDefaults_PreservesCustomValues(t *testing.T) {
	// Arrange
	cfg := Config{
		Port:              8080,
		LLMBackend:        "none",
		DataDir:           "/tmp/desk-test",
		WeaviateURL:       "http://weaviate:8080",
		RunbookGatewayURL: "http://runbook-gateway:9000",
		SeverityThreshold: 6,
		OTelEndpoint:      "custom-collector:4317",
	}

	// Act
	result := applyConfigDefaults(cfg)

	// Assert
	assert.Equal(t, 8080, result.Port, "custom port should be preserved")
	assert.Equal(t, "none", result.LLMBackend, "custom LLM backend should be preserved")
	assert.Equal(t, "/tmp/desk-test", result.DataDir, "custom data dir should be preserved")
	assert.Equal(t, "http://weaviate:8080", result.WeaviateURL,
		"custom Weaviate URL should be preserved")
	assert.Equal(t, "http://runbook-gateway:9000", result.RunbookGatewayURL,
		"custom runbook gateway URL should be preserved")
	assert.Equal(t, 6, result.SeverityThreshold,
		"custom severity threshold should be preserved")
	assert.Equal(t, "custom-collector:4317", result.OTelEndpoint,
		"custom OTel endpoint should be preserved")
}

// TestApplyConfigDefaults_MetricsForcedOn verifies the metrics endpoint
// cannot be disabled. The Prometheus endpoint is part of the service
// contract for deployed desks.
func TestApplyConfigDefaults_MetricsForcedOn(t *testing.T) {
	cfg := Config{EnableMetrics: false}

	result := applyConfigDefaults(cfg)

	assert.True(t, result.EnableMetrics)
}
