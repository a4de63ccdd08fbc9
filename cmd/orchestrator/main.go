// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command orchestrator starts the AleutianDesk service desk HTTP server.
//
// This is the main entry point for the containerized desk service. It
// reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - DESK_PORT: HTTP server port (default: 12210)
//   - LLM_BACKEND_TYPE: LLM provider - ollama, openai, none (default: ollama)
//   - DESK_DATA_DIR: BadgerDB directory (default: ./data/desk)
//   - WEAVIATE_SERVICE_URL: Weaviate knowledge base URL (optional)
//   - RUNBOOK_GATEWAY_URL: Runbook execution gateway base URL (optional)
//   - ROUTER_VOCAB_PATH: Router vocabulary override file (optional)
//   - SAFETY_SEVERITY_THRESHOLD: Moderation blocking threshold 1-7 (default: 4)
//   - DESK_LOG_DIR: Directory for JSON file logs (optional, stderr only if unset)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o desk ./cmd/orchestrator
//
//	# Run
//	./desk
//
//	# Or via container
//	podman-compose up desk
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianDesk/pkg/logging"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator"
)

func main() {
	// Setup structured logging
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("DESK_LOG_DIR"),
		Service: "desk-orchestrator",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:              getEnvInt("DESK_PORT", 12210),
		LLMBackend:        getEnvString("LLM_BACKEND_TYPE", "ollama"),
		DataDir:           getEnvString("DESK_DATA_DIR", "./data/desk"),
		WeaviateURL:       os.Getenv("WEAVIATE_SERVICE_URL"),
		RunbookGatewayURL: os.Getenv("RUNBOOK_GATEWAY_URL"),
		VocabPath:         os.Getenv("ROUTER_VOCAB_PATH"),
		SeverityThreshold: getEnvInt("SAFETY_SEVERITY_THRESHOLD", 0),
		OTelEndpoint:      getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
	}

	slog.Info("Starting desk orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"data_dir", cfg.DataDir,
		"weaviate_url", cfg.WeaviateURL,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create desk orchestrator: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Desk orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
