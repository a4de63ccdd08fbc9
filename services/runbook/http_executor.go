// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	maxExecuteRetries = 2
	initialRetryDelay = 1 * time.Second
)

// ExecutionError is a categorized failure from the automation gateway.
type ExecutionError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("runbook gateway returned %d: %s", e.StatusCode, e.Message)
}

// HTTPExecutor triggers runbooks through an HTTP automation gateway
// (workflow engine, Logic-App-style triggers). Each runbook maps to
// POST <base>/runbooks/<name>.
type HTTPExecutor struct {
	httpClient *http.Client
	baseURL    string
}

func NewHTTPExecutor(baseURL string) (*HTTPExecutor, error) {
	if baseURL == "" {
		return nil, errors.New("runbook gateway URL is required")
	}
	return &HTTPExecutor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Execute implements Executor with bounded retries and exponential backoff
// on transient gateway failures. Runbooks are idempotent on the gateway
// side, so a retried trigger cannot double-apply.
func (e *HTTPExecutor) Execute(ctx context.Context, name string, params map[string]string) (Result, error) {
	if !IsKnown(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRunbook, name)
	}

	var lastErr error
	retryDelay := initialRetryDelay
	for attempt := 0; attempt <= maxExecuteRetries; attempt++ {
		if attempt > 0 {
			slog.Info("Retrying runbook trigger",
				"runbook", name, "attempt", attempt, "delay", retryDelay, "lastError", lastErr)
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(retryDelay):
			}
			retryDelay *= 2
		}

		result, err := e.trigger(ctx, name, params)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var execErr *ExecutionError
		if !errors.As(err, &execErr) || !execErr.Retryable {
			return Result{}, err
		}
	}
	return Result{}, fmt.Errorf("runbook %s failed after %d attempts: %w", name, maxExecuteRetries+1, lastErr)
}

func (e *HTTPExecutor) trigger(ctx context.Context, name string, params map[string]string) (Result, error) {
	payloadBytes, err := json.Marshal(params)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal runbook params: %w", err)
	}

	url := fmt.Sprintf("%s/runbooks/%s", e.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create runbook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("runbook gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read runbook response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &ExecutionError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Retryable:  isRetryableStatusCode(resp.StatusCode),
		}
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, fmt.Errorf("failed to parse runbook response: %w", err)
	}
	if result.Runbook == "" {
		result.Runbook = name
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
	return result, nil
}

func isRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
