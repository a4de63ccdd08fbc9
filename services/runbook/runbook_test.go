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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalExecutorKnownRunbooks(t *testing.T) {
	exec := &LocalExecutor{}
	ctx := context.Background()

	result, err := exec.Execute(ctx, ResetPassword, map[string]string{"user_id": "jdoe"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, ResetPassword, result.Runbook)
	assert.Contains(t, result.Message, "jdoe@company.com")

	result, err = exec.Execute(ctx, BookRoom, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "Conference Room A")
}

func TestLocalExecutorUnknownRunbook(t *testing.T) {
	exec := &LocalExecutor{}
	_, err := exec.Execute(context.Background(), "rm_rf_everything", nil)
	assert.ErrorIs(t, err, ErrUnknownRunbook)
}

func TestHTTPExecutorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/runbooks/check_license", r.URL.Path)
		var params map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "Visio", params["software"])
		json.NewEncoder(w).Encode(Result{Success: true, Message: "license valid"})
	}))
	defer srv.Close()

	exec, err := NewHTTPExecutor(srv.URL)
	require.NoError(t, err)

	result, err := exec.Execute(context.Background(), CheckLicense, map[string]string{"software": "Visio"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, CheckLicense, result.Runbook)
	assert.False(t, result.Timestamp.IsZero())
}

func TestHTTPExecutorRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Result{Success: true})
	}))
	defer srv.Close()

	exec, err := NewHTTPExecutor(srv.URL)
	require.NoError(t, err)

	result, err := exec.Execute(context.Background(), UpdatePayroll, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPExecutorDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	exec, err := NewHTTPExecutor(srv.URL)
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), BookRoom, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPExecutorRejectsUnknownName(t *testing.T) {
	exec, err := NewHTTPExecutor("http://localhost:1")
	require.NoError(t, err)
	_, err = exec.Execute(context.Background(), "not_a_runbook", nil)
	assert.ErrorIs(t, err, ErrUnknownRunbook)
}
