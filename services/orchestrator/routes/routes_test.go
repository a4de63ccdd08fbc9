// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianDesk/pkg/storage/badgerdb"
	"github.com/AleutianAI/AleutianDesk/services/knowledge"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/pipeline"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/router"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/specialist"
	"github.com/AleutianAI/AleutianDesk/services/orchestrator/store"
	"github.com/AleutianAI/AleutianDesk/services/runbook"
	"github.com/AleutianAI/AleutianDesk/services/safety"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires a full keyword-only stack over in-memory storage.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := badgerdb.OpenInMemory()
	if err != nil {
		t.Fatalf("open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	patterns, err := safety.LoadEmbeddedPatterns()
	if err != nil {
		t.Fatalf("load safety patterns: %v", err)
	}
	audit := safety.NewBadgerAuditLog(db)
	gate := safety.NewGate(patterns, nil, nil, audit, safety.DefaultGateConfig())

	vocab, err := router.LoadEmbeddedVocab()
	if err != nil {
		t.Fatalf("load vocab: %v", err)
	}

	kb := knowledge.NewMemoryStore(knowledge.SeedArticles())
	reg := specialist.NewRegistry(kb, &runbook.LocalExecutor{}, nil)
	orch := pipeline.New(store.NewStore(db), gate, router.NewCategorizer(vocab, nil), reg, nil, nil)

	engine := gin.New()
	SetupRoutes(engine, orch, kb, audit)
	return engine
}

// ============================================================================
// Route Registration Tests
// ============================================================================

func TestSetupRoutes_CoreRoutesRegistered(t *testing.T) {
	engine := newTestRouter(t)

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics/prometheus"},
		{"POST", "/v1/tickets"},
		{"GET", "/v1/tickets/:ticketId"},
		{"GET", "/v1/tickets/:ticketId/conversation"},
		{"POST", "/v1/tickets/:ticketId/reply"},
		{"POST", "/v1/tickets/:ticketId/confirm"},
		{"POST", "/v1/tickets/:ticketId/reopen"},
		{"POST", "/v1/feedback"},
		{"GET", "/v1/metrics"},
		{"GET", "/v1/knowledge/articles"},
		{"GET", "/v1/knowledge/articles/:articleId"},
		{"POST", "/v1/knowledge/articles"},
		{"DELETE", "/v1/knowledge/articles/:articleId"},
		{"GET", "/v1/knowledge/search"},
		{"GET", "/v1/audit/blocks"},
	}

	routes := engine.Routes()
	for _, expected := range coreRoutes {
		found := false
		for _, r := range routes {
			if r.Method == expected.method && r.Path == expected.path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected route %s %s not found", expected.method, expected.path)
		}
	}
}

// ============================================================================
// Route Handler Tests
// ============================================================================

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	engine := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Health endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
}

func TestSetupRoutes_PrometheusEndpoint(t *testing.T) {
	engine := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics/prometheus", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Prometheus endpoint returned %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Prometheus endpoint should return Content-Type header")
	}
}

func TestSetupRoutes_SubmitTicketEndToEnd(t *testing.T) {
	engine := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"user_id":     "jdoe",
		"description": "my vpn connection keeps dropping on the laptop",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/tickets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Ticket submission returned %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		Ticket struct {
			ID       string `json:"id"`
			Category string `json:"category"`
		} `json:"ticket"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ticket.ID == "" {
		t.Error("Expected a ticket ID in the response")
	}
	if resp.Ticket.Category != "it_support" {
		t.Errorf("Expected it_support category, got %q", resp.Ticket.Category)
	}

	// The ticket is retrievable afterwards.
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/v1/tickets/"+resp.Ticket.ID, nil)
	engine.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Errorf("Ticket fetch returned %d, want %d", w2.Code, http.StatusOK)
	}
}

func TestSetupRoutes_SubmitTicketRejectsBadBody(t *testing.T) {
	engine := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/tickets", bytes.NewReader([]byte(`{"user_id": ""}`)))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Invalid submission returned %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetupRoutes_UnknownTicketReturns404(t *testing.T) {
	engine := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/tickets/no-such-ticket", nil)
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown ticket returned %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSetupRoutes_KnowledgeArticleCRUD(t *testing.T) {
	engine := newTestRouter(t)

	article := map[string]any{
		"id":       "it-900",
		"category": "it_support",
		"title":    "Printer Troubleshooting",
		"content":  "Power cycle the printer and check the network cable.",
	}
	body, _ := json.Marshal(article)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/knowledge/articles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Article upsert returned %d: %s", w.Code, w.Body.String())
	}

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/v1/knowledge/articles/it-900", nil)
	engine.ServeHTTP(w2, req2)
	if w2.Code != http.StatusOK {
		t.Errorf("Article fetch returned %d, want %d", w2.Code, http.StatusOK)
	}

	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("DELETE", "/v1/knowledge/articles/it-900", nil)
	engine.ServeHTTP(w3, req3)
	if w3.Code != http.StatusOK {
		t.Errorf("Article delete returned %d, want %d", w3.Code, http.StatusOK)
	}

	w4 := httptest.NewRecorder()
	req4, _ := http.NewRequest("GET", "/v1/knowledge/articles/it-900", nil)
	engine.ServeHTTP(w4, req4)
	if w4.Code != http.StatusNotFound {
		t.Errorf("Deleted article fetch returned %d, want %d", w4.Code, http.StatusNotFound)
	}
}
