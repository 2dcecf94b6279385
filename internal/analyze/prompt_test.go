// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClaudeBackendAnalyze(t *testing.T) {
	var gotReq claudeRequest
	var gotKey, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		analysisJSON := `{"title": "Test Proposal", "principal_investigator": "John Doe", "suggestions": [{"name": "Jane Smith", "seniority": "senior"}]}`
		resp := claudeResponse{Content: []claudeContent{{Type: "text", Text: analysisJSON}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "test-key", Model: "test-model"}
	analysis, err := backend.Analyze(context.Background(), "the proposal body", 5)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "the proposal body") {
		t.Error("prompt does not include the proposal text")
	}
	if !strings.Contains(gotReq.Messages[0].Content, "up to 5 external reviewers") {
		t.Error("prompt does not include the suggestion cap")
	}

	if analysis.Title != "Test Proposal" {
		t.Errorf("title = %q", analysis.Title)
	}
	if len(analysis.Suggestions) != 1 || analysis.Suggestions[0].Name != "Jane Smith" {
		t.Errorf("suggestions = %+v", analysis.Suggestions)
	}
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m"}
	if _, err := backend.Analyze(context.Background(), "text", 5); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestClaudeBackendMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := claudeResponse{Content: []claudeContent{{Type: "text", Text: "Sure! Here is the analysis:"}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m"}
	if _, err := backend.Analyze(context.Background(), "text", 5); err == nil {
		t.Fatal("expected error for non-JSON model output")
	}
}
