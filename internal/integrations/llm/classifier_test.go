package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"accountbot/internal/selection"
)

func sampleRequest() selection.ClassifyRequest {
	return selection.ClassifyRequest{
		Text: "Redesign homepage banner",
		Options: []selection.ClassifyOption{
			{ID: "ACC-A", Name: "Infrastructure Maintenance"},
			{ID: "ACC-B", Name: "Website Redesign"},
		},
		Context: "Project: Customer Portal (WEB). Issue Type: Task. Status: In Progress",
	}
}

func TestBuildClassifyPrompts(t *testing.T) {
	systemPrompt, userPrompt := buildClassifyPrompts(sampleRequest())

	if !strings.Contains(systemPrompt, "- ACC-B: Website Redesign") {
		t.Fatalf("system prompt missing option line:\n%s", systemPrompt)
	}
	if !strings.Contains(systemPrompt, `{"selected_id"`) {
		t.Fatalf("system prompt missing JSON shape:\n%s", systemPrompt)
	}
	if !strings.Contains(userPrompt, "Redesign homepage banner") {
		t.Fatalf("user prompt missing work text:\n%s", userPrompt)
	}
	if !strings.Contains(userPrompt, "Context: Project: Customer Portal (WEB)") {
		t.Fatalf("user prompt missing context:\n%s", userPrompt)
	}
}

func TestBuildClassifyPromptsOmitsEmptyContext(t *testing.T) {
	req := sampleRequest()
	req.Context = "  "
	_, userPrompt := buildClassifyPrompts(req)
	if strings.Contains(userPrompt, "Context:") {
		t.Fatalf("empty context must be omitted:\n%s", userPrompt)
	}
}

func TestParseClassifyResponseStripsFences(t *testing.T) {
	response := "```json\n{\"selected_id\": \" ACC-B \", \"confidence\": 0.87}\n```"
	got, err := parseClassifyResponse(response)
	if err != nil {
		t.Fatalf("parseClassifyResponse error: %v", err)
	}
	if got.SelectedID != "ACC-B" {
		t.Fatalf("expected trimmed ACC-B, got %q", got.SelectedID)
	}
	if got.Confidence != 0.87 {
		t.Fatalf("expected confidence 0.87, got %f", got.Confidence)
	}
}

func TestParseClassifyResponseInvalidJSON(t *testing.T) {
	if _, err := parseClassifyResponse("I think ACC-B fits best"); err == nil {
		t.Fatalf("expected error for non-JSON response")
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := clampConfidence(tt.in); got != tt.want {
			t.Fatalf("clampConfidence(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestClassifyLocalSuccess(t *testing.T) {
	var gotBody localClassifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(localClassifyResponse{
			Success:    true,
			SelectedID: "ACC-B",
			Confidence: 0.73,
		})
	}))
	defer srv.Close()

	c := NewClassifier(Config{LLMProvider: "local", ClassifierURL: srv.URL})
	got, err := c.Classify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if !got.Available || got.SelectedKey != "ACC-B" || got.Confidence != 0.73 {
		t.Fatalf("unexpected classification: %+v", got)
	}
	if gotBody.Text != "Redesign homepage banner" || len(gotBody.Options) != 2 {
		t.Fatalf("unexpected wire request: %+v", gotBody)
	}
}

func TestClassifyLocalDeclinesWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(localClassifyResponse{Success: false, Error: "model not loaded"})
	}))
	defer srv.Close()

	c := NewClassifier(Config{LLMProvider: "local", ClassifierURL: srv.URL})
	got, err := c.Classify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("a declined classification is not an error: %v", err)
	}
	if got.Available {
		t.Fatalf("expected unavailable classification, got %+v", got)
	}
}

func TestClassifyLocalServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClassifier(Config{LLMProvider: "local", ClassifierURL: srv.URL})
	if _, err := c.Classify(context.Background(), sampleRequest()); err == nil {
		t.Fatalf("expected error for HTTP 500")
	}
}
