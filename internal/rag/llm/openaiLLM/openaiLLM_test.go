package openaiLLM

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/llm"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

const completionBody = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "served-model",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Within 30 days (page 3)."}}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 9, "total_tokens": 129}
}`

var params = llm.Params{Model: "llama", Temperature: 0.1, MaxTokens: 1024}

func TestGenerate_Success(t *testing.T) {
	var got capturedRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	provider := NewClient(srv.URL, "EMPTY", srv.Client(), params)
	completion, err := provider.Generate(context.Background(), []commonModels.Message{
		{Role: commonModels.RoleSystem, Content: "be helpful"},
		{Role: commonModels.RoleUser, Content: "hi"},
		{Role: commonModels.RoleAssistant, Content: "hello"},
		{Role: commonModels.RoleUser, Content: "refunds?"},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if path != "/v1/chat/completions" {
		t.Errorf("request went to %s", path)
	}
	if got.Model != "llama" || got.Temperature != 0.1 || got.MaxTokens != 1024 {
		t.Errorf("request parameters %+v", got)
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(got.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages", len(got.Messages))
	}
	for i, r := range wantRoles {
		if got.Messages[i].Role != r {
			t.Errorf("message %d role %s, want %s", i, got.Messages[i].Role, r)
		}
	}

	if completion.Text != "Within 30 days (page 3)." || completion.Model != "llama" {
		t.Errorf("completion %+v", completion)
	}
	if completion.PromptTokens != 120 || completion.CompletionTokens != 9 {
		t.Errorf("usage %d/%d", completion.PromptTokens, completion.CompletionTokens)
	}
	if provider.Model() != "llama" {
		t.Errorf("Model() = %s", provider.Model())
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"engine crashed"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","model":"m","choices":[]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, "EMPTY", srv.Client(), params).
				Generate(context.Background(), []commonModels.Message{{Role: commonModels.RoleUser, Content: "hi"}})
			if !ragErrors.IsRemote(err) {
				t.Errorf("expected RemoteServiceError, got %v", err)
			}
		})
	}
}
