package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/pdfrag/internal/api"
)

type mockAsker struct {
	OnHealth func(ctx context.Context) error
	OnAsk    func(ctx context.Context, question string, history []api.ChatMessage) (api.ChatResponse, error)

	histories [][]api.ChatMessage
}

func (m *mockAsker) Health(ctx context.Context) error {
	if m.OnHealth != nil {
		return m.OnHealth(ctx)
	}
	return nil
}

func (m *mockAsker) Ask(ctx context.Context, question string, history []api.ChatMessage) (api.ChatResponse, error) {
	m.histories = append(m.histories, append([]api.ChatMessage(nil), history...))
	if m.OnAsk != nil {
		return m.OnAsk(ctx, question, history)
	}
	return api.ChatResponse{Answer: "answer to " + question}, nil
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 130)
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "line one\nline two", "line one line two"},
		{"exactly limit", strings.Repeat("b", 120), strings.Repeat("b", 120)},
		{"cut", long, strings.Repeat("a", 120) + "..."},
		{"multibyte", strings.Repeat("é", 121), strings.Repeat("é", 120) + "..."},
	}
	for _, tt := range tests {
		if got := Preview(tt.in); got != tt.want {
			t.Errorf("%s: Preview = %q", tt.name, got)
		}
	}
}

func TestRun_Conversation(t *testing.T) {
	asker := &mockAsker{OnAsk: func(ctx context.Context, q string, h []api.ChatMessage) (api.ChatResponse, error) {
		return api.ChatResponse{
			Answer:  "answer to " + q,
			Sources: []api.SourceResponse{{Text: "Refunds\nwithin 30 days", PageNumber: 3, Source: "policy.pdf", Score: 0.8123}},
		}, nil
	}}
	in := strings.NewReader("first question\n\nsecond question\nclear\nthird question\nquit\nnever asked\n")
	var out strings.Builder

	if err := Run(context.Background(), asker, "http://api", in, &out); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(asker.histories) != 3 {
		t.Fatalf("expected 3 questions sent, got %d", len(asker.histories))
	}
	if len(asker.histories[0]) != 0 {
		t.Errorf("first question should carry no history")
	}
	second := asker.histories[1]
	if len(second) != 2 || second[0].Role != "user" || second[0].Content != "first question" ||
		second[1].Role != "assistant" || second[1].Content != "answer to first question" {
		t.Errorf("second question history %+v", second)
	}
	if len(asker.histories[2]) != 0 {
		t.Errorf("clear should reset history, got %+v", asker.histories[2])
	}

	text := out.String()
	for _, want := range []string{"OK", "answer to first question", "p.3 (81.23% match) policy.pdf", "Refunds within 30 days", "Conversation history cleared.", "Goodbye!"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRun_ErrorsKeepLooping(t *testing.T) {
	calls := 0
	asker := &mockAsker{OnAsk: func(ctx context.Context, q string, h []api.ChatMessage) (api.ChatResponse, error) {
		calls++
		if calls == 1 {
			return api.ChatResponse{}, errors.New("chat returned 500")
		}
		return api.ChatResponse{Answer: "fine"}, nil
	}}
	var out strings.Builder

	err := Run(context.Background(), asker, "http://api", strings.NewReader("one\ntwo\n"), &out)
	if err != nil {
		t.Fatalf("EOF should end the loop cleanly, got %v", err)
	}
	if !strings.Contains(out.String(), "Error: chat returned 500") || !strings.Contains(out.String(), "fine") {
		t.Errorf("output:\n%s", out.String())
	}
	if len(asker.histories[1]) != 0 {
		t.Errorf("a failed turn must not enter the history")
	}
}

func TestRun_HealthFailure(t *testing.T) {
	asker := &mockAsker{OnHealth: func(ctx context.Context) error { return errors.New("connection refused") }}
	var out strings.Builder

	if err := Run(context.Background(), asker, "http://api", strings.NewReader("q\n"), &out); err == nil {
		t.Fatal("expected an error")
	}
	if len(asker.histories) != 0 {
		t.Errorf("no question should be sent")
	}
}

func TestClient_AgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "healthy"})
		case "/chat":
			var req api.ChatRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Question == "bad" {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(api.ErrorResponse{Detail: "question must not be empty"})
				return
			}
			_ = json.NewEncoder(w).Encode(api.ChatResponse{Answer: "got " + req.Question, ChunksRetrieved: len(req.History)})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}

	resp, err := c.Ask(context.Background(), "hi", []api.ChatMessage{{Role: "user", Content: "x"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "got hi" || resp.ChunksRetrieved != 1 {
		t.Errorf("resp %+v", resp)
	}

	if _, err := c.Ask(context.Background(), "bad", nil); err == nil || !strings.Contains(err.Error(), "question must not be empty") {
		t.Errorf("expected API detail in error, got %v", err)
	}
}

func TestClient_HealthNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "starting"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL, srv.Client()).Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "starting") {
		t.Errorf("got %v", err)
	}
}
