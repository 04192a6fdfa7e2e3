package adapter

import (
	"testing"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag"
)

func TestToQuestion(t *testing.T) {
	q, history, err := ToQuestion(api.ChatRequest{
		Question: "  refunds?\n",
		History:  []api.ChatMessage{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}, {Role: "assistant", Content: "a"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if q != "refunds?" {
		t.Errorf("question %q", q)
	}
	if len(history) != 3 || history[2].Role != commonModels.RoleAssistant || history[2].Content != "a" {
		t.Errorf("history %+v", history)
	}

	for _, req := range []api.ChatRequest{
		{Question: ""},
		{Question: "\t "},
		{Question: "q", History: []api.ChatMessage{{Role: "Assistant", Content: "x"}}},
	} {
		if _, _, err := ToQuestion(req); !ragErrors.IsValidation(err) {
			t.Errorf("%+v: expected ValidationError, got %v", req, err)
		}
	}
}

func TestToChatResponse(t *testing.T) {
	resp := ToChatResponse(rag.Answer{
		Text:            "ok",
		Sources:         []commonModels.Source{{Text: "t", PageNumber: 3, Source: "p.pdf", Score: 0.8123}},
		Model:           "llama",
		ChunksRetrieved: 1,
	})
	want := api.SourceResponse{Text: "t", PageNumber: 3, Source: "p.pdf", Score: 0.8123}
	if resp.Answer != "ok" || resp.Model != "llama" || resp.ChunksRetrieved != 1 || resp.Sources[0] != want {
		t.Errorf("got %+v", resp)
	}

	if empty := ToChatResponse(rag.Answer{}); empty.Sources == nil {
		t.Error("sources must never be nil")
	}
}
