package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag"
)

type serviceFunc func(ctx context.Context, question string, history []commonModels.Message) (rag.Answer, error)

func (f serviceFunc) Answer(ctx context.Context, question string, history []commonModels.Message) (rag.Answer, error) {
	return f(ctx, question, history)
}

func TestHandleAsk(t *testing.T) {
	var gotHistory []commonModels.Message
	s := NewServer(serviceFunc(func(ctx context.Context, q string, h []commonModels.Message) (rag.Answer, error) {
		gotHistory = h
		return rag.Answer{
			Text:    "Within 30 days (page 3).",
			Sources: []commonModels.Source{{Text: "Refunds...", PageNumber: 3, Source: "policy.pdf", Score: 0.8123}},
			Model:   "llama",
		}, nil
	}))

	_, out, err := s.handleAsk(context.Background(), nil, AskInput{
		Question: "refund policy?",
		History:  []api.ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("handleAsk failed: %v", err)
	}
	if out.Answer != "Within 30 days (page 3)." || out.Model != "llama" {
		t.Errorf("unexpected output %+v", out)
	}
	if len(out.Sources) != 1 || out.Sources[0].PageNumber != 3 {
		t.Errorf("sources %+v", out.Sources)
	}
	if len(gotHistory) != 2 || gotHistory[1].Role != commonModels.RoleAssistant {
		t.Errorf("history %+v", gotHistory)
	}
}

func TestHandleAsk_Errors(t *testing.T) {
	failing := NewServer(serviceFunc(func(ctx context.Context, q string, h []commonModels.Message) (rag.Answer, error) {
		return rag.Answer{}, ragErrors.NewRemoteServiceError("generation", "chat_completion", errors.New("down"))
	}))

	tests := []struct {
		name  string
		input AskInput
		check func(error) bool
	}{
		{"empty question", AskInput{Question: " "}, ragErrors.IsValidation},
		{"bad role", AskInput{Question: "q", History: []api.ChatMessage{{Role: "robot"}}}, ragErrors.IsValidation},
		{"pipeline failure", AskInput{Question: "q"}, ragErrors.IsRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := failing.handleAsk(context.Background(), nil, tt.input)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
