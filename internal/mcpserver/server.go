// Package mcpserver exposes the question answering pipeline to MCP clients as a single tool.
package mcpserver

import (
	"context"

	"github.com/akolanti/pdfrag/internal/adapter"
	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

type AskInput struct {
	Question string            `json:"question" jsonschema:"the question to answer from the ingested documents"`
	History  []api.ChatMessage `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

type AskOutput struct {
	Answer  string               `json:"answer"`
	Sources []api.SourceResponse `json:"sources"`
	Model   string               `json:"model"`
}

type Server struct {
	service rag.Service
	server  *mcp.Server
}

func NewServer(service rag.Service) *Server {
	s := &Server{
		service: service,
		server:  mcp.NewServer(&mcp.Implementation{Name: "pdfrag", Version: Version}, nil),
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question from the ingested PDF documents, citing page numbers",
	}, s.handleAsk)
	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	question, history, err := adapter.ToQuestion(api.ChatRequest{Question: input.Question, History: input.History})
	if err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.service.Answer(ctx, question, history)
	if err != nil {
		return nil, AskOutput{}, err
	}

	resp := adapter.ToChatResponse(answer)
	return nil, AskOutput{
		Answer:  resp.Answer,
		Sources: resp.Sources,
		Model:   resp.Model,
	}, nil
}
