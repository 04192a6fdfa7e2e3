package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

const SystemPrompt = "You are a helpful assistant that answers questions based on the provided context. " +
	"Always cite which page numbers your answer comes from. " +
	"If the context doesn't contain enough information to answer the question, say so honestly. " +
	"Do not make up information that is not supported by the context."

// FormatContext numbers the retrieved chunks from 1 in rank order.
func FormatContext(results []commonModels.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%d] (Page %d): %s", i+1, r.PageNumber, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildMessages is the system instruction, then the history untouched, then one user turn with
// the context and the question. Nothing is truncated.
func BuildMessages(question string, results []commonModels.SearchResult, history []commonModels.Message) []commonModels.Message {
	messages := make([]commonModels.Message, 0, len(history)+2)
	messages = append(messages, commonModels.Message{Role: commonModels.RoleSystem, Content: SystemPrompt})
	messages = append(messages, history...)

	userMessage := "Context:\n" + FormatContext(results) +
		"\n\nQuestion: " + question +
		"\n\nAnswer based on the context above. Cite page numbers."
	messages = append(messages, commonModels.Message{Role: commonModels.RoleUser, Content: userMessage})
	return messages
}
