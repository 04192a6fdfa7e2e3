package googleEmbedding

import (
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"google.golang.org/genai"
)

func TestGetEmbedConfig(t *testing.T) {
	tests := []struct {
		mode embedding.Mode
		want string
	}{
		{embedding.ModeQuery, "RETRIEVAL_QUERY"},
		{embedding.ModeDocument, "RETRIEVAL_DOCUMENT"},
	}
	for _, tt := range tests {
		cfg := getEmbedConfig(768, tt.mode)
		if cfg.TaskType != tt.want || *cfg.OutputDimensionality != 768 {
			t.Errorf("%s: got %s/%d", tt.mode, cfg.TaskType, *cfg.OutputDimensionality)
		}
	}
}

func TestGetContent(t *testing.T) {
	contents := getContent([]string{"a", "b"})
	if len(contents) != 2 || contents[1].Parts[0].Text != "b" {
		t.Errorf("unexpected contents %+v", contents)
	}
}

func TestCollectVectors(t *testing.T) {
	vectors, err := collectVectors(&genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{
		{Values: []float32{1, 2}},
		{Values: []float32{3, 4}},
	}})
	if err != nil || len(vectors) != 2 || vectors[1][0] != 3 {
		t.Errorf("got %v, %v", vectors, err)
	}

	if _, err := collectVectors(nil); !ragErrors.IsRemote(err) {
		t.Errorf("nil response: %v", err)
	}
	if _, err := collectVectors(&genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{nil}}); !ragErrors.IsRemote(err) {
		t.Errorf("missing embedding: %v", err)
	}
}

func TestIsRateLimited(t *testing.T) {
	if !isRateLimited(fmt.Errorf("wrapped: %w", genai.APIError{Code: 429})) {
		t.Error("429 should count as rate limited")
	}
	if !isRateLimited(genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}) {
		t.Error("RESOURCE_EXHAUSTED should count as rate limited")
	}
	if isRateLimited(errors.New("timeout")) {
		t.Error("plain errors are not rate limits")
	}
}
