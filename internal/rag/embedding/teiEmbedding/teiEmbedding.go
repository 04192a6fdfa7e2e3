package teiEmbedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

const serviceName = "embedding"

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// Client talks to a text-embeddings-inference style server exposing POST /embed.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	dimension   int
	batchSize   int
	concurrency int
	logger      *logger_i.Logger
}

func NewClient(baseURL string, httpClient *http.Client, dimension int, batchSize int, concurrency int) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  httpClient,
		dimension:   dimension,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger_i.NewLogger("tei_embedding"),
	}
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = mode.Prefix() + t
	}
	c.logger.WithTrace(ctx, config.TRACE_ID_KEY).Debug("embedding texts", "count", len(texts), "mode", mode.String())
	return embedding.BatchEmbed(ctx, prefixed, c.batchSize, c.concurrency, c.embedBatch)
}

func (c *Client) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Inputs: batch})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, ragErrors.NewRemoteServiceError(serviceName, "embed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ragErrors.NewRemoteServiceError(serviceName, "embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, ragErrors.NewRemoteServiceError(serviceName, "embed",
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, ragErrors.NewRemoteServiceError(serviceName, "embed", fmt.Errorf("decode response: %w", err))
	}
	if err := embedding.CheckDimension(serviceName, vectors, c.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}
