package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/pdfrag/internal/api"
)

// Client calls the chat API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var health api.HealthResponse
		_ = json.NewDecoder(resp.Body).Decode(&health)
		return fmt.Errorf("health check returned %d (%s)", resp.StatusCode, health.Status)
	}
	return nil
}

func (c *Client) Ask(ctx context.Context, question string, history []api.ChatMessage) (api.ChatResponse, error) {
	body, err := json.Marshal(api.ChatRequest{Question: question, History: history})
	if err != nil {
		return api.ChatResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return api.ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return api.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return api.ChatResponse{}, fmt.Errorf("chat returned %d: %s", resp.StatusCode, apiErr.Detail)
	}

	var out api.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return api.ChatResponse{}, fmt.Errorf("decode chat response: %w", err)
	}
	return out, nil
}
