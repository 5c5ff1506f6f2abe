// Package openai implements the AIClient port against an OpenAI-compatible
// chat completions API.
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/talentgap/recruitment-evaluator/internal/config"
	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

// Client calls the chat completions endpoint. Construction fails without
// a credential so the binaries refuse to start misconfigured.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	hc      *http.Client
}

// New constructs a Client or fails when the API key is missing.
func New(cfg config.Config) (*Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("op=openai.New: OPENAI_API_KEY required: %w", domain.ErrInvalidArgument)
	}
	return &Client{
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: cfg.OpenAIBaseURL,
		model:   cfg.OpenAIModel,
		hc:      &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type imagePart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatJSON sends system+user prompts in JSON-object response mode and
// returns the raw message content.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
	return c.complete(ctx, req)
}

// TranscribeImage asks the vision model to transcribe the document behind
// a readable URL, returning the raw text.
func (c *Client) TranscribeImage(ctx domain.Context, url string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: []imagePart{
				{Type: "text", Text: "Transcribe the text in this image exactly as it appears. Return only the raw text."},
				{Type: "image_url", ImageURL: &imageURL{URL: url, Detail: "high"}},
			}},
		},
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx domain.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("op=openai.complete: marshal: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=openai.complete: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("op=openai.complete: %w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("op=openai.complete: read body: %w", domain.ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("chat completion failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body_snippet", snippet(respBody, 300)))
		return "", fmt.Errorf("op=openai.complete: status %d: %w", resp.StatusCode, domain.ErrUpstream)
	}
	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("op=openai.complete: decode: %w", domain.ErrUpstream)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("op=openai.complete: api error %q: %w", parsed.Error.Message, domain.ErrUpstream)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("op=openai.complete: empty content: %w", domain.ErrUpstream)
	}
	return parsed.Choices[0].Message.Content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
