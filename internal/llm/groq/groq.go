package groq

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"medirag/internal/config"
	"medirag/internal/domain"
)

// Client talks to a Groq (OpenAI-compatible) chat completions
// endpoint for both plain text generation and image analysis.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	visionModel string
	temperature float64
	maxTokens   int
	client      *http.Client
}

func NewClient(cfg config.LLMConfig) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfig, cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type completionRequest struct {
	Model               string    `json:"model"`
	Messages            []message `json:"messages"`
	Temperature         float64   `json:"temperature,omitempty"`
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText runs one synchronous completion with the configured
// temperature and output token cap.
func (c *Client) GenerateText(ctx context.Context, system, user string) (string, error) {
	req := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:         c.temperature,
		MaxCompletionTokens: c.maxTokens,
	}
	text, err := c.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return text, nil
}

// AnalyzeImage sends one multimodal message combining the query text
// and the image as a base64 JPEG data URI to the vision model. No
// retry: a provider failure surfaces directly to the caller.
func (c *Client) AnalyzeImage(ctx context.Context, query string, image []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	content := []map[string]any{
		{"type": "text", "text": query},
		{
			"type": "image_url",
			"image_url": map[string]any{
				"url": "data:image/jpeg;base64," + encoded,
			},
		},
	}
	req := completionRequest{
		Model:    c.visionModel,
		Messages: []message{{Role: "user", Content: content}},
	}
	text, err := c.complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, reqBody completionRequest) (string, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion failed: %s", resp.Status)
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return out.Choices[0].Message.Content, nil
}
