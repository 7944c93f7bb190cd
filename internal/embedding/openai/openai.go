package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"medirag/internal/config"
	"medirag/internal/domain"
)

// Client is an OpenAI-compatible embeddings client. Safe for
// concurrent use; the ingest pipeline calls Embed from several
// goroutines on one client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int

	mu        sync.Mutex
	dimension int
}

// NewClient resolves the API key from the configured env var and
// builds the client. A missing key is a config error scoped to the
// embedding operation, not a process-level failure.
func NewClient(cfg config.EmbedderConfig) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfig, cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced vectors,
// learned lazily from the first successful call.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns one embedding vector per input text, in input order.
// Transient provider failures (429, 5xx, transport errors) are retried
// with exponential delay, honoring Retry-After when present. Safe to
// repeat: embedding the same text twice is idempotent.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	type reqBody struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	url := fmt.Sprintf("%s/embeddings", c.baseURL)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, ctx.Err())
			}
		}

		data, _ := json.Marshal(reqBody{Input: texts, Model: c.model})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					resp.Body.Close()
					select {
					case <-time.After(time.Duration(secs) * time.Second):
					case <-ctx.Done():
						return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, ctx.Err())
					}
					lastErr = fmt.Errorf("embeddings call failed: %s", resp.Status)
					continue
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("embeddings call failed: %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: embeddings call failed: %s", domain.ErrEmbedding, resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		var out struct {
			Data []struct {
				Index     int       `json:"index"`
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			lastErr = err
			continue
		}
		if len(out.Data) != len(texts) {
			lastErr = fmt.Errorf("expected %d embeddings, got %d", len(texts), len(out.Data))
			continue
		}
		vectors := make([][]float64, len(texts))
		for _, d := range out.Data {
			if d.Index < 0 || d.Index >= len(vectors) || len(d.Embedding) == 0 {
				return nil, fmt.Errorf("%w: malformed embedding response", domain.ErrEmbedding)
			}
			vectors[d.Index] = d.Embedding
		}
		c.mu.Lock()
		if c.dimension == 0 {
			c.dimension = len(vectors[0])
		}
		c.mu.Unlock()
		return vectors, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
