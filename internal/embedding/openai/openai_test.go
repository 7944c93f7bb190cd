package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medirag/internal/config"
	"medirag/internal/domain"
)

func testConfig(baseURL string) config.EmbedderConfig {
	return config.EmbedderConfig{
		BaseURL:     baseURL,
		APIKeyEnv:   "TEST_EMBED_KEY",
		Model:       "test-model",
		TimeoutSecs: 5,
		MaxRetries:  2,
	}
}

func embedResponse(dims int, count int) map[string]any {
	data := make([]map[string]any, count)
	for i := 0; i < count; i++ {
		vec := make([]float64, dims)
		vec[0] = float64(i + 1)
		data[i] = map[string]any{"index": i, "embedding": vec}
	}
	return map[string]any{"data": data}
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(testConfig("http://localhost"))
	assert.True(t, errors.Is(err, domain.ErrConfig))
}

func TestEmbedBatch(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "k")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		json.NewEncoder(w).Encode(embedResponse(4, len(req.Input)))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, float64(1), vectors[0][0])
	assert.Equal(t, float64(3), vectors[2][0])
	assert.Equal(t, 4, c.Dimension())
}

func TestEmbedEmptyInput(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "k")
	c, err := NewClient(testConfig("http://unused"))
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedRetriesTransientFailure(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "k")
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(embedResponse(2, 1))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int64(2), hits.Load())
}

func TestEmbedConcurrentCallsShareOneClient(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "k")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(embedResponse(3, len(req.Input)))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	// mirrors the ingest pipeline: several batches embedded at once on
	// the same client, with Dimension read while calls are in flight
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectors, err := c.Embed(context.Background(), []string{"a", "b"})
			assert.NoError(t, err)
			assert.Len(t, vectors, 2)
			_ = c.Dimension()
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedClientErrorDoesNotRetry(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "k")
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), []string{"text"})
	assert.True(t, errors.Is(err, domain.ErrEmbedding))
	assert.Equal(t, int64(1), hits.Load())
}
