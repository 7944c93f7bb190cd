package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"medirag/internal/config"
	"medirag/internal/domain"
)

// Transcriber uploads audio to a Whisper-compatible transcription
// endpoint and returns the transcript text.
type Transcriber struct {
	baseURL  string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

func NewTranscriber(cfg config.STTConfig) (*Transcriber, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfig, cfg.APIKeyEnv)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Transcriber{
		baseURL:  cfg.BaseURL,
		apiKey:   key,
		model:    cfg.Model,
		language: cfg.Language,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Transcribe uploads the raw audio bytes with the configured model and
// language hint.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "audio.mp3")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	_ = w.WriteField("model", t.model)
	if t.language != "" {
		_ = w.WriteField("language", t.language)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}

	url := fmt.Sprintf("%s/audio/transcriptions", t.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: transcription failed: %s", domain.ErrTranscription, resp.Status)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	return out.Text, nil
}
