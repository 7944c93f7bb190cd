package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"medirag/internal/config"
	"medirag/internal/domain"
)

// ElevenLabs is the primary text-to-speech provider. It returns mp3
// audio bytes for the configured voice.
type ElevenLabs struct {
	apiKeyEnv string
	voiceID   string
	model     string
	client    *http.Client
}

func NewElevenLabs(cfg config.ElevenLabsConfig) *ElevenLabs {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ElevenLabs{
		apiKeyEnv: cfg.APIKeyEnv,
		voiceID:   cfg.VoiceID,
		model:     cfg.Model,
		client:    &http.Client{Timeout: timeout},
	}
}

// Synthesize converts text to speech. The credential is resolved per
// call so a missing key fails only this operation.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := os.Getenv(e.apiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: missing API key in env %s", domain.ErrConfig, e.apiKeyEnv)
	}
	body := map[string]any{
		"text":     text,
		"model_id": e.model,
	}
	data, _ := json.Marshal(body)
	url := fmt.Sprintf("https://api.elevenlabs.io/v1/text-to-speech/%s", e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", key)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: elevenlabs synthesis failed: %s", domain.ErrSynthesis, resp.Status)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio from elevenlabs", domain.ErrSynthesis)
	}
	return audio, nil
}
