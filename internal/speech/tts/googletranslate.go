package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"medirag/internal/domain"
)

// GoogleTranslate is the credential-free fallback synthesizer. Lower
// quality than the primary provider, but always available.
type GoogleTranslate struct {
	language string
	client   *http.Client
}

func NewGoogleTranslate(language string) *GoogleTranslate {
	if language == "" {
		language = "en"
	}
	return &GoogleTranslate{
		language: language,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GoogleTranslate) Synthesize(ctx context.Context, text string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.language)
	q.Set("q", text)
	endpoint := "https://translate.google.com/translate_tts?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fallback synthesis failed: %s", domain.ErrSynthesis, resp.Status)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio from fallback provider", domain.ErrSynthesis)
	}
	return audio, nil
}
