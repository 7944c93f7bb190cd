package tts

import (
	"context"
	"fmt"

	"medirag/internal/domain"
	"medirag/internal/logger"
)

// Fallback tries the primary synthesizer first and falls back to the
// secondary on any failure, including a missing credential. The caller
// only sees an error when both providers fail.
type Fallback struct {
	primary   domain.Synthesizer
	secondary domain.Synthesizer
	log       *logger.Logger
}

func NewFallback(primary, secondary domain.Synthesizer, log *logger.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := f.primary.Synthesize(ctx, text)
	if err == nil {
		return audio, nil
	}
	f.log.Warn("primary synthesizer failed, using fallback", "error", err)

	audio, ferr := f.secondary.Synthesize(ctx, text)
	if ferr != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", domain.ErrSynthesis, err, ferr)
	}
	return audio, nil
}
