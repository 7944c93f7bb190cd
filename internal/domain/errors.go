package domain

import "errors"

// Sentinel errors for the failure classes the assistant distinguishes.
// Call sites wrap them with fmt.Errorf("...: %w", ...) so callers can
// branch with errors.Is while keeping provider detail in the message.
var (
	// ErrIngestIO marks an unreadable source directory or file.
	ErrIngestIO = errors.New("ingest io error")

	// ErrIndexLoad marks a missing or corrupt persisted index. Callers
	// may recover by building a fresh index.
	ErrIndexLoad = errors.New("index load error")

	// ErrEmbedding marks a failed embedding provider call. Retryable.
	ErrEmbedding = errors.New("embedding error")

	// ErrGeneration marks a failed LLM completion call. Callers degrade
	// to an apology message instead of ending the session.
	ErrGeneration = errors.New("generation error")

	// ErrTranscription marks a failed speech-to-text call.
	ErrTranscription = errors.New("transcription error")

	// ErrSynthesis marks a text-to-speech failure after all providers
	// were tried.
	ErrSynthesis = errors.New("synthesis error")

	// ErrConfig marks a missing credential or invalid setting. Scoped
	// to the operation that needs it, never fatal at startup.
	ErrConfig = errors.New("config error")
)
