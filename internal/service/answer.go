package service

import (
	"context"
	"strings"

	"medirag/internal/answer"
	"medirag/internal/domain"
	"medirag/internal/logger"
	"medirag/internal/vectorstore"
)

// NoContextAnswer is returned without calling the model when retrieval
// finds nothing to ground an answer on.
const NoContextAnswer = "I could not find relevant passages in the reference texts for that question."

// AnswerService embeds a question, retrieves the most similar chunks
// and asks the chat model for a grounded answer.
type AnswerService struct {
	embedder     domain.Embedder
	index        vectorstore.Index
	chat         domain.ChatModel
	topK         int
	contextChars int
	log          *logger.Logger
}

func NewAnswerService(
	embedder domain.Embedder,
	index vectorstore.Index,
	chat domain.ChatModel,
	topK, contextChars int,
	log *logger.Logger,
) *AnswerService {
	if topK <= 0 {
		topK = 5
	}
	if contextChars <= 0 {
		contextChars = 800
	}
	return &AnswerService{
		embedder:     embedder,
		index:        index,
		chat:         chat,
		topK:         topK,
		contextChars: contextChars,
		log:          log,
	}
}

// Retrieve embeds the query and returns the k most similar chunks,
// ordered by descending cosine similarity.
func (s *AnswerService) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return s.index.Search(vecs[0], k), nil
}

// Answer runs the full query-side flow. On generation failure the
// retrieved sources are still returned so the caller can show them
// alongside a degradation message.
func (s *AnswerService) Answer(ctx context.Context, question string) (string, []domain.SearchResult, error) {
	question = strings.TrimSpace(question)
	results, err := s.Retrieve(ctx, question, s.topK)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return NoContextAnswer, nil, nil
	}

	prompt := answer.ComposePrompt(question, results, s.contextChars)
	raw, err := s.chat.GenerateText(ctx, answer.SystemPrompt, prompt)
	if err != nil {
		return "", results, err
	}
	return answer.Clean(raw), results, nil
}
