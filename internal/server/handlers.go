package server

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medirag/internal/domain"
	"medirag/internal/logger"
)

// Answerer is the server-facing subset of the answer service.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, []domain.SearchResult, error)
}

// Handlers holds the provider dependencies for the HTTP routes. Any of
// them may be nil when its credential is absent; the matching route
// then answers 503 instead of the process refusing to start.
type Handlers struct {
	answerer    Answerer
	vision      domain.VisionModel
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer
	log         *logger.Logger
}

func NewHandlers(answerer Answerer, vision domain.VisionModel, transcriber domain.Transcriber, synthesizer domain.Synthesizer, log *logger.Logger) *Handlers {
	return &Handlers{
		answerer:    answerer,
		vision:      vision,
		transcriber: transcriber,
		synthesizer: synthesizer,
		log:         log,
	}
}

type chatRequest struct {
	Question    string `json:"question" binding:"required"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type sourceResponse struct {
	Title   string  `json:"title"`
	Page    int     `json:"page"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

type chatResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Chat answers a question, optionally about an attached image. Image
// questions go to the vision model and skip retrieval, matching the
// terminal flow.
func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a question is required"})
		return
	}

	if req.ImageBase64 != "" {
		if h.vision == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image analysis is not configured"})
			return
		}
		image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is not valid base64"})
			return
		}
		text, err := h.vision.AnalyzeImage(c.Request.Context(), req.Question, image)
		if err != nil {
			h.log.Warn("image analysis failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not analyze the image right now"})
			return
		}
		c.JSON(http.StatusOK, chatResponse{Answer: text, Sources: []sourceResponse{}})
		return
	}

	if h.answerer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "the assistant is not configured"})
		return
	}
	text, sources, err := h.answerer.Answer(c.Request.Context(), req.Question)
	if err != nil {
		h.log.Warn("answer failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not produce an answer right now"})
		return
	}

	resp := chatResponse{Answer: text, Sources: make([]sourceResponse, 0, len(sources))}
	for _, r := range sources {
		snippet := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
		runes := []rune(snippet)
		if len(runes) > 200 {
			snippet = string(runes[:200]) + "..."
		}
		resp.Sources = append(resp.Sources, sourceResponse{
			Title:   r.Chunk.SourceTitle,
			Page:    r.Chunk.Page,
			Score:   r.Score,
			Snippet: snippet,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Transcribe accepts a multipart audio upload and returns its text.
func (h *Handlers) Transcribe(c *gin.Context) {
	if h.transcriber == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "voice input is not configured"})
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "an audio file upload is required"})
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the audio upload"})
		return
	}
	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		h.log.Warn("transcription failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not transcribe the audio right now"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

type speakRequest struct {
	Text string `json:"text" binding:"required"`
}

// Speak synthesizes text and streams back mp3 bytes.
func (h *Handlers) Speak(c *gin.Context) {
	if h.synthesizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "speech output is not configured"})
		return
	}
	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	audio, err := h.synthesizer.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		h.log.Warn("synthesis failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not produce audio right now"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
