package main

import (
	"github.com/spf13/cobra"

	"medirag/internal/config"
	"medirag/internal/domain"
	"medirag/internal/embedding/openai"
	"medirag/internal/llm/groq"
	"medirag/internal/logger"
	"medirag/internal/service"
	sttgroq "medirag/internal/speech/groq"
	"medirag/internal/speech/tts"
	"medirag/internal/vectorstore/flat"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "medirag",
	Short: "Retrieval-augmented medical question answering over PDF reference texts",
	Long: `medirag ingests PDF medical reference texts into a local vector index
and answers questions grounded in the retrieved passages, with optional
voice and image input.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default: ./config.yaml, then ~/.config/medirag/config.yaml)")
}

// app holds everything a command needs, assembled once per invocation.
// Provider clients stay nil when their credential is absent so that
// only the operations needing them fail.
type app struct {
	cfg   *config.AppConfig
	log   *logger.Logger
	index *flat.Store

	embedder    domain.Embedder
	chat        domain.ChatModel
	vision      domain.VisionModel
	transcriber domain.Transcriber
	synthesizer domain.Synthesizer
}

func buildApp() (*app, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	index, loaded := flat.LoadOrNew(cfg.IndexPath)
	if loaded {
		log.Info("index loaded", "path", cfg.IndexPath, "chunks", index.Len())
	} else {
		log.Info("no usable index found, starting empty", "path", cfg.IndexPath)
	}

	a := &app{cfg: cfg, log: log, index: index}

	if emb, err := openai.NewClient(cfg.Embedder); err != nil {
		log.Warn("embedder unavailable", "error", err)
	} else {
		a.embedder = emb
	}
	if llm, err := groq.NewClient(cfg.LLM); err != nil {
		log.Warn("chat model unavailable", "error", err)
	} else {
		a.chat = llm
		a.vision = llm
	}
	if tr, err := sttgroq.NewTranscriber(cfg.STT); err != nil {
		log.Warn("transcriber unavailable", "error", err)
	} else {
		a.transcriber = tr
	}
	a.synthesizer = tts.NewFallback(
		tts.NewElevenLabs(cfg.TTS.ElevenLabs),
		tts.NewGoogleTranslate(cfg.TTS.FallbackLanguage),
		log,
	)

	return a, nil
}

// answerService wires the query-side pipeline, or returns nil when the
// required providers are missing.
func (a *app) answerService() *service.AnswerService {
	if a.embedder == nil || a.chat == nil {
		return nil
	}
	return service.NewAnswerService(
		a.embedder,
		a.index,
		a.chat,
		a.cfg.Retrieval.TopK,
		a.cfg.Retrieval.ContextChars,
		a.log,
	)
}
