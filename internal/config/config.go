package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig configures how page text is split into chunks.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
	Concurrency int    `yaml:"concurrency"`
}

// LLMConfig configures the chat completion and vision endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	VisionModel string  `yaml:"vision_model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// STTConfig configures the speech-to-text endpoint.
type STTConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ElevenLabsConfig configures the primary text-to-speech provider.
type ElevenLabsConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	VoiceID     string `yaml:"voice_id"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// TTSConfig configures speech synthesis. The fallback provider needs
// no credential, only a language code.
type TTSConfig struct {
	ElevenLabs       ElevenLabsConfig `yaml:"elevenlabs"`
	FallbackLanguage string           `yaml:"fallback_language"`
}

// RetrievalConfig tunes the query side of the pipeline.
type RetrievalConfig struct {
	TopK         int `yaml:"top_k"`
	ContextChars int `yaml:"context_chars"`
}

// ServerConfig configures the HTTP API deployment mode.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	DataDir   string          `yaml:"data_dir"`
	IndexPath string          `yaml:"index_path"`
	LogMode   string          `yaml:"log_mode"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	STT       STTConfig       `yaml:"stt"`
	TTS       TTSConfig       `yaml:"tts"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/medirag/config.yaml.
// If neither exists, it writes defaults to ~/.config/medirag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "medirag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = "vectorstore/index.json"
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.MaxRetries == 0 {
		cfg.Embedder.MaxRetries = 5
	}
	if cfg.Embedder.Concurrency == 0 {
		cfg.Embedder.Concurrency = 4
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.3-70b-versatile"
	}
	if cfg.LLM.VisionModel == "" {
		cfg.LLM.VisionModel = "meta-llama/llama-4-scout-17b-16e-instruct"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 800
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.STT.BaseURL == "" {
		cfg.STT.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.STT.APIKeyEnv == "" {
		cfg.STT.APIKeyEnv = "GROQ_API_KEY"
	}
	if cfg.STT.Model == "" {
		cfg.STT.Model = "whisper-large-v3"
	}
	if cfg.STT.Language == "" {
		cfg.STT.Language = "en"
	}
	if cfg.STT.TimeoutSecs == 0 {
		cfg.STT.TimeoutSecs = 60
	}
	if cfg.TTS.ElevenLabs.APIKeyEnv == "" {
		cfg.TTS.ElevenLabs.APIKeyEnv = "ELEVENLABS_API_KEY"
	}
	if cfg.TTS.ElevenLabs.VoiceID == "" {
		cfg.TTS.ElevenLabs.VoiceID = "2qfp6zPuviqeCOZIE9RZ"
	}
	if cfg.TTS.ElevenLabs.Model == "" {
		cfg.TTS.ElevenLabs.Model = "eleven_turbo_v2"
	}
	if cfg.TTS.ElevenLabs.TimeoutSecs == 0 {
		cfg.TTS.ElevenLabs.TimeoutSecs = 30
	}
	if cfg.TTS.FallbackLanguage == "" {
		cfg.TTS.FallbackLanguage = "en"
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.ContextChars == 0 {
		cfg.Retrieval.ContextChars = 800
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
