// Package config assembles paperqa's typed configuration from the TOML
// config file, .env files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// Config file keys.
const (
	KeyStorageBackend     = "storage.backend"
	KeyDataDir            = "storage.data_dir"
	KeyDatabaseURL        = "storage.database_url"
	KeyServerAddr         = "server.addr"
	KeyMaxUploadMB        = "server.max_upload_mb"
	KeySearchThreshold    = "search.threshold"
	KeySearchCount        = "search.count"
	KeyEmbeddingProvider  = "embedding.provider"
	KeyEmbeddingModel     = "embedding.model"
	KeyEmbeddingBaseURL   = "embedding.base_url"
	KeyEmbeddingAPIKey    = "embedding.api_key"
	KeyEmbeddingDims      = "embedding.dimensions"
	KeyLLMProvider        = "llm.provider"
	KeyLLMModel           = "llm.model"
	KeyLLMBaseURL         = "llm.base_url"
	KeyLLMAPIKey          = "llm.api_key"
	KeyLLMMaxTokens       = "llm.max_tokens"
	KeyLLMTemperature     = "llm.temperature"
	KeyIngestConcurrency  = "ingest.concurrency"
	KeyIngestRateLimit    = "ingest.rate_limit"
	KeyIngestBurst        = "ingest.burst"
	KeyIngestDocEmbedding = "ingest.document_embedding"
	KeyChunkSize          = "chunker.chunk_size"
	KeyChunkOverlap       = "chunker.overlap"
	KeyChunkMinLength     = "chunker.min_length"
	KeyWatchDebounceMS    = "watch.debounce_ms"
	KeyWatchInitialScan   = "watch.initial_scan"
)

// Environment variables.
const (
	EnvHome              = "PAPERQA_HOME"
	EnvAddr              = "PAPERQA_ADDR"
	EnvStorage           = "PAPERQA_STORAGE"
	EnvDataDir           = "PAPERQA_DATA_DIR"
	EnvEmbeddingProvider = "PAPERQA_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "PAPERQA_EMBEDDING_MODEL"
	EnvLLMProvider       = "PAPERQA_LLM_PROVIDER"
	EnvLLMModel          = "PAPERQA_LLM_MODEL"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvDatabaseURL       = "DATABASE_URL"
)

// Defaults.
const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultMaxUploadMB = 10
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.3
	DefaultDebounce    = 500 * time.Millisecond
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string
	MaxUploadMB int
}

// MaxUploadBytes returns the upload cap in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// IngestConfig configures the embedding fan-out.
type IngestConfig struct {
	Concurrency int

	// RateLimit is embedding requests per second; 0 disables throttling.
	RateLimit float64
	Burst     int

	DocumentEmbedding bool
}

// WatchConfig configures the PDF inbox watcher.
type WatchConfig struct {
	Debounce    time.Duration
	InitialScan bool
}

// Config is the resolved configuration of one paperqa process.
type Config struct {
	// Home holds config.toml, prompts/ and, by default, the sqlite database.
	Home string

	Storage     domain.StorageBackend
	DataDir     string
	DatabaseURL string

	Server    ServerConfig
	Search    domain.SearchOptions
	Embedding domain.EmbeddingSettings
	LLM       domain.LLMSettings
	Ingest    IngestConfig
	Pipeline  domain.PipelineConfig
	Watch     WatchConfig
}

// Default returns the built-in configuration rooted at home.
func Default(home string) Config {
	return Config{
		Home:    home,
		Storage: domain.StorageSQLite,
		DataDir: home,
		Server: ServerConfig{
			Addr:        DefaultAddr,
			MaxUploadMB: DefaultMaxUploadMB,
		},
		Search: domain.SearchOptions{
			Threshold: domain.DefaultMatchThreshold,
			Count:     domain.DefaultMatchCount,
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			Model:    domain.DefaultEmbeddingModels()[domain.AIProviderOpenAI],
		},
		LLM: domain.LLMSettings{
			Provider:    domain.AIProviderOpenAI,
			Model:       domain.DefaultLLMModels()[domain.AIProviderOpenAI],
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Ingest: IngestConfig{
			Concurrency:       8,
			DocumentEmbedding: true,
		},
		Pipeline: domain.DefaultPipelineConfig(),
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// FromStore overlays the values present in store onto Default(home).
func FromStore(home string, store driven.ConfigStore) Config {
	cfg := Default(home)
	if store == nil {
		return cfg
	}

	setString := func(key string, dst *string) {
		if v := store.GetString(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if _, ok := store.Get(key); ok {
			*dst = store.GetInt(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if _, ok := store.Get(key); ok {
			*dst = store.GetFloat(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if _, ok := store.Get(key); ok {
			*dst = store.GetBool(key)
		}
	}

	if v := store.GetString(KeyStorageBackend); v != "" {
		cfg.Storage = domain.StorageBackend(v)
	}
	setString(KeyDataDir, &cfg.DataDir)
	setString(KeyDatabaseURL, &cfg.DatabaseURL)

	setString(KeyServerAddr, &cfg.Server.Addr)
	setInt(KeyMaxUploadMB, &cfg.Server.MaxUploadMB)

	setFloat(KeySearchThreshold, &cfg.Search.Threshold)
	setInt(KeySearchCount, &cfg.Search.Count)

	if v := store.GetString(KeyEmbeddingProvider); v != "" {
		cfg.Embedding.Provider = domain.AIProvider(v)
		cfg.Embedding.Model = domain.DefaultEmbeddingModels()[cfg.Embedding.Provider]
	}
	setString(KeyEmbeddingModel, &cfg.Embedding.Model)
	setString(KeyEmbeddingBaseURL, &cfg.Embedding.BaseURL)
	setString(KeyEmbeddingAPIKey, &cfg.Embedding.APIKey)
	setInt(KeyEmbeddingDims, &cfg.Embedding.Dimensions)

	if v := store.GetString(KeyLLMProvider); v != "" {
		cfg.LLM.Provider = domain.AIProvider(v)
		cfg.LLM.Model = domain.DefaultLLMModels()[cfg.LLM.Provider]
	}
	setString(KeyLLMModel, &cfg.LLM.Model)
	setString(KeyLLMBaseURL, &cfg.LLM.BaseURL)
	setString(KeyLLMAPIKey, &cfg.LLM.APIKey)
	setInt(KeyLLMMaxTokens, &cfg.LLM.MaxTokens)
	setFloat(KeyLLMTemperature, &cfg.LLM.Temperature)

	setInt(KeyIngestConcurrency, &cfg.Ingest.Concurrency)
	setFloat(KeyIngestRateLimit, &cfg.Ingest.RateLimit)
	setInt(KeyIngestBurst, &cfg.Ingest.Burst)
	setBool(KeyIngestDocEmbedding, &cfg.Ingest.DocumentEmbedding)

	chunker := cfg.Pipeline.ProcessorConfigs["chunker"]
	for key, name := range map[string]string{
		KeyChunkSize:      "chunk_size",
		KeyChunkOverlap:   "overlap",
		KeyChunkMinLength: "min_length",
	} {
		if _, ok := store.Get(key); ok {
			chunker[name] = store.GetInt(key)
		}
	}

	var debounceMS int
	setInt(KeyWatchDebounceMS, &debounceMS)
	if debounceMS > 0 {
		cfg.Watch.Debounce = time.Duration(debounceMS) * time.Millisecond
	}
	setBool(KeyWatchInitialScan, &cfg.Watch.InitialScan)

	return cfg
}

// ApplyEnv overrides cfg with environment variables read through lookup.
// OPENAI_API_KEY fills the API key of whichever services use OpenAI and
// have none configured.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(name string) string {
		v, ok := lookup(name)
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}

	if v := get(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := get(EnvStorage); v != "" {
		c.Storage = domain.StorageBackend(v)
	}
	if v := get(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := get(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}

	if v := get(EnvEmbeddingProvider); v != "" && domain.AIProvider(v) != c.Embedding.Provider {
		c.Embedding.Provider = domain.AIProvider(v)
		c.Embedding.Model = domain.DefaultEmbeddingModels()[c.Embedding.Provider]
		c.Embedding.BaseURL = ""
	}
	if v := get(EnvEmbeddingModel); v != "" {
		c.Embedding.Model = v
	}
	if v := get(EnvLLMProvider); v != "" && domain.AIProvider(v) != c.LLM.Provider {
		c.LLM.Provider = domain.AIProvider(v)
		c.LLM.Model = domain.DefaultLLMModels()[c.LLM.Provider]
		c.LLM.BaseURL = ""
	}
	if v := get(EnvLLMModel); v != "" {
		c.LLM.Model = v
	}

	if key := get(EnvOpenAIKey); key != "" {
		if c.Embedding.Provider == domain.AIProviderOpenAI && c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
		if c.LLM.Provider == domain.AIProviderOpenAI && c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
	}
}

// Validate reports every invalid setting at once.
// Missing API keys are not errors; the affected service is simply unavailable.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidInput}, args...)...))
	}

	if !c.Storage.IsValid() {
		add("unknown storage backend %q", c.Storage)
	}
	if c.Storage == domain.StoragePostgres && c.DatabaseURL == "" {
		add("postgres storage needs %s or %s", KeyDatabaseURL, EnvDatabaseURL)
	}
	if c.Server.Addr == "" {
		add("%s is empty", KeyServerAddr)
	}
	if c.Server.MaxUploadMB < 1 {
		add("%s must be positive", KeyMaxUploadMB)
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !c.Embedding.Provider.IsValid() {
		add("unknown embedding provider %q", c.Embedding.Provider)
	}
	if !c.LLM.Provider.IsValid() {
		add("unknown LLM provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxTokens < 1 {
		add("%s must be positive", KeyLLMMaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		add("%s %.2f outside [0,2]", KeyLLMTemperature, c.LLM.Temperature)
	}
	if c.Ingest.Concurrency < 1 {
		add("%s must be positive", KeyIngestConcurrency)
	}
	if c.Ingest.RateLimit < 0 {
		add("%s must not be negative", KeyIngestRateLimit)
	}

	return errors.Join(errs...)
}

// SQLitePath returns the database file used by the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "paperqa.db")
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win, and missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Lookup formats the effective value of key for display. Secrets are masked.
func (c *Config) Lookup(key string) (string, bool) {
	switch key {
	case KeyStorageBackend:
		return c.Storage.String(), true
	case KeyDataDir:
		return c.DataDir, true
	case KeyDatabaseURL:
		return mask(c.DatabaseURL), true
	case KeyServerAddr:
		return c.Server.Addr, true
	case KeyMaxUploadMB:
		return strconv.Itoa(c.Server.MaxUploadMB), true
	case KeySearchThreshold:
		return strconv.FormatFloat(c.Search.Threshold, 'g', -1, 64), true
	case KeySearchCount:
		return strconv.Itoa(c.Search.Count), true
	case KeyEmbeddingProvider:
		return c.Embedding.Provider.String(), true
	case KeyEmbeddingModel:
		return c.Embedding.Model, true
	case KeyEmbeddingBaseURL:
		return c.Embedding.BaseURL, true
	case KeyEmbeddingAPIKey:
		return mask(c.Embedding.APIKey), true
	case KeyLLMProvider:
		return c.LLM.Provider.String(), true
	case KeyLLMModel:
		return c.LLM.Model, true
	case KeyLLMBaseURL:
		return c.LLM.BaseURL, true
	case KeyLLMAPIKey:
		return mask(c.LLM.APIKey), true
	case KeyLLMMaxTokens:
		return strconv.Itoa(c.LLM.MaxTokens), true
	case KeyLLMTemperature:
		return strconv.FormatFloat(c.LLM.Temperature, 'g', -1, 64), true
	case KeyEmbeddingDims:
		return strconv.Itoa(c.Embedding.Dimensions), true
	case KeyIngestConcurrency:
		return strconv.Itoa(c.Ingest.Concurrency), true
	case KeyIngestRateLimit:
		return strconv.FormatFloat(c.Ingest.RateLimit, 'g', -1, 64), true
	case KeyIngestBurst:
		return strconv.Itoa(c.Ingest.Burst), true
	case KeyIngestDocEmbedding:
		return strconv.FormatBool(c.Ingest.DocumentEmbedding), true
	case KeyWatchDebounceMS:
		return strconv.FormatInt(c.Watch.Debounce.Milliseconds(), 10), true
	case KeyWatchInitialScan:
		return strconv.FormatBool(c.Watch.InitialScan), true
	}
	return "", false
}

// DisplayKeys lists the keys Lookup understands, in display order.
func DisplayKeys() []string {
	return []string{
		KeyStorageBackend, KeyDataDir, KeyDatabaseURL,
		KeyServerAddr, KeyMaxUploadMB,
		KeySearchThreshold, KeySearchCount,
		KeyEmbeddingProvider, KeyEmbeddingModel, KeyEmbeddingBaseURL, KeyEmbeddingAPIKey, KeyEmbeddingDims,
		KeyLLMProvider, KeyLLMModel, KeyLLMBaseURL, KeyLLMAPIKey, KeyLLMMaxTokens, KeyLLMTemperature,
		KeyIngestConcurrency, KeyIngestRateLimit, KeyIngestBurst, KeyIngestDocEmbedding,
		KeyWatchDebounceMS, KeyWatchInitialScan,
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// ParseValue converts a command-line string into the TOML type stored for key.
func ParseValue(key, raw string) (any, error) {
	switch key {
	case KeyMaxUploadMB, KeySearchCount, KeyEmbeddingDims, KeyLLMMaxTokens,
		KeyIngestConcurrency, KeyIngestBurst, KeyChunkSize, KeyChunkOverlap,
		KeyChunkMinLength, KeyWatchDebounceMS:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer", domain.ErrInvalidInput, key)
		}
		return n, nil
	case KeySearchThreshold, KeyLLMTemperature, KeyIngestRateLimit:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case KeyIngestDocEmbedding, KeyWatchInitialScan:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false", domain.ErrInvalidInput, key)
		}
		return b, nil
	}
	return raw, nil
}
