package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/joho/godotenv"
)

type LogConfig struct {
	Level  string
	Format string
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	PoolSize   int
	Collection string
	Distance   string
}

type EmbeddingConfig struct {
	Provider    string
	URL         string
	Model       string
	APIKey      string
	Dimension   int
	BatchSize   int
	Concurrency int
}

type GenerationConfig struct {
	Provider    string
	URL         string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ChatAPIConfig is everything cmd/chat-api and cmd/mcp-server need.
type ChatAPIConfig struct {
	ListenAddr         string
	Log                LogConfig
	Qdrant             QdrantConfig
	Embedding          EmbeddingConfig
	Generation         GenerationConfig
	TopK               int
	HTTPTimeout        time.Duration
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// IngestConfig is everything cmd/ingest needs.
type IngestConfig struct {
	Log          LogConfig
	Qdrant       QdrantConfig
	Embedding    EmbeddingConfig
	Redis        RedisConfig
	ChunkSize    int
	ChunkOverlap int
	PDFDirectory string
	ParseWorkers int
	HTTPTimeout  time.Duration
}

// envReader keeps the first malformed value so loaders can report it once.
type envReader struct {
	err error
}

func (r *envReader) str(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (r *envReader) int(key string, fallback int) int {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, "%q is not an integer", v)
		return fallback
	}
	return n
}

func (r *envReader) float(key string, fallback float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, "%q is not a number", v)
		return fallback
	}
	return f
}

func (r *envReader) bool(key string, fallback bool) bool {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, "%q is not a boolean", v)
		return fallback
	}
	return b
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, "%q is not a duration", v)
		return fallback
	}
	return d
}

func (r *envReader) list(key string) []string {
	v := r.str(key, "")
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (r *envReader) fail(key string, format string, args ...any) {
	if r.err == nil {
		r.err = ragErrors.NewConfigurationError(key, format, args...)
	}
}

func (r *envReader) log() LogConfig {
	return LogConfig{
		Level:  r.str("LOG_LEVEL", DefaultLogLevel),
		Format: r.str("LOG_FORMAT", DefaultLogFormat),
	}
}

func (r *envReader) qdrant() QdrantConfig {
	return QdrantConfig{
		Host:       r.str("QDRANT_HOST", QdrantHost),
		Port:       r.int("QDRANT_PORT", QdrantGrpcPort),
		APIKey:     r.str("QDRANT_API_KEY", ""),
		UseTLS:     r.bool("QDRANT_USE_TLS", QdrantUseTLS),
		PoolSize:   r.int("QDRANT_POOL_SIZE", QdrantPoolSize),
		Collection: r.str("QDRANT_COLLECTION", QdrantCollection),
		Distance:   strings.ToLower(r.str("QDRANT_DISTANCE", QdrantDistance)),
	}
}

func (r *envReader) embedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:    strings.ToLower(r.str("EMBEDDING_PROVIDER", EmbeddingProvider)),
		URL:         strings.TrimRight(r.str("EMBEDDING_URL", EmbeddingURL), "/"),
		Model:       r.str("EMBEDDING_MODEL", GoogleEmbeddingModel),
		APIKey:      r.str("GEMINI_API_KEY", ""),
		Dimension:   r.int("EMBEDDING_DIMENSION", EmbeddingDimension),
		BatchSize:   r.int("EMBEDDING_BATCH_SIZE", EmbeddingBatchSize),
		Concurrency: r.int("EMBEDDING_CONCURRENCY", EmbeddingConcurrency),
	}
}

func (r *envReader) generation() GenerationConfig {
	g := GenerationConfig{
		Provider:    strings.ToLower(r.str("GENERATION_PROVIDER", GenerationProvider)),
		URL:         strings.TrimRight(r.str("VLLM_URL", VLLMURL), "/"),
		Model:       r.str("VLLM_MODEL", VLLMModel),
		APIKey:      r.str("VLLM_API_KEY", VLLMAPIKey),
		Temperature: r.float("RAG_TEMPERATURE", RAGTemperature),
		MaxTokens:   r.int("RAG_MAX_TOKENS", RAGMaxTokens),
	}
	if g.Provider == "gemini" {
		g.Model = r.str("GEMINI_MODEL", GeminiModelName)
		g.APIKey = r.str("GEMINI_API_KEY", "")
	}
	return g
}

// LoadChatAPIConfig reads .env (if present) and the process environment.
func LoadChatAPIConfig() (*ChatAPIConfig, error) {
	_ = godotenv.Load()

	r := &envReader{}
	cfg := &ChatAPIConfig{
		ListenAddr:         r.str("LISTEN_ADDR", ServerListenAddr),
		Log:                r.log(),
		Qdrant:             r.qdrant(),
		Embedding:          r.embedding(),
		Generation:         r.generation(),
		TopK:               r.int("RAG_TOP_K", RAGTopK),
		HTTPTimeout:        r.duration("HTTP_TIMEOUT", HTTPTimeout),
		CORSAllowedOrigins: r.list("CORS_ALLOWED_ORIGINS"),
		RateLimitPerSecond: r.float("RATE_LIMIT_PER_SECOND", RateLimitPerSecond),
		RateLimitBurst:     r.int("RATE_LIMIT_BURST", BurstRateLimitPerSecond),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, cfg.Validate()
}

// LoadIngestConfig reads .env (if present) and the process environment.
func LoadIngestConfig() (*IngestConfig, error) {
	_ = godotenv.Load()

	r := &envReader{}
	cfg := &IngestConfig{
		Log:       r.log(),
		Qdrant:    r.qdrant(),
		Embedding: r.embedding(),
		Redis: RedisConfig{
			Addr:     r.str("REDIS_ADDR", RedisAddr),
			Password: r.str("REDIS_PASSWORD", ""),
			DB:       r.int("REDIS_DB", RedisLedgerDB),
		},
		ChunkSize:    r.int("CHUNK_SIZE", ChunkSize),
		ChunkOverlap: r.int("CHUNK_OVERLAP", ChunkOverlap),
		PDFDirectory: r.str("PDF_DIRECTORY", PDFDirectory),
		ParseWorkers: r.int("INGEST_PARSE_WORKERS", IngestParseWorkers),
		HTTPTimeout:  r.duration("HTTP_TIMEOUT", HTTPTimeout),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, cfg.Validate()
}

func (c *ChatAPIConfig) Validate() error {
	if err := c.Qdrant.validate(); err != nil {
		return err
	}
	if err := c.Embedding.validate(); err != nil {
		return err
	}
	if err := c.Generation.validate(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return ragErrors.NewConfigurationError("RAG_TOP_K", "must be positive, got %d", c.TopK)
	}
	if c.HTTPTimeout <= 0 {
		return ragErrors.NewConfigurationError("HTTP_TIMEOUT", "must be positive")
	}
	if c.RateLimitPerSecond < 0 {
		return ragErrors.NewConfigurationError("RATE_LIMIT_PER_SECOND", "must not be negative")
	}
	return nil
}

func (c *IngestConfig) Validate() error {
	if err := c.Qdrant.validate(); err != nil {
		return err
	}
	if err := c.Embedding.validate(); err != nil {
		return err
	}
	return c.ValidateChunking()
}

// ValidateChunking is split out so flag overrides in cmd/ingest can be re-checked.
func (c *IngestConfig) ValidateChunking() error {
	if c.ChunkSize <= 0 {
		return ragErrors.NewConfigurationError("CHUNK_SIZE", "must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return ragErrors.NewConfigurationError("CHUNK_OVERLAP", "must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.PDFDirectory == "" {
		return ragErrors.NewConfigurationError("PDF_DIRECTORY", "is required")
	}
	if c.ParseWorkers <= 0 {
		return ragErrors.NewConfigurationError("INGEST_PARSE_WORKERS", "must be positive, got %d", c.ParseWorkers)
	}
	return nil
}

func (q QdrantConfig) validate() error {
	if q.Host == "" {
		return ragErrors.NewConfigurationError("QDRANT_HOST", "is required")
	}
	if q.Port <= 0 || q.Port > 65535 {
		return ragErrors.NewConfigurationError("QDRANT_PORT", "invalid port %d", q.Port)
	}
	if q.Collection == "" {
		return ragErrors.NewConfigurationError("QDRANT_COLLECTION", "is required")
	}
	switch q.Distance {
	case "cosine", "dot", "euclid", "manhattan":
	default:
		return ragErrors.NewConfigurationError("QDRANT_DISTANCE", "unsupported distance %q", q.Distance)
	}
	return nil
}

func (e EmbeddingConfig) validate() error {
	switch e.Provider {
	case "tei":
		if e.URL == "" {
			return ragErrors.NewConfigurationError("EMBEDDING_URL", "is required")
		}
	case "gemini":
		if e.APIKey == "" {
			return ragErrors.NewConfigurationError("GEMINI_API_KEY", "is required for the gemini embedding provider")
		}
	default:
		return ragErrors.NewConfigurationError("EMBEDDING_PROVIDER", "unknown provider %q", e.Provider)
	}
	if e.Dimension <= 0 {
		return ragErrors.NewConfigurationError("EMBEDDING_DIMENSION", "must be positive, got %d", e.Dimension)
	}
	if e.BatchSize <= 0 {
		return ragErrors.NewConfigurationError("EMBEDDING_BATCH_SIZE", "must be positive, got %d", e.BatchSize)
	}
	if e.Concurrency <= 0 {
		return ragErrors.NewConfigurationError("EMBEDDING_CONCURRENCY", "must be positive, got %d", e.Concurrency)
	}
	return nil
}

func (g GenerationConfig) validate() error {
	switch g.Provider {
	case "openai":
		if g.URL == "" {
			return ragErrors.NewConfigurationError("VLLM_URL", "is required")
		}
	case "gemini":
		if g.APIKey == "" {
			return ragErrors.NewConfigurationError("GEMINI_API_KEY", "is required for the gemini generation provider")
		}
	default:
		return ragErrors.NewConfigurationError("GENERATION_PROVIDER", "unknown provider %q", g.Provider)
	}
	if g.Model == "" {
		return ragErrors.NewConfigurationError("VLLM_MODEL", "is required")
	}
	if g.Temperature < 0 || g.Temperature > 2 {
		return ragErrors.NewConfigurationError("RAG_TEMPERATURE", "must be within [0, 2], got %v", g.Temperature)
	}
	if g.MaxTokens <= 0 {
		return ragErrors.NewConfigurationError("RAG_MAX_TOKENS", "must be positive, got %d", g.MaxTokens)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto slog, unknown values fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LOG_LEVEL_PROD
	}
}

func (l LogConfig) JSON() bool {
	return strings.EqualFold(l.Format, "json")
}
