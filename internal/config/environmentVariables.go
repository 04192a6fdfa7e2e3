package config

import (
	"log/slog"
	"time"
)

// Defaults. Every value here can be overridden through the environment (see config.go).
const (
	TRACE_ID_KEY   = "traceId"
	LOG_LEVEL_PROD = slog.LevelInfo

	//logging
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	//server
	ServerListenAddr       = ":8000"
	ReadTimeout            = 10 * time.Second
	WriteTimeout           = 150 * time.Second //generation can take up to HTTPTimeout
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second
	MaxRequestBodyBytes    = 1 << 20

	//rate limiting, 0 disables it
	RateLimitPerSecond      = 0
	BurstRateLimitPerSecond = 5

	//vectorDB
	QdrantHost             = "qdrant"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 3 //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout = 30 * time.Second
	QdrantCollection       = "pdf_chunks"
	QdrantDistance         = "cosine"
	UpsertBatchSize        = 100
	CollectionCheckTimeout = 5 * time.Second

	//embeddings
	EmbeddingProvider    = "tei"
	EmbeddingURL         = "http://embedding:8080"
	EmbeddingDimension   = 768
	EmbeddingBatchSize   = 32
	EmbeddingConcurrency = 1
	GoogleEmbeddingModel = "gemini-embedding-001"

	//generation
	GenerationProvider = "openai"
	VLLMURL            = "http://vllm:8000"
	VLLMModel          = "hugging-quants/Meta-Llama-3.1-8B-Instruct-AWQ-INT4"
	VLLMAPIKey         = "EMPTY" //vLLM ignores the key but the client insists on one
	GeminiModelName    = "gemini-2.5-flash"

	//rag
	RAGTopK        = 5
	RAGTemperature = 0.1
	RAGMaxTokens   = 1024

	//shared http pool, long timeout because generation dominates latency
	HTTPTimeout         = 120 * time.Second
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//ingestion
	ChunkSize          = 512
	ChunkOverlap       = 50
	PDFDirectory       = "/data"
	IngestParseWorkers = 4
	TokenizerEncoding  = "cl100k_base"

	//redis ledger, empty address keeps the ledger in memory
	RedisAddr      = ""
	RedisLedgerDB  = 2
	RedisTimeout   = 30 * time.Second
	RedisPingLimit = 3 * time.Second
)
