package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akolanti/pdfrag/internal/bootstrap"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/customHttpClient"
	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/data/store"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/rag/ingest"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	flagDir          string
	flagCollection   string
	flagChunkSize    int
	flagChunkOverlap int
	flagBatchSize    int
	flagForce        bool
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a directory of PDFs into the vector store",
	Long: `Extracts every non-blank page, splits it into overlapping token windows,
embeds the windows and upserts them into Qdrant under deterministic ids.
Running it twice over the same files leaves the point count unchanged.`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.Flags().StringVar(&flagDir, "dir", "", "directory holding the documents (default PDF_DIRECTORY)")
	rootCmd.Flags().StringVar(&flagCollection, "collection", "", "target collection (default QDRANT_COLLECTION)")
	rootCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "tokens per chunk (default CHUNK_SIZE)")
	rootCmd.Flags().IntVar(&flagChunkOverlap, "chunk-overlap", -1, "tokens shared by neighbouring chunks (default CHUNK_OVERLAP)")
	rootCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "texts per embedding request (default EMBEDDING_BATCH_SIZE)")
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "re-embed pages the ledger has already recorded")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadIngestConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger_i.Init(cfg.Log.SlogLevel(), cfg.Log.JSON())
	logger := logger_i.NewLogger("ingest")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tokenizer, err := ingest.NewTiktokenTokenizer(config.TokenizerEncoding)
	if err != nil {
		return err
	}

	httpClient := customHttpClient.NewPooledClient(cfg.HTTPTimeout)
	defer customHttpClient.CloseIdleConnections()

	embedder, err := bootstrap.NewEmbedder(ctx, cfg.Embedding, httpClient)
	if err != nil {
		return err
	}

	vectorStore, err := qdrantDB.NewClient(cfg.Qdrant, cfg.Embedding.Dimension)
	if err != nil {
		return err
	}
	defer func() {
		if err := vectorStore.Close(); err != nil {
			logger.Error("could not close Qdrant", "error", err)
		}
	}()

	ledger := openLedger(ctx, cfg.Redis, logger)
	if closer, ok := ledger.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	pipeline := ingest.NewPipeline(vectorStore, embedder, tokenizer, ledger)
	summary, err := pipeline.Run(ctx, ingest.Options{
		Directory:    cfg.PDFDirectory,
		Collection:   cfg.Qdrant.Collection,
		Distance:     cfg.Qdrant.Distance,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		ParseWorkers: cfg.ParseWorkers,
		Force:        flagForce,
	})
	if err != nil {
		if start, end, ok := qdrantDB.IsBatchError(err); ok {
			logger.Error("Ingestion stopped mid upsert, earlier batches are committed", "failedStart", start, "failedEnd", end)
		}
		logger.Error("Ingestion failed", "error", err)
		return err
	}

	printSummary(cmd, summary)
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.IngestConfig) {
	if cmd.Flags().Changed("dir") {
		cfg.PDFDirectory = flagDir
	}
	if cmd.Flags().Changed("collection") {
		cfg.Qdrant.Collection = flagCollection
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = flagChunkSize
	}
	if cmd.Flags().Changed("chunk-overlap") {
		cfg.ChunkOverlap = flagChunkOverlap
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Embedding.BatchSize = flagBatchSize
	}
}

// ledgerStore closes the Redis connection behind the ledger.
type ledgerStore struct {
	*store.RedisPageLedger
	redis *redisStore.Store
}

func (l ledgerStore) Close() error {
	return l.redis.Close()
}

// openLedger uses Redis when REDIS_ADDR is set and reachable, otherwise a ledger that lives for this run only.
func openLedger(ctx context.Context, cfg config.RedisConfig, logger *logger_i.Logger) commonModels.PageLedger {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not set, ingestion ledger kept in memory")
		return store.NewInMemoryPageLedger()
	}
	rs, err := redisStore.NewRedisStore(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, ingestion ledger kept in memory", "error", err)
		return store.NewInMemoryPageLedger()
	}
	return ledgerStore{RedisPageLedger: store.NewRedisPageLedger(rs), redis: rs}
}

func printSummary(cmd *cobra.Command, s ingest.Summary) {
	cmd.Println("Ingestion summary")
	cmd.Printf("  files:          %d\n", s.Files)
	cmd.Printf("  pages:          %d\n", s.Pages)
	cmd.Printf("  skipped pages:  %d\n", s.SkippedPages)
	cmd.Printf("  chunks:         %d\n", s.Chunks)
	if s.StaleHashes > 0 {
		cmd.Printf("  stale hashes:   %d (points kept, prune manually if needed)\n", s.StaleHashes)
	}
	if s.Chunks > 0 {
		cmd.Printf("  points:         %d\n", s.Stats.PointCount)
		cmd.Printf("  status:         %s\n", s.Stats.Status)
	}
	for _, step := range []string{"extract", "chunk", "embed", "upsert", "total"} {
		if d, ok := s.Timings[step]; ok {
			cmd.Printf("  %-15s %s\n", step+":", d.Round(time.Millisecond))
		}
	}
}
