package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/store"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/rag/ingest"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/alicebob/miniredis/v2"
)

func TestApplyFlags(t *testing.T) {
	cfg := &config.IngestConfig{PDFDirectory: "/data", ChunkSize: 512, ChunkOverlap: 50}
	cfg.Qdrant.Collection = "pdf_chunks"
	cfg.Embedding.BatchSize = 32

	if err := rootCmd.ParseFlags([]string{"--dir", "/tmp/docs", "--chunk-overlap", "0", "--batch-size", "8"}); err != nil {
		t.Fatal(err)
	}
	applyFlags(rootCmd, cfg)

	if cfg.PDFDirectory != "/tmp/docs" || cfg.ChunkOverlap != 0 || cfg.Embedding.BatchSize != 8 {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.ChunkSize != 512 || cfg.Qdrant.Collection != "pdf_chunks" {
		t.Errorf("unset flags must keep config values: %+v", cfg)
	}
}

func TestOpenLedger(t *testing.T) {
	logger := logger_i.NewLogger("test")

	if _, ok := openLedger(context.Background(), config.RedisConfig{}, logger).(*store.InMemoryPageLedger); !ok {
		t.Error("empty address should give the in-memory ledger")
	}

	mr := miniredis.RunT(t)
	ledger := openLedger(context.Background(), config.RedisConfig{Addr: mr.Addr()}, logger)
	redisLedger, ok := ledger.(ledgerStore)
	if !ok {
		t.Fatalf("expected the redis ledger, got %T", ledger)
	}
	defer redisLedger.Close()

	if err := ledger.Record(context.Background(), "pdf_chunks|cl100k_base|512|50", "a.pdf", []string{"h1"}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := mr.SIsMember("ingest:ledger:pdf_chunks|cl100k_base|512|50:a.pdf", "h1"); !ok {
		t.Error("hash not written to redis")
	}

	down := miniredis.RunT(t)
	addr := down.Addr()
	down.Close()
	if _, ok := openLedger(context.Background(), config.RedisConfig{Addr: addr}, logger).(*store.InMemoryPageLedger); !ok {
		t.Error("unreachable redis should fall back to memory")
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	defer rootCmd.SetOut(nil)

	printSummary(rootCmd, ingest.Summary{
		Files:       2,
		Pages:       10,
		Chunks:      14,
		StaleHashes: 1,
		Stats:       commonModels.CollectionStats{PointCount: 14, Status: "green"},
		Timings:     map[string]time.Duration{"embed": 1500 * time.Millisecond},
	})

	out := buf.String()
	for _, want := range []string{"files:          2", "chunks:         14", "stale hashes:   1", "points:         14", "status:         green", "embed:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
