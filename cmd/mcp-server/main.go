package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/pdfrag/internal/bootstrap"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/mcpserver"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

func main() {
	cfg, err := config.LoadChatAPIConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// stdout carries the protocol, logs go to stderr
	logger_i.InitWithWriter(os.Stderr, cfg.Log.SlogLevel(), cfg.Log.JSON())
	logger := logger_i.NewLogger("mcp")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ragService, closeServices, err := bootstrap.NewRAGService(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize the RAG pipeline", "error", err)
		os.Exit(1)
	}
	defer closeServices()

	logger.Info("MCP server starting on stdio")
	if err := mcpserver.NewServer(ragService).Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
		closeServices()
		os.Exit(1)
	}
}
