// @title           PDF RAG Chat API
// @version         1.0
// @description     Answers questions about ingested PDF documents with page citations.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/pdfrag/internal/bootstrap"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/handlers"
	"github.com/akolanti/pdfrag/internal/server"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

var listenAddr string

func main() {
	cfg, err := config.LoadChatAPIConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger_i.Init(cfg.Log.SlogLevel(), cfg.Log.JSON())
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", cfg.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, cancelServices := context.WithCancel(context.Background())
	defer cancelServices()

	// registered before bootstrapping, a signal during startup waits here for ShutDownHandler
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	// /health answers "starting" until the pipeline is injected below
	chatHandler := handlers.NewChatHandler()
	srv := server.CreateServer(listenAddr, server.NewRouter(cfg, chatHandler))
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			os.Exit(1)
		}
	}()

	ragService, closeServices, err := bootstrap.NewRAGService(serviceContext, cfg)
	if err != nil {
		logger.Error("Failed to initialize the RAG pipeline", "error", err)
		os.Exit(1)
	}
	chatHandler.SetPipeline(ragService)

	//server handling
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices: func() {
			closeServices()
			cancelServices()
		},
	}
	go srv.ShutDownHandler(shutdownParams)

	<-stopExecution
	logger.Info("Server stopped")
}
