package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/akolanti/pdfrag/internal/adapter/utils"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/handlers"
	"github.com/akolanti/pdfrag/internal/middleware"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

type Server struct {
	httpServer *http.Server
	logger     *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	CloseServices    func()
}

func NewRouter(cfg *config.ChatAPIConfig, chat *handlers.ChatHandler) http.Handler {
	r := utils.NewRouter(cfg.CORSAllowedOrigins)
	chain := middleware.NewChain(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	r.Post("/chat", chain.Wrap(chat.Chat))
	r.Get("/health", chain.Wrap(chat.Health))
	return r
}

func CreateServer(listenAddr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      handler,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logger_i.NewLogger("Server"),
	}
}

// ListenAndServe blocks until Shutdown. A crash is returned, a normal close is not.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Server is listening at", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err.Error(), "addr", s.httpServer.Addr)
		return err
	}
	return nil
}

func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		s.logger.Error("Force shut down")
		os.Exit(1)
	}
}
