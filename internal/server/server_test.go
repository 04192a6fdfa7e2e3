package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/handlers"
	"github.com/akolanti/pdfrag/internal/rag"
)

type stubService struct {
	traces []string
}

func (s *stubService) Answer(ctx context.Context, question string, history []commonModels.Message) (rag.Answer, error) {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	s.traces = append(s.traces, trace)
	return rag.Answer{Text: "answer to " + question, Model: "stub"}, nil
}

func newTestRouter(cfg *config.ChatAPIConfig, svc rag.Service) http.Handler {
	chat := handlers.NewChatHandler()
	if svc != nil {
		chat.SetPipeline(svc)
	}
	return NewRouter(cfg, chat)
}

func TestRouter_ChatAndTrace(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(&config.ChatAPIConfig{}, svc)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"refunds?"}`))
	req.Header.Set("X-Trace-Id", "trace-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Trace-Id") != "trace-123" {
		t.Errorf("trace header not echoed: %q", rr.Header().Get("X-Trace-Id"))
	}
	if len(svc.traces) != 1 || svc.traces[0] != "trace-123" {
		t.Errorf("trace not propagated to the service: %v", svc.traces)
	}

	var resp api.ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "answer to refunds?" || resp.Model != "stub" {
		t.Errorf("unexpected response %+v", resp)
	}

	// without a header a trace id is generated
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"again"}`)))
	if rr.Header().Get("X-Trace-Id") == "" || svc.traces[1] == "" {
		t.Errorf("expected a generated trace id")
	}
}

func TestRouter_ErrorBodyCarriesTrace(t *testing.T) {
	router := newTestRouter(&config.ChatAPIConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"question":"hi"}`))
	req.Header.Set("X-Trace-Id", "abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d", rr.Code)
	}
	var resp api.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TraceId != "abc" {
		t.Errorf("trace_id = %q", resp.TraceId)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(&config.ChatAPIConfig{RateLimitPerSecond: 1, RateLimitBurst: 2}, &stubService{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.1.1.1:5000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("got %v, want [200 200 429]", codes)
	}

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.2.2.2:5000"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("second client got %d", rr.Code)
	}
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(&config.ChatAPIConfig{CORSAllowedOrigins: []string{"http://localhost:3000"}}, &stubService{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/chat", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
		if rr.Code != tt.want {
			t.Errorf("%s %s: got %d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("CORS preflight not answered: %v", rr.Header())
	}
}

func TestShutDownHandler_SignalQueuedDuringStartup(t *testing.T) {
	srv := CreateServer("127.0.0.1:0", http.NewServeMux())

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM
	stop := make(chan bool, 1)
	closed := make(chan struct{})

	go srv.ShutDownHandler(ShutdownParams{
		GracefulShutdown: signals,
		StopExecution:    stop,
		CloseServices:    func() { close(closed) },
	})

	select {
	case <-stop:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not finish")
	}
	select {
	case <-closed:
	default:
		t.Error("services were not closed")
	}
}
