package handlers

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/akolanti/pdfrag/internal/adapter"
	"github.com/akolanti/pdfrag/internal/api"
	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

type pipelineRef struct {
	service rag.Service
}

// ChatHandler serves /chat and /health. It answers 503 until SetPipeline is called.
type ChatHandler struct {
	pipeline atomic.Pointer[pipelineRef]
	logger   *logger_i.Logger
}

func NewChatHandler() *ChatHandler {
	return &ChatHandler{logger: logger_i.NewLogger("RequestHandler")}
}

func (h *ChatHandler) SetPipeline(service rag.Service) {
	h.pipeline.Store(&pipelineRef{service: service})
	h.logger.Info("RAG pipeline ready")
}

func (h *ChatHandler) service() (rag.Service, bool) {
	ref := h.pipeline.Load()
	if ref == nil || ref.service == nil {
		return nil, false
	}
	return ref.service, true
}

// Chat godoc
// @Summary      Ask a question about the ingested documents
// @Description  Embeds the question, retrieves the closest chunks, and answers with page citations.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest    true  "Question and optional conversation history"
// @Success      200      {object}  api.ChatResponse   "Answer with sources"
// @Failure      400      {object}  api.ErrorResponse  "Malformed body, empty question or invalid role"
// @Failure      500      {object}  api.ErrorResponse  "A downstream service failed"
// @Failure      503      {object}  api.ErrorResponse  "Pipeline not initialized yet"
// @Router       /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)

	service, ready := h.service()
	if !ready {
		WriteErrorResponse(w, r, ragErrors.ErrPipelineNotReady)
		return
	}

	var requestData api.ChatRequest
	body := http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(&requestData); err != nil {
		log.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, r, ragErrors.NewValidationError("body", "invalid JSON: %v", err))
		return
	}

	question, history, err := adapter.ToQuestion(requestData)
	if err != nil {
		log.Warn("Bad Chat Request", "error", err)
		WriteErrorResponse(w, r, err)
		return
	}

	log.Info("Chat request", "historyLength", len(history))
	answer, err := service.Answer(r.Context(), question, history)
	if err != nil {
		WriteErrorResponse(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(answer))
}

// Health godoc
// @Summary      Readiness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse  "healthy"
// @Failure      503  {object}  api.HealthResponse  "starting"
// @Router       /health [get]
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, ready := h.service(); !ready {
		writeJsonResponse(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "starting"})
		return
	}
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "healthy"})
}
