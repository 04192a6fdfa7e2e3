package api

// requests---------------------

type ChatMessage struct {
	Role    string `json:"role" example:"user" enums:"system,user,assistant"`
	Content string `json:"content" example:"What is the refund policy?"`
}

type ChatRequest struct {
	Question string        `json:"question" validate:"required" example:"How many days do I have to request a refund?"`
	History  []ChatMessage `json:"history,omitempty"`
}

// responses---------------------

type SourceResponse struct {
	Text       string  `json:"text"`
	PageNumber int     `json:"page_number" example:"3"`
	Source     string  `json:"source" example:"policy.pdf"`
	Score      float64 `json:"score" example:"0.8123"`
}

type ChatResponse struct {
	Answer          string           `json:"answer"`
	Sources         []SourceResponse `json:"sources"`
	Model           string           `json:"model"`
	ChunksRetrieved int              `json:"chunks_retrieved" example:"5"`
}

type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

type ErrorResponse struct {
	Detail  string `json:"detail" example:"question must not be empty"`
	TraceId string `json:"trace_id,omitempty"`
}
