package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/pdfrag/internal/handlers"
	"github.com/akolanti/pdfrag/internal/metrics"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// Chain runs trace injection and, when a rate is configured, per IP rate limiting in front of a handler.
type Chain struct {
	limiter *IPRateLimiter
}

// NewChain with ratePerSecond <= 0 turns rate limiting off.
func NewChain(ratePerSecond float64, burst int) *Chain {
	c := &Chain{}
	if ratePerSecond > 0 {
		c.limiter = NewIPRateLimiter(rate.Limit(ratePerSecond), burst)
	}
	return c
}

func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := c.processRequest(requestResponseStruct{req: r, writer: rec})

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func (c *Chain) processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	if c.limiter != nil {
		re = c.rateLimiter(re)
	}
	return re
}

func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage)
		if re.req == nil {
			http.Error(re.writer, re.badRequest.errorMessage, re.badRequest.httpCode)
			return false
		}
		handlers.WriteStatus(re.writer, re.req, re.badRequest.httpCode, re.badRequest.errorMessage)
		return false
	}
	return true
}
