package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHttpStatusRecorder(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
		want    int
	}{
		{"implicit ok", func(w http.ResponseWriter) { _, _ = w.Write([]byte("hi")) }, http.StatusOK},
		{"explicit status", func(w http.ResponseWriter) { w.WriteHeader(http.StatusTeapot) }, http.StatusTeapot},
		{"first status wins", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadRequest)
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusBadRequest},
		{"write before header", func(w http.ResponseWriter) {
			_, _ = w.Write([]byte("x"))
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &HttpStatusRecorder{ResponseWriter: httptest.NewRecorder(), Status: http.StatusOK}
			tt.handler(rec)
			if rec.Status != tt.want {
				t.Errorf("status %d, want %d", rec.Status, tt.want)
			}
		})
	}
}

func TestCounters(t *testing.T) {
	chunksBefore := testutil.ToFloat64(ingestedChunks)
	pagesBefore := testutil.ToFloat64(skippedPages)

	AddIngestedChunks(7)
	AddSkippedPages(2)

	if got := testutil.ToFloat64(ingestedChunks) - chunksBefore; got != 7 {
		t.Errorf("ingested chunks grew by %v", got)
	}
	if got := testutil.ToFloat64(skippedPages) - pagesBefore; got != 2 {
		t.Errorf("skipped pages grew by %v", got)
	}
}

func TestHistograms(t *testing.T) {
	CaptureExecutionMetrics("embedding", 20*time.Millisecond)
	CaptureChatMetrics("success", time.Second)

	if testutil.CollectAndCount(dependencyLatency, "dependency_latency_seconds") == 0 {
		t.Error("dependency latency not collected")
	}
	if testutil.CollectAndCount(requestDuration, "chat_request_duration_seconds") == 0 {
		t.Error("chat duration not collected")
	}
}
