package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
)

// one transport per process so the embedding and generation servers reuse keep-alive connections
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

func NewPooledClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.HTTPTimeout
	}
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}

// CloseIdleConnections is called on shutdown.
func CloseIdleConnections() {
	customTransport.CloseIdleConnections()
}
