package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/telemetry"
)

const defaultHTTPTimeout = 10 * time.Second

// Feed delivers telemetry points into out until the upstream fails or ctx
// is cancelled. Stream returns nil on cancellation and a non-nil error on
// upstream failure; it never closes out.
type Feed interface {
	Stream(ctx context.Context, out chan<- telemetry.Point) error
}

// New returns the Feed matching the configuration. The "simulate" mode has
// no external upstream and is handled by the monitor itself.
func New(cfg config.FeedConfig) (Feed, error) {
	switch cfg.Mode {
	case "sse":
		return NewSSE(cfg.Endpoint), nil
	case "prometheus":
		return NewProm(cfg.Endpoint, cfg.PollInterval), nil
	default:
		return nil, fmt.Errorf("feed: unsupported mode %q", cfg.Mode)
	}
}

// httpClient builds the client shared by both feed kinds. SSE responses
// never complete, so the overall timeout stays unset; dial and TLS
// handshake limits come from http.DefaultTransport.
func httpClient(streaming bool) *http.Client {
	if streaming {
		return &http.Client{}
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
