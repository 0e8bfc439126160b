package feed

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// ssePrefix marks a data line in a server-sent-events stream.
const ssePrefix = "data:"

// SSE consumes a server-sent-events stream whose data lines each carry
// one JSON point record.
type SSE struct {
	endpoint string
	client   *http.Client
}

// NewSSE returns an SSE feed reading from endpoint.
func NewSSE(endpoint string) *SSE {
	return &SSE{
		endpoint: endpoint,
		client:   httpClient(true),
	}
}

// Stream connects to the endpoint and forwards every well-formed point
// into out. Lines that are not data lines (comments, event names, blank
// keep-alives) are skipped; data lines that fail to parse are dropped
// with a debug log and do not interrupt the stream.
//
// Returns nil when ctx is cancelled, otherwise the connection or read
// error that ended the stream.
func (f *SSE) Stream(ctx context.Context, out chan<- telemetry.Point) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("feed: build sse request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("feed: connect %q: %w", f.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed: %q returned status %d", f.endpoint, resp.StatusCode)
	}

	slog.Info("feed: sse stream connected", "endpoint", f.endpoint)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
		if payload == "" {
			continue
		}

		p, err := telemetry.Parse([]byte(payload))
		if err != nil {
			slog.Debug("feed: dropped malformed record", "err", err)
			continue
		}

		select {
		case out <- p:
		case <-ctx.Done():
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feed: read stream: %w", err)
	}
	return fmt.Errorf("feed: upstream %q closed the stream", f.endpoint)
}
