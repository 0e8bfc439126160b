package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/telemetry"
)

func sseBody(records ...string) string {
	out := ": keep-alive comment\n\n"
	for _, r := range records {
		out += "event: sample\ndata: " + r + "\n\n"
	}
	return out
}

func collect(out <-chan telemetry.Point, n int, timeout time.Duration) []telemetry.Point {
	var got []telemetry.Point
	deadline := time.After(timeout)
	for len(got) < n {
		select {
		case p := <-out:
			got = append(got, p)
		case <-deadline:
			return got
		}
	}
	return got
}

func TestSSEStreamForwardsPoints(t *testing.T) {
	body := sseBody(
		`{"ts":1700000000000,"t1":92.5,"t2":58.1,"gate1q":99.61,"gate2q":98.77,"readout":2.05,"temp":0.0121,"vibration":0.68,"em":0.82}`,
		`not json at all`,
		`{"t1":90.0}`,
		`{"ts":1700000002000,"t1":91.8,"t2":57.9,"gate1q":99.60,"gate2q":98.75,"readout":2.10,"temp":0.0122,"vibration":0.70,"em":0.83}`,
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	out := make(chan telemetry.Point, 8)
	err := NewSSE(srv.URL).Stream(context.Background(), out)
	if err == nil {
		t.Fatal("Stream returned nil after the upstream closed, want error")
	}

	got := collect(out, 2, time.Second)
	if len(got) != 2 {
		t.Fatalf("received %d points, want 2 (malformed records dropped)", len(got))
	}
	if got[0].TS != 1700000000000 || got[1].TS != 1700000002000 {
		t.Fatalf("points = %v, %v; wrong records forwarded", got[0].TS, got[1].TS)
	}
}

func TestSSEStreamNilOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"ts\":1700000000000,\"t1\":92.5}\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan telemetry.Point, 1)

	done := make(chan error, 1)
	go func() { done <- NewSSE(srv.URL).Stream(ctx, out) }()

	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatal("no point received before cancel")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stream after cancel = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stream did not return after cancel")
	}
}

func TestSSEStreamRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewSSE(srv.URL).Stream(context.Background(), make(chan telemetry.Point, 1))
	if err == nil {
		t.Fatal("Stream against a 503 endpoint returned nil, want error")
	}
}

func TestFeedFactory(t *testing.T) {
	if _, err := New(config.FeedConfig{Mode: "sse", Endpoint: "http://localhost:1/stream"}); err != nil {
		t.Errorf("New(sse) = %v, want feed", err)
	}
	if _, err := New(config.FeedConfig{Mode: "prometheus", Endpoint: "http://localhost:1/metrics", PollInterval: time.Second}); err != nil {
		t.Errorf("New(prometheus) = %v, want feed", err)
	}
	if _, err := New(config.FeedConfig{Mode: "simulate"}); err == nil {
		t.Error("New(simulate) built a feed, want error")
	}
}
