package feed

import (
	"math/rand"
	"time"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
)

// Backoff implements truncated exponential backoff with jitter, used by
// the monitor between reconnect attempts when feed.reconnect is enabled.
type Backoff struct {
	current time.Duration
}

// NewBackoff returns a Backoff starting at one second.
func NewBackoff() *Backoff {
	return &Backoff{current: backoffInitial}
}

// Next returns the current backoff duration and advances the internal state.
func (b *Backoff) Next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

// Reset returns the backoff to its initial duration after a healthy
// connection.
func (b *Backoff) Reset() {
	b.current = backoffInitial
}
