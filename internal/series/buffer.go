package series

import (
	"sync"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// DefaultCap is the buffer capacity used when the config does not set one.
const DefaultCap = 90

// Buffer is a fixed-capacity FIFO of telemetry points. Appending beyond
// the capacity evicts the oldest entry. Insertion order is preserved.
//
// The monitor loop is the only writer; API handlers read concurrently,
// so reads and writes are guarded by a mutex.
type Buffer struct {
	mu     sync.RWMutex
	points []telemetry.Point
	cap    int
}

// NewBuffer returns an empty buffer holding at most capacity points.
// A capacity <= 0 falls back to DefaultCap.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Buffer{
		points: make([]telemetry.Point, 0, capacity),
		cap:    capacity,
	}
}

// Append adds p as the newest entry, evicting the oldest if full.
func (b *Buffer) Append(p telemetry.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.points) >= b.cap {
		copy(b.points, b.points[1:])
		b.points = b.points[:len(b.points)-1]
	}
	b.points = append(b.points, p)
}

// Len returns the number of points currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return b.cap
}

// Last returns a copy of the most recent n points, oldest first.
// If fewer than n points are held, all of them are returned.
func (b *Buffer) Last(n int) []telemetry.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n > len(b.points) {
		n = len(b.points)
	}
	if n <= 0 {
		return nil
	}
	out := make([]telemetry.Point, n)
	copy(out, b.points[len(b.points)-n:])
	return out
}

// All returns a copy of every held point, oldest first.
func (b *Buffer) All() []telemetry.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]telemetry.Point, len(b.points))
	copy(out, b.points)
	return out
}

// Latest returns the newest point and whether the buffer is non-empty.
func (b *Buffer) Latest() (telemetry.Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.points) == 0 {
		return telemetry.Point{}, false
	}
	return b.points[len(b.points)-1], true
}
