package alerts

import "sync"

// DefaultLogCap bounds the alert log when the config does not set a cap.
const DefaultLogCap = 50

// Log is a bounded, newest-first alert log. Appending beyond the cap
// silently evicts the oldest entries. The monitor loop is the only
// writer; API handlers and the WebSocket hub read concurrently.
type Log struct {
	mu      sync.RWMutex
	entries []Alert
	cap     int
}

// Counts summarises the log by severity.
type Counts struct {
	Info     int `json:"info"`
	Warn     int `json:"warn"`
	Critical int `json:"critical"`
}

// NewLog returns an empty log holding at most capacity alerts.
// A capacity <= 0 falls back to DefaultLogCap.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultLogCap
	}
	return &Log{cap: capacity}
}

// Append inserts alerts at the front, newest first, trimming to the cap.
func (l *Log) Append(alerts ...Alert) {
	if len(alerts) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Later entries in the batch are newer; prepend in reverse so the
	// newest alert ends up first.
	for i := len(alerts) - 1; i >= 0; i-- {
		l.entries = append([]Alert{alerts[i]}, l.entries...)
	}
	if len(l.entries) > l.cap {
		l.entries = l.entries[:l.cap]
	}
}

// Snapshot returns a copy of the log, newest first.
func (l *Log) Snapshot() []Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Alert, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of alerts currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Cap returns the configured capacity.
func (l *Log) Cap() int {
	return l.cap
}

// Tally counts the held alerts by severity.
func (l *Log) Tally() Counts {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var c Counts
	for _, a := range l.entries {
		switch a.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityWarn:
			c.Warn++
		default:
			c.Info++
		}
	}
	return c
}

// Worst returns the most urgent severity currently in the log, or ""
// when the log is empty.
func (l *Log) Worst() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	worst := ""
	rank := -1
	for _, a := range l.entries {
		if r := severityRank(a.Severity); r > rank {
			worst, rank = a.Severity, r
		}
	}
	return worst
}
