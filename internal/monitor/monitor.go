package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cryowatch/cryowatch/internal/alerts"
	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/drift"
	"github.com/cryowatch/cryowatch/internal/feed"
	"github.com/cryowatch/cryowatch/internal/health"
	"github.com/cryowatch/cryowatch/internal/series"
	"github.com/cryowatch/cryowatch/internal/simulate"
	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// Statuses surfaced to the API and WebSocket clients.
const (
	StatusRunning = "running"
	StatusPaused  = "paused"
	StatusError   = "error" // upstream feed failed; no ticks until restart
	StatusStopped = "stopped"
)

// warmupLen is the number of synthetic cold-start samples fed through the
// model before live ticking begins in simulate mode.
const warmupLen = 30

// Tuning is the runtime-adjustable part of the configuration.
type Tuning struct {
	Thresholds  config.Thresholds  `json:"thresholds"`
	Sensitivity config.Sensitivity `json:"sensitivity"`
}

// Snapshot is a point-in-time copy of the monitor's externally visible
// state, safe to hand to API handlers.
type Snapshot struct {
	Status      string
	Error       string
	DriftScore  float64
	HealthScore float64
	Dominant    string // metric with the largest z on the last tick
	LastPoint   telemetry.Point
	HasPoint    bool
	Tuning      Tuning
}

// Update is the per-tick envelope pushed to the WebSocket hub.
type Update struct {
	Point       telemetry.Point `json:"point"`
	DriftScore  float64         `json:"drift_score"`
	HealthScore float64         `json:"health_score"`
	Status      string          `json:"status"`
	Alerts      []alerts.Alert  `json:"alerts,omitempty"`
}

type cmdKind int

const (
	cmdPause cmdKind = iota
	cmdResume
	cmdReset
	cmdRestart
	cmdTune
)

type command struct {
	kind   cmdKind
	tuning Tuning
}

// Monitor runs the telemetry pipeline. Construct with New, optionally set
// OnUpdate, then call Run in a goroutine.
type Monitor struct {
	gen      *simulate.Generator
	fd       feed.Feed
	feedCfg  config.FeedConfig
	tick     time.Duration
	buf      *series.Buffer
	log      *alerts.Log
	eval     *alerts.Evaluator
	cmds     chan command
	now      func() time.Time // injectable for deterministic tests
	onUpdate func(Update)

	// Loop-owned state; only touched from Run.
	state  drift.State
	seeded bool
	tuning Tuning
	status string
	errMsg string

	mu   sync.RWMutex
	snap Snapshot
}

// Option customises a Monitor.
type Option func(*Monitor)

// WithFeed attaches an external feed; the simulator is then unused.
func WithFeed(f feed.Feed) Option {
	return func(m *Monitor) { m.fd = f }
}

// WithGenerator overrides the default time-seeded simulator source.
func WithGenerator(g *simulate.Generator) Option {
	return func(m *Monitor) { m.gen = g }
}

// WithClock overrides time.Now for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// New builds a Monitor from the configuration.
func New(cfg *config.Config, opts ...Option) *Monitor {
	m := &Monitor{
		tick:    cfg.Monitor.TickInterval,
		feedCfg: cfg.Feed,
		buf:     series.NewBuffer(cfg.Monitor.BufferSize),
		log:     alerts.NewLog(cfg.Monitor.AlertLogSize),
		eval:    alerts.NewEvaluator(),
		cmds:    make(chan command, 16),
		now:     time.Now,
		tuning: Tuning{
			Thresholds:  cfg.Monitor.Thresholds.Clamped(),
			Sensitivity: cfg.Monitor.Sensitivity,
		},
		status: StatusRunning,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.gen == nil {
		m.gen = simulate.NewGenerator(nil)
	}
	m.publish(Update{}, false)
	return m
}

// OnUpdate registers the per-tick callback (the WebSocket hub). Must be
// called before Run.
func (m *Monitor) OnUpdate(fn func(Update)) {
	m.onUpdate = fn
}

// Buffer exposes the sliding sample window for read-only use.
func (m *Monitor) Buffer() *series.Buffer { return m.buf }

// Alerts exposes the alert log for read-only use.
func (m *Monitor) Alerts() *alerts.Log { return m.log }

// Snapshot returns a copy of the externally visible state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Pause suspends tick processing without discarding any state.
func (m *Monitor) Pause() { m.cmds <- command{kind: cmdPause} }

// Resume continues processing from the exact prior state.
func (m *Monitor) Resume() { m.cmds <- command{kind: cmdResume} }

// ResetBaseline reinitialises the drift model from the latest sample.
func (m *Monitor) ResetBaseline() { m.cmds <- command{kind: cmdReset} }

// Restart re-dials a failed feed. No-op unless the status is error.
func (m *Monitor) Restart() { m.cmds <- command{kind: cmdRestart} }

// Tune applies new thresholds and sensitivity. Thresholds are clamped
// into their valid ranges, never rejected.
func (m *Monitor) Tune(t Tuning) {
	m.cmds <- command{kind: cmdTune, tuning: t}
}

// Run executes the pipeline until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.fd != nil {
		m.runFed(ctx)
	} else {
		m.runSimulated(ctx)
	}
	m.setStatus(StatusStopped, "")
}

// runSimulated warms the model up on synthetic history, then ticks the
// generator at the configured interval.
func (m *Monitor) runSimulated(ctx context.Context) {
	m.warmup()

	t := time.NewTicker(m.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-m.cmds:
			m.handleCommand(c)

		case <-t.C:
			if m.status != StatusRunning {
				continue
			}
			prev, ok := m.buf.Latest()
			if !ok {
				continue
			}
			intensity := m.tuning.Sensitivity.Intensity()
			p := m.gen.Next(prev, m.now(), intensity, m.gen.RollSpike())
			m.process(p)
		}
	}
}

// runFed consumes an external feed. A feed failure parks the monitor in
// the error state; reconnection only happens with feed.reconnect enabled
// (backoff) or an explicit Restart command.
func (m *Monitor) runFed(ctx context.Context) {
	points := make(chan telemetry.Point, 16)
	feedErr := make(chan error, 1)
	bo := feed.NewBackoff()

	start := func() {
		go func() { feedErr <- m.fd.Stream(ctx, points) }()
	}
	start()

	var retry <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-m.cmds:
			if c.kind == cmdRestart {
				if m.status == StatusError && retry == nil {
					slog.Info("monitor: feed restart requested")
					start()
				}
				continue
			}
			m.handleCommand(c)

		case p := <-points:
			if m.status == StatusError {
				// First sample after a reconnect: back to normal.
				m.setStatus(StatusRunning, "")
				bo.Reset()
			}
			if m.status != StatusRunning {
				// Paused: drop the sample, keep all state.
				continue
			}
			m.process(p)

		case err := <-feedErr:
			if err == nil {
				// Stream returned due to ctx cancellation.
				return
			}
			slog.Error("monitor: feed failed", "err", err)
			m.setStatus(StatusError, err.Error())
			if m.feedCfg.Reconnect {
				wait := bo.Next()
				slog.Info("monitor: reconnecting", "retry_in", wait)
				retry = time.After(wait)
			}

		case <-retry:
			retry = nil
			start()
		}
	}
}

// warmup seeds the model and window from the synthetic cold-start trend.
// Warmup samples update the model but are not alert-evaluated.
func (m *Monitor) warmup() {
	pts := simulate.Warmup(warmupLen, m.now(), m.tick)
	if len(pts) == 0 {
		return
	}
	m.state = drift.Init(pts[0])
	m.seeded = true
	alpha := m.tuning.Sensitivity.Alpha()
	for _, p := range pts {
		m.buf.Append(p)
		m.state = drift.Update(m.state, p, alpha)
	}
	last := pts[len(pts)-1]
	m.publish(Update{
		Point:       last,
		HealthScore: health.Score(last),
		Status:      m.status,
	}, true)
	slog.Info("monitor: warmup complete", "samples", len(pts))
}

// process runs one sample through the full pipeline: window append, drift
// scoring against the pre-update state, model update, health scoring,
// alert evaluation, and publication.
func (m *Monitor) process(p telemetry.Point) {
	if !m.seeded {
		m.state = drift.Init(p)
		m.seeded = true
	}
	m.buf.Append(p)

	score := drift.Score(m.state, p)
	dominant := drift.Dominant(m.state, p)
	m.state = drift.Update(m.state, p, m.tuning.Sensitivity.Alpha())

	h := health.Score(p)

	newAlerts := m.eval.Evaluate(p, score, m.buf.All(), m.tuning.Thresholds)
	m.log.Append(newAlerts...)
	for _, a := range newAlerts {
		slog.Warn("monitor: alert",
			"severity", a.Severity, "title", a.Title, "id", a.ID)
	}

	m.mu.Lock()
	m.snap = Snapshot{
		Status:      m.status,
		Error:       m.errMsg,
		DriftScore:  score,
		HealthScore: h,
		Dominant:    dominant.String(),
		LastPoint:   p,
		HasPoint:    true,
		Tuning:      m.tuning,
	}
	m.mu.Unlock()

	if m.onUpdate != nil {
		m.onUpdate(Update{
			Point:       p,
			DriftScore:  score,
			HealthScore: h,
			Status:      m.status,
			Alerts:      newAlerts,
		})
	}

	slog.Debug("monitor: tick",
		"drift_score", score, "health", h, "alerts", len(newAlerts))
}

// handleCommand applies one serialized control operation.
func (m *Monitor) handleCommand(c command) {
	switch c.kind {
	case cmdPause:
		if m.status == StatusRunning {
			m.setStatus(StatusPaused, "")
			slog.Info("monitor: paused")
		}

	case cmdResume:
		if m.status == StatusPaused {
			m.setStatus(StatusRunning, "")
			slog.Info("monitor: resumed")
		}

	case cmdReset:
		if latest, ok := m.buf.Latest(); ok {
			m.state = drift.Init(latest)
			m.seeded = true
			slog.Info("monitor: baseline reset", "ts", latest.TS)
		}

	case cmdTune:
		t := c.tuning
		t.Thresholds = t.Thresholds.Clamped()
		switch t.Sensitivity {
		case config.SensitivityLow, config.SensitivityMedium, config.SensitivityHigh:
		default:
			t.Sensitivity = m.tuning.Sensitivity
		}
		m.tuning = t
		m.mu.Lock()
		m.snap.Tuning = t
		m.mu.Unlock()
		slog.Info("monitor: tuning applied",
			"drift_warn", t.Thresholds.DriftWarn,
			"drift_critical", t.Thresholds.DriftCritical,
			"sensitivity", t.Sensitivity)
	}
}

// setStatus records a status transition and mirrors it into the snapshot.
func (m *Monitor) setStatus(status, errMsg string) {
	m.status = status
	m.errMsg = errMsg
	m.mu.Lock()
	m.snap.Status = status
	m.snap.Error = errMsg
	m.mu.Unlock()
}

// publish replaces the snapshot wholesale; used at construction and after
// warmup, before the first live tick.
func (m *Monitor) publish(u Update, hasPoint bool) {
	m.mu.Lock()
	m.snap = Snapshot{
		Status:      m.status,
		Error:       m.errMsg,
		DriftScore:  u.DriftScore,
		HealthScore: u.HealthScore,
		LastPoint:   u.Point,
		HasPoint:    hasPoint,
		Tuning:      m.tuning,
	}
	m.mu.Unlock()
}
