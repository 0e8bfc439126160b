package alerts

import (
	"fmt"
	"sync/atomic"

	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// Severity levels, ordered by urgency.
const (
	SeverityInfo     = "info"
	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// Fixed rule thresholds. The drift cutoffs come from config; these do not.
const (
	tempWarnKelvin = 0.03 // cryostat temperature rule
	envWarnLevel   = 2.0  // vibration/EM rule
	envCritLevel   = 2.4  // escalation point for the same rule

	trendHalf    = 12  // samples per half of the trend comparison
	trendMinHist = 2 * trendHalf
	trendDropUS  = 1.4 // µs of mean-t1 decline that triggers the rule
)

// Alert is one immutable alert event.
type Alert struct {
	ID       string  `json:"id"`
	TS       int64   `json:"ts"` // milliseconds since the Unix epoch
	Severity string  `json:"severity"`
	Title    string  `json:"title"`
	Detail   string  `json:"detail"`
	Qubit    string  `json:"qubit,omitempty"` // optional affected sub-device
	Value    float64 `json:"-"`               // triggering value, for logs/tests
}

// Evaluator applies the fixed rule set to each scored sample.
// IDs combine a process-wide monotonic counter with the sample timestamp,
// so they cannot collide within a process run.
type Evaluator struct {
	seq atomic.Uint64
}

// NewEvaluator returns a ready-to-use Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate inspects one sample together with its composite drift score and
// the trailing window of recent samples (oldest first, including p itself)
// and returns zero or more alerts.
//
// The two drift severities are mutually exclusive; every other rule fires
// independently of the rest.
func (e *Evaluator) Evaluate(p telemetry.Point, driftScore float64, window []telemetry.Point, th config.Thresholds) []Alert {
	var out []Alert

	switch {
	case driftScore >= th.DriftCritical:
		out = append(out, e.newAlert(p, SeverityCritical, "Drift critical",
			fmt.Sprintf("Composite drift score %.2f exceeded the critical threshold %.2f.", driftScore, th.DriftCritical),
			"", driftScore))
	case driftScore >= th.DriftWarn:
		out = append(out, e.newAlert(p, SeverityWarn, "Drift warning",
			fmt.Sprintf("Composite drift score %.2f exceeded the warning threshold %.2f.", driftScore, th.DriftWarn),
			"", driftScore))
	}

	if p.Temp >= tempWarnKelvin {
		out = append(out, e.newAlert(p, SeverityWarn, "Cryostat temperature elevated",
			fmt.Sprintf("Mixing-chamber temperature %.1f mK is above the %.0f mK operating ceiling.", p.Temp*1000, tempWarnKelvin*1000),
			"cryostat", p.Temp))
	}

	if p.Vibration >= envWarnLevel || p.EM >= envWarnLevel {
		sev := SeverityWarn
		if p.Vibration > envCritLevel || p.EM > envCritLevel {
			sev = SeverityCritical
		}
		out = append(out, e.newAlert(p, sev, "Environmental noise high",
			fmt.Sprintf("Vibration %.2f, EM %.2f: coherence and readout will degrade while this persists.", p.Vibration, p.EM),
			"", maxFloat(p.Vibration, p.EM)))
	}

	if a, ok := e.trendAlert(p, window); ok {
		out = append(out, a)
	}

	return out
}

// trendAlert is the only rule that looks at history rather than the
// instantaneous sample: with at least trendMinHist points, it compares
// the mean t1 of the most recent half-window against the half before it.
func (e *Evaluator) trendAlert(p telemetry.Point, window []telemetry.Point) (Alert, bool) {
	if len(window) < trendMinHist {
		return Alert{}, false
	}
	recent := window[len(window)-trendHalf:]
	prior := window[len(window)-trendMinHist : len(window)-trendHalf]

	recentMean := meanT1(recent)
	priorMean := meanT1(prior)
	drop := priorMean - recentMean
	if drop <= trendDropUS {
		return Alert{}, false
	}

	return e.newAlert(p, SeverityInfo, "Coherence degrading",
		fmt.Sprintf("Mean T1 fell from %.1f µs to %.1f µs over the last %d samples.", priorMean, recentMean, trendHalf),
		"", drop), true
}

func (e *Evaluator) newAlert(p telemetry.Point, severity, title, detail, qubit string, value float64) Alert {
	return Alert{
		ID:       fmt.Sprintf("alt-%d-%d", p.TS, e.seq.Add(1)),
		TS:       p.TS,
		Severity: severity,
		Title:    title,
		Detail:   detail,
		Qubit:    qubit,
		Value:    value,
	}
}

func meanT1(pts []telemetry.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		sum += p.T1
	}
	return sum / float64(len(pts))
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// severityRank orders severities by urgency for sorting and comparisons.
func severityRank(s string) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}
