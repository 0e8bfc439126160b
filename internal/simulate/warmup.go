package simulate

import (
	"math"
	"time"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// Nominal starting values for the warmup trend, per metric.
var warmupBase = [telemetry.NumMetrics]float64{
	telemetry.T1:        85,
	telemetry.T2:        55,
	telemetry.Gate1Q:    99.55,
	telemetry.Gate2Q:    98.70,
	telemetry.Readout:   2.2,
	telemetry.Temp:      0.012,
	telemetry.Vibration: 0.7,
	telemetry.EM:        0.8,
}

// Total linear drift applied across the whole warmup window.
var warmupRamp = [telemetry.NumMetrics]float64{
	telemetry.T1:        -3,
	telemetry.T2:        -2,
	telemetry.Gate1Q:    -0.04,
	telemetry.Gate2Q:    -0.08,
	telemetry.Readout:   0.3,
	telemetry.Temp:      0.001,
	telemetry.Vibration: 0.1,
	telemetry.EM:        0.1,
}

// Amplitude of the sinusoidal perturbation layered on the ramp.
var warmupAmp = [telemetry.NumMetrics]float64{
	telemetry.T1:        1.2,
	telemetry.T2:        1.0,
	telemetry.Gate1Q:    0.015,
	telemetry.Gate2Q:    0.04,
	telemetry.Readout:   0.12,
	telemetry.Temp:      0.0006,
	telemetry.Vibration: 0.06,
	telemetry.EM:        0.07,
}

// warmupPeriod is the sinusoid period in samples.
const warmupPeriod = 16

// Warmup synthesises n samples of smooth cold-start history, spaced
// interval apart and ending at end. The trend is a deterministic linear
// ramp plus a sinusoid, so the drift model warms up against a
// non-degenerate but well-behaved window before live ticking begins.
func Warmup(n int, end time.Time, interval time.Duration) []telemetry.Point {
	if n <= 0 {
		return nil
	}
	out := make([]telemetry.Point, 0, n)
	for i := 0; i < n; i++ {
		progress := 0.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		phase := 2 * math.Pi * float64(i) / warmupPeriod

		var vals [telemetry.NumMetrics]float64
		for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
			pp := metricParams[m]
			v := warmupBase[m] + warmupRamp[m]*progress + warmupAmp[m]*math.Sin(phase)
			vals[m] = clamp(v, pp.lo, pp.hi)
		}

		at := end.Add(-time.Duration(n-1-i) * interval)
		out = append(out, telemetry.New(at, vals))
	}
	return out
}
