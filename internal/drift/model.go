package drift

import (
	"math"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// Smoothing factor for the residual mean and variance trackers.
// The baseline alpha is caller-supplied (sensitivity-dependent); the
// residual statistics always adapt at this fixed rate.
const residualAlpha = 0.05

// minVariance is the variance floor below which a metric is treated as
// carrying no signal: its z contribution becomes 0 instead of blowing up.
const minVariance = 1e-9

// weights ranks each metric's diagnostic importance in the composite
// score. Gate fidelities and coherence times dominate; the environmental
// channels mostly matter through their effect on the others.
var weights = [telemetry.NumMetrics]float64{
	telemetry.T1:        1.5,
	telemetry.T2:        1.4,
	telemetry.Gate1Q:    1.6,
	telemetry.Gate2Q:    1.7,
	telemetry.Readout:   1.2,
	telemetry.Temp:      1.0,
	telemetry.Vibration: 0.7,
	telemetry.EM:        0.7,
}

// weightTotal is the sum of all entries in weights.
var weightTotal = func() float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}()

// State holds the adaptive statistics for all eight metrics.
// It is a value type: Update returns a new State and never mutates its
// receiver, so the owning loop can hold the single authoritative copy.
type State struct {
	EMA     [telemetry.NumMetrics]float64 // adaptive baseline per metric
	ResMean [telemetry.NumMetrics]float64 // EMA of the residual
	ResVar  [telemetry.NumMetrics]float64 // EMA of the squared centred residual
}

// Init seeds a State from one sample: the baseline starts at the sample
// values, residual mean at 0, and residual variance at 1 so early z values
// stay modest until the trackers have seen real data.
func Init(seed telemetry.Point) State {
	var s State
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		s.EMA[m] = seed.Value(m)
		s.ResMean[m] = 0
		s.ResVar[m] = 1
	}
	return s
}

// Update advances the state by one sample and returns the new state.
// alpha is the baseline smoothing factor (typically 0.03–0.14, picked by
// the sensitivity setting). Each metric evolves independently:
//
//	ema'     = ema + alpha·(x − ema)
//	residual = x − ema'
//	resMean' = resMean + 0.05·(residual − resMean)
//	resVar'  = resVar  + 0.05·((residual − resMean')² − resVar)
//
// resVar' is a convex blend of resVar and a squared term, so it can reach
// 0 only in the degenerate all-equal case and is never negative.
func Update(s State, p telemetry.Point, alpha float64) State {
	out := s
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		x := p.Value(m)
		ema := s.EMA[m] + alpha*(x-s.EMA[m])
		residual := x - ema
		resMean := s.ResMean[m] + residualAlpha*(residual-s.ResMean[m])
		d := residual - resMean
		resVar := s.ResVar[m] + residualAlpha*(d*d-s.ResVar[m])
		if resVar < 0 {
			resVar = 0
		}

		out.EMA[m] = ema
		out.ResMean[m] = resMean
		out.ResVar[m] = resVar
	}
	return out
}

// Score returns the composite drift score of p against s.
//
// Per metric, z = |x − ema| / sqrt(resVar); metrics whose variance sits
// below minVariance contribute 0. The composite is the weight-normalised
// sum of the eight z values: always finite, always >= 0, unbounded above.
//
// The caller scores against the state from the previous tick and updates
// afterwards, so a fresh excursion is measured against the statistics it
// has not yet contaminated.
func Score(s State, p telemetry.Point) float64 {
	var sum float64
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		sum += weights[m] * z(s, p, m)
	}
	return sum / weightTotal
}

// MetricZ returns the z value of a single metric, using the same residual
// normalisation as Score. Used to name the dominant metric in drift alerts.
func MetricZ(s State, p telemetry.Point, m telemetry.Metric) float64 {
	return z(s, p, m)
}

// Dominant returns the metric with the largest z value for p against s.
func Dominant(s State, p telemetry.Point) telemetry.Metric {
	var best telemetry.Metric
	var bestZ float64
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		if v := z(s, p, m); v > bestZ {
			best, bestZ = m, v
		}
	}
	return best
}

func z(s State, p telemetry.Point, m telemetry.Metric) float64 {
	if s.ResVar[m] < minVariance {
		return 0
	}
	residual := p.Value(m) - s.EMA[m]
	return math.Abs(residual) / math.Sqrt(s.ResVar[m])
}
