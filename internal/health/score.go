package health

import (
	"math"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// Weight constants for the health score formula. They must sum to 1.0.
const (
	weightT1      = 0.22
	weightT2      = 0.18
	weightGate1Q  = 0.18
	weightGate2Q  = 0.22
	weightReadout = 0.12
	weightEnv     = 0.08
)

// Reference ranges used to normalise each sub-score into [0, 1].
// Values at or below the low end score 0; at or above the high end, 1.
const (
	t1Low, t1High           = 30.0, 110.0 // µs
	t2Low, t2High           = 20.0, 90.0  // µs
	gate1qLow, gate1qHigh   = 98.8, 99.9  // %
	gate2qLow, gate2qHigh   = 97.2, 99.6  // %
	readoutLow, readoutHigh = 0.4, 6.5    // %, lower is better
)

// Environmental pressure normalisation, mirroring the fridge model:
// temperature above its 12 mK setpoint dominates, vibration and EM split
// the remainder.
const (
	tempSetpoint = 0.012
	tempSpan     = 0.020
	envSpan      = 2.5

	envWeightTemp = 0.45
	envWeightVib  = 0.275
	envWeightEM   = 0.275
)

// Breakdown carries the per-dimension sub-scores (each 0–1) behind a
// health score, for rendering per-metric bars in the UI.
type Breakdown struct {
	T1      float64 `json:"t1"`
	T2      float64 `json:"t2"`
	Gate1Q  float64 `json:"gate1q"`
	Gate2Q  float64 `json:"gate2q"`
	Readout float64 `json:"readout"`
	Env     float64 `json:"env"`
}

// Score grades one sample into a health index in [0, 100], rounded to one
// decimal. Each sub-score is a linear clamp against its reference range;
// the weighted combination cannot leave [0, 1] before scaling.
func Score(p telemetry.Point) float64 {
	score, _ := ScoreWithBreakdown(p)
	return score
}

// ScoreWithBreakdown is Score plus the individual sub-scores.
func ScoreWithBreakdown(p telemetry.Point) (float64, Breakdown) {
	b := Breakdown{
		T1:      clamp01((p.T1 - t1Low) / (t1High - t1Low)),
		T2:      clamp01((p.T2 - t2Low) / (t2High - t2Low)),
		Gate1Q:  clamp01((p.Gate1Q - gate1qLow) / (gate1qHigh - gate1qLow)),
		Gate2Q:  clamp01((p.Gate2Q - gate2qLow) / (gate2qHigh - gate2qLow)),
		Readout: 1 - clamp01((p.Readout-readoutLow)/(readoutHigh-readoutLow)),
		Env:     1 - envPenalty(p),
	}

	score := (b.T1*weightT1 +
		b.T2*weightT2 +
		b.Gate1Q*weightGate1Q +
		b.Gate2Q*weightGate2Q +
		b.Readout*weightReadout +
		b.Env*weightEnv) * 100

	return math.Round(score*10) / 10, b
}

// envPenalty aggregates the three environmental channels into one 0–1
// penalty.
func envPenalty(p telemetry.Point) float64 {
	tempP := clamp01((p.Temp - tempSetpoint) / tempSpan)
	vibP := clamp01(p.Vibration / envSpan)
	emP := clamp01(p.EM / envSpan)
	return clamp01(envWeightTemp*tempP + envWeightVib*vibP + envWeightEM*emP)
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
