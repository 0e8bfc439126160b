package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// SpikeProbability is the per-tick chance of a transient fault event.
// The roll is the caller's decision (via RollSpike); the generator only
// applies the degradation when told to.
const SpikeProbability = 0.065

// Nominal operating point of the environmental channels, used as the
// reference for the push term.
const (
	nominalTemp = 0.012
	nominalVib  = 0.7
	nominalEM   = 0.8
)

// Environmental push is clamped to this band before it is applied.
const maxPush = 2.2

// Source is the uniform random source the generator draws from.
// *rand.Rand satisfies it; tests supply a seeded or scripted source.
type Source interface {
	Float64() float64
}

// params describes one metric's stochastic behaviour: the Gaussian noise
// scale, how strongly the environmental push moves it, the size of a
// fault-spike kick, and the physical clamp range. sign is +1 for metrics
// where "worse" means larger (errors, noise) and -1 where "worse" means
// smaller (coherence, fidelity).
type params struct {
	noise  float64
	push   float64
	spike  float64
	lo, hi float64
	sign   float64
}

var metricParams = [telemetry.NumMetrics]params{
	telemetry.T1:        {noise: 0.9, push: 0.9, spike: 9, lo: 18, hi: 130, sign: -1},
	telemetry.T2:        {noise: 0.8, push: 0.7, spike: 7, lo: 12, hi: 100, sign: -1},
	telemetry.Gate1Q:    {noise: 0.010, push: 0.008, spike: 0.10, lo: 98.8, hi: 99.9, sign: -1},
	telemetry.Gate2Q:    {noise: 0.028, push: 0.030, spike: 0.25, lo: 97.2, hi: 99.6, sign: -1},
	telemetry.Readout:   {noise: 0.06, push: 0.08, spike: 0.9, lo: 0.4, hi: 6.5, sign: 1},
	telemetry.Temp:      {noise: 0.0006, push: 0.0012, spike: 0.008, lo: 0.006, hi: 0.05, sign: 1},
	telemetry.Vibration: {noise: 0.08, push: 0.05, spike: 1.1, lo: 0.2, hi: 3.0, sign: 1},
	telemetry.EM:        {noise: 0.09, push: 0.05, spike: 1.1, lo: 0.2, hi: 3.0, sign: 1},
}

// Generator is the stateless-per-call stochastic process: each Next call
// derives the following sample purely from the previous one plus random
// draws, so the caller owns all persistent state.
type Generator struct {
	rng Source
}

// NewGenerator returns a Generator drawing from rng. A nil rng falls back
// to a time-seeded math/rand source.
func NewGenerator(rng Source) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// RollSpike decides whether this tick carries a fault spike.
func (g *Generator) RollSpike() bool {
	return g.rng.Float64() < SpikeProbability
}

// Next produces the sample following prev, stamped at.
//
// Every metric takes an independent Gaussian step scaled by its noise
// constant and intensity. On top of that, a single environmental push
// (how far the previous temperature/vibration/EM sat from nominal)
// degrades every metric in its bad direction, so an already disturbed
// environment drags coherence and fidelity down with it. A spike adds a
// one-shot kick in the bad direction. Each result is clamped to the
// metric's physical range.
func (g *Generator) Next(prev telemetry.Point, at time.Time, intensity float64, injectSpike bool) telemetry.Point {
	push := envPush(prev)

	var vals [telemetry.NumMetrics]float64
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		pp := metricParams[m]
		v := prev.Value(m) + g.normal()*pp.noise*intensity + pp.sign*push*pp.push
		if injectSpike {
			v += pp.sign * pp.spike * (0.6 + 0.4*g.rng.Float64())
		}
		vals[m] = clamp(v, pp.lo, pp.hi)
	}
	return telemetry.New(at, vals)
}

// envPush condenses the previous environmental readings into one scalar in
// [-maxPush, maxPush]: positive when the environment is disturbed,
// negative when it is calmer than nominal.
func envPush(prev telemetry.Point) float64 {
	p := 1.1*(prev.Temp-nominalTemp)/0.020 +
		0.8*(prev.Vibration-nominalVib)/2.3 +
		0.8*(prev.EM-nominalEM)/2.2
	return clamp(p, -maxPush, maxPush)
}

// normal draws a standard-normal value via the Box–Muller transform.
func (g *Generator) normal() float64 {
	u1 := g.rng.Float64()
	for u1 <= 1e-12 {
		u1 = g.rng.Float64()
	}
	u2 := g.rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
