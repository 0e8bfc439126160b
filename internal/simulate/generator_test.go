package simulate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fixedSource replays a scripted sequence of uniform draws.
type fixedSource struct {
	vals []float64
	i    int
}

func (s *fixedSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func nominalPoint() telemetry.Point {
	return telemetry.New(baseTime, [telemetry.NumMetrics]float64{
		telemetry.T1:        85,
		telemetry.T2:        55,
		telemetry.Gate1Q:    99.55,
		telemetry.Gate2Q:    98.70,
		telemetry.Readout:   2.2,
		telemetry.Temp:      0.012,
		telemetry.Vibration: 0.7,
		telemetry.EM:        0.8,
	})
}

func TestNextStaysWithinPhysicalRanges(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewSource(7)))
	p := nominalPoint()

	for i := 0; i < 500; i++ {
		at := baseTime.Add(time.Duration(i+1) * 2 * time.Second)
		// Force a spike every fourth step and run at high intensity to
		// push hard against the clamps.
		p = g.Next(p, at, 1.6, i%4 == 0)

		for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
			pp := metricParams[m]
			if v := p.Value(m); v < pp.lo || v > pp.hi {
				t.Fatalf("step %d: %s = %v outside [%v, %v]", i, m, v, pp.lo, pp.hi)
			}
		}
	}
}

func TestNextDeterministicWithSeededSource(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(42)))
	b := NewGenerator(rand.New(rand.NewSource(42)))

	pa, pb := nominalPoint(), nominalPoint()
	for i := 0; i < 50; i++ {
		at := baseTime.Add(time.Duration(i+1) * 2 * time.Second)
		spike := i%7 == 0
		pa = a.Next(pa, at, 1.0, spike)
		pb = b.Next(pb, at, 1.0, spike)
		if pa != pb {
			t.Fatalf("step %d: identical seeds diverged:\n%+v\n%+v", i, pa, pb)
		}
	}
}

func TestRollSpike(t *testing.T) {
	hit := NewGenerator(&fixedSource{vals: []float64{0.01}})
	if !hit.RollSpike() {
		t.Fatal("draw below the spike probability did not roll a spike")
	}
	miss := NewGenerator(&fixedSource{vals: []float64{0.9}})
	if miss.RollSpike() {
		t.Fatal("draw above the spike probability rolled a spike")
	}
}

func TestSpikeDegradesInBadDirection(t *testing.T) {
	// A constant 0.5 source makes every Gaussian draw identical across
	// both runs, so only the spike term separates them.
	calm := NewGenerator(&fixedSource{vals: []float64{0.5}})
	spiked := NewGenerator(&fixedSource{vals: []float64{0.5}})

	p := nominalPoint()
	at := baseTime.Add(2 * time.Second)
	without := calm.Next(p, at, 1.0, false)
	with := spiked.Next(p, at, 1.0, true)

	if with.T1 >= without.T1 {
		t.Errorf("spike raised T1: %v >= %v, want a drop", with.T1, without.T1)
	}
	if with.Readout <= without.Readout {
		t.Errorf("spike lowered readout error: %v <= %v, want a rise", with.Readout, without.Readout)
	}
}

func TestEnvPushClamped(t *testing.T) {
	hot := nominalPoint()
	hot.Temp = 0.05
	hot.Vibration = 3.0
	hot.EM = 3.0
	if got := envPush(hot); got != maxPush {
		t.Fatalf("envPush(disturbed) = %v, want clamp at %v", got, maxPush)
	}

	calm := nominalPoint()
	if got := envPush(calm); got != 0 {
		t.Fatalf("envPush(nominal) = %v, want 0", got)
	}
}

func TestDisturbedEnvironmentDragsCoherence(t *testing.T) {
	// Same seed, same draws: the only difference is the previous
	// environmental state, so the push term decides the direction.
	a := NewGenerator(rand.New(rand.NewSource(11)))
	b := NewGenerator(rand.New(rand.NewSource(11)))

	calm := nominalPoint()
	hot := nominalPoint()
	hot.Temp = 0.04
	hot.Vibration = 2.8
	hot.EM = 2.8

	at := baseTime.Add(2 * time.Second)
	fromCalm := a.Next(calm, at, 1.0, false)
	fromHot := b.Next(hot, at, 1.0, false)

	if fromHot.T1 >= fromCalm.T1 {
		t.Errorf("T1 from disturbed env %v >= from calm env %v, want lower", fromHot.T1, fromCalm.T1)
	}
	if fromHot.Gate2Q >= fromCalm.Gate2Q {
		t.Errorf("Gate2Q from disturbed env %v >= from calm env %v, want lower", fromHot.Gate2Q, fromCalm.Gate2Q)
	}
}
