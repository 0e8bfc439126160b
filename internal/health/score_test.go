package health

import (
	"math"
	"testing"
	"time"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

var baseTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func point(t1, t2, g1, g2, ro, temp, vib, em float64) telemetry.Point {
	return telemetry.New(baseTime, [telemetry.NumMetrics]float64{
		telemetry.T1:        t1,
		telemetry.T2:        t2,
		telemetry.Gate1Q:    g1,
		telemetry.Gate2Q:    g2,
		telemetry.Readout:   ro,
		telemetry.Temp:      temp,
		telemetry.Vibration: vib,
		telemetry.EM:        em,
	})
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestScoreExtremes(t *testing.T) {
	best := point(130, 100, 99.9, 99.6, 0.4, 0.006, 0, 0)
	if got := Score(best); got != 100.0 {
		t.Fatalf("Score(best case) = %v, want 100.0", got)
	}

	worst := point(18, 12, 98.8, 97.2, 6.5, 0.05, 3.0, 3.0)
	if got := Score(worst); got != 0.0 {
		t.Fatalf("Score(worst case) = %v, want 0.0", got)
	}
}

func TestScoreNominalOperatingPoint(t *testing.T) {
	p := point(85, 55, 99.55, 98.70, 2.2, 0.012, 0.7, 0.8)
	got := Score(p)
	if !almostEqual(got, 65.3, 1e-9) {
		t.Fatalf("Score(nominal) = %v, want 65.3", got)
	}
}

func TestScoreRoundedToOneDecimal(t *testing.T) {
	pts := []telemetry.Point{
		point(85, 55, 99.55, 98.70, 2.2, 0.012, 0.7, 0.8),
		point(61.3, 44.7, 99.31, 98.12, 3.17, 0.0149, 1.12, 0.93),
		point(101.9, 71.2, 99.77, 99.21, 1.44, 0.0101, 0.41, 0.55),
	}
	for _, p := range pts {
		got := Score(p)
		scaled := got * 10
		if !almostEqual(scaled, math.Round(scaled), 1e-9) {
			t.Errorf("Score = %v, want one-decimal precision", got)
		}
		if got < 0 || got > 100 {
			t.Errorf("Score = %v, want within [0, 100]", got)
		}
	}
}

func TestScoreMonotonicInT1(t *testing.T) {
	high := point(100, 55, 99.55, 98.70, 2.2, 0.012, 0.7, 0.8)
	low := point(50, 55, 99.55, 98.70, 2.2, 0.012, 0.7, 0.8)
	if Score(low) >= Score(high) {
		t.Fatalf("Score(t1=50) = %v >= Score(t1=100) = %v, want lower", Score(low), Score(high))
	}
}

func TestElevatedTemperatureLowersScore(t *testing.T) {
	cold := point(85, 55, 99.55, 98.70, 2.2, 0.012, 0.7, 0.8)
	warm := point(85, 55, 99.55, 98.70, 2.2, 0.032, 0.7, 0.8)
	if Score(warm) >= Score(cold) {
		t.Fatalf("Score(32 mK) = %v >= Score(12 mK) = %v, want lower", Score(warm), Score(cold))
	}
}

func TestBreakdownSubScoresInRange(t *testing.T) {
	_, b := ScoreWithBreakdown(point(61.3, 44.7, 99.31, 98.12, 3.17, 0.0149, 1.12, 0.93))
	subs := map[string]float64{
		"t1": b.T1, "t2": b.T2, "gate1q": b.Gate1Q,
		"gate2q": b.Gate2Q, "readout": b.Readout, "env": b.Env,
	}
	for name, v := range subs {
		if v < 0 || v > 1 {
			t.Errorf("sub-score %s = %v, want within [0, 1]", name, v)
		}
	}
}

func TestReadoutIsInverted(t *testing.T) {
	_, lowErr := ScoreWithBreakdown(point(85, 55, 99.55, 98.70, 0.5, 0.012, 0.7, 0.8))
	_, highErr := ScoreWithBreakdown(point(85, 55, 99.55, 98.70, 6.0, 0.012, 0.7, 0.8))
	if lowErr.Readout <= highErr.Readout {
		t.Fatalf("Readout sub-score: low error %v <= high error %v, want higher for lower error", lowErr.Readout, highErr.Readout)
	}
}
