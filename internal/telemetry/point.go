package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metric identifies one of the eight tracked processor metrics.
// The set is fixed; per-metric state elsewhere is stored in
// [NumMetrics]-sized arrays indexed by Metric.
type Metric int

const (
	T1 Metric = iota // relaxation time, µs
	T2               // dephasing time, µs
	Gate1Q           // single-qubit gate fidelity, %
	Gate2Q           // two-qubit gate fidelity, %
	Readout          // readout error, %
	Temp             // mixing-chamber temperature, K
	Vibration        // vibration magnitude, a.u.
	EM               // electromagnetic noise magnitude, a.u.

	NumMetrics // number of metrics; keep last
)

// metricNames maps Metric values to their wire/display names.
var metricNames = [NumMetrics]string{
	"t1", "t2", "gate1q", "gate2q", "readout", "temp", "vibration", "em",
}

// String returns the wire name of the metric ("t1", "gate2q", ...).
func (m Metric) String() string {
	if m < 0 || m >= NumMetrics {
		return fmt.Sprintf("metric(%d)", int(m))
	}
	return metricNames[m]
}

// Point is one timestamped telemetry sample. All eight metrics are always
// present. The JSON field set is the wire format exchanged with the
// upstream feed and the dashboard.
type Point struct {
	TS    int64  `json:"ts"`    // milliseconds since the Unix epoch
	Label string `json:"label"` // wall-clock HH:MM:SS, for chart axes

	T1        float64 `json:"t1"`
	T2        float64 `json:"t2"`
	Gate1Q    float64 `json:"gate1q"`
	Gate2Q    float64 `json:"gate2q"`
	Readout   float64 `json:"readout"`
	Temp      float64 `json:"temp"`
	Vibration float64 `json:"vibration"`
	EM        float64 `json:"em"`
}

// New builds a Point at the given time from an array of metric values
// indexed by Metric. The label is derived from ts in local time.
func New(ts time.Time, vals [NumMetrics]float64) Point {
	p := Point{
		TS:    ts.UnixMilli(),
		Label: ts.Format("15:04:05"),
	}
	for m := Metric(0); m < NumMetrics; m++ {
		p.Set(m, vals[m])
	}
	return p
}

// Value returns the sample's value for the given metric.
func (p Point) Value(m Metric) float64 {
	switch m {
	case T1:
		return p.T1
	case T2:
		return p.T2
	case Gate1Q:
		return p.Gate1Q
	case Gate2Q:
		return p.Gate2Q
	case Readout:
		return p.Readout
	case Temp:
		return p.Temp
	case Vibration:
		return p.Vibration
	case EM:
		return p.EM
	}
	return 0
}

// Set assigns the sample's value for the given metric.
func (p *Point) Set(m Metric, v float64) {
	switch m {
	case T1:
		p.T1 = v
	case T2:
		p.T2 = v
	case Gate1Q:
		p.Gate1Q = v
	case Gate2Q:
		p.Gate2Q = v
	case Readout:
		p.Readout = v
	case Temp:
		p.Temp = v
	case Vibration:
		p.Vibration = v
	case EM:
		p.EM = v
	}
}

// Values returns all metric values as an array indexed by Metric.
func (p Point) Values() [NumMetrics]float64 {
	var out [NumMetrics]float64
	for m := Metric(0); m < NumMetrics; m++ {
		out[m] = p.Value(m)
	}
	return out
}

// Time returns the sample timestamp as a time.Time.
func (p Point) Time() time.Time {
	return time.UnixMilli(p.TS)
}

// Parse decodes one wire-format JSON record into a Point.
// Records that do not decode, or that carry no timestamp, are rejected;
// callers are expected to drop such records without touching any state.
func Parse(data []byte) (Point, error) {
	var p Point
	if err := json.Unmarshal(data, &p); err != nil {
		return Point{}, fmt.Errorf("telemetry: parse point: %w", err)
	}
	if p.TS <= 0 {
		return Point{}, fmt.Errorf("telemetry: parse point: missing or invalid ts %d", p.TS)
	}
	return p, nil
}
