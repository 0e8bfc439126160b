package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// familyNames maps each metric to the gauge family exported by the fridge
// controller's Prometheus endpoint.
var familyNames = [telemetry.NumMetrics]string{
	telemetry.T1:        "cryo_t1_us",
	telemetry.T2:        "cryo_t2_us",
	telemetry.Gate1Q:    "cryo_gate1q_fidelity_pct",
	telemetry.Gate2Q:    "cryo_gate2q_fidelity_pct",
	telemetry.Readout:   "cryo_readout_error_pct",
	telemetry.Temp:      "cryo_mix_chamber_kelvin",
	telemetry.Vibration: "cryo_vibration_au",
	telemetry.EM:        "cryo_em_noise_au",
}

// Prom polls a Prometheus text exposition endpoint on an interval and
// converts the cryo_* gauge families into telemetry points.
type Prom struct {
	endpoint string
	interval time.Duration
	client   *http.Client
	now      func() time.Time // injectable for deterministic tests
}

// NewProm returns a Prom feed scraping endpoint every interval.
func NewProm(endpoint string, interval time.Duration) *Prom {
	return &Prom{
		endpoint: endpoint,
		interval: interval,
		client:   httpClient(false),
		now:      time.Now,
	}
}

// Stream polls until ctx is cancelled or a scrape fails. A scrape that
// succeeds at the HTTP level but is missing one of the expected families
// is an incomplete sample: it is dropped silently and polling continues.
func (f *Prom) Stream(ctx context.Context, out chan<- telemetry.Point) error {
	t := time.NewTicker(f.interval)
	defer t.Stop()

	slog.Info("feed: prometheus poller started",
		"endpoint", f.endpoint, "interval", f.interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			p, ok, err := f.scrape(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if !ok {
				continue
			}
			select {
			case out <- p:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// scrape fetches and parses one exposition. ok is false when the payload
// parsed but did not carry all eight families.
func (f *Prom) scrape(ctx context.Context) (telemetry.Point, bool, error) {
	mfs, err := f.fetch(ctx)
	if err != nil {
		return telemetry.Point{}, false, err
	}

	var vals [telemetry.NumMetrics]float64
	for m := telemetry.Metric(0); m < telemetry.NumMetrics; m++ {
		v, ok := gaugeValue(mfs[familyNames[m]])
		if !ok {
			slog.Debug("feed: dropped incomplete scrape", "missing", familyNames[m])
			return telemetry.Point{}, false, nil
		}
		vals[m] = v
	}
	return telemetry.New(f.now(), vals), true, nil
}

// fetch performs an HTTP GET and returns parsed metric families.
func (f *Prom) fetch(ctx context.Context) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build scrape request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: scrape %q: %w", f.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: %q returned status %d", f.endpoint, resp.StatusCode)
	}
	return parseFamilies(resp.Body)
}

// parseFamilies decodes a Prometheus text exposition from r.
// A partial result with a non-fatal parse warning is still returned
// successfully.
func parseFamilies(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("feed: parse prometheus text: %w", err)
	}
	return mfs, nil
}

// gaugeValue extracts the first gauge, counter, or untyped value from a
// family. Returns false if mf is nil or carries no usable sample.
func gaugeValue(mf *dto.MetricFamily) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		switch {
		case m.Gauge != nil:
			return m.Gauge.GetValue(), true
		case m.Counter != nil:
			return m.Counter.GetValue(), true
		case m.Untyped != nil:
			return m.Untyped.GetValue(), true
		}
	}
	return 0, false
}
