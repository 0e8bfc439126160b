package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "monitor: {}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.HTTPPort != DefaultHTTPPort {
		t.Errorf("HTTPPort = %d, want %d", cfg.Monitor.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Monitor.TickInterval != DefaultTickInterval {
		t.Errorf("TickInterval = %v, want %v", cfg.Monitor.TickInterval, DefaultTickInterval)
	}
	if cfg.Monitor.BufferSize != DefaultBufferSize {
		t.Errorf("BufferSize = %d, want %d", cfg.Monitor.BufferSize, DefaultBufferSize)
	}
	if cfg.Monitor.Sensitivity != SensitivityMedium {
		t.Errorf("Sensitivity = %q, want medium", cfg.Monitor.Sensitivity)
	}
	if cfg.Monitor.Thresholds.DriftWarn != DefaultDriftWarn {
		t.Errorf("DriftWarn = %v, want %v", cfg.Monitor.Thresholds.DriftWarn, DefaultDriftWarn)
	}
	if cfg.Feed.Mode != "simulate" {
		t.Errorf("Feed.Mode = %q, want simulate", cfg.Feed.Mode)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
monitor:
  http_port: 9090
  tick_interval: 500ms
  buffer_size: 45
  alert_log_size: 20
  sensitivity: high
  thresholds:
    drift_warn: 2.0
    drift_critical: 3.5
feed:
  mode: sse
  endpoint: http://localhost:8000/stream
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d, want 9090", cfg.Monitor.HTTPPort)
	}
	if cfg.Monitor.TickInterval != 500*time.Millisecond {
		t.Errorf("TickInterval = %v, want 500ms", cfg.Monitor.TickInterval)
	}
	if cfg.Monitor.Sensitivity != SensitivityHigh {
		t.Errorf("Sensitivity = %q, want high", cfg.Monitor.Sensitivity)
	}
	if cfg.Feed.Mode != "sse" || cfg.Feed.Endpoint == "" {
		t.Errorf("Feed = %+v, want sse with endpoint", cfg.Feed)
	}
}

func TestLoadClampsThresholds(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
monitor:
  thresholds:
    drift_warn: 0.1
    drift_critical: 9.0
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Monitor.Thresholds.DriftWarn != DriftWarnMin {
		t.Errorf("DriftWarn = %v, want clamp at %v", cfg.Monitor.Thresholds.DriftWarn, DriftWarnMin)
	}
	if cfg.Monitor.Thresholds.DriftCritical != DriftCritMax {
		t.Errorf("DriftCritical = %v, want clamp at %v", cfg.Monitor.Thresholds.DriftCritical, DriftCritMax)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad port", "monitor:\n  http_port: 123456\n", "http_port"},
		{"zero buffer", "monitor:\n  buffer_size: -1\n", "buffer_size"},
		{"bad sensitivity", "monitor:\n  sensitivity: extreme\n", "sensitivity"},
		{"bad auth mode", "monitor:\n  auth:\n    mode: oauth\n", "auth.mode"},
		{"bad feed mode", "feed:\n  mode: kafka\n", "feed.mode"},
		{"sse without endpoint", "feed:\n  mode: sse\n", "endpoint"},
		{"not yaml", "{{{\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load of a missing file succeeded, want error")
	}
}

func TestThresholdsClampedOrdering(t *testing.T) {
	got := Thresholds{DriftWarn: 3.8, DriftCritical: 1.2}.Clamped()
	if got.DriftCritical < got.DriftWarn {
		t.Fatalf("Clamped = %+v, critical must not sit below warn", got)
	}
}

func TestSensitivityKnobs(t *testing.T) {
	tests := []struct {
		s         Sensitivity
		alpha     float64
		intensity float64
	}{
		{SensitivityLow, 0.05, 0.6},
		{SensitivityMedium, 0.08, 1.0},
		{SensitivityHigh, 0.12, 1.6},
		{Sensitivity("unknown"), 0.08, 1.0}, // falls back to medium
	}
	for _, tt := range tests {
		if got := tt.s.Alpha(); got != tt.alpha {
			t.Errorf("%q.Alpha() = %v, want %v", tt.s, got, tt.alpha)
		}
		if got := tt.s.Intensity(); got != tt.intensity {
			t.Errorf("%q.Intensity() = %v, want %v", tt.s, got, tt.intensity)
		}
	}
}

func TestAuthConfig(t *testing.T) {
	t.Setenv("CRYOWATCH_TEST_KEY", "s3cret")

	a := AuthConfig{Mode: "apikey", KeyEnv: "CRYOWATCH_TEST_KEY"}
	if got := a.Key(); got != "s3cret" {
		t.Errorf("Key = %q, want s3cret", got)
	}
	if got := a.EffectiveHeader(); got != "x-api-key" {
		t.Errorf("EffectiveHeader = %q, want x-api-key", got)
	}

	a.Header = "x-cryo-key"
	if got := a.EffectiveHeader(); got != "x-cryo-key" {
		t.Errorf("EffectiveHeader = %q, want x-cryo-key", got)
	}

	if got := (AuthConfig{}).Key(); got != "" {
		t.Errorf("Key without key_env = %q, want empty", got)
	}
}
