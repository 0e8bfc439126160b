package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort     = 8080
	DefaultTickInterval = 2 * time.Second
	DefaultBufferSize   = 90
	DefaultAlertLogSize = 50
	DefaultPollInterval = 5 * time.Second

	DefaultDriftWarn     = 1.6
	DefaultDriftCritical = 2.6
)

// Valid ranges for the drift thresholds. Out-of-range values are clamped,
// not rejected, so a sloppy config or API call degrades gracefully.
const (
	DriftWarnMin = 0.8
	DriftWarnMax = 4.0
	DriftCritMin = 1.0
	DriftCritMax = 5.0
)

// Sensitivity selects how aggressively the monitor adapts and how noisy
// the simulator runs.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Alpha returns the drift-model baseline smoothing factor for s.
func (s Sensitivity) Alpha() float64 {
	switch s {
	case SensitivityLow:
		return 0.05
	case SensitivityHigh:
		return 0.12
	default:
		return 0.08
	}
}

// Intensity returns the simulator noise multiplier for s.
func (s Sensitivity) Intensity() float64 {
	switch s {
	case SensitivityLow:
		return 0.6
	case SensitivityHigh:
		return 1.6
	default:
		return 1.0
	}
}

// Config is the top-level cryowatchd configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Monitor MonitorConfig `yaml:"monitor"`
	Feed    FeedConfig    `yaml:"feed"`
}

// MonitorConfig holds the scoring pipeline and HTTP surface settings.
type MonitorConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// TickInterval is the simulator's sample cadence. Ignored for
	// externally fed modes, where the upstream sets the pace.
	TickInterval time.Duration `yaml:"tick_interval"`

	// BufferSize caps the sliding window of recent samples.
	BufferSize int `yaml:"buffer_size"`

	// AlertLogSize caps the alert log; older alerts are evicted.
	AlertLogSize int `yaml:"alert_log_size"`

	// Sensitivity is one of: low | medium | high.
	Sensitivity Sensitivity `yaml:"sensitivity"`

	// Thresholds holds the drift score cutoffs.
	Thresholds Thresholds `yaml:"thresholds"`

	// Auth configures optional API-key protection of the HTTP surface.
	Auth AuthConfig `yaml:"auth"`
}

// Thresholds holds the drift score cutoffs for the alert rules.
type Thresholds struct {
	DriftWarn     float64 `yaml:"drift_warn" json:"drift_warn"`
	DriftCritical float64 `yaml:"drift_critical" json:"drift_critical"`
}

// Clamped returns t with both cutoffs forced into their valid ranges and
// the critical cutoff raised to at least the warning cutoff.
func (t Thresholds) Clamped() Thresholds {
	t.DriftWarn = clampFloat(t.DriftWarn, DriftWarnMin, DriftWarnMax)
	t.DriftCritical = clampFloat(t.DriftCritical, DriftCritMin, DriftCritMax)
	if t.DriftCritical < t.DriftWarn {
		t.DriftCritical = t.DriftWarn
	}
	return t
}

// AuthConfig controls HTTP client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// FeedConfig selects and configures the telemetry source.
type FeedConfig struct {
	// Mode is one of: simulate | sse | prometheus.
	Mode string `yaml:"mode"`

	// Endpoint is the upstream URL for the sse and prometheus modes.
	Endpoint string `yaml:"endpoint"`

	// PollInterval is the scrape cadence for the prometheus mode.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Reconnect enables automatic reconnection with exponential backoff
	// after the upstream feed fails. When false (the default) a feed
	// failure parks the monitor in the error state until an explicit
	// restart.
	Reconnect bool `yaml:"reconnect"`
}

// Load reads and parses the YAML config file at path.
// Missing fields are filled with defaults; out-of-range thresholds are
// clamped rather than rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Monitor.Thresholds = cfg.Monitor.Thresholds.Clamped()
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			HTTPPort:     DefaultHTTPPort,
			TickInterval: DefaultTickInterval,
			BufferSize:   DefaultBufferSize,
			AlertLogSize: DefaultAlertLogSize,
			Sensitivity:  SensitivityMedium,
			Thresholds: Thresholds{
				DriftWarn:     DefaultDriftWarn,
				DriftCritical: DefaultDriftCritical,
			},
		},
		Feed: FeedConfig{
			Mode:         "simulate",
			PollInterval: DefaultPollInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
// Threshold ranges are deliberately not checked here: they are clamped.
func validate(cfg *Config) error {
	if cfg.Monitor.HTTPPort <= 0 || cfg.Monitor.HTTPPort > 65535 {
		return fmt.Errorf("monitor.http_port %d is out of range [1, 65535]", cfg.Monitor.HTTPPort)
	}
	if cfg.Monitor.TickInterval <= 0 {
		return fmt.Errorf("monitor.tick_interval must be positive")
	}
	if cfg.Monitor.BufferSize <= 0 {
		return fmt.Errorf("monitor.buffer_size must be positive")
	}
	if cfg.Monitor.AlertLogSize <= 0 {
		return fmt.Errorf("monitor.alert_log_size must be positive")
	}
	switch cfg.Monitor.Sensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		return fmt.Errorf("monitor.sensitivity %q unknown: want low|medium|high", cfg.Monitor.Sensitivity)
	}
	switch cfg.Monitor.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("monitor.auth.mode %q unknown: want apikey|none", cfg.Monitor.Auth.Mode)
	}
	switch cfg.Feed.Mode {
	case "simulate", "sse", "prometheus":
	default:
		return fmt.Errorf("feed.mode %q unknown: want simulate|sse|prometheus", cfg.Feed.Mode)
	}
	if cfg.Feed.Mode != "simulate" && cfg.Feed.Endpoint == "" {
		return fmt.Errorf("feed.endpoint is required for feed.mode %q", cfg.Feed.Mode)
	}
	if cfg.Feed.PollInterval <= 0 {
		return fmt.Errorf("feed.poll_interval must be positive")
	}
	return nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
