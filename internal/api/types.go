package api

import (
	"github.com/cryowatch/cryowatch/internal/alerts"
	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/telemetry"
)

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	Status         string           `json:"status"`
	Error          string           `json:"error,omitempty"`
	DriftScore     float64          `json:"drift_score"`
	HealthScore    float64          `json:"health_score"`
	DominantMetric string           `json:"dominant_metric,omitempty"`
	LastPoint      *telemetry.Point `json:"last_point,omitempty"`
	BufferLen      int              `json:"buffer_len"`
	AlertCounts    alerts.Counts    `json:"alert_counts"`
	WorstAlert     string           `json:"worst_alert,omitempty"`
}

// SeriesResponse is the payload for GET /api/v1/series.
type SeriesResponse struct {
	Points []telemetry.Point `json:"points"` // oldest first
	Count  int               `json:"count"`
}

// TuningResponse is the payload for GET and PUT /api/v1/config.
type TuningResponse struct {
	Thresholds  config.Thresholds  `json:"thresholds"`
	Sensitivity config.Sensitivity `json:"sensitivity"`
}

// tuningRequest is the accepted body for PUT /api/v1/config. Pointer
// fields distinguish "absent" from zero so callers can change one knob
// at a time.
type tuningRequest struct {
	DriftWarn     *float64            `json:"drift_warn"`
	DriftCritical *float64            `json:"drift_critical"`
	Sensitivity   *config.Sensitivity `json:"sensitivity"`
}

// controlResponse acknowledges a POST /api/v1/control/* action.
type controlResponse struct {
	Ok     bool   `json:"ok"`
	Action string `json:"action"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
