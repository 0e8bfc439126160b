package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cryowatch/cryowatch/internal/config"
	"github.com/cryowatch/cryowatch/internal/monitor"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	mon *monitor.Monitor
	mux *http.ServeMux
}

// New creates a Handler wired to the given monitor and registers all
// routes. When auth is configured for apikey mode, every route requires
// the key header.
func New(mon *monitor.Monitor, auth config.AuthConfig) http.Handler {
	h := &Handler{mon: mon, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/series", h.series)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/config", h.tuning)
	h.mux.HandleFunc("/api/v1/control/pause", h.control("pause", mon.Pause))
	h.mux.HandleFunc("/api/v1/control/resume", h.control("resume", mon.Resume))
	h.mux.HandleFunc("/api/v1/control/reset-baseline", h.control("reset-baseline", mon.ResetBaseline))
	h.mux.HandleFunc("/api/v1/control/restart", h.control("restart", mon.Restart))

	return requireKey(auth, h)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// status returns GET /api/v1/status: current pipeline state and scores.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.mon.Snapshot()
	resp := StatusResponse{
		Status:         snap.Status,
		Error:          snap.Error,
		DriftScore:     snap.DriftScore,
		HealthScore:    snap.HealthScore,
		DominantMetric: snap.Dominant,
		BufferLen:      h.mon.Buffer().Len(),
		AlertCounts:    h.mon.Alerts().Tally(),
		WorstAlert:     h.mon.Alerts().Worst(),
	}
	if snap.HasPoint {
		p := snap.LastPoint
		resp.LastPoint = &p
	}
	jsonResp(w, http.StatusOK, resp)
}

// series returns GET /api/v1/series: the recent sample window, oldest
// first. An optional ?n= query limits the result to the newest n samples.
func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	buf := h.mon.Buffer()
	pts := buf.All()
	if q := r.URL.Query().Get("n"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			jsonErr(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		pts = buf.Last(n)
	}
	jsonResp(w, http.StatusOK, SeriesResponse{Points: pts, Count: len(pts)})
}

// alerts returns GET /api/v1/alerts: the alert log, newest first.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.mon.Alerts().Snapshot())
}

// tuning serves GET and PUT /api/v1/config: the runtime-adjustable
// thresholds and sensitivity. Out-of-range thresholds in a PUT are
// clamped, not rejected; the response carries the values actually applied.
func (h *Handler) tuning(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t := h.mon.Snapshot().Tuning
		jsonResp(w, http.StatusOK, TuningResponse{
			Thresholds:  t.Thresholds,
			Sensitivity: t.Sensitivity,
		})

	case http.MethodPut:
		var req tuningRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid json body")
			return
		}

		t := h.mon.Snapshot().Tuning
		if req.DriftWarn != nil {
			t.Thresholds.DriftWarn = *req.DriftWarn
		}
		if req.DriftCritical != nil {
			t.Thresholds.DriftCritical = *req.DriftCritical
		}
		if req.Sensitivity != nil {
			switch *req.Sensitivity {
			case config.SensitivityLow, config.SensitivityMedium, config.SensitivityHigh:
				t.Sensitivity = *req.Sensitivity
			default:
				jsonErr(w, http.StatusBadRequest, "sensitivity must be low|medium|high")
				return
			}
		}
		t.Thresholds = t.Thresholds.Clamped()
		h.mon.Tune(t)

		jsonResp(w, http.StatusOK, TuningResponse{
			Thresholds:  t.Thresholds,
			Sensitivity: t.Sensitivity,
		})

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// control wraps a monitor control action into a POST-only handler.
func (h *Handler) control(action string, fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn()
		jsonResp(w, http.StatusOK, controlResponse{Ok: true, Action: action})
	}
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
