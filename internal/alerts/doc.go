// Package alerts holds the rule engine that turns scored telemetry samples
// into alert events, and the bounded newest-first log those events land in.
//
// The rule set is fixed (drift thresholds, cryostat temperature,
// environmental noise, predictive coherence trend); only the drift
// thresholds are configurable. Rules are evaluated independently: one
// tick may emit several alerts.
package alerts
