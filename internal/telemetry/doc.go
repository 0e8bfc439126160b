// Package telemetry defines the timestamped sample type shared by the
// simulator, feeds, scoring engine, and API. The metric set is fixed and
// closed: per-metric state elsewhere is indexed by the Metric enum rather
// than keyed by name.
package telemetry
