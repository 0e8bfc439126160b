// Package series provides the bounded sliding window of recent telemetry
// samples that the alert evaluator's trend rule and the API read from.
package series
