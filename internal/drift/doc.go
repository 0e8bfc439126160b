// Package drift implements the adaptive per-metric baseline model and the
// composite drift score.
//
// model.go provides Init/Update/Score. Update maintains, per metric, an
// exponential moving average baseline plus residual mean/variance trackers.
// Score normalises the current residual of each metric into a z value and
// combines the eight z values with fixed weights into one headline score.
//
// The model is a self-calibrating heuristic: it needs no training data and
// tracks legitimate slow drift while flagging short-run deviations. It can
// be fooled by sufficiently slow degradation; that trade-off is accepted.
package drift
