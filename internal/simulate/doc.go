// Package simulate produces physically plausible synthetic telemetry for
// driving the monitor without real hardware.
//
// generator.go steps one sample to the next with per-metric Gaussian noise
// (Box–Muller over an injectable uniform source), an environmental push
// term that couples disturbed temperature/vibration/EM readings into
// degraded coherence and fidelity, optional one-shot fault spikes, and
// per-metric physical clamps.
//
// warmup.go walks a smooth ramp-plus-sinusoid trend to build the initial
// history window the drift model warms up against.
package simulate
