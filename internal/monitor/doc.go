// Package monitor owns the per-tick scoring pipeline and all of its
// state: the drift model, the sliding sample window, and the alert log.
//
// One goroutine (Run) processes arriving samples, pause and resume,
// baseline resets, and tuning changes from a single loop, so a tick
// can never race a control operation. API handlers read through
// copy-returning accessors.
package monitor
