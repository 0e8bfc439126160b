// Package api exposes the monitor's state over a JSON REST surface:
// current status and scores, the recent sample window, the alert log,
// runtime tuning, and the pause/resume/reset/restart controls.
package api
