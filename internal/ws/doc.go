// Package ws streams per-tick telemetry envelopes to dashboard clients
// over WebSocket. The monitor pushes each update into the hub, which fans
// it out to every connected client; new clients immediately receive the
// most recent envelope so the UI has data before the next tick.
package ws
