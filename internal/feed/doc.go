// Package feed connects the monitor to an external telemetry source.
//
// Two upstream kinds are supported: a server-sent-events stream of JSON
// point records (the simulator backend's /stream endpoint) and a
// Prometheus exposition endpoint polled on an interval. Both normalise
// into telemetry.Point values pushed over a channel; malformed records
// are dropped without touching any downstream state.
package feed
