// Package config loads and validates the cryowatchd YAML configuration
// and watches it for changes so thresholds and sensitivity can be tuned
// without a restart.
package config
