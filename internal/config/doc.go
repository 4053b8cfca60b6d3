// Package config loads, normalizes, and validates blast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BLAST_TRACKING_DSN. The Config type centralizes the render command, the
// transcode settings, the tracking backend and the checkpoint locations so the
// CLI and the orchestration engine discover them in one pass.
package config
