// Package config loads, normalizes, and validates tally configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TALLY_SERVER_URL and TALLY_API_TOKEN. The Config type centralizes every knob
// the CLI needs: where the election server lives, which election is being
// entered, and where the local journal and logs are kept.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
