// Package config loads, normalizes, and validates FlowMind configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FLOWMIND_LLM_API_KEY and FLOWMIND_TRACKER_TOKEN. The Config type
// centralizes every knob the pipeline, approval server, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical pipeline modes, and clear validation errors.
package config
