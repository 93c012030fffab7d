// Package logging constructs the slog loggers used across FlowMind.
//
// It offers a console handler with terminal-aware color output and a JSON
// handler for machine consumption, shared Attr helpers so call sites stay
// uniform, and NewNop for tests. NewFromConfig wires log format, level, and
// the log-directory file sink from application configuration.
package logging
