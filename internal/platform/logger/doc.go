// Package logger provides structured logging for the service using the
// standard log/slog package: JSON output with a configurable level, and
// helpers for carrying a request-scoped logger in a context.Context.
package logger
