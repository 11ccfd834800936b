// Package log provides the structured logger used across pageask.
//
// It is built on log/slog. Every logger returned here is wrapped in a
// SecureHandler that masks credentials (model API keys, cookies,
// Authorization headers) and shortens inline image data URIs before a
// record reaches the output. Console output goes through tint and is
// colourised only when the writer is a terminal.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("model request", "api_key", key) // api_key=***REDACTED***
package log
