// Package logger provides structured logging for the Dayon client.
//
// This package wraps zap for structured logging:
//
//   - logger.go: Logger interface, configuration, global level
//   - zap.go: zap adapter for key/value arguments
//   - context.go: Context-aware logging with request/trace IDs
//   - redact.go: Sensitive data redaction
//
// Bearer headers and personal access tokens ("12|abc...") are partially
// masked wherever they appear. Any non-empty value logged under a key such
// as "password" or "token" is replaced entirely.
package logger
