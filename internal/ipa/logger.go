package ipa

import (
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Logger interface for backend operations.
type Logger interface {
	Trace(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// HCLogger adapts an hclog.Logger for use in this package.
type HCLogger struct {
	logger hclog.Logger
}

// NewHCLogger creates a named subsystem logger.
func NewHCLogger(logger hclog.Logger, subsystem string) *HCLogger {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HCLogger{logger: logger.Named(subsystem)}
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() *HCLogger {
	return &HCLogger{logger: hclog.NewNullLogger()}
}

// HCLog exposes the underlying hclog.Logger for libraries that consume it
// directly (retryablehttp's LeveledLogger, for one).
func (l *HCLogger) HCLog() hclog.Logger {
	return l.logger
}

func (l *HCLogger) Trace(msg string, fields map[string]any) {
	l.logger.Trace(msg, flattenFields(fields)...)
}

func (l *HCLogger) Debug(msg string, fields map[string]any) {
	l.logger.Debug(msg, flattenFields(fields)...)
}

func (l *HCLogger) Info(msg string, fields map[string]any) {
	l.logger.Info(msg, flattenFields(fields)...)
}

func (l *HCLogger) Warn(msg string, fields map[string]any) {
	l.logger.Warn(msg, flattenFields(fields)...)
}

func (l *HCLogger) Error(msg string, fields map[string]any) {
	l.logger.Error(msg, flattenFields(fields)...)
}

// flattenFields converts a field map to hclog's alternating key/value form.
// Keys are sorted so repeated log lines stay comparable.
func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

// LogOperation is a helper function to log an operation with timing.
func LogOperation(logger Logger, operation string, fields map[string]any, fn func() error) error {
	start := time.Now()

	if fields == nil {
		fields = make(map[string]any)
	}
	fields["operation"] = operation

	logger.Debug("Starting operation", fields)

	err := fn()

	fields["duration_ms"] = time.Since(start).Milliseconds()

	if err != nil {
		fields["error"] = err.Error()
		logger.Error("Operation failed", fields)
	} else {
		logger.Debug("Operation completed successfully", fields)
	}

	return err
}

// SanitizeFields removes sensitive information from log fields.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))

	sensitiveKeys := map[string]bool{
		"password":     true,
		"passwd":       true,
		"old_password": true,
		"new_password": true,
		"secret":       true,
		"token":        true,
		"key":          true,
		"credential":   true,
		"credentials":  true,
	}

	for k, v := range fields {
		if sensitiveKeys[strings.ToLower(k)] {
			sanitized[k] = "[REDACTED]"
			continue
		}
		if str, ok := v.(string); ok && containsSensitivePattern(str) {
			sanitized[k] = "[REDACTED]"
			continue
		}
		sanitized[k] = v
	}

	return sanitized
}

// containsSensitivePattern checks if a string contains patterns that might be
// sensitive.
func containsSensitivePattern(s string) bool {
	patterns := []string{
		"password=",
		"passwd=",
		"secret=",
		"token=",
	}

	lower := strings.ToLower(s)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}
