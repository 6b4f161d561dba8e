package config

import "strings"

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// normalizer maps loosely spelled enum values onto their canonical form.
type normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
}

func (n normalizer[T]) normalize(raw string) T {
	if v, ok := n.values[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v
	}
	return n.defaultValue
}

var logLevelNormalizer = normalizer[LogLevel]{values: map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, defaultValue: LogLevelInfo}

var logFormatNormalizer = normalizer[LogFormat]{values: map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, defaultValue: LogFormatText}

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.normalize(raw)
}

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.normalize(raw)
}
