package store

import (
	"log/slog"
)

// Logger wraps slog.Logger with cache-event helpers so call sites stay
// uniform about field names.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps an slog.Logger; nil yields a no-op logger.
func NewLogger(l *slog.Logger) *Logger {
	if l == nil {
		return NopLogger()
	}
	return &Logger{Logger: l}
}

// NopLogger returns a Logger that discards all output.
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// CacheWritten logs a successful compile-and-write.
func (l *Logger) CacheWritten(source, cache string, bytes int64) {
	l.Debug("cache written",
		"source", source,
		"cache", cache,
		"bytes", bytes,
	)
}

// CacheHit logs a load served from a fresh cache.
func (l *Logger) CacheHit(source, cache string) {
	l.Debug("cache hit",
		"source", source,
		"cache", cache,
	)
}

// CacheRecompile logs a load that had to recompile, with the reason.
func (l *Logger) CacheRecompile(source, cache, reason string) {
	l.Debug("cache recompile",
		"source", source,
		"cache", cache,
		"reason", reason,
	)
}

// CacheInvalidated logs a cache file removal.
func (l *Logger) CacheInvalidated(source, cache string) {
	l.Debug("cache invalidated",
		"source", source,
		"cache", cache,
	)
}
