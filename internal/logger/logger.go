// Package logger provides the process-wide leveled logger.
//
// Call sites use printf-style helpers (Infof, Warnf, ...). Output is produced
// by zerolog: human-readable console lines in debug mode, JSON otherwise.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is a logging severity.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stdout, false)
	lvl = LevelInfo
)

func init() {
	// Filtering happens in logf; zerolog's own global floor would drop trace.
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func newLogger(w io.Writer, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	lvl = l
}

// SetOutput redirects log output. When console is true lines are formatted for
// humans instead of JSON.
func SetOutput(w io.Writer, console bool) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, console)
}

// Logger returns the underlying zerolog logger, filtered at the current
// level, for structured call sites such as the HTTP request middleware.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.Level(zerologLevel(lvl))
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel maps a level name to a Level. Unknown names map to LevelInfo.
func ParseLevel(name string) Level {
	switch name {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	if l < lvl {
		mu.RUnlock()
		return
	}
	zl := log
	mu.RUnlock()

	zl.WithLevel(zerologLevel(l)).Msg(fmt.Sprintf(format, args...))
}

func Tracef(format string, args ...any) { logf(LevelTrace, format, args...) }
func Debugf(format string, args ...any) { logf(LevelDebug, format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, format, args...) }
