package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is what the server, its transports and the worker pool log through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext binds ctx to every record, so handlers see its deadline
	// and values.
	WithContext(ctx context.Context) Logger
	// Slog exposes the underlying *slog.Logger for components that take one
	// (the RESP server, the config watcher).
	Slog() *slog.Logger
}

// Config selects level, encoding and destination.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig logs JSON at info level to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

func lookupLevel(name string) (slog.Level, bool) {
	if name == "" {
		return slog.LevelInfo, true
	}
	lv, ok := levelNames[strings.ToLower(name)]
	return lv, ok
}

// ValidLevel reports whether name is a level New and SetLevel accept.
func ValidLevel(name string) bool {
	_, ok := lookupLevel(name)
	return ok && name != ""
}

// ValidFormat reports whether name is an output format New accepts.
func ValidFormat(name string) bool {
	switch strings.ToLower(name) {
	case "json", "text", "console":
		return true
	}
	return false
}

// level is shared by every logger New returns so a config reload can change
// it in place.
var level = new(slog.LevelVar)

// New builds a Logger and sets the shared level from cfg.
func New(cfg Config) (Logger, error) {
	lv, ok := lookupLevel(cfg.Level)
	if !ok {
		return nil, fmt.Errorf("logger: unknown level %q", cfg.Level)
	}
	format := cfg.Format
	if format == "" {
		format = "json"
	}
	if !ValidFormat(format) {
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}
	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.ToLower(format) != "json" {
		h = slog.NewTextHandler(out, opts)
	}

	level.Set(lv)
	return wrap(slog.New(h)), nil
}

// Discard returns a Logger that writes nowhere.
func Discard() Logger {
	return wrap(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLevel changes the shared level and reports whether it changed.
// Unknown names are ignored.
func SetLevel(name string) bool {
	lv, ok := lookupLevel(name)
	if !ok || name == "" || lv == level.Level() {
		return false
	}
	level.Set(lv)
	return true
}

// GetLevel returns the shared level in lower case.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// ctxLogger pairs a slog.Logger with the context its records carry.
type ctxLogger struct {
	sl  *slog.Logger
	ctx context.Context
}

func wrap(sl *slog.Logger) *ctxLogger {
	return &ctxLogger{sl: sl, ctx: context.Background()}
}

func (l *ctxLogger) log(lv slog.Level, msg string, args []any) {
	l.sl.Log(l.ctx, lv, msg, args...)
}

func (l *ctxLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *ctxLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *ctxLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *ctxLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *ctxLogger) With(args ...any) Logger {
	return &ctxLogger{sl: l.sl.With(args...), ctx: l.ctx}
}

func (l *ctxLogger) WithContext(ctx context.Context) Logger {
	return &ctxLogger{sl: l.sl, ctx: ctx}
}

func (l *ctxLogger) Slog() *slog.Logger { return l.sl }

var std atomic.Pointer[ctxLogger]

func init() {
	std.Store(wrap(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}))))
}

// SetDefault replaces the logger behind Default and the package-level
// helpers. Loggers not built by this package are ignored.
func SetDefault(l Logger) {
	if cl, ok := l.(*ctxLogger); ok {
		std.Store(cl)
	}
}

// Default returns the process-wide logger.
func Default() Logger { return std.Load() }

func Debug(msg string, args ...any) { std.Load().log(slog.LevelDebug, msg, args) }
func Info(msg string, args ...any)  { std.Load().log(slog.LevelInfo, msg, args) }
func Warn(msg string, args ...any)  { std.Load().log(slog.LevelWarn, msg, args) }
func Error(msg string, args ...any) { std.Load().log(slog.LevelError, msg, args) }
