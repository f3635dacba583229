// Package mlog provides logging with log levels and fields, on top of log/slog.
//
// Each log level has a function to log with and without error. Each such
// function takes a varargs list of slog attributes to log. Variable data
// should be in attributes. Logging strings themselves should be constant, for
// easier log processing.
//
// The log levels can be configured per originating package, e.g. address,
// addrapi. The configuration is application-global, so each Log instance uses
// the same log levels.
//
// Print* should be used for lines that always should be printed, regardless of
// configured log levels. Useful for startup logging and subcommands.
//
// Fatal* stops the program. Its log text is always printed.
package mlog

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/maps"
)

var noctx = context.Background()

// Logfmt enables logfmt-formatted output. Otherwise lines are more human
// readable.
var Logfmt bool

// Log levels, in addition to the slog levels.
const (
	LevelPrint = slog.Level(12) // Printed regardless of configured log level.
	LevelFatal = slog.Level(10) // Printed regardless of configured log level.
	LevelError = slog.LevelError
	LevelInfo  = slog.LevelInfo
	LevelDebug = slog.LevelDebug
	LevelTrace = slog.Level(-8)
)

// LevelStrings maps levels to their configuration names.
var LevelStrings = map[slog.Level]string{
	LevelPrint: "print",
	LevelFatal: "fatal",
	LevelError: "error",
	LevelInfo:  "info",
	LevelDebug: "debug",
	LevelTrace: "trace",
}

// Levels maps configuration names to levels.
var Levels = map[string]slog.Level{
	"print": LevelPrint,
	"fatal": LevelFatal,
	"error": LevelError,
	"info":  LevelInfo,
	"debug": LevelDebug,
	"trace": LevelTrace,
}

// LevelNames returns the configurable level names, sorted.
func LevelNames() []string {
	l := maps.Keys(Levels)
	slices.Sort(l)
	return l
}

// Holds a map[string]slog.Level, mapping a package (field pkg in logs) to a log
// level. The empty string is the default/fallback log level.
var config atomic.Value

func init() {
	config.Store(map[string]slog.Level{"": LevelError})
}

// SetConfig atomically sets the new log levels used by all Log instances.
func SetConfig(c map[string]slog.Level) {
	config.Store(c)
}

// Config returns a copy of the current log levels.
func Config() map[string]slog.Level {
	return maps.Clone(config.Load().(map[string]slog.Level))
}

// Log wraps a slog.Logger with convenience functions taking an error.
type Log struct {
	*slog.Logger
}

// New returns a Log that adds a "pkg" attribute to each line. If elog is nil,
// a logger is created that writes to stderr, filtered by the configured log
// levels.
func New(pkg string, elog *slog.Logger) Log {
	if elog == nil {
		elog = slog.New(&handler{pkg: pkg, w: os.Stderr, mu: &sync.Mutex{}})
		return Log{elog}
	}
	return Log{elog.With(slog.String("pkg", pkg))}
}

// WithPkg returns a logger for another package, keeping other attributes.
func (l Log) WithPkg(pkg string) Log {
	if h, ok := l.Logger.Handler().(*handler); ok {
		nh := *h
		nh.pkg = pkg
		return Log{slog.New(&nh)}
	}
	return Log{l.Logger.With(slog.String("pkg", pkg))}
}

// With adds attributes to each logged line.
func (l Log) With(attrs ...slog.Attr) Log {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return Log{l.Logger.With(args...)}
}

func (l Log) logx(level slog.Level, err error, msg string, attrs ...slog.Attr) {
	if !l.Logger.Enabled(noctx, level) {
		return
	}
	if err != nil {
		attrs = append([]slog.Attr{slog.Any("err", err)}, attrs...)
	}
	l.Logger.LogAttrs(noctx, level, msg, attrs...)
}

func (l Log) Print(msg string, attrs ...slog.Attr) { l.logx(LevelPrint, nil, msg, attrs...) }
func (l Log) Printx(msg string, err error, attrs ...slog.Attr) {
	l.logx(LevelPrint, err, msg, attrs...)
}

func (l Log) Debug(msg string, attrs ...slog.Attr) { l.logx(LevelDebug, nil, msg, attrs...) }
func (l Log) Debugx(msg string, err error, attrs ...slog.Attr) {
	l.logx(LevelDebug, err, msg, attrs...)
}

func (l Log) Info(msg string, attrs ...slog.Attr) { l.logx(LevelInfo, nil, msg, attrs...) }
func (l Log) Infox(msg string, err error, attrs ...slog.Attr) {
	l.logx(LevelInfo, err, msg, attrs...)
}

func (l Log) Error(msg string, attrs ...slog.Attr) { l.logx(LevelError, nil, msg, attrs...) }
func (l Log) Errorx(msg string, err error, attrs ...slog.Attr) {
	l.logx(LevelError, err, msg, attrs...)
}

func (l Log) Fatal(msg string, attrs ...slog.Attr) { l.Fatalx(msg, nil, attrs...) }
func (l Log) Fatalx(msg string, err error, attrs ...slog.Attr) {
	l.logx(LevelFatal, err, msg, attrs...)
	os.Exit(1)
}

// Check logs an error at error level if err is non-nil.
func (l Log) Check(err error, msg string, attrs ...slog.Attr) {
	if err != nil {
		l.Errorx(msg, err, attrs...)
	}
}

// handler writes lines for the levels enabled for its package.
type handler struct {
	pkg    string
	w      io.Writer
	mu     *sync.Mutex // Shared between derived handlers, for whole-line writes.
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*handler)(nil)

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level == LevelPrint || level == LevelFatal {
		return true
	}
	cl := config.Load().(map[string]slog.Level)
	if v, ok := cl[h.pkg]; ok {
		return level >= v
	}
	v, ok := cl[""]
	return ok && level >= v
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	attrs := []slog.Attr{slog.String("pkg", h.pkg)}
	attrs = append(attrs, h.attrs...)
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	r.Attrs(func(a slog.Attr) bool {
		a.Key = prefix + a.Key
		attrs = append(attrs, a)
		return true
	})

	// We build up a buffer so we can do a single write of the data. Otherwise partial
	// log lines may interleave.
	var b strings.Builder
	level := LevelStrings[r.Level]
	if level == "" {
		level = strings.ToLower(r.Level.String())
	}
	if Logfmt {
		fmt.Fprintf(&b, "l=%s m=%s", level, logfmtValue(r.Message))
		for _, a := range attrs {
			fmt.Fprintf(&b, " %s=%s", a.Key, logfmtValue(stringValue(a.Value)))
		}
	} else {
		fmt.Fprintf(&b, "%s: %s", level, logfmtValue(r.Message))
		var errs string
		var l []string
		for _, a := range attrs {
			if a.Key == "err" {
				errs = ": " + logfmtValue(stringValue(a.Value))
				continue
			}
			l = append(l, a.Key+": "+logfmtValue(stringValue(a.Value)))
		}
		b.WriteString(errs)
		if len(l) > 0 {
			b.WriteString(" (" + strings.Join(l, "; ") + ")")
		}
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	for _, a := range attrs {
		if a.Key == "pkg" {
			nh.pkg = a.Value.String()
			continue
		}
		a.Key = prefix + a.Key
		nh.attrs = append(slices.Clone(nh.attrs), a)
	}
	return &nh
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(slices.Clone(nh.groups), name)
	return &nh
}

// escape logfmt string if required, otherwise return original string.
func logfmtValue(s string) string {
	for _, c := range s {
		if c == '"' || c == '\\' || c <= ' ' || c == '=' || c >= 0x7f {
			return fmt.Sprintf("%q", s)
		}
	}
	return s
}

func stringValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindGroup:
		var l []string
		for _, a := range v.Group() {
			l = append(l, a.Key+"="+logfmtValue(stringValue(a.Value)))
		}
		return strings.Join(l, " ")
	}
	switch x := v.Any().(type) {
	case []byte:
		return base64.RawURLEncoding.EncodeToString(x)
	case []string:
		return "[" + strings.Join(x, ",") + "]"
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v.Any())
}
