package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const timeLayout = "[2006/01/02 15:04:05]"

// Handler writes one line per record: the bracketed time, the value of
// every attribute in brackets, then the message. Keys and groups are not
// printed.
type Handler struct {
	level  slog.Leveler
	prefix string
	mu     *sync.Mutex
	out    io.Writer
}

func NewHandler(out io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{level: level, mu: &sync.Mutex{}, out: out}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs renders attrs once so that every later record reuses them.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&b, a)
	}
	c := *h
	c.prefix = b.String()
	return &c
}

func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.Format(timeLayout))
	b.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, a)
		return true
	})
	b.WriteByte(' ')
	b.WriteString(r.Message)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func appendAttr(b *strings.Builder, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, g := range v.Group() {
			appendAttr(b, g)
		}
		return
	}
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteString(" [")
	b.WriteString(v.String())
	b.WriteByte(']')
}

// Logger implements laserball.Logger: info messages go through the
// bracketed text handler, errors as JSON.
type Logger struct {
	InfoLog  *slog.Logger
	ErrorLog *slog.Logger
}

func (l Logger) Info(message string, module string) {
	l.InfoLog.Info(message, "module", module)
}

func (l Logger) Error(message string) {
	l.ErrorLog.Error(message)
}

// NewLogger writes info to stdout and errors to stderr.
func NewLogger() Logger {
	return NewLoggerTo(os.Stdout, os.Stderr)
}

func NewLoggerTo(stdout, stderr io.Writer) Logger {
	return Logger{
		InfoLog:  slog.New(NewHandler(stdout, slog.LevelDebug)),
		ErrorLog: slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}
