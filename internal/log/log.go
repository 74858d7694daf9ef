// Package log provides logging output.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
)

var (
	// DefaultLogger returns the default, global logger. During application
	// startup components can call DefaultLogger and cache the result. The
	// default will not change at runtime.
	DefaultLogger = func() *Logger { return NewFormattedLogger(os.Stderr) }

	// SetDefault overrides slog's package-level default logger. It does not
	// change what DefaultLogger returns.
	SetDefault = slog.SetDefault

	// LogLevel is a variable holding the log level. It can be changed at
	// runtime.
	LogLevel = &slog.LevelVar{}
)

// NewFormattedLogger returns a logger that uses a Handler to format and
// write logs to a Writer.
func NewFormattedLogger(out io.Writer) *Logger {
	return slog.New(NewHandler(out))
}

// Handler implements slog.Handler to produce compact single-line output:
// level, source location, message, then attributes.
type Handler struct {
	mut *sync.Mutex // Synchronizes writer.
	out io.Writer

	opts  *slog.HandlerOptions
	attrs []Attr
}

// Options for log handlers.
var Options = &slog.HandlerOptions{
	AddSource: true,
	Level:     LogLevel,
}

// NewHandler creates and initializes a Handler with a writer.
func NewHandler(out io.Writer) *Handler {
	return &Handler{
		out:  out,
		mut:  new(sync.Mutex),
		opts: Options,
	}
}

// Enabled returns true if the level is at least the current logging level.
func (h *Handler) Enabled(_ context.Context, level Level) bool {
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a log record to the handler's writer.
func (h *Handler) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-5s", rec.Level.String())

	if h.opts.AddSource && rec.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{rec.PC})
		f, _ := frames.Next()
		_, file := path.Split(f.File)
		fmt.Fprintf(&sb, " %s:%d", file, f.Line)
	}

	fmt.Fprintf(&sb, " %s", rec.Message)

	for _, a := range h.attrs {
		appendAttr(&sb, a)
	}

	rec.Attrs(func(attr Attr) bool {
		appendAttr(&sb, attr)
		return true
	})

	sb.WriteByte('\n')

	h.mut.Lock()
	defer h.mut.Unlock()

	_, err := io.WriteString(h.out, sb.String())

	return err
}

func appendAttr(sb *strings.Builder, attr Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		for _, a := range attr.Value.Group() {
			appendAttr(sb, a)
		}
		return
	}

	fmt.Fprintf(sb, " %s=%v", attr.Key, attr.Value.Any())
}

// WithGroup flattens groups: the compiler's logs are shallow.
func (h *Handler) WithGroup(string) slog.Handler { return h }

// WithAttrs returns a new handler that combines the handler's attributes
// and those in the argument.
func (h *Handler) WithAttrs(attrs []Attr) slog.Handler {
	as := make([]Attr, 0, len(h.attrs)+len(attrs))
	as = append(as, h.attrs...)
	as = append(as, attrs...)

	return &Handler{
		out:   h.out,
		mut:   h.mut,
		opts:  h.opts,
		attrs: as,
	}
}

// Type aliases from std lib.
type (
	Attr   = slog.Attr
	Level  = slog.Level
	Logger = slog.Logger
	Value  = slog.Value
)

var (
	String      = slog.String
	StringValue = slog.StringValue
	Group       = slog.Group
	GroupValue  = slog.GroupValue
	Any         = slog.Any
	AnyValue    = slog.AnyValue
)

const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)
