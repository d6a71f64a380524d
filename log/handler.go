// Package log provides structured logging (slog) for the SDK, routed to
// the browser console under js/wasm and to stderr elsewhere.
package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

// ConsoleHandler implements slog.Handler on top of the platform console.
type ConsoleHandler struct {
	opts   handlerConfig
	mu     *sync.Mutex
	attrs  []Attr
	groups []string
}

// HandlerOption configures the ConsoleHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	writer    io.Writer
	prefix    string
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:  slog.LevelInfo,
		prefix: "[iselfietest]",
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithWriter writes formatted lines to w instead of the platform console.
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		c.writer = w
	}
}

// WithPrefix sets the tag printed before every message.
func WithPrefix(prefix string) HandlerOption {
	return func(c *handlerConfig) {
		c.prefix = prefix
	}
}

// NewHandler creates a new ConsoleHandler with the given options.
func NewHandler(opts ...HandlerOption) *ConsoleHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &ConsoleHandler{opts: cfg, mu: &sync.Mutex{}}
}

// Install makes a ConsoleHandler the slog default and returns its logger.
func Install(opts ...HandlerOption) *slog.Logger {
	logger := slog.New(NewHandler(opts...))
	slog.SetDefault(logger)
	return logger
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle formats record and writes it out.
func (h *ConsoleHandler) Handle(_ context.Context, record slog.Record) error {
	entry := Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   append([]Attr(nil), h.attrs...),
	}
	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		entry.Source = &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
	}
	record.Attrs(func(attr slog.Attr) bool {
		entry.Attrs = appendAttr(entry.Attrs, h.groups, attr)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.opts.writer != nil {
		_, err := io.WriteString(h.opts.writer, entry.Text(h.opts.prefix)+"\n")
		return err
	}
	return emit(entry, h.opts.prefix)
}

// WithAttrs returns a new ConsoleHandler that includes the given attributes.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = appendAttr(clone.attrs, clone.groups, a)
	}
	return clone
}

// WithGroup returns a new ConsoleHandler with the given group name.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		opts:   h.opts,
		mu:     h.mu,
		attrs:  append([]Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}
