package loghandler

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

const timeFormat = "2006/01/02 15:04:05"

const tagKey = "tag"

// CompactHandler writes one line per record:
//
//	2006/01/02 15:04:05 [tag] WARN message key=value ...
//
// The level is only written for warnings and errors. A "tag" attribute, from
// the record or from With, is rendered as "[tag] " and left out of the
// key=value list.
type CompactHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	tag   string
	attrs []slog.Attr
}

// NewCompactHandler returns a handler that writes to w with minimum level.
func NewCompactHandler(w io.Writer, level slog.Leveler) *CompactHandler {
	return &CompactHandler{mu: &sync.Mutex{}, w: w, level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *CompactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the record.
func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	tag := h.tag
	rest := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	rest = append(rest, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == tagKey && a.Value.Kind() == slog.KindString {
			tag = a.Value.String()
			return true
		}
		rest = append(rest, a)
		return true
	})

	buf := make([]byte, 0, 256)
	if !r.Time.IsZero() {
		buf = append(buf, r.Time.Format(timeFormat)...)
		buf = append(buf, ' ')
	}
	if tag != "" {
		buf = append(buf, '[')
		buf = append(buf, tag...)
		buf = append(buf, "] "...)
	}
	if r.Level >= slog.LevelWarn {
		buf = append(buf, r.Level.String()...)
		buf = append(buf, ' ')
	}
	buf = append(buf, r.Message...)
	for _, a := range rest {
		if a.Equal(slog.Attr{}) {
			continue
		}
		buf = append(buf, ' ')
		buf = append(buf, a.Key...)
		buf = append(buf, '=')
		buf = append(buf, a.Value.Resolve().String()...)
	}
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

// WithAttrs returns a handler that prepends attrs to every record.
func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if a.Key == tagKey && a.Value.Kind() == slog.KindString {
			h2.tag = a.Value.String()
			continue
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

// WithGroup returns the handler unchanged; groups are flattened in compact output.
func (h *CompactHandler) WithGroup(name string) slog.Handler {
	return h
}
