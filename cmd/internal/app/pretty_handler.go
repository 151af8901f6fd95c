package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders records as a single key=value line for local runs.
// Known keys (method, status, duration_ms, result) are colorized when color is on.
type prettyHandler struct {
	w      io.Writer
	opts   slog.HandlerOptions
	attrs  []groupedAttr
	groups []string
	color  bool
	mu     *sync.Mutex
}

// groupedAttr is a handler-level attr with the group path active when it was added.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) slog.Handler {
	h := &prettyHandler{
		w:     w,
		color: color,
		mu:    &sync.Mutex{},
	}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString("ts=")
	b.WriteString(applyDim(ts.Format("15:04:05.000"), h.color))
	b.WriteByte(' ')
	b.WriteString("lvl=")
	b.WriteString(levelTag(r.Level, h.color))
	b.WriteByte(' ')
	b.WriteString("msg=")
	b.WriteString(applyBold(r.Message, h.color))

	if h.opts.AddSource && r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		frame, _ := frames.Next()
		if frame.File != "" {
			b.WriteByte(' ')
			b.WriteString("src=")
			b.WriteString(applyDim(fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line), h.color))
		}
	}

	for _, ga := range h.attrs {
		h.appendAttr(&b, ga.attr, ga.prefix)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, a, prefix)
		return true
	})

	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	prefix := strings.Join(h.groups, ".")
	cp.attrs = append([]groupedAttr{}, h.attrs...)
	for _, a := range attrs {
		cp.attrs = append(cp.attrs, groupedAttr{prefix: prefix, attr: a})
	}
	return &cp
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if strings.TrimSpace(name) == "" {
		return h
	}
	cp := *h
	cp.groups = append(append([]string{}, h.groups...), name)
	return &cp
}

func (h *prettyHandler) appendAttr(b *strings.Builder, a slog.Attr, parent string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := strings.TrimSpace(a.Key)
	if key == "" {
		return
	}

	fullKey := key
	if parent != "" {
		fullKey = parent + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, ga, fullKey)
		}
		return
	}

	f, known := prettyKeys[fullKey]
	b.WriteByte(' ')
	if known && f.alias != "" {
		b.WriteString(f.alias)
	} else {
		b.WriteString(fullKey)
	}
	b.WriteByte('=')
	if known {
		if out, ok := f.format(a.Value, h.color); ok {
			b.WriteString(out)
			return
		}
	}
	b.WriteString(quoteIfNeeded(valueToString(a.Value)))
}

// prettyKey renders a well-known attribute. format returns false to fall back
// to the plain rendering.
type prettyKey struct {
	alias  string
	format func(v slog.Value, color bool) (string, bool)
}

var prettyKeys = map[string]prettyKey{
	"method": {format: func(v slog.Value, color bool) (string, bool) {
		return colorizeHTTPMethod(strings.ToUpper(strings.TrimSpace(v.String())), color), true
	}},
	"path": {format: func(v slog.Value, color bool) (string, bool) {
		return paint(strings.TrimSpace(v.String()), ansiCyan, color), true
	}},
	"status": {format: func(v slog.Value, color bool) (string, bool) {
		n, ok := valueToInt64(v)
		return colorizeStatusCode(int(n), color), ok
	}},
	"status_class": {alias: "class", format: func(v slog.Value, color bool) (string, bool) {
		return colorizeStatusClass(strings.TrimSpace(v.String()), color), true
	}},
	"duration_ms": {alias: "duration", format: func(v slog.Value, color bool) (string, bool) {
		n, ok := valueToInt64(v)
		return colorizeDurationMS(n, color), ok
	}},
	"result": {format: func(v slog.Value, color bool) (string, bool) {
		return colorizeResult(strings.ToLower(strings.TrimSpace(v.String())), color), true
	}},
	"err": {format: func(v slog.Value, color bool) (string, bool) {
		return paint(quoteIfNeeded(valueToString(v)), ansiRed, color), true
	}},
	"request_id": {alias: "rid", format: dimValue},
	"session_id": {format: dimValue},
	"user_id":    {format: dimValue},
}

func dimValue(v slog.Value, color bool) (string, bool) {
	return applyDim(quoteIfNeeded(valueToString(v)), color), true
}

func valueToString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

func valueToInt64(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true // #nosec G115 -- status codes and durations fit.
	case slog.KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func levelTag(level slog.Level, color bool) string {
	switch {
	case level >= slog.LevelError:
		return paint("[ERROR]", ansiRed, color)
	case level >= slog.LevelWarn:
		return paint("[WARN]", ansiYellow, color)
	case level < slog.LevelInfo:
		return paint("[DEBUG]", ansiMagenta, color)
	default:
		return paint("[INFO]", ansiBlue, color)
	}
}
