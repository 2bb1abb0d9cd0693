package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"sync"
)

// ANSI escape sequences used by the pretty handler.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records for human readers. In text mode a
// record is a single line of key=value pairs. In JSON mode it is an indented
// object with unquoted values. Group attributes are flattened into dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	attrs  []field
	json   bool
}

type field struct {
	key   string
	value slog.Value
	color string
}

func newPrettyHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	json bool,
) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, json: json}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h
	c.attrs = slices.Clip(h.attrs)

	for _, a := range attrs {
		c.attrs = h.appendAttr(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fields = h.appendAttr(fields, "", slog.Time(slog.TimeKey, r.Time))
	}

	if lf := h.appendAttr(nil, "", slog.Any(slog.LevelKey, r.Level)); len(lf) > 0 {
		lf[0].color = levelColor(r.Level)
		fields = append(fields, lf...)
	}

	if h.opts.AddSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fields = append(fields, field{
			key:   slog.SourceKey,
			value: slog.StringValue(frame.File + ":" + strconv.Itoa(frame.Line)),
		})
	}

	fields = h.appendAttr(fields, "", slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = h.appendAttr(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		writeJSON(&buf, fields)
	} else {
		writeText(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// appendAttr resolves a, applies ReplaceAttr, and appends the result to fs.
// Groups are expanded recursively with their key as a prefix.
func (h *prettyHandler) appendAttr(fs []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup && h.opts.ReplaceAttr != nil {
		var groups []string
		if prefix != "" {
			groups = []string{prefix}
		}

		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}

	if a.Equal(slog.Attr{}) {
		return fs
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			fs = h.appendAttr(fs, sub, ga)
		}

		return fs
	}

	return append(fs, field{key: prefix + a.Key, value: a.Value})
}

func writeText(buf *bytes.Buffer, fields []field) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray + f.key + colorReset + "=")
		writeValue(buf, f)
	}

	buf.WriteByte('\n')
}

func writeJSON(buf *bytes.Buffer, fields []field) {
	buf.WriteString("{\n")

	for i, f := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  " + colorGray + f.key + colorReset + ": ")
		writeValue(buf, f)
	}

	buf.WriteString("\n}\n")
}

func writeValue(buf *bytes.Buffer, f field) {
	color := f.color
	text := f.value.String()

	if color == "" {
		switch f.value.Kind() {
		case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
			color = colorYellow
		case slog.KindBool:
			color = colorRed
			if f.value.Bool() {
				color = colorGreen
			}
		case slog.KindDuration:
			color = colorMagenta
		case slog.KindTime:
			color = colorBlue
		case slog.KindAny:
			if f.value.Any() == nil {
				color, text = colorGray, "null"
			} else {
				color = colorCyan
			}
		default:
			color = colorCyan
		}
	}

	buf.WriteString(color + text + colorReset)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
