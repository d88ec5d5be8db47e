package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used by the pretty handlers. The styles are bound
// to a renderer for the handler's output, so they degrade to plain text when
// the output is not a terminal.
type palette struct {
	key, str, num, dur, tim lipgloss.Style
	yes, no, null           lipgloss.Style
	trace, debug, info      lipgloss.Style
	warn, err               lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		dur:   fg("5"),
		tim:   fg("4"),
		yes:   fg("2"),
		no:    fg("1"),
		null:  fg("8"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3").Bold(true),
		err:   fg("1").Bold(true),
	}
}

func (p palette) level(l slog.Level) string {
	name := strings.ToUpper(Level(l).String())

	switch {
	case l >= slog.LevelError:
		return p.err.Render(name)
	case l >= slog.LevelWarn:
		return p.warn.Render(name)
	case l >= slog.LevelInfo:
		return p.info.Render(name)
	case l >= slog.LevelDebug:
		return p.debug.Render(name)
	default:
		return p.trace.Render(name)
	}
}

func (p palette) value(v slog.Value) string {
	v = v.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.tim.Render(v.Time().Format(time.RFC3339))
	case slog.KindAny:
		if v.Any() == nil {
			return p.null.Render("null")
		}

		if err, ok := v.Any().(error); ok {
			return p.no.Render(err.Error())
		}

		return p.str.Render(fmt.Sprint(v.Any()))
	default:
		return p.str.Render(v.String())
	}
}

// flatten expands group values into dotted keys.
func flatten(prefix string, a slog.Attr, yield func(key string, v slog.Value)) {
	a.Value = a.Value.Resolve()

	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			flatten(key, sub, yield)
		}

		return
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	yield(key, a.Value)
}

// prettyBase carries what both pretty handlers share.
type prettyBase struct {
	opts       slog.HandlerOptions
	formatTime FormatTime
	mu         *sync.Mutex
	w          io.Writer
	style      palette
	group      string
	attrs      []slog.Attr
}

func makePrettyBase(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) prettyBase {
	if formatTime == nil {
		formatTime = makeFormatTimeFunc(DefaultTimeLayout)
	}

	return prettyBase{
		opts:       *opts,
		formatTime: formatTime,
		mu:         &sync.Mutex{},
		w:          w,
		style:      makePalette(w),
	}
}

func (b prettyBase) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if b.opts.Level != nil {
		floor = b.opts.Level.Level()
	}

	return level >= floor
}

func (b prettyBase) withAttrs(attrs []slog.Attr) prettyBase {
	for _, a := range attrs {
		if b.group != "" {
			a = slog.Attr{Key: b.group + "." + a.Key, Value: a.Value}
		}

		b.attrs = append(b.attrs[:len(b.attrs):len(b.attrs)], a)
	}

	return b
}

func (b prettyBase) withGroup(name string) prettyBase {
	if name == "" {
		return b
	}

	if b.group != "" {
		name = b.group + "." + name
	}

	b.group = name

	return b
}

// fields walks the header fields and attributes of r in output order.
func (b prettyBase) fields(r slog.Record, yield func(key string, v slog.Value)) {
	if !r.Time.IsZero() {
		if ts := b.formatTime(r.Time); ts != "" {
			yield(slog.TimeKey, slog.StringValue(ts))
		}
	}

	yield(slog.LevelKey, slog.AnyValue(r.Level))

	if b.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			yield(slog.SourceKey,
				slog.StringValue(fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	yield(slog.MessageKey, slog.StringValue(r.Message))

	for _, a := range b.attrs {
		flatten("", a, yield)
	}

	r.Attrs(func(a slog.Attr) bool {
		flatten(b.group, a, yield)

		return true
	})
}

func (b prettyBase) render(key string, v slog.Value) string {
	if lv, ok := v.Any().(slog.Level); ok && key == slog.LevelKey {
		return b.style.level(lv)
	}

	return b.style.value(v)
}

func (b prettyBase) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes one styled key=value line per record.
type prettyTextHandler struct{ prettyBase }

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyTextHandler {
	return &prettyTextHandler{makePrettyBase(w, opts, formatTime)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	h.fields(r, func(key string, v slog.Value) {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.style.key.Render(key))
		buf.WriteByte('=')
		buf.WriteString(h.render(key, v))
	})

	return h.write(&buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

// prettyJSONHandler writes an indented, styled JSON-like object per record.
type prettyJSONHandler struct{ prettyBase }

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
	formatTime FormatTime,
) *prettyJSONHandler {
	return &prettyJSONHandler{makePrettyBase(w, opts, formatTime)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	buf.WriteString("{")

	first := true

	h.fields(r, func(key string, v slog.Value) {
		if !first {
			buf.WriteByte(',')
		}

		first = false

		buf.WriteString("\n  ")
		buf.WriteString(h.style.key.Render(strconv.Quote(key)))
		buf.WriteString(": ")

		if v.Kind() == slog.KindString {
			buf.WriteString(h.style.str.Render(strconv.Quote(v.String())))
		} else {
			buf.WriteString(h.render(key, v))
		}
	})

	buf.WriteString("\n}")

	return h.write(&buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}
