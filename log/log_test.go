package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON record %q: %v", buf.String(), err)
	}

	return record
}

func TestMake_Defaults(t *testing.T) {
	l := Make(nil)

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}

	if l.caller != DefaultCaller || l.pretty != DefaultPretty {
		t.Errorf("caller=%v pretty=%v, want %v %v",
			l.caller, l.pretty, DefaultCaller, DefaultPretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		min    Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, LevelTrace, true},
		{"trace at debug", Logger.Trace, LevelDebug, false},
		{"debug at info", Logger.Debug, LevelInfo, false},
		{"info at info", Logger.Info, LevelInfo, true},
		{"info at warn", Logger.Info, LevelWarn, false},
		{"warn at warn", Logger.Warn, LevelWarn, true},
		{"error at trace", Logger.Error, LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.min)), "message")

			if logged := buf.Len() > 0; logged != tt.logged {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.logged, buf.String())
			}
		})
	}
}

func TestLogger_LevelLabels(t *testing.T) {
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(LevelTrace), WithPretty(false))
			l.log(t.Context(), level, "message", nil)

			got := decode(t, &buf)[slog.LevelKey]
			if want := strings.ToUpper(level.String()); got != want {
				t.Errorf("level = %v, want %q", got, want)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithTimeLayout("none"))
	l.Info("hello", slog.String("key", "value"), slog.Int("n", 3))

	record := decode(t, &buf)

	if _, ok := record[slog.TimeKey]; ok {
		t.Errorf("expected no timestamp, got %v", record[slog.TimeKey])
	}

	if record[slog.MessageKey] != "hello" || record["key"] != "value" || record["n"] != float64(3) {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithPretty(false))
	l.Warn("hello", slog.String("key", "value"))

	out := buf.String()
	for _, want := range []string{"level=WARN", "msg=hello", "key=value"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		var buf bytes.Buffer

		Make(&buf, WithCaller(true), WithPretty(pretty)).Info("here")

		if !strings.Contains(buf.String(), "log_test.go") {
			t.Errorf("pretty=%v: caller not reported: %q", pretty, buf.String())
		}

		buf.Reset()
		Make(&buf, WithCaller(false), WithPretty(pretty)).Info("here")

		if strings.Contains(buf.String(), slog.SourceKey) {
			t.Errorf("pretty=%v: caller reported when disabled: %q", pretty, buf.String())
		}
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false)).With(slog.String("component", "parser"))
	l.Info("message")

	if got := decode(t, &buf)["component"]; got != "parser" {
		t.Errorf("component = %v, want parser", got)
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelError {
		t.Errorf("Wrap modified the original logger: level %v", base.Level())
	}

	if wrapped.Level() != LevelDebug {
		t.Errorf("wrapped level = %v, want debug", wrapped.Level())
	}

	wrapped.Debug("written")

	if !strings.Contains(buf.String(), "written") {
		t.Error("wrapped logger did not keep the original output")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("ignored")
	l.Info("ignored")
	l.ErrorContext(t.Context(), "ignored")

	if l.With(slog.String("k", "v")).Logger != nil {
		t.Error("With on a zero Logger should return a zero Logger")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Error("zero Logger should report defaults")
	}
}

func TestLogger_EnabledAt(t *testing.T) {
	l := Make(&bytes.Buffer{}, WithLevel(LevelDebug))

	if l.EnabledAt(t.Context(), LevelTrace) {
		t.Error("EnabledAt(trace) on a debug logger = true")
	}

	if !l.EnabledAt(t.Context(), LevelDebug) || !l.EnabledAt(t.Context(), LevelError) {
		t.Error("EnabledAt should report levels at or above debug")
	}

	var zero Logger
	if zero.EnabledAt(t.Context(), LevelError) {
		t.Error("EnabledAt on a zero Logger = true")
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	l := Make(writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		return buf.Write(p)
	}), WithPretty(false))

	for i := range 100 {
		wg.Go(func() { l.Info("concurrent", slog.Int("id", i)) })
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 100 {
		t.Errorf("got %d records, want 100", n)
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func TestPretty_Text(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		With(slog.Group("req", slog.Int("id", 7)))
	l.Info("hi", slog.Bool("ok", true))

	want := colorGray + "level" + colorReset + "=" + colorGreen + "INFO" + colorReset + " " +
		colorGray + "msg" + colorReset + "=" + colorCyan + "hi" + colorReset + " " +
		colorGray + "req.id" + colorReset + "=" + colorYellow + "7" + colorReset + " " +
		colorGray + "ok" + colorReset + "=" + colorGreen + "true" + colorReset + "\n"

	if got := buf.String(); got != want {
		t.Errorf("pretty text\n got: %q\nwant: %q", got, want)
	}
}

func TestPretty_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none"))
	l.WithGroup("eval").Error("failed", slog.String("id", "get"))

	out := buf.String()
	if !strings.HasPrefix(out, "{\n") || !strings.HasSuffix(out, "\n}\n") {
		t.Fatalf("pretty JSON not wrapped in braces: %q", out)
	}

	for _, want := range []string{
		colorRed + "ERROR" + colorReset,
		colorGray + "eval.id" + colorReset + ": " + colorCyan + "get" + colorReset,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestWithTimeLayout(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2023-10-15T14:30:45Z"},
		{"rfc3339-nano", "2023-10-15T14:30:45.123456789Z"},
		{"Kitchen", "2:30PM"},
		{"DateOnly", "2023-10-15"},
		{"2006/01/02", "2023/10/15"},
		{"none", ""},
		{"", ""},
		{" \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})

			if got := c.formatTime(now); got != tt.want {
				t.Errorf("formatTime = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{" Info ", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"debug+2", Level(slog.LevelDebug + 2)},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"TEXT", FormatText},
		{" text\n", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		if got := ParseFormat(tt.in); got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelsAndFormats(t *testing.T) {
	var got []string
	for l := range Levels() {
		got = append(got, l)
	}

	if strings.Join(got, ",") != "trace,debug,info,warn,error" {
		t.Errorf("Levels() = %v", got)
	}

	got = got[:0]
	for f := range Formats() {
		got = append(got, f)
	}

	if strings.Join(got, ",") != "json,text" {
		t.Errorf("Formats() = %v", got)
	}
}

func TestPackageLogger(t *testing.T) {
	var buf bytes.Buffer

	prev := SetDefault(Make(&buf, WithPretty(false), WithLevel(LevelTrace)))
	t.Cleanup(func() { SetDefault(prev) })

	funcs := map[string]func(string, ...slog.Attr){
		"TRACE": Trace,
		"DEBUG": Debug,
		"INFO":  Info,
		"WARN":  Warn,
		"ERROR": Error,
	}

	for level, fn := range funcs {
		buf.Reset()
		fn("package message", slog.String("key", "value"))

		record := decode(t, &buf)
		if record[slog.LevelKey] != level || record["key"] != "value" {
			t.Errorf("%s: unexpected record %v", level, record)
		}
	}

	Config(WithLevel(LevelError))

	buf.Reset()
	InfoContext(t.Context(), "filtered")

	if buf.Len() != 0 {
		t.Errorf("Config did not raise the level: %q", buf.String())
	}

	ErrorContext(t.Context(), "kept")

	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Config lost the output writer: %q", buf.String())
	}
}

func TestPackageLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	prev := SetDefault(Make(&buf, WithPretty(false), WithCaller(true)))
	t.Cleanup(func() { SetDefault(prev) })

	Info("where")

	source, ok := decode(t, &buf)[slog.SourceKey].(map[string]any)
	if !ok {
		t.Fatalf("no source in record %q", buf.String())
	}

	if file, _ := source["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %q, want log_test.go", file)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	l := Make(nil, WithPretty(false))

	for i := 0; b.Loop(); i++ {
		l.Info("benchmark", slog.Int("i", i))
	}
}

func BenchmarkLogger_Info_Pretty(b *testing.B) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText))

	for i := 0; b.Loop(); i++ {
		buf.Reset()
		l.Info("benchmark", slog.Int("i", i))
	}
}

func BenchmarkLogger_Filtered(b *testing.B) {
	l := Make(nil, WithLevel(LevelError))

	for b.Loop() {
		l.Debug("dropped", slog.String("k", "v"))
	}
}
