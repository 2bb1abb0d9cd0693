package eval

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ardnew/nestex/lang"
	"github.com/ardnew/nestex/log"
	"github.com/ardnew/nestex/props"
)

var fixedTime = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)

func testProps() props.Map {
	return props.Map{
		"test":  "value",
		"test2": "testValue",
		"name":  "World",
		"greet": "Hello, ${get([name])}!",
		"later": "#{get([name])}",
		"loopA": "${get([loopB])}",
		"loopB": "${get([loopA])}",
		"chain": props.Map{
			"a": "${get([chain.b])}",
			"b": "${get([chain.c])}",
			"c": "end",
		},
		"count": 3,
		"list":  []any{"a", "b"},
	}
}

func testEnv(name string) (string, bool) {
	if name == "HOME" {
		return "/home/user", true
	}

	return "", false
}

func newTestEvaluator(opts ...Option) *Evaluator {
	return New(append([]Option{
		WithProperties(testProps()),
		WithClock(func() time.Time { return fixedTime }),
		WithLookupEnv(testEnv),
	}, opts...)...)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"plain text", "no expressions {here}", "no expressions {here}"},
		{"empty", "", ""},
		{"single get", "${get([test])}", "value"},
		{"surrounding text", "Hello, ${get([name])}!", "Hello, World!"},
		{"eval of get", "${eval(${get([test])})}", "value"},
		{"default and today", "${eval(${get([missing], defaultTest)} and ${today})}", "defaultTest and 2024-03-05"},
		{"default with comma", "${get([missing], a, b)}", "a, b"},
		{"nested if", "${eval(${if(${get([test2])} == testValue).then(true).else(false)})}", "true"},
		{"if not equal", "${if(${get([test2])} != testValue).then(yes).else(no)}", "no"},
		{"if without else", "${if(false).then(yes)}", ""},
		{"if expr condition", "${if(len(name) > 3).then(long).else(short)}", "long"},
		{"if expr on count", "${if(count >= 3 && count < 5).then(in).else(out)}", "in"},
		{"recursive property", "${get([greet])}", "Hello, World!"},
		{"chained properties", "${get([chain.a])}", "end"},
		{"number property", "${get([count])}", "3"},
		{"lazy marker in eval", "${eval(#{get([test])})}", "value"},
		{"lazy pass after eager", "#{get([test])} and ${get([name])}", "value and World"},
		{"lazy property value", "${get([later])}", "World"},
		{"today layout", "${today(2006/01)}", "2024/03"},
		{"expr arithmetic", "${expr(count * 2 + 1)}", "7"},
		{"expr strings", `${expr(name + "!")}`, "World!"},
		{"expr env", `${expr(env("HOME"))}`, "/home/user"},
		{"env set", "${env(HOME, /tmp)}", "/home/user"},
		{"env default", "${env(UNSET, fallback)}", "fallback"},
		{"env unset", "[${env(UNSET)}]", "[]"},
		{"escaped marker", `\${get([test])}`, "${get([test])}"},
		{"block escape", "$$${get([test])}$$", "$$${get([test])}$$"},
		{"unterminated", "${get([test])", "${get([test])"},
		{"no identifier", "${ get([test])}", "${ get([test])}"},
		{"literal block and text", "{a} ${get([test])} {b}", "{a} value {b}"},
	}

	e := newTestEvaluator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(t.Context(), tt.template)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.template, err)
			}

			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     error
	}{
		{"unknown function", "${nope(x)}", ErrUnknownFunction},
		{"missing property", "${get([missing])}", ErrPropertyNotFound},
		{"empty key", "${get([])}", ErrInvalidArguments},
		{"no key", "${get}", ErrInvalidArguments},
		{"cycle", "${get([loopA])}", ErrCycle},
		{"if without then", "${if(true)}", ErrInvalidArguments},
		{"invalid condition", "${if(maybe).then(a)}", ErrInvalidCondition},
		{"expr compile", "${expr(1 +)}", ErrExprCompile},
		{"expr runtime", "${expr(list[5])}", ErrExprEvaluate},
		{"env without name", "${env()}", ErrInvalidArguments},
		{"error inside nesting", "${eval(${get([missing])})}", ErrPropertyNotFound},
	}

	e := newTestEvaluator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(t.Context(), tt.template)
			if !errors.Is(err, tt.want) {
				t.Errorf("Evaluate(%q) error = %v, want %v", tt.template, err, tt.want)
			}
		})
	}
}

func TestEvaluate_MaxDepth(t *testing.T) {
	_, err := newTestEvaluator(WithMaxDepth(1)).Evaluate(t.Context(), "${get([chain.a])}")
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("error = %v, want %v", err, ErrMaxDepthExceeded)
	}

	got, err := newTestEvaluator(WithMaxDepth(2)).Evaluate(t.Context(), "${get([chain.a])}")
	if err != nil || got != "end" {
		t.Errorf("Evaluate = %q, %v; want end", got, err)
	}
}

func TestEvaluate_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := newTestEvaluator().Evaluate(ctx, "${get([test])}"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestWithFunc(t *testing.T) {
	upper := func(_ context.Context, c Call) (string, error) {
		return strings.ToUpper(c.Args), nil
	}

	e := newTestEvaluator(WithFunc("upper", upper), WithFunc("env", nil))

	got, err := e.Evaluate(t.Context(), "${upper(${get([name])})}")
	if err != nil || got != "WORLD" {
		t.Errorf("upper = %q, %v; want WORLD", got, err)
	}

	if _, err := e.Evaluate(t.Context(), "${env(HOME)}"); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("removed function still callable: %v", err)
	}

	if base := New(); len(base.Functions()) != 7 {
		t.Errorf("WithFunc modified the builtin registry: %v", base.Functions())
	}
}

func TestEvaluator_With(t *testing.T) {
	e := newTestEvaluator()
	other := e.With(WithProperties(props.Map{"test": "other"}))

	got, err := other.Evaluate(t.Context(), "${get([test])} ${today}")
	if err != nil || got != "other 2024-03-05" {
		t.Errorf("With: Evaluate = %q, %v; want %q", got, err, "other 2024-03-05")
	}

	if got, _ := e.Evaluate(t.Context(), "${get([test])}"); got != "value" {
		t.Errorf("With modified the original evaluator: %q", got)
	}
}

func TestFunctions(t *testing.T) {
	want := "env eval expr get if prefix today"
	if got := strings.Join(New().Functions(), " "); got != want {
		t.Errorf("Functions() = %q, want %q", got, want)
	}
}

func TestPrefix(t *testing.T) {
	got, err := newTestEvaluator().Evaluate(t.Context(), "${prefix(/usr/bin, /opt/bin)}")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(got, "/opt/bin") || !strings.Contains(got, "/usr/bin") {
		t.Errorf("prefix = %q, want /opt/bin before /usr/bin", got)
	}
}

func TestGet_List(t *testing.T) {
	got, err := newTestEvaluator().Evaluate(t.Context(), "${get([list])}")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(got, "[") || !strings.Contains(got, "a") || !strings.Contains(got, "b") {
		t.Errorf("get(list) = %q, want a flow sequence", got)
	}
}

func TestEvaluate_Escapes(t *testing.T) {
	p := testProps()
	p["path"] = `C:\dir\file`

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"property backslashes", "${get([path])}", `C:\dir\file`},
		{"property backslashes with lazy pass", "${get([path])} #{today}", `C:\dir\file 2024-03-05`},
		{"escaped backslash", `literal \\ ${today}`, `literal \ 2024-03-05`},
		{"escaped backslash with lazy pass", `literal \\ #{today}`, `literal \ 2024-03-05`},
		{"escaped lazy marker", `\#{today} ${get([name])}`, "#{today} World"},
		{"computed argument of lazy call", "#{env(UNSET, ${get([path])})}", `C:\dir\file`},
		{"escaped placeholder", `a\{0\} ${get([name])}`, "a{0} World"},
		{"escaped placeholder without children", `a\{0\}`, "a{0}"},
		{"escaped placeholder in call", `${env(UNSET, \{0\} ${get([name])})}`, "{0} World"},
		{"escaped escape token", `\'\{\' ${get([name])}`, "'{' World"},
		{"placeholder text in block", "$${0}$$ ${get([name])}", "$${0}$$ World"},
	}

	e := newTestEvaluator(WithProperties(p))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(t.Context(), tt.template)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.template, err)
			}

			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestEvaluateNode_CustomMarker(t *testing.T) {
	e := newTestEvaluator()

	got, err := e.EvaluateNode(t.Context(), lang.ParseMarker("@{get([test])} ${x}", '@'), '@')
	if err != nil {
		t.Fatal(err)
	}

	if got != "value ${x}" {
		t.Errorf("EvaluateNode = %q, want %q", got, "value ${x}")
	}
}

func TestEvaluate_Logging(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf, log.WithLevel(log.LevelTrace), log.WithPretty(false))
	e := newTestEvaluator(WithLogger(logger))

	if _, err := e.Evaluate(t.Context(), "${get([test])}"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), `"id":"get"`) {
		t.Errorf("call not traced: %s", buf.String())
	}
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := ErrExprCompile.Wrap(cause)

	if err.Error() != "expression compilation failed: boom" {
		t.Errorf("Error() = %q", err.Error())
	}

	if !errors.Is(err, cause) || !errors.Is(err, ErrExprCompile) {
		t.Error("wrapped error does not match its cause and sentinel")
	}

	if errors.Is(err, ErrExprEvaluate) {
		t.Error("wrapped error matches an unrelated sentinel")
	}

	if WrapError(err) != err {
		t.Error("WrapError should return an existing *Error unchanged")
	}

	if got := WrapError(cause).Error(); got != "boom" {
		t.Errorf("WrapError(cause).Error() = %q", got)
	}
}

func FuzzEvaluate(f *testing.F) {
	f.Add("${eval(${get([test])})}")
	f.Add("${if(${get([test2])} == testValue).then(a).else(b)}")
	f.Add("#{get([name])} ${today}")
	f.Add("${expr(count + 1)}")
	f.Add("${get([loopA])}")
	f.Add("{0}{1}'{'")

	e := newTestEvaluator(WithFunc("env", nil), WithFunc("prefix", nil))

	f.Fuzz(func(t *testing.T, template string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Evaluate panicked on %q: %v", template, r)
			}
		}()

		_, _ = e.Evaluate(t.Context(), template)
	})
}
