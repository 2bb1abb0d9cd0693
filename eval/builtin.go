package eval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/nestex/lang"
	"github.com/ardnew/nestex/props"
)

// getFunc implements get([key], default).
//
// A property whose value contains an expression is itself evaluated. The
// default, if any, is used only when the key is absent.
func (e *Evaluator) getFunc(ctx context.Context, c Call) (string, error) {
	args := c.Split()
	if len(args) == 0 {
		return "", ErrInvalidArguments.With(slog.String("call", c.Text))
	}

	key := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(args[0], "["), "]"))
	if key == "" {
		return "", ErrInvalidArguments.With(slog.String("call", c.Text))
	}

	v, ok := e.props.Lookup(key)
	if !ok {
		if len(args) > 1 {
			return strings.Join(args[1:], ", "), nil
		}

		return "", ErrPropertyNotFound.With(slog.String("key", key))
	}

	s, err := formatValue(v)
	if err != nil {
		return "", ErrInvalidArguments.Wrap(err).With(slog.String("key", key))
	}

	if !containsExpression(s) {
		return s, nil
	}

	ctx, err = e.descend(ctx, key)
	if err != nil {
		return "", err
	}

	return e.Evaluate(ctx, s)
}

// evalFunc implements eval(text), evaluating text as a template.
func (e *Evaluator) evalFunc(ctx context.Context, c Call) (string, error) {
	ctx, err := e.descend(ctx, "")
	if err != nil {
		return "", err
	}

	return e.Evaluate(ctx, c.Args)
}

// exprFunc implements expr(source) using expr-lang.
func (e *Evaluator) exprFunc(_ context.Context, c Call) (string, error) {
	out, err := e.runExpr(c.Args)
	if err != nil {
		return "", err
	}

	s, err := formatValue(out)
	if err != nil {
		return "", ErrExprEvaluate.Wrap(err).With(slog.String("source", c.Args))
	}

	return s, nil
}

// ifFunc implements if(cond).then(a).else(b). The else branch is optional
// and defaults to the empty string.
func (e *Evaluator) ifFunc(_ context.Context, c Call) (string, error) {
	then, ok := c.Method("then")
	if !ok {
		return "", ErrInvalidArguments.With(
			slog.String("call", c.Text),
			slog.String("reason", "missing .then"),
		)
	}

	otherwise, _ := c.Method("else")

	ok, err := e.condition(c.Args)
	if err != nil {
		return "", err
	}

	if ok {
		return then, nil
	}

	return otherwise, nil
}

// condition evaluates a condition of if. A single == or != between plain
// operands compares their trimmed text. Otherwise the condition is parsed as
// a boolean literal, and failing that compiled as an expr-lang expression
// that must yield a bool.
func (e *Evaluator) condition(s string) (bool, error) {
	s = strings.TrimSpace(s)

	if strings.Count(s, "==")+strings.Count(s, "!=") == 1 && !strings.ContainsAny(s, "&|<>()") {
		if l, r, ok := strings.Cut(s, "=="); ok {
			return strings.TrimSpace(l) == strings.TrimSpace(r), nil
		}

		l, r, _ := strings.Cut(s, "!=")

		return strings.TrimSpace(l) != strings.TrimSpace(r), nil
	}

	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}

	out, err := e.runExpr(s, expr.AsBool())
	if err != nil {
		return false, ErrInvalidCondition.Wrap(err).With(slog.String("condition", s))
	}

	b, _ := out.(bool)

	return b, nil
}

// todayFunc implements today(layout). The layout follows [time.Layout] and
// defaults to [time.DateOnly].
func (e *Evaluator) todayFunc(_ context.Context, c Call) (string, error) {
	layout := strings.TrimSpace(c.Args)
	if layout == "" {
		layout = time.DateOnly
	}

	return e.now().Format(layout), nil
}

// envFunc implements env(NAME, default). An unset variable without a default
// yields the empty string.
func (e *Evaluator) envFunc(_ context.Context, c Call) (string, error) {
	args := c.Split()
	if len(args) == 0 || args[0] == "" {
		return "", ErrInvalidArguments.With(slog.String("call", c.Text))
	}

	if v, ok := e.lookupEnv(args[0]); ok {
		return v, nil
	}

	return strings.Join(args[1:], ", "), nil
}

// prefixFunc implements prefix(list, items...), prepending items to a
// path-list-separated list with duplicates removed.
func (e *Evaluator) prefixFunc(_ context.Context, c Call) (string, error) {
	args := c.Split()
	if len(args) == 0 {
		return "", ErrInvalidArguments.With(slog.String("call", c.Text))
	}

	return mung.Make(
		mung.WithSubjectItems(args[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(args[1:]...),
	).String(), nil
}

func (e *Evaluator) runExpr(source string, opts ...expr.Option) (any, error) {
	program, err := expr.Compile(source, append([]expr.Option{expr.Env(e.env)}, opts...)...)
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).With(slog.String("source", source))
	}

	out, err := vm.Run(program, e.env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).With(slog.String("source", source))
	}

	return out, nil
}

// exprEnv builds the expr-lang environment: every property, plus an env
// function reading the process environment unless a property shadows it.
func (e *Evaluator) exprEnv() map[string]any {
	lookup := e.lookupEnv
	env := map[string]any{
		"env": func(name string) string {
			v, _ := lookup(name)

			return v
		},
	}

	for k, v := range e.props.Env() {
		env[k] = v
	}

	return env
}

// formatValue renders a property or expression result as text. Scalars use
// their natural form; lists and maps use YAML flow style.
func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case props.Map:
		return formatValue(v.Env())
	case []any, map[string]any:
		b, err := yaml.MarshalWithOptions(v, yaml.Flow(true))
		if err != nil {
			return "", err
		}

		return strings.TrimSpace(string(b)), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// containsExpression reports whether s contains a marker immediately
// followed by an opening brace.
func containsExpression(s string) bool {
	return strings.Contains(s, string(lang.DefaultMarker)+"{") ||
		strings.Contains(s, string(lang.LazyMarker)+"{")
}
