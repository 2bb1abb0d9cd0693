package eval

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ardnew/nestex/lang"
	"github.com/ardnew/nestex/log"
	"github.com/ardnew/nestex/props"
)

// Func implements a template function. It receives the call with all nested
// expressions already replaced by their results.
type Func func(ctx context.Context, call Call) (string, error)

// DefaultMaxDepth bounds the nesting of recursive evaluation through the get
// and eval functions.
const DefaultMaxDepth = 64

// Evaluator evaluates templates against a function registry and a property
// map. It is immutable after construction and safe for concurrent use.
type Evaluator struct {
	funcs     map[string]Func
	props     props.Map
	env       map[string]any
	now       func() time.Time
	lookupEnv func(string) (string, bool)
	logger    log.Logger
	opts      []Option
	maxDepth  int
}

// Option configures an [Evaluator].
type Option func(Evaluator) Evaluator

// WithFunc registers fn under name, replacing any builtin of the same name.
// A nil fn removes the function.
func WithFunc(name string, fn Func) Option {
	return func(e Evaluator) Evaluator {
		e.funcs = maps.Clone(e.funcs)

		if fn == nil {
			delete(e.funcs, name)
		} else {
			e.funcs[name] = fn
		}

		return e
	}
}

// WithProperties sets the properties consulted by get and exposed to expr.
func WithProperties(p props.Map) Option {
	return func(e Evaluator) Evaluator {
		if p == nil {
			p = props.Map{}
		}

		e.props = p

		return e
	}
}

// WithLogger sets the logger used to trace function calls.
func WithLogger(logger log.Logger) Option {
	return func(e Evaluator) Evaluator {
		e.logger = logger

		return e
	}
}

// WithClock sets the time source used by today.
func WithClock(now func() time.Time) Option {
	return func(e Evaluator) Evaluator {
		if now != nil {
			e.now = now
		}

		return e
	}
}

// WithLookupEnv sets the environment lookup used by env and by the env
// function available to expr.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(e Evaluator) Evaluator {
		if lookup != nil {
			e.lookupEnv = lookup
		}

		return e
	}
}

// WithMaxDepth bounds recursive evaluation. Values less than 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(e Evaluator) Evaluator {
		if depth > 0 {
			e.maxDepth = depth
		}

		return e
	}
}

// New returns an Evaluator with the builtin functions registered and opts
// applied.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		props:     props.Map{},
		now:       time.Now,
		lookupEnv: os.LookupEnv,
		maxDepth:  DefaultMaxDepth,
	}

	e.funcs = map[string]Func{
		"env":    e.envFunc,
		"eval":   e.evalFunc,
		"expr":   e.exprFunc,
		"get":    e.getFunc,
		"if":     e.ifFunc,
		"prefix": e.prefixFunc,
		"today":  e.todayFunc,
	}

	for _, opt := range opts {
		*e = opt(*e)
	}

	e.opts = slices.Clip(opts)
	e.env = e.exprEnv()

	return e
}

// With returns a new Evaluator configured by the options e was created with
// followed by opts.
func (e *Evaluator) With(opts ...Option) *Evaluator {
	return New(append(slices.Clip(e.opts), opts...)...)
}

// Functions returns the names of all registered functions in sorted order.
func (e *Evaluator) Functions() []string {
	return slices.Sorted(maps.Keys(e.funcs))
}

// Properties returns the evaluator's property map.
func (e *Evaluator) Properties() props.Map {
	return e.props
}

// Evaluate evaluates template in two passes. The first pass evaluates
// expressions introduced by [lang.DefaultMarker]. If its result contains
// expressions introduced by [lang.LazyMarker], a second pass evaluates those.
//
// Backslash escapes are decoded once. Text the first pass decoded or computed
// is re-escaped before the second pass parses it, so a backslash in a
// property value or an escaped marker in template reaches the result intact.
func (e *Evaluator) Evaluate(ctx context.Context, template string) (string, error) {
	t, err := e.render(ctx,
		lang.ParseMarker(template, lang.DefaultMarker), lang.DefaultMarker)
	if err != nil {
		return "", err
	}

	if !strings.Contains(t.lazy, string(lang.LazyMarker)+"{") {
		return t.raw, nil
	}

	return e.EvaluateNode(ctx, lang.ParseMarker(t.lazy, lang.LazyMarker), lang.LazyMarker)
}

// EvaluateNode evaluates the tree rooted at root, which was parsed with
// marker. Children are evaluated before their parents and their results
// substituted for the parent's placeholders. A node with an identifier whose
// template is a closed marker{...} expression is then passed to the function
// of that name; any other node evaluates to its substituted template.
func (e *Evaluator) EvaluateNode(
	ctx context.Context,
	root *lang.Node,
	marker rune,
) (string, error) {
	t, err := e.render(ctx, root, marker)

	return t.raw, err
}

// rendering is the result of evaluating a node. raw is the final text. lazy
// is the same text with backslashes restored, so that parsing it with a
// different marker reads the escaped and computed text back unchanged.
type rendering struct {
	raw, lazy string
}

func (e *Evaluator) render(
	ctx context.Context,
	root *lang.Node,
	marker rune,
) (rendering, error) {
	if err := ctx.Err(); err != nil {
		return rendering{}, err
	}

	results := make(map[*lang.Node]rendering)

	for n := range root.All() {
		args := make([]rendering, n.Len())
		for i := range args {
			child := n.Child(i)
			args[i] = results[child]
			delete(results, child)
		}

		t, err := e.evalNode(ctx, n, marker, args)
		if err != nil {
			return rendering{}, err
		}

		results[n] = t
	}

	return results[root], nil
}

// compose joins the parts of n's template with the results of its children
// substituted at their placeholders.
func compose(n *lang.Node, args []rendering) rendering {
	var raw, lazy strings.Builder

	for p := range n.Parts() {
		switch p.Kind {
		case lang.PartText:
			raw.WriteString(p.Text)
			lazy.WriteString(p.Text)

		case lang.PartEscaped:
			raw.WriteString(p.Text)
			lazy.WriteByte('\\')
			lazy.WriteString(p.Text)

		case lang.PartChild:
			if p.Child < len(args) {
				raw.WriteString(args[p.Child].raw)
				lazy.WriteString(args[p.Child].lazy)
			}
		}
	}

	return rendering{raw: raw.String(), lazy: lazy.String()}
}

func (e *Evaluator) evalNode(
	ctx context.Context,
	n *lang.Node,
	marker rune,
	args []rendering,
) (rendering, error) {
	template := n.Template()
	open := string(marker) + lang.EscapeOpen
	t := compose(n, args)

	id, ok := n.ID()
	if !ok || !n.Closed() || !strings.HasPrefix(template, open) ||
		len(template) < len(open)+len(lang.EscapeClose) {
		return t, nil
	}

	// The template starts with marker{ and ends with the closing brace.
	body := t.raw[len(string(marker))+1 : len(t.raw)-1]
	call := makeCall(id, body)

	fn, ok := e.funcs[id]
	if !ok {
		return rendering{}, ErrUnknownFunction.With(slog.String("id", id))
	}

	result, err := fn(ctx, call)
	if err != nil {
		e.logger.DebugContext(ctx, "call failed",
			slog.Any("call", call),
			slog.Any("error", err))

		return rendering{}, err
	}

	e.logger.TraceContext(ctx, "call",
		slog.Any("call", call),
		slog.String("result", result))

	return rendering{raw: result, lazy: strings.ReplaceAll(result, `\`, `\\`)}, nil
}

type stateKey struct{}

// state tracks recursive evaluation along one call chain.
type state struct {
	keys  []string // property keys being resolved, outermost first
	depth int
}

// descend returns a context one level deeper in recursive evaluation, or an
// error if that exceeds the maximum depth or revisits the property key.
func (e *Evaluator) descend(ctx context.Context, key string) (context.Context, error) {
	s, _ := ctx.Value(stateKey{}).(state)

	if s.depth >= e.maxDepth {
		return nil, ErrMaxDepthExceeded.With(slog.Int("max_depth", e.maxDepth))
	}

	if key != "" && slices.Contains(s.keys, key) {
		return nil, ErrCycle.With(
			slog.String("key", key),
			slog.String("path", strings.Join(append(slices.Clip(s.keys), key), " -> ")),
		)
	}

	next := state{keys: s.keys, depth: s.depth + 1}
	if key != "" {
		next.keys = append(slices.Clip(s.keys), key)
	}

	return context.WithValue(ctx, stateKey{}, next), nil
}
