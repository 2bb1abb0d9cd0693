package lang

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ardnew/nestex/log"
)

// Marker characters recognized by [IsExpression].
const (
	DefaultMarker = '$'
	LazyMarker    = '#'
)

// Parse parses s using [DefaultMarker].
func Parse(s string) *Node {
	return ParseMarker(s, DefaultMarker)
}

// ParseMarker parses s into an expression tree using the given marker.
//
// If a single segment covers all of s, its node is returned directly.
// Otherwise a root node without identifier is synthesized with one child per
// top-level segment. A trailing segment with an empty template is discarded.
func ParseMarker(s string, marker rune) *Node {
	sc := scanner{input: []rune(s), marker: marker}
	last := len(sc.input) - 1

	node, end := sc.segment(0)
	if end >= last {
		return node
	}

	root := &frame{}
	root.attach(node)

	for end < last {
		node, end = sc.segment(end + 1)
		if node.template == "" {
			break
		}

		root.attach(node)
	}

	return root.node()
}

// Option configures [ParseString].
type Option func(options) options

type options struct {
	logger log.Logger
	marker rune
}

// WithMarker sets the marker character. Invalid markers are ignored.
func WithMarker(marker rune) Option {
	return func(o options) options {
		if ValidMarker(marker) {
			o.marker = marker
		}

		return o
	}
}

// WithLogger sets the logger used to trace parsing.
func WithLogger(logger log.Logger) Option {
	return func(o options) options {
		o.logger = logger

		return o
	}
}

// ParseString parses s with the given options. The default marker is
// [DefaultMarker] and the default logger discards everything.
func ParseString(ctx context.Context, s string, opts ...Option) *Node {
	o := options{marker: DefaultMarker}
	for _, opt := range opts {
		o = opt(o)
	}

	node := ParseMarker(s, o.marker)

	// Depth walks the whole tree.
	if !o.logger.EnabledAt(ctx, log.LevelTrace) {
		return node
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("marker", string(o.marker)),
		slog.Int("input_length", len(s)),
		slog.Int("depth", node.Depth()),
		slog.Any("root", node),
	)

	return node
}

// ValidMarker reports whether r can serve as a marker: it must not be a
// letter, a brace, or a backslash.
func ValidMarker(r rune) bool {
	switch r {
	case '{', '}', '\\':
		return false
	default:
		return !unicode.IsLetter(r)
	}
}

// IsExpression reports whether the first non-whitespace character of s is
// [DefaultMarker] or [LazyMarker]. Leading whitespace is as defined by
// [isBlank], so no-break spaces and NEL are significant.
func IsExpression(s string) bool {
	s = strings.TrimLeftFunc(s, isBlank)
	if s == "" {
		return false
	}

	switch s[0] {
	case DefaultMarker, LazyMarker:
		return true
	default:
		return false
	}
}

// isBlank reports whether r is whitespace that does not forbid a line break.
// Unlike [unicode.IsSpace] it excludes the no-break spaces and NEL (U+0085),
// and it includes the information separators U+001C through U+001F.
func isBlank(r rune) bool {
	switch r {
	case '\u00A0', '\u2007', '\u202F':
		return false
	case '\t', '\n', '\v', '\f', '\r', '\u001C', '\u001D', '\u001E', '\u001F':
		return true
	}

	return unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}
