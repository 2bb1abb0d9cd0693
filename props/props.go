// Package props loads the property maps consulted by the get function of
// package eval.
//
// Properties are YAML mappings. Nested mappings are addressed with dotted
// keys, so the document
//
//	app:
//	  name: nestex
//	  greeting: Hello, ${get([app.name])}!
//
// defines the keys "app.name" and "app.greeting".
package props

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// Map is a tree of properties decoded from YAML.
type Map map[string]any

// Load decodes a single YAML mapping from r. An empty document yields an
// empty Map.
func Load(ctx context.Context, r io.Reader) (Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := yaml.UnmarshalContext(ctx, data, &m); err != nil {
		return nil, err
	}

	return normalize(m), nil
}

// normalize converts nested mappings with non-string keys, as decoded from
// YAML, into Maps keyed by their string form.
func normalize(m map[string]any) Map {
	out := make(Map, len(m))

	for k, v := range m {
		out[k] = normalizeValue(v)
	}

	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case Map:
		return normalize(v)
	case map[string]any:
		return normalize(v)
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = e
		}

		return normalize(m)
	case []any:
		s := make([]any, len(v))
		for i, e := range v {
			s[i] = normalizeValue(e)
		}

		return s
	default:
		return v
	}
}

// Lookup returns the value at the dotted key. An exact match on a top-level
// key takes precedence over descending into nested maps.
func (m Map) Lookup(key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}

	head, rest, found := strings.Cut(key, ".")
	for found {
		if sub, ok := m[head].(Map); ok {
			if v, ok := sub.Lookup(rest); ok {
				return v, true
			}
		}

		// Keys may themselves contain dots; try a longer head.
		var next string

		next, rest, found = strings.Cut(rest, ".")
		head += "." + next
	}

	return nil, false
}

// Merge returns a new Map combining m and others. Nested maps are merged
// recursively; for any other value the last Map defining a key wins.
func (m Map) Merge(others ...Map) Map {
	out := clone(m)

	for _, o := range others {
		for k, v := range o {
			dst, dok := out[k].(Map)
			src, sok := v.(Map)

			if dok && sok {
				out[k] = dst.Merge(src)
			} else {
				out[k] = cloneValue(v)
			}
		}
	}

	return out
}

func clone(m Map) Map {
	out := make(Map, len(m))

	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Map:
		return clone(v)
	case []any:
		return slices.Clone(v)
	default:
		return v
	}
}

// Keys returns the dotted key of every leaf value in sorted order.
func (m Map) Keys() []string {
	var keys []string

	var walk func(prefix string, m Map)

	walk = func(prefix string, m Map) {
		for k, v := range m {
			if sub, ok := v.(Map); ok && len(sub) > 0 {
				walk(prefix+k+".", sub)

				continue
			}

			keys = append(keys, prefix+k)
		}
	}

	walk("", m)
	slices.Sort(keys)

	return keys
}

// Env returns m as a plain map suitable as an expression environment.
// Nested Maps are converted as well.
func (m Map) Env() map[string]any {
	out := make(map[string]any, len(m))

	for k, v := range m {
		if sub, ok := v.(Map); ok {
			out[k] = sub.Env()
		} else {
			out[k] = v
		}
	}

	return out
}
