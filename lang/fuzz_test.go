package lang

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// checkPlaceholders verifies every node records one placeholder per child,
// in order, and that each spells the placeholder of that child.
func checkPlaceholders(t *testing.T, input string, root *Node) {
	t.Helper()

	for n := range root.All() {
		next := 0

		for _, m := range n.marks {
			if m.kind != markChild {
				continue
			}

			if got := n.template[m.off:m.end]; got != Placeholder(next) {
				t.Fatalf("input %q: template %q placeholder %d is %q",
					input, n.template, next, got)
			}

			next++
		}

		if next != n.Len() {
			t.Fatalf("input %q: template %q has %d placeholders, node has %d children",
				input, n.template, next, n.Len())
		}
	}
}

// FuzzParse tests the parser with random inputs. Parsing must never panic,
// and placeholders must match children.
func FuzzParse(f *testing.F) {
	f.Add("")
	f.Add("plain text")
	f.Add("${eval(${get([test])})}")
	f.Add("${eval(${get([test], defaultTest)} and ${today})}")
	f.Add("${eval(#{get([test])})}")
	f.Add("${eval(${if(${get([test2])} == testValue).then(true).else(false)})}")
	f.Add("a$$${x}$$b")
	f.Add(`\${x}`)
	f.Add("${a(b")
	f.Add("{a} b {c}")
	f.Add(`{a}\`)
	f.Add("}}{{$")
	f.Add("${")
	f.Add(`${a(\{0\} ${b})}`)
	f.Add("$${0}$$${x}")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parser panicked on input %q: %v", input, r)
			}
		}()

		root := Parse(input)
		if root == nil {
			t.Fatalf("Parse(%q) returned nil", input)
		}

		if _, ok := root.ID(); ok {
			t.Fatalf("Parse(%q): top-level node has an identifier", input)
		}

		checkPlaceholders(t, input, root)

		if !strings.ContainsAny(input, `${}\`) {
			if root.Template() != input || root.Len() != 0 {
				t.Fatalf("Parse(%q) altered marker-free input: %s", input, root)
			}
		}

		_ = ParseMarker(input, LazyMarker)
		_ = IsExpression(input)
	})
}
