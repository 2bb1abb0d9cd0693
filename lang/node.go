package lang

import (
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Node is an immutable expression tree node produced by the parser.
//
// A parent exclusively owns its children. The placeholder {i} is written once
// into the parent's template for each child i, in increasing order. Escaped
// text may contain the same characters as a placeholder or an escape token;
// use [Node.Parts] to tell them apart.
type Node struct {
	template string
	id       string
	children []*Node
	marks    []mark // placeholders, escape tokens and escaped runes in template
	closed   bool
}

// Template returns the node's literal text with nested expressions replaced by
// positional placeholders and literal braces replaced by escape tokens.
func (n *Node) Template() string {
	if n == nil {
		return ""
	}

	return n.template
}

// ID returns the expression identifier and whether one was captured.
func (n *Node) ID() (string, bool) {
	if n == nil || n.id == "" {
		return "", false
	}

	return n.id, true
}

// Closed reports whether the node's outermost brace was matched before the
// end of input. An expression node that is not closed is unterminated.
func (n *Node) Closed() bool {
	return n != nil && n.closed
}

// Len returns the number of children.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}

	return len(n.children)
}

// Child returns the i'th child, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= n.Len() {
		return nil
	}

	return n.children[i]
}

// Children returns a copy of the node's children in discovery order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}

	return slices.Clone(n.children)
}

// All returns an iterator over the tree rooted at n in post-order: every
// child is yielded before its parent, and siblings left to right.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n == nil {
			return
		}

		type visit struct {
			node *Node
			next int // index of the next child to descend into
		}

		stack := []visit{{node: n}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next < len(top.node.children) {
				child := top.node.children[top.next]
				top.next++

				stack = append(stack, visit{node: child})

				continue
			}

			stack = stack[:len(stack)-1]

			if !yield(top.node) {
				return
			}
		}
	}
}

// Depth returns the number of levels in the tree rooted at n. A leaf has
// depth 1 and a nil node has depth 0.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}

	depth := make(map[*Node]int)

	for node := range n.All() {
		d := 0
		for _, child := range node.children {
			d = max(d, depth[child])
		}

		depth[node] = d + 1
	}

	return depth[n]
}

// String returns a compact single-line representation of the tree.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	var sb strings.Builder

	n.writeCompact(&sb)

	return sb.String()
}

func (n *Node) writeCompact(sb *strings.Builder) {
	if id, ok := n.ID(); ok {
		sb.WriteString(id)
	}

	sb.WriteString(strconv.Quote(n.template))

	if len(n.children) == 0 {
		return
	}

	sb.WriteByte('[')

	for i, child := range n.children {
		if i > 0 {
			sb.WriteString(", ")
		}

		child.writeCompact(sb)
	}

	sb.WriteByte(']')
}

// LogValue implements [slog.LogValuer].
func (n *Node) LogValue() slog.Value {
	if n == nil {
		return slog.StringValue("<nil>")
	}

	attrs := make([]slog.Attr, 0, 3)

	if id, ok := n.ID(); ok {
		attrs = append(attrs, slog.String("id", id))
	}

	return slog.GroupValue(append(attrs,
		slog.String("template", n.template),
		slog.Int("children", len(n.children)),
	)...)
}

// PartKind classifies a [Part] of a template.
type PartKind int

const (
	// PartText is literal text. Escape tokens are decoded to braces.
	PartText PartKind = iota
	// PartEscaped is a single rune that was preceded by a backslash.
	PartEscaped
	// PartChild is the placeholder of a child expression.
	PartChild
)

// Part is one piece of a node's template as produced by [Node.Parts].
type Part struct {
	Kind  PartKind
	Text  string // text of a PartText or PartEscaped
	Child int    // child index of a PartChild
}

// Parts returns an iterator over the pieces of the node's template in order.
// Unlike a textual scan of [Node.Template], it reports only the placeholders
// and escape tokens the parser wrote, so an escaped "\{0\}" in the input is
// text and not a reference to child 0.
func (n *Node) Parts() iter.Seq[Part] {
	return func(yield func(Part) bool) {
		if n == nil {
			return
		}

		pos, child := 0, 0

		for _, m := range n.marks {
			if m.off > pos && !yield(Part{Kind: PartText, Text: n.template[pos:m.off]}) {
				return
			}

			var p Part

			switch m.kind {
			case markOpen:
				p = Part{Kind: PartText, Text: "{"}
			case markClose:
				p = Part{Kind: PartText, Text: "}"}
			case markEscaped:
				p = Part{Kind: PartEscaped, Text: n.template[m.off:m.end]}
			case markChild:
				p = Part{Kind: PartChild, Child: child}
				child++
			}

			if !yield(p) {
				return
			}

			pos = m.end
		}

		if pos < len(n.template) {
			yield(Part{Kind: PartText, Text: n.template[pos:]})
		}
	}
}

// Placeholder returns the positional placeholder token for child index i.
func Placeholder(i int) string {
	return "{" + strconv.Itoa(i) + "}"
}

// newNode constructs a node. Only the parser creates nodes.
func newNode(template, id string, children []*Node, marks []mark, closed bool) *Node {
	return &Node{
		template: template,
		id:       id,
		children: children,
		marks:    marks,
		closed:   closed,
	}
}
