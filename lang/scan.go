package lang

import (
	"strings"
	"unicode"
)

// Escape tokens substituted for literal braces in a node's template.
const (
	EscapeOpen  = "'{'"
	EscapeClose = "'}'"
)

// capture tracks expression identifier capture within one segment.
type capture int

const (
	captureOff      capture = iota // unanchored segment, or capture finished
	captureArmed                   // waiting for the segment's first '{'
	captureActive                  // appending letters to the identifier
)

// markKind classifies a span of a template that is not plain text.
type markKind int

const (
	markOpen    markKind = iota // EscapeOpen for a literal '{'
	markClose                   // EscapeClose for a literal '}'
	markEscaped                 // rune copied verbatim after a backslash
	markChild                   // placeholder of the next child
)

// mark locates a span of kind in a template by byte offsets [off, end).
type mark struct {
	kind     markKind
	off, end int
}

// frame is the state of one segment being scanned.
type frame struct {
	start    int
	anchored bool // started by a nested marker-brace pair at start
	escaped  bool
	block    bool
	depth    int
	closed   bool
	capture  capture
	template strings.Builder
	id       strings.Builder
	children []*Node
	marks    []mark
}

func newFrame(start int, anchored bool) *frame {
	f := &frame{start: start, anchored: anchored}
	if anchored {
		f.capture = captureArmed
	}

	return f
}

func (f *frame) node() *Node {
	return newNode(f.template.String(), f.id.String(), f.children, f.marks, f.closed)
}

// write appends s to the template and records it as a span of kind.
func (f *frame) write(kind markKind, s string) {
	off := f.template.Len()
	f.template.WriteString(s)
	f.marks = append(f.marks, mark{kind: kind, off: off, end: f.template.Len()})
}

// attach appends child and writes its placeholder into the template.
func (f *frame) attach(child *Node) {
	f.write(markChild, Placeholder(len(f.children)))
	f.children = append(f.children, child)
}

// scanner scans segments of a fixed input for a fixed marker.
type scanner struct {
	input  []rune
	marker rune
}

func (s *scanner) peek(i int) (rune, bool) {
	if i < 0 || i >= len(s.input) {
		return 0, false
	}

	return s.input[i], true
}

// segment scans one unanchored segment beginning at start. It returns the
// segment's node and the index of the last rune consumed, which is
// len(input)-1 when the segment runs to the end of input.
//
// Nested expressions are scanned on an explicit stack of frames rather than by
// recursion; each completed frame is attached to the frame beneath it and
// scanning resumes after the rune that closed it.
func (s *scanner) segment(start int) (*Node, int) {
	stack := []*frame{newFrame(start, false)}

	for i := start; ; {
		f := stack[len(stack)-1]

		end, closed := s.step(f, &i, &stack)
		if !closed {
			continue
		}

		stack = stack[:len(stack)-1]

		if len(stack) == 0 {
			return f.node(), end
		}

		stack[len(stack)-1].attach(f.node())

		i = end + 1
	}
}

// step applies the scanning rules to the rune at *i in frame f, advancing *i.
// It reports closed when f is complete, with end the index of the last rune
// f consumed. A nested expression pushes a new frame onto *stack without
// advancing.
func (s *scanner) step(f *frame, i *int, stack *[]*frame) (end int, closed bool) {
	c, ok := s.peek(*i)
	if !ok {
		return len(s.input) - 1, true
	}

	next, more := s.peek(*i + 1)

	if f.capture == captureActive {
		if f.escaped || f.block || !unicode.IsLetter(c) {
			f.capture = captureOff
		} else {
			f.id.WriteRune(c)
		}
	}

	switch {
	case f.escaped:
		f.write(markEscaped, string(c))
		f.escaped = false

	case c == '\\':
		f.escaped = true

	case more && c == s.marker && next == s.marker:
		f.block = !f.block
		f.template.WriteRune(c)
		f.template.WriteRune(c)
		*i++

	case f.block:
		f.template.WriteRune(c)

	case more && c == s.marker && next == '{' && (*i > f.start || !f.anchored):
		*stack = append(*stack, newFrame(*i, true))

		return 0, false

	case c == '{':
		f.depth++
		if f.capture == captureArmed && f.depth == 1 {
			f.capture = captureActive
		}

		f.write(markOpen, EscapeOpen)

	case c == '}':
		f.write(markClose, EscapeClose)

		// Only a brace that returns a positive depth to zero closes the segment.
		f.depth--
		if f.depth == 0 {
			f.closed = true

			return *i, true
		}

	default:
		f.template.WriteRune(c)
	}

	*i++

	return 0, false
}
