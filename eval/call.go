package eval

import (
	"log/slog"
	"strings"
)

// Call describes one invocation of a function in a template.
//
// For the expression ${if(a == b).then(x).else(y)}, after nested expressions
// have been replaced by their results:
//
//	ID   = "if"
//	Args = "a == b"
//	Tail = ".then(x).else(y)"
//	Text = "if(a == b).then(x).else(y)"
type Call struct {
	// ID is the function name.
	ID string
	// Args is the text between the parentheses following ID, or empty when
	// ID is not followed by '('.
	Args string
	// Tail is the text following the argument list.
	Tail string
	// Text is the complete body of the expression between its braces.
	Text string
}

// makeCall splits the body of an expression whose identifier is id.
func makeCall(id, text string) Call {
	c := Call{ID: id, Text: text}

	rest := strings.TrimPrefix(text, id)
	if !strings.HasPrefix(rest, "(") {
		c.Tail = rest

		return c
	}

	end := closingParen(rest)
	if end < 0 {
		c.Args = rest[1:]

		return c
	}

	c.Args, c.Tail = rest[1:end], rest[end+1:]

	return c
}

// closingParen returns the index of the parenthesis matching the one at s[0],
// or -1 if it is unmatched.
func closingParen(s string) int {
	depth := 0

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// Split returns the comma-separated arguments of c with surrounding space
// trimmed. Commas nested inside (), [] or {} do not separate arguments.
// An empty argument list yields no arguments.
func (c Call) Split() []string {
	return splitArgs(c.Args)
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		args  []string
		depth int
		start int
	)

	for i, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	return append(args, strings.TrimSpace(s[start:]))
}

// Method returns the argument text of the chained call .name(...) in the
// tail, and whether it was present.
func (c Call) Method(name string) (string, bool) {
	depth := 0

	for i := 0; i < len(c.Tail); i++ {
		switch c.Tail[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '.':
			if depth > 0 || !strings.HasPrefix(c.Tail[i+1:], name+"(") {
				continue
			}

			rest := c.Tail[i+1+len(name):]
			if end := closingParen(rest); end >= 0 {
				return rest[1:end], true
			}

			return rest[1:], true
		}
	}

	return "", false
}

// LogValue implements [slog.LogValuer].
func (c Call) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", c.ID),
		slog.String("args", c.Args),
		slog.String("tail", c.Tail),
	)
}
