package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// signature describes the arguments of a function, and of the chained
// methods that follow its argument list.
type signature struct {
	name    string
	params  []string
	methods []string
}

func (s signature) String() string {
	var b strings.Builder

	b.WriteString(s.name + "(" + strings.Join(s.params, ", ") + ")")

	for _, m := range s.methods {
		b.WriteString("." + m + "(value)")
	}

	return b.String()
}

// signatures of the builtin evaluator functions.
var signatures = map[string]signature{
	"env":    {name: "env", params: []string{"name", "default"}},
	"eval":   {name: "eval", params: []string{"template"}},
	"expr":   {name: "expr", params: []string{"source"}},
	"get":    {name: "get", params: []string{"[key]", "default"}},
	"if":     {name: "if", params: []string{"condition"}, methods: []string{"then", "else"}},
	"prefix": {name: "prefix", params: []string{"list", "...items"}},
	"today":  {name: "today", params: []string{"layout"}},
}

// Styles for signature hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the function call enclosing the cursor.
type functionCall struct {
	name     string
	argIndex int  // 0-based index of the argument under the cursor
	inCall   bool // whether the cursor is inside an argument list
}

// detectFunctionCall finds the innermost unclosed argument list before cursor
// and returns the name of its function and the index of the argument under
// the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	open := -1
	depth := 0

	for i := cursor - 1; i >= 0 && open < 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !unicode.IsLetter(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// renderSignatureHint renders sig with the parameter at argIndex highlighted.
// A variadic parameter is highlighted for every index at or beyond it.
func renderSignatureHint(sig signature, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(sig.name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range sig.params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	for _, m := range sig.methods {
		b.WriteString(signatureStyle.Render("." + m + "(value)"))
	}

	return b.String()
}
