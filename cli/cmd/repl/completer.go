package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nestex/props"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "funcs", "props", "tree", "edit", "clear", "quit"}

// exprBuiltins are the functions available inside expr and if conditions.
var exprBuiltins = slices.Sorted(maps.Keys(builtin.Index))

// isWordBoundary reports whether r delimits words for completion: whitespace,
// the member-access dot, template punctuation, and expr operators. Hyphens
// and underscores are part of property keys.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'$', '#', '{', '}',
		'(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';', '"', '\'':
		return true
	}

	return false
}

// wordBounds returns the word containing the cursor and its byte offsets in
// input. The word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dotted key leading up to the word starting at
// wordStart. For "${get([server.http.ho" with the word "ho", the parent path
// is "server.http". It returns "" for words not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// childCandidates returns the completions for a word below parent. At the
// top level these are the function names, the top-level property keys, and,
// inside expr or if, the expr builtins. Below a parent they are the keys of
// the property map at that path.
func (m model) childCandidates(parent string, call functionCall) []string {
	p := m.eval.Properties()

	if parent == "" {
		names := slices.Concat(m.eval.Functions(), slices.Sorted(maps.Keys(p)))

		if call.inCall && (call.name == "expr" || call.name == "if") {
			names = append(names, exprBuiltins...)
		}

		return slices.Compact(names)
	}

	v, ok := p.Lookup(parent)
	if !ok {
		return nil
	}

	sub, ok := v.(props.Map)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(sub))
}

// isFunction reports whether name is a function, which the candidate bar
// marks with "()".
func (m model) isFunction(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	return slices.Contains(m.eval.Functions(), name)
}

// computeMatches returns the fuzzy matches for the word at the cursor, best
// first, along with the candidate list and the word boundaries. An empty
// word matches nothing at the top level, but after a dot every child key is
// offered so the user can browse the map.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)
		candidates = m.childCandidates(parent, detectFunctionCall(input, wordStart))

		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// width. Matched characters are highlighted, and the selected candidate uses
// the selected style while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isFunction func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx,
			isFunction != nil && isFunction(match.Str))

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		// Reserve room for the ellipsis unless this is the last candidate.
		last := i == len(matches)-1
		if i > 0 && used+entryWidth+ellipsisWidth > width && !last ||
			i > 0 && used+entryWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a candidate with its matched characters
// highlighted. Functions are displayed with a "()" suffix that is not part
// of the completion.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if function {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}
