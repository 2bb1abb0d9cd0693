// Package lang parses text templates containing nested, marker-delimited
// pseudo-function calls into a tree of expression nodes.
//
// # Syntax
//
// A marker character (default '$', lazy '#') immediately followed by '{'
// opens an expression. The expression runs until its braces balance:
//
//	Hello ${upper(${get([name])})}!
//
// Each expression becomes a child [Node] of the segment that contains it, and
// its text in the parent's template is replaced by a positional placeholder
// ({0}, {1}, ...). Literal braces are rewritten as the escape tokens
// [EscapeOpen] and [EscapeClose] so the template is safe for positional
// substitution.
//
// The leading run of letters following an expression's opening marker and
// brace is its identifier, reported by [Node.ID]:
//
//	${get([name])}  → ID "get", template "$'{'get([name])'}'"
//
// # Escaping
//
// A backslash copies the next character verbatim. A doubled marker toggles
// block escape: everything up to the next doubled marker is copied verbatim,
// including marker-brace pairs. Both doubled markers remain in the template.
//
//	\${not parsed}      → template "${not parsed}" (no children)
//	$$${not parsed}$$   → template "$$${not parsed}$$" (no children)
//
// # Totality
//
// Parsing never fails. Unbalanced braces fold the rest of the input into the
// current expression, a marker not followed by '{' is ordinary text, and the
// empty string parses to an empty node. The scanner keeps its own frame stack,
// so nesting depth is limited only by memory.
//
// Parsing is stateless: [Parse], [ParseMarker], [ParseString] and
// [IsExpression] are safe for concurrent use on independent inputs.
package lang
