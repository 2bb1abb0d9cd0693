// Package eval evaluates expression trees produced by package lang.
//
// Evaluation is depth first. Each nested expression is evaluated before the
// expression containing it, and its result replaces the corresponding
// placeholder in the parent's template. A node whose template is a complete
// marker-brace expression with an identifier is then dispatched to the
// function of that name:
//
//	${eval(${if(${get([mode])} == fast).then(quick).else(slow)})}
//
// evaluates get first, then if with the property value substituted, and
// finally eval.
//
// # Builtin functions
//
//	get([key], default)        property lookup; expression values are evaluated
//	eval(text)                 evaluate text as a template
//	expr(source)               evaluate an expr-lang expression over the properties
//	if(cond).then(a).else(b)   conditional; else is optional
//	today(layout)              current date, formatted with a Go time layout
//	env(NAME, default)         process environment lookup
//	prefix(list, items...)     prepend items to a path list without duplicates
//
// Additional functions are registered with [WithFunc].
//
// # Lazy expressions
//
// [Evaluator.Evaluate] runs two passes. Expressions written with
// [lang.LazyMarker] are plain text to the first pass and are evaluated by the
// second, after every eagerly evaluated result is in place.
package eval
