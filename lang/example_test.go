package lang_test

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/nestex/lang"
)

func ExampleParse() {
	root := lang.Parse("Hello, ${upper(${get([name])})}!")

	for n := range root.All() {
		id, ok := n.ID()
		if !ok {
			id = "-"
		}

		fmt.Printf("%s: %s\n", id, n.Template())
	}
	// Output:
	// get: $'{'get([name])'}'
	// upper: $'{'upper({0})'}'
	// -: Hello, {0}!
}

func ExampleParseMarker() {
	root := lang.ParseMarker("#{today} ${today}", lang.LazyMarker)

	fmt.Println(root.Template())
	fmt.Println(root.Child(0).Template())
	// Output:
	// {0} $'{'today'}'
	// #'{'today'}'
}

func ExampleIsExpression() {
	fmt.Println(lang.IsExpression("  ${get([key])}"))
	fmt.Println(lang.IsExpression("#{today}"))
	fmt.Println(lang.IsExpression("plain {text}"))
	// Output:
	// true
	// true
	// false
}

func ExampleNode_Format() {
	root := lang.Parse("${eval(${get([test], fallback)} and ${today})}")

	_ = root.Format(context.Background(), os.Stdout, 2)
	// Output:
	// - "{0}"
	//   eval "$'{'eval({0} and {1})'}'"
	//     get "$'{'get([test], fallback)'}'"
	//     today "$'{'today'}'"
}
