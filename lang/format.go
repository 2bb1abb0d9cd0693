package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the tree as indented text, one node per line. Each line holds
// the node's identifier (or "-" when absent) followed by its quoted template.
// Children are indented by indent spaces per level.
func (n *Node) Format(_ context.Context, w io.Writer, indent int) error {
	if n == nil {
		return nil
	}

	return formatNode(n, w, indent, 0)
}

func formatNode(n *Node, w io.Writer, indent, depth int) error {
	id, ok := n.ID()
	if !ok {
		id = "-"
	}

	_, err := fmt.Fprintf(w, "%s%s %s\n",
		strings.Repeat(" ", depth*indent), id, strconv.Quote(n.Template()))
	if err != nil {
		return err
	}

	for _, child := range n.children {
		err := formatNode(child, w, indent, depth+1)
		if err != nil {
			return err
		}
	}

	return nil
}

// FormatJSON writes the tree as JSON to the writer.
func (n *Node) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(n, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(n)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the tree as YAML to the writer.
func (n *Node) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, n.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}
