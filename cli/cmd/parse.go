package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/nestex/lang"
)

// Parse prints the parse tree of a template in the chosen format.
type Parse struct {
	Tree Tree `cmd:"" default:"withargs" help:"Print as indented text (default)."`
	JSON JSON `cmd:""                    help:"Print as JSON."`
	YAML YAML `cmd:""                    help:"Print as YAML."`
}

// Tree prints one node per line, children indented below their parent.
type Tree struct {
	Indent   int      `default:"2" help:"Indent width per tree level"                           short:"i"`
	Template string   `arg:""      help:"Template to parse; read from --source when omitted" name:"template" optional:""`
	Source   []string `            help:"Template source file(s) or '-' for stdin"          short:"f"     type:"existingfile"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) error {
	return formatTree(ctx, "tree", t.Template, t.Source, t.Indent, (*lang.Node).Format)
}

// JSON prints the parse tree as JSON.
type JSON struct {
	Indent   int      `default:"2" help:"Indent width for JSON output; 0 for compact"          short:"i"`
	Template string   `arg:""      help:"Template to parse; read from --source when omitted" name:"template" optional:""`
	Source   []string `            help:"Template source file(s) or '-' for stdin"          short:"f"     type:"existingfile"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return formatTree(ctx, "json", j.Template, j.Source, j.Indent, (*lang.Node).FormatJSON)
}

// YAML prints the parse tree as YAML.
type YAML struct {
	Indent   int      `default:"2" help:"Indent width for YAML output; 0 for flow style"       short:"i"`
	Template string   `arg:""      help:"Template to parse; read from --source when omitted" name:"template" optional:""`
	Source   []string `            help:"Template source file(s) or '-' for stdin"          short:"f"     type:"existingfile"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return formatTree(ctx, "yaml", y.Template, y.Source, y.Indent, (*lang.Node).FormatYAML)
}

type formatFunc func(*lang.Node, context.Context, io.Writer, int) error

func formatTree(
	ctx context.Context,
	format, template string,
	sources []string,
	indent int,
	write formatFunc,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	template, err = readTemplate(template, sources)
	if err != nil {
		return err
	}

	if err := write(parse(ctx, template), ctx, stdout, indent); err != nil {
		return ErrFormat.
			With(slog.String("format", format)).
			Wrap(err)
	}

	return nil
}
