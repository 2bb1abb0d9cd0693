package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/nestex/eval"
)

// Eval evaluates a template and prints the result.
type Eval struct {
	Template string   `arg:"" help:"Template to evaluate; read from --source when omitted" name:"template" optional:""`
	Source   []string `       help:"Template source file(s) or '-' for stdin"                                         short:"f" type:"existingfile"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	template, err := readTemplate(e.Template, e.Source)
	if err != nil {
		return err
	}

	ev, err := evaluator(ctx)
	if err != nil {
		return err
	}

	result, err := evaluate(ctx, ev, template)
	if err != nil {
		return ErrEvaluate.
			With(slog.String("command", "eval")).
			Wrap(eval.WrapError(err))
	}

	_, err = fmt.Fprintln(stdout, result)

	return err
}
