package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/nestex/lang"
	"github.com/ardnew/nestex/log"
)

// Check reports whether each argument begins with an expression marker.
type Check struct {
	Strings []string `arg:"" help:"Strings to test" name:"string"`
}

// Run prints true or false for each argument, one per line.
func (c *Check) Run(ctx context.Context) error {
	for _, s := range c.Strings {
		ok := lang.IsExpression(s)

		log.TraceContext(ctx, "check",
			slog.String("input", s),
			slog.Bool("expression", ok),
		)

		if _, err := fmt.Fprintln(stdout, ok); err != nil {
			return err
		}
	}

	return nil
}
