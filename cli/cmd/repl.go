package cmd

import (
	"context"

	"github.com/ardnew/nestex/cli/cmd/repl"
	"github.com/ardnew/nestex/log"
)

// Repl evaluates templates interactively.
type Repl struct{}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	ev, err := evaluator(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Config{
		Evaluator: ev,
		Marker:    markerFrom(ctx),
		CacheDir:  cacheDir,
		Logger:    log.Default(),
	})
}
