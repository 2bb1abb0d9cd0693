package log_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/nestex/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Info("template parsed", slog.Int("children", 2))
	logger.Debug("not written at the default level")
	// Output:
	// {"level":"INFO","msg":"template parsed","children":2}
}

func Example_text() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithLevel(log.LevelTrace),
		log.WithTimeLayout("none"),
		log.WithPretty(false))

	logger.Trace("scanning", slog.String("marker", "$"))
	// Output:
	// level=TRACE msg=scanning marker=$
}

func ExampleLogger_With() {
	logger := log.Make(os.Stdout,
		log.WithTimeLayout("none"),
		log.WithPretty(false)).
		With(slog.String("command", "eval"))

	logger.WarnContext(context.Background(), "property not found",
		slog.String("key", "name"))
	// Output:
	// {"level":"WARN","msg":"property not found","command":"eval","key":"name"}
}
