package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/ardnew/nestex/eval"
)

func TestEval_Run(t *testing.T) {
	paths := writeFiles(t,
		"name: World\ngreeting: 'Hello, ${get([name])}!'\n",
		"later: '#{get([name])}'\n",
	)

	tests := []struct {
		name     string
		marker   string
		template string
		stdin    string
		want     string
		wantErr  error
	}{
		{name: "plain", template: "no expressions", want: "no expressions\n"},
		{name: "property", template: "${get([greeting])}", want: "Hello, World!\n"},
		{name: "lazy", template: "${get([later])}", want: "World\n"},
		{name: "stdin", stdin: "${get([name])}\n", want: "World\n"},
		{name: "custom marker", marker: "%", template: "%{get([name])} ${x}", want: "World ${x}\n"},
		{
			name:     "unknown function",
			template: "${nope()}",
			wantErr:  eval.ErrUnknownFunction,
		},
		{
			name:     "missing property",
			template: "${get([missing])}",
			wantErr:  eval.ErrPropertyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := setStreams(t, tt.stdin)

			ctx := WithPropertyFiles(context.Background(), paths)

			if tt.marker != "" {
				var err error
				if ctx, err = WithMarker(ctx, tt.marker); err != nil {
					t.Fatal(err)
				}
			}

			err := (&Eval{Template: tt.template}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, ErrEvaluate) || !errors.Is(err, tt.wantErr) {
					t.Errorf("Eval.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Eval.Run() error: %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("Eval.Run() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_RunInvalidProperties(t *testing.T) {
	setStreams(t, "")

	paths := writeFiles(t, "bad: [unclosed\n")
	ctx := WithPropertyFiles(context.Background(), paths)

	err := (&Eval{Template: "${get([bad])}"}).Run(ctx)
	if !errors.Is(err, ErrLoadProperties) {
		t.Errorf("Eval.Run() error = %v, want %v", err, ErrLoadProperties)
	}
}
