package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/nestex/log"
	"github.com/ardnew/nestex/props"
)

const defaultEditor = "vi"

// editPropsCommand implements [tea.ExecCommand] for the property
// edit-decode-retry loop. It writes the current properties as YAML to a temp
// file, opens the user's editor, and decodes the result. On decode error the
// user is prompted to re-edit; declining returns [ErrEditDeclined].
//
// The decoded properties are stored in result. A nil result means the user
// cleared the file and the edit was cancelled.
type editPropsCommand struct {
	props   props.Map
	ctxFunc func() context.Context
	result  props.Map
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editPropsCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editPropsCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editPropsCommand) SetStderr(w io.Writer) { c.stderr = w }

func (c *editPropsCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := marshalProps(ctx, c.props)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "nestex-props-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	// Keep one reader over stdin across prompts so buffered input is not lost.
	prompt := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		m, loadErr := props.Load(ctx, bytes.NewReader(data))
		c.logger.TraceContext(ctx, "editor decode attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", loadErr == nil),
		)

		if loadErr == nil {
			c.result = m

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", loadErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !prompt.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(prompt.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		// Re-edit the content that failed to decode.
		content = data
	}
}

// marshalProps encodes p as the YAML document presented in the editor. An
// empty map is presented as an empty document.
func marshalProps(ctx context.Context, p props.Map) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}

	return yaml.MarshalContext(ctx, map[string]any(p), yaml.Indent(2))
}

// runEditor opens path in $EDITOR, or vi, and returns the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) ([]byte, error) {
	// EDITOR may carry arguments, as in "code --wait".
	fields := strings.Fields(os.Getenv("EDITOR"))
	if len(fields) == 0 {
		fields = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
