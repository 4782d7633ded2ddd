package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/artmpl/log"
)

const defaultEditor = "vi"

// editDataCommand implements [tea.ExecCommand] for the data
// edit-parse-retry loop. It writes the current data as YAML to a temp
// file, opens the user's editor, and parses the result. On parse error the
// user is prompted to re-edit; declining keeps the old data.
type editDataCommand struct {
	data    map[string]any
	ctxFunc func() context.Context
	newData map[string]any
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editDataCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editDataCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editDataCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] if the user
// gives up after a parse error.
func (c *editDataCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := yaml.MarshalContext(ctx, c.data, yaml.Indent(2))
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "artmpl-data-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		edited, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if strings.TrimSpace(string(edited)) == "" {
			return nil
		}

		data, parseErr := parseData(edited)
		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(edited)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.newData = data

			return nil
		}

		fmt.Fprintf(c.stderr, "\nParse error: %s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}

		content = edited
	}
}

// parseData decodes a YAML or JSON mapping.
func parseData(b []byte) (map[string]any, error) {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	switch v := doc.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, ErrDataShape
	}
}

// runEditor opens $EDITOR on path and waits for it to exit.
func runEditor(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
