package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

// WriteText writes d in a human readable form. When template holds the
// full template source, the failing line is quoted with a caret under the
// offending tag. Colors are used only if w is a terminal.
func (d *Diagnostic) WriteText(_ context.Context, w io.Writer, template string) error {
	re := lipgloss.NewRenderer(w)

	var (
		kind   = re.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
		arrow  = re.NewStyle().Foreground(lipgloss.Color("12"))
		gutter = re.NewStyle().Foreground(lipgloss.Color("8"))
		caret  = re.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	)

	path := d.Path
	if path == "" {
		path = "<template>"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s: %s\n", kind.Render(d.Kind.String()), d.Message)
	fmt.Fprintf(&b, "  %s %s:%d\n", arrow.Render("-->"), path, d.Line)

	text, col := d.snippet(template)
	if text != "" {
		num := strconv.Itoa(max(d.Line, 1))
		pad := strings.Repeat(" ", len(num))

		fmt.Fprintf(&b, "%s %s\n", pad, gutter.Render("|"))
		fmt.Fprintf(&b, "%s %s %s\n", gutter.Render(num), gutter.Render("|"), text)

		if col >= 0 {
			width := max(len([]rune(firstLine(d.Source))), 1)
			fmt.Fprintf(&b, "%s %s %s%s\n", pad, gutter.Render("|"),
				strings.Repeat(" ", col), caret.Render(strings.Repeat("^", width)))
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// snippet returns the source line to quote and the rune column of the
// failing tag within it, or -1 when unknown.
func (d *Diagnostic) snippet(template string) (string, int) {
	if d.Line <= 0 || template == "" {
		return firstLine(d.Source), -1
	}

	lines := strings.Split(template, "\n")
	if d.Line > len(lines) {
		return firstLine(d.Source), -1
	}

	line := strings.TrimRight(lines[d.Line-1], "\r")

	if i := strings.Index(line, firstLine(d.Source)); i >= 0 && d.Source != "" {
		return line, len([]rune(line[:i]))
	}

	return line, -1
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")

	return line
}

// WriteJSON writes d as a JSON object.
func (d *Diagnostic) WriteJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(d, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(d)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// WriteYAML writes d as a YAML document, or a flow mapping when indent
// is zero.
func (d *Diagnostic) WriteYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, d, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
