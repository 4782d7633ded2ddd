package lang_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ardnew/artmpl/lang"
)

func compileError(t *testing.T, source string) *lang.Diagnostic {
	t.Helper()

	_, err := lang.Compile(source, quiet(), lang.WithBail(true), lang.WithFilename("page.art"))

	d, ok := lang.AsDiagnostic(err)
	if !ok {
		t.Fatalf("Compile() error = %v, want *lang.Diagnostic", err)
	}

	return d
}

func TestDiagnostic_WriteText(t *testing.T) {
	t.Parallel()

	source := "<p>\n  <%= a b %></p>"
	d := compileError(t, source)

	var buf bytes.Buffer
	if err := d.WriteText(context.Background(), &buf, source); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	want := strings.Join([]string{
		"CompileError: " + d.Message,
		"  --> page.art:2",
		"  |",
		"2 |   <%= a b %></p>",
		"  |   ^^^^^^^^^^",
		"",
	}, "\n")

	if got := buf.String(); got != want {
		t.Errorf("WriteText() =\n%s\nwant\n%s", got, want)
	}
}

func TestDiagnostic_WriteTextWithoutTemplate(t *testing.T) {
	t.Parallel()

	d := compileError(t, "<% if (a) { %>")

	var buf bytes.Buffer
	if err := d.WriteText(context.Background(), &buf, ""); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}

	if !strings.Contains(buf.String(), "page.art:0") || !strings.Contains(buf.String(), "<% if (a) { %>") {
		t.Errorf("WriteText() = %q", buf.String())
	}
}

func TestDiagnostic_WriteJSON(t *testing.T) {
	t.Parallel()

	d := compileError(t, "<%= a b %>")

	var buf bytes.Buffer
	if err := d.WriteJSON(context.Background(), &buf, 2); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if got["name"] != "CompileError" || got["path"] != "page.art" || got["line"] != 1.0 ||
		got["source"] != "<%= a b %>" {
		t.Errorf("WriteJSON() = %v", got)
	}

	if _, ok := got["script"]; !ok {
		t.Error("WriteJSON() missing script")
	}
}

func TestDiagnostic_WriteYAML(t *testing.T) {
	t.Parallel()

	d := compileError(t, "<%= a b %>")

	var buf bytes.Buffer
	if err := d.WriteYAML(context.Background(), &buf, 2); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	for _, want := range []string{"path: page.art", "line: 1", "message:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("WriteYAML() = %q, missing %q", buf.String(), want)
		}
	}
}

func TestDiagnostic_Error(t *testing.T) {
	t.Parallel()

	d := &lang.Diagnostic{Kind: lang.RuntimeError, Line: 4, Message: "boom"}

	if got, want := d.Error(), "RuntimeError <template>:4: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	text, err := lang.CompileError.MarshalText()
	if err != nil || string(text) != "CompileError" {
		t.Errorf("MarshalText() = %q, %v", text, err)
	}

	var k lang.DiagnosticKind
	if err := k.UnmarshalText([]byte("RuntimeError")); err != nil || k != lang.RuntimeError {
		t.Errorf("UnmarshalText() = %v, %v", k, err)
	}

	if err := k.UnmarshalText([]byte("Other")); err == nil {
		t.Error("UnmarshalText(Other) expected error")
	}
}
