package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/artmpl/pkg"
)

// parse builds the real parser with its configuration at confPath.
func parse(t *testing.T, confPath string, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	var (
		cli CLI
		out bytes.Buffer
	)

	parser, err := newParser(&cli, confPath, t.TempDir(),
		kong.Writers(&out, &out),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		t.Fatalf("newParser() error = %v", err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", args, err)
	}

	return &cli, ktx
}

func TestParser_Defaults(t *testing.T) {
	t.Parallel()

	cli, ktx := parse(t, filepath.Join(t.TempDir(), "config.yaml"), "render", "index")

	if got := ktx.Command(); got != "render <template>" {
		t.Errorf("Command() = %q, want %q", got, "render <template>")
	}

	o := cli.Template
	if o.Extension != pkg.Extension || o.Preset != "all" || o.Open != "<%" || o.Close != "%>" {
		t.Errorf("template defaults = %+v", o)
	}

	if !o.Escape || !o.Bail || !o.Debug || o.Compress {
		t.Errorf("boolean defaults = %+v", o)
	}

	if cli.Render.Name != "index" {
		t.Errorf("Render.Name = %q, want index", cli.Render.Name)
	}
}

func TestParser_Configuration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	confPath := filepath.Join(dir, "config.yaml")

	conf := "config:\n  preset: brace\n  escape: false\n  extension: .tpl\n"
	if err := os.WriteFile(confPath, []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"close": "?>"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cli, _ := parse(t, confPath, "--extension", ".html", "check", "a")

	o := cli.Template
	if o.Preset != "brace" {
		t.Errorf("Preset = %q, want brace from the YAML file", o.Preset)
	}

	if o.Escape {
		t.Error("Escape = true, want false from the YAML file")
	}

	if o.Close != "?>" {
		t.Errorf("Close = %q, want ?> from the JSON file", o.Close)
	}

	if o.Extension != ".html" {
		t.Errorf("Extension = %q, want the command-line value", o.Extension)
	}
}

func TestParser_Help(t *testing.T) {
	t.Parallel()

	var (
		cli    CLI
		out    bytes.Buffer
		exited bool
	)

	parser, err := newParser(&cli, filepath.Join(t.TempDir(), "config.yaml"), t.TempDir(),
		kong.Writers(&out, &out),
		kong.Exit(func(int) { exited = true }),
	)
	if err != nil {
		t.Fatalf("newParser() error = %v", err)
	}

	_, _ = parser.Parse([]string{"--help"})

	if !exited {
		t.Error("--help did not exit")
	}

	for _, want := range []string{pkg.Name, "render", "check", "source", "repl", "init", "--log-level", "--preset"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output does not contain %q", want)
		}
	}
}

func TestScanBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		assigned bool
		want     bool
	}{
		{"--log-pretty", "", false, true},
		{"--no-log-pretty", "", false, false},
		{"--log-pretty", "false", true, false},
		{"--no-log-pretty", "false", true, true},
		{"--log-caller", "bogus", true, true},
	}

	for _, tt := range tests {
		if got := scanBool(tt.name, tt.value, tt.assigned); got != tt.want {
			t.Errorf("scanBool(%q, %q, %v) = %v, want %v", tt.name, tt.value, tt.assigned, got, tt.want)
		}
	}
}

func TestLogConfig_Scan(t *testing.T) {
	var f logConfig

	f.scan([]string{"render", "--log-level", "debug", "--log-format=json", "--no-log-pretty", "--log-caller", "--", "--log-level=error"})

	if f.Level != "debug" || f.Format != "json" || f.Pretty || !f.Caller {
		t.Errorf("scan() = %+v", f)
	}
}
