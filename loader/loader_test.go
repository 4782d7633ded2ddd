package loader_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/loader"
	"github.com/ardnew/artmpl/log"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}

		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func newLoader(dir string, opts ...loader.Option) *loader.Loader {
	opts = append([]loader.Option{
		loader.WithRoot(dir),
		loader.WithLogger(log.Make(io.Discard)),
		loader.WithCompileOptions(lang.WithBail(true), lang.WithLogger(log.Make(io.Discard))),
	}, opts...)

	return loader.New(opts...)
}

func TestLoader_Render(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.art":          "{{include './header'}}<main>{{body}}</main>{{include 'parts/footer' foot}}",
		"header.art":         "<h1>{{title}}</h1>",
		"parts/footer.art":   "<footer>{{include './copy'}}</footer>",
		"parts/copy.art":     "&copy; {{year}}",
		"pages/about.art":    "{{include '../header'}}about",
		"pages/contact.html": "contact {{title}}",
	})

	l := newLoader(dir)

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{
			name: "index",
			data: map[string]any{"title": "T", "body": "<b>", "foot": map[string]any{"year": 2024}},
			want: "<h1>T</h1><main>&#60;b&#62;</main><footer>&copy; 2024</footer>",
		},
		{
			name: "pages/about",
			data: map[string]any{"title": "A"},
			want: "<h1>A</h1>about",
		},
		{
			name: "pages/contact.html",
			data: map[string]any{"title": "C"},
			want: "contact C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := l.Render(tt.name, tt.data)
			if err != nil {
				t.Fatalf("Render(%q) error = %v", tt.name, err)
			}

			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_Resolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	extra := t.TempDir()

	writeFiles(t, root, map[string]string{"a.art": "a", "sub/b.art": "b"})
	writeFiles(t, extra, map[string]string{"c.art": "c", "a.art": "shadowed"})

	l := newLoader(root, loader.WithSearchPath(extra))

	tests := []struct {
		name string
		from string
		want string
	}{
		{"a", "", filepath.Join(root, "a.art")},
		{"a.art", "", filepath.Join(root, "a.art")},
		{"c", "", filepath.Join(extra, "c.art")},
		{"sub/b", "", filepath.Join(root, "sub", "b.art")},
		{"./b", filepath.Join(root, "sub", "x.art"), filepath.Join(root, "sub", "b.art")},
		{"../a", filepath.Join(root, "sub", "x.art"), filepath.Join(root, "a.art")},
		{"./a", "", filepath.Join(root, "a.art")},
		{filepath.Join(extra, "c"), "", filepath.Join(extra, "c.art")},
	}

	for _, tt := range tests {
		got, err := l.Resolve(tt.name, tt.from)
		if err != nil {
			t.Errorf("Resolve(%q, %q) error = %v", tt.name, tt.from, err)

			continue
		}

		if got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.name, tt.from, got, tt.want)
		}
	}
}

func TestLoader_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"header.art": "h", "footer.art": "f"})

	l := newLoader(dir)

	_, err := l.Render("headr", nil)
	if !errors.Is(err, loader.ErrNotFound) {
		t.Fatalf("Render() error = %v, want ErrNotFound", err)
	}

	d, ok := lang.AsDiagnostic(err)
	if !ok {
		t.Fatalf("Render() error = %T, want *lang.Diagnostic", err)
	}

	if d.Kind != lang.CompileError || d.Source != "headr" {
		t.Errorf("diagnostic = %+v", d)
	}

	if !strings.Contains(d.Message, `did you mean "header.art"`) {
		t.Errorf("Message = %q, want suggestion", d.Message)
	}
}

func TestLoader_IncludeNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.art": "x{{include './missing'}}"})

	_, err := newLoader(dir).Render("index", nil)

	d, ok := lang.AsDiagnostic(err)
	if !ok || d.Kind != lang.RuntimeError {
		t.Fatalf("Render() error = %v, want RuntimeError", err)
	}

	if !strings.Contains(d.Message, "missing") {
		t.Errorf("Message = %q", d.Message)
	}
}

func TestLoader_Cache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.art": "one"})

	cached := newLoader(dir)
	fresh := newLoader(dir, loader.WithCache(false))

	for _, l := range []*loader.Loader{cached, fresh} {
		if got, err := l.Render("a", nil); err != nil || got != "one" {
			t.Fatalf("Render() = %q, %v", got, err)
		}
	}

	writeFiles(t, dir, map[string]string{"a.art": "two"})

	if got, _ := cached.Render("a", nil); got != "one" {
		t.Errorf("cached Render() = %q, want %q", got, "one")
	}

	if got, _ := fresh.Render("a", nil); got != "two" {
		t.Errorf("uncached Render() = %q, want %q", got, "two")
	}

	cached.Reset()

	if got, _ := cached.Render("a", nil); got != "two" {
		t.Errorf("Render() after Reset = %q, want %q", got, "two")
	}
}

func TestLoader_Extension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"page.html": "html"})

	l := newLoader(dir, loader.WithExtension("html"))

	if got, err := l.Render("page", nil); err != nil || got != "html" {
		t.Errorf("Render() = %q, %v", got, err)
	}
}
