package loader

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
	"github.com/ardnew/artmpl/pkg"
)

// Loader resolves template names to files and compiles them. Compiled
// templates are cached by path. A Loader is safe for concurrent use.
type Loader struct {
	root    string
	search  []string
	ext     string
	compile []lang.Option
	logger  log.Logger
	nocache bool

	mu    sync.Mutex
	cache map[string]*lang.Renderer
}

// Option configures a Loader.
type Option func(*Loader)

// New returns a Loader rooted at the working directory unless opts say
// otherwise.
func New(opts ...Option) *Loader {
	l := &Loader{
		root:   ".",
		ext:    pkg.Extension,
		logger: log.Default(),
		cache:  make(map[string]*lang.Renderer),
	}

	for _, opt := range opts {
		opt(l)
	}

	if abs, err := filepath.Abs(l.root); err == nil {
		l.root = abs
	}

	return l
}

func WithRoot(dir string) Option { return func(l *Loader) { l.root = dir } }

// WithSearchPath adds directories searched after the root.
func WithSearchPath(dirs ...string) Option {
	return func(l *Loader) { l.search = append(l.search, dirs...) }
}

// WithExtension sets the extension added to names that have none.
func WithExtension(ext string) Option {
	return func(l *Loader) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		l.ext = ext
	}
}

// WithCompileOptions sets options used for every template. The loader's
// filename, root and include options take precedence.
func WithCompileOptions(opts ...lang.Option) Option {
	return func(l *Loader) { l.compile = append(l.compile, opts...) }
}

func WithLogger(logger log.Logger) Option { return func(l *Loader) { l.logger = logger } }

// WithCache enables or disables the compiled template cache.
func WithCache(enable bool) Option { return func(l *Loader) { l.nocache = !enable } }

// Root returns the absolute root directory.
func (l *Loader) Root() string { return l.root }

// SearchPath returns the directories searched after the root.
func (l *Loader) SearchPath() []string { return slices.Clone(l.search) }

// Resolve returns the file that name refers to when requested by the
// template at from (empty for top-level requests).
func (l *Loader) Resolve(name, from string) (string, error) {
	file := name
	if l.ext != "" && filepath.Ext(file) == "" {
		file += l.ext
	}

	var tried []string

	switch {
	case filepath.IsAbs(file):
		tried = []string{file}
	case strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../"):
		base := l.root
		if from != "" {
			base = filepath.Dir(from)
		}

		tried = []string{filepath.Join(base, file)}
	default:
		tried = append(tried, filepath.Join(l.root, file))
		for _, dir := range l.search {
			tried = append(tried, filepath.Join(dir, file))
		}
	}

	for _, path := range tried {
		if isFile(path) {
			l.logger.Trace("resolve template",
				slog.String("name", name),
				slog.String("from", from),
				slog.String("path", path))

			return path, nil
		}
	}

	return "", notFound(name, from, tried, l.known())
}

// known lists the templates under the root and the search path, relative
// to the directory they were found in.
func (l *Loader) known() []string {
	var out []string

	for _, dir := range append([]string{l.root}, l.search...) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fs.SkipDir
			}

			if d.IsDir() || (l.ext != "" && filepath.Ext(path) != l.ext) {
				return nil
			}

			if rel, err := filepath.Rel(dir, path); err == nil {
				out = append(out, filepath.ToSlash(rel))
			}

			return nil
		})
	}

	slices.Sort(out)

	return slices.Compact(out)
}

// Load compiles the template file at path, or returns it from the cache.
func (l *Loader) Load(path string) (*lang.Renderer, error) {
	if !l.nocache {
		l.mu.Lock()
		r, ok := l.cache[path]
		l.mu.Unlock()

		if ok {
			return r, nil
		}
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, lang.NewDiagnostic(lang.CompileError, path, 0, "", err)
	}

	opts := append(slices.Clone(l.compile),
		lang.WithFilename(path),
		lang.WithRoot(l.root),
		lang.WithInclude(l.Include),
	)

	r, err := lang.Compile(string(source), opts...)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("load template", slog.String("path", path), slog.Bool("cached", !l.nocache))

	if !l.nocache {
		l.mu.Lock()
		if prev, ok := l.cache[path]; ok {
			r = prev
		} else {
			l.cache[path] = r
		}
		l.mu.Unlock()
	}

	return r, nil
}

// Include renders the template name with data on behalf of the template
// at from. It is a [lang.IncludeFunc].
func (l *Loader) Include(name string, data any, from string) (string, error) {
	path, err := l.Resolve(name, from)
	if err != nil {
		return "", err
	}

	r, err := l.Load(path)
	if err != nil {
		return "", err
	}

	return r.Render(data)
}

// Render resolves name from the root and renders it with data.
func (l *Loader) Render(name string, data any) (string, error) {
	return l.Include(name, data, "")
}

// Reset empties the template cache.
func (l *Loader) Reset() {
	l.mu.Lock()
	clear(l.cache)
	l.mu.Unlock()
}
