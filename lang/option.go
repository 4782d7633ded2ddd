package lang

import (
	"maps"

	"github.com/ardnew/artmpl/log"
)

// Preset selects the built-in syntaxes recognized by a compilation.
type Preset int

const (
	// PresetAll recognizes both the native and the brace syntax.
	PresetAll Preset = iota
	// PresetNative recognizes only "<% %>" style tags.
	PresetNative
	// PresetBrace recognizes only "{{ }}" style tags.
	PresetBrace
	// PresetCustom recognizes only the syntaxes added with [WithSyntax].
	PresetCustom
)

// ParsePreset maps "all", "native", "brace" and "custom" to a Preset.
func ParsePreset(s string) (Preset, bool) {
	switch s {
	case "all", "":
		return PresetAll, true
	case "native":
		return PresetNative, true
	case "brace":
		return PresetBrace, true
	case "custom":
		return PresetCustom, true
	}

	return PresetAll, false
}

func (p Preset) String() string {
	switch p {
	case PresetNative:
		return "native"
	case PresetBrace:
		return "brace"
	case PresetCustom:
		return "custom"
	default:
		return "all"
	}
}

// Literal is the argument of a [CompressFunc].
type Literal struct {
	Line   int
	Source string
}

// CompressFunc rewrites literal template text before it is appended.
type CompressFunc func(Literal) string

// EscapeFunc converts a value's text for escaped output.
type EscapeFunc func(string) string

// IncludeFunc renders the template named path with data. from is the
// filename of the requesting template, used to resolve relative names.
type IncludeFunc func(path string, data any, from string) (string, error)

// Options configures a compilation. The zero value is not ready for use;
// start from [DefaultOptions] or use [Option] functions with [Compile].
type Options struct {
	Filename string
	Root     string
	Preset   Preset
	Open     string // native open delimiter
	Close    string // native close delimiter
	Syntaxes []Syntax
	Escape   EscapeFunc // nil disables escaping
	Imports  map[string]any
	Debug    bool
	Compress CompressFunc
	Bail     bool
	Include  IncludeFunc
	Logger   log.Logger
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Preset:  PresetAll,
		Open:    "<%",
		Close:   "%>",
		Escape:  EscapeHTML,
		Imports: DefaultImports(),
		Logger:  log.Default(),
	}
}

// MakeOptions applies opts to [DefaultOptions].
func MakeOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// syntaxes returns the strategies in priority order: custom syntaxes
// first, then the preset's built-ins.
func (o Options) syntaxes() []Syntax {
	list := make([]Syntax, 0, len(o.Syntaxes)+2)
	list = append(list, o.Syntaxes...)

	switch o.Preset {
	case PresetAll:
		list = append(list, Native(o.Open, o.Close), Brace())
	case PresetNative:
		list = append(list, Native(o.Open, o.Close))
	case PresetBrace:
		list = append(list, Brace())
	}

	return list
}

func WithFilename(name string) Option { return func(o *Options) { o.Filename = name } }

func WithRoot(dir string) Option { return func(o *Options) { o.Root = dir } }

func WithPreset(p Preset) Option { return func(o *Options) { o.Preset = p } }

// WithDelims sets the native syntax delimiters.
func WithDelims(open, close string) Option {
	return func(o *Options) {
		if open != "" {
			o.Open = open
		}

		if close != "" {
			o.Close = close
		}
	}
}

// WithSyntax registers custom syntaxes ahead of the built-in ones.
func WithSyntax(s ...Syntax) Option {
	return func(o *Options) { o.Syntaxes = append(o.Syntaxes, s...) }
}

func WithEscape(fn EscapeFunc) Option { return func(o *Options) { o.Escape = fn } }

// WithoutEscape makes every output raw.
func WithoutEscape() Option { return func(o *Options) { o.Escape = nil } }

// WithImports adds names to the import table. Later values replace earlier
// ones; the caller's map is not retained.
func WithImports(imports map[string]any) Option {
	return func(o *Options) {
		merged := maps.Clone(o.Imports)
		if merged == nil {
			merged = make(map[string]any, len(imports))
		}

		maps.Copy(merged, imports)
		o.Imports = merged
	}
}

func WithDebug(enable bool) Option { return func(o *Options) { o.Debug = enable } }

func WithCompress(fn CompressFunc) Option { return func(o *Options) { o.Compress = fn } }

func WithBail(enable bool) Option { return func(o *Options) { o.Bail = enable } }

func WithInclude(fn IncludeFunc) Option { return func(o *Options) { o.Include = fn } }

func WithLogger(logger log.Logger) Option { return func(o *Options) { o.Logger = logger } }

// WithOptions replaces every setting with opts.
func WithOptions(opts Options) Option { return func(o *Options) { *o = opts } }
