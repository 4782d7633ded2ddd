package lang_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

func quiet() lang.Option { return lang.WithLogger(log.Make(io.Discard)) }

func render(t *testing.T, source string, data any, opts ...lang.Option) string {
	t.Helper()

	opts = append([]lang.Option{quiet(), lang.WithBail(true)}, opts...)

	r, err := lang.Compile(source, opts...)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", source, err)
	}

	got, err := r.Render(data)
	if err != nil {
		t.Fatalf("Render(%q) error = %v", source, err)
	}

	return got
}

func TestCompile_Output(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"value": "<>",
		"aui":   "aui",
		"name":  "Bob",
		"list":  []string{"a", "b", "c"},
		"zero":  0,
		"empty": "",
		"one":   1,
		"two":   2,
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"literal", "hello world", "hello world"},
		{"empty", "", ""},
		{"brace escaped", "hello {{value}}", "hello &#60;&#62;"},
		{"brace raw at", "{{@value}}", "<>"},
		{"brace raw hash", "{{#value}}", "<>"},
		{"brace echo", "{{echo value}}", "&#60;&#62;"},
		{"native escaped", "<%= value %>", "&#60;&#62;"},
		{"native raw", "<%- value %>", "<>"},
		{"native raw v3", "<%=# value %>", "<>"},
		{"native comment", "<%# a comment %>x", "x"},
		{"native trailing trim", "<%= aui -%>", "aui"},
		{"brace comment code", "{{% var x = 1 %}}{{x}}", "1"},
		{"or chain", "<%= zero || empty || one %>", "1"},
		{"and returns operand", "<%= name && aui %>", "aui"},
		{"and short circuit", "<%= empty && aui %>", ""},
		{"ternary truthiness", "<%= zero ? 1 : 2 %>", "2"},
		{"not", "<%= !empty %>", "true"},
		{"strict inequality", "<%= one !== two %>", "true"},
		{"strict equality", "<%= one === 1 %>", "true"},
		{"null", "<%= missing === null %>", "true"},
		{"undefined", "<%= missing == undefined %>", "true"},
		{"concat", `<%= "n" + 1 %>`, "n1"},
		{"int add", "<%= one + two %>", "3"},
		{"float add", "<%= 0.5 + one %>", "1.5"},
		{"integral float", "<%= 6 / 2 %>", "3"},
		{"template literal", "<%= `hi ${name}!` %>", "hi Bob!"},
		{"length", "<%= list.length %>", "3"},
		{"missing is empty", "[{{missing}}]", "[]"},
		{"list json", "{{#list}}", `["a","b","c"]`},
		{"print escapes once", "<%= print('hello > world') %>", "hello &#62; world"},
		{"print raw", "<% print(value, one) %>", "<>1"},
		{"brace print", "{{print 'a' value 'b'}}", "a<>b"},
		{"brace print operator", "{{print one + two}}", "3"},
		{"set", `{{set v = "😊"}}{{v}}`, "😊"},
		{"set many", "{{set a = 1, b = 2}}{{a + b}}", "3"},
		{"var", "<% var a = 1, b = 2 %><%= a + b %>", "3"},
		{"assign", "<% var a = 1; a = a + 1 %><%= a %>", "2"},
		{"compound assign", "<% var a = 1; a += 4 %><%= a %>", "5"},
		{"c for", `{{% for(var i = 0; i < 3; i++){print(i + ".")} %}}`, "0.1.2."},
		{"multi line", "a\n{{value}}\nb", "a\n&#60;&#62;\nb"},
		{"regex test", "<%= /a/.test('cat') %>", "true"},
		{"regex flags", "<%= /^BO/i.test(name) ? 'y' : 'n' %>", "y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, tt.source, data); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestCompile_Blocks(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"list": []string{"a", "b", "c"},
		"obj":  map[string]int{"c": 3, "a": 1, "b": 2},
		"user": map[string]any{"name": "ann"},
		"v":    "orig",
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "each array",
			source: "{{each list}}{{$index}}{{$value}}{{/each}}",
			want:   "0a1b2c",
		},
		{
			name:   "each map sorted",
			source: "{{each obj}}{{$index}}{{$value}}{{/each}}",
			want:   "a1b2c3",
		},
		{
			name:   "each as",
			source: "{{each list as v i}}{{i}}:{{v}} {{/each}}",
			want:   "0:a 1:b 2:c ",
		},
		{
			name:   "each named",
			source: "{{each list v}}{{v}}{{/each}}",
			want:   "abc",
		},
		{
			name:   "each data",
			source: "{{each}}{{$index}},{{/each}}",
			want:   "list,obj,user,",
		},
		{
			name:   "nested each",
			source: "{{each list x}}{{each list y}}{{if x == y}}{{x}}{{/if}}{{/each}}{{/each}}",
			want:   "abc",
		},
		{
			name:   "each restores value",
			source: "{{each list v}}{{/each}}{{v}}",
			want:   "orig",
		},
		{
			name:   "each restores index",
			source: "{{each list}}{{/each}}[{{$index}}]",
			want:   "[]",
		},
		{
			name:   "native if",
			source: "<% if (user) { %>yes<% } else { %>no<% } %>",
			want:   "yes",
		},
		{
			name:   "native if else",
			source: "<% if (missing) { %>yes<% } else { %>no<% } %>",
			want:   "no",
		},
		{
			name:   "for of",
			source: "<% for (var v of list) { %><%= v %><% } %>",
			want:   "abc",
		},
		{
			name:   "for of with key",
			source: "<% for (v, k of list) { %><%= k %><%= v %><% } %>",
			want:   "0a1b2c",
		},
		{
			name:   "for in",
			source: "<% for (var k in obj) { %><%= k %><% } %>",
			want:   "abc",
		},
		{
			name:   "forEach function",
			source: "<% list.forEach(function(v, i){ %><%= i %>=<%= v %>;<% }) %>",
			want:   "0=a;1=b;2=c;",
		},
		{
			name:   "forEach arrow",
			source: "<% list.forEach((v) => { %><%= v %><% }) %>",
			want:   "abc",
		},
		{
			name:   "forEach bare arrow",
			source: "<% list.forEach(v => { %><%= v %><% }) %>",
			want:   "abc",
		},
		{
			name:   "each helper",
			source: "<% $each(list, function(v){ %><%= v %><% }) %>",
			want:   "abc",
		},
		{
			name:   "inline callback",
			source: "<% list.forEach(function(v){ print(v) }) %>",
			want:   "abc",
		},
		{
			name:   "member data",
			source: "{{if user.name}}{{user.name}}{{/if}}",
			want:   "ann",
		},
		{
			name:   "accumulate",
			source: "<% var n = 0; for (var v of list) { n = n + 1 } %><%= n %>",
			want:   "3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, tt.source, data); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestCompile_DataNamedLikeEngineBuiltin(t *testing.T) {
	t.Parallel()

	data := map[string]any{
		"one":   1,
		"count": 2,
		"type":  "a",
		"len":   "short",
		"name":  "bob",
		"list":  []int{1, 2, 3},
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"brace strict equality", "{{one === 1}}", "true"},
		{"greater", "{{count > 1}}", "true"},
		{"string equality", "{{type == 'a'}}", "true"},
		{"condition", "{{if count > one}}yes{{/if}}", "yes"},
		{"bare", "{{len}}", "short"},
		{"engine builtin call", "{{upper(name)}}", "BOB"},
		{"callee and operand", "<%= one + count %>", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, tt.source, data); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestCompile_Branch(t *testing.T) {
	t.Parallel()

	source := "{{if n > 1}}big{{else if n === 1}}one{{else}}none{{/if}}"

	for n, want := range map[int]string{5: "big", 1: "one", 0: "none"} {
		got := render(t, source, map[string]any{"n": n})
		if got != want {
			t.Errorf("n = %d: Render() = %q, want %q", n, got, want)
		}
	}
}

func TestCompile_Filters(t *testing.T) {
	t.Parallel()

	imports := map[string]any{
		"shout": func(s string) string { return strings.ToUpper(s) + "!" },
		"wrap":  func(s, l, r string) string { return l + s + r },
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"pipe", "{{name | shout}}", "BOB!"},
		{"pipe args", `{{name | wrap "[" "]"}}`, "[Bob]"},
		{"pipe chain", `{{name | shout | wrap "(" ")"}}`, "(BOB!)"},
		{"pipe colon", `{{name | wrap:"<",">"}}`, "&#60;Bob&#62;"},
		{"pipe raw", `{{@name | wrap:"<",">"}}`, "<Bob>"},
		{"helper call", `{{wrap name "[" "]"}}`, "[Bob]"},
		{"native call", `<%= shout(name) %>`, "BOB!"},
		{"imports table", `<%= $imports.shout(name) %>`, "BOB!"},
		{"escape import", `<%- $escape("<a>") %>`, "&#60;a&#62;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, tt.source, map[string]any{"name": "Bob"}, lang.WithImports(imports))
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestCompile_Include(t *testing.T) {
	t.Parallel()

	header := lang.MustCompile("<h1>{{title}}</h1>", quiet())

	var (
		mu   sync.Mutex
		from []string
	)

	include := func(path string, data any, filename string) (string, error) {
		mu.Lock()
		from = append(from, filename)
		mu.Unlock()

		if path != "./header" {
			return "", errors.New("no such template: " + path)
		}

		return header.Render(data)
	}

	data := map[string]any{"title": "T", "sub": map[string]any{"title": "S"}}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"brace", "{{include './header'}}", "<h1>T</h1>"},
		{"brace with data", "{{include './header' sub}}", "<h1>S</h1>"},
		{"native", "<% include('./header') %>", "<h1>T</h1>"},
		{"native raw output", "<%- include('./header', sub) %>", "<h1>S</h1>"},
		{"import", "<%= $include('./header') %>", "&#60;h1&#62;T&#60;/h1&#62;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, tt.source, data,
				lang.WithInclude(include), lang.WithFilename("/views/index.art"))
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}

	for _, f := range from {
		if f != "/views/index.art" {
			t.Errorf("include from = %q, want %q", f, "/views/index.art")
		}
	}

	r, err := lang.Compile("{{include './header'}}", quiet(), lang.WithBail(true))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if _, err := r.Render(nil); err == nil {
		t.Error("Render() without include capability: expected error")
	}
}

func TestCompile_CompileError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		line   int
		src    string
		is     error
	}{
		{
			name:   "invalid expression",
			source: "<% a b c d %>",
			line:   1,
			src:    "<% a b c d %>",
			is:     lang.ErrExprCompile,
		},
		{
			name:   "later line",
			source: "line1\n<% if (a) { %>\n<%= a b %>\n<% } %>",
			line:   3,
			src:    "<%= a b %>",
			is:     lang.ErrExprCompile,
		},
		{
			name:   "unclosed block",
			source: "<% if (a) { %>x",
			line:   0,
			src:    "<% if (a) { %>x",
			is:     lang.ErrUnbalanced,
		},
		{
			name:   "extra closer",
			source: "x{{/if}}",
			line:   0,
			src:    "x{{/if}}",
			is:     lang.ErrUnbalanced,
		},
		{
			name:   "unterminated",
			source: "a\nb <%= value",
			line:   2,
			src:    "<%= value",
			is:     lang.ErrUnterminated,
		},
		{
			name:   "rewrite",
			source: "{{if}}",
			line:   1,
			src:    "{{if}}",
			is:     lang.ErrRewrite,
		},
		{
			name:   "mismatched closer",
			source: "<% list.forEach(function(v){ %><% } %>",
			line:   0,
			src:    "<% list.forEach(function(v){ %><% } %>",
			is:     lang.ErrUnbalanced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := lang.Compile(tt.source, quiet(), lang.WithBail(true), lang.WithFilename("t.art"))
			if err == nil {
				t.Fatal("Compile() expected error")
			}

			d, ok := lang.AsDiagnostic(err)
			if !ok {
				t.Fatalf("Compile() error = %T, want *lang.Diagnostic", err)
			}

			if d.Kind != lang.CompileError {
				t.Errorf("Kind = %v, want CompileError", d.Kind)
			}

			if d.Path != "t.art" {
				t.Errorf("Path = %q, want %q", d.Path, "t.art")
			}

			if d.Line != tt.line {
				t.Errorf("Line = %d, want %d", d.Line, tt.line)
			}

			if d.Source != tt.src {
				t.Errorf("Source = %q, want %q", d.Source, tt.src)
			}

			if !errors.Is(err, tt.is) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.is)
			}

			if d.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestCompile_NoBail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r, err := lang.Compile("<% a b c d %>", lang.WithLogger(log.Make(&buf)))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if r.Err() == nil {
		t.Error("Err() = nil, want compile failure")
	}

	got, err := r.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if got != lang.ErrorSentinel {
		t.Errorf("Render() = %q, want %q", got, lang.ErrorSentinel)
	}

	if !strings.Contains(buf.String(), "CompileError") {
		t.Errorf("log = %q, want CompileError record", buf.String())
	}
}

func TestRender_RuntimeError(t *testing.T) {
	t.Parallel()

	t.Run("sentinel", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		r, err := lang.Compile("<%= a.b.c %>", lang.WithLogger(log.Make(&buf)))
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		got, err := r.Render(map[string]any{})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}

		if got != lang.ErrorSentinel {
			t.Errorf("Render() = %q, want %q", got, lang.ErrorSentinel)
		}

		if !strings.Contains(buf.String(), "RuntimeError") {
			t.Errorf("log = %q, want RuntimeError record", buf.String())
		}
	})

	t.Run("bail debug", func(t *testing.T) {
		t.Parallel()

		r, err := lang.Compile("line1\n<%= a.b.c %>", quiet(), lang.WithBail(true), lang.WithDebug(true))
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		_, err = r.Render(map[string]any{})

		d, ok := lang.AsDiagnostic(err)
		if !ok {
			t.Fatalf("Render() error = %v, want *lang.Diagnostic", err)
		}

		want := &lang.Diagnostic{
			Kind:   lang.RuntimeError,
			Line:   2,
			Source: "<%= a.b.c %>",
		}

		got := &lang.Diagnostic{Kind: d.Kind, Line: d.Line, Source: d.Source}
		if diff := cmp.Diff(want, got, cmp.AllowUnexported(lang.Diagnostic{})); diff != "" {
			t.Errorf("Render() diagnostic mismatch (-want +got):\n%s", diff)
		}

		if !errors.Is(err, lang.ErrExprEvaluate) {
			t.Errorf("errors.Is(%v, ErrExprEvaluate) = false", err)
		}
	})

	t.Run("bail without debug", func(t *testing.T) {
		t.Parallel()

		r := lang.MustCompile("line1\n<%= a.b.c %>", quiet())

		_, err := r.Render(nil)

		d, ok := lang.AsDiagnostic(err)
		if !ok {
			t.Fatalf("Render() error = %v, want *lang.Diagnostic", err)
		}

		if d.Line != 0 || d.Source != "" {
			t.Errorf("Line, Source = %d, %q, want 0, \"\"", d.Line, d.Source)
		}
	})
}

func TestRender_Context(t *testing.T) {
	t.Parallel()

	r := lang.MustCompile("{{each list}}{{$value}}{{/each}}", quiet())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RenderContext(ctx, map[string]any{"list": []int{1, 2, 3}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RenderContext() error = %v, want context.Canceled", err)
	}
}

func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	r := lang.MustCompile("{{each obj}}{{$index}}={{$value}} {{/each}}", quiet())
	data := map[string]any{"obj": map[string]any{"z": 1, "y": 2, "x": 3, "w": 4}}

	want, err := r.Render(data)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := r.Render(data)
			if err != nil || got != want {
				t.Errorf("Render() = %q, %v, want %q", got, err, want)
			}
		}()
	}

	wg.Wait()

	if want != "w=4 x=3 y=2 z=1 " {
		t.Errorf("Render() = %q", want)
	}
}

func TestCompile_Options(t *testing.T) {
	t.Parallel()

	data := map[string]any{"value": "<>"}

	tests := []struct {
		name   string
		source string
		opts   []lang.Option
		want   string
	}{
		{
			name:   "without escape",
			source: "{{value}}<%= value %>",
			opts:   []lang.Option{lang.WithoutEscape()},
			want:   "<><>",
		},
		{
			name:   "custom escape",
			source: "{{value}}",
			opts:   []lang.Option{lang.WithEscape(func(s string) string { return "[" + s + "]" })},
			want:   "[<>]",
		},
		{
			name:   "native delimiters",
			source: "<?= value ?><%= value %>",
			opts:   []lang.Option{lang.WithDelims("<?", "?>")},
			want:   "&#60;&#62;<%= value %>",
		},
		{
			name:   "native preset",
			source: "{{value}}<%= value %>",
			opts:   []lang.Option{lang.WithPreset(lang.PresetNative)},
			want:   "{{value}}&#60;&#62;",
		},
		{
			name:   "brace preset",
			source: "{{value}}<%= value %>",
			opts:   []lang.Option{lang.WithPreset(lang.PresetBrace)},
			want:   "&#60;&#62;<%= value %>",
		},
		{
			name:   "compress",
			source: "<p>\n    {{value}}   </p>",
			opts:   []lang.Option{lang.WithCompress(lang.CompressHTML)},
			want:   "<p>\n&#60;&#62; </p>",
		},
		{
			name:   "custom syntax",
			source: "a${value}b",
			opts: []lang.Option{lang.WithSyntax(&lang.CustomSyntax{
				Label: "dollar",
				Open:  "${",
				Close: "}",
			})},
			want: "a&#60;&#62;b",
		},
		{
			name:   "custom syntax sigils",
			source: "[: var x = 2 :][:= x :][:- value :]",
			opts: []lang.Option{lang.WithPreset(lang.PresetCustom), lang.WithSyntax(&lang.CustomSyntax{
				Open:        "[:",
				Close:       ":]",
				EscapeSigil: "=",
				RawSigil:    "-",
			})},
			want: "2<>",
		},
		{
			name:   "custom rewrite",
			source: "{{upper value}}",
			opts: []lang.Option{lang.WithSyntax(&lang.CustomSyntax{
				Open:  "{{",
				Close: "}}",
				MatchFunc: func(seg *lang.Segment) bool {
					return strings.HasPrefix(strings.TrimSpace(seg.Code), "upper ")
				},
				RewriteFunc: func(seg *lang.Segment, out lang.Output) (lang.Directive, error) {
					return lang.Directive{Code: `"UP:" + ` + strings.TrimPrefix(seg.Code, "upper "), Output: lang.OutputRaw}, nil
				},
			})},
			want: "UP:<>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := render(t, tt.source, data, tt.opts...); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRender_StructData(t *testing.T) {
	t.Parallel()

	type user struct {
		Name  string `json:"name"`
		Email string
		Tags  []string
	}

	got := render(t, "{{name}} {{Email}} {{each Tags}}#{{$value}}{{/each}}",
		user{Name: "ann", Email: "a@x", Tags: []string{"a", "b"}})
	if got != "ann a@x #a#b" {
		t.Errorf("Render() = %q", got)
	}
}

func TestRenderer_Names(t *testing.T) {
	t.Parallel()

	r := lang.MustCompile("{{value}}{{print x}}{{$escape(value)}}{{$data.y}}", quiet())

	want := []lang.ScopeEntry{
		{Name: "value", Kind: lang.BindData},
		{Name: "print", Kind: lang.BindBuiltin},
		{Name: "x", Kind: lang.BindData},
		{Name: "$escape", Kind: lang.BindImport},
	}

	got := r.Names()
	if len(got) == len(want) {
		got[3].Value = nil
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_Source(t *testing.T) {
	t.Parallel()

	r := lang.MustCompile("hi {{value}}{{@raw}}", quiet(), lang.WithDebug(true))

	want := strings.Join([]string{
		"var value = $data.value, raw = $data.raw",
		`$out = ""`,
		`$out += "hi "`,
		`$line = [1, "{{value}}"]`,
		"$out += $escape(value)",
		`$line = [1, "{{@raw}}"]`,
		"$out += raw",
		"return $out",
	}, "\n")

	if diff := cmp.Diff(want, r.Source()); diff != "" {
		t.Errorf("Source() mismatch (-want +got):\n%s", diff)
	}
}
