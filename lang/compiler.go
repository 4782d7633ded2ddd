package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/artmpl/lang/lexer"
)

// StatementKind classifies compiled statements.
type StatementKind int

const (
	StmtLiteral StatementKind = iota
	StmtExpression
	StmtMarker
)

// Statement is one unit of generated code with the template text it came
// from.
type Statement struct {
	Source string
	Line   int
	Code   string
	Output Output
	Kind   StatementKind
}

type compilerState int

const (
	stateFresh compilerState = iota
	stateAccumulating
	stateBuilt
	stateFailed
)

// Compiler translates template tokens into a [Renderer]. Feed it tokens
// in order with AddLiteral and AddExpression, then call Build once. A
// Compiler is not safe for concurrent use.
type Compiler struct {
	opts     Options
	syntaxes []Syntax
	source   strings.Builder
	stmts    []Statement
	scope    *scope
	state    compilerState
}

// NewCompiler returns a Compiler configured by opts applied to
// [DefaultOptions].
func NewCompiler(opts ...Option) *Compiler {
	o := MakeOptions(opts...)

	return &Compiler{
		opts:     o,
		syntaxes: o.syntaxes(),
		scope:    newScope(),
	}
}

func (c *Compiler) accept() error {
	switch c.state {
	case stateBuilt, stateFailed:
		return ErrCompilerState
	case stateFresh:
		c.state = stateAccumulating
		c.opts.Logger.Trace("compile start",
			slog.String("filename", c.opts.Filename),
			slog.String("preset", c.opts.Preset.String()),
			slog.Any("imports", sortedKeys(c.opts.Imports)))
	}

	return nil
}

// AddLiteral appends template text, passed through the Compress hook when
// one is set.
func (c *Compiler) AddLiteral(tok Token) error {
	if err := c.accept(); err != nil {
		return err
	}

	c.source.WriteString(tok.Source)

	text := tok.Text
	if c.opts.Compress != nil {
		text = c.opts.Compress(Literal{Line: tok.Line, Source: text})
	}

	c.stmts = append(c.stmts, Statement{
		Source: tok.Source,
		Line:   tok.Line,
		Code:   text,
		Kind:   StmtLiteral,
	})

	return nil
}

// AddExpression rewrites an expression tag into statement code and
// records its free names.
func (c *Compiler) AddExpression(tok Token) error {
	if err := c.accept(); err != nil {
		return err
	}

	c.source.WriteString(tok.Source)

	seg := &Segment{
		Source:  tok.Source,
		Code:    tok.Text,
		Line:    tok.Line,
		Tokens:  lexer.Lex(tok.Text),
		Imports: c.opts.Imports,
	}

	syn := tok.Syntax
	if syn == nil {
		syn = Native(c.opts.Open, c.opts.Close)
	} else {
		syn = selectSyntax(c.syntaxes, syn, seg)
	}

	dir, err := syn.Rewrite(seg)
	if err != nil {
		return c.fail(NewDiagnostic(CompileError, c.opts.Filename, tok.Line, tok.Source, err))
	}

	if dir.Skip {
		return nil
	}

	code := strings.TrimSpace(dir.Code)
	if code == "" && dir.Output != OutputNone {
		return c.fail(NewDiagnostic(CompileError, c.opts.Filename, tok.Line, tok.Source,
			ErrSyntax.Wrap(NewError("empty output expression"))))
	}

	toks := lexer.Lex(code)

	for _, name := range lexer.Namespaces(toks) {
		c.scope.resolve(name, c.opts.Imports)
	}

	for _, name := range lexer.Operands(toks) {
		c.scope.operand(name)
	}

	if dir.Output == OutputEscaped && c.opts.Escape == nil {
		dir.Output = OutputRaw
	}

	if c.opts.Debug {
		c.stmts = append(c.stmts, Statement{
			Source: tok.Source,
			Line:   tok.Line,
			Kind:   StmtMarker,
		})
	}

	c.stmts = append(c.stmts, Statement{
		Source: tok.Source,
		Line:   tok.Line,
		Code:   code,
		Output: dir.Output,
		Kind:   StmtExpression,
	})

	c.opts.Logger.Trace("statement",
		slog.Int("line", tok.Line),
		slog.String("syntax", syn.Name()),
		slog.String("output", dir.Output.String()),
		slog.String("code", code))

	return nil
}

func (c *Compiler) fail(err error) error {
	c.state = stateFailed

	return err
}

// Statements returns the statements accumulated so far.
func (c *Compiler) Statements() []Statement {
	return append([]Statement(nil), c.stmts...)
}

// Scope returns the resolved free names in order of first use.
func (c *Compiler) Scope() []ScopeEntry { return c.scope.list() }

// Build assembles the accumulated statements into a Renderer. A failure
// is reported at the first statement that is invalid on its own, or at
// line 0 with the whole template as source when every statement is valid
// in isolation.
func (c *Compiler) Build() (*Renderer, error) {
	if c.state == stateBuilt || c.state == stateFailed {
		return nil, ErrCompilerState
	}

	exprs := newExprCompiler(c.opts.Logger, c.scope.shadowed())
	asm := newAssembler(exprs, false)

	err := c.assemble(asm)
	if err != nil {
		return nil, c.fail(c.recover(exprs, err))
	}

	nodes, err := asm.finish()
	if err != nil {
		return nil, c.fail(c.recover(exprs, err))
	}

	c.state = stateBuilt

	r := &Renderer{
		opts:   c.opts,
		nodes:  nodes,
		scope:  c.scope.list(),
		source: c.source.String(),
		script: c.listing(),
	}

	c.opts.Logger.Debug("build complete",
		slog.String("filename", c.opts.Filename),
		slog.Int("statements", len(c.stmts)),
		slog.Int("names", len(r.scope)))
	c.opts.Logger.Trace("scope", slog.Any("names", slog.GroupValue(scopeAttrs(r.scope)...)))

	return r, nil
}

func (c *Compiler) assemble(asm *assembler) error {
	for _, st := range c.stmts {
		switch st.Kind {
		case StmtLiteral:
			asm.emit(&textNode{text: st.Code})

		case StmtMarker:
			asm.emit(&markerNode{line: st.Line, source: st.Source})

		case StmtExpression:
			if st.Output != OutputNone {
				prog, err := asm.exprs.compile(st.Code)
				if err != nil {
					return err
				}

				asm.emit(&outputNode{prog: prog, raw: st.Output == OutputRaw})

				continue
			}

			clauses, err := parseClauses(st.Code)
			if err != nil {
				return err
			}

			for _, cl := range clauses {
				if err := asm.add(cl, st.Line); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// recover locates the statement responsible for a build failure.
func (c *Compiler) recover(exprs *exprCompiler, cause error) *Diagnostic {
	line, source := 0, c.source.String()

	for _, st := range c.stmts {
		if st.Kind != StmtExpression {
			continue
		}

		if c.validate(exprs, st) != nil {
			line, source = st.Line, st.Source

			break
		}
	}

	d := NewDiagnostic(CompileError, c.opts.Filename, line, source, cause)
	d.Script = c.listing()

	c.opts.Logger.Debug("build failed",
		slog.String("filename", c.opts.Filename),
		slog.Int("line", line),
		slog.Any("error", cause))

	return d
}

func (c *Compiler) validate(exprs *exprCompiler, st Statement) error {
	if st.Output != OutputNone {
		_, err := exprs.compile(st.Code)

		return err
	}

	return validate(exprs, st.Code)
}

// Validate reports whether code is a valid statement on its own. Closers
// without openers and openers without closers are accepted; mismatched
// closers are not.
func (c *Compiler) Validate(code string) error {
	return validate(newExprCompiler(c.opts.Logger, c.scope.shadowed()), code)
}

func validate(exprs *exprCompiler, code string) error {
	clauses, err := parseClauses(code)
	if err != nil {
		return err
	}

	asm := newAssembler(exprs, true)

	for _, cl := range clauses {
		if err := asm.add(cl, 0); err != nil {
			return err
		}
	}

	_, err = asm.finish()

	return err
}

// listing renders the statements as readable pseudo code.
func (c *Compiler) listing() string {
	var b strings.Builder

	if entries := c.scope.list(); len(entries) > 0 {
		decl := make([]string, 0, len(entries))

		for _, e := range entries {
			switch e.Kind {
			case BindBuiltin:
				decl = append(decl, e.Name+" = <builtin>")
			case BindImport:
				decl = append(decl, e.Name+" = "+importsName+"."+e.Name)
			default:
				decl = append(decl, e.Name+" = "+dataName+"."+e.Name)
			}
		}

		b.WriteString("var " + strings.Join(decl, ", ") + "\n")
	}

	b.WriteString("$out = \"\"\n")

	for _, st := range c.stmts {
		switch st.Kind {
		case StmtLiteral:
			b.WriteString("$out += " + strconv.Quote(st.Code))
		case StmtMarker:
			b.WriteString("$line = [" + strconv.Itoa(st.Line) + ", " + strconv.Quote(st.Source) + "]")
		default:
			switch st.Output {
			case OutputEscaped:
				b.WriteString("$out += $escape(" + st.Code + ")")
			case OutputRaw:
				b.WriteString("$out += " + st.Code)
			default:
				b.WriteString(st.Code)
			}
		}

		b.WriteByte('\n')
	}

	b.WriteString("return $out")

	return b.String()
}
