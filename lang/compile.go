package lang

// ErrorSentinel is the output of a failed render when Bail is off.
const ErrorSentinel = "{Template Error}"

// Compile translates source into a Renderer.
//
// With Bail off (the default) a template that fails to compile still
// yields a Renderer: each render logs the failure and returns
// [ErrorSentinel]. With Bail on the failure is returned as a
// [*Diagnostic].
func Compile(source string, opts ...Option) (*Renderer, error) {
	o := MakeOptions(opts...)

	r, err := compile(NewCompiler(WithOptions(o)), source)
	if err == nil {
		return r, nil
	}

	if o.Bail {
		return nil, err
	}

	d, ok := AsDiagnostic(err)
	if !ok {
		d = NewDiagnostic(CompileError, o.Filename, 0, source, err)
	}

	return &Renderer{opts: o, source: source, failure: d}, nil
}

// MustCompile is like Compile with Bail on but panics on failure.
func MustCompile(source string, opts ...Option) *Renderer {
	r, err := Compile(source, append(opts, WithBail(true))...)
	if err != nil {
		panic(err)
	}

	return r
}

func compile(c *Compiler, source string) (*Renderer, error) {
	tokens, err := tokenize(source, c.opts.Filename, c.syntaxes)
	if err != nil {
		return nil, c.fail(err)
	}

	for _, tok := range tokens {
		if tok.Kind == TokenLiteral {
			err = c.AddLiteral(tok)
		} else {
			err = c.AddExpression(tok)
		}

		if err != nil {
			return nil, err
		}
	}

	return c.Build()
}
