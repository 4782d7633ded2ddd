package lang

import (
	"strconv"
	"strings"

	"github.com/ardnew/artmpl/lang/lexer"
)

type clauseKind int

const (
	clauseExpr      clauseKind = iota // expression evaluated for effect
	clauseAssign                      // name = expr
	clauseIf                          // if (expr) {
	clauseElseIf                      // } else if (expr) {
	clauseElse                        // } else {
	clauseClose                       // }
	clauseCloseCall                   // })
	clauseFor                         // for (value, key of expr) {, forEach
	clauseCFor                        // for (init; expr; post) {
)

var clauseName = map[clauseKind]string{
	clauseExpr:      "expression",
	clauseAssign:    "assignment",
	clauseIf:        "if",
	clauseElseIf:    "else if",
	clauseElse:      "else",
	clauseClose:     "}",
	clauseCloseCall: "})",
	clauseFor:       "for",
	clauseCFor:      "for",
}

func (k clauseKind) String() string { return clauseName[k] }

func (k clauseKind) opens() bool {
	switch k {
	case clauseIf, clauseElseIf, clauseElse, clauseFor, clauseCFor:
		return true
	}

	return false
}

func (k clauseKind) closes() bool {
	switch k {
	case clauseElseIf, clauseElse, clauseClose, clauseCloseCall:
		return true
	}

	return false
}

// clause is one parsed unit of statement code.
type clause struct {
	kind  clauseKind
	expr  string // condition, iterated value, assigned value or expression
	name  string // assignment target
	value string // loop value binding
	key   string // loop key binding
	call  bool   // loop is a callback closed by "})"
	init  []clause
	post  []clause
}

// clauseParser walks the significant tokens of one statement.
type clauseParser struct {
	code string
	toks []lexer.Token
	pos  int
}

// parseClauses splits statement code into clauses.
func parseClauses(code string) ([]clause, error) {
	p := &clauseParser{code: code, toks: lexer.Significant(lexer.Lex(code))}

	var out []clause

	for !p.done() {
		t := p.peek()

		var (
			cs  []clause
			err error
		)

		switch {
		case t.IsPunct(";"):
			p.pos++

			continue
		case t.IsPunct("}"):
			cs, err = p.closer()
		case t.Is(lexer.Identifier, "if"):
			cs, err = p.ifClause()
		case t.Is(lexer.Identifier, "for"):
			cs, err = p.forClause()
		case isDeclare(t):
			cs, err = p.declare()
		default:
			cs, err = p.simple()
		}

		if err != nil {
			return nil, err
		}

		out = append(out, cs...)
	}

	return out, nil
}

func isDeclare(t lexer.Token) bool {
	return t.Kind == lexer.Identifier && (t.Text == "var" || t.Text == "let" || t.Text == "const")
}

func (p *clauseParser) done() bool { return p.pos >= len(p.toks) }

func (p *clauseParser) peek() lexer.Token {
	if p.done() {
		return lexer.Token{}
	}

	return p.toks[p.pos]
}

func (p *clauseParser) accept(punct string) bool {
	if p.peek().IsPunct(punct) {
		p.pos++

		return true
	}

	return false
}

func (p *clauseParser) acceptWord(word string) bool {
	if p.peek().Is(lexer.Identifier, word) {
		p.pos++

		return true
	}

	return false
}

// text returns the source of tokens [i, j).
func (p *clauseParser) text(i, j int) string {
	if i >= j {
		return ""
	}

	start := p.toks[i].Offset
	end := p.toks[j-1].Offset + len(p.toks[j-1].Text)

	return strings.TrimSpace(p.code[start:end])
}

func (p *clauseParser) fail(msg string) error {
	near := "end of statement"
	if !p.done() {
		near = p.peek().Text
	}

	return ErrSyntax.Wrap(NewError(msg + " near " + strconv.Quote(near)))
}

// match returns the index of the bracket closing the one at i.
func (p *clauseParser) match(i int) int {
	open := p.toks[i].Text
	close := map[string]string{"(": ")", "[": "]", "{": "}"}[open]
	depth := 0

	for j := i; j < len(p.toks); j++ {
		switch t := p.toks[j]; {
		case t.IsPunct(open):
			depth++
		case t.IsPunct(close):
			depth--
			if depth == 0 {
				return j
			}
		case t.Kind == lexer.Template:
			depth += templateDepth(t.Text)
		}
	}

	return -1
}

// parens consumes "( ... )" and returns the bounds of its content.
func (p *clauseParser) parens() (int, int, error) {
	if !p.peek().IsPunct("(") {
		return 0, 0, p.fail("expected \"(\"")
	}

	end := p.match(p.pos)
	if end < 0 {
		return 0, 0, p.fail("unclosed \"(\"")
	}

	start := p.pos + 1
	p.pos = end + 1

	return start, end, nil
}

func (p *clauseParser) openBrace(what string) error {
	if !p.accept("{") {
		return p.fail("expected \"{\" after " + what)
	}

	return nil
}

func (p *clauseParser) closer() ([]clause, error) {
	p.pos++ // "}"

	if p.accept(")") {
		return []clause{{kind: clauseCloseCall}}, nil
	}

	if !p.acceptWord("else") {
		return []clause{{kind: clauseClose}}, nil
	}

	if !p.acceptWord("if") {
		if err := p.openBrace("else"); err != nil {
			return nil, err
		}

		return []clause{{kind: clauseElse}}, nil
	}

	i, j, err := p.parens()
	if err != nil {
		return nil, err
	}

	if err := p.openBrace("else if condition"); err != nil {
		return nil, err
	}

	return []clause{{kind: clauseElseIf, expr: p.text(i, j)}}, nil
}

func (p *clauseParser) ifClause() ([]clause, error) {
	p.pos++ // "if"

	i, j, err := p.parens()
	if err != nil {
		return nil, err
	}

	if i == j {
		return nil, p.fail("empty if condition")
	}

	if err := p.openBrace("if condition"); err != nil {
		return nil, err
	}

	return []clause{{kind: clauseIf, expr: p.text(i, j)}}, nil
}

func (p *clauseParser) forClause() ([]clause, error) {
	p.pos++ // "for"

	i, j, err := p.parens()
	if err != nil {
		return nil, err
	}

	if err := p.openBrace("for header"); err != nil {
		return nil, err
	}

	header := p.toks[i:j]

	var semis []int

	depth := 0
	for k, t := range header {
		switch {
		case t.IsPunct("("), t.IsPunct("["), t.IsPunct("{"):
			depth++
		case t.IsPunct(")"), t.IsPunct("]"), t.IsPunct("}"):
			depth--
		case depth == 0 && t.IsPunct(";"):
			semis = append(semis, i+k)
		}
	}

	switch len(semis) {
	case 0:
		c, err := p.forOf(i, j)
		if err != nil {
			return nil, err
		}

		return []clause{c}, nil

	case 2:
		init, err := parseClauses(p.text(i, semis[0]))
		if err != nil {
			return nil, err
		}

		post, err := parseClauses(p.text(semis[1]+1, j))
		if err != nil {
			return nil, err
		}

		for _, c := range append(init, post...) {
			if c.kind != clauseAssign && c.kind != clauseExpr {
				return nil, p.fail("invalid for loop header")
			}
		}

		return []clause{{
			kind: clauseCFor,
			expr: p.text(semis[0]+1, semis[1]),
			init: init,
			post: post,
		}}, nil
	}

	return nil, p.fail("invalid for loop header")
}

// forOf parses "[var] value[, key] of list" and "[var] key in list".
func (p *clauseParser) forOf(i, j int) (clause, error) {
	k := i
	if k < j && isDeclare(p.toks[k]) {
		k++
	}

	var names []string

	for k < j && p.toks[k].Kind == lexer.Identifier && !p.toks[k].Is(lexer.Identifier, "of") &&
		!p.toks[k].Is(lexer.Identifier, "in") {
		names = append(names, p.toks[k].Text)
		k++

		if k < j && p.toks[k].IsPunct(",") {
			k++

			continue
		}

		break
	}

	if k >= j || len(names) == 0 || len(names) > 2 {
		return clause{}, p.fail("invalid for loop header")
	}

	word := p.toks[k].Text
	if k+1 >= j || (word != "of" && word != "in") {
		return clause{}, p.fail("expected \"of\" or \"in\" in for loop header")
	}

	c := clause{kind: clauseFor, expr: p.text(k+1, j)}

	switch {
	case word == "in" && len(names) == 1:
		c.key = names[0]
	case word == "of":
		c.value = names[0]
		if len(names) > 1 {
			c.key = names[1]
		}
	default:
		return clause{}, p.fail("invalid for loop header")
	}

	return c, nil
}

// declare parses "var a = 1, b" into assignments. Uninitialized names are
// assigned nil.
func (p *clauseParser) declare() ([]clause, error) {
	p.pos++ // keyword

	var out []clause

	for {
		t := p.peek()
		if t.Kind != lexer.Identifier || lexer.IsKeyword(t.Text) {
			return nil, p.fail("expected a variable name")
		}

		p.pos++

		c := clause{kind: clauseAssign, name: t.Text, expr: "nil"}

		if p.accept("=") {
			start := p.pos
			end := p.scan(true)

			if start == end {
				return nil, p.fail("expected a value")
			}

			c.expr = p.text(start, end)
		}

		out = append(out, c)

		if !p.accept(",") {
			return out, nil
		}
	}
}

// scan advances to the end of an expression: a top-level ";", a closing
// "}" of the enclosing block, a block opening "{" or, when commas is set,
// a top-level ",". It returns the end index and leaves the terminator
// unconsumed.
func (p *clauseParser) scan(commas bool) int {
	depth := 0

	for ; !p.done(); p.pos++ {
		t := p.peek()

		switch {
		case t.IsPunct("{") && p.opensBlock():
			return p.pos
		case t.IsPunct("("), t.IsPunct("["), t.IsPunct("{"):
			depth++
		case t.IsPunct(")"), t.IsPunct("]"), t.IsPunct("}"):
			if depth == 0 {
				return p.pos
			}

			depth--
		case t.Kind == lexer.Template:
			depth += templateDepth(t.Text)
		case depth == 0 && t.IsPunct(";"):
			return p.pos
		case depth == 0 && commas && t.IsPunct(","):
			return p.pos
		}
	}

	return p.pos
}

// opensBlock reports whether the "{" at the cursor starts a function body.
func (p *clauseParser) opensBlock() bool {
	if p.pos == 0 {
		return false
	}

	prev := p.toks[p.pos-1]
	if prev.IsPunct("=>") {
		return true
	}

	return prev.IsPunct(")") && p.functionParams(p.pos-1) >= 0
}

// functionParams returns the index of the "function" keyword owning the
// parameter list closed at i, or -1.
func (p *clauseParser) functionParams(i int) int {
	depth := 0

	for k := i; k >= 0; k-- {
		switch t := p.toks[k]; {
		case t.IsPunct(")"):
			depth++
		case t.IsPunct("("):
			depth--
			if depth == 0 {
				switch {
				case k > 0 && p.toks[k-1].Is(lexer.Identifier, "function"):
					return k - 1
				case k > 1 && p.toks[k-1].Kind == lexer.Identifier && p.toks[k-2].Is(lexer.Identifier, "function"):
					return k - 2
				}

				return -1
			}
		}
	}

	return -1
}

// simple parses an expression, an assignment or a callback loop head.
func (p *clauseParser) simple() ([]clause, error) {
	start := p.pos
	end := p.scan(false)

	if p.peek().IsPunct("{") {
		c, err := p.callback(start, end)
		if err != nil {
			return nil, err
		}

		p.pos++ // "{"

		return []clause{c}, nil
	}

	if start == end {
		return nil, p.fail("unexpected token")
	}

	return []clause{p.assignment(start, end)}, nil
}

var compound = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%", "**=": "**", "??=": "??",
}

// assignment recognizes "x = e", "x op= e", "x++" and "x--" in tokens
// [i, j); anything else is an expression clause.
func (p *clauseParser) assignment(i, j int) clause {
	toks := p.toks[i:j]

	if len(toks) == 2 && toks[0].Kind == lexer.Identifier && (toks[1].IsPunct("++") || toks[1].IsPunct("--")) {
		return clause{kind: clauseAssign, name: toks[0].Text, expr: toks[0].Text + " " + toks[1].Text[:1] + " 1"}
	}

	if len(toks) == 2 && toks[1].Kind == lexer.Identifier && (toks[0].IsPunct("++") || toks[0].IsPunct("--")) {
		return clause{kind: clauseAssign, name: toks[1].Text, expr: toks[1].Text + " " + toks[0].Text[:1] + " 1"}
	}

	if len(toks) > 2 && toks[0].Kind == lexer.Identifier && !lexer.IsKeyword(toks[0].Text) {
		name := toks[0].Text

		if toks[1].IsPunct("=") {
			return clause{kind: clauseAssign, name: name, expr: p.text(i+2, j)}
		}

		if op, ok := compound[toks[1].Text]; ok && toks[1].Kind == lexer.Punctuator {
			return clause{kind: clauseAssign, name: name, expr: name + " " + op + " (" + p.text(i+2, j) + ")"}
		}
	}

	return clause{kind: clauseExpr, expr: p.text(i, j)}
}

// callback parses the loop heads "list.forEach(function (v, k) {",
// "list.forEach((v, k) => {" and "$each(list, function (v, k) {" spanning
// tokens [i, j); the "{" is at j.
func (p *clauseParser) callback(i, j int) (clause, error) {
	var (
		params []string
		head   int
	)

	last := j - 1
	if last < i {
		return clause{}, p.fail("unexpected \"{\"")
	}

	switch {
	case p.toks[last].IsPunct("=>"):
		switch {
		case last-1 >= i && p.toks[last-1].Kind == lexer.Identifier:
			params, head = []string{p.toks[last-1].Text}, last-1
		case last-1 >= i && p.toks[last-1].IsPunct(")"):
			open := p.openOf(last - 1)
			if open < i {
				return clause{}, p.fail("invalid arrow function")
			}

			params, head = p.names(open+1, last-1), open
		default:
			return clause{}, p.fail("invalid arrow function")
		}

	case p.toks[last].IsPunct(")"):
		head = p.functionParams(last)
		if head < i {
			return clause{}, p.fail("invalid function")
		}

		params = p.names(p.openOf(last)+1, last)

	default:
		return clause{}, p.fail("unexpected \"{\"")
	}

	if params == nil || len(params) > 2 {
		return clause{}, p.fail("loop callbacks take a value and an optional index")
	}

	c := clause{kind: clauseFor, call: true, value: params[0]}
	if len(params) > 1 {
		c.key = params[1]
	}

	toks := p.toks[i:head]

	switch n := len(toks); {
	case n > 3 && toks[n-1].IsPunct("(") && toks[n-2].Is(lexer.Identifier, "forEach") && toks[n-3].IsPunct("."):
		c.expr = p.text(i, head-3)
	case n > 3 && toks[0].Is(lexer.Identifier, "$each") && toks[1].IsPunct("(") && toks[n-1].IsPunct(","):
		c.expr = p.text(i+2, head-1)
	default:
		return clause{}, p.fail("only forEach and $each accept a function block")
	}

	return c, nil
}

// openOf returns the index of the "(" matching the ")" at i.
func (p *clauseParser) openOf(i int) int {
	depth := 0

	for k := i; k >= 0; k-- {
		switch {
		case p.toks[k].IsPunct(")"):
			depth++
		case p.toks[k].IsPunct("("):
			depth--
			if depth == 0 {
				return k
			}
		}
	}

	return -1
}

// names returns the comma separated identifiers of tokens [i, j), or nil
// if anything else appears.
func (p *clauseParser) names(i, j int) []string {
	out := make([]string, 0, 2)

	for k := i; k < j; k++ {
		t := p.toks[k]

		switch {
		case t.Kind == lexer.Identifier && !lexer.IsKeyword(t.Text):
			out = append(out, t.Text)
		case t.IsPunct(","):
		default:
			return nil
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
