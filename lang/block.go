package lang

import (
	"log/slog"
	"strconv"
)

// block is an open control structure during assembly.
type block struct {
	kind   clauseKind // clauseIf, clauseFor or clauseCFor
	call   bool       // closed by "})"
	branch *branchNode
	body   *[]node
	line   int
}

// assembler builds the node tree from clauses. A lenient assembler
// accepts closers without openers and closes blocks left open, which is
// how a single statement is checked in isolation.
type assembler struct {
	exprs   *exprCompiler
	root    []node
	stack   []*block
	lenient bool
}

func newAssembler(exprs *exprCompiler, lenient bool) *assembler {
	return &assembler{exprs: exprs, lenient: lenient}
}

func (a *assembler) target() *[]node {
	if n := len(a.stack); n > 0 {
		return a.stack[n-1].body
	}

	return &a.root
}

func (a *assembler) emit(n node) {
	t := a.target()
	*t = append(*t, n)
}

func (a *assembler) push(b *block) { a.stack = append(a.stack, b) }

func (a *assembler) top() *block {
	if n := len(a.stack); n > 0 {
		return a.stack[n-1]
	}

	return nil
}

// synthetic opens a discarded block that an unmatched closer can close.
func (a *assembler) synthetic(kind clauseKind, call bool) *block {
	b := &block{kind: kind, call: call, body: new([]node)}
	if kind == clauseIf {
		b.branch = &branchNode{}
	}

	a.push(b)

	return b
}

// add appends one clause parsed from the statement at line.
func (a *assembler) add(c clause, line int) error {
	switch c.kind {
	case clauseExpr:
		prog, err := a.exprs.compile(c.expr)
		if err != nil {
			return err
		}

		a.emit(&evalNode{prog: prog})

	case clauseAssign:
		prog, err := a.exprs.compile(c.expr)
		if err != nil {
			return err
		}

		a.emit(&assignNode{name: c.name, prog: prog})

	case clauseIf:
		prog, err := a.exprs.compile(c.expr)
		if err != nil {
			return err
		}

		first := &arm{cond: prog}
		br := &branchNode{arms: []*arm{first}}
		a.emit(br)
		a.push(&block{kind: clauseIf, branch: br, body: &first.body, line: line})

	case clauseElseIf, clauseElse:
		b := a.top()
		if (b == nil || b.kind != clauseIf) && a.lenient {
			b = a.synthetic(clauseIf, false)
		}

		if b == nil || b.kind != clauseIf {
			return a.unbalanced(c.kind.String() + " without if")
		}

		if b.branch.hasElse {
			return a.unbalanced(c.kind.String() + " after else")
		}

		if c.kind == clauseElse {
			b.branch.hasElse = true
			b.body = &b.branch.els

			return nil
		}

		prog, err := a.exprs.compile(c.expr)
		if err != nil {
			return err
		}

		next := &arm{cond: prog}
		b.branch.arms = append(b.branch.arms, next)
		b.body = &next.body

	case clauseClose, clauseCloseCall:
		call := c.kind == clauseCloseCall

		b := a.top()
		if b == nil && a.lenient {
			b = a.synthetic(clauseFor, call)
		}

		if b == nil {
			return a.unbalanced("unexpected " + strconv.Quote(c.kind.String()))
		}

		if b.call != call {
			return a.unbalanced(strconv.Quote(c.kind.String()) + " cannot close " + b.kind.String() +
				" opened at line " + strconv.Itoa(b.line))
		}

		a.stack = a.stack[:len(a.stack)-1]

	case clauseFor:
		prog, err := a.exprs.compile(c.expr)
		if err != nil {
			return err
		}

		each := &eachNode{target: prog, value: c.value, key: c.key, scoped: c.call}
		a.emit(each)
		a.push(&block{kind: clauseFor, call: c.call, body: &each.body, line: line})

	case clauseCFor:
		loop := &cforNode{}

		var err error

		if loop.init, err = a.inline(c.init); err != nil {
			return err
		}

		if loop.post, err = a.inline(c.post); err != nil {
			return err
		}

		if c.expr != "" {
			if loop.cond, err = a.exprs.compile(c.expr); err != nil {
				return err
			}
		}

		a.emit(loop)
		a.push(&block{kind: clauseCFor, body: &loop.body, line: line})
	}

	return nil
}

// inline compiles the assignments and expressions of a loop header.
func (a *assembler) inline(cs []clause) ([]node, error) {
	sub := newAssembler(a.exprs, false)

	for _, c := range cs {
		if err := sub.add(c, 0); err != nil {
			return nil, err
		}
	}

	return sub.root, nil
}

func (a *assembler) unbalanced(msg string) error {
	return ErrUnbalanced.Wrap(NewError(msg))
}

// finish returns the assembled tree. Open blocks are an error unless the
// assembler is lenient.
func (a *assembler) finish() ([]node, error) {
	if b := a.top(); b != nil && !a.lenient {
		return nil, ErrUnbalanced.With(slog.Int("open_line", b.line)).Wrap(
			NewError("unclosed " + b.kind.String() + " opened at line " + strconv.Itoa(b.line)))
	}

	a.stack = nil

	return a.root, nil
}
