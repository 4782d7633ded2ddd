package lang

import (
	"bytes"
	"context"

	"github.com/expr-lang/expr/vm"
)

// frame is the state of one render.
type frame struct {
	ctx    context.Context
	out    bytes.Buffer
	env    map[string]any
	vm     vm.VM
	escape EscapeFunc
	line   int    // last executed marker
	source string // source of the last executed marker
}

func (f *frame) run(prog *vm.Program) (any, error) {
	v, err := f.vm.Run(prog, f.env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err)
	}

	return v, nil
}

func (f *frame) exec(nodes []node) error {
	for _, n := range nodes {
		if err := n.exec(f); err != nil {
			return err
		}
	}

	return nil
}

// node is one executable unit of a compiled template.
type node interface {
	exec(f *frame) error
}

type textNode struct{ text string }

func (n *textNode) exec(f *frame) error {
	f.out.WriteString(n.text)

	return nil
}

type markerNode struct {
	line   int
	source string
}

func (n *markerNode) exec(f *frame) error {
	f.line, f.source = n.line, n.source

	return nil
}

// outputNode writes the value of an expression. Text appended while the
// expression runs (by print or include) is replaced by the value.
type outputNode struct {
	prog *vm.Program
	raw  bool
}

func (n *outputNode) exec(f *frame) error {
	mark := f.out.Len()

	v, err := f.run(n.prog)
	if err != nil {
		return err
	}

	f.out.Truncate(mark)

	s := stringify(v)
	if !n.raw && f.escape != nil {
		s = f.escape(s)
	}

	f.out.WriteString(s)

	return nil
}

type evalNode struct{ prog *vm.Program }

func (n *evalNode) exec(f *frame) error {
	_, err := f.run(n.prog)

	return err
}

type assignNode struct {
	name string
	prog *vm.Program
}

func (n *assignNode) exec(f *frame) error {
	v, err := f.run(n.prog)
	if err != nil {
		return err
	}

	f.env[n.name] = v

	return nil
}

type arm struct {
	cond *vm.Program
	body []node
}

// branchNode runs the body of its first truthy arm, else its else body.
type branchNode struct {
	arms    []*arm
	els     []node
	hasElse bool
}

func (n *branchNode) exec(f *frame) error {
	for _, a := range n.arms {
		v, err := f.run(a.cond)
		if err != nil {
			return err
		}

		if truthy(v) {
			return f.exec(a.body)
		}
	}

	return f.exec(n.els)
}

// eachNode runs body once per element of target with value and key
// bound. Callback loops restore the outer bindings afterwards.
type eachNode struct {
	target *vm.Program
	value  string
	key    string
	scoped bool
	body   []node
}

func (n *eachNode) exec(f *frame) error {
	v, err := f.run(n.target)
	if err != nil {
		return err
	}

	if n.scoped {
		defer f.restore(n.value, n.key)()
	}

	return iterate(v, func(key, val any) error {
		if err := f.ctx.Err(); err != nil {
			return err
		}

		if n.value != "" {
			f.env[n.value] = val
		}

		if n.key != "" {
			f.env[n.key] = key
		}

		return f.exec(n.body)
	})
}

// restore returns a function resetting names to their current values.
func (f *frame) restore(names ...string) func() {
	saved := make(map[string]any, len(names))

	for _, name := range names {
		if name != "" {
			saved[name] = f.env[name]
		}
	}

	return func() {
		for name, v := range saved {
			f.env[name] = v
		}
	}
}

// cforNode is a three-clause loop. A nil cond loops until the body
// fails or the context ends.
type cforNode struct {
	init []node
	cond *vm.Program
	post []node
	body []node
}

func (n *cforNode) exec(f *frame) error {
	if err := f.exec(n.init); err != nil {
		return err
	}

	for {
		if err := f.ctx.Err(); err != nil {
			return err
		}

		if n.cond != nil {
			v, err := f.run(n.cond)
			if err != nil {
				return err
			}

			if !truthy(v) {
				return nil
			}
		}

		if err := f.exec(n.body); err != nil {
			return err
		}

		if err := f.exec(n.post); err != nil {
			return err
		}
	}
}
