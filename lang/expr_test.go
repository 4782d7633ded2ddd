package lang

import (
	"testing"

	"github.com/expr-lang/expr/vm"
)

func TestJSCompat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{"a === b", "a == b"},
		{"a !== null", "a != nil"},
		{"x.null", "x.null"},
		{"undefined", "nil"},
		{"a /* note */ + b // tail", "a   + b  "},
		{"'===' + a", "'===' + a"},
		{"`plain`", `"plain"`},
		{"`a ${b} c`", `("a " + (b) + " c")`},
		{"`${a}${b}`", `("" + (a) + "" + (b) + "")`},
		{"`say \"hi\"`", `"say \"hi\""`},
		{"/a/.test('a')", `(('a') matches "a")`},
		{`/^b\d+$/i.test(x.y)`, `((x.y) matches "(?i)^b\\d+$")`},
		{"/a/g.test(f(b))", `((f(b)) matches "a")`},
		{"a / b / c", "a / b / c"},
	}

	for _, tt := range tests {
		if got := jsCompat(tt.code); got != tt.want {
			t.Errorf("jsCompat(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestExprCompiler(t *testing.T) {
	t.Parallel()

	c := newExprCompiler(DefaultOptions().Logger, nil)

	tests := []struct {
		code string
		env  map[string]any
		want any
	}{
		{"a || b", map[string]any{"a": "", "b": "x"}, "x"},
		{"a || b", map[string]any{"a": "y", "b": "x"}, "y"},
		{"a && b", map[string]any{"a": 0, "b": "x"}, 0},
		{"a and b", map[string]any{"a": 1, "b": "x"}, "x"},
		{"!a", map[string]any{"a": ""}, true},
		{"not a", map[string]any{"a": 1}, false},
		{"a ? 'y' : 'n'", map[string]any{"a": []int{}}, "y"},
		{"a + b", map[string]any{"a": 1, "b": 2}, 3},
		{"a + b", map[string]any{"a": "1", "b": 2}, "12"},
		{"a.length", map[string]any{"a": "abc"}, 3},
		{"a ?? 'd'", map[string]any{}, "d"},
	}

	for _, tt := range tests {
		prog, err := c.compile(tt.code)
		if err != nil {
			t.Errorf("compile(%q) error = %v", tt.code, err)

			continue
		}

		got, err := vm.Run(prog, tt.env)
		if err != nil {
			t.Errorf("run(%q) error = %v", tt.code, err)

			continue
		}

		if got != tt.want {
			t.Errorf("run(%q) = %#v, want %#v", tt.code, got, tt.want)
		}
	}
}

func TestExprCompiler_Errors(t *testing.T) {
	t.Parallel()

	c := newExprCompiler(DefaultOptions().Logger, nil)

	for _, code := range []string{"a b", "(", "a +"} {
		if _, err := c.compile(code); err == nil {
			t.Errorf("compile(%q) expected error", code)
		}
	}
}
