package lang

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&#38;",
	"<", "&#60;",
	">", "&#62;",
	`"`, "&#34;",
	"'", "&#39;",
)

// EscapeHTML replaces the characters &, <, >, " and ' with numeric
// character references.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

var (
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankLines  = regexp.MustCompile(`\s*\n\s*`)
	blankRuns   = regexp.MustCompile(`[ \t\f\r]+`)
)

// CompressHTML is a [CompressFunc] that removes HTML comments and
// collapses whitespace runs. Line breaks collapse to a single newline.
func CompressHTML(l Literal) string {
	s := htmlComment.ReplaceAllString(l.Source, "")
	s = blankLines.ReplaceAllString(s, "\n")

	return blankRuns.ReplaceAllString(s, " ")
}

// DefaultImports returns a new import table with the runtime helpers:
//
//	$escape(v) string  escaped text of v
//	$each(v) []any     values of v in iteration order
func DefaultImports() map[string]any {
	return map[string]any{
		"$escape": func(v any) string { return EscapeHTML(stringify(v)) },
		"$each": func(v any) ([]any, error) {
			var out []any

			err := iterate(v, func(_, val any) error {
				out = append(out, val)

				return nil
			})

			return out, err
		},
	}
}

// truthy reports whether v is truthy: every value except nil, false, 0,
// NaN and the empty string.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()

		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return rv.Len() != 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}

	return true
}

// number converts numeric values to int or float64.
func number(v any) (any, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return x, true
	case nil, bool, string:
		return nil, false
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}

	return nil, false
}

// add adds numbers and concatenates everything else.
func add(a, b any) any {
	x, okx := number(a)
	y, oky := number(b)

	if !okx || !oky {
		return stringify(a) + stringify(b)
	}

	xi, xint := x.(int)
	yi, yint := y.(int)

	if xint && yint {
		return xi + yi
	}

	return float(x) + float(y)
}

func float(v any) float64 {
	if i, ok := v.(int); ok {
		return float64(i)
	}

	return v.(float64)
}

// length returns the length of strings, slices, arrays and maps, or the
// "length" member of a mapping or struct.
func length(v any) (any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		return len([]rune(rv.String())), nil
	case reflect.Slice, reflect.Array:
		return rv.Len(), nil
	case reflect.Map:
		if val, ok := field(v, "length"); ok {
			return val, nil
		}

		return rv.Len(), nil
	case reflect.Struct:
		if val, ok := field(v, "length"); ok {
			return val, nil
		}
	}

	return nil, fmt.Errorf("cannot read property \"length\" of %s", typeName(v))
}

// stringify formats v as template output.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case []byte:
		return string(x)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.String:
		return rv.String()
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}

	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}

// field looks up name in a string-keyed map or an exported struct field,
// matching either the field name or its json or yaml tag.
func field(data any, name string) (any, bool) {
	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}

		val := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}

		return val.Interface(), true

	case reflect.Struct:
		t := rv.Type()

		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}

			if f.Name == name || tagName(f, "json") == name || tagName(f, "yaml") == name {
				return rv.Field(i).Interface(), true
			}
		}
	}

	return nil, false
}

func tagName(f reflect.StructField, key string) string {
	name, _, _ := strings.Cut(f.Tag.Get(key), ",")

	return name
}

// iterate calls fn for each element of v: slices and arrays in index
// order, maps by sorted key, structs by exported field in declaration
// order and strings by character. Iterating nil does nothing.
func iterate(v any, fn func(key, value any) error) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Invalid:
		return nil

	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(stringify(a.Interface()), stringify(b.Interface()))
		})

		for _, k := range keys {
			if err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}

	case reflect.Struct:
		t := rv.Type()

		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}

			key := f.Name
			if tag := tagName(f, "json"); tag != "" && tag != "-" {
				key = tag
			}

			if err := fn(key, rv.Field(i).Interface()); err != nil {
				return err
			}
		}

	case reflect.String:
		for i, r := range []rune(rv.String()) {
			if err := fn(i, string(r)); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("%s is not iterable", typeName(v))
	}

	return nil
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
