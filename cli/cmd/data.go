package cmd

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// loadData reads the YAML or JSON documents at paths, merges their
// top-level keys in order, then applies vars. A var key may be a dotted
// path; its value is parsed as a YAML scalar.
func loadData(paths []string, vars map[string]string) (map[string]any, error) {
	data := make(map[string]any)

	for _, path := range paths {
		b, err := readSource(path)
		if err != nil {
			return nil, ErrReadData.With(slog.String("file", path)).Wrap(err)
		}

		var doc any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, ErrParseData.With(slog.String("file", path)).Wrap(err)
		}

		switch v := doc.(type) {
		case nil:
		case map[string]any:
			maps.Copy(data, v)
		default:
			return nil, ErrDataShape.With(slog.String("file", path))
		}
	}

	for _, key := range slices.Sorted(maps.Keys(vars)) {
		assign(data, strings.Split(key, "."), scalar(vars[key]))
	}

	return data, nil
}

// assign stores value at the nested key path in m, replacing any
// non-mapping value along the way.
func assign(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}

		m = next
	}

	m[path[len(path)-1]] = value
}

// scalar decodes s as a YAML value, falling back to the string itself.
func scalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil && s != "null" && s != "~" {
		return s
	}

	switch v.(type) {
	case map[string]any, []any:
		return s
	}

	return v
}
