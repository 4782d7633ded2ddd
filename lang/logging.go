package lang

import (
	"log/slog"
	"maps"
	"reflect"
	"slices"
)

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}

// scopeAttrs summarizes resolved names for trace logging.
func scopeAttrs(entries []ScopeEntry) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(entries))

	for _, e := range entries {
		attrs = append(attrs, slog.String(e.Name, e.Kind.String()))
	}

	return attrs
}
