package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve returns a [kong.ConfigurationLoader] that reads flag defaults
// from the mapping under key name in a YAML document.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve("config"), "/path/to/config.yaml")
//
// Example config file:
//
//	config:
//	  log-level: debug
//	  preset: brace
//	  path: [./partials, ./layouts]
//
// Keys match flag names, with underscores accepted for hyphens. Nested
// mappings are flattened with hyphens, so {log: {level: debug}} sets
// --log-level. Command-line flags override config file values. A document
// that does not parse, or has no such mapping, resolves nothing.
func resolve(name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return config{}, nil
		}

		ns, ok := doc[name].(map[string]any)
		if !ok {
			return config{}, nil
		}

		c := make(config)
		c.flatten("", ns)

		return c, nil
	}
}

// config implements [kong.Resolver] over flattened flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}

// flatten stores the leaves of m under hyphen-joined keys.
func (c config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		key = strings.ReplaceAll(key, "_", "-")
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := value.(map[string]any); ok {
			c.flatten(key, sub)

			continue
		}

		c[key] = flagText(value)
	}
}

// flagText converts a decoded YAML value to the form kong parses. Kong
// requires numbers as strings and lists as comma-separated strings.
func flagText(value any) any {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = strings.ReplaceAll(fmt.Sprint(flagText(e)), ",", `\,`)
		}

		return strings.Join(out, ",")
	case string, bool, nil:
		return v
	default:
		return fmt.Sprint(v)
	}
}
