package loader

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/artmpl/lang"
)

// ErrNotFound reports a template name that resolves to no file.
var ErrNotFound = lang.NewError("template not found")

// maxSuggestions bounds the "did you mean" list.
const maxSuggestions = 3

// notFound builds the diagnostic for name, suggesting the known
// templates closest to it.
func notFound(name, from string, tried, known []string) *lang.Diagnostic {
	msg := "template not found: " + strconv.Quote(name)

	if hints := suggest(name, known); len(hints) > 0 {
		quoted := make([]string, len(hints))
		for i, h := range hints {
			quoted[i] = strconv.Quote(h)
		}

		msg += "; did you mean " + strings.Join(quoted, ", ") + "?"
	}

	cause := ErrNotFound.With(
		slog.String("name", name),
		slog.Any("tried", tried),
	).Wrap(lang.NewError(msg))

	d := lang.NewDiagnostic(lang.CompileError, from, 0, name, cause)
	d.Message = msg

	return d
}

func suggest(name string, known []string) []string {
	matches := fuzzy.Find(name, known)

	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}

		out = append(out, m.Str)
	}

	return out
}
