package repl

import (
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/artmpl/lang"
)

// commands are the names accepted after the command prefix.
var commands = []string{"clear", "data", "edit", "help", "names", "quit", "source"}

// isWordBoundary reports whether r delimits a completion word: whitespace,
// the member-access dot, tag delimiters and expression punctuation.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!', '@', '#',
		'&', '|', ',', '?', ':', ';',
		'\'', '"', '`':
		return true
	}

	return false
}

// wordBounds returns the word around cursor and its byte offsets in input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain ending just before wordStart.
// For "{{ user.addr.ci" and the word "ci" it is "user.addr".
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.Trim(prefix[pos:], ".")
}

// topLevel returns the names visible to a template: data keys, render
// helpers, imports and expression builtins.
func topLevel(data map[string]any, imports map[string]any) []string {
	names := slices.Collect(maps.Keys(data))
	names = append(names, lang.Builtins()...)
	names = append(names, slices.Collect(maps.Keys(imports))...)
	names = append(names, slices.Collect(maps.Keys(builtin.Index))...)

	slices.Sort(names)

	return slices.Compact(names)
}

// childCandidates returns the keys of the mapping reached by walking the
// dotted parent path from data.
func childCandidates(data map[string]any, parent string) []string {
	var cur any = data

	for _, key := range strings.Split(parent, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}

		cur = m[key]
	}

	m, ok := cur.(map[string]any)
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}

// computeMatches ranks the candidates for the word at the cursor. An empty
// word shows nothing at the top level and every member after a dot.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()
	word, start, end := wordBounds(input, m.input.Position())

	var candidates []string

	switch {
	case strings.HasPrefix(input, commandPrefix):
		if start != len(commandPrefix) {
			return nil, start, end
		}

		candidates = commands

	default:
		parent := parentPath(input, start)
		if parent == "" {
			candidates = m.names
		} else {
			candidates = childCandidates(m.data, parent)
		}

		if word == "" {
			if parent == "" {
				return nil, start, end
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, start, end
		}
	}

	if word == "" || len(candidates) == 0 {
		return nil, start, end
	}

	return fuzzy.Find(word, candidates), start, end
}

// refreshMatches recomputes the completion state after an edit.
func refreshMatches(m *model) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()
	m.suggIdx = 0
}

// renderCandidateBar renders matches on one line, ellipsized to width.
func renderCandidateBar(matches fuzzy.Matches, suggIdx int, tabActive bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+lipgloss.Width(ellipsis) > width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched runes highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, mark := suggestionStyle, matchStyle
	if selected {
		base, mark = selectedStyle, selectedMatchStyle
	}

	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, i := range match.MatchedIndexes {
		hit[i] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(mark.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
