package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// TokenKind distinguishes literal text from an expression tag.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenExpression
)

func (k TokenKind) String() string {
	if k == TokenExpression {
		return "expression"
	}

	return "literal"
}

// Token is one segment of a template. For expressions, Text is the raw
// content between the delimiters (sigils included), Source is the whole tag
// and Syntax is the strategy whose delimiters matched. Line is 1-based.
type Token struct {
	Kind   TokenKind
	Text   string
	Source string
	Line   int
	Syntax Syntax
}

// Tokenize splits source into literal and expression tokens using the
// delimiters of syntaxes. When several syntaxes open at the same offset,
// the one listed first wins. Empty literal runs are not emitted.
//
// An open delimiter without a matching close delimiter yields a
// CompileError [*Diagnostic] reported at the delimiter's line.
func Tokenize(source string, syntaxes ...Syntax) ([]Token, error) {
	return tokenize(source, "", syntaxes)
}

type scanner struct {
	src      string
	path     string
	pos      int
	line     int
	syntaxes []Syntax
	tokens   []Token
}

func tokenize(source, path string, syntaxes []Syntax) ([]Token, error) {
	s := &scanner{src: source, path: path, line: 1, syntaxes: syntaxes}

	for s.pos < len(s.src) {
		at, syn := s.nextOpen()
		if syn == nil {
			s.literal(len(s.src))

			break
		}

		s.literal(at)

		if err := s.expression(syn); err != nil {
			return nil, err
		}
	}

	return s.tokens, nil
}

// nextOpen finds the earliest open delimiter at or after the current
// position.
func (s *scanner) nextOpen() (int, Syntax) {
	best, found := -1, Syntax(nil)
	rest := s.src[s.pos:]

	for _, syn := range s.syntaxes {
		open, _ := syn.Delims()
		if open == "" {
			continue
		}

		if i := strings.Index(rest, open); i >= 0 && (best < 0 || i < best) {
			best, found = i, syn
		}
	}

	if found == nil {
		return -1, nil
	}

	return s.pos + best, found
}

func (s *scanner) literal(end int) {
	if end <= s.pos {
		return
	}

	text := s.src[s.pos:end]
	s.tokens = append(s.tokens, Token{
		Kind:   TokenLiteral,
		Text:   text,
		Source: text,
		Line:   s.line,
	})
	s.line += strings.Count(text, "\n")
	s.pos = end
}

func (s *scanner) expression(syn Syntax) error {
	open, close := syn.Delims()
	start := s.pos + len(open)

	n := strings.Index(s.src[start:], close)
	if close == "" || n < 0 {
		snippet, _, _ := strings.Cut(s.src[s.pos:], "\n")

		return NewDiagnostic(CompileError, s.path, s.line, snippet,
			ErrUnterminated.With(
				slog.String("syntax", syn.Name()),
				slog.String("open", open),
				slog.String("close", close),
			).Wrap(NewError("missing "+strconv.Quote(close)+" for "+strconv.Quote(open))))
	}

	end := start + n + len(close)
	s.tokens = append(s.tokens, Token{
		Kind:   TokenExpression,
		Text:   s.src[start : start+n],
		Source: s.src[s.pos:end],
		Line:   s.line,
		Syntax: syn,
	})
	s.line += strings.Count(s.src[s.pos:end], "\n")
	s.pos = end

	return nil
}
