package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type state int

const (
	stateCode state = iota
	stateSingleQuote
	stateDoubleQuote
	stateTemplate
	stateLineComment
	stateBlockComment
	stateRegex
)

// punctuators is ordered longest first for maximal munch.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--", "+=",
	"-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
}

// Lex splits code into tokens. Concatenating the text of the result
// reproduces code exactly.
func Lex(code string) []Token {
	l := &lexer{src: code}
	l.run()

	return l.tokens
}

type lexer struct {
	src    string
	pos    int
	start  int
	state  state
	depth  int   // open "{" count in code
	interp []int // depth at each open "${", innermost last
	tokens []Token
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		switch l.state {
		case stateCode:
			l.code()
		case stateSingleQuote:
			l.quoted('\'')
		case stateDoubleQuote:
			l.quoted('"')
		case stateTemplate:
			l.template()
		case stateLineComment:
			l.lineComment()
		case stateBlockComment:
			l.blockComment()
		case stateRegex:
			l.regex()
		}
	}

	// Unterminated strings, templates and comments run to the end.
	if l.pos > l.start {
		switch l.state {
		case stateSingleQuote, stateDoubleQuote:
			l.emit(String)
		case stateTemplate:
			l.emit(Template)
		case stateLineComment, stateBlockComment:
			l.emit(Comment)
		default:
			l.emit(Punctuator)
		}
	}
}

func (l *lexer) emit(kind Kind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Text:   l.src[l.start:l.pos],
		Offset: l.start,
	})
	l.start = l.pos
	l.state = stateCode
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])

	return r
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}

	return l.src[l.pos+off]
}

func (l *lexer) advance() {
	_, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
}

func (l *lexer) code() {
	r := l.peek()

	switch {
	case unicode.IsSpace(r):
		for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
			l.advance()
		}

		l.emit(Whitespace)

	case r == '/' && l.peekAt(1) == '/':
		l.pos += 2
		l.state = stateLineComment

	case r == '/' && l.peekAt(1) == '*':
		l.pos += 2
		l.state = stateBlockComment

	case r == '\'':
		l.pos++
		l.state = stateSingleQuote

	case r == '"':
		l.pos++
		l.state = stateDoubleQuote

	case r == '`':
		l.pos++
		l.state = stateTemplate

	case r == '/' && l.regexAllowed():
		l.state = stateRegex

	case isDigit(r) || (r == '.' && isDigit(rune(l.peekAt(1)))):
		l.number()

	case isIdentifierStart(r):
		for l.pos < len(l.src) && isIdentifierContinue(l.peek()) {
			l.advance()
		}

		l.emit(Identifier)

	case r == '{':
		l.depth++
		l.pos++
		l.emit(Punctuator)

	case r == '}':
		if n := len(l.interp); n > 0 && l.interp[n-1] == l.depth {
			// Closing an interpolation resumes the template literal.
			l.interp = l.interp[:n-1]
			l.pos++
			l.state = stateTemplate

			return
		}

		if l.depth > 0 {
			l.depth--
		}

		l.pos++
		l.emit(Punctuator)

	default:
		l.punctuator()
	}
}

func (l *lexer) punctuator() {
	rest := l.src[l.pos:]

	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			l.emit(Punctuator)

			return
		}
	}

	l.advance()
	l.emit(Punctuator)
}

func (l *lexer) number() {
	hex := l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X')
	dot := false

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch {
		case isDigit(rune(c)) || c == '_' || isLetter(c):
			if !hex && (c == 'e' || c == 'E') &&
				(l.peekAt(1) == '+' || l.peekAt(1) == '-') {
				l.pos++
			}

			l.pos++

		case c == '.' && !dot && !hex && isDigit(rune(l.peekAt(1))):
			dot = true
			l.pos++

		default:
			l.emit(Number)

			return
		}
	}

	l.emit(Number)
}

func (l *lexer) quoted(quote byte) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch c {
		case '\\':
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}

		case quote:
			l.pos++
			l.emit(String)

			return

		case '\n':
			// A raw newline ends an unterminated string.
			l.emit(String)

			return

		default:
			l.pos++
		}
	}
}

func (l *lexer) template() {
	for l.pos < len(l.src) {
		switch c := l.src[l.pos]; {
		case c == '\\':
			l.pos += 2
			if l.pos > len(l.src) {
				l.pos = len(l.src)
			}

		case c == '`':
			l.pos++
			l.emit(Template)

			return

		case c == '$' && l.peekAt(1) == '{':
			l.pos += 2
			l.emit(Template)
			l.interp = append(l.interp, l.depth)

			return

		default:
			l.pos++
		}
	}
}

func (l *lexer) lineComment() {
	if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		l.pos += i
	} else {
		l.pos = len(l.src)
	}

	l.emit(Comment)
}

func (l *lexer) blockComment() {
	if i := strings.Index(l.src[l.pos:], "*/"); i >= 0 {
		l.pos += i + 2
	} else {
		l.pos = len(l.src)
	}

	l.emit(Comment)
}

// regex scans a regular expression literal starting at "/". If the literal
// does not close on the same line, the "/" is lexed as a punctuator.
func (l *lexer) regex() {
	i := l.pos + 1
	class := false

	for i < len(l.src) {
		c := l.src[i]

		switch {
		case c == '\\':
			i += 2

			continue

		case c == '\n':
			l.state = stateCode
			l.punctuator()

			return

		case c == '[':
			class = true

		case c == ']':
			class = false

		case c == '/' && !class:
			i++
			for i < len(l.src) && isLetter(l.src[i]) {
				i++
			}

			l.pos = i
			l.emit(Regex)

			return
		}

		i++
	}

	l.state = stateCode
	l.punctuator()
}

// regexAllowed reports whether a "/" at the current position starts a
// regular expression, judged by the previous significant token.
func (l *lexer) regexAllowed() bool {
	for i := len(l.tokens) - 1; i >= 0; i-- {
		t := l.tokens[i]
		if !t.Significant() {
			continue
		}

		switch t.Kind {
		case Punctuator:
			return t.Text != ")" && t.Text != "]" && t.Text != "}"
		case Identifier:
			_, ok := operandKeywords[t.Text]

			return ok
		case Template:
			return strings.HasSuffix(t.Text, "${")
		default:
			return false
		}
	}

	return true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentifierContinue(r rune) bool {
	return isIdentifierStart(r) || unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) ||
		r == '\u200c' || r == '\u200d'
}
