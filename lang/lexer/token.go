// Package lexer splits the code of one embedded template expression into
// tokens. It recognizes just enough structure (strings, template literals,
// comments, regular expressions, punctuation) to find the free identifiers
// an expression refers to and to strip or rewrite leading sigils. It never
// validates syntax: every input produces a token stream.
package lexer

import "strings"

// Kind classifies a [Token].
type Kind int

const (
	Whitespace Kind = iota
	Identifier
	Number
	Punctuator
	String
	Template
	Regex
	Comment
)

var kindName = [...]string{
	Whitespace: "whitespace",
	Identifier: "identifier",
	Number:     "number",
	Punctuator: "punctuator",
	String:     "string",
	Template:   "template",
	Regex:      "regex",
	Comment:    "comment",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "unknown"
}

// Token is one lexeme. Offset is the byte offset of Text in the lexed code.
// Template literals are split at interpolations: "`a ${", the code tokens
// inside, then "} b`".
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// Is reports whether t has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsPunct reports whether t is the punctuator text.
func (t Token) IsPunct(text string) bool { return t.Is(Punctuator, text) }

// Significant reports whether t is neither whitespace nor a comment.
func (t Token) Significant() bool {
	return t.Kind != Whitespace && t.Kind != Comment
}

// Significant returns the tokens that are neither whitespace nor comments.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))

	for _, t := range tokens {
		if t.Significant() {
			out = append(out, t)
		}
	}

	return out
}

// Trim removes leading and trailing whitespace and comment tokens.
func Trim(tokens []Token) []Token {
	i, j := 0, len(tokens)
	for i < j && !tokens[i].Significant() {
		i++
	}

	for j > i && !tokens[j-1].Significant() {
		j--
	}

	return tokens[i:j]
}

// Join concatenates the text of tokens.
func Join(tokens []Token) string {
	var b strings.Builder

	for _, t := range tokens {
		b.WriteString(t.Text)
	}

	return b.String()
}

// Namespaces returns the free identifiers of tokens: identifiers that are
// not reserved words and not the property of a member access ("a" but not
// "b" in "a.b" or "a?.b"). Names are returned once each, in order of first
// occurrence.
func Namespaces(tokens []Token) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
		prev  Token
	)

	for _, t := range tokens {
		if !t.Significant() {
			continue
		}

		if t.Kind == Identifier && !IsKeyword(t.Text) &&
			!prev.IsPunct(".") && !prev.IsPunct("?.") {
			if _, ok := seen[t.Text]; !ok {
				seen[t.Text] = struct{}{}
				names = append(names, t.Text)
			}
		}

		prev = t
	}

	return names
}

// Operands returns the free identifiers of tokens that occur at least once
// other than as the callee of a call: "a" and "b" in "f(a) + b", but not
// "f". Order and duplicates follow [Namespaces].
func Operands(tokens []Token) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
		sig   = Significant(tokens)
	)

	for i, t := range sig {
		if t.Kind != Identifier || IsKeyword(t.Text) {
			continue
		}

		if i > 0 && (sig[i-1].IsPunct(".") || sig[i-1].IsPunct("?.")) {
			continue
		}

		if i+1 < len(sig) && sig[i+1].IsPunct("(") {
			continue
		}

		if _, ok := seen[t.Text]; !ok {
			seen[t.Text] = struct{}{}
			names = append(names, t.Text)
		}
	}

	return names
}
