package lexer

var keywords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// ECMAScript reserved words
		"break", "case", "catch", "class", "const", "continue", "debugger",
		"default", "delete", "do", "else", "enum", "export", "extends",
		"finally", "for", "function", "if", "import", "in", "instanceof",
		"new", "return", "super", "switch", "this", "throw", "try", "typeof",
		"var", "void", "while", "with", "yield", "await", "let", "static",
		"implements", "interface", "package", "private", "protected", "public",
		"arguments", "of",
		// literal words
		"true", "false", "null", "undefined", "NaN", "Infinity",
		// expression engine operator words
		"not", "and", "or", "matches", "contains", "startsWith", "endsWith",
		"nil",
	} {
		keywords[w] = struct{}{}
	}
}

// IsKeyword reports whether name is reserved and therefore never a free
// variable.
func IsKeyword(name string) bool {
	_, ok := keywords[name]

	return ok
}

// operandKeywords are keywords after which a "/" begins a regular
// expression rather than a division.
var operandKeywords = map[string]struct{}{
	"return": {}, "typeof": {}, "instanceof": {}, "in": {}, "of": {},
	"new": {}, "delete": {}, "void": {}, "throw": {}, "case": {}, "do": {},
	"else": {}, "yield": {}, "await": {}, "not": {}, "and": {}, "or": {},
}
