package lang

import "strings"

type nativeSyntax struct {
	open, close string
}

// Native returns the "<% %>" tag family with the given delimiters (empty
// strings select the defaults). Sigils: "=" escaped output, "-" raw output,
// "=#" raw output, "#" comment. A "-" just before the close delimiter is
// ignored. Remaining content is statement code, used verbatim.
func Native(open, close string) Syntax {
	if open == "" {
		open = "<%"
	}

	if close == "" {
		close = "%>"
	}

	return nativeSyntax{open: open, close: close}
}

func (nativeSyntax) Name() string { return "native" }

func (n nativeSyntax) Delims() (string, string) { return n.open, n.close }

func (nativeSyntax) Rewrite(seg *Segment) (Directive, error) {
	code := seg.Code

	if strings.HasSuffix(code, "-") && !strings.HasSuffix(code, "--") {
		code = code[:len(code)-1]
	}

	switch {
	case strings.HasPrefix(code, "#"):
		return Directive{Skip: true}, nil
	case strings.HasPrefix(code, "=#"):
		return Directive{Code: code[2:], Output: OutputRaw}, nil
	case strings.HasPrefix(code, "="):
		return Directive{Code: code[1:], Output: OutputEscaped}, nil
	case strings.HasPrefix(code, "-"):
		return Directive{Code: code[1:], Output: OutputRaw}, nil
	}

	return Directive{Code: code, Output: OutputNone}, nil
}
