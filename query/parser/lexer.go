package parser

import (
	"strings"

	"github.com/satishbabariya/sqlbridge/query/qerr"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokQuotedIdent
	tokNumber
	tokString
	tokOp
)

// token keeps source offsets so the parser can slice raw text back out of
// the input (CTE bodies, derived tables, window frames).
type token struct {
	kind  tokenKind
	text  string // unescaped value for quoted idents and strings
	start int
	end   int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// lex tokenizes the whole input up front. Identifier quoting accepts all
// three styles ("x", `x`, [x]) regardless of target dialect, with the usual
// doubling escapes.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < n && src[i+1] == '-':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, qerr.Parsef("unterminated block comment at offset %d", i)
			}
			i += 2 + end + 2
		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], start: start, end: i})
		case isDigit(c) || (c == '.' && i+1 < n && isDigit(src[i+1])):
			start := i
			for i < n && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			// exponent
			if i < n && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < n && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < n && isDigit(src[j]) {
					i = j
					for i < n && isDigit(src[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], start: start, end: i})
		case c == '\'':
			start := i
			i++
			var b strings.Builder
			for {
				if i >= n {
					return nil, qerr.Parsef("unterminated string literal at offset %d", start)
				}
				if src[i] == '\'' {
					if i+1 < n && src[i+1] == '\'' {
						b.WriteByte('\'')
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteByte(src[i])
				i++
			}
			toks = append(toks, token{kind: tokString, text: b.String(), start: start, end: i})
		case c == '"' || c == '`' || c == '[':
			closer := c
			if c == '[' {
				closer = ']'
			}
			start := i
			i++
			var b strings.Builder
			for {
				if i >= n {
					return nil, qerr.Parsef("unterminated quoted identifier at offset %d", start)
				}
				if src[i] == closer {
					if i+1 < n && src[i+1] == closer {
						b.WriteByte(closer)
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteByte(src[i])
				i++
			}
			toks = append(toks, token{kind: tokQuotedIdent, text: b.String(), start: start, end: i})
		default:
			start := i
			two := ""
			if i+1 < n {
				two = src[i : i+2]
			}
			switch two {
			case "<=", ">=", "<>", "!=", "||":
				toks = append(toks, token{kind: tokOp, text: two, start: start, end: i + 2})
				i += 2
				continue
			}
			switch c {
			case '=', '<', '>', '+', '-', '*', '/', '%', '(', ')', ',', '.', ';', '~':
				toks = append(toks, token{kind: tokOp, text: string(c), start: start, end: i + 1})
				i++
			default:
				return nil, qerr.Parsef("unexpected character %q at offset %d", string(c), i)
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, start: n, end: n})
	return toks, nil
}
