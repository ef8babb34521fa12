package plume

import "strings"

// tokenKind classifies one lexer step.
type tokenKind int

const (
	tokEscape    tokenKind = iota // word run; escape processing may apply
	tokString                     // brace-quoted literal; no substitution
	tokCommand                    // bracketed script for command substitution
	tokVariable                   // variable name after $
	tokSeparator                  // run of blanks between words
	tokEOL                        // end of command: newlines and semicolons
	tokEOF                        // end of input
)

// lexer steps through script text one token at a time. Tokens are
// (start, end, kind) views into the immutable source; the lexer never
// allocates. A final end-of-line token is synthesized at end of input so
// the last command always dispatches.
type lexer struct {
	text        string
	pos         int
	start, end  int // current token bounds, end exclusive
	kind        tokenKind
	insideQuote bool
	truncated   bool // input ended inside a brace, bracket or escape
}

func newLexer(text string) *lexer {
	return &lexer{text: text, kind: tokEOL}
}

// token returns the text of the current token.
func (l *lexer) token() string {
	return l.text[l.start:l.end]
}

// next advances to the next token and returns its kind.
func (l *lexer) next() tokenKind {
	for {
		if l.pos >= len(l.text) {
			if l.kind != tokEOL && l.kind != tokEOF {
				l.kind = tokEOL
			} else {
				l.kind = tokEOF
			}
			l.start, l.end = l.pos, l.pos
			return l.kind
		}
		switch l.text[l.pos] {
		case ' ', '\t', '\r':
			if l.insideQuote {
				return l.scanString()
			}
			return l.scanSeparator()
		case '\n', ';':
			if l.insideQuote {
				return l.scanString()
			}
			return l.scanEOL()
		case '[':
			return l.scanCommand()
		case '$':
			return l.scanVariable()
		case '#':
			// a comment only opens at the start of a command
			if l.kind == tokEOL {
				l.skipComment()
				continue
			}
			return l.scanString()
		default:
			return l.scanString()
		}
	}
}

func (l *lexer) scanSeparator() tokenKind {
	l.start = l.pos
	for l.pos < len(l.text) && isBlank(l.text[l.pos]) {
		l.pos++
	}
	l.end = l.pos
	l.kind = tokSeparator
	return l.kind
}

func (l *lexer) scanEOL() tokenKind {
	l.start = l.pos
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c != '\n' && c != ';' && !isBlank(c) {
			break
		}
		l.pos++
	}
	l.end = l.pos
	l.kind = tokEOL
	return l.kind
}

// scanCommand consumes a bracketed script. Bracket depth is tracked only
// while the brace depth is zero; a backslash escapes the next byte. An
// unterminated bracket yields the rest of the text as a best-effort token.
func (l *lexer) scanCommand() tokenKind {
	l.pos++ // skip [
	l.start = l.pos
	level, braces := 1, 0
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == '[' && braces == 0 {
			level++
		} else if c == ']' && braces == 0 {
			level--
			if level == 0 {
				break
			}
		} else if c == '\\' && l.pos+1 < len(l.text) {
			l.pos++
		} else if c == '{' {
			braces++
		} else if c == '}' && braces > 0 {
			braces--
		}
		l.pos++
	}
	l.end = l.pos
	l.kind = tokCommand
	if l.pos < len(l.text) && l.text[l.pos] == ']' {
		l.pos++
	} else {
		l.truncated = true
	}
	return l.kind
}

// scanVariable consumes $name or $name(key). A $ with no name bytes after
// it degenerates into a one-byte string literal.
func (l *lexer) scanVariable() tokenKind {
	dollar := l.pos
	l.pos++ // skip $
	l.start = l.pos
	for l.pos < len(l.text) && isNameByte(l.text[l.pos]) {
		l.pos++
	}
	if l.pos == l.start {
		l.start, l.end = dollar, dollar+1
		l.kind = tokString
		return l.kind
	}
	if l.pos < len(l.text) && l.text[l.pos] == '(' {
		if close := strings.IndexByte(l.text[l.pos:], ')'); close >= 0 {
			l.pos += close + 1
		}
	}
	l.end = l.pos
	l.kind = tokVariable
	return l.kind
}

// scanBrace consumes a brace-quoted literal up to the matching close brace.
// Backslash escapes consume two bytes together. An unterminated brace
// yields the rest of the text.
func (l *lexer) scanBrace() tokenKind {
	l.pos++ // skip {
	l.start = l.pos
	level := 1
	for {
		if l.pos+1 < len(l.text) && l.text[l.pos] == '\\' {
			l.pos += 2
			continue
		}
		if l.pos >= len(l.text) {
			l.end = l.pos
			l.kind = tokString
			l.truncated = true
			return l.kind
		}
		switch l.text[l.pos] {
		case '}':
			level--
			if level == 0 {
				l.end = l.pos
				l.pos++ // skip final close brace
				l.kind = tokString
				return l.kind
			}
		case '{':
			level++
		}
		l.pos++
	}
}

// scanString consumes an unquoted word chunk or, at the start of a word, a
// brace- or double-quoted string. Inside double quotes only $, [, \ and
// the closing quote are structural.
func (l *lexer) scanString() tokenKind {
	newWord := l.kind == tokSeparator || l.kind == tokEOL || l.kind == tokString
	if newWord && l.text[l.pos] == '{' {
		return l.scanBrace()
	}
	if newWord && l.text[l.pos] == '"' {
		l.insideQuote = true
		l.pos++
	}
	l.start = l.pos
	for {
		if l.pos >= len(l.text) {
			l.end = l.pos
			l.kind = tokEscape
			return l.kind
		}
		switch l.text[l.pos] {
		case '\\':
			if l.pos+1 < len(l.text) {
				l.pos++
			} else {
				l.truncated = true
			}
		case '$', '[':
			l.end = l.pos
			l.kind = tokEscape
			return l.kind
		case ' ', '\t', '\n', '\r', ';':
			if !l.insideQuote {
				l.end = l.pos
				l.kind = tokEscape
				return l.kind
			}
		case '"':
			if l.insideQuote {
				l.end = l.pos
				l.pos++ // skip closing quote
				l.insideQuote = false
				l.kind = tokEscape
				return l.kind
			}
		}
		l.pos++
	}
}

func (l *lexer) skipComment() {
	for l.pos < len(l.text) && l.text[l.pos] != '\n' {
		l.pos++
	}
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
