package plume

// ParseStatus classifies the outcome of [Interp.Parse].
type ParseStatus int

const (
	// ParseOK indicates the script is syntactically complete.
	ParseOK ParseStatus = iota

	// ParseIncomplete indicates the script ends inside an unclosed
	// brace, bracket or quote, or on a dangling backslash.
	ParseIncomplete
)

// ParseResult holds the result of parsing a script.
type ParseResult struct {
	Status ParseStatus
}

// Parse checks whether a script is syntactically complete, without
// evaluating anything.
//
// The evaluator itself tolerates unterminated constructs and takes the
// best token it can, so Parse exists for hosts that want strictness,
// typically a REPL deciding between dispatching a line and prompting for
// more input.
//
//	pr := interp.Parse("set x {")
//	if pr.Status == plume.ParseIncomplete {
//	    // prompt for another line
//	}
func (i *Interp) Parse(script string) ParseResult {
	lex := newLexer(script)
	for lex.next() != tokEOF {
	}
	if lex.truncated || lex.insideQuote {
		return ParseResult{Status: ParseIncomplete}
	}
	return ParseResult{Status: ParseOK}
}
