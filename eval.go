package plume

import "strings"

// eval drives the lexer over a script, assembling words, substituting
// variables and bracketed commands, and dispatching each completed
// argument vector. Command substitution and procedure bodies re-enter it
// recursively.
//
// Word assembly follows the previous token kind: after a separator or an
// end-of-line the next token opens a new word, otherwise it is appended
// to the last one. That single rule is what makes $a(x)$a(y) one word and
// `puts hi` two.
func (i *Interp) eval(script string) Status {
	i.result = ""
	i.status = StatusOK
	lex := newLexer(script)
	prev := tokEOL
	var argv []string
	for {
		kind := lex.next()
		if kind == tokEOF {
			break
		}
		text := lex.token()
		switch kind {
		case tokVariable:
			v, ok := i.getVar(text)
			if !ok {
				return i.apply(Errorf("No such variable '%s'", text))
			}
			text = v
		case tokCommand:
			if st := i.eval(text); st != StatusOK {
				return st
			}
			text = i.result
		case tokSeparator:
			prev = kind
			continue
		case tokEOL:
			if len(argv) > 0 {
				if st := i.dispatch(argv); st != StatusOK {
					return st
				}
			}
			argv = argv[:0]
			prev = kind
			continue
		}
		// escape and string tokens pass through unmodified
		if prev == tokSeparator || prev == tokEOL {
			argv = append(argv, text)
		} else {
			argv[len(argv)-1] += text
		}
		prev = kind
	}
	return StatusOK
}

// dispatch resolves argv[0] and invokes the command. The command's Result
// becomes the interpreter result and status. An unresolved name goes to
// the unknown handler when one is set.
func (i *Interp) dispatch(argv []string) Status {
	c, ok := i.commands[argv[0]]
	if !ok && i.unknown == nil {
		return i.apply(Errorf("No such command '%s'", argv[0]))
	}
	prev := i.current
	i.current = argv[0]
	defer func() { i.current = prev }()
	if !ok {
		return i.apply(i.unknown(i, argv, nil))
	}
	if c.proc != nil {
		return i.callProc(c, argv)
	}
	return i.apply(c.fn(i, argv, c.data))
}

// callProc is the trampoline for scripted commands: push a frame, bind
// the parameters positionally, evaluate the body, remap Return to OK at
// the boundary, pop the frame on every path.
func (i *Interp) callProc(c *Command, argv []string) Status {
	i.frames = append(i.frames, &callFrame{command: argv[0]})
	params := splitParams(c.proc.params)
	if len(params) != len(argv)-1 {
		i.popFrame()
		return i.apply(Errorf("Proc '%s' called with wrong arg num", argv[0]))
	}
	for n, p := range params {
		i.setVar(p, argv[n+1])
	}
	st := i.eval(c.proc.body)
	if st == StatusReturn {
		st = StatusOK
	}
	i.status = st
	i.popFrame()
	return st
}

func (i *Interp) popFrame() {
	i.frames = i.frames[:len(i.frames)-1]
}

// splitParams splits a proc parameter list on spaces, skipping runs.
func splitParams(list string) []string {
	var params []string
	for _, p := range strings.Split(list, " ") {
		if p != "" {
			params = append(params, p)
		}
	}
	return params
}
