package plume

import (
	"fmt"
	"strconv"
)

// registerCore installs the built-in command set into a fresh interpreter.
func (i *Interp) registerCore() {
	for _, op := range []string{"+", "-", "*", "/", ">", ">=", "<", "<=", "==", "!="} {
		i.mustRegister(op, cmdMath)
	}
	i.mustRegister("set", cmdSet)
	i.mustRegister("puts", cmdPuts)
	i.mustRegister("if", cmdIf)
	i.mustRegister("while", cmdWhile)
	i.mustRegister("break", cmdBreak)
	i.mustRegister("continue", cmdContinue)
	i.mustRegister("proc", cmdProc)
	i.mustRegister("return", cmdReturn)
}

func arityErr(name string) Result {
	return Errorf("Wrong number of args for %s", name)
}

// atoi parses an optional sign and leading decimal digit run after
// skipping whitespace, like C atoi. Anything unparsable is 0.
func atoi(s string) int64 {
	p := 0
	for p < len(s) && (s[p] == ' ' || s[p] == '\t' || s[p] == '\n' || s[p] == '\r') {
		p++
	}
	neg := false
	if p < len(s) && (s[p] == '+' || s[p] == '-') {
		neg = s[p] == '-'
		p++
	}
	var n int64
	for p < len(s) && s[p] >= '0' && s[p] <= '9' {
		n = n*10 + int64(s[p]-'0')
		p++
	}
	if neg {
		return -n
	}
	return n
}

// truthy applies the language's condition rule: the integer parse of the
// string is compared against zero.
func truthy(s string) bool {
	return atoi(s) != 0
}

func btoi(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// cmdMath implements the ten arithmetic and comparison commands. The
// operator is the command name itself.
func cmdMath(in *Interp, args []string, _ any) Result {
	if len(args) != 3 {
		return arityErr(args[0])
	}
	a, b := atoi(args[1]), atoi(args[2])
	var c int64
	switch args[0] {
	case "+":
		c = a + b
	case "-":
		c = a - b
	case "*":
		c = a * b
	case "/":
		if b == 0 {
			return Error("Division by zero")
		}
		c = a / b
	case ">":
		c = btoi(a > b)
	case ">=":
		c = btoi(a >= b)
	case "<":
		c = btoi(a < b)
	case "<=":
		c = btoi(a <= b)
	case "==":
		c = btoi(a == b)
	case "!=":
		c = btoi(a != b)
	}
	return OK(strconv.FormatInt(c, 10))
}

func cmdSet(in *Interp, args []string, _ any) Result {
	if len(args) != 3 {
		return arityErr(args[0])
	}
	in.setVar(args[1], args[2])
	return OK(args[2])
}

func cmdPuts(in *Interp, args []string, _ any) Result {
	if len(args) != 2 {
		return arityErr(args[0])
	}
	fmt.Fprintln(in.out, args[1])
	return OK("")
}

// cmdIf evaluates its condition as a script and runs the then body when
// the result parses as non-zero. The else body, when present, is the last
// argument: `if cond then else` and `if cond then else-word else` are both
// accepted, the noise word before the final body never being inspected.
func cmdIf(in *Interp, args []string, _ any) Result {
	if len(args) < 3 || len(args) > 5 {
		return arityErr(args[0])
	}
	if st := in.eval(args[1]); st != StatusOK {
		return in.pass(st)
	}
	if truthy(in.result) {
		return in.pass(in.eval(args[2]))
	}
	if len(args) > 3 {
		return in.pass(in.eval(args[len(args)-1]))
	}
	return in.pass(StatusOK)
}

// cmdWhile re-evaluates its condition script before every iteration.
// Break exits the loop with an empty result; Continue moves to the next
// condition check; Error and Return propagate to the caller.
func cmdWhile(in *Interp, args []string, _ any) Result {
	if len(args) != 3 {
		return arityErr(args[0])
	}
	for {
		if st := in.eval(args[1]); st != StatusOK {
			return in.pass(st)
		}
		if !truthy(in.result) {
			return OK("")
		}
		switch st := in.eval(args[2]); st {
		case StatusOK, StatusContinue:
		case StatusBreak:
			return OK("")
		default:
			return in.pass(st)
		}
	}
}

func cmdBreak(in *Interp, args []string, _ any) Result {
	if len(args) != 1 {
		return arityErr(args[0])
	}
	return Break()
}

func cmdContinue(in *Interp, args []string, _ any) Result {
	if len(args) != 1 {
		return arityErr(args[0])
	}
	return Continue()
}

func cmdProc(in *Interp, args []string, _ any) Result {
	if len(args) != 4 {
		return arityErr(args[0])
	}
	c := &Command{name: args[1], proc: &procedure{params: args[2], body: args[3]}}
	if err := in.addCommand(c); err != nil {
		return in.pass(StatusError)
	}
	return OK("")
}

func cmdReturn(in *Interp, args []string, _ any) Result {
	if len(args) != 1 && len(args) != 2 {
		return arityErr(args[0])
	}
	if len(args) == 2 {
		return Return(args[1])
	}
	return Return("")
}
