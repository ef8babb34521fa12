package plume

import "fmt"

// Status is the outcome of evaluating a script or dispatching a command.
//
// The set is closed: every dispatch and every evaluation yields exactly one
// of these five values. Break, Continue and Return travel through the
// evaluator like errors do, until a while loop or a procedure boundary
// consumes them.
type Status int

const (
	// StatusOK is normal success; the result may be empty or a value.
	StatusOK Status = iota

	// StatusError means the result holds an error message. Evaluation
	// unwinds immediately through every level of recursion.
	StatusError

	// StatusReturn is raised by the return command. The procedure
	// trampoline remaps it to StatusOK at the procedure boundary.
	StatusReturn

	// StatusBreak is raised by break and consumed by the nearest
	// enclosing while.
	StatusBreak

	// StatusContinue is raised by continue and consumed by the nearest
	// enclosing while.
	StatusContinue
)

// String returns the conventional name of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusReturn:
		return "return"
	case StatusBreak:
		return "break"
	case StatusContinue:
		return "continue"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is what a command produces: a status code plus the string the
// dispatcher installs as the interpreter result (a value for StatusOK, a
// message for StatusError).
//
// Create results using [OK], [Error], [Errorf], [Return], [Break] or
// [Continue].
type Result struct {
	code Status
	val  string
}

// OK returns a successful result with a value.
//
// The value is converted to its script string form:
//   - string is used as-is
//   - int, int64 are formatted in decimal
//   - bool becomes "1" or "0"
//   - slices and maps become list strings with braced elements
//   - anything else goes through fmt.Sprintf("%v", ...)
//
//	return plume.OK("done")
//	return plume.OK(42)
func OK(v any) Result {
	return Result{code: StatusOK, val: scriptString(v)}
}

// Error returns an error result with a message.
//
//	return plume.Error("something went wrong")
func Error(msg string) Result {
	return Result{code: StatusError, val: msg}
}

// Errorf returns a formatted error result.
//
//	return plume.Errorf("expected %d args, got %d", want, got)
func Errorf(format string, args ...any) Result {
	return Result{code: StatusError, val: fmt.Sprintf(format, args...)}
}

// Return returns a result with status StatusReturn carrying a value.
// Useful for host commands that implement early-exit semantics.
func Return(v string) Result {
	return Result{code: StatusReturn, val: v}
}

// Break returns the result raised by the break command.
func Break() Result {
	return Result{code: StatusBreak}
}

// Continue returns the result raised by the continue command.
func Continue() Result {
	return Result{code: StatusContinue}
}

// EvalError is the error returned by [Interp.Eval] and [Interp.Call] when a
// script fails.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string {
	return e.Message
}
