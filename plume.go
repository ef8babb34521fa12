package plume

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// variable is one name/value binding on a call frame.
type variable struct {
	name  string
	value string
}

// callFrame holds the local variables of one procedure activation and
// remembers the command that pushed it. Lookup scans vars backward so the
// most recent binding of a name wins.
type callFrame struct {
	vars    []variable
	command string
}

// procedure is the private data of a scripted command: the parameter list
// and the body exactly as given to proc.
type procedure struct {
	params string
	body   string
}

// Command is one entry in the interpreter's command table. A native
// command carries a dispatch function and opaque host data; a scripted
// command carries its procedure definition and dispatches through the
// trampoline in eval.go.
type Command struct {
	name string
	fn   CommandFunc
	data any
	proc *procedure
}

// Name returns the name the command was registered under.
func (c *Command) Name() string { return c.name }

// IsProc reports whether the command is a scripted procedure.
func (c *Command) IsProc() bool { return c.proc != nil }

// Params returns the parameter list of a scripted command, or "" for a
// native command.
func (c *Command) Params() string {
	if c.proc == nil {
		return ""
	}
	return c.proc.params
}

// Body returns the body of a scripted command, or "" for a native command.
func (c *Command) Body() string {
	if c.proc == nil {
		return ""
	}
	return c.proc.body
}

// array is an interpreter-owned associative array. Keys keep insertion
// order so enumeration is stable.
type array struct {
	entries map[string]string
	order   []string
}

// CommandFunc is the signature for native commands registered with
// [Interp.RegisterCommand].
//
// The function receives:
//   - in: the interpreter (for variables, nested evaluation, output)
//   - args: the full argument vector; args[0] is the command name as invoked
//   - data: the opaque value supplied at registration
//
// Return a [Result] built with [OK], [Error], [Errorf], [Return], [Break]
// or [Continue]; the dispatcher installs its value as the interpreter
// result and its code as the status.
type CommandFunc func(in *Interp, args []string, data any) Result

// Interp is a command-language interpreter instance.
//
// An interpreter owns its command table, call-frame stack, arrays and
// result string. It is not safe for concurrent use; the host must
// serialize access.
type Interp struct {
	frames     []*callFrame
	commands   map[string]*Command
	arrays     map[string]*array
	arrayOrder []string
	result     string
	status     Status
	current    string
	unknown    CommandFunc
	out        io.Writer
}

// New creates a new interpreter with the core command set registered and
// a single root call frame.
//
//	interp := plume.New()
//	defer interp.Close()
func New() *Interp {
	i := &Interp{
		frames:   []*callFrame{{}},
		commands: make(map[string]*Command),
		arrays:   make(map[string]*array),
		out:      os.Stdout,
	}
	i.registerCore()
	return i
}

// Close releases the interpreter's frames, commands and arrays.
//
// After Close is called the interpreter is invalid and must not be used.
func (i *Interp) Close() {
	i.frames = nil
	i.commands = nil
	i.arrays = nil
	i.arrayOrder = nil
	i.result = ""
	i.status = StatusOK
	i.current = ""
	i.unknown = nil
}

// frame returns the current (innermost) call frame.
func (i *Interp) frame() *callFrame {
	return i.frames[len(i.frames)-1]
}

// -----------------------------------------------------------------------------
// Evaluation
// -----------------------------------------------------------------------------

// EvalScript runs a script and returns the raw status. The result string
// is available from [Interp.Result] afterwards.
//
// Unlike [Interp.Eval] the status is not folded into an error, so Break,
// Continue and Return escaping the script are visible to the caller. Hosts
// embedding the interpreter in a loop of their own need this form.
func (i *Interp) EvalScript(script string) Status {
	return i.eval(script)
}

// Eval runs a script and returns its result.
//
// A StatusError outcome becomes an *[EvalError] carrying the message.
// Break or Continue escaping the script are reported as errors; Return at
// the top level is treated as success.
//
//	result, err := interp.Eval("set x 10; + $x 5")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.String()) // 15
func (i *Interp) Eval(script string) (Value, error) {
	return i.outcome(i.eval(script))
}

// Call invokes a single command with the given arguments, bypassing the
// parser.
//
// Unlike building a command string for [Interp.Eval], the arguments are
// passed through as-is, so values containing structural bytes (unbalanced
// braces, $, [, ...) need no escaping.
//
//	result, err := interp.Call("set", "greeting", "hello { world")
func (i *Interp) Call(name string, args ...string) (Value, error) {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, name)
	argv = append(argv, args...)
	return i.outcome(i.dispatch(argv))
}

// outcome folds a raw status into the (Value, error) shape of the public
// evaluation methods.
func (i *Interp) outcome(st Status) (Value, error) {
	switch st {
	case StatusError:
		return nil, &EvalError{Message: i.result}
	case StatusBreak:
		return nil, &EvalError{Message: `invoked "break" outside of a loop`}
	case StatusContinue:
		return nil, &EvalError{Message: `invoked "continue" outside of a loop`}
	}
	return stringValue(i.result), nil
}

// -----------------------------------------------------------------------------
// Result and interpreter state
// -----------------------------------------------------------------------------

// Result returns the current result string. It holds the value of the
// last completed command, or the error message after a failure.
func (i *Interp) Result() string {
	return i.result
}

// SetResult replaces the result string. Native commands normally return
// their value through [OK] instead; SetResult is for hosts that mirror
// the low-level calling convention.
func (i *Interp) SetResult(s string) {
	i.result = s
}

// Status returns the status code of the most recent dispatch or
// evaluation.
func (i *Interp) Status() Status {
	return i.status
}

// Level returns the current procedure nesting depth. The root frame is
// level 0.
func (i *Interp) Level() int {
	return len(i.frames) - 1
}

// CurrentCommand returns the name of the command being dispatched, or ""
// outside of a dispatch.
func (i *Interp) CurrentCommand() string {
	return i.current
}

// SetOutput redirects the output of puts. The default is os.Stdout.
func (i *Interp) SetOutput(w io.Writer) {
	i.out = w
}

// apply installs a command's Result as the interpreter result and status.
func (i *Interp) apply(r Result) Status {
	i.result = r.val
	i.status = r.code
	return r.code
}

// pass wraps the current result with a status, for built-ins that forward
// a nested evaluation's outcome unchanged.
func (i *Interp) pass(st Status) Result {
	return Result{code: st, val: i.result}
}

// -----------------------------------------------------------------------------
// Variables
// -----------------------------------------------------------------------------

// Var returns the value of a variable in the current frame. A name of
// the form "name(key)" reads the corresponding array entry.
func (i *Interp) Var(name string) (string, bool) {
	return i.getVar(name)
}

// SetVar defines or overwrites a variable in the current frame. A name of
// the form "name(key)" writes the corresponding array entry instead.
//
// The value is converted to its script string form with the same rules
// as [OK].
//
//	interp.SetVar("name", "Alice")
//	interp.SetVar("count", 42)
func (i *Interp) SetVar(name string, value any) {
	i.setVar(name, scriptString(value))
}

// SetVars sets multiple variables at once from a map.
//
//	interp.SetVars(map[string]any{"x": 1, "y": 2})
func (i *Interp) SetVars(vars map[string]any) {
	for name, value := range vars {
		i.setVar(name, scriptString(value))
	}
}

// GetVars returns multiple variables as a map. Absent names map to the
// empty string.
func (i *Interp) GetVars(names ...string) map[string]string {
	result := make(map[string]string, len(names))
	for _, name := range names {
		v, _ := i.getVar(name)
		result[name] = v
	}
	return result
}

func (i *Interp) setVar(name, value string) {
	if arr, key, ok := splitArrayName(name); ok {
		i.setArrayEntry(arr, key, value)
		return
	}
	f := i.frame()
	for n := len(f.vars) - 1; n >= 0; n-- {
		if f.vars[n].name == name {
			f.vars[n].value = value
			return
		}
	}
	f.vars = append(f.vars, variable{name: name, value: value})
}

func (i *Interp) getVar(name string) (string, bool) {
	if arr, key, ok := splitArrayName(name); ok {
		return i.arrayEntry(arr, key)
	}
	f := i.frame()
	for n := len(f.vars) - 1; n >= 0; n-- {
		if f.vars[n].name == name {
			return f.vars[n].value, true
		}
	}
	return "", false
}

// splitArrayName recognizes the composed "name(key)" form. The name part
// must be non-empty; the key may be empty.
func splitArrayName(name string) (arr, key string, ok bool) {
	open := strings.IndexByte(name, '(')
	if open <= 0 || name[len(name)-1] != ')' {
		return "", "", false
	}
	return name[:open], name[open+1 : len(name)-1], true
}

// -----------------------------------------------------------------------------
// Arrays
// -----------------------------------------------------------------------------

// SetArrayVar sets entry key of the named array, creating the array on
// first use. Equivalent to SetVar("name(key)", value).
func (i *Interp) SetArrayVar(name, key, value string) {
	i.setArrayEntry(name, key, value)
}

// ArrayVar returns entry key of the named array.
func (i *Interp) ArrayVar(name, key string) (string, bool) {
	return i.arrayEntry(name, key)
}

// ArrayNames returns the names of all arrays in creation order.
func (i *Interp) ArrayNames() []string {
	names := make([]string, len(i.arrayOrder))
	copy(names, i.arrayOrder)
	return names
}

// ArrayKeys returns the keys of the named array in insertion order, or
// nil if the array does not exist.
func (i *Interp) ArrayKeys(name string) []string {
	a := i.arrays[name]
	if a == nil {
		return nil
	}
	keys := make([]string, len(a.order))
	copy(keys, a.order)
	return keys
}

func (i *Interp) setArrayEntry(name, key, value string) {
	a := i.arrays[name]
	if a == nil {
		a = &array{entries: make(map[string]string)}
		i.arrays[name] = a
		i.arrayOrder = append(i.arrayOrder, name)
	}
	if _, ok := a.entries[key]; !ok {
		a.order = append(a.order, key)
	}
	a.entries[key] = value
}

func (i *Interp) arrayEntry(name, key string) (string, bool) {
	a := i.arrays[name]
	if a == nil {
		return "", false
	}
	v, ok := a.entries[key]
	return v, ok
}

// -----------------------------------------------------------------------------
// Command registration
// -----------------------------------------------------------------------------

// RegisterCommand adds a native command. data is handed back to fn on
// every dispatch; pass nil if the command needs none.
//
// Registration fails if the name is already taken; the error message is
// also installed as the interpreter result.
//
//	interp.RegisterCommand("greet", func(in *plume.Interp, args []string, data any) plume.Result {
//	    if len(args) != 2 {
//	        return plume.Errorf("Wrong number of args for %s", args[0])
//	    }
//	    return plume.OK("Hello, " + args[1])
//	}, nil)
func (i *Interp) RegisterCommand(name string, fn CommandFunc, data any) error {
	return i.addCommand(&Command{name: name, fn: fn, data: data})
}

// UnregisterCommand removes a command. Scripted commands drop their
// procedure definition with them.
func (i *Interp) UnregisterCommand(name string) error {
	if _, ok := i.commands[name]; !ok {
		i.apply(Error("No such command"))
		return &EvalError{Message: i.result}
	}
	delete(i.commands, name)
	return nil
}

// Command returns the registered command with the given name.
func (i *Interp) Command(name string) (*Command, bool) {
	c, ok := i.commands[name]
	return c, ok
}

// Commands returns the names of all registered commands, sorted.
func (i *Interp) Commands() []string {
	names := make([]string, 0, len(i.commands))
	for name := range i.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a command with automatic argument conversion.
//
// The function's signature determines how script arguments are converted:
//   - string parameters receive the argument as-is
//   - int and int64 parameters parse the argument as an integer
//   - bool parameters accept 1/0, true/false, yes/no, on/off
//   - []string parameters parse the argument as a list
//   - variadic parameters consume the remaining arguments one by one
//
// Return values are converted back with the rules of [OK]; a trailing
// error return causes the command to fail with the error message.
//
//	interp.Register("repeat", func(s string, n int) string {
//	    return strings.Repeat(s, n)
//	})
//
// Register panics if fn is not a function. Like [Interp.RegisterCommand]
// it fails if the name is already taken.
func (i *Interp) Register(name string, fn any) error {
	return i.RegisterCommand(name, wrapFunc(fn), nil)
}

// SetUnknownHandler sets a handler invoked when command dispatch does not
// find the name. The handler receives the full argument vector with the
// unknown name in args[0] and its Result stands in for the dispatch.
//
// Set to nil to restore the default behavior, a "No such command" error.
func (i *Interp) SetUnknownHandler(fn CommandFunc) {
	i.unknown = fn
}

func (i *Interp) addCommand(c *Command) error {
	if _, ok := i.commands[c.name]; ok {
		i.apply(Errorf("Command '%s' already defined", c.name))
		return &EvalError{Message: i.result}
	}
	i.commands[c.name] = c
	return nil
}

func (i *Interp) mustRegister(name string, fn CommandFunc) {
	if err := i.RegisterCommand(name, fn, nil); err != nil {
		panic(fmt.Sprintf("plume: registering core command %q: %v", name, err))
	}
}
