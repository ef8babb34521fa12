// Package plume provides an embeddable Tcl-style command language for Go
// applications.
//
// # Overview
//
// plume is a deliberately small interpreter in the picol tradition: every
// value is a string, every construct is a command, and the whole language
// fits in a handful of substitution rules. It provides:
//
//   - A clean, idiomatic Go API around a string-only core
//   - Variables, arrays, procedures and the classic control commands
//   - Automatic conversion when registering plain Go functions
//   - Host-defined commands with opaque private data
//
// # Quick Start
//
//	import "github.com/plume-lang/plume"
//
//	func main() {
//	    interp := plume.New()
//	    defer interp.Close()
//
//	    // Evaluate scripts
//	    result, _ := interp.Eval("set x 10; + $x 5")
//	    fmt.Println(result.String()) // "15"
//
//	    // Set and get variables
//	    interp.SetVar("name", "World")
//	    result, _ = interp.Eval(`puts "Hello, $name"`)
//
//	    // Register Go functions
//	    interp.Register("double", func(x int) int { return x * 2 })
//	    result, _ = interp.Eval("double 21") // "42"
//	}
//
// # The Language
//
// A script is a sequence of commands separated by newlines or semicolons.
// Each command is a sequence of words; the first word names the command.
// Three substitutions build words:
//
//   - $name and $name(key) substitute a variable or array entry
//   - [script] evaluates a nested script and substitutes its result
//   - {text} and "text" quote; braces suppress all substitution
//
// Arithmetic is spelled as commands, not expressions:
//
//	set total [+ [* $n 3] 1]
//	if {<= $n 1} { return 1 }
//	while {< $i 10} { set i [+ $i 1] }
//
// Procedures close over nothing; each call gets a fresh frame:
//
//	proc fact {n} {
//	    if {<= $n 1} { return 1 } { return [* $n [fact [- $n 1]]] }
//	}
//
// # Registering Commands
//
// The low-level form takes the full argument vector and returns a
// [Result]:
//
//	interp.RegisterCommand("greet", func(in *plume.Interp, args []string, data any) plume.Result {
//	    if len(args) != 2 {
//	        return plume.Errorf("Wrong number of args for %s", args[0])
//	    }
//	    return plume.OK("Hello, " + args[1])
//	}, nil)
//
// [Interp.Register] accepts any Go function and converts arguments and
// return values automatically:
//
//	interp.Register("divide", func(a, b int) (int, error) {
//	    if b == 0 {
//	        return 0, errors.New("division by zero")
//	    }
//	    return a / b, nil
//	})
//
//	interp.Register("sum", func(nums ...int) int {
//	    total := 0
//	    for _, n := range nums {
//	        total += n
//	    }
//	    return total
//	})
//
// # Value Interface
//
// Successful evaluations return a [Value] with typed accessors over the
// underlying string:
//
//	result, _ := interp.Eval("set items {a {b c} d}")
//	str := result.String()   // "a {b c} d"
//	list, _ := result.List() // three elements: "a", "b c", "d"
//
// # Statuses
//
// Every dispatch produces exactly one [Status]: OK, Error, Return, Break
// or Continue. The last three ride the same channel errors do: return
// unwinds to the procedure boundary, break and continue to the nearest
// while loop. [Interp.Eval] folds non-OK statuses into errors; hosts that
// drive the interpreter themselves can use [Interp.EvalScript] and branch
// on the raw status.
package plume
