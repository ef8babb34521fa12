package plume_test

import (
	"fmt"
	"strings"

	"github.com/plume-lang/plume"
)

// This example runs a small script end to end: define a procedure,
// recurse, and read the final result back in Go.
func Example() {
	interp := plume.New()
	defer interp.Close()

	result, err := interp.Eval(`
		proc fact {n} {
			if {<= $n 1} {return 1}
			return [* $n [fact [- $n 1]]]
		}
		fact 6
	`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(result.String())
	// Output: 720
}

// Register wraps an ordinary Go function as a command. Arguments are
// converted from their string forms to the parameter types, and a
// conversion failure surfaces as a script error.
func ExampleInterp_Register() {
	interp := plume.New()
	defer interp.Close()

	interp.Register("repeat", func(s string, n int) string {
		return strings.Repeat(s, n)
	})

	result, _ := interp.Eval("repeat ab 3")
	fmt.Println(result.String())

	_, err := interp.Eval("repeat ab many")
	fmt.Println(err)

	// Output:
	// ababab
	// argument 2: expected integer but got "many"
}

// RegisterCommand is the low-level form: the command receives the raw
// argument vector with the command name in args[0], plus an optional
// data payload bound at registration time.
func ExampleInterp_RegisterCommand() {
	interp := plume.New()
	defer interp.Close()

	greetings := map[string]string{"en": "hello", "fr": "bonjour"}
	interp.RegisterCommand("greet", func(i *plume.Interp, args []string, data any) plume.Result {
		if len(args) != 2 {
			return plume.Errorf("Wrong number of args for %s", args[0])
		}
		table := data.(map[string]string)
		g, ok := table[args[1]]
		if !ok {
			return plume.Errorf("no greeting for '%s'", args[1])
		}
		return plume.OK(g)
	}, greetings)

	result, _ := interp.Eval("greet fr")
	fmt.Println(result.String())
	// Output: bonjour
}

// Call invokes a command with pre-split arguments. There is no parsing
// pass, so brackets and dollar signs arrive at the command untouched.
func ExampleInterp_Call() {
	interp := plume.New()
	defer interp.Close()

	result, _ := interp.Call("set", "path", "$HOME/[draft]")
	fmt.Println(result.String())
	// Output: $HOME/[draft]
}

// Host code can seed variables before a script runs and read them back
// after it finishes.
func ExampleInterp_SetVar() {
	interp := plume.New()
	defer interp.Close()

	interp.SetVar("threshold", 10)
	interp.Eval(`
		if {> $threshold 5} {set verdict high} {set verdict low}
	`)
	verdict, _ := interp.Var("verdict")
	fmt.Println(verdict)
	// Output: high
}

// The unknown handler intercepts names that resolve to no command,
// which is the hook for dynamic dispatch or friendlier errors.
func ExampleInterp_SetUnknownHandler() {
	interp := plume.New()
	defer interp.Close()

	interp.SetUnknownHandler(func(i *plume.Interp, args []string, data any) plume.Result {
		return plume.OK("unknown: " + args[0])
	})

	result, _ := interp.Eval("flurble 1 2")
	fmt.Println(result.String())
	// Output: unknown: flurble
}

// puts writes to the interpreter's output writer, which defaults to
// standard output and can be redirected for capture.
func ExampleInterp_SetOutput() {
	interp := plume.New()
	defer interp.Close()

	var buf strings.Builder
	interp.SetOutput(&buf)
	interp.Eval(`puts "written to the buffer"`)
	fmt.Print(buf.String())
	// Output: written to the buffer
}

// List quotes each item so the result splits back into the same
// elements, even when items contain spaces or are empty.
func ExampleList() {
	fmt.Println(plume.List("alpha", "two words", ""))
	// Output: alpha {two words} {}
}
