package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/plume-lang/plume"
	"github.com/plume-lang/plume/conf"
	"github.com/plume-lang/plume/remote"
)

// Shell owns one interpreter together with the host services its
// commands close over: the configuration store and the remote client.
type Shell struct {
	interp *plume.Interp
	conf   *conf.Config
	remote *remote.Client
	log    *slog.Logger
}

// NewShell builds an interpreter with the host command set registered.
func NewShell(cfg *conf.Config) *Shell {
	s := &Shell{
		interp: plume.New(),
		conf:   cfg,
		log:    slog.Default(),
	}
	s.remote = remote.NewClient(remote.Config{
		Endpoint:       cfg.Str("remote.endpoint", ""),
		ConnectTimeout: time.Duration(cfg.Int("remote.timeout_ms", 5000)) * time.Millisecond,
		MaxRetries:     cfg.Int("remote.max_retries", 3),
		ForceOffline:   cfg.Bool("remote.offline", false),
	})
	s.registerHostCommands()
	return s
}

// Close releases the interpreter.
func (s *Shell) Close() {
	s.remote.Disconnect()
	s.interp.Close()
}

func (s *Shell) registerHostCommands() {
	s.interp.RegisterCommand("source", s.cmdSource, nil)
	s.interp.RegisterCommand("help", s.cmdHelp, nil)
	s.interp.RegisterCommand("version", s.cmdVersion, nil)
	s.interp.RegisterCommand("conf", s.cmdConf, nil)
	s.interp.RegisterCommand("remote", s.cmdRemote, nil)
}

// helpText carries one usage line per host-visible command.
var helpText = map[string]string{
	"set":      "set name value",
	"puts":     "puts text",
	"if":       "if cond body ?else-body?",
	"while":    "while cond body",
	"break":    "break",
	"continue": "continue",
	"proc":     "proc name params body",
	"return":   "return ?value?",
	"source":   "source path",
	"help":     "help ?command?",
	"version":  "version",
	"conf":     "conf get|set|keys|save ...",
	"remote":   "remote connect|status|disconnect",
}

func helpFor(name string) string {
	return helpText[name]
}

// cmdSource evaluates a file as a script. The file's result becomes the
// command's result; a return in the file completes it normally.
func (s *Shell) cmdSource(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 2 {
		return plume.Errorf("Wrong number of args for %s", args[0])
	}
	text, err := os.ReadFile(args[1])
	if err != nil {
		return plume.Errorf("source: %v", err)
	}
	s.log.Debug("sourcing script", "path", args[1], "bytes", len(text))
	switch in.EvalScript(string(text)) {
	case plume.StatusError:
		return plume.Error(in.Result())
	case plume.StatusBreak:
		return plume.Break()
	case plume.StatusContinue:
		return plume.Continue()
	}
	return plume.OK(in.Result())
}

// cmdHelp lists command names, or shows the usage line of one command.
func (s *Shell) cmdHelp(in *plume.Interp, args []string, _ any) plume.Result {
	switch len(args) {
	case 1:
		return plume.OK(strings.Join(in.Commands(), " "))
	case 2:
		c, ok := in.Command(args[1])
		if !ok {
			return plume.Errorf("No such command '%s'", args[1])
		}
		if c.IsProc() {
			return plume.OK(fmt.Sprintf("proc %s {%s}", c.Name(), c.Params()))
		}
		if usage := helpFor(args[1]); usage != "" {
			return plume.OK(usage)
		}
		return plume.OK(args[1])
	}
	return plume.Errorf("Wrong number of args for %s", args[0])
}

func (s *Shell) cmdVersion(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 1 {
		return plume.Errorf("Wrong number of args for %s", args[0])
	}
	return plume.OK("plume " + s.conf.Str("system.version", version))
}

// cmdConf exposes the configuration store to scripts.
func (s *Shell) cmdConf(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) < 2 {
		return plume.Errorf("Wrong number of args for %s", args[0])
	}
	switch args[1] {
	case "get":
		switch len(args) {
		case 3:
			return plume.OK(s.conf.Str(args[2], ""))
		case 4:
			return plume.OK(s.conf.Str(args[2], args[3]))
		}
	case "set":
		if len(args) == 4 {
			s.conf.Set(args[2], args[3])
			return plume.OK(args[3])
		}
	case "keys":
		if len(args) == 2 {
			return plume.OK(strings.Join(s.conf.Keys(), " "))
		}
	case "save":
		if len(args) == 3 {
			if err := s.conf.Save(args[2]); err != nil {
				return plume.Errorf("conf save: %v", err)
			}
			return plume.OK("")
		}
	default:
		return plume.Errorf("conf: unknown subcommand '%s'", args[1])
	}
	return plume.Errorf("Wrong number of args for %s", args[0])
}

// cmdRemote drives the stub connection state machine.
func (s *Shell) cmdRemote(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 2 {
		return plume.Errorf("Wrong number of args for %s", args[0])
	}
	switch args[1] {
	case "connect":
		if err := s.remote.Connect(context.Background()); err != nil {
			return plume.Errorf("remote: %v", err)
		}
		return plume.OK(s.remote.State().String())
	case "status":
		return plume.OK(s.remote.State().String())
	case "disconnect":
		s.remote.Disconnect()
		return plume.OK("")
	}
	return plume.Errorf("remote: unknown subcommand '%s'", args[1])
}

// -----------------------------------------------------------------------------
// Run modes
// -----------------------------------------------------------------------------

// RunScript evaluates a script and prints a non-empty result, matching
// the REPL's output behavior.
func (s *Shell) RunScript(script string) error {
	result, err := s.interp.Eval(script)
	if err != nil {
		return err
	}
	if result.String() != "" {
		fmt.Println(result.String())
	}
	return nil
}

// RunFile evaluates the contents of a file.
func (s *Shell) RunFile(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.RunScript(string(text))
}

// RunStdin evaluates everything from standard input as one script.
func (s *Shell) RunStdin() error {
	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	return s.RunScript(string(text))
}

// RunREPL drives the interactive loop with the line editor, falling back
// to plain buffered reads when the terminal cannot enter raw mode.
func (s *Shell) RunREPL() {
	prompt := s.conf.Str("repl.prompt", "% ")
	cont := s.conf.Str("repl.continuation", "> ")
	fmt.Printf("plume %s REPL - Tab for completions, Ctrl-D to exit\n", version)

	editor := NewLineEditor(s)
	var buf string
	for {
		p := prompt
		if buf != "" {
			p = cont
		}
		editor.SetInputBuffer(buf)
		line, err := editor.ReadLine(p)
		if err != nil {
			if err == io.EOF {
				if buf != "" {
					fmt.Println()
					fmt.Println("Incomplete input, discarded")
				}
				return
			}
			if errors.Is(err, errInterrupted) {
				buf = ""
				continue
			}
			s.log.Debug("line editor unavailable, using plain input", "error", err)
			s.runPlainREPL(buf, prompt, cont)
			return
		}
		var done bool
		buf, done = s.replStep(buf, line)
		if done {
			return
		}
	}
}

// runPlainREPL is the editor-free loop used when stdin is interactive
// but raw mode is not available.
func (s *Shell) runPlainREPL(buf, prompt, cont string) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if buf == "" {
			fmt.Print(prompt)
		} else {
			fmt.Print(cont)
		}
		if !scanner.Scan() {
			return
		}
		var done bool
		buf, done = s.replStep(buf, scanner.Text())
		if done {
			return
		}
	}
}

// replStep folds one input line into the accumulated buffer, evaluating
// when the buffer parses complete. It returns the next buffer state and
// whether the session should end.
func (s *Shell) replStep(buf, line string) (string, bool) {
	if buf == "" {
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return "", true
		}
		buf = line
	} else {
		buf += "\n" + line
	}
	if s.interp.Parse(buf).Status == plume.ParseIncomplete {
		return buf, false
	}
	result, err := s.interp.Eval(buf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
	} else if result.String() != "" {
		fmt.Println(result.String())
	}
	return "", false
}
