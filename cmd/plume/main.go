// plume is the command shell for the plume interpreter. With no
// arguments it runs a REPL on a terminal, or evaluates standard input
// when piped; with a script argument it evaluates the file.
package main

import (
	"fmt"
	"os"

	"github.com/plume-lang/plume"
	"github.com/plume-lang/plume/conf"
	"github.com/plume-lang/plume/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	var (
		configPath string
		logLevel   string
		logFile    string
		evalExpr   string
	)

	root := &cobra.Command{
		Use:   "plume [script]",
		Short: "Command shell for the plume interpreter",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := conf.New()
			if configPath != "" {
				if err := cfg.Load(configPath); err != nil {
					fmt.Fprintf(os.Stderr, "plume: %v\n", err)
					os.Exit(1)
				}
			}
			if logLevel == "" {
				logLevel = cfg.Str("system.log_level", "info")
			}
			if logFile == "" {
				logFile = cfg.Str("system.log_file", "")
			}
			if _, err := logging.Setup(logLevel, logFile); err != nil {
				fmt.Fprintf(os.Stderr, "plume: %v\n", err)
				os.Exit(1)
			}

			shell := NewShell(cfg)
			defer shell.Close()

			if evalExpr != "" {
				if err := shell.RunScript(evalExpr); err != nil {
					fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
					os.Exit(1)
				}
				return
			}
			if len(args) == 1 {
				if err := shell.RunFile(args[0]); err != nil {
					fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
					os.Exit(1)
				}
				return
			}

			stat, _ := os.Stdin.Stat()
			if (stat.Mode() & os.ModeCharDevice) != 0 {
				shell.RunREPL()
				return
			}
			if err := shell.RunStdin(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
				os.Exit(1)
			}
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a configuration file")
	root.Flags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.Flags().StringVar(&logFile, "log-file", "", "append logs to this file as well as stderr")
	root.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate this script and exit")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the plume version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("plume %s\n", version)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check <script>",
		Short: "Check a script for unterminated constructs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			text, err := os.ReadFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "plume: %v\n", err)
				os.Exit(1)
			}
			i := plume.New()
			defer i.Close()
			if i.Parse(string(text)).Status == plume.ParseIncomplete {
				fmt.Fprintf(os.Stderr, "%s: incomplete\n", args[0])
				os.Exit(1)
			}
			fmt.Printf("%s: ok\n", args[0])
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
