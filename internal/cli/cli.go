// Package cli contains the command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/knightc/kcc/internal/cc"
	"github.com/knightc/kcc/internal/log"
)

// options holds the flag values for one invocation.
type options struct {
	target string
	output string

	dumpAST          bool
	dumpASTCompacted bool
	debug            bool
}

// New builds the root command:
//
//	kcc [-t nasm|aarch64] [-o out.asm] [-a|-A] FILE
func New() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "kcc [flags] FILE",
		Short: "compile a small C-like language to assembly",
		Long: `kcc compiles a single source file to assembly for x86-64 (NASM
syntax) or AArch64 (GNU as syntax). The output assembles and links against
a small runtime providing printint, printchar and printstring.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(&opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.target, "target", "t", "nasm", "target backend: nasm or aarch64")
	flags.StringVarP(&opts.output, "output", "o", "out.asm", "output assembly path")
	flags.BoolVarP(&opts.dumpAST, "dump-ast", "a", false, "dump each function's AST to stdout")
	flags.BoolVarP(&opts.dumpASTCompacted, "dump-ast-compacted", "A", false, "dump ASTs with glue chains flattened")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	return cmd
}

// run opens the input and output files and drives one compilation.
func run(opts *options, input string) error {
	if opts.debug {
		log.LogLevel.Set(log.Debug)
	}
	logger := log.DefaultLogger()

	target, err := cc.ParseTarget(opts.target)
	if err != nil {
		return err
	}

	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(opts.output)
	if err != nil {
		return err
	}

	compiler := cc.New(in, out, cc.Config{
		Target:           target,
		Filename:         input,
		DumpAST:          opts.dumpAST,
		DumpASTCompacted: opts.dumpASTCompacted,
		Log:              logger,
	})

	if err := compiler.Compile(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	logger.Debug("wrote assembly", "in", input, "out", opts.output, "target", opts.target)

	return nil
}

// Execute runs the CLI and returns the process exit code. Diagnostics go to
// standard error, colorized when it is a terminal.
func Execute(ctx context.Context, args []string) int {
	cmd := New()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if term.IsTerminal(int(os.Stderr.Fd())) {
			fmt.Fprintf(os.Stderr, "\x1b[31mkcc: %s\x1b[0m\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "kcc: %s\n", err)
		}
		return 1
	}

	return 0
}
