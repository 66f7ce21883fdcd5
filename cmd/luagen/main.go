// Command luagen is the CLI driver SPEC_FULL.md's CLI section describes:
// it parses a program with internal/syntax, lowers it with
// internal/lower, and either prints the LLVM IR internal/jitgen built
// for it (--dump-ir) or runs the same runcall sequence directly through
// internal/runtime to produce the program's observable output.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"luagen/internal/builtins"
	"luagen/internal/diagnostics"
	"luagen/internal/jitgen"
	"luagen/internal/lower"
	"luagen/internal/runtime"
	"luagen/internal/syntax"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("luagen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dumpIR := fs.Bool("dump-ir", false, "print the emitted LLVM IR instead of running the program")
	stats := fs.Bool("stats", false, "print pool size, scope depth and root bindings to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	source, err := readSource(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, reportf(stderr, "luagen: %v", err))
		return 1
	}

	chunk, err := syntax.Parse(source)
	if err != nil {
		fmt.Fprintln(stderr, reportf(stderr, "parse error: %v", err))
		return 1
	}

	if *dumpIR {
		mod := jitgen.New()
		gen := lower.New(mod)
		if err := gen.Lower(chunk); err != nil {
			fmt.Fprintln(stderr, reportf(stderr, "lowering error: %v", err))
			return 1
		}
		fmt.Fprintf(stdout, "; build %s\n", mod.BuildID)
		fmt.Fprintln(stdout, mod.Finish())
		if *stats {
			fmt.Fprintf(stderr, "pool entries: %s\n", humanize.Comma(int64(gen.PoolLen())))
		}
		return 0
	}

	rt := runtime.New(builtins.Registry(stdout))
	gen := lower.New(rt)
	runID := uuid.NewString()
	if err := gen.Lower(chunk); err != nil {
		fmt.Fprintln(stderr, reportf(stderr, "run %s aborted: %v", runID, err))
		if d, ok := diagnostics.As(err); ok {
			return exitCodeFor(d.Code)
		}
		return 1
	}

	if *stats {
		fmt.Fprintf(stderr, "pool entries: %s, scope depth: %d, root bindings: %v\n",
			humanize.Comma(int64(gen.PoolLen())), rt.Scopes.Depth(), rt.Scopes.RootNames())
	}
	return 0
}

func readSource(positional []string) (string, error) {
	if len(positional) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(positional[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", positional[0], err)
	}
	return string(b), nil
}

// reportf renders a single-line diagnostic, colorized when stderr is a
// terminal, per SPEC_FULL's ambient logging section.
func reportf(stderr io.Writer, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if f, ok := stderr.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "\x1b[31m" + msg + "\x1b[0m"
	}
	return msg
}

// exitCodeFor maps a diagnostics.Code to a process exit code: 1 for
// ordinary program-level failures, 2 for an InternalInvariant (a defect
// in this implementation rather than in the program being run).
func exitCodeFor(code diagnostics.Code) int {
	if code == diagnostics.InternalInvariant {
		return 2
	}
	return 1
}
