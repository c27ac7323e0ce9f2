package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rmay/loxgo/pkg/lox"
)

const (
	exitCompileModern = 65
	exitRuntimeModern = 70
	exitLegacy        = 69
)

var (
	debugFlag     = flag.Bool("debug", false, "Enable debug-level logging (compiler errors and disassembly; vm traces with -trace)")
	traceFlag     = flag.Bool("trace", false, "Show per-instruction execution trace")
	conventionFlag = flag.String("exit-convention", "modern", "Exit code convention on error: modern (65/70) or legacy (69 for both)")
)

func main() {
	flag.Parse()

	switch *conventionFlag {
	case "modern", "legacy":
	default:
		fmt.Fprintf(os.Stderr, "Unknown -exit-convention %q: want modern or legacy\n", *conventionFlag)
		os.Exit(1)
	}

	// The VM trace is logged at debug level, so -trace needs that level too.
	lox.SetDebug(*debugFlag || *traceFlag)

	if len(flag.Args()) < 1 {
		runREPL()
		return
	}
	runFile(flag.Args()[0])
}

func exitCode(isCompileError bool) int {
	if *conventionFlag == "legacy" {
		return exitLegacy
	}
	if isCompileError {
		return exitCompileModern
	}
	return exitRuntimeModern
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	vm := lox.NewVM()
	vm.SetTrace(*traceFlag)

	p := lox.NewParser(vm.Strings())
	chunk, err := p.Compile(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCode(true))
	}

	if err := vm.Run(&lox.VFun{Chunk: chunk, Name: path}); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCode(false))
	}
}

// runREPL reads one line at a time, compiling and running each against a
// single persistent VM so variable definitions survive across lines. Errors
// on one line never exit the process, unlike runFile.
func runREPL() {
	vm := lox.NewVM()
	vm.SetTrace(*traceFlag)

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		printBanner()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("lox> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		if err := lox.Interpret(vm, line); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

func printBanner() {
	width := 40
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	fmt.Println(strings.Repeat("=", width))
	fmt.Println("loxgo REPL")
	fmt.Println(strings.Repeat("=", width))
	fmt.Println("Type 'exit' or 'quit' to leave.")
	fmt.Println()
}
