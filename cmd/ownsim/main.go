package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"ownsim/ast"
	"ownsim/eval"
	"ownsim/trace"
	"ownsim/types"
	"strings"
)

// Exit statuses
const (
	exitCompleted = 0
	exitFaulted   = 1
	exitLoadError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	programPath := flag.String("program", "", "YAML program file (or pass it as the first argument)")
	ticks := flag.Int64("ticks", types.DefaultTicks, "Tick budget for the run")
	quiet := flag.Bool("quiet", false, "Suppress program output and the result line")
	step := flag.Bool("step", false, "Pause before every statement (interactive)")

	// Trace flags
	traceEnabled := flag.Bool("trace", false, "Enable ownership tracing")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern (glob on binding or function names, e.g., 's*,take')")

	flag.Parse()

	path := *programPath
	if path == "" && flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: ownsim [flags] program.yaml")
		flag.PrintDefaults()
		return exitLoadError
	}

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			filters = strings.Split(*traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		trace.Init(true, filters, os.Stderr)
		log.Printf("Tracing enabled (filters: %v)", filters)
	} else {
		trace.Init(false, nil, nil)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Failed to read program: %v", err)
		return exitLoadError
	}
	prog, err := ast.Decode(source)
	if err != nil {
		log.Printf("Failed to load %s: %v", path, err)
		return exitLoadError
	}

	opts := []eval.Option{eval.WithTicks(*ticks)}
	if !*quiet {
		opts = append(opts, eval.WithEcho(func(s string) { fmt.Print(s) }))
	}
	if *step {
		stepper := newLineStepper(source)
		defer stepper.Close()
		opts = append(opts, eval.WithStepper(stepper))
	}

	result := eval.Run(prog, opts...)
	if result.Status == types.Faulted {
		for _, line := range result.Traceback {
			fmt.Fprintln(os.Stderr, line)
		}
		return exitFaulted
	}
	if !*quiet {
		fmt.Println(result)
	}
	return exitCompleted
}
