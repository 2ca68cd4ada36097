// Command burst is the BURST toolchain entrypoint: it assembles source
// files, runs programs directly, or drops into the interactive debugger.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/burst-vm/burst/internal/asm"
	"github.com/burst-vm/burst/internal/config"
	"github.com/burst-vm/burst/internal/debugger"
	"github.com/burst-vm/burst/internal/trace"
	"github.com/burst-vm/burst/internal/vm"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		showVersion  = flag.Bool("version", false, "show version information")
		debugMode    = flag.Bool("debug", false, "start in the interactive debugger")
		assembleOnly = flag.Bool("assemble", false, "assemble the file and write a .bin, then exit")
		outFile      = flag.String("o", "", "output file for -assemble (default: input with .bin extension)")
		entryPoint   = flag.Uint("entry", 0, "load/entry address")
		configPath   = flag.String("config", "", "path to a burst.toml config file (default: platform config dir)")
		enableTrace  = flag.Bool("trace", false, "enable execution tracing to stderr")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("burst %s (%s)\n", version, commit)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(0)
	}
	file := flag.Arg(0)

	source, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var result *asm.Result
	var programBytes []byte
	if strings.HasSuffix(file, ".bin") {
		programBytes = source
	} else {
		result, err = asm.Assemble(string(source))
		if err != nil {
			fmt.Fprintf(os.Stderr, "assembly error: %v\n", err)
			os.Exit(1)
		}
		programBytes = result.Bytes
		if cfg.Assembler.WarnUnusedLabels {
			for _, name := range result.Symbols.UnusedLabels() {
				fmt.Fprintf(os.Stderr, "warning: label %q is never referenced\n", name)
			}
		}
	}

	if *assembleOnly {
		dest := *outFile
		if dest == "" {
			dest = strings.TrimSuffix(file, extOf(file)) + ".bin"
		}
		if err := os.WriteFile(dest, programBytes, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(programBytes), dest)
		return
	}

	machine := vm.NewVMWithSize(cfg.VM.MemorySize)
	if err := machine.LoadProgram(programBytes, uint32(*entryPoint)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *enableTrace || cfg.Debugger.EnableTrace {
		tracer := trace.NewTracer(os.Stderr)
		tracer.Enabled = true
		trace.Attach(machine, tracer)
	}

	if *debugMode {
		dbg := debugger.NewDebugger(machine, cfg.Debugger.HistorySize)
		dbg.Configure(cfg)
		if result != nil {
			dbg.LoadSymbols(result.Symbols)
		}
		runREPL(dbg)
		return
	}

	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "trap: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(machine.ExitCode))
}

// runREPL drives the debugger from stdin, printing a prompt and the
// command's output text for each line. It deliberately does not implement
// history recall keystrokes, tab completion, or any line-editing beyond
// what bufio.Scanner gives for free — that belongs to an external shell.
func runREPL(dbg *debugger.Debugger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("burst> ")
	for scanner.Scan() {
		out, err := dbg.Execute(scanner.Text())
		if err == debugger.ErrQuit {
			return
		}
		if out != "" {
			fmt.Print(out)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Print("burst> ")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Println("usage: burst [flags] <file.asm|file.bin>")
	fmt.Println()
	flag.PrintDefaults()
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
