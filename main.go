package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/lookbusy1344/loxvm/api"
	"github.com/lookbusy1344/loxvm/chunk"
	"github.com/lookbusy1344/loxvm/compiler"
	"github.com/lookbusy1344/loxvm/config"
	"github.com/lookbusy1344/loxvm/debugger"
	"github.com/lookbusy1344/loxvm/diagnostics"
	"github.com/lookbusy1344/loxvm/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		trace          = flag.Bool("trace", false, "Enable execution trace")
		debugPrintCode = flag.Bool("debug-print-code", false, "Disassemble compiled chunks")
		configPath     = flag.String("config", "", "Path to a loxvm.toml configuration file")
		verbose        = flag.Bool("verbose", false, "Enable verbose internal diagnostics")
		debugMode      = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode        = flag.Bool("tui", false, "Use the TUI (Text User Interface) debugger")
		apiServer      = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort        = flag.Int("port", 8080, "API server port (used with -api-server)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clox [path]\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("loxvm %s (commit %s, built %s)\n", Version, Commit, Date)
		os.Exit(0)
	}

	if *verbose {
		diagnostics.EnableDebug(os.Stderr)
	} else {
		diagnostics.Disable()
	}

	if *apiServer {
		runAPIServer(*apiPort)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFrom(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load config file \"%s\".\n", *configPath)
			os.Exit(74)
		}
		cfg = loaded
	}

	opts := vm.InterpretOptions{
		TraceExecution: *trace || cfg.VM.TraceExecution,
		DebugPrintCode: *debugPrintCode || cfg.Compiler.DebugPrintCode,
		StackCapacity:  cfg.VM.StackCapacity,
	}

	if cfg.VM.TraceFile != "" {
		f, err := os.OpenFile(cfg.VM.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not open trace file \"%s\": %v\n", cfg.VM.TraceFile, err)
			os.Exit(74)
		}
		defer f.Close()
		opts.TraceWriter = f
	}

	if *debugMode || *tuiMode {
		if flag.NArg() != 1 {
			fmt.Fprintf(os.Stderr, "Usage: clox -debug path\n")
			os.Exit(64)
		}
		runDebugger(flag.Arg(0), opts, *tuiMode, cfg)
		return
	}

	switch flag.NArg() {
	case 0:
		runREPL(opts)
	case 1:
		runFile(flag.Arg(0), opts)
	default:
		fmt.Fprintf(os.Stderr, "Usage: clox [path]\n")
		os.Exit(64)
	}
}

// runDebugger compiles the file at path and hands it to the
// line-oriented or TUI debugger, matching -debug/-tui.
func runDebugger(path string, opts vm.InterpretOptions, tui bool, cfg *config.Config) {
	contents, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file \"%s\".\n", path)
		os.Exit(74)
	}

	c := chunk.New()
	ok, diags := compiler.Compile(string(contents), c, compiler.Options{})
	if !ok {
		fmt.Fprint(os.Stderr, diags.String())
		os.Exit(65)
	}

	machine := vm.NewWithCapacity(opts.StackCapacity)
	machine.Stdout = os.Stdout
	machine.TraceExecution = opts.TraceExecution
	machine.Trace = os.Stdout
	if opts.TraceWriter != nil {
		machine.Trace = opts.TraceWriter
	}

	dbg := debugger.NewDebuggerWithHistorySize(machine, cfg.Debugger.HistorySize)
	dbg.ShowSource = cfg.Debugger.ShowSource
	dbg.SetSource(string(contents))
	dbg.Load(c)

	if tui {
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("loxvm debugger - type 'help' for commands")
	fmt.Printf("Program loaded: %s\n", path)
	fmt.Println()
	if err := debugger.RunCLI(dbg); err != nil {
		fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
		os.Exit(1)
	}
}

// runAPIServer starts the remote debugging HTTP/WebSocket server and
// blocks until it receives SIGINT or SIGTERM.
func runAPIServer(port int) {
	server := api.NewServer(port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	fmt.Println("\nShutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("API server stopped")
}

// runREPL implements the interactive "> " prompt loop: read one line
// at a time, interpret it, and keep going until EOF. The line reader
// itself is not part of the compiler/VM core; it is an external
// collaborator built on github.com/chzyer/readline.
func runREPL(opts vm.InterpretOptions) {
	rl, err := readline.New("> ")
	if err != nil {
		// Fall back to a bare bufio reader if the terminal doesn't
		// support readline (e.g. piped stdin in CI).
		runREPLPlain(opts)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		vm.Interpret(line, os.Stdout, os.Stderr, opts)
	}
}

func runREPLPlain(opts vm.InterpretOptions) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if line != "" {
			vm.Interpret(line, os.Stdout, os.Stderr, opts)
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

// runFile implements the "prog <path>" entry point: read the whole
// file, interpret it once, and exit with the code matching the
// outcome.
func runFile(path string, opts vm.InterpretOptions) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Could not open file \"%s\".\n", path)
			os.Exit(74)
		}
		fmt.Fprintf(os.Stderr, "Could not read file \"%s\".\n", path)
		os.Exit(74)
	}

	result := vm.Interpret(string(contents), os.Stdout, os.Stderr, opts)
	switch result {
	case vm.ResultCompileError:
		os.Exit(65)
	case vm.ResultRuntimeError:
		os.Exit(70)
	default:
		os.Exit(0)
	}
}
