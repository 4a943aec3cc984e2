// cmd/sentra/commands/hir.go
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"lavascript/internal/bcanalysis"
	"lavascript/internal/compregister"
	"lavascript/internal/config"
	"lavascript/internal/hir"
	"lavascript/internal/inspector"
	"lavascript/internal/lexer"
	"lavascript/internal/parser"
	"lavascript/internal/vmregister"
)

// HIRCommand implements `sentra hir <build|dump|inspect> <file.sn>`: it
// compiles file.sn to register bytecode the normal way (lexer -> parser ->
// compregister), builds one HIR graph per function reachable from the
// compiled entry point, runs the optimizer pipeline unless --no-opt is
// given, and either silently builds (build), prints each graph (dump), or
// streams each graph to any attached internal/inspector viewer (inspect).
func HIRCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sentra hir <build|dump|inspect> <file.sn> [--no-opt] [--stats] [--addr host:port]")
	}
	sub, filename, flags := args[0], args[1], args[2:]

	noOpt := hasFlag(flags, "--no-opt")
	showStats := hasFlag(flags, "--stats")
	addr := flagValue(flags, "--addr", "localhost:6061")

	cfg, err := config.Load(filepath.Dir(filename))
	if err != nil {
		return fmt.Errorf("hir: load config: %w", err)
	}

	mainFn, err := compileFile(filename)
	if err != nil {
		return err
	}
	fns := collectFunctions(mainFn)

	switch sub {
	case "build", "dump":
		colorize := sub == "dump" && isatty.IsTerminal(os.Stdout.Fd())
		for _, fn := range fns {
			g, err := buildGraph(fn, fns, cfg, noOpt)
			if err != nil {
				return fmt.Errorf("hir: build %s: %w", fn.Name, err)
			}
			if sub == "dump" {
				printGraph(os.Stdout, fn.Name, g, colorize)
			}
			if showStats {
				printStats(fn, g)
			}
		}
		return nil

	case "inspect":
		srv := inspector.NewServer()
		for _, fn := range fns {
			g, err := buildGraph(fn, fns, cfg, noOpt)
			if err != nil {
				return fmt.Errorf("hir: build %s: %w", fn.Name, err)
			}
			var buf strings.Builder
			if err := hir.NewPrinter(&buf).Print(g); err != nil {
				return fmt.Errorf("hir: print %s: %w", fn.Name, err)
			}
			srv.Publish(inspector.Snapshot{Graph: fn.Name, Dump: buf.String()})
		}
		fmt.Printf("sentra hir inspect: serving %d graph(s) on ws://%s/hir/stream\n", len(fns), addr)
		return srv.ListenAndServe(addr)

	default:
		return fmt.Errorf("unknown hir subcommand %q (want build, dump, or inspect)", sub)
	}
}

// compileFile runs file.sn through the same lexer/parser/compregister path
// `sentra run --register` uses, stopping short of handing the result to a
// RegisterVM.
func compileFile(filename string) (*vmregister.FunctionObj, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("hir: read %s: %w", filename, err)
	}

	scanner := lexer.NewScannerWithFile(string(source), filename)
	tokens := scanner.ScanTokens()

	p := parser.NewParserWithSource(tokens, string(source), filename)
	stmts := p.Parse()

	c := compregister.NewCompilerWithGlobals(map[string]uint16{}, 0)
	fn, err := c.Compile(stmts)
	if err != nil {
		return nil, fmt.Errorf("hir: compile %s: %w", filename, err)
	}
	return fn, nil
}

// collectFunctions walks fn's constant pool for nested function/closure
// prototypes, recursively, returning every distinct FunctionObj reachable
// from the entry point (the entry point itself first).
func collectFunctions(entry *vmregister.FunctionObj) []*vmregister.FunctionObj {
	seen := map[*vmregister.FunctionObj]bool{}
	var out []*vmregister.FunctionObj

	var walk func(fn *vmregister.FunctionObj)
	walk = func(fn *vmregister.FunctionObj) {
		if fn == nil || seen[fn] {
			return
		}
		seen[fn] = true
		out = append(out, fn)
		for _, c := range fn.Constants {
			if !vmregister.IsFunction(c) {
				continue
			}
			if vmregister.IsClosure(c) {
				walk(vmregister.AsClosure(c).Function)
			} else {
				walk(vmregister.AsFunction(c))
			}
		}
	}
	walk(entry)
	return out
}

// buildGraph runs the bytecode analyzer and graph builder over fn, with a
// CalleeLookup that resolves a call site's constant-pool index against fn's
// own constant pool, so functions and closures nested in fn can be inlined.
// The all slice is not consulted.
func buildGraph(fn *vmregister.FunctionObj, all []*vmregister.FunctionObj, cfg *config.Config, noOpt bool) (*hir.Graph, error) {
	info := bcanalysis.Analyze(bcanalysis.Source{
		Code:         fn.Code,
		NumRegisters: maxArity(fn),
	})

	src := hir.Source{
		Code:      fn.Code,
		Constants: fn.Constants,
		Arity:     fn.Arity,
		Analysis:  info,
	}

	resolve := func(protoIndex int) (hir.Source, bool) {
		if protoIndex < 0 || protoIndex >= len(fn.Constants) {
			return hir.Source{}, false
		}
		c := fn.Constants[protoIndex]
		if !vmregister.IsFunction(c) {
			return hir.Source{}, false
		}
		callee := vmregister.AsFunction(c)
		if vmregister.IsClosure(c) {
			callee = vmregister.AsClosure(c).Function
		}
		return hir.Source{
			Code:      callee.Code,
			Constants: callee.Constants,
			Arity:     callee.Arity,
			Analysis: bcanalysis.Analyze(bcanalysis.Source{
				Code:         callee.Code,
				NumRegisters: maxArity(callee),
			}),
		}, true
	}

	g := hir.NewGraph()
	g.Trace = traceFuncFor(cfg)

	b := hir.NewBuilder(g, src, hir.InlinePolicyFromConfig(cfg.Inliner()), resolve)
	if _, err := b.Build(); err != nil {
		return nil, err
	}

	if !noOpt {
		if err := hir.RunPasses(g, hir.DefaultPipeline()); err != nil {
			return nil, err
		}
	}

	_ = all // kept for symmetry with resolve's closure over a fixed function set; reserved for cross-function resolution once imports are supported
	return g, nil
}

// traceFuncFor wires internal/hir's compile-lifecycle tracing to plain
// log.Printf-style output, gated on jit.trace_hir the same way vm.go gates
// PrintJITStats behind a bool field.
func traceFuncFor(cfg *config.Config) func(string, ...interface{}) {
	if !cfg.JITTraceHIR {
		return nil
	}
	return func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stderr, "[hir] "+format+"\n", args...)
	}
}

// maxArity is the register-count floor handed to the bytecode analyzer;
// the builder itself independently widens this via its own
// maxRegisterIndex scan, so this only needs to cover the function's
// declared argument registers.
func maxArity(fn *vmregister.FunctionObj) int {
	if fn.Arity > 0 {
		return fn.Arity
	}
	return 1
}

func printGraph(w *os.File, name string, g *hir.Graph, colorize bool) {
	if colorize {
		fmt.Fprintf(w, "\x1b[1m--- %s ---\x1b[0m\n", name)
	} else {
		fmt.Fprintf(w, "--- %s ---\n", name)
	}
	if err := hir.NewPrinter(w).Print(g); err != nil {
		fmt.Fprintf(os.Stderr, "hir: print %s: %v\n", name, err)
	}
}

func printStats(fn *vmregister.FunctionObj, g *hir.Graph) {
	stats := g.Arena().Stats()
	nodes := len(g.Nodes())
	perNode := uint64(0)
	if nodes > 0 {
		perNode = uint64(stats.Total) / uint64(nodes)
	}
	fmt.Printf("%s: %d nodes, arena %s, %s/node\n",
		fn.Name, nodes, stats.String(), humanize.Bytes(perNode))
}

func hasFlag(flags []string, name string) bool {
	for _, f := range flags {
		if f == name {
			return true
		}
	}
	return false
}

func flagValue(flags []string, name, def string) string {
	for i, f := range flags {
		if f == name && i+1 < len(flags) {
			return flags[i+1]
		}
		if strings.HasPrefix(f, name+"=") {
			return strings.TrimPrefix(f, name+"=")
		}
	}
	return def
}
