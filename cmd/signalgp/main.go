// Command signalgp loads a serialized program and runs it on a single VM
// instance wired with the demonstration register-file memory model, the
// demonstration instruction set, and the demonstration event catalog.
//
// Usage:
//
//	go run ./cmd/signalgp [flags] <program.sgp>
//
// Flags:
//
//	-config   Path to a VM configuration JSON file (default: built-in defaults)
//	-ticks    Number of ticks to run (default: 1000)
//	-spawn    Module id to spawn one starting thread on (default: 0)
//	-trace    Write per-tick diagnostic lines to stderr
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/signalgp/config"
	"github.com/sarchlab/signalgp/events"
	"github.com/sarchlab/signalgp/eventlib"
	"github.com/sarchlab/signalgp/instlib"
	"github.com/sarchlab/signalgp/loader"
	"github.com/sarchlab/signalgp/memory"
	"github.com/sarchlab/signalgp/opset"
	"github.com/sarchlab/signalgp/tag"
	"github.com/sarchlab/signalgp/vm"
)

var (
	configPath = flag.String("config", "", "Path to a VM configuration JSON file")
	ticks      = flag.Int("ticks", 1000, "Number of ticks to run")
	spawn      = flag.Uint("spawn", 0, "Module id to spawn one starting thread on")
	trace      = flag.Bool("trace", false, "Write per-tick diagnostic lines to stderr")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: signalgp [options] <program.sgp>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	programPath := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	instLib := instlib.NewLibrary()
	opset.Register(instLib)

	eventLib := eventlib.NewLibrary()
	events.Register(eventLib, nil)

	model := memory.NewModel()
	defaultTag := tag.NewBitTag(8, []byte{0})

	var opts []vm.Option
	if *trace {
		opts = append(opts, vm.WithTraceWriter(os.Stderr))
	}

	v := vm.New(cfg, instLib, eventLib, model, defaultTag, opts...)
	diags := v.SetProgram(prog)
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "diagnostic at %d: %s\n", d.Position, d.Message)
	}
	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Modules: %d\n", len(v.Modules()))

	if _, ok := v.SpawnByID(uint32(*spawn), 1.0); !ok {
		fmt.Fprintf(os.Stderr, "Error: could not spawn a starting thread on module %d\n", *spawn)
		os.Exit(1)
	}

	v.Run(*ticks)

	stats := model.Stats()
	fmt.Printf("Ticks run: %d\n", v.TickCount())
	fmt.Printf("Calls: %d  Returns: %d\n", stats.Calls, stats.Returns)
}
