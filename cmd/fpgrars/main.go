// Command fpgrars is the CLI front end: it loads fpgrars.toml (if
// present), merges CLI flags over it (CLI wins), reads one or more
// RISC-V assembly sources, assembles them, and runs the resulting
// program image against the VM.
//
// spf13/cobra owns flag parsing and --help/--version; the config-file/
// CLI merge itself is a plain function in internal/config, not cobra
// flag bindings, since cobra has no first-class notion of "file
// default, flag override."
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fpgrars/internal/asm"
	"fpgrars/internal/config"
	"fpgrars/internal/debug"
	"fpgrars/internal/device"
	"fpgrars/internal/ecall"
	"fpgrars/internal/lexer"
	"fpgrars/internal/mem"
	"fpgrars/internal/vm"
)

// version is overwritten at build time by release tooling; this repo
// has no embedded build-info wiring beyond the plain default cobra
// prints.
var version = "dev"

func main() {
	os.Exit(newRootCmd().run())
}

// rootCmd bundles the cobra command with the exit code its RunE
// decided on, since a successful run's exit code is the *program's*
// a0, not "0 unless cobra returned an error."
type rootCmd struct {
	cmd      *cobra.Command
	exitCode int
}

func (r *rootCmd) run() int {
	if err := r.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fpgrars:", err)
		return 1
	}
	return r.exitCode
}

func newRootCmd() *rootCmd {
	r := &rootCmd{}

	var (
		width, height, scale, port int
		noVideo, printInstructions bool
		printState, interactive    bool
	)

	cmd := &cobra.Command{
		Use:          "fpgrars [OPTIONS] FILE...",
		Short:        "A fast RISC-V RV32IMF assembler and simulator",
		Version:      version,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileCfg, err := config.Load(config.DefaultPath)
			if err != nil {
				return fmt.Errorf("fpgrars.toml: %w", err)
			}

			o := config.Overrides{}
			flags := cmd.Flags()
			if flags.Changed("width") {
				o.Width = &width
			}
			if flags.Changed("height") {
				o.Height = &height
			}
			if flags.Changed("scale") {
				o.Scale = &scale
			}
			if flags.Changed("port") {
				o.Port = &port
			}
			if flags.Changed("no-video") {
				o.NoVideo = &noVideo
			}
			if flags.Changed("print-instructions") {
				o.PrintInstructions = &printInstructions
			}
			if flags.Changed("print-state") {
				o.PrintState = &printState
			}
			if len(args) >= 1 {
				o.File = &args[0]
			}

			cfg := config.Merge(fileCfg, o)
			if cfg.File == "" {
				return fmt.Errorf("no source file given (pass one, or set `file` in %s)", config.DefaultPath)
			}

			// Additional positional args (beyond the first) are extra
			// translation units sharing cfg.File's label namespace and
			// data image; internal/asm.Assemble already accepts a
			// []Source slice for this.
			var extra []string
			if len(args) > 1 {
				extra = args[1:]
			}

			code, err := runProgram(cfg, extra, interactive)
			if err != nil {
				return err
			}
			r.exitCode = code
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 320, "display width")
	cmd.Flags().IntVarP(&height, "height", "h", 240, "display height")
	cmd.Flags().IntVarP(&scale, "scale", "s", 2, "display pixel scale factor")
	cmd.Flags().IntVarP(&port, "port", "p", -1, "MIDI port index")
	cmd.Flags().BoolVar(&noVideo, "no-video", false, "disable the bitmap display")
	cmd.Flags().BoolVar(&printInstructions, "print-instructions", false, "dump assembled IR and exit")
	cmd.Flags().BoolVar(&printState, "print-state", false, "dump registers and memory summary on exit")
	cmd.Flags().BoolVar(&interactive, "debug", false, "step the program one instruction at a time in an interactive inspector")

	r.cmd = cmd
	return r
}

// runProgram assembles cfg.File (plus any extra translation units) and
// executes the result, returning the process exit code: the program's
// a0, propagated as the process exit code modulo 256.
func runProgram(cfg config.Config, extraFiles []string, interactive bool) (int, error) {
	names := append([]string{cfg.File}, extraFiles...)
	sources := make([]asm.Source, len(names))
	for i, name := range names {
		text, err := os.ReadFile(name)
		if err != nil {
			return 0, err
		}
		sources[i] = asm.Source{Name: name, Text: string(text)}
	}

	prog, err := asm.Assemble(sources, lexer.OSFileReader)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1, nil
	}

	if cfg.PrintInstructions {
		fmt.Print(debug.DumpInstructions(prog))
		return 0, nil
	}

	mmio := device.New(cfg.Width, cfg.Height, nil)
	midi := device.MIDIBackend(device.NullMIDI{Port: cfg.Port})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// With no real windowing layer attached, the snapshot-and-present
	// loop targets a headless stub; --no-video skips starting the loop
	// entirely. The MMIO framebuffer state is live either way.
	renderer := device.Renderer(device.NullRenderer{})
	backend := device.NewBackend(mmio, renderer, cfg.Scale)
	if !cfg.NoVideo {
		go backend.Run(ctx)
	}

	cancelCh := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			close(cancelCh)
			cancel()
		case <-ctx.Done():
		}
	}()
	defer signal.Stop(sig)

	h := ecall.New(os.Stdout, os.Stderr, os.Stdin, mmio, midi)
	h.Cancel = cancelCh

	m := mem.New(prog.Data, mmio)
	machine := vm.New(prog, m, h.Dispatch)
	machine.Cancel = cancelCh
	mmio.SetClock(machine)

	if interactive {
		if err := debug.Run(machine); err != nil {
			return 1, err
		}
	} else {
		machine.Run()
	}

	if cfg.PrintState {
		fmt.Print(debug.DumpState(machine))
	}

	if machine.Terminated {
		fmt.Fprintf(os.Stderr, "fpgrars: %s\n", machine.TerminationReason)
		return 1, nil
	}
	return machine.ExitCode, nil
}
