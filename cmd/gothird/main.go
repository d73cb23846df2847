// Command gothird runs the interpreter against stdin, optionally tracing,
// dumping, or round-tripping a core image. It is a thin client of the
// forth package's public entry points.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	forth "github.com/forth-vm/gothird"
	"github.com/forth-vm/gothird/internal/logio"
)

func main() {
	var (
		coreSize int
		trace    bool
		dump     bool
		blockDir string
		loadPath string
		savePath string
	)
	flag.IntVar(&coreSize, "core-size", forth.MinimumCoreSize, "core size in cells")
	flag.BoolVar(&trace, "trace", false, "enable trace logging")
	flag.BoolVar(&dump, "dump", false, "print a dump after execution")
	flag.StringVar(&blockDir, "block-dir", ".", "directory for BSAVE/BLOAD block files")
	flag.StringVar(&loadPath, "load", "", "load a saved core image instead of bootstrapping")
	flag.StringVar(&savePath, "save", "", "save a core image to this path after execution")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	opts := []forth.Option{
		forth.WithOutput(os.Stdout),
		forth.WithErrorOutput(os.Stderr),
		forth.WithBlockDir(blockDir),
		forth.WithArgs(flag.Args()),
	}
	if trace {
		tracef := log.Leveledf("TRACE")
		opts = append(opts,
			forth.WithLogf(func(mark, mess string, args ...interface{}) {
				tracef(mark+" "+mess, args...)
			}),
			// route VM diagnostics through the logger too, so traced runs
			// interleave diagnostics and trace lines coherently
			forth.WithErrorOutput(&logio.Writer{Logf: log.Leveledf("VM")}),
		)
	}

	vm, err := openVM(loadPath, coreSize, opts...)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	defer vm.Close()

	if dump {
		defer func() {
			if err := vm.WriteDump(os.Stderr); err != nil {
				log.Errorf("dump: %v", err)
			}
		}()
	}

	vm.SetFileInput("<stdin>", os.Stdin)
	log.ErrorIf(runVM(context.Background(), vm))

	if savePath != "" {
		if err := saveCore(vm, savePath); err != nil {
			log.Errorf("save: %v", err)
		}
	}
}

// openVM either boots a fresh core or resumes a saved one. `-load` and
// `-save` are independent flags with no fallthrough between them, and
// `-dump` is independent of both, so "save after running" and "dump after
// running" can be requested together or separately without surprise.
func openVM(loadPath string, coreSize int, opts ...forth.Option) (*forth.VM, error) {
	if loadPath == "" {
		return forth.New(coreSize, opts...)
	}
	f, err := os.Open(loadPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return forth.LoadCore(f, opts...)
}

func saveCore(vm *forth.VM, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return vm.SaveCore(f)
}

// runVM drains Run until a clean exit; the dispatch loop itself has no
// cancellation hook, so ctx is honored only between Eval calls were this
// extended to a REPL.
func runVM(ctx context.Context, vm *forth.VM) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := vm.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
