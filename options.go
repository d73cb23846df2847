package forth

import (
	"io"
	"io/ioutil"

	"github.com/forth-vm/gothird/cell"
	"github.com/forth-vm/gothird/internal/flushio"
)

// Option configures a VM at New time: output streams, the block-file
// directory, arg passing, and tracing.
type Option interface{ apply(vm *VM) }

var defaultOptions = Options(
	withOutput(ioutil.Discard),
	withErrorOutput(ioutil.Discard),
	withBlockDir("."),
)

// Options flattens a list of options into one, so New can apply a single
// combined value.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(vm *VM) {}

type options []Option

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type outputOption struct{ io.Writer }
type errorOutputOption struct{ io.Writer }
type blockDirOption string
type argsOption []string
type logfOption func(mark, mess string, args ...interface{})

// WithOutput sets FOUT: where EMIT/PRINT/PNUM write.
func WithOutput(w io.Writer) Option { return outputOption{w} }

// WithErrorOutput sets the stream diagf writes diagnostics to.
func WithErrorOutput(w io.Writer) Option { return errorOutputOption{w} }

// WithBlockDir sets the directory BSAVE/BLOAD read and write XXXX.blk
// files in. Defaults to the current directory.
func WithBlockDir(dir string) Option { return blockDirOption(dir) }

// WithArgs populates the ARGC/ARGV registers; the strings themselves are
// stashed as a host-side handle, opaque to the VM.
func WithArgs(args []string) Option { return argsOption(args) }

// WithLogf attaches a trace callback invoked at points like halt().
func WithLogf(f func(mark, mess string, args ...interface{})) Option { return logfOption(f) }

func withOutput(w io.Writer) Option      { return outputOption{w} }
func withErrorOutput(w io.Writer) Option { return errorOutputOption{w} }
func withBlockDir(dir string) Option     { return blockDirOption(dir) }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
	vm.storeReg(RegFOUT, vm.handle(vm.out))
}

func (o errorOutputOption) apply(vm *VM) { vm.errOut = o.Writer }
func (d blockDirOption) apply(vm *VM)    { vm.blockDir = string(d) }

func (a argsOption) apply(vm *VM) {
	vm.storeReg(RegArgc, cell.Cell(len(a)))
	vm.storeReg(RegArgv, vm.handle([]string(a)))
}

func (f logfOption) apply(vm *VM) { vm.logf = f }
