package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// The two abnormal-exit shapes Recover can observe: the goroutine paniced,
// or it called runtime.Goexit (directly or through something like
// testing.T.FailNow in host code the VM dispatched into). Each becomes its
// own error type so callers can tell a crashed dispatch loop from a
// silently exited one.

type panicError struct {
	name  string
	e     interface{}
	stack []byte
}

func capturePanic(name string, errch chan<- error) {
	var pe panicError
	if pe.e = recover(); pe.e != nil {
		pe.name = name
		pe.stack = debug.Stack()
		select {
		case errch <- pe:
		default:
		}
	}
}

func (pe panicError) Error() string { return fmt.Sprint(pe) }

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.e)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.e)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.e.(error)
	return err
}

type exitError string

func captureExit(name string, errch chan<- error) {
	select {
	case errch <- exitError(name):
	default:
		// the happy path already sent its (maybe nil) result
	}
}

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

// IsPanic reports whether err came from a recovered panic.
func IsPanic(err error) bool {
	var pe panicError
	return errors.As(err, &pe)
}

// IsExit reports whether err came from a recovered goroutine exit.
func IsExit(err error) bool {
	var xe exitError
	return errors.As(err, &xe)
}

// PanicStack returns the captured stack trace when err came from a
// recovered panic, and "" otherwise.
func PanicStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
