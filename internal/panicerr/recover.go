// Package panicerr substitutes for the longjmp a C inner loop would use to
// unwind out of a fatal error: vm.Run calls Recover around dispatchLoop.
// dispatchLoop itself turns halt()'s panic into the error Eval/Run return,
// leaving a poisoned instance behind; Recover catches whatever else escapes
// it (any other panic, or runtime.Goexit) rather than crashing the process.
package panicerr

// Recover runs f on a fresh goroutine and blocks until it returns, turning
// any abnormal exit — a panic, or runtime.Goexit — into a non-nil error
// instead of letting it take the caller's goroutine down with it.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer captureExit(name, errch)
		defer capturePanic(name, errch)
		errch <- f()
	}()
	return <-errch
}
