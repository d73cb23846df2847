package forth

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestInstancesDoNotShareState exercises the no-shared-state guarantee
// directly: two VMs defining same-named words with different bodies must
// not see each other's
// dictionary or stack. This test drives them sequentially;
// TestConcurrentInstancesIsolated covers separate goroutines.
func TestInstancesDoNotShareState(t *testing.T) {
	var outA, outB bytes.Buffer
	a, err := New(MinimumCoreSize, WithOutput(&outA))
	require.NoError(t, err, "New a")
	defer a.Close()
	b, err := New(MinimumCoreSize, WithOutput(&outB))
	require.NoError(t, err, "New b")
	defer b.Close()

	require.NoError(t, a.Eval(": greeting 1 ;"), "a.Eval")
	require.NoError(t, b.Eval(": greeting 2 ;"), "b.Eval")

	require.NoError(t, a.Eval("greeting pnum"), "a.Eval")
	require.NoError(t, b.Eval("greeting pnum"), "b.Eval")

	require.Equal(t, "1", outA.String(), "a's greeting")
	require.Equal(t, "2", outB.String(), "b's greeting")
}

// TestConcurrentInstancesIsolated runs N independent instances concurrently,
// each in its own goroutine driven through an errgroup.Group, each
// defining and calling
// its own numbered word. No instance's dispatch loop may observe another's
// memory: each goroutine only ever touches the one *VM it created.
func TestConcurrentInstancesIsolated(t *testing.T) {
	const n = 8
	results := make([]string, n)
	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			var out bytes.Buffer
			vm, err := New(MinimumCoreSize, WithOutput(&out))
			if err != nil {
				return err
			}
			defer vm.Close()
			src := fmt.Sprintf(": tag %d ; tag pnum", i)
			if err := vm.Eval(src); err != nil {
				return err
			}
			results[i] = out.String()
			return nil
		})
	}
	require.NoError(t, eg.Wait(), "errgroup")
	for i := 0; i < n; i++ {
		// assert, not require: one instance's output being wrong shouldn't
		// stop the loop from reporting the rest.
		assert.Equal(t, fmt.Sprintf("%d", i), results[i], "instance %d output", i)
	}
}

// TestPoisonedInstanceDoesNotAffectSibling checks that halting one instance
// (a fatal bounds violation) leaves a second, independently created
// instance fully usable.
func TestPoisonedInstanceDoesNotAffectSibling(t *testing.T) {
	poisoned := newTestVM(t)
	defer poisoned.Close()
	require.Error(t, poisoned.Eval("999999999 @ drop"), "expected a fatal bounds violation")

	healthy := newTestVM(t)
	defer healthy.Close()
	var out bytes.Buffer
	healthy.SetFileOutput(&out)
	require.NoError(t, healthy.Eval("2 3 + pnum"), "healthy.Eval")
	require.Equal(t, "5", out.String(), "healthy instance output")
}
