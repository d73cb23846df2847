package forth_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	forth "github.com/forth-vm/gothird"
)

// evalOut runs src through a fresh instance and returns everything written
// to its output stream, failing the test on a non-nil Eval error.
func evalOut(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	vm, err := forth.New(forth.MinimumCoreSize, forth.WithOutput(&out))
	require.NoError(t, err, "New")
	defer vm.Close()
	require.NoError(t, vm.Eval(src), "Eval(%q)", src)
	return out.String()
}

// End-to-end eval scenarios through the public API.
func TestEvalScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"add-and-print", `2 3 + pnum `, "5"},
		{"square-word", `: sq dup * ; 7 sq pnum`, "49"},
		// "until" only loops back while its flag is false, so the body's
		// print runs on 3, 2, 1 and the loop exits as soon as the decrement
		// reaches 0, before that iteration's print would run.
		{"countdown", `: count begin dup pnum 1 - dup 0 = until drop ; 3 count`, "321"},
		{"depth", `1 2 3 depth pnum drop drop drop`, "3"},
		// the value goes on the stack before the base changes: number
		// parsing itself follows BASE, so a 255 read after `16 base !`
		// would convert as hex
		{"hex-base", `255 16 base ! pnum`, "0x00000000000000ff"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, evalOut(t, c.src), "%s output", c.name)
		})
	}
}

func TestEvalUnknownTokenDiagnostic(t *testing.T) {
	var errOut bytes.Buffer
	vm, err := forth.New(forth.MinimumCoreSize, forth.WithErrorOutput(&errOut))
	require.NoError(t, err, "New")
	defer vm.Close()
	require.NoError(t, vm.Eval("hello is not a word"), "Eval should return nil on non-fatal unknown-token errors")
	require.Contains(t, errOut.String(), `( error "hello is not a word" )`, "stderr should contain the not-a-word diagnostic")
}

func TestDivideByZeroIsNonFatal(t *testing.T) {
	var out, errOut bytes.Buffer
	vm, err := forth.New(forth.MinimumCoreSize, forth.WithOutput(&out), forth.WithErrorOutput(&errOut))
	require.NoError(t, err, "New")
	defer vm.Close()
	require.NoError(t, vm.Eval("5 0 / pnum"), "Eval")
	require.Contains(t, errOut.String(), `( error "x/0" )`, "stderr should contain the x/0 diagnostic")
}

func TestSaveLoadCoreRoundTrip(t *testing.T) {
	vm, err := forth.New(forth.MinimumCoreSize)
	require.NoError(t, err, "New")
	require.NoError(t, vm.Eval(": sq dup * ;"), "Eval")

	var buf bytes.Buffer
	require.NoError(t, vm.SaveCore(&buf), "SaveCore")
	vm.Close()

	var out bytes.Buffer
	vm2, err := forth.LoadCore(&buf, forth.WithOutput(&out))
	require.NoError(t, err, "LoadCore")
	defer vm2.Close()

	require.NoError(t, vm2.Eval("9 sq pnum"), "Eval after LoadCore")
	require.Equal(t, "81", out.String(), "output after reload")
}

func TestLoadCoreRejectsIncompatibleHeader(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00}, 32)
	_, err := forth.LoadCore(bytes.NewReader(garbage))
	require.Error(t, err, "LoadCore of a non-image byte stream should fail")
}

func TestPushPopStackDepth(t *testing.T) {
	vm, err := forth.New(forth.MinimumCoreSize)
	require.NoError(t, err, "New")
	defer vm.Close()

	base := vm.StackDepth()
	require.NoError(t, vm.Push(7), "Push")
	require.NoError(t, vm.Push(35), "Push")
	require.Equal(t, base+2, vm.StackDepth(), "StackDepth")

	v, err := vm.Pop()
	require.NoError(t, err, "Pop")
	require.Equal(t, uint64(35), v, "Pop")
}

// TestPushSurvivesRun checks that host-side pushes land in memory where the
// next Run's dispatch loop picks them up, not just in the cached host state.
func TestPushSurvivesRun(t *testing.T) {
	var out bytes.Buffer
	vm, err := forth.New(forth.MinimumCoreSize, forth.WithOutput(&out))
	require.NoError(t, err, "New")
	defer vm.Close()

	require.NoError(t, vm.Push(6), "Push")
	require.NoError(t, vm.Push(7), "Push")
	require.NoError(t, vm.Eval("* pnum"), "Eval")
	require.Equal(t, "42", out.String(), "product of host-pushed operands")
}

func TestDefineConstant(t *testing.T) {
	vm, err := forth.New(forth.MinimumCoreSize)
	require.NoError(t, err, "New")
	defer vm.Close()
	require.NoError(t, vm.DefineConstant("answer", 42), "DefineConstant")
	var out bytes.Buffer
	vm.SetFileOutput(&out)
	require.NoError(t, vm.Eval("answer pnum"), "Eval")
	require.Equal(t, "42", out.String(), "output")
}

func TestNewRejectsUndersizedCore(t *testing.T) {
	_, err := forth.New(16)
	require.Error(t, err, "New with a too-small core size should fail")
}
