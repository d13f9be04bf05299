//go:build amd64 && linux

package native

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/symbols"
)

// returns builds code for a function returning v after a run of NOPs long
// enough to hold the patch jump.
func returns(v byte, nops int) []byte {
	code := make([]byte, 0, nops+6)
	for i := 0; i < nops; i++ {
		code = append(code, 0x90)
	}
	return append(code, 0xb8, v, 0x00, 0x00, 0x00, 0xc3) // MOV EAX, v; RET
}

func mapCode(t *testing.T, code []byte) engine.Address {
	t.Helper()
	mem, err := allocCode(code, getPageSize())
	require.NoError(t, err)
	t.Cleanup(func() { freeCode(mem) })
	return engine.AddressOf(slicePtr(mem))
}

func TestFuncCallsCode(t *testing.T) {
	fn := Func[func() int](mapCode(t, returns(42, 0)))
	assert.Equal(t, 42, fn())

	assert.Nil(t, Func[func() int](engine.Nil))
	assert.Panics(t, func() { Func[int](engine.Nil) })
}

func TestEngineRoundTrip(t *testing.T) {
	e := New()
	target := mapCode(t, returns(0, jmpAbsLen))
	detour := mapCode(t, returns(1, 0))
	call := Func[func() int](target)

	_, st := e.CreateHook(target, detour)
	require.Equal(t, engine.StatusNotInitialized, st)

	require.Equal(t, engine.StatusOK, e.Initialize())
	defer e.Uninitialize()

	tramp, st := e.CreateHook(target, detour)
	require.Equal(t, engine.StatusOK, st)
	_, st = e.CreateHook(target, detour)
	assert.Equal(t, engine.StatusAlreadyCreated, st)

	assert.Equal(t, 0, call())
	require.Equal(t, engine.StatusOK, e.EnableHook(target))
	assert.Equal(t, 1, call())
	assert.Equal(t, engine.StatusEnabled, e.EnableHook(target))
	assert.Equal(t, 0, Func[func() int](tramp)())

	require.Equal(t, engine.StatusOK, e.DisableHook(target))
	assert.Equal(t, 0, call())
	assert.Equal(t, engine.StatusDisabled, e.DisableHook(target))

	require.Equal(t, engine.StatusOK, e.QueueEnableHook(target))
	assert.Equal(t, 0, call())
	require.Equal(t, engine.StatusOK, e.ApplyQueued())
	assert.Equal(t, 1, call())
	enabled, st := e.IsEnabled(target)
	require.Equal(t, engine.StatusOK, st)
	assert.True(t, enabled)

	require.Equal(t, engine.StatusOK, e.RemoveHook(target))
	assert.Equal(t, 0, call())
	assert.Equal(t, engine.StatusNotCreated, e.EnableHook(target))
}

func TestEngineRejects(t *testing.T) {
	e := New()
	require.Equal(t, engine.StatusOK, e.Initialize())
	defer e.Uninitialize()

	detour := mapCode(t, returns(1, 0))
	_, st := e.CreateHook(engine.Nil, detour)
	assert.Equal(t, engine.StatusNotExecutable, st)

	short := mapCode(t, returns(0, 0))
	_, st = e.CreateHook(short, detour)
	assert.Equal(t, engine.StatusUnsupportedFunction, st)
}

func TestEngineCreateHookAPI(t *testing.T) {
	target := mapCode(t, returns(7, jmpAbsLen))
	detour := mapCode(t, returns(8, 0))

	e := New(withLoader(func(module string) (*symbols.Table, error) {
		if module != "libfake.so" {
			return nil, symbols.ErrModuleNotFound
		}
		return symbols.NewTable(module, 0, map[string]uintptr{"answer": target.Uintptr()}), nil
	}))
	require.Equal(t, engine.StatusOK, e.Initialize())
	defer e.Uninitialize()

	_, _, st := e.CreateHookAPI("libother.so", "answer", detour)
	assert.Equal(t, engine.StatusModuleNotFound, st)
	_, _, st = e.CreateHookAPI("libfake.so", "question", detour)
	assert.Equal(t, engine.StatusFunctionNotFound, st)

	tramp, resolved, st := e.CreateHookAPI("libfake.so", "answer", detour)
	require.Equal(t, engine.StatusOK, st)
	assert.Equal(t, target, resolved)

	require.Equal(t, engine.StatusOK, e.EnableAllHooks())
	assert.Equal(t, 8, Func[func() int](target)())
	assert.Equal(t, 7, Func[func() int](tramp)())
	require.Equal(t, engine.StatusOK, e.DisableAllHooks())
	assert.Equal(t, 7, Func[func() int](target)())
}

//go:noinline
func double(x int) string { return fmt.Sprint(x * 2) }

//go:noinline
func triple(x int) string { return fmt.Sprint(x * 3) }

func TestEngineHooksGoFunc(t *testing.T) {
	e := New()
	require.Equal(t, engine.StatusOK, e.Initialize())
	defer e.Uninitialize()

	target := engine.AddressOf(reflect.ValueOf(double).Pointer())
	detour := engine.AddressOf(reflect.ValueOf(triple).Pointer())
	tramp, st := e.CreateHook(target, detour)
	require.Equal(t, engine.StatusOK, st)
	orig := Func[func(int) string](tramp)

	require.Equal(t, engine.StatusOK, e.EnableHook(target))
	// the hooked call runs first so the stack is already deep enough
	// when the trampoline checks it
	assert.Equal(t, "21", double(7))
	assert.Equal(t, "14", orig(7))

	require.Equal(t, engine.StatusOK, e.DisableHook(target))
	assert.Equal(t, "14", double(7))
	assert.Equal(t, "14", orig(7))

	require.Equal(t, engine.StatusOK, e.RemoveHook(target))
	assert.Equal(t, "14", double(7))
}

func TestEngineStackCheckBranch(t *testing.T) {
	// CMP RSP, [R14+0x10]; JBE grow; PUSH RBP; MOV RBP, RSP;
	// SUB RSP, 0x20; MOV EAX, 5; LEAVE; RET; grow: MOV EAX, 9; RET
	code := []byte{
		0x49, 0x3b, 0x66, 0x10,
		0x76, 0x0f,
		0x55,
		0x48, 0x89, 0xe5,
		0x48, 0x83, 0xec, 0x20,
		0xb8, 0x05, 0x00, 0x00, 0x00,
		0xc9,
		0xc3,
		0xb8, 0x09, 0x00, 0x00, 0x00,
		0xc3,
	}
	e := New()
	require.Equal(t, engine.StatusOK, e.Initialize())
	defer e.Uninitialize()

	target := mapCode(t, code)
	tramp, st := e.CreateHook(target, mapCode(t, returns(1, 0)))
	require.Equal(t, engine.StatusOK, st)
	require.Equal(t, engine.StatusOK, e.EnableHook(target))
	assert.Equal(t, 1, Func[func() int](target)())
	assert.Equal(t, 5, Func[func() int](tramp)())
}
