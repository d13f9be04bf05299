package native

import (
	"reflect"
	"unsafe"

	"github.com/k2io/minhook/engine"
)

// funcval is the runtime layout a func value points to.
type funcval struct {
	fn uintptr
}

// Func returns a func value of type T that calls the code at addr, usually a
// trampoline. The value must not be called once the hook owning addr is
// removed. Func panics if T is not a func type.
func Func[T any](addr engine.Address) T {
	var fn T
	if reflect.TypeOf((*T)(nil)).Elem().Kind() != reflect.Func {
		panic("native: Func needs a func type")
	}
	if addr.IsNil() {
		return fn
	}
	fv := &funcval{fn: addr.Uintptr()}
	*(*unsafe.Pointer)(unsafe.Pointer(&fn)) = unsafe.Pointer(fv)
	return fn
}
