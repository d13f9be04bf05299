package minhook

import (
	"reflect"

	"github.com/k2io/minhook/engine"
)

// FuncAddress returns the entry point of the code behind fn, which must be a
// non-nil func value. Closures report the address of their shared code.
func FuncAddress(fn any) (engine.Address, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return engine.Nil, ErrInputType
	}
	return engine.AddressOf(v.Pointer()), nil
}

// CreateFunc hooks the Go function target with detour. Both must be funcs of
// the same type. It is meant for engines that patch machine code; the table
// engine hands out its own addresses through Declare.
func (r *Registry) CreateFunc(target, detour any) (*Hook, error) {
	vt := reflect.ValueOf(target)
	vd := reflect.ValueOf(detour)
	if vt.Kind() != reflect.Func || vd.Kind() != reflect.Func {
		return nil, ErrInputType
	}
	if vt.Type() != vd.Type() {
		return nil, ErrDifferentType
	}
	ta, err := FuncAddress(target)
	if err != nil {
		return nil, err
	}
	da, err := FuncAddress(detour)
	if err != nil {
		return nil, err
	}
	return r.Create(ta, da)
}
