package minhook

import (
	"errors"
	"fmt"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/symbols"
)

// Symbols returns the function symbols of a module loaded in this process
// with their runtime addresses. The empty module is the running executable.
// The names are those CreateAPI accepts with the native engine.
func Symbols(module string) (map[string]engine.Address, error) {
	tbl, err := symbols.LoadModule(module)
	if err != nil {
		if errors.Is(err, symbols.ErrModuleNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrModuleNotFound, err)
		}
		return nil, err
	}
	addrs := tbl.Addrs()
	syms := make(map[string]engine.Address, len(addrs))
	for name, addr := range addrs {
		syms[name] = engine.AddressOf(addr)
	}
	return syms, nil
}
