// Package symbols reads function symbol tables from object files so that a
// hook target can be named by module and symbol instead of by address.
package symbols

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/k2io/minhook/internal/logger"
)

var (
	// ErrModuleNotFound means the module is not loaded in this process.
	ErrModuleNotFound = errors.New("module not found")
	// ErrFunctionNotFound means the module has no such function symbol.
	ErrFunctionNotFound = errors.New("function not found")
)

type rawFile interface {
	Symbols() (map[string]uintptr, error)
}

var objType = []func(io.ReaderAt) (rawFile, error){
	openElf,
	openMacho,
	openPE,
}

// ReadSymbols returns the function symbols of the object file at name, keyed
// by symbol name. Values are the link-time addresses.
func ReadSymbols(name string) (map[string]uintptr, error) {
	log := logger.GetLogger().WithField("file", name)

	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, try := range objType {
		raw, err := try(r)
		if err != nil {
			log.WithError(err).Debug("not this object format")
			continue
		}
		return raw.Symbols()
	}
	return nil, fmt.Errorf("open %s: unrecognized object file", name)
}
