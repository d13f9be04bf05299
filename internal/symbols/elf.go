package symbols

import (
	"debug/elf"
	"errors"
	"io"
)

type elfFile struct {
	elf *elf.File
}

func openElf(r io.ReaderAt) (rawFile, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &elfFile{f}, nil
}

// Symbols merges .symtab and .dynsym; stripped shared objects only carry the
// latter.
func (e *elfFile) Symbols() (map[string]uintptr, error) {
	syms := make(map[string]uintptr)
	found := false
	for _, read := range []func() ([]elf.Symbol, error){e.elf.Symbols, e.elf.DynamicSymbols} {
		stab, err := read()
		if errors.Is(err, elf.ErrNoSymbols) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		addElfFuncs(syms, stab)
	}
	if !found {
		return nil, elf.ErrNoSymbols
	}
	return syms, nil
}

func addElfFuncs(syms map[string]uintptr, stab []elf.Symbol) {
	for _, k := range stab {
		if elf.ST_TYPE(k.Info) != elf.STT_FUNC || k.Value == 0 {
			continue
		}
		syms[k.Name] = uintptr(k.Value)
	}
}
