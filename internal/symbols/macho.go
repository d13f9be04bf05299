package symbols

import (
	"debug/macho"
	"io"
	"strings"
)

type machoFile struct {
	macho *macho.File
}

func openMacho(r io.ReaderAt) (rawFile, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &machoFile{f}, nil
}

func (f *machoFile) Symbols() (map[string]uintptr, error) {
	syms := make(map[string]uintptr)
	if f.macho.Symtab == nil {
		return syms, nil
	}
	for _, s := range f.macho.Symtab.Syms {
		if s.Sect == 0 || s.Value == 0 {
			continue
		}
		// the linker prefixes C visible names with an underscore
		syms[strings.TrimPrefix(s.Name, "_")] = uintptr(s.Value)
	}
	return syms, nil
}
