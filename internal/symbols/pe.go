package symbols

import (
	"debug/pe"
	"io"
)

type peFile struct {
	pe *pe.File
}

func openPE(r io.ReaderAt) (rawFile, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &peFile{f}, nil
}

// Symbols returns relative virtual addresses: COFF symbol values are offsets
// into their section.
func (f *peFile) Symbols() (map[string]uintptr, error) {
	syms := make(map[string]uintptr)
	for _, s := range f.pe.Symbols {
		if s.SectionNumber <= 0 || int(s.SectionNumber) > len(f.pe.Sections) {
			continue
		}
		sect := f.pe.Sections[s.SectionNumber-1]
		if sect.Characteristics&pe.IMAGE_SCN_CNT_CODE == 0 {
			continue
		}
		syms[s.Name] = uintptr(sect.VirtualAddress) + uintptr(s.Value)
	}
	return syms, nil
}
