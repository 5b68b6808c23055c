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

// Symbols reports COFF values, which are section relative.
func (f *peFile) Symbols() (*Symbols, error) {
	s := &Symbols{
		Values:  make(map[string]uintptr),
		Dynamic: true,
	}
	for _, k := range f.pe.Symbols {
		if k.SectionNumber <= 0 || int(k.SectionNumber) > len(f.pe.Sections) {
			continue
		}
		sec := f.pe.Sections[k.SectionNumber-1]
		s.Values[k.Name] = uintptr(sec.VirtualAddress) + uintptr(k.Value)
	}
	return s, nil
}
