package symbols

import (
	"debug/macho"
	"io"
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

func (f *machoFile) Symbols() (*Symbols, error) {
	s := &Symbols{
		Values:  make(map[string]uintptr),
		Dynamic: f.macho.Type == macho.TypeDylib || f.macho.Flags&macho.FlagPIE != 0,
	}
	if f.macho.Symtab == nil {
		return s, nil
	}
	for _, k := range f.macho.Symtab.Syms {
		if k.Value != 0 {
			s.Values[k.Name] = uintptr(k.Value)
		}
	}
	return s, nil
}
