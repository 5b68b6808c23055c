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

// Symbols merges the static and the dynamic table. Stripped objects
// still carry the latter.
func (e *elfFile) Symbols() (*Symbols, error) {
	s := &Symbols{
		Values:  make(map[string]uintptr),
		Dynamic: e.elf.Type == elf.ET_DYN,
	}
	static, err := e.elf.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, err
	}
	dynamic, err := e.elf.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, err
	}
	for _, k := range append(static, dynamic...) {
		if k.Name == "" || elf.ST_TYPE(k.Info) != elf.STT_FUNC || k.Value == 0 {
			continue
		}
		s.Values[k.Name] = uintptr(k.Value)
	}
	return s, nil
}
