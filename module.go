package memohook

import (
	"fmt"
	"path/filepath"
	"unsafe"
)

// Segment is the half-open address range [Start, End).
type Segment struct {
	Start uintptr
	End   uintptr
}

func (s Segment) Len() uintptr {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether the n bytes at addr lie inside the segment.
func (s Segment) Contains(addr, n uintptr) bool {
	return addr >= s.Start && addr+n <= s.End && addr+n >= addr
}

// Bytes views the mapped segment. The segment must be readable.
func (s Segment) Bytes() []byte {
	return makeSlice(s.Start, s.Len())
}

// LoadedModule is a module mapped into the current process.
type LoadedModule struct {
	Name string
	Path string
	Base uintptr
	// Exec lists the executable segments in address order.
	Exec []Segment
}

// Text returns the first executable segment.
func (m LoadedModule) Text() (Segment, bool) {
	if len(m.Exec) == 0 {
		return Segment{}, false
	}
	return m.Exec[0], true
}

// Host is the environment capability that enumerates and loads modules.
type Host interface {
	Modules() ([]LoadedModule, error)
	Load(name string) error
}

// Locate finds the module whose basename is name, asking the host to load
// it first when it is not mapped yet.
func Locate(h Host, name string) (LoadedModule, error) {
	m, ok, err := findModule(h, name)
	if err != nil {
		return LoadedModule{}, err
	}
	if !ok {
		if err := h.Load(name); err != nil {
			return LoadedModule{}, fmt.Errorf("%w: %s: %w", ErrModuleNotFound, name, err)
		}
		if m, ok, err = findModule(h, name); err != nil {
			return LoadedModule{}, err
		}
		if !ok {
			return LoadedModule{}, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
		}
	}
	if _, ok := m.Text(); !ok {
		return LoadedModule{}, fmt.Errorf("%w: %s", ErrNoExecSegment, name)
	}
	return m, nil
}

func findModule(h Host, name string) (LoadedModule, bool, error) {
	mods, err := h.Modules()
	if err != nil {
		return LoadedModule{}, false, fmt.Errorf("enumerate modules: %w", err)
	}
	for _, m := range mods {
		base := m.Name
		if base == "" {
			base = filepath.Base(m.Path)
		}
		if base == name {
			return m, true, nil
		}
	}
	return LoadedModule{}, false, nil
}

func makeSlice(addr, size uintptr) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
