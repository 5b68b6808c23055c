package memohook

import (
	sym "github.com/k2io/memohook/internal/objSymbols"
)

// GetSymbols returns the function symbols recorded in the named object
// file, keyed by name.
func GetSymbols(name string) (map[string]uintptr, error) {
	s, err := sym.ReadSymbols(name)
	if err != nil {
		return nil, err
	}
	return s.Values, nil
}
