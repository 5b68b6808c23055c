// Package symbols reads symbol tables of object files on disk.
package symbols

import (
	"fmt"
	"io"
	"os"
)

// Symbols is the symbol table of one object file.
type Symbols struct {
	// Values maps symbol names to the values recorded in the file.
	Values map[string]uintptr
	// Dynamic is set for position independent objects, whose values
	// are offsets from the load base.
	Dynamic bool
}

type rawFile interface {
	Symbols() (*Symbols, error)
}

var objType = []func(io.ReaderAt) (rawFile, error){
	openElf,
	openMacho,
	openPE,
}

// ReadSymbols opens the named object file and returns its symbols.
func ReadSymbols(name string) (*Symbols, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	for _, try := range objType {
		if raw, err := try(r); err == nil {
			return raw.Symbols()
		}
	}
	return nil, fmt.Errorf("open %s: unrecognized object file", name)
}
