//go:build linux

package memohook

import (
	"path/filepath"
	"sort"

	"github.com/prometheus/procfs"
)

// ProcHost enumerates the modules of the current process from
// /proc/self/maps.
type ProcHost struct {
	// Loader maps a module by name, typically through a cgo dlopen.
	// Nil means modules must already be mapped.
	Loader func(name string) error
}

func (p ProcHost) Modules() ([]LoadedModule, error) {
	self, err := procfs.Self()
	if err != nil {
		return nil, err
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return nil, err
	}
	return groupMaps(maps), nil
}

func (p ProcHost) Load(name string) error {
	if p.Loader == nil {
		return ErrLoadUnsupported
	}
	return p.Loader(name)
}

// groupMaps folds file-backed mappings into one module per path.
func groupMaps(maps []*procfs.ProcMap) []LoadedModule {
	byPath := make(map[string]*LoadedModule)
	var order []string
	for _, pm := range maps {
		if pm.Pathname == "" || pm.Pathname[0] != '/' {
			// anonymous, [heap], [stack], [vdso] ...
			continue
		}
		m, ok := byPath[pm.Pathname]
		if !ok {
			m = &LoadedModule{
				Name: filepath.Base(pm.Pathname),
				Path: pm.Pathname,
				Base: pm.StartAddr,
			}
			byPath[pm.Pathname] = m
			order = append(order, pm.Pathname)
		}
		if pm.StartAddr < m.Base {
			m.Base = pm.StartAddr
		}
		if pm.Perms != nil && pm.Perms.Execute {
			m.Exec = append(m.Exec, Segment{Start: pm.StartAddr, End: pm.EndAddr})
		}
	}
	mods := make([]LoadedModule, 0, len(order))
	for _, path := range order {
		m := byPath[path]
		sort.Slice(m.Exec, func(i, j int) bool { return m.Exec[i].Start < m.Exec[j].Start })
		mods = append(mods, *m)
	}
	return mods
}
