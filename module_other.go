//go:build !linux

package memohook

// ProcHost is only implemented on Linux.
type ProcHost struct {
	Loader func(name string) error
}

func (p ProcHost) Modules() ([]LoadedModule, error) {
	return nil, ErrHostUnsupported
}

func (p ProcHost) Load(name string) error {
	if p.Loader == nil {
		return ErrLoadUnsupported
	}
	return p.Loader(name)
}
