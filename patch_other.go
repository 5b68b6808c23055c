//go:build !unix

package memohook

func protectPages(addr, size uintptr) error {
	return ErrHostUnsupported
}
