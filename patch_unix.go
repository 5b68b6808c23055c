//go:build unix

package memohook

import (
	"golang.org/x/sys/unix"
)

var pageSize = uintptr(unix.Getpagesize())

// protectPages makes the pages covering [addr, addr+size) writable while
// keeping them executable.
func protectPages(addr, size uintptr) error {
	start := pageSize * (addr / pageSize)
	length := pageSize * ((addr + size + pageSize - 1 - start) / pageSize)
	for i := uintptr(0); i < length; i += pageSize {
		err := unix.Mprotect(makeSlice(start+i, pageSize), unix.PROT_EXEC|unix.PROT_READ|unix.PROT_WRITE)
		if err != nil {
			return err
		}
	}
	return nil
}
