// Package main implements sigscan, an offline check for hook signatures.
//
// sigscan opens an ELF object and reports where a byte signature matches
// inside its executable sections, the same search the hook performs on
// the mapped module at run time.
//
// Usage:
//
//	sigscan [-sig PATTERN] [-sym NAME] FILE
package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/k2io/memohook"
	"go.uber.org/zap"
)

type section struct {
	name string
	addr uint64
	data []byte
}

type match struct {
	section string
	addr    uint64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sigscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	pattern := fs.String("sig", memohook.DefaultSignature.String(), "signature, hex bytes with ?? wildcards")
	symbol := fs.String("sym", "", "also report the address of this symbol")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: sigscan [-sig PATTERN] [-sym NAME] FILE")
		return 2
	}
	log := newLogger(*verbose, stderr, zap.NewDevelopment)
	defer log.Sync()

	sig, err := memohook.ParseSignature(*pattern)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	path := fs.Arg(0)
	secs, err := execSections(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	log.Debug("scanning", zap.String("file", path), zap.Int("sections", len(secs)), zap.Stringer("signature", sig))

	found := scanSections(secs, sig)
	for _, m := range found {
		fmt.Fprintf(stdout, "%s\t%#x\n", m.section, m.addr)
	}
	if *symbol != "" {
		syms, err := memohook.GetSymbols(path)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if v, ok := syms[*symbol]; ok {
			fmt.Fprintf(stdout, "%s\t%#x\n", *symbol, v)
		} else {
			log.Debug("symbol not present", zap.String("symbol", *symbol))
		}
	}
	if len(found) == 0 {
		fmt.Fprintln(stderr, "signature not found")
		return 1
	}
	return 0
}

// newLogger builds the verbose logger, falling back to a no-op one when
// build fails.
func newLogger(verbose bool, stderr io.Writer, build func(...zap.Option) (*zap.Logger, error)) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := build()
	if err != nil {
		fmt.Fprintln(stderr, "logger:", err)
		return zap.NewNop()
	}
	return log
}

func execSections(path string) ([]section, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var secs []section
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_EXECINSTR == 0 {
			continue
		}
		data, err := s.Data()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name, err)
		}
		secs = append(secs, section{name: s.Name, addr: s.Addr, data: data})
	}
	return secs, nil
}

// scanSections reports the first match in every section.
func scanSections(secs []section, sig memohook.Signature) []match {
	var found []match
	for _, s := range secs {
		if off, ok := sig.Scan(s.data); ok {
			found = append(found, match{section: s.name, addr: s.addr + uint64(off)})
		}
	}
	return found
}
