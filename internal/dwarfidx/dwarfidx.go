// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dwarfidx answers the three queries the inferior controller
// needs from an executable's embedded debug information: a function's
// entry address by name, the source line covering an address, and the
// subprogram enclosing a program counter.
//
// It is grounded on golang-debug's program/server/dwarf.go
// (lookupSym/lookupPC's DFS-over-dwarf.Reader pattern for name and
// address lookups) and debug/dwarf/symbol.go's LookupFunction, adapted
// to the real standard-library debug/dwarf package rather than the
// teacher's own 2014-era fork of it: that fork existed only because
// upstream debug/dwarf didn't yet have LineReader or Reader.SeekPC,
// both of which this package leans on directly for line-table
// cursors, so there is no reason to carry the fork forward.
package dwarfidx

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"io"
	"os"
)

// ErrNoDebugInfo is returned by every query when the index has no
// usable debug information, whether because the executable couldn't
// be parsed as ELF, carries no DWARF sections, or (for a specific
// query) the requested name/address isn't described by what is
// present.
var ErrNoDebugInfo = errors.New("no debug information")

// Index answers name/address queries against one executable's DWARF
// data. It is immutable after Load and safe for concurrent read-only
// use (the inferior controller only ever calls it from its own
// single-threaded command loop, so this is not load-bearing today).
type Index struct {
	data *dwarf.Data // nil if the executable has no usable debug info
}

// Load parses path as an ELF executable and extracts its DWARF
// sections. A file that can't be opened is a hard error; a file that
// opens but isn't ELF, or is ELF without DWARF sections, yields an
// empty index (Empty() reports true) rather than an error — per spec,
// missing debug information disables source-aware commands but is
// never fatal to the session.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		return &Index{}, nil
	}
	data, err := ef.DWARF()
	if err != nil {
		return &Index{}, nil
	}
	return &Index{data: data}, nil
}

// Empty reports whether the index has no DWARF data to query.
func (ix *Index) Empty() bool { return ix == nil || ix.data == nil }

// Subprogram describes a DWARF subprogram (function) entry.
type Subprogram struct {
	Name         string
	LowPC, HighPC uint64
}

// Contains reports whether pc lies in [LowPC, HighPC).
func (s *Subprogram) Contains(pc uint64) bool { return s.LowPC <= pc && pc < s.HighPC }

// FunctionEntry returns the entry address of the named function,
// scanning compilation units' entries depth-first and returning the
// low-pc of the first subprogram entry whose name matches exactly.
func (ix *Index) FunctionEntry(name string) (uint64, error) {
	if ix.Empty() {
		return 0, ErrNoDebugInfo
	}
	r := ix.data.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return 0, err
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}
		if n, ok := entry.Val(dwarf.AttrName).(string); !ok || n != name {
			continue
		}
		low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			return 0, ErrNoDebugInfo
		}
		return low, nil
	}
	return 0, ErrNoDebugInfo
}

// EnclosingSubprogram returns the subprogram whose address range
// contains pc.
func (ix *Index) EnclosingSubprogram(pc uint64) (*Subprogram, error) {
	if ix.Empty() {
		return nil, ErrNoDebugInfo
	}
	r := ix.data.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}
		low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		high, ok := highPC(entry, low)
		if !ok {
			continue
		}
		if pc < low || pc >= high {
			continue
		}
		name, _ := entry.Val(dwarf.AttrName).(string)
		return &Subprogram{Name: name, LowPC: low, HighPC: high}, nil
	}
	return nil, ErrNoDebugInfo
}

// highPC interprets the AttrHighpc field, which DWARF4+ producers may
// emit either as an absolute address or as an offset from low.
func highPC(entry *dwarf.Entry, low uint64) (uint64, bool) {
	field := entry.AttrField(dwarf.AttrHighpc)
	if field == nil {
		return 0, false
	}
	switch field.Class {
	case dwarf.ClassAddress:
		v, ok := field.Val.(uint64)
		return v, ok
	case dwarf.ClassConstant:
		switch v := field.Val.(type) {
		case int64:
			return low + uint64(v), true
		case uint64:
			return low + v, true
		}
	}
	return 0, false
}

// Cursor is a forward iterator over a compilation unit's line table,
// positioned at a (file, line, address) triple. Advance moves it to
// the next record; addresses are non-decreasing as long as the
// producer emitted them in order, which is the normal case for
// unoptimized code (see DESIGN.md for the inlined/out-of-order case,
// which this cursor does not attempt to reorder).
type Cursor struct {
	lr    *dwarf.LineReader
	entry dwarf.LineEntry
}

// File returns the source file path of the cursor's current record.
func (c *Cursor) File() string { return c.entry.File.Name }

// Line returns the source line number of the cursor's current record.
func (c *Cursor) Line() int { return c.entry.Line }

// Address returns the machine address of the cursor's current record.
func (c *Cursor) Address() uint64 { return c.entry.Address }

// EndSequence reports whether the current record marks the end of a
// contiguous instruction sequence (no valid line for its address).
func (c *Cursor) EndSequence() bool { return c.entry.EndSequence }

// Advance moves the cursor to the next line record. It returns
// io.EOF when the line table is exhausted.
func (c *Cursor) Advance() error {
	return c.lr.Next(&c.entry)
}

// LineAt locates the compilation unit whose pc range contains addr
// and returns a cursor positioned at the line record for addr.
func (ix *Index) LineAt(addr uint64) (*Cursor, error) {
	if ix.Empty() {
		return nil, ErrNoDebugInfo
	}
	r := ix.data.Reader()
	cu, err := r.SeekPC(addr)
	if err != nil {
		return nil, ErrNoDebugInfo
	}
	lr, err := ix.data.LineReader(cu)
	if err != nil || lr == nil {
		return nil, ErrNoDebugInfo
	}
	var entry dwarf.LineEntry
	if err := lr.SeekPC(addr, &entry); err != nil {
		if errors.Is(err, io.EOF) || err == dwarf.ErrUnknownPC {
			return nil, ErrNoDebugInfo
		}
		return nil, ErrNoDebugInfo
	}
	return &Cursor{lr: lr, entry: entry}, nil
}
