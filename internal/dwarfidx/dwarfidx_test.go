// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfidx

import (
	"debug/dwarf"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatalf("Load of missing file: got nil error")
	}
}

func TestLoadNonELF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-elf")
	if err := os.WriteFile(path, []byte("not an ELF file"), 0o644); err != nil {
		t.Fatal(err)
	}
	ix, err := Load(path)
	if err != nil {
		t.Fatalf("Load of non-ELF file returned error: %v", err)
	}
	if !ix.Empty() {
		t.Fatalf("index for non-ELF file reports non-empty")
	}
}

func TestEmptyIndexQueriesFail(t *testing.T) {
	var ix Index
	if _, err := ix.FunctionEntry("main"); !errors.Is(err, ErrNoDebugInfo) {
		t.Errorf("FunctionEntry on empty index: got %v, want ErrNoDebugInfo", err)
	}
	if _, err := ix.EnclosingSubprogram(0x1000); !errors.Is(err, ErrNoDebugInfo) {
		t.Errorf("EnclosingSubprogram on empty index: got %v, want ErrNoDebugInfo", err)
	}
	if _, err := ix.LineAt(0x1000); !errors.Is(err, ErrNoDebugInfo) {
		t.Errorf("LineAt on empty index: got %v, want ErrNoDebugInfo", err)
	}
}

func TestHighPCAddressClass(t *testing.T) {
	entry := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrHighpc, Val: uint64(0x401300), Class: dwarf.ClassAddress},
	}}
	high, ok := highPC(entry, 0x401200)
	if !ok || high != 0x401300 {
		t.Fatalf("highPC(ClassAddress) = (%#x, %v), want (0x401300, true)", high, ok)
	}
}

func TestHighPCConstantClass(t *testing.T) {
	entry := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrHighpc, Val: int64(0x100), Class: dwarf.ClassConstant},
	}}
	high, ok := highPC(entry, 0x401200)
	if !ok || high != 0x401300 {
		t.Fatalf("highPC(ClassConstant) = (%#x, %v), want (0x401300, true)", high, ok)
	}
}

func TestHighPCMissingField(t *testing.T) {
	entry := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrLowpc, Val: uint64(0x401200), Class: dwarf.ClassAddress},
	}}
	if _, ok := highPC(entry, 0x401200); ok {
		t.Fatalf("highPC with no AttrHighpc field reported ok")
	}
}

func TestSubprogramContains(t *testing.T) {
	s := &Subprogram{Name: "main", LowPC: 0x1000, HighPC: 0x1010}
	if !s.Contains(0x1000) {
		t.Errorf("Contains(LowPC) = false, want true")
	}
	if s.Contains(0x1010) {
		t.Errorf("Contains(HighPC) = true, want false (half-open range)")
	}
	if !s.Contains(0x1008) {
		t.Errorf("Contains(mid-range) = false, want true")
	}
}
