// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package breakpoint

import "testing"

// fakeMem is a minimal in-memory stand-in for the tracer's word
// read/write, keyed by address, so the enable/disable round-trip can
// be tested without a real tracee.
type fakeMem struct {
	words map[uintptr]uint64
}

func newFakeMem() *fakeMem { return &fakeMem{words: make(map[uintptr]uint64)} }

func (m *fakeMem) ReadWord(pid int, addr uintptr) (uint64, error) {
	return m.words[addr], nil
}

func (m *fakeMem) WriteWord(pid int, addr uintptr, word uint64) error {
	m.words[addr] = word
	return nil
}

func TestEnableDisableRoundTrip(t *testing.T) {
	mem := newFakeMem()
	const addr = 0x4011a0
	const original = 0x1234567890abcdef
	mem.words[addr] = original

	bp := New(mem, 1, addr)
	if bp.Enabled() {
		t.Fatalf("new breakpoint reports enabled")
	}

	if err := bp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if !bp.Enabled() {
		t.Fatalf("Enable did not set enabled")
	}
	if got := mem.words[addr] & 0xff; got != 0xCC {
		t.Fatalf("low byte after Enable = %#x, want 0xCC", got)
	}
	if got := mem.words[addr] &^ 0xff; got != original&^0xff {
		t.Fatalf("high bytes after Enable changed: got %#x, want %#x", got, original&^0xff)
	}

	if err := bp.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	if bp.Enabled() {
		t.Fatalf("Disable did not clear enabled")
	}
	if mem.words[addr] != original {
		t.Fatalf("memory after Disable = %#x, want original %#x", mem.words[addr], original)
	}
}

func TestEnableIdempotent(t *testing.T) {
	mem := newFakeMem()
	const addr = 0x1000
	mem.words[addr] = 0xdeadbeefcafebabe

	bp := New(mem, 1, addr)
	if err := bp.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	patched := mem.words[addr]
	if err := bp.Enable(); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if mem.words[addr] != patched {
		t.Fatalf("second Enable mutated memory: got %#x, want %#x", mem.words[addr], patched)
	}
}

func TestDisableIdempotent(t *testing.T) {
	mem := newFakeMem()
	const addr = 0x2000
	mem.words[addr] = 0x1111111111111111

	bp := New(mem, 1, addr)
	if err := bp.Disable(); err != nil {
		t.Fatalf("Disable on never-enabled breakpoint: %v", err)
	}
	if mem.words[addr] != 0x1111111111111111 {
		t.Fatalf("Disable on never-enabled breakpoint touched memory")
	}
}

func TestEnableDisableMultipleRounds(t *testing.T) {
	mem := newFakeMem()
	const addr = 0x3000
	const original = 0xaabbccddeeff0011
	mem.words[addr] = original

	bp := New(mem, 1, addr)
	for i := 0; i < 3; i++ {
		if err := bp.Enable(); err != nil {
			t.Fatalf("round %d Enable: %v", i, err)
		}
		if err := bp.Disable(); err != nil {
			t.Fatalf("round %d Disable: %v", i, err)
		}
		if mem.words[addr] != original {
			t.Fatalf("round %d: memory = %#x, want %#x", i, mem.words[addr], uint64(original))
		}
	}
}
