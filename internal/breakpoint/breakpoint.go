// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package breakpoint implements a single address-keyed software
// breakpoint: the INT 3 (0xCC) instruction patch and its exact
// round-trip back to the original byte. It is grounded on the
// patch/restore pair in golang-debug's program/server.setBreakpoints
// /liftBreakpoints and on the original C++ Breakpoint::enable/disable
// in peixinchen/bdb's include/breakpoint.hh, which this package
// mirrors method-for-method.
package breakpoint

import "bdb/arch"

// wordReadWriter is the minimal ptrace surface a Breakpoint needs: read
// and write the 8-byte word containing the target instruction. The
// inferior controller's *ptrace.Tracer satisfies this.
type wordReadWriter interface {
	ReadWord(pid int, addr uintptr) (uint64, error)
	WriteWord(pid int, addr uintptr, word uint64) error
}

// Breakpoint is one software breakpoint planted at Addr in the address
// space of the process identified by PID. It owns the original byte at
// Addr so Disable can restore it exactly.
type Breakpoint struct {
	tracer  wordReadWriter
	pid     int
	addr    uintptr
	enabled bool
	saved   byte // low byte of the word at addr, before patching
}

// New returns a breakpoint at addr for pid, not yet enabled. No memory
// is touched until Enable is called.
func New(tracer wordReadWriter, pid int, addr uintptr) *Breakpoint {
	return &Breakpoint{tracer: tracer, pid: pid, addr: addr}
}

// Addr returns the breakpoint's target address.
func (b *Breakpoint) Addr() uintptr { return b.addr }

// Enabled reports whether the breakpoint is currently patched into the
// tracee's instruction stream.
func (b *Breakpoint) Enabled() bool { return b.enabled }

// Enable patches the trap opcode into the tracee at Addr, saving the
// original low byte so Disable can restore it. A no-op if already
// enabled.
func (b *Breakpoint) Enable() error {
	if b.enabled {
		return nil
	}
	data, err := b.tracer.ReadWord(b.pid, b.addr)
	if err != nil {
		return err
	}
	b.saved = byte(data & 0xff)
	patched := (data &^ 0xff) | arch.BreakpointInstr
	if err := b.tracer.WriteWord(b.pid, b.addr, patched); err != nil {
		return err
	}
	b.enabled = true
	return nil
}

// Disable restores the saved original byte at Addr. A no-op if already
// disabled.
func (b *Breakpoint) Disable() error {
	if !b.enabled {
		return nil
	}
	data, err := b.tracer.ReadWord(b.pid, b.addr)
	if err != nil {
		return err
	}
	restored := (data &^ 0xff) | uint64(b.saved)
	if err := b.tracer.WriteWord(b.pid, b.addr, restored); err != nil {
		return err
	}
	b.enabled = false
	return nil
}
