// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch contains the one architecture this debugger supports:
// linux/amd64. Multi-architecture support is out of scope (see the
// project's non-goals); this package exists only so the rest of the
// tree has a single, named place for the handful of word-size and
// trap-opcode constants that would otherwise be scattered magic
// numbers.
package arch

import "encoding/binary"

// WordSize is the width, in bytes, of a general-purpose register and of
// the words ptrace's PEEKDATA/POKEDATA operate on.
const WordSize = 8

// BreakpointInstr is the single-byte INT 3 trap used to implement
// software breakpoints.
const BreakpointInstr = 0xCC

// ByteOrder is the byte order for words read from or written to the
// tracee's address space and register file.
var ByteOrder binary.ByteOrder = binary.LittleEndian

// PutWord encodes v into buf, which must be WordSize bytes long.
func PutWord(buf []byte, v uint64) {
	if len(buf) != WordSize {
		panic("arch: bad word size")
	}
	ByteOrder.PutUint64(buf, v)
}

// Word decodes a WordSize-byte buffer into a uint64.
func Word(buf []byte) uint64 {
	if len(buf) != WordSize {
		panic("arch: bad word size")
	}
	return ByteOrder.Uint64(buf)
}
