// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ptrace is a thin wrapper over the kernel's process-trace
// facility. It exposes the handful of synchronous operations the
// inferior controller needs: resuming the tracee (with or without
// signal delivery), single-instruction stepping, 8-byte-word memory
// access, register-file access, and stop-signal inspection.
//
// ptrace calls must all originate from the thread that attached to
// the tracee, so every operation here is funneled through a single
// goroutine locked to its OS thread via runtime.LockOSThread, the same
// shape golang.org/x/debug's program/server package used for its
// ptraceRun dispatcher.
package ptrace

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"bdb/arch"
)

// Tracer serializes all ptrace and wait operations for one debugging
// session onto a dedicated OS thread.
type Tracer struct {
	fc chan func() error
	ec chan error
}

// New starts the dedicated tracer thread and returns a Tracer ready to
// issue operations on it.
func New() *Tracer {
	t := &Tracer{
		fc: make(chan func() error),
		ec: make(chan error),
	}
	go t.loop()
	return t
}

func (t *Tracer) loop() {
	runtime.LockOSThread()
	for f := range t.fc {
		t.ec <- f()
	}
}

// do runs f on the tracer thread and returns its result.
func (t *Tracer) do(f func() error) error {
	t.fc <- f
	return <-t.ec
}

// StartProcess forks and execs name with the given argv and process
// attributes on the tracer thread, so the eventual PTRACE_TRACEME in
// the child is observed by the same thread that will go on to trace
// it.
func (t *Tracer) StartProcess(name string, argv []string, attr *os.ProcAttr) (proc *os.Process, err error) {
	err = t.do(func() error {
		var err1 error
		proc, err1 = os.StartProcess(name, argv, attr)
		return err1
	})
	return proc, err
}

// ContinueNoSignal resumes pid without delivering a signal.
func (t *Tracer) ContinueNoSignal(pid int) error {
	return t.do(func() error { return unix.PtraceCont(pid, 0) })
}

// ContinueSignal resumes pid, delivering signal sig to it.
func (t *Tracer) ContinueSignal(pid int, sig int) error {
	return t.do(func() error { return unix.PtraceCont(pid, sig) })
}

// SingleStep executes exactly one machine instruction in pid.
func (t *Tracer) SingleStep(pid int) error {
	return t.do(func() error { return unix.PtraceSingleStep(pid) })
}

// ReadWord reads the 8-byte word at addr in pid's address space. The
// kernel accepts unaligned addresses; callers never need to align.
func (t *Tracer) ReadWord(pid int, addr uintptr) (word uint64, err error) {
	var buf [8]byte
	err = t.do(func() error {
		n, err1 := unix.PtracePeekData(pid, addr, buf[:])
		if err1 != nil {
			return err1
		}
		if n != len(buf) {
			return fmt.Errorf("ptrace: peeked %d bytes at %#x, want %d", n, addr, len(buf))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return arch.Word(buf[:]), nil
}

// WriteWord writes the 8-byte word at addr in pid's address space.
func (t *Tracer) WriteWord(pid int, addr uintptr, word uint64) error {
	var buf [8]byte
	arch.PutWord(buf[:], word)
	return t.do(func() error {
		n, err := unix.PtracePokeData(pid, addr, buf[:])
		if err != nil {
			return err
		}
		if n != len(buf) {
			return fmt.Errorf("ptrace: poked %d bytes at %#x, want %d", n, addr, len(buf))
		}
		return nil
	})
}

// GetRegs fetches pid's general-purpose register file.
func (t *Tracer) GetRegs(pid int) (regs unix.PtraceRegs, err error) {
	err = t.do(func() error { return unix.PtraceGetRegs(pid, &regs) })
	return regs, err
}

// SetRegs writes pid's general-purpose register file.
func (t *Tracer) SetRegs(pid int, regs *unix.PtraceRegs) error {
	return t.do(func() error { return unix.PtraceSetRegs(pid, regs) })
}

// PC returns pid's current program counter (rip).
func (t *Tracer) PC(pid int) (uint64, error) {
	regs, err := t.GetRegs(pid)
	if err != nil {
		return 0, err
	}
	return regs.Rip, nil
}

// SetPC sets pid's program counter.
func (t *Tracer) SetPC(pid int, pc uint64) error {
	regs, err := t.GetRegs(pid)
	if err != nil {
		return err
	}
	regs.Rip = pc
	return t.SetRegs(pid, &regs)
}

// FramePointer returns pid's current frame pointer (rbp).
func (t *Tracer) FramePointer(pid int) (uint64, error) {
	regs, err := t.GetRegs(pid)
	if err != nil {
		return 0, err
	}
	return regs.Rbp, nil
}

// SetOptions sets ptrace options (e.g. PTRACE_O_EXITKILL) for pid.
func (t *Tracer) SetOptions(pid int, options int) error {
	return t.do(func() error { return unix.PtraceSetOptions(pid, options) })
}

// SigInfo mirrors the fields of siginfo_t that the controller needs to
// classify a SIGTRAP stop: the signal number and the trap's si_code.
type SigInfo struct {
	Signo int32
	Errno int32
	Code  int32
}

// Trap-classification codes for si_code on a SIGTRAP stop. A software
// breakpoint (INT 3) reports as SI_KERNEL on most kernels; some report
// TRAP_BRKPT. Single-step completion reports TRAP_TRACE and is
// deliberately excluded: it never sat on a planted 0xCC, so the
// pc-rewind-by-one that follows a real breakpoint hit must not apply
// to it.
const (
	siKernel  = 0x80
	trapBrkpt = 1
	trapTrace = 2
)

// IsBreakpointTrap reports whether a SIGTRAP's si_code indicates the
// trap came from executing a planted INT 3, as opposed to some other
// kernel-delivered SIGTRAP such as single-step completion (TRAP_TRACE).
func IsBreakpointTrap(code int32) bool {
	return code == siKernel || code == trapBrkpt
}

// GetSigInfo fetches the siginfo that caused pid's most recent stop.
// x/sys/unix does not wrap PTRACE_GETSIGINFO, so this issues the raw
// ptrace syscall directly, the same way the debugger's C++ original
// (peixinchen/bdb) calls ptrace(PTRACE_GETSIGINFO, ...) without a
// libc helper.
func (t *Tracer) GetSigInfo(pid int) (info SigInfo, err error) {
	err = t.do(func() error {
		var raw [128]byte // siginfo_t is 128 bytes on linux/amd64.
		_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_GETSIGINFO, uintptr(pid), 0, uintptr(unsafe.Pointer(&raw)), 0, 0)
		if errno != 0 {
			return errno
		}
		info.Signo = int32(arch.ByteOrder.Uint32(raw[0:4]))
		info.Errno = int32(arch.ByteOrder.Uint32(raw[4:8]))
		info.Code = int32(arch.ByteOrder.Uint32(raw[8:12]))
		return nil
	})
	return info, err
}

// WaitStatus is the subset of syscall.WaitStatus the controller
// branches on.
type WaitStatus struct {
	Exited   bool
	ExitCode int
	Signaled bool
	Signal   unix.Signal
	Stopped  bool
	StopSig  unix.Signal
}

// Wait blocks until pid (or, with pid == -1, any traced child) changes
// state, and reports that change. It is the tracer's one blocking
// operation besides SingleStep/ContinueNoSignal/ContinueSignal.
func (t *Tracer) Wait(pid int) (stoppedPid int, status WaitStatus, err error) {
	err = t.do(func() error {
		var ws unix.WaitStatus
		wpid, err1 := unix.Wait4(pid, &ws, 0, nil)
		if err1 != nil {
			return err1
		}
		stoppedPid = wpid
		status = WaitStatus{
			Exited:   ws.Exited(),
			ExitCode: ws.ExitStatus(),
			Signaled: ws.Signaled(),
			Signal:   ws.Signal(),
			Stopped:  ws.Stopped(),
			StopSig:  ws.StopSignal(),
		}
		return nil
	})
	return stoppedPid, status, err
}

// TraceMe marks the calling process (only ever called in a freshly
// forked child, before exec) as traced by its parent. StartProcess
// triggers this indirectly via syscall.SysProcAttr.Ptrace, which the
// runtime's fork/exec path calls in the child before exec; TraceMe is
// exposed directly for the rare caller that forks and execs by hand.
func TraceMe() error {
	return unix.PtraceTraceme()
}
