// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inferior is the debugger's core: it owns the traced child's
// lifecycle, the breakpoint registry and pending set, the stop-cause
// dispatcher, and the source-line stepping engine. It is grounded on
// golang-debug's program/server.Server (Run/Resume/Breakpoint/
// setBreakpoints/liftBreakpoints) for the ptrace choreography and on
// peixinchen/bdb's include/inferior.hh (start/stop/continue_execute/
// handle_wait_signal_and_exit) for the state machine and stop-cause
// branching this package reproduces in Go.
package inferior

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"bdb/internal/breakpoint"
	"bdb/internal/dwarfidx"
	"bdb/internal/ptrace"
	"bdb/internal/source"
)

// Sentinel errors, mirroring the exception kinds peixinchen/bdb raises
// (no_such_command and no_debug_information live in internal/command
// and internal/dwarfidx respectively; these are the inferior's own).
var (
	ErrNotRunning   = errors.New("inferior: not running")
	ErrLaunchFailed = errors.New("inferior: launch failed")
)

// Controller manages exactly one tracee at a time. It is not safe for
// concurrent use: per spec, commands execute to completion before the
// next is accepted, so there is exactly one caller at any moment.
type Controller struct {
	tracer *ptrace.Tracer
	idx    *dwarfidx.Index
	out    io.Writer

	program string

	proc          *os.Process
	pid           int // 0 is the "no child" sentinel
	running       bool
	pendingSignal int

	breakpoints map[uint64]*breakpoint.Breakpoint
	pending     map[uint64]bool
}

// New returns a controller for program, not yet running. idx may be an
// empty index (no debug information); tracer is the shared ptrace
// dispatcher for the session.
func New(out io.Writer, program string, idx *dwarfidx.Index, tracer *ptrace.Tracer) *Controller {
	return &Controller{
		tracer:      tracer,
		idx:         idx,
		out:         out,
		program:     program,
		breakpoints: make(map[uint64]*breakpoint.Breakpoint),
		pending:     make(map[uint64]bool),
	}
}

// Running reports whether the tracee is alive and has not yet been
// reaped.
func (c *Controller) Running() bool { return c.running }

// FunctionEntry resolves name to its entry address via the debug-info
// index.
func (c *Controller) FunctionEntry(name string) (uint64, error) {
	return c.idx.FunctionEntry(name)
}

// ListFunction prints a context window of source centered on the
// first line of the named function.
func (c *Controller) ListFunction(w io.Writer, name string, window int) error {
	addr, err := c.idx.FunctionEntry(name)
	if err != nil {
		return err
	}
	cur, err := c.idx.LineAt(addr)
	if err != nil {
		return err
	}
	return source.Print(w, cur.File(), cur.Line(), window)
}

// Start forks and execs the tracee with args appended to argv,
// promotes every pending breakpoint into the registry, and resumes
// execution. Preconditions: not running.
func (c *Controller) Start(args []string) error {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, c.program)
	argv = append(argv, args...)

	proc, err := c.tracer.StartProcess(c.program, argv, &os.ProcAttr{
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
		Sys: &syscall.SysProcAttr{
			Ptrace:    true,
			Pdeathsig: syscall.SIGKILL,
		},
	})
	if err != nil {
		return fmt.Errorf("fork failed: %w", err)
	}
	c.proc = proc
	c.pid = proc.Pid

	_, status, err := c.tracer.Wait(c.pid)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if status.Exited || status.Signaled {
		c.resetState()
		return ErrLaunchFailed
	}

	for addr := range c.pending {
		bp := breakpoint.New(c.tracer, c.pid, uintptr(addr))
		if err := bp.Enable(); err != nil {
			return err
		}
		c.breakpoints[addr] = bp
	}
	c.pending = make(map[uint64]bool)
	c.running = true

	return c.ContinueExecute()
}

// Stop forcibly terminates the tracee with SIGKILL and reaps it.
// Preconditions: a child identifier exists (Start has been called at
// least once since the last reset).
func (c *Controller) Stop() error {
	if c.pid == 0 {
		return ErrNotRunning
	}
	if c.proc != nil {
		c.proc.Signal(unix.SIGKILL)
	}
	_, status, err := c.tracer.Wait(c.pid)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if status.Signaled {
		fmt.Fprintf(c.out, "[process %d killed by signal %s]\n", c.pid, status.Signal)
	} else if status.Exited {
		fmt.Fprintf(c.out, "[process %d exited, code %d]\n", c.pid, status.ExitCode)
	}
	c.resetState()
	return nil
}

// SetBreakpointAtAddr installs a breakpoint at addr. If the tracee
// isn't running, addr is recorded in the pending set instead and
// promoted at the next Start. Idempotent once installed.
func (c *Controller) SetBreakpointAtAddr(addr uint64) error {
	if !c.running {
		c.pending[addr] = true
		return nil
	}
	if _, ok := c.breakpoints[addr]; ok {
		return nil
	}
	bp := breakpoint.New(c.tracer, c.pid, uintptr(addr))
	if err := bp.Enable(); err != nil {
		return err
	}
	c.breakpoints[addr] = bp
	return nil
}

// ContinueExecute steps over a breakpoint at the current pc if one is
// enabled there, delivers any pending signal (or none), and resumes
// the tracee until its next stop or termination.
func (c *Controller) ContinueExecute() error {
	if !c.running {
		return ErrNotRunning
	}
	if _, err := c.stepOverBreakpointIfPresent(); err != nil {
		return err
	}
	if !c.running {
		return nil // the tracee terminated during the step-over
	}

	if c.pendingSignal != 0 {
		sig := c.pendingSignal
		c.pendingSignal = 0
		if err := c.tracer.ContinueSignal(c.pid, sig); err != nil {
			return err
		}
	} else {
		if err := c.tracer.ContinueNoSignal(c.pid); err != nil {
			return err
		}
	}
	return c.waitDispatch()
}

// SingleStepWithBreakpointCheck executes exactly one machine
// instruction, transparently stepping over a breakpoint at the
// current pc if present. Used as a building block by the source-line
// stepping engine.
func (c *Controller) SingleStepWithBreakpointCheck() error {
	if !c.running {
		return ErrNotRunning
	}
	stepped, err := c.stepOverBreakpointIfPresent()
	if err != nil {
		return err
	}
	if stepped || !c.running {
		return nil
	}
	if err := c.tracer.SingleStep(c.pid); err != nil {
		return err
	}
	return c.waitDispatch()
}

// stepOverBreakpointIfPresent disables a breakpoint enabled at the
// current pc, executes one instruction, waits (through the same
// stop-dispatch routine any other wait goes through), and re-enables
// it. It reports whether a breakpoint was actually present, so callers
// that need to guarantee exactly one instruction of forward progress
// know whether they still owe the tracee a plain single-step.
func (c *Controller) stepOverBreakpointIfPresent() (stepped bool, err error) {
	pc, err := c.tracer.PC(c.pid)
	if err != nil {
		return false, err
	}
	bp, ok := c.breakpoints[pc]
	if !ok || !bp.Enabled() {
		return false, nil
	}
	if err := bp.Disable(); err != nil {
		return false, err
	}
	if err := c.tracer.SingleStep(c.pid); err != nil {
		return false, err
	}
	if err := c.waitDispatch(); err != nil {
		return false, err
	}
	if !c.running {
		return true, nil // tracee died mid-step; nothing left to re-enable
	}
	if err := bp.Enable(); err != nil {
		return false, err
	}
	return true, nil
}

// waitDispatch blocks for the tracee's next stop or termination and
// branches on the stop cause, per spec §4.4's "Stop dispatch". Every
// resume in this package is immediately followed by exactly one call
// to waitDispatch (or the Start's initial post-exec wait).
func (c *Controller) waitDispatch() error {
	wpid, status, err := c.tracer.Wait(-1)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}

	if status.Exited {
		fmt.Fprintf(c.out, "[process %d exited normally, code %d]\n", wpid, status.ExitCode)
		c.resetState()
		return nil
	}
	if status.Signaled {
		fmt.Fprintf(c.out, "[process %d killed by signal %s]\n", wpid, status.Signal)
		c.resetState()
		return nil
	}
	if !status.Stopped {
		return nil
	}

	if status.StopSig == unix.SIGTRAP {
		info, err := c.tracer.GetSigInfo(wpid)
		if err != nil {
			return err
		}
		if ptrace.IsBreakpointTrap(info.Code) {
			pc, err := c.tracer.PC(wpid)
			if err != nil {
				return err
			}
			pc--
			if err := c.tracer.SetPC(wpid, pc); err != nil {
				return err
			}
			if cur, err := c.idx.LineAt(pc); err == nil {
				source.Print(c.out, cur.File(), cur.Line(), 0)
			}
		}
		return nil
	}

	c.pendingSignal = int(status.StopSig)
	fmt.Fprintf(c.out, "[signal %s]\n", status.StopSig)
	return nil
}

// resetState collapses a Terminated tracee back to NotStarted: the
// registry is cleared and the pending set is left as it is. Start has
// already emptied the pending set when it promoted it, so breakpoints
// from the finished run are not re-installed on the next Start; only
// addresses requested while no tracee was running are.
func (c *Controller) resetState() {
	c.running = false
	c.pid = 0
	c.proc = nil
	c.pendingSignal = 0
	c.breakpoints = make(map[uint64]*breakpoint.Breakpoint)
}
