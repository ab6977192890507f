// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inferior

import "bdb/internal/dwarfidx"

// AdvancePolicy selects how Step advances past the current source
// line: StepOver runs called functions to completion, StepInto stops
// at their first line.
type AdvancePolicy int

const (
	StepOver AdvancePolicy = iota
	StepInto
)

// Step advances the tracee by one source line, honoring policy. It is
// grounded on peixinchen/bdb's include/commands/abs_single_step.hh,
// which both "step" and "next" build on: plant a transient breakpoint
// on every other line-table address within the enclosing function
// (plus, unless the function is main, one on the return address found
// via the caller's saved frame pointer), resume according to policy,
// then remove every transient breakpoint this call planted — whether
// or not one of them is what stopped the tracee.
//
// Without debug information for the current pc, or when no enclosing
// subprogram can be found, Step falls back to running to the return
// address only: the same degraded behavior as a stripped binary's
// call to "next" in the original.
func (c *Controller) Step(policy AdvancePolicy) error {
	if !c.running {
		return ErrNotRunning
	}

	pc, err := c.tracer.PC(c.pid)
	if err != nil {
		return err
	}
	sub, err := c.idx.EnclosingSubprogram(pc)
	if err != nil {
		return c.continueToReturnAddress()
	}
	here, err := c.idx.LineAt(pc)
	if err != nil {
		return c.continueToReturnAddress()
	}
	startLine := here.Line()
	currentAddr := here.Address()

	removal, err := c.plantLineBreakpoints(sub, currentAddr)
	if err != nil {
		c.teardownTransients(removal)
		return err
	}
	defer c.teardownTransients(removal)

	switch policy {
	case StepInto:
		return c.stepIntoLine(startLine)
	default:
		return c.ContinueExecute()
	}
}

// plantLineBreakpoints installs a transient breakpoint at every
// address in sub's line table other than currentAddr, plus (unless
// sub is "main") one on the return address of the current frame. It
// returns the set of addresses it planted, so the caller can remove
// exactly those and no others.
func (c *Controller) plantLineBreakpoints(sub *dwarfidx.Subprogram, currentAddr uint64) (map[uint64]bool, error) {
	removal := make(map[uint64]bool)

	cur, err := c.idx.LineAt(sub.LowPC)
	if err == nil {
		for {
			addr := cur.Address()
			if addr >= sub.HighPC {
				break
			}
			if addr != currentAddr {
				if _, exists := c.breakpoints[addr]; !exists {
					if err := c.SetBreakpointAtAddr(addr); err != nil {
						return removal, err
					}
					removal[addr] = true
				}
			}
			if cur.EndSequence() {
				break
			}
			if err := cur.Advance(); err != nil {
				break
			}
		}
	}

	if sub.Name != "main" {
		retAddr, err := c.callerReturnAddress()
		if err == nil {
			if _, exists := c.breakpoints[retAddr]; !exists {
				if err := c.SetBreakpointAtAddr(retAddr); err != nil {
					return removal, err
				}
				removal[retAddr] = true
			}
		}
	}

	return removal, nil
}

// callerReturnAddress reads the return address of the current stack
// frame via the saved-frame-pointer convention: the word one pointer
// past the frame pointer is the caller's return address, assuming the
// tracee was built with frame pointers retained.
func (c *Controller) callerReturnAddress() (uint64, error) {
	fp, err := c.tracer.FramePointer(c.pid)
	if err != nil {
		return 0, err
	}
	return c.tracer.ReadWord(c.pid, uintptr(fp+8))
}

// stepIntoLine single-steps one machine instruction at a time,
// including across call instructions, until the source line changes
// from startLine or debug information runs out.
func (c *Controller) stepIntoLine(startLine int) error {
	for {
		if err := c.SingleStepWithBreakpointCheck(); err != nil {
			return err
		}
		if !c.running {
			return nil
		}
		pc, err := c.tracer.PC(c.pid)
		if err != nil {
			return err
		}
		cur, err := c.idx.LineAt(pc)
		if err != nil {
			// Stepped into code with no line information (e.g. a PLT
			// stub or a library call): fall back to a plain resume,
			// matching Step::single_step_handle's no_debug_information
			// catch in the original.
			return c.ContinueExecute()
		}
		if cur.Line() != startLine {
			return nil
		}
	}
}

// continueToReturnAddress plants a single transient breakpoint on the
// current frame's return address and resumes, for when no usable line
// table is available to drive the per-line stepping loop.
func (c *Controller) continueToReturnAddress() error {
	retAddr, err := c.callerReturnAddress()
	if err != nil {
		return err
	}
	removal := make(map[uint64]bool)
	if _, exists := c.breakpoints[retAddr]; !exists {
		if err := c.SetBreakpointAtAddr(retAddr); err != nil {
			return err
		}
		removal[retAddr] = true
	}
	defer c.teardownTransients(removal)
	return c.ContinueExecute()
}

// teardownTransients disables and unregisters every breakpoint this
// Step call planted, regardless of which one (if any) was hit. It
// runs via defer on every return path so a stepping error never
// leaves a transient breakpoint resident in the tracee.
func (c *Controller) teardownTransients(removal map[uint64]bool) {
	for addr := range removal {
		bp, ok := c.breakpoints[addr]
		if !ok {
			continue
		}
		if c.running && bp.Enabled() {
			bp.Disable()
		}
		delete(c.breakpoints, addr)
	}
}
