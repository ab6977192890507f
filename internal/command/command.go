// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package command implements the debugger's command table: the
// ordered set of {long name, short name, help, invoke} descriptors the
// REPL dispatches user input against. It is grounded on
// peixinchen/bdb's include/commands/*.hh (one struct per command,
// registered into a single ordered table in inferior.hh) and on the
// descriptor-table shape golang-debug's cmd/viewcore/commands.go uses
// for its own command set.
package command

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bdb/internal/config"
	"bdb/internal/dwarfidx"
	"bdb/internal/inferior"
)

// ErrNoSuchCommand is returned by Dispatch when no descriptor's long
// or short name matches the input.
var ErrNoSuchCommand = errors.New("no such command")

// Env bundles the state a command invoker needs: the controller it
// operates on, the session's configuration, and where to write its
// output. Per spec §9's "back-reference from commands to the
// controller" note, commands own nothing themselves — the dispatcher
// passes everything in by argument.
type Env struct {
	Ctl *inferior.Controller
	Cfg config.Config
	Out io.Writer
}

// Command is one entry in the dispatch table.
type Command struct {
	Long  string
	Short string
	Help  string
	Run   func(env Env, args []string) error
}

// Table is the debugger's fixed, ordered command set.
var Table = []Command{
	{
		Long: "run", Short: "r",
		Help: "run [args...]   start (or restart) the program, optionally with new arguments",
		Run:  runCmd,
	},
	{
		Long: "continue", Short: "c",
		Help: "continue        resume the stopped program",
		Run:  continueCmd,
	},
	{
		Long: "break", Short: "b",
		Help: "break <loc>     set a breakpoint at *0xADDR or a function name",
		Run:  breakCmd,
	},
	{
		Long: "list", Short: "l",
		Help: "list <func>     show source around a function's first line",
		Run:  listCmd,
	},
	{
		Long: "step", Short: "s",
		Help: "step            execute to the next source line, descending into calls",
		Run:  stepCmd,
	},
	{
		Long: "next", Short: "n",
		Help: "next            execute to the next source line, stepping over calls",
		Run:  nextCmd,
	},
}

// Lookup finds the descriptor matching name against either its long
// or short form.
func Lookup(name string) (Command, error) {
	for _, cmd := range Table {
		if name == cmd.Long || name == cmd.Short {
			return cmd, nil
		}
	}
	return Command{}, fmt.Errorf("%q: %w", name, ErrNoSuchCommand)
}

// Dispatch resolves args[0] to a descriptor and invokes it with
// args[1:]. Callers are responsible for the REPL's bare-enter rule
// (repeating the previous non-empty args); Dispatch itself only ever
// sees a concrete, non-empty command line.
func Dispatch(env Env, args []string) error {
	cmd, err := Lookup(args[0])
	if err != nil {
		return err
	}
	return cmd.Run(env, args[1:])
}

// HelpText renders the full command table, one line per command, in
// table order.
func HelpText() string {
	var b strings.Builder
	for _, cmd := range Table {
		fmt.Fprintf(&b, "  %s (%s) - %s\n", cmd.Long, cmd.Short, cmd.Help)
	}
	return b.String()
}

func runCmd(env Env, args []string) error {
	if env.Ctl.Running() {
		if err := env.Ctl.Stop(); err != nil {
			return err
		}
	}
	if len(args) == 0 {
		args = env.Cfg.DefaultRunArgs
	}
	return env.Ctl.Start(args)
}

func continueCmd(env Env, args []string) error {
	if !env.Ctl.Running() {
		return inferior.ErrNotRunning
	}
	return env.Ctl.ContinueExecute()
}

func breakCmd(env Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("break: expected exactly one location, e.g. *0x4011a0 or a function name")
	}
	addr, err := resolveLocation(env.Ctl, args[0])
	if err != nil {
		return err
	}
	if err := env.Ctl.SetBreakpointAtAddr(addr); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "breakpoint set at %#x\n", addr)
	return nil
}

// resolveLocation parses a break-command argument: either an absolute
// address in *0xHEX form, or a bare function name resolved through the
// debug-info index.
func resolveLocation(ctl *inferior.Controller, spec string) (uint64, error) {
	if strings.HasPrefix(spec, "*0x") || strings.HasPrefix(spec, "*0X") {
		addr, err := strconv.ParseUint(spec[3:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("break: invalid address %q: %w", spec, err)
		}
		return addr, nil
	}
	addr, err := ctl.FunctionEntry(spec)
	if err != nil {
		if errors.Is(err, dwarfidx.ErrNoDebugInfo) {
			return 0, fmt.Errorf("break: no function named %q", spec)
		}
		return 0, err
	}
	return addr, nil
}

func listCmd(env Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("list: expected exactly one function name")
	}
	if err := env.Ctl.ListFunction(env.Out, args[0], env.Cfg.SourceWindow); err != nil {
		if errors.Is(err, dwarfidx.ErrNoDebugInfo) {
			return fmt.Errorf("list: no function named %q", args[0])
		}
		return err
	}
	return nil
}

func stepCmd(env Env, args []string) error {
	if !env.Ctl.Running() {
		return inferior.ErrNotRunning
	}
	return env.Ctl.Step(inferior.StepInto)
}

func nextCmd(env Env, args []string) error {
	if !env.Ctl.Running() {
		return inferior.ErrNotRunning
	}
	return env.Ctl.Step(inferior.StepOver)
}
