// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bdb is a minimal ptrace-based source-level debugger for
// x86-64 Linux executables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bdb/internal/config"
	"bdb/internal/dwarfidx"
	"bdb/internal/inferior"
	"bdb/internal/ptrace"
	"bdb/internal/repl"
)

func main() {
	root := &cobra.Command{
		Use:   "bdb <program>",
		Short: "a minimal source-level debugger",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: %s", cmd.UseLine())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bdb: %v\n", err)
		os.Exit(1)
	}
}

func run(program string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	idx, err := dwarfidx.Load(program)
	if err != nil {
		return fmt.Errorf("loading %s: %w", program, err)
	}
	if idx.Empty() {
		fmt.Fprintf(os.Stderr, "bdb: %s has no debug information; source-aware commands will be unavailable\n", program)
	}

	tracer := ptrace.New()
	ctl := inferior.New(os.Stdout, program, idx, tracer)

	console, err := repl.New(ctl, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer console.Close()

	return console.Run()
}
