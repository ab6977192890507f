// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package source prints a symmetric context window of a source file
// around a target line, the one place in the debugger that touches
// source files directly. It is grounded on include/commands/list.hh
// and include/commands/step.hh in peixinchen/bdb (list_source with a
// 4-line and a 1-line window, respectively).
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Print writes lines [max(1, target-n), target+n] of the file at path
// to w. The target line is prefixed with "->", every other printed
// line with two spaces; line numbers are right-aligned to width 3. A
// file that can't be opened produces no output and no error — per
// spec, source printing is best-effort and never the reason a command
// fails.
func Print(w io.Writer, path string, target, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return printLines(w, f, target, n)
}

func printLines(w io.Writer, r io.Reader, target, n int) error {
	start := target - n
	if start < 1 {
		start = 1
	}
	end := target + n

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < start {
			continue
		}
		if lineNo > end {
			break
		}
		marker := "  "
		if lineNo == target {
			marker = "->"
		}
		fmt.Fprintf(w, "%s%3d|%s\n", marker, lineNo, scanner.Text())
	}
	return scanner.Err()
}
