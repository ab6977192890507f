// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package source

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintLinesCentered(t *testing.T) {
	src := strings.Join([]string{
		"line1", "line2", "line3", "line4", "line5",
		"line6", "line7", "line8", "line9", "line10",
	}, "\n") + "\n"

	var buf bytes.Buffer
	if err := printLines(&buf, strings.NewReader(src), 7, 1); err != nil {
		t.Fatalf("printLines: %v", err)
	}
	want := "    6|line6\n->  7|line7\n    8|line8\n"
	if buf.String() != want {
		t.Fatalf("printLines output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrintLinesClampsAtStart(t *testing.T) {
	src := "a\nb\nc\nd\n"
	var buf bytes.Buffer
	if err := printLines(&buf, strings.NewReader(src), 2, 5); err != nil {
		t.Fatalf("printLines: %v", err)
	}
	want := "    1|a\n->  2|b\n    3|c\n    4|d\n"
	if buf.String() != want {
		t.Fatalf("printLines output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrintMissingFileProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, "/nonexistent/path/to/a/file", 7, 1); err != nil {
		t.Fatalf("Print on missing file returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("Print on missing file wrote output: %q", buf.String())
	}
}

func TestPrintLinesPastEndOfFile(t *testing.T) {
	src := "only\n"
	var buf bytes.Buffer
	if err := printLines(&buf, strings.NewReader(src), 1, 4); err != nil {
		t.Fatalf("printLines: %v", err)
	}
	want := "->  1|only\n"
	if buf.String() != want {
		t.Fatalf("printLines output:\n%q\nwant:\n%q", buf.String(), want)
	}
}
