// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package command

import (
	"errors"
	"strings"
	"testing"
)

func TestLookupByLongAndShortName(t *testing.T) {
	for _, name := range []string{"run", "r"} {
		cmd, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if cmd.Long != "run" {
			t.Errorf("Lookup(%q).Long = %q, want %q", name, cmd.Long, "run")
		}
	}
}

func TestLookupUnknownCommand(t *testing.T) {
	_, err := Lookup("frobnicate")
	if !errors.Is(err, ErrNoSuchCommand) {
		t.Fatalf("Lookup of unknown command: got %v, want ErrNoSuchCommand", err)
	}
}

func TestHelpTextListsEveryCommand(t *testing.T) {
	text := HelpText()
	for _, cmd := range Table {
		if !strings.Contains(text, cmd.Long) {
			t.Errorf("HelpText() missing entry for %q", cmd.Long)
		}
	}
}

func TestResolveLocationAddressForm(t *testing.T) {
	addr, err := resolveLocation(nil, "*0x4011a0")
	if err != nil {
		t.Fatalf("resolveLocation: %v", err)
	}
	if addr != 0x4011a0 {
		t.Fatalf("resolveLocation(*0x4011a0) = %#x, want 0x4011a0", addr)
	}
}

func TestResolveLocationInvalidAddress(t *testing.T) {
	if _, err := resolveLocation(nil, "*0xnotahexnumber"); err == nil {
		t.Fatalf("resolveLocation of invalid hex: got nil error")
	}
}
