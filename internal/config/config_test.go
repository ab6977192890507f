// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceWindow != 4 {
		t.Errorf("SourceWindow = %d, want 4", cfg.SourceWindow)
	}
	if len(cfg.DefaultRunArgs) != 0 {
		t.Errorf("DefaultRunArgs = %v, want empty", cfg.DefaultRunArgs)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(old)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	contents := "source_window: 2\ndefault_run_args:\n  - \"--verbose\"\n"
	if err := os.WriteFile(filepath.Join(dir, "bdb.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceWindow != 2 {
		t.Errorf("SourceWindow = %d, want 2", cfg.SourceWindow)
	}
	if len(cfg.DefaultRunArgs) != 1 || cfg.DefaultRunArgs[0] != "--verbose" {
		t.Errorf("DefaultRunArgs = %v, want [--verbose]", cfg.DefaultRunArgs)
	}
}
