// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate"

	"github.com/blockpeer/headernode/headerlog"
)

// initLogRotator redirects headerlog's shared backend to both stdout and a
// rotating log file under logDir, mirroring the teacher's own
// logrotate-backed log sink.
func initLogRotator(logDir string) error {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, "headernode.log")
	rotator, err := logrotate.NewRotator(logFile)
	if err != nil {
		return fmt.Errorf("failed to create log rotator: %w", err)
	}

	headerlog.SetWriter(io.MultiWriter(os.Stdout, rotator))
	return nil
}

// setLogLevels parses level and applies it to every subsystem, following
// the teacher's own "apply one level everywhere unless overridden"
// convention; per-subsystem overrides (SUBSYSTEM=level,...) are not
// supported by this minimal binary.
func setLogLevels(levelStr string) error {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return fmt.Errorf("unknown log level %q", levelStr)
	}
	headerlog.SetLevels(level)
	return nil
}
