// Package headerlog centralizes the btclog backend and per-subsystem
// loggers for the header node: each package obtains its subsystem logger
// from Logger, and cmd/headernode sets levels and output for all of them.
package headerlog

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
)

// swapWriter is the destination the shared backend writes through, so that
// SetWriter can redirect loggers that have already been handed out.
type swapWriter struct{ w io.Writer }

func (s *swapWriter) Write(p []byte) (int, error) { return s.w.Write(p) }

var out = &swapWriter{w: os.Stdout}

// backend is the shared btclog backend. It writes to stdout until
// SetWriter redirects it to a rotating file (and stdout).
var backend = btclog.NewBackend(out)

// Subsystem tags, one per major component (spec.md §2 component list).
const (
	SubsystemChain   = "CHAN" // Working Chain
	SubsystemValid   = "VLDT" // Header Validator
	SubsystemIndex   = "INDX" // Header Indexer
	SubsystemStore   = "STOR" // Header Store
	SubsystemSync    = "SYNC" // Sync Driver
	SubsystemPeer    = "PEER" // Peer Manager
	SubsystemNode    = "NODE" // Node Façade
)

var subsystems = []string{
	SubsystemChain, SubsystemValid, SubsystemIndex,
	SubsystemStore, SubsystemSync, SubsystemPeer, SubsystemNode,
}

// loggers holds one btclog.Logger per subsystem tag.
var loggers = make(map[string]btclog.Logger, len(subsystems))

func init() {
	for _, tag := range subsystems {
		loggers[tag] = backend.Logger(tag)
	}
}

// Logger returns the logger for the named subsystem, or a disabled logger
// if the tag is unrecognized.
func Logger(subsystem string) btclog.Logger {
	if l, ok := loggers[subsystem]; ok {
		return l
	}
	return btclog.Disabled
}

// SetLevel sets the log level for a single subsystem by tag.
func SetLevel(subsystem string, level btclog.Level) {
	if l, ok := loggers[subsystem]; ok {
		l.SetLevel(level)
	}
}

// SetLevels sets the log level for every subsystem.
func SetLevels(level btclog.Level) {
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// SetWriter redirects the shared backend's output, used by cmd/headernode
// to fan log output out to both stdout and a logrotate-managed file.
func SetWriter(w io.Writer) {
	out.w = w
}
