// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexer implements the Header Indexer: it subscribes to the
// Working Chain's connect/disconnect/reset events and mirrors them into the
// Header Store, and it owns the startup reconciliation and custom-start
// bootstrap logic that rebuilds the Working Chain from whatever the store
// already holds.
package indexer

import (
	"fmt"
	"math/big"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerdb"
	"github.com/blockpeer/headernode/headerlog"
)

var log = headerlog.Logger(headerlog.SubsystemIndex)

// StartAssertion configures a custom start height bootstrap: two trusted
// raw entries at s-1 and s, resolved by the caller from either an explicit
// start tip or an external lookup service (spec.md §4.3's "custom start
// initialization").
type StartAssertion struct {
	PrevHeader  *headerchain.Entry // at height s-1, chainwork irrelevant
	StartHeader *headerchain.Entry // at height s
}

// Indexer mirrors a Working Chain into a Header Store and owns the
// Working Chain's lifecycle across restarts.
type Indexer struct {
	store  *headerdb.Store
	chain  *headerchain.Chain
	params *chaincfg.Params

	floor int32

	batch []*headerchain.Entry
}

// Open runs the full startup sequence: it reads (or writes) the start
// marker, reconciles the Working Chain from the store's existing records,
// and subscribes to future chain events. start is nil unless the caller is
// bootstrapping a custom start height for the first time. enforceCheckpoints
// disables checkpoint conformance entirely when false (--checkpoints=false),
// otherwise every Checkpoint the network (and any custom start marker)
// carries is enforced by the Working Chain as usual.
func Open(store *headerdb.Store, params *chaincfg.Params, start *StartAssertion, enforceCheckpoints bool) (*Indexer, *headerchain.Chain, error) {
	ix := &Indexer{store: store, params: params}

	floor, err := ix.resolveStart(start)
	if err != nil {
		return nil, nil, err
	}
	ix.floor = floor

	chain := headerchain.NewChain(params, floor, enforceCheckpoints)
	ix.chain = chain

	if err := ix.reconcile(); err != nil {
		return nil, nil, err
	}

	chain.Subscribe(ix)

	return ix, chain, nil
}

// resolveStart handles §4.3's custom start initialization: if the store
// already has a START_MARKER, it takes precedence over a newly supplied
// assertion (the store is authoritative). Otherwise, if start is non-nil,
// it is validated and persisted.
func (ix *Indexer) resolveStart(start *StartAssertion) (int32, error) {
	markerHeight, hasMarker, err := ix.store.StartMarker()
	if err != nil {
		return 0, err
	}

	if hasMarker {
		if start != nil && start.StartHeader.Height != markerHeight {
			return 0, errs.New(errs.Configuration, errs.ErrStartMarkerMismatch)
		}
		markerEntry, ok, err := ix.store.EntryByHeight(markerHeight)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errs.New(errs.Invariant, errs.ErrMissingAncestor)
		}
		hash := markerEntry.Hash()
		ix.params.Checkpoints = append(ix.params.Checkpoints, chaincfg.Checkpoint{
			Height: markerHeight,
			Hash:   &hash,
		})
		return markerHeight, nil
	}

	if start == nil {
		return 0, nil
	}

	s := start.StartHeader.Height
	if err := ValidateStartHeight(s, ix.params); err != nil {
		return 0, err
	}

	hash := start.StartHeader.Hash()
	ix.params.Checkpoints = append(ix.params.Checkpoints, chaincfg.Checkpoint{
		Height: s,
		Hash:   &hash,
	})

	if err := ix.store.WriteEntries([]*headerchain.Entry{start.PrevHeader, start.StartHeader}); err != nil {
		return 0, err
	}
	if err := ix.store.SetStartMarker(s); err != nil {
		return 0, err
	}

	return s, nil
}

// ValidateStartHeight implements spec.md §4.3's validate_start_height: s
// must be non-negative, strictly below the network's last checkpoint (if
// any), and at or before the historical point, since the Validator can
// never be asked to retarget using an ancestor the node will never store.
func ValidateStartHeight(s int32, params *chaincfg.Params) error {
	if s < 0 {
		return errs.New(errs.Configuration, errs.ErrStartHeightTooHigh)
	}
	last := params.LastCheckpointHeight()
	if last > 0 && s >= last {
		return errs.Wrap(errs.Configuration, errs.ErrStartHeightTooHigh,
			fmt.Errorf("start height %d must be strictly below last checkpoint %d", s, last))
	}
	hp := params.HistoricalPoint()
	if s > hp {
		return errs.Wrap(errs.Configuration, errs.ErrStartHeightTooHigh,
			fmt.Errorf("start height %d exceeds the maximum allowed %d (last retarget at or before the last checkpoint)", s, hp))
	}
	return nil
}

// reconcile implements spec.md §4.3's startup reconciliation: it injects
// the trusted root (genesis, or the custom start pair), then replays
// whatever the store already holds back into the Working Chain without
// re-emitting connect events.
func (ix *Indexer) reconcile() error {
	if ix.floor > 0 {
		prev, ok, err := ix.store.EntryByHeight(ix.floor - 1)
		if err != nil {
			return err
		}
		if !ok {
			return errs.New(errs.Invariant, errs.ErrMissingAncestor)
		}
		start, ok, err := ix.store.EntryByHeight(ix.floor)
		if err != nil {
			return err
		}
		if !ok {
			return errs.New(errs.Invariant, errs.ErrMissingAncestor)
		}
		ix.chain.InitRoot(prev)
		ix.chain.InitRoot(start)
	} else {
		genesis := headerchain.NewEntry(ix.params.GenesisHeader, 0, nil)
		ix.chain.InitRoot(genesis)
	}

	tipEntry, found, err := ix.store.Tip()
	if err != nil {
		return err
	}
	if !found || tipEntry.Height == 0 {
		return nil
	}
	T := tipEntry.Height

	hp := ix.params.HistoricalPoint()
	var R int32
	switch {
	case T <= hp:
		R = maxInt32(1, ix.floor)
	case ix.params.LastCheckpointHeight() == 0:
		R = 1
	default:
		R = hp + 1
	}
	if R <= ix.floor {
		R = ix.floor + 1
	}

	log.Infof("reconciling working chain from height %d to %d", R, T)

	for h := R; h <= T; h++ {
		entry, ok, err := ix.store.EntryByHeight(h)
		if err != nil {
			return err
		}
		if !ok {
			return errs.Wrap(errs.Invariant, errs.ErrContiguityBroken,
				fmt.Errorf("missing header at height %d during reconciliation", h))
		}
		if entry.Chainwork == nil || entry.Chainwork.Sign() == 0 {
			entry = headerchain.NewEntryWithWork(entry.Header, entry.Height, zeroOrAccumulate(entry))
		}
		ix.chain.LoadTrusted(entry)
	}

	ix.chain.EmitReset()
	return nil
}

// zeroOrAccumulate returns the entry's existing chainwork if it carries
// one, or a zero placeholder: spec.md §4.3 step 4 notes a bare Header's
// reconstructed chainwork is a zero placeholder, valid because every
// comparison above the historical point is made between full ChainEntries
// that do carry real chainwork.
func zeroOrAccumulate(e *headerchain.Entry) *big.Int {
	if e.Chainwork != nil {
		return e.Chainwork
	}
	return big.NewInt(0)
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Notify implements headerchain.Observer: connect events write (batched)
// records, disconnect events delete them, and reset is a no-op on disk.
func (ix *Indexer) Notify(e headerchain.Event) {
	switch e.Kind {
	case headerchain.EventConnect:
		ix.batch = append(ix.batch, e.Entry)
	case headerchain.EventDisconnect:
		if err := ix.store.DeleteFromHeight(e.Entry.Height); err != nil {
			log.Errorf("failed to delete header at height %d: %v", e.Entry.Height, err)
		}
	case headerchain.EventReset:
		// No-op on disk: the store already reflects accepted history.
	}
}

// CommitBatch writes every connect event buffered since the last commit in
// a single atomic leveldb.Batch, per spec.md §4.3's [ADD 4.3a] batch
// commit: a crash leaves the tip at the last committed batch boundary.
func (ix *Indexer) CommitBatch() error {
	if len(ix.batch) == 0 {
		return nil
	}
	if err := ix.store.WriteEntries(ix.batch); err != nil {
		return err
	}
	ix.batch = ix.batch[:0]
	return nil
}

// Chain returns the Working Chain the indexer is mirroring, for components
// (Sync Driver, Node Façade) that need direct read access.
func (ix *Indexer) Chain() *headerchain.Chain {
	return ix.chain
}

// ResetTo truncates the Header Store down to height, deleting every record
// above it, for out-of-band chain-database recovery. A process that wants
// the rebuilt chain back in memory must reopen the Indexer afterward; this
// call only touches the persistent store, matching the narrow scope
// spec.md §5 grants the Indexer ("owned by the Indexer; no other component
// writes to it").
//
// spec.md §9 open question 3 flags the source's behavior here as
// unreliable ("sometimes throws and sometimes hangs"); this implementation
// refuses outright rather than leaving the store in a state the next
// startup reconciliation could never satisfy, since every height below the
// configured start marker is, by definition, never stored.
func (ix *Indexer) ResetTo(height int32) error {
	if height < ix.floor {
		return errs.Wrap(errs.Invariant, errs.ErrResetBelowStart,
			fmt.Errorf("reset to height %d is below the configured start marker at %d", height, ix.floor))
	}
	return ix.store.DeleteFromHeight(height + 1)
}
