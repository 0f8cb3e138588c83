// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sync

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/lru"

	"github.com/blockpeer/headernode/wire"
)

// maxOrphans bounds the number of distinct orphan headers remembered at
// once; beyond this the least-recently-added orphan is evicted, mirroring
// the same bounded-memory rationale dcrd applies to its own orphan
// transaction cache.
const maxOrphans = 500

// maxOrphanRounds is how many times an orphan may be handled before it is
// given up on (spec.md §9 open question 4). Each handling counts one round,
// the first sighting included; every round below the cap sends one
// orphan-root getheaders, so an orphan gets maxOrphanRounds-1 requests and
// is evicted on the round that reaches the cap.
const maxOrphanRounds = 3

// orphanEntry is the bookkeeping the Sync Driver keeps per orphan header:
// the header itself, when it first arrived, and how many getheaders round
// trips have been spent trying to resolve its ancestry.
type orphanEntry struct {
	header    *wire.BlockHeader
	firstSeen time.Time
	rounds    int
}

// orphanTable is a bounded map from header hash to orphanEntry. lru.Cache
// bounds the set of hashes we remember at all; entries holds the richer
// per-orphan metadata for whatever lru.Cache is currently tracking.
type orphanTable struct {
	mu      sync.Mutex
	seen    *lru.Cache
	entries map[chainhash.Hash]*orphanEntry
}

func newOrphanTable() *orphanTable {
	return &orphanTable{
		seen:    lru.New(maxOrphans),
		entries: make(map[chainhash.Hash]*orphanEntry, maxOrphans),
	}
}

// add records h as an orphan if it is not already known. When the table is
// full, evictOldest first drops the earliest-seen orphan from both lru.Cache
// and the metadata map so the two stay in sync.
func (t *orphanTable) add(h *wire.BlockHeader) chainhash.Hash {
	hash := h.BlockHash()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.seen.Contains(hash) {
		return hash
	}

	if t.seen.Len() >= maxOrphans {
		t.evictOldest()
	}

	t.seen.Add(hash)
	t.entries[hash] = &orphanEntry{header: h, firstSeen: time.Now()}
	return hash
}

// evictOldest drops the orphan with the earliest firstSeen, called only
// while full; lru.Cache's own internal eviction order isn't exposed, so the
// metadata map is the source of truth for "oldest" here.
func (t *orphanTable) evictOldest() {
	var oldestHash chainhash.Hash
	var oldestTime time.Time
	first := true
	for hash, e := range t.entries {
		if first || e.firstSeen.Before(oldestTime) {
			oldestHash, oldestTime, first = hash, e.firstSeen, false
		}
	}
	if !first {
		t.seen.Delete(oldestHash)
		delete(t.entries, oldestHash)
	}
}

// get returns the orphan entry for hash, if tracked.
func (t *orphanTable) get(hash chainhash.Hash) (*orphanEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[hash]
	return e, ok
}

// recordRound increments hash's round count, returning the new count and
// whether it has now reached maxOrphanRounds.
func (t *orphanTable) recordRound(hash chainhash.Hash) (rounds int, exhausted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[hash]
	if !ok {
		return 0, true
	}
	e.rounds++
	return e.rounds, e.rounds >= maxOrphanRounds
}

// evict removes hash from the table, used once an orphan is resolved
// (its ancestry arrived) or its retry budget is exhausted.
func (t *orphanTable) evict(hash chainhash.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen.Delete(hash)
	delete(t.entries, hash)
}

// headers returns every header currently tracked as an orphan, for
// Driver.resolveOrphans to re-attempt adding once new ancestry has
// arrived.
func (t *orphanTable) headers() []*wire.BlockHeader {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*wire.BlockHeader, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.header)
	}
	return out
}
