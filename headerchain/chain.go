// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerchain implements the header chain state machine: the
// Working Chain (in-memory branch tracking and reorg resolution) and the
// Header Validator (context-free and contextual header checks).
package headerchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/wire"
)

// ErrOrphanHeader is returned by Add when the header's parent is not known
// to the chain. Callers (the Sync Driver) are expected to hold the header
// aside and resolve its ancestry via getheaders/getdata rather than treat
// this as a validation failure.
var ErrOrphanHeader = errs.New(errs.Validation, "parent header not known to the working chain")

// branchNode is the unit the Working Chain keeps per known header,
// independent of whether it is on the main chain: every header that has
// passed validation is reachable by hash so that side branches and reorg
// targets can be walked without consulting the Header Store.
type branchNode struct {
	entry      *Entry
	parentHash chainhash.Hash
}

// Chain is the Working Chain: the in-memory view of every branch reachable
// from the configured root, with the main chain selected by greatest
// cumulative chainwork. It is not safe for concurrent use without external
// synchronization; the Node Façade serializes access to it.
type Chain struct {
	params             *chaincfg.Params
	enforceCheckpoints bool
	floor              int32

	byHash       map[chainhash.Hash]*branchNode
	mainByHeight map[int32]*Entry
	tip          *Entry

	observers []Observer
}

// NewChain constructs an empty Working Chain. Callers must call InitRoot
// before Add will accept any headers. floor is the effective start height:
// ancestor lookups and median-time-past calculations never look below it,
// which is how a custom start height (spec.md §4.4) or genesis (floor 0)
// bounds the chain's memory of the past.
func NewChain(params *chaincfg.Params, floor int32, enforceCheckpoints bool) *Chain {
	return &Chain{
		params:             params,
		enforceCheckpoints: enforceCheckpoints,
		floor:              floor,
		byHash:             make(map[chainhash.Hash]*branchNode),
		mainByHeight:       make(map[int32]*Entry),
	}
}

// Subscribe registers an Observer for future connect/disconnect/reset
// events. It does not replay past events; callers that need the current
// state should call Tip/EntryByHeight first.
func (c *Chain) Subscribe(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Chain) notify(events []Event) {
	for _, e := range events {
		for _, o := range c.observers {
			o.Notify(e)
		}
	}
}

// InitRoot installs entry as the chain's trusted root without running it
// through the Validator: used for the network's genesis header, or for the
// synthetic (s-1, s) pair a custom start height injects (spec.md §4.4). It
// does not emit a connect event; the root is the chain's origin, not
// something that happened to it.
func (c *Chain) InitRoot(entry *Entry) {
	node := &branchNode{entry: entry, parentHash: entry.Header.PrevBlock}
	c.byHash[entry.Hash()] = node
	c.mainByHeight[entry.Height] = entry
	if c.tip == nil || entry.Height > c.tip.Height {
		c.tip = entry
	}
}

// LoadTrusted appends entry to the main chain during startup reconciliation
// without running it through the Validator and without notifying
// observers: the Header Store already validated it when it first arrived,
// so replaying that work (and re-announcing it to the Header Indexer,
// which is exactly what is being rebuilt) would be redundant.
func (c *Chain) LoadTrusted(entry *Entry) {
	node := &branchNode{entry: entry, parentHash: entry.Header.PrevBlock}
	c.byHash[entry.Hash()] = node
	c.mainByHeight[entry.Height] = entry
	c.tip = entry
}

// EmitReset notifies observers that the chain has been rebuilt and they
// should discard any state derived from earlier events and resynchronize
// from the current tip.
func (c *Chain) EmitReset() {
	c.notify([]Event{{Kind: EventReset, Entry: c.tip}})
}

// Tip returns the current main chain tip, or nil if the chain has no root
// yet.
func (c *Chain) Tip() *Entry {
	return c.tip
}

// StartHeight returns the chain's effective floor: ancestry below this
// height is not resolvable, whether because it is genesis (floor 0) or a
// configured custom start height.
func (c *Chain) StartHeight() int32 {
	return c.floor
}

// EntryByHeight returns the main chain entry at height, if any.
func (c *Chain) EntryByHeight(height int32) (*Entry, bool) {
	e, ok := c.mainByHeight[height]
	return e, ok
}

// EntryByHash returns the entry for hash on any known branch, not just the
// main chain.
func (c *Chain) EntryByHash(hash chainhash.Hash) (*Entry, bool) {
	node, ok := c.byHash[hash]
	if !ok {
		return nil, false
	}
	return node.entry, true
}

// IsMainChain reports whether hash is on the current main chain.
func (c *Chain) IsMainChain(hash chainhash.Hash) bool {
	node, ok := c.byHash[hash]
	if !ok {
		return false
	}
	e, ok := c.mainByHeight[node.entry.Height]
	return ok && e.Hash() == hash
}

// ancestorFromEntry returns an AncestorFunc that walks start's own ancestry
// (not necessarily the main chain) by following parentHash links, stopping
// at the chain's floor.
func (c *Chain) ancestorFromEntry(start *Entry) AncestorFunc {
	return func(height int32) (*Entry, bool) {
		if height < c.floor || height > start.Height {
			return nil, false
		}
		cur := start
		for cur.Height > height {
			node, ok := c.byHash[cur.Hash()]
			if !ok {
				return nil, false
			}
			parent, ok := c.byHash[node.parentHash]
			if !ok {
				return nil, false
			}
			cur = parent.entry
		}
		return cur, true
	}
}

// Add validates header against its parent (found by PrevBlock hash) and, on
// success, links it into the Working Chain. If header's cumulative
// chainwork exceeds the current tip's, Add performs a reorg: it emits
// EventDisconnect for every entry walked off the old best branch (tip
// first), then EventConnect for every entry walked onto the new one
// (lowest height first). Otherwise the header is kept as a side branch with
// no events emitted. If header's parent is unknown, Add returns
// ErrOrphanHeader.
func (c *Chain) Add(header *wire.BlockHeader) (*Entry, error) {
	parentNode, ok := c.byHash[header.PrevBlock]
	if !ok {
		return nil, ErrOrphanHeader
	}
	parent := parentNode.entry

	if err := CheckContextFree(header, c.params); err != nil {
		return nil, err
	}

	entry, err := CheckContextual(header, parent, c.params, c.ancestorFromEntry(parent), c.enforceCheckpoints)
	if err != nil {
		return nil, err
	}

	node := &branchNode{entry: entry, parentHash: header.PrevBlock}
	c.byHash[entry.Hash()] = node

	if c.tip == nil || entry.Chainwork.Cmp(c.tip.Chainwork) > 0 {
		c.reorganize(entry)
	}

	return entry, nil
}

// reorganize makes newTip the main chain tip, walking both the old and new
// branches back to their common ancestor and emitting the resulting
// disconnect/connect events in order.
func (c *Chain) reorganize(newTip *Entry) {
	oldTip := c.tip

	forkHash, connectChain := c.branchToFork(newTip)

	var events []Event

	if oldTip != nil {
		for h := oldTip; ; {
			if h.Hash() == forkHash {
				break
			}
			events = append(events, Event{Kind: EventDisconnect, Entry: h})
			delete(c.mainByHeight, h.Height)
			node := c.byHash[h.Hash()]
			parent, ok := c.byHash[node.parentHash]
			if !ok {
				break
			}
			h = parent.entry
		}
	}

	for i := len(connectChain) - 1; i >= 0; i-- {
		e := connectChain[i]
		c.mainByHeight[e.Height] = e
		events = append(events, Event{Kind: EventConnect, Entry: e})
	}

	c.tip = newTip
	c.notify(events)
}

// branchToFork walks newTip's ancestry back to the nearest hash already on
// the main chain, returning that fork hash and the chain of entries from
// newTip down to (but not including) the fork point, ordered newTip-first.
func (c *Chain) branchToFork(newTip *Entry) (chainhash.Hash, []*Entry) {
	var chain []*Entry
	cur := newTip
	for {
		if e, ok := c.mainByHeight[cur.Height]; ok && e.Hash() == cur.Hash() {
			return cur.Hash(), chain
		}
		chain = append(chain, cur)
		node, ok := c.byHash[cur.Hash()]
		if !ok {
			return cur.Hash(), chain
		}
		parent, ok := c.byHash[node.parentHash]
		if !ok {
			return cur.Hash(), chain
		}
		cur = parent.entry
	}
}
