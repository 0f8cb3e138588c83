// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node implements the Node Façade: it wires the Header Store, the
// Working Chain, the Header Indexer, the Sync Driver, and the Peer Manager
// together in the dependency order spec.md §4.5 requires, and exposes the
// read-only query surface the rest of the program (RPC, CLI) uses.
package node

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerdb"
	"github.com/blockpeer/headernode/headerlog"
	"github.com/blockpeer/headernode/indexer"
	"github.com/blockpeer/headernode/peer"
	headersync "github.com/blockpeer/headernode/sync"
)

var log = headerlog.Logger(headerlog.SubsystemNode)

// Config is everything the Node Façade needs to open. StartAssertion is
// nil unless the caller is bootstrapping a custom start height for the
// first time (spec.md §4.3).
type Config struct {
	DataDir        string
	Memory         bool
	Params         *chaincfg.Params
	StartAssertion *indexer.StartAssertion
	Checkpoints    bool
	ConnectAddrs   []string
}

// Node is the assembled header-only peer: Header Store, Working Chain,
// Header Indexer, Sync Driver, and the set of peers it is connected to.
type Node struct {
	cfg   Config
	store *headerdb.Store
	chain *headerchain.Chain
	ix    *indexer.Indexer
	drv   *headersync.Driver

	mu    sync.Mutex
	peers []*peer.Peer
}

// Open brings the node up in the dependency order spec.md §4.5 specifies:
// Header Store, then an empty Working Chain, then the Header Indexer (which
// runs startup reconciliation against the store), then the Sync Driver.
// Peers are not dialed until StartSync.
func Open(cfg Config) (*Node, error) {
	var store *headerdb.Store
	var err error
	if cfg.Memory {
		store, err = headerdb.OpenMemory(cfg.Params)
	} else {
		store, err = headerdb.Open(cfg.DataDir, cfg.Params)
	}
	if err != nil {
		return nil, err
	}

	ix, chain, err := indexer.Open(store, cfg.Params, cfg.StartAssertion, cfg.Checkpoints)
	if err != nil {
		store.Close()
		return nil, err
	}

	drv := headersync.New(ix)

	log.Infof("node opened at tip height %d", chain.Tip().Height)

	return &Node{
		cfg:   cfg,
		store: store,
		chain: chain,
		ix:    ix,
		drv:   drv,
	}, nil
}

// StartSync dials every configured peer address and hands each connection
// the Sync Driver's handlers, beginning header synchronization.
func (n *Node) StartSync() error {
	handlers := n.drv.Handlers()
	for _, addr := range n.cfg.ConnectAddrs {
		p, err := peer.Dial(addr, n.cfg.Params, handlers)
		if err != nil {
			log.Warnf("failed to connect to %s: %v", addr, err)
			continue
		}
		n.mu.Lock()
		n.peers = append(n.peers, p)
		n.mu.Unlock()
	}
	if len(n.peers) == 0 {
		return errs.New(errs.IO, errs.ErrStoreIO)
	}
	return nil
}

// Close shuts the node down in the reverse of the open order: peers first,
// then the store (which also releases its directory lock).
func (n *Node) Close() error {
	n.mu.Lock()
	for _, p := range n.peers {
		p.Disconnect()
	}
	n.peers = nil
	n.mu.Unlock()

	return n.store.Close()
}

// Tip returns the current main-chain tip entry.
func (n *Node) Tip() *headerchain.Entry {
	return n.chain.Tip()
}

// StartHeight returns the height of the chain's configured floor: 0 for
// genesis, or the custom start height otherwise.
func (n *Node) StartHeight() int32 {
	return n.chain.StartHeight()
}

// HeaderByHeight returns the 80-byte header at height on the main chain.
func (n *Node) HeaderByHeight(height int32) (*headerchain.Entry, bool) {
	if entry, ok := n.chain.EntryByHeight(height); ok {
		return entry, true
	}
	entry, found, err := n.store.EntryByHeight(height)
	if err != nil || !found {
		return nil, false
	}
	return entry, true
}

// HeaderByHash returns the entry for hash, checked against the Working
// Chain first (covers any header not yet persisted) and falling back to
// the store.
func (n *Node) HeaderByHash(hash chainhash.Hash) (*headerchain.Entry, bool) {
	if entry, ok := n.chain.EntryByHash(hash); ok {
		return entry, true
	}
	entry, found, err := n.store.EntryByHash(hash)
	if err != nil || !found {
		return nil, false
	}
	return entry, true
}

// PeerCount returns the number of peers currently connected.
func (n *Node) PeerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.peers)
}
