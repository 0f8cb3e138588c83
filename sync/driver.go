// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sync implements the Sync Driver: it requests headers from
// connected peers via locator-based getheaders messages, feeds batches of
// up to 2000 headers through the Working Chain in order, reports the first
// invalid header's source peer as misbehaving, and resolves orphan headers
// via an orphan-root getheaders round trip (stop hash set to the orphan's
// own hash).
package sync

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerlog"
	"github.com/blockpeer/headernode/indexer"
	"github.com/blockpeer/headernode/peer"
	"github.com/blockpeer/headernode/wire"
)

var log = headerlog.Logger(headerlog.SubsystemSync)

// misbehaveInvalidHeader is the ban-score penalty for sending a header that
// fails Validator checks.
const misbehaveInvalidHeader = 20

// Driver coordinates header synchronization across every connected peer.
type Driver struct {
	ix     *indexer.Indexer
	chain  *headerchain.Chain
	orphan *orphanTable

	mu    sync.Mutex
	peers map[*peer.Peer]struct{}
}

// New constructs a Sync Driver bound to the given Indexer (and the Working
// Chain it owns).
func New(ix *indexer.Indexer) *Driver {
	return &Driver{
		ix:     ix,
		chain:  ix.Chain(),
		orphan: newOrphanTable(),
		peers:  make(map[*peer.Peer]struct{}),
	}
}

// Handlers returns the peer.Handlers this driver wants wired into every
// peer.Dial call.
func (d *Driver) Handlers() peer.Handlers {
	return peer.Handlers{
		OnVerAck:  d.onPeerReady,
		OnHeaders: d.onHeaders,
		OnInv:     d.onInv,
	}
}

// onPeerReady registers a newly handshaken peer and immediately requests
// headers from it starting at our current tip (spec.md §4.4: "on peer
// connect ... compute locator and send a getheaders").
func (d *Driver) onPeerReady(p *peer.Peer) {
	d.mu.Lock()
	d.peers[p] = struct{}{}
	d.mu.Unlock()

	d.requestHeaders(p)
}

func (d *Driver) requestHeaders(p *peer.Peer) {
	locator := d.chain.Locator()
	if err := p.SendGetHeaders(locator, chainhash.Hash{}); err != nil {
		log.Warnf("failed to request headers from %s: %v", p.Addr(), err)
	}
}

// onHeaders processes one headers message: each header is fed through the
// Working Chain in order; the first invalid header stops the batch and
// reports the peer as misbehaving. The batch's store writes are committed
// atomically, and a batch of exactly MaxHeadersPerMsg headers is then
// followed by another getheaders request to continue draining the peer.
func (d *Driver) onHeaders(p *peer.Peer, msg *wire.MsgHeaders) {
	if len(msg.Headers) == 0 {
		return
	}

	for _, h := range msg.Headers {
		entry, err := d.chain.Add(h)
		if err == headerchain.ErrOrphanHeader {
			d.handleOrphan(p, h)
			continue
		}
		if err != nil {
			if e, ok := err.(*errs.Error); ok && e.Category == errs.Validation {
				p.Misbehave(misbehaveInvalidHeader, e.Error())
			} else {
				log.Errorf("failed to add header from %s: %v", p.Addr(), err)
			}
			break
		}
		d.orphan.evict(h.BlockHash())
		_ = entry
	}

	d.resolveOrphans()

	if err := d.ix.CommitBatch(); err != nil {
		log.Errorf("failed to commit header batch: %v", err)
		return
	}

	if len(msg.Headers) == wire.MaxHeadersPerMsg {
		d.requestHeaders(p)
	}
}

// handleOrphan records h as an orphan and requests the missing ancestry
// between our chain and h via a getheaders whose stop hash is h's own
// hash, per spec.md §4.4's orphan-root resolution: the peer walks our
// locator forward and replies with exactly the headers we are missing. An
// orphan that has already exhausted its retry budget is dropped instead of
// retried again.
func (d *Driver) handleOrphan(p *peer.Peer, h *wire.BlockHeader) {
	hash := d.orphan.add(h)

	rounds, exhausted := d.orphan.recordRound(hash)
	if exhausted {
		log.Debugf("orphan %s exhausted %d retry rounds, evicting", hash, rounds)
		d.orphan.evict(hash)
		return
	}

	locator := d.chain.Locator()
	if err := p.SendGetHeaders(locator, hash); err != nil {
		log.Warnf("failed to request orphan root from %s: %v", p.Addr(), err)
	}
}

// resolveOrphans re-attempts every still-tracked orphan header against the
// Working Chain, evicting whichever now connect. It loops until a full
// pass makes no further progress, so a chain of orphans (grandchild seen
// before child) resolves in a single call once the missing ancestry has
// arrived earlier in the same batch or a prior one.
func (d *Driver) resolveOrphans() {
	for {
		progressed := false
		for _, h := range d.orphan.headers() {
			if _, err := d.chain.Add(h); err == nil {
				d.orphan.evict(h.BlockHash())
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// onInv reacts to a peer announcing new block hashes by requesting headers
// starting from our current tip, same as a fresh peer connection.
func (d *Driver) onInv(p *peer.Peer, msg *wire.MsgInv) {
	for _, iv := range msg.InvList {
		if iv.Type == wire.InvTypeBlock {
			d.requestHeaders(p)
			return
		}
	}
}
