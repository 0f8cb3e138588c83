// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockLocator is an ordered list of block hashes, tip-first, used in a
// getheaders request so a peer can find the most recent point where our
// chain and theirs agree.
type BlockLocator []chainhash.Hash

// Locator builds a block locator for the current main chain tip: the last
// 10 heights one at a time, then doubling the step on each subsequent
// entry. Unlike a standard Bitcoin locator, this one does not walk all the
// way back to genesis — it stops at the chain's configured floor
// (StartHeight), which for a node with no custom start height is 0 and so
// behaves identically to genesis.
func (c *Chain) Locator() BlockLocator {
	if c.tip == nil {
		return nil
	}
	return locatorFor(c.tip.Height, c.floor, func(height int32) (chainhash.Hash, bool) {
		e, ok := c.EntryByHeight(height)
		if !ok {
			return chainhash.Hash{}, false
		}
		return e.Hash(), true
	})
}

// locatorFor computes locator heights for a tip at the given height down to
// floor (inclusive), then resolves each to a hash via lookup. It is
// factored out of Locator so it can be tested against height arithmetic
// alone, without constructing a Chain.
func locatorFor(tip, floor int32, lookup func(int32) (chainhash.Hash, bool)) BlockLocator {
	var heights []int32
	step := int32(1)
	height := tip

	for {
		heights = append(heights, height)
		if height <= floor {
			break
		}
		if len(heights) >= 10 {
			step *= 2
		}
		next := height - step
		if next < floor {
			next = floor
		}
		if next == height {
			break
		}
		height = next
	}
	if heights[len(heights)-1] != floor {
		heights = append(heights, floor)
	}

	locator := make(BlockLocator, 0, len(heights))
	for _, h := range heights {
		hash, ok := lookup(h)
		if !ok {
			continue
		}
		locator = append(locator, hash)
	}
	return locator
}
