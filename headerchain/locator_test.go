// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpeer/headernode/chaincfg"
)

// fakeHash returns a distinct, deterministic hash per height so a test can
// assert on which heights a locator names without building real headers.
func fakeHash(height int32) chainhash.Hash {
	var h chainhash.Hash
	h[0] = byte(height)
	h[1] = byte(height >> 8)
	h[2] = byte(height >> 16)
	h[3] = byte(height >> 24)
	return h
}

func TestLocatorForGenesisFloor(t *testing.T) {
	lookup := func(height int32) (chainhash.Hash, bool) { return fakeHash(height), true }

	locator := locatorFor(15, 0, lookup)

	// Heights 15 down to 6 one at a time (10 entries), then the step
	// doubles: 4, then 0 (floor), with no duplicate floor entry since 0
	// is already the last height visited.
	wantHeights := []int32{15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 4, 0}
	require.Len(t, locator, len(wantHeights))
	for i, height := range wantHeights {
		assert.Equalf(t, fakeHash(height), locator[i], "locator[%d]: want height %d's hash", i, height)
	}
}

func TestLocatorForStopsAtCustomFloor(t *testing.T) {
	lookup := func(height int32) (chainhash.Hash, bool) { return fakeHash(height), true }

	locator := locatorFor(105, 100, lookup)

	wantHeights := []int32{105, 104, 103, 102, 101, 100}
	require.Len(t, locator, len(wantHeights))
	for i, height := range wantHeights {
		assert.Equalf(t, fakeHash(height), locator[i], "locator[%d]: want height %d's hash", i, height)
	}
}

func TestLocatorForSkipsUnresolvedHeights(t *testing.T) {
	lookup := func(height int32) (chainhash.Hash, bool) {
		if height == 12 {
			return chainhash.Hash{}, false
		}
		return fakeHash(height), true
	}

	locator := locatorFor(15, 0, lookup)

	// height 12 must simply be absent, not present as a zero-value entry.
	assert.NotContains(t, locator, fakeHash(12))
}

func TestChainLocatorEmptyBeforeRoot(t *testing.T) {
	c := NewChain(&chaincfg.RegressionNetParams, 0, false)
	assert.Nil(t, c.Locator())
}
