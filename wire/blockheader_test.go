// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hexToBytes converts the passed hex string into bytes and will panic if
// there is an error. This is only provided for the hard-coded constants so
// errors in the source code can be detected. It will only (and must only)
// be called with hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

// genesisHeaderBytes is the real, on-the-wire encoding of the Bitcoin main
// network's genesis block header.
var genesisHeaderBytes = hexToBytes(
	"0100000000000000000000000000000000000000000000000000000000000000" +
		"000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9f" +
		"b8aa4b1e5e4a29ab5f49ffff001d1dac2b7c")

// genesisHeaderHash is the well-known genesis block hash, big-endian as
// conventionally displayed.
const genesisHeaderHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

func TestBlockHeaderRoundTrip(t *testing.T) {
	bh, err := NewBlockHeaderFromBytes(genesisHeaderBytes)
	require.NoError(t, err)

	assert.EqualValues(t, 1, bh.Version)
	assert.Equal(t, uint32(0x1d00ffff), bh.Bits)
	assert.Equal(t, uint32(0x7c2bac1d), bh.Nonce)

	got := bh.Bytes()
	require.Truef(t, bytesEqual(got, genesisHeaderBytes), "Bytes round-trip mismatch - got %v, want %v",
		spew.Sdump(got), spew.Sdump(genesisHeaderBytes))

	hash := bh.BlockHash()
	require.Equal(t, genesisHeaderHash, hash.String())
}

func TestBlockHeaderFromBytesWrongLength(t *testing.T) {
	_, err := NewBlockHeaderFromBytes(genesisHeaderBytes[:len(genesisHeaderBytes)-1])
	require.Error(t, err)
}

func TestNewBlockHeaderUsesCurrentTime(t *testing.T) {
	var prev, merkle chainhash.Hash
	before := time.Now()
	bh := NewBlockHeader(1, &prev, &merkle, 0x1d00ffff, 0)
	after := time.Now()

	assert.Falsef(t, bh.Timestamp.Before(before.Add(-time.Second)) || bh.Timestamp.After(after.Add(time.Second)),
		"NewBlockHeader timestamp %v not within expected window", bh.Timestamp)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
