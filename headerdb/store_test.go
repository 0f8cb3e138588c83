// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerdb

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/wire"
)

// buildHeader constructs a syntactically valid header linking to prev; the
// Header Store never checks proof of work or difficulty, so these need not
// satisfy either.
func buildHeader(prev chainhash.Hash, seconds int64, nonce uint32) wire.BlockHeader {
	return wire.BlockHeader{
		Version:    1,
		PrevBlock:  prev,
		MerkleRoot: chainhash.Hash{},
		Timestamp:  time.Unix(seconds, 0),
		Bits:       0x207fffff,
		Nonce:      nonce,
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreOpenCloseReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening after a clean close must succeed and see the same schema
	// version written on first open.
	s2, err := Open(dir, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestStoreOpenRefusesConcurrentOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	defer s.Close()

	_, err = Open(dir, &chaincfg.RegressionNetParams)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.New(errs.Configuration, errs.ErrStoreLocked))
}

func TestStoreOpenMemoryRoundTrip(t *testing.T) {
	s, err := OpenMemory(&chaincfg.RegressionNetParams)
	require.NoError(t, err)
	defer s.Close()

	root := buildHeader(chainhash.Hash{}, 1296688602, 1)
	entry := headerchain.NewEntry(root, 0, nil)
	require.NoError(t, s.WriteEntry(entry))

	got, found, err := s.EntryByHeight(0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entry.Hash(), got.Hash())

	// A memory-backed store never touches a lock file, so two concurrent
	// OpenMemory calls for the same network must not interfere.
	s2, err := OpenMemory(&chaincfg.RegressionNetParams)
	require.NoError(t, err)
	defer s2.Close()
	_, found, err = s2.EntryByHeight(0)
	require.NoError(t, err)
	assert.False(t, found, "second store should start empty")
}

func TestStoreWriteAndReadBareHeader(t *testing.T) {
	s := openTestStore(t)

	root := buildHeader(chainhash.Hash{}, 1296688602, 1)
	entry := headerchain.NewEntry(root, 0, nil)

	require.NoError(t, s.WriteEntry(entry))

	got, ok, err := s.EntryByHeight(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Hash(), got.Hash())

	gotByHash, ok, err := s.EntryByHash(entry.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 0, gotByHash.Height)
}

func TestStoreWriteAndReadChainEntry(t *testing.T) {
	s := openTestStore(t)

	// RegressionNetParams has no checkpoints, so HistoricalPoint is 0 and
	// any height above it is stored as a full ChainEntry, carrying its
	// chainwork through the round trip.
	root := buildHeader(chainhash.Hash{}, 1296688602, 1)
	rootEntry := headerchain.NewEntry(root, 0, nil)

	child := buildHeader(rootEntry.Hash(), 1296689202, 2)
	childEntry := headerchain.NewEntry(child, 1, rootEntry.Chainwork)

	require.NoError(t, s.WriteEntries([]*headerchain.Entry{rootEntry, childEntry}))

	got, ok, err := s.EntryByHeight(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, got.Chainwork.Cmp(childEntry.Chainwork))
}

func TestStoreTipAndDeleteFromHeight(t *testing.T) {
	s := openTestStore(t)

	root := buildHeader(chainhash.Hash{}, 1296688602, 1)
	rootEntry := headerchain.NewEntry(root, 0, nil)
	child := buildHeader(rootEntry.Hash(), 1296689202, 2)
	childEntry := headerchain.NewEntry(child, 1, rootEntry.Chainwork)
	grandchild := buildHeader(childEntry.Hash(), 1296689802, 3)
	grandchildEntry := headerchain.NewEntry(grandchild, 2, childEntry.Chainwork)

	require.NoError(t, s.WriteEntries([]*headerchain.Entry{rootEntry, childEntry, grandchildEntry}))

	tip, ok, err := s.Tip()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 2, tip.Height)

	require.NoError(t, s.DeleteFromHeight(1))

	tip, ok, err = s.Tip()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 0, tip.Height)

	_, ok, _ = s.EntryByHash(childEntry.Hash())
	assert.False(t, ok, "child's reverse hash index should have been removed")
}

func TestStoreCheckContiguity(t *testing.T) {
	s := openTestStore(t)

	root := buildHeader(chainhash.Hash{}, 1296688602, 1)
	rootEntry := headerchain.NewEntry(root, 0, nil)
	child := buildHeader(rootEntry.Hash(), 1296689202, 2)
	childEntry := headerchain.NewEntry(child, 1, rootEntry.Chainwork)

	require.NoError(t, s.WriteEntries([]*headerchain.Entry{rootEntry, childEntry}))
	assert.NoError(t, s.CheckContiguity(0, 1))

	// A header whose PrevBlock doesn't name its predecessor's hash breaks
	// contiguity even though both heights are present.
	broken := buildHeader(chainhash.Hash{0xff}, 1296689802, 3)
	brokenEntry := headerchain.NewEntry(broken, 2, childEntry.Chainwork)
	require.NoError(t, s.WriteEntry(brokenEntry))

	err := s.CheckContiguity(0, 2)
	assert.ErrorIs(t, err, errs.New(errs.Invariant, errs.ErrContiguityBroken))
}

func TestStoreStartMarker(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.StartMarker()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetStartMarker(500000))
	height, ok, err := s.StartMarker()
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 500000, height)
}
