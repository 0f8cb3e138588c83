// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/wire"
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

// The following are a small chain of real, proof-of-work-valid regression
// network headers, computed offline to satisfy RegressionNetParams' target
// (2^255-1, compact bits 0x207fffff). root is height 0 and has no parent;
// child/grandchild extend it one block at a time. altChild is a competing
// block at child's height, and altChild2/altChild3 extend altChild into a
// longer, heavier branch than child/grandchild's.
var (
	rootHeaderBytes = hexToBytes("01000000000000000000000000000000000000000000000000000000" +
		"00000000000000000000000000000000000000000000000000000000" +
		"000000000000000000000000dae5494dffff7f2005000000")

	childHeaderBytes = hexToBytes("010000004eae44b5cf5cdbec0e154eb59e94f0ecd91b2c84e7be3821" +
		"5a6f127f510c641d0000000000000000000000000000000000000000" +
		"00000000000000000000000032e8494dffff7f2003000000")

	grandchildHeaderBytes = hexToBytes("0100000008a94893c61293575c86519e7ba1bd578f99d2fc3e7ac558" +
		"5f187ef8e1e9af390000000000000000000000000000000000000000" +
		"0000000000000000000000008aea494dffff7f2002000000")

	altChildHeaderBytes = hexToBytes("010000004eae44b5cf5cdbec0e154eb59e94f0ecd91b2c84e7be3821" +
		"5a6f127f510c641d0000000000000000000000000000000000000000" +
		"00000000000000000000000096e8494dffff7f2000000000")

	altChild2HeaderBytes = hexToBytes("010000005e598da3e1835ef95451762f8a1ae52f9af0f1cbaf981946" +
		"506fef935d613f580000000000000000000000000000000000000000" +
		"000000000000000000000000eeea494dffff7f2006000000")

	altChild3HeaderBytes = hexToBytes("01000000aadcec7a165ab02565145662543f5a155c67145c69c38dcc" +
		"aa55482d4b6e9d2a0000000000000000000000000000000000000000" +
		"00000000000000000000000046ed494dffff7f2004000000")
)

func mustHeader(t *testing.T, b []byte) *wire.BlockHeader {
	t.Helper()
	h, err := wire.NewBlockHeaderFromBytes(b)
	require.NoError(t, err)
	return h
}

func newTestChain(t *testing.T) (*Chain, *wire.BlockHeader) {
	t.Helper()
	root := mustHeader(t, rootHeaderBytes)
	c := NewChain(&chaincfg.RegressionNetParams, 0, false)
	c.InitRoot(NewEntry(*root, 0, nil))
	return c, root
}

// recordingObserver collects events in the order Notify is called.
type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) Notify(e Event) {
	r.events = append(r.events, e)
}

func TestChainAddExtendsTip(t *testing.T) {
	c, _ := newTestChain(t)
	obs := &recordingObserver{}
	c.Subscribe(obs)

	child := mustHeader(t, childHeaderBytes)
	childEntry, err := c.Add(child)
	require.NoError(t, err)
	assert.EqualValues(t, 1, childEntry.Height)
	assert.Equal(t, childEntry.Hash(), c.Tip().Hash(), "tip not advanced to child")

	grandchild := mustHeader(t, grandchildHeaderBytes)
	gcEntry, err := c.Add(grandchild)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gcEntry.Height)
	assert.Equal(t, gcEntry.Hash(), c.Tip().Hash(), "tip not advanced to grandchild")

	var connects int
	for _, e := range obs.events {
		assert.Equalf(t, EventConnect, e.Kind, "unexpected event kind extending an empty-branch tip")
		connects++
	}
	assert.Equal(t, 2, connects)
}

func TestChainAddOrphanHeader(t *testing.T) {
	c, _ := newTestChain(t)

	// grandchild's parent (child) has never been added, so it is an
	// orphan relative to this chain.
	grandchild := mustHeader(t, grandchildHeaderBytes)
	_, err := c.Add(grandchild)
	require.ErrorIs(t, err, ErrOrphanHeader)
}

func TestChainAddRejectsBadProofOfWork(t *testing.T) {
	c, _ := newTestChain(t)

	child := mustHeader(t, childHeaderBytes)
	child.Nonce-- // nonce 2 does not meet the regtest target for this header
	_, err := c.Add(child)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.New(errs.Validation, errs.ErrPoW))
}

func TestCheckContextualRejectsBadPrevHash(t *testing.T) {
	root := mustHeader(t, rootHeaderBytes)
	rootEntry := NewEntry(*root, 0, nil)
	child := mustHeader(t, childHeaderBytes)

	// grandchild's own PrevBlock names child, not root; asking
	// CheckContextual to link it onto rootEntry must be rejected even
	// though grandchild's proof of work is otherwise valid.
	grandchild := mustHeader(t, grandchildHeaderBytes)

	ancestor := func(int32) (*Entry, bool) { return nil, false }
	_, err := CheckContextual(grandchild, rootEntry, &chaincfg.RegressionNetParams, ancestor, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.New(errs.Validation, errs.ErrBadPrevHash))

	// Sanity: grandchild does link correctly onto child.
	childEntry := NewEntry(*child, 1, rootEntry.Chainwork)
	_, err = CheckContextual(grandchild, childEntry, &chaincfg.RegressionNetParams, ancestor, false)
	require.NoError(t, err)
}

func TestChainReorg(t *testing.T) {
	c, _ := newTestChain(t)
	obs := &recordingObserver{}
	c.Subscribe(obs)

	child := mustHeader(t, childHeaderBytes)
	childEntry, err := c.Add(child)
	require.NoError(t, err)
	require.Equal(t, childEntry.Hash(), c.Tip().Hash(), "tip not advanced to child before reorg setup")

	altChild := mustHeader(t, altChildHeaderBytes)
	altChildEntry, err := c.Add(altChild)
	require.NoError(t, err)
	require.Equal(t, childEntry.Hash(), c.Tip().Hash(), "equal-work side branch must not become tip")

	// altChild2 extends altChild to height 2, two blocks of work above
	// root versus child's one: this is the point the alt branch
	// overtakes the main chain and triggers a reorg.
	obs.events = nil
	altChild2 := mustHeader(t, altChild2HeaderBytes)
	altChild2Entry, err := c.Add(altChild2)
	require.NoError(t, err)

	require.Equal(t, altChild2Entry.Hash(), c.Tip().Hash(), "tip did not reorg onto the heavier alt branch")
	assert.False(t, c.IsMainChain(childEntry.Hash()), "child should no longer be on the main chain after reorg")
	assert.True(t, c.IsMainChain(altChildEntry.Hash()) && c.IsMainChain(altChild2Entry.Hash()),
		"altChild and altChild2 should be on the main chain after reorg")

	require.NotEmpty(t, obs.events, "expected disconnect/connect events from the reorg")
	assert.Equal(t, EventDisconnect, obs.events[0].Kind)
	assert.Equal(t, childEntry.Hash(), obs.events[0].Entry.Hash(), "first disconnect event should be the old tip (child)")
	last := obs.events[len(obs.events)-1]
	assert.True(t, last.Kind == EventConnect && last.Entry.Hash() == altChild2Entry.Hash(),
		"last reorg event should connect the new tip")

	// altChild3 simply extends the now-main alt branch further; no
	// further disconnect since no competing branch remains.
	obs.events = nil
	altChild3 := mustHeader(t, altChild3HeaderBytes)
	altChild3Entry, err := c.Add(altChild3)
	require.NoError(t, err)
	require.Equal(t, altChild3Entry.Hash(), c.Tip().Hash(), "tip did not extend onto altChild3")
	for _, e := range obs.events {
		assert.NotEqual(t, EventDisconnect, e.Kind, "unexpected disconnect event extending the sole remaining branch")
	}
}

func TestChainEntryByHeightAndHash(t *testing.T) {
	c, root := newTestChain(t)
	child := mustHeader(t, childHeaderBytes)
	childEntry, err := c.Add(child)
	require.NoError(t, err)

	e, ok := c.EntryByHeight(0)
	require.True(t, ok)
	assert.Equal(t, root.BlockHash(), e.Header.BlockHash())

	e, ok = c.EntryByHeight(1)
	require.True(t, ok)
	assert.Equal(t, childEntry.Hash(), e.Hash())

	_, ok = c.EntryByHeight(2)
	assert.False(t, ok, "EntryByHeight(2) should not exist yet")

	e, ok = c.EntryByHash(childEntry.Hash())
	require.True(t, ok)
	assert.EqualValues(t, 1, e.Height)
}
