// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgHeadersRoundTrip(t *testing.T) {
	bh, err := NewBlockHeaderFromBytes(genesisHeaderBytes)
	require.NoError(t, err)

	msg := NewMsgHeaders()
	require.NoError(t, msg.AddBlockHeader(bh))

	var buf bytes.Buffer
	require.NoError(t, msg.BtcEncode(&buf))

	got := NewMsgHeaders()
	require.NoError(t, got.BtcDecode(&buf))

	require.Len(t, got.Headers, 1)
	assert.Equal(t, bh.BlockHash(), got.Headers[0].BlockHash())
}

func TestMsgHeadersRejectsNonZeroTxCount(t *testing.T) {
	bh, err := NewBlockHeaderFromBytes(genesisHeaderBytes)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, 1))
	require.NoError(t, bh.BtcEncode(&buf))
	require.NoError(t, WriteVarInt(&buf, 1)) // non-zero tx count

	msg := NewMsgHeaders()
	require.Error(t, msg.BtcDecode(&buf))
}

func TestMsgHeadersAddBlockHeaderEnforcesMax(t *testing.T) {
	msg := &MsgHeaders{Headers: make([]*BlockHeader, MaxHeadersPerMsg)}
	require.Error(t, msg.AddBlockHeader(&BlockHeader{}))
}
