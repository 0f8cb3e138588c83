// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMsgGetHeadersRoundTrip(t *testing.T) {
	h1 := chainhash.Hash{0x01}
	h2 := chainhash.Hash{0x02}
	stop := chainhash.Hash{0x03}

	msg := NewMsgGetHeaders()
	msg.ProtocolVersion = 70016
	require.NoError(t, msg.AddBlockLocatorHash(&h1))
	require.NoError(t, msg.AddBlockLocatorHash(&h2))
	msg.HashStop = stop

	var buf bytes.Buffer
	require.NoError(t, msg.BtcEncode(&buf))

	got := NewMsgGetHeaders()
	require.NoError(t, got.BtcDecode(&buf))

	assert.Equal(t, msg.ProtocolVersion, got.ProtocolVersion)
	require.Len(t, got.BlockLocatorHashes, 2)
	assert.Equal(t, h1, *got.BlockLocatorHashes[0])
	assert.Equal(t, h2, *got.BlockLocatorHashes[1])
	assert.Equal(t, stop, got.HashStop)
}

func TestMsgGetHeadersAddBlockLocatorHashEnforcesMax(t *testing.T) {
	msg := &MsgGetHeaders{
		BlockLocatorHashes: make([]*chainhash.Hash, MaxBlockLocatorsPerMsg),
	}
	var h chainhash.Hash
	require.Error(t, msg.AddBlockLocatorHash(&h))
}

func TestMsgGetHeadersCommand(t *testing.T) {
	msg := NewMsgGetHeaders()
	assert.Equal(t, CmdGetHeaders, msg.Command())
}
