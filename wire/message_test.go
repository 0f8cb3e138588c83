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

func TestWriteReadMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"version", NewMsgVersion(1234, 0, "/headernode:0.1.0/")},
		{"verack", &MsgVerAck{}},
		{"ping", NewMsgPing(5678)},
		{"pong", NewMsgPong(5678)},
		{"getheaders", NewMsgGetHeaders()},
		{"headers", NewMsgHeaders()},
		{"inv", NewMsgInv()},
		{"getdata", NewMsgGetData()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteMessage(&buf, test.msg, MainNet))

			got, err := ReadMessage(&buf, MainNet, MakeEmptyMessage)
			require.NoError(t, err)
			assert.Equal(t, test.msg.Command(), got.Command())
		})
	}
}

func TestReadMessageWrongNetwork(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &MsgVerAck{}, TestNet3))

	_, err := ReadMessage(&buf, MainNet, MakeEmptyMessage)
	require.Error(t, err)
}

func TestReadMessageUnknownCommand(t *testing.T) {
	var buf bytes.Buffer
	msg := &MsgUnknown{CommandStr: "addr"}
	var header [MessageHeaderSize]byte
	littleEndian.PutUint32(header[0:4], uint32(MainNet))
	copy(header[4:16], "addr")
	cksum := checksum(nil)
	copy(header[20:24], cksum[:])
	buf.Write(header[:])

	got, err := ReadMessage(&buf, MainNet, MakeEmptyMessage)
	require.NoError(t, err)
	unknown, ok := got.(*MsgUnknown)
	require.True(t, ok, "ReadMessage: got %T, want *MsgUnknown", got)
	assert.Equal(t, msg.Command(), unknown.Command())
	assert.Error(t, unknown.BtcEncode(&buf), "expected MsgUnknown.BtcEncode to refuse encoding")
}

func TestMakeEmptyMessageUnhandledCommand(t *testing.T) {
	_, err := MakeEmptyMessage("notarealcommand")
	require.Error(t, err)
}
