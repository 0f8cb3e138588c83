// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxHeadersPerMsg is the maximum number of headers that can be in a single
// headers message, per the Bitcoin wire protocol.
const MaxHeadersPerMsg = 2000

// MsgHeaders implements the Message interface and represents a headers
// message. It is used to deliver block header information in response to a
// getheaders message.
type MsgHeaders struct {
	Headers []*BlockHeader
}

// AddBlockHeader adds a new block header to the message.
func (msg *MsgHeaders) AddBlockHeader(bh *BlockHeader) error {
	if len(msg.Headers)+1 > MaxHeadersPerMsg {
		return fmt.Errorf("AddBlockHeader: too many block headers for "+
			"message [max %d]", MaxHeadersPerMsg)
	}
	msg.Headers = append(msg.Headers, bh)
	return nil
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgHeaders) BtcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxHeadersPerMsg {
		return fmt.Errorf("too many headers for message "+
			"[count %d, max %d]", count, MaxHeadersPerMsg)
	}

	msg.Headers = make([]*BlockHeader, 0, count)
	for i := uint64(0); i < count; i++ {
		bh := new(BlockHeader)
		if err := bh.BtcDecode(r); err != nil {
			return err
		}

		// Each header on the wire is followed by a transaction count
		// varint which is always zero for headers-only messages; a
		// non-zero value here would indicate a peer speaking the
		// full block-serving variant of the protocol incorrectly.
		txCount, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		if txCount != 0 {
			return fmt.Errorf("block header transaction count "+
				"was non-zero [%d]", txCount)
		}

		msg.Headers = append(msg.Headers, bh)
	}

	return nil
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgHeaders) BtcEncode(w io.Writer) error {
	count := len(msg.Headers)
	if count > MaxHeadersPerMsg {
		return fmt.Errorf("too many headers for message "+
			"[count %d, max %d]", count, MaxHeadersPerMsg)
	}

	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, bh := range msg.Headers {
		if err := bh.BtcEncode(w); err != nil {
			return err
		}
		if err := WriteVarInt(w, 0); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgHeaders) Command() string {
	return CmdHeaders
}

// NewMsgHeaders returns a new empty headers message.
func NewMsgHeaders() *MsgHeaders {
	return &MsgHeaders{Headers: make([]*BlockHeader, 0, MaxHeadersPerMsg)}
}
