// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgPing implements the Message interface and is used to periodically
// confirm a peer connection is still alive.
type MsgPing struct {
	Nonce uint64
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgPing) BtcDecode(r io.Reader) error {
	return readElement(r, &msg.Nonce)
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgPing) BtcEncode(w io.Writer) error {
	return writeElement(w, msg.Nonce)
}

// Command returns the protocol command string for the message.
func (msg *MsgPing) Command() string { return CmdPing }

// NewMsgPing returns a new ping message with the given nonce.
func NewMsgPing(nonce uint64) *MsgPing { return &MsgPing{Nonce: nonce} }

// MsgPong implements the Message interface and replies to a ping with the
// nonce it carried.
type MsgPong struct {
	Nonce uint64
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgPong) BtcDecode(r io.Reader) error {
	return readElement(r, &msg.Nonce)
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgPong) BtcEncode(w io.Writer) error {
	return writeElement(w, msg.Nonce)
}

// Command returns the protocol command string for the message.
func (msg *MsgPong) Command() string { return CmdPong }

// NewMsgPong returns a new pong message replying to the given ping nonce.
func NewMsgPong(nonce uint64) *MsgPong { return &MsgPong{Nonce: nonce} }
