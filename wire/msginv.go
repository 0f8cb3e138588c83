// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// InvType represents the allowed types of inventory vectors.
type InvType uint32

// Inventory vector types understood by a headers-only peer.
const (
	InvTypeError InvType = 0
	InvTypeBlock InvType = 2
)

// MaxInvPerMsg is the maximum number of inventory vectors in inv/getdata.
const MaxInvPerMsg = 50000

// InvVect defines a bitcoin inventory vector used to describe data, as is
// used to communicate new block announcements (inv) and to request a
// specific item (getdata).
type InvVect struct {
	Type InvType
	Hash chainhash.Hash
}

// MsgInv implements the Message interface and is used to advertise a peer's
// knowledge of block hashes it believes the receiver does not yet have.
type MsgInv struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgInv) AddInvVect(iv *InvVect) error {
	if len(msg.InvList)+1 > MaxInvPerMsg {
		return fmt.Errorf("AddInvVect: too many inv vectors for message [max %d]", MaxInvPerMsg)
	}
	msg.InvList = append(msg.InvList, iv)
	return nil
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgInv) BtcDecode(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > MaxInvPerMsg {
		return fmt.Errorf("too many inv vectors for message [count %d, max %d]", count, MaxInvPerMsg)
	}

	msg.InvList = make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := new(InvVect)
		var typ uint32
		if err := readElement(r, &typ); err != nil {
			return err
		}
		iv.Type = InvType(typ)
		if err := readElement(r, (*[32]byte)(&iv.Hash)); err != nil {
			return err
		}
		msg.InvList = append(msg.InvList, iv)
	}
	return nil
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgInv) BtcEncode(w io.Writer) error {
	count := len(msg.InvList)
	if count > MaxInvPerMsg {
		return fmt.Errorf("too many inv vectors for message [count %d, max %d]", count, MaxInvPerMsg)
	}
	if err := WriteVarInt(w, uint64(count)); err != nil {
		return err
	}
	for _, iv := range msg.InvList {
		if err := writeElement(w, uint32(iv.Type)); err != nil {
			return err
		}
		if err := writeElement(w, [32]byte(iv.Hash)); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the protocol command string for the message.
func (msg *MsgInv) Command() string { return CmdInv }

// NewMsgInv returns a new empty inv message.
func NewMsgInv() *MsgInv { return &MsgInv{InvList: make([]*InvVect, 0, 1)} }

// MsgGetData implements the Message interface and is used to request the
// data identified by a list of InvVects. This node never sends it: the sync
// driver resolves orphan roots with getheaders, so the type only lets an
// incoming getdata decode cleanly.
type MsgGetData struct {
	InvList []*InvVect
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgGetData) BtcDecode(r io.Reader) error {
	inv := MsgInv{}
	if err := inv.BtcDecode(r); err != nil {
		return err
	}
	msg.InvList = inv.InvList
	return nil
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgGetData) BtcEncode(w io.Writer) error {
	inv := MsgInv{InvList: msg.InvList}
	return inv.BtcEncode(w)
}

// Command returns the protocol command string for the message.
func (msg *MsgGetData) Command() string { return CmdGetData }

// NewMsgGetData returns a new empty getdata message.
func NewMsgGetData() *MsgGetData { return &MsgGetData{InvList: make([]*InvVect, 0, 1)} }
