// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MsgVersion implements the Message interface and represents the minimal
// subset of the Bitcoin version handshake message fields this headers-only
// peer needs: protocol version, services, timestamp, and the starting
// height the remote peer claims for its chain.
type MsgVersion struct {
	ProtocolVersion uint32
	Services        ServiceFlag
	Timestamp       int64
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (msg *MsgVersion) BtcDecode(r io.Reader) error {
	if err := readElement(r, &msg.ProtocolVersion); err != nil {
		return err
	}
	var services uint64
	if err := readElement(r, &services); err != nil {
		return err
	}
	msg.Services = ServiceFlag(services)
	if err := readElement(r, &msg.Timestamp); err != nil {
		return err
	}
	if err := readElement(r, &msg.Nonce); err != nil {
		return err
	}

	uaLen, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	ua := make([]byte, uaLen)
	if _, err := io.ReadFull(r, ua); err != nil {
		return err
	}
	msg.UserAgent = string(ua)

	return readElement(r, &msg.StartHeight)
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (msg *MsgVersion) BtcEncode(w io.Writer) error {
	if err := writeElement(w, msg.ProtocolVersion); err != nil {
		return err
	}
	if err := writeElement(w, uint64(msg.Services)); err != nil {
		return err
	}
	if err := writeElement(w, msg.Timestamp); err != nil {
		return err
	}
	if err := writeElement(w, msg.Nonce); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(msg.UserAgent))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, msg.UserAgent); err != nil {
		return err
	}
	return writeElement(w, msg.StartHeight)
}

// Command returns the protocol command string for the message.
func (msg *MsgVersion) Command() string {
	return CmdVersion
}

// NewMsgVersion returns a new version message for the local node.
func NewMsgVersion(nonce uint64, startHeight int32, userAgent string) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: ProtocolVersion,
		Services:        0,
		Nonce:           nonce,
		UserAgent:       userAgent,
		StartHeight:     startHeight,
	}
}

// MsgVerAck implements the Message interface and acknowledges a version
// message, completing the handshake.
type MsgVerAck struct{}

// BtcDecode decodes r into the receiver; verack has an empty payload.
func (msg *MsgVerAck) BtcDecode(io.Reader) error { return nil }

// BtcEncode encodes the receiver to w; verack has an empty payload.
func (msg *MsgVerAck) BtcEncode(io.Writer) error { return nil }

// Command returns the protocol command string for the message.
func (msg *MsgVerAck) Command() string { return CmdVerAck }
