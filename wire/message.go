// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
)

// Message command strings, per the Bitcoin wire protocol. Only the subset
// needed by a headers-only peer is implemented.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdReject     = "reject"
)

// CommandSize is the fixed size in bytes of a message command in the message
// header, null padded.
const CommandSize = 12

// MessageHeaderSize is the number of bytes in a Bitcoin message header:
// 4 byte magic + 12 byte command + 4 byte payload length + 4 byte checksum.
const MessageHeaderSize = 4 + CommandSize + 4 + 4

// MaxMessagePayload is the maximum bytes a message payload can be for the
// messages this package implements; headers messages are capped well below
// this by MaxHeadersPerMsg.
const MaxMessagePayload = (1024 * 1024 * 4) // 4MB

// Message is the interface implemented by all wire protocol messages this
// package understands.
type Message interface {
	BtcDecode(io.Reader) error
	BtcEncode(io.Writer) error
	Command() string
}

// messageHeader holds the decoded fields of a message envelope.
type messageHeader struct {
	magic    BitcoinNet
	command  string
	length   uint32
	checksum [4]byte
}

func checksum(payload []byte) [4]byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	var cksum [4]byte
	copy(cksum[:], second[:4])
	return cksum
}

// WriteMessage writes a complete message (header + payload) to w.
func WriteMessage(w io.Writer, msg Message, net BitcoinNet) error {
	var payload bytes.Buffer
	if err := msg.BtcEncode(&payload); err != nil {
		return err
	}
	payloadBytes := payload.Bytes()
	if len(payloadBytes) > MaxMessagePayload {
		return fmt.Errorf("message payload is too large - encoded "+
			"%d bytes, but maximum message payload is %d bytes",
			len(payloadBytes), MaxMessagePayload)
	}

	cmd := msg.Command()
	if len(cmd) > CommandSize {
		return fmt.Errorf("command [%s] is too long [max %v]", cmd, CommandSize)
	}
	var command [CommandSize]byte
	copy(command[:], cmd)

	var header [MessageHeaderSize]byte
	littleEndian.PutUint32(header[0:4], uint32(net))
	copy(header[4:16], command[:])
	littleEndian.PutUint32(header[16:20], uint32(len(payloadBytes)))
	cksum := checksum(payloadBytes)
	copy(header[20:24], cksum[:])

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payloadBytes)
	return err
}

// MakeEmptyMessage returns a new, empty message of the concrete type that
// corresponds to command, ready for BtcDecode to fill in. An unrecognized
// command is not a protocol violation by itself — a real peer understands
// messages this node does not need — so the caller should simply discard
// the payload rather than ban the peer.
func MakeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdGetHeaders:
		return NewMsgGetHeaders(), nil
	case CmdHeaders:
		return NewMsgHeaders(), nil
	case CmdInv:
		return NewMsgInv(), nil
	case CmdGetData:
		return NewMsgGetData(), nil
	default:
		return nil, fmt.Errorf("unhandled command [%s]", command)
	}
}

// readMessageHeader parses a message envelope from r.
func readMessageHeader(r io.Reader) (*messageHeader, error) {
	var buf [MessageHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}

	hdr := &messageHeader{
		magic:  BitcoinNet(littleEndian.Uint32(buf[0:4])),
		length: littleEndian.Uint32(buf[16:20]),
	}
	copy(hdr.checksum[:], buf[20:24])

	// Command is null padded; trim trailing zero bytes.
	end := 4
	for end < 16 && buf[end] != 0 {
		end++
	}
	hdr.command = string(buf[4:end])

	return hdr, nil
}

// ReadMessage reads a complete message envelope from r, validates its magic,
// checksum, and length, and decodes the payload into a message of the
// concrete type selected by makeEmptyMessage. The command string from the
// wire is passed back to the caller for diagnostics.
func ReadMessage(r io.Reader, net BitcoinNet, makeEmptyMessage func(command string) (Message, error)) (Message, error) {
	hdr, err := readMessageHeader(r)
	if err != nil {
		return nil, err
	}
	if hdr.magic != net {
		return nil, fmt.Errorf("message from other network [%v]", hdr.magic)
	}
	if hdr.length > MaxMessagePayload {
		return nil, fmt.Errorf("message payload is too large - header "+
			"indicates %d bytes, but max message payload is %d bytes",
			hdr.length, MaxMessagePayload)
	}

	payload := make([]byte, hdr.length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	gotCksum := checksum(payload)
	if gotCksum != hdr.checksum {
		return nil, fmt.Errorf("payload checksum failed - header "+
			"indicates %x, but actual checksum is %x", hdr.checksum, gotCksum)
	}

	msg, err := makeEmptyMessage(hdr.command)
	if err != nil {
		// A command this node doesn't implement (addr, tx, block, ...)
		// is normal peer chatter, not a protocol violation; the payload
		// is simply discarded.
		return &MsgUnknown{CommandStr: hdr.command}, nil
	}
	if err := msg.BtcDecode(bytes.NewReader(payload)); err != nil {
		return nil, err
	}
	return msg, nil
}

// MsgUnknown stands in for any message command this node does not
// implement, so the read loop can skip it rather than tear down the
// connection.
type MsgUnknown struct {
	CommandStr string
}

// BtcDecode is a no-op; the payload was already discarded by ReadMessage.
func (msg *MsgUnknown) BtcDecode(io.Reader) error { return nil }

// BtcEncode always fails: an unknown message is never sent, only received.
func (msg *MsgUnknown) BtcEncode(io.Writer) error {
	return fmt.Errorf("cannot encode an unknown message command %q", msg.CommandStr)
}

// Command returns the original wire command string.
func (msg *MsgUnknown) Command() string { return msg.CommandStr }
