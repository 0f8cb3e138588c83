// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxBlockHeaderPayload is the number of bytes a block header can be:
// version 4 bytes + PrevBlock 32 bytes + MerkleRoot 32 bytes + Timestamp 4
// bytes + Bits 4 bytes + Nonce 4 bytes.
const MaxBlockHeaderPayload = 4 + (chainhash.HashSize * 2) + 4 + 4 + 4

// BlockHeader defines information about a block and is used in the headers
// (MsgHeaders) message and as the unit of work for the header chain.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// PrevBlock is the hash of the previous block header in the block chain.
	PrevBlock chainhash.Hash

	// MerkleRoot is the merkle tree reference to hash of all transactions
	// for the block.
	MerkleRoot chainhash.Hash

	// Timestamp is the time the block was created, encoded on the wire as
	// a uint32 unix timestamp and therefore limited to dates before 2106.
	Timestamp time.Time

	// Bits is the difficulty target for the block, compact representation.
	Bits uint32

	// Nonce used to generate the block.
	Nonce uint32
}

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	_ = writeBlockHeader(buf, h)
	return chainhash.DoubleHashH(buf.Bytes())
}

// BtcDecode decodes r into the receiver using the Bitcoin wire encoding.
func (h *BlockHeader) BtcDecode(r io.Reader) error {
	return readBlockHeader(r, h)
}

// BtcEncode encodes the receiver to w using the Bitcoin wire encoding.
func (h *BlockHeader) BtcEncode(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Deserialize decodes a block header from r. At present there is no
// difference between the wire encoding and the long-term storage encoding,
// so this is an alias of BtcDecode kept for symmetry with Serialize.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// Serialize encodes the header for long-term storage.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Bytes returns the serialized 80-byte contents of the header.
func (h *BlockHeader) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	_ = writeBlockHeader(buf, h)
	return buf.Bytes()
}

// NewBlockHeaderFromBytes decodes the first MaxBlockHeaderPayload bytes of b
// into a new BlockHeader. A shorter b is an error; bytes after the first
// MaxBlockHeaderPayload are ignored.
func NewBlockHeaderFromBytes(b []byte) (*BlockHeader, error) {
	h := new(BlockHeader)
	if err := readBlockHeader(bytes.NewReader(b), h); err != nil {
		return nil, err
	}
	return h, nil
}

// NewBlockHeader returns a new BlockHeader using the provided version,
// previous block hash, merkle root hash, difficulty bits, and nonce, using
// the current time for the timestamp.
func NewBlockHeader(version int32, prevHash, merkleRootHash *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {

	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	var ts uint32
	if err := readElement(r, &bh.Version); err != nil {
		return err
	}
	if err := readElement(r, (*[32]byte)(&bh.PrevBlock)); err != nil {
		return err
	}
	if err := readElement(r, (*[32]byte)(&bh.MerkleRoot)); err != nil {
		return err
	}
	if err := readElement(r, &ts); err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(ts), 0)
	if err := readElement(r, &bh.Bits); err != nil {
		return err
	}
	return readElement(r, &bh.Nonce)
}

func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	sec := uint32(bh.Timestamp.Unix())
	if err := writeElement(w, bh.Version); err != nil {
		return err
	}
	if err := writeElement(w, [32]byte(bh.PrevBlock)); err != nil {
		return err
	}
	if err := writeElement(w, [32]byte(bh.MerkleRoot)); err != nil {
		return err
	}
	if err := writeElement(w, sec); err != nil {
		return err
	}
	if err := writeElement(w, bh.Bits); err != nil {
		return err
	}
	return writeElement(w, bh.Nonce)
}
