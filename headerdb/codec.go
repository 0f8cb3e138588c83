// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerdb

import (
	"fmt"
	"math/big"

	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/wire"
)

// Record variant tags. A record at or below the store's historical point
// (see Params.HistoricalPoint) needs only its 80 raw header bytes: past
// that point no reorg can ever reach it again, so its height and chainwork
// are never consulted. Above it, a record carries its full ChainEntry so a
// restart can rebuild the Working Chain's reorg state without replaying
// every header from genesis.
const (
	recordBareHeader byte = 0x00
	recordChainEntry byte = 0x01
)

// encodeBareHeader stores just the 80-byte header.
func encodeBareHeader(h *wire.BlockHeader) []byte {
	buf := make([]byte, 0, 1+wire.MaxBlockHeaderPayload)
	buf = append(buf, recordBareHeader)
	buf = append(buf, h.Bytes()...)
	return buf
}

// encodeChainEntry stores the header plus a length-prefixed big-endian
// chainwork, height recovered separately from the BY_HEIGHT key itself.
func encodeChainEntry(e *headerchain.Entry) []byte {
	workBytes := e.Chainwork.Bytes()

	buf := make([]byte, 0, 1+wire.MaxBlockHeaderPayload+1+len(workBytes))
	buf = append(buf, recordChainEntry)
	buf = append(buf, e.Header.Bytes()...)
	buf = append(buf, byte(len(workBytes)))
	buf = append(buf, workBytes...)
	return buf
}

// decodeRecord parses a stored record, filling in height (known from the
// key, not the value) and reconstructing a zero chainwork for bare records
// — callers that need chainwork for a historical height must derive it
// from an adjacent ChainEntry or treat it as immutable and irrelevant,
// per the historical/ChainEntry split.
func decodeRecord(raw []byte, height int32) (*headerchain.Entry, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("headerdb: empty record")
	}
	tag := raw[0]
	body := raw[1:]

	if len(body) < wire.MaxBlockHeaderPayload {
		return nil, fmt.Errorf("headerdb: truncated header record")
	}
	header, err := wire.NewBlockHeaderFromBytes(body[:wire.MaxBlockHeaderPayload])
	if err != nil {
		return nil, err
	}

	switch tag {
	case recordBareHeader:
		return headerchain.NewEntryWithWork(*header, height, big.NewInt(0)), nil

	case recordChainEntry:
		rest := body[wire.MaxBlockHeaderPayload:]
		if len(rest) < 1 {
			return nil, fmt.Errorf("headerdb: missing chainwork length")
		}
		n := int(rest[0])
		if len(rest) < 1+n {
			return nil, fmt.Errorf("headerdb: truncated chainwork")
		}
		work := new(big.Int).SetBytes(rest[1 : 1+n])
		return headerchain.NewEntryWithWork(*header, height, work), nil

	default:
		return nil, fmt.Errorf("headerdb: unknown record tag %#x", tag)
	}
}
