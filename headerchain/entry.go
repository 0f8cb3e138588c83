// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/wire"
)

// Entry augments a Header with its absolute height and cumulative
// chainwork, the two pieces of context the Validator needs for retargeting
// and reorg comparisons that a bare 80-byte header cannot supply on its
// own. It corresponds to spec.md's ChainEntry.
type Entry struct {
	Header    wire.BlockHeader
	Height    int32
	Chainwork *big.Int

	hash chainhash.Hash
}

// NewEntry builds an Entry from a header, its height, and the chainwork of
// its parent; the entry's own chainwork is the parent's plus the work this
// header's difficulty bits represent.
func NewEntry(header wire.BlockHeader, height int32, parentWork *big.Int) *Entry {
	work := calcWork(header.Bits)
	if parentWork != nil {
		work = new(big.Int).Add(parentWork, work)
	}
	return &Entry{
		Header:    header,
		Height:    height,
		Chainwork: work,
		hash:      header.BlockHash(),
	}
}

// NewEntryWithWork builds an Entry from a header, its height, and its exact
// cumulative chainwork, used when reconstructing an Entry already stored as
// a tagged ChainEntry record rather than deriving work from a parent.
func NewEntryWithWork(header wire.BlockHeader, height int32, work *big.Int) *Entry {
	return &Entry{
		Header:    header,
		Height:    height,
		Chainwork: work,
		hash:      header.BlockHash(),
	}
}

// Hash returns the entry's block hash, computed once at construction.
func (e *Entry) Hash() chainhash.Hash {
	return e.hash
}
