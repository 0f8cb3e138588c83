// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/wire"
)

// genesisMerkleRoot is the hash of the coinbase transaction in the genesis
// block. It is the same for every network this package defines, since the
// header-only peer never validates the genesis block's own transaction set
// and treats the genesis header as a trusted anchor asserted by network
// parameters rather than a candidate run through the validator.
var genesisMerkleRoot = chainhash.Hash([chainhash.HashSize]byte{
	0x3b, 0xa3, 0xed, 0xfd, 0x7a, 0x7b, 0x12, 0xb2,
	0x7a, 0xc7, 0x2c, 0x3e, 0x67, 0x76, 0x8f, 0x61,
	0x7f, 0xc8, 0x1b, 0xc3, 0x88, 0x8a, 0x51, 0x32,
	0x3a, 0x9f, 0xb8, 0xaa, 0x4b, 0x1e, 0x5e, 0x4a,
})

// mainNetGenesisHeader is the real first block header of the Bitcoin main
// network.
var mainNetGenesisHeader = wire.BlockHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: genesisMerkleRoot,
	Timestamp:  time.Unix(0x495fab29, 0), // 2009-01-03 18:15:05 +0000 UTC
	Bits:       0x1d00ffff,
	Nonce:      0x7c2bac1d,
}

// testNet3GenesisHeader is the real first block header of the Bitcoin test
// network (version 3).
var testNet3GenesisHeader = wire.BlockHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: genesisMerkleRoot,
	Timestamp:  time.Unix(1296688602, 0), // 2011-02-02 23:16:42 +0000 UTC
	Bits:       0x1d00ffff,
	Nonce:      0x18aea41a,
}

// regTestGenesisHeader is the real first block header used by btcd-family
// regression test networks.
var regTestGenesisHeader = wire.BlockHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: genesisMerkleRoot,
	Timestamp:  time.Unix(1296688602, 0),
	Bits:       0x207fffff,
	Nonce:      2,
}

// simNetGenesisHeader is the real first block header used by btcd-family
// simulation test networks.
var simNetGenesisHeader = wire.BlockHeader{
	Version:    1,
	PrevBlock:  chainhash.Hash{},
	MerkleRoot: genesisMerkleRoot,
	Timestamp:  time.Unix(1401292357, 0), // 2014-05-28 15:52:37 +0000 UTC
	Bits:       0x207fffff,
	Nonce:      2,
}
