// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the per-network parameters a header-only peer
// needs: the genesis header, proof-of-work limits, the retarget schedule,
// and the built-in checkpoints. Callers own their Params value and thread it
// by reference; there is no process-wide mutable network state.
package chaincfg

import (
	"errors"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/blockpeer/headernode/wire"
)

// bigOne is 1 represented as a big.Int, defined once to avoid the overhead
// of repeated allocation.
var bigOne = big.NewInt(1)

// Proof-of-work limits, one per default network.
var (
	mainPowLimit    = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	testNet3PowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
	simNetPowLimit  = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Checkpoint identifies a known good point in the header chain. Headers at
// or below HistoricalPoint (the last checkpoint's height rounded down to a
// multiple of RetargetInterval) are "historical": the Header Store
// keeps only their bare 80 bytes rather than a full ChainEntry, since their
// ancestry (and therefore their chainwork) can never be reorganised away.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// DNSSeed identifies a DNS seed used by the (external) peer manager to
// discover candidate peers for the Sync Driver to connect to.
type DNSSeed struct {
	Host string
}

// Params defines a Bitcoin-family network by the parameters the header
// chain state machine needs. It deliberately omits address, script, and
// wallet-related fields: this node does not index transactions, addresses,
// or coins.
type Params struct {
	// Name is a human-readable identifier for the network.
	Name string

	// Net is the magic value used to identify message envelopes belonging
	// to this network.
	Net wire.BitcoinNet

	// DefaultPort is the default peer-to-peer TCP port for the network.
	DefaultPort string

	// DNSSeeds lists seeds the peer manager may use to discover peers.
	DNSSeeds []DNSSeed

	// GenesisHeader is the first header of the chain. It is injected into
	// the Working Chain directly as a trusted root rather than being run
	// through the Header Validator.
	GenesisHeader wire.BlockHeader

	// PowLimit is the highest allowed proof-of-work target, as a uint256.
	PowLimit *big.Int

	// PowLimitBits is PowLimit in compact ("nBits") form.
	PowLimitBits uint32

	// PoWNoRetargeting disables difficulty retargeting entirely. This
	// should only be set for regtest-like networks where blocks are
	// produced on demand by a test driver.
	PoWNoRetargeting bool

	// RetargetInterval is the number of blocks between difficulty
	// recomputations (2016 on Bitcoin mainnet).
	RetargetInterval int32

	// TargetTimespan is the desired amount of time RetargetInterval
	// blocks should take to produce.
	TargetTimespan time.Duration

	// TargetTimePerBlock is TargetTimespan / RetargetInterval.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor bounds how much the difficulty may change
	// at a single retarget: the new target is clamped to
	// [old/factor, old*factor].
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty enables the testnet-style rule that allows the
	// minimum difficulty block when too much time has elapsed since the
	// previous block. Honored for TestNet3 and SimNet; never for MainNet
	// or RegressionNet (see SPEC_FULL.md open question 1).
	ReduceMinDifficulty bool

	// MinDiffReductionTime is the elapsed-time threshold that triggers
	// the ReduceMinDifficulty rule. Only meaningful when
	// ReduceMinDifficulty is true.
	MinDiffReductionTime time.Duration

	// Checkpoints are ordered from oldest to newest.
	Checkpoints []Checkpoint
}

// LastCheckpointHeight returns the height of the newest checkpoint, or 0 if
// the network has none.
func (p *Params) LastCheckpointHeight() int32 {
	if len(p.Checkpoints) == 0 {
		return 0
	}
	return p.Checkpoints[len(p.Checkpoints)-1].Height
}

// CheckpointByHeight returns the checkpoint asserted at the given height, if
// any.
func (p *Params) CheckpointByHeight(height int32) (*Checkpoint, bool) {
	for i := range p.Checkpoints {
		if p.Checkpoints[i].Height == height {
			return &p.Checkpoints[i], true
		}
	}
	return nil, false
}

// HistoricalPoint returns the largest multiple of RetargetInterval that is
// less than or equal to the last checkpoint height, or 0 if there is no
// checkpoint. Heights at or below this point are stored in the Header Store
// as bare headers; heights above it are stored as full ChainEntry records.
func (p *Params) HistoricalPoint() int32 {
	last := p.LastCheckpointHeight()
	if last <= 0 {
		return 0
	}
	return last - (last % p.RetargetInterval)
}

func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		// Only ever called with hard-coded, known-good hashes at
		// package init; a failure here is a programming error.
		panic(err)
	}
	return hash
}

// MainNetParams are the parameters for the main Bitcoin network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         wire.MainNet,
	DefaultPort: "8333",
	DNSSeeds: []DNSSeed{
		{"seed.bitcoin.sipa.be"},
		{"dnsseed.bluematt.me"},
		{"dnsseed.bitcoin.dashjr.org"},
		{"seed.bitcoinstats.com"},
	},

	GenesisHeader:    mainNetGenesisHeader,
	PowLimit:         mainPowLimit,
	PowLimitBits:     0x1d00ffff,
	PoWNoRetargeting: false,

	RetargetInterval:         2016,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      false,

	Checkpoints: []Checkpoint{
		{11111, newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{33333, newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
		{74000, newHashFromStr("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20")},
		{105000, newHashFromStr("00000000000291ce28027faea320c8d2b054b2e0fe44a773f3eefb151d6bdc97")},
		{168000, newHashFromStr("000000000000099e61ea72015e79632f216fe6cb33d7899acb35b75c8303b763")},
		{193000, newHashFromStr("000000000000059f452a5f7340de6682a977387c17010ff6e6c3bd83ca8b1317")},
		{210000, newHashFromStr("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e")},
	},
}

// TestNet3Params are the parameters for the test Bitcoin network (version
// 3).
var TestNet3Params = Params{
	Name:        "testnet3",
	Net:         wire.TestNet3,
	DefaultPort: "18333",
	DNSSeeds: []DNSSeed{
		{"testnet-seed.bitcoin.jonasschnelli.ch"},
	},

	GenesisHeader:    testNet3GenesisHeader,
	PowLimit:         testNet3PowLimit,
	PowLimitBits:     0x1d00ffff,
	PoWNoRetargeting: false,

	RetargetInterval:         2016,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,

	Checkpoints: []Checkpoint{
		{546, newHashFromStr("000000002a936ca763904c3c35fce2f3556c559c0214345d31b1bcebf76acb70")},
	},
}

// RegressionNetParams are the parameters for the regression test network.
// Blocks can only be produced on demand by a test driver, so difficulty
// retargeting is disabled and there are no built-in checkpoints.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         wire.TestNet,
	DefaultPort: "18444",

	GenesisHeader:    regTestGenesisHeader,
	PowLimit:         regressionPowLimit,
	PowLimitBits:     0x207fffff,
	PoWNoRetargeting: true,

	RetargetInterval:         2016,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      false,
}

// SimNetParams are the parameters for the simulation test network.
var SimNetParams = Params{
	Name:        "simnet",
	Net:         wire.SimNet,
	DefaultPort: "18555",

	GenesisHeader:    simNetGenesisHeader,
	PowLimit:         simNetPowLimit,
	PowLimitBits:     0x207fffff,
	PoWNoRetargeting: false,

	RetargetInterval:         2016,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,
}

// ErrUnknownNetwork is returned by ParamsForNetName for an unrecognized
// network name.
var ErrUnknownNetwork = errors.New("chaincfg: unknown network name")

// ParamsForNetName resolves one of the four built-in networks by name,
// primarily for use by configuration loaders.
func ParamsForNetName(name string) (*Params, error) {
	switch name {
	case "mainnet":
		return &MainNetParams, nil
	case "testnet", "testnet3":
		return &TestNet3Params, nil
	case "regtest":
		return &RegressionNetParams, nil
	case "simnet":
		return &SimNetParams, nil
	default:
		return nil, ErrUnknownNetwork
	}
}
