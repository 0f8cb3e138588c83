// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"math/big"
	"sort"
	"time"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/wire"
)

// medianTimeBlocks is the number of preceding blocks that enter the median
// time past calculation (spec.md §4.1 MTP).
const medianTimeBlocks = 11

// AncestorFunc looks up the entry at a given height along a specific
// branch's ancestry. The Working Chain supplies this by walking its
// parent-hash links, so it works for side branches as well as the main
// chain.
type AncestorFunc func(height int32) (*Entry, bool)

// CheckContextFree performs the structural, stateless checks on a candidate
// header: the bits must not claim a target looser than the network's
// proof-of-work limit, and the header's hash must not exceed the target the
// bits decode to.
func CheckContextFree(h *wire.BlockHeader, params *chaincfg.Params) error {
	target := compactToBig(h.Bits)
	if target.Sign() <= 0 {
		return errs.New(errs.Validation, errs.ErrBadBits)
	}
	if target.Cmp(params.PowLimit) > 0 {
		return errs.New(errs.Validation, errs.ErrBadBits)
	}

	hash := h.BlockHash()
	hashNum := hashToBig(&hash)
	if hashNum.Cmp(target) > 0 {
		return errs.New(errs.Validation, errs.ErrPoW)
	}

	return nil
}

// CheckContextual performs the checks that require the chain: the parent
// link, median-time-past, retarget correctness, and (optionally) checkpoint
// conformance. On success it returns the new Entry with its chainwork
// computed relative to prev.
func CheckContextual(
	h *wire.BlockHeader,
	prev *Entry,
	params *chaincfg.Params,
	ancestor AncestorFunc,
	enforceCheckpoints bool,
) (*Entry, error) {

	if h.PrevBlock != prev.Hash() {
		return nil, errs.New(errs.Validation, errs.ErrBadPrevHash)
	}

	mtp := calcMedianTimePast(prev, ancestor)
	if !h.Timestamp.After(mtp) {
		return nil, errs.New(errs.Validation, errs.ErrBadTime)
	}

	nextHeight := prev.Height + 1
	wantBits, err := nextRequiredBits(h, prev, params, ancestor, nextHeight)
	if err != nil {
		return nil, err
	}
	if h.Bits != wantBits {
		return nil, errs.New(errs.Validation, errs.ErrBadRetarget)
	}

	if enforceCheckpoints {
		if cp, ok := params.CheckpointByHeight(nextHeight); ok {
			hash := h.BlockHash()
			if hash != *cp.Hash {
				return nil, errs.New(errs.Validation, errs.ErrFailedCheckpoint)
			}
		}
	}

	return NewEntry(*h, nextHeight, prev.Chainwork), nil
}

// calcMedianTimePast returns the median timestamp of prev and up to
// medianTimeBlocks-1 of its ancestors, walking backward through ancestor
// until either medianTimeBlocks timestamps are collected or the ancestry
// runs out (e.g. at the floor imposed by a custom start height).
func calcMedianTimePast(prev *Entry, ancestor AncestorFunc) time.Time {
	timestamps := make([]time.Time, 0, medianTimeBlocks)
	timestamps = append(timestamps, prev.Header.Timestamp)

	for i := 1; i < medianTimeBlocks; i++ {
		height := prev.Height - int32(i)
		entry, ok := ancestor(height)
		if !ok {
			break
		}
		timestamps = append(timestamps, entry.Header.Timestamp)
	}

	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i].Before(timestamps[j])
	})
	return timestamps[len(timestamps)/2]
}

// nextRequiredBits computes the difficulty bits the header at nextHeight
// must carry. Off a retarget boundary it is ordinarily just prev's bits,
// subject to the optional testnet-style minimum-difficulty rule; on a
// retarget boundary it is recomputed from the actual time the previous
// RetargetInterval blocks took, clamped to
// [TargetTimespan/RetargetAdjustmentFactor, TargetTimespan*RetargetAdjustmentFactor].
func nextRequiredBits(
	h *wire.BlockHeader,
	prev *Entry,
	params *chaincfg.Params,
	ancestor AncestorFunc,
	nextHeight int32,
) (uint32, error) {

	if params.PoWNoRetargeting {
		return params.PowLimitBits, nil
	}

	if nextHeight%params.RetargetInterval != 0 {
		if params.ReduceMinDifficulty {
			maxGap := params.MinDiffReductionTime
			if h.Timestamp.After(prev.Header.Timestamp.Add(maxGap)) {
				return params.PowLimitBits, nil
			}
			return lastNonMinDifficultyBits(prev, params, ancestor), nil
		}
		return prev.Header.Bits, nil
	}

	firstHeight := nextHeight - params.RetargetInterval
	first, ok := ancestor(firstHeight)
	if !ok {
		return 0, errs.New(errs.Invariant, errs.ErrMissingAncestor)
	}

	actualTimespan := prev.Header.Timestamp.Sub(first.Header.Timestamp)
	adjustedTimespan := clampTimespan(actualTimespan, params)

	newTarget := compactToBig(prev.Header.Bits)
	newTarget.Mul(newTarget, big.NewInt(int64(adjustedTimespan)))
	newTarget.Div(newTarget, big.NewInt(int64(params.TargetTimespan)))

	if newTarget.Cmp(params.PowLimit) > 0 {
		return params.PowLimitBits, nil
	}
	return bigToCompact(newTarget), nil
}

// lastNonMinDifficultyBits implements the testnet rule that a block
// following a minimum-difficulty exception reverts to the last bits that
// were not themselves a minimum-difficulty exception, by walking backward
// over non-retarget-boundary, minimum-difficulty blocks.
func lastNonMinDifficultyBits(prev *Entry, params *chaincfg.Params, ancestor AncestorFunc) uint32 {
	entry := prev
	for entry.Height%params.RetargetInterval != 0 && entry.Header.Bits == params.PowLimitBits {
		parent, ok := ancestor(entry.Height - 1)
		if !ok {
			break
		}
		entry = parent
	}
	return entry.Header.Bits
}

func clampTimespan(actual time.Duration, params *chaincfg.Params) time.Duration {
	min := params.TargetTimespan / time.Duration(params.RetargetAdjustmentFactor)
	max := params.TargetTimespan * time.Duration(params.RetargetAdjustmentFactor)
	switch {
	case actual < min:
		return min
	case actual > max:
		return max
	default:
		return actual
	}
}
