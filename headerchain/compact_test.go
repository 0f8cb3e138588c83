// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// compactTests mirrors the well-known compact ("nBits") encodings used
// throughout the Bitcoin ecosystem, including the genesis block's maximum
// mainnet target and the negative/overflow mantissa edge cases the original
// Satoshi client's encoding produces.
func TestCompactToBig(t *testing.T) {
	tests := []struct {
		name    string
		compact uint32
		want    string // decimal
	}{
		{"mainnet genesis target", 0x1d00ffff, "26959535291011309493156476344723991336010898738574164086137773096960"},
		{"zero mantissa", 0x01003456, "0"},
		{"small exponent", 0x01123456, "18"},
		{"regtest/simnet powlimit bits", 0x207fffff, "57896037716911750921221705069588091649609539881711309849342236841432341020672"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := compactToBig(test.compact)
			want, ok := new(big.Int).SetString(test.want, 10)
			require.True(t, ok, "bad test fixture: %q is not a valid decimal integer", test.want)
			require.Zero(t, got.Cmp(want), "compactToBig(%#x): got %s, want %s", test.compact, got, want)
		})
	}
}

func TestCompactToBigNegativeMantissa(t *testing.T) {
	got := compactToBig(0x01fedcba)
	require.Truef(t, got.Sign() < 0, "compactToBig: high mantissa bit set should decode to a negative value, got %s", got)
}

func TestBigToCompactRoundTrip(t *testing.T) {
	tests := []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff, 0x01010000, 0x02010000}
	for _, bits := range tests {
		n := compactToBig(bits)
		got := bigToCompact(n)
		require.Equalf(t, bits, got, "round trip: compactToBig(%#x) -> bigToCompact", bits)
	}
}

func TestCalcWorkIncreasesAsTargetShrinks(t *testing.T) {
	looseWork := calcWork(0x207fffff)
	tightWork := calcWork(0x1d00ffff)
	require.Truef(t, tightWork.Cmp(looseWork) > 0,
		"a smaller target must represent more work: tight=%s loose=%s", tightWork, looseWork)
}

func TestCalcWorkRejectsNonPositiveTarget(t *testing.T) {
	// A compact value whose mantissa is zero decodes to a zero target,
	// which calcWork must treat as zero work rather than dividing by it.
	got := calcWork(0x01000000)
	require.Zerof(t, got.Sign(), "calcWork(zero target): got %s, want 0", got)
}
