// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerdb

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"pgregory.net/rapid"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/headerchain"
)

// TestStoreContiguityProperty checks spec.md §8 property 1: for any
// sequence of WriteEntry calls extending a chain from genesis, the store's
// contents satisfy contiguity (§3 invariant 1) end to end, and every
// EntryByHeight hash agrees with an independent recomputation from the
// decoded header.
func TestStoreContiguityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(t, "n")

		s := openRapidTestStore(t)

		root := buildHeader(chainhash.Hash{}, 1296688602, 0)
		rootEntry := headerchain.NewEntry(root, 0, nil)
		if err := s.WriteEntry(rootEntry); err != nil {
			t.Fatalf("WriteEntry(root): unexpected error: %v", err)
		}

		prevHash := rootEntry.Hash()
		prevWork := rootEntry.Chainwork
		for h := int32(1); h <= int32(n); h++ {
			seconds := 1296688602 + int64(h)*600
			nonce := rapid.Uint32().Draw(t, "nonce")
			header := buildHeader(prevHash, seconds, nonce)
			entry := headerchain.NewEntry(header, h, prevWork)
			if err := s.WriteEntry(entry); err != nil {
				t.Fatalf("WriteEntry(height %d): unexpected error: %v", h, err)
			}
			prevHash = entry.Hash()
			prevWork = entry.Chainwork
		}

		if err := s.CheckContiguity(0, int32(n)); err != nil {
			t.Fatalf("CheckContiguity: %v", err)
		}

		tip, found, err := s.Tip()
		if err != nil {
			t.Fatalf("Tip: unexpected error: %v", err)
		}
		if !found {
			t.Fatalf("Tip: not found")
		}
		if tip.Height != int32(n) {
			t.Fatalf("tip height: got %d, want %d", tip.Height, n)
		}

		for h := int32(0); h <= int32(n); h++ {
			entry, ok, err := s.EntryByHeight(h)
			if err != nil {
				t.Fatalf("EntryByHeight(%d): unexpected error: %v", h, err)
			}
			if !ok {
				t.Fatalf("EntryByHeight(%d): not found", h)
			}
			if recomputed := entry.Header.BlockHash(); recomputed != entry.Hash() {
				t.Fatalf("hash mismatch at height %d: stored %v, recomputed %v", h, entry.Hash(), recomputed)
			}
			height, ok, err := s.HeightByHash(entry.Hash())
			if err != nil {
				t.Fatalf("HeightByHash(%d): unexpected error: %v", h, err)
			}
			if !ok || height != h {
				t.Fatalf("HeightByHash(%d): got (%d, %v), want (%d, true)", h, height, ok, h)
			}
		}
	})
}

// openRapidTestStore mirrors openTestStore but takes a *rapid.T so each
// rapid.Check iteration gets its own on-disk directory.
func openRapidTestStore(t *rapid.T) *Store {
	s, err := Open(t.TempDir(), &chaincfg.RegressionNetParams)
	if err != nil {
		t.Fatalf("Open: unexpected error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
