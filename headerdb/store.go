// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package headerdb implements the Header Store: the goleveldb-backed
// persistent record of every header, from genesis (or a configured start
// height) to the current tip, keyed for both height and hash lookup.
package headerdb

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/blockpeer/headernode/chaincfg"
	"github.com/blockpeer/headernode/errs"
	"github.com/blockpeer/headernode/headerchain"
	"github.com/blockpeer/headernode/headerlog"
)

var log = headerlog.Logger(headerlog.SubsystemStore)

// Key tags. Each key is the tag byte followed by a fixed-width, big-endian
// encoded field, so leveldb's natural byte-order iteration also orders keys
// by height.
const (
	tagVersion      byte = 0x01 // schema version, no further key bytes
	tagFlags        byte = 0x02 // bitset of store-level flags, no further key bytes
	tagByHeight     byte = 0x03 // + big-endian u32 height -> record
	tagHashToHeight byte = 0x04 // + 32-byte hash -> big-endian u32 height
	tagStartMarker  byte = 0x05 // no further key bytes -> big-endian u32 start height
)

// schemaVersion is written on first open and checked on every subsequent
// open; a mismatch means the on-disk layout changed underneath an existing
// store and must be treated as a Configuration error rather than silently
// misread.
const schemaVersion = 1

// Store is the persistent Header Store. It is safe for concurrent readers;
// writes are serialized by the caller (the Header Indexer owns the only
// write path).
type Store struct {
	db     *leveldb.DB
	lock   *dbLock
	params *chaincfg.Params
}

// Open opens (creating if necessary) a Header Store at dir for the given
// network. It takes an exclusive advisory lock on dir for the lifetime of
// the Store.
func Open(dir string, params *chaincfg.Params) (*Store, error) {
	lock, err := acquireLock(dir)
	if err != nil {
		return nil, errs.Wrap(errs.Configuration, errs.ErrStoreLocked, err)
	}

	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		lock.release()
		return nil, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}

	return open(db, lock, params)
}

// OpenMemory opens a Header Store backed by an in-memory goleveldb
// instance, for the `--memory` configuration flag (spec.md §6) and for
// tests that want a Store without touching the filesystem. There is
// nothing on disk to share, so no directory lock is taken, and the store's
// contents do not survive past Close.
func OpenMemory(params *chaincfg.Params) (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}

	return open(db, nil, params)
}

func open(db *leveldb.DB, lock *dbLock, params *chaincfg.Params) (*Store, error) {
	s := &Store{db: db, lock: lock, params: params}

	if err := s.checkOrWriteVersion(); err != nil {
		db.Close()
		if lock != nil {
			lock.release()
		}
		return nil, err
	}

	return s, nil
}

// Close releases the store's lock, if any, and closes the underlying
// database.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if lerr := s.lock.release(); err == nil {
			err = lerr
		}
	}
	return err
}

func (s *Store) checkOrWriteVersion() error {
	raw, err := s.db.Get([]byte{tagVersion}, nil)
	if err == leveldb.ErrNotFound {
		log.Infof("initializing header store at schema version %d", schemaVersion)
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, schemaVersion)
		return s.db.Put([]byte{tagVersion}, buf, nil)
	}
	if err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	if binary.BigEndian.Uint32(raw) != schemaVersion {
		return errs.New(errs.Configuration, errs.ErrSchemaMismatch)
	}
	return nil
}

func byHeightKey(height int32) []byte {
	key := make([]byte, 5)
	key[0] = tagByHeight
	binary.BigEndian.PutUint32(key[1:], uint32(height))
	return key
}

func hashKey(hash chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	key[0] = tagHashToHeight
	copy(key[1:], hash[:])
	return key
}

// WriteEntry persists a single entry, choosing the bare-header or full
// ChainEntry encoding depending on whether its height is at or below the
// store's historical point, and records the hash->height reverse index.
func (s *Store) WriteEntry(e *headerchain.Entry) error {
	batch := new(leveldb.Batch)
	s.stageEntry(batch, e)
	if err := s.db.Write(batch, nil); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return nil
}

// WriteEntries persists a batch of entries atomically, in the order given.
func (s *Store) WriteEntries(entries []*headerchain.Entry) error {
	batch := new(leveldb.Batch)
	for _, e := range entries {
		s.stageEntry(batch, e)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return nil
}

func (s *Store) stageEntry(batch *leveldb.Batch, e *headerchain.Entry) {
	var record []byte
	if e.Height <= s.params.HistoricalPoint() {
		record = encodeBareHeader(&e.Header)
	} else {
		record = encodeChainEntry(e)
	}
	batch.Put(byHeightKey(e.Height), record)

	heightBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(heightBuf, uint32(e.Height))
	batch.Put(hashKey(e.Hash()), heightBuf)
}

// DeleteFromHeight removes every record at or above height, used when a
// reorg's disconnect events need to be mirrored into the store, or when
// resetting to replay from an earlier point.
func (s *Store) DeleteFromHeight(height int32) error {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{tagByHeight}), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		key := iter.Key()
		h := int32(binary.BigEndian.Uint32(key[1:]))
		if h < height {
			continue
		}
		entry, err := decodeRecord(iter.Value(), h)
		if err == nil {
			batch.Delete(hashKey(entry.Hash()))
		}
		batch.Delete(append([]byte(nil), key...))
	}
	if err := iter.Error(); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	if err := s.db.Write(batch, nil); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return nil
}

// EntryByHeight returns the entry stored at height, if any.
func (s *Store) EntryByHeight(height int32) (*headerchain.Entry, bool, error) {
	raw, err := s.db.Get(byHeightKey(height), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	entry, err := decodeRecord(raw, height)
	if err != nil {
		return nil, false, errs.Wrap(errs.Invariant, errs.ErrContiguityBroken, err)
	}
	return entry, true, nil
}

// HeightByHash returns the height stored for hash, if any.
func (s *Store) HeightByHash(hash chainhash.Hash) (int32, bool, error) {
	raw, err := s.db.Get(hashKey(hash), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return int32(binary.BigEndian.Uint32(raw)), true, nil
}

// EntryByHash returns the entry for hash, if any.
func (s *Store) EntryByHash(hash chainhash.Hash) (*headerchain.Entry, bool, error) {
	height, ok, err := s.HeightByHash(hash)
	if err != nil || !ok {
		return nil, ok, err
	}
	return s.EntryByHeight(height)
}

// Tip returns the highest stored height and its entry, or found=false if
// the store is empty.
func (s *Store) Tip() (entry *headerchain.Entry, found bool, err error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{tagByHeight}), nil)
	defer iter.Release()

	if !iter.Last() {
		if err := iter.Error(); err != nil {
			return nil, false, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
		}
		return nil, false, nil
	}
	height := int32(binary.BigEndian.Uint32(iter.Key()[1:]))
	e, err := decodeRecord(iter.Value(), height)
	if err != nil {
		return nil, false, errs.Wrap(errs.Invariant, errs.ErrContiguityBroken, err)
	}
	return e, true, nil
}

// CheckContiguity walks every stored height from from to to (inclusive) and
// verifies each header's prev-hash links to the previous height's hash,
// returning an Invariant error at the first gap (spec.md §6 contiguity
// invariant).
func (s *Store) CheckContiguity(from, to int32) error {
	var prev *headerchain.Entry
	for h := from; h <= to; h++ {
		e, ok, err := s.EntryByHeight(h)
		if err != nil {
			return err
		}
		if !ok {
			return errs.New(errs.Invariant, errs.ErrContiguityBroken)
		}
		if prev != nil && e.Header.PrevBlock != prev.Hash() {
			return errs.New(errs.Invariant, errs.ErrContiguityBroken)
		}
		prev = e
	}
	return nil
}

// SetStartMarker persists the custom start height chosen at bootstrap
// (spec.md §4.4), so a later restart can validate that a newly configured
// start height agrees with the one already on disk.
func (s *Store) SetStartMarker(height int32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(height))
	if err := s.db.Put([]byte{tagStartMarker}, buf, nil); err != nil {
		return errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return nil
}

// StartMarker returns the persisted custom start height, if one was ever
// set.
func (s *Store) StartMarker() (int32, bool, error) {
	raw, err := s.db.Get([]byte{tagStartMarker}, nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.Wrap(errs.IO, errs.ErrStoreIO, err)
	}
	return int32(binary.BigEndian.Uint32(raw)), true, nil
}
