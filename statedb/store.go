package statedb

import (
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/syndtr/goleveldb/leveldb"
	goleveldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// ErrNotFound is returned by kvStore.Get when a key is absent, independent
// of which backend (pebble or goleveldb) is underneath; both have their own
// not-found sentinel and this normalizes them to one value statedb itself
// branches on.
var ErrNotFound = fmt.Errorf("statedb: key not found")

// kvStore is the narrow persistence surface statedb needs: point get/put
// and an atomic multi-key batch, implemented by both supported backends.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewBatch() kvBatch
	Close() error
}

type kvBatch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Commit() error
}

// pebbleStore adapts *pebble.DB to kvStore. pebble is the default backend:
// an LSM engine built for exactly this write-heavy, point-lookup-heavy
// account/storage workload.
type pebbleStore struct {
	db *pebble.DB
}

// OpenPebble opens (creating if absent) a pebble-backed store at dir. An
// empty dir opens an in-memory store (vfs.NewMem), which is what statedb's
// own tests use so they never touch disk.
func OpenPebble(dir string) (*pebbleStore, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
		dir = "mem"
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("statedb: open pebble at %s: %w", dir, err)
	}
	return &pebbleStore{db: db}, nil
}

func (s *pebbleStore) Get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	closer.Close()
	return out, nil
}

func (s *pebbleStore) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *pebbleStore) NewBatch() kvBatch { return &pebbleBatch{b: s.db.NewBatch()} }
func (s *pebbleStore) Close() error      { return s.db.Close() }

type pebbleBatch struct{ b *pebble.Batch }

func (b *pebbleBatch) Set(key, value []byte) { _ = b.b.Set(key, value, nil) }
func (b *pebbleBatch) Delete(key []byte)     { _ = b.b.Delete(key, nil) }
func (b *pebbleBatch) Commit() error         { return b.b.Commit(pebble.Sync) }

// levelDBStore adapts *leveldb.DB to kvStore, for embedders that already
// run goleveldb elsewhere in their stack and would rather not add a second
// storage engine just for this package.
type levelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a goleveldb-backed store at dir.
func OpenLevelDB(dir string) (*levelDBStore, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("statedb: open leveldb at %s: %w", dir, err)
	}
	return &levelDBStore{db: db}, nil
}

func (s *levelDBStore) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if err == goleveldbErrors.ErrNotFound {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *levelDBStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *levelDBStore) NewBatch() kvBatch { return &levelDBBatch{db: s.db, b: new(leveldb.Batch)} }
func (s *levelDBStore) Close() error      { return s.db.Close() }

type levelDBBatch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *levelDBBatch) Set(key, value []byte) { b.b.Put(key, value) }
func (b *levelDBBatch) Delete(key []byte)     { b.b.Delete(key) }
func (b *levelDBBatch) Commit() error         { return b.db.Write(b.b, nil) }
