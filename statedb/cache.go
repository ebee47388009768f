package statedb

import (
	"encoding/binary"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/bloomfilter/v2"

	"github.com/eth2030/eth2030/core/types"
)

// defaultCacheBytes sizes the hot-read fastcache; accounts and storage
// slots are small, so this comfortably holds a few hundred thousand of
// each before fastcache starts evicting.
const defaultCacheBytes = 64 * 1024 * 1024

// defaultFilterM/K size the negative-existence bloom filter: ~8M bits and
// 4 hash rounds keeps the false-positive rate low for a few hundred
// thousand tracked keys without the filter itself becoming a memory hog.
const (
	defaultFilterM = 8 << 20
	defaultFilterK = 4
)

// hotCache is the read-side acceleration layer in front of the kvStore: a
// fastcache for values already seen, and a bloom filter recording every key
// ever written so a miss on a key the filter has never seen can skip the
// store entirely instead of paying a real lookup for an account that was
// never touched.
type hotCache struct {
	values *fastcache.Cache
	seen   *bloomfilter.Filter
}

func newHotCache() *hotCache {
	f, err := bloomfilter.New(defaultFilterM, defaultFilterK)
	if err != nil {
		// Only returns an error for non-positive m/k, which never happens
		// with the constants above.
		panic("statedb: invalid bloom filter parameters: " + err.Error())
	}
	return &hotCache{
		values: fastcache.New(defaultCacheBytes),
		seen:   f,
	}
}

// keyHash adapts a byte key to the hash.Hash64 the bloom filter library
// expects, folding the key's bytes 8 at a time with an FNV-style
// xor-and-multiply.
type keyHash uint64

func hashKey(key []byte) keyHash {
	var h uint64
	for len(key) >= 8 {
		h ^= binary.LittleEndian.Uint64(key)
		h *= 1099511628211
		key = key[8:]
	}
	var tail [8]byte
	copy(tail[:], key)
	h ^= binary.LittleEndian.Uint64(tail[:])
	return keyHash(h)
}

func (k keyHash) Write(p []byte) (int, error) { return len(p), nil }
func (k keyHash) Sum(b []byte) []byte         { return b }
func (k keyHash) Reset()                      {}
func (k keyHash) Size() int                   { return 8 }
func (k keyHash) BlockSize() int              { return 8 }
func (k keyHash) Sum64() uint64               { return uint64(k) }

func (c *hotCache) markSeen(key []byte) {
	c.seen.Add(hashKey(key))
}

// maybeSeen returns false only when key is certainly absent from the
// store; true means "maybe present, go check."
func (c *hotCache) maybeSeen(key []byte) bool {
	return c.seen.Contains(hashKey(key))
}

func (c *hotCache) get(key []byte) ([]byte, bool) {
	v := c.values.Get(nil, key)
	if v == nil {
		return nil, false
	}
	return v, true
}

func (c *hotCache) set(key, value []byte) {
	c.values.Set(key, value)
	c.markSeen(key)
}

func (c *hotCache) del(key []byte) {
	c.values.Del(key)
}

// accountCacheKey and storageCacheKey reuse the persistence-layer key
// encoding so the cache and the store never disagree about identity.
func accountCacheKey(addr types.Address) []byte { return accountKey(addr) }
func storageCacheKey(addr types.Address, slot types.Hash) []byte {
	return storageKey(addr, slot)
}
