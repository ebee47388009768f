package statedb

import (
	"sync/atomic"
	"time"
)

// StateMetrics tracks cumulative access counters for one StateDB, the same
// atomic-counter convention the teacher's own state package uses so these
// can be read from another goroutine (a metrics exporter) without locking.
type StateMetrics struct {
	AccountsRead    uint64
	AccountsWritten uint64
	StorageReads    uint64
	StorageWrites   uint64
	CodeReads       uint64
	CodeWrites      uint64

	CacheHits   uint64
	CacheMisses uint64
	FilterSkips uint64

	SnapshotCount     int64
	RevertCount       int64
	SelfDestructCount int64

	Timestamp int64
}

func NewStateMetrics() *StateMetrics {
	return &StateMetrics{Timestamp: time.Now().UnixNano()}
}

func (m *StateMetrics) RecordAccountRead()    { atomic.AddUint64(&m.AccountsRead, 1) }
func (m *StateMetrics) RecordAccountWrite()   { atomic.AddUint64(&m.AccountsWritten, 1) }
func (m *StateMetrics) RecordStorageRead()    { atomic.AddUint64(&m.StorageReads, 1) }
func (m *StateMetrics) RecordStorageWrite()   { atomic.AddUint64(&m.StorageWrites, 1) }
func (m *StateMetrics) RecordCodeRead()       { atomic.AddUint64(&m.CodeReads, 1) }
func (m *StateMetrics) RecordCodeWrite()      { atomic.AddUint64(&m.CodeWrites, 1) }
func (m *StateMetrics) RecordCacheHit()       { atomic.AddUint64(&m.CacheHits, 1) }
func (m *StateMetrics) RecordCacheMiss()      { atomic.AddUint64(&m.CacheMisses, 1) }
func (m *StateMetrics) RecordFilterSkip()     { atomic.AddUint64(&m.FilterSkips, 1) }
func (m *StateMetrics) RecordSnapshot()       { atomic.AddInt64(&m.SnapshotCount, 1) }
func (m *StateMetrics) RecordRevert()         { atomic.AddInt64(&m.RevertCount, 1) }
func (m *StateMetrics) RecordSelfDestruct()   { atomic.AddInt64(&m.SelfDestructCount, 1) }
