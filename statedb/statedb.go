package statedb

import (
	"fmt"
	"math/big"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
)

// StateDB is the persistent core/vm.StateDB this repo ships. It keeps a
// working set of stateObjects in memory for the lifetime of one block (or
// test), backed by a kvStore/hotCache pair for anything not yet touched,
// and a journal so any call can be unwound to an earlier Snapshot.
type StateDB struct {
	store kvStore
	cache *hotCache

	objects map[types.Address]*stateObject
	journal *journal

	logs    map[types.Address][]*types.Log
	refund  uint64

	accessList *accessList
	transient  map[types.Address]map[types.Hash]types.Hash

	metrics *StateMetrics
}

// Open builds a StateDB on top of an already-opened kvStore (a *pebbleStore
// or *levelDBStore), wiring in a fresh hot-read cache.
func Open(store kvStore) *StateDB {
	return &StateDB{
		store:      store,
		cache:      newHotCache(),
		objects:    make(map[types.Address]*stateObject),
		journal:    newJournal(),
		logs:       make(map[types.Address][]*types.Log),
		accessList: newAccessList(),
		transient:  make(map[types.Address]map[types.Hash]types.Hash),
		metrics:    NewStateMetrics(),
	}
}

// Metrics returns the counters this StateDB has accumulated.
func (s *StateDB) Metrics() *StateMetrics { return s.metrics }

// Close releases the underlying store.
func (s *StateDB) Close() error { return s.store.Close() }

func (s *StateDB) getObject(addr types.Address) *stateObject {
	if o, ok := s.objects[addr]; ok {
		return o
	}

	key := accountKey(addr)
	if cached, ok := s.cache.get(key); ok {
		s.metrics.RecordCacheHit()
		o := newStateObject(addr)
		if len(cached) > 0 {
			a, err := decodeAccount(cached)
			if err == nil {
				o.address = a
			}
		}
		s.objects[addr] = o
		return o
	}
	s.metrics.RecordCacheMiss()

	if !s.cache.maybeSeen(key) {
		s.metrics.RecordFilterSkip()
		return nil
	}

	raw, err := s.store.Get(key)
	s.metrics.RecordAccountRead()
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return nil
	}
	a, err := decodeAccount(raw)
	if err != nil {
		return nil
	}
	o := newStateObject(addr)
	o.address = a
	s.cache.set(key, raw)
	s.objects[addr] = o
	return o
}

func (s *StateDB) getOrNewObject(addr types.Address) *stateObject {
	if o := s.getObject(addr); o != nil {
		return o
	}
	o := newStateObject(addr)
	o.newlyCreated = true
	o.dirty = true
	s.objects[addr] = o
	s.journal.append(createAccountChange{addr: addr})
	return o
}

func (s *StateDB) CreateAccount(addr types.Address) {
	existing := s.getObject(addr)
	o := newStateObject(addr)
	o.dirty = true
	if existing != nil {
		o.address.Balance = new(big.Int).Set(existing.address.Balance)
	}
	s.journal.append(createAccountChange{addr: addr})
	s.objects[addr] = o
}

func (s *StateDB) GetBalance(addr types.Address) *big.Int {
	o := s.getObject(addr)
	if o == nil {
		return new(big.Int)
	}
	return o.address.Balance
}

func (s *StateDB) AddBalance(addr types.Address, amount *big.Int) {
	o := s.getOrNewObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(o.address.Balance)})
	o.address.Balance = new(big.Int).Add(o.address.Balance, amount)
	o.dirty = true
}

func (s *StateDB) SubBalance(addr types.Address, amount *big.Int) {
	o := s.getOrNewObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(big.Int).Set(o.address.Balance)})
	o.address.Balance = new(big.Int).Sub(o.address.Balance, amount)
	o.dirty = true
}

func (s *StateDB) GetNonce(addr types.Address) uint64 {
	o := s.getObject(addr)
	if o == nil {
		return 0
	}
	return o.address.Nonce
}

func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	o := s.getOrNewObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: o.address.Nonce})
	o.address.Nonce = nonce
	o.dirty = true
}

func (s *StateDB) GetCode(addr types.Address) []byte {
	o := s.getObject(addr)
	if o == nil {
		return nil
	}
	if o.code != nil || o.codeDirty {
		return o.code
	}
	if len(o.address.CodeHash) == 0 || sameBytes(o.address.CodeHash, types.EmptyCodeHash.Bytes()) {
		return nil
	}
	raw, err := s.store.Get(codeKey(o.address.CodeHash))
	s.metrics.RecordCodeRead()
	if err != nil {
		return nil
	}
	o.code = raw
	return raw
}

func (s *StateDB) SetCode(addr types.Address, code []byte) {
	o := s.getOrNewObject(addr)
	s.journal.append(codeChange{addr: addr, prevCode: o.code})
	o.code = code
	o.codeDirty = true
	if len(code) == 0 {
		o.address.CodeHash = types.EmptyCodeHash.Bytes()
	} else {
		o.address.CodeHash = crypto.Keccak256Hash(code).Bytes()
	}
	o.dirty = true
	s.metrics.RecordCodeWrite()
}

func (s *StateDB) GetCodeHash(addr types.Address) types.Hash {
	o := s.getObject(addr)
	if o == nil {
		return types.Hash{}
	}
	return types.BytesToHash(o.address.CodeHash)
}

func (s *StateDB) GetCodeSize(addr types.Address) int {
	return len(s.GetCode(addr))
}

func (s *StateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	o := s.getObject(addr)
	if o == nil {
		return types.Hash{}
	}
	if v, ok := o.dirtyStorage[key]; ok {
		return v
	}
	return s.loadCommittedStorage(o, key)
}

func (s *StateDB) SetState(addr types.Address, key, value types.Hash) {
	o := s.getOrNewObject(addr)
	prev, had := o.dirtyStorage[key]
	if !had {
		prev = s.loadCommittedStorage(o, key)
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, had: had})
	o.dirtyStorage[key] = value
	o.dirty = true
	s.metrics.RecordStorageWrite()
}

func (s *StateDB) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	o := s.getObject(addr)
	if o == nil {
		return types.Hash{}
	}
	return s.loadCommittedStorage(o, key)
}

func (s *StateDB) loadCommittedStorage(o *stateObject, key types.Hash) types.Hash {
	if v, ok := o.committedStorage[key]; ok {
		return v
	}
	ckey := storageKey(o.addr, key)
	if cached, ok := s.cache.get(ckey); ok {
		s.metrics.RecordCacheHit()
		v := types.BytesToHash(cached)
		o.committedStorage[key] = v
		return v
	}
	s.metrics.RecordCacheMiss()
	if !s.cache.maybeSeen(ckey) {
		s.metrics.RecordFilterSkip()
		o.committedStorage[key] = types.Hash{}
		return types.Hash{}
	}
	raw, err := s.store.Get(ckey)
	s.metrics.RecordStorageRead()
	if err != nil {
		o.committedStorage[key] = types.Hash{}
		return types.Hash{}
	}
	v := types.BytesToHash(raw)
	o.committedStorage[key] = v
	s.cache.set(ckey, raw)
	return v
}

func (s *StateDB) GetTransientState(addr types.Address, key types.Hash) types.Hash {
	m, ok := s.transient[addr]
	if !ok {
		return types.Hash{}
	}
	return m[key]
}

func (s *StateDB) SetTransientState(addr types.Address, key, value types.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[types.Hash]types.Hash)
		s.transient[addr] = m
	}
	prev := m[key]
	s.journal.append(transientStorageChange{addr: addr, key: key, prev: prev})
	m[key] = value
}

func (s *StateDB) ClearTransientStorage() {
	s.transient = make(map[types.Address]map[types.Hash]types.Hash)
}

func (s *StateDB) SelfDestruct(addr types.Address) {
	o := s.getObject(addr)
	if o == nil {
		return
	}
	s.journal.append(selfDestructChange{addr: addr, prev: o.selfDestructed})
	o.selfDestructed = true
	o.dirty = true
	s.metrics.RecordSelfDestruct()
}

func (s *StateDB) HasSelfDestructed(addr types.Address) bool {
	o := s.getObject(addr)
	return o != nil && o.selfDestructed
}

func (s *StateDB) Exist(addr types.Address) bool {
	return s.getObject(addr) != nil
}

func (s *StateDB) Empty(addr types.Address) bool {
	o := s.getObject(addr)
	return o == nil || o.empty()
}

func (s *StateDB) Snapshot() int {
	id := s.journal.snapshot()
	s.metrics.RecordSnapshot()
	return id
}

func (s *StateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
	s.metrics.RecordRevert()
}

func (s *StateDB) AddLog(log *types.Log) {
	s.logs[log.Address] = append(s.logs[log.Address], log)
	s.journal.append(addLogChange{addr: log.Address})
}

// Logs returns every log recorded for addr since the StateDB was opened.
func (s *StateDB) Logs(addr types.Address) []*types.Log { return s.logs[addr] }

func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *StateDB) SubRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if gas > s.refund {
		s.refund = 0
		return
	}
	s.refund -= gas
}

func (s *StateDB) GetRefund() uint64 { return s.refund }

func (s *StateDB) AddAddressToAccessList(addr types.Address) {
	if s.accessList.addAddress(addr) {
		return
	}
	s.journal.append(addAddressToAccessListChange{addr: addr})
}

func (s *StateDB) AddSlotToAccessList(addr types.Address, slot types.Hash) {
	addrOk, slotOk := s.accessList.addSlot(addr, slot)
	if !addrOk {
		s.journal.append(addAddressToAccessListChange{addr: addr})
	}
	if !slotOk {
		s.journal.append(addSlotToAccessListChange{addr: addr, slot: slot})
	}
}

func (s *StateDB) AddressInAccessList(addr types.Address) bool {
	return s.accessList.containsAddress(addr)
}

func (s *StateDB) SlotInAccessList(addr types.Address, slot types.Hash) (bool, bool) {
	return s.accessList.containsSlot(addr, slot)
}

// Commit flushes every dirty stateObject to the store in one atomic batch
// and clears the per-transaction journal, logs and access list, the way a
// block builder calls it between transactions.
func (s *StateDB) Commit() error {
	batch := s.store.NewBatch()
	for addr, o := range s.objects {
		if !o.dirty {
			continue
		}
		if o.selfDestructed {
			batch.Delete(accountKey(addr))
			s.cache.del(accountKey(addr))
			continue
		}
		enc, err := encodeAccount(o.address)
		if err != nil {
			return fmt.Errorf("statedb: encode account %s: %w", addr.Hex(), err)
		}
		batch.Set(accountKey(addr), enc)
		s.cache.set(accountKey(addr), enc)
		s.metrics.RecordAccountWrite()

		if o.codeDirty && len(o.code) > 0 {
			batch.Set(codeKey(o.address.CodeHash), o.code)
		}
		for k, v := range o.dirtyStorage {
			ckey := storageKey(addr, k)
			batch.Set(ckey, v.Bytes())
			s.cache.set(ckey, v.Bytes())
			o.committedStorage[k] = v
			s.metrics.RecordStorageWrite()
		}
		o.dirtyStorage = make(map[types.Hash]types.Hash)
		o.dirty = false
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("statedb: commit batch: %w", err)
	}
	s.journal = newJournal()
	s.logs = make(map[types.Address][]*types.Log)
	s.accessList = newAccessList()
	return nil
}
