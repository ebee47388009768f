package statedb

import (
	"math/big"

	"github.com/eth2030/eth2030/core/types"
)

// journalEntry is one undoable mutation. revert restores the StateDB to
// how it looked right before the mutation happened.
type journalEntry interface {
	revert(s *StateDB)
}

// journal records every mutation made since the last snapshot boundary so
// RevertToSnapshot can unwind them in reverse order, mirroring the
// teacher's own in-memory state journal.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int
	nextID    int
}

func newJournal() *journal {
	return &journal{snapshots: make(map[int]int)}
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, s *StateDB) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]
	for sid, at := range j.snapshots {
		if at > idx {
			delete(j.snapshots, sid)
		}
	}
}

type createAccountChange struct {
	addr types.Address
}

func (c createAccountChange) revert(s *StateDB) {
	delete(s.objects, c.addr)
}

type balanceChange struct {
	addr types.Address
	prev *big.Int
}

func (c balanceChange) revert(s *StateDB) {
	s.objects[c.addr].address.Balance = c.prev
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (c nonceChange) revert(s *StateDB) {
	s.objects[c.addr].address.Nonce = c.prev
}

type codeChange struct {
	addr     types.Address
	prevCode []byte
}

func (c codeChange) revert(s *StateDB) {
	o := s.objects[c.addr]
	o.code = c.prevCode
	o.codeDirty = true
}

type storageChange struct {
	addr types.Address
	key  types.Hash
	prev types.Hash
	had  bool
}

func (c storageChange) revert(s *StateDB) {
	o := s.objects[c.addr]
	if c.had {
		o.dirtyStorage[c.key] = c.prev
	} else {
		delete(o.dirtyStorage, c.key)
	}
}

type transientStorageChange struct {
	addr types.Address
	key  types.Hash
	prev types.Hash
}

func (c transientStorageChange) revert(s *StateDB) {
	if s.transient[c.addr] == nil {
		return
	}
	s.transient[c.addr][c.key] = c.prev
}

type refundChange struct {
	prev uint64
}

func (c refundChange) revert(s *StateDB) {
	s.refund = c.prev
}

type selfDestructChange struct {
	addr     types.Address
	prev     bool
	hadPrior bool
}

func (c selfDestructChange) revert(s *StateDB) {
	s.objects[c.addr].selfDestructed = c.prev
}

type addAddressToAccessListChange struct {
	addr types.Address
}

func (c addAddressToAccessListChange) revert(s *StateDB) {
	s.accessList.removeAddress(c.addr)
}

type addSlotToAccessListChange struct {
	addr types.Address
	slot types.Hash
}

func (c addSlotToAccessListChange) revert(s *StateDB) {
	s.accessList.removeSlot(c.addr, c.slot)
}

type addLogChange struct {
	addr types.Address
}

func (c addLogChange) revert(s *StateDB) {
	logs := s.logs[c.addr]
	s.logs[c.addr] = logs[:len(logs)-1]
}
