package statedb

import "github.com/eth2030/eth2030/core/types"

// accessList tracks EIP-2929 warm addresses and storage slots for one
// transaction. addresses maps an address to the index into slots holding
// its warm-slot set, or -1 if the address is warm but no slot has been
// touched yet.
type accessList struct {
	addresses map[types.Address]int
	slots     []map[types.Hash]struct{}
}

func newAccessList() *accessList {
	return &accessList{addresses: make(map[types.Address]int)}
}

// addAddress returns whether addr was already warm.
func (al *accessList) addAddress(addr types.Address) bool {
	if _, ok := al.addresses[addr]; ok {
		return true
	}
	al.addresses[addr] = -1
	return false
}

// addSlot returns whether addr and slot were already warm.
func (al *accessList) addSlot(addr types.Address, slot types.Hash) (addrOk, slotOk bool) {
	idx, ok := al.addresses[addr]
	if !ok {
		al.slots = append(al.slots, map[types.Hash]struct{}{slot: {}})
		al.addresses[addr] = len(al.slots) - 1
		return false, false
	}
	if idx == -1 {
		al.slots = append(al.slots, map[types.Hash]struct{}{slot: {}})
		al.addresses[addr] = len(al.slots) - 1
		return true, false
	}
	if _, ok := al.slots[idx][slot]; ok {
		return true, true
	}
	al.slots[idx][slot] = struct{}{}
	return true, false
}

func (al *accessList) containsAddress(addr types.Address) bool {
	_, ok := al.addresses[addr]
	return ok
}

func (al *accessList) containsSlot(addr types.Address, slot types.Hash) (addrOk, slotOk bool) {
	idx, ok := al.addresses[addr]
	if !ok {
		return false, false
	}
	if idx == -1 {
		return true, false
	}
	_, slotOk = al.slots[idx][slot]
	return true, slotOk
}

// removeAddress undoes addAddress; used only by journal reverts, so it is
// safe to assume addr was the most recently added warm entry with no slots.
func (al *accessList) removeAddress(addr types.Address) {
	delete(al.addresses, addr)
}

// removeSlot undoes addSlot for a revert.
func (al *accessList) removeSlot(addr types.Address, slot types.Hash) {
	idx, ok := al.addresses[addr]
	if !ok || idx == -1 {
		return
	}
	delete(al.slots[idx], slot)
}
