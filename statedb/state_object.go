package statedb

import (
	"math/big"

	"github.com/eth2030/eth2030/core/types"
)

// stateObject is the in-memory working copy of one account while a
// transaction runs: committed values come from the store (through cache),
// dirty values are what the journal can unwind and what Commit eventually
// writes back.
type stateObject struct {
	address types.Account
	addr    types.Address

	code      []byte
	codeDirty bool

	dirtyStorage     map[types.Hash]types.Hash
	committedStorage map[types.Hash]types.Hash

	selfDestructed bool
	newlyCreated   bool
	dirty          bool
}

func newStateObject(addr types.Address) *stateObject {
	return &stateObject{
		address:          types.NewAccount(),
		addr:             addr,
		dirtyStorage:     make(map[types.Hash]types.Hash),
		committedStorage: make(map[types.Hash]types.Hash),
	}
}

func (o *stateObject) empty() bool {
	return o.address.Nonce == 0 && o.address.Balance.Sign() == 0 && sameBytes(o.address.CodeHash, types.EmptyCodeHash.Bytes())
}

func sameBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (o *stateObject) deepCopy() *stateObject {
	cp := &stateObject{
		address:          o.address,
		addr:             o.addr,
		code:             o.code,
		codeDirty:        o.codeDirty,
		dirtyStorage:     make(map[types.Hash]types.Hash, len(o.dirtyStorage)),
		committedStorage: make(map[types.Hash]types.Hash, len(o.committedStorage)),
		selfDestructed:   o.selfDestructed,
		newlyCreated:     o.newlyCreated,
		dirty:            o.dirty,
	}
	cp.address.Balance = new(big.Int).Set(o.address.Balance)
	for k, v := range o.dirtyStorage {
		cp.dirtyStorage[k] = v
	}
	for k, v := range o.committedStorage {
		cp.committedStorage[k] = v
	}
	return cp
}
