package statedb

import (
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/rlp"
)

// accountRLP is the on-disk consensus encoding of an account: the same four
// fields core/types.Account carries, RLP-encoded the way every account in
// the real state trie is.
type accountRLP struct {
	Nonce    uint64
	Balance  []byte // big.Int.Bytes(); empty means zero
	Root     types.Hash
	CodeHash []byte
}

func encodeAccount(a types.Account) ([]byte, error) {
	enc := accountRLP{
		Nonce:    a.Nonce,
		Balance:  a.Balance.Bytes(),
		Root:     a.Root,
		CodeHash: a.CodeHash,
	}
	return rlp.EncodeToBytes(enc)
}

func decodeAccount(data []byte) (types.Account, error) {
	var enc accountRLP
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return types.Account{}, err
	}
	a := types.NewAccount()
	a.Nonce = enc.Nonce
	a.Balance.SetBytes(enc.Balance)
	a.Root = enc.Root
	a.CodeHash = enc.CodeHash
	return a, nil
}

// Key prefixes keep the three persisted object classes (accounts, storage
// slots, code blobs) in disjoint keyspaces within one store.
const (
	prefixAccount = 'a'
	prefixStorage = 's'
	prefixCode    = 'c'
)

func accountKey(addr types.Address) []byte {
	k := make([]byte, 1+len(addr))
	k[0] = prefixAccount
	copy(k[1:], addr[:])
	return k
}

func storageKey(addr types.Address, slot types.Hash) []byte {
	k := make([]byte, 1+len(addr)+len(slot))
	k[0] = prefixStorage
	n := copy(k[1:], addr[:])
	copy(k[1+n:], slot[:])
	return k
}

func codeKey(codeHash []byte) []byte {
	k := make([]byte, 1+len(codeHash))
	k[0] = prefixCode
	copy(k[1:], codeHash)
	return k
}
