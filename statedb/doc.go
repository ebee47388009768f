// Package statedb is the persistent core/vm.StateDB this repo ships,
// grounded on the teacher's own in-memory MemoryStateDB (account/storage
// journal, access list, transient storage, per-transaction logs) but
// backed by a real key/value store instead of a bare map, so a compiled
// function's Sload/Sstore/Balance/ExtCodeSize callbacks (jit/callback) read
// and write state that survives past one EVM.Call.
//
// Three layers sit in front of the store: an in-process fastcache for hot
// account/storage reads, a holiman/bloomfilter/v2 negative-existence filter
// so Exist/Empty on a cold address doesn't need a store lookup at all, and
// the store itself, which is either cockroachdb/pebble or syndtr/goleveldb
// depending on which Open constructor is used.
package statedb
