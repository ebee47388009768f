// Package abi defines the fixed, bit-for-bit memory layouts the compiled
// function reads directly by pointer arithmetic: the compiler driver
// populates one of these for every call, and the translator's generated
// loads assume exactly this field order (offsets are computed at translator
// build-time via unsafe.Offsetof against these definitions, never hardcoded
// twice).
package abi

// Word is a 256-bit EVM value stored in the native word layout the IR
// builder's Width256 load/store operate on.
type Word [32]byte

// Bytes is a host-owned (pointer, length) byte span: contract input data or
// deployed code. There is no separate "locked" variant at this layer; code
// caching lives above the translator, in the compiler driver.
type Bytes struct {
	Ptr uint64
	Len uint64
}

// Env carries the per-transaction and per-block values the environment
// opcodes read with no dynamic-gas or host-state component attached
// (ADDRESS/CALLVALUE/etc. live on Contract instead; see Contract below).
type Env struct {
	Origin      Word
	GasPrice    Word
	Coinbase    Word
	Timestamp   Word
	BlockNumber Word
	PrevRandao  Word
	HasRandao   uint64
	GasLimit    Word
	ChainID     Word
	BaseFee     Word
}

// Contract carries the fields of the executing call frame the translator
// reads directly rather than through a callback.
type Contract struct {
	Address Word
	Caller  Word
	Value   Word
	Input   Bytes
	Code    Bytes
}
