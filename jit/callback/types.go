// Package callback implements the runtime helpers a compiled function calls
// into for every operation too heavyweight to inline: memory, storage,
// hashing, logs, and the CALL/CREATE family. Every callback body delegates
// to the reference interpreter's own instruction handler (via
// vm.JumpTable.Execute) or EVM method, so callback semantics and
// interpreter semantics are the same Go code, never a parallel
// reimplementation.
package callback

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/eth2030/core/vm"
	"github.com/eth2030/eth2030/jit/opcodes"
)

// InstructionResult is the one-byte status a compiled function (and any
// callback it calls) returns. Continue never leaks out of a well-formed
// compile.
type InstructionResult byte

const (
	Continue InstructionResult = iota
	Stop
	Return
	Revert
	CallOrCreate
	SelfDestructResult
	StackUnderflow
	StackOverflow
	OutOfGas
	InvalidJump
	InvalidFEOpcode
	OpcodeNotFound
	NotActivated
	StateChangeDuringStaticCall
)

// CallKind tags which of the four CALL-family opcodes a Call callback
// invocation is lowering.
type CallKind byte

const (
	KindCall CallKind = iota
	KindCallCode
	KindDelegateCall
	KindStaticCall
)

// EvmContext is the Go-side shape of the compiled function's opaque ecx
// pointer: everything a callback needs beyond the stack itself to run the
// equivalent interpreter operation.
type EvmContext struct {
	EVM       *vm.EVM
	Contract  *vm.Contract
	Memory    *vm.Memory
	JumpTable vm.JumpTable
	Spec      opcodes.SpecID
	PC        uint64
	IsStatic  bool

	// ReturnData receives the callee's output on CALL/CREATE family
	// callbacks, mirroring evm.returnData in the interpreter.
	ReturnData []byte
}

// Func is the Go-level signature every callback implementation conforms
// to. args are the popped stack words, bottom element first, exactly as
// vm.Stack.Data() would return them; outputs are pushed back in the same
// order by the caller (the translator's PopTopSP/PopSP convention, §4.5).
// The native compiled function instead passes a raw stack pointer and
// scalar operands; backend/llvmir's callback trampolines are responsible
// for that ABI-level marshalling, this signature is the Go-level contract
// the compiler driver's interpreter-equivalence tests exercise directly.
type Func func(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult)
