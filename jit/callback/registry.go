package callback

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/core/vm"
)

// Callback enumerates the runtime helpers a compiled function can call into.
// The zero value (Panic) is deliberately the most conservative entry: an
// uninitialised Callback used as a map key fails loud.
type Callback int

const (
	Panic Callback = iota
	AddMod
	MulMod
	Exp
	Keccak256
	Balance
	CallDataCopy
	CodeCopy
	ExtCodeSize
	ExtCodeCopy
	ReturnDataCopy
	ExtCodeHash
	BlockHash
	SelfBalance
	BlobHash
	BlobBaseFee
	Mload
	Mstore
	Mstore8
	Sload
	Sstore
	Msize
	Tload
	Tstore
	Log
	Create
	DoReturn
	SelfDestruct
	Call
)

// Registry maps each Callback variant to its Go-level implementation.
type Registry map[Callback]Func

// Default returns the registry wired to the matching core/vm instruction
// handlers, the same set the compiler driver binds into the module's
// callback addresses by default.
func Default() Registry {
	return Registry{
		Panic:          panicCallback,
		AddMod:         simpleOp(vm.ADDMOD, 3, 1),
		MulMod:         simpleOp(vm.MULMOD, 3, 1),
		Exp:            simpleOp(vm.EXP, 2, 1),
		Keccak256:      simpleOp(vm.KECCAK256, 2, 1),
		Balance:        simpleOp(vm.BALANCE, 1, 1),
		CallDataCopy:   simpleOp(vm.CALLDATACOPY, 3, 0),
		CodeCopy:       simpleOp(vm.CODECOPY, 3, 0),
		ExtCodeSize:    simpleOp(vm.EXTCODESIZE, 1, 1),
		ExtCodeCopy:    simpleOp(vm.EXTCODECOPY, 4, 0),
		ReturnDataCopy: simpleOp(vm.RETURNDATACOPY, 3, 0),
		ExtCodeHash:    simpleOp(vm.EXTCODEHASH, 1, 1),
		BlockHash:      simpleOp(vm.BLOCKHASH, 1, 1),
		SelfBalance:    simpleOp(vm.SELFBALANCE, 0, 1),
		BlobHash:       simpleOp(vm.BLOBHASH, 1, 1),
		BlobBaseFee:    simpleOp(vm.BLOBBASEFEE, 0, 1),
		Mload:          simpleOp(vm.MLOAD, 1, 1),
		Mstore:         storeCallback,
		Mstore8:        simpleOp(vm.MSTORE8, 2, 0),
		Sload:          staticGuardedOp(vm.SLOAD, 1, 1, false),
		Sstore:         staticGuardedOp(vm.SSTORE, 2, 0, true),
		Msize:          simpleOp(vm.MSIZE, 0, 1),
		Tload:          simpleOp(vm.TLOAD, 1, 1),
		Tstore:         staticGuardedOp(vm.TSTORE, 2, 0, true),
		Log:            logCallback,
		Create:         createCallback,
		DoReturn:       simpleOp(vm.RETURN, 2, 0),
		SelfDestruct:   staticGuardedOp(vm.SELFDESTRUCT, 1, 0, true),
		Call:           callCallback,
	}
}

// panicCallback is the Panic variant: NoReturn at the Go level too, used
// only when debug assertions catch a violated "must be non-null" contract.
func panicCallback(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
	panic("jit: debug-assertion violated: required pointer was null")
}

// simpleOp builds a callback that pushes args onto a fresh vm.Stack (bottom
// element first), runs op through ecx.JumpTable exactly as the interpreter
// would, and pops outputs back off in the same order.
func simpleOp(op vm.OpCode, inputs, outputs int) Func {
	return func(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
		return runOp(ecx, op, args, outputs)
	}
}

// staticGuardedOp is simpleOp plus the static-call guard required for any
// opcode that mutates state.
func staticGuardedOp(op vm.OpCode, inputs, outputs int, writes bool) Func {
	inner := simpleOp(op, inputs, outputs)
	return func(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
		if writes && ecx.IsStatic {
			return nil, StateChangeDuringStaticCall
		}
		return inner(ecx, args, scalars...)
	}
}

func runOp(ecx *EvmContext, op vm.OpCode, args []*uint256.Int, outputs int) ([]*uint256.Int, InstructionResult) {
	stack := vm.NewStack()
	for _, a := range args {
		stack.Push(toBig(a))
	}
	pc := ecx.PC
	_, err := ecx.JumpTable.Execute(op, &pc, ecx.EVM, ecx.Contract, ecx.Memory, stack)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*uint256.Int, outputs)
	for i := outputs - 1; i >= 0; i-- {
		out[i] = fromBig(stack.Pop())
	}
	return out, Continue
}

// storeCallback implements the Mstore variant, generalized (like Log,
// Create, and Call below) to cover a second real opcode via a scalar
// selector rather than adding a new enum entry: MCOPY shares MSTORE's
// "write N bytes into memory, charge expansion gas" shape and has no
// callback of its own. scalars[0] == 1 selects MCOPY; its absence or 0
// selects plain MSTORE.
func storeCallback(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
	op := vm.MSTORE
	if len(scalars) > 0 && scalars[0] == 1 {
		op = vm.MCOPY
	}
	return runOp(ecx, op, args, 0)
}

func logCallback(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
	if ecx.IsStatic {
		return nil, StateChangeDuringStaticCall
	}
	topics := 0
	if len(scalars) > 0 {
		topics = int(scalars[0])
	}
	op := vm.OpCode(int(vm.LOG0) + topics)
	return runOp(ecx, op, args, 0)
}

func createCallback(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
	if ecx.IsStatic {
		return nil, StateChangeDuringStaticCall
	}
	op := vm.CREATE
	if len(scalars) > 0 && scalars[0] == 1 {
		op = vm.CREATE2
	}
	return runOp(ecx, op, args, 1)
}

// callCallback implements the CALL-family lowering shared by all four call
// opcodes: it dispatches to the matching core/vm.EVM method rather than
// going through the interpreter's jump table directly, because the
// CALL-family handlers read caller/value/gas framing the jump table's
// generic Execute does not expose.
func callCallback(ecx *EvmContext, args []*uint256.Int, scalars ...uint64) ([]*uint256.Int, InstructionResult) {
	kind := KindCall
	if len(scalars) > 0 {
		kind = CallKind(scalars[0])
	}

	// Stack order bottom-to-top mirrors opCall/opStaticCall: gas, addr,
	// [value], argsOffset, argsSize, retOffset, retSize.
	idx := 0
	next := func() *big.Int { v := toBig(args[idx]); idx++; return v }

	gas := next().Uint64()
	addr := addressFromWord(args[idx])
	idx++

	var value *big.Int
	if kind == KindCall || kind == KindCallCode {
		value = next()
	} else {
		value = new(big.Int)
	}

	_ = next() // argsOffset: memory movement already staged by the translator
	_ = next() // argsSize
	_ = next() // retOffset
	_ = next() // retSize

	if (kind == KindCallCode || kind == KindCall) && ecx.IsStatic && value.Sign() != 0 {
		return nil, StateChangeDuringStaticCall
	}

	var (
		ret      []byte
		gasLeft  uint64
		err      error
		caller   = ecx.Contract.Address
	)
	switch kind {
	case KindCall:
		ret, gasLeft, err = ecx.EVM.Call(caller, addr, ecx.Contract.Input, gas, value)
	case KindCallCode:
		ret, gasLeft, err = ecx.EVM.CallCode(caller, addr, ecx.Contract.Input, gas, value)
	case KindDelegateCall:
		ret, gasLeft, err = ecx.EVM.DelegateCall(caller, addr, ecx.Contract.Input, gas)
	case KindStaticCall:
		ret, gasLeft, err = ecx.EVM.StaticCall(caller, addr, ecx.Contract.Input, gas)
	}

	ecx.ReturnData = ret
	ecx.Contract.Gas += gasLeft

	success := uint256.NewInt(1)
	if err != nil {
		success = uint256.NewInt(0)
	}
	return []*uint256.Int{success}, Continue
}

func toBig(w *uint256.Int) *big.Int {
	if w == nil {
		return new(big.Int)
	}
	return w.ToBig()
}

func fromBig(b *big.Int) *uint256.Int {
	w, _ := uint256.FromBig(b)
	return w
}

func addressFromWord(w *uint256.Int) (addr types.Address) {
	b := w.Bytes32()
	copy(addr[:], b[12:])
	return addr
}

func mapError(err error) InstructionResult {
	switch err {
	case vm.ErrOutOfGas:
		return OutOfGas
	case vm.ErrStackOverflow:
		return StackOverflow
	case vm.ErrStackUnderflow:
		return StackUnderflow
	case vm.ErrInvalidJump:
		return InvalidJump
	case vm.ErrInvalidOpCode:
		return OpcodeNotFound
	case vm.ErrWriteProtection:
		return StateChangeDuringStaticCall
	case vm.ErrExecutionReverted:
		return Revert
	default:
		return OutOfGas
	}
}
