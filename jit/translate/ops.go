package translate

import (
	"fmt"

	"github.com/eth2030/eth2030/core/vm"
	"github.com/eth2030/eth2030/jit/bytecode"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/ir"
	"github.com/eth2030/eth2030/jit/opcodes"
)

// lowerOne lowers a single non-dead, non-disabled, non-skip-logic
// instruction. The caller has already charged static gas.
func (t *translator) lowerOne(i int, inst bytecode.InstData, info opcodes.OpcodeInfo) error {
	op := vm.OpCode(inst.Opcode)

	t.checkStackBounds(int(info.Inputs), int(info.Outputs))

	switch {
	case op == vm.STOP:
		t.ret(byte(resultStop))
	case op == vm.ADD:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.Add(a, b) })
	case op == vm.SUB:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.Sub(a, b) })
	case op == vm.MUL:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.Mul(a, b) })
	case op == vm.DIV:
		t.binOp(t.div(false))
	case op == vm.SDIV:
		t.binOp(t.sdiv())
	case op == vm.MOD:
		t.binOp(t.mod(false))
	case op == vm.SMOD:
		t.binOp(t.mod(true))
	case op == vm.AND:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.And(a, b) })
	case op == vm.OR:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.Or(a, b) })
	case op == vm.XOR:
		t.binOp(func(a, b ir.Value) ir.Value { return t.b.Xor(a, b) })
	case op == vm.NOT:
		t.unOp(func(a ir.Value) ir.Value { return t.b.Not(a) })
	case op == vm.ISZERO:
		t.unOp(func(a ir.Value) ir.Value {
			z := t.b.ICmp(ir.Eq, a, t.b.ConstInt(ir.Width256, 0))
			return t.b.ZExt(z, ir.Width256)
		})
	case op == vm.LT:
		t.cmpOp(ir.Ult)
	case op == vm.GT:
		t.cmpOp(ir.Ugt)
	case op == vm.SLT:
		t.cmpOp(ir.Slt)
	case op == vm.SGT:
		t.cmpOp(ir.Sgt)
	case op == vm.EQ:
		t.cmpOp(ir.Eq)
	case op == vm.SHL:
		t.shiftOp(func(v, s ir.Value) ir.Value { return t.b.Shl(v, s) }, false)
	case op == vm.SHR:
		t.shiftOp(func(v, s ir.Value) ir.Value { return t.b.LShr(v, s) }, false)
	case op == vm.SAR:
		t.shiftOp(func(v, s ir.Value) ir.Value { return t.b.AShr(v, s) }, true)
	case op == vm.BYTE:
		t.byteOp()
	case op == vm.SIGNEXTEND:
		t.signExtendOp()
	case op.IsPush():
		t.pushConst(inst)
	case op >= vm.DUP1 && op <= vm.DUP16:
		t.dup(int(op-vm.DUP1) + 1)
	case op >= vm.SWAP1 && op <= vm.SWAP16:
		t.swap(int(op-vm.SWAP1) + 1)
	case op == vm.POP:
		t.popSP(1)
	case op == vm.JUMPDEST:
		// no-op besides the static gas already charged
	case op == vm.JUMP:
		return t.lowerJump(i, inst, false)
	case op == vm.JUMPI:
		return t.lowerJump(i, inst, true)
	case op == vm.RETURN:
		t.lowerReturn(resultReturn)
	case op == vm.REVERT:
		t.lowerReturn(resultRevert)
	case op == vm.INVALID:
		t.ret(byte(resultInvalidFEOpcode))
	case op == vm.CALLDATALOAD:
		t.calldataLoad()
	case isDynamicGasCallbackOp(op):
		t.lowerCallbackOp(op, int(info.Inputs), int(info.Outputs))
		if op == vm.SELFDESTRUCT {
			t.ret(resultSelfDestruct)
		} else if isTerminatorOp(op) {
			t.ret(resultCallOrCreate)
		}
	case isEnvReadOp(op):
		t.envRead(op, inst)
	default:
		return fmt.Errorf("jit/translate: unhandled opcode %s", op)
	}

	if !isTerminatorOp(op) {
		t.fallThrough(i)
	}
	return nil
}

// isDynamicGasCallbackOp covers every opcode this translator routes to a
// runtime callback rather than lowering inline: memory, storage, logs,
// hashing, calldata/returndata copy, call/create/selfdestruct, and every
// dynamic-gas arithmetic op.
func isDynamicGasCallbackOp(op vm.OpCode) bool {
	switch op {
	case vm.KECCAK256, vm.BALANCE, vm.CALLDATACOPY, vm.CODECOPY, vm.EXTCODESIZE,
		vm.EXTCODECOPY, vm.RETURNDATACOPY, vm.EXTCODEHASH, vm.BLOCKHASH, vm.SELFBALANCE,
		vm.BLOBHASH, vm.BLOBBASEFEE, vm.MLOAD, vm.MSTORE, vm.MSTORE8, vm.SLOAD, vm.SSTORE,
		vm.MSIZE, vm.TLOAD, vm.TSTORE, vm.MCOPY, vm.EXP, vm.ADDMOD, vm.MULMOD,
		vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4,
		vm.CREATE, vm.CREATE2, vm.SELFDESTRUCT,
		vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		return true
	}
	return false
}

// isEnvReadOp reports opcodes that only need a fixed-offset load out of
// Env/Contract, with no dynamic gas or host-state component. These are
// lowered inline rather than through a callback.
func isEnvReadOp(op vm.OpCode) bool {
	switch op {
	case vm.ADDRESS, vm.ORIGIN, vm.CALLER, vm.CALLVALUE, vm.CALLDATASIZE, vm.CODESIZE,
		vm.GASPRICE, vm.RETURNDATASIZE, vm.COINBASE, vm.TIMESTAMP, vm.NUMBER,
		vm.PREVRANDAO, vm.GASLIMIT, vm.CHAINID, vm.BASEFEE, vm.PC, vm.GAS:
		return true
	}
	return false
}

func isTerminatorOp(op vm.OpCode) bool {
	switch op {
	case vm.STOP, vm.RETURN, vm.REVERT, vm.INVALID, vm.SELFDESTRUCT, vm.JUMP,
		vm.CREATE, vm.CREATE2, vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		return true
	}
	return false
}

// lowerCallbackOp marshals (ecxPtr, spOfArgs) for any opcode delegated
// wholly to a runtime callback: memory, storage, logs, hashing,
// calldata/returndata copy, call/create/selfdestruct (§4.5).
func (t *translator) lowerCallbackOp(op vm.OpCode, inputs, outputs int) {
	argsPtr := t.popSP(inputs)
	fn := t.callbackFunc(callbackForOp(op))
	sel, _ := callbackSelector(op)
	callArgs := []ir.Value{t.ecxParam(), argsPtr, t.b.ConstInt(ir.Width64, sel)}
	result := t.b.Call(fn, callArgs...)

	// A callback returning a byte is an InstructionResult; Continue (0)
	// means fall through, anything else returns immediately.
	isContinue := t.b.ICmp(ir.Eq, result, t.b.ConstInt(ir.Width8, uint64(resultContinue)))
	cont := t.b.CreateBlock(fmt.Sprintf("callbackOk_%s", op))
	fail := t.b.CreateBlock(fmt.Sprintf("callbackFail_%s", op))
	t.b.MarkCold(fail)
	t.b.CondBr(isContinue, cont, fail)

	t.b.SetInsertPoint(fail)
	t.b.Ret(result)

	t.b.SetInsertPoint(cont)
	if outputs > 0 {
		// The callback wrote its outputs directly through argsPtr (the
		// PopTopSP convention); only the length needs to catch up.
		t.setLen(t.b.Add(t.lenValue(), t.b.ConstInt(ir.Width64, uint64(outputs))))
	}
}

// ecxParam returns the opaque execution-context pointer (the sixth ABI
// argument), passed through unchanged to every callback.
func (t *translator) ecxParam() ir.Value { return t.b.Param(paramEcx) }

// callbackFunc resolves the imported Func handle for a Callback variant.
// Populated by the compiler driver via WithCallbacks before Translate runs
// a callback-bearing bytecode.
func (t *translator) callbackFunc(cb callback.Callback) ir.Func {
	if fn, ok := t.callbacks[cb]; ok {
		return fn
	}
	panic(fmt.Sprintf("jit/translate: no callback bound for %d", cb))
}

// callbackForOp maps an opcode lowered wholly to a callback onto the
// Callback variant that implements it (§3's Callback enum).
func callbackForOp(op vm.OpCode) callback.Callback {
	switch op {
	case vm.ADDMOD:
		return callback.AddMod
	case vm.MULMOD:
		return callback.MulMod
	case vm.EXP:
		return callback.Exp
	case vm.KECCAK256:
		return callback.Keccak256
	case vm.BALANCE:
		return callback.Balance
	case vm.CALLDATACOPY:
		return callback.CallDataCopy
	case vm.CODECOPY:
		return callback.CodeCopy
	case vm.EXTCODESIZE:
		return callback.ExtCodeSize
	case vm.EXTCODECOPY:
		return callback.ExtCodeCopy
	case vm.RETURNDATACOPY:
		return callback.ReturnDataCopy
	case vm.EXTCODEHASH:
		return callback.ExtCodeHash
	case vm.BLOCKHASH:
		return callback.BlockHash
	case vm.SELFBALANCE:
		return callback.SelfBalance
	case vm.BLOBHASH:
		return callback.BlobHash
	case vm.BLOBBASEFEE:
		return callback.BlobBaseFee
	case vm.MLOAD:
		return callback.Mload
	case vm.MSTORE:
		return callback.Mstore
	case vm.MSTORE8:
		return callback.Mstore8
	case vm.SLOAD:
		return callback.Sload
	case vm.SSTORE:
		return callback.Sstore
	case vm.MSIZE:
		return callback.Msize
	case vm.TLOAD:
		return callback.Tload
	case vm.TSTORE:
		return callback.Tstore
	case vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4:
		return callback.Log
	case vm.CREATE, vm.CREATE2:
		return callback.Create
	case vm.SELFDESTRUCT:
		return callback.SelfDestruct
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		return callback.Call
	case vm.MCOPY:
		return callback.Mstore
	default:
		panic(fmt.Sprintf("jit/translate: %s has no callback mapping", op))
	}
}

// callbackSelector returns the scalar discriminator passed as a trailing
// argument to a callback call, for the few Callback variants that cover
// more than one real opcode (§4.4): which LOG arity, which CREATE variant,
// which CALL-family member, or (Mstore) whether this is really MCOPY.
// Reported false for every single-opcode variant, which needs no selector.
func callbackSelector(op vm.OpCode) (uint64, bool) {
	switch op {
	case vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4:
		return uint64(op - vm.LOG0), true
	case vm.CREATE:
		return 0, true
	case vm.CREATE2:
		return 1, true
	case vm.CALL:
		return uint64(callback.KindCall), true
	case vm.CALLCODE:
		return uint64(callback.KindCallCode), true
	case vm.DELEGATECALL:
		return uint64(callback.KindDelegateCall), true
	case vm.STATICCALL:
		return uint64(callback.KindStaticCall), true
	case vm.MCOPY:
		return 1, true
	default:
		return 0, false
	}
}
