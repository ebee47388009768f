package translate

import (
	"unsafe"

	"github.com/eth2030/eth2030/core/vm"
	"github.com/eth2030/eth2030/jit/abi"
	"github.com/eth2030/eth2030/jit/bytecode"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/ir"
)

// Byte offsets into abi.Env and abi.Contract, computed once against the
// real struct layout so they can never drift from jit/abi's field order.
var (
	envOriginOff      = int64(unsafe.Offsetof(abi.Env{}.Origin))
	envGasPriceOff    = int64(unsafe.Offsetof(abi.Env{}.GasPrice))
	envCoinbaseOff    = int64(unsafe.Offsetof(abi.Env{}.Coinbase))
	envTimestampOff   = int64(unsafe.Offsetof(abi.Env{}.Timestamp))
	envBlockNumberOff = int64(unsafe.Offsetof(abi.Env{}.BlockNumber))
	envPrevRandaoOff  = int64(unsafe.Offsetof(abi.Env{}.PrevRandao))
	envHasRandaoOff   = int64(unsafe.Offsetof(abi.Env{}.HasRandao))
	envGasLimitOff    = int64(unsafe.Offsetof(abi.Env{}.GasLimit))
	envChainIDOff     = int64(unsafe.Offsetof(abi.Env{}.ChainID))
	envBaseFeeOff     = int64(unsafe.Offsetof(abi.Env{}.BaseFee))

	contractAddressOff = int64(unsafe.Offsetof(abi.Contract{}.Address))
	contractCallerOff  = int64(unsafe.Offsetof(abi.Contract{}.Caller))
	contractValueOff   = int64(unsafe.Offsetof(abi.Contract{}.Value))
	contractInputOff   = int64(unsafe.Offsetof(abi.Contract{}.Input))
	contractCodeOff    = int64(unsafe.Offsetof(abi.Contract{}.Code))

	bytesLenOff = int64(unsafe.Offsetof(abi.Bytes{}.Len))

	// The Len word of a Go slice header sits immediately after its data
	// pointer; this mirrors that layout for callback.EvmContext.ReturnData
	// so RETURNDATASIZE can read the live length without its own callback
	// (the Callback enum is closed and has no variant for it).
	ecxReturnDataLenOff = int64(unsafe.Offsetof(callback.EvmContext{}.ReturnData)) + 8
)

// envPush256 loads a 256-bit word at byteOffset from base and pushes it.
func (t *translator) envPush256(base ir.Value, byteOffset int64) {
	v := t.b.Load(t.b.GEP(base, byteOffset), ir.Width256)
	t.pushOne(v)
}

// envPushLen loads a 64-bit length at byteOffset from base, zero-extends to
// 256 bits, and pushes it.
func (t *translator) envPushLen(base ir.Value, byteOffset int64) {
	v := t.b.Load(t.b.GEP(base, byteOffset), ir.Width64)
	t.pushOne(t.b.ZExt(v, ir.Width256))
}

func (t *translator) pushOne(v ir.Value) {
	length := t.lenValue()
	t.setLen(t.b.Add(length, t.b.ConstInt(ir.Width64, 1)))
	t.storeSlot(0, v)
}

// envRead lowers the pure environment-read opcodes: fixed-offset loads out
// of the Env/Contract ABI structs (§6.1), with no dynamic gas or host-state
// component. PC is a per-instruction compile-time constant; GAS reads the
// already-bound gas pointer; RETURNDATASIZE reads the live length off the
// ecx parameter directly, since the Callback enum has no variant for it.
func (t *translator) envRead(op vm.OpCode, inst bytecode.InstData) {
	env := t.b.Param(paramEnv)
	contract := t.b.Param(paramContract)

	switch op {
	case vm.ADDRESS:
		t.envPush256(contract, contractAddressOff)
	case vm.CALLER:
		t.envPush256(contract, contractCallerOff)
	case vm.CALLVALUE:
		t.envPush256(contract, contractValueOff)
	case vm.CALLDATASIZE:
		t.envPushLen(contract, contractInputOff+bytesLenOff)
	case vm.CODESIZE:
		t.envPushLen(contract, contractCodeOff+bytesLenOff)
	case vm.ORIGIN:
		t.envPush256(env, envOriginOff)
	case vm.GASPRICE:
		t.envPush256(env, envGasPriceOff)
	case vm.COINBASE:
		t.envPush256(env, envCoinbaseOff)
	case vm.TIMESTAMP:
		t.envPush256(env, envTimestampOff)
	case vm.NUMBER:
		t.envPush256(env, envBlockNumberOff)
	case vm.GASLIMIT:
		t.envPush256(env, envGasLimitOff)
	case vm.CHAINID:
		t.envPush256(env, envChainIDOff)
	case vm.BASEFEE:
		t.envPush256(env, envBaseFeeOff)
	case vm.PREVRANDAO:
		t.lowerPrevRandao(env)
	case vm.RETURNDATASIZE:
		t.envPushLen(t.ecxParam(), ecxReturnDataLenOff)
	case vm.PC:
		t.pushOne(t.b.ConstInt(ir.Width256, inst.PC))
	case vm.GAS:
		rem := t.b.Load(t.b.GEP(t.gasPtr, gasRemainingOffset), ir.Width64)
		t.pushOne(t.b.ZExt(rem, ir.Width256))
	}
}

// calldataLoad lowers CALLDATALOAD inline rather than through a callback:
// zero if the index is beyond the input, otherwise up to 32 bytes copied
// from the input buffer into a zeroed scratch slot and byte-swapped to
// native endian.
func (t *translator) calldataLoad() {
	b := t.b
	contract := b.Param(paramContract)
	ptr := b.Load(b.GEP(contract, contractInputOff), ir.Width64)
	length := b.Load(b.GEP(contract, contractInputOff+bytesLenOff), ir.Width64)
	length256 := b.ZExt(length, ir.Width256)

	index := t.loadSlot(0)
	outOfRange := b.ICmp(ir.Uge, index, length256)
	res := b.LazySelect(outOfRange,
		func() ir.Value { return b.ConstInt(ir.Width256, 0) },
		func() ir.Value {
			index64 := b.Trunc(index, ir.Width64)
			src := b.GEPIndex(ptr, index64, ir.Width8)
			remaining := b.Trunc(b.Sub(length256, index), ir.Width64)
			copyLen := b.UMin(remaining, b.ConstInt(ir.Width64, 32))

			scratch := b.Alloca(ir.Width256, "calldataScratch")
			b.Store(scratch, b.ConstInt(ir.Width256, 0))
			b.Memcpy(scratch, src, copyLen)
			return b.ByteSwap(b.Load(scratch, ir.Width256))
		},
	)
	t.popTopWrite(1, res)
}

// lowerPrevRandao implements §4.5's tagged-option DIFFICULTY/PREVRANDAO
// rule: pre-Merge, the field holds the raw difficulty and is pushed as-is;
// from the Merge on, HasRandao gates whether to push the byte-swapped
// randomness value or zero.
func (t *translator) lowerPrevRandao(env ir.Value) {
	if !t.bc.Spec.ForkRules().IsMerge {
		t.envPush256(env, envPrevRandaoOff)
		return
	}
	has := t.b.Load(t.b.GEP(env, envHasRandaoOff), ir.Width64)
	hasRandao := t.b.ICmp(ir.Ne, has, t.b.ConstInt(ir.Width64, 0))
	val := t.b.Load(t.b.GEP(env, envPrevRandaoOff), ir.Width256)
	res := t.b.Select(hasRandao, t.b.ByteSwap(val), t.b.ConstInt(ir.Width256, 0))
	t.pushOne(res)
}
