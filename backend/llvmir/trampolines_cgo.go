//go:build cgo

package llvmir

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/holiman/uint256"

	"github.com/eth2030/eth2030/jit/callback"
)

// wordAt reads the i'th 256-bit stack word starting at base, native
// (little-endian, target-machine) word order: the translator's own Load of
// a Width256 value off this same pointer uses the target's native integer
// layout, never a protocol-level big-endian byte string, so this mirrors
// that rather than uint256.SetBytes's big-endian convention.
func wordAt(base uintptr, i int) *uint256.Int {
	p := (*[32]byte)(unsafe.Pointer(base + uintptr(i)*32))
	var be [32]byte
	for j := 0; j < 32; j++ {
		be[j] = p[31-j]
	}
	w := new(uint256.Int)
	w.SetBytes(be[:])
	return w
}

func setWordAt(base uintptr, i int, w *uint256.Int) {
	be := w.Bytes32()
	p := (*[32]byte)(unsafe.Pointer(base + uintptr(i)*32))
	for j := 0; j < 32; j++ {
		p[j] = be[31-j]
	}
}

// dispatch is the shared body behind every jit_callback_* trampoline below:
// resolve the pinned EvmContext, marshal argsPtr's stack words into
// *uint256.Int per cb's arity, run the Go-level callback, marshal the
// outputs back, and return its InstructionResult as a byte.
func dispatch(cb callback.Callback, ecxHandle, argsPtr, scalar uint64) byte {
	binding := getBinding(ecxHandle)
	if binding == nil {
		return byte(callback.OpcodeNotFound)
	}

	inputs, outputs := callback.Arity(cb, scalar)
	args := make([]*uint256.Int, inputs)
	for i := 0; i < inputs; i++ {
		args[i] = wordAt(uintptr(argsPtr), i)
	}

	fn, ok := binding.reg[cb]
	if !ok {
		return byte(callback.OpcodeNotFound)
	}

	out, result := fn(binding.ctx, args, scalar)
	for i := 0; i < outputs && i < len(out); i++ {
		setWordAt(uintptr(argsPtr), i, out[i])
	}
	return byte(result)
}

//export jit_callback_panic
func jit_callback_panic(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Panic, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_addmod
func jit_callback_addmod(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.AddMod, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_mulmod
func jit_callback_mulmod(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.MulMod, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_exp
func jit_callback_exp(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Exp, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_keccak256
func jit_callback_keccak256(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Keccak256, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_balance
func jit_callback_balance(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Balance, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_calldatacopy
func jit_callback_calldatacopy(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.CallDataCopy, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_codecopy
func jit_callback_codecopy(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.CodeCopy, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_extcodesize
func jit_callback_extcodesize(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.ExtCodeSize, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_extcodecopy
func jit_callback_extcodecopy(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.ExtCodeCopy, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_returndatacopy
func jit_callback_returndatacopy(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.ReturnDataCopy, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_extcodehash
func jit_callback_extcodehash(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.ExtCodeHash, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_blockhash
func jit_callback_blockhash(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.BlockHash, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_selfbalance
func jit_callback_selfbalance(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.SelfBalance, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_blobhash
func jit_callback_blobhash(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.BlobHash, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_blobbasefee
func jit_callback_blobbasefee(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.BlobBaseFee, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_mload
func jit_callback_mload(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Mload, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_mstore
func jit_callback_mstore(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Mstore, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_mstore8
func jit_callback_mstore8(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Mstore8, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_sload
func jit_callback_sload(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Sload, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_sstore
func jit_callback_sstore(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Sstore, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_msize
func jit_callback_msize(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Msize, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_tload
func jit_callback_tload(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Tload, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_tstore
func jit_callback_tstore(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Tstore, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_log
func jit_callback_log(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Log, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_create
func jit_callback_create(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Create, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_return
func jit_callback_return(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.DoReturn, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_selfdestruct
func jit_callback_selfdestruct(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.SelfDestruct, uint64(ecx), uint64(args), uint64(scalar)))
}

//export jit_callback_call
func jit_callback_call(ecx, args, scalar C.uint64_t) C.uint8_t {
	return C.uint8_t(dispatch(callback.Call, uint64(ecx), uint64(args), uint64(scalar)))
}
