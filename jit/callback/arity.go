package callback

// Arity reports the number of stack words a Callback variant consumes and
// produces for a given selector scalar. It is the inverse of the
// opcode-to-callback mapping jit/translate/ops.go builds (callbackForOp,
// callbackSelector): the native ABI passes only a raw args pointer and an
// optional scalar, never a length, so anything reading that pointer from
// outside the translator (the backend's callback trampolines, in
// particular) needs this table to know how many Word256 slots are valid.
//
// scalar is ignored by every variant except Mstore (MCOPY selector), Log
// (topic count), Create (CREATE vs CREATE2), and Call (CallKind), mirroring
// exactly the opcodes those variants cover in Default().
func Arity(cb Callback, scalar uint64) (inputs, outputs int) {
	switch cb {
	case AddMod, MulMod:
		return 3, 1
	case Exp, Keccak256:
		return 2, 1
	case Balance, ExtCodeSize, ExtCodeHash, BlockHash, BlobHash, Mload, Sload, Tload:
		return 1, 1
	case CallDataCopy, CodeCopy, ReturnDataCopy:
		return 3, 0
	case ExtCodeCopy:
		return 4, 0
	case SelfBalance, BlobBaseFee, Msize:
		return 0, 1
	case Mstore:
		if scalar == 1 {
			return 3, 0 // MCOPY: dest, src, size
		}
		return 2, 0 // MSTORE: offset, value
	case Mstore8, Sstore, Tstore, DoReturn:
		return 2, 0
	case Log:
		return 2 + int(scalar), 0 // offset, size, plus `scalar` topics
	case Create:
		if scalar == 1 {
			return 4, 1 // CREATE2: value, offset, size, salt
		}
		return 3, 1 // CREATE: value, offset, size
	case SelfDestruct:
		return 1, 0
	case Call:
		switch CallKind(scalar) {
		case KindCall, KindCallCode:
			return 7, 1 // gas, addr, value, argsOffset, argsSize, retOffset, retSize
		default:
			return 6, 1 // DELEGATECALL/STATICCALL: no value
		}
	default:
		return 0, 0
	}
}
