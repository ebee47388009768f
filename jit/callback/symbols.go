package callback

// symbolNames gives every Callback variant a stable, process-wide name.
// The compiler driver imports callbacks into the backend by this name
// rather than by a raw address it would have no way to obtain itself;
// a concrete backend (backend/llvmir) resolves the name to an address at
// module-build time through its own trampoline table.
var symbolNames = [...]string{
	Panic:          "jit_callback_panic",
	AddMod:         "jit_callback_addmod",
	MulMod:         "jit_callback_mulmod",
	Exp:            "jit_callback_exp",
	Keccak256:      "jit_callback_keccak256",
	Balance:        "jit_callback_balance",
	CallDataCopy:   "jit_callback_calldatacopy",
	CodeCopy:       "jit_callback_codecopy",
	ExtCodeSize:    "jit_callback_extcodesize",
	ExtCodeCopy:    "jit_callback_extcodecopy",
	ReturnDataCopy: "jit_callback_returndatacopy",
	ExtCodeHash:    "jit_callback_extcodehash",
	BlockHash:      "jit_callback_blockhash",
	SelfBalance:    "jit_callback_selfbalance",
	BlobHash:       "jit_callback_blobhash",
	BlobBaseFee:    "jit_callback_blobbasefee",
	Mload:          "jit_callback_mload",
	Mstore:         "jit_callback_mstore",
	Mstore8:        "jit_callback_mstore8",
	Sload:          "jit_callback_sload",
	Sstore:         "jit_callback_sstore",
	Msize:          "jit_callback_msize",
	Tload:          "jit_callback_tload",
	Tstore:         "jit_callback_tstore",
	Log:            "jit_callback_log",
	Create:         "jit_callback_create",
	DoReturn:       "jit_callback_return",
	SelfDestruct:   "jit_callback_selfdestruct",
	Call:           "jit_callback_call",
}

// Symbol returns cb's stable backend-facing name.
func (cb Callback) Symbol() string {
	if int(cb) < 0 || int(cb) >= len(symbolNames) {
		return "jit_callback_unknown"
	}
	return symbolNames[cb]
}

// All enumerates every defined Callback variant, in declaration order.
func All() []Callback {
	out := make([]Callback, len(symbolNames))
	for i := range out {
		out[i] = Callback(i)
	}
	return out
}
