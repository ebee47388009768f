package vm

import (
	"errors"
	"math/big"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
)

var (
	ErrOutOfGas                = errors.New("out of gas")
	ErrStackOverflow           = errors.New("stack overflow")
	ErrStackUnderflow          = errors.New("stack underflow")
	ErrInvalidJump             = errors.New("invalid jump destination")
	ErrWriteProtection         = errors.New("write protection")
	ErrExecutionReverted       = errors.New("execution reverted")
	ErrMaxCallDepthExceeded    = errors.New("max call depth exceeded")
	ErrInvalidOpCode           = errors.New("invalid opcode")
	ErrReturnDataOutOfBounds   = errors.New("return data out of bounds")
	ErrMaxInitCodeSizeExceeded = errors.New("max initcode size exceeded")
)

// GetHashFunc returns the hash of the block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the EVM with block-level information. Field names
// mirror the jit.Env block section so the translator's field offsets and
// this reference interpreter agree on semantics.
type BlockContext struct {
	GetHash     GetHashFunc
	BlockNumber *big.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *big.Int
	PrevRandao  types.Hash
	HasRandao   bool // false pre-Merge: PREVRANDAO opcode must fall back to difficulty
	Difficulty  *big.Int
	BlobBaseFee *big.Int
}

// TxContext provides the EVM with transaction-level information.
type TxContext struct {
	Origin     types.Address
	GasPrice   *big.Int
	BlobHashes []types.Hash
}

// StateDB provides the EVM with access to Ethereum world state. Defined
// here (rather than core/state) so both the reference interpreter and the
// jit callback implementations can depend on the same narrow surface.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	GetTransientState(addr types.Address, key types.Hash) types.Hash
	SetTransientState(addr types.Address, key types.Hash, value types.Hash)
	ClearTransientStorage()

	SelfDestruct(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)

	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64

	AddAddressToAccessList(addr types.Address)
	AddSlotToAccessList(addr types.Address, slot types.Hash)
	AddressInAccessList(addr types.Address) bool
	SlotInAccessList(addr types.Address, slot types.Hash) (addressOk bool, slotOk bool)
}

// Config holds EVM configuration options.
type Config struct {
	MaxCallDepth int
}

// ForkRules mirrors the chain configuration fork flags needed to select
// the interpreter's jump table (jit/opcodes.SpecID.ForkRules derives them
// from a jit spec). Kept deliberately narrow: only the forks that gate an
// opcode or a gas rule covered by this spec are represented.
type ForkRules struct {
	IsShanghai bool // PUSH0 (EIP-3855)
	IsMerge    bool // PREVRANDAO replaces DIFFICULTY
	IsCancun   bool // TLOAD/TSTORE/MCOPY/BLOBHASH/BLOBBASEFEE
	IsSpuriousDragon bool // EXP dynamic gas repriced 10*len -> 50*len
}

// EVM is the reference (tree-walking) Ethereum Virtual Machine. It is the
// oracle the jit package's compiled functions must match bit-for-bit.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	depth      int
	readOnly   bool
	jumpTable  JumpTable
	forkRules  ForkRules
	returnData []byte
}

// NewEVM creates a new EVM instance.
func NewEVM(blockCtx BlockContext, txCtx TxContext, config Config) *EVM {
	if config.MaxCallDepth == 0 {
		config.MaxCallDepth = 1024
	}
	return &EVM{
		Context:   blockCtx,
		TxContext: txCtx,
		Config:    config,
		jumpTable: NewCancunJumpTable(),
		forkRules: ForkRules{IsShanghai: true, IsMerge: true, IsCancun: true, IsSpuriousDragon: true},
	}
}

// NewEVMWithState creates a new EVM instance with state access.
func NewEVMWithState(blockCtx BlockContext, txCtx TxContext, config Config, stateDB StateDB) *EVM {
	evm := NewEVM(blockCtx, txCtx, config)
	evm.StateDB = stateDB
	return evm
}

// SetJumpTable replaces the EVM's jump table. Use SelectJumpTable to pick
// the correct table for a given fork.
func (evm *EVM) SetJumpTable(jt JumpTable) { evm.jumpTable = jt }

// SetForkRules sets the active fork rules for this EVM instance.
func (evm *EVM) SetForkRules(rules ForkRules) { evm.forkRules = rules }

// GetForkRules returns the active fork rules.
func (evm *EVM) GetForkRules() ForkRules { return evm.forkRules }

// SelectJumpTable returns the correct jump table for the given fork rules.
func SelectJumpTable(rules ForkRules) JumpTable {
	switch {
	case rules.IsCancun:
		return NewCancunJumpTable()
	case rules.IsShanghai:
		return NewShanghaiJumpTable()
	case rules.IsMerge:
		return NewMergeJumpTable()
	default:
		return NewLondonJumpTable()
	}
}

// Run executes the contract bytecode using the interpreter loop. Gas
// charging order follows the jit translator's: constant gas, then dynamic
// gas (including memory expansion), then memory resize, then execute.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	contract.Input = input

	var (
		pc  uint64
		st  = NewStack()
		mem = NewMemory()
	)

	for {
		op := contract.GetOp(pc)
		operation := evm.jumpTable[op]
		if operation == nil || operation.execute == nil {
			return nil, ErrInvalidOpCode
		}

		sLen := st.Len()
		if sLen < operation.minStack {
			return nil, ErrStackUnderflow
		}
		if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}

		if operation.constantGas > 0 {
			if !contract.UseGas(operation.constantGas) {
				return nil, ErrOutOfGas
			}
		}

		var memorySize uint64
		if operation.memorySize != nil {
			memorySize = operation.memorySize(st)
		}

		if operation.dynamicGas != nil {
			cost := operation.dynamicGas(evm, contract, st, mem, memorySize)
			if !contract.UseGas(cost) {
				return nil, ErrOutOfGas
			}
		}

		if memorySize > 0 {
			words := (memorySize + 31) / 32
			if rounded := words * 32; uint64(mem.Len()) < rounded {
				mem.Resize(rounded)
			}
		}

		ret, err := operation.execute(&pc, evm, contract, mem, st)
		if err != nil {
			if errors.Is(err, ErrExecutionReverted) {
				return ret, err
			}
			return nil, err
		}

		if operation.halts {
			return ret, nil
		}
		if operation.jumps {
			continue
		}
		pc++
	}
}

// Call executes a message call to the given address with the given input, gas, and value.
func (evm *EVM) Call(caller types.Address, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, errors.New("no state database")
	}

	transfersValue := value != nil && value.Sign() > 0
	if transfersValue {
		if evm.readOnly {
			return nil, gas, ErrWriteProtection
		}
		if evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
			return nil, gas, errors.New("insufficient balance for transfer")
		}
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	if transfersValue {
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(addr, value)
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
		gasLeft = 0
	} else if errors.Is(err, ErrExecutionReverted) {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gasLeft, err
}

// CallCode executes a CALLCODE operation: runs the callee's code in the
// caller's own storage and address context, but (unlike DELEGATECALL)
// with a fresh value/msg.sender taken from this call's own arguments.
func (evm *EVM) CallCode(caller types.Address, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, errors.New("no state database")
	}

	if value != nil && value.Sign() > 0 && evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
		return nil, gas, errors.New("insufficient balance for transfer")
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, caller, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		gasLeft = 0
	}
	return ret, gasLeft, err
}

// DelegateCall executes a DELEGATECALL operation: runs the callee's code in
// the caller's own storage/address/value context.
func (evm *EVM) DelegateCall(caller types.Address, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, errors.New("no state database")
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, caller, nil, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		gasLeft = 0
	}
	return ret, gasLeft, err
}

// StaticCall executes a read-only message call. Any state-mutating opcode
// returns ErrWriteProtection before taking effect.
func (evm *EVM) StaticCall(caller types.Address, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, errors.New("no state database")
	}

	prevReadOnly := evm.readOnly
	evm.readOnly = true
	defer func() { evm.readOnly = prevReadOnly }()

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, new(big.Int), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	gasLeft := contract.Gas
	if err != nil && !errors.Is(err, ErrExecutionReverted) {
		gasLeft = 0
	}
	return ret, gasLeft, err
}

// createAddress computes the address of a contract created with CREATE.
// Per the Yellow Paper: addr = keccak256(rlp([sender, nonce]))[12:].
func createAddress(caller types.Address, nonce uint64) types.Address {
	addrEnc := encodeRLPBytes(caller[:])
	nonceEnc := encodeRLPUint(nonce)
	payload := append(addrEnc, nonceEnc...)
	data := wrapRLPList(payload)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

func encodeRLPBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		return append([]byte{byte(0x80 + len(b))}, b...)
	}
	lenBytes := uintToMinBytes(uint64(len(b)))
	header := append([]byte{byte(0xb7 + len(lenBytes))}, lenBytes...)
	return append(header, b...)
}

func encodeRLPUint(v uint64) []byte {
	if v == 0 {
		return []byte{0x80}
	}
	if v < 128 {
		return []byte{byte(v)}
	}
	b := uintToMinBytes(v)
	return append([]byte{byte(0x80 + len(b))}, b...)
}

func wrapRLPList(payload []byte) []byte {
	if len(payload) < 56 {
		return append([]byte{byte(0xc0 + len(payload))}, payload...)
	}
	lenBytes := uintToMinBytes(uint64(len(payload)))
	header := append([]byte{byte(0xf7 + len(lenBytes))}, lenBytes...)
	return append(header, payload...)
}

func uintToMinBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
		if buf[i] != 0 {
			n = 8 - i
		}
	}
	return buf[8-n:]
}

// create2Address computes the address of a contract created with CREATE2.
func create2Address(caller types.Address, salt *big.Int, initCodeHash []byte) types.Address {
	saltBytes := make([]byte, 32)
	if salt != nil {
		b := salt.Bytes()
		copy(saltBytes[32-len(b):], b)
	}
	data := make([]byte, 0, 85)
	data = append(data, 0xff)
	data = append(data, caller[:]...)
	data = append(data, saltBytes...)
	data = append(data, initCodeHash...)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// Create creates a new contract with the given init code.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *big.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if evm.readOnly {
		return nil, types.Address{}, gas, ErrWriteProtection
	}
	if evm.StateDB == nil {
		return nil, types.Address{}, gas, errors.New("no state database")
	}

	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	contractAddr := createAddress(caller, nonce)
	return evm.create(caller, code, gas, value, contractAddr)
}

// Create2 creates a new contract using CREATE2 with the given salt.
func (evm *EVM) Create2(caller types.Address, code []byte, gas uint64, endowment *big.Int, salt *big.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if evm.readOnly {
		return nil, types.Address{}, gas, ErrWriteProtection
	}
	if evm.StateDB == nil {
		return nil, types.Address{}, gas, errors.New("no state database")
	}

	initCodeHash := crypto.Keccak256(code)
	contractAddr := create2Address(caller, salt, initCodeHash)
	return evm.create(caller, code, gas, endowment, contractAddr)
}

func (evm *EVM) create(caller types.Address, code []byte, gas uint64, value *big.Int, contractAddr types.Address) ([]byte, types.Address, uint64, error) {
	if len(code) > MaxInitCodeSize {
		return nil, types.Address{}, gas, ErrMaxInitCodeSizeExceeded
	}

	contractHash := evm.StateDB.GetCodeHash(contractAddr)
	if evm.StateDB.GetNonce(contractAddr) != 0 ||
		(contractHash != (types.Hash{}) && contractHash != types.EmptyCodeHash) {
		return nil, types.Address{}, 0, errors.New("contract address collision")
	}

	evm.StateDB.AddAddressToAccessList(contractAddr)
	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(contractAddr) {
		evm.StateDB.CreateAccount(contractAddr)
	}
	evm.StateDB.SetNonce(contractAddr, 1)

	if value != nil && value.Sign() > 0 {
		if evm.StateDB.GetBalance(caller).Cmp(value) < 0 {
			return nil, types.Address{}, gas, errors.New("insufficient balance for transfer")
		}
		evm.StateDB.SubBalance(caller, value)
		evm.StateDB.AddBalance(contractAddr, value)
	}

	callGas := gas - gas/CallGasFraction
	gas -= callGas

	contract := NewContract(caller, contractAddr, value, callGas)
	contract.Code = code

	evm.depth++
	ret, err := evm.Run(contract, nil)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if !errors.Is(err, ErrExecutionReverted) {
			return ret, types.Address{}, gas, err
		}
		gas += contract.Gas
		return ret, types.Address{}, gas, err
	}

	gas += contract.Gas
	if len(ret) > 0 {
		if len(ret) > MaxCodeSize {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, errors.New("max code size exceeded")
		}
		depositCost := uint64(len(ret)) * CreateDataGas
		if gas < depositCost {
			evm.StateDB.RevertToSnapshot(snapshot)
			return nil, types.Address{}, 0, ErrOutOfGas
		}
		gas -= depositCost
		evm.StateDB.SetCode(contractAddr, ret)
	}
	return ret, contractAddr, gas, nil
}

// PreWarmAccessList pre-warms the access list with the sender, recipient,
// and the precompile address range (0x01-0x0a) per EIP-2929.
func (evm *EVM) PreWarmAccessList(sender types.Address, to *types.Address) {
	if evm.StateDB == nil {
		return
	}
	evm.StateDB.AddAddressToAccessList(sender)
	if to != nil {
		evm.StateDB.AddAddressToAccessList(*to)
	}
	for i := byte(1); i <= 10; i++ {
		evm.StateDB.AddAddressToAccessList(types.BytesToAddress([]byte{i}))
	}
}

// gasEIP2929AccountCheck charges the cold-access surcharge the first time
// addr is touched in a transaction; subsequent touches are free.
func gasEIP2929AccountCheck(evm *EVM, addr types.Address) uint64 {
	if evm.StateDB == nil {
		return 0
	}
	if evm.StateDB.AddressInAccessList(addr) {
		return 0
	}
	evm.StateDB.AddAddressToAccessList(addr)
	return ColdAccountAccessCost - WarmStorageReadCost
}

// gasEIP2929SlotCheck charges the cold-access surcharge the first time
// (addr, slot) is touched in a transaction.
func gasEIP2929SlotCheck(evm *EVM, addr types.Address, slot types.Hash) uint64 {
	if evm.StateDB == nil {
		return 0
	}
	if _, slotWarm := evm.StateDB.SlotInAccessList(addr, slot); slotWarm {
		return 0
	}
	evm.StateDB.AddSlotToAccessList(addr, slot)
	return ColdSloadCost - WarmStorageReadCost
}
