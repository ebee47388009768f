// Package ir defines the backend-neutral surface the function translator
// emits into. A concrete code generator (backend/llvmir is this repo's own)
// implements Builder; the translator never imports a concrete backend.
package ir

import (
	"context"

	"github.com/eth2030/eth2030/jit/opcodes"
)

// IntWidth is the bit width of an integer value the builder can operate on.
type IntWidth int

const (
	Width1   IntWidth = 1
	Width8   IntWidth = 8
	Width32  IntWidth = 32
	Width64  IntWidth = 64
	Width256 IntWidth = 256
)

// Value is an opaque handle to a builder-produced SSA value. Concrete
// backends define their own underlying representation; the translator only
// ever passes Values back into the same Builder that produced them.
type Value interface{ isIRValue() }

// Block is an opaque handle to a basic block within the function currently
// being built.
type Block interface{ isIRBlock() }

// Func is an opaque handle to a function being or already built.
type Func interface{ isIRFunc() }

// Attribute tags a function, parameter, or return value with an LLVM-style
// attribute the optimiser can use.
type Attribute int

const (
	WillReturn Attribute = iota
	NoFree
	NoRecurse
	NoSync
	NoUnwind
	Speculatable
	Cold
	NoReturn
	NativeTargetCpu
	AllFramePointers
)

// Linkage controls a function's external visibility in the generated
// module.
type Linkage int

const (
	LinkagePrivate Linkage = iota
	LinkageExternal
)

// Predicate selects the comparison performed by ICmp.
type Predicate int

const (
	Eq Predicate = iota
	Ne
	Ult
	Ule
	Ugt
	Uge
	Slt
	Sle
	Sgt
	Sge
)

// FuncSignature describes a function's parameters and return type for
// CreateFunction and ImportCallback.
type FuncSignature struct {
	Name       string
	ParamWidth []IntWidth
	ReturnWidth IntWidth // 0 means void
	Linkage    Linkage
	Attrs      []Attribute
	ParamAttrs map[int][]Attribute
}

// Builder is the abstract code-generation surface the function translator
// drives. One Builder instance corresponds to one in-progress module; all
// Block/Value/Func handles it returns are only valid for the Builder that
// produced them.
type Builder interface {
	// Module lifecycle.
	CreateFunction(sig FuncSignature) Func
	ImportCallback(sig FuncSignature, addr uintptr) Func
	SetCurrentFunction(f Func)

	// Block management.
	CreateBlock(name string) Block
	SetInsertPoint(b Block)
	MarkCold(b Block)
	CurrentBlock() Block

	// Control flow.
	Br(target Block)
	CondBr(cond Value, ifTrue, ifFalse Block)
	Switch(v Value, defaultBlock Block, cases map[uint64]Block)
	Phi(width IntWidth, incoming map[Block]Value) Value
	Unreachable()
	Ret(v Value)
	RetVoid()

	// Parameters and constants.
	Param(index int) Value
	ConstInt(width IntWidth, v uint64) Value
	ConstIntFromWords(hi, lo uint64) Value // 256-bit constant, big-endian word pair

	// Memory.
	Alloca(width IntWidth, name string) Value
	Load(ptr Value, width IntWidth) Value
	Store(ptr, v Value)
	GEP(ptr Value, byteOffset int64) Value
	// GEPIndex computes ptr + index*elemWidth, for indexing into the stack
	// array by a runtime-computed length rather than a compile-time offset.
	GEPIndex(ptr Value, index Value, elemWidth IntWidth) Value
	Memcpy(dst, src Value, length Value)

	// Arithmetic and bitwise, operating on values of equal width.
	Add(a, b Value) Value
	Sub(a, b Value) Value
	Mul(a, b Value) Value
	UDiv(a, b Value) Value
	SDiv(a, b Value) Value
	URem(a, b Value) Value
	SRem(a, b Value) Value
	And(a, b Value) Value
	Or(a, b Value) Value
	Xor(a, b Value) Value
	Not(a Value) Value
	Shl(a, shift Value) Value
	LShr(a, shift Value) Value
	AShr(a, shift Value) Value
	ICmp(pred Predicate, a, b Value) Value // result is Width1

	// Width conversion.
	Trunc(v Value, to IntWidth) Value
	ZExt(v Value, to IntWidth) Value
	SExt(v Value, to IntWidth) Value
	ByteSwap(v Value) Value

	// Overflow-aware and saturating helpers.
	UAddWithOverflow(a, b Value) (sum, overflow Value)
	USubWithOverflow(a, b Value) (diff, overflow Value)
	UMin(a, b Value) Value
	UMax(a, b Value) Value

	// Value selection.
	Select(cond, ifTrue, ifFalse Value) Value
	// LazySelect evaluates exactly one of the two thunks depending on cond,
	// joining the result with a phi. Use for paths expensive or unsafe to
	// always-evaluate (division, sign extension edge cases).
	LazySelect(cond Value, onTrue, onFalse func() Value) Value

	// Calls.
	Call(f Func, args ...Value) Value

	// Verification, optimisation, and lookup (post-build).
	VerifyFunction(f Func) error
	OptimizeFunction(f Func, level int) error
	DumpIR(path string) error
	DumpDisasm(path string) error
	GetFunction(name string) (uintptr, error)
	FreeFunction(name string) error
	FreeAllFunctions() error
}

// Compiler is implemented by anything that turns analysed bytecode into a
// native entry point via a Builder. jit/compiler.Compiler satisfies this;
// it exists as an interface so tests can substitute a fake backend without
// depending on backend/llvmir.
type Compiler interface {
	Compile(ctx context.Context, code []byte, spec opcodes.SpecID) (uintptr, error)
}
