// Package translate drives an ir.Builder from analysed bytecode: one block
// per instruction, static gas charged inline, dynamic-gas and heavyweight
// operations routed to callbacks, and a single shared jump table for every
// dynamic JUMP/JUMPI.
package translate

import (
	"fmt"

	"github.com/eth2030/eth2030/jit/bytecode"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/ir"
	"github.com/eth2030/eth2030/jit/opcodes"
)

// FcxConfig configures how a single bytecode is lowered.
type FcxConfig struct {
	CommentsEnabled      bool
	DebugAssertions      bool
	FramePointers        bool
	StackThroughArgs     bool
	StackLenThroughArgs  bool
	GasDisabled          bool
	StaticGasLimit       *uint64
}

// Param indices of the compiled function's fixed six-argument ABI (§6.1).
const (
	paramGas      = 0
	paramStack    = 1
	paramStackLen = 2
	paramEnv      = 3
	paramContract = 4
	paramEcx      = 5
)

// translator holds the per-compile mutable state the function body needs
// while being built; it is discarded once Translate returns.
type translator struct {
	b      ir.Builder
	bc     *bytecode.Bytecode
	table  [256]opcodes.OpcodeInfo
	cfg    FcxConfig
	blocks []ir.Block // one per instruction, same indexing as bc.Insts

	jumpFailBlock  ir.Block // shared DeadCode / invalid-static-jump sink
	jumpTableBlock ir.Block
	dynTargets     []dynJumpEdge

	gasPtr    ir.Value
	noMemPtr  ir.Value
	stackPtr  ir.Value
	lenPtr    ir.Value
	limit     ir.Value

	// callbacks holds the imported Func handle for each Callback variant
	// this bytecode can reach, primed by the compiler driver via
	// ir.Builder.ImportCallback before Translate runs.
	callbacks map[callback.Callback]ir.Func
}

type dynJumpEdge struct {
	target ir.Value // 256-bit value popped from the stack
	from   ir.Block
}

// Translate lowers an analysed bytecode into a function on b, following the
// fixed prologue / per-instruction / epilogue order described for the
// function translator. callbacks must already be bound (via
// ir.Builder.ImportCallback) for every Callback variant this bytecode's
// opcodes can reach; the compiler driver owns that wiring.
func Translate(b ir.Builder, bc *bytecode.Bytecode, cfg FcxConfig, callbacks map[callback.Callback]ir.Func, name string) (ir.Func, error) {
	t := &translator{
		b:         b,
		bc:        bc,
		table:     opcodes.OpInfo(bc.Spec),
		cfg:       cfg,
		callbacks: callbacks,
	}

	fn := b.CreateFunction(ir.FuncSignature{
		Name:        name,
		ParamWidth:  []ir.IntWidth{ir.Width64, ir.Width64, ir.Width64, ir.Width64, ir.Width64, ir.Width64},
		ReturnWidth: ir.Width8,
		Linkage:     ir.LinkageExternal,
		Attrs:       attrsFor(cfg),
	})
	b.SetCurrentFunction(fn)

	if err := t.prologue(); err != nil {
		return nil, fmt.Errorf("jit/translate: prologue: %w", err)
	}
	if err := t.lowerInstructions(); err != nil {
		return nil, fmt.Errorf("jit/translate: lowering: %w", err)
	}
	t.finishDynamicJumpTable()

	return fn, nil
}

func attrsFor(cfg FcxConfig) []ir.Attribute {
	attrs := []ir.Attribute{ir.WillReturn, ir.NoFree, ir.NoSync, ir.NativeTargetCpu, ir.Speculatable, ir.NoRecurse}
	if cfg.FramePointers {
		attrs = append(attrs, ir.AllFramePointers)
	}
	if !cfg.DebugAssertions {
		attrs = append(attrs, ir.NoUnwind)
	}
	return attrs
}

func (t *translator) prologue() error {
	b := t.b

	entry := b.CreateBlock("prologue")
	b.SetInsertPoint(entry)

	gasArg := b.Param(paramGas)
	t.gasPtr = gasArg
	t.noMemPtr = b.GEP(gasArg, gasRemainingNoMemOffset)

	if t.cfg.StackThroughArgs {
		t.stackPtr = b.Param(paramStack)
	} else {
		t.stackPtr = b.Alloca(ir.Width256, "stack")
	}

	if t.cfg.StackLenThroughArgs {
		t.lenPtr = b.Param(paramStackLen)
	} else {
		t.lenPtr = b.Alloca(ir.Width64, "stackLen")
		b.Store(t.lenPtr, b.ConstInt(ir.Width64, 0))
	}

	if t.cfg.StaticGasLimit != nil {
		t.limit = b.ConstInt(ir.Width64, *t.cfg.StaticGasLimit)
	} else {
		t.limit = b.Load(b.GEP(gasArg, gasLimitOffset), ir.Width64)
	}

	// One block per instruction, a single shared block for dead code, plus
	// the dynamic-jump-table sink.
	t.blocks = make([]ir.Block, len(t.bc.Insts))
	t.jumpFailBlock = b.CreateBlock("deadOrInvalidJump")
	b.MarkCold(t.jumpFailBlock)

	for i, inst := range t.bc.Insts {
		if inst.Is(opcodes.DeadCode) {
			t.blocks[i] = t.jumpFailBlock
			continue
		}
		t.blocks[i] = b.CreateBlock(fmt.Sprintf("inst%d_pc%d", i, inst.PC))
	}

	if t.bc.HasDynamicJumps {
		t.jumpTableBlock = b.CreateBlock("dynJumpTable")
	} else {
		t.jumpTableBlock = t.jumpFailBlock
	}

	if len(t.bc.Insts) > 0 {
		b.Br(t.blocks[0])
	} else {
		b.Br(t.jumpFailBlock)
	}
	return nil
}

// Fixed byte offsets into the Gas struct; mirrors the host layout (§6.1):
// Limit, Remaining, RemainingNoMem, Memory, Refunded — 8 bytes each.
const (
	gasLimitOffset          = 0
	gasRemainingOffset      = 8
	gasRemainingNoMemOffset = 16
	gasMemoryOffset         = 24
	gasRefundedOffset       = 32
)

func (t *translator) lowerInstructions() error {
	for i := range t.bc.Insts {
		inst := t.bc.Insts[i]
		if inst.Is(opcodes.DeadCode) {
			continue
		}
		t.b.SetInsertPoint(t.blocks[i])

		if inst.Is(opcodes.Disabled) {
			t.ret(byte(resultNotActivated))
			continue
		}
		info := t.table[inst.Opcode]
		if info.Flags&opcodes.Unknown != 0 {
			t.ret(byte(resultOpcodeNotFound))
			continue
		}

		if !t.cfg.GasDisabled && inst.StaticGas > 0 {
			t.chargeGas(inst.StaticGas)
		}

		if inst.Is(opcodes.SkipLogic) {
			t.fallThrough(i)
			continue
		}

		if err := t.lowerOne(i, inst, info); err != nil {
			return err
		}
	}
	return nil
}

// chargeGas emits the fixed three-step gas accounting: check-and-subtract
// Remaining (cold out-of-gas path on overflow), then an unchecked subtract
// of RemainingNoMem, mirroring the interpreter's own order of operations.
func (t *translator) chargeGas(g uint64) {
	b := t.b
	remPtr := b.GEP(t.gasPtr, gasRemainingOffset)
	rem := b.Load(remPtr, ir.Width64)
	gv := b.ConstInt(ir.Width64, g)

	diff, overflow := b.USubWithOverflow(rem, gv)
	oog := b.CreateBlock("outOfGas")
	b.MarkCold(oog)
	ok := b.CreateBlock("gasOk")
	b.CondBr(overflow, oog, ok)

	b.SetInsertPoint(oog)
	t.ret(byte(resultOutOfGas))

	b.SetInsertPoint(ok)
	b.Store(remPtr, diff)

	noMem := b.Load(t.noMemPtr, ir.Width64)
	b.Store(t.noMemPtr, b.Sub(noMem, gv))
}

func (t *translator) fallThrough(i int) {
	if i+1 < len(t.blocks) {
		t.b.Br(t.blocks[i+1])
	} else {
		t.b.Br(t.jumpFailBlock)
	}
}

func (t *translator) ret(code byte) {
	t.b.Ret(t.b.ConstInt(ir.Width8, uint64(code)))
}

func (t *translator) finishDynamicJumpTable() {
	if !t.bc.HasDynamicJumps {
		t.b.SetInsertPoint(t.jumpFailBlock)
		t.b.Unreachable()
		return
	}

	b := t.b
	b.SetInsertPoint(t.jumpTableBlock)

	cases := make(map[uint64]ir.Block)
	for i, inst := range t.bc.Insts {
		if inst.Opcode == jumpdestOpcode {
			cases[inst.PC] = t.blocks[i]
		}
	}

	fail := b.CreateBlock("invalidDynJump")
	b.MarkCold(fail)

	phi := b.Phi(ir.Width256, incomingFromEdges(t.dynTargets))
	// Values with any bit set above bit 63 cannot address real code: the
	// truncation to 64 bits is preceded by an explicit high-bits check
	// (resolved open question iii, widened from the source's 32-bit cut).
	hi := b.LShr(phi, b.ConstInt(ir.Width256, 64))
	tooLarge := b.ICmp(ir.Ne, hi, b.ConstInt(ir.Width256, 0))

	truncOk := b.CreateBlock("dynJumpTruncOk")
	b.CondBr(tooLarge, fail, truncOk)

	b.SetInsertPoint(truncOk)
	target64 := b.Trunc(phi, ir.Width64)
	b.Switch(target64, fail, cases)

	b.SetInsertPoint(fail)
	t.ret(byte(resultInvalidJump))
}

func incomingFromEdges(edges []dynJumpEdge) map[ir.Block]ir.Value {
	m := make(map[ir.Block]ir.Value, len(edges))
	for _, e := range edges {
		m[e.from] = e.target
	}
	return m
}

const jumpdestOpcode = 0x5b

// result* mirror callback.InstructionResult's values as plain status bytes.
const (
	resultContinue byte = iota
	resultStop
	resultReturn
	resultRevert
	resultCallOrCreate
	resultSelfDestruct
	resultStackUnderflow
	resultStackOverflow
	resultOutOfGas
	resultInvalidJump
	resultInvalidFEOpcode
	resultOpcodeNotFound
	resultNotActivated
	resultStateChangeDuringStaticCall
)
