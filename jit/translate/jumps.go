package translate

import (
	"github.com/eth2030/eth2030/jit/bytecode"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/ir"
	"github.com/eth2030/eth2030/jit/opcodes"
)

// pushConst lowers PUSHn: the analyser already located the immediate bytes
// (inst.Data), so the translator only needs to materialise the constant
// and push it. PUSH0 carries no immediate.
func (t *translator) pushConst(inst bytecode.InstData) {
	var v uint64
	var hi uint64
	raw := t.bc.Raw
	n := pushImmLen(inst.Opcode)
	if n > 0 {
		start := int(inst.Data)
		end := start + n
		if end > len(raw) {
			end = len(raw)
		}
		bytes := raw[start:end]
		// Left-pad to 32 bytes (big-endian immediate), split into the
		// high and low 64-bit words ConstIntFromWords expects for the
		// upper half; values beyond 16 bytes need the full 256-bit
		// constant the backend assembles internally from the byte slice.
		hi, v = splitImmediate(bytes)
	}
	val := t.b.ConstIntFromWords(hi, v)
	length := t.lenValue()
	t.setLen(t.b.Add(length, t.b.ConstInt(ir.Width64, 1)))
	t.storeSlot(0, val)
}

func pushImmLen(opcode byte) int {
	const push0, push1 = 0x5f, 0x60
	if opcode == push0 {
		return 0
	}
	return int(opcode) - push1 + 1
}

// splitImmediate returns the high and low 64-bit halves of a big-endian
// immediate, left-padded to 32 bytes. Backends that need the full 256 bits
// (immediates wider than 16 bytes) read the original bytes directly off
// the analysed Bytecode rather than through this helper; it exists to keep
// the common case (small constants) allocation-free.
func splitImmediate(b []byte) (hi, lo uint64) {
	var padded [32]byte
	copy(padded[32-len(b):], b)
	for _, x := range padded[24:32] {
		lo = lo<<8 | uint64(x)
	}
	for _, x := range padded[16:24] {
		hi = hi<<8 | uint64(x)
	}
	return hi, lo
}

// lowerJump handles JUMP (conditional=false) and JUMPI (conditional=true).
// Static targets (resolved by the analyser) become direct branches;
// unresolved jumps feed the shared dynamic-jump-table block.
func (t *translator) lowerJump(i int, inst bytecode.InstData, conditional bool) error {
	b := t.b

	if inst.Is(opcodes.InvalidJump) {
		t.popTopDrop(1)
		t.ret(byte(resultInvalidJump))
		return nil
	}

	if inst.Is(opcodes.StaticJump) {
		target := t.blocks[inst.Data]
		if !conditional {
			t.popTopDrop(1)
			b.Br(target)
			return nil
		}
		cond := t.loadSlot(1)
		t.popTopDrop(2)
		nz := b.ICmp(ir.Ne, cond, b.ConstInt(ir.Width256, 0))
		b.CondBr(nz, target, t.blocks[nextIndex(i, len(t.blocks))])
		return nil
	}

	// Dynamic: collect (target, fromBlock) and branch to the shared table.
	pos := t.loadSlot(0)
	if !conditional {
		t.popTopDrop(1)
		t.dynTargets = append(t.dynTargets, dynJumpEdge{target: pos, from: b.CurrentBlock()})
		b.Br(t.jumpTableBlock)
		return nil
	}

	cond := t.loadSlot(1)
	t.popTopDrop(2)
	nz := b.ICmp(ir.Ne, cond, b.ConstInt(ir.Width256, 0))
	takeJump := b.CreateBlock("jumpiDynTaken")
	b.CondBr(nz, takeJump, t.blocks[nextIndex(i, len(t.blocks))])

	b.SetInsertPoint(takeJump)
	t.dynTargets = append(t.dynTargets, dynJumpEdge{target: pos, from: takeJump})
	b.Br(t.jumpTableBlock)
	return nil
}

// popTopDrop discards n stack items without computing a result value
// (JUMP/JUMPI consume their operands but produce none).
func (t *translator) popTopDrop(n int) {
	t.setLen(t.b.Sub(t.lenValue(), t.b.ConstInt(ir.Width64, uint64(n))))
}

func nextIndex(i, n int) int {
	if i+1 < n {
		return i + 1
	}
	return i
}

// lowerReturn handles RETURN/REVERT: both copy memory into the return-data
// buffer via the DoReturn callback, then terminate with the matching
// status code.
func (t *translator) lowerReturn(code byte) {
	argsPtr := t.popSP(2)
	fn := t.callbackFunc(callback.DoReturn)
	t.b.Call(fn, t.ecxParam(), argsPtr)
	t.ret(code)
}
