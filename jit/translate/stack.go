package translate

import (
	"github.com/eth2030/eth2030/jit/ir"
)

// checkStackBounds emits the fixed-order stack-bound checks every opcode
// requires before touching the stack: underflow if there are fewer than
// `inputs` items, overflow if pushing `outputs - inputs` net items would
// exceed 1024.
func (t *translator) checkStackBounds(inputs, outputs int) {
	b := t.b
	length := t.lenValue()

	if inputs > 0 {
		under := b.ICmp(ir.Ult, length, b.ConstInt(ir.Width64, uint64(inputs)))
		ok := b.CreateBlock("stackOk")
		fail := b.CreateBlock("stackUnderflow")
		b.MarkCold(fail)
		b.CondBr(under, fail, ok)
		b.SetInsertPoint(fail)
		t.ret(byte(resultStackUnderflow))
		b.SetInsertPoint(ok)
		length = t.lenValue()
	}

	net := outputs - inputs
	if net > 0 {
		limit := b.ConstInt(ir.Width64, uint64(1024-net))
		over := b.ICmp(ir.Ugt, length, limit)
		ok := b.CreateBlock("stackOk2")
		fail := b.CreateBlock("stackOverflow")
		b.MarkCold(fail)
		b.CondBr(over, fail, ok)
		b.SetInsertPoint(fail)
		t.ret(byte(resultStackOverflow))
		b.SetInsertPoint(ok)
	}
}

func (t *translator) lenValue() ir.Value { return t.b.Load(t.lenPtr, ir.Width64) }

func (t *translator) setLen(v ir.Value) { t.b.Store(t.lenPtr, v) }

// slotPtr returns a pointer to the stack slot idxFromTop positions below
// the current top (0 = top itself), computed against the stack length at
// the moment of the call.
func (t *translator) slotPtr(idxFromTop int) ir.Value {
	length := t.lenValue()
	idx := t.b.Sub(length, t.b.ConstInt(ir.Width64, uint64(idxFromTop+1)))
	return t.b.GEPIndex(t.stackPtr, idx, ir.Width256)
}

func (t *translator) loadSlot(idxFromTop int) ir.Value {
	return t.b.Load(t.slotPtr(idxFromTop), ir.Width256)
}

func (t *translator) storeSlot(idxFromTop int, v ir.Value) {
	t.b.Store(t.slotPtr(idxFromTop), v)
}

// popTopWrite implements the PopTopSP pattern (§4.5): bounds already
// checked by the caller via checkStackBounds; writes result into the slot
// that will become the new top, then shrinks the stack by inputs-1.
func (t *translator) popTopWrite(inputs int, result ir.Value) {
	t.storeSlot(inputs-1, result)
	if inputs > 1 {
		t.setLen(t.b.Sub(t.lenValue(), t.b.ConstInt(ir.Width64, uint64(inputs-1))))
	}
}

// popSP bounds-checks for n (already done by checkStackBounds in the
// caller) and returns a pointer to the first of n contiguous words at the
// pre-pop top, decrementing length by n. Callbacks read the n values
// through this pointer.
func (t *translator) popSP(n int) ir.Value {
	ptr := t.slotPtr(n - 1)
	t.setLen(t.b.Sub(t.lenValue(), t.b.ConstInt(ir.Width64, uint64(n))))
	return ptr
}

func (t *translator) binOp(f func(a, b ir.Value) ir.Value) {
	a := t.loadSlot(0)
	b := t.loadSlot(1)
	t.popTopWrite(2, f(a, b))
}

func (t *translator) unOp(f func(a ir.Value) ir.Value) {
	a := t.loadSlot(0)
	t.storeSlot(0, f(a))
}

func (t *translator) cmpOp(pred ir.Predicate) {
	a := t.loadSlot(0)
	b := t.loadSlot(1)
	res := t.b.ZExt(t.b.ICmp(pred, a, b), ir.Width256)
	t.popTopWrite(2, res)
}

// shiftOp lowers SHL/SHR/SAR: top-of-stack is the shift amount, second is
// the value. Amounts >= 256 are guarded explicitly rather than relying on
// the backend's native out-of-range shift behaviour (§4.5).
func (t *translator) shiftOp(f func(value, shift ir.Value) ir.Value, arithmetic bool) {
	shift := t.loadSlot(0)
	value := t.loadSlot(1)

	tooWide := t.b.ICmp(ir.Uge, shift, t.b.ConstInt(ir.Width256, 256))
	res := t.b.LazySelect(tooWide, func() ir.Value {
		if !arithmetic {
			return t.b.ConstInt(ir.Width256, 0)
		}
		negative := t.b.ICmp(ir.Slt, value, t.b.ConstInt(ir.Width256, 0))
		allOnes := t.b.Not(t.b.ConstInt(ir.Width256, 0))
		return t.b.Select(negative, allOnes, t.b.ConstInt(ir.Width256, 0))
	}, func() ir.Value {
		return f(value, shift)
	})
	t.popTopWrite(2, res)
}

func (t *translator) dup(n int) {
	v := t.loadSlot(n - 1)
	length := t.lenValue()
	t.setLen(t.b.Add(length, t.b.ConstInt(ir.Width64, 1)))
	t.storeSlot(0, v)
}

func (t *translator) swap(n int) {
	top := t.loadSlot(0)
	other := t.loadSlot(n)
	t.storeSlot(0, other)
	t.storeSlot(n, top)
}
