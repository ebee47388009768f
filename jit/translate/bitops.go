package translate

import "github.com/eth2030/eth2030/jit/ir"

// byteOp lowers BYTE: top is the byte index (0 = most significant byte of
// the 256-bit word), second is the value. An index >= 32 yields 0.
func (t *translator) byteOp() {
	b := t.b
	idx := t.loadSlot(0)
	val := t.loadSlot(1)

	tooWide := b.ICmp(ir.Uge, idx, b.ConstInt(ir.Width256, 32))
	res := b.LazySelect(tooWide,
		func() ir.Value { return b.ConstInt(ir.Width256, 0) },
		func() ir.Value {
			shiftAmt := b.Sub(b.ConstInt(ir.Width256, 31), idx)
			shiftBits := b.Mul(shiftAmt, b.ConstInt(ir.Width256, 8))
			shifted := b.LShr(val, shiftBits)
			return b.And(shifted, b.ConstInt(ir.Width256, 0xff))
		},
	)
	t.popTopWrite(2, res)
}

// signExtendOp lowers SIGNEXTEND: top is the 0-based byte index counted from
// the least significant byte, second is the value to extend. An index >= 31
// leaves the value unchanged.
func (t *translator) signExtendOp() {
	b := t.b
	back := t.loadSlot(0)
	num := t.loadSlot(1)

	unchanged := b.ICmp(ir.Uge, back, b.ConstInt(ir.Width256, 31))
	res := b.LazySelect(unchanged,
		func() ir.Value { return num },
		func() ir.Value {
			bit := b.Add(b.Mul(back, b.ConstInt(ir.Width256, 8)), b.ConstInt(ir.Width256, 7))
			one := b.ConstInt(ir.Width256, 1)
			bitMask := b.Shl(one, bit)
			belowMask := b.Sub(bitMask, one)
			bitSet := b.ICmp(ir.Ne, b.And(num, bitMask), b.ConstInt(ir.Width256, 0))
			negative := b.Or(num, b.Not(belowMask))
			positive := b.And(num, belowMask)
			return b.Select(bitSet, negative, positive)
		},
	)
	t.popTopWrite(2, res)
}
