package translate

import "github.com/eth2030/eth2030/jit/ir"

// i256Min / i256NegOne are used only by the SDIV hardware-trap special
// case (I256_MIN / -1 == I256_MIN, since two's-complement negation of
// I256_MIN overflows).
func (t *translator) i256Min() ir.Value {
	return t.b.ConstIntFromWords(0x8000000000000000, 0)
}

func (t *translator) negOne() ir.Value {
	return t.b.Not(t.b.ConstInt(ir.Width256, 0))
}

// div returns the DIV/UDIV lowering: division by zero yields 0 rather than
// trapping, via a lazy select so the hardware division is never executed
// on the zero-divisor path.
func (t *translator) div(_ bool) func(a, b ir.Value) ir.Value {
	return func(a, b ir.Value) ir.Value {
		zero := t.b.ConstInt(ir.Width256, 0)
		isZero := t.b.ICmp(ir.Eq, b, zero)
		return t.b.LazySelect(isZero,
			func() ir.Value { return zero },
			func() ir.Value { return t.b.UDiv(a, b) },
		)
	}
}

// mod returns the MOD/SMOD lowering: modulus by zero yields 0.
func (t *translator) mod(signed bool) func(a, b ir.Value) ir.Value {
	return func(a, b ir.Value) ir.Value {
		zero := t.b.ConstInt(ir.Width256, 0)
		isZero := t.b.ICmp(ir.Eq, b, zero)
		return t.b.LazySelect(isZero,
			func() ir.Value { return zero },
			func() ir.Value {
				if signed {
					return t.b.SRem(a, b)
				}
				return t.b.URem(a, b)
			},
		)
	}
}

// sdiv returns the SDIV lowering: zero divisor -> 0; the pair
// (I256_MIN, -1) -> I256_MIN (the hardware-trap case), both expressed as
// lazy-selected cold paths so the common-case division stays linear.
func (t *translator) sdiv() func(a, b ir.Value) ir.Value {
	return func(a, b ir.Value) ir.Value {
		zero := t.b.ConstInt(ir.Width256, 0)
		isZero := t.b.ICmp(ir.Eq, b, zero)
		return t.b.LazySelect(isZero,
			func() ir.Value { return zero },
			func() ir.Value {
				isMin := t.b.ICmp(ir.Eq, a, t.i256Min())
				isNegOne := t.b.ICmp(ir.Eq, b, t.negOne())
				trap := t.b.And(t.b.ZExt(isMin, ir.Width8), t.b.ZExt(isNegOne, ir.Width8))
				isTrap := t.b.ICmp(ir.Ne, trap, t.b.ConstInt(ir.Width8, 0))
				return t.b.LazySelect(isTrap,
					func() ir.Value { return t.i256Min() },
					func() ir.Value { return t.b.SDiv(a, b) },
				)
			},
		)
	}
}
