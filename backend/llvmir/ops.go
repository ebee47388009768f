package llvmir

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	jitir "github.com/eth2030/eth2030/jit/ir"
)

// The translator's abstract ir.Value never has a pointer type of its own:
// every address it hands back into GEP/Load/Store/Call is just a Width64
// integer holding an address (that is what the compiled function's own ABI
// declares its six top-level parameters as). LLVM's own GEP/Load/Store do
// need a real pointer-typed operand, so toPtr/fromPtr bridge that gap right
// at the point of use rather than changing what the translator considers an
// ir.Value.
func (b *Builder) toPtr(v value.Value, elem types.Type) value.Value {
	if _, ok := v.Type().(*types.PointerType); ok {
		return v
	}
	return b.block.NewIntToPtr(v, types.NewPointer(elem))
}

func (b *Builder) fromPtr(v value.Value) value.Value {
	return b.block.NewPtrToInt(v, types.I64)
}

func (b *Builder) Alloca(width jitir.IntWidth, name string) jitir.Value {
	inst := b.block.NewAlloca(llType(width))
	inst.LocalName = name
	return val(b.fromPtr(inst))
}

func (b *Builder) Load(ptr jitir.Value, width jitir.IntWidth) jitir.Value {
	t := llType(width)
	addr := b.toPtr(unwrap(ptr), t)
	return val(b.block.NewLoad(t, addr))
}

func (b *Builder) Store(ptr, v jitir.Value) {
	lv := unwrap(v)
	addr := b.toPtr(unwrap(ptr), lv.Type())
	b.block.NewStore(lv, addr)
}

func (b *Builder) GEP(ptr jitir.Value, byteOffset int64) jitir.Value {
	addr := b.toPtr(unwrap(ptr), types.I8)
	idx := constant.NewInt(types.I64, byteOffset)
	g := b.block.NewGetElementPtr(types.I8, addr, idx)
	return val(b.fromPtr(g))
}

func (b *Builder) GEPIndex(ptr, index jitir.Value, elemWidth jitir.IntWidth) jitir.Value {
	elem := llType(elemWidth)
	addr := b.toPtr(unwrap(ptr), elem)
	g := b.block.NewGetElementPtr(elem, addr, unwrap(index))
	return val(b.fromPtr(g))
}

// Memcpy lowers to the llvm.memcpy.p0.p0.i64 intrinsic, so dst and src must
// not overlap.
func (b *Builder) Memcpy(dst, src, length jitir.Value) {
	callee := b.intrinsic("llvm.memcpy.p0.p0.i64", types.Void,
		ptrParam("dst"), ptrParam("src"), i64Param("len"), boolParam("isvolatile"))
	dstPtr := b.toPtr(unwrap(dst), types.I8)
	srcPtr := b.toPtr(unwrap(src), types.I8)
	b.block.NewCall(callee, dstPtr, srcPtr, unwrap(length), constant.False)
}

func (b *Builder) Add(a, x jitir.Value) jitir.Value  { return val(b.block.NewAdd(unwrap(a), unwrap(x))) }
func (b *Builder) Sub(a, x jitir.Value) jitir.Value  { return val(b.block.NewSub(unwrap(a), unwrap(x))) }
func (b *Builder) Mul(a, x jitir.Value) jitir.Value  { return val(b.block.NewMul(unwrap(a), unwrap(x))) }
func (b *Builder) UDiv(a, x jitir.Value) jitir.Value { return val(b.block.NewUDiv(unwrap(a), unwrap(x))) }
func (b *Builder) SDiv(a, x jitir.Value) jitir.Value { return val(b.block.NewSDiv(unwrap(a), unwrap(x))) }
func (b *Builder) URem(a, x jitir.Value) jitir.Value { return val(b.block.NewURem(unwrap(a), unwrap(x))) }
func (b *Builder) SRem(a, x jitir.Value) jitir.Value { return val(b.block.NewSRem(unwrap(a), unwrap(x))) }
func (b *Builder) And(a, x jitir.Value) jitir.Value  { return val(b.block.NewAnd(unwrap(a), unwrap(x))) }
func (b *Builder) Or(a, x jitir.Value) jitir.Value   { return val(b.block.NewOr(unwrap(a), unwrap(x))) }
func (b *Builder) Xor(a, x jitir.Value) jitir.Value  { return val(b.block.NewXor(unwrap(a), unwrap(x))) }

// Not has no direct LLVM instruction; it is xor against an all-ones mask of
// the same width, the standard LLVM IR idiom for bitwise complement.
func (b *Builder) Not(a jitir.Value) jitir.Value {
	w := unwrap(a).Type().(*types.IntType)
	allOnes := constant.NewInt(w, -1)
	return val(b.block.NewXor(unwrap(a), allOnes))
}

func (b *Builder) Shl(a, s jitir.Value) jitir.Value  { return val(b.block.NewShl(unwrap(a), unwrap(s))) }
func (b *Builder) LShr(a, s jitir.Value) jitir.Value { return val(b.block.NewLShr(unwrap(a), unwrap(s))) }
func (b *Builder) AShr(a, s jitir.Value) jitir.Value { return val(b.block.NewAShr(unwrap(a), unwrap(s))) }

func (b *Builder) ICmp(pred jitir.Predicate, a, x jitir.Value) jitir.Value {
	return val(b.block.NewICmp(llPred(pred), unwrap(a), unwrap(x)))
}

func llPred(p jitir.Predicate) enum.IPred {
	switch p {
	case jitir.Eq:
		return enum.IPredEQ
	case jitir.Ne:
		return enum.IPredNE
	case jitir.Ult:
		return enum.IPredULT
	case jitir.Ule:
		return enum.IPredULE
	case jitir.Ugt:
		return enum.IPredUGT
	case jitir.Uge:
		return enum.IPredUGE
	case jitir.Slt:
		return enum.IPredSLT
	case jitir.Sle:
		return enum.IPredSLE
	case jitir.Sgt:
		return enum.IPredSGT
	case jitir.Sge:
		return enum.IPredSGE
	default:
		return enum.IPredEQ
	}
}

func (b *Builder) Trunc(v jitir.Value, to jitir.IntWidth) jitir.Value {
	return val(b.block.NewTrunc(unwrap(v), llType(to)))
}

func (b *Builder) ZExt(v jitir.Value, to jitir.IntWidth) jitir.Value {
	return val(b.block.NewZExt(unwrap(v), llType(to)))
}

func (b *Builder) SExt(v jitir.Value, to jitir.IntWidth) jitir.Value {
	return val(b.block.NewSExt(unwrap(v), llType(to)))
}

// ByteSwap lowers to the llvm.bswap intrinsic of the matching width; every
// width the translator uses it at (32, 64, 256) is a multiple of 16 bits, as
// bswap requires.
func (b *Builder) ByteSwap(v jitir.Value) jitir.Value {
	w := unwrap(v).Type().(*types.IntType)
	name := intrinsicName("llvm.bswap", w)
	callee := b.intrinsic(name, w, typedParam("v", w))
	return val(b.block.NewCall(callee, unwrap(v)))
}

func (b *Builder) UAddWithOverflow(a, x jitir.Value) (sum, overflow jitir.Value) {
	w := unwrap(a).Type().(*types.IntType)
	callee := b.intrinsic(intrinsicName("llvm.uadd.with.overflow", w), overflowResultType(w),
		typedParam("a", w), typedParam("b", w))
	agg := b.block.NewCall(callee, unwrap(a), unwrap(x))
	return val(b.block.NewExtractValue(agg, 0)), val(b.block.NewExtractValue(agg, 1))
}

func (b *Builder) USubWithOverflow(a, x jitir.Value) (diff, overflow jitir.Value) {
	w := unwrap(a).Type().(*types.IntType)
	callee := b.intrinsic(intrinsicName("llvm.usub.with.overflow", w), overflowResultType(w),
		typedParam("a", w), typedParam("b", w))
	agg := b.block.NewCall(callee, unwrap(a), unwrap(x))
	return val(b.block.NewExtractValue(agg, 0)), val(b.block.NewExtractValue(agg, 1))
}

func (b *Builder) UMin(a, x jitir.Value) jitir.Value {
	w := unwrap(a).Type().(*types.IntType)
	callee := b.intrinsic(intrinsicName("llvm.umin", w), w, typedParam("a", w), typedParam("b", w))
	return val(b.block.NewCall(callee, unwrap(a), unwrap(x)))
}

func (b *Builder) UMax(a, x jitir.Value) jitir.Value {
	w := unwrap(a).Type().(*types.IntType)
	callee := b.intrinsic(intrinsicName("llvm.umax", w), w, typedParam("a", w), typedParam("b", w))
	return val(b.block.NewCall(callee, unwrap(a), unwrap(x)))
}

func (b *Builder) Select(cond, t, f jitir.Value) jitir.Value {
	return val(b.block.NewSelect(unwrap(cond), unwrap(t), unwrap(f)))
}

// LazySelect materializes each thunk's result into its own predecessor
// block and joins them with a phi, so the two computations only ever run on
// their own control-flow path instead of unconditionally like Select does.
func (b *Builder) LazySelect(cond jitir.Value, onTrue, onFalse func() jitir.Value) jitir.Value {
	trueBlock := b.curLL.NewBlock("")
	falseBlock := b.curLL.NewBlock("")
	joinBlock := b.curLL.NewBlock("")

	b.block.NewCondBr(unwrap(cond), trueBlock, falseBlock)

	b.block = trueBlock
	tv := onTrue()
	trueBlock.NewBr(joinBlock)
	trueEnd := b.block

	b.block = falseBlock
	fv := onFalse()
	falseBlock.NewBr(joinBlock)
	falseEnd := b.block

	b.block = joinBlock
	phi := joinBlock.NewPhi(
		newIncoming(unwrap(tv), trueEnd),
		newIncoming(unwrap(fv), falseEnd),
	)
	return val(phi)
}

func (b *Builder) Call(f jitir.Func, args ...jitir.Value) jitir.Value {
	wf := unwrapFunc(f)
	result := b.block.NewCall(wf.llFunc, unwrapAll(args)...)
	return val(result)
}

func ptrParam(name string) *llParamDesc  { return &llParamDesc{name: name, typ: types.I8Ptr} }
func i64Param(name string) *llParamDesc  { return &llParamDesc{name: name, typ: types.I64} }
func boolParam(name string) *llParamDesc { return &llParamDesc{name: name, typ: types.I1} }
func typedParam(name string, t types.Type) *llParamDesc {
	return &llParamDesc{name: name, typ: t}
}

type llParamDesc struct {
	name string
	typ  types.Type
}

func overflowResultType(w *types.IntType) types.Type {
	return types.NewStruct(w, types.I1)
}
