// Package irfake provides a minimal ir.Builder implementation that records
// the shape of what gets built rather than generating real code. It is the
// exported twin of jit/translate's own test-local fakeBuilder, pulled out
// so other packages (jit/compiler in particular) can drive the translator
// end to end in tests without depending on backend/llvmir.
package irfake

import (
	"fmt"

	"github.com/eth2030/eth2030/jit/ir"
)

// Builder is a structural recorder: block count, call sites, terminators,
// and returned status codes, with every arithmetic/memory op a no-op that
// returns a placeholder value of the right width.
type Builder struct {
	Blocks    []*Block
	Cur       *Block
	Funcs     map[string]*Func
	CurFunc   *Func
	RetCodes  []uint64
	CallCount int
	Calls     []Call
}

// Call records one Call site for assertions that need more than a count.
type Call struct {
	Func ir.Func
	Args []ir.Value
}

type Block struct {
	Name string
	Cold bool
	Term string // last terminator emitted: "br", "condbr", "ret", "switch", "unreachable"
}

func (b *Block) isIRBlock() {}

type Value struct {
	Width ir.IntWidth
	K     uint64 // constant value, when known
}

func (v *Value) isIRValue() {}

type Func struct {
	Sig  ir.FuncSignature
	Addr uintptr
}

func (f *Func) isIRFunc() {}

// New returns an empty Builder ready to drive one Translate call.
func New() *Builder {
	return &Builder{Funcs: map[string]*Func{}}
}

func (b *Builder) CreateFunction(sig ir.FuncSignature) ir.Func {
	f := &Func{Sig: sig}
	b.Funcs[sig.Name] = f
	return f
}

func (b *Builder) ImportCallback(sig ir.FuncSignature, addr uintptr) ir.Func {
	f := &Func{Sig: sig, Addr: addr}
	b.Funcs[sig.Name] = f
	return f
}

func (b *Builder) SetCurrentFunction(f ir.Func) { b.CurFunc = f.(*Func) }

func (b *Builder) CreateBlock(name string) ir.Block {
	blk := &Block{Name: name}
	b.Blocks = append(b.Blocks, blk)
	return blk
}

func (b *Builder) SetInsertPoint(blk ir.Block) { b.Cur = blk.(*Block) }
func (b *Builder) MarkCold(blk ir.Block)        { blk.(*Block).Cold = true }
func (b *Builder) CurrentBlock() ir.Block        { return b.Cur }

func (b *Builder) Br(target ir.Block)                 { b.Cur.Term = "br" }
func (b *Builder) CondBr(cond ir.Value, t, f ir.Block) { b.Cur.Term = "condbr" }
func (b *Builder) Switch(v ir.Value, d ir.Block, cases map[uint64]ir.Block) {
	b.Cur.Term = "switch"
}
func (b *Builder) Phi(width ir.IntWidth, incoming map[ir.Block]ir.Value) ir.Value {
	return &Value{Width: width}
}
func (b *Builder) Unreachable() { b.Cur.Term = "unreachable" }
func (b *Builder) Ret(v ir.Value) {
	b.Cur.Term = "ret"
	if fv, ok := v.(*Value); ok {
		b.RetCodes = append(b.RetCodes, fv.K)
	}
}
func (b *Builder) RetVoid() { b.Cur.Term = "ret" }

func (b *Builder) Param(index int) ir.Value { return &Value{Width: ir.Width64} }
func (b *Builder) ConstInt(width ir.IntWidth, v uint64) ir.Value {
	return &Value{Width: width, K: v}
}
func (b *Builder) ConstIntFromWords(hi, lo uint64) ir.Value {
	return &Value{Width: ir.Width256, K: lo}
}

func (b *Builder) Alloca(width ir.IntWidth, name string) ir.Value { return &Value{Width: width} }
func (b *Builder) Load(ptr ir.Value, width ir.IntWidth) ir.Value  { return &Value{Width: width} }
func (b *Builder) Store(ptr, v ir.Value)                          {}
func (b *Builder) GEP(ptr ir.Value, byteOffset int64) ir.Value    { return &Value{Width: ir.Width64} }
func (b *Builder) GEPIndex(ptr, index ir.Value, elemWidth ir.IntWidth) ir.Value {
	return &Value{Width: ir.Width64}
}
func (b *Builder) Memcpy(dst, src, length ir.Value) {}

func (b *Builder) Add(a, x ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) Sub(a, x ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) Mul(a, x ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) UDiv(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) SDiv(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) URem(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) SRem(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) And(a, x ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) Or(a, x ir.Value) ir.Value   { return &Value{Width: ir.Width256} }
func (b *Builder) Xor(a, x ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) Not(a ir.Value) ir.Value     { return &Value{Width: ir.Width256} }
func (b *Builder) Shl(a, s ir.Value) ir.Value  { return &Value{Width: ir.Width256} }
func (b *Builder) LShr(a, s ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) AShr(a, s ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) ICmp(pred ir.Predicate, a, x ir.Value) ir.Value {
	return &Value{Width: ir.Width1}
}

func (b *Builder) Trunc(v ir.Value, to ir.IntWidth) ir.Value { return &Value{Width: to} }
func (b *Builder) ZExt(v ir.Value, to ir.IntWidth) ir.Value  { return &Value{Width: to} }
func (b *Builder) SExt(v ir.Value, to ir.IntWidth) ir.Value  { return &Value{Width: to} }
func (b *Builder) ByteSwap(v ir.Value) ir.Value              { return v }

func (b *Builder) UAddWithOverflow(a, x ir.Value) (ir.Value, ir.Value) {
	return &Value{Width: ir.Width256}, &Value{Width: ir.Width1}
}
func (b *Builder) USubWithOverflow(a, x ir.Value) (ir.Value, ir.Value) {
	return &Value{Width: ir.Width256}, &Value{Width: ir.Width1}
}
func (b *Builder) UMin(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) UMax(a, x ir.Value) ir.Value { return &Value{Width: ir.Width256} }

func (b *Builder) Select(cond, t, f ir.Value) ir.Value { return &Value{Width: ir.Width256} }
func (b *Builder) LazySelect(cond ir.Value, onTrue, onFalse func() ir.Value) ir.Value {
	onTrue()
	onFalse()
	return &Value{Width: ir.Width256}
}

func (b *Builder) Call(f ir.Func, args ...ir.Value) ir.Value {
	b.CallCount++
	b.Calls = append(b.Calls, Call{Func: f, Args: args})
	return &Value{Width: ir.Width8}
}

func (b *Builder) VerifyFunction(f ir.Func) error             { return nil }
func (b *Builder) OptimizeFunction(f ir.Func, level int) error { return nil }
func (b *Builder) DumpIR(path string) error                   { return nil }
func (b *Builder) DumpDisasm(path string) error                { return nil }

// GetFunction returns a deterministic placeholder address derived from the
// number of functions the builder holds when the name is first looked up
// (later lookups return the same address), so driver-level tests can assert
// two different bytecodes resolve to different, non-zero entry points
// without a real backend.
func (b *Builder) GetFunction(name string) (uintptr, error) {
	f, ok := b.Funcs[name]
	if !ok {
		return 0, fmt.Errorf("irfake: unknown function %q", name)
	}
	if f.Addr == 0 {
		f.Addr = uintptr(len(b.Funcs)) * 8
	}
	return f.Addr, nil
}

func (b *Builder) FreeFunction(name string) error {
	delete(b.Funcs, name)
	return nil
}

func (b *Builder) FreeAllFunctions() error {
	b.Funcs = map[string]*Func{}
	return nil
}
