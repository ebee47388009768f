package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// intrinsicName renders an llvm.* intrinsic name parameterized by integer
// width, e.g. intrinsicName("llvm.bswap", types.NewInt(256)) -> "llvm.bswap.i256".
func intrinsicName(prefix string, w *types.IntType) string {
	return fmt.Sprintf("%s.i%d", prefix, w.BitSize)
}

// intrinsic declares (once per name) and returns an external function
// handle for an LLVM intrinsic. Declarations are memoized on the module so
// repeated lowering of the same opcode across many compiled functions does
// not redeclare the same intrinsic under a new name.
func (b *Builder) intrinsic(name string, ret types.Type, params ...*llParamDesc) *ir.Func {
	if f, ok := b.funcs[name]; ok {
		return f.llFunc
	}
	llParams := make([]*ir.Param, len(params))
	for i, p := range params {
		llParams[i] = ir.NewParam(p.name, p.typ)
	}
	llFn := b.mod.NewFunc(name, ret, llParams...)
	b.funcs[name] = &Func{name: name, llFunc: llFn, imported: true}
	return llFn
}

func newIncoming(v value.Value, pred *ir.Block) *ir.Incoming {
	return ir.NewIncoming(v, pred)
}
