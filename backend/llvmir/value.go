package llvmir

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	jitir "github.com/eth2030/eth2030/jit/ir"
)

// Value wraps an LLVM SSA value behind the translator's opaque ir.Value
// handle.
type Value struct {
	v value.Value
}

func (*Value) isIRValue() {}

func val(v value.Value) jitir.Value { return &Value{v: v} }

func unwrap(v jitir.Value) value.Value {
	if v == nil {
		return nil
	}
	return v.(*Value).v
}

func unwrapAll(vs []jitir.Value) []value.Value {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		out[i] = unwrap(v)
	}
	return out
}

// Block wraps an LLVM basic block.
type Block struct {
	b    *ir.Block
	cold bool
}

func (*Block) isIRBlock() {}

func blk(b *ir.Block) jitir.Block { return &Block{b: b} }

func unwrapBlock(b jitir.Block) *ir.Block {
	if b == nil {
		return nil
	}
	return b.(*Block).b
}

// Func wraps either a function this module defines or one it imports as an
// external callback symbol.
type Func struct {
	name     string
	llFunc   *ir.Func
	imported bool
	addr     uintptr
}

func (*Func) isIRFunc() {}

func unwrapFunc(f jitir.Func) *Func {
	if f == nil {
		return nil
	}
	return f.(*Func)
}
