package llvmir

import (
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	jitir "github.com/eth2030/eth2030/jit/ir"
)

// Builder is the ir.Builder this repo ships. One Builder owns one LLVM
// module; every compiled function the translator hands it becomes a
// function definition in that module, and every imported callback becomes
// an external declaration bound to one of this package's cgo trampoline
// symbols (trampolines_cgo.go).
//
// Builder is not safe for concurrent use: jit/compiler serializes all
// access to a backend per its own single-instance-per-goroutine contract.
type Builder struct {
	mod   *ir.Module
	funcs map[string]*Func
	cur   *Func
	curLL *ir.Func
	block *ir.Block

	workDir string

	mu      sync.Mutex
	loaded  map[string]uintptr
	nFuncID int
}

// New returns a Builder backed by a fresh, empty module. workDir is where
// intermediate .ll/.o/.so artifacts are written during OptimizeFunction and
// GetFunction; an empty workDir uses os.MkdirTemp under os.TempDir.
func New(workDir string) (*Builder, error) {
	if workDir == "" {
		dir, err := os.MkdirTemp("", "evmjit-llvmir-*")
		if err != nil {
			return nil, fmt.Errorf("llvmir: create work dir: %w", err)
		}
		workDir = dir
	}
	return &Builder{
		mod:     ir.NewModule(),
		funcs:   make(map[string]*Func),
		workDir: workDir,
		loaded:  make(map[string]uintptr),
	}, nil
}

func paramTypes(sig jitir.FuncSignature) []*ir.Param {
	params := make([]*ir.Param, len(sig.ParamWidth))
	for i, w := range sig.ParamWidth {
		params[i] = ir.NewParam(fmt.Sprintf("p%d", i), llType(w))
		for _, a := range sig.ParamAttrs[i] {
			if s := attrString(a); s != "" {
				params[i].Attrs = append(params[i].Attrs, ir.AttrString(s))
			}
		}
	}
	return params
}

func retType(sig jitir.FuncSignature) types.Type {
	if sig.ReturnWidth == 0 {
		return types.Void
	}
	return llType(sig.ReturnWidth)
}

// CreateFunction defines a new function in the module and makes it the
// current one being built.
func (b *Builder) CreateFunction(sig jitir.FuncSignature) jitir.Func {
	llFn := b.mod.NewFunc(sig.Name, retType(sig), paramTypes(sig)...)
	for _, a := range sig.Attrs {
		if s := attrString(a); s != "" {
			llFn.FuncAttrs = append(llFn.FuncAttrs, ir.AttrString(s))
		}
	}
	f := &Func{name: sig.Name, llFunc: llFn}
	b.funcs[sig.Name] = f
	return f
}

// ImportCallback declares a callback as an external function, bound by name
// to a cgo-exported trampoline rather than the addr argument: §6.3's
// closed callback set has a fixed, well-known symbol name per variant
// (jit/callback.Symbol), so the backend resolves it through its own
// trampoline table at link time instead of trusting a runtime-supplied
// pointer it has no way to verify.
func (b *Builder) ImportCallback(sig jitir.FuncSignature, addr uintptr) jitir.Func {
	if existing, ok := b.funcs[sig.Name]; ok {
		return existing
	}
	llFn := b.mod.NewFunc(sig.Name, retType(sig), paramTypes(sig)...)
	llFn.Linkage = enum.LinkageExternal
	f := &Func{name: sig.Name, llFunc: llFn, imported: true, addr: addr}
	b.funcs[sig.Name] = f
	return f
}

func (b *Builder) SetCurrentFunction(f jitir.Func) {
	wf := unwrapFunc(f)
	b.cur = wf
	b.curLL = wf.llFunc
}

func (b *Builder) CreateBlock(name string) jitir.Block {
	b.nFuncID++
	return blk(b.curLL.NewBlock(fmt.Sprintf("%s.%d", name, b.nFuncID)))
}

func (b *Builder) SetInsertPoint(bl jitir.Block) { b.block = unwrapBlock(bl) }

// MarkCold tags bl as unlikely to execute; LLVM's block-placement and
// inlining heuristics both read this back off branch weight metadata, which
// llir/llvm exposes as raw instruction metadata rather than a first-class
// field on ir.Block, so this is recorded on the wrapper for a future
// metadata-emitting pass rather than applied eagerly.
func (b *Builder) MarkCold(bl jitir.Block) { bl.(*Block).cold = true }

func (b *Builder) CurrentBlock() jitir.Block {
	if b.block == nil {
		return nil
	}
	return blk(b.block)
}

func (b *Builder) Br(target jitir.Block) {
	b.block.NewBr(unwrapBlock(target))
}

func (b *Builder) CondBr(cond jitir.Value, ifTrue, ifFalse jitir.Block) {
	b.block.NewCondBr(unwrap(cond), unwrapBlock(ifTrue), unwrapBlock(ifFalse))
}

func (b *Builder) Switch(v jitir.Value, defaultBlock jitir.Block, cases map[uint64]jitir.Block) {
	w := v.(*Value).v.Type().(*types.IntType)
	cs := make([]*ir.Case, 0, len(cases))
	for k, target := range cases {
		cs = append(cs, ir.NewCase(constant.NewInt(w, int64(k)), unwrapBlock(target)))
	}
	b.block.NewSwitch(unwrap(v), unwrapBlock(defaultBlock), cs...)
}

func (b *Builder) Phi(width jitir.IntWidth, incoming map[jitir.Block]jitir.Value) jitir.Value {
	incs := make([]*ir.Incoming, 0, len(incoming))
	for blkKey, v := range incoming {
		incs = append(incs, ir.NewIncoming(unwrap(v), unwrapBlock(blkKey)))
	}
	return val(b.block.NewPhi(incs...))
}

func (b *Builder) Unreachable() { b.block.NewUnreachable() }

func (b *Builder) Ret(v jitir.Value) { b.block.NewRet(unwrap(v)) }

func (b *Builder) RetVoid() { b.block.NewRet(nil) }

func (b *Builder) Param(index int) jitir.Value {
	return val(b.curLL.Params[index])
}

func (b *Builder) ConstInt(width jitir.IntWidth, v uint64) jitir.Value {
	return val(constant.NewInt(llType(width), int64(v)))
}

// ConstIntFromWords builds a 256-bit constant from a big-endian word pair,
// routed through NewIntFromString because llir/llvm's NewInt only takes an
// int64 and the high word alone can exceed that range.
func (b *Builder) ConstIntFromWords(hi, lo uint64) jitir.Value {
	combined := new(big.Int).Lsh(new(big.Int).SetUint64(hi), 64)
	combined.Or(combined, new(big.Int).SetUint64(lo))
	c, err := constant.NewIntFromString(types.NewInt(256), combined.String())
	if err != nil {
		panic(fmt.Sprintf("llvmir: invalid 256-bit constant %s: %v", combined.String(), err))
	}
	return val(c)
}
