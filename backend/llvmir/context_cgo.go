//go:build cgo

package llvmir

import (
	"sync"

	"github.com/eth2030/eth2030/jit/callback"
)

// pinnedContext lets a callback trampoline, which only ever receives an
// opaque integer handle across the cgo boundary, recover the *ecxBinding it
// stands for. Passing a raw Go pointer through a compiled function's ecx
// argument and back into a cgo-exported trampoline would violate the
// pointer-passing rules cgo enforces at runtime, so an integer handle into
// this map is used instead, the same shape go-ethereum's own evmjit bridge
// uses for its context pointer.
var (
	pinnedMu    sync.Mutex
	pinnedNext  uint64
	pinnedCtx   = make(map[uint64]*ecxBinding)
)

// ecxBinding bundles a Go-level callback.EvmContext with the registry to
// dispatch into; PinContext is called by whatever drives execution of a
// resolved FnPtr (outside this package's scope) once per call into a
// compiled function.
type ecxBinding struct {
	ctx *callback.EvmContext
	reg callback.Registry
}

// PinContext registers ctx/reg under a fresh handle and returns it. Callers
// must call UnpinContext with the same handle once the compiled function
// call that used it has returned.
func PinContext(ctx *callback.EvmContext, reg callback.Registry) uint64 {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()
	pinnedNext++
	h := pinnedNext
	pinnedCtx[h] = &ecxBinding{ctx: ctx, reg: reg}
	return h
}

// UnpinContext releases a handle PinContext previously returned.
func UnpinContext(handle uint64) {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()
	delete(pinnedCtx, handle)
}

func getBinding(handle uint64) *ecxBinding {
	pinnedMu.Lock()
	defer pinnedMu.Unlock()
	return pinnedCtx[handle]
}
