// Package compiler drives the analyser and translator against a concrete
// backend, turning raw EVM bytecode into a resolved native entry point. It
// owns the one piece neither jit/bytecode, jit/translate, nor jit/ir.Builder
// owns by itself: binding the callback registry into the backend, naming
// and caching compiled functions, and running the create -> translate ->
// verify -> optimise -> resolve lifecycle end to end.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eth2030/eth2030/jit/bytecode"
	"github.com/eth2030/eth2030/jit/callback"
	"github.com/eth2030/eth2030/jit/ir"
	"github.com/eth2030/eth2030/jit/opcodes"
	"github.com/eth2030/eth2030/jit/translate"
	"github.com/eth2030/eth2030/log"
)

// Sentinel errors, following the same wrap-with-%w convention core/vm's own
// error set uses.
var (
	ErrVerifyFailed          = errors.New("jit/compiler: backend verification failed")
	ErrUnknownCallback       = errors.New("jit/compiler: callback variant not bound")
	ErrBackendNotInitialized = errors.New("jit/compiler: backend not initialized")
	ErrAlreadyFreed          = errors.New("jit/compiler: function already freed")
)

// FnPtr is the resolved address of a compiled function's C-ABI entry point
// (§6.1): func(gas, stack, stackLen, env, contract, ecx) byte.
type FnPtr uintptr

// Option configures a Compiler at construction time.
type Option func(*Compiler)

// WithOptLevel sets the backend optimisation level passed to
// ir.Builder.OptimizeFunction.
func WithOptLevel(level int) Option { return func(c *Compiler) { c.cfg.optLevel = level } }

// WithDebugAssertions enables debug-assertions mode: the Panic callback's
// null-pointer checks are compiled in and NoUnwind is dropped from the
// generated function's attributes.
func WithDebugAssertions() Option { return func(c *Compiler) { c.cfg.fcx.DebugAssertions = true } }

// WithDisableGas skips all gas accounting in the generated function, for
// benchmarking the translator's non-gas-metered lowering in isolation.
func WithDisableGas() Option { return func(c *Compiler) { c.cfg.fcx.GasDisabled = true } }

// WithStaticGasLimit bakes a fixed gas limit into the compiled function
// instead of reading one from the Gas struct at entry.
func WithStaticGasLimit(limit uint64) Option {
	return func(c *Compiler) { c.cfg.fcx.StaticGasLimit = &limit }
}

// WithPassStackThroughArgs passes the EVM stack as a caller-owned pointer
// argument rather than allocating it on the compiled function's own frame.
func WithPassStackThroughArgs() Option {
	return func(c *Compiler) { c.cfg.fcx.StackThroughArgs = true }
}

// WithPassStackLenThroughArgs is WithPassStackThroughArgs's counterpart for
// the stack length cell.
func WithPassStackLenThroughArgs() Option {
	return func(c *Compiler) { c.cfg.fcx.StackLenThroughArgs = true }
}

// WithFramePointers requests AllFramePointers on every compiled function,
// trading a little codegen efficiency for easier native-stack unwinding.
func WithFramePointers() Option { return func(c *Compiler) { c.cfg.fcx.FramePointers = true } }

// WithDumpTo enables IR/assembly dump-to-disk: <dir>/<name>.unopt.ll,
// <dir>/<name>.opt.ll, and (when the backend can produce one)
// <dir>/<name>.asm are written for every compile.
func WithDumpTo(dir string) Option { return func(c *Compiler) { c.cfg.dumpTo = dir } }

// config holds everything a single Compile call needs beyond the bytecode
// itself. Unexported: callers mutate it only through the Set*/With*
// functional-option surface (§4.6, §10).
type config struct {
	fcx      translate.FcxConfig
	optLevel int
	dumpTo   string
}

// Compiler is single-threaded per §5: one instance owns its backend,
// imported callbacks, and function cache; none of that state is meant to be
// shared across goroutines without external synchronization.
type Compiler struct {
	backend   ir.Builder
	callbacks map[callback.Callback]ir.Func
	cfg       config
	counter   atomic.Uint64

	mu    sync.Mutex
	cache map[[32]byte]FnPtr

	log     *log.Logger
	metrics *metricSet
}

// New returns a Compiler driving backend, with reg's Go-level callback
// implementations imported under their stable symbol names (§6.3). Any
// backend-side setup happens lazily on first Compile, not here.
func New(backend ir.Builder, reg callback.Registry, opts ...Option) (*Compiler, error) {
	if backend == nil {
		return nil, ErrBackendNotInitialized
	}
	c := &Compiler{
		backend:   backend,
		callbacks: make(map[callback.Callback]ir.Func, len(callback.All())),
		cache:     make(map[[32]byte]FnPtr),
		log:       log.Default().Module("jit/compiler"),
		metrics:   newMetricSet(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, cb := range callback.All() {
		if _, ok := reg[cb]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCallback, cb.Symbol())
		}
		sig := ir.FuncSignature{
			Name:        cb.Symbol(),
			ParamWidth:  []ir.IntWidth{ir.Width64, ir.Width64, ir.Width64},
			ReturnWidth: ir.Width8,
		}
		// addr is 0: the backend resolves callback symbols by name through
		// its own trampoline table rather than through an address handed
		// in from outside (see backend/llvmir's grounding notes).
		c.callbacks[cb] = backend.ImportCallback(sig, 0)
	}
	return c, nil
}

// SetOptLevel sets the optimisation level passed to OptimizeFunction for
// every subsequent Compile call.
func (c *Compiler) SetOptLevel(level int) { c.cfg.optLevel = level }

// SetDebugAssertions toggles debug-assertions mode.
func (c *Compiler) SetDebugAssertions(on bool) { c.cfg.fcx.DebugAssertions = on }

// SetDisableGas toggles whether compiled functions charge gas at all.
func (c *Compiler) SetDisableGas(on bool) { c.cfg.fcx.GasDisabled = on }

// SetStaticGasLimit bakes a fixed gas limit into every subsequent compile.
// Pass nil to go back to reading the limit from the Gas struct at entry.
func (c *Compiler) SetStaticGasLimit(limit *uint64) { c.cfg.fcx.StaticGasLimit = limit }

// SetPassStackThroughArgs toggles whether the stack is a caller-owned
// pointer argument instead of a local alloca.
func (c *Compiler) SetPassStackThroughArgs(on bool) { c.cfg.fcx.StackThroughArgs = on }

// SetPassStackLenThroughArgs is SetPassStackThroughArgs's counterpart for
// the stack length cell.
func (c *Compiler) SetPassStackLenThroughArgs(on bool) { c.cfg.fcx.StackLenThroughArgs = on }

// SetDumpTo enables or (given "") disables IR/assembly dump-to-disk.
func (c *Compiler) SetDumpTo(dir string) { c.cfg.dumpTo = dir }

// Compile runs the full lifecycle (§4.6) over code under spec: analyse,
// create the function with its canonical attributes, translate, verify,
// optionally dump the unoptimised IR, optimise, optionally dump the
// optimised IR, then resolve the entry address.
func (c *Compiler) Compile(ctx context.Context, code []byte, spec opcodes.SpecID) (FnPtr, error) {
	start := time.Now()
	name := fmt.Sprintf("evm_bytecode_%d", c.counter.Add(1))

	fp, err := c.compile(ctx, name, code, spec)

	elapsed := time.Since(start)
	c.metrics.compiles.Inc()
	c.metrics.compileLatency.Observe(float64(elapsed.Microseconds()))
	if err != nil {
		c.metrics.compileErrors.Inc()
		c.log.Error("compile failed", "name", name, "bytes", len(code), "spec", spec, "elapsed", elapsed, "err", err)
		return 0, err
	}
	c.log.Info("compiled", "name", name, "bytes", len(code), "spec", spec, "elapsed", elapsed, "optLevel", c.cfg.optLevel)
	return fp, nil
}

// CompileCached is Compile with a caller-supplied code-hash cache key
// (§12, grounded on revm-jit's compiled-function cache): recompiling a hash
// already seen by this Compiler instance returns the cached entry point
// without touching the backend again.
func (c *Compiler) CompileCached(ctx context.Context, hash [32]byte, code []byte, spec opcodes.SpecID) (FnPtr, error) {
	c.mu.Lock()
	if fp, ok := c.cache[hash]; ok {
		c.mu.Unlock()
		c.metrics.cacheHits.Inc()
		return fp, nil
	}
	c.mu.Unlock()

	fp, err := c.Compile(ctx, code, spec)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cache[hash] = fp
	c.mu.Unlock()
	return fp, nil
}

func (c *Compiler) compile(ctx context.Context, name string, code []byte, spec opcodes.SpecID) (fp FnPtr, err error) {
	// Translation-time assertions (§7 kind 2) are panics recovered here so
	// a compiler bug surfaces as an error to the caller instead of
	// crashing the host process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jit/compiler: translate %s: panic: %v", name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("jit/compiler: %w", err)
	}

	bc := bytecode.Analyse(code, spec)

	fn, err := translate.Translate(c.backend, bc, c.cfg.fcx, c.callbacks, name)
	if err != nil {
		return 0, fmt.Errorf("jit/compiler: translate %s: %w", name, err)
	}

	if err := c.backend.VerifyFunction(fn); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrVerifyFailed, name, err)
	}

	if c.cfg.dumpTo != "" {
		if err := c.backend.DumpIR(c.cfg.dumpTo + "/" + name + ".unopt.ll"); err != nil {
			c.log.Warn("dump unopt IR failed", "name", name, "err", err)
		}
	}

	if err := c.backend.OptimizeFunction(fn, c.cfg.optLevel); err != nil {
		return 0, fmt.Errorf("jit/compiler: optimise %s: %w", name, err)
	}

	if c.cfg.dumpTo != "" {
		if err := c.backend.DumpIR(c.cfg.dumpTo + "/" + name + ".opt.ll"); err != nil {
			c.log.Warn("dump opt IR failed", "name", name, "err", err)
		}
		if err := c.backend.DumpDisasm(c.cfg.dumpTo + "/" + name + ".asm"); err != nil {
			c.log.Warn("dump disasm failed", "name", name, "err", err)
		}
	}

	addr, err := c.backend.GetFunction(name)
	if err != nil {
		return 0, fmt.Errorf("jit/compiler: resolve %s: %w", name, err)
	}
	return FnPtr(addr), nil
}

// FreeAllFunctions releases every function this Compiler's backend has
// produced. Documented as unsafe (§4.6): every FnPtr this instance has
// previously returned becomes invalid the moment this call returns, and the
// CompileCached cache is cleared so a later cache hit can never resolve to
// a freed address.
func (c *Compiler) FreeAllFunctions() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.FreeAllFunctions(); err != nil {
		return fmt.Errorf("jit/compiler: free all: %w", err)
	}
	c.cache = make(map[[32]byte]FnPtr)
	return nil
}
