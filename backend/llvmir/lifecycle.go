package llvmir

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/llir/llvm/asm"

	jitir "github.com/eth2030/eth2030/jit/ir"
)

// moduleText renders the whole in-progress module as LLVM IR text. Every
// function this Builder has created or imported lives in one module (§6.2),
// so verify/optimize/codegen all operate on the module as a unit rather than
// splicing individual functions in and out of a textual IR file.
func (b *Builder) moduleText() string { return b.mod.String() }

func (b *Builder) writeModule(name string) (string, error) {
	path := filepath.Join(b.workDir, name)
	if err := os.WriteFile(path, []byte(b.moduleText()), 0o644); err != nil {
		return "", fmt.Errorf("llvmir: write %s: %w", path, err)
	}
	return path, nil
}

// VerifyFunction shells out to opt -verify rather than reimplementing LLVM's
// own module verifier: the verifier's rules change with every LLVM release
// and this repo has no interest in tracking that itself.
func (b *Builder) VerifyFunction(f jitir.Func) error {
	path, err := b.writeModule("module.ll")
	if err != nil {
		return err
	}
	cmd := exec.Command("opt", "-verify", "-disable-output", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("llvmir: verify failed: %w: %s", err, out)
	}
	return nil
}

// OptimizeFunction runs the module through opt at the requested -O level and
// re-parses the result, replacing every function's underlying *ir.Func with
// its optimized counterpart in place so callers holding a jitir.Func handle
// keep pointing at a live definition.
func (b *Builder) OptimizeFunction(f jitir.Func, level int) error {
	if level < 0 || level > 3 {
		level = 2
	}
	in, err := b.writeModule("module.ll")
	if err != nil {
		return err
	}
	out := filepath.Join(b.workDir, "module.opt.ll")
	cmd := exec.Command("opt", fmt.Sprintf("-O%d", level), "-S", in, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("llvmir: optimize failed: %w: %s", err, output)
	}

	optMod, err := asm.ParseFile(out)
	if err != nil {
		return fmt.Errorf("llvmir: parse optimized module: %w", err)
	}
	b.mod = optMod
	for _, llFn := range optMod.Funcs {
		if wrapped, ok := b.funcs[llFn.Name()]; ok {
			wrapped.llFunc = llFn
		}
	}
	return nil
}

// DumpIR writes the module's current textual form to path, unoptimized or
// optimized depending on when it is called relative to OptimizeFunction.
func (b *Builder) DumpIR(path string) error {
	return os.WriteFile(path, []byte(b.moduleText()), 0o644)
}

// DumpDisasm runs llc over the current module and writes the resulting
// target assembly to path.
func (b *Builder) DumpDisasm(path string) error {
	in, err := b.writeModule("module.ll")
	if err != nil {
		return err
	}
	cmd := exec.Command("llc", "-O2", in, "-o", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("llvmir: llc failed: %w: %s", err, out)
	}
	return nil
}

// GetFunction compiles the whole module to a shared object (clang, via the
// system LLVM toolchain rather than MCJIT bindings this repo does not
// depend on) and resolves name through dlopen/dlsym, caching the handle so
// repeat calls across different functions in the same module reuse one
// shared object instead of relinking per function.
func (b *Builder) GetFunction(name string) (uintptr, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if addr, ok := b.loaded[name]; ok {
		return addr, nil
	}

	soPath, err := b.ensureSharedObject()
	if err != nil {
		return 0, err
	}

	addr, err := dlopenSymbol(soPath, name)
	if err != nil {
		return 0, fmt.Errorf("llvmir: resolve %s: %w", name, err)
	}
	b.loaded[name] = addr
	return addr, nil
}

// ensureSharedObject compiles module.ll to a .so once per Builder instance
// and memoizes the path; OptimizeFunction and subsequent GetFunction calls
// within the same compile share this artifact since the module is rebuilt
// wholesale, not incrementally, by this backend.
func (b *Builder) ensureSharedObject() (string, error) {
	soPath := filepath.Join(b.workDir, "module.so")
	if _, err := os.Stat(soPath); err == nil {
		return soPath, nil
	}

	llPath, err := b.writeModule("module.ll")
	if err != nil {
		return "", err
	}
	cmd := exec.Command("clang", "-shared", "-fPIC", "-O2", llPath, "-o", soPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("llvmir: clang failed: %w: %s", err, out)
	}
	return soPath, nil
}

// FreeFunction forgets name's cached address. The closed set of callback
// symbols is never passed here; only entry points the compiler driver
// resolved through GetFunction are candidates, and dlclose-ing a single
// symbol out of a shared object is not something the dynamic loader
// supports, so this only un-caches the address rather than unloading code.
func (b *Builder) FreeFunction(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.loaded, name)
	delete(b.funcs, name)
	return nil
}

// FreeAllFunctions dlcloses every shared object this Builder has opened and
// clears all caches. Per §4.6 this invalidates every FnPtr previously
// returned by GetFunction; the caller (jit/compiler) is responsible for
// never dereferencing one again afterward.
func (b *Builder) FreeAllFunctions() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := dlcloseAll(); err != nil {
		return fmt.Errorf("llvmir: dlclose: %w", err)
	}
	b.loaded = make(map[string]uintptr)
	soPath := filepath.Join(b.workDir, "module.so")
	_ = os.Remove(soPath)
	return nil
}
