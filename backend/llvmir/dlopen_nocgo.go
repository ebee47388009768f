//go:build !cgo

package llvmir

import "errors"

// Without cgo there is no dlopen/dlsym; this backend can still build
// modules, verify, and optimize them, it just cannot resolve a native entry
// point. jit/compiler surfaces this as an ordinary error from Compile.
func dlopenSymbol(path, name string) (uintptr, error) {
	return 0, errors.New("llvmir: dlopen unavailable: built without cgo")
}

func dlcloseAll() error { return nil }
