//go:build cgo

package llvmir

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

var (
	handlesMu sync.Mutex
	handles   = make(map[string]unsafe.Pointer)
)

// dlopenSymbol dlopens path once (memoized by path) and dlsyms name out of
// it, the same two-step C.dlopen/C.dlsym sequence go-ethereum's own evmjit
// bridge uses to load a native VM.
func dlopenSymbol(path, name string) (uintptr, error) {
	handlesMu.Lock()
	handle, ok := handles[path]
	handlesMu.Unlock()

	if !ok {
		cpath := C.CString(path)
		defer C.free(unsafe.Pointer(cpath))
		handle = C.dlopen(cpath, C.RTLD_NOW)
		if handle == nil {
			return 0, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.dlerror()))
		}
		handlesMu.Lock()
		handles[path] = handle
		handlesMu.Unlock()
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	C.dlerror()
	sym := C.dlsym(handle, cname)
	if errStr := C.dlerror(); errStr != nil {
		return 0, fmt.Errorf("dlsym %s: %s", name, C.GoString(errStr))
	}
	return uintptr(sym), nil
}

// dlcloseAll releases every shared object this process has dlopened through
// dlopenSymbol.
func dlcloseAll() error {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	for path, h := range handles {
		if C.dlclose(h) != 0 {
			return fmt.Errorf("dlclose %s: %s", path, C.GoString(C.dlerror()))
		}
		delete(handles, path)
	}
	return nil
}
