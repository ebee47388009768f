package llvmir

import (
	"github.com/llir/llvm/ir/types"

	jitir "github.com/eth2030/eth2030/jit/ir"
)

// llType converts a translator-level IntWidth to the LLVM integer type of
// the same bit width. Width256 is not a native machine width; it exists so
// a single IR-level add/sub/mul/udiv on a 256-bit integer can be emitted and
// left for opt's own legalization passes to split, rather than the
// translator doing limb-wise arithmetic itself.
func llType(w jitir.IntWidth) *types.IntType {
	switch w {
	case jitir.Width1:
		return types.I1
	case jitir.Width8:
		return types.I8
	case jitir.Width32:
		return types.I32
	case jitir.Width64:
		return types.I64
	case jitir.Width256:
		return types.NewInt(256)
	default:
		return types.NewInt(uint64(w))
	}
}

// attrString renders a translator-level Attribute as the string-form LLVM
// function attribute llir/llvm's ir.AttrString expects; there's no typed
// enum.FuncAttr constant for every one of these so the string form is used
// uniformly rather than mixing both forms.
func attrString(a jitir.Attribute) string {
	switch a {
	case jitir.WillReturn:
		return "willreturn"
	case jitir.NoFree:
		return "nofree"
	case jitir.NoRecurse:
		return "norecurse"
	case jitir.NoSync:
		return "nosync"
	case jitir.NoUnwind:
		return "nounwind"
	case jitir.Speculatable:
		return "speculatable"
	case jitir.Cold:
		return "cold"
	case jitir.NoReturn:
		return "noreturn"
	case jitir.NativeTargetCpu:
		return "target-cpu=native"
	case jitir.AllFramePointers:
		return "frame-pointer=all"
	default:
		return ""
	}
}
