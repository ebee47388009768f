// Package bytecode analyses raw EVM bytecode into a linear, immutable
// instruction table annotated with control-flow facts the translator needs:
// jump validity, dead code, and per-instruction static gas.
package bytecode

import (
	"github.com/eth2030/eth2030/core/vm"
	"github.com/eth2030/eth2030/jit/opcodes"
)

// InstData is one decoded instruction. Data carries the static jump target
// (an index into Insts) when StaticJump is set, otherwise the offset into
// Raw of a PUSHn's immediate bytes.
type InstData struct {
	Opcode    byte
	PC        uint64
	Flags     opcodes.OpFlags
	Data      uint64
	StaticGas uint64
}

// Bytecode is the analyser's output: a decoded, jump-resolved instruction
// vector plus the raw bytes it was built from.
type Bytecode struct {
	Raw             []byte
	Insts           []InstData
	Spec            opcodes.SpecID
	HasDynamicJumps bool
	IsEOF           bool
}

func (b InstData) Is(f opcodes.OpFlags) bool { return b.Flags&f != 0 }

// Analyse runs the two-pass decode/jump-resolution analysis described for
// the bytecode analyser: decode every byte into an instruction, resolve
// JUMP/JUMPI targets that are preceded by a static PUSH, and mark
// unreachable instructions as dead code.
func Analyse(raw []byte, spec opcodes.SpecID) *Bytecode {
	table := opcodes.OpInfo(spec)

	bc := &Bytecode{Raw: raw, Spec: spec}
	pcToIdx := make(map[uint64]int, len(raw))

	// Pass 1: decode.
	for pc := 0; pc < len(raw); {
		b := raw[pc]
		info := table[b]

		inst := InstData{Opcode: b, PC: uint64(pc), Flags: info.Flags}
		if info.StaticGas != nil {
			inst.StaticGas = *info.StaticGas
		}

		immLen := int(info.ImmediateLen)
		if info.Flags&opcodes.Unknown != 0 {
			immLen = 0
		}
		if vm.OpCode(b).IsPush() {
			// Data records where the immediate bytes start so the
			// translator (and jump resolution below) can read the
			// pushed constant without re-decoding.
			inst.Data = uint64(pc + 1)
		}

		idx := len(bc.Insts)
		pcToIdx[uint64(pc)] = idx
		bc.Insts = append(bc.Insts, inst)

		pc += 1 + immLen
	}

	// Pass 2: jump resolution.
	for i := range bc.Insts {
		op := vm.OpCode(bc.Insts[i].Opcode)
		if op != vm.JUMP && op != vm.JUMPI {
			continue
		}
		target, ok := precedingStaticPush(bc.Insts, i, raw)
		if !ok {
			bc.HasDynamicJumps = true
			continue
		}
		targetIdx, isJumpdest := pcToIdx[target]
		if !isJumpdest || vm.OpCode(bc.Insts[targetIdx].Opcode) != vm.JUMPDEST {
			bc.Insts[i].Flags |= opcodes.InvalidJump
			continue
		}
		bc.Insts[i].Flags |= opcodes.StaticJump
		bc.Insts[i].Data = uint64(targetIdx)
		bc.Insts[i-1].Flags |= opcodes.SkipLogic
	}

	markDeadCode(bc)
	return bc
}

// precedingStaticPush reports the jump target encoded by a PUSHn
// immediately preceding instruction i, if any. The value must fit in 32
// bits; anything larger cannot address real code and is reported as
// unresolved, so pass 2 treats the jump as dynamic (HasDynamicJumps).
func precedingStaticPush(insts []InstData, i int, raw []byte) (uint64, bool) {
	if i == 0 {
		return 0, false
	}
	prev := insts[i-1]
	prevOp := vm.OpCode(prev.Opcode)
	if prevOp == vm.PUSH0 {
		return 0, true
	}
	if !prevOp.IsPush() {
		return 0, false
	}
	n := int(prevOp) - int(vm.PUSH1) + 1
	start := int(prev.Data)
	end := start + n
	if end > len(raw) {
		end = len(raw)
	}
	var v uint64
	for _, b := range raw[start:end] {
		if v > (1<<24)-1 {
			// Any further shift would take the value past 32 bits, far
			// larger than any valid PC, so report it as unresolved.
			return 0, false
		}
		v = v<<8 | uint64(b)
	}
	return v, true
}

// markDeadCode forward-scans the instruction list, marking every
// instruction unreachable by fall-through dead until the next JUMPDEST.
func markDeadCode(bc *Bytecode) {
	dead := false
	for i := range bc.Insts {
		inst := &bc.Insts[i]
		if vm.OpCode(inst.Opcode) == vm.JUMPDEST {
			dead = false
		}
		if dead {
			inst.Flags |= opcodes.DeadCode
			continue
		}
		if inst.Flags&(opcodes.Terminator|opcodes.InvalidJump) != 0 {
			dead = true
		}
	}
}
