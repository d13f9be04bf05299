// Copyright (C) 2022 K2 Cyber Security Inc.
/*
Package native implements an engine.Engine that rewrites the machine code of
the running process.

Inline hooking on amd64

TARGET FUNCTION
 - the first whole instructions covering at least jmpAbsLen bytes are
   replaced by an absolute jump to the DETOUR FUNCTION while the hook is
   enabled, and restored from a backup when it is disabled

TRAMPOLINE
 - a private executable page holding the replaced instructions followed by
   an absolute jump to the first instruction of the target that was not
   replaced
 - calling the trampoline runs the original target

Instructions of the window are relocated into the trampoline:
 - relative JMP becomes an absolute jump to the same destination
 - relative Jcc becomes the inverted short Jcc over an absolute jump
 - a RIP relative operand gets its displacement rebased, which needs the
   trampoline mapped within rel32 reach of the target

Go functions start with a stack bound check whose JBE leads to a block that
calls runtime.morestack and jumps back to the function entry. The check is
relocated like any other Jcc. When the stack has to grow while the
trampoline runs, the entry is re-executed, so an enabled hook sees its
detour called once more for that call.

Calls, loops and JRCXZ are not relocated. Neither is a branch back into the
window. A window that reaches a return, trap or jump before it is long
enough means the function is too short to hold the jump.
*/

package native

import (
	"encoding/binary"
	"errors"

	"golang.org/x/arch/x86/x86asm"
)

const (
	// JMP QWORD PTR [RIP+0] followed by the 8 byte destination
	jmpAbsLen = 14
	// inverted short Jcc over a jmpAbs
	jccAbsLen = 2 + jmpAbsLen
	// bytes decoded while looking for a patch window
	maxPrologue = 32
	// fills the tail of a patch window past the jump
	int3 = 0xcc
)

var (
	// errRelativeAddr means a window instruction cannot be relocated
	errRelativeAddr = errors.New("relative address cannot be relocated")
	// errShortFunction means the function ends inside the patch window
	errShortFunction = errors.New("function too short to patch")
	errAlloc         = errors.New("cannot allocate trampoline")
	errProtect       = errors.New("cannot change page protection")
)

// condition codes of the Jcc family, as encoded in 0x70+cc and 0x0f 0x80+cc
var jccCodes = map[x86asm.Op]byte{
	x86asm.JO:  0x0,
	x86asm.JNO: 0x1,
	x86asm.JB:  0x2,
	x86asm.JAE: 0x3,
	x86asm.JE:  0x4,
	x86asm.JNE: 0x5,
	x86asm.JBE: 0x6,
	x86asm.JA:  0x7,
	x86asm.JS:  0x8,
	x86asm.JNS: 0x9,
	x86asm.JP:  0xa,
	x86asm.JNP: 0xb,
	x86asm.JL:  0xc,
	x86asm.JGE: 0xd,
	x86asm.JLE: 0xe,
	x86asm.JG:  0xf,
}

// info describes the patch window at the start of a target.
type info struct {
	// bytes replaced by the jump
	length int
	// the window has RIP relative operands
	near  bool
	insts []x86asm.Inst
}

// jmpAbs encodes an indirect jump through the quadword that follows it, so
// no register is clobbered and the destination may be anywhere.
func jmpAbs(dest uintptr) []byte {
	seq := make([]byte, jmpAbsLen)
	seq[0] = 0xff // JMP r/m64
	seq[1] = 0x25 // [RIP+disp32]
	// disp32 stays zero: the target quadword follows immediately
	binary.LittleEndian.PutUint64(seq[6:], uint64(dest))
	return seq
}

// jccAbs branches to dest when condition cc holds.
func jccAbs(cc byte, dest uintptr) []byte {
	seq := make([]byte, 0, jccAbsLen)
	seq = append(seq, 0x70|(cc^1), jmpAbsLen) // Jncc over the jump
	return append(seq, jmpAbs(dest)...)
}

// patchFor returns the bytes written over a window of size n to enter
// detour.
func patchFor(detour uintptr, n int) []byte {
	seq := make([]byte, n)
	copy(seq, jmpAbs(detour))
	for i := jmpAbsLen; i < n; i++ {
		seq[i] = int3
	}
	return seq
}

// ensureLength decodes whole instructions from src until at least size
// bytes are covered.
func ensureLength(src []byte, size int) (info, error) {
	var inf info
	for inf.length < size {
		inst, err := analysis(src[inf.length:])
		if err != nil {
			return inf, err
		}
		if inst.Op == x86asm.JMP && inf.length+inst.Len < size {
			return inf, errShortFunction
		}
		if inst.PCRel > 0 && !isBranch(inst) {
			inf.near = true
		}
		inf.insts = append(inf.insts, inst)
		inf.length += inst.Len
	}
	return inf, nil
}

func analysis(src []byte) (x86asm.Inst, error) {
	inst, err := x86asm.Decode(src, 64)
	if err != nil {
		return inst, err
	}
	switch inst.Op {
	case x86asm.RET, x86asm.LRET, x86asm.INT, x86asm.UD2, x86asm.HLT:
		return inst, errShortFunction
	case x86asm.CALL, x86asm.LCALL:
		// the callee would return into the trampoline
		return inst, errRelativeAddr
	case x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ, x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return inst, errRelativeAddr
	}
	if inst.PCRel > 0 && !isBranch(inst) && inst.PCRel != 4 {
		return inst, errRelativeAddr
	}
	return inst, nil
}

// isBranch reports a JMP or Jcc with a relative destination.
func isBranch(inst x86asm.Inst) bool {
	if _, ok := inst.Args[0].(x86asm.Rel); !ok {
		return false
	}
	_, jcc := jccCodes[inst.Op]
	return jcc || inst.Op == x86asm.JMP
}

// prologue checks the code at the start of a target and returns the patch
// window that the jump replaces.
func prologue(code []byte) (info, error) {
	return ensureLength(code, jmpAbsLen)
}

// relocate re-encodes the window instructions found in code, which runs at
// pc, so that they run at dst.
func relocate(code []byte, inf info, pc, dst uintptr) ([]byte, error) {
	end := pc + uintptr(inf.length)
	seq := make([]byte, 0, len(inf.insts)*jccAbsLen+jmpAbsLen)
	off := 0
	for _, inst := range inf.insts {
		raw := code[off : off+inst.Len]
		from := pc + uintptr(off)
		off += inst.Len
		if inst.PCRel == 0 {
			seq = append(seq, raw...)
			continue
		}
		if isBranch(inst) {
			rel := int64(inst.Args[0].(x86asm.Rel))
			dest := from + uintptr(inst.Len) + uintptr(rel)
			if dest >= pc && dest < end {
				return nil, errRelativeAddr
			}
			if inst.Op == x86asm.JMP {
				seq = append(seq, jmpAbs(dest)...)
			} else {
				seq = append(seq, jccAbs(jccCodes[inst.Op], dest)...)
			}
			continue
		}
		at := dst + uintptr(len(seq))
		disp := int64(int32(binary.LittleEndian.Uint32(raw[inst.PCRelOff:])))
		moved := disp + int64(from-at)
		if moved != int64(int32(moved)) {
			return nil, errRelativeAddr
		}
		fixed := append([]byte(nil), raw...)
		binary.LittleEndian.PutUint32(fixed[inst.PCRelOff:], uint32(int32(moved)))
		seq = append(seq, fixed...)
	}
	return seq, nil
}

// trampolineFor builds the trampoline body for the window of the code at
// target, to be placed at dst.
func trampolineFor(code []byte, inf info, target, dst uintptr) ([]byte, error) {
	seq, err := relocate(code, inf, target, dst)
	if err != nil {
		return nil, err
	}
	return append(seq, jmpAbs(target+uintptr(inf.length))...), nil
}

// overflowsS32 reports whether to lies out of rel32 reach of from.
func overflowsS32(from, to uintptr) bool {
	d := int64(to - from)
	return d != int64(int32(d))
}

// pageSpan returns the page aligned region covering [addr, addr+size).
func pageSpan(addr, size, pageSize uintptr) (uintptr, uintptr) {
	start := pageSize * (addr / pageSize)
	length := pageSize * ((addr + size + pageSize - 1 - start) / pageSize)
	return start, length
}
