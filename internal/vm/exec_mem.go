package vm

import (
	"fpgrars/internal/asm"
	"fpgrars/internal/mem"
)

// loadFault turns a *mem.AlignmentError/*mem.FaultError into a
// LoadMisaligned/LoadAccessFault trap, delivers it, and reports whether
// the caller should bail out of the instruction.
func (v *VM) loadFault(err error, addr uint32) bool {
	if err == nil {
		return false
	}
	cause := CauseLoadAccessFault
	if _, ok := err.(*mem.AlignmentError); ok {
		cause = CauseLoadMisaligned
	}
	v.deliverTrap(&Trap{Cause: cause, PC: v.PC(), Val: addr})
	return true
}

func (v *VM) storeFault(err error, addr uint32) bool {
	if err == nil {
		return false
	}
	cause := CauseStoreAccessFault
	if _, ok := err.(*mem.AlignmentError); ok {
		cause = CauseStoreMisaligned
	}
	v.deliverTrap(&Trap{Cause: cause, PC: v.PC(), Val: addr})
	return true
}

func execLB(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	b, err := v.Mem.ReadByte(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Int.Set(i.Rd, uint32(int32(int8(b))))
	return -1
}

func execLBU(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	b, err := v.Mem.ReadByte(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Int.Set(i.Rd, uint32(b))
	return -1
}

func execLH(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	h, err := v.Mem.ReadHalf(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Int.Set(i.Rd, uint32(int32(int16(h))))
	return -1
}

func execLHU(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	h, err := v.Mem.ReadHalf(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Int.Set(i.Rd, uint32(h))
	return -1
}

func execLW(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	w, err := v.Mem.ReadWord(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Int.Set(i.Rd, w)
	return -1
}

func execSB(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	err := v.Mem.WriteByte(addr, byte(v.Int.Get(i.Rs2)))
	v.storeFault(err, addr)
	return -1
}

func execSH(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	err := v.Mem.WriteHalf(addr, uint16(v.Int.Get(i.Rs2)))
	v.storeFault(err, addr)
	return -1
}

func execSW(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	err := v.Mem.WriteWord(addr, v.Int.Get(i.Rs2))
	v.storeFault(err, addr)
	return -1
}

// Branches and jumps. Inst.Target already holds the resolved text-array
// index, computed once at layout time, so execution never recomputes
// an address.

func execBEQ(v *VM, i asm.Inst) int { return branchIf(v, i, v.Int.Get(i.Rs1) == v.Int.Get(i.Rs2)) }
func execBNE(v *VM, i asm.Inst) int { return branchIf(v, i, v.Int.Get(i.Rs1) != v.Int.Get(i.Rs2)) }
func execBLT(v *VM, i asm.Inst) int {
	return branchIf(v, i, int32(v.Int.Get(i.Rs1)) < int32(v.Int.Get(i.Rs2)))
}
func execBGE(v *VM, i asm.Inst) int {
	return branchIf(v, i, int32(v.Int.Get(i.Rs1)) >= int32(v.Int.Get(i.Rs2)))
}
func execBLTU(v *VM, i asm.Inst) int { return branchIf(v, i, v.Int.Get(i.Rs1) < v.Int.Get(i.Rs2)) }
func execBGEU(v *VM, i asm.Inst) int { return branchIf(v, i, v.Int.Get(i.Rs1) >= v.Int.Get(i.Rs2)) }

func branchIf(v *VM, i asm.Inst, cond bool) int {
	if !cond {
		return -1
	}
	return int(i.Target)
}

func execJAL(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.PC()+4)
	return int(i.Target)
}

func execJALR(v *VM, i asm.Inst) int {
	target := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	target &^= 1 // RISC-V clears bit 0 of the computed target
	link := v.PC() + 4
	idx := v.Prog.IndexForAddr(target)
	v.Int.Set(i.Rd, link)
	if idx < 0 {
		v.deliverTrap(&Trap{Cause: CauseInstructionMisaligned, PC: v.PC(), Val: target})
		return -1
	}
	return idx
}
