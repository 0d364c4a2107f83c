package vm

import (
	"fpgrars/internal/asm"
	"fpgrars/internal/csr"
)

// csrFault delivers an IllegalInstruction trap for a CSR tag outside
// the implemented set (reachable when a csrrw/csrrs/... operand is a
// bare immediate rather than a recognized CSR name) and reports whether
// the caller should stop without reading/writing the register file.
func (v *VM) csrFault(tag csr.CSR) bool {
	v.deliverTrap(&Trap{Cause: CauseIllegalInstruction, PC: v.PC(), Val: uint32(tag)})
	return true
}

func execCSRRW(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	v.SetCSR(tag, v.Int.Get(i.Rs1))
	return -1
}

func execCSRRS(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	if i.Rs1 != 0 {
		v.SetCSR(tag, old|v.Int.Get(i.Rs1))
	}
	return -1
}

func execCSRRC(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	if i.Rs1 != 0 {
		v.SetCSR(tag, old&^v.Int.Get(i.Rs1))
	}
	return -1
}

func execCSRRWI(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	v.SetCSR(tag, uint32(i.Rs2))
	return -1
}

func execCSRRSI(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	if i.Rs2 != 0 {
		v.SetCSR(tag, old|uint32(i.Rs2))
	}
	return -1
}

func execCSRRCI(v *VM, i asm.Inst) int {
	tag := csr.CSR(i.Imm)
	old, ok := v.GetCSR(tag)
	if !ok {
		v.csrFault(tag)
		return -1
	}
	v.Int.Set(i.Rd, old)
	if i.Rs2 != 0 {
		v.SetCSR(tag, old&^uint32(i.Rs2))
	}
	return -1
}

func execECALL(v *VM, i asm.Inst) int {
	if v.Ecall == nil {
		v.deliverTrap(&Trap{Cause: CauseIllegalEcall, PC: v.PC(), Val: v.Int.Get(17)})
		return -1
	}
	if t := v.Ecall(v); t != nil {
		v.deliverTrap(t)
	}
	return -1
}

// execEBREAK is a no-op in fpgrars: there is no separate breakpoint
// trap in the error taxonomy, and internal/debug drives the VM one
// Step call at a time instead of calling Run, rather than using ebreak.
func execEBREAK(v *VM, i asm.Inst) int { return -1 }

func execURET(v *VM, i asm.Inst) int {
	idx := v.Prog.IndexForAddr(v.CSR.Uepc)
	if idx < 0 {
		v.deliverTrap(&Trap{Cause: CauseInstructionMisaligned, PC: v.PC(), Val: v.CSR.Uepc})
		return -1
	}
	return idx
}
