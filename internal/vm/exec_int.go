package vm

import (
	"math"

	"fpgrars/internal/asm"
)

// This file covers RV32I's register-register and register-immediate
// arithmetic/logic instructions. Every execFunc returns -1 to mean
// "advance PC normally"; only branches, jumps, and uret ever return a
// concrete next index.

func execADD(v *VM, i asm.Inst) int  { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)+v.Int.Get(i.Rs2)); return -1 }
func execSUB(v *VM, i asm.Inst) int  { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)-v.Int.Get(i.Rs2)); return -1 }
func execXOR(v *VM, i asm.Inst) int  { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)^v.Int.Get(i.Rs2)); return -1 }
func execOR(v *VM, i asm.Inst) int   { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)|v.Int.Get(i.Rs2)); return -1 }
func execAND(v *VM, i asm.Inst) int  { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)&v.Int.Get(i.Rs2)); return -1 }

func execSLL(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Int.Get(i.Rs1)<<(v.Int.Get(i.Rs2)&0x1f))
	return -1
}
func execSRL(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Int.Get(i.Rs1)>>(v.Int.Get(i.Rs2)&0x1f))
	return -1
}
func execSRA(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, uint32(int32(v.Int.Get(i.Rs1))>>(v.Int.Get(i.Rs2)&0x1f)))
	return -1
}
func execSLT(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, boolToWord(int32(v.Int.Get(i.Rs1)) < int32(v.Int.Get(i.Rs2))))
	return -1
}
func execSLTU(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, boolToWord(v.Int.Get(i.Rs1) < v.Int.Get(i.Rs2)))
	return -1
}

func execADDI(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, uint32(int32(v.Int.Get(i.Rs1))+i.Imm))
	return -1
}
func execXORI(v *VM, i asm.Inst) int { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)^uint32(i.Imm)); return -1 }
func execORI(v *VM, i asm.Inst) int  { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)|uint32(i.Imm)); return -1 }
func execANDI(v *VM, i asm.Inst) int { v.Int.Set(i.Rd, v.Int.Get(i.Rs1)&uint32(i.Imm)); return -1 }

func execSLLI(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Int.Get(i.Rs1)<<(uint32(i.Imm)&0x1f))
	return -1
}
func execSRLI(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Int.Get(i.Rs1)>>(uint32(i.Imm)&0x1f))
	return -1
}
func execSRAI(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, uint32(int32(v.Int.Get(i.Rs1))>>(uint32(i.Imm)&0x1f)))
	return -1
}
func execSLTI(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, boolToWord(int32(v.Int.Get(i.Rs1)) < i.Imm))
	return -1
}
func execSLTIU(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, boolToWord(v.Int.Get(i.Rs1) < uint32(i.Imm)))
	return -1
}

func execLUI(v *VM, i asm.Inst) int   { v.Int.Set(i.Rd, uint32(i.Imm)<<12); return -1 }
func execAUIPC(v *VM, i asm.Inst) int { v.Int.Set(i.Rd, v.PC()+uint32(i.Imm)<<12); return -1 }

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// M extension: multiply/divide, with RISC-V's defined results for
// div/rem by zero and for signed overflow (INT_MIN / -1) rather than a
// hardware fault.

func execMUL(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Int.Get(i.Rs1)*v.Int.Get(i.Rs2))
	return -1
}

func execMULH(v *VM, i asm.Inst) int {
	a := int64(int32(v.Int.Get(i.Rs1)))
	b := int64(int32(v.Int.Get(i.Rs2)))
	v.Int.Set(i.Rd, uint32((a*b)>>32))
	return -1
}

func execMULHU(v *VM, i asm.Inst) int {
	a := uint64(v.Int.Get(i.Rs1))
	b := uint64(v.Int.Get(i.Rs2))
	v.Int.Set(i.Rd, uint32((a*b)>>32))
	return -1
}

func execMULHSU(v *VM, i asm.Inst) int {
	a := int64(int32(v.Int.Get(i.Rs1)))
	b := int64(uint64(v.Int.Get(i.Rs2)))
	v.Int.Set(i.Rd, uint32((a*b)>>32))
	return -1
}

func execDIV(v *VM, i asm.Inst) int {
	a := int32(v.Int.Get(i.Rs1))
	b := int32(v.Int.Get(i.Rs2))
	switch {
	case b == 0:
		v.Int.Set(i.Rd, 0xffffffff) // division by zero: quotient is -1
	case a == math.MinInt32 && b == -1:
		v.Int.Set(i.Rd, uint32(a)) // signed overflow: quotient is INT_MIN
	default:
		v.Int.Set(i.Rd, uint32(a/b))
	}
	return -1
}

func execDIVU(v *VM, i asm.Inst) int {
	a := v.Int.Get(i.Rs1)
	b := v.Int.Get(i.Rs2)
	if b == 0 {
		v.Int.Set(i.Rd, 0xffffffff)
	} else {
		v.Int.Set(i.Rd, a/b)
	}
	return -1
}

func execREM(v *VM, i asm.Inst) int {
	a := int32(v.Int.Get(i.Rs1))
	b := int32(v.Int.Get(i.Rs2))
	switch {
	case b == 0:
		v.Int.Set(i.Rd, uint32(a)) // division by zero: remainder is the dividend
	case a == math.MinInt32 && b == -1:
		v.Int.Set(i.Rd, 0) // signed overflow: remainder is 0
	default:
		v.Int.Set(i.Rd, uint32(a%b))
	}
	return -1
}

func execREMU(v *VM, i asm.Inst) int {
	a := v.Int.Get(i.Rs1)
	b := v.Int.Get(i.Rs2)
	if b == 0 {
		v.Int.Set(i.Rd, a)
	} else {
		v.Int.Set(i.Rd, a%b)
	}
	return -1
}
