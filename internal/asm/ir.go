package asm

import "fpgrars/internal/token"

// Op is the dense opcode tag of a decoded instruction record.
type Op int

const (
	OpInvalid Op = iota

	// RV32I register-register
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// RV32I register-immediate
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// loads/stores
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW

	// branches
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// jumps & upper-immediate
	OpJAL
	OpJALR
	OpLUI
	OpAUIPC

	// system
	OpECALL
	OpEBREAK
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI
	OpURET

	// M extension
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	// F extension
	OpFLW
	OpFSW
	OpFADD_S
	OpFSUB_S
	OpFMUL_S
	OpFDIV_S
	OpFSQRT_S
	OpFMIN_S
	OpFMAX_S
	OpFEQ_S
	OpFLT_S
	OpFLE_S
	OpFCVT_W_S
	OpFCVT_WU_S
	OpFCVT_S_W
	OpFCVT_S_WU
	OpFMV_X_W
	OpFMV_W_X
	OpFSGNJ_S
	OpFSGNJN_S
	OpFSGNJX_S
	OpFCLASS_S
)

var opNames = map[Op]string{
	OpADD: "add", OpSUB: "sub", OpSLL: "sll", OpSLT: "slt", OpSLTU: "sltu",
	OpXOR: "xor", OpSRL: "srl", OpSRA: "sra", OpOR: "or", OpAND: "and",
	OpADDI: "addi", OpSLTI: "slti", OpSLTIU: "sltiu", OpXORI: "xori", OpORI: "ori",
	OpANDI: "andi", OpSLLI: "slli", OpSRLI: "srli", OpSRAI: "srai",
	OpLB: "lb", OpLH: "lh", OpLW: "lw", OpLBU: "lbu", OpLHU: "lhu",
	OpSB: "sb", OpSH: "sh", OpSW: "sw",
	OpBEQ: "beq", OpBNE: "bne", OpBLT: "blt", OpBGE: "bge", OpBLTU: "bltu", OpBGEU: "bgeu",
	OpJAL: "jal", OpJALR: "jalr", OpLUI: "lui", OpAUIPC: "auipc",
	OpECALL: "ecall", OpEBREAK: "ebreak",
	OpCSRRW: "csrrw", OpCSRRS: "csrrs", OpCSRRC: "csrrc",
	OpCSRRWI: "csrrwi", OpCSRRSI: "csrrsi", OpCSRRCI: "csrrci", OpURET: "uret",
	OpMUL: "mul", OpMULH: "mulh", OpMULHSU: "mulhsu", OpMULHU: "mulhu",
	OpDIV: "div", OpDIVU: "divu", OpREM: "rem", OpREMU: "remu",
	OpFLW: "flw", OpFSW: "fsw",
	OpFADD_S: "fadd.s", OpFSUB_S: "fsub.s", OpFMUL_S: "fmul.s", OpFDIV_S: "fdiv.s", OpFSQRT_S: "fsqrt.s",
	OpFMIN_S: "fmin.s", OpFMAX_S: "fmax.s",
	OpFEQ_S: "feq.s", OpFLT_S: "flt.s", OpFLE_S: "fle.s",
	OpFCVT_W_S: "fcvt.w.s", OpFCVT_WU_S: "fcvt.wu.s", OpFCVT_S_W: "fcvt.s.w", OpFCVT_S_WU: "fcvt.s.wu",
	OpFMV_X_W: "fmv.x.w", OpFMV_W_X: "fmv.w.x",
	OpFSGNJ_S: "fsgnj.s", OpFSGNJN_S: "fsgnjn.s", OpFSGNJX_S: "fsgnjx.s", OpFCLASS_S: "fclass.s",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "?"
}

// Inst is one decoded instruction record. Rd/Rs1/Rs2 are interpreted as
// integer or float register indices depending on Op; Target is the
// resolved text-array index for control-transfer instructions whose
// destination is statically known (branches, jal), -1 otherwise.
type Inst struct {
	Op           Op
	Rd, Rs1, Rs2 int
	Imm          int32
	Target       int32
	Pos          token.Pos
}

// Program is the immutable image produced by Assemble. Only memory,
// registers, CSRs, and MMIO state may change once a Program exists.
type Program struct {
	Text     []Inst
	Data     []byte
	Labels   map[string]uint32
	DataBase uint32
	TextBase uint32
}

const (
	DefaultDataBase = 0x1000_0000
	DefaultTextBase = 0x0040_0000
)

// TextAddr returns the byte address of the instruction at text index i.
func (p *Program) TextAddr(i int) uint32 { return p.TextBase + uint32(i)*4 }

// IndexForAddr returns the text-array index for a text-segment byte
// address, or -1 if addr does not name an instruction slot.
func (p *Program) IndexForAddr(addr uint32) int {
	if addr < p.TextBase {
		return -1
	}
	idx := (addr - p.TextBase) / 4
	if int(idx) >= len(p.Text) || addr%4 != 0 {
		return -1
	}
	return int(idx)
}
