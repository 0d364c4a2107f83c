package asm

import (
	"fpgrars/internal/bits"
	"fpgrars/internal/csr"
	"fpgrars/internal/token"
)

// labelUse tags how a rawInst's symbolic Label must be turned into a
// final Imm/Target during layout.
type labelUse int

const (
	labelNone labelUse = iota
	labelBranch         // B-type: 13-bit signed PC-relative byte offset
	labelJump           // J-type: 21-bit signed PC-relative byte offset
	labelHi20           // U-type hi20 half of a la/call pair
	labelLo12           // I-type lo12 half of a la/call pair
)

// rawInst is a concrete (non-pseudo) instruction after pseudo-
// instruction expansion, still carrying a symbolic label reference
// when one is present; Layout resolves it into the final
// Inst.Imm/Target.
type rawInst struct {
	Op       Op
	Rd       int
	Rs1      int
	Rs2      int
	Imm      int32
	Label    string
	Use      labelUse
	PCAnchor int // instruction-index delta from this instruction defining the PC used in the relative calc (0 = self)
	Pos      token.Pos
}

// Expand runs pseudo-instruction expansion over every parsed text
// statement, producing the concrete instruction list and a mapping
// from original statement index
// to the first concrete instruction produced for it (used to translate
// TextLabelIdx into concrete indices during layout).
func Expand(stmts []Stmt, diag *Diagnostics) (insts []rawInst, stmtFirstInst []int) {
	stmtFirstInst = make([]int, len(stmts))
	for i, s := range stmts {
		stmtFirstInst[i] = len(insts)
		out := expandStmt(s, diag)
		insts = append(insts, out...)
	}
	return insts, stmtFirstInst
}

type opArgs struct {
	s    Stmt
	diag *Diagnostics
}

func (a opArgs) reg(i int) int {
	if i >= len(a.s.Operands) || a.s.Operands[i].Kind != OperandReg {
		a.diag.Add(errExpectedRegister(a.pos(i), a.text(i)))
		return 0
	}
	return a.s.Operands[i].Reg
}

func (a opArgs) freg(i int) int {
	if i >= len(a.s.Operands) || a.s.Operands[i].Kind != OperandFReg {
		a.diag.Add(errExpectedRegister(a.pos(i), a.text(i)))
		return 0
	}
	return a.s.Operands[i].Reg
}

func (a opArgs) imm(i int) int64 {
	if i >= len(a.s.Operands) || a.s.Operands[i].Kind != OperandImm {
		a.diag.Add(errExpectedImmediate(a.pos(i), a.text(i)))
		return 0
	}
	return a.s.Operands[i].Imm
}

func (a opArgs) label(i int) string {
	if i >= len(a.s.Operands) || a.s.Operands[i].Kind != OperandLabel {
		a.diag.Add(errExpectedImmediate(a.pos(i), a.text(i)))
		return ""
	}
	return a.s.Operands[i].Label
}

// imm12 resolves operand i as a signed 12-bit immediate, the range
// I-type encodings can carry.
func (a opArgs) imm12(i int) int64 {
	v := a.imm(i)
	if !bits.FitsSigned(v, 12) {
		a.diag.Add(errImmediateOutOfRange(a.pos(i), v, 12))
		return 0
	}
	return v
}

// shamt resolves operand i as a shift amount 0..31.
func (a opArgs) shamt(i int) int64 {
	v := a.imm(i)
	if v < 0 || v > 31 {
		a.diag.Add(errImmediateOutOfRange(a.pos(i), v, 5))
		return 0
	}
	return v
}

// imm20 resolves operand i as the unsigned 20-bit upper-immediate
// field of lui/auipc.
func (a opArgs) imm20(i int) int64 {
	v := a.imm(i)
	if v < 0 || v > 0xFFFFF {
		a.diag.Add(errImmediateOutOfRange(a.pos(i), v, 20))
		return 0
	}
	return v
}

// zimm resolves operand i as the 5-bit unsigned immediate of the
// csrrwi/csrrsi/csrrci forms.
func (a opArgs) zimm(i int) int64 {
	v := a.imm(i)
	if v < 0 || v > 31 {
		a.diag.Add(errImmediateOutOfRange(a.pos(i), v, 5))
		return 0
	}
	return v
}

func (a opArgs) kind(i int) OperandKind {
	if i >= len(a.s.Operands) {
		return OperandKind(-1)
	}
	return a.s.Operands[i].Kind
}

// memOff resolves operand i as a plain imm(reg) memory operand. A
// label in the offset position is rejected here; the label addressing
// forms (`lw rd, label` / `sw rs, label, tmp`) expand through auipc
// instead, since a 32-bit address cannot ride in a 12-bit offset.
func (a opArgs) memOff(i int) (off int64, reg int) {
	if i >= len(a.s.Operands) || a.s.Operands[i].Kind != OperandMem {
		a.diag.Add(errAt(a.pos(i), "ExpectedImmediate", "expected a memory operand imm(reg)"))
		return 0, 0
	}
	o := a.s.Operands[i]
	if o.HasLabel {
		a.diag.Add(errAt(o.Pos, "ExpectedImmediate", "a label cannot be an imm(reg) offset; use the label addressing form instead"))
		return 0, o.MemReg
	}
	if !bits.FitsSigned(o.Imm, 12) {
		a.diag.Add(errImmediateOutOfRange(o.Pos, o.Imm, 12))
		return 0, o.MemReg
	}
	return o.Imm, o.MemReg
}

func (a opArgs) pos(i int) token.Pos {
	if i < len(a.s.Operands) {
		return a.s.Operands[i].Pos
	}
	return a.s.Pos
}

func (a opArgs) text(i int) string {
	if i >= len(a.s.Operands) {
		return "<missing operand>"
	}
	switch a.s.Operands[i].Kind {
	case OperandReg, OperandFReg:
		return "register"
	case OperandLabel:
		return a.s.Operands[i].Label
	default:
		return "operand"
	}
}

func (a opArgs) nargs() int { return len(a.s.Operands) }

// csrImm resolves operand i as a CSR reference: a symbolic name (utvec,
// time, ...) parses as OperandLabel, since the parser has no notion of
// "CSR name" as its own token class. A bare immediate is accepted too,
// as the raw CSR tag, for forward compatibility.
func (a opArgs) csrImm(i int) int64 {
	if i >= len(a.s.Operands) {
		a.diag.Add(errExpectedImmediate(a.pos(i), "<missing operand>"))
		return 0
	}
	switch a.s.Operands[i].Kind {
	case OperandLabel:
		name := a.s.Operands[i].Label
		tag, ok := csr.Lookup(name)
		if !ok {
			a.diag.Add(errAt(a.pos(i), "IllegalInstruction", "unknown CSR %q", name))
			return 0
		}
		return int64(tag)
	case OperandImm:
		return a.s.Operands[i].Imm
	default:
		a.diag.Add(errExpectedImmediate(a.pos(i), a.text(i)))
		return 0
	}
}

func rtype(op Op, rd, rs1, rs2 int, pos token.Pos) rawInst {
	return rawInst{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2, Pos: pos}
}

func itype(op Op, rd, rs1 int, imm int64, pos token.Pos) rawInst {
	return rawInst{Op: op, Rd: rd, Rs1: rs1, Imm: int32(imm), Pos: pos}
}

func expandStmt(s Stmt, diag *Diagnostics) []rawInst {
	a := opArgs{s: s, diag: diag}
	pos := s.Pos
	switch s.Mnemonic {

	// --- real R-type ---
	case "add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and",
		"mul", "mulh", "mulhsu", "mulhu", "div", "divu", "rem", "remu":
		op := realRName[s.Mnemonic]
		return []rawInst{rtype(op, a.reg(0), a.reg(1), a.reg(2), pos)}

	// --- real I-type arithmetic ---
	case "addi", "slti", "sltiu", "xori", "ori", "andi":
		op := realIName[s.Mnemonic]
		return []rawInst{itype(op, a.reg(0), a.reg(1), a.imm12(2), pos)}
	case "slli", "srli", "srai":
		op := realIName[s.Mnemonic]
		return []rawInst{itype(op, a.reg(0), a.reg(1), a.shamt(2), pos)}

	// --- loads (imm(reg), or `lw rd, label` via auipc) ---
	case "lb", "lh", "lw", "lbu", "lhu":
		op := loadName[s.Mnemonic]
		rd := a.reg(0)
		if a.kind(1) == OperandLabel {
			label := a.label(1)
			return []rawInst{
				{Op: OpAUIPC, Rd: rd, Label: label, Use: labelHi20, Pos: pos},
				{Op: op, Rd: rd, Rs1: rd, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
			}
		}
		off, base := a.memOff(1)
		return []rawInst{{Op: op, Rd: rd, Rs1: base, Imm: int32(off), Pos: pos}}

	// --- stores (imm(reg), or `sw rs, label, tmp` via auipc) ---
	case "sb", "sh", "sw":
		op := storeName[s.Mnemonic]
		rs2 := a.reg(0)
		if a.kind(1) == OperandLabel {
			label := a.label(1)
			tmp := a.reg(2)
			return []rawInst{
				{Op: OpAUIPC, Rd: tmp, Label: label, Use: labelHi20, Pos: pos},
				{Op: op, Rs1: tmp, Rs2: rs2, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
			}
		}
		off, base := a.memOff(1)
		return []rawInst{{Op: op, Rs1: base, Rs2: rs2, Imm: int32(off), Pos: pos}}

	// --- branches (real 3-op forms) ---
	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		op := branchName[s.Mnemonic]
		return []rawInst{{Op: op, Rs1: a.reg(0), Rs2: a.reg(1), Label: a.label(2), Use: labelBranch, Pos: pos}}

	case "jal":
		if a.nargs() == 1 {
			return []rawInst{{Op: OpJAL, Rd: 1, Label: a.label(0), Use: labelJump, Pos: pos}}
		}
		return []rawInst{{Op: OpJAL, Rd: a.reg(0), Label: a.label(1), Use: labelJump, Pos: pos}}

	case "jalr":
		switch a.nargs() {
		case 1:
			return []rawInst{itype(OpJALR, 1, a.reg(0), 0, pos)}
		case 3:
			return []rawInst{itype(OpJALR, a.reg(0), a.reg(1), a.imm12(2), pos)}
		default:
			diag.Add(errAt(pos, "UnknownInstruction", "jalr takes 1 or 3 operands"))
			return nil
		}

	case "lui":
		return []rawInst{{Op: OpLUI, Rd: a.reg(0), Imm: int32(a.imm20(1)), Pos: pos}}
	case "auipc":
		return []rawInst{{Op: OpAUIPC, Rd: a.reg(0), Imm: int32(a.imm20(1)), Pos: pos}}

	case "ecall":
		return []rawInst{{Op: OpECALL, Pos: pos}}
	case "ebreak":
		return []rawInst{{Op: OpEBREAK, Pos: pos}}
	case "uret":
		return []rawInst{{Op: OpURET, Pos: pos}}

	case "csrrw":
		return []rawInst{itype(OpCSRRW, a.reg(0), a.reg(2), a.csrImm(1), pos)} // rd, csr, rs1
	case "csrrs":
		return []rawInst{itype(OpCSRRS, a.reg(0), a.reg(2), a.csrImm(1), pos)}
	case "csrrc":
		return []rawInst{itype(OpCSRRC, a.reg(0), a.reg(2), a.csrImm(1), pos)}
	case "csrrwi":
		return []rawInst{{Op: OpCSRRWI, Rd: a.reg(0), Imm: int32(a.csrImm(1)), Rs2: int(a.zimm(2)), Pos: pos}}
	case "csrrsi":
		return []rawInst{{Op: OpCSRRSI, Rd: a.reg(0), Imm: int32(a.csrImm(1)), Rs2: int(a.zimm(2)), Pos: pos}}
	case "csrrci":
		return []rawInst{{Op: OpCSRRCI, Rd: a.reg(0), Imm: int32(a.csrImm(1)), Rs2: int(a.zimm(2)), Pos: pos}}

	// --- F extension ---
	case "flw":
		rd := a.freg(0)
		if a.kind(1) == OperandLabel {
			// flw frd, label, tmp: the address rides through an
			// integer temporary, since frd cannot be an auipc base.
			label := a.label(1)
			tmp := a.reg(2)
			return []rawInst{
				{Op: OpAUIPC, Rd: tmp, Label: label, Use: labelHi20, Pos: pos},
				{Op: OpFLW, Rd: rd, Rs1: tmp, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
			}
		}
		off, base := a.memOff(1)
		return []rawInst{{Op: OpFLW, Rd: rd, Rs1: base, Imm: int32(off), Pos: pos}}
	case "fsw":
		rs2 := a.freg(0)
		if a.kind(1) == OperandLabel {
			label := a.label(1)
			tmp := a.reg(2)
			return []rawInst{
				{Op: OpAUIPC, Rd: tmp, Label: label, Use: labelHi20, Pos: pos},
				{Op: OpFSW, Rs1: tmp, Rs2: rs2, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
			}
		}
		off, base := a.memOff(1)
		return []rawInst{{Op: OpFSW, Rs1: base, Rs2: rs2, Imm: int32(off), Pos: pos}}
	case "fadd.s", "fsub.s", "fmul.s", "fdiv.s", "fmin.s", "fmax.s",
		"fsgnj.s", "fsgnjn.s", "fsgnjx.s":
		op := fRName[s.Mnemonic]
		return []rawInst{rtype(op, a.freg(0), a.freg(1), a.freg(2), pos)}
	case "fsqrt.s":
		return []rawInst{{Op: OpFSQRT_S, Rd: a.freg(0), Rs1: a.freg(1), Pos: pos}}
	case "feq.s", "flt.s", "fle.s":
		op := fCmpName[s.Mnemonic]
		return []rawInst{{Op: op, Rd: a.reg(0), Rs1: a.freg(1), Rs2: a.freg(2), Pos: pos}}
	case "fcvt.w.s":
		return []rawInst{{Op: OpFCVT_W_S, Rd: a.reg(0), Rs1: a.freg(1), Pos: pos}}
	case "fcvt.wu.s":
		return []rawInst{{Op: OpFCVT_WU_S, Rd: a.reg(0), Rs1: a.freg(1), Pos: pos}}
	case "fcvt.s.w":
		return []rawInst{{Op: OpFCVT_S_W, Rd: a.freg(0), Rs1: a.reg(1), Pos: pos}}
	case "fcvt.s.wu":
		return []rawInst{{Op: OpFCVT_S_WU, Rd: a.freg(0), Rs1: a.reg(1), Pos: pos}}
	case "fmv.x.w":
		return []rawInst{{Op: OpFMV_X_W, Rd: a.reg(0), Rs1: a.freg(1), Pos: pos}}
	case "fmv.w.x":
		return []rawInst{{Op: OpFMV_W_X, Rd: a.freg(0), Rs1: a.reg(1), Pos: pos}}
	case "fclass.s":
		return []rawInst{{Op: OpFCLASS_S, Rd: a.reg(0), Rs1: a.freg(1), Pos: pos}}

	// --- pseudo-instructions ---
	case "nop":
		return []rawInst{itype(OpADDI, 0, 0, 0, pos)}

	case "li":
		return expandLi(a.reg(0), a.imm(1), pos)

	case "la":
		return expandLa(a.reg(0), a.label(1), pos)

	case "mv":
		return []rawInst{itype(OpADDI, a.reg(0), a.reg(1), 0, pos)}
	case "not":
		return []rawInst{itype(OpXORI, a.reg(0), a.reg(1), -1, pos)}
	case "neg":
		return []rawInst{rtype(OpSUB, a.reg(0), 0, a.reg(1), pos)}
	case "seqz":
		return []rawInst{itype(OpSLTIU, a.reg(0), a.reg(1), 1, pos)}
	case "snez":
		return []rawInst{rtype(OpSLTU, a.reg(0), 0, a.reg(1), pos)}
	case "sltz":
		return []rawInst{rtype(OpSLT, a.reg(0), a.reg(1), 0, pos)}
	case "sgtz":
		return []rawInst{rtype(OpSLT, a.reg(0), 0, a.reg(1), pos)}

	case "beqz":
		return []rawInst{{Op: OpBEQ, Rs1: a.reg(0), Rs2: 0, Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "bnez":
		return []rawInst{{Op: OpBNE, Rs1: a.reg(0), Rs2: 0, Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "blez":
		return []rawInst{{Op: OpBGE, Rs1: 0, Rs2: a.reg(0), Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "bgez":
		return []rawInst{{Op: OpBGE, Rs1: a.reg(0), Rs2: 0, Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "bltz":
		return []rawInst{{Op: OpBLT, Rs1: a.reg(0), Rs2: 0, Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "bgtz":
		return []rawInst{{Op: OpBLT, Rs1: 0, Rs2: a.reg(0), Label: a.label(1), Use: labelBranch, Pos: pos}}
	case "bgt":
		return []rawInst{{Op: OpBLT, Rs1: a.reg(1), Rs2: a.reg(0), Label: a.label(2), Use: labelBranch, Pos: pos}}
	case "ble":
		return []rawInst{{Op: OpBGE, Rs1: a.reg(1), Rs2: a.reg(0), Label: a.label(2), Use: labelBranch, Pos: pos}}
	case "bgtu":
		return []rawInst{{Op: OpBLTU, Rs1: a.reg(1), Rs2: a.reg(0), Label: a.label(2), Use: labelBranch, Pos: pos}}
	case "bleu":
		return []rawInst{{Op: OpBGEU, Rs1: a.reg(1), Rs2: a.reg(0), Label: a.label(2), Use: labelBranch, Pos: pos}}

	case "j":
		return []rawInst{{Op: OpJAL, Rd: 0, Label: a.label(0), Use: labelJump, Pos: pos}}
	case "jr":
		return []rawInst{itype(OpJALR, 0, a.reg(0), 0, pos)}
	case "ret":
		return []rawInst{itype(OpJALR, 0, 1, 0, pos)}
	case "call":
		return expandCall(a.label(0), pos)

	case "csrr":
		return []rawInst{itype(OpCSRRS, a.reg(0), 0, a.csrImm(1), pos)}
	case "csrw":
		return []rawInst{itype(OpCSRRW, 0, a.reg(1), a.csrImm(0), pos)}
	case "csrs":
		return []rawInst{itype(OpCSRRS, 0, a.reg(1), a.csrImm(0), pos)}
	case "csrc":
		return []rawInst{itype(OpCSRRC, 0, a.reg(1), a.csrImm(0), pos)}
	case "csrwi":
		return []rawInst{{Op: OpCSRRWI, Rd: 0, Imm: int32(a.csrImm(0)), Rs2: int(a.zimm(1)), Pos: pos}}
	case "csrsi":
		return []rawInst{{Op: OpCSRRSI, Rd: 0, Imm: int32(a.csrImm(0)), Rs2: int(a.zimm(1)), Pos: pos}}
	case "csrci":
		return []rawInst{{Op: OpCSRRCI, Rd: 0, Imm: int32(a.csrImm(0)), Rs2: int(a.zimm(1)), Pos: pos}}

	default:
		diag.Add(errUnknownInstruction(pos, s.Mnemonic))
		return nil
	}
}

var realRName = map[string]Op{
	"add": OpADD, "sub": OpSUB, "sll": OpSLL, "slt": OpSLT, "sltu": OpSLTU,
	"xor": OpXOR, "srl": OpSRL, "sra": OpSRA, "or": OpOR, "and": OpAND,
	"mul": OpMUL, "mulh": OpMULH, "mulhsu": OpMULHSU, "mulhu": OpMULHU,
	"div": OpDIV, "divu": OpDIVU, "rem": OpREM, "remu": OpREMU,
}

var realIName = map[string]Op{
	"addi": OpADDI, "slti": OpSLTI, "sltiu": OpSLTIU, "xori": OpXORI, "ori": OpORI,
	"andi": OpANDI, "slli": OpSLLI, "srli": OpSRLI, "srai": OpSRAI,
}

var loadName = map[string]Op{"lb": OpLB, "lh": OpLH, "lw": OpLW, "lbu": OpLBU, "lhu": OpLHU}
var storeName = map[string]Op{"sb": OpSB, "sh": OpSH, "sw": OpSW}
var branchName = map[string]Op{
	"beq": OpBEQ, "bne": OpBNE, "blt": OpBLT, "bge": OpBGE, "bltu": OpBLTU, "bgeu": OpBGEU,
}
var fRName = map[string]Op{
	"fadd.s": OpFADD_S, "fsub.s": OpFSUB_S, "fmul.s": OpFMUL_S, "fdiv.s": OpFDIV_S,
	"fmin.s": OpFMIN_S, "fmax.s": OpFMAX_S,
	"fsgnj.s": OpFSGNJ_S, "fsgnjn.s": OpFSGNJN_S, "fsgnjx.s": OpFSGNJX_S,
}
var fCmpName = map[string]Op{"feq.s": OpFEQ_S, "flt.s": OpFLT_S, "fle.s": OpFLE_S}

// expandLi implements li: addi when the value fits in 12 signed bits,
// else lui+addi with a hi20/lo12 split that reconstructs the exact
// 32-bit value.
func expandLi(rd int, imm64 int64, pos token.Pos) []rawInst {
	v := int32(imm64)
	if imm64 >= -(1<<11) && imm64 <= (1<<11)-1 {
		return []rawInst{itype(OpADDI, rd, 0, imm64, pos)}
	}
	hi20, lo12 := bits.SplitUpperLower(v)
	return []rawInst{
		{Op: OpLUI, Rd: rd, Imm: int32(hi20), Pos: pos},
		{Op: OpADDI, Rd: rd, Rs1: rd, Imm: bits.SignExtend(lo12, 12), Pos: pos},
	}
}

// expandLa implements la: auipc+addi, both halves carrying a symbolic
// reference to label resolved relative to the auipc's own PC.
func expandLa(rd int, label string, pos token.Pos) []rawInst {
	return []rawInst{
		{Op: OpAUIPC, Rd: rd, Label: label, Use: labelHi20, PCAnchor: 0, Pos: pos},
		{Op: OpADDI, Rd: rd, Rs1: rd, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
	}
}

// expandCall implements call label -> auipc ra,hi20; jalr ra,ra,lo12.
func expandCall(label string, pos token.Pos) []rawInst {
	return []rawInst{
		{Op: OpAUIPC, Rd: 1, Label: label, Use: labelHi20, PCAnchor: 0, Pos: pos},
		{Op: OpJALR, Rd: 1, Rs1: 1, Label: label, Use: labelLo12, PCAnchor: -1, Pos: pos},
	}
}
