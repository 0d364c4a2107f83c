package asm

import "fpgrars/internal/bits"

// Layout assigns each concrete instruction its final text address,
// merges data and text labels into one address space, and resolves
// every symbolic Label reference left by Expand into a concrete
// Imm/Target pair. It is the second and last pass over the program;
// nothing past this point consults source positions for anything but
// diagnostics.
func Layout(insts []rawInst, stmtFirstInst []int, pr *ParseResult, textBase uint32, diag *Diagnostics) *Program {
	labels := make(map[string]uint32, len(pr.DataLabels)+len(pr.TextLabelIdx))
	for name, addr := range pr.DataLabels {
		labels[name] = addr
	}
	for name, stmtIdx := range pr.TextLabelIdx {
		// A label on the last line of the program points past the final
		// statement; it resolves to the end of text.
		idx := len(insts)
		if stmtIdx < len(stmtFirstInst) {
			idx = stmtFirstInst[stmtIdx]
		}
		labels[name] = textBase + uint32(idx)*4
	}

	text := make([]Inst, len(insts))
	for i, ri := range insts {
		text[i] = resolveInst(ri, i, textBase, labels, diag)
	}

	return &Program{
		Text:     text,
		Data:     pr.Data,
		Labels:   labels,
		DataBase: 0,
		TextBase: textBase,
	}
}

func resolveInst(ri rawInst, idx int, textBase uint32, labels map[string]uint32, diag *Diagnostics) Inst {
	out := Inst{
		Op:     ri.Op,
		Rd:     ri.Rd,
		Rs1:    ri.Rs1,
		Rs2:    ri.Rs2,
		Imm:    ri.Imm,
		Target: -1,
		Pos:    ri.Pos,
	}
	if ri.Use == labelNone {
		return out
	}

	addr, ok := labels[ri.Label]
	if !ok {
		diag.Add(errUndefinedLabel(ri.Pos, ri.Label))
		return out
	}

	selfAddr := textBase + uint32(idx+ri.PCAnchor)*4

	switch ri.Use {
	case labelBranch:
		offset := int64(int32(addr) - int32(selfAddr))
		if !bits.FitsSigned(offset, 13) {
			diag.Add(errBranchOutOfRange(ri.Pos, ri.Label))
			return out
		}
		out.Imm = int32(offset)
		out.Target = int32((addr - textBase) / 4)

	case labelJump:
		offset := int64(int32(addr) - int32(selfAddr))
		if !bits.FitsSigned(offset, 21) {
			diag.Add(errBranchOutOfRange(ri.Pos, ri.Label))
			return out
		}
		out.Imm = int32(offset)
		out.Target = int32((addr - textBase) / 4)

	case labelHi20:
		diff := int32(addr) - int32(selfAddr)
		hi20, _ := bits.SplitUpperLower(diff)
		out.Imm = int32(hi20)

	case labelLo12:
		diff := int32(addr) - int32(selfAddr)
		_, lo12 := bits.SplitUpperLower(diff)
		out.Imm = bits.SignExtend(lo12, 12)
	}

	return out
}
