package vm

import "fpgrars/internal/asm"

// execFunc is one instruction's semantics: one small function per
// instruction, looked up through a map rather than a type switch. It
// returns the next text index to jump to, or -1 to advance to the
// following instruction.
type execFunc func(v *VM, i asm.Inst) int

var dispatch = map[asm.Op]execFunc{
	asm.OpADD: execADD, asm.OpSUB: execSUB, asm.OpSLL: execSLL,
	asm.OpSLT: execSLT, asm.OpSLTU: execSLTU, asm.OpXOR: execXOR,
	asm.OpSRL: execSRL, asm.OpSRA: execSRA, asm.OpOR: execOR, asm.OpAND: execAND,

	asm.OpADDI: execADDI, asm.OpSLTI: execSLTI, asm.OpSLTIU: execSLTIU,
	asm.OpXORI: execXORI, asm.OpORI: execORI, asm.OpANDI: execANDI,
	asm.OpSLLI: execSLLI, asm.OpSRLI: execSRLI, asm.OpSRAI: execSRAI,

	asm.OpLB: execLB, asm.OpLH: execLH, asm.OpLW: execLW,
	asm.OpLBU: execLBU, asm.OpLHU: execLHU,
	asm.OpSB: execSB, asm.OpSH: execSH, asm.OpSW: execSW,

	asm.OpBEQ: execBEQ, asm.OpBNE: execBNE, asm.OpBLT: execBLT,
	asm.OpBGE: execBGE, asm.OpBLTU: execBLTU, asm.OpBGEU: execBGEU,

	asm.OpJAL: execJAL, asm.OpJALR: execJALR,
	asm.OpLUI: execLUI, asm.OpAUIPC: execAUIPC,

	asm.OpECALL: execECALL, asm.OpEBREAK: execEBREAK, asm.OpURET: execURET,
	asm.OpCSRRW: execCSRRW, asm.OpCSRRS: execCSRRS, asm.OpCSRRC: execCSRRC,
	asm.OpCSRRWI: execCSRRWI, asm.OpCSRRSI: execCSRRSI, asm.OpCSRRCI: execCSRRCI,

	asm.OpMUL: execMUL, asm.OpMULH: execMULH, asm.OpMULHSU: execMULHSU, asm.OpMULHU: execMULHU,
	asm.OpDIV: execDIV, asm.OpDIVU: execDIVU, asm.OpREM: execREM, asm.OpREMU: execREMU,

	asm.OpFLW: execFLW, asm.OpFSW: execFSW,
	asm.OpFADD_S: execFADD_S, asm.OpFSUB_S: execFSUB_S,
	asm.OpFMUL_S: execFMUL_S, asm.OpFDIV_S: execFDIV_S, asm.OpFSQRT_S: execFSQRT_S,
	asm.OpFMIN_S: execFMIN_S, asm.OpFMAX_S: execFMAX_S,
	asm.OpFEQ_S: execFEQ_S, asm.OpFLT_S: execFLT_S, asm.OpFLE_S: execFLE_S,
	asm.OpFCVT_W_S: execFCVT_W_S, asm.OpFCVT_WU_S: execFCVT_WU_S,
	asm.OpFCVT_S_W: execFCVT_S_W, asm.OpFCVT_S_WU: execFCVT_S_WU,
	asm.OpFMV_X_W: execFMV_X_W, asm.OpFMV_W_X: execFMV_W_X,
	asm.OpFSGNJ_S: execFSGNJ_S, asm.OpFSGNJN_S: execFSGNJN_S, asm.OpFSGNJX_S: execFSGNJX_S,
	asm.OpFCLASS_S: execFCLASS_S,
}
