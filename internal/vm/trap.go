package vm

import "fmt"

// Cause identifies why an instruction trapped. Division by zero is not
// among them: RISC-V defines it as a silent result substitution rather
// than a fault (see execDIV/execREM).
type Cause int

const (
	CauseInstructionMisaligned Cause = iota
	CauseIllegalInstruction
	CauseLoadMisaligned
	CauseLoadAccessFault
	CauseStoreMisaligned
	CauseStoreAccessFault
	CauseIllegalEcall
)

var causeNames = map[Cause]string{
	CauseInstructionMisaligned: "InstructionMisaligned",
	CauseIllegalInstruction:    "IllegalInstruction",
	CauseLoadMisaligned:        "LoadMisaligned",
	CauseLoadAccessFault:       "LoadAccessFault",
	CauseStoreMisaligned:       "StoreMisaligned",
	CauseStoreAccessFault:      "StoreAccessFault",
	CauseIllegalEcall:          "IllegalEcall",
}

func (c Cause) String() string {
	if n, ok := causeNames[c]; ok {
		return n
	}
	return "UnknownCause"
}

// Trap is a runtime fault. PC is the faulting instruction's text
// address, Val is the cause-specific faulting value (the bad address
// for misalignment/access faults, the a7 value for IllegalEcall, the
// raw opcode tag for IllegalInstruction, or the CSR tag when an
// unknown CSR caused it).
type Trap struct {
	Cause Cause
	PC    uint32
	Val   uint32
}

func (t *Trap) Error() string {
	return fmt.Sprintf("trap %s at pc=0x%08x (val=0x%08x)", t.Cause, t.PC, t.Val)
}

// deliverTrap records the fault in the uXXX CSRs, then either vectors
// to the installed handler or terminates the run.
func (v *VM) deliverTrap(t *Trap) {
	v.CSR.Uepc = t.PC
	v.CSR.Ucause = uint32(t.Cause)
	v.CSR.Utval = t.Val

	if v.CSR.Utvec != 0 && v.CSR.TrapDelegationEnabled() {
		if idx := v.Prog.IndexForAddr(v.CSR.Utvec); idx >= 0 {
			v.pcIndex = idx
			v.trapRedirected = true
			return
		}
	}

	v.Terminated = true
	v.TerminationReason = t.Error()
}
