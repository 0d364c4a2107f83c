// Package vm implements the integer and floating-point register files,
// the control/status registers, and the fetch-decode-execute dispatch
// loop that runs an *asm.Program against an *mem.Memory.
//
// State lives in one struct holding all mutable execution state, with a
// dispatch table keyed by a dense opcode tag rather than a type switch,
// and small per-instruction functions operating on that struct.
package vm

import (
	"math"

	"fpgrars/internal/csr"
)

// IntRegs is the 32-entry integer register file. x0 is hardwired to
// zero: writes are discarded, reads always yield 0.
type IntRegs [32]uint32

func (r *IntRegs) Get(i int) uint32 { return r[i] }

func (r *IntRegs) Set(i int, v uint32) {
	if i == 0 {
		return
	}
	r[i] = v
}

// FloatRegs is the 32-entry float register file. Storage is untyped bit
// patterns, interpreted as IEEE-754 singles by the instructions that
// use them; GetFloat/SetFloat convert, GetBits/SetBits pass bit
// patterns through unchanged (needed by fmv.x.w and fmv.w.x, which must
// not round-trip through a float comparison).
type FloatRegs [32]uint32

func (r *FloatRegs) GetBits(i int) uint32  { return r[i] }
func (r *FloatRegs) SetBits(i int, v uint32) { r[i] = v }

func (r *FloatRegs) GetFloat(i int) float32 {
	return math.Float32frombits(r[i])
}

func (r *FloatRegs) SetFloat(i int, v float32) {
	r[i] = math.Float32bits(v)
}

// miscRV32IMF identifies RV32IMF in the encoding misa uses in real
// RISC-V (bits I, M, F set, MXL=1 for 32-bit): used only so programs
// that read misa to detect float availability see a plausible value.
const miscRV32IMF = 1<<30 | 1<<8 /*I*/ | 1<<12 /*M*/ | 1<<5 /*F*/

// CSRFile holds the CSRs a program may read/write by name. Writable
// CSRs are plain words; Time/Timeh/Misa are computed/constant and
// ignore writes.
type CSRFile struct {
	Uscratch uint32
	Utvec    uint32
	Uepc     uint32
	Ucause   uint32
	Utval    uint32
	Ustatus  uint32
}

// ustatusTrapDelegationBit is the bit of ustatus a program sets to opt
// in to trap delegation: with it set and utvec non-zero, a fault
// vectors to the handler at utvec instead of terminating the run.
const ustatusTrapDelegationBit = 1

func (f *CSRFile) TrapDelegationEnabled() bool {
	return f.Ustatus&ustatusTrapDelegationBit != 0
}

// GetCSR reads a CSR by tag. Time/Timeh are computed from the VM's
// clock and Misa is a build-time constant; both ignore writes in
// SetCSR. ok is false for any tag outside the implemented set (reached
// only through a bare-immediate CSR operand the assembler could not
// resolve to a known name), which the caller must turn into an
// IllegalInstruction trap rather than silently reading 0.
func (v *VM) GetCSR(tag csr.CSR) (val uint32, ok bool) {
	switch tag {
	case csr.Time:
		return uint32(v.ElapsedMillis()), true
	case csr.Timeh:
		return uint32(v.ElapsedMillis() >> 32), true
	case csr.Uscratch:
		return v.CSR.Uscratch, true
	case csr.Utvec:
		return v.CSR.Utvec, true
	case csr.Uepc:
		return v.CSR.Uepc, true
	case csr.Ucause:
		return v.CSR.Ucause, true
	case csr.Utval:
		return v.CSR.Utval, true
	case csr.Ustatus:
		return v.CSR.Ustatus, true
	case csr.Misa:
		return miscRV32IMF, true
	default:
		return 0, false
	}
}

// SetCSR writes a CSR by tag. Time/Timeh/Misa accept the write but
// ignore it. ok is false for any tag outside the implemented set, the
// same condition GetCSR reports.
func (v *VM) SetCSR(tag csr.CSR, val uint32) (ok bool) {
	switch tag {
	case csr.Uscratch:
		v.CSR.Uscratch = val
	case csr.Utvec:
		v.CSR.Utvec = val
	case csr.Uepc:
		v.CSR.Uepc = val
	case csr.Ucause:
		v.CSR.Ucause = val
	case csr.Utval:
		v.CSR.Utval = val
	case csr.Ustatus:
		v.CSR.Ustatus = val
	case csr.Time, csr.Timeh, csr.Misa:
		// read-only; the write is accepted but has no effect
	default:
		return false
	}
	return true
}
