package vm

import (
	"time"

	"fpgrars/internal/asm"
	"fpgrars/internal/mem"
)

// asyncPollInterval is how often (in executed instructions) the
// executor polls for cancellation between otherwise uninterruptible
// instruction dispatch.
const asyncPollInterval = 256

// EcallHandler dispatches ecall (a7 names the service) against vm,
// mutating registers/memory as that service requires. It returns a
// non-nil *Trap for an unrecognized a7 or for a memory fault while the
// service reads or writes program memory; internal/ecall implements
// this to keep vm free of any dependency on I/O, device, or randomness
// concerns.
type EcallHandler func(v *VM) *Trap

// VM is the complete mutable execution state the dispatch loop operates
// on: the two register files, the CSRs, and a pointer to the Memory and
// the immutable Program it is stepping through.
type VM struct {
	Int   IntRegs
	Float FloatRegs
	CSR   CSRFile

	Mem  *mem.Memory
	Prog *asm.Program

	pcIndex int

	// trapRedirected is set by deliverTrap when it vectors pcIndex to an
	// installed handler, so Step knows not to overwrite that redirect
	// with the instruction's normal fall-through address.
	trapRedirected bool

	start time.Time

	Exited            bool
	ExitCode          int
	Terminated        bool
	TerminationReason string

	Ecall EcallHandler

	// Cancel, if non-nil, is polled every asyncPollInterval instructions;
	// closing it requests the run loop stop at the next poll point.
	Cancel <-chan struct{}
}

// New creates a VM positioned at the program's entry point (text index
// 0, i.e. the first assembled instruction).
func New(prog *asm.Program, m *mem.Memory, ecall EcallHandler) *VM {
	v := &VM{
		Prog:  prog,
		Mem:   m,
		Ecall: ecall,
		start: time.Now(),
	}
	v.Int.Set(2, mem.StackTop&^0xf) // sp, 16-byte aligned per the usual RISC-V ABI convention
	return v
}

// ElapsedMillis is the clock the time/timeh CSRs and the Time ecall
// both read: milliseconds since process start rather than wall-clock
// epoch, so runs are reproducible across timezones and host clock
// adjustments.
func (v *VM) ElapsedMillis() uint64 {
	return uint64(time.Since(v.start).Milliseconds())
}

// PC returns the current instruction's byte address.
func (v *VM) PC() uint32 { return v.Prog.TextAddr(v.pcIndex) }

// Halted reports whether the run loop should stop: the program exited,
// trapped with no handler, or ran off the end of the text segment.
func (v *VM) Halted() bool {
	return v.Exited || v.Terminated || v.pcIndex < 0 || v.pcIndex >= len(v.Prog.Text)
}

// Run steps the VM until Halted, polling Cancel every asyncPollInterval
// instructions.
func (v *VM) Run() {
	n := 0
	for !v.Halted() {
		v.Step()
		n++
		if n%asyncPollInterval == 0 && v.Cancel != nil {
			select {
			case <-v.Cancel:
				v.Terminated = true
				v.TerminationReason = "cancelled"
				return
			default:
			}
		}
	}
}

// Step executes exactly one instruction: fetch the decoded record at
// the current PC index, execute it, and advance PC by 4 unless the
// instruction (a branch, jump, or trap) overrides that.
func (v *VM) Step() {
	inst := v.Prog.Text[v.pcIndex]
	fn, ok := dispatch[inst.Op]
	if !ok {
		v.deliverTrap(&Trap{Cause: CauseIllegalInstruction, PC: v.PC(), Val: uint32(inst.Op)})
		return
	}

	next := v.pcIndex + 1
	v.trapRedirected = false
	branch := fn(v, inst)
	if v.Terminated || v.Exited {
		return
	}
	if v.trapRedirected {
		// deliverTrap already pointed pcIndex at the handler; the
		// exec func's own return value (if any) described the
		// fall-through it never took.
		return
	}
	if branch >= 0 {
		v.pcIndex = branch
	} else {
		v.pcIndex = next
	}
}

// RequestExit implements the Exit ecall (a7=10,110): the program's a0
// becomes the process exit code, truncated modulo 256.
func (v *VM) RequestExit(code int) {
	v.Exited = true
	v.ExitCode = code & 0xff
}
