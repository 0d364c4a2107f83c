// Package debug implements the --print-instructions/--print-state
// dumps (the state dump covers RV32IMF's 32 integer registers, 32
// float registers, the implemented CSRs, and a segmented memory
// summary) and the interactive step debugger: a bubbletea+lipgloss
// inspector showing the PC, the 32 integer registers, and the decoded
// instruction at PC. The debugger does not show float registers, CSRs,
// or memory.
package debug

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"fpgrars/internal/asm"
	"fpgrars/internal/vm"
)

// DumpInstructions renders one line per decoded record (text address,
// mnemonic, operands, and the resolved target for control transfers)
// for --print-instructions.
func DumpInstructions(prog *asm.Program) string {
	var b strings.Builder
	for i, inst := range prog.Text {
		addr := prog.TextAddr(i)
		fmt.Fprintf(&b, "%08x: %-8s %s\n", addr, inst.Op, operandString(inst))
		if inst.Target >= 0 {
			fmt.Fprintf(&b, "%8s  -> %08x\n", "", prog.TextAddr(int(inst.Target)))
		}
	}
	return b.String()
}

func operandString(inst asm.Inst) string {
	return fmt.Sprintf("rd=x%d rs1=x%d rs2=x%d imm=%d", inst.Rd, inst.Rs1, inst.Rs2, inst.Imm)
}

var intRegDumpNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// DumpState renders all 32 integer registers, all 32 float registers,
// the implemented CSRs, and a heap/stack/data-segment summary, for
// --print-state.
func DumpState(v *vm.VM) string {
	var b strings.Builder

	fmt.Fprintf(&b, "pc      = 0x%08x\n", v.PC())
	fmt.Fprintln(&b, "\nintegers:")
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&b, "  x%-2d %-5s = 0x%08x (%d)\n", i, intRegDumpNames[i], v.Int.Get(i), int32(v.Int.Get(i)))
	}

	fmt.Fprintln(&b, "\nfloats:")
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&b, "  f%-2d = %g\n", i, v.Float.GetFloat(i))
	}

	fmt.Fprintln(&b, "\ncsrs:")
	fmt.Fprintf(&b, "  time     = %d\n", v.ElapsedMillis())
	fmt.Fprintf(&b, "  uscratch = 0x%08x\n", v.CSR.Uscratch)
	fmt.Fprintf(&b, "  utvec    = 0x%08x\n", v.CSR.Utvec)
	fmt.Fprintf(&b, "  uepc     = 0x%08x\n", v.CSR.Uepc)
	fmt.Fprintf(&b, "  ucause   = %d\n", v.CSR.Ucause)
	fmt.Fprintf(&b, "  utval    = 0x%08x\n", v.CSR.Utval)
	fmt.Fprintf(&b, "  ustatus  = 0x%08x\n", v.CSR.Ustatus)

	s := v.Mem.Summary()
	fmt.Fprintln(&b, "\nmemory:")
	fmt.Fprintf(&b, "  data  [0x%08x, 0x%08x)\n", s.DataBase, s.DataTop)
	fmt.Fprintf(&b, "  heap  [0x%08x, 0x%08x) (break)\n", s.HeapBase, s.HeapBreak)
	fmt.Fprintf(&b, "  stack [0x%08x, 0x%08x]\n", s.StackBase, s.StackTop)

	if v.Terminated {
		fmt.Fprintf(&b, "\nterminated: %s\n", v.TerminationReason)
	} else if v.Exited {
		fmt.Fprintf(&b, "\nexited: code %d\n", v.ExitCode)
	}

	return b.String()
}

// SdumpInstruction renders a single decoded record with go-spew, used
// by the interactive debugger's detail pane rather than the
// plain-text DumpInstructions table.
func SdumpInstruction(inst asm.Inst) string {
	return spew.Sdump(inst)
}
