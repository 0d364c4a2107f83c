package debug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/asm"
	"fpgrars/internal/debug"
	"fpgrars/internal/mem"
	"fpgrars/internal/vm"
)

func TestDumpInstructionsListsOpcodesAndTargets(t *testing.T) {
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: `
.text
L: addi a0, a0, 1
j L
`}}, nil)
	require.NoError(t, err)

	out := debug.DumpInstructions(prog)
	assert.Contains(t, out, "addi")
	assert.Contains(t, out, "jal")
	assert.Contains(t, out, "->")
}

func TestDumpStateShowsRegistersAndMemorySummary(t *testing.T) {
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: `
.text
li a0, 42
li a7, 10
ecall
`}}, nil)
	require.NoError(t, err)

	m := mem.New(prog.Data, nil)
	machine := vm.New(prog, m, func(v *vm.VM) *vm.Trap {
		if v.Int.Get(17) == 10 {
			v.RequestExit(int(v.Int.Get(10)))
		}
		return nil
	})
	machine.Run()

	out := debug.DumpState(machine)
	assert.Contains(t, out, "a0")
	assert.Contains(t, out, "0x0000002a")
	assert.Contains(t, out, "exited: code 42")
	assert.Contains(t, out, "stack [")
}
