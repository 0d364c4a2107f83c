package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/asm"
)

func assembleOne(t *testing.T, src string) *asm.Program {
	t.Helper()
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: src}}, nil)
	require.NoError(t, err)
	require.NotNil(t, prog)
	return prog
}

func TestAssembleHelloWorld(t *testing.T) {
	// li a7, 4 (PrintString); la a0, msg; ecall; li a7, 10 (Exit); ecall
	src := `
.data
msg: .string "hi"
.text
li a7, 4
la a0, msg
ecall
li a7, 10
ecall
`
	prog := assembleOne(t, src)
	require.Equal(t, []byte("hi\x00"), prog.Data)
	require.Equal(t, uint32(asm.DefaultDataBase), prog.Labels["msg"])

	require.Len(t, prog.Text, 6) // li is one insn, la expands to two
	assert.Equal(t, asm.OpADDI, prog.Text[0].Op)
	assert.Equal(t, 17, prog.Text[0].Rd) // a7
	assert.Equal(t, int32(4), prog.Text[0].Imm)

	assert.Equal(t, asm.OpAUIPC, prog.Text[1].Op)
	assert.Equal(t, asm.OpADDI, prog.Text[2].Op)
	assert.Equal(t, 10, prog.Text[2].Rd) // a0

	// The auipc+addi pair must reconstruct the exact address of msg.
	pcAuipc := prog.TextAddr(1)
	reconstructed := int32(pcAuipc) + prog.Text[1].Imm<<12 + prog.Text[2].Imm
	assert.Equal(t, int32(prog.Labels["msg"]), reconstructed)

	assert.Equal(t, asm.OpECALL, prog.Text[3].Op)
	assert.Equal(t, asm.OpADDI, prog.Text[4].Op)
	assert.Equal(t, int32(10), prog.Text[4].Imm)
	assert.Equal(t, asm.OpECALL, prog.Text[5].Op)
}

func TestAssembleBranchLoop(t *testing.T) {
	src := `
.text
li t0, 0
loop:
addi t0, t0, 1
blt t0, a0, loop
ecall
`
	prog := assembleOne(t, src)
	// li -> 1 insn, then addi, blt, ecall = 4 total
	require.Len(t, prog.Text, 4)

	blt := prog.Text[2]
	assert.Equal(t, asm.OpBLT, blt.Op)
	// loop: is the addi at index 1; branch is at index 2, so offset is -4.
	assert.Equal(t, int32(-4), blt.Imm)
	assert.Equal(t, int32(1), blt.Target)
}

func TestAssembleCallRet(t *testing.T) {
	src := `
.text
call fn
li a7, 10
ecall
fn:
addi a0, a0, 1
ret
`
	prog := assembleOne(t, src)
	// call -> auipc+jalr (2), li (1), ecall (1), addi (1), jalr/ret (1) = 6
	require.Len(t, prog.Text, 6)
	assert.Equal(t, asm.OpAUIPC, prog.Text[0].Op)
	assert.Equal(t, asm.OpJALR, prog.Text[1].Op)
	assert.Equal(t, 1, prog.Text[1].Rd) // ra

	fnAddr := prog.Labels["fn"]
	pcAuipc := prog.TextAddr(0)
	reconstructed := int32(pcAuipc) + prog.Text[0].Imm<<12 + prog.Text[1].Imm
	assert.Equal(t, int32(fnAddr), reconstructed)
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: "j nowhere\n"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UndefinedLabel")
}

func TestAssembleDuplicateLabel(t *testing.T) {
	src := "a: nop\na: nop\n"
	_, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: src}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DuplicateLabel")
}

func TestAssembleUnknownInstruction(t *testing.T) {
	_, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: "frobnicate a0\n"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UnknownInstruction")
}

func TestAssembleDataDirectives(t *testing.T) {
	src := `
.data
vals: .word 1, 2, 3
flag: .byte 0xff
pad: .align 2
.text
nop
`
	prog := assembleOne(t, src)
	require.Equal(t, uint32(0), prog.Labels["vals"]-asm.DefaultDataBase)
	assert.Equal(t, uint32(12), prog.Labels["flag"]-asm.DefaultDataBase)
	assert.Equal(t, uint32(13), prog.Labels["pad"]-asm.DefaultDataBase)
	assert.Equal(t, 16, len(prog.Data)) // padded to a multiple of 4
}

func TestAssembleMultipleSourcesShareLabelTable(t *testing.T) {
	main := `
.text
call helper
li a7, 10
ecall
`
	lib := `
.text
helper:
addi a0, a0, 1
ret
`
	prog, err := asm.Assemble([]asm.Source{
		{Name: "main.s", Text: main},
		{Name: "lib.s", Text: lib},
	}, nil)
	require.NoError(t, err)

	// call (2) + li (1) + ecall (1) from main.s, then addi + ret from lib.s.
	require.Len(t, prog.Text, 6)
	assert.Equal(t, prog.TextAddr(4), prog.Labels["helper"])
}

func TestAssembleImmediateOutOfRange(t *testing.T) {
	for _, src := range []string{
		"addi a0, a0, 5000\n",
		"slli a0, a0, 33\n",
		"lw t0, 4096(sp)\n",
		"csrwi ustatus, 32\n",
	} {
		_, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: src}}, nil)
		require.Error(t, err, "source %q", src)
		assert.Contains(t, err.Error(), "ImmediateOutOfRange", "source %q", src)
	}
}

func TestAssembleLoadStoreLabelForms(t *testing.T) {
	src := `
.data
val: .word 7
.text
lw t0, val
sw t0, val, t1
li a7, 10
ecall
`
	prog := assembleOne(t, src)
	// lw -> auipc+lw, sw -> auipc+sw, li, ecall = 6.
	require.Len(t, prog.Text, 6)
	assert.Equal(t, asm.OpAUIPC, prog.Text[0].Op)
	assert.Equal(t, asm.OpLW, prog.Text[1].Op)
	assert.Equal(t, asm.OpAUIPC, prog.Text[2].Op)
	assert.Equal(t, asm.OpSW, prog.Text[3].Op)

	// Both auipc+lo12 pairs must reconstruct val's exact address.
	for _, pair := range [][2]int{{0, 1}, {2, 3}} {
		pc := prog.TextAddr(pair[0])
		got := int32(pc) + prog.Text[pair[0]].Imm<<12 + prog.Text[pair[1]].Imm
		assert.Equal(t, int32(prog.Labels["val"]), got)
	}
}

func TestAssembleLabelAtEndOfText(t *testing.T) {
	src := `
.text
li t0, 100000
j end
end:
`
	prog := assembleOne(t, src)
	// li expands to lui+addi here, so `end` must account for that.
	assert.Equal(t, prog.TextAddr(len(prog.Text)), prog.Labels["end"])
}
