package ecall_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/asm"
	"fpgrars/internal/ecall"
	"fpgrars/internal/mem"
	"fpgrars/internal/vm"
)

func run(t *testing.T, src string, stdin string) (*vm.VM, *bytes.Buffer) {
	t.Helper()
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: src}}, nil)
	require.NoError(t, err)
	m := mem.New(prog.Data, nil)
	var out bytes.Buffer
	h := ecall.New(&out, &out, strings.NewReader(stdin), nil, nil)
	machine := vm.New(prog, m, h.Dispatch)
	machine.Run()
	return machine, &out
}

func TestHelloWorld(t *testing.T) {
	src := `
.data
hello: .string "Hello World!\n"
.text
li a7, 4
la a0, hello
ecall
li a7, 10
li a0, 0
ecall
`
	machine, out := run(t, src, "")
	assert.True(t, machine.Exited)
	assert.Equal(t, 0, machine.ExitCode)
	assert.Equal(t, "Hello World!\n", out.String())
}

func TestPrintIntAndChar(t *testing.T) {
	src := `
.text
li a7, 1
li a0, -42
ecall
li a7, 11
li a0, '\n'
ecall
li a7, 10
ecall
`
	_, out := run(t, src, "")
	assert.Equal(t, "-42\n", out.String())
}

func TestPrintHexAndUnsigned(t *testing.T) {
	src := `
.text
li a7, 34
li a0, 255
ecall
li a7, 36
li a0, -1
ecall
li a7, 10
ecall
`
	_, out := run(t, src, "")
	assert.Equal(t, "0x000000ff4294967295", out.String())
}

func TestSbrkGrowsHeapAndIsAddressable(t *testing.T) {
	src := `
.text
li a7, 9
li a0, 4
ecall
li t0, 0x1234
sw t0, 0(a0)
lw t1, 0(a0)
li a7, 10
ecall
`
	machine, _ := run(t, src, "")
	assert.Equal(t, uint32(0x1234), machine.Int.Get(6))
}

func TestReadIntBlocksOnStdin(t *testing.T) {
	src := `
.text
li a7, 5
ecall
li a7, 10
ecall
`
	machine, _ := run(t, src, "123\n")
	assert.Equal(t, uint32(123), machine.Int.Get(10))
}

func TestExitCodeTruncatedModulo256(t *testing.T) {
	src := `
.text
li a7, 10
li a0, 300
ecall
`
	machine, _ := run(t, src, "")
	assert.Equal(t, 300&0xff, machine.ExitCode)
}

func TestExitAliasOneHundredTen(t *testing.T) {
	src := `
.text
li a7, 110
li a0, 7
ecall
`
	machine, _ := run(t, src, "")
	assert.True(t, machine.Exited)
	assert.Equal(t, 7, machine.ExitCode)
}

func TestUnknownEcallTraps(t *testing.T) {
	src := `
.text
li a7, 999
ecall
`
	machine, _ := run(t, src, "")
	assert.True(t, machine.Terminated)
	assert.Equal(t, vm.CauseIllegalEcall, vm.Cause(machine.CSR.Ucause))
}

type stubDisplay struct {
	frame int
	color byte
	calls int
}

func (d *stubDisplay) Clear(frame int, color byte) {
	d.frame, d.color = frame, color
	d.calls++
}

func TestClearScreenRoutesToDisplay(t *testing.T) {
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: `
.text
li a7, 48
li a0, 7
li a1, 1
ecall
li a7, 10
ecall
`}}, nil)
	require.NoError(t, err)
	m := mem.New(prog.Data, nil)
	display := &stubDisplay{}
	var out bytes.Buffer
	h := ecall.New(&out, &out, strings.NewReader(""), display, nil)
	machine := vm.New(prog, m, h.Dispatch)
	machine.Run()
	assert.True(t, machine.Exited)
	assert.Equal(t, 1, display.calls)
	assert.Equal(t, 1, display.frame)
	assert.Equal(t, byte(7), display.color)
}

func TestClearScreenAliasOneFortyEight(t *testing.T) {
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: `
.text
li a7, 148
li a0, 3
li a1, 0
ecall
`}}, nil)
	require.NoError(t, err)
	m := mem.New(prog.Data, nil)
	display := &stubDisplay{}
	h := ecall.New(&bytes.Buffer{}, &bytes.Buffer{}, strings.NewReader(""), display, nil)
	machine := vm.New(prog, m, h.Dispatch)
	machine.Run()
	assert.Equal(t, 1, display.calls)
}

type stubMidi struct {
	pitch, duration int
	plays           int
}

func (m *stubMidi) Play(pitch, durationMs, instrument, velocity int) {
	m.pitch, m.duration = pitch, durationMs
	m.plays++
}

func TestMidiOutSyncHonorsCancellation(t *testing.T) {
	prog, err := asm.Assemble([]asm.Source{{Name: "main.s", Text: `
.text
li a7, 33
li a0, 60
li a1, 5000
li a2, 0
li a3, 64
ecall
li a7, 10
ecall
`}}, nil)
	require.NoError(t, err)

	midi := &stubMidi{}
	h := ecall.New(&bytes.Buffer{}, &bytes.Buffer{}, strings.NewReader(""), nil, midi)
	cancel := make(chan struct{})
	close(cancel)
	h.Cancel = cancel

	m := mem.New(prog.Data, nil)
	machine := vm.New(prog, m, h.Dispatch)

	start := time.Now()
	machine.Run()

	// With cancellation pending, the 5-second note must not block for
	// its full duration.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, midi.plays)
	assert.Equal(t, 60, midi.pitch)
	assert.Equal(t, 5000, midi.duration)
}
