// Package ecall implements the a7-indexed environment-call subsystem:
// it is the vm.EcallHandler that gives programs access to stdio, the
// heap break, the clock, randomness, the filesystem, and the
// display/MIDI backends, keeping internal/vm itself free of any I/O or
// device dependency.
//
// a7 is looked up in a dense map rather than a long type switch; a
// single map covers both the low 0..255 range and the 1024-indexed
// file calls without the bookkeeping of two separate structures, since
// Go map lookups are O(1) either way.
package ecall

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"fpgrars/internal/mem"
	"fpgrars/internal/vm"
)

// Display is the slice of internal/device's display backend the
// ClearScreen ecall needs.
type Display interface {
	Clear(frame int, color byte)
}

// Midi is the slice of internal/device's MIDI backend MidiOut/
// MidiOutSync need. Play returns immediately; MidiOutSync's blocking
// wait happens here in the handler, where it can honor cancellation.
type Midi interface {
	Play(pitch, durationMs, instrument, velocity int)
}

// Handler implements vm.EcallHandler. Display and Midi may be nil
// (headless run, or no MIDI port available); the corresponding ecalls
// then skip the device rather than trapping, since both are optional
// collaborators (MidiOutSync still waits out the note's duration).
type Handler struct {
	Out     io.Writer
	In      *bufio.Reader
	Rand    *rand.Rand
	Display Display
	Midi    Midi
	Files   *FileTable

	// Cancel, if non-nil, is honored by Sleep/MidiOutSync within a
	// bounded time so a pending signal can interrupt a long sleep.
	Cancel <-chan struct{}
}

// New builds a Handler wired to the given stdio streams. display and
// midi may be nil.
func New(out io.Writer, stderr io.Writer, in io.Reader, display Display, midi Midi) *Handler {
	return &Handler{
		Out:     out,
		In:      bufio.NewReader(in),
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Display: display,
		Midi:    midi,
		Files:   NewFileTable(in, out, stderr),
	}
}

// Dispatch is the vm.EcallHandler: it reads a7, folds the 100s aliases
// onto their 1-digit counterparts, and looks up the ecall.
func (h *Handler) Dispatch(v *vm.VM) *vm.Trap {
	code := int(v.Int.Get(17))
	switch code {
	case 110:
		code = 10
	case 148:
		code = 48
	}
	fn, ok := table[code]
	if !ok {
		return &vm.Trap{Cause: vm.CauseIllegalEcall, PC: v.PC(), Val: uint32(code)}
	}
	return fn(h, v)
}

type ecallFunc func(h *Handler, v *vm.VM) *vm.Trap

var table = map[int]ecallFunc{
	1:    (*Handler).printInt,
	2:    (*Handler).printFloat,
	4:    (*Handler).printString,
	5:    (*Handler).readInt,
	6:    (*Handler).readFloat,
	9:    (*Handler).sbrk,
	10:   (*Handler).exit,
	11:   (*Handler).printChar,
	30:   (*Handler).getTime,
	31:   (*Handler).midiOut,
	32:   (*Handler).sleep,
	33:   (*Handler).midiOutSync,
	34:   (*Handler).printHex,
	36:   (*Handler).printUnsigned,
	41:   (*Handler).randInt,
	42:   (*Handler).randIntRange,
	43:   (*Handler).randFloat,
	48:   (*Handler).clearScreen,
	57:   (*Handler).closeFd,
	62:   (*Handler).seek,
	63:   (*Handler).read,
	64:   (*Handler).write,
	1024: (*Handler).open,
}

const maxCStringLen = 1 << 20

// readCString reads a NUL-terminated byte string starting at addr,
// refusing to run unbounded if a program forgets the terminator.
func readCString(m *mem.Memory, addr uint32) (string, error) {
	var b []byte
	for i := 0; i < maxCStringLen; i++ {
		c, err := m.ReadByte(addr + uint32(i))
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(b), nil
		}
		b = append(b, c)
	}
	return "", fmt.Errorf("string at 0x%08x exceeds %d bytes without a NUL terminator", addr, maxCStringLen)
}

// faultTrap turns a *mem.FaultError into the Trap the dispatch loop
// expects; ecall memory accesses only ever produce access faults
// (byte-at-a-time reads/writes are always aligned).
func faultTrap(v *vm.VM, err error, op string) *vm.Trap {
	var addr uint32
	var faultErr *mem.FaultError
	if errors.As(err, &faultErr) {
		addr = faultErr.Addr
	}
	cause := vm.CauseStoreAccessFault
	if op == "load" {
		cause = vm.CauseLoadAccessFault
	}
	return &vm.Trap{Cause: cause, PC: v.PC(), Val: addr}
}

func (h *Handler) printInt(v *vm.VM) *vm.Trap {
	fmt.Fprintf(h.Out, "%d", int32(v.Int.Get(10)))
	return nil
}

func (h *Handler) printFloat(v *vm.VM) *vm.Trap {
	f := v.Float.GetFloat(10)
	fmt.Fprint(h.Out, strconv.FormatFloat(float64(f), 'g', -1, 32))
	return nil
}

func (h *Handler) printString(v *vm.VM) *vm.Trap {
	s, err := readCString(v.Mem, v.Int.Get(10))
	if err != nil {
		return faultTrap(v, err, "load")
	}
	io.WriteString(h.Out, s)
	return nil
}

// readLine blocks for one line of input. With a Cancel channel wired,
// the read happens on a helper goroutine so a pending termination
// signal interrupts the wait promptly; the goroutine itself stays
// blocked on the reader, which is fine because cancellation only
// happens when the whole process is shutting down.
func (h *Handler) readLine() string {
	if h.Cancel == nil {
		line, _ := h.In.ReadString('\n')
		return line
	}
	ch := make(chan string, 1)
	go func() {
		line, _ := h.In.ReadString('\n')
		ch <- line
	}()
	select {
	case line := <-ch:
		return line
	case <-h.Cancel:
		return ""
	}
}

func (h *Handler) readInt(v *vm.VM) *vm.Trap {
	n, _ := strconv.ParseInt(strings.TrimSpace(h.readLine()), 10, 32)
	v.Int.Set(10, uint32(int32(n)))
	return nil
}

func (h *Handler) readFloat(v *vm.VM) *vm.Trap {
	f, _ := strconv.ParseFloat(strings.TrimSpace(h.readLine()), 32)
	v.Float.SetFloat(10, float32(f))
	return nil
}

func (h *Handler) sbrk(v *vm.VM) *vm.Trap {
	v.Int.Set(10, v.Mem.Sbrk(v.Int.Get(10)))
	return nil
}

func (h *Handler) exit(v *vm.VM) *vm.Trap {
	v.RequestExit(int(int32(v.Int.Get(10))))
	return nil
}

func (h *Handler) printChar(v *vm.VM) *vm.Trap {
	fmt.Fprintf(h.Out, "%c", rune(v.Int.Get(10)))
	return nil
}

func (h *Handler) getTime(v *vm.VM) *vm.Trap {
	ms := v.ElapsedMillis()
	v.Int.Set(10, uint32(ms))
	v.Int.Set(11, uint32(ms>>32))
	return nil
}

func (h *Handler) midiOut(v *vm.VM) *vm.Trap {
	if h.Midi != nil {
		h.Midi.Play(int(v.Int.Get(10)), int(v.Int.Get(11)), int(v.Int.Get(12)), int(v.Int.Get(13)))
	}
	return nil
}

// midiOutSync triggers the note like midiOut, then blocks the caller
// for the note's duration. The wait lives here rather than in the
// backend so cancellation interrupts it like any other blocking ecall.
func (h *Handler) midiOutSync(v *vm.VM) *vm.Trap {
	if h.Midi != nil {
		h.Midi.Play(int(v.Int.Get(10)), int(v.Int.Get(11)), int(v.Int.Get(12)), int(v.Int.Get(13)))
	}
	h.sleepFor(time.Duration(v.Int.Get(11)) * time.Millisecond)
	return nil
}

// Blocking waits honor cancellation promptly by sleeping in small
// slices rather than one long time.Sleep.
const sleepSlice = 50 * time.Millisecond

func (h *Handler) sleepFor(d time.Duration) {
	for d > 0 {
		slice := sleepSlice
		if d < slice {
			slice = d
		}
		if h.Cancel != nil {
			select {
			case <-h.Cancel:
				return
			case <-time.After(slice):
			}
		} else {
			time.Sleep(slice)
		}
		d -= slice
	}
}

func (h *Handler) sleep(v *vm.VM) *vm.Trap {
	h.sleepFor(time.Duration(v.Int.Get(10)) * time.Millisecond)
	return nil
}

func (h *Handler) printHex(v *vm.VM) *vm.Trap {
	fmt.Fprintf(h.Out, "0x%08x", v.Int.Get(10))
	return nil
}

func (h *Handler) printUnsigned(v *vm.VM) *vm.Trap {
	fmt.Fprintf(h.Out, "%d", v.Int.Get(10))
	return nil
}

func (h *Handler) randInt(v *vm.VM) *vm.Trap {
	v.Int.Set(10, h.Rand.Uint32())
	return nil
}

func (h *Handler) randIntRange(v *vm.VM) *vm.Trap {
	upper := v.Int.Get(11)
	if upper == 0 {
		v.Int.Set(10, 0)
		return nil
	}
	v.Int.Set(10, uint32(h.Rand.Int63n(int64(upper))))
	return nil
}

func (h *Handler) randFloat(v *vm.VM) *vm.Trap {
	v.Float.SetFloat(10, float32(h.Rand.Float64()))
	return nil
}

func (h *Handler) clearScreen(v *vm.VM) *vm.Trap {
	if h.Display != nil {
		h.Display.Clear(int(v.Int.Get(11)), byte(v.Int.Get(10)))
	}
	return nil
}

func (h *Handler) closeFd(v *vm.VM) *vm.Trap {
	if err := h.Files.Close(int(v.Int.Get(10))); err != nil {
		v.Int.Set(10, 0xffffffff)
	}
	return nil
}

func (h *Handler) seek(v *vm.VM) *vm.Trap {
	fd := int(v.Int.Get(10))
	offset := int64(int32(v.Int.Get(11)))
	whence := int(v.Int.Get(12))
	pos, err := h.Files.Seek(fd, offset, whence)
	if err != nil {
		v.Int.Set(10, 0xffffffff)
		return nil
	}
	v.Int.Set(10, uint32(pos))
	return nil
}

func (h *Handler) read(v *vm.VM) *vm.Trap {
	fd := int(v.Int.Get(10))
	addr := v.Int.Get(11)
	max := v.Int.Get(12)
	buf := make([]byte, max)
	n, err := h.Files.Read(fd, buf)
	if err != nil && n == 0 {
		v.Int.Set(10, 0xffffffff)
		return nil
	}
	for i := 0; i < n; i++ {
		if werr := v.Mem.WriteByte(addr+uint32(i), buf[i]); werr != nil {
			return faultTrap(v, werr, "store")
		}
	}
	v.Int.Set(10, uint32(n))
	return nil
}

func (h *Handler) write(v *vm.VM) *vm.Trap {
	fd := int(v.Int.Get(10))
	addr := v.Int.Get(11)
	length := v.Int.Get(12)
	buf := make([]byte, length)
	for i := uint32(0); i < length; i++ {
		b, err := v.Mem.ReadByte(addr + i)
		if err != nil {
			return faultTrap(v, err, "load")
		}
		buf[i] = b
	}
	n, err := h.Files.Write(fd, buf)
	if err != nil && n == 0 {
		v.Int.Set(10, 0xffffffff)
		return nil
	}
	v.Int.Set(10, uint32(n))
	return nil
}

func (h *Handler) open(v *vm.VM) *vm.Trap {
	path, err := readCString(v.Mem, v.Int.Get(10))
	if err != nil {
		return faultTrap(v, err, "load")
	}
	fd, err := h.Files.Open(path, v.Int.Get(11))
	if err != nil {
		v.Int.Set(10, 0xffffffff)
		return nil
	}
	v.Int.Set(10, uint32(fd))
	return nil
}
