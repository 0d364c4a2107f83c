package device

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// keyDwell is how long a key reports as held before this pump
// synthesizes its release, since a raw terminal never sends one.
const keyDwell = 80 * time.Millisecond

// KeyboardPump is the input pump half of the keyboard backend: it
// reads raw key bytes from a source (normally the controlling
// terminal, put into cbreak mode so keys arrive without waiting for
// Enter) and latches them into an MMIO region.
//
// A real terminal delivers no key-release event, only a stream of
// pressed bytes; this pump approximates "held" by releasing each key
// immediately after a short dwell, which is enough for the 128-bit
// key-state bitmap's documented use ("is key N currently held") without
// claiming a key-up signal the terminal never sends.
type KeyboardPump struct {
	mmio   *MMIO
	reader *bufio.Reader
	fd     int
	raw    *term.State
}

// NewKeyboardPump wires a pump reading from in (os.Stdin in normal
// operation). If in is a terminal, it is switched to raw mode for
// the duration of Run so single keystrokes are delivered immediately;
// otherwise (piped input, tests) it falls back to line-buffered reads,
// one scancode per byte, treating the input pump as a best-effort
// external collaborator.
func NewKeyboardPump(mmio *MMIO, in *os.File) *KeyboardPump {
	return &KeyboardPump{mmio: mmio, reader: bufio.NewReader(in), fd: int(in.Fd())}
}

// Run delivers key bytes to the MMIO region until ctx is cancelled or
// the input source returns EOF/error; device goroutines drain and
// exit on cancellation.
func (k *KeyboardPump) Run(ctx context.Context) {
	if term.IsTerminal(k.fd) {
		if st, err := term.MakeRaw(k.fd); err == nil {
			k.raw = st
			defer term.Restore(k.fd, st)
		}
	}

	type readResult struct {
		b   byte
		err error
	}
	ch := make(chan readResult, 1)
	go func() {
		for {
			b, err := k.reader.ReadByte()
			ch <- readResult{b, err}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			if r.err != nil {
				if r.err != io.EOF {
					return
				}
				return
			}
			k.mmio.PressKey(r.b)
			go func(b byte) {
				time.Sleep(keyDwell)
				k.mmio.ReleaseKey(b)
			}(r.b)
		}
	}
}
