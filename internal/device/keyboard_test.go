package device

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyboardPumpLatchesPressIntoMMIO exercises the pump end to end
// over a pipe standing in for a controlling terminal (a pipe is never
// a TTY, so Run takes the line-buffered fallback path, one scancode per
// byte written).
func TestKeyboardPumpLatchesPressIntoMMIO(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	mmio := New(4, 4, nil)
	pump := NewKeyboardPump(mmio, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		pump.Run(ctx)
		close(done)
	}()

	const code = 5 // arbitrary low scancode, falls in KeyStateBase's first byte

	_, err = w.Write([]byte{code})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return mmio.ReadByte(KeyboardControlAddr)&1 == 1
	}, time.Second, time.Millisecond)

	assert.Equal(t, byte(code), mmio.ReadByte(KeyboardDataAddr))
	assert.Equal(t, byte(1), (mmio.ReadByte(KeyStateBase)>>code)&1)

	require.Eventually(t, func() bool {
		return (mmio.ReadByte(KeyStateBase)>>code)&1 == 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}
