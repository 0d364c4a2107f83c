package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClearScreenFillsSelectedFramebuffer(t *testing.T) {
	m := New(4, 4, nil)
	m.Clear(0, 0x07)
	for i := 0; i < 16; i++ {
		assert.Equal(t, byte(0x07), m.ReadByte(FB0Base+uint32(i)))
	}
	assert.Equal(t, byte(0), m.ReadByte(FB1Base))
}

func TestFrameSelectByte(t *testing.T) {
	m := New(4, 4, nil)
	assert.Equal(t, 0, m.SelectedFrame())
	m.WriteByte(FrameSelectAddr, 1)
	assert.Equal(t, 1, m.SelectedFrame())
}

func TestKeyStateBitmapPressAndRelease(t *testing.T) {
	m := New(4, 4, nil)
	const esc = 1
	m.PressKey(esc)
	b := m.ReadByte(KeyStateBase)
	assert.Equal(t, byte(1), (b>>esc)&1)

	m.ReleaseKey(esc)
	b = m.ReadByte(KeyStateBase)
	assert.Equal(t, byte(0), (b>>esc)&1)
}

func TestKeyboardDataRegisterClearsReadyOnRead(t *testing.T) {
	m := New(4, 4, nil)
	m.PressKey('a')
	assert.Equal(t, byte(1), m.ReadByte(KeyboardControlAddr))
	assert.Equal(t, byte('a'), m.ReadByte(KeyboardDataAddr))
	assert.Equal(t, byte(0), m.ReadByte(KeyboardControlAddr))
}

type fakeClock struct{ ms uint64 }

func (f fakeClock) ElapsedMillis() uint64 { return f.ms }

func TestTimerShadowWordsMirrorClock(t *testing.T) {
	m := New(4, 4, fakeClock{ms: 0x1_0000_0002})
	assert.Equal(t, byte(2), m.ReadByte(TimerLoAddr))
	assert.Equal(t, byte(1), m.ReadByte(TimerHiAddr))
}
