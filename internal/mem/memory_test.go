package mem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpgrars/internal/mem"
)

type stubMMIO struct {
	bytes map[uint32]byte
}

func newStubMMIO() *stubMMIO { return &stubMMIO{bytes: map[uint32]byte{}} }

func (s *stubMMIO) ReadByte(addr uint32) byte   { return s.bytes[addr] }
func (s *stubMMIO) WriteByte(addr uint32, v byte) { s.bytes[addr] = v }

func TestDataSegmentReadWrite(t *testing.T) {
	m := mem.New([]byte{0xde, 0xad, 0xbe, 0xef}, nil)

	b, err := m.ReadByte(mem.DataBase + 1)
	require.NoError(t, err)
	assert.Equal(t, byte(0xad), b)

	require.NoError(t, m.WriteByte(mem.DataBase, 0x11))
	b, err = m.ReadByte(mem.DataBase)
	require.NoError(t, err)
	assert.Equal(t, byte(0x11), b)

	w, err := m.ReadWord(mem.DataBase)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xefbead11), w)
}

func TestWordLoadMisalignedTraps(t *testing.T) {
	m := mem.New(make([]byte, 16), nil)
	_, err := m.ReadWord(mem.DataBase + 1)
	require.Error(t, err)
	var alignErr *mem.AlignmentError
	assert.ErrorAs(t, err, &alignErr)
}

func TestUnmappedAddressFaults(t *testing.T) {
	m := mem.New(nil, nil)
	_, err := m.ReadByte(0x5)
	require.Error(t, err)
	var faultErr *mem.FaultError
	assert.ErrorAs(t, err, &faultErr)
}

func TestSbrkMonotonicAndAddressable(t *testing.T) {
	m := mem.New(nil, nil)

	prev := m.Sbrk(4)
	assert.Equal(t, uint32(mem.HeapBase), prev)

	require.NoError(t, m.WriteWord(prev, 0x1234))
	v, err := m.ReadWord(prev)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)

	prev2 := m.Sbrk(8)
	assert.Equal(t, prev+4, prev2)

	// sbrk(0) after growth reports the new break.
	brk := m.Sbrk(0)
	assert.Equal(t, prev2+8, brk)
}

func TestStackAddressable(t *testing.T) {
	m := mem.New(nil, nil)
	require.NoError(t, m.WriteWord(mem.StackTop-3, 0xcafef00d))
	v, err := m.ReadWord(mem.StackTop - 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafef00d), v)
}

func TestMMIORoutesToDeviceLogic(t *testing.T) {
	mmio := newStubMMIO()
	m := mem.New(nil, mmio)

	require.NoError(t, m.WriteByte(mem.MMIOBase+0x200604, 1))
	assert.Equal(t, byte(1), mmio.bytes[mem.MMIOBase+0x200604])

	mmio.bytes[mem.MMIOBase+0x210000] = 0x42
	b, err := m.ReadByte(mem.MMIOBase + 0x210000)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)
}

func TestMMIOWithoutBackendFaults(t *testing.T) {
	m := mem.New(nil, nil)
	_, err := m.ReadByte(mem.MMIOBase)
	require.Error(t, err)
}

func TestSummaryReflectsSbrk(t *testing.T) {
	m := mem.New([]byte{1, 2, 3}, nil)
	prev := m.Sbrk(8)

	s := m.Summary()
	assert.Equal(t, uint32(mem.DataBase), s.DataBase)
	assert.Equal(t, uint32(mem.DataBase+3), s.DataTop)
	assert.Equal(t, uint32(mem.HeapBase), s.HeapBase)
	assert.Equal(t, prev+8, s.HeapBreak)
	assert.Equal(t, uint32(mem.StackTop), s.StackTop)
}
