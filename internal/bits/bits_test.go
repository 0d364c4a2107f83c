package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	assert.Equal(t, uint32(0b101), Extract(0b1101_1000, 3, 5))
	assert.Equal(t, uint32(0b1), Extract(0b1, 0, 0))
	assert.Equal(t, uint32(0xff), Extract(0xdead_beff, 0, 7))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int32(-1), SignExtend(0xfff, 12))
	assert.Equal(t, int32(2047), SignExtend(0x7ff, 12))
	assert.Equal(t, int32(-2048), SignExtend(0x800, 12))
	assert.Equal(t, int32(0), SignExtend(0, 12))
}

func TestFitsSigned(t *testing.T) {
	assert.True(t, FitsSigned(2047, 12))
	assert.True(t, FitsSigned(-2048, 12))
	assert.False(t, FitsSigned(2048, 12))
	assert.False(t, FitsSigned(-2049, 12))
}

func TestSplitUpperLower(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 0x12345678, -42, 1 << 20, -(1 << 20), 2047, -2048, 2048} {
		hi, lo := SplitUpperLower(v)
		got := int32(hi<<12) + SignExtend(lo, 12)
		assert.Equal(t, v, got, "round-trip for %d", v)
	}
}
