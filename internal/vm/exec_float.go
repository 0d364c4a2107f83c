package vm

import (
	"math"

	"fpgrars/internal/asm"
)

func execFLW(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	w, err := v.Mem.ReadWord(addr)
	if v.loadFault(err, addr) {
		return -1
	}
	v.Float.SetBits(i.Rd, w)
	return -1
}

func execFSW(v *VM, i asm.Inst) int {
	addr := uint32(int32(v.Int.Get(i.Rs1)) + i.Imm)
	err := v.Mem.WriteWord(addr, v.Float.GetBits(i.Rs2))
	v.storeFault(err, addr)
	return -1
}

func execFADD_S(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, v.Float.GetFloat(i.Rs1)+v.Float.GetFloat(i.Rs2))
	return -1
}
func execFSUB_S(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, v.Float.GetFloat(i.Rs1)-v.Float.GetFloat(i.Rs2))
	return -1
}
func execFMUL_S(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, v.Float.GetFloat(i.Rs1)*v.Float.GetFloat(i.Rs2))
	return -1
}
func execFDIV_S(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, v.Float.GetFloat(i.Rs1)/v.Float.GetFloat(i.Rs2))
	return -1
}
func execFSQRT_S(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, float32(math.Sqrt(float64(v.Float.GetFloat(i.Rs1)))))
	return -1
}

func execFMIN_S(v *VM, i asm.Inst) int {
	a, b := v.Float.GetFloat(i.Rs1), v.Float.GetFloat(i.Rs2)
	v.Float.SetFloat(i.Rd, fMinMax(a, b, true))
	return -1
}
func execFMAX_S(v *VM, i asm.Inst) int {
	a, b := v.Float.GetFloat(i.Rs1), v.Float.GetFloat(i.Rs2)
	v.Float.SetFloat(i.Rd, fMinMax(a, b, false))
	return -1
}

// fMinMax implements RISC-V's NaN-propagation rule for fmin.s/fmax.s:
// if exactly one operand is NaN, the other is returned; if both are
// NaN, a canonical quiet NaN is returned.
func fMinMax(a, b float32, min bool) float32 {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case aNaN && bNaN:
		return float32(math.NaN())
	case aNaN:
		return b
	case bNaN:
		return a
	}
	if min {
		return float32(math.Min(float64(a), float64(b)))
	}
	return float32(math.Max(float64(a), float64(b)))
}

func execFEQ_S(v *VM, i asm.Inst) int {
	a, b := v.Float.GetFloat(i.Rs1), v.Float.GetFloat(i.Rs2)
	v.Int.Set(i.Rd, boolToWord(a == b)) // NaN compares false per IEEE-754/RISC-V
	return -1
}
func execFLT_S(v *VM, i asm.Inst) int {
	a, b := v.Float.GetFloat(i.Rs1), v.Float.GetFloat(i.Rs2)
	v.Int.Set(i.Rd, boolToWord(a < b))
	return -1
}
func execFLE_S(v *VM, i asm.Inst) int {
	a, b := v.Float.GetFloat(i.Rs1), v.Float.GetFloat(i.Rs2)
	v.Int.Set(i.Rd, boolToWord(a <= b))
	return -1
}

// execFCVT_W_S converts float to signed int32, saturating on overflow
// and on NaN rather than wrapping.
func execFCVT_W_S(v *VM, i asm.Inst) int {
	f := v.Float.GetFloat(i.Rs1)
	v.Int.Set(i.Rd, uint32(saturateToInt32(f)))
	return -1
}

func execFCVT_WU_S(v *VM, i asm.Inst) int {
	f := v.Float.GetFloat(i.Rs1)
	v.Int.Set(i.Rd, saturateToUint32(f))
	return -1
}

func execFCVT_S_W(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, float32(int32(v.Int.Get(i.Rs1))))
	return -1
}

func execFCVT_S_WU(v *VM, i asm.Inst) int {
	v.Float.SetFloat(i.Rd, float32(v.Int.Get(i.Rs1)))
	return -1
}

func execFMV_X_W(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, v.Float.GetBits(i.Rs1))
	return -1
}
func execFMV_W_X(v *VM, i asm.Inst) int {
	v.Float.SetBits(i.Rd, v.Int.Get(i.Rs1))
	return -1
}

func execFSGNJ_S(v *VM, i asm.Inst) int {
	v.Float.SetBits(i.Rd, signInject(v.Float.GetBits(i.Rs1), v.Float.GetBits(i.Rs2), false))
	return -1
}
func execFSGNJN_S(v *VM, i asm.Inst) int {
	v.Float.SetBits(i.Rd, signInject(v.Float.GetBits(i.Rs1), v.Float.GetBits(i.Rs2), true))
	return -1
}
func execFSGNJX_S(v *VM, i asm.Inst) int {
	sign := (v.Float.GetBits(i.Rs1) ^ v.Float.GetBits(i.Rs2)) & 0x8000_0000
	v.Float.SetBits(i.Rd, (v.Float.GetBits(i.Rs1)&0x7fff_ffff)|sign)
	return -1
}

func signInject(mag, signSrc uint32, negate bool) uint32 {
	sign := signSrc & 0x8000_0000
	if negate {
		sign ^= 0x8000_0000
	}
	return (mag & 0x7fff_ffff) | sign
}

func execFCLASS_S(v *VM, i asm.Inst) int {
	v.Int.Set(i.Rd, fclass(v.Float.GetFloat(i.Rs1)))
	return -1
}

// fclass implements the fclass.s result bitmask (bit i set means the
// value belongs to class i, per the RISC-V standard ordering).
func fclass(f float32) uint32 {
	bits := math.Float32bits(f)
	neg := bits&0x8000_0000 != 0
	switch {
	case math.IsNaN(float64(f)):
		if bits&0x0040_0000 == 0 {
			return 1 << 8 // signaling NaN
		}
		return 1 << 9 // quiet NaN
	case math.IsInf(float64(f), 1):
		return 1 << 7
	case math.IsInf(float64(f), -1):
		return 1 << 0
	case f == 0:
		if neg {
			return 1 << 3
		}
		return 1 << 4
	case bits&0x7f80_0000 == 0: // subnormal
		if neg {
			return 1 << 2
		}
		return 1 << 5
	default:
		if neg {
			return 1 << 1
		}
		return 1 << 6
	}
}

func saturateToInt32(f float32) int32 {
	switch {
	case math.IsNaN(float64(f)):
		return math.MaxInt32
	case f >= float32(math.MaxInt32):
		return math.MaxInt32
	case f <= float32(math.MinInt32):
		return math.MinInt32
	default:
		return int32(f)
	}
}

func saturateToUint32(f float32) uint32 {
	switch {
	case math.IsNaN(float64(f)):
		return math.MaxUint32
	case f <= 0:
		return 0
	case f >= float32(math.MaxUint32):
		return math.MaxUint32
	default:
		return uint32(f)
	}
}
