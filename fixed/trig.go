package fixed

import "math/bits"

// Table layout: Q30 values, 1024 segments, linear interpolation between entries
const (
	lutShift    = 30
	lutOne      = 1 << lutShift
	phaseBits   = 32
	indexBits   = 10
	phaseFrac   = lutShift - indexBits // 20 bits of interpolation weight per segment
	phaseFracMk = 1<<phaseFrac - 1
	quarterMask = lutOne - 1
	ratioBits   = 20
	ratioFrac   = ratioBits - indexBits
	ratioFracMk = 1<<ratioFrac - 1
	piQ30       = int64(Pi) << (lutShift - FracBits)
	halfPiQ30   = int64(HalfPi) << (lutShift - FracBits)
)

// phase maps an angle onto a 32-bit turn: 0 is 0 rad, 1<<32 is Tau
func phase(a Num) uint32 {
	r := int64(a) % int64(Tau)
	if r < 0 {
		r += int64(Tau)
	}
	hi, lo := bits.Mul64(uint64(r), 1<<phaseBits)
	q, rem := bits.Div64(hi, lo, uint64(Tau))
	if rem >= uint64(Tau)-rem {
		q++
	}
	return uint32(q)
}

// quarterSin interpolates sin over the first quadrant; x is in [0, 1<<30]
func quarterSin(x uint32) int64 {
	idx := x >> phaseFrac
	frac := int64(x & phaseFracMk)
	if frac == 0 {
		return sinTable[idx]
	}
	lo, hi := sinTable[idx], sinTable[idx+1]
	return lo + ((hi-lo)*frac)>>phaseFrac
}

// sinPhase returns sin in Q30 for a 32-bit turn
func sinPhase(p uint32) int64 {
	quadrant := p >> lutShift
	x := p & quarterMask
	switch quadrant {
	case 0:
		return quarterSin(x)
	case 1:
		return quarterSin(lutOne - x)
	case 2:
		return -quarterSin(x)
	default:
		return -quarterSin(lutOne - x)
	}
}

// q30ToNum rounds a Q30 value to Q16, half away from zero
func q30ToNum(v int64) Num {
	const shift = lutShift - FracBits
	if v < 0 {
		return Num(-((-v + 1<<(shift-1)) >> shift))
	}
	return Num((v + 1<<(shift-1)) >> shift)
}

func (a Num) Sin() Num {
	return q30ToNum(sinPhase(phase(a)))
}

func (a Num) Cos() Num {
	return q30ToNum(sinPhase(phase(a) + 1<<lutShift))
}

// SinCos returns both values from a single phase reduction
func (a Num) SinCos() (sin, cos Num) {
	p := phase(a)
	return q30ToNum(sinPhase(p)), q30ToNum(sinPhase(p + 1<<lutShift))
}

// Tan fails with ErrDivideByZero where cos is zero at this precision
func (a Num) Tan() (Num, error) {
	s, c := a.SinCos()
	return s.Div(c)
}

// atanRatio interpolates atan over [0, 1]; ratio is Q20 in [0, 1<<20]
func atanRatio(ratio uint64) int64 {
	idx := ratio >> ratioFrac
	frac := int64(ratio & ratioFracMk)
	if frac == 0 {
		return atanTable[idx]
	}
	lo, hi := atanTable[idx], atanTable[idx+1]
	return lo + ((hi-lo)*frac)>>ratioFrac
}

// Atan2 returns the angle of (x, y) in [-Pi, Pi] using octant reduction
func Atan2(y, x Num) Num {
	if x == 0 && y == 0 {
		return 0
	}
	ax, ay := mag(x), mag(y)

	var angle int64
	if ay <= ax {
		hi, lo := bits.Mul64(ay, 1<<ratioBits)
		q, _ := bits.Div64(hi, lo, ax)
		angle = atanRatio(q)
	} else {
		hi, lo := bits.Mul64(ax, 1<<ratioBits)
		q, _ := bits.Div64(hi, lo, ay)
		angle = halfPiQ30 - atanRatio(q)
	}

	if x < 0 {
		angle = piQ30 - angle
	}
	if y < 0 {
		angle = -angle
	}
	return q30ToNum(angle)
}

func (a Num) Atan() Num {
	return Atan2(a, One)
}

// Asin fails with ErrDomain outside [-1, 1]
func (a Num) Asin() (Num, error) {
	if a > One || a < NegOne {
		return 0, ErrDomain
	}
	c, err := One.Sub(a.Mul(a)).Sqrt()
	if err != nil {
		return 0, err
	}
	return Atan2(a, c), nil
}

// Acos fails with ErrDomain outside [-1, 1]
func (a Num) Acos() (Num, error) {
	if a > One || a < NegOne {
		return 0, ErrDomain
	}
	s, err := One.Sub(a.Mul(a)).Sqrt()
	if err != nil {
		return 0, err
	}
	return Atan2(s, a), nil
}

// Exp2 returns 2^a, saturating on overflow and flushing to zero below precision
func (a Num) Exp2() Num {
	ip := a.Int()
	if ip >= 64-FracBits-2 {
		return Max
	}
	if ip < -FracBits-1 {
		return 0
	}

	// Fractional part through the table, Q30
	f := uint64(a & fracMask)
	idx := f >> (FracBits - indexBits)
	w := int64(f & (1<<(FracBits-indexBits) - 1))
	v := exp2Table[idx]
	if w != 0 {
		v += ((exp2Table[idx+1] - v) * w) >> (FracBits - indexBits)
	}

	shift := lutShift - FracBits - ip
	if shift <= 0 {
		return Num(v << -shift)
	}
	return Num((v + 1<<(shift-1)) >> shift)
}
