// Package fixed implements a deterministic Q48.16 fixed-point scalar.
//
// All arithmetic is integer only. Results saturate at Max and Min instead of
// wrapping, and every rounding step uses round-to-nearest with ties away from
// zero, so a given sequence of operations yields identical raw values on
// every platform.
//
// Add, Sub and Mul clamp without reporting. Callers that need to know use
// the Checked forms, which return ErrOverflow with the clamped value, or
// test a result with Saturated.
package fixed

//go:generate go run ../cmd/sglutgen -o lut_table.go

import (
	"errors"
	"math"
	"math/bits"
)

// Q48.16 constants
const (
	FracBits = 16
	fracMask = 1<<FracBits - 1
	lutSize  = 1024
)

var (
	ErrOverflow     = errors.New("fixed: overflow")
	ErrDivideByZero = errors.New("fixed: divide by zero")
	ErrDomain       = errors.New("fixed: domain error")
	ErrSyntax       = errors.New("fixed: invalid syntax")
)

// Num is a Q48.16 fixed-point number: the value is raw / 65536.
// Use the methods rather than Go operators for anything but comparison and
// negation of non-extreme values: the operators wrap, the methods saturate.
type Num int64

const (
	Zero      Num = 0
	Epsilon   Num = 1
	One       Num = 1 << FracBits
	Two       Num = 2 << FracBits
	NegOne    Num = -One
	Half      Num = One / 2
	Quarter   Num = One / 4
	Pi        Num = 205887
	Tau       Num = 411774
	HalfPi    Num = 102943
	QuarterPi Num = 51472
	Max       Num = math.MaxInt64
	Min       Num = math.MinInt64
)

// Integer range that survives FromInt without saturating
const (
	MaxInt = math.MaxInt64 >> FracBits
	MinInt = math.MinInt64 >> FracBits
)

// --- Conversion ---

func FromRaw(raw int64) Num { return Num(raw) }

// FromInt converts an integer, saturating outside [MinInt, MaxInt]
func FromInt(i int64) Num {
	if i > MaxInt {
		return Max
	}
	if i < MinInt {
		return Min
	}
	return Num(i << FracBits)
}

// FromFraction returns num/den rounded to nearest
func FromFraction(num, den int64) (Num, error) {
	return FromInt(num).Div(FromInt(den))
}

func (a Num) Raw() int64 { return int64(a) }

// Int returns floor(a)
func (a Num) Int() int64 { return int64(a) >> FracBits }

// Frac returns the fractional raw bits of a, always non-negative
func (a Num) Frac() Num { return a & fracMask }

// --- Arithmetic ---

// Saturated reports whether a sits on a clamp bound
func (a Num) Saturated() bool { return a == Max || a == Min }

func (a Num) Add(b Num) Num {
	r, _ := a.CheckedAdd(b)
	return r
}

func (a Num) Sub(b Num) Num {
	r, _ := a.CheckedSub(b)
	return r
}

// CheckedAdd returns the saturated sum and ErrOverflow if saturation occurred
func (a Num) CheckedAdd(b Num) (Num, error) {
	s := a + b
	// Overflow iff operands share a sign that the sum does not
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		if a >= 0 {
			return Max, ErrOverflow
		}
		return Min, ErrOverflow
	}
	return s, nil
}

func (a Num) CheckedSub(b Num) (Num, error) {
	s := a - b
	if (a >= 0) != (b >= 0) && (s >= 0) != (a >= 0) {
		if a >= 0 {
			return Max, ErrOverflow
		}
		return Min, ErrOverflow
	}
	return s, nil
}

// Neg saturates -Min to Max
func (a Num) Neg() Num {
	if a == Min {
		return Max
	}
	return -a
}

func (a Num) Abs() Num {
	if a < 0 {
		return a.Neg()
	}
	return a
}

// Mul multiplies with a 128-bit intermediate and rounds half away from zero
func (a Num) Mul(b Num) Num {
	r, _ := a.CheckedMul(b)
	return r
}

func (a Num) CheckedMul(b Num) (Num, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	negative := (a < 0) != (b < 0)
	hi, lo := bits.Mul64(mag(a), mag(b))

	// Round on the magnitude so ties move away from zero
	var carry uint64
	lo, carry = bits.Add64(lo, 1<<(FracBits-1), 0)
	hi += carry

	if hi>>FracBits != 0 {
		return saturate(negative), ErrOverflow
	}
	return fromMag(negative, hi<<(64-FracBits)|lo>>FracBits)
}

// Div divides with a widened dividend and rounds half away from zero
func (a Num) Div(b Num) (Num, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 {
		return 0, nil
	}
	negative := (a < 0) != (b < 0)
	ua, ub := mag(a), mag(b)

	// a << 16 as 128-bit
	hi := ua >> (64 - FracBits)
	lo := ua << FracBits
	if hi >= ub {
		return saturate(negative), ErrOverflow
	}

	quo, rem := bits.Div64(hi, lo, ub)
	if rem >= ub-rem {
		quo++
		if quo == 0 {
			return saturate(negative), ErrOverflow
		}
	}
	return fromMag(negative, quo)
}

// Quo is Div for callers that have already excluded a zero divisor.
// It panics on division by zero, like the built-in operator.
func (a Num) Quo(b Num) Num {
	r, err := a.Div(b)
	if errors.Is(err, ErrDivideByZero) {
		panic(err)
	}
	return r
}

// MulDiv computes a*b/c with a single rounding step
func MulDiv(a, b, c Num) (Num, error) {
	if c == 0 {
		return 0, ErrDivideByZero
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	negative := ((a < 0) != (b < 0)) != (c < 0)
	hi, lo := bits.Mul64(mag(a), mag(b))
	uc := mag(c)
	if hi >= uc {
		return saturate(negative), ErrOverflow
	}
	quo, rem := bits.Div64(hi, lo, uc)
	if rem >= uc-rem {
		quo++
		if quo == 0 {
			return saturate(negative), ErrOverflow
		}
	}
	return fromMag(negative, quo)
}

// --- Comparison and rounding helpers ---

func (a Num) Sign() int {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	}
	return 0
}

func (a Num) IsZero() bool { return a == 0 }

func Min2(a, b Num) Num {
	if a < b {
		return a
	}
	return b
}

func Max2(a, b Num) Num {
	if a > b {
		return a
	}
	return b
}

func (a Num) Clamp(lo, hi Num) Num {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

func (a Num) Floor() Num { return a &^ fracMask }

func (a Num) Ceil() Num {
	if a&fracMask == 0 {
		return a
	}
	return a.Floor().Add(One)
}

// Round rounds half away from zero
func (a Num) Round() Num {
	if a < 0 {
		return a.Neg().Add(Half).Floor().Neg()
	}
	return a.Add(Half).Floor()
}

// Lerp returns a + (b-a)*t
func (a Num) Lerp(b, t Num) Num {
	return a.Add(b.Sub(a).Mul(t))
}

// MoveToward steps a toward target by at most delta
func (a Num) MoveToward(target, delta Num) Num {
	if target.Sub(a).Abs() <= delta {
		return target
	}
	if target > a {
		return a.Add(delta)
	}
	return a.Sub(delta)
}

// Deg2Rad converts degrees to radians
func Deg2Rad(deg Num) Num {
	r, _ := MulDiv(deg, Pi, FromInt(180))
	return r
}

// Rad2Deg converts radians to degrees
func Rad2Deg(rad Num) Num {
	r, _ := MulDiv(rad, FromInt(180), Pi)
	return r
}

// --- Internal ---

func mag(a Num) uint64 {
	if a < 0 {
		// -MinInt64 wraps back to MinInt64, whose uint64 is 1<<63
		return uint64(-a)
	}
	return uint64(a)
}

func saturate(negative bool) Num {
	if negative {
		return Min
	}
	return Max
}

func fromMag(negative bool, m uint64) (Num, error) {
	if negative {
		if m > 1<<63 {
			return Min, ErrOverflow
		}
		return Num(-int64(m)), nil
	}
	if m > math.MaxInt64 {
		return Max, ErrOverflow
	}
	return Num(m), nil
}
