package fixed

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// maxFracDigits is how many fractional digits Parse reads. One raw step is
// 0.0000152587890625, so every raw value is exact in 16 digits and later
// digits cannot change the truncated result. They are still checked.
const maxFracDigits = 16

var pow10 = [maxFracDigits + 1]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000,
	10000000000, 100000000000, 1000000000000, 10000000000000, 100000000000000,
	1000000000000000, 10000000000000000,
}

// Parse reads a decimal string such as "-12.375" exactly, truncating toward
// zero below the representable precision
func Parse(s string) (Num, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrSyntax)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	var ip uint64
	if intPart != "" {
		v, err := strconv.ParseUint(intPart, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		ip = v
	}
	if ip > uint64(MaxInt)+1 || (!negative && ip > uint64(MaxInt)) {
		return saturate(negative), ErrOverflow
	}

	var frac uint64
	for i := 0; i < len(fracPart); i++ {
		c := fracPart[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		if i < maxFracDigits {
			frac = frac*10 + uint64(c-'0')
		}
	}

	var fracRaw uint64
	if frac != 0 {
		digits := min(len(fracPart), maxFracDigits)
		hi, lo := bits.Mul64(frac, 1<<FracBits)
		fracRaw, _ = bits.Div64(hi, lo, pow10[digits])
	}

	return fromMag(negative, ip<<FracBits|fracRaw)
}

// MustParse is Parse for literals; it panics on error
func MustParse(s string) Num {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String renders up to 7 decimals with trailing zeros trimmed. The fractional
// digits round up so that Parse(a.String()) == a.
func (a Num) String() string {
	m := mag(a)
	ip := m >> FracBits
	fp := m & fracMask

	var b strings.Builder
	if a < 0 {
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatUint(ip, 10))
	if fp == 0 {
		return b.String()
	}

	const scale = 10000000
	dec := (fp*scale + fracMask) >> FracBits
	digits := strconv.FormatUint(dec, 10)
	digits = strings.Repeat("0", 7-len(digits)) + digits
	b.WriteByte('.')
	b.WriteString(strings.TrimRight(digits, "0"))
	return b.String()
}

func (a Num) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Num) UnmarshalText(text []byte) error {
	n, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = n
	return nil
}

// Float64 converts for presentation only (rendering, audio, cross-checks).
// Simulation code must never round-trip through it.
func (a Num) Float64() float64 {
	return float64(a) / float64(One)
}
