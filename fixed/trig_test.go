package fixed

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestSqrt(t *testing.T) {
	tests := []struct {
		in   Num
		want Num
	}{
		{0, 0},
		{One, One},
		{FromInt(4), Two},
		{Two, FromRaw(92682)},
		{Quarter, Half},
		{FromInt(1 << 40), FromInt(1 << 20)},
	}
	for _, tt := range tests {
		got, err := tt.in.Sqrt()
		if err != nil {
			t.Fatalf("Sqrt(%v): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Sqrt(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}

	if _, err := FromInt(-1).Sqrt(); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain for negative input, got %v", err)
	}
	if _, err := Max.Sqrt(); err != nil {
		t.Errorf("Expected Sqrt(Max) to succeed, got %v", err)
	}
}

func TestSqrtOfSquareIsExact(t *testing.T) {
	check := func(a Num) {
		got, err := a.Mul(a).Sqrt()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != a.Abs() {
			t.Fatalf("Expected sqrt(%d^2) == %d, got %d", a, a.Abs(), got)
		}
	}

	for raw := int64(Half); raw < int64(Half)+100000; raw++ {
		check(Num(raw))
		check(Num(-raw))
	}

	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 50000; i++ {
		check(Num(r.Int64N(1<<39-int64(Half)) + int64(Half)))
	}
}

func TestSqrtOfSquareBelowHalf(t *testing.T) {
	// Squares below half an ulp squared lose bits; stay within a bounded distance
	for raw := int64(0); raw < int64(Half); raw++ {
		a := Num(raw)
		got, _ := a.Mul(a).Sqrt()
		if d := got.Sub(a).Abs(); d > 256 {
			t.Fatalf("Expected sqrt(%d^2) within 256 raw, got %d", raw, got)
		}
	}
}

func TestSinCosExact(t *testing.T) {
	tests := []struct {
		name string
		got  Num
		want Num
	}{
		{"sin 0", Zero.Sin(), 0},
		{"sin pi/2", HalfPi.Sin(), One},
		{"sin pi", Pi.Sin(), 0},
		{"sin -pi/2", HalfPi.Neg().Sin(), NegOne},
		{"cos 0", Zero.Cos(), One},
		{"cos pi/2", HalfPi.Cos(), 0},
		{"cos pi", Pi.Cos(), NegOne},
		{"sin pi/4", QuarterPi.Sin(), FromRaw(46341)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, tt.got)
		}
	}
}

func TestTrigAccuracy(t *testing.T) {
	for raw := -2 * int64(Tau); raw < 2*int64(Tau); raw += 37 {
		a := Num(raw)
		s, c := a.SinCos()
		ws := int64(math.Round(math.Sin(float64(raw)/65536) * 65536))
		wc := int64(math.Round(math.Cos(float64(raw)/65536) * 65536))
		if d := s.Raw() - ws; d > 3 || d < -3 {
			t.Fatalf("sin(%d): expected ~%d, got %d", raw, ws, s.Raw())
		}
		if d := c.Raw() - wc; d > 3 || d < -3 {
			t.Fatalf("cos(%d): expected ~%d, got %d", raw, wc, c.Raw())
		}
		if s != a.Sin() || c != a.Cos() {
			t.Fatalf("SinCos disagrees with Sin/Cos at %d", raw)
		}
	}
}

func TestAtan2(t *testing.T) {
	tests := []struct {
		y, x Num
		want Num
	}{
		{0, 0, 0},
		{0, One, 0},
		{One, One, QuarterPi},
		{One, 0, HalfPi},
		{0, NegOne, Pi},
		{NegOne, 0, HalfPi.Neg()},
	}
	for _, tt := range tests {
		if got := Atan2(tt.y, tt.x); got != tt.want {
			t.Errorf("Atan2(%v, %v): expected %d, got %d", tt.y, tt.x, tt.want, got)
		}
	}

	r := rand.New(rand.NewPCG(9, 9))
	for i := 0; i < 20000; i++ {
		x := r.Int64N(20000000) - 10000000
		y := r.Int64N(20000000) - 10000000
		want := int64(math.Round(math.Atan2(float64(y), float64(x)) * 65536))
		got := Atan2(Num(y), Num(x)).Raw()
		if d := got - want; d > 2 || d < -2 {
			t.Fatalf("Atan2(%d, %d): expected ~%d, got %d", y, x, want, got)
		}
	}
}

func TestInverseTrig(t *testing.T) {
	tests := []struct {
		in   Num
		want Num
	}{
		{One, 0},
		{0, HalfPi},
		{NegOne, Pi},
		{Half, FromRaw(68629)},
	}
	for _, tt := range tests {
		got, err := tt.in.Acos()
		if err != nil {
			t.Fatalf("Acos(%v): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Acos(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}

	if got, _ := One.Asin(); got != HalfPi {
		t.Errorf("Expected asin(1) = pi/2, got %d", got)
	}
	if _, err := Two.Acos(); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain, got %v", err)
	}
	if _, err := Two.Neg().Asin(); !errors.Is(err, ErrDomain) {
		t.Errorf("Expected ErrDomain, got %v", err)
	}
	if got := One.Atan(); got != QuarterPi {
		t.Errorf("Expected atan(1) = pi/4, got %d", got)
	}
}

func TestExp2(t *testing.T) {
	tests := []struct {
		in   Num
		want Num
	}{
		{0, One},
		{One, Two},
		{NegOne, Half},
		{Half, FromRaw(92682)},
		{FromInt(10), FromInt(1024)},
		{FromInt(-40), 0},
		{FromInt(60), Max},
	}
	for _, tt := range tests {
		if got := tt.in.Exp2(); got != tt.want {
			t.Errorf("Exp2(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 65536},
		{"12.5", 819200},
		{"-0.25", -16384},
		{"+3", 196608},
		{".5", 32768},
		{"0.0000152587890625", 1},
		{"0.0000152587890624", 0},
		{"-0.0000152587890625", -1},
		{" 2 ", 131072},
		// Digits past the 16th are read but never change the result
		{"0.00001525878906249999999", 0},
		{"0.00001525878906250000001", 1},
		{"1.99999999999999999999", 131071},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", tt.in, err)
		}
		if got.Raw() != tt.want {
			t.Errorf("Parse(%q): expected %d, got %d", tt.in, tt.want, got.Raw())
		}
	}

	for _, bad := range []string{"", "-", ".", "abc", "1.2.3", "1e5", "0x10", "1.-5", "0.12345678901234567x"} {
		if _, err := Parse(bad); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q): expected ErrSyntax, got %v", bad, err)
		}
	}

	if _, err := Parse("999999999999999999"); !errors.Is(err, ErrOverflow) {
		t.Errorf("Expected ErrOverflow, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	tests := []struct {
		in   Num
		want string
	}{
		{0, "0"},
		{One, "1"},
		{-Half, "-0.5"},
		{MustParse("12.375"), "12.375"},
		{Epsilon, "0.0000153"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}

	r := rand.New(rand.NewPCG(4, 4))
	for i := 0; i < 20000; i++ {
		n := Num(r.Int64())
		back, err := Parse(n.String())
		if err != nil {
			t.Fatalf("Parse(%q): %v", n.String(), err)
		}
		if back != n {
			t.Fatalf("Expected round trip of %d, got %d via %q", n, back, n.String())
		}
	}
}

func TestTextMarshaling(t *testing.T) {
	var n Num
	if err := n.UnmarshalText([]byte("-7.25")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != MustParse("-7.25") {
		t.Errorf("Expected -7.25, got %v", n)
	}
	text, _ := n.MarshalText()
	if string(text) != "-7.25" {
		t.Errorf("Expected -7.25, got %s", text)
	}
	if err := n.UnmarshalText([]byte("nope")); err == nil {
		t.Error("Expected error for invalid text")
	}
}

func BenchmarkSqrt(b *testing.B) {
	x := MustParse("12345.678")
	for i := 0; i < b.N; i++ {
		_, _ = x.Sqrt()
	}
}

func BenchmarkSin(b *testing.B) {
	x := MustParse("1.2345")
	for i := 0; i < b.N; i++ {
		x.Sin()
	}
}
