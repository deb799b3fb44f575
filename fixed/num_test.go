package fixed

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func TestFromIntAndInt(t *testing.T) {
	tests := []struct {
		in   int64
		raw  int64
		back int64
	}{
		{0, 0, 0},
		{1, 65536, 1},
		{-3, -196608, -3},
		{MaxInt, MaxInt << FracBits, MaxInt},
	}
	for _, tt := range tests {
		n := FromInt(tt.in)
		if n.Raw() != tt.raw {
			t.Errorf("FromInt(%d): expected raw %d, got %d", tt.in, tt.raw, n.Raw())
		}
		if n.Int() != tt.back {
			t.Errorf("FromInt(%d).Int(): expected %d, got %d", tt.in, tt.back, n.Int())
		}
	}

	if FromInt(MaxInt+1) != Max {
		t.Error("Expected FromInt to saturate above MaxInt")
	}
	if FromInt(MinInt-1) != Min {
		t.Error("Expected FromInt to saturate below MinInt")
	}
	// Int floors toward negative infinity
	if got := FromRaw(-1).Int(); got != -1 {
		t.Errorf("Expected floor of -1 raw to be -1, got %d", got)
	}
}

func TestAddCommutative(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		a := Num(r.Int64())
		b := Num(r.Int64())
		if a.Add(b) != b.Add(a) {
			t.Fatalf("Add not commutative for %d, %d", a, b)
		}
		if a.Mul(b) != b.Mul(a) {
			t.Fatalf("Mul not commutative for %d, %d", a, b)
		}
	}
}

func TestSaturation(t *testing.T) {
	if got, err := Max.CheckedAdd(One); got != Max || !errors.Is(err, ErrOverflow) {
		t.Errorf("Expected Max with ErrOverflow, got %d, %v", got, err)
	}
	if got, err := Min.CheckedSub(One); got != Min || !errors.Is(err, ErrOverflow) {
		t.Errorf("Expected Min with ErrOverflow, got %d, %v", got, err)
	}
	if got := Max.Mul(Two); got != Max {
		t.Errorf("Expected Max, got %d", got)
	}
	if got := Max.Mul(-Two); got != Min {
		t.Errorf("Expected Min, got %d", got)
	}
	if got := Min.Neg(); got != Max {
		t.Errorf("Expected -Min to saturate to Max, got %d", got)
	}
	if _, err := Max.CheckedMul(Two); !errors.Is(err, ErrOverflow) {
		t.Errorf("Expected ErrOverflow, got %v", err)
	}
	if got, err := One.CheckedAdd(One); got != Two || err != nil {
		t.Errorf("Expected 2 without error, got %v, %v", got, err)
	}
	if !Max.Add(One).Saturated() || !Min.Sub(One).Saturated() || Max.Sub(One).Saturated() {
		t.Error("Expected Saturated to flag only the clamp bounds")
	}
}

func TestMulRounding(t *testing.T) {
	tests := []struct {
		name string
		a, b Num
		want Num
	}{
		{"exact", FromRaw(98304), FromRaw(98304), FromRaw(147456)}, // 1.5 * 1.5 = 2.25
		{"half ulp rounds up", Epsilon, Half, Epsilon},
		{"negative half ulp rounds away", -Epsilon, Half, -Epsilon},
		{"quarter ulp rounds down", Epsilon, Quarter, 0},
		{"integer", FromInt(7), FromInt(-6), FromInt(-42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Mul(tt.b); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestDiv(t *testing.T) {
	got, err := FromInt(1).Div(FromInt(3))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// 65536/3 = 21845.33
	if got.Raw() != 21845 {
		t.Errorf("Expected 21845, got %d", got.Raw())
	}

	got, _ = FromInt(2).Div(FromInt(3))
	// 131072/3 = 43690.67
	if got.Raw() != 43691 {
		t.Errorf("Expected 43691, got %d", got.Raw())
	}

	got, _ = FromInt(-1).Div(FromInt(2))
	if got != -Half {
		t.Errorf("Expected -0.5, got %v", got)
	}

	if _, err := One.Div(0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Expected ErrDivideByZero, got %v", err)
	}

	if got, err := Max.Div(Half); got != Max || !errors.Is(err, ErrOverflow) {
		t.Errorf("Expected saturated Max with ErrOverflow, got %d, %v", got, err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected Quo to panic on zero divisor")
		}
	}()
	_ = One.Quo(0)
}

func TestMulDivInverse(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 20000; i++ {
		a := Num(r.Int64N(1<<31) - 1<<30)
		b := Num(r.Int64N(1<<24) + int64(One))
		if r.IntN(2) == 0 {
			b = -b
		}
		back, err := a.Mul(b).Div(b)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if d := back.Sub(a).Abs(); d > Epsilon {
			t.Fatalf("Mul/Div drift %d for a=%d b=%d", d, a, b)
		}
	}
}

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(FromInt(1<<40), FromInt(1<<10), FromInt(1<<20))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != FromInt(1<<30) {
		t.Errorf("Expected 2^30, got %v", got)
	}
	if _, err := MulDiv(One, One, 0); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Expected ErrDivideByZero, got %v", err)
	}
}

func TestRoundingHelpers(t *testing.T) {
	tests := []struct {
		in                 Num
		floor, ceil, round Num
	}{
		{MustParse("1.4"), One, Two, One},
		{Half, 0, One, One},
		{-Half, NegOne, 0, NegOne},
		{MustParse("-1.6"), FromInt(-2), NegOne, FromInt(-2)},
		{Two, Two, Two, Two},
	}
	for _, tt := range tests {
		if got := tt.in.Floor(); got != tt.floor {
			t.Errorf("Floor(%v): expected %v, got %v", tt.in, tt.floor, got)
		}
		if got := tt.in.Ceil(); got != tt.ceil {
			t.Errorf("Ceil(%v): expected %v, got %v", tt.in, tt.ceil, got)
		}
		if got := tt.in.Round(); got != tt.round {
			t.Errorf("Round(%v): expected %v, got %v", tt.in, tt.round, got)
		}
	}

	if got := One.MoveToward(FromInt(5), Two); got != FromInt(3) {
		t.Errorf("Expected 3, got %v", got)
	}
	if got := One.MoveToward(Half, Two); got != Half {
		t.Errorf("Expected target when within delta, got %v", got)
	}
	if got := Deg2Rad(FromInt(180)); got != Pi {
		t.Errorf("Expected Pi, got %d", got)
	}
	if got := Rad2Deg(Pi); got != FromInt(180) {
		t.Errorf("Expected 180, got %v", got)
	}
	if got := FromInt(5).Clamp(0, Two); got != Two {
		t.Errorf("Expected clamp to 2, got %v", got)
	}
	if got := Zero.Lerp(FromInt(10), Quarter); got != MustParse("2.5") {
		t.Errorf("Expected 2.5, got %v", got)
	}
}

func BenchmarkMul(b *testing.B) {
	x, y := MustParse("123.456"), MustParse("-7.89")
	for i := 0; i < b.N; i++ {
		x.Mul(y)
	}
}

func BenchmarkDiv(b *testing.B) {
	x, y := MustParse("123.456"), MustParse("-7.89")
	for i := 0; i < b.N; i++ {
		_, _ = x.Div(y)
	}
}
