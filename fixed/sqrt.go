package fixed

// sqrtIterations covers every bit pair of the 128-bit radicand
const sqrtIterations = 64

// Sqrt returns the square root rounded to nearest.
// The digit-by-digit loop always runs sqrtIterations rounds.
func (a Num) Sqrt() (Num, error) {
	if a < 0 {
		return 0, ErrDomain
	}

	// Radicand is raw << 16 so the root lands in Q16
	u := uint64(a)
	hi := u >> (64 - FracBits)
	lo := u << FracBits

	var root, rem uint64
	for i := 0; i < sqrtIterations; i++ {
		var pair uint64
		if i < 32 {
			pair = (hi >> (62 - 2*i)) & 3
		} else {
			pair = (lo >> (62 - 2*(i-32))) & 3
		}
		rem = rem<<2 | pair
		trial := root<<2 | 1
		if rem >= trial {
			rem -= trial
			root = root<<1 | 1
		} else {
			root <<= 1
		}
	}

	// rem = N - root^2; round up when N exceeds (root + 1/2)^2
	if rem > root {
		root++
	}
	return Num(root), nil
}

// MustSqrt is Sqrt for values known to be non-negative, such as squared lengths
func (a Num) MustSqrt() Num {
	r, err := a.Sqrt()
	if err != nil {
		panic(err)
	}
	return r
}
