package fplimit

import (
	"math/big"
)

// NextPower returns the smallest power of two strictly greater than |x|.
// NextPower(0) is 0.
func NextPower(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return floatAt(x.Prec())
	}
	return pow2(x.MantExp(nil), x.Prec())
}

// CeilPower returns the smallest power of two greater than or equal to |x|.
// CeilPower(0) is 0.
func CeilPower(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return floatAt(x.Prec())
	}
	exp := x.MantExp(nil)
	if isPowerOfTwo(x) {
		return pow2(exp-1, x.Prec())
	}
	return pow2(exp, x.Prec())
}

// FloorPower returns the largest power of two less than or equal to |x|.
// FloorPower(0) is 0.
func FloorPower(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return floatAt(x.Prec())
	}
	return pow2(x.MantExp(nil)-1, x.Prec())
}

// PrevPower returns the largest power of two strictly less than |x|.
// PrevPower(0) is 0.
func PrevPower(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return floatAt(x.Prec())
	}
	exp := x.MantExp(nil)
	if isPowerOfTwo(x) {
		return pow2(exp-2, x.Prec())
	}
	return pow2(exp-1, x.Prec())
}

// isPowerOfTwo reports whether |x| == 2**k for integer k, which is exactly
// when the mantissa returned by MantExp is 0.5.
func isPowerOfTwo(x *big.Float) bool {
	mant := new(big.Float)
	x.MantExp(mant)
	mant.Abs(mant)
	return mant.Cmp(big.NewFloat(0.5)) == 0
}

// Range calls fn with each value in [start, stop), advancing by step.
// Iteration stops early if fn returns false. The value passed to fn is a
// copy; fn may retain or modify it.
func Range(start, stop, step *big.Float, fn func(x *big.Float) bool) {
	cur := new(big.Float).SetPrec(start.Prec()).Set(start)
	for cur.Cmp(stop) < 0 {
		if !fn(new(big.Float).Copy(cur)) {
			return
		}
		cur.Add(cur, step)
	}
}
