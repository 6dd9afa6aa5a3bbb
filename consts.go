package fplimit

import (
	"math/big"

	"github.com/tuneinsight/lattigo/v6/utils/bignum"
)

func floatAt(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec)
}

func oneAt(prec uint) *big.Float {
	return floatAt(prec).SetInt64(1)
}

func twoAt(prec uint) *big.Float {
	return floatAt(prec).SetInt64(2)
}

// pow2 returns 2**exp at prec bits. Always exact.
func pow2(exp int, prec uint) *big.Float {
	z := oneAt(prec)
	return z.SetMantExp(z, exp)
}

// pio180 returns pi/180, the degree-to-radian ratio, at prec bits. The
// quotient is formed with 32 guard bits before rounding down.
func pio180(prec uint) *big.Float {
	d180 := floatAt(prec + 32).SetInt64(180)
	return floatAt(prec).Quo(bignum.Pi(prec+32), d180)
}
