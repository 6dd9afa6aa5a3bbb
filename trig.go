package fplimit

import (
	"math/big"

	"github.com/tuneinsight/lattigo/v6/utils/bignum"
)

// CosSmall finds the largest x for which cos(x) still rounds to 1 at the
// standard format with prec significand bits.
func CosSmall(prec uint) (Result, error) {
	return FindLimit(bignum.Cos, LimitValue(oneAt(prec)), prec)
}

// SinSmall finds the largest x for which sin(x) still rounds to x at the
// standard format with prec significand bits.
func SinSmall(prec uint) (Result, error) {
	return FindLimit(bignum.Sin, LimitFunc(identity), prec)
}

func identity(x *big.Float) *big.Float {
	return new(big.Float).Set(x)
}

func degToRad(x *big.Float) *big.Float {
	return floatAt(x.Prec()).Mul(x, pio180(x.Prec()))
}

// Cosd is the cosine of x expressed in degrees.
func Cosd(x *big.Float) *big.Float {
	return bignum.Cos(degToRad(x))
}

// Sind is the sine of x expressed in degrees.
func Sind(x *big.Float) *big.Float {
	return bignum.Sin(degToRad(x))
}

// Tand is the tangent of x expressed in degrees.
func Tand(x *big.Float) *big.Float {
	r := degToRad(x)
	z := bignum.Sin(r)
	return z.Quo(z, bignum.Cos(r))
}

// CosdSmall finds the largest x in degrees for which cosd(x) still rounds
// to 1 at the standard format with prec significand bits.
func CosdSmall(prec uint) (Result, error) {
	return FindLimit(Cosd, LimitValue(oneAt(prec)), prec)
}

// sindApprox is the small-angle approximation sind(x) ~= x*pi/180.
func sindApprox(x *big.Float) *big.Float {
	return degToRad(x)
}

// SindSmall finds the largest x in degrees for which sind(x) is still
// indistinguishable from x*pi/180, to within nulp ULPs (or exactly, when
// nulp is zero).
func SindSmall(prec uint, nulp int) (Result, error) {
	f, err := FormatByPrec(prec)
	if err != nil {
		return Result{}, err
	}
	return Search{Format: f, NULP: nulp}.FindLimit(Sind, LimitFunc(sindApprox))
}

// TandSmall finds the largest x in degrees for which tand(x) is still
// indistinguishable from x*pi/180, to within nulp ULPs (or exactly, when
// nulp is zero).
func TandSmall(prec uint, nulp int) (Result, error) {
	f, err := FormatByPrec(prec)
	if err != nil {
		return Result{}, err
	}
	return Search{Format: f, NULP: nulp}.FindLimit(Tand, LimitFunc(sindApprox))
}
