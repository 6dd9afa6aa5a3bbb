package fplimit

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/exp/slices"
)

// ErrFormatNotFound is returned when no standard format matches the
// requested precision or width.
var ErrFormatNotFound = errors.New("fplimit: format not found")

// Format describes a standard IEEE floating point format. Formats are
// immutable; the package-level Single, Double, Extended and Quad values are
// shared by reference.
type Format struct {
	name string
	bits uint
	exp  uint
	prec uint
	bias int
}

var (
	Single   = newFormat("single", 32, 8, 24)
	Double   = newFormat("double", 64, 11, 53)
	Extended = newFormat("extended", 80, 15, 63)
	Quad     = newFormat("quad", 128, 15, 113)

	// Keyed by significand precision; exactly one format per precision.
	formats = map[uint]*Format{
		Single.prec:   Single,
		Double.prec:   Double,
		Extended.prec: Extended,
		Quad.prec:     Quad,
	}
)

func newFormat(name string, bits, exp, prec uint) *Format {
	return &Format{name: name, bits: bits, exp: exp, prec: prec, bias: 1<<(exp-1) - 1}
}

// FormatByPrec returns the standard format with prec bits of significand
// precision (24, 53, 63 or 113).
func FormatByPrec(prec uint) (*Format, error) {
	f := formats[prec]
	if f == nil {
		return nil, fmt.Errorf("fplimit: no format with %d bits of precision: %w", prec, ErrFormatNotFound)
	}
	return f, nil
}

// FormatByWidth returns the standard format that is bytesOrBits wide, in
// either unit. The standard widths do not collide between units, so the
// lookup is unambiguous.
func FormatByWidth(bytesOrBits uint) (*Format, error) {
	for _, f := range Formats() {
		if bytesOrBits == f.bits || bytesOrBits == f.bits/8 {
			return f, nil
		}
	}
	return nil, fmt.Errorf("fplimit: no format %d bits or bytes wide: %w", bytesOrBits, ErrFormatNotFound)
}

// WithWidth looks up the format that is bytesOrBits wide and calls fn with
// it, returning fn's error.
func WithWidth(bytesOrBits uint, fn func(f *Format) error) error {
	f, err := FormatByWidth(bytesOrBits)
	if err != nil {
		return err
	}
	return fn(f)
}

// Formats returns the standard formats in ascending precision order.
func Formats() []*Format {
	out := make([]*Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *Format) int {
		return int(a.prec) - int(b.prec)
	})
	return out
}

func (f *Format) Name() string  { return f.name }
func (f *Format) Bits() uint    { return f.bits }
func (f *Format) ExpBits() uint { return f.exp }
func (f *Format) Prec() uint    { return f.prec }
func (f *Format) Bias() int     { return f.bias }

func (f *Format) String() string {
	return fmt.Sprintf("%s(%d)", f.name, f.bits)
}

// MinExp returns the smallest possible exponent. If denorm is true, the
// range is extended downward by prec-1 bits to cover the denormalised
// values.
func (f *Format) MinExp(denorm bool) int {
	min := -(f.bias - 1)
	if denorm {
		min -= int(f.prec) - 1
	}
	return min
}

// MaxExp returns the largest possible exponent.
func (f *Format) MaxExp() int {
	return f.bias
}

// MinValue returns the smallest possible positive value. If denorm is true,
// denormalised values are included.
func (f *Format) MinValue(denorm bool) *big.Float {
	return pow2(f.MinExp(denorm), f.prec)
}

// MaxValue returns the largest possible value.
func (f *Format) MaxValue() *big.Float {
	return pow2(f.MaxExp(), f.prec)
}

// ULP returns the unit of least precision for x: the value representing the
// gap between x and the closest representable neighbour at this format's
// precision. It is found by halving downward from the next power of two
// above |x| until adding no longer changes x; the number of halvings is
// bounded by |MinExp(true)|, so the search always terminates.
//
// The result is computed at the format's own precision regardless of the
// precision of x. ULP(0) is MinValue(true).
func (f *Format) ULP(x *big.Float) *big.Float {
	if x.Sign() == 0 {
		return f.MinValue(true)
	}

	xr := floatAt(f.prec).Set(x)
	u := NextPower(xr)
	sum := floatAt(f.prec)
	two := twoAt(f.prec)

	bound := f.MinExp(true)
	if bound < 0 {
		bound = -bound
	}
	for n := 0; n < bound; n++ {
		sum.Add(xr, u)
		if sum.Cmp(xr) == 0 || u.Sign() == 0 {
			break
		}
		u.Quo(u, two)
	}
	return u.Mul(u, two)
}

// Dist returns the distance between two values in ULP-sized steps, by
// advancing the smaller value by its own ULP until it reaches the larger.
// This is O(distance) and only practical for small gaps; it exists for
// diagnostics, not for the search itself.
func (f *Format) Dist(a, b *big.Float) int {
	lo := floatAt(f.prec)
	hi := floatAt(f.prec)
	if a.Cmp(b) <= 0 {
		lo.Set(a)
		hi.Set(b)
	} else {
		lo.Set(b)
		hi.Set(a)
	}

	dist := 0
	for lo.Cmp(hi) < 0 {
		lo.Add(lo, f.ULP(lo))
		dist++
	}
	return dist
}

// EvalAll returns the string representation of x at each standard
// precision, in ascending precision order. Each string uses the smallest
// number of digits that uniquely identifies the value at that precision.
func EvalAll(x *big.Float) []string {
	var out []string
	for _, f := range Formats() {
		v := floatAt(f.prec).Set(x)
		out = append(out, v.Text('g', -1))
	}
	return out
}
