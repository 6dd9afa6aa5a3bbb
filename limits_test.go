package fplimit

import (
	"errors"
	"math/big"
	"testing"

	"github.com/shabbyrobe/golib/assert"
)

// quadFn is 1 + x*x at the precision of x. Against a limit of 1, the
// boundary sits where x*x stops registering against 1: x == 2**-26.5 at 53
// bits of working precision.
func quadFn(x *big.Float) *big.Float {
	z := floatAt(x.Prec()).Mul(x, x)
	return z.Add(z, oneAt(x.Prec()))
}

// linQuadFn is x + x*x at the precision of x. Against an identity limit,
// the difference scales with x*x while the tolerance scales with ULP(x),
// which makes it useful for exercising the ULP tolerance policy.
func linQuadFn(x *big.Float) *big.Float {
	z := floatAt(x.Prec()).Mul(x, x)
	return z.Add(z, x)
}

func TestLimitEval(t *testing.T) {
	tt := assert.WrapTB(t)

	v := big.NewFloat(2)
	lv := LimitValue(v)
	tt.MustAssert(lv.Eval(big.NewFloat(100)).Cmp(v) == 0)
	tt.MustAssert(lv.Eval(big.NewFloat(-3)).Cmp(v) == 0)

	lf := LimitFunc(identity)
	x := big.NewFloat(3)
	tt.MustAssert(lf.Eval(x).Cmp(x) == 0)

	tt.MustAssert(!Limit{}.ok())
	tt.MustAssert(lv.ok() && lf.ok())
}

func TestFindLimitFast(t *testing.T) {
	tt := assert.WrapTB(t)

	s := Search{Format: Double}
	nsteps, x, outcome, err := s.FindLimitFast(quadFn, LimitValue(oneAt(53)))
	tt.MustOK(err)
	tt.MustEqual(Converged, outcome)
	tt.MustEqual(27, nsteps)
	tt.MustAssert(x.Cmp(pow2(-27, 53)) == 0, "found: %s", x.Text('g', -1))
}

func TestFindLimitExact(t *testing.T) {
	tt := assert.WrapTB(t)

	res, err := Search{Format: Double}.FindLimit(quadFn, LimitValue(oneAt(53)))
	tt.MustOK(err)
	tt.MustEqual(Converged, res.Outcome)
	tt.MustEqual(27, res.Steps)
	tt.MustAssert(res.BisectSteps > 0)

	// The boundary lands between the bracketing powers of two, in the
	// binade with binary exponent -26.
	tt.MustAssert(res.X.Cmp(pow2(-27, 53)) >= 0, "found: %s", res.X.Text('g', -1))
	tt.MustAssert(res.X.Cmp(pow2(-26, 53)) <= 0, "found: %s", res.X.Text('g', -1))
	tt.MustEqual(-26, res.X.MantExp(nil))

	// Tight: the boundary agrees, its upward neighbour does not.
	one := oneAt(53)
	tt.MustAssert(quadFn(res.X).Cmp(one) == 0)
	next := floatAt(53).Add(res.X, Double.ULP(res.X))
	tt.MustAssert(quadFn(next).Cmp(one) != 0)
}

func TestFindLimitReverseMatchesForward(t *testing.T) {
	tt := assert.WrapTB(t)

	limit := LimitValue(oneAt(53))
	fwd, err := Search{Format: Double}.FindLimit(quadFn, limit)
	tt.MustOK(err)
	rev, err := Search{Format: Double}.FindLimitReverse(quadFn, limit)
	tt.MustOK(err)

	// Both directions bracket the same binade and refine to the same
	// boundary.
	tt.MustEqual(fwd.Steps, rev.Steps)
	tt.MustAssert(fwd.X.Cmp(rev.X) == 0, "forward %s != reverse %s",
		fwd.X.Text('g', -1), rev.X.Text('g', -1))
}

func TestFindLimitCustomStart(t *testing.T) {
	tt := assert.WrapTB(t)

	s := Search{Format: Double, Start: pow2(-10, 53)}
	res, err := s.FindLimit(quadFn, LimitValue(oneAt(53)))
	tt.MustOK(err)
	tt.MustEqual(17, res.Steps)
	tt.MustEqual(-26, res.X.MantExp(nil))
}

func TestFindLimitWorkingPrec(t *testing.T) {
	tt := assert.WrapTB(t)

	// Same format tolerance bounds, but evaluated at quad's working
	// precision: the boundary moves out to the 113-bit rounding edge.
	s := Search{Format: Double, Prec: 113}
	res, err := s.FindLimit(quadFn, LimitValue(oneAt(113)))
	tt.MustOK(err)
	tt.MustEqual(57, res.Steps)
	tt.MustEqual(-56, res.X.MantExp(nil))
}

func TestFindLimitNeverConverges(t *testing.T) {
	zero := func(x *big.Float) *big.Float { return floatAt(x.Prec()) }
	one := LimitValue(big.NewFloat(1))

	t.Run("forward-bound", func(t *testing.T) {
		tt := assert.WrapTB(t)
		res, err := Search{Format: Double}.FindLimit(zero, one)
		tt.MustAssert(errors.Is(err, ErrNotConverged), "%v", err)
		tt.MustEqual(StoppedAtBound, res.Outcome)
		tt.MustEqual(1074, res.Steps) // == |MinExp(true)|
		tt.MustAssert(res.X.Cmp(Double.MinValue(true)) == 0)
	})

	t.Run("forward-bound-single", func(t *testing.T) {
		tt := assert.WrapTB(t)
		res, err := Search{Format: Single}.FindLimit(zero, one)
		tt.MustAssert(errors.Is(err, ErrNotConverged), "%v", err)
		tt.MustEqual(149, res.Steps)
	})

	t.Run("forward-max-steps", func(t *testing.T) {
		tt := assert.WrapTB(t)

		// An unreachable stop value forces the step bound to fire instead.
		s := Search{Format: Double, Stop: big.NewFloat(-1)}
		res, err := s.FindLimit(zero, one)
		tt.MustAssert(errors.Is(err, ErrNotConverged), "%v", err)
		tt.MustEqual(StoppedAtMaxSteps, res.Outcome)
		tt.MustEqual(1074, res.Steps)
	})

	t.Run("reverse-never-diverges", func(t *testing.T) {
		tt := assert.WrapTB(t)
		res, err := Search{Format: Double}.FindLimitReverse(identity, LimitFunc(identity))
		tt.MustAssert(errors.Is(err, ErrNotConverged), "%v", err)
		tt.MustEqual(StoppedAtBound, res.Outcome)

		// No boundary to index, so Steps is the raw doubling count.
		tt.MustEqual(1074, res.Steps)
	})
}

func TestBisectLimit(t *testing.T) {
	tt := assert.WrapTB(t)

	s := Search{Format: Double}
	limit := LimitValue(oneAt(53))

	steps, x, err := s.BisectLimit(quadFn, limit, pow2(-27, 53), pow2(-26, 53))
	tt.MustOK(err)
	tt.MustAssert(steps > 0)
	tt.MustAssert(x.Cmp(pow2(-27, 53)) >= 0 && x.Cmp(pow2(-26, 53)) <= 0)
	tt.MustAssert(quadFn(x).Cmp(oneAt(53)) == 0)

	// A nil upper bound defaults to twice the lower bound.
	_, x2, err := s.BisectLimit(quadFn, limit, pow2(-27, 53), nil)
	tt.MustOK(err)
	tt.MustAssert(x.Cmp(x2) == 0)
}

func TestBisectLimitBadBracket(t *testing.T) {
	tt := assert.WrapTB(t)

	s := Search{Format: Double}
	limit := LimitValue(oneAt(53))

	// Agreement at both ends:
	_, _, err := s.BisectLimit(quadFn, limit, pow2(-30, 53), pow2(-29, 53))
	tt.MustAssert(errors.Is(err, ErrBracket), "%v", err)

	// Agreement at neither end:
	_, _, err = s.BisectLimit(quadFn, limit, pow2(-10, 53), pow2(-9, 53))
	tt.MustAssert(errors.Is(err, ErrBracket), "%v", err)
}

func TestFindLimitNULP(t *testing.T) {
	tt := assert.WrapTB(t)

	limit := LimitFunc(identity)

	res1, err := Search{Format: Double, NULP: 1}.FindLimit(linQuadFn, limit)
	tt.MustOK(err)
	res2, err := Search{Format: Double, NULP: 2}.FindLimit(linQuadFn, limit)
	tt.MustOK(err)

	// nulp=1 is a factor of two short of the x*x term at every binade
	// (the odd-significand half gap at 2**-52 included) until the sum
	// collapses exactly at step 53; nulp=2 already admits it at step 51.
	tt.MustEqual(53, res1.Steps)
	tt.MustEqual(51, res2.Steps)
	tt.MustAssert(res1.X.Cmp(res2.X) < 0, "nulp=1 %s !< nulp=2 %s",
		res1.X.Text('g', -1), res2.X.Text('g', -1))
}

func TestFindLimitCancellation(t *testing.T) {
	tt := assert.WrapTB(t)

	// (1+x)-1 computed at 53 bits collapses to zero for any x below
	// 2**-53. The searches must evaluate with guard bits beyond the
	// working precision or they report that boundary dozens of binades
	// too early.
	cancel := func(x *big.Float) *big.Float {
		one := oneAt(x.Prec())
		z := floatAt(x.Prec()).Add(one, x)
		return z.Sub(z, one)
	}

	res, err := Search{Format: Double}.FindLimit(cancel, LimitValue(floatAt(53)))
	tt.MustOK(err)
	tt.MustEqual(Converged, res.Outcome)
	tt.MustAssert(res.Steps > 53, "steps: %d", res.Steps)
}

func TestSearchValidation(t *testing.T) {
	tt := assert.WrapTB(t)

	_, err := Search{}.FindLimit(identity, LimitValue(big.NewFloat(1)))
	tt.MustAssert(err != nil)

	_, err = Search{Format: Double}.FindLimit(nil, LimitValue(big.NewFloat(1)))
	tt.MustAssert(err != nil)

	_, err = Search{Format: Double}.FindLimit(identity, Limit{})
	tt.MustAssert(err != nil)

	_, err = FindLimit(identity, LimitValue(big.NewFloat(1)), 54)
	tt.MustAssert(errors.Is(err, ErrFormatNotFound), "%v", err)
}
