package fplimit

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNotConverged is returned when the coarse search exhausts its step
	// bound or reaches its stop value without the comparison ever
	// succeeding. The accompanying Result still carries the point the
	// search stopped at.
	ErrNotConverged = errors.New("fplimit: search did not converge")

	// ErrBracket is returned when a bisection bracket does not straddle
	// the boundary: agreement must hold at the lower edge and fail at the
	// upper edge.
	ErrBracket = errors.New("fplimit: bracket does not straddle the boundary")
)

// Func is a function evaluated by the limit search. Implementations must
// return their result at the precision of x; they must not modify x. The
// searches call Func with guard bits beyond the working precision and
// round the result back to the working precision before comparing.
type Func func(x *big.Float) *big.Float

// Limit is the reference a candidate function is compared against: either
// a constant value or a function of x. Build one with LimitValue or
// LimitFunc.
type Limit struct {
	fn    Func
	value *big.Float
}

// LimitValue returns a Limit that evaluates to v for every x.
func LimitValue(v *big.Float) Limit {
	return Limit{value: v}
}

// LimitFunc returns a Limit that evaluates fn at x.
func LimitFunc(fn Func) Limit {
	return Limit{fn: fn}
}

// Eval evaluates the limit at x.
func (l Limit) Eval(x *big.Float) *big.Float {
	if l.fn != nil {
		return l.fn(x)
	}
	return l.value
}

func (l Limit) ok() bool {
	return l.fn != nil || l.value != nil
}

// Outcome reports which condition terminated a coarse search.
type Outcome int

const (
	// Converged means the comparison predicate was satisfied.
	Converged Outcome = iota

	// StoppedAtBound means the iterate reached the stop value before the
	// comparison succeeded.
	StoppedAtBound

	// StoppedAtMaxSteps means the step bound was reached before the
	// comparison succeeded.
	StoppedAtMaxSteps
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case StoppedAtBound:
		return "stopped at bound"
	case StoppedAtMaxSteps:
		return "stopped at max steps"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of a limit search.
type Result struct {
	// X is the boundary estimate: the largest value at which the candidate
	// still agrees with the limit, refined by bisection in the two-phase
	// searches.
	X *big.Float

	// Steps is the coarse phase's power-of-two count. When the search
	// converges, both directions number it identically: a boundary near
	// 2**-n reports n. A non-converged search reports the raw iteration
	// count instead, in whichever direction it walked.
	Steps int

	// BisectSteps is the number of bisection refinements.
	BisectSteps int

	// Outcome of the coarse phase.
	Outcome Outcome
}

// comparer is the comparison predicate policy: exact equality when nulp is
// zero, ULP tolerance otherwise. Chosen once per search.
type comparer func(fx, lx *big.Float) bool

func cmpEqual(fx, lx *big.Float) bool {
	return fx.Cmp(lx) == 0
}

func cmpNotEqual(fx, lx *big.Float) bool {
	return fx.Cmp(lx) != 0
}

// ulpWithin returns a comparer reporting whether fx and lx agree to within
// nulp ULPs of f, measured at fx.
func ulpWithin(f *Format, nulp int) comparer {
	return func(fx, lx *big.Float) bool {
		diff := new(big.Float).SetPrec(fx.Prec()).Sub(fx, lx)
		diff.Abs(diff)
		tol := f.ULP(fx)
		if nulp > 1 {
			tol.Mul(tol, new(big.Float).SetInt64(int64(nulp)))
		}
		return diff.Cmp(tol) <= 0
	}
}

// ulpBeyond is the divergence-sense inverse of ulpWithin, used by the
// reverse search.
func ulpBeyond(f *Format, nulp int) comparer {
	within := ulpWithin(f, nulp)
	return func(fx, lx *big.Float) bool {
		return !within(fx, lx)
	}
}

// findFP is the coarse search primitive: starting at xstart, apply step
// until the iterate equals xstop, nsteps reaches maxSteps, or
// cmp(fn(x), limit(x)) succeeds. The returned x is wherever the loop
// stopped; Outcome says which condition fired.
func findFP(fn Func, limit Limit, xstart, xstop *big.Float, step func(x *big.Float) *big.Float, cmp comparer, maxSteps int) (nsteps int, x *big.Float, outcome Outcome) {
	x = new(big.Float).SetPrec(xstart.Prec()).Set(xstart)
	for {
		if xstop != nil && x.Cmp(xstop) == 0 {
			return nsteps, x, StoppedAtBound
		}
		if nsteps == maxSteps {
			return nsteps, x, StoppedAtMaxSteps
		}
		if cmp(fn(x), limit.Eval(x)) {
			return nsteps, x, Converged
		}
		x = step(x)
		nsteps++
	}
}

// Search configures a limit search over one of the standard formats.
// The zero value is not usable; Format must be set.
type Search struct {
	// Format supplies the ULP tolerance and the termination bounds.
	Format *Format

	// Start overrides the direction's default starting point: 1 for the
	// forward search, Format.MinValue(true) for the reverse search.
	Start *big.Float

	// Stop overrides the direction's default stop value:
	// Format.MinValue(true) for the forward search, 1 for the reverse
	// search.
	Stop *big.Float

	// NULP selects the tolerance policy: 0 compares for exact equality at
	// the working precision, n > 0 for agreement within n ULPs.
	NULP int

	// Prec is the working precision in significand bits for all iterates.
	// Zero means Format.Prec().
	Prec uint
}

func (s Search) prec() uint {
	if s.Prec != 0 {
		return s.Prec
	}
	return s.Format.Prec()
}

func (s Search) maxSteps() int {
	n := s.Format.MinExp(true)
	if n < 0 {
		n = -n
	}
	return n
}

// guardBits is the extra precision candidate and limit functions are
// evaluated at before their results are rounded back to the working
// precision. Evaluating at the working precision alone lets the
// function's own rounding error leak into the comparison: a 53-bit
// sin(x) is not the correctly rounded sin of x.
const guardBits = 64

// guard wraps fn so that it is evaluated at the working precision plus
// guardBits, with the result rounded to the working precision.
func (s Search) guard(fn Func) Func {
	prec := s.prec()
	return func(x *big.Float) *big.Float {
		xg := floatAt(prec + guardBits).Set(x)
		return floatAt(prec).Set(fn(xg))
	}
}

func (s Search) guardLimit(l Limit) Limit {
	if l.fn != nil {
		return LimitFunc(s.guard(l.fn))
	}
	return LimitValue(floatAt(s.prec()).Set(l.value))
}

func (s Search) agree() comparer {
	if s.NULP != 0 {
		return ulpWithin(s.Format, s.NULP)
	}
	return cmpEqual
}

func (s Search) check(fn Func, limit Limit) error {
	if s.Format == nil {
		return errors.New("fplimit: search format is nil")
	}
	if fn == nil {
		return errors.New("fplimit: search function is nil")
	}
	if !limit.ok() {
		return errors.New("fplimit: search limit is empty")
	}
	return nil
}

// FindLimitFast performs the coarse forward search only: starting at 1 (or
// Start) and halving toward Format.MinValue(true) (or Stop), it returns the
// first power-of-two-scaled x at which fn agrees with limit. This is a fast
// bracketing pass; callers wanting the refined boundary should use
// FindLimit, and callers using this directly must inspect the Outcome.
func (s Search) FindLimitFast(fn Func, limit Limit) (nsteps int, x *big.Float, outcome Outcome, err error) {
	if err := s.check(fn, limit); err != nil {
		return 0, nil, 0, err
	}

	prec := s.prec()
	start := s.Start
	if start == nil {
		start = oneAt(prec)
	}
	stop := s.Stop
	if stop == nil {
		stop = s.Format.MinValue(true)
	}

	cmp := s.agree()
	two := twoAt(prec)
	halve := func(x *big.Float) *big.Float {
		return floatAt(prec).Quo(x, two)
	}

	nsteps, x, outcome = findFP(s.guard(fn), s.guardLimit(limit), start, stop, halve, cmp, s.maxSteps())
	return nsteps, x, outcome, nil
}

// FindLimit locates the boundary below which fn agrees with limit: as x
// shrinks toward zero, the first x at which fn(x) matches limit(x) under
// the search's tolerance, refined by bisection to the largest agreeing
// value at the working precision.
//
// If the coarse phase never finds agreement, the best-effort Result is
// returned along with an error satisfying errors.Is(err, ErrNotConverged).
func (s Search) FindLimit(fn Func, limit Limit) (Result, error) {
	nsteps, x, outcome, err := s.FindLimitFast(fn, limit)
	if err != nil {
		return Result{}, err
	}

	res := Result{X: x, Steps: nsteps, Outcome: outcome}
	if outcome != Converged {
		return res, fmt.Errorf("%w: forward search %v after %d steps", ErrNotConverged, outcome, nsteps)
	}

	upper := floatAt(s.prec()).Mul(x, twoAt(s.prec()))
	bsteps, bx, err := s.BisectLimit(fn, limit, x, upper)
	if err != nil {
		return res, err
	}
	res.X, res.BisectSteps = bx, bsteps
	return res, nil
}

// FindLimitReverse locates the same boundary as FindLimit from the other
// end: starting at Format.MinValue(true) (or Start) and doubling toward 1
// (or Stop), it finds the first x at which fn stops agreeing with limit,
// then bisects back to the largest agreeing value.
//
// Steps in the result is reported as the boundary's power-of-two index so
// that it is directly comparable with the forward search's count. If the
// search does not converge there is no boundary to index and Steps is the
// raw doubling count.
func (s Search) FindLimitReverse(fn Func, limit Limit) (Result, error) {
	if err := s.check(fn, limit); err != nil {
		return Result{}, err
	}

	prec := s.prec()
	start := s.Start
	if start == nil {
		start = s.Format.MinValue(true)
	}
	stop := s.Stop
	if stop == nil {
		stop = oneAt(prec)
	}

	var cmp comparer = cmpNotEqual
	if s.NULP != 0 {
		cmp = ulpBeyond(s.Format, s.NULP)
	}
	two := twoAt(prec)
	double := func(x *big.Float) *big.Float {
		return floatAt(prec).Mul(x, two)
	}

	nsteps, x, outcome := findFP(s.guard(fn), s.guardLimit(limit), start, stop, double, cmp, s.maxSteps())
	res := Result{X: x, Steps: nsteps, Outcome: outcome}
	if outcome != Converged {
		return res, fmt.Errorf("%w: reverse search %v after %d steps", ErrNotConverged, outcome, nsteps)
	}
	res.Steps = s.maxSteps() - nsteps + 1

	lower := floatAt(prec).Quo(x, two)
	bsteps, bx, err := s.BisectLimit(fn, limit, lower, x)
	if err != nil {
		return res, err
	}
	res.X, res.BisectSteps = bx, bsteps
	return res, nil
}

// BisectLimit narrows [lower, upper] to the boundary where fn stops
// agreeing with limit, returning the number of bisection steps and the
// largest agreeing value. A nil upper defaults to 2*lower.
//
// Agreement must hold at lower and fail at upper; ErrBracket is returned
// otherwise. The bracket converges when the midpoint is no longer
// distinguishable from an edge at the working precision.
func (s Search) BisectLimit(fn Func, limit Limit, lower, upper *big.Float) (steps int, x *big.Float, err error) {
	if err := s.check(fn, limit); err != nil {
		return 0, nil, err
	}
	if lower == nil {
		return 0, nil, errors.New("fplimit: bisect lower bound is nil")
	}

	prec := s.prec()
	agree := s.agree()
	fn = s.guard(fn)
	limit = s.guardLimit(limit)

	lo := floatAt(prec).Set(lower)
	hi := floatAt(prec)
	if upper == nil {
		hi.Mul(lo, twoAt(prec))
	} else {
		hi.Set(upper)
	}

	if !agree(fn(lo), limit.Eval(lo)) {
		return 0, nil, fmt.Errorf("%w: no agreement at lower bound %v", ErrBracket, lo)
	}
	if agree(fn(hi), limit.Eval(hi)) {
		return 0, nil, fmt.Errorf("%w: agreement at upper bound %v", ErrBracket, hi)
	}

	two := twoAt(prec)
	mid := floatAt(prec)
	for {
		mid.Add(lo, hi)
		mid.Quo(mid, two)
		if mid.Cmp(lo) == 0 || mid.Cmp(hi) == 0 {
			break
		}
		if agree(fn(mid), limit.Eval(mid)) {
			lo.Set(mid)
		} else {
			hi.Set(mid)
		}
		steps++
	}
	return steps, lo, nil
}

// FindLimit runs a forward limit search at the standard format with prec
// bits of significand precision, comparing for exact equality.
func FindLimit(fn Func, limit Limit, prec uint) (Result, error) {
	f, err := FormatByPrec(prec)
	if err != nil {
		return Result{}, err
	}
	return Search{Format: f}.FindLimit(fn, limit)
}

// FindLimitReverse runs a reverse limit search at the standard format with
// prec bits of significand precision, comparing for exact equality.
func FindLimitReverse(fn Func, limit Limit, prec uint) (Result, error) {
	f, err := FormatByPrec(prec)
	if err != nil {
		return Result{}, err
	}
	return Search{Format: f}.FindLimitReverse(fn, limit)
}
