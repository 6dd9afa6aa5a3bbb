/*
Package fplimit finds the thresholds at which common floating point
approximations become exact for the standard IEEE formats.

All arithmetic is performed with math/big: a candidate function and a
reference limit are evaluated with guard bits beyond the working
precision and rounded back, a coarse power-of-two search brackets the
point where the two stop agreeing, and bisection narrows the bracket to
the boundary. The guard bits keep the functions' own rounding error out
of the comparison, so the rounded results behave as an exact oracle
would.

Simple example:

	res, err := fplimit.CosSmall(53)
	if err != nil {
		// ...
	}
	fmt.Println(res.X) // largest x for which cos(x) rounds to 1 in a double

Formats are looked up by significand precision or by width:

	FormatByPrec(prec uint) (*Format, error)
	FormatByWidth(bytesOrBits uint) (*Format, error)

Searches over your own function pairs are run through Search:

	s := fplimit.Search{Format: fplimit.Double}
	res, err := s.FindLimit(fn, fplimit.LimitValue(one))

A Func must return its result at the precision of its argument; the
functions in lattigo's utils/bignum package already satisfy this.
*/
package fplimit
