package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"
	fplimit "github.com/shabbyrobe/go-fplimit"
)

// This dumps the small-angle approximation boundaries for the standard
// formats. It exists for poking at the numbers while tuning tolerances,
// not for anything serious; the library's tests are the real contract.

const usage = `Approximation boundary dumper

Usage: limits [-width <bits-or-bytes>] [-nulp <n>]`

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var width uint
	var nulp int
	flag.UintVar(&width, "width", 0, "Limit to the format this many bits or bytes wide (0 == all)")
	flag.IntVar(&nulp, "nulp", 0, "ULPs of tolerance for the sind/tand searches (0 == exact)")
	flag.Usage = func() { fmt.Println(usage); flag.PrintDefaults() }
	flag.Parse()

	if width != 0 {
		return fplimit.WithWidth(width, func(f *fplimit.Format) error {
			return dump(f, nulp)
		})
	}

	for _, f := range fplimit.Formats() {
		if err := dump(f, nulp); err != nil {
			return err
		}
	}
	return nil
}

func dump(f *fplimit.Format, nulp int) error {
	fmt.Printf("== %s: prec=%d minexp=%d maxexp=%d\n",
		f, f.Prec(), f.MinExp(true), f.MaxExp())

	for _, search := range []struct {
		name string
		fn   func() (fplimit.Result, error)
	}{
		{"cos(x) ~= 1", func() (fplimit.Result, error) { return fplimit.CosSmall(f.Prec()) }},
		{"sin(x) ~= x", func() (fplimit.Result, error) { return fplimit.SinSmall(f.Prec()) }},
		{"cosd(x) ~= 1", func() (fplimit.Result, error) { return fplimit.CosdSmall(f.Prec()) }},
		{"sind(x) ~= x*pi/180", func() (fplimit.Result, error) { return fplimit.SindSmall(f.Prec(), nulp) }},
		{"tand(x) ~= x*pi/180", func() (fplimit.Result, error) { return fplimit.TandSmall(f.Prec(), nulp) }},
	} {
		res, err := search.fn()
		if err != nil {
			return fmt.Errorf("%s: %s: %v", f, search.name, err)
		}
		fmt.Printf("-- %s\n", search.name)
		fmt.Printf("   x=%s\n", res.X.Text('g', 20))
		spew.Dump(res)
	}

	fmt.Println()
	return nil
}
