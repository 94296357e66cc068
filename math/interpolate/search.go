package interpolate

// segSearch returns the index of the interval [xs[i], xs[i+1]] containing x.
// Points outside the table are clamped to the first or last interval so that
// callers can extrapolate off the ends of the table.
//
// xs must be sorted. dx is an estimate of the point spacing used to guess the
// index before falling back to a binary search.
func segSearch(xs []float64, dx float64, incr bool, x float64) int {
	if x < xs[0] == incr {
		return 0
	}
	if x > xs[len(xs)-1] == incr {
		return len(xs) - 2
	}

	// Guess under the assumption of uniform spacing.
	guess := int((x - xs[0]) / dx)
	if guess >= 0 && guess < len(xs)-1 &&
		(xs[guess] <= x == incr) &&
		(xs[guess+1] >= x == incr) {

		return guess
	}

	// Binary search.
	lo, hi := 0, len(xs)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if incr == (x >= xs[mid]) {
			lo = mid
		} else {
			hi = mid
		}
	}

	if lo == len(xs)-1 {
		lo--
	}
	return lo
}

// checkTable panics if xs and ys cannot form an interpolation table. It
// reports whether xs is increasing.
func checkTable(fn string, xs, ys []float64) bool {
	if len(xs) != len(ys) {
		panic(fn + ": length of input slices are not equal.")
	} else if len(xs) <= 1 {
		panic(fn + ": table must contain at least two points.")
	}

	incr := xs[0] < xs[1]
	for i := 0; i < len(xs)-1; i++ {
		if (xs[i+1] < xs[i]) == incr {
			panic(fn + ": table not sorted.")
		}
	}
	return incr
}
