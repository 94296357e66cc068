package interpolate

import (
	"fmt"
	"math"
	"sync"
)

// Surface is a tensor-product spline over a rectangular 2D grid. It is built
// out of 1D curves: one curve along y for every x node, plus a single curve
// along x which is reinitialized whenever the query's y value changes. The
// per-axis degree selects the curve type, 1 for linear and 3 for cubic.
//
// Surfaces extrapolate instead of panicking when evaluated outside the grid.
// Callers that need a strict domain should mask out-of-range points
// themselves.
//
// Eval and EvalAll are safe to call from multiple goroutines.
type Surface struct {
	xs, ys []float64
	vals   []float64
	nx     int

	mu      sync.Mutex
	lastY   float64
	cols    []curve
	rowVals []float64
	row     curve
}

// NewSurface creates a Surface over the grid points xs and ys with the values
// vals, where vals[iy*len(xs) + ix] is the sample at (xs[ix], ys[iy]). degX
// and degY give the spline degree along each axis and must be 1 or 3.
//
// A smoothing factor of 0 interpolates vals exactly. A positive factor
// convolves the grid with a Gaussian kernel of that sigma, in grid-spacing
// units, along both axes before the fit.
//
// xs, ys and vals must not be modified throughout the lifetime of the
// Surface.
func NewSurface(xs, ys, vals []float64, degX, degY int, smoothing float64) *Surface {
	if len(xs)*len(ys) != len(vals) {
		panic(fmt.Sprintf(
			"len(vals) = %d, but len(xs) = %d and len(ys) = %d",
			len(vals), len(xs), len(ys),
		))
	}
	checkDegree(degX)
	checkDegree(degY)
	if smoothing < 0 || math.IsNaN(smoothing) {
		panic(fmt.Sprintf("Smoothing factor %g is negative.", smoothing))
	}

	s := &Surface{}
	s.nx = len(xs)
	s.xs, s.ys = xs, ys
	s.vals = vals
	if smoothing > 0 {
		s.vals = smoothGrid(vals, len(xs), len(ys), smoothing)
	}

	s.initCurves(degX, degY)

	return s
}

func checkDegree(deg int) {
	if deg != 1 && deg != 3 {
		panic(fmt.Sprintf("Surface spline degree %d is not 1 or 3.", deg))
	}
}

// newCurve selects the 1D interpolant for one axis. Axes too short for the
// requested degree degrade instead of failing: two points always give a line
// and one point gives a constant.
func newCurve(deg int, xs, ys []float64) curve {
	switch {
	case len(xs) == 1:
		c := &constant{}
		c.Init(xs, ys)
		return c
	case deg == 1 || len(xs) == 2:
		return NewLinear(xs, ys)
	default:
		return NewSpline(xs, ys)
	}
}

func (s *Surface) initCurves(degX, degY int) {
	s.cols = make([]curve, len(s.xs))

	for xi := range s.xs {
		yVals := make([]float64, len(s.ys))
		for yi := range s.ys {
			yVals[yi] = s.vals[s.nx*yi+xi]
		}
		s.cols[xi] = newCurve(degY, s.ys, yVals)
	}

	s.lastY = s.ys[0]
	s.rowVals = make([]float64, len(s.xs))
	for i := range s.rowVals {
		s.rowVals[i] = s.cols[i].Eval(s.lastY)
	}

	s.row = newCurve(degX, s.xs, s.rowVals)
}

// Eval computes the value of the surface at the given point.
func (s *Surface) Eval(x, y float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval(x, y)
}

func (s *Surface) eval(x, y float64) float64 {
	if y != s.lastY {
		s.lastY = y
		for i := range s.rowVals {
			s.rowVals[i] = s.cols[i].Eval(y)
		}
		s.row.Init(s.xs, s.rowVals)
	}

	return s.row.Eval(x)
}

// EvalAll evaluates the surface at all the given points. If an output array
// is given, the output is written to that array (the array is still returned
// as a convenience).
//
// If more than one output array is provided, only the first is used.
func (s *Surface) EvalAll(xs, ys []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range xs {
		out[0][i] = s.eval(xs[i], ys[i])
	}
	return out[0]
}

// smoothGrid convolves the grid with a normalized Gaussian kernel of the
// given sigma along both axes, extending edge values past the boundary.
func smoothGrid(vals []float64, nx, ny int, sigma float64) []float64 {
	width := 2*int(math.Ceil(3*sigma)) + 1
	k := NewGaussianKernel(width, sigma, 1)

	out := make([]float64, len(vals))

	row := make([]float64, nx)
	rowOut := make([]float64, nx)
	for iy := 0; iy < ny; iy++ {
		copy(row, vals[iy*nx:(iy+1)*nx])
		k.ConvolveAt(row, Extension, rowOut)
		copy(out[iy*nx:(iy+1)*nx], rowOut)
	}

	col := make([]float64, ny)
	colOut := make([]float64, ny)
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			col[iy] = out[iy*nx+ix]
		}
		k.ConvolveAt(col, Extension, colOut)
		for iy := 0; iy < ny; iy++ {
			out[iy*nx+ix] = colOut[iy]
		}
	}

	return out
}
