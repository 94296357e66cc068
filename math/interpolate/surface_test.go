package interpolate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func planeGrid(xs, ys []float64, f func(x, y float64) float64) []float64 {
	vals := make([]float64, len(xs)*len(ys))
	for iy, y := range ys {
		for ix, x := range xs {
			vals[iy*len(xs)+ix] = f(x, y)
		}
	}
	return vals
}

func TestSurfacePlane(t *testing.T) {
	f := func(x, y float64) float64 { return 2*x + 3*y + 1 }
	xs, ys := linspace(0, 10, 11), linspace(0, 5, 6)
	vals := planeGrid(xs, ys, f)

	for _, deg := range []int{1, 3} {
		surf := NewSurface(xs, ys, vals, deg, deg, 0)

		// on the grid
		assert.InDelta(t, f(3, 2), surf.Eval(3, 2), 1e-10, "deg %d", deg)
		// off the grid
		assert.InDelta(t, f(3.7, 2.2), surf.Eval(3.7, 2.2), 1e-10,
			"deg %d", deg)
		// outside the grid
		assert.InDelta(t, f(-1, 6), surf.Eval(-1, 6), 1e-10, "deg %d", deg)
	}
}

func TestSurfaceReproducesNodes(t *testing.T) {
	xs, ys := linspace(0, 4, 5), linspace(0, 3, 4)
	vals := planeGrid(xs, ys, func(x, y float64) float64 {
		return math.Sin(x) + math.Cos(2*y)
	})
	surf := NewSurface(xs, ys, vals, 3, 3, 0)

	for iy, y := range ys {
		for ix, x := range xs {
			assert.InDelta(t, vals[iy*len(xs)+ix], surf.Eval(x, y), 1e-12,
				"node (%d, %d)", ix, iy)
		}
	}
}

func TestSurfaceGaussian(t *testing.T) {
	sigma := 3.0
	f := func(x, y float64) float64 {
		return math.Exp(-(x*x + y*y) / (2 * sigma * sigma))
	}
	xs, ys := linspace(-8, 8, 17), linspace(-8, 8, 17)
	surf := NewSurface(xs, ys, planeGrid(xs, ys, f), 3, 3, 0)

	// Subpixel queries should be close, but not exact.
	for _, p := range [][2]float64{{0.5, 0.5}, {-0.5, 1.75}, {0.66, 0.66}} {
		want := f(p[0], p[1])
		got := surf.Eval(p[0], p[1])
		assert.InDelta(t, want, got, 1e-3*want, "point %v", p)
	}
}

func TestSurfaceMixedDegree(t *testing.T) {
	f := func(x, y float64) float64 { return x*x + y }
	xs, ys := linspace(0, 4, 9), linspace(0, 4, 9)
	surf := NewSurface(xs, ys, planeGrid(xs, ys, f), 3, 1, 0)

	// Exact in y (linear data along y), spline-accurate in x.
	assert.InDelta(t, f(2, 1.25), surf.Eval(2, 1.25), 1e-10)
	assert.InDelta(t, f(1.3, 2), surf.Eval(1.3, 2), 2e-2)
}

func TestSurfaceSingleColumn(t *testing.T) {
	xs, ys := []float64{0}, linspace(0, 3, 4)
	vals := []float64{0, 1, 2, 3}
	surf := NewSurface(xs, ys, vals, 3, 3, 0)

	assert.InDelta(t, 1.5, surf.Eval(0, 1.5), 1e-12)
	assert.InDelta(t, 1.5, surf.Eval(7, 1.5), 1e-12)
}

func TestSurfaceSmoothingConstant(t *testing.T) {
	xs, ys := linspace(0, 9, 10), linspace(0, 9, 10)
	vals := planeGrid(xs, ys, func(x, y float64) float64 { return 4 })
	surf := NewSurface(xs, ys, vals, 3, 3, 1.5)

	// A normalized kernel leaves constant data untouched.
	assert.InDelta(t, 4.0, surf.Eval(2.2, 7.9), 1e-12)
}

func TestSurfaceEvalAll(t *testing.T) {
	f := func(x, y float64) float64 { return x - y }
	xs, ys := linspace(0, 5, 6), linspace(0, 5, 6)
	surf := NewSurface(xs, ys, planeGrid(xs, ys, f), 3, 3, 0)

	qx := []float64{0, 1.5, 4}
	qy := []float64{1, 1, 0.25}
	out := surf.EvalAll(qx, qy)
	for i := range qx {
		assert.InDelta(t, f(qx[i], qy[i]), out[i], 1e-10, "point %d", i)
	}
}

func TestKernelNormalized(t *testing.T) {
	for _, k := range []*Kernel{
		NewGaussianKernel(7, 1.5, 1),
		NewTophatKernel(5),
	} {
		sum := 0.0
		for _, c := range k.cs {
			sum += c
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
	}
}

func TestConvolveConstant(t *testing.T) {
	k := NewGaussianKernel(5, 1, 1)
	xs := []float64{3, 3, 3, 3, 3, 3}
	out := k.Convolve(xs, Extension)
	for i := range out {
		assert.InDelta(t, 3.0, out[i], 1e-12, "element %d", i)
	}
}
