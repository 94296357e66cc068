package psf

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatLibrary builds a library of constant-valued reference images on the
// given position grid, where the image at (x, y) has the value val(x, y).
// Constant images make the spatial blend easy to check: blending linear
// val functions is exact.
func flatLibrary(
	xgrid, ygrid []float64, n, over int, val func(x, y float64) float64,
) *GridLibrary {
	lib := &GridLibrary{Oversampling: over}
	for _, y := range ygrid {
		for _, x := range xgrid {
			img := make([][]float64, n)
			for iy := range img {
				img[iy] = make([]float64, n)
				for ix := range img[iy] {
					img[iy][ix] = val(x, y)
				}
			}
			lib.Stack = append(lib.Stack, img)
			lib.Positions = append(lib.Positions, [2]float64{x, y})
		}
	}
	return lib
}

func testLibrary() *GridLibrary {
	return flatLibrary(
		[]float64{0, 100}, []float64{0, 100}, 11, 1,
		func(x, y float64) float64 { return 2*x + y + 1 },
	)
}

func TestGriddedBlend(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)

	// Inside the hull the four corner images blend bilinearly, which is
	// exact for a linear function of position.
	for _, p := range [][2]float64{
		{0, 0}, {100, 100}, {50, 50}, {25, 75}, {1, 99},
	} {
		x0, y0 := p[0], p[1]
		want := 2*x0 + y0 + 1
		got, err := m.Evaluate(x0, y0, 1, x0, y0)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, "at (%g, %g)", x0, y0)
	}
}

func TestGriddedOutsideGrid(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)

	// Outside the hull the model falls back to the nearest reference.
	got, err := m.Evaluate(-20, -30, 1, -20, -30)
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-9)

	got, err = m.Evaluate(150, 20, 1, 150, 20)
	require.NoError(t, err)
	assert.InDelta(t, 2*100+0+1, got, 1e-9)
}

func TestGriddedEdgeOfGrid(t *testing.T) {
	lib := flatLibrary(
		[]float64{0, 50, 100}, []float64{0, 50, 100}, 11, 1,
		func(x, y float64) float64 { return x + 3*y },
	)
	m, err := NewGriddedPSF(lib, DefaultGriddedOptions())
	require.NoError(t, err)

	// Positions on the last grid line use the last cell.
	got, err := m.Evaluate(100, 50, 1, 100, 50)
	require.NoError(t, err)
	assert.InDelta(t, 100+3*50, got, 1e-9)
}

func TestGriddedSubpixel(t *testing.T) {
	// A single-cell library whose images are all the same Gaussian: the
	// blend is the Gaussian itself, so sub-pixel evaluation must match the
	// profile like an ordinary image model.
	over := 4
	data := gaussGrid(2.5, 8, over)
	lib := &GridLibrary{Oversampling: over}
	for _, p := range [][2]float64{{0, 0}, {100, 0}, {0, 100}, {100, 100}} {
		lib.Stack = append(lib.Stack, data)
		lib.Positions = append(lib.Positions, p)
	}

	m, err := NewGriddedPSF(lib, DefaultGriddedOptions())
	require.NoError(t, err)

	g := NewGaussianPSF(2.5)
	for _, p := range [][2]float64{{0, 0}, {0.3, -0.2}, {1.6, 2.1}} {
		x, y := 50+p[0], 50+p[1]
		want := g.Eval(p[0], p[1])
		got, err := m.Evaluate(x, y, 1, 50, 50)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-4*want, "at (%g, %g)", p[0], p[1])
	}
}

func TestGriddedFill(t *testing.T) {
	opts := DefaultGriddedOptions()
	opts.FillValue = -7
	m, err := NewGriddedPSF(testLibrary(), opts)
	require.NoError(t, err)

	// 100 pixels from the model center is far outside an 11-pixel image.
	got, err := m.Evaluate(150, 50, 1, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, -7.0, got)
}

func TestGriddedEvaluateAll(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)

	xs := []float64{50, 51, 52.5}
	ys := []float64{50, 49, 50.5}
	got, err := m.EvaluateAll(xs, ys, 2, 50, 50)
	require.NoError(t, err)
	for i := range xs {
		want, err := m.Evaluate(xs[i], ys[i], 2, 50, 50)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}
}

func TestGriddedInvalidInputs(t *testing.T) {
	nan := math.NaN()
	good := testLibrary()

	tests := []struct {
		name string
		lib  *GridLibrary
		mod  func(*GridLibrary)
		opts GriddedOptions
		err  error
	}{
		{"nil library", nil, nil, DefaultGriddedOptions(), ErrNoLibrary},
		{"empty stack", good, func(l *GridLibrary) {
			l.Stack = nil
		}, DefaultGriddedOptions(), ErrBadStack},
		{"ragged image", good, func(l *GridLibrary) {
			l.Stack[1] = [][]float64{{1, 2}, {3}}
		}, DefaultGriddedOptions(), ErrRaggedImage},
		{"mismatched shapes", good, func(l *GridLibrary) {
			l.Stack[1] = [][]float64{{1, 2}, {3, 4}}
		}, DefaultGriddedOptions(), ErrBadStack},
		{"nan pixel", good, func(l *GridLibrary) {
			l.Stack[0][3][4] = nan
		}, DefaultGriddedOptions(), ErrNonFinite},
		{"no positions", good, func(l *GridLibrary) {
			l.Positions = nil
		}, DefaultGriddedOptions(), ErrMissingPositions},
		{"position count", good, func(l *GridLibrary) {
			l.Positions = l.Positions[:3]
		}, DefaultGriddedOptions(), ErrPositionCount},
		{"zero oversampling", good, func(l *GridLibrary) {
			l.Oversampling = 0
		}, DefaultGriddedOptions(), ErrBadOversampling},
		{"irregular grid", good, func(l *GridLibrary) {
			l.Positions[3] = [2]float64{73, 100}
		}, DefaultGriddedOptions(), ErrIrregularGrid},
		{"negative cache", good, nil,
			GriddedOptions{CacheSize: -1}, ErrBadCacheSize},
	}

	for _, test := range tests {
		lib := test.lib
		if lib != nil {
			lib = testLibrary()
			if test.mod != nil {
				test.mod(lib)
			}
		}
		_, err := NewGriddedPSF(lib, test.opts)
		assert.ErrorIs(t, err, test.err, test.name)
	}
}

func TestBlendCornersErrors(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)

	// Corners that do not form a rectangle.
	_, err = m.blendCorners(
		[]int{0, 1, 2, 3},
		[]float64{0, 100, 0, 73}, []float64{0, 0, 100, 100},
		50, 50,
	)
	assert.ErrorIs(t, err, ErrNotRectangle)

	// A point outside the rectangle.
	_, err = m.blendCorners(
		[]int{0, 1, 2, 3},
		[]float64{0, 100, 0, 100}, []float64{0, 0, 100, 100},
		150, 50,
	)
	assert.ErrorIs(t, err, ErrOutsideRectangle)
}

func TestGriddedCopy(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)
	m.SetCenter(50, 50)
	m.Eval(50, 50)

	cp := m.Copy()
	assert.Same(t, m.Library(), cp.Library())
	_, misses, _ := cp.CacheStats()
	assert.Equal(t, 0, misses, "copy starts with an empty cache")
	assert.Equal(t, m.Eval(50, 50), cp.Eval(50, 50))

	dp := m.Deepcopy()
	assert.NotSame(t, m.Library(), dp.Library())
	assert.Equal(t, m.Eval(50, 50), dp.Eval(50, 50))
}

func TestGriddedConcurrent(t *testing.T) {
	m, err := NewGriddedPSF(testLibrary(), DefaultGriddedOptions())
	require.NoError(t, err)

	want, err := m.Evaluate(50.3, 49.7, 1, 50, 50)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				got, err := m.Evaluate(50.3, 49.7, 1, 50, 50)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}
