package psf

import (
	"fmt"
	"math"
	"sort"

	"github.com/phil-mansfield/epsf/math/interpolate"
)

// GridLibrary is a collection of reference PSF images sampled at known
// detector positions, all sharing the same shape and oversampling factor.
type GridLibrary struct {
	// Stack contains the reference images, each indexed as [y][x].
	Stack [][][]float64
	// Positions gives the (x, y) detector position of each reference image.
	Positions [][2]float64
	// Oversampling is the factor by which every image in the stack is
	// oversampled relative to detector pixels.
	Oversampling int
	// Meta carries free-form provenance strings (detector, filter, etc.).
	Meta map[string]string
}

// GriddedOptions configures a GriddedPSF.
type GriddedOptions struct {
	// Flux, X0, Y0 are the model's initial free parameters.
	Flux, X0, Y0 float64

	// FillValue is returned for queries outside a reference image's domain.
	// Set NoFill to propagate extrapolated interpolator values instead.
	FillValue float64
	NoFill    bool

	// CacheSize bounds the number of position-local interpolators kept
	// alive. 0 disables caching.
	CacheSize int
}

// DefaultGriddedOptions returns the standard GriddedPSF configuration.
func DefaultGriddedOptions() GriddedOptions {
	return GriddedOptions{Flux: 1, CacheSize: 128}
}

// GriddedPSF is a fittable PSF model that varies across the detector. It
// interpolates a library of reference images twice over: spatially, by
// blending the four reference images nearest the model position, and then
// within the blended image by bicubic spline to reach sub-pixel positions.
//
// Blended interpolators are cached per integer-truncated model position, so
// evaluating many stars in the same detector region is cheap. The model is
// safe for concurrent evaluation.
type GriddedPSF struct {
	// Free parameters.
	Flux, X0, Y0 float64

	lib    *GridLibrary
	stack  [][]float64
	ny, nx int
	over   int

	xpos, ypos   []float64
	xgrid, ygrid []float64
	xidx, yidx   []float64

	fill   float64
	noFill bool

	cache      *interpCache
	cacheBound int
}

// NewGriddedPSF creates a detector-position-dependent PSF model from a
// library of reference images. The library's positions must form a
// rectangular grid, though the grid spacing need not be uniform.
func NewGriddedPSF(lib *GridLibrary, opts GriddedOptions) (*GriddedPSF, error) {
	if lib == nil {
		return nil, ErrNoLibrary
	}
	if len(lib.Stack) == 0 {
		return nil, fmt.Errorf("%w: empty stack", ErrBadStack)
	}
	if lib.Oversampling < 1 {
		return nil, fmt.Errorf(
			"%w: got %d", ErrBadOversampling, lib.Oversampling,
		)
	}
	if lib.Positions == nil {
		return nil, fmt.Errorf("%w: library has no positions",
			ErrMissingPositions)
	}
	if len(lib.Positions) != len(lib.Stack) {
		return nil, fmt.Errorf("%w: %d images, but %d positions",
			ErrPositionCount, len(lib.Stack), len(lib.Positions))
	}
	if opts.CacheSize < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadCacheSize, opts.CacheSize)
	}

	n := len(lib.Stack)
	stack := make([][]float64, n)
	ny, nx := -1, -1
	for i, img := range lib.Stack {
		vals, iny, inx, err := flatten(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		if i == 0 {
			ny, nx = iny, inx
		} else if iny != ny || inx != nx {
			return nil, fmt.Errorf(
				"%w: image %d is %d x %d, but image 0 is %d x %d",
				ErrBadStack, i, iny, inx, ny, nx,
			)
		}
		stack[i] = vals
	}

	m := &GriddedPSF{
		Flux: opts.Flux, X0: opts.X0, Y0: opts.Y0,
		lib: lib, stack: stack, ny: ny, nx: nx,
		over: lib.Oversampling,
		fill: opts.FillValue, noFill: opts.NoFill,
	}

	m.xpos = make([]float64, n)
	m.ypos = make([]float64, n)
	for i, p := range lib.Positions {
		m.xpos[i], m.ypos[i] = p[0], p[1]
	}
	m.xgrid = uniqueSorted(m.xpos)
	m.ygrid = uniqueSorted(m.ypos)
	if len(m.xgrid)*len(m.ygrid) != n {
		return nil, fmt.Errorf(
			"%w: %d unique x by %d unique y positions cannot tile %d images",
			ErrIrregularGrid, len(m.xgrid), len(m.ygrid), n,
		)
	}

	m.xidx = make([]float64, nx)
	for i := range m.xidx {
		m.xidx[i] = float64(i)
	}
	m.yidx = make([]float64, ny)
	for i := range m.yidx {
		m.yidx[i] = float64(i)
	}

	m.cacheBound = opts.CacheSize
	m.cache = newInterpCache(opts.CacheSize, m.buildInterpolant)
	return m, nil
}

func uniqueSorted(xs []float64) []float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	out := sorted[:0]
	for i, x := range sorted {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// Evaluate computes the model at (x, y) for the given candidate parameters.
// The reference images nearest to (x0, y0) determine the PSF shape; the
// same position, truncated to integers, reuses a cached interpolator.
func (m *GriddedPSF) Evaluate(x, y, flux, x0, y0 float64) (float64, error) {
	surf, err := m.interpolantAt(x0, y0)
	if err != nil {
		return 0, err
	}
	return m.evalWith(surf, x, y, flux, x0, y0), nil
}

// EvaluateAll evaluates the model at all the given points, building the
// position-local interpolator only once.
func (m *GriddedPSF) EvaluateAll(
	xs, ys []float64, flux, x0, y0 float64, out ...[]float64,
) ([]float64, error) {
	surf, err := m.interpolantAt(x0, y0)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = m.evalWith(surf, xs[i], ys[i], flux, x0, y0)
	}
	return out[0], nil
}

// Eval evaluates the model with its stored free parameters. It panics if
// the spatial blend fails, which cannot happen for a library accepted by
// NewGriddedPSF.
func (m *GriddedPSF) Eval(x, y float64) float64 {
	v, err := m.Evaluate(x, y, m.Flux, m.X0, m.Y0)
	if err != nil {
		panic(err.Error())
	}
	return v
}

// SetCenter sets the model's position parameters.
func (m *GriddedPSF) SetCenter(x, y float64) { m.X0, m.Y0 = x, y }

// SetScale sets the model's flux parameter.
func (m *GriddedPSF) SetScale(s float64) { m.Flux = s }

func (m *GriddedPSF) interpolantAt(
	x0, y0 float64,
) (*interpolate.Surface, error) {
	key := cacheKey{int(x0), int(y0)}
	return m.cache.getOrBuild(key)
}

func (m *GriddedPSF) evalWith(
	surf *interpolate.Surface, x, y, flux, x0, y0 float64,
) float64 {
	xi := float64(m.over)*(x-x0) + float64(m.nx-1)/2
	yi := float64(m.over)*(y-y0) + float64(m.ny-1)/2

	if !m.noFill &&
		(xi < 0 || xi > float64(m.nx-1) || yi < 0 || yi > float64(m.ny-1)) {
		return m.fill
	}
	return flux * surf.Eval(xi, yi)
}

// buildInterpolant constructs the bicubic interpolator of the reference
// image blend at the integer position (ix, iy).
func (m *GriddedPSF) buildInterpolant(
	ix, iy int,
) (*interpolate.Surface, error) {
	x, y := float64(ix), float64(iy)

	var img []float64
	if x < m.xgrid[0] || x > m.xgrid[len(m.xgrid)-1] ||
		y < m.ygrid[0] || y > m.ygrid[len(m.ygrid)-1] {
		// Outside the convex hull of the grid: fall back to the nearest
		// reference image rather than extrapolating.
		img = m.stack[m.nearestRef(x, y)]
	} else if len(m.xgrid) == 1 || len(m.ygrid) == 1 {
		img = m.stack[m.nearestRef(x, y)]
	} else {
		blended, err := m.blendAt(x, y)
		if err != nil {
			return nil, err
		}
		img = blended
	}

	return interpolate.NewSurface(m.xidx, m.yidx, img, 3, 3, 0), nil
}

func (m *GriddedPSF) nearestRef(x, y float64) int {
	best, bestDist := 0, math.Inf(1)
	for i := range m.xpos {
		d := math.Hypot(m.xpos[i]-x, m.ypos[i]-y)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// startIdx returns the index of the grid coordinate opening the interval
// that contains x. Positions at or beyond the last coordinate map to the
// last interval.
func startIdx(grid []float64, x float64) int {
	idx := sort.SearchFloat64s(grid, x)
	switch {
	case idx == 0:
		return 0
	case idx >= len(grid):
		return len(grid) - 2
	default:
		return idx - 1
	}
}

// blendAt bilinearly blends the four reference images at the corners of the
// grid cell containing (x, y), weighting each by the area of the opposite
// sub-rectangle.
func (m *GriddedPSF) blendAt(x, y float64) ([]float64, error) {
	xi := startIdx(m.xgrid, x)
	yi := startIdx(m.ygrid, y)

	refs := make([]int, 4)
	xc := make([]float64, 4)
	yc := make([]float64, 4)
	k := 0
	for _, cy := range []float64{m.ygrid[yi], m.ygrid[yi+1]} {
		for _, cx := range []float64{m.xgrid[xi], m.xgrid[xi+1]} {
			refs[k] = m.nearestRef(cx, cy)
			xc[k] = m.xpos[refs[k]]
			yc[k] = m.ypos[refs[k]]
			k++
		}
	}

	return m.blendCorners(refs, xc, yc, x, y)
}

// blendCorners does the actual area-weighted blend of four reference
// images. The corner positions must form an axis-aligned rectangle that
// contains (x, y).
func (m *GriddedPSF) blendCorners(
	refs []int, xc, yc []float64, x, y float64,
) ([]float64, error) {
	// Order the corners (x0,y0), (x1,y0), (x0,y1), (x1,y1).
	order := []int{0, 1, 2, 3}
	sort.Slice(order, func(i, j int) bool {
		oi, oj := order[i], order[j]
		if yc[oi] != yc[oj] {
			return yc[oi] < yc[oj]
		}
		return xc[oi] < xc[oj]
	})

	x00, y00 := xc[order[0]], yc[order[0]]
	x11, y11 := xc[order[3]], yc[order[3]]
	if xc[order[1]] != x11 || yc[order[1]] != y00 ||
		xc[order[2]] != x00 || yc[order[2]] != y11 ||
		x00 >= x11 || y00 >= y11 {
		return nil, fmt.Errorf(
			"%w: corners (%g, %g), (%g, %g), (%g, %g), (%g, %g)",
			ErrNotRectangle,
			xc[0], yc[0], xc[1], yc[1], xc[2], yc[2], xc[3], yc[3],
		)
	}
	if x < x00 || x > x11 || y < y00 || y > y11 {
		return nil, fmt.Errorf("%w: (%g, %g) not in [%g, %g] x [%g, %g]",
			ErrOutsideRectangle, x, y, x00, x11, y00, y11)
	}

	norm := (x11 - x00) * (y11 - y00)
	ws := []float64{
		(x11 - x) * (y11 - y) / norm,
		(x - x00) * (y11 - y) / norm,
		(x11 - x) * (y - y00) / norm,
		(x - x00) * (y - y00) / norm,
	}

	out := make([]float64, m.ny*m.nx)
	for c := 0; c < 4; c++ {
		img := m.stack[refs[order[c]]]
		w := ws[c]
		for i, v := range img {
			out[i] += w * v
		}
	}
	return out, nil
}

// Copy returns a model sharing this model's reference library but carrying
// its own parameters and its own, empty, interpolator cache.
func (m *GriddedPSF) Copy() *GriddedPSF {
	dup := *m
	dup.cache = newInterpCache(m.cacheBound, dup.buildInterpolant)
	return &dup
}

// Deepcopy returns a fully independent model: the reference stack and
// positions are copied, not shared.
func (m *GriddedPSF) Deepcopy() *GriddedPSF {
	lib := &GridLibrary{
		Stack:        make([][][]float64, len(m.lib.Stack)),
		Positions:    make([][2]float64, len(m.lib.Positions)),
		Oversampling: m.lib.Oversampling,
	}
	copy(lib.Positions, m.lib.Positions)
	for i, img := range m.lib.Stack {
		dup := make([][]float64, len(img))
		for j, row := range img {
			dup[j] = make([]float64, len(row))
			copy(dup[j], row)
		}
		lib.Stack[i] = dup
	}
	if m.lib.Meta != nil {
		lib.Meta = make(map[string]string, len(m.lib.Meta))
		for k, v := range m.lib.Meta {
			lib.Meta[k] = v
		}
	}

	dup, err := NewGriddedPSF(lib, GriddedOptions{
		Flux: m.Flux, X0: m.X0, Y0: m.Y0,
		FillValue: m.fill, NoFill: m.noFill,
		CacheSize: m.cacheBound,
	})
	if err != nil {
		panic(err.Error())
	}
	return dup
}

// ClearCache drops all cached interpolators.
func (m *GriddedPSF) ClearCache() { m.cache.clear() }

// CacheStats returns the interpolator cache's hit count, miss count, and
// current size.
func (m *GriddedPSF) CacheStats() (hits, misses, size int) {
	return m.cache.stats()
}

// Library returns the model's reference library. The library is shared, not
// copied, and must not be modified.
func (m *GriddedPSF) Library() *GridLibrary { return m.lib }

// Oversampling returns the stack's oversampling factor.
func (m *GriddedPSF) Oversampling() int { return m.over }

// GridShape returns the number of unique reference x and y positions.
func (m *GriddedPSF) GridShape() (nx, ny int) {
	return len(m.xgrid), len(m.ygrid)
}
