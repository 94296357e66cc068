package psf

import (
	"fmt"
	"log"
	"math"

	"github.com/phil-mansfield/epsf/math/interpolate"
)

// NormStatus reports what happened to a model's normalization request.
type NormStatus int

const (
	// NormPerformed means the model was successfully normalized at the
	// caller's request.
	NormPerformed NormStatus = iota
	// NormFailed means an attempt to normalize failed because the raw image
	// norm was zero or non-finite. The model stays usable: the normalization
	// constant is pinned to 1.
	NormFailed
	// NormNotRequested means the caller did not ask for normalization.
	NormNotRequested
)

// NormPolicy selects how a model computes its raw image norm and how
// normalization is applied.
type NormPolicy int

const (
	// PlainSum computes the raw norm as the sum of all pixel values and
	// applies the normalization constant at evaluation time.
	PlainSum NormPolicy = iota
	// ApertureSum computes the raw norm as the flux within a circular
	// aperture around the image center, in undersampled pixel units, and
	// rescales the stored grid once at construction. This is the effective
	// PSF (ePSF) convention: a fitted flux then corresponds to aperture
	// photometry within the normalization radius.
	ApertureSum
)

// ImageOptions configures an ImagePSF. Use DefaultImageOptions or
// DefaultEPSFOptions as a starting point: the zero value asks for a
// normalization correction of zero, which is rejected.
type ImageOptions struct {
	// Flux is the initial intensity scaling factor. NaN means "estimate from
	// the raw image norm".
	Flux float64
	// X0, Y0 are the initial positions of the image origin in the output
	// coordinate grid.
	X0, Y0 float64

	// Normalize requests that the model be built on normalized image data.
	Normalize bool
	// Correction is a strictly positive factor applied on top of the raw
	// image norm, e.g. an aperture correction.
	Correction float64
	// NormRadius is the aperture radius, in undersampled pixels, used by the
	// ApertureSum policy.
	NormRadius float64
	// Policy selects the normalization variant.
	Policy NormPolicy

	// Origin is a reference point in the input image, in the image's own
	// pixel units. nil puts the origin at the image center.
	Origin []float64
	// Oversampling gives the integer factors by which the image is
	// oversampled relative to the output grid. nil means no oversampling, a
	// single value broadcasts, two values are in (y, x) order.
	Oversampling []int

	// FillValue is returned for queries outside the image domain. Set NoFill
	// to propagate extrapolated interpolator values instead.
	FillValue float64
	NoFill    bool

	// Degree gives the interpolating spline degree: nil means bicubic, a
	// single value broadcasts, two values are in (y, x) order.
	Degree []int
	// Smoothing is the interpolator's smoothing factor; 0 interpolates the
	// image exactly.
	Smoothing float64
}

// DefaultImageOptions returns the options for a plain, unnormalized image
// model whose flux parameter is estimated from the image sum.
func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		Flux:       math.NaN(),
		Correction: 1,
		NormRadius: 5.5,
	}
}

// DefaultEPSFOptions returns the options for an aperture-normalized
// effective PSF model.
func DefaultEPSFOptions() ImageOptions {
	opt := DefaultImageOptions()
	opt.Flux = 1
	opt.Normalize = true
	opt.Policy = ApertureSum
	return opt
}

// ImagePSF is a fittable 2D model of a sampled image, allowing for intensity
// scaling and translation. It computes model values at arbitrary, including
// fractional, positions using spline interpolation over the stored image.
//
// The free parameters Flux, X0 and Y0 are only defaults for Eval; fitting
// drivers pass candidate parameters to Evaluate directly.
type ImagePSF struct {
	// Free parameters.
	Flux, X0, Y0 float64

	data   []float64
	ny, nx int

	xOrigin, yOrigin float64
	overY, overX     int

	policy     NormPolicy
	correction float64
	normRadius float64
	normConst  float64
	rawNorm    float64
	rawNormSet bool
	status     NormStatus

	fill   float64
	noFill bool

	degY, degX int
	smoothing  float64
	interp     *interpolate.Surface
}

// NewImagePSF creates an image-backed PSF model from a rectangular 2D image.
// The image is copied, validated to be finite and non-empty, and, for the
// ApertureSum policy with Normalize set, rescaled in place by the computed
// normalization.
func NewImagePSF(data [][]float64, opts ImageOptions) (*ImagePSF, error) {
	vals, ny, nx, err := flatten(data)
	if err != nil {
		return nil, err
	}

	overY, overX, err := asPair(opts.Oversampling)
	if err != nil {
		return nil, err
	}

	if opts.Correction <= 0 || math.IsNaN(opts.Correction) {
		return nil, fmt.Errorf("%w: got %g", ErrBadCorrection, opts.Correction)
	}
	if opts.Policy == ApertureSum && opts.NormRadius <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrBadRadius, opts.NormRadius)
	}

	m := &ImagePSF{
		X0: opts.X0, Y0: opts.Y0,
		data: vals, ny: ny, nx: nx,
		overY: overY, overX: overX,
		policy:     opts.Policy,
		correction: opts.Correction,
		normRadius: opts.NormRadius,
		normConst:  1 / opts.Correction,
		status:     NormNotRequested,
		fill:       opts.FillValue,
		noFill:     opts.NoFill,
	}

	switch {
	case opts.Origin == nil:
		m.xOrigin = float64(nx-1) / 2
		m.yOrigin = float64(ny-1) / 2
		if m.policy == ApertureSum {
			// The ePSF origin lives in undersampled units.
			m.xOrigin /= float64(overX)
			m.yOrigin /= float64(overY)
		}
	case len(opts.Origin) == 2:
		m.xOrigin, m.yOrigin = opts.Origin[0], opts.Origin[1]
	default:
		return nil, fmt.Errorf(
			"%w: got %d elements", ErrBadOrigin, len(opts.Origin),
		)
	}

	m.applyNormalization(opts.Normalize)

	m.Flux = opts.Flux
	if math.IsNaN(m.Flux) {
		m.Flux = m.rawImageNorm()
	}

	if err := m.ComputeInterpolator(opts.Degree, opts.Smoothing); err != nil {
		return nil, err
	}
	return m, nil
}

// rawImageNorm computes the uncorrected inverse normalization factor of the
// image. It is computed at most once and never recomputed afterwards, even
// if the correction factor changes later.
func (m *ImagePSF) rawImageNorm() float64 {
	if m.rawNormSet {
		return m.rawNorm
	}

	switch m.policy {
	case ApertureSum:
		total := 0.0
		for _, v := range m.data {
			total += v
		}
		if total == 0 {
			m.rawNorm = 0
		} else {
			r := m.normRadius * float64(m.overY)
			cx, cy := float64(m.nx)/2, float64(m.ny)/2
			flux := apertureSum(m.data, m.ny, m.nx, cx, cy, r)
			m.rawNorm = flux / float64(m.overX*m.overY)
		}
	default:
		sum := 0.0
		for _, v := range m.data {
			sum += v
		}
		m.rawNorm = sum
	}

	m.rawNormSet = true
	return m.rawNorm
}

// applyNormalization computes the normalization constant, or rescales the
// grid for the ApertureSum policy. A zero or non-finite raw norm is not
// fatal: the request is downgraded with a warning and the constant pinned
// to 1.
func (m *ImagePSF) applyNormalization(normalize bool) {
	m.normConst = 1 / m.correction

	if !normalize {
		m.status = NormNotRequested
		if m.policy == ApertureSum {
			m.rawImageNorm()
		}
		return
	}

	norm := m.rawImageNorm()
	if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
		m.status = NormFailed
		m.normConst = 1
		if m.policy == ApertureSum {
			m.rawNorm = 1
		}
		log.Printf("psf: image norm is zero or non-finite; " +
			"normalization constant set to 1")
		return
	}

	if m.policy == ApertureSum {
		scale := 1 / (norm * m.correction)
		for i := range m.data {
			m.data[i] *= scale
		}
	} else {
		m.normConst /= norm
	}
	m.status = NormPerformed
}

// ComputeInterpolator rebuilds the model's interpolating spline with the
// given degree and smoothing factor (see ImageOptions). Rebuilding is
// expensive; avoid calling this in fitting loops.
func (m *ImagePSF) ComputeInterpolator(degree []int, smoothing float64) error {
	degY, degX, err := asDegreePair(degree)
	if err != nil {
		return err
	}
	if smoothing < 0 || math.IsNaN(smoothing) {
		return fmt.Errorf("%w: got %g", ErrBadSmoothing, smoothing)
	}

	xs := make([]float64, m.nx)
	ys := make([]float64, m.ny)
	for i := range xs {
		xs[i] = float64(i)
	}
	for i := range ys {
		ys[i] = float64(i)
	}
	if m.policy == ApertureSum {
		// The ePSF interpolator works on the undersampled pixel grid.
		for i := range xs {
			xs[i] /= float64(m.overX)
		}
		for i := range ys {
			ys[i] /= float64(m.overY)
		}
	}

	m.degY, m.degX, m.smoothing = degY, degX, smoothing
	m.interp = interpolate.NewSurface(xs, ys, m.data, degX, degY, smoothing)
	return nil
}

// Evaluate computes the model at (x, y) in the output coordinate grid for
// the given candidate parameters. Queries outside the image domain return
// the configured fill value, or the extrapolated spline value if NoFill was
// set.
func (m *ImagePSF) Evaluate(x, y, flux, x0, y0 float64) float64 {
	var xi, yi, v float64
	switch m.policy {
	case ApertureSum:
		xi = (x - x0) + m.xOrigin
		yi = (y - y0) + m.yOrigin
		v = flux * m.interp.Eval(xi, yi)
	default:
		xi = float64(m.overX)*(x-x0) + m.xOrigin
		yi = float64(m.overY)*(y-y0) + m.yOrigin
		v = flux * m.normConst * m.interp.Eval(xi, yi)
	}

	if !m.noFill && m.outside(xi, yi) {
		return m.fill
	}
	return v
}

// EvaluateAll evaluates the model at all the given points. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
//
// If more than one output array is provided, only the first is used.
func (m *ImagePSF) EvaluateAll(
	xs, ys []float64, flux, x0, y0 float64, out ...[]float64,
) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = m.Evaluate(xs[i], ys[i], flux, x0, y0)
	}
	return out[0]
}

// Eval evaluates the model with its stored free parameters.
func (m *ImagePSF) Eval(x, y float64) float64 {
	return m.Evaluate(x, y, m.Flux, m.X0, m.Y0)
}

// SetCenter sets the model's position parameters.
func (m *ImagePSF) SetCenter(x, y float64) { m.X0, m.Y0 = x, y }

// SetScale sets the model's flux parameter.
func (m *ImagePSF) SetScale(s float64) { m.Flux = s }

func (m *ImagePSF) outside(xi, yi float64) bool {
	xMax, yMax := float64(m.nx-1), float64(m.ny-1)
	if m.policy == ApertureSum {
		xMax /= float64(m.overX)
		yMax /= float64(m.overY)
	}
	return xi < 0 || xi > xMax || yi < 0 || yi > yMax
}

// SetCorrection changes the normalization correction factor. The model's
// flux parameter is rescaled by the ratio of the new to the old correction,
// so a model that fit some target image before the change still fits it
// afterwards. The raw image norm is never recomputed.
func (m *ImagePSF) SetCorrection(c float64) error {
	if c <= 0 || math.IsNaN(c) {
		return fmt.Errorf("%w: got %g", ErrBadCorrection, c)
	}

	old := m.correction
	m.correction = c

	switch {
	case m.policy == ApertureSum && m.status == NormPerformed:
		// The grid carries the normalization, so it absorbs the change.
		scale := old / c
		for i := range m.data {
			m.data[i] *= scale
		}
		degree := []int{m.degY, m.degX}
		if err := m.ComputeInterpolator(degree, m.smoothing); err != nil {
			return err
		}
	case m.policy != ApertureSum:
		m.applyNormalization(m.status != NormNotRequested)
	}

	m.Flux *= c / old
	return nil
}

// Shape returns the stored image dimensions (ny, nx).
func (m *ImagePSF) Shape() (ny, nx int) { return m.ny, m.nx }

// Origin returns the model's coordinate system origin in image pixel units.
func (m *ImagePSF) Origin() (x, y float64) { return m.xOrigin, m.yOrigin }

// Oversampling returns the model's (y, x) oversampling factors.
func (m *ImagePSF) Oversampling() (y, x int) { return m.overY, m.overX }

// NormStatus reports the outcome of the model's normalization request.
func (m *ImagePSF) NormStatus() NormStatus { return m.status }

// NormConstant returns the multiplicative normalization constant applied at
// evaluation time. For the ApertureSum policy the grid itself carries the
// normalization, so this stays at 1/correction.
func (m *ImagePSF) NormConstant() float64 { return m.normConst }

// Correction returns the current normalization correction factor.
func (m *ImagePSF) Correction() float64 { return m.correction }

// Data returns the stored image as a row-major slice of length ny*nx. The
// returned slice aliases the model's state and must not be modified.
func (m *ImagePSF) Data() []float64 { return m.data }
