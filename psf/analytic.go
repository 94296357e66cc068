package psf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// PSFModel is the minimal surface any point spread function model exposes:
// evaluation at a point with the model's stored parameters.
type PSFModel interface {
	Eval(x, y float64) float64
}

// MovablePSF is a PSFModel whose center can be repositioned.
type MovablePSF interface {
	PSFModel
	SetCenter(x, y float64)
}

// ScalablePSF is a PSFModel whose amplitude can be rescaled.
type ScalablePSF interface {
	PSFModel
	SetScale(s float64)
}

// GaussianPRF is a circular Gaussian point response function: the Gaussian
// profile integrated over unit pixels, so evaluating it at a pixel center
// gives the flux that pixel would record.
type GaussianPRF struct {
	Flux, X0, Y0 float64
	Sigma        float64
}

// NewGaussianPRF returns a unit-flux Gaussian PRF with the given width,
// centered at the origin.
func NewGaussianPRF(sigma float64) *GaussianPRF {
	return &GaussianPRF{Flux: 1, Sigma: sigma}
}

// Evaluate computes the pixel-integrated Gaussian with the given candidate
// parameters at the pixel centered on (x, y).
func (p *GaussianPRF) Evaluate(x, y, flux, x0, y0 float64) float64 {
	s := p.Sigma * math.Sqrt2
	return flux / 4 *
		(math.Erf((x-x0+0.5)/s) - math.Erf((x-x0-0.5)/s)) *
		(math.Erf((y-y0+0.5)/s) - math.Erf((y-y0-0.5)/s))
}

// EvaluateAll evaluates the model at all the given points. If an output
// array is given, the output is written to that array.
func (p *GaussianPRF) EvaluateAll(
	xs, ys []float64, flux, x0, y0 float64, out ...[]float64,
) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = p.Evaluate(xs[i], ys[i], flux, x0, y0)
	}
	return out[0]
}

// Eval evaluates the model with its stored free parameters.
func (p *GaussianPRF) Eval(x, y float64) float64 {
	return p.Evaluate(x, y, p.Flux, p.X0, p.Y0)
}

// SetCenter sets the model's position parameters.
func (p *GaussianPRF) SetCenter(x, y float64) { p.X0, p.Y0 = x, y }

// SetScale sets the model's flux parameter.
func (p *GaussianPRF) SetScale(s float64) { p.Flux = s }

// GaussianPSF is a circular Gaussian point spread function, evaluated
// pointwise rather than pixel-integrated.
type GaussianPSF struct {
	Flux, X0, Y0 float64
	Sigma        float64
}

// NewGaussianPSF returns a unit-flux Gaussian PSF with the given width,
// centered at the origin.
func NewGaussianPSF(sigma float64) *GaussianPSF {
	return &GaussianPSF{Flux: 1, Sigma: sigma}
}

func (p *GaussianPSF) Evaluate(x, y, flux, x0, y0 float64) float64 {
	dx, dy := x-x0, y-y0
	s2 := p.Sigma * p.Sigma
	return flux / (2 * math.Pi * s2) * math.Exp(-(dx*dx+dy*dy)/(2*s2))
}

// EvaluateAll evaluates the model at all the given points. If an output
// array is given, the output is written to that array.
func (p *GaussianPSF) EvaluateAll(
	xs, ys []float64, flux, x0, y0 float64, out ...[]float64,
) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = p.Evaluate(xs[i], ys[i], flux, x0, y0)
	}
	return out[0]
}

// Eval evaluates the model with its stored free parameters.
func (p *GaussianPSF) Eval(x, y float64) float64 {
	return p.Evaluate(x, y, p.Flux, p.X0, p.Y0)
}

// SetCenter sets the model's position parameters.
func (p *GaussianPSF) SetCenter(x, y float64) { p.X0, p.Y0 = x, y }

// SetScale sets the model's flux parameter.
func (p *GaussianPSF) SetScale(s float64) { p.Flux = s }

var (
	_ MovablePSF  = &GaussianPRF{}
	_ ScalablePSF = &GaussianPRF{}
	_ MovablePSF  = &GaussianPSF{}
	_ ScalablePSF = &GaussianPSF{}
	_ MovablePSF  = &ImagePSF{}
	_ ScalablePSF = &ImagePSF{}
	_ MovablePSF  = &GriddedPSF{}
	_ ScalablePSF = &GriddedPSF{}
)

// PRFOptions configures a PRFAdapter.
type PRFOptions struct {
	// Renormalize divides every output by the wrapped model's total
	// integral, so the adapter integrates to the flux parameter even if the
	// wrapped model is not normalized.
	Renormalize bool
	// RenormHalfWidth is the half-width of the square integration domain,
	// centered on the model origin, used to compute the renormalization
	// integral.
	RenormHalfWidth float64

	// MoveCenter routes the adapter's position parameters through the
	// wrapped model's SetCenter instead of shifting the integration domain.
	MoveCenter bool
	// ScaleFlux routes the adapter's flux parameter through the wrapped
	// model's SetScale instead of multiplying the integral.
	ScaleFlux bool

	// QuadPoints is the number of Gauss-Legendre nodes used per axis for
	// each pixel integral.
	QuadPoints int
}

// DefaultPRFOptions returns the standard PRFAdapter configuration.
func DefaultPRFOptions() PRFOptions {
	return PRFOptions{RenormHalfWidth: 50, QuadPoints: 24}
}

// PRFAdapter wraps a continuous PSF model as a point response function by
// integrating it over unit pixels. It is useful for comparing model classes
// rather than for production fitting: every evaluation performs a 2D
// quadrature.
//
// An adapter with MoveCenter or ScaleFlux set mutates the wrapped model's
// parameters during evaluation and must not be shared between goroutines.
type PRFAdapter struct {
	// Free parameters.
	Flux, X0, Y0 float64

	model PSFModel
	mov   MovablePSF
	scal  ScalablePSF

	norm   float64
	points int
}

// NewPRFAdapter wraps model as a pixel-integrated PRF. MoveCenter and
// ScaleFlux require the model to implement MovablePSF and ScalablePSF
// respectively.
func NewPRFAdapter(model PSFModel, opts PRFOptions) (*PRFAdapter, error) {
	a := &PRFAdapter{
		Flux: 1, model: model,
		norm: 1, points: opts.QuadPoints,
	}
	if a.points <= 0 {
		a.points = DefaultPRFOptions().QuadPoints
	}

	if opts.MoveCenter {
		mov, ok := model.(MovablePSF)
		if !ok {
			return nil, fmt.Errorf("%w: %T has no SetCenter",
				ErrNotMovable, model)
		}
		a.mov = mov
	}
	if opts.ScaleFlux {
		scal, ok := model.(ScalablePSF)
		if !ok {
			return nil, fmt.Errorf("%w: %T has no SetScale",
				ErrNotScalable, model)
		}
		a.scal = scal
	}

	if opts.Renormalize {
		h := opts.RenormHalfWidth
		if h <= 0 {
			h = DefaultPRFOptions().RenormHalfWidth
		}
		norm := a.integrate2D(-h, h, -h, h)
		if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
			return nil, fmt.Errorf("%w: model integral is %g",
				ErrRenormalize, norm)
		}
		a.norm = norm
	}

	return a, nil
}

// Evaluate computes the wrapped model's integral over the unit pixel
// centered on (x, y), for the given candidate parameters.
func (a *PRFAdapter) Evaluate(x, y, flux, x0, y0 float64) float64 {
	dx, dy := x, y
	if a.mov != nil {
		a.mov.SetCenter(x0, y0)
	} else {
		dx -= x0
		dy -= y0
	}

	if a.scal != nil {
		a.scal.SetScale(flux)
	}

	v := a.integrate2D(dx-0.5, dx+0.5, dy-0.5, dy+0.5) / a.norm
	if a.scal == nil {
		v *= flux
	}
	return v
}

// EvaluateAll evaluates the model at all the given points. If an output
// array is given, the output is written to that array.
func (a *PRFAdapter) EvaluateAll(
	xs, ys []float64, flux, x0, y0 float64, out ...[]float64,
) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = a.Evaluate(xs[i], ys[i], flux, x0, y0)
	}
	return out[0]
}

// Eval evaluates the model with its stored free parameters.
func (a *PRFAdapter) Eval(x, y float64) float64 {
	return a.Evaluate(x, y, a.Flux, a.X0, a.Y0)
}

// SetCenter sets the adapter's position parameters.
func (a *PRFAdapter) SetCenter(x, y float64) { a.X0, a.Y0 = x, y }

// SetScale sets the adapter's flux parameter.
func (a *PRFAdapter) SetScale(s float64) { a.Flux = s }

// Model returns the wrapped PSF model.
func (a *PRFAdapter) Model() PSFModel { return a.model }

// integrate2D computes the wrapped model's integral over the rectangle
// [xa, xb] x [ya, yb] by nested Gauss-Legendre quadrature. The node count
// scales with the interval length so that wide renormalization domains keep
// the same per-pixel resolution as single-pixel integrals.
func (a *PRFAdapter) integrate2D(xa, xb, ya, yb float64) float64 {
	nx := quadNodes(a.points, xb-xa)
	ny := quadNodes(a.points, yb-ya)
	inner := func(y float64) float64 {
		return quad.Fixed(func(x float64) float64 {
			return a.model.Eval(x, y)
		}, xa, xb, nx, quad.Legendre{}, 0)
	}
	return quad.Fixed(inner, ya, yb, ny, quad.Legendre{}, 0)
}

func quadNodes(perUnit int, width float64) int {
	n := int(math.Ceil(width)) * perUnit
	if n < perUnit {
		n = perUnit
	}
	return n
}
