package interpolate

import (
	"math"
)

// Kernel is a 1D smoothing kernel corresponding to some smoothing strategy
// and some window width.
type Kernel struct {
	cs     []float64
	center int
}

// BoundaryCondition is a flag representing the rule used when the smoothing
// window extends outside the data range.
type BoundaryCondition int

const (
	Periodic BoundaryCondition = iota
	Reflection
	ZeroPad
	Extension
)

// Convolve convolves a 1D data set according to the kernel k. Boundary
// conditions are specified with b.
//
// Make sure that xs corresponds to some uniformly-spaced sequence.
func (k *Kernel) Convolve(xs []float64, b BoundaryCondition) []float64 {
	out := make([]float64, len(xs))
	k.ConvolveAt(xs, b, out)
	return out
}

// ConvolveAt convolves a 1D data set according to the kernel k. Boundary
// conditions are specified with b and the output is written to out.
func (k *Kernel) ConvolveAt(xs []float64, b BoundaryCondition, out []float64) {
	n := len(xs)
	nl, nr := k.center, len(k.cs)-1-k.center
	var x float64

	for i := 0; i <= nl && i < n; i++ {
		sum := 0.0
		for j, c := range k.cs {
			idx := i + j - k.center
			switch {
			case idx < 0:
				switch b {
				case Periodic:
					x = xs[n+idx]
				case Reflection:
					x = xs[-(idx + 1)]
				case ZeroPad:
					x = 0
				case Extension:
					x = xs[0]
				}
			case idx >= n:
				switch b {
				case Periodic:
					x = xs[idx-n]
				case Reflection:
					x = xs[2*(n-1)-idx+1]
				case ZeroPad:
					x = 0
				case Extension:
					x = xs[n-1]
				}
			default:
				x = xs[idx]
			}
			sum += x * c
		}
		out[i] = sum
	}

	for i := nl + 1; i < n-nr; i++ {
		sum := 0.0
		for j, c := range k.cs {
			sum += xs[i+j-k.center] * c
		}
		out[i] = sum
	}

	for i := n - nr; i < n; i++ {
		if i <= nl {
			continue
		}
		sum := 0.0
		for j, c := range k.cs {
			idx := i + j - k.center
			if idx >= n {
				switch b {
				case Periodic:
					x = xs[idx-n]
				case Reflection:
					x = xs[2*(n-1)-idx+1]
				case ZeroPad:
					x = 0
				case Extension:
					x = xs[n-1]
				}
			} else {
				x = xs[idx]
			}
			sum += x * c
		}
		out[i] = sum
	}
}

func (k *Kernel) normalize() {
	sum := 0.0
	for _, c := range k.cs {
		sum += c
	}
	for i := range k.cs {
		k.cs[i] /= sum
	}
}

// NewGaussianKernel creates a Gaussian kernel, exp(-x^2 / (2 sigma^2)), with
// the given window width and point separation, dx. The window width must be
// odd.
func NewGaussianKernel(width int, sigma, dx float64) *Kernel {
	if width%2 != 1 {
		panic("Kernel width must be odd.")
	}

	k := new(Kernel)
	k.cs = make([]float64, width)
	k.center = width / 2

	for i := 0; i <= k.center; i++ {
		x := float64(i-k.center) * dx
		k.cs[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	// Gaussians are symmetric: no need to compute again.
	for i := k.center + 1; i < len(k.cs); i++ {
		k.cs[i] = k.cs[len(k.cs)-1-i]
	}

	k.normalize()
	return k
}

// NewTophatKernel creates a constant smoothing kernel of the given width. The
// window width must be odd.
func NewTophatKernel(width int) *Kernel {
	if width%2 != 1 {
		panic("Kernel width must be odd.")
	}

	k := new(Kernel)
	k.cs = make([]float64, width)
	k.center = width / 2

	for i := range k.cs {
		k.cs[i] = 1
	}

	k.normalize()
	return k
}
