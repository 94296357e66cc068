package psf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func onesGrid(ny, nx int) []float64 {
	vals := make([]float64, ny*nx)
	for i := range vals {
		vals[i] = 1
	}
	return vals
}

func TestApertureSumUnitImage(t *testing.T) {
	// On a unit image, the aperture sum is the circle's area.
	vals := onesGrid(41, 41)
	for _, r := range []float64{0.5, 1, 2.5, 5, 10.25} {
		got := apertureSum(vals, 41, 41, 20, 20, r)
		assert.InDelta(t, math.Pi*r*r, got, 1e-9, "r = %g", r)
	}
}

func TestApertureSumCoversImage(t *testing.T) {
	// A circle enclosing the whole image recovers the plain sum.
	vals := make([]float64, 5*7)
	sum := 0.0
	for i := range vals {
		vals[i] = float64(i%13) + 0.25
		sum += vals[i]
	}
	got := apertureSum(vals, 5, 7, 3, 2, 100)
	assert.InDelta(t, sum, got, 1e-9)
}

func TestApertureSumOffCenter(t *testing.T) {
	// A circle centered on the image edge only covers half its area.
	vals := onesGrid(41, 41)
	got := apertureSum(vals, 41, 41, -0.5, 20, 5)
	assert.InDelta(t, math.Pi*25/2, got, 1e-9)
}

func TestApertureSumWeightsPixels(t *testing.T) {
	// A circle inscribed in a single pixel.
	vals := []float64{0, 0, 0, 0, 2, 0, 0, 0, 0}
	got := apertureSum(vals, 3, 3, 1, 1, 0.5)
	assert.InDelta(t, 2*math.Pi*0.25, got, 1e-12)
}

func TestPixelOverlapBounds(t *testing.T) {
	// Overlap fractions are always in [0, 1].
	for _, r := range []float64{0.1, 0.5, 1, 3} {
		for dy := -4.0; dy <= 4; dy += 0.25 {
			for dx := -4.0; dx <= 4; dx += 0.25 {
				w := pixelOverlap(dx, dy, r)
				assert.GreaterOrEqual(t, w, -1e-12)
				assert.LessOrEqual(t, w, 1+1e-12)
			}
		}
	}
}

func TestPixelOverlapFarAndNear(t *testing.T) {
	assert.InDelta(t, 1, pixelOverlap(0, 0, 3), 1e-12, "deep inside")
	assert.InDelta(t, 0, pixelOverlap(10, 0, 3), 1e-12, "far outside")
	// A pixel centered on the circle's edge is covered about halfway.
	assert.InDelta(t, 0.5, pixelOverlap(5, 0, 5), 5e-2)
}
