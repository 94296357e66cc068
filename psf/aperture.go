package psf

import (
	"math"
)

// apertureSum sums the image flux within a circle of radius r centered at
// (cx, cy), in image pixel coordinates. Pixel (ix, iy) covers the square
// [ix-0.5, ix+0.5] x [iy-0.5, iy+0.5] and contributes its value weighted by
// the exact geometric overlap fraction of that square with the circle.
func apertureSum(vals []float64, ny, nx int, cx, cy, r float64) float64 {
	sum := 0.0
	for iy := 0; iy < ny; iy++ {
		dy := float64(iy) - cy
		if dy-0.5 > r || dy+0.5 < -r {
			continue
		}
		for ix := 0; ix < nx; ix++ {
			dx := float64(ix) - cx
			if dx-0.5 > r || dx+0.5 < -r {
				continue
			}
			w := pixelOverlap(dx, dy, r)
			if w != 0 {
				sum += w * vals[iy*nx+ix]
			}
		}
	}
	return sum
}

// pixelOverlap returns the area of the intersection of the unit square
// centered at (dx, dy) with the circle of radius r centered at the origin.
func pixelOverlap(dx, dy, r float64) float64 {
	x0, x1 := dx-0.5, dx+0.5
	y0, y1 := dy-0.5, dy+0.5

	// Decompose the rectangle into four signed corner rectangles anchored
	// at the origin. The overlap of each with the circle has a closed form.
	return cornerArea(x1, y1, r) - cornerArea(x0, y1, r) -
		cornerArea(x1, y0, r) + cornerArea(x0, y0, r)
}

// cornerArea returns the signed area of the intersection of the circle of
// radius r with the axis-aligned rectangle spanned by the origin and (x, y).
func cornerArea(x, y, r float64) float64 {
	sign := 1.0
	if x < 0 {
		sign, x = -sign, -x
	}
	if y < 0 {
		sign, y = -sign, -y
	}
	return sign * quadArea(x, y, r)
}

// quadArea returns the area of the intersection of the circle of radius r
// with the rectangle [0, w] x [0, h], for w, h >= 0.
func quadArea(w, h, r float64) float64 {
	if w == 0 || h == 0 || r <= 0 {
		return 0
	}
	if w*w+h*h <= r*r {
		// Rectangle fully inside the circle.
		return w * h
	}
	if w > r {
		w = r
	}
	if h >= r {
		// The circle quadrant is fully below the top edge.
		return circSegInt(w, r)
	}

	// The circle crosses the top edge at x = xh.
	xh := math.Sqrt(r*r - h*h)
	if xh >= w {
		return w * h
	}
	return xh*h + circSegInt(w, r) - circSegInt(xh, r)
}

// circSegInt is the antiderivative of sqrt(r^2 - x^2), evaluated at x, with
// circSegInt(0, r) = 0.
func circSegInt(x, r float64) float64 {
	return x*math.Sqrt(r*r-x*x)/2 + r*r/2*math.Asin(x/r)
}
