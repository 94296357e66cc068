package psf

import (
	"fmt"
	"math"
)

// flatten copies a 2D image into a row-major slice, validating that the rows
// are rectangular and every value is finite.
func flatten(data [][]float64) (vals []float64, ny, nx int, err error) {
	ny = len(data)
	if ny == 0 || len(data[0]) == 0 {
		return nil, 0, 0, ErrEmptyImage
	}
	nx = len(data[0])

	vals = make([]float64, ny*nx)
	for iy, row := range data {
		if len(row) != nx {
			return nil, 0, 0, fmt.Errorf(
				"%w: row %d has %d values, row 0 has %d",
				ErrRaggedImage, iy, len(row), nx,
			)
		}
		for ix, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, 0, fmt.Errorf(
					"%w: data[%d][%d] = %g", ErrNonFinite, iy, ix, v,
				)
			}
			vals[iy*nx+ix] = v
		}
	}

	return vals, ny, nx, nil
}

// asPair expands an oversampling spec into (y, x) factors. nil means no
// oversampling, a single value broadcasts to both axes, and two values are
// taken in (y, x) order.
func asPair(over []int) (overY, overX int, err error) {
	switch len(over) {
	case 0:
		return 1, 1, nil
	case 1:
		overY, overX = over[0], over[0]
	case 2:
		overY, overX = over[0], over[1]
	default:
		return 0, 0, fmt.Errorf(
			"%w: got %d factors", ErrBadOversampling, len(over),
		)
	}

	if overY < 1 || overX < 1 {
		return 0, 0, fmt.Errorf(
			"%w: got (%d, %d)", ErrBadOversampling, overY, overX,
		)
	}
	return overY, overX, nil
}

// asDegreePair expands a spline degree spec into (y, x) degrees the same way
// asPair expands oversampling. Only degrees 1 and 3 have interpolator
// implementations.
func asDegreePair(degree []int) (degY, degX int, err error) {
	switch len(degree) {
	case 0:
		return 3, 3, nil
	case 1:
		degY, degX = degree[0], degree[0]
	case 2:
		degY, degX = degree[0], degree[1]
	default:
		return 0, 0, fmt.Errorf(
			"%w: got %d degrees", ErrBadDegree, len(degree),
		)
	}

	if degY < 0 || degX < 0 {
		return 0, 0, fmt.Errorf(
			"%w: got (%d, %d)", ErrBadDegree, degY, degX,
		)
	}
	if (degY != 1 && degY != 3) || (degX != 1 && degX != 3) {
		return 0, 0, fmt.Errorf(
			"%w: only degrees 1 and 3 are supported, got (%d, %d)",
			ErrBadDegree, degY, degX,
		)
	}
	return degY, degX, nil
}
