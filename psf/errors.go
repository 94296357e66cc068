package psf

import "errors"

// Construction-time validation errors.
var (
	// ErrEmptyImage indicates a zero-sized input image.
	ErrEmptyImage = errors.New("psf: image must have at least one row and one column")
	// ErrRaggedImage indicates rows of differing lengths.
	ErrRaggedImage = errors.New("psf: all image rows must have the same length")
	// ErrNonFinite indicates NaN or Inf values in input data.
	ErrNonFinite = errors.New("psf: all image values must be finite")
	// ErrBadOrigin indicates an origin that is neither nil nor a 2-element slice.
	ErrBadOrigin = errors.New("psf: origin must be nil or have exactly two elements")
	// ErrBadOversampling indicates a missing or non-positive oversampling factor.
	ErrBadOversampling = errors.New("psf: oversampling factors must be positive integers")
	// ErrBadCorrection indicates a non-positive normalization correction.
	ErrBadCorrection = errors.New("psf: normalization correction must be strictly positive")
	// ErrBadDegree indicates an invalid interpolator spline degree.
	ErrBadDegree = errors.New("psf: spline degree must be a non-negative integer")
	// ErrBadSmoothing indicates a negative smoothing factor.
	ErrBadSmoothing = errors.New("psf: smoothing factor must be non-negative")
	// ErrBadRadius indicates a non-positive aperture normalization radius.
	ErrBadRadius = errors.New("psf: normalization radius must be positive")

	// ErrNoLibrary indicates a nil reference library.
	ErrNoLibrary = errors.New("psf: reference library must not be nil")
	// ErrBadStack indicates a reference stack that is not a 3D array.
	ErrBadStack = errors.New("psf: reference stack must be a non-empty 3D array")
	// ErrMissingPositions indicates a library without grid positions.
	ErrMissingPositions = errors.New("psf: library must tag every reference with a grid position")
	// ErrPositionCount indicates a position list whose length does not match
	// the stack depth.
	ErrPositionCount = errors.New("psf: position count must match the number of reference images")
	// ErrIrregularGrid indicates positions that do not form a regular grid.
	ErrIrregularGrid = errors.New("psf: grid positions must form a regular grid")
	// ErrBadCacheSize indicates a negative interpolant cache capacity.
	ErrBadCacheSize = errors.New("psf: cache size must not be negative")
)

// Geometry errors raised while blending reference images.
var (
	// ErrNotRectangle indicates four reference points that do not form an
	// axis-aligned rectangle.
	ErrNotRectangle = errors.New("psf: reference points do not form a rectangle")
	// ErrOutsideRectangle indicates a blend query outside its reference
	// rectangle.
	ErrOutsideRectangle = errors.New("psf: point lies outside the reference rectangle")
)

// Adapter errors.
var (
	// ErrNotMovable indicates an adapted model without settable center.
	ErrNotMovable = errors.New("psf: adapted model does not expose a settable center")
	// ErrNotScalable indicates an adapted model without a settable scale.
	ErrNotScalable = errors.New("psf: adapted model does not expose a settable scale")
	// ErrRenormalize indicates a PSF whose integral is zero or non-finite, so
	// it cannot be renormalized.
	ErrRenormalize = errors.New("psf: model integral is zero or non-finite")
)
