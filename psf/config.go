package psf

import (
	"fmt"
	"math"

	"gopkg.in/gcfg.v1"
)

// ModelConfig collects the tunable parameters of the psf package's model
// types in a form that can be read from an INI-style config file. See
// ExampleModelFile for the file layout and the option meanings.
type ModelConfig struct {
	ImageModel struct {
		Normalize    bool
		Correction   float64
		NormRadius   float64
		Policy       string
		Oversampling []int
		Degree       []int
		Smoothing    float64
		FillValue    float64
		NoFill       bool
	}
	GriddedModel struct {
		FillValue float64
		NoFill    bool
	}
	Cache struct {
		Size int
	}
}

const ExampleModelFile = `[ImageModel]
# Normalize rescales the model so its evaluated values sum to one.
Normalize = true
# Correction is an additional normalization factor, e.g. an aperture
# correction. It must be positive.
Correction = 1.0
# Policy is either "plain" (normalize by the image sum) or "aperture"
# (normalize by the flux within NormRadius of the image center).
Policy = aperture
# NormRadius is the aperture radius in detector pixels. Only used by the
# "aperture" policy.
NormRadius = 5.5
# Oversampling gives the image's sampling factor relative to detector
# pixels. Give the key twice for separate y and x factors.
Oversampling = 4
# Degree gives the interpolating spline degree, 1 or 3. Give the key twice
# for separate y and x degrees.
Degree = 3
# Smoothing widens the interpolator's smoothing kernel. 0 interpolates the
# image exactly.
Smoothing = 0
# FillValue is returned for positions outside the image. Set NoFill to
# extrapolate instead.
FillValue = 0
NoFill = false

[GriddedModel]
FillValue = 0
NoFill = false

[Cache]
# Size bounds the number of detector positions whose interpolators are kept
# alive at once. 0 disables caching.
Size = 128
`

// DefaultModelConfig returns the configuration encoded in
// ExampleModelFile.
func DefaultModelConfig() *ModelConfig {
	con := &ModelConfig{}
	con.ImageModel.Correction = 1
	con.ImageModel.NormRadius = 5.5
	con.ImageModel.Policy = "plain"
	con.Cache.Size = 128
	return con
}

// ReadModelConfig reads a ModelConfig from the file at fname, checking it
// for validity.
func ReadModelConfig(fname string) (*ModelConfig, error) {
	con := DefaultModelConfig()
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return nil, err
	}
	if err := con.checkInit(fname); err != nil {
		return nil, err
	}
	return con, nil
}

// ReadModelConfigString reads a ModelConfig from an in-memory config file.
func ReadModelConfigString(src string) (*ModelConfig, error) {
	con := DefaultModelConfig()
	if err := gcfg.ReadStringInto(con, src); err != nil {
		return nil, err
	}
	if err := con.checkInit("<string>"); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *ModelConfig) checkInit(fname string) error {
	im := &con.ImageModel
	switch {
	case im.Correction <= 0 || math.IsNaN(im.Correction):
		return fmt.Errorf("config %s: Correction = %g: %w",
			fname, im.Correction, ErrBadCorrection)
	case im.Policy != "plain" && im.Policy != "aperture":
		return fmt.Errorf(
			"config %s: Policy must be \"plain\" or \"aperture\", not %q",
			fname, im.Policy,
		)
	case im.Policy == "aperture" && im.NormRadius <= 0:
		return fmt.Errorf("config %s: NormRadius = %g: %w",
			fname, im.NormRadius, ErrBadRadius)
	case len(im.Oversampling) > 2:
		return fmt.Errorf("config %s: Oversampling given %d times: %w",
			fname, len(im.Oversampling), ErrBadOversampling)
	case len(im.Degree) > 2:
		return fmt.Errorf("config %s: Degree given %d times: %w",
			fname, len(im.Degree), ErrBadDegree)
	case im.Smoothing < 0 || math.IsNaN(im.Smoothing):
		return fmt.Errorf("config %s: Smoothing = %g: %w",
			fname, im.Smoothing, ErrBadSmoothing)
	case con.Cache.Size < 0:
		return fmt.Errorf("config %s: Cache Size = %d: %w",
			fname, con.Cache.Size, ErrBadCacheSize)
	}
	return nil
}

// ImageOptions converts the config into options for NewImagePSF.
func (con *ModelConfig) ImageOptions() ImageOptions {
	im := &con.ImageModel

	opts := DefaultImageOptions()
	opts.Normalize = im.Normalize
	opts.Correction = im.Correction
	opts.NormRadius = im.NormRadius
	if im.Policy == "aperture" {
		opts.Policy = ApertureSum
		opts.Flux = 1
	}
	if len(im.Oversampling) > 0 {
		opts.Oversampling = im.Oversampling
	}
	if len(im.Degree) > 0 {
		opts.Degree = im.Degree
	}
	opts.Smoothing = im.Smoothing
	opts.FillValue = im.FillValue
	opts.NoFill = im.NoFill
	return opts
}

// GriddedOptions converts the config into options for NewGriddedPSF.
func (con *ModelConfig) GriddedOptions() GriddedOptions {
	opts := DefaultGriddedOptions()
	opts.FillValue = con.GriddedModel.FillValue
	opts.NoFill = con.GriddedModel.NoFill
	opts.CacheSize = con.Cache.Size
	return opts
}
