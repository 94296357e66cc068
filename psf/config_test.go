package psf

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadModelConfigExample(t *testing.T) {
	con, err := ReadModelConfigString(ExampleModelFile)
	require.NoError(t, err)

	want := DefaultModelConfig()
	want.ImageModel.Normalize = true
	want.ImageModel.Policy = "aperture"
	want.ImageModel.Oversampling = []int{4}
	want.ImageModel.Degree = []int{3}

	if diff := pretty.Compare(con, want); diff != "" {
		t.Errorf("example config diff (-got +want):\n%s", diff)
	}
}

func TestReadModelConfigDefaults(t *testing.T) {
	con, err := ReadModelConfigString("")
	require.NoError(t, err)

	if diff := pretty.Compare(con, DefaultModelConfig()); diff != "" {
		t.Errorf("empty config diff (-got +want):\n%s", diff)
	}
}

func TestReadModelConfigRepeatedKeys(t *testing.T) {
	con, err := ReadModelConfigString(`[ImageModel]
Oversampling = 2
Oversampling = 3
Degree = 3
Degree = 1
`)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, con.ImageModel.Oversampling)
	assert.Equal(t, []int{3, 1}, con.ImageModel.Degree)
}

func TestReadModelConfigInvalid(t *testing.T) {
	tests := []struct {
		name, src string
		err       error
	}{
		{"zero correction", "[ImageModel]\nCorrection = 0\n",
			ErrBadCorrection},
		{"bad radius", "[ImageModel]\nPolicy = aperture\nNormRadius = -1\n",
			ErrBadRadius},
		{"long oversampling",
			"[ImageModel]\nOversampling = 1\nOversampling = 1\n" +
				"Oversampling = 1\n",
			ErrBadOversampling},
		{"negative smoothing", "[ImageModel]\nSmoothing = -0.5\n",
			ErrBadSmoothing},
		{"negative cache", "[Cache]\nSize = -1\n", ErrBadCacheSize},
	}

	for _, test := range tests {
		_, err := ReadModelConfigString(test.src)
		assert.ErrorIs(t, err, test.err, test.name)
	}

	_, err := ReadModelConfigString("[ImageModel]\nPolicy = fancy\n")
	assert.Error(t, err, "unknown policy")

	_, err = ReadModelConfigString("[ImageModel]\nNotAnOption = 1\n")
	assert.Error(t, err, "unknown variable")
}

func TestModelConfigImageOptions(t *testing.T) {
	con, err := ReadModelConfigString(ExampleModelFile)
	require.NoError(t, err)

	opts := con.ImageOptions()
	assert.Equal(t, ApertureSum, opts.Policy)
	assert.True(t, opts.Normalize)
	assert.Equal(t, 1.0, opts.Flux)
	assert.Equal(t, 5.5, opts.NormRadius)
	assert.Equal(t, []int{4}, opts.Oversampling)
	assert.Equal(t, []int{3}, opts.Degree)

	// The options build a working model.
	m, err := NewImagePSF(gaussGrid(1.5, 8, 4), opts)
	require.NoError(t, err)
	assert.Equal(t, NormPerformed, m.NormStatus())
}

func TestModelConfigGriddedOptions(t *testing.T) {
	con, err := ReadModelConfigString(`[GriddedModel]
FillValue = -1
[Cache]
Size = 4
`)
	require.NoError(t, err)

	opts := con.GriddedOptions()
	assert.Equal(t, -1.0, opts.FillValue)
	assert.Equal(t, 4, opts.CacheSize)
	assert.Equal(t, 1.0, opts.Flux)
}
