/*psfplot plots the radial profile of an image PSF model against measured
star fluxes.

The model is built by sampling a circular Gaussian on an oversampled grid
and wrapping it in a model configured by an INI file (see
psf.ExampleModelFile). The star table is a whitespace-separated text file
whose first three columns are x offset, y offset, and measured flux.

Example usage:
    psfplot -Config model.config -Stars stars.dat -Sigma 2.5
*/
package main

import (
	"flag"
	"log"
	"math"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/epsf/psf"
)

func main() {
	configName := flag.String("Config", "", "Model config file.")
	starsName := flag.String("Stars", "", "Star profile table.")
	outName := flag.String("Out", "profile.png", "Output plot file.")
	sigma := flag.Float64("Sigma", 2.5, "Gaussian width in pixels.")
	halfWidth := flag.Int("HalfWidth", 12, "Model half-width in pixels.")
	flag.Parse()

	if *configName == "" {
		log.Fatalf("psfplot: no config file given.")
	}
	if *starsName == "" {
		log.Fatalf("psfplot: no star table given.")
	}

	con, err := psf.ReadModelConfig(*configName)
	if err != nil {
		log.Fatalf("psfplot: %s", err.Error())
	}

	m, err := gaussianModel(con, *sigma, *halfWidth)
	if err != nil {
		log.Fatalf("psfplot: %s", err.Error())
	}

	cols, err := table.ReadTable(*starsName, []int{0, 1, 2}, nil)
	if err != nil {
		log.Fatalf("psfplot: %s", err.Error())
	}
	starXs, starYs, starFluxes := cols[0], cols[1], cols[2]

	starRs := make([]float64, len(starXs))
	for i := range starRs {
		starRs[i] = math.Hypot(starXs[i], starYs[i])
	}

	rs, vals := profile(m, float64(*halfWidth))

	plt.Figure()
	plt.Plot(rs, vals, "r", plt.LW(3))
	plt.Plot(starRs, starFluxes, "ok")
	plt.XLabel(`$r$ [pixels]`, plt.FontSize(16))
	plt.YLabel(`Flux`, plt.FontSize(16))
	plt.YScale("log")
	plt.SaveFig(*outName)
	plt.Execute()
}

// gaussianModel samples a Gaussian of the given width on an oversampled
// grid and wraps it according to the config.
func gaussianModel(
	con *psf.ModelConfig, sigma float64, halfWidth int,
) (*psf.ImagePSF, error) {
	opts := con.ImageOptions()

	over := 1
	if len(con.ImageModel.Oversampling) > 0 {
		over = con.ImageModel.Oversampling[0]
	}

	g := psf.NewGaussianPSF(sigma)
	n := 2*halfWidth*over + 1
	data := make([][]float64, n)
	for iy := range data {
		data[iy] = make([]float64, n)
		y := float64(iy-halfWidth*over) / float64(over)
		for ix := range data[iy] {
			x := float64(ix-halfWidth*over) / float64(over)
			data[iy][ix] = g.Eval(x, y)
		}
	}

	return psf.NewImagePSF(data, opts)
}

// profile evaluates the model along a horizontal cut through its center.
func profile(m *psf.ImagePSF, halfWidth float64) (rs, vals []float64) {
	n := 512
	rs = make([]float64, n)
	vals = make([]float64, n)
	for i := range rs {
		rs[i] = halfWidth * float64(i) / float64(n-1)
		vals[i] = m.Eval(rs[i], 0)
	}
	return rs, vals
}
