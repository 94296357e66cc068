/*package interpolate provides routines for building smooth analytic functions
through regularly sampled data, in one and two dimensions.
*/
package interpolate

type Interpolator interface {
	Eval(x float64) float64
	EvalAll(xs []float64, out ...[]float64) []float64
}

var (
	_ Interpolator = &Spline{}
	_ Interpolator = &Linear{}
)

type BiInterpolator interface {
	Eval(x, y float64) float64
	EvalAll(xs, ys []float64, out ...[]float64) []float64
}

var (
	_ BiInterpolator = &Surface{}
)

// curve is a 1D interpolant which can be reinitialized with a new value table
// of the same length without reallocating.
type curve interface {
	Interpolator
	Init(xs, ys []float64)
}

var (
	_ curve = &Spline{}
	_ curve = &Linear{}
	_ curve = &constant{}
)
