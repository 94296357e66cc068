package interpolate

// Linear is a linear interpolator. Like Spline, it extends its end segments
// so that points outside the input range can be evaluated.
type Linear struct {
	xs, ys []float64

	incr bool
	dx   float64
}

// NewLinear creates a linear interpolator for a table of x and y values. The
// values must be sorted in increasing or decreasing order in x.
func NewLinear(xs, ys []float64) *Linear {
	lin := new(Linear)
	lin.xs, lin.ys = xs, ys
	lin.Init(xs, ys)
	return lin
}

// Init reinitializes the interpolator to use a new table of points. |xs| and
// |ys| must be the same as the previous point set.
func (lin *Linear) Init(xs, ys []float64) {
	if len(xs) != len(lin.xs) || len(ys) != len(lin.ys) {
		panic("Length of input arrays do not equal internal table arrays.")
	}
	lin.incr = checkTable("NewLinear()", xs, ys)
	lin.xs, lin.ys = xs, ys
	lin.dx = (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
}

// Eval returns the interpolated value at x.
func (lin *Linear) Eval(x float64) float64 {
	i := segSearch(lin.xs, lin.dx, lin.incr, x)
	x1, x2 := lin.xs[i], lin.xs[i+1]
	y1, y2 := lin.ys[i], lin.ys[i+1]

	return ((y2-y1)/(x2-x1))*(x-x1) + y1
}

// EvalAll evaluates the interpolator at all the given x values. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
//
// If more than one output array is provided, only the first is used.
func (lin *Linear) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i, x := range xs {
		out[0][i] = lin.Eval(x)
	}
	return out[0]
}

// constant is the degenerate single-point curve. It shows up when a surface
// axis contains only one sample.
type constant struct {
	y float64
}

func (c *constant) Init(xs, ys []float64) { c.y = ys[0] }

func (c *constant) Eval(x float64) float64 { return c.y }

func (c *constant) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i := range xs {
		out[0][i] = c.y
	}
	return out[0]
}
