// Package analysis evaluates solved circuit expressions over frequency
// sweeps, producing the complex responses that plotting front ends consume.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/R6500/circuit/pkg/symbolic"
)

// Sweep point spacing.
const (
	Decade = "DEC"
	Octave = "OCT"
	Linear = "LIN"
)

// Frequencies generates nPoints sweep frequencies between fStart and fStop
// with the given spacing.
func Frequencies(fStart, fStop float64, nPoints int, pointsType string) ([]float64, error) {
	if nPoints < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 points, got %d", nPoints)
	}

	freqs := make([]float64, nPoints)
	switch pointsType {
	case Decade:
		logStart := math.Log10(fStart)
		logStop := math.Log10(fStop)
		step := (logStop - logStart) / float64(nPoints-1)
		for i := 0; i < nPoints; i++ {
			freqs[i] = math.Pow(10, logStart+float64(i)*step)
		}
	case Octave:
		logStart := math.Log2(fStart)
		logStop := math.Log2(fStop)
		step := (logStop - logStart) / float64(nPoints-1)
		for i := 0; i < nPoints; i++ {
			freqs[i] = math.Pow(2, logStart+float64(i)*step)
		}
	case Linear:
		step := (fStop - fStart) / float64(nPoints-1)
		for i := 0; i < nPoints; i++ {
			freqs[i] = fStart + float64(i)*step
		}
	default:
		return nil, fmt.Errorf("unknown sweep spacing %q", pointsType)
	}

	return freqs, nil
}

// EvalList evaluates expr at every value of sym in points. Every other symbol
// in expr must already have been substituted away.
func EvalList(expr *symbolic.Expr, sym *symbolic.Symbol, points []complex128) ([]complex128, error) {
	out := make([]complex128, len(points))
	env := make(map[*symbolic.Symbol]complex128, 1)
	for i, x := range points {
		env[sym] = x
		v, err := expr.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("evaluating at point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// EvalFreqs evaluates expr at s = j*2*pi*f for every frequency in hertz.
func EvalFreqs(expr *symbolic.Expr, s *symbolic.Symbol, freqs []float64) ([]complex128, error) {
	points := make([]complex128, len(freqs))
	for i, f := range freqs {
		points[i] = complex(0, 2*math.Pi*f)
	}
	return EvalList(expr, s, points)
}

// Sweep evaluates a named expression over the frequencies and returns the
// results keyed "FREQ", name+"_MAG" and name+"_PHASE" (degrees).
func Sweep(name string, expr *symbolic.Expr, s *symbolic.Symbol, freqs []float64) (map[string][]float64, error) {
	values, err := EvalFreqs(expr, s, freqs)
	if err != nil {
		return nil, err
	}

	mag := make([]float64, len(values))
	phase := make([]float64, len(values))
	for i, v := range values {
		mag[i] = cmplx.Abs(v)
		phase[i] = cmplx.Phase(v) * 180.0 / math.Pi
	}

	results := make(map[string][]float64, 3)
	results["FREQ"] = append([]float64(nil), freqs...)
	results[name+"_MAG"] = mag
	results[name+"_PHASE"] = phase
	return results, nil
}
