// Package nsdf implements the Normalized Square Difference Function at the
// core of the McLeod Pitch Method, together with the key-maxima selector
// and parabolic refiner that turns an NSDF buffer into a fundamental-period
// candidate.
package nsdf

import "fmt"

// Engine computes the Normalized Square Difference Function over a fixed
// lag range [LagMin, LagMax] of a fixed-size window.
//
//	nsdf(tau) = 2*r(tau) / m(tau)
//	r(tau)    = sum_{j=0}^{N-tau-1} x[j]*x[j+tau]
//	m(tau)    = sum_{j=0}^{N-tau-1} (x[j]^2 + x[j+tau]^2)
//
// nsdf(tau) is defined as 0 when m(tau) == 0. This is the direct
// O(N*lagCount) formulation; it is the numerical reference the rest of the
// pipeline depends on.
type Engine struct {
	lagMin, lagMax int
	windowSize     int
	buf            []float64
}

// NewEngine creates an Engine for the given lag range and window size.
func NewEngine(lagMin, lagMax, windowSize int) (*Engine, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("nsdf: window size (%d) must be positive", windowSize)
	}
	if lagMin <= 0 || lagMax < lagMin {
		return nil, fmt.Errorf("nsdf: lag range [%d, %d] is invalid", lagMin, lagMax)
	}
	if lagMax >= windowSize {
		return nil, fmt.Errorf("nsdf: lag max (%d) must be less than window size (%d)", lagMax, windowSize)
	}

	return &Engine{
		lagMin:     lagMin,
		lagMax:     lagMax,
		windowSize: windowSize,
		buf:        make([]float64, lagMax-lagMin+1),
	}, nil
}

// LagMin returns the lower bound of the lag range, inclusive.
func (e *Engine) LagMin() int { return e.lagMin }

// LagMax returns the upper bound of the lag range, inclusive.
func (e *Engine) LagMax() int { return e.lagMax }

// LagCount returns lagMax - lagMin + 1, the length of Compute's result.
func (e *Engine) LagCount() int { return len(e.buf) }

// Compute evaluates nsdf(tau) for every tau in [LagMin, LagMax] against
// win, which must have length equal to the window size this Engine was
// constructed with. The returned slice is a view into internal storage,
// valid until the next call to Compute; Compute itself never allocates.
func (e *Engine) Compute(win []float64) ([]float64, error) {
	if len(win) != e.windowSize {
		return nil, fmt.Errorf("nsdf: window length (%d) doesn't match configured size (%d)", len(win), e.windowSize)
	}

	n := len(win)
	for i, tau := 0, e.lagMin; tau <= e.lagMax; i, tau = i+1, tau+1 {
		limit := n - tau
		if limit <= 0 {
			e.buf[i] = 0
			continue
		}

		var r, m float64
		for j := range limit {
			xj := win[j]
			xjt := win[j+tau]
			r += xj * xjt
			m += xj*xj + xjt*xjt
		}

		if m == 0 {
			e.buf[i] = 0
		} else {
			e.buf[i] = 2 * r / m
		}
	}

	return e.buf, nil
}
