package spectral

// SpectralFlux computes spectral flux (measure of spectral change)
type SpectralFlux struct {
	// No state needed
}

// NewSpectralFlux creates a new spectral flux calculator
func NewSpectralFlux() *SpectralFlux {
	return &SpectralFlux{}
}

// ComputeFrame computes half-wave-rectified spectral flux between two
// magnitude spectra of equal length, optionally weighted per bin. A nil
// weights slice is equivalent to a slice of all ones. It performs no
// allocation.
func (sf *SpectralFlux) ComputeFrame(curr, prev, weights []float64) float64 {
	n := len(curr)
	if len(prev) < n {
		n = len(prev)
	}

	sum := 0.0
	for k := range n {
		diff := curr[k] - prev[k]
		if diff <= 0 {
			continue
		}
		if weights != nil {
			diff *= weights[k]
		}
		sum += diff
	}
	return sum
}
