package spectral

import (
	"fmt"
	"math/cmplx"
)

// Window is the interface a windowing function must satisfy to be applied
// before an FFT.
type Window interface {
	ApplyInPlace(signal []float64) error
}

// STFT computes the spectrum of individual, pre-sized analysis frames.
// Unlike a conventional short-time Fourier transform over a whole signal,
// it is driven one frame at a time by a caller that already owns framing
// and hop bookkeeping (see algorithms/window.Driver).
type STFT struct {
	fft *FFT
}

// NewSTFT creates a new STFT calculator.
func NewSTFT() *STFT {
	return &STFT{fft: NewFFT()}
}

// FreqBins returns the number of positive-frequency bins (including DC and
// Nyquist) produced by a frame of the given size.
func FreqBins(frameSize int) int {
	return frameSize/2 + 1
}

// ComputeSingleFrame windows a copy of frame, computes its FFT, and writes
// the positive-frequency magnitude into magOut (len(magOut) must equal
// FreqBins(len(frame))). frameBuf is scratch, pre-sized to len(frame) by the
// caller. The only allocation on this path belongs to the underlying FFT
// library (github.com/mjibson/go-dsp/fft), which does not expose an
// in-place transform; every buffer owned by this call is caller-provided
// and reused across calls.
func (s *STFT) ComputeSingleFrame(frame, frameBuf []float64, window Window, magOut []float64) error {
	if len(frame) == 0 {
		return fmt.Errorf("empty frame")
	}
	if len(frameBuf) != len(frame) {
		return fmt.Errorf("frame buffer size (%d) doesn't match frame size (%d)", len(frameBuf), len(frame))
	}
	freqBins := FreqBins(len(frame))
	if len(magOut) != freqBins {
		return fmt.Errorf("magnitude buffer size (%d) doesn't match expected bin count (%d)", len(magOut), freqBins)
	}

	copy(frameBuf, frame)

	if window != nil {
		if err := window.ApplyInPlace(frameBuf); err != nil {
			return err
		}
	}

	spectrum := s.fft.Compute(frameBuf)

	for i := range freqBins {
		magOut[i] = cmplx.Abs(spectrum[i])
	}

	return nil
}
