// Package pitchtrack layers streaming pitch stability, jitter, and vibrato
// estimation on top of a sequence of mpm.PitchReadings. It is a separate,
// optional consumer of the public reading stream: it never touches
// mpm.Detector's internals and runs at hop rate, not in any per-sample hot
// path.
package pitchtrack

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/stuffmatic/microdsp/algorithms/common"
	"github.com/stuffmatic/microdsp/algorithms/mpm"
)

// Tracker accumulates a bounded history of voiced frequencies and derives
// stability, jitter, and vibrato-rate measures from it. All buffers are
// allocated in NewTracker; Add and the accessor methods never allocate.
type Tracker struct {
	freq *common.CircularBuffer
	ts   *common.CircularBuffer

	freqScratch []float64
	tsScratch   []float64
	indices     []float64
	detrended   []float64
}

// NewTracker creates a Tracker retaining up to historySize voiced readings.
func NewTracker(historySize int) (*Tracker, error) {
	if historySize < 2 {
		return nil, fmt.Errorf("pitchtrack: history size (%d) must be at least 2", historySize)
	}

	indices := make([]float64, historySize)
	for i := range indices {
		indices[i] = float64(i)
	}

	return &Tracker{
		freq:        common.NewCircularBuffer(historySize),
		ts:          common.NewCircularBuffer(historySize),
		freqScratch: make([]float64, historySize),
		tsScratch:   make([]float64, historySize),
		indices:     indices,
		detrended:   make([]float64, historySize),
	}, nil
}

// Add records a reading. Readings without a selected frequency
// (HasFrequency == false) are ignored: stability, jitter, and vibrato are
// only meaningful over a run of voiced frames.
func (t *Tracker) Add(r mpm.PitchReading) {
	if !r.HasFrequency {
		return
	}
	t.freq.WriteSample(r.Frequency)
	t.ts.WriteSample(r.Timestamp)
}

// history peeks the current voiced-frequency run into scratch and returns
// its length.
func (t *Tracker) history() int {
	n := t.freq.Available()
	t.freq.Peek(t.freqScratch[:n])
	t.ts.Peek(t.tsScratch[:n])
	return n
}

// Stability returns 1 minus the coefficient of variation over the current
// history, clamped to 0, 0 when fewer than 3 readings are available.
func (t *Tracker) Stability() float64 {
	n := t.history()
	if n < 3 {
		return 0
	}

	data := t.freqScratch[:n]
	mean := common.Mean(data)
	if mean == 0 {
		return 0
	}
	stdDev := common.StandardDeviation(data)
	return common.Clamp(1.0-stdDev/mean, 0, 1)
}

// JitterHz returns the mean absolute frame-to-frame frequency difference
// over the current history, 0 when fewer than 2 readings are available.
func (t *Tracker) JitterHz() float64 {
	n := t.history()
	if n < 2 {
		return 0
	}

	data := t.freqScratch[:n]
	sum := 0.0
	for i := 1; i < n; i++ {
		sum += math.Abs(data[i] - data[i-1])
	}
	return sum / float64(n-1)
}

// VibratoRateHz estimates the vibrato rate in Hz as the zero-crossing rate
// of the linearly detrended frequency history, divided by 2 (one vibrato
// cycle crosses its mean twice). Returns 0 when fewer than 10 readings are
// available.
func (t *Tracker) VibratoRateHz() float64 {
	n := t.history()
	if n < 10 {
		return 0
	}

	freqs := t.freqScratch[:n]
	idx := t.indices[:n]

	intercept, slope := stat.LinearRegression(idx, freqs, nil, false)

	detrended := t.detrended[:n]
	for i := 0; i < n; i++ {
		detrended[i] = freqs[i] - (intercept + slope*idx[i])
	}

	crossings := 0
	for i := 1; i < n; i++ {
		if (detrended[i] > 0 && detrended[i-1] <= 0) || (detrended[i] <= 0 && detrended[i-1] > 0) {
			crossings++
		}
	}

	timestamps := t.tsScratch[:n]
	span := timestamps[n-1] - timestamps[0]
	if span <= 0 {
		return 0
	}

	return float64(crossings) / (2.0 * span)
}
