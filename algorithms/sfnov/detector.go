package sfnov

import (
	"github.com/stuffmatic/microdsp/algorithms/spectral"
	"github.com/stuffmatic/microdsp/algorithms/window"
	"github.com/stuffmatic/microdsp/algorithms/windowing"
	"github.com/stuffmatic/microdsp/logging"
)

// NoveltyReading is the per-window output of a Detector.
type NoveltyReading struct {
	Novelty              float64 `json:"novelty"`
	Timestamp            float64 `json:"timestamp"`
	EffectiveSampleIndex int64   `json:"-"`
}

type state int

const (
	stateAccumulating state = iota
	stateRunning
)

// Detector wires a window.Driver into a Hann-windowed real FFT and spectral
// flux accumulator. All buffers are allocated in NewDetector; the only
// allocation remaining in Process belongs to the underlying FFT library,
// which does not expose an in-place transform.
type Detector struct {
	cfg   Config
	state state

	driver *window.Driver
	hann   *windowing.Hann
	stft   *spectral.STFT
	flux   *spectral.SpectralFlux

	frameBuf []float64
	// curr/prev are swapped each window instead of copied, so keeping the
	// previous spectrum needs no allocation.
	curr, prev    []float64
	havePrevMag   bool
	diff          []float64
	weightsPerBin []float64

	latest    NoveltyReading
	hasLatest bool
}

// NewDetector creates a Detector. Returns a *ConfigError if cfg is invalid.
func NewDetector(cfg Config) (*Detector, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	driver, err := window.New(window.Config{
		WindowSize:   cfg.WindowSize,
		HopSize:      cfg.HopSize,
		Downsampling: cfg.Downsampling,
		SampleRate:   cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}

	freqBins := spectral.FreqBins(cfg.WindowSize)

	d := &Detector{
		cfg:      cfg,
		driver:   driver,
		hann:     windowing.NewHann(cfg.WindowSize, true),
		stft:     spectral.NewSTFT(),
		flux:     spectral.NewSpectralFlux(),
		frameBuf: make([]float64, cfg.WindowSize),
		curr:     make([]float64, freqBins),
		prev:     make([]float64, freqBins),
		diff:     make([]float64, freqBins),
	}

	if cfg.NumBands > 0 {
		d.weightsPerBin = bucketWeights(freqBins, cfg.NumBands, cfg.BandWeights)
	}

	return d, nil
}

// bucketWeights expands NumBands band weights into one weight per
// frequency bin, splitting freqBins into NumBands contiguous buckets.
func bucketWeights(freqBins, numBands int, bandWeights []float64) []float64 {
	out := make([]float64, freqBins)
	for bin := 0; bin < freqBins; bin++ {
		band := bin * numBands / freqBins
		if band >= numBands {
			band = numBands - 1
		}
		if len(bandWeights) > 0 {
			out[bin] = bandWeights[band]
		} else {
			out[bin] = 1
		}
	}
	return out
}

// Process feeds samples through the window driver, producing zero or more
// NoveltyReadings. onReading, if non-nil, is invoked synchronously for each
// reading in order; regardless, LatestReading reflects the most recent one
// afterward.
func (d *Detector) Process(samples []float64, onReading func(NoveltyReading)) {
	d.driver.Process(samples, func(win []float64, effectiveSampleIndex int64) {
		if d.state == stateAccumulating {
			d.state = stateRunning
			d.cfg.Logger.Debug("sfnov detector running", logging.Fields{
				"window_size": d.cfg.WindowSize,
				"hop_size":    d.cfg.HopSize,
			})
		}

		reading := d.analyze(win, effectiveSampleIndex)
		d.latest = reading
		d.hasLatest = true
		if onReading != nil {
			onReading(reading)
		}
	})
}

func (d *Detector) analyze(win []float64, effectiveSampleIndex int64) NoveltyReading {
	reading := NoveltyReading{
		EffectiveSampleIndex: effectiveSampleIndex,
		Timestamp:            float64(effectiveSampleIndex) / d.driver.EffectiveSampleRate(),
	}

	if err := d.stft.ComputeSingleFrame(win, d.frameBuf, d.hann, d.curr); err != nil {
		return reading
	}

	if d.havePrevMag {
		reading.Novelty = d.flux.ComputeFrame(d.curr, d.prev, d.weightsPerBin)
		for i := range d.diff {
			delta := d.curr[i] - d.prev[i]
			if delta < 0 {
				delta = 0
			}
			d.diff[i] = delta
		}
	} else {
		copy(d.diff, d.curr)
	}

	d.curr, d.prev = d.prev, d.curr
	d.havePrevMag = true

	return reading
}

// LatestReading returns the most recently produced reading, if any.
func (d *Detector) LatestReading() (NoveltyReading, bool) {
	return d.latest, d.hasLatest
}

// CompressedSpectrum copies the most recently computed magnitude spectrum
// into out, returning the number of values written.
func (d *Detector) CompressedSpectrum(out []float64) int {
	return copy(out, d.prev)
}

// SpectrumDifference copies the half-wave-rectified frame-to-frame
// magnitude difference into out, returning the number of values written.
func (d *Detector) SpectrumDifference(out []float64) int {
	return copy(out, d.diff)
}
