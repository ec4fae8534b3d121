package mpm

import (
	"math"

	"github.com/stuffmatic/microdsp/algorithms/common"
	"github.com/stuffmatic/microdsp/algorithms/nsdf"
	"github.com/stuffmatic/microdsp/algorithms/window"
	"github.com/stuffmatic/microdsp/logging"
)

// PitchReading is the per-window output of a Detector. Fields that depend
// on a fundamental candidate existing carry an explicit Has* flag rather
// than a NaN sentinel, so callers never need to special-case NaN.
type PitchReading struct {
	Frequency    float64 `json:"frequency"`
	HasFrequency bool    `json:"has_frequency"`
	MIDINote     float64 `json:"note_number"`

	Clarity    float64 `json:"clarity"`
	WindowRMS  float64 `json:"window_rms"`
	WindowPeak float64 `json:"window_peak"`
	IsTone     bool    `json:"is_tone"`

	SelectedKeyMaxIndex int  `json:"selected_key_max_index"`
	HasSelection        bool `json:"has_selection"`

	ClarityAtDoublePeriod    float64 `json:"clarity_at_double_period"`
	HasClarityAtDoublePeriod bool    `json:"has_clarity_at_double_period"`

	Timestamp            float64 `json:"timestamp"`
	EffectiveSampleIndex int64   `json:"-"`
}

// state is the detector's Accumulating -> Running lifecycle.
type state int

const (
	stateAccumulating state = iota
	stateRunning
)

// Detector wires a window.Driver into an nsdf.Engine and nsdf.Selector,
// deriving a PitchReading from every completed window. All buffers are
// allocated in NewDetector; Process never allocates.
type Detector struct {
	cfg   Config
	state state

	driver   *window.Driver
	engine   *nsdf.Engine
	selector *nsdf.Selector
	table    *nsdf.KeyMaxTable

	nsdfScratch []float64

	latest    PitchReading
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

	engine, err := nsdf.NewEngine(cfg.LagMin, cfg.LagMax, cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	selector, err := nsdf.NewSelector(cfg.ClarityThreshold)
	if err != nil {
		return nil, err
	}

	table, err := nsdf.NewKeyMaxTable(cfg.MaxKeyMaxima)
	if err != nil {
		return nil, err
	}

	return &Detector{
		cfg:      cfg,
		driver:   driver,
		engine:   engine,
		selector: selector,
		table:    table,
	}, nil
}

// Process feeds samples through the window driver, producing zero or more
// PitchReadings. onReading, if non-nil, is invoked synchronously for each
// reading in order; regardless, LatestReading reflects the most recent one
// afterward. Process never allocates once the first window has filled.
func (d *Detector) Process(samples []float64, onReading func(PitchReading)) {
	d.driver.Process(samples, func(win []float64, effectiveSampleIndex int64) {
		if d.state == stateAccumulating {
			d.state = stateRunning
			d.cfg.Logger.Debug("mpm detector running", logging.Fields{
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

// analyze implements the six-step per-window pipeline: energy, NSDF,
// key-maxima selection, frequency/MIDI/clarity derivation, tone gating,
// timestamping.
func (d *Detector) analyze(win []float64, effectiveSampleIndex int64) PitchReading {
	reading := PitchReading{
		WindowRMS:            common.RMS(win),
		WindowPeak:           peakAbs(win),
		EffectiveSampleIndex: effectiveSampleIndex,
		Timestamp:            float64(effectiveSampleIndex) / d.driver.EffectiveSampleRate(),
	}

	nsdfBuf, err := d.engine.Compute(win)
	if err != nil {
		// Unreachable in steady state: win always matches WindowSize.
		return reading
	}
	d.nsdfScratch = nsdfBuf

	selectedIdx, ok := d.selector.Select(nsdfBuf, d.cfg.LagMin, d.table)
	if !ok {
		return reading
	}

	km := d.table.At(selectedIdx)

	periodSamples := km.Lag
	effectiveRate := d.driver.EffectiveSampleRate()
	frequency := effectiveRate / periodSamples

	reading.SelectedKeyMaxIndex = selectedIdx
	reading.HasSelection = true
	reading.Clarity = common.Clamp(km.Value, 0, 1)
	reading.IsTone = reading.WindowPeak >= d.cfg.PeakThreshold

	if frequency > 0 {
		reading.Frequency = frequency
		reading.HasFrequency = true
		reading.MIDINote = 69 + 12*math.Log2(frequency/440)
	}

	if value, within := nsdf.ClarityAtDoublePeriod(nsdfBuf, d.cfg.LagMin, d.cfg.LagMax, km.LagIndex); within {
		reading.ClarityAtDoublePeriod = value
		reading.HasClarityAtDoublePeriod = true
	}

	return reading
}

// LatestReading returns the most recently produced reading, if any.
func (d *Detector) LatestReading() (PitchReading, bool) {
	return d.latest, d.hasLatest
}

// NSDF copies the current NSDF buffer into out, returning the number of
// values written. out must have length >= LagMax-LagMin+1.
func (d *Detector) NSDF(out []float64) int {
	if d.nsdfScratch == nil {
		return 0
	}
	n := copy(out, d.nsdfScratch)
	return n
}

// KeyMaxima writes the current key-maxima table into out as flattened
// (lag, value) pairs and returns the number of entries written. out must
// have length >= 2*MaxKeyMaxima.
func (d *Detector) KeyMaxima(out []float64) int {
	n := d.table.Count()
	for i := 0; i < n && 2*i+1 < len(out); i++ {
		km := d.table.At(i)
		out[2*i] = km.Lag
		out[2*i+1] = km.Value
	}
	return n
}

func peakAbs(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		a := math.Abs(v)
		if a > peak {
			peak = a
		}
	}
	return peak
}
