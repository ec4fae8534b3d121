// Package window implements the streaming sample-window driver shared by
// the analyzers in algorithms/mpm and algorithms/sfnov. It accumulates
// incoming PCM samples into a fixed-size analysis window with configurable
// hop and integer-factor decimation, invoking a callback once per completed
// window.
package window

import (
	"fmt"

	"github.com/stuffmatic/microdsp/algorithms/common"
)

// Config describes a DownsampledWindow driver.
type Config struct {
	// WindowSize is the number of effective samples per analysis frame.
	WindowSize int
	// HopSize is the number of effective samples between consecutive
	// emitted frames. Must be <= WindowSize.
	HopSize int
	// Downsampling is the decimation factor: one effective sample is the
	// arithmetic mean of this many consecutive input samples. 1 disables
	// decimation.
	Downsampling int
	// SampleRate is the input sample rate, used only to derive
	// EffectiveSampleRate.
	SampleRate float64
}

func (c Config) validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window: window size (%d) must be positive", c.WindowSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return fmt.Errorf("window: hop size (%d) must be in [1, window size %d]", c.HopSize, c.WindowSize)
	}
	if c.Downsampling <= 0 {
		return fmt.Errorf("window: downsampling (%d) must be positive", c.Downsampling)
	}
	return nil
}

// Callback is invoked once per completed window with a read-only view of
// the window contents (valid only for the duration of the call) and the
// effective sample index of the last sample in the window.
type Callback func(win []float64, effectiveSampleIndex int64)

// Driver accumulates samples into a fixed-size, possibly decimated and
// overlapped analysis window. All buffers are allocated in New; Process
// never allocates.
type Driver struct {
	cfg Config

	ring    *common.CircularBuffer
	ordered []float64

	decimSum   float64
	decimCount int

	sinceHop     int
	emittedOnce  bool
	effectiveIdx int64
}

// New creates a Driver. Returns a configuration error if cfg is invalid.
func New(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Driver{
		cfg:     cfg,
		ring:    common.NewCircularBuffer(cfg.WindowSize),
		ordered: make([]float64, cfg.WindowSize),
	}, nil
}

// WindowSize returns the configured analysis window size.
func (d *Driver) WindowSize() int {
	return d.cfg.WindowSize
}

// EffectiveSampleRate returns SampleRate / Downsampling.
func (d *Driver) EffectiveSampleRate() float64 {
	return d.cfg.SampleRate / float64(d.cfg.Downsampling)
}

// Process consumes input in order, decimating and accumulating it into the
// analysis window. onWindow is invoked synchronously, oldest-to-newest,
// once for every window completed within this call.
func (d *Driver) Process(input []float64, onWindow Callback) {
	for _, s := range input {
		d.decimSum += s
		d.decimCount++

		if d.decimCount < d.cfg.Downsampling {
			continue
		}

		eff := d.decimSum / float64(d.cfg.Downsampling)
		d.decimSum = 0
		d.decimCount = 0

		d.ring.WriteSample(eff)
		d.effectiveIdx++
		d.sinceHop++

		if !d.ring.IsFull() {
			continue
		}

		if d.emittedOnce && d.sinceHop < d.cfg.HopSize {
			continue
		}

		d.ring.Peek(d.ordered)
		if onWindow != nil {
			onWindow(d.ordered, d.effectiveIdx)
		}
		d.sinceHop = 0
		d.emittedOnce = true
	}
}
