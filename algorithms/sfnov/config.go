// Package sfnov implements a Spectral Flux Novelty onset detector sharing
// the streaming window driver with algorithms/mpm. Each completed window
// is Hann-windowed, transformed, and compared against the previous
// magnitude spectrum to produce a half-wave-rectified novelty scalar.
package sfnov

import (
	"fmt"

	"github.com/stuffmatic/microdsp/logging"
)

// Config configures a Detector.
type Config struct {
	// WindowSize is the number of effective samples analyzed per reading.
	WindowSize int
	// HopSize is the number of effective samples between consecutive
	// readings. Must be <= WindowSize.
	HopSize int
	// SampleRate is the input sample rate in Hz.
	SampleRate float64
	// Downsampling is the decimation factor applied before analysis. 1
	// disables decimation.
	Downsampling int
	// NumBands optionally buckets the magnitude spectrum into NumBands
	// contiguous frequency bands, each scaled by the matching entry of
	// BandWeights before summation. 0 disables weighting.
	NumBands int
	// BandWeights has length NumBands; nil is equivalent to all ones.
	BandWeights []float64
	// Logger receives diagnostic messages. Defaults to
	// logging.GetGlobalLogger() when nil.
	Logger logging.Logger
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sfnov: invalid %s: %s", e.Field, e.Reason)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Logger == nil {
		out.Logger = logging.GetGlobalLogger()
	}
	return out
}

func (c Config) validate() error {
	if c.WindowSize <= 0 {
		return &ConfigError{"WindowSize", fmt.Sprintf("must be positive, got %d", c.WindowSize)}
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return &ConfigError{"HopSize", fmt.Sprintf("must be in [1, %d], got %d", c.WindowSize, c.HopSize)}
	}
	if c.Downsampling <= 0 {
		return &ConfigError{"Downsampling", fmt.Sprintf("must be positive, got %d", c.Downsampling)}
	}
	if c.NumBands < 0 {
		return &ConfigError{"NumBands", fmt.Sprintf("must be non-negative, got %d", c.NumBands)}
	}
	if c.NumBands > 0 && len(c.BandWeights) != 0 && len(c.BandWeights) != c.NumBands {
		return &ConfigError{"BandWeights", fmt.Sprintf("length (%d) must equal NumBands (%d) or be nil", len(c.BandWeights), c.NumBands)}
	}
	return nil
}
