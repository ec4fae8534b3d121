// Package mpm implements a monophonic pitch detector built on the McLeod
// Pitch Method: a streaming window driver feeds fixed-size frames into an
// NSDF engine, whose key maxima are refined and thresholded to pick a
// fundamental-period candidate each hop.
package mpm

import (
	"fmt"

	"github.com/stuffmatic/microdsp/logging"
)

// Config configures a Detector. Every New constructor in this package
// validates eagerly and returns a descriptive error before any buffer is
// allocated.
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
	// LagMin and LagMax bound the NSDF lag range, typically derived from
	// the detectable frequency range: lag_min ~= effective_rate/max_freq,
	// lag_max ~= effective_rate/min_freq.
	LagMin, LagMax int
	// MaxKeyMaxima bounds the key-maxima table's fixed capacity.
	MaxKeyMaxima int
	// ClarityThreshold is the fraction of the table's largest refined
	// value a candidate must reach to be selectable. Defaults to 0.9 when
	// zero.
	ClarityThreshold float64
	// PeakThreshold is the minimum window peak amplitude for a reading to
	// be classified as a tone. Defaults to 0.01 when zero.
	PeakThreshold float64
	// Logger receives diagnostic messages. Defaults to
	// logging.GetGlobalLogger() when nil.
	Logger logging.Logger
}

const (
	defaultClarityThreshold = 0.9
	defaultPeakThreshold    = 0.01
)

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mpm: invalid %s: %s", e.Field, e.Reason)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ClarityThreshold == 0 {
		out.ClarityThreshold = defaultClarityThreshold
	}
	if out.PeakThreshold == 0 {
		out.PeakThreshold = defaultPeakThreshold
	}
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
	if c.LagMin <= 0 || c.LagMax < c.LagMin {
		return &ConfigError{"LagMin/LagMax", fmt.Sprintf("range [%d, %d] is invalid", c.LagMin, c.LagMax)}
	}
	if c.LagMax >= c.WindowSize {
		return &ConfigError{"LagMax", fmt.Sprintf("(%d) must be less than WindowSize (%d)", c.LagMax, c.WindowSize)}
	}
	if c.MaxKeyMaxima <= 0 {
		return &ConfigError{"MaxKeyMaxima", fmt.Sprintf("must be positive, got %d", c.MaxKeyMaxima)}
	}
	if c.ClarityThreshold < 0 || c.ClarityThreshold > 1 {
		return &ConfigError{"ClarityThreshold", fmt.Sprintf("must be in [0, 1], got %f", c.ClarityThreshold)}
	}
	if c.PeakThreshold < 0 {
		return &ConfigError{"PeakThreshold", fmt.Sprintf("must be non-negative, got %f", c.PeakThreshold)}
	}
	return nil
}
