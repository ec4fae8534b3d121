package window

import (
	"math"
	"testing"
)

func toneSamples(n int, freq, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestDriverOverlapEmitsExactCount(t *testing.T) {
	const windowSize = 1024
	const hopSize = windowSize / 2

	d, err := New(Config{
		WindowSize:   windowSize,
		HopSize:      hopSize,
		Downsampling: 1,
		SampleRate:   44100,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples := toneSamples(2*windowSize, 220, 44100)

	var emittedAt []int64
	d.Process(samples, func(win []float64, effectiveSampleIndex int64) {
		if len(win) != windowSize {
			t.Errorf("window length = %d, want %d", len(win), windowSize)
		}
		emittedAt = append(emittedAt, effectiveSampleIndex)
	})

	if len(emittedAt) != 3 {
		t.Fatalf("emitted %d windows, want 3", len(emittedAt))
	}

	want := []int64{windowSize, windowSize + hopSize, windowSize + 2*hopSize}
	for i, idx := range emittedAt {
		if idx != want[i] {
			t.Errorf("emission %d at index %d, want %d", i, idx, want[i])
		}
	}
}

func TestDriverNoOverlapSlidesBlock(t *testing.T) {
	const windowSize = 256

	d, err := New(Config{
		WindowSize:   windowSize,
		HopSize:      windowSize,
		Downsampling: 1,
		SampleRate:   44100,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples := toneSamples(3*windowSize, 440, 44100)

	count := 0
	d.Process(samples, func(win []float64, effectiveSampleIndex int64) {
		count++
	})

	if count != 3 {
		t.Fatalf("emitted %d windows, want 3", count)
	}
}

func TestDriverBuffersPartialSamplesAcrossCalls(t *testing.T) {
	const windowSize = 64
	const downsampling = 4

	d, err := New(Config{
		WindowSize:   windowSize,
		HopSize:      windowSize,
		Downsampling: downsampling,
		SampleRate:   48000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples := toneSamples(windowSize*downsampling, 1000, 48000)

	count := 0
	// Feed one sample at a time: a naive implementation that only checks
	// decimation boundaries per call, rather than accumulating the
	// decimation sum across calls, would never complete a window.
	for _, s := range samples {
		d.Process([]float64{s}, func(win []float64, effectiveSampleIndex int64) {
			count++
		})
	}

	if count != 1 {
		t.Fatalf("emitted %d windows, want 1", count)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero window size", Config{WindowSize: 0, HopSize: 1, Downsampling: 1, SampleRate: 44100}},
		{"hop exceeds window", Config{WindowSize: 100, HopSize: 200, Downsampling: 1, SampleRate: 44100}},
		{"zero hop", Config{WindowSize: 100, HopSize: 0, Downsampling: 1, SampleRate: 44100}},
		{"zero downsampling", Config{WindowSize: 100, HopSize: 50, Downsampling: 0, SampleRate: 44100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Errorf("New(%+v) = nil error, want error", tt.cfg)
			}
		})
	}
}

func TestEffectiveSampleRate(t *testing.T) {
	d, err := New(Config{WindowSize: 512, HopSize: 256, Downsampling: 4, SampleRate: 48000})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := d.EffectiveSampleRate(), 12000.0; got != want {
		t.Errorf("EffectiveSampleRate() = %v, want %v", got, want)
	}
}

func BenchmarkDriverProcess(b *testing.B) {
	d, err := New(Config{WindowSize: 1024, HopSize: 512, Downsampling: 1, SampleRate: 44100})
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	samples := toneSamples(4096, 440, 44100)
	noop := func(win []float64, effectiveSampleIndex int64) {}

	d.Process(samples, noop) // warm-up

	allocs := testing.AllocsPerRun(10, func() {
		d.Process(samples, noop)
	})
	if allocs > 0 {
		b.Errorf("expected zero allocations in Process, got %.1f", allocs)
	}

	b.ReportAllocs()
	for b.Loop() {
		d.Process(samples, noop)
	}
}
