package nsdf

import (
	"math"
	"testing"
)

func sineWindow(n int, freq, sampleRate float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return w
}

func TestEngineBoundedAtLagMin(t *testing.T) {
	e, err := NewEngine(1, 100, 512)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	win := sineWindow(512, 220, 44100)
	buf, err := e.Compute(win)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// lag_min is 1 here, not 0, matching the invariant that lag 0 is
	// never part of a configured range; boundedness at the smallest
	// configured lag should still hold.
	if buf[0] > 1+1e-6 || buf[0] < -1-1e-6 {
		t.Errorf("nsdf(lag_min) = %v out of bounds", buf[0])
	}
}

func TestEngineBoundedness(t *testing.T) {
	e, err := NewEngine(10, 400, 1024)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	win := sineWindow(1024, 440, 44100)
	buf, err := e.Compute(win)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i, v := range buf {
		if v > 1+1e-6 || v < -1-1e-6 {
			t.Errorf("nsdf[%d] = %v out of [-1, 1]", i, v)
		}
	}
}

func TestEngineAllZeroDegeneracy(t *testing.T) {
	e, err := NewEngine(10, 400, 1024)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	win := make([]float64, 1024)
	buf, err := e.Compute(win)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i, v := range buf {
		if v != 0 {
			t.Errorf("nsdf[%d] = %v, want 0 for all-zero input", i, v)
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	e, err := NewEngine(10, 400, 1024)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	win := sineWindow(1024, 330, 44100)
	a, err := e.Compute(win)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	first := append([]float64(nil), a...)

	b, err := e.Compute(win)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for i := range first {
		if first[i] != b[i] {
			t.Errorf("nsdf[%d] differs across identical calls: %v vs %v", i, first[i], b[i])
		}
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name               string
		lagMin, lagMax, ws int
	}{
		{"zero window size", 1, 10, 0},
		{"lag min zero", 0, 10, 512},
		{"lag max below lag min", 20, 10, 512},
		{"lag max equals window size", 10, 512, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.lagMin, tt.lagMax, tt.ws); err == nil {
				t.Errorf("NewEngine(%d, %d, %d) = nil error, want error", tt.lagMin, tt.lagMax, tt.ws)
			}
		})
	}
}

func TestEngineComputeRejectsWrongWindowLength(t *testing.T) {
	e, err := NewEngine(1, 100, 512)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if _, err := e.Compute(make([]float64, 100)); err == nil {
		t.Error("Compute with mismatched window length should error")
	}
}

func BenchmarkEngineCompute(b *testing.B) {
	e, err := NewEngine(40, 600, 1024)
	if err != nil {
		b.Fatalf("NewEngine: %v", err)
	}
	win := sineWindow(1024, 440, 44100)

	e.Compute(win) // warm-up

	allocs := testing.AllocsPerRun(10, func() {
		e.Compute(win)
	})
	if allocs > 0 {
		b.Errorf("expected zero allocations in Compute, got %.1f", allocs)
	}

	b.ReportAllocs()
	for b.Loop() {
		e.Compute(win)
	}
}
