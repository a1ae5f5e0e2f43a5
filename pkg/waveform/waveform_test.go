package waveform

import "testing"

func TestSampleExactValues(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		phase float64
		want  float64
	}{
		{"sine at 0", Sine, 0.0, 0.0},
		{"sine at quarter", Sine, 0.25, 1.0},
		{"square first half", Square, 0.2, 1.0},
		{"square second half", Square, 0.3, -1.0},
		{"square second cycle start", Square, 0.5, 1.0},
		{"square second cycle first half", Square, 0.7, 1.0},
		{"triangle start", Triangle, 0.0, -1.0},
		{"triangle midpoint rising", Triangle, 0.125, 0.0},
		{"triangle peak", Triangle, 0.25, 1.0},
		{"triangle second cycle start", Triangle, 0.5, -1.0},
		{"sawtooth start", Sawtooth, 0.0, -1.0},
		{"sawtooth midpoint", Sawtooth, 0.25, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(tt.kind, tt.phase)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Sample(%v, %v) = %v, want %v", tt.kind, tt.phase, got, tt.want)
			}
		})
	}
}

func TestNoiseWithinRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := Sample(Noise, 0.0)
		if v < -1.0 || v > 1.0 {
			t.Fatalf("noise sample %v out of [-1, 1]", v)
		}
	}
}

func TestOscillatorPhaseWraps(t *testing.T) {
	o := NewOscillator(Sawtooth, 100.0)
	for i := 0; i < 1000; i++ {
		o.Next(440.0)
		if o.Phase < 0 || o.Phase >= 1.0 {
			t.Fatalf("phase escaped [0,1): %v", o.Phase)
		}
	}
}

func TestOscillatorResetZeroesPhase(t *testing.T) {
	o := NewOscillator(Sine, 44100.0)
	o.Next(440.0)
	o.Reset()
	if o.Phase != 0 {
		t.Fatalf("expected phase 0 after reset, got %v", o.Phase)
	}
}
