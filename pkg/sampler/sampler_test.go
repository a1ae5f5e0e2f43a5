package sampler

import "testing"

func TestInterpExactSample(t *testing.T) {
	samples := []float64{0.0, 1.0, 0.5, -0.5}
	got := Interp(samples, 1.0, 1.0, 1.0)
	if got != 1.0 {
		t.Errorf("Interp at exact index = %v, want 1.0", got)
	}
}

func TestInterpLinearBlend(t *testing.T) {
	samples := []float64{0.0, 1.0}
	got := Interp(samples, 1.0, 0.5, 1.0)
	if got != 0.5 {
		t.Errorf("Interp midway = %v, want 0.5", got)
	}
}

func TestInterpPastEndReturnsZero(t *testing.T) {
	samples := []float64{0.0, 1.0}
	got := Interp(samples, 1.0, 10.0, 1.0)
	if got != 0.0 {
		t.Errorf("Interp past end = %v, want 0", got)
	}
}

func TestInterpLastSampleNoOverrun(t *testing.T) {
	samples := []float64{0.2, 0.4, 0.6}
	got := Interp(samples, 1.0, 2.0, 1.0)
	if got != 0.6 {
		t.Errorf("Interp at last index = %v, want 0.6", got)
	}
}

func TestInterpPitchRateScalesPosition(t *testing.T) {
	samples := []float64{0.0, 1.0, 2.0, 3.0}
	// pitch rate 2 means src_pos advances twice as fast for the same t.
	got := Interp(samples, 1.0, 1.0, 2.0)
	if got != 2.0 {
		t.Errorf("Interp with pitch rate 2 at t=1 = %v, want 2.0", got)
	}
}

func TestDurationScalesWithPitchRate(t *testing.T) {
	samples := make([]float64, 44100) // 1 second of audio at 44100 Hz
	d := Duration(samples, 44100.0, 1.0)
	if d != 1.0 {
		t.Errorf("Duration = %v, want 1.0", d)
	}
	// Doubling pitch rate halves playout duration.
	d2 := Duration(samples, 44100.0, 2.0)
	if d2 != 0.5 {
		t.Errorf("Duration at pitch 2 = %v, want 0.5", d2)
	}
}
