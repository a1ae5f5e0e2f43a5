// Package waveform generates raw oscillator samples from a phase value
// in [0, 1).
package waveform

import (
	"math"
	"math/rand"
)

// Kind selects which waveform Sample renders.
type Kind int

const (
	Sine Kind = iota
	Square
	Triangle
	Sawtooth
	Noise
)

// String returns the .mel-grammar keyword for a waveform kind.
func (k Kind) String() string {
	switch k {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	case Noise:
		return "noise"
	default:
		return "unknown"
	}
}

// Sample renders one sample of the given waveform kind at the given
// phase. phase is expected in [0, 1); values outside that range are
// wrapped by the caller's phase accumulator, not here.
func Sample(k Kind, phase float64) float64 {
	switch k {
	case Sine:
		return math.Sin(phase * 2 * math.Pi)
	case Square:
		if math.Mod(phase*2.0, 1.0) < 0.5 {
			return 1.0
		}
		return -1.0
	case Triangle:
		p := math.Mod(phase*2.0, 1.0)
		if p < 0.5 {
			return p*4.0 - 1.0
		}
		return 3.0 - p*4.0
	case Sawtooth:
		return math.Mod(phase*2.0, 1.0)*2.0 - 1.0
	case Noise:
		return rand.Float64()*2.0 - 1.0
	default:
		return 0
	}
}

// Oscillator is a phase accumulator over a fixed sample rate, used by
// the offline renderer's chunked synthesis (pkg/render) where a stateful
// per-track phase needs to persist across chunk boundaries.
type Oscillator struct {
	Kind       Kind
	Phase      float64
	SampleRate float64
}

// NewOscillator creates an oscillator starting at phase 0.
func NewOscillator(kind Kind, sampleRate float64) *Oscillator {
	return &Oscillator{Kind: kind, SampleRate: sampleRate}
}

// Next returns the sample at the current phase, then advances the
// phase by freq/sampleRate, wrapping it into [0, 1).
func (o *Oscillator) Next(freq float64) float64 {
	s := Sample(o.Kind, o.Phase)
	o.Phase += freq / o.SampleRate
	if o.Phase >= 1.0 {
		o.Phase -= math.Floor(o.Phase)
	}
	return s
}

// Reset zeroes the oscillator's phase.
func (o *Oscillator) Reset() {
	o.Phase = 0
}
