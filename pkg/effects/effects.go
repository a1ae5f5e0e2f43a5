// Package effects implements the fixed-order (filter -> distortion ->
// delay -> reverb) per-sample effects chain.
package effects

import "math"

// FilterType selects the biquad filter's response shape.
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	BandPass
)

// FilterParams configures the biquad filter stage.
type FilterParams struct {
	Cutoff     float64
	Resonance  float64
	FilterType FilterType
}

// DistortionParams configures the soft-clip distortion stage.
type DistortionParams struct {
	Drive float64
	Tone  float64
	Wet   float64
}

// DefaultDistortionParams is a moderate drive with a darkened tone.
func DefaultDistortionParams() DistortionParams {
	return DistortionParams{Drive: 2.0, Tone: 0.7, Wet: 0.5}
}

// DelayParams configures the feedback delay stage.
type DelayParams struct {
	Time     float64
	Feedback float64
	Wet      float64
}

// DefaultDelayParams is a quarter-second slap with moderate feedback.
func DefaultDelayParams() DelayParams {
	return DelayParams{Time: 0.25, Feedback: 0.4, Wet: 0.3}
}

// ReverbParams configures the Freeverb-style reverb stage. Width is
// accepted but not yet consumed by Processor.applyReverb.
type ReverbParams struct {
	RoomSize float64
	Damping  float64
	Wet      float64
	Width    float64
}

// DefaultReverbParams is a medium room at full stereo width.
func DefaultReverbParams() ReverbParams {
	return ReverbParams{RoomSize: 0.5, Damping: 0.5, Wet: 0.3, Width: 1.0}
}

// Chain is the set of effect parameters attached to an instrument or
// track override. Each stage is skipped when its pointer is nil.
type Chain struct {
	Filter     *FilterParams
	Distortion *DistortionParams
	Delay      *DelayParams
	Reverb     *ReverbParams
}

// HasAny reports whether any stage of the chain is configured.
func (c Chain) HasAny() bool {
	return c.Filter != nil || c.Distortion != nil || c.Delay != nil || c.Reverb != nil
}

var combDelayLens = [8]float64{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassDelayLens = [4]float64{556, 441, 341, 225}

// Processor holds the mutable state (filter history, delay lines,
// comb/allpass ring buffers) for one track's effects chain. A fresh
// Processor must be instantiated per render pass so state never leaks
// between tracks or between offline runs.
type Processor struct {
	sampleRate float64

	// Biquad filter state: x[n-1], x[n-2] (input history) and
	// y[n-1], y[n-2] (output history).
	filterX1, filterX2 float64
	filterY1, filterY2 float64

	// Distortion one-pole lowpass state.
	lowpassState float64

	// Feedback delay ring buffer, write cursor, and its fixed length.
	delayBuf    []float64
	delayCursor int

	// Freeverb comb and allpass ring buffers, one write cursor each.
	combBufs       [8][]float64
	combCursors    [8]int
	combState      [8]float64
	allpassBufs    [4][]float64
	allpassCursors [4]int
}

// NewProcessor allocates a Processor sized for sampleRate, scaling the
// Freeverb comb/allpass delay lengths relative to their classic
// 44100 Hz tuning.
func NewProcessor(sampleRate float64) *Processor {
	scale := sampleRate / 44100.0
	p := &Processor{sampleRate: sampleRate}
	for i, l := range combDelayLens {
		p.combBufs[i] = make([]float64, int(l*scale))
	}
	for i, l := range allpassDelayLens {
		p.allpassBufs[i] = make([]float64, int(l*scale))
	}
	p.delayBuf = make([]float64, int(sampleRate*2.0))
	return p
}

// Process runs one input sample through the chain in fixed order:
// filter, distortion, delay, reverb. Any nil stage is skipped.
func (p *Processor) Process(input float64, chain Chain) float64 {
	output := input
	if chain.Filter != nil {
		output = p.applyFilter(output, *chain.Filter)
	}
	if chain.Distortion != nil {
		output = p.applyDistortion(output, *chain.Distortion)
	}
	if chain.Delay != nil {
		output = p.applyDelay(output, *chain.Delay)
	}
	if chain.Reverb != nil {
		output = p.applyReverb(output, *chain.Reverb)
	}
	return output
}

func (p *Processor) applyFilter(input float64, params FilterParams) float64 {
	omega := 2 * math.Pi * params.Cutoff / p.sampleRate
	cosOmega := math.Cos(omega)
	alpha := math.Sin(omega) * params.Resonance

	var b0, b1, b2, a0, a1, a2 float64
	switch params.FilterType {
	case HighPass:
		b0 = (1 + cosOmega) / 2
		b1 = -(1 + cosOmega)
		b2 = (1 + cosOmega) / 2
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	default: // LowPass
		b0 = (1 - cosOmega) / 2
		b1 = 1 - cosOmega
		b2 = (1 - cosOmega) / 2
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	}

	output := (b0*input + b1*p.filterX1 + b2*p.filterX2 - a1*p.filterY1 - a2*p.filterY2) / a0

	p.filterX2 = p.filterX1
	p.filterX1 = input
	p.filterY2 = p.filterY1
	p.filterY1 = output

	return output
}

func (p *Processor) applyDistortion(input float64, params DistortionParams) float64 {
	driven := input * params.Drive
	var clipped float64
	switch {
	case driven > 1.0:
		clipped = 2.0 / 3.0
	case driven < -1.0:
		clipped = -2.0 / 3.0
	default:
		clipped = driven - (driven*driven*driven)/3.0
	}

	p.lowpassState = p.lowpassState*(1-params.Tone) + clipped*params.Tone

	return input*(1-params.Wet) + p.lowpassState*params.Wet
}

func (p *Processor) applyDelay(input float64, params DelayParams) float64 {
	delaySamples := int(params.Time * p.sampleRate)
	if delaySamples > len(p.delayBuf)-1 {
		delaySamples = len(p.delayBuf) - 1
	}
	if delaySamples < 0 {
		delaySamples = 0
	}

	delayed := p.readRing(p.delayBuf, p.delayCursor, delaySamples)
	p.delayCursor = p.writeRing(p.delayBuf, p.delayCursor, input+delayed*params.Feedback)

	return input*(1-params.Wet) + delayed*params.Wet
}

func (p *Processor) applyReverb(input float64, params ReverbParams) float64 {
	output := 0.0
	for i := 0; i < 8; i++ {
		buf := p.combBufs[i]
		delayed := p.readRing(buf, p.combCursors[i], len(buf)-1)

		p.combState[i] = delayed*(1-params.Damping) + p.combState[i]*params.Damping
		feedback := p.combState[i] * params.RoomSize

		p.combCursors[i] = p.writeRing(buf, p.combCursors[i], input+feedback)
		output += delayed
	}
	output /= 8.0

	for i := 0; i < 4; i++ {
		buf := p.allpassBufs[i]
		delayed := p.readRing(buf, p.allpassCursors[i], len(buf)-1)

		newVal := output + delayed*0.5
		p.allpassCursors[i] = p.writeRing(buf, p.allpassCursors[i], newVal)
		output = delayed - output*0.5
	}

	return input*(1-params.Wet) + output*params.Wet
}

// readRing reads the value "offset" slots behind the write cursor:
// offset 0 is the most recently pushed value, offset len-1 the
// oldest.
func (p *Processor) readRing(buf []float64, cursor, offset int) float64 {
	n := len(buf)
	if n == 0 {
		return 0
	}
	idx := (cursor - 1 - offset%n + 2*n) % n
	return buf[idx]
}

// writeRing pushes a new value to the front of the ring and returns the
// advanced cursor.
func (p *Processor) writeRing(buf []float64, cursor int, value float64) int {
	n := len(buf)
	if n == 0 {
		return cursor
	}
	buf[cursor] = value
	return (cursor + 1) % n
}
