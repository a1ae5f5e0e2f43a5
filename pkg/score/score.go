// Package score defines the in-memory data model for instruments,
// melody tracks, and arrangements: the shapes produced by pkg/scorefile
// and consumed by pkg/render and pkg/playback.
package score

import (
	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/envelope"
	"github.com/Servus-Altissimi/Boomie/pkg/waveform"
)

// SampleData is immutable shared PCM: normalized samples in [-1, 1]
// plus the source sample rate. Never mutated after construction — safe
// to share by reference across any number of instruments.
type SampleData struct {
	Samples    []float64
	SampleRate float64
}

// SourceKind tags which variant of InstrumentSource is active.
type SourceKind int

const (
	Synthesized SourceKind = iota
	Sampled
)

// InstrumentSource is a tagged variant, dispatched by a switch rather
// than an interface per source: either a waveform kind to synthesize,
// or a fixed PCM buffer to play back and interpolate.
type InstrumentSource struct {
	Kind     SourceKind
	Waveform waveform.Kind
	Sample   SampleData
}

// NewSynthesizedSource builds a Synthesized InstrumentSource.
func NewSynthesizedSource(kind waveform.Kind) InstrumentSource {
	return InstrumentSource{Kind: Synthesized, Waveform: kind}
}

// NewSampledSource builds a Sampled InstrumentSource.
func NewSampledSource(data SampleData) InstrumentSource {
	return InstrumentSource{Kind: Sampled, Sample: data}
}

// Instrument describes how a note is voiced: its source, its ADSR
// envelope, gain, pitch multiplier, pan, detune in cents, and effects.
type Instrument struct {
	Name    string
	Source  InstrumentSource
	Env     envelope.ADSR
	Volume  float64
	Pitch   float64
	Pan     float64
	Detune  float64
	Effects effects.Chain
}

// DefaultInstrument is a sine source with the default ADSR at half
// volume and unit pitch.
func DefaultInstrument() Instrument {
	return Instrument{
		Name:   "default",
		Source: NewSynthesizedSource(waveform.Sine),
		Env:    envelope.DefaultADSR(),
		Volume: 0.5,
		Pitch:  1.0,
	}
}

// Note is a single pitched event: frequency in Hz, duration in beats,
// velocity in [0, 1], an optional pan override, and an optional linear
// pitch slide target in Hz.
type Note struct {
	Pitch    float64
	Duration float64
	Velocity float64
	Pan      *float64
	SlideTo  *float64
}

// Chord is a set of simultaneous pitches sharing one duration and
// velocity; its mixed output is divided by the pitch count.
type Chord struct {
	Pitches  []float64
	Duration float64
	Velocity float64
}

// Rest is a span of silence, in beats, that advances the track cursor
// without emitting sound.
type Rest struct {
	Duration float64
}

// ElementKind tags which variant of SequenceElement is active.
type ElementKind int

const (
	ElementNote ElementKind = iota
	ElementChord
	ElementRest
)

// SequenceElement is the atom of a melody's timeline: a tagged variant
// over Note, Chord, and Rest.
type SequenceElement struct {
	Kind  ElementKind
	Note  Note
	Chord Chord
	Rest  Rest
}

// Duration returns the element's own duration in beats, regardless of
// which variant is active.
func (e SequenceElement) Duration() float64 {
	switch e.Kind {
	case ElementNote:
		return e.Note.Duration
	case ElementChord:
		return e.Chord.Duration
	case ElementRest:
		return e.Rest.Duration
	default:
		return 0
	}
}

// LoopPoint marks a loop region in seconds; playback wraps from End
// back to Start.
type LoopPoint struct {
	Start float64
	End   float64
}

// TimeSignature is a numerator/denominator pair, e.g. 4/4.
type TimeSignature struct {
	Numerator   int
	Denominator int
}

// DefaultTimeSignature is 4/4.
func DefaultTimeSignature() TimeSignature {
	return TimeSignature{Numerator: 4, Denominator: 4}
}

// MelodyTrack is a single sequenced instrument track.
type MelodyTrack struct {
	Name          string
	Instrument    Instrument
	Sequence      []SequenceElement
	Tempo         float64 // BPM
	Length        float64 // seconds, cached sum of element durations
	LoopPoint     *LoopPoint
	TimeSignature TimeSignature
	Swing         float64 // 0 = straight ... 1 = max
}

// NewMelodyTrack builds a track named "melody" with the default
// instrument at 120 BPM in 4/4, no swing.
func NewMelodyTrack() *MelodyTrack {
	return &MelodyTrack{
		Name:          "melody",
		Instrument:    DefaultInstrument(),
		Tempo:         120.0,
		TimeSignature: DefaultTimeSignature(),
	}
}

// BeatDuration returns the duration of one beat in seconds at the
// track's current tempo.
func (t *MelodyTrack) BeatDuration() float64 {
	return 60.0 / t.Tempo
}

// RecomputeLength recomputes Length from the sequence's beat durations
// converted to seconds at the track's current tempo, and stores it.
func (t *MelodyTrack) RecomputeLength() {
	beatSeconds := t.BeatDuration()
	total := 0.0
	for _, el := range t.Sequence {
		total += el.Duration() * beatSeconds
	}
	t.Length = total
}

// Clone returns a deep-enough copy of the track safe to mutate
// independently (overrides are applied to the clone, not the cached
// original). Sequence elements and the instrument's effects chain are
// copied by value; SampleData itself is never copied, only referenced.
func (t *MelodyTrack) Clone() *MelodyTrack {
	clone := *t
	clone.Sequence = make([]SequenceElement, len(t.Sequence))
	copy(clone.Sequence, t.Sequence)
	if t.LoopPoint != nil {
		lp := *t.LoopPoint
		clone.LoopPoint = &lp
	}
	return &clone
}

// TrackOverrides holds optional per-placement scalars and full effect
// replacements applied when a melody is placed into an arrangement.
// Effect replacements are wholesale (they replace the track's
// configured effect of that kind entirely), never merged field by
// field.
type TrackOverrides struct {
	Volume     *float64
	Pitch      *float64
	Tempo      *float64
	Pan        *float64
	Filter     *effects.FilterParams
	Reverb     *effects.ReverbParams
	Delay      *effects.DelayParams
	Distortion *effects.DistortionParams
}

// PlacedTrack is one (track, start time, overrides) triple inside an
// Arrangement.
type PlacedTrack struct {
	Track     *MelodyTrack
	StartTime float64 // seconds
	Overrides TrackOverrides
}

// Arrangement is a multi-track composition referencing melody tracks
// by placement.
type Arrangement struct {
	Name        string
	Tracks      []PlacedTrack
	TotalLength float64 // seconds, max(start + track.Length) across tracks
	LoopPoint   *LoopPoint
	MasterTempo *float64
	FadeIn      float64
	FadeOut     float64
}

// NewArrangement builds an empty arrangement.
func NewArrangement() *Arrangement {
	return &Arrangement{Name: "arrangement"}
}

// AddTrack places track at startTime with the given overrides, growing
// TotalLength if the new placement extends past the current end. The
// end time uses the track's own cached Length as placed; overrides
// never shrink a placement's contribution to TotalLength, which only
// grows.
func (a *Arrangement) AddTrack(track *MelodyTrack, startTime float64, overrides TrackOverrides) {
	a.Tracks = append(a.Tracks, PlacedTrack{Track: track, StartTime: startTime, Overrides: overrides})
	end := startTime + track.Length
	if end > a.TotalLength {
		a.TotalLength = end
	}
}

// DynamicParameters is the set of live, mutation-safe knobs shared by
// the offline renderer and the realtime player: master gain and pitch,
// and per-track enable/volume overrides keyed by track name.
type DynamicParameters struct {
	MasterVolume float64 // [0, 2]
	MasterPitch  float64 // [0.5, 2]
	TrackEnabled map[string]bool
	TrackVolumes map[string]float64

	// CrossfadeDuration is retained for forward compatibility but
	// unused: the actual crossfade duration is carried on
	// CrossfadeState at the moment CrossfadeTo is invoked.
	CrossfadeDuration float64
}

// DefaultDynamicParameters is unity gain and pitch with empty
// per-track maps (every track enabled at volume 1 until explicitly
// overridden).
func DefaultDynamicParameters() DynamicParameters {
	return DynamicParameters{
		MasterVolume: 1.0,
		MasterPitch:  1.0,
		TrackEnabled: make(map[string]bool),
		TrackVolumes: make(map[string]float64),
	}
}

// Enabled reports whether the named track is enabled, defaulting to
// true when no entry is present.
func (p DynamicParameters) Enabled(trackName string) bool {
	if v, ok := p.TrackEnabled[trackName]; ok {
		return v
	}
	return true
}

// Volume reports the named track's volume multiplier, defaulting to 1
// when no entry is present.
func (p DynamicParameters) Volume(trackName string) float64 {
	if v, ok := p.TrackVolumes[trackName]; ok {
		return v
	}
	return 1.0
}
