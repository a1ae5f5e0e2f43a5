// Package playback implements the realtime playback engine: a single
// mutex-guarded PlaybackContext driven by an audio callback, synthesizing
// one sample at a time from a time index rather than rendering ahead.
package playback

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/envelope"
	"github.com/Servus-Altissimi/Boomie/pkg/sampler"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/waveform"
)

// State is the playback state machine's current state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// CrossfadeState tracks an in-progress crossfade to a new arrangement.
type CrossfadeState struct {
	TargetArrangement *score.Arrangement
	ProgressSamples   int
	DurationSamples   int
}

// PlaybackContext is the single live playback slot: the arrangement
// being played, the current sample index, the state machine position,
// loop behavior, and the live dynamic parameters.
type PlaybackContext struct {
	Arrangement   *score.Arrangement
	CurrentSample int
	State         State
	LoopEnabled   bool
	Params        score.DynamicParameters
	Crossfade     *CrossfadeState
}

// Engine owns the single PlaybackContext and the oto output stream.
// All context access is serialized through mu: the control thread
// (the exported methods below) and the audio-callback thread driven by
// oto both take the same lock.
type Engine struct {
	mu sync.Mutex

	sampleRate float64
	ctx        *PlaybackContext
	fxByTrack  map[string]*effects.Processor

	otoCtx    *oto.Context
	otoPlayer *oto.Player
}

// NewEngine opens a mono oto output stream at sampleRate. No arrangement
// is loaded yet; the engine stays silent until Play is called.
func NewEngine(sampleRate float64) (*Engine, error) {
	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(sampleRate),
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	e := &Engine{
		sampleRate: sampleRate,
		fxByTrack:  make(map[string]*effects.Processor),
		otoCtx:     otoCtx,
	}

	e.otoPlayer = otoCtx.NewPlayer(&audioStream{e: e})
	e.otoPlayer.SetBufferSize(int(sampleRate) / 10)
	e.otoPlayer.Play()

	return e, nil
}

// Close tears down the output stream.
func (e *Engine) Close() {
	if e.otoPlayer != nil {
		e.otoPlayer.Close()
	}
}

// Play discards any existing context and seeds a fresh one whose
// track_enabled/track_volumes default every track in arrangement to
// enabled/unity, and begins Playing. The output stream opened by
// NewEngine keeps running; Play does not stop or reopen it.
func (e *Engine) Play(arrangement *score.Arrangement) {
	e.mu.Lock()
	defer e.mu.Unlock()

	params := score.DefaultDynamicParameters()
	for _, placed := range arrangement.Tracks {
		params.TrackEnabled[placed.Track.Name] = true
		params.TrackVolumes[placed.Track.Name] = 1.0
	}

	e.ctx = &PlaybackContext{
		Arrangement: arrangement,
		State:       Playing,
		Params:      params,
	}
	e.fxByTrack = make(map[string]*effects.Processor)
}

// Pause moves Playing to Paused; a no-op otherwise.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil && e.ctx.State == Playing {
		e.ctx.State = Paused
	}
}

// Resume moves Paused back to Playing; a no-op otherwise.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil && e.ctx.State == Paused {
		e.ctx.State = Playing
	}
}

// Stop clears the context entirely; the callback thread then zero-fills.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx = nil
	e.fxByTrack = make(map[string]*effects.Processor)
}

// CrossfadeTo begins a crossfade to target over duration seconds. If no
// context currently exists, this degrades to a plain Play.
func (e *Engine) CrossfadeTo(target *score.Arrangement, duration float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil {
		params := score.DefaultDynamicParameters()
		for _, placed := range target.Tracks {
			params.TrackEnabled[placed.Track.Name] = true
			params.TrackVolumes[placed.Track.Name] = 1.0
		}
		e.ctx = &PlaybackContext{Arrangement: target, State: Playing, Params: params}
		return
	}

	durationSamples := int(duration * e.sampleRate)
	if durationSamples <= 0 {
		// A zero-duration crossfade is equivalent to an immediate swap.
		e.ctx.Arrangement = target
		e.ctx.Crossfade = nil
		return
	}

	e.ctx.Crossfade = &CrossfadeState{
		TargetArrangement: target,
		DurationSamples:   durationSamples,
	}
}

// SetLoopEnabled toggles looping.
func (e *Engine) SetLoopEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.LoopEnabled = enabled
	}
}

// SetMasterVolume clamps v to [0, 2] and applies it.
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.Params.MasterVolume = clamp(v, 0, 2)
	}
}

// SetMasterPitch clamps v to [0.5, 2] and applies it.
func (e *Engine) SetMasterPitch(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.Params.MasterPitch = clamp(v, 0.5, 2)
	}
}

// SetTrackEnabled enables or disables a track by name.
func (e *Engine) SetTrackEnabled(name string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.Params.TrackEnabled[name] = enabled
	}
}

// SetTrackVolume clamps v to [0, 2] and sets a track's volume by name.
func (e *Engine) SetTrackVolume(name string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx != nil {
		e.ctx.Params.TrackVolumes[name] = clamp(v, 0, 2)
	}
}

// GetMasterVolume returns the current master volume, or 1 if nothing
// is loaded.
func (e *Engine) GetMasterVolume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return 1.0
	}
	return e.ctx.Params.MasterVolume
}

// GetMasterPitch returns the current master pitch, or 1 if nothing is
// loaded.
func (e *Engine) GetMasterPitch() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return 1.0
	}
	return e.ctx.Params.MasterPitch
}

// GetPlaybackPosition returns the current sample index, or 0 if
// nothing is loaded.
func (e *Engine) GetPlaybackPosition() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return 0
	}
	return e.ctx.CurrentSample
}

// GetPlaybackState returns the current state, or Stopped if nothing is
// loaded.
func (e *Engine) GetPlaybackState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return Stopped
	}
	return e.ctx.State
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nextSample advances playback by exactly one frame and returns the
// final mono output, applying master volume and fade multipliers. The
// caller must hold mu.
func (e *Engine) nextSample() float64 {
	if e.ctx == nil || e.ctx.State != Playing {
		return 0
	}
	ctx := e.ctx
	arr := ctx.Arrangement

	output := e.synthesizeSingleSample(arr, ctx.CurrentSample, ctx.Params)

	if ctx.Crossfade != nil {
		cf := ctx.Crossfade
		target := e.synthesizeSingleSample(cf.TargetArrangement, ctx.CurrentSample, ctx.Params)
		tau := float64(cf.ProgressSamples) / float64(cf.DurationSamples)
		output = output*(1-tau) + target*tau
		cf.ProgressSamples++
		if cf.ProgressSamples >= cf.DurationSamples {
			ctx.Arrangement = cf.TargetArrangement
			ctx.Crossfade = nil
			e.fxByTrack = make(map[string]*effects.Processor)
		}
	}

	ctx.CurrentSample++

	totalSamples := int(arr.TotalLength * e.sampleRate)
	if ctx.LoopEnabled {
		if arr.LoopPoint != nil && ctx.CurrentSample >= int(arr.LoopPoint.End*e.sampleRate) {
			ctx.CurrentSample = int(arr.LoopPoint.Start * e.sampleRate)
		} else if arr.LoopPoint == nil && ctx.CurrentSample >= totalSamples {
			ctx.CurrentSample = 0
		}
	} else if ctx.CurrentSample >= totalSamples {
		ctx.State = Stopped
	}

	currentTime := float64(ctx.CurrentSample) / e.sampleRate
	fadeMult := fadeMultiplier(currentTime, arr)

	return output * ctx.Params.MasterVolume * fadeMult
}

func fadeMultiplier(currentTime float64, arr *score.Arrangement) float64 {
	mult := 1.0
	if arr.FadeIn > 0 && currentTime < arr.FadeIn {
		mult *= currentTime / arr.FadeIn
	}
	if arr.FadeOut > 0 {
		fadeOutStart := arr.TotalLength - arr.FadeOut
		if currentTime > fadeOutStart {
			remaining := arr.TotalLength - currentTime
			if remaining < 0 {
				remaining = 0
			}
			mult *= remaining / arr.FadeOut
		}
	}
	return mult
}

// synthesizeSingleSample is the per-sample, time-indexed synthesizer:
// for every placed track it walks the sequence cumulatively to find
// the element containing the current track-relative time, then emits
// its contribution through that track's effects processor.
func (e *Engine) synthesizeSingleSample(arr *score.Arrangement, sampleIdx int, params score.DynamicParameters) float64 {
	currentTime := float64(sampleIdx) / e.sampleRate
	var output float64

	for _, placed := range arr.Tracks {
		track := placed.Track
		if !params.Enabled(track.Name) {
			continue
		}
		if currentTime < placed.StartTime {
			continue
		}

		trackTime := currentTime - placed.StartTime
		trackVol := params.Volume(track.Name)

		beatDuration := 60.0 / track.Tempo
		cumulative := 0.0
		var contribution float64
		found := false

		for _, el := range track.Sequence {
			switch el.Kind {
			case score.ElementNote:
				note := el.Note
				noteDuration := note.Duration * beatDuration
				nextTime := cumulative + noteDuration
				if trackTime >= cumulative && trackTime < nextTime {
					timeInNote := trackTime - cumulative
					env := envelope.At(timeInNote, noteDuration, track.Instrument.Env)

					pitch := note.Pitch
					if note.SlideTo != nil {
						progress := timeInNote / noteDuration
						pitch = note.Pitch*(1-progress) + *note.SlideTo*progress
					}

					sample := synthAt(track.Instrument, trackTime, timeInNote, pitch, params.MasterPitch)
					volume := track.Instrument.Volume * overrideVolume(placed.Overrides) * trackVol
					contribution = sample * env * note.Velocity * volume
					found = true
				}
				cumulative = nextTime
			case score.ElementChord:
				chord := el.Chord
				chordDuration := chord.Duration * beatDuration
				nextTime := cumulative + chordDuration
				if trackTime >= cumulative && trackTime < nextTime {
					timeInNote := trackTime - cumulative
					env := envelope.At(timeInNote, chordDuration, track.Instrument.Env)
					volume := track.Instrument.Volume * overrideVolume(placed.Overrides) * trackVol
					n := float64(len(chord.Pitches))
					for _, pitch := range chord.Pitches {
						sample := synthAt(track.Instrument, trackTime, timeInNote, pitch, params.MasterPitch)
						contribution += sample * env * chord.Velocity * volume / n
					}
					found = true
				}
				cumulative = nextTime
			case score.ElementRest:
				cumulative += el.Rest.Duration * beatDuration
			}
			if found {
				break
			}
		}

		if !found {
			continue
		}

		if fx := e.processorFor(track.Name, track.Instrument.Effects); fx != nil {
			contribution = fx.Process(contribution, track.Instrument.Effects)
		}
		output += contribution
	}

	return output
}

func overrideVolume(ov score.TrackOverrides) float64 {
	if ov.Volume != nil {
		return *ov.Volume
	}
	return 1.0
}

// processorFor returns (allocating lazily) the effects processor for a
// named track, or nil if that track carries no effects chain.
func (e *Engine) processorFor(name string, chain effects.Chain) *effects.Processor {
	if !chain.HasAny() {
		return nil
	}
	if fx, ok := e.fxByTrack[name]; ok {
		return fx
	}
	fx := effects.NewProcessor(e.sampleRate)
	e.fxByTrack[name] = fx
	return fx
}

func synthAt(instr score.Instrument, trackTime, timeInNote, pitch, masterPitch float64) float64 {
	switch instr.Source.Kind {
	case score.Sampled:
		return sampler.Interp(instr.Source.Sample.Samples, instr.Source.Sample.SampleRate, timeInNote, instr.Pitch*masterPitch)
	default:
		phase := math.Mod(trackTime*pitch*masterPitch, 1.0)
		if phase < 0 {
			phase += 1.0
		}
		return waveform.Sample(instr.Source.Waveform, phase)
	}
}

// audioStream implements io.Reader for oto, pulling one sample at a
// time from the engine and packing it as signed 16-bit mono PCM.
type audioStream struct {
	e *Engine
}

func (s *audioStream) Read(buf []byte) (int, error) {
	n := len(buf) / 2
	s.e.mu.Lock()
	for i := 0; i < n; i++ {
		sample := s.e.nextSample()
		if sample > 1.0 {
			sample = 1.0
		}
		if sample < -1.0 {
			sample = -1.0
		}
		s16 := int16(sample * 32767)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s16))
	}
	s.e.mu.Unlock()
	return n * 2, nil
}
