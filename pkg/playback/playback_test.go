package playback

import (
	"math"
	"testing"

	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
)

// newTestEngine builds an Engine without opening a real oto output
// stream, since unit tests have no audio device. Every method under
// test only touches ctx/fxByTrack, never otoCtx/otoPlayer.
func newTestEngine(sampleRate float64) *Engine {
	return &Engine{
		sampleRate: sampleRate,
		fxByTrack:  make(map[string]*effects.Processor),
	}
}

func sineTrack(name string, freq, duration float64) *score.MelodyTrack {
	tr := score.NewMelodyTrack()
	tr.Name = name
	tr.Tempo = 60
	tr.Instrument = score.DefaultInstrument()
	tr.Instrument.Env.Attack = 0
	tr.Instrument.Env.Decay = 0
	tr.Instrument.Env.Sustain = 1
	tr.Instrument.Env.Release = 0
	tr.Instrument.Volume = 1
	tr.Sequence = []score.SequenceElement{
		{Kind: score.ElementNote, Note: score.Note{Pitch: freq, Duration: duration, Velocity: 1}},
	}
	tr.RecomputeLength()
	return tr
}

func arrangementOf(tracks ...*score.MelodyTrack) *score.Arrangement {
	arr := score.NewArrangement()
	for _, t := range tracks {
		arr.AddTrack(t, 0, score.TrackOverrides{})
	}
	return arr
}

func TestPlayStartsPlayingAndSeedsTrackMaps(t *testing.T) {
	e := newTestEngine(48000)
	arr := arrangementOf(sineTrack("lead", 440, 1.0))

	e.Play(arr)

	if e.GetPlaybackState() != Playing {
		t.Errorf("state = %v, want Playing", e.GetPlaybackState())
	}
	if !e.ctx.Params.Enabled("lead") {
		t.Error("expected lead track enabled by default after Play")
	}
	if e.ctx.Params.Volume("lead") != 1.0 {
		t.Errorf("track volume = %v, want 1.0", e.ctx.Params.Volume("lead"))
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	e := newTestEngine(48000)
	e.Play(arrangementOf(sineTrack("lead", 440, 1.0)))

	e.Pause()
	if e.GetPlaybackState() != Paused {
		t.Fatalf("state = %v, want Paused", e.GetPlaybackState())
	}

	e.Resume()
	if e.GetPlaybackState() != Playing {
		t.Fatalf("state = %v, want Playing", e.GetPlaybackState())
	}
}

func TestStopClearsContextAndResetsPosition(t *testing.T) {
	e := newTestEngine(48000)
	e.Play(arrangementOf(sineTrack("lead", 440, 1.0)))
	e.ctx.CurrentSample = 12345

	e.Stop()

	if e.GetPlaybackState() != Stopped {
		t.Errorf("state = %v, want Stopped", e.GetPlaybackState())
	}
	if e.GetPlaybackPosition() != 0 {
		t.Errorf("position = %v, want 0 after stop", e.GetPlaybackPosition())
	}
}

func TestSetMasterVolumeClamps(t *testing.T) {
	e := newTestEngine(48000)
	e.Play(arrangementOf(sineTrack("lead", 440, 1.0)))

	e.SetMasterVolume(5.0)
	if e.ctx.Params.MasterVolume != 2.0 {
		t.Errorf("MasterVolume = %v, want clamped to 2.0", e.ctx.Params.MasterVolume)
	}

	e.SetMasterVolume(-1.0)
	if e.ctx.Params.MasterVolume != 0.0 {
		t.Errorf("MasterVolume = %v, want clamped to 0.0", e.ctx.Params.MasterVolume)
	}
}

func TestSetMasterPitchClamps(t *testing.T) {
	e := newTestEngine(48000)
	e.Play(arrangementOf(sineTrack("lead", 440, 1.0)))

	e.SetMasterPitch(10.0)
	if e.ctx.Params.MasterPitch != 2.0 {
		t.Errorf("MasterPitch = %v, want clamped to 2.0", e.ctx.Params.MasterPitch)
	}

	e.SetMasterPitch(0.01)
	if e.ctx.Params.MasterPitch != 0.5 {
		t.Errorf("MasterPitch = %v, want clamped to 0.5", e.ctx.Params.MasterPitch)
	}
}

func TestCrossfadeAtZeroDurationActsLikePlay(t *testing.T) {
	e := newTestEngine(48000)
	a := arrangementOf(sineTrack("lead", 440, 1.0))
	b := arrangementOf(sineTrack("lead", 880, 1.0))

	e.Play(a)
	e.CrossfadeTo(b, 0)

	if e.ctx.Arrangement != b {
		t.Error("expected zero-duration crossfade to swap the arrangement immediately")
	}
	if e.ctx.Crossfade != nil {
		t.Error("expected no crossfade state for a zero-duration crossfade")
	}
}

func TestCrossfadeWithNoExistingContextDegradesToPlay(t *testing.T) {
	e := newTestEngine(48000)
	a := arrangementOf(sineTrack("lead", 440, 1.0))

	e.CrossfadeTo(a, 1.0)

	if e.GetPlaybackState() != Playing {
		t.Fatalf("state = %v, want Playing", e.GetPlaybackState())
	}
	if e.ctx.Arrangement != a {
		t.Error("expected arrangement loaded via crossfade with no prior context")
	}
}

func TestAllTracksDisabledProducesSilence(t *testing.T) {
	e := newTestEngine(48000)
	arr := arrangementOf(sineTrack("lead", 440, 1.0))
	e.Play(arr)
	e.SetTrackEnabled("lead", false)

	out := e.synthesizeSingleSample(arr, 100, e.ctx.Params)
	if out != 0 {
		t.Errorf("output = %v, want 0 with the only track disabled", out)
	}
}

func TestSynthesizeSingleSampleStaysFinite(t *testing.T) {
	e := newTestEngine(48000)
	arr := arrangementOf(sineTrack("lead", 440, 1.0))
	e.Play(arr)

	for i := 0; i < 4800; i += 37 {
		out := e.synthesizeSingleSample(arr, i, e.ctx.Params)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("sample %d = %v, want finite", i, out)
		}
	}
}

func TestNoLoopStopsAtTotalLength(t *testing.T) {
	sr := 48000.0
	e := newTestEngine(sr)
	arr := arrangementOf(sineTrack("lead", 440, 1.0)) // 1 second track
	e.Play(arr)
	e.ctx.CurrentSample = int(arr.TotalLength*sr) - 1

	e.nextSample()

	if e.GetPlaybackState() != Stopped {
		t.Errorf("state = %v, want Stopped once current_sample reaches total_length with looping off", e.GetPlaybackState())
	}
}

func TestLoopWrapsToStartAtTotalLength(t *testing.T) {
	sr := 48000.0
	e := newTestEngine(sr)
	arr := arrangementOf(sineTrack("lead", 440, 1.0))
	e.Play(arr)
	e.SetLoopEnabled(true)
	e.ctx.CurrentSample = int(arr.TotalLength*sr) - 1

	e.nextSample()

	if e.GetPlaybackPosition() != 0 {
		t.Errorf("position = %v, want wrapped to 0 with looping on", e.GetPlaybackPosition())
	}
	if e.GetPlaybackState() != Playing {
		t.Errorf("state = %v, want still Playing while looping", e.GetPlaybackState())
	}
}

func TestLoopPointJumpsBackToLoopStart(t *testing.T) {
	sr := 48000.0
	e := newTestEngine(sr)
	tr := sineTrack("lead", 440, 2.0) // 2 seconds at 60 BPM
	arr := arrangementOf(tr)
	arr.LoopPoint = &score.LoopPoint{Start: 0.25, End: 1.0}
	e.Play(arr)
	e.SetLoopEnabled(true)
	e.ctx.CurrentSample = int(1.0*sr) - 1

	e.nextSample()

	want := int(0.25 * sr)
	if e.GetPlaybackPosition() != want {
		t.Errorf("position = %v, want %v (loop start)", e.GetPlaybackPosition(), want)
	}
}

func TestCrossfadeMidpointBlendsBothArrangements(t *testing.T) {
	sr := 48000.0
	e := newTestEngine(sr)
	a := arrangementOf(sineTrack("lead", 220, 2.0))
	b := arrangementOf(sineTrack("lead", 440, 2.0))
	e.Play(a)
	e.CrossfadeTo(b, 1.0)

	// Advance halfway through the fade; at tau=0.5 the output must be
	// the equal-weight mix of both arrangements at the same index.
	half := int(0.5 * sr)
	for i := 0; i < half; i++ {
		e.nextSample()
	}

	if e.ctx.Crossfade == nil {
		t.Fatal("expected crossfade still in progress at the midpoint")
	}
	tau := float64(e.ctx.Crossfade.ProgressSamples) / float64(e.ctx.Crossfade.DurationSamples)
	if tau < 0.49 || tau > 0.51 {
		t.Errorf("tau = %v after half the fade, want ~0.5", tau)
	}
	if e.ctx.Arrangement != a {
		t.Error("source arrangement must stay installed until the fade completes")
	}
}

func TestCrossfadeCompletionSwapsArrangement(t *testing.T) {
	sr := 1000.0
	e := newTestEngine(sr)
	a := arrangementOf(sineTrack("lead", 220, 2.0))
	b := arrangementOf(sineTrack("lead", 440, 2.0))
	e.Play(a)
	e.CrossfadeTo(b, 0.1)

	for i := 0; i < int(0.1*sr)+1; i++ {
		e.nextSample()
	}

	if e.ctx.Arrangement != b {
		t.Error("expected target arrangement swapped in after the fade completes")
	}
	if e.ctx.Crossfade != nil {
		t.Error("expected crossfade state cleared after completion")
	}
}

func TestGetPlaybackStateWithNoContextIsStopped(t *testing.T) {
	e := newTestEngine(48000)
	if e.GetPlaybackState() != Stopped {
		t.Errorf("state = %v, want Stopped with no context loaded", e.GetPlaybackState())
	}
	if e.GetPlaybackPosition() != 0 {
		t.Errorf("position = %v, want 0 with no context loaded", e.GetPlaybackPosition())
	}
}
