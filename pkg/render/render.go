// Package render implements the offline (non-realtime) arrangement
// renderer: given an Arrangement and a DynamicParameters snapshot, it
// produces a single mono float64 buffer, peak-normalized and faded.
package render

import (
	"math"

	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/envelope"
	"github.com/Servus-Altissimi/Boomie/pkg/sampler"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/waveform"
)

const chunkSize = 1024

// Render synthesizes arrangement at sampleRate under the given dynamic
// parameters and returns the mixed, faded, peak-normalized output
// buffer of length ceil(arrangement.TotalLength * sampleRate).
func Render(arrangement *score.Arrangement, sampleRate float64, params score.DynamicParameters) []float64 {
	totalSamples := int(math.Ceil(arrangement.TotalLength * sampleRate))
	buffer := make([]float64, totalSamples)

	for _, placed := range arrangement.Tracks {
		if !params.Enabled(placed.Track.Name) {
			continue
		}

		track := applyOverrides(placed.Track, placed.Overrides, params)
		if arrangement.MasterTempo != nil && track.Tempo != *arrangement.MasterTempo {
			// master_tempo wins over a per-track tempo override.
			track.Tempo = *arrangement.MasterTempo
			track.RecomputeLength()
		}
		startSample := int(placed.StartTime * sampleRate)

		trackSamples := renderTrack(track, sampleRate)

		var fx *effects.Processor
		if track.Instrument.Effects.HasAny() {
			fx = effects.NewProcessor(sampleRate)
		}

		for offset := 0; offset < len(trackSamples); offset += chunkSize {
			end := offset + chunkSize
			if end > len(trackSamples) {
				end = len(trackSamples)
			}
			chunk := trackSamples[offset:end]

			if fx != nil {
				for i, s := range chunk {
					chunk[i] = fx.Process(s, track.Instrument.Effects)
				}
			}

			for i, s := range chunk {
				idx := startSample + offset + i
				if idx < 0 || idx >= len(buffer) {
					continue
				}
				buffer[idx] += s * params.MasterVolume
			}
		}
	}

	applyFades(buffer, arrangement, sampleRate)
	normalize(buffer)

	return buffer
}

// applyOverrides clones track and applies placement-time overrides:
// scalar volume/pitch(*masterPitch)/tempo, wholesale effect
// replacement, and the per-track volume multiplier from params.
func applyOverrides(track *score.MelodyTrack, ov score.TrackOverrides, params score.DynamicParameters) *score.MelodyTrack {
	t := track.Clone()

	if ov.Volume != nil {
		t.Instrument.Volume = *ov.Volume
	}
	if ov.Pitch != nil {
		t.Instrument.Pitch = *ov.Pitch * params.MasterPitch
	}
	if ov.Tempo != nil {
		t.Tempo = *ov.Tempo
		t.RecomputeLength()
	}
	if ov.Filter != nil {
		f := *ov.Filter
		t.Instrument.Effects.Filter = &f
	}
	if ov.Reverb != nil {
		r := *ov.Reverb
		t.Instrument.Effects.Reverb = &r
	}
	if ov.Delay != nil {
		d := *ov.Delay
		t.Instrument.Effects.Delay = &d
	}
	if ov.Distortion != nil {
		x := *ov.Distortion
		t.Instrument.Effects.Distortion = &x
	}

	t.Instrument.Volume *= params.Volume(track.Name)
	return t
}

// renderTrack synthesizes track's full sequence into a fresh buffer of
// length ceil(track.Length * sampleRate), stepping through notes,
// chords, and rests in order. A single phase accumulator per
// synthesized track persists across note boundaries, per the
// continuous-phase reading of the synthesis algorithm.
func renderTrack(track *score.MelodyTrack, sampleRate float64) []float64 {
	length := int(math.Ceil(track.Length * sampleRate))
	buffer := make([]float64, length)

	beatDuration := 60.0 / track.Tempo
	cursor := 0
	osc := waveform.NewOscillator(track.Instrument.Source.Waveform, sampleRate)

	for _, el := range track.Sequence {
		switch el.Kind {
		case score.ElementNote:
			cursor += renderNote(buffer, cursor, el.Note, track.Instrument, beatDuration, sampleRate, osc)
		case score.ElementChord:
			cursor += renderChord(buffer, cursor, el.Chord, track.Instrument, beatDuration, sampleRate)
		case score.ElementRest:
			cursor += int(el.Rest.Duration * beatDuration * sampleRate)
		}
	}

	return buffer
}

func renderNote(buffer []float64, cursor int, note score.Note, instr score.Instrument, beatDuration, sampleRate float64, osc *waveform.Oscillator) int {
	switch instr.Source.Kind {
	case score.Sampled:
		pitchRate := instr.Pitch
		actualDuration := sampler.Duration(instr.Source.Sample.Samples, instr.Source.Sample.SampleRate, pitchRate)
		outputLen := int(actualDuration * sampleRate)

		for i := 0; i < outputLen; i++ {
			idx := cursor + i
			if idx >= len(buffer) {
				break
			}
			tInNote := float64(i) / sampleRate
			env := envelope.At(tInNote, actualDuration, instr.Env)
			s := sampler.Interp(instr.Source.Sample.Samples, instr.Source.Sample.SampleRate, tInNote, pitchRate)
			buffer[idx] += s * env * note.Velocity * instr.Volume
		}
		return outputLen

	default: // Synthesized
		noteDuration := note.Duration * beatDuration
		noteSamples := int(noteDuration * sampleRate)

		for i := 0; i < noteSamples; i++ {
			idx := cursor + i
			if idx >= len(buffer) {
				break
			}
			tInNote := float64(i) / sampleRate
			env := envelope.At(tInNote, noteDuration, instr.Env)

			pitch := note.Pitch
			if note.SlideTo != nil {
				progress := tInNote / noteDuration
				pitch = note.Pitch*(1.0-progress) + *note.SlideTo*progress
			}

			s := osc.Next(pitch)
			buffer[idx] += s * env * note.Velocity * instr.Volume
		}
		return noteSamples
	}
}

func renderChord(buffer []float64, cursor int, chord score.Chord, instr score.Instrument, beatDuration, sampleRate float64) int {
	chordDuration := chord.Duration * beatDuration
	chordSamples := int(chordDuration * sampleRate)
	n := float64(len(chord.Pitches))
	if n == 0 {
		return chordSamples
	}

	if instr.Source.Kind != score.Synthesized {
		return chordSamples
	}

	for _, pitch := range chord.Pitches {
		phase := 0.0
		for i := 0; i < chordSamples; i++ {
			idx := cursor + i
			if idx >= len(buffer) {
				break
			}
			tInNote := float64(i) / sampleRate
			env := envelope.At(tInNote, chordDuration, instr.Env)

			s := waveform.Sample(instr.Source.Waveform, phase)
			phase += pitch / sampleRate
			if phase >= 1.0 {
				phase -= math.Floor(phase)
			}

			buffer[idx] += s * env * chord.Velocity * instr.Volume / n
		}
	}

	return chordSamples
}

func applyFades(buffer []float64, arrangement *score.Arrangement, sampleRate float64) {
	if arrangement.FadeIn > 0 {
		fadeInSamples := int(arrangement.FadeIn * sampleRate)
		n := fadeInSamples
		if n > len(buffer) {
			n = len(buffer)
		}
		for i := 0; i < n; i++ {
			buffer[i] *= float64(i) / float64(fadeInSamples)
		}
	}

	if arrangement.FadeOut > 0 {
		fadeOutSamples := int(arrangement.FadeOut * sampleRate)
		start := len(buffer) - fadeOutSamples
		if start < 0 {
			start = 0
		}
		for i := start; i < len(buffer); i++ {
			buffer[i] *= float64(len(buffer)-i) / float64(fadeOutSamples)
		}
	}
}

func normalize(buffer []float64) {
	max := 0.0
	for _, s := range buffer {
		if a := math.Abs(s); a > max {
			max = a
		}
	}
	if max > 1.0 {
		for i := range buffer {
			buffer[i] /= max
		}
	}
}
