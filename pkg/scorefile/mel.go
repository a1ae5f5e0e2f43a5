// Package scorefile parses the .mel melody and .bmi arrangement text
// score formats into pkg/score data types.
package scorefile

import (
	"strconv"
	"strings"

	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/notefreq"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/scoreerr"
	"github.com/Servus-Altissimi/Boomie/pkg/waveform"
)

// ParseMelody parses .mel text content into a MelodyTrack. sampleCache
// resolves "sample:" references by name; it may be nil if the melody
// has no sampled instrument.
func ParseMelody(content string, sampleCache map[string]score.SampleData) (*score.MelodyTrack, error) {
	track := score.NewMelodyTrack()

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		switch {
		case hasField(line, "name:"):
			track.Name = strings.TrimSpace(cutField(line, "name:"))

		case hasField(line, "loop:"):
			v := cutField(line, "loop:")
			parts := splitTrim(v, ",")
			if len(parts) >= 2 {
				start := parseFloatOr(parts[0], 0.0)
				end := parseFloatOr(parts[1], track.Length)
				track.LoopPoint = &score.LoopPoint{Start: start, End: end}
			}

		case hasField(line, "time_sig:"):
			v := cutField(line, "time_sig:")
			parts := splitTrim(v, "/")
			if len(parts) >= 2 {
				track.TimeSignature = score.TimeSignature{
					Numerator:   int(parseFloatOr(parts[0], 4)),
					Denominator: int(parseFloatOr(parts[1], 4)),
				}
			}

		case hasField(line, "sample:"):
			name := strings.TrimSpace(cutField(line, "sample:"))
			data, ok := sampleCache[name]
			if !ok {
				return nil, scoreerr.NewInvalidInstrument("Sample not found: %s", name)
			}
			track.Instrument.Source = score.NewSampledSource(data)

		case hasField(line, "waveform:"):
			v := strings.ToLower(strings.TrimSpace(cutField(line, "waveform:")))
			kind, ok := waveformByName(v)
			if !ok {
				return nil, scoreerr.NewParseError("Unknown Waveform")
			}
			track.Instrument.Source = score.NewSynthesizedSource(kind)

		case hasField(line, "note:"):
			v := cutField(line, "note:")
			if err := parseNoteLine(track, v); err != nil {
				return nil, err
			}

		case hasField(line, "chord:"):
			v := cutField(line, "chord:")
			if err := parseChordLine(track, v); err != nil {
				return nil, err
			}

		case hasField(line, "rest:"):
			v := strings.TrimSpace(cutField(line, "rest:"))
			dur, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, scoreerr.WrapParseError(err, "Invalid rest duration")
			}
			track.Sequence = append(track.Sequence, score.SequenceElement{
				Kind: score.ElementRest,
				Rest: score.Rest{Duration: dur},
			})
			track.Length += dur

		case hasField(line, "filter:"):
			v := cutField(line, "filter:")
			parts := splitTrim(v, ",")
			if len(parts) >= 3 {
				track.Instrument.Effects.Filter = &effects.FilterParams{
					FilterType: filterTypeByName(parts[0]),
					Cutoff:     parseFloatOr(parts[1], 1000.0),
					Resonance:  parseFloatOr(parts[2], 0.7),
				}
			}

		case hasField(line, "reverb:"):
			v := cutField(line, "reverb:")
			parts := splitTrim(v, ",")
			if len(parts) >= 4 {
				track.Instrument.Effects.Reverb = &effects.ReverbParams{
					RoomSize: parseFloatOr(parts[0], 0.5),
					Damping:  parseFloatOr(parts[1], 0.5),
					Wet:      parseFloatOr(parts[2], 0.3),
					Width:    parseFloatOr(parts[3], 1.0),
				}
			}

		case hasField(line, "delay:"):
			v := cutField(line, "delay:")
			parts := splitTrim(v, ",")
			if len(parts) >= 3 {
				track.Instrument.Effects.Delay = &effects.DelayParams{
					Time:     parseFloatOr(parts[0], 0.25),
					Feedback: parseFloatOr(parts[1], 0.4),
					Wet:      parseFloatOr(parts[2], 0.3),
				}
			}

		case hasField(line, "distortion:"):
			v := cutField(line, "distortion:")
			parts := splitTrim(v, ",")
			if len(parts) >= 3 {
				track.Instrument.Effects.Distortion = &effects.DistortionParams{
					Drive: parseFloatOr(parts[0], 2.0),
					Tone:  parseFloatOr(parts[1], 0.7),
					Wet:   parseFloatOr(parts[2], 0.5),
				}
			}

		default:
			if err := parseSimpleField(track, line); err != nil {
				return nil, err
			}
		}
	}

	// Length accumulates in beats while parsing (the tempo line may
	// appear anywhere in the file); convert to seconds once the final
	// tempo is known.
	track.RecomputeLength()

	return track, nil
}

// parseSimpleField handles the plain "key: numeric-value" lines that
// assign directly into a track or instrument field.
func parseSimpleField(track *score.MelodyTrack, line string) error {
	fields := []struct {
		prefix string
		dst    *float64
	}{
		{"tempo:", &track.Tempo},
		{"volume:", &track.Instrument.Volume},
		{"attack:", &track.Instrument.Env.Attack},
		{"decay:", &track.Instrument.Env.Decay},
		{"sustain:", &track.Instrument.Env.Sustain},
		{"release:", &track.Instrument.Env.Release},
		{"pitch:", &track.Instrument.Pitch},
		{"pan:", &track.Instrument.Pan},
		{"detune:", &track.Instrument.Detune},
		{"swing:", &track.Swing},
	}
	for _, f := range fields {
		if hasField(line, f.prefix) {
			v := strings.TrimSpace(cutField(line, f.prefix))
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return scoreerr.WrapParseError(err, "Invalid %s", f.prefix)
			}
			*f.dst = parsed
			return nil
		}
	}
	// Unknown keywords are silently ignored so newer scores still load
	// on older builds.
	return nil
}

func parseNoteLine(track *score.MelodyTrack, v string) error {
	parts := splitTrim(v, ",")
	if len(parts) < 3 {
		return nil
	}
	pitch, err := notefreq.Parse(parts[0])
	if err != nil {
		return err
	}
	duration, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return scoreerr.WrapParseError(err, "Invalid Duration")
	}
	velocityField, _, _ := strings.Cut(parts[2], "//")
	velocity, err := strconv.ParseFloat(strings.TrimSpace(velocityField), 64)
	if err != nil {
		return scoreerr.WrapParseError(err, "Invalid Velocity")
	}

	note := score.Note{Pitch: pitch, Duration: duration, Velocity: velocity}
	for _, param := range parts[3:] {
		key, val, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		switch key {
		case "pan":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				note.Pan = &f
			}
		case "slide":
			if f, err := notefreq.Parse(val); err == nil {
				note.SlideTo = &f
			}
		}
	}

	track.Sequence = append(track.Sequence, score.SequenceElement{Kind: score.ElementNote, Note: note})
	track.Length += duration
	return nil
}

func parseChordLine(track *score.MelodyTrack, v string) error {
	parts := splitTrim(v, ",")
	if len(parts) < 3 {
		return nil
	}
	notesStr := parts[0]
	duration, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return scoreerr.WrapParseError(err, "Invalid Duration")
	}
	velocityField, _, _ := strings.Cut(parts[2], "//")
	velocity, err := strconv.ParseFloat(strings.TrimSpace(velocityField), 64)
	if err != nil {
		return scoreerr.WrapParseError(err, "Invalid Velocity")
	}

	var pitches []float64
	for _, n := range strings.Split(notesStr, "+") {
		p, err := notefreq.Parse(strings.TrimSpace(n))
		if err != nil {
			return err
		}
		pitches = append(pitches, p)
	}

	track.Sequence = append(track.Sequence, score.SequenceElement{
		Kind:  score.ElementChord,
		Chord: score.Chord{Pitches: pitches, Duration: duration, Velocity: velocity},
	})
	track.Length += duration
	return nil
}

func waveformByName(name string) (waveform.Kind, bool) {
	switch name {
	case "sine":
		return waveform.Sine, true
	case "square":
		return waveform.Square, true
	case "triangle":
		return waveform.Triangle, true
	case "sawtooth":
		return waveform.Sawtooth, true
	case "noise":
		return waveform.Noise, true
	default:
		return 0, false
	}
}

func filterTypeByName(name string) effects.FilterType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "highpass", "hp":
		return effects.HighPass
	case "bandpass", "bp":
		return effects.BandPass
	default:
		return effects.LowPass
	}
}

func hasField(line, prefix string) bool {
	return strings.HasPrefix(line, prefix)
}

func cutField(line, prefix string) string {
	return strings.TrimPrefix(line, prefix)
}

func splitTrim(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, len(raw))
	for i, p := range raw {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func parseFloatOr(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fallback
	}
	return v
}
