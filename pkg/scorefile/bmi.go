package scorefile

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/Servus-Altissimi/Boomie/pkg/effects"
	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/scoreerr"
)

// ParseArrangement parses .bmi text content into an Arrangement,
// resolving "track:" lines against melCache by name. Unknown melody
// references are logged as a warning and skipped, not a hard error;
// an arrangement with zero valid tracks after parsing is
// scoreerr.InvalidInstrument.
func ParseArrangement(content string, melCache map[string]*score.MelodyTrack, logger *slog.Logger) (*score.Arrangement, error) {
	if logger == nil {
		logger = slog.Default()
	}
	arr := score.NewArrangement()

	for _, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		switch {
		case hasField(line, "name:"):
			arr.Name = strings.TrimSpace(cutField(line, "name:"))

		case hasField(line, "master_tempo:"):
			v := strings.TrimSpace(cutField(line, "master_tempo:"))
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				arr.MasterTempo = &f
			}

		case hasField(line, "fade_in:"):
			v := strings.TrimSpace(cutField(line, "fade_in:"))
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				arr.FadeIn = f
			}

		case hasField(line, "fade_out:"):
			v := strings.TrimSpace(cutField(line, "fade_out:"))
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				arr.FadeOut = f
			}

		case hasField(line, "loop:"):
			v := cutField(line, "loop:")
			parts := splitTrim(v, ",")
			if len(parts) >= 2 {
				arr.LoopPoint = &score.LoopPoint{
					Start: parseFloatOr(parts[0], 0.0),
					End:   parseFloatOr(parts[1], arr.TotalLength),
				}
			}

		case hasField(line, "track:"):
			v := cutField(line, "track:")
			if err := parseTrackLine(arr, v, melCache, logger); err != nil {
				return nil, err
			}
		}
	}

	if len(arr.Tracks) == 0 {
		return nil, scoreerr.NewInvalidInstrument("Arrangement has no valid tracks")
	}

	return arr, nil
}

func parseTrackLine(arr *score.Arrangement, v string, melCache map[string]*score.MelodyTrack, logger *slog.Logger) error {
	parts := splitTrim(v, ",")
	if len(parts) < 2 {
		return nil
	}
	melName := parts[0]
	startTime, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return scoreerr.WrapParseError(err, "Invalid start time")
	}

	var overrides score.TrackOverrides
	for _, overrideStr := range parts[2:] {
		key, val, ok := strings.Cut(overrideStr, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		applyOverride(&overrides, key, val)
	}

	track, ok := melCache[melName]
	if !ok {
		logger.Warn("track not found in cache, skipping", "track", melName)
		return nil
	}

	modified := track.Clone()
	if overrides.Tempo != nil {
		modified.Tempo = *overrides.Tempo
	}
	if arr.MasterTempo != nil {
		modified.Tempo = *arr.MasterTempo
	}
	if modified.Tempo != track.Tempo {
		// The cached Length is in seconds at the melody's own tempo;
		// a tempo change rescales it.
		modified.RecomputeLength()
	}

	arr.Tracks = append(arr.Tracks, score.PlacedTrack{Track: modified, StartTime: startTime, Overrides: overrides})
	endTime := startTime + track.Length
	if endTime > arr.TotalLength {
		arr.TotalLength = endTime
	}
	return nil
}

func applyOverride(overrides *score.TrackOverrides, key, val string) {
	switch key {
	case "volume", "vol":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			overrides.Volume = &f
		}
	case "pitch":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			overrides.Pitch = &f
		}
	case "tempo":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			overrides.Tempo = &f
		}
	case "pan":
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			overrides.Pan = &f
		}
	case "filter":
		vals := strings.Split(val, ":")
		if len(vals) >= 3 {
			overrides.Filter = &effects.FilterParams{
				FilterType: filterTypeByName(vals[0]),
				Cutoff:     parseFloatOr(vals[1], 1000.0),
				Resonance:  parseFloatOr(vals[2], 0.7),
			}
		}
	case "reverb":
		vals := strings.Split(val, ":")
		if len(vals) >= 4 {
			overrides.Reverb = &effects.ReverbParams{
				RoomSize: parseFloatOr(vals[0], 0.5),
				Damping:  parseFloatOr(vals[1], 0.5),
				Wet:      parseFloatOr(vals[2], 0.3),
				Width:    parseFloatOr(vals[3], 1.0),
			}
		}
	case "delay":
		vals := strings.Split(val, ":")
		if len(vals) >= 3 {
			overrides.Delay = &effects.DelayParams{
				Time:     parseFloatOr(vals[0], 0.25),
				Feedback: parseFloatOr(vals[1], 0.4),
				Wet:      parseFloatOr(vals[2], 0.3),
			}
		}
	case "distortion", "dist":
		vals := strings.Split(val, ":")
		if len(vals) >= 3 {
			overrides.Distortion = &effects.DistortionParams{
				Drive: parseFloatOr(vals[0], 2.0),
				Tone:  parseFloatOr(vals[1], 0.7),
				Wet:   parseFloatOr(vals[2], 0.5),
			}
		}
	}
}
