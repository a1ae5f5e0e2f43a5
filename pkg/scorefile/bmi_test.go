package scorefile

import (
	"log/slog"
	"testing"

	"github.com/Servus-Altissimi/Boomie/pkg/score"
)

func TestParseArrangementBasic(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{
		"lead": {Name: "lead", Tempo: 120, Length: 5.0},
	}
	content := `
name: song1
master_tempo: 100
track: lead, 0.0
`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	if arr.Name != "song1" {
		t.Errorf("Name = %q, want song1", arr.Name)
	}
	if len(arr.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(arr.Tracks))
	}
	if arr.Tracks[0].Track.Tempo != 100 {
		t.Errorf("placed track tempo = %v, want 100 (master_tempo should clobber)", arr.Tracks[0].Track.Tempo)
	}
}

func TestParseArrangementTempoOverrideThenMasterClobbers(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{
		"lead": {Name: "lead", Tempo: 120, Length: 2.0},
	}
	content := `
master_tempo: 140
track: lead, 0.0, tempo=90
`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	if arr.Tracks[0].Track.Tempo != 140 {
		t.Errorf("tempo = %v, want 140 (master_tempo wins over per-track override)", arr.Tracks[0].Track.Tempo)
	}
	// The override itself is still recorded for downstream consumers.
	if arr.Tracks[0].Overrides.Tempo == nil || *arr.Tracks[0].Overrides.Tempo != 90 {
		t.Errorf("override tempo not preserved: %+v", arr.Tracks[0].Overrides)
	}
}

func TestParseArrangementUnknownTrackWarnsAndSkips(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{
		"lead": {Name: "lead", Tempo: 120, Length: 2.0},
	}
	content := `
track: missing, 0.0
track: lead, 0.0
`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	if len(arr.Tracks) != 1 {
		t.Fatalf("expected the unknown track to be skipped, got %d tracks", len(arr.Tracks))
	}
}

func TestParseArrangementZeroTracksIsInvalidInstrument(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{}
	content := `track: missing, 0.0`
	_, err := ParseArrangement(content, melCache, slog.Default())
	if err == nil {
		t.Fatal("expected InvalidInstrument error for zero valid tracks")
	}
}

func TestParseArrangementInlineEffectOverrides(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{
		"lead": {Name: "lead", Tempo: 120, Length: 2.0},
	}
	content := `track: lead, 0.0, volume=0.5, filter=lowpass:800:0.7, reverb=0.6:0.4:0.3:1.0, delay=0.25:0.4:0.3, distortion=2.0:0.7:0.5`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	ov := arr.Tracks[0].Overrides
	if ov.Volume == nil || *ov.Volume != 0.5 {
		t.Errorf("volume override = %+v, want 0.5", ov.Volume)
	}
	if ov.Filter == nil || ov.Reverb == nil || ov.Delay == nil || ov.Distortion == nil {
		t.Fatalf("expected all four effect overrides set, got %+v", ov)
	}
}

func TestParseArrangementMasterTempoRecomputesTrackLength(t *testing.T) {
	lead := score.NewMelodyTrack()
	lead.Name = "lead"
	lead.Tempo = 120
	lead.Sequence = []score.SequenceElement{
		{Kind: score.ElementNote, Note: score.Note{Pitch: 440, Duration: 2, Velocity: 1}},
	}
	lead.RecomputeLength() // 2 beats at 120 BPM = 1 second
	melCache := map[string]*score.MelodyTrack{"lead": lead}

	content := `
master_tempo: 60
track: lead, 0.0
`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	placed := arr.Tracks[0].Track
	if placed.Tempo != 60 {
		t.Fatalf("tempo = %v, want 60", placed.Tempo)
	}
	// Halving the tempo doubles the placed track's playout length; a
	// stale cached length would truncate the renderer's track buffer.
	if placed.Length != 2.0 {
		t.Errorf("placed Length = %v, want 2.0 after master_tempo recompute", placed.Length)
	}
	// The cached melody itself must stay untouched.
	if lead.Length != 1.0 || lead.Tempo != 120 {
		t.Errorf("cache melody mutated: Length=%v Tempo=%v", lead.Length, lead.Tempo)
	}
}

func TestParseArrangementTotalLengthUsesOriginalTrackLength(t *testing.T) {
	melCache := map[string]*score.MelodyTrack{
		"lead": {Name: "lead", Tempo: 120, Length: 10.0},
	}
	content := `track: lead, 5.0, tempo=60`
	arr, err := ParseArrangement(content, melCache, slog.Default())
	if err != nil {
		t.Fatalf("ParseArrangement failed: %v", err)
	}
	if arr.TotalLength != 15.0 {
		t.Errorf("TotalLength = %v, want 15.0 (5 start + 10 original track length)", arr.TotalLength)
	}
}
