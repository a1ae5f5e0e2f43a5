// Package project is the top-level loader facade: it owns the sample
// and melody caches that score files are resolved against.
package project

import (
	"log/slog"
	"os"

	"github.com/Servus-Altissimi/Boomie/pkg/score"
	"github.com/Servus-Altissimi/Boomie/pkg/scoreerr"
	"github.com/Servus-Altissimi/Boomie/pkg/scorefile"
	"github.com/Servus-Altissimi/Boomie/pkg/wavio"
)

// Project caches loaded samples and melodies by name, so arrangements
// can reference either by the names used to load them rather than by
// file path.
type Project struct {
	SampleCache map[string]score.SampleData
	MelCache    map[string]*score.MelodyTrack
	Logger      *slog.Logger
}

// New returns an empty project using logger for parse-time warnings
// (e.g. an arrangement referencing an unknown track). A nil logger
// falls back to slog.Default().
func New(logger *slog.Logger) *Project {
	if logger == nil {
		logger = slog.Default()
	}
	return &Project{
		SampleCache: make(map[string]score.SampleData),
		MelCache:    make(map[string]*score.MelodyTrack),
		Logger:      logger,
	}
}

// LoadSample reads a WAV file from path and caches it under name.
func (p *Project) LoadSample(name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return scoreerr.WrapFileError(err, "opening sample %q", path)
	}
	defer f.Close()

	data, err := wavio.LoadSample(f)
	if err != nil {
		return err
	}
	p.SampleCache[name] = data
	return nil
}

// LoadMelody reads a .mel file from path, resolves it against the
// current sample cache, and caches the resulting track under name.
func (p *Project) LoadMelody(name, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return scoreerr.WrapFileError(err, "opening melody %q", path)
	}

	track, err := scorefile.ParseMelody(string(content), p.SampleCache)
	if err != nil {
		return err
	}
	track.Name = name
	p.MelCache[name] = track
	return nil
}

// LoadArrangement reads a .bmi file from path and resolves it against
// the current melody cache.
func (p *Project) LoadArrangement(path string) (*score.Arrangement, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, scoreerr.WrapFileError(err, "opening arrangement %q", path)
	}
	return scorefile.ParseArrangement(string(content), p.MelCache, p.Logger)
}
