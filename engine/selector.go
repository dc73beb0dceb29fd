package engine

import (
	"errors"

	playkit "github.com/eyzhub/playkit-go"
)

// ErrNoEngineFound means no registered engine accepted any configured
// source. It is reported as a critical error event by the player, never
// raised as a crash.
var ErrNoEngineFound = errors.New("no engine found to play the source")

// Selection is the outcome of a successful source selection: the
// winning engine factory together with the source it agreed to play.
type Selection struct {
	Factory    playkit.EngineFactory
	EngineID   string
	Format     playkit.StreamFormat
	StreamType playkit.StreamType
	Source     playkit.Source
}

// SelectSource walks the stream priority ladder in order. For each
// entry it looks up the registered engine, takes the first source of
// that format and asks the engine whether it can play it. The first
// engine to answer yes wins and iteration stops immediately
// (first-match, not best-match).
func SelectSource(r *Registry, cfg *playkit.Config, log playkit.Logger) (*Selection, error) {
	if log == nil {
		log = &playkit.NullLogger{}
	}

	streamType := cfg.Sources.Type
	if streamType == "" {
		streamType = playkit.StreamTypeVOD
	}

	for _, entry := range cfg.Playback.StreamPriority {
		factory, ok := r.Get(entry.Engine)
		if !ok {
			log.WithField("engine", entry.Engine).Tracef("skipping unregistered engine")
			continue
		}

		sources := cfg.Sources.ForFormat(entry.Format)
		if len(sources) == 0 {
			continue
		}

		source := sources[0]
		if source.Format == "" {
			source.Format = entry.Format
		}

		preferNative := cfg.Playback.PreferNative[string(entry.Format)]
		if !factory.CanPlaySource(source, preferNative, cfg.DRM) {
			log.WithField("engine", entry.Engine).WithField("format", entry.Format).
				Tracef("engine refused source")
			continue
		}

		log.WithField("engine", entry.Engine).WithField("format", entry.Format).
			Debugf("selected engine for source")
		return &Selection{
			Factory:    factory,
			EngineID:   entry.Engine,
			Format:     entry.Format,
			StreamType: streamType,
			Source:     source,
		}, nil
	}

	return nil, ErrNoEngineFound
}
