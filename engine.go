package playkit

import "github.com/eyzhub/playkit-go/events"

// LoadResult is delivered on the channel returned by Engine.Load once
// the initial track set is known, or once loading failed.
type LoadResult struct {
	Tracks []Track
	Err    error
}

// EngineOptions carries everything an engine factory needs to build a
// concrete engine binding.
type EngineOptions struct {
	Log Logger

	Source     Source
	StreamType StreamType
	DVR        bool

	// Config is the full player configuration at bind time. Engines may
	// read playback preferences from it but must not mutate it.
	Config *Config
}

// Engine drives media decode/playback for one bound source. Exactly one
// engine instance is bound at a time and it is exclusively owned and
// mutated by the player.
//
// Engines report everything that happens through their event bus using
// the event names defined in this package. Events emitted synchronously
// from within an Engine method call are delivered on the caller's
// goroutine; the player tolerates that.
type Engine interface {
	ID() string

	// Events returns the engine's bus. The bus instance must survive
	// Restore so listeners re-attached by the player keep working
	// without duplicate bindings.
	Events() *events.Bus

	// Load starts loading the bound source and returns a channel that
	// receives exactly one LoadResult with the discovered track set.
	Load(startTime float64) <-chan LoadResult

	Play() error
	Pause()

	// Restore rebinds the engine in place to a new source of the same
	// engine type, preserving the event-emission path.
	Restore(source Source, config *Config)

	Reset()
	Destroy()

	CurrentTime() float64
	SetCurrentTime(seconds float64)
	Duration() float64

	Volume() float64
	SetVolume(volume float64)
	Muted() bool
	SetMuted(muted bool)
	PlaybackRate() float64
	SetPlaybackRate(rate float64)

	Paused() bool
	IsLive() bool

	SelectVideoTrack(track Track) error
	SelectAudioTrack(track Track) error
	SelectTextTrack(track Track) error

	// HideTextTrack disables engine-side text rendering. Used when the
	// OFF pseudo-track or an external caption track is selected.
	HideTextTrack()
}

// EngineFactory is the registrable capability surface of an engine
// type. CanPlaySource is consulted during source selection before any
// engine instance exists.
type EngineFactory interface {
	ID() string
	CanPlaySource(source Source, preferNative bool, drm DRMConfig) bool
	New(opts EngineOptions) (Engine, error)
}
