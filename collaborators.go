package playkit

import "github.com/eyzhub/playkit-go/events"

// AdController is the optional ad subsystem collaborator. The player
// defers PLAYBACK_ENDED until AllAdsCompleted is true, waiting for the
// ALL_ADS_COMPLETED event on the controller's bus.
type AdController interface {
	Events() *events.Bus
	IsAdBreak() bool
	AllAdsCompleted() bool
}

// CaptionsHandler is the external-captions collaborator. It owns text
// tracks fetched outside the engine and emits its own cue-changed and
// text-track-changed events, which the player merges into the same
// aggregation path as engine-native ones.
//
// Exactly one of engine text rendering and external captions is ever
// active; the player enforces this by hiding one side whenever the
// other is selected.
type CaptionsHandler interface {
	Events() *events.Bus

	// GetExternalTracks returns the external text tracks, with indexes
	// continuing after the native text tracks passed in.
	GetExternalTracks(native []Track) []Track

	SelectTextTrack(track Track) error
	HideTextTrack()

	Reset()
	Destroy()
}
