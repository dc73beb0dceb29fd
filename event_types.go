package playkit

// Engine-native event names. These pass through the player verbatim:
// the player re-attaches a fixed forwarding table onto every newly
// bound engine instead of per-event bespoke wiring.
const (
	EventPlay           = "play"
	EventPlaying        = "playing"
	EventPause          = "pause"
	EventEnded          = "ended"
	EventTimeUpdate     = "timeupdate"
	EventDurationChange = "durationchange"
	EventVolumeChange   = "volumechange"
	EventMuteChange     = "mutechange"
	EventRateChange     = "ratechange"
	EventSeeking        = "seeking"
	EventSeeked         = "seeked"
	EventWaiting        = "waiting"
	EventLoadedData     = "loadeddata"
	EventLoadedMetadata = "loadedmetadata"
	EventAbort          = "abort"
	EventError          = "error"
)

// Custom event names. These get player-level side effects (active-track
// marking, readiness resolution, flag transitions) before being
// republished outward.
const (
	EventTracksChanged     = "trackschanged"
	EventVideoTrackChanged = "videotrackchanged"
	EventAudioTrackChanged = "audiotrackchanged"
	EventTextTrackChanged  = "texttrackchanged"
	EventCueChanged        = "cuechanged"

	EventChangeSourceStarted = "changesourcestarted"
	EventChangeSourceEnded   = "changesourceended"
	EventSourceSelected      = "sourceselected"

	EventPlayerReset   = "playerreset"
	EventPlayerDestroy = "playerdestroy"

	EventFirstPlay     = "firstplay"
	EventFirstPlaying  = "firstplaying"
	EventPlaybackStart = "playbackstart"
	EventPlaybackEnded = "playbackended"

	EventPlayFailed              = "playfailed"
	EventMediaRecovered          = "mediarecovered"
	EventAutoplayFailed          = "autoplayfailed"
	EventFallbackToMutedAutoplay = "fallbacktomutedautoplay"
)

// Ad events, originating from the optional ad controller.
const (
	EventAdBreakStart    = "adbreakstart"
	EventAdBreakEnd      = "adbreakend"
	EventAllAdsCompleted = "alladscompleted"
)
