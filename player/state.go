package player

// playbackFlags are the independent booleans of the playback state
// machine. They are flags rather than a single enum because their legal
// combinations matter independently, and they double as the re-entrancy
// guards for play/pause called from within event handlers.
type playbackFlags struct {
	// firstPlay stays true until the first successful play reaches
	// "playing" for the current source.
	firstPlay    bool
	firstPlaying bool

	// playbackStart is set once a play request has been issued for the
	// current source, whether or not it succeeded yet.
	playbackStart bool

	// playbackEnded is terminal until the next reset: end-of-stream has
	// been fully processed, including any pending ad completion.
	playbackEnded bool

	reset     bool
	destroyed bool
}

func initialFlags() playbackFlags {
	return playbackFlags{firstPlay: true}
}

// attributes caches the last externally observed playback attributes so
// a newly bound engine can be primed with prior user intent. Nil means
// never touched, so configuration defaults still apply.
type attributes struct {
	volume *float64
	muted  *bool
	rate   *float64
}
