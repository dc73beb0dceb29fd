// Package probe provides a reference engine that validates source
// reachability over HTTP and simulates playback on a wall clock. It is
// the engine the daemon ships with and the model for writing real
// decoder-backed engines.
package probe

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/engine"
	"github.com/eyzhub/playkit-go/events"
)

const EngineID = "probe"

const (
	probeTimeout    = 10 * time.Second
	probeMaxRetries = 2
	tickInterval    = 250 * time.Millisecond

	// defaultDuration is reported for VOD sources; the probe cannot know
	// the real media duration without decoding.
	defaultDuration = 600.0
)

func init() {
	engine.Register(&Factory{})
}

// Factory registers the probe engine. It accepts every format bucket
// but refuses DRM-protected sources, which it cannot meaningfully
// validate.
type Factory struct {
	// Client overrides the HTTP client used for probing. Nil means a
	// default client with a sane timeout.
	Client *http.Client
}

func (f *Factory) ID() string { return EngineID }

func (f *Factory) CanPlaySource(source playkit.Source, _ bool, drm playkit.DRMConfig) bool {
	if len(drm) > 0 || len(source.DRM) > 0 {
		return false
	}

	switch source.Format {
	case playkit.FormatHLS, playkit.FormatDash, playkit.FormatProgressive:
		return source.URL != ""
	default:
		return false
	}
}

func (f *Factory) New(opts playkit.EngineOptions) (playkit.Engine, error) {
	if opts.Source.URL == "" {
		return nil, fmt.Errorf("probe engine requires a source URL")
	}

	log := opts.Log
	if log == nil {
		log = &playkit.NullLogger{}
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: probeTimeout}
	}

	return &probeEngine{
		log:    log,
		bus:    events.NewBus(),
		client: client,
		source: opts.Source,
		live:   opts.StreamType == playkit.StreamTypeLive,
		volume: 1,
		rate:   1,
		paused: true,
	}, nil
}

// probeEngine simulates playback: position advances on a wall clock
// scaled by the playback rate, and the standard event vocabulary is
// emitted at the same points a real decoder would emit it.
type probeEngine struct {
	log    playkit.Logger
	bus    *events.Bus
	client *http.Client

	mu       sync.Mutex
	source   playkit.Source
	live     bool
	loaded   bool
	paused   bool
	position float64
	duration float64
	volume   float64
	muted    bool
	rate     float64
	tracks   []playkit.Track
	ticker   *time.Ticker
	stopTick chan struct{}
	wg       sync.WaitGroup
}

func (e *probeEngine) ID() string { return EngineID }

func (e *probeEngine) Events() *events.Bus { return e.bus }

// Load HEAD-probes the source URL with retries and delivers a static
// track set on success.
func (e *probeEngine) Load(startTime float64) <-chan playkit.LoadResult {
	ch := make(chan playkit.LoadResult, 1)

	e.mu.Lock()
	if e.loaded {
		tracks := playkit.CloneTracks(e.tracks)
		e.mu.Unlock()
		ch <- playkit.LoadResult{Tracks: tracks}
		return ch
	}
	url := e.source.URL
	e.mu.Unlock()

	go func() {
		op := func() error {
			req, err := http.NewRequest(http.MethodHead, url, nil)
			if err != nil {
				return backoff.Permanent(err)
			}

			resp, err := e.client.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()

			if resp.StatusCode >= 400 {
				return fmt.Errorf("probe returned status %d", resp.StatusCode)
			}
			return nil
		}

		if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), probeMaxRetries)); err != nil {
			e.log.WithError(err).Warnf("failed probing %s", url)
			ch <- playkit.LoadResult{Err: fmt.Errorf("failed probing source: %w", err)}
			return
		}

		tracks := []playkit.Track{
			{Kind: playkit.TrackKindVideo, Index: 0, Active: true, Label: "main", Bandwidth: 2_000_000},
			{Kind: playkit.TrackKindVideo, Index: 1, Label: "low", Bandwidth: 500_000},
			{Kind: playkit.TrackKindAudio, Index: 0, Active: true, Label: "default", Language: "en"},
		}

		e.mu.Lock()
		e.loaded = true
		e.tracks = tracks
		if !e.live {
			e.duration = defaultDuration
		}
		if startTime > 0 && startTime < e.duration {
			e.position = startTime
		}
		e.mu.Unlock()

		e.bus.Emit(playkit.EventLoadedMetadata, nil)
		e.bus.Emit(playkit.EventDurationChange, e.Duration())
		e.bus.Emit(playkit.EventLoadedData, nil)
		e.bus.Emit(playkit.EventTracksChanged, playkit.CloneTracks(tracks))

		ch <- playkit.LoadResult{Tracks: playkit.CloneTracks(tracks)}
	}()

	return ch
}

func (e *probeEngine) Play() error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return fmt.Errorf("cannot play before load completed")
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}

	e.paused = false
	e.startClockLocked()
	e.mu.Unlock()

	e.bus.Emit(playkit.EventPlay, nil)
	e.bus.Emit(playkit.EventPlaying, nil)
	return nil
}

func (e *probeEngine) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.stopClockLocked()
	e.mu.Unlock()

	e.bus.Emit(playkit.EventPause, nil)
}

// startClockLocked runs the playback clock goroutine. Requires e.mu.
func (e *probeEngine) startClockLocked() {
	stop := make(chan struct{})
	e.stopTick = stop

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			e.mu.Lock()
			if e.paused {
				e.mu.Unlock()
				return
			}
			e.position += tickInterval.Seconds() * e.rate
			ended := !e.live && e.duration > 0 && e.position >= e.duration
			if ended {
				e.position = e.duration
				e.paused = true
				e.stopTick = nil
			}
			pos := e.position
			e.mu.Unlock()

			e.bus.Emit(playkit.EventTimeUpdate, pos)
			if ended {
				e.bus.Emit(playkit.EventEnded, nil)
				return
			}
		}
	}()
}

// stopClockLocked signals the clock goroutine to exit. Requires e.mu.
func (e *probeEngine) stopClockLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

func (e *probeEngine) Restore(source playkit.Source, _ *playkit.Config) {
	e.mu.Lock()
	e.stopClockLocked()
	e.source = source
	e.loaded = false
	e.paused = true
	e.position = 0
	e.duration = 0
	e.tracks = nil
	e.mu.Unlock()
}

func (e *probeEngine) Reset() {
	e.mu.Lock()
	e.stopClockLocked()
	e.loaded = false
	e.paused = true
	e.position = 0
	e.duration = 0
	e.tracks = nil
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *probeEngine) Destroy() {
	e.mu.Lock()
	e.stopClockLocked()
	e.paused = true
	e.loaded = false
	e.tracks = nil
	e.mu.Unlock()

	e.wg.Wait()
	e.bus.RemoveAll()
}

func (e *probeEngine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.position
}

func (e *probeEngine) SetCurrentTime(seconds float64) {
	e.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if !e.live && e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds
	e.mu.Unlock()

	e.bus.Emit(playkit.EventSeeking, seconds)
	e.bus.Emit(playkit.EventSeeked, seconds)
}

func (e *probeEngine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.duration
}

func (e *probeEngine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.volume
}

func (e *probeEngine) SetVolume(volume float64) {
	e.mu.Lock()
	changed := e.volume != volume
	e.volume = volume
	e.mu.Unlock()

	if changed {
		e.bus.Emit(playkit.EventVolumeChange, volume)
	}
}

func (e *probeEngine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.muted
}

func (e *probeEngine) SetMuted(muted bool) {
	e.mu.Lock()
	changed := e.muted != muted
	e.muted = muted
	e.mu.Unlock()

	if changed {
		e.bus.Emit(playkit.EventMuteChange, muted)
	}
}

func (e *probeEngine) PlaybackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rate
}

func (e *probeEngine) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}

	e.mu.Lock()
	changed := e.rate != rate
	e.rate = rate
	e.mu.Unlock()

	if changed {
		e.bus.Emit(playkit.EventRateChange, rate)
	}
}

func (e *probeEngine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.paused
}

func (e *probeEngine) IsLive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.live
}

func (e *probeEngine) selectTrack(kind playkit.TrackKind, track playkit.Track, event string) error {
	e.mu.Lock()
	found := false
	for i := range e.tracks {
		if e.tracks[i].Kind != kind {
			continue
		}
		if e.tracks[i].Index == track.Index {
			found = true
		}
	}
	if !found {
		e.mu.Unlock()
		return fmt.Errorf("no %s track with index %d", kind, track.Index)
	}
	for i := range e.tracks {
		if e.tracks[i].Kind == kind {
			e.tracks[i].Active = e.tracks[i].Index == track.Index
		}
	}
	sel := track
	e.mu.Unlock()

	e.bus.Emit(event, sel)
	return nil
}

func (e *probeEngine) SelectVideoTrack(track playkit.Track) error {
	return e.selectTrack(playkit.TrackKindVideo, track, playkit.EventVideoTrackChanged)
}

func (e *probeEngine) SelectAudioTrack(track playkit.Track) error {
	return e.selectTrack(playkit.TrackKindAudio, track, playkit.EventAudioTrackChanged)
}

func (e *probeEngine) SelectTextTrack(track playkit.Track) error {
	return e.selectTrack(playkit.TrackKindText, track, playkit.EventTextTrackChanged)
}

func (e *probeEngine) HideTextTrack() {
	e.mu.Lock()
	for i := range e.tracks {
		if e.tracks[i].Kind == playkit.TrackKindText {
			e.tracks[i].Active = false
		}
	}
	e.mu.Unlock()
}
