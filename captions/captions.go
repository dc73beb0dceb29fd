// Package captions implements the external-captions collaborator: text
// tracks fetched outside the engine, surfaced next to the native ones
// and rendered instead of them when selected.
package captions

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
)

const (
	fetchTimeout    = 10 * time.Second
	fetchMaxRetries = 3

	// repositionDelay is the debounce window after a resize/fullscreen
	// change before the active cue is re-dispatched.
	repositionDelay = 100 * time.Millisecond
)

type Options struct {
	Log     playkit.Logger
	Sources []playkit.CaptionSource

	// Client is the HTTP client used to fetch caption files. Defaults
	// to one with a 10 second timeout.
	Client *http.Client
}

// Manager fetches and arbitrates external caption tracks. It emits
// text-track-changed and cue-changed events on its own bus; the player
// merges them into the unified stream.
type Manager struct {
	log    playkit.Logger
	bus    *events.Bus
	client *http.Client

	mu        sync.Mutex
	sources   []playkit.CaptionSource
	baseIndex int
	active    int // track index of the selected external track, -1 if none
	cues      []Cue
	currCue   int
	destroyed bool

	debounceMu sync.Mutex
	debounce   *time.Timer
}

func NewManager(opts *Options) *Manager {
	log := opts.Log
	if log == nil {
		log = &playkit.NullLogger{}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	return &Manager{
		log:     log,
		bus:     events.NewBus(),
		client:  client,
		sources: append([]playkit.CaptionSource(nil), opts.Sources...),
		active:  -1,
		currCue: -1,
	}
}

func (m *Manager) Events() *events.Bus {
	return m.bus
}

// SetSources replaces the configured caption sources, typically after a
// configuration merge touched sources.captions.
func (m *Manager) SetSources(sources []playkit.CaptionSource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sources = append([]playkit.CaptionSource(nil), sources...)
	m.active = -1
	m.cues = nil
	m.currCue = -1
}

// GetExternalTracks builds the external text tracks, numbering them
// after the native text tracks so active-track marking by (kind, index)
// stays unambiguous across the merged list.
func (m *Manager) GetExternalTracks(native []playkit.Track) []playkit.Track {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.baseIndex = len(playkit.FilterTracks(native, playkit.TrackKindText))

	var out []playkit.Track
	for i, src := range m.sources {
		label := src.Label
		if label == "" {
			label = src.Language
		}

		out = append(out, playkit.Track{
			Kind:     playkit.TrackKindText,
			Index:    m.baseIndex + i,
			Label:    label,
			Language: src.Language,
			External: true,
		})
	}
	return out
}

// SelectTextTrack fetches the caption file backing the given external
// track (with exponential backoff on transient failures) and makes it
// the active one.
func (m *Manager) SelectTextTrack(track playkit.Track) error {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return fmt.Errorf("captions manager is destroyed")
	}

	idx := track.Index - m.baseIndex
	if idx < 0 || idx >= len(m.sources) {
		m.mu.Unlock()
		return fmt.Errorf("no caption source for track index %d", track.Index)
	}
	src := m.sources[idx]
	m.mu.Unlock()

	cues, err := m.fetch(src.URL)
	if err != nil {
		return fmt.Errorf("failed fetching captions from %s: %w", src.URL, err)
	}

	m.mu.Lock()
	m.active = track.Index
	m.cues = cues
	m.currCue = -1
	m.mu.Unlock()

	m.log.WithField("language", src.Language).Debugf("external captions selected (%d cues)", len(cues))
	m.bus.Emit(playkit.EventTextTrackChanged, track)
	return nil
}

func (m *Manager) fetch(url string) ([]Cue, error) {
	var body []byte
	op := func() error {
		resp, err := m.client.Get(url)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchMaxRetries)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	return parseCues(body)
}

// HideTextTrack deactivates external rendering without forgetting the
// fetched cues' source list.
func (m *Manager) HideTextTrack() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = -1
	m.cues = nil
	m.currCue = -1
}

// SyncCue advances the active cue to the given playback position,
// emitting a cue-changed event whenever the cue under the position
// changes. The player feeds this from engine time updates.
func (m *Manager) SyncCue(seconds float64) {
	m.mu.Lock()
	if m.active < 0 {
		m.mu.Unlock()
		return
	}

	idx := cueAt(m.cues, seconds)
	if idx == m.currCue {
		m.mu.Unlock()
		return
	}
	m.currCue = idx

	var payload interface{}
	if idx >= 0 {
		payload = m.cues[idx]
	}
	m.mu.Unlock()

	m.bus.Emit(playkit.EventCueChanged, payload)
}

// HandleResize debounces cue repositioning after fullscreen or resize
// changes: every new trigger cancels and restarts the timer.
func (m *Manager) HandleResize() {
	m.mu.Lock()
	destroyed := m.destroyed
	m.mu.Unlock()
	if destroyed {
		return
	}

	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	if m.debounce != nil {
		m.debounce.Stop()
	}

	m.debounce = time.AfterFunc(repositionDelay, func() {
		m.mu.Lock()
		var payload interface{}
		active := !m.destroyed && m.active >= 0 && m.currCue >= 0
		if active {
			payload = m.cues[m.currCue]
		}
		m.mu.Unlock()

		if active {
			m.bus.Emit(playkit.EventCueChanged, payload)
		}
	})
}

// Reset drops the active selection and pending timers but keeps the
// configured sources.
func (m *Manager) Reset() {
	m.stopDebounce()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = -1
	m.cues = nil
	m.currCue = -1
}

// Destroy makes the manager permanently unusable.
func (m *Manager) Destroy() {
	m.stopDebounce()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.destroyed = true
	m.sources = nil
	m.cues = nil
	m.active = -1
	m.currCue = -1
}

func (m *Manager) stopDebounce() {
	m.debounceMu.Lock()
	defer m.debounceMu.Unlock()

	if m.debounce != nil {
		m.debounce.Stop()
		m.debounce = nil
	}
}
