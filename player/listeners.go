package player

import (
	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
)

// enginePassthroughEvents are forwarded from the engine bus to the
// player bus verbatim. One static table applied uniformly at every
// engine bind instead of per-event bespoke wiring.
var enginePassthroughEvents = []string{
	playkit.EventPlay,
	playkit.EventPause,
	playkit.EventDurationChange,
	playkit.EventVolumeChange,
	playkit.EventMuteChange,
	playkit.EventRateChange,
	playkit.EventSeeking,
	playkit.EventSeeked,
	playkit.EventWaiting,
	playkit.EventLoadedData,
	playkit.EventLoadedMetadata,
	playkit.EventAbort,
	playkit.EventMediaRecovered,
}

// attachEngineLocked wires the full listener table onto the currently
// bound engine. Requires p.mu. The detach list is what reset tears down
// to avoid leaks and duplicate bindings across engine swaps.
func (p *Player) attachEngineLocked() {
	eng := p.eng
	if eng == nil {
		return
	}

	bus := eng.Events()
	gen := p.generation

	for _, name := range enginePassthroughEvents {
		name := name
		p.detach = append(p.detach, bus.On(name, func(ev events.Event) {
			if p.generationAlive(gen) {
				p.bus.Emit(name, ev.Payload)
			}
		}))
	}

	p.detach = append(p.detach,
		bus.On(playkit.EventPlaying, func(events.Event) {
			p.onPlaying(gen)
		}),
		bus.On(playkit.EventEnded, func(events.Event) {
			p.onEnded(gen)
		}),
		bus.On(playkit.EventTimeUpdate, func(ev events.Event) {
			p.onTimeUpdate(gen, ev.Payload)
		}),
		bus.On(playkit.EventError, func(ev events.Event) {
			p.onEngineError(gen, ev.Payload)
		}),
		bus.On(playkit.EventTracksChanged, func(ev events.Event) {
			if tracks, ok := ev.Payload.([]playkit.Track); ok {
				p.handleNewTracks(gen, tracks)
			}
		}),
		bus.On(playkit.EventVideoTrackChanged, func(ev events.Event) {
			p.onEngineTrackChanged(gen, playkit.EventVideoTrackChanged, ev.Payload)
		}),
		bus.On(playkit.EventAudioTrackChanged, func(ev events.Event) {
			p.onEngineTrackChanged(gen, playkit.EventAudioTrackChanged, ev.Payload)
		}),
		bus.On(playkit.EventTextTrackChanged, func(ev events.Event) {
			p.onEngineTrackChanged(gen, playkit.EventTextTrackChanged, ev.Payload)
		}),
		bus.On(playkit.EventCueChanged, func(ev events.Event) {
			if p.generationAlive(gen) {
				p.bus.Emit(playkit.EventCueChanged, ev.Payload)
			}
		}),
		bus.On(playkit.EventPlayFailed, func(ev events.Event) {
			if p.generationAlive(gen) {
				p.bus.Emit(playkit.EventPlayFailed, ev.Payload)
			}
		}),
	)
}

// detachEngineLocked removes every listener the player attached to the
// engine. Requires p.mu.
func (p *Player) detachEngineLocked() {
	for _, off := range p.detach {
		off()
	}
	p.detach = nil
}

// generationAlive reports whether the engine binding the listener was
// attached for is still the current one. Stale continuations from a
// superseded binding must not act on fresh state.
func (p *Player) generationAlive(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return gen == p.generation && !p.flags.destroyed
}

// attachCollaborators wires the captions handler and the optional ad
// controller buses into the aggregation path. Called once at
// construction; collaborator listeners live for the player's lifetime.
func (p *Player) attachCollaborators() {
	if p.captions != nil {
		cb := p.captions.Events()
		p.capDetach = append(p.capDetach,
			cb.On(playkit.EventTextTrackChanged, func(ev events.Event) {
				if t, ok := ev.Payload.(playkit.Track); ok {
					p.markActiveTrack(t.Kind, t.Index)
				}
				p.bus.Emit(playkit.EventTextTrackChanged, ev.Payload)
			}),
			cb.On(playkit.EventCueChanged, func(ev events.Event) {
				p.bus.Emit(playkit.EventCueChanged, ev.Payload)
			}),
		)
	}

	if p.ads != nil {
		ab := p.ads.Events()
		for _, name := range []string{playkit.EventAdBreakStart, playkit.EventAdBreakEnd} {
			name := name
			p.capDetach = append(p.capDetach, ab.On(name, func(ev events.Event) {
				p.bus.Emit(name, ev.Payload)
			}))
		}

		p.capDetach = append(p.capDetach, ab.On(playkit.EventAllAdsCompleted, func(ev events.Event) {
			p.bus.Emit(playkit.EventAllAdsCompleted, ev.Payload)

			p.mu.Lock()
			pending := p.pendingEnded
			gen := p.generation
			p.pendingEnded = false
			p.mu.Unlock()

			if pending {
				p.finalizeEnded(gen)
			}
		}))
	}
}
