// Package player implements the playback orchestrator: it selects an
// engine for the configured sources, drives it through the
// load/play/pause/reset/destroy lifecycle, arbitrates track selection
// and fans out one coherent event stream built from engine, captions,
// ad and plugin events.
package player

import (
	"fmt"
	"sort"
	"sync"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/captions"
	"github.com/eyzhub/playkit-go/engine"
	"github.com/eyzhub/playkit-go/events"
	"github.com/eyzhub/playkit-go/middleware"
	"github.com/eyzhub/playkit-go/plugin"
)

// LabelCallback may override the label of every track of one kind. It
// receives a copy; an empty return keeps the original label.
type LabelCallback func(playkit.Track) string

type Options struct {
	Log playkit.Logger

	// Registry defaults to the process-wide engine registry.
	Registry *engine.Registry

	// Ads is the optional ad controller collaborator.
	Ads playkit.AdController

	// Captions overrides the default external-captions manager.
	Captions playkit.CaptionsHandler

	// Locale resolves the "auto" text language. Defaults to "en".
	Locale string

	CustomLabels map[playkit.TrackKind]LabelCallback

	// Config is the initial configuration, merged over the defaults.
	Config map[string]interface{}
}

// Player is the orchestrator façade. All public methods are safe to
// call at any point of the lifecycle; after Destroy they are no-ops.
type Player struct {
	log      playkit.Logger
	bus      *events.Bus
	registry *engine.Registry
	chain    *middleware.Chain
	plugins  *plugin.Manager
	ads      playkit.AdController
	captions playkit.CaptionsHandler
	capMgr   *captions.Manager
	locale   string
	labels   map[playkit.TrackKind]LabelCallback

	mu  sync.Mutex
	k   *koanf.Koanf
	cfg *playkit.Config

	eng        playkit.Engine
	engineID   string
	streamType playkit.StreamType
	selected   *playkit.Source
	detach     []func()
	capDetach  []func()
	generation int

	tracks          []playkit.Track
	pendingVideo    *playkit.Track
	userAudioLang   string
	userTextLang    string
	lastDefaultText *playkit.Track

	attrs         attributes
	flags         playbackFlags
	gate          *gate
	loading       bool
	sourceLoaded  bool
	pendingEnded  bool
	fallbackMuted bool

	installedMW map[string]bool
}

func NewPlayer(opts *Options) (*Player, error) {
	log := opts.Log
	if log == nil {
		log = &playkit.NullLogger{}
	}

	registry := opts.Registry
	if registry == nil {
		registry = engine.DefaultRegistry()
	}

	locale := opts.Locale
	if locale == "" {
		locale = "en"
	}

	p := &Player{
		log:         log,
		bus:         events.NewBus(),
		registry:    registry,
		chain:       middleware.NewChain(),
		ads:         opts.Ads,
		locale:      locale,
		labels:      opts.CustomLabels,
		k:           koanf.New("."),
		flags:       initialFlags(),
		gate:        newGate(),
		installedMW: map[string]bool{},
	}

	if err := p.k.Load(confmap.Provider(playkit.DefaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed loading default configuration: %w", err)
	}

	var cfg playkit.Config
	if err := p.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshalling default configuration: %w", err)
	}
	p.cfg = &cfg

	if opts.Captions != nil {
		p.captions = opts.Captions
	} else {
		p.capMgr = captions.NewManager(&captions.Options{Log: log})
		p.captions = p.capMgr
	}

	p.plugins = plugin.NewManager(log, p)
	p.attachCollaborators()

	if opts.Config != nil {
		if err := p.Configure(opts.Config); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Events returns the player's unified event bus.
func (p *Player) Events() *events.Bus {
	return p.bus
}

// Plugins returns the player's plugin manager.
func (p *Player) Plugins() *plugin.Manager {
	return p.plugins
}

// Config returns a deep copy of the current typed configuration.
// Changes to it do not affect the player; use Configure for that.
func (p *Player) Config() *playkit.Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cfg.Clone()
}

// Configure merges the given configuration tree over the current one.
// Merges are deep and additive: new fields overlay, they never replace
// whole sections. When the merge touches sources, source selection
// runs and (re)binds an engine.
func (p *Player) Configure(changes map[string]interface{}) error {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return nil
	}

	if err := p.k.Load(confmap.Provider(changes, "."), nil); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed merging configuration: %w", err)
	}

	var cfg playkit.Config
	if err := p.k.Unmarshal("", &cfg); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed unmarshalling configuration: %w", err)
	}
	p.cfg = &cfg

	_, sourcesChanged := changes["sources"]
	p.mu.Unlock()

	p.configurePlugins(cfg.Plugins)

	if sourcesChanged {
		if p.capMgr != nil {
			p.capMgr.SetSources(cfg.Sources.Captions)
		}
		if !cfg.Sources.Empty() {
			p.selectSource()
		}
	}

	return nil
}

// configurePlugins loads newly configured plugins and pushes config
// updates to already loaded ones. One failing plugin is reported as a
// non-fatal error event and does not block the others.
func (p *Player) configurePlugins(sections map[string]map[string]interface{}) {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, loaded := p.plugins.Get(name); loaded {
			p.plugins.UpdateConfig(name, sections[name])
			continue
		}

		if err := p.plugins.Load(name, sections[name]); err != nil {
			p.log.WithError(err).WithField("plugin", name).Warn("plugin failed to load")
			p.dispatchError(playkit.NewRecoverableError(playkit.CategoryPlugin,
				playkit.ErrCodePluginLoadFailed, fmt.Sprintf("plugin %q failed to load", name), err))
			continue
		}
	}

	p.mu.Lock()
	for _, nm := range p.plugins.Middlewares() {
		if !p.installedMW[nm.Name] {
			p.installedMW[nm.Name] = true
			p.chain.Use(nm.Name, nm.Middleware)
		}
	}
	p.mu.Unlock()
}

// UseMiddleware installs a middleware directly, outside of any plugin.
func (p *Player) UseMiddleware(name string, mw middleware.Middleware) {
	p.chain.Use(name, mw)
}

// selectSource runs the engine selection policy and binds the winner:
// the existing engine instance is restored in place when the same
// engine type wins again, destroyed and recreated otherwise.
func (p *Player) selectSource() {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}
	cfg := p.cfg
	p.mu.Unlock()

	p.bus.Emit(playkit.EventChangeSourceStarted, nil)

	sel, err := engine.SelectSource(p.registry, cfg, p.log)
	if err != nil {
		p.dispatchError(playkit.NewCriticalError(playkit.CategoryPlayer,
			playkit.ErrCodeNoEngineFound, "no registered engine can play the configured sources", err))
		return
	}

	p.bus.Emit(playkit.EventSourceSelected, sel.Source)

	p.mu.Lock()
	p.detachEngineLocked()

	hadEngine := p.eng != nil
	restore := p.eng != nil && p.engineID == sel.EngineID
	current := p.eng
	if !restore {
		p.eng = nil
	}
	p.mu.Unlock()

	if restore {
		current.Restore(sel.Source, cfg)
	} else {
		if current != nil {
			current.Destroy()
		}

		eng, err := sel.Factory.New(playkit.EngineOptions{
			Log:        p.log.WithField("engine", sel.EngineID),
			Source:     sel.Source,
			StreamType: sel.StreamType,
			DVR:        cfg.Sources.DVR,
			Config:     cfg,
		})
		if err != nil {
			p.dispatchError(playkit.NewCriticalError(playkit.CategoryEngine,
				playkit.ErrCodeLoadFailed, fmt.Sprintf("failed creating %q engine", sel.EngineID), err))
			return
		}

		p.mu.Lock()
		p.eng = eng
		p.engineID = sel.EngineID
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.generation++
	p.selected = &sel.Source
	p.streamType = sel.StreamType
	p.sourceLoaded = false
	p.loading = false
	p.pendingEnded = false
	p.fallbackMuted = false
	p.pendingVideo = nil
	// playback flags are per-source: the next Play on the new source
	// announces PLAYBACK_START and FIRST_PLAY again. A play request
	// issued before the very first bind still counts for it.
	destroyed := p.flags.destroyed
	startCarried := !hadEngine && p.flags.playbackStart
	p.flags = initialFlags()
	p.flags.destroyed = destroyed
	p.flags.playbackStart = startCarried
	if st, _ := p.gate.State(); st != ReadyStatePending {
		p.gate = newGate()
	}
	attrs := p.attrs
	eng := p.eng
	p.attachEngineLocked()
	p.mu.Unlock()

	p.primeEngine(eng, cfg, attrs)

	p.log.WithField("engine", sel.EngineID).WithField("format", sel.Format).
		Infof("source bound")
	p.bus.Emit(playkit.EventChangeSourceEnded, nil)

	if cfg.Playback.Autoplay {
		p.Play()
	} else if cfg.Playback.Preload == "auto" {
		p.Load()
	}
}

// primeEngine applies cached user intent (or configured defaults) to a
// freshly bound engine.
func (p *Player) primeEngine(eng playkit.Engine, cfg *playkit.Config, attrs attributes) {
	if eng == nil {
		return
	}

	if attrs.volume != nil {
		eng.SetVolume(*attrs.volume)
	} else {
		eng.SetVolume(cfg.Playback.Volume)
	}

	if attrs.muted != nil {
		eng.SetMuted(*attrs.muted)
	} else {
		eng.SetMuted(cfg.Playback.Muted)
	}

	if attrs.rate != nil {
		eng.SetPlaybackRate(*attrs.rate)
	} else if cfg.Playback.PlaybackRate > 0 {
		eng.SetPlaybackRate(cfg.Playback.PlaybackRate)
	}
}

// Load starts loading the bound source through the load middleware.
// Loading twice, or while a load is pending, is a no-op.
func (p *Player) Load() {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}

	if p.eng == nil {
		noSource := p.cfg.Sources.Empty()
		p.mu.Unlock()

		if noSource {
			p.dispatchError(playkit.NewCriticalError(playkit.CategoryPlayer,
				playkit.ErrCodeNoSourceProvided, "load requested with no source configured", nil))
			return
		}

		p.selectSource()

		p.mu.Lock()
		if p.eng == nil {
			p.mu.Unlock()
			return
		}
	}

	if p.sourceLoaded || p.loading {
		p.mu.Unlock()
		return
	}

	// a load after reset re-wires the listeners reset tore down
	if len(p.detach) == 0 {
		p.attachEngineLocked()
	}
	p.flags.reset = false
	p.loading = true
	p.mu.Unlock()

	p.chain.Run(middleware.ActionLoad, p.doLoad)
}

func (p *Player) doLoad() {
	p.mu.Lock()
	eng := p.eng
	gen := p.generation
	startTime := p.cfg.Sources.StartTime
	if eng == nil || p.flags.destroyed {
		p.loading = false
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ch := eng.Load(startTime)

	go func() {
		res := <-ch

		p.mu.Lock()
		if p.flags.destroyed || gen != p.generation {
			p.mu.Unlock()
			return
		}
		p.loading = false
		if res.Err == nil {
			p.sourceLoaded = true
		}
		p.mu.Unlock()

		if res.Err != nil {
			p.dispatchError(playkit.NewCriticalError(playkit.CategoryEngine,
				playkit.ErrCodeLoadFailed, "failed loading source", res.Err))
			return
		}

		p.handleNewTracks(gen, res.Tracks)
	}()
}

// Play issues a play request: marks playback as started, ensures an
// engine and a load are underway, then runs the play middleware and
// finally the engine play once the track set is known.
func (p *Player) Play() {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}

	startIssued := !p.flags.playbackStart
	p.flags.playbackStart = true
	noSource := p.eng == nil && p.cfg.Sources.Empty()
	p.mu.Unlock()

	if startIssued {
		p.bus.Emit(playkit.EventPlaybackStart, nil)
	}

	if noSource {
		p.dispatchError(playkit.NewCriticalError(playkit.CategoryPlayer,
			playkit.ErrCodeNoSourceProvided, "play requested with no source configured", nil))
		return
	}

	p.Load()

	p.mu.Lock()
	if p.eng == nil {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.chain.Run(middleware.ActionPlay, p.playWhenReady)
}

// playWhenReady defers the underlying engine play until the readiness
// gate has resolved, dropping the request if the gate failed or the
// binding changed meanwhile.
func (p *Player) playWhenReady() {
	p.mu.Lock()
	gen := p.generation
	g := p.gate
	loaded := p.sourceLoaded
	p.mu.Unlock()

	if loaded {
		p.enginePlay(gen)
		return
	}

	go func() {
		<-g.Done()

		if st, _ := g.State(); st != ReadyStateReady {
			return
		}
		if p.generationAlive(gen) {
			p.enginePlay(gen)
		}
	}()
}

// enginePlay performs the actual engine play, falling back to muted
// playback once per binding when the first attempt is refused.
func (p *Player) enginePlay(gen int) {
	p.mu.Lock()
	eng := p.eng
	cfg := p.cfg
	fallbackDone := p.fallbackMuted
	autoplaying := cfg.Playback.Autoplay && !p.flags.firstPlaying
	p.mu.Unlock()

	if eng == nil {
		return
	}

	err := eng.Play()
	if err == nil {
		return
	}

	if cfg.Playback.AllowMutedAutoplay && !eng.Muted() && !fallbackDone {
		eng.SetMuted(true)
		if retryErr := eng.Play(); retryErr == nil {
			p.mu.Lock()
			fire := gen == p.generation && !p.fallbackMuted
			if fire {
				p.fallbackMuted = true
			}
			p.mu.Unlock()

			if fire {
				p.bus.Emit(playkit.EventFallbackToMutedAutoplay, nil)
			}
			return
		}
	}

	if autoplaying {
		p.bus.Emit(playkit.EventAutoplayFailed, err)
	}
	p.bus.Emit(playkit.EventPlayFailed, err)
	p.dispatchError(playkit.NewRecoverableError(playkit.CategoryEngine,
		playkit.ErrCodePlayFailed, "play request failed", err))
}

// Pause runs the pause middleware and pauses the engine.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.chain.Run(middleware.ActionPause, func() {
		p.mu.Lock()
		eng := p.eng
		p.mu.Unlock()

		if eng != nil {
			eng.Pause()
		}
	})
}

// Ready returns a channel closed once the initial track set is known or
// a critical error pre-empted it. The failure reason is not delivered
// here; observe ReadyState or the error events on the bus.
func (p *Player) Ready() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gate == nil {
		return closedGateChan
	}
	return p.gate.Done()
}

// ReadyState reports the current readiness outcome and, when failed,
// the reason.
func (p *Player) ReadyState() (ReadyState, error) {
	p.mu.Lock()
	g := p.gate
	p.mu.Unlock()

	if g == nil {
		return ReadyStateReady, nil
	}
	return g.State()
}

// handleNewTracks replaces the track model wholesale from an engine
// tracks-changed signal, resolves default selections, resolves the
// readiness gate and republishes the new list.
func (p *Player) handleNewTracks(gen int, native []playkit.Track) {
	merged := p.mergeTracks(native)
	p.applyLabels(merged)

	p.mu.Lock()
	if p.flags.destroyed || gen != p.generation {
		p.mu.Unlock()
		return
	}

	p.resolveDefaultsLocked(merged)
	p.tracks = merged
	g := p.gate
	p.mu.Unlock()

	g.resolve()
	p.bus.Emit(playkit.EventTracksChanged, playkit.CloneTracks(merged))
}

// GetTracks returns a defensive copy of the current track list,
// optionally filtered by kind.
func (p *Player) GetTracks(kinds ...playkit.TrackKind) []playkit.Track {
	p.mu.Lock()
	tracks := playkit.CloneTracks(p.tracks)
	p.mu.Unlock()

	if len(kinds) == 0 {
		return tracks
	}

	var out []playkit.Track
	for _, k := range kinds {
		out = append(out, playkit.FilterTracks(tracks, k)...)
	}
	return out
}

// SelectTrack dispatches a selection by track variant. Video selections
// made after playback ended are stored and applied exactly once on the
// next "playing" signal. Text selection arbitrates between engine text
// rendering and external captions so only one is ever active.
func (p *Player) SelectTrack(track playkit.Track) error {
	p.mu.Lock()
	if p.flags.destroyed || p.eng == nil {
		p.mu.Unlock()
		return nil
	}
	eng := p.eng

	switch track.Kind {
	case playkit.TrackKindVideo:
		if p.flags.playbackEnded {
			pending := track
			p.pendingVideo = &pending
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
		return eng.SelectVideoTrack(track)

	case playkit.TrackKindAudio:
		p.userAudioLang = track.Language
		p.mu.Unlock()
		return eng.SelectAudioTrack(track)

	case playkit.TrackKindText:
		p.userTextLang = track.Language
		handler := p.captions
		p.mu.Unlock()

		if track.Off {
			eng.HideTextTrack()
			if handler != nil {
				handler.HideTextTrack()
			}
			p.markActiveTrack(playkit.TrackKindText, track.Index)
			p.bus.Emit(playkit.EventTextTrackChanged, track)
			return nil
		}

		if track.External {
			eng.HideTextTrack()
			if handler == nil {
				return fmt.Errorf("no captions handler for external track")
			}
			if err := handler.SelectTextTrack(track); err != nil {
				p.dispatchError(playkit.NewRecoverableError(playkit.CategoryText,
					playkit.ErrCodeCaptionsLoadError, "failed loading external captions", err))
				return err
			}
			return nil
		}

		if handler != nil {
			handler.HideTextTrack()
		}
		return eng.SelectTextTrack(track)

	default:
		p.mu.Unlock()
		return fmt.Errorf("unknown track kind: %q", track.Kind)
	}
}

// HideTextTrack selects the OFF pseudo-track if one exists.
func (p *Player) HideTextTrack() {
	for _, t := range p.GetTracks(playkit.TrackKindText) {
		if t.Off {
			_ = p.SelectTrack(t)
			return
		}
	}
}

// markActiveTrack updates active-track bookkeeping by (kind, index).
func (p *Player) markActiveTrack(kind playkit.TrackKind, index int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	markActive(p.tracks, kind, index)
}

func (p *Player) onEngineTrackChanged(gen int, event string, payload interface{}) {
	if !p.generationAlive(gen) {
		return
	}

	if t, ok := payload.(playkit.Track); ok {
		p.markActiveTrack(t.Kind, t.Index)
	}
	p.bus.Emit(event, payload)
}

func (p *Player) onPlaying(gen int) {
	p.mu.Lock()
	if p.flags.destroyed || gen != p.generation {
		p.mu.Unlock()
		return
	}

	first := p.flags.firstPlay
	if first {
		p.flags.firstPlay = false
		p.flags.firstPlaying = true
	}
	pending := p.pendingVideo
	p.pendingVideo = nil
	rate := p.attrs.rate
	eng := p.eng
	p.mu.Unlock()

	if first {
		p.bus.Emit(playkit.EventFirstPlay, nil)
		if rate != nil && eng != nil {
			eng.SetPlaybackRate(*rate)
		}
	}

	p.bus.Emit(playkit.EventPlaying, nil)

	if first {
		p.bus.Emit(playkit.EventFirstPlaying, nil)
	}

	if pending != nil && eng != nil {
		if err := eng.SelectVideoTrack(*pending); err != nil {
			p.log.WithError(err).Warn("failed applying pending video track selection")
		}
	}
}

func (p *Player) onEnded(gen int) {
	p.mu.Lock()
	if p.flags.destroyed || gen != p.generation {
		p.mu.Unlock()
		return
	}
	eng := p.eng
	adsPending := p.ads != nil && !p.ads.AllAdsCompleted()
	if adsPending {
		p.pendingEnded = true
	}
	p.mu.Unlock()

	if eng != nil && !eng.Paused() {
		eng.Pause()
	}

	p.bus.Emit(playkit.EventEnded, nil)

	// with pending ads the PLAYBACK_ENDED finalization waits for the
	// ALL_ADS_COMPLETED signal instead
	if !adsPending {
		p.finalizeEnded(gen)
	}
}

// finalizeEnded emits PLAYBACK_ENDED after every end listener had its
// turn, then either loops back to time zero or parks the state machine
// in its terminal ended state until the next reset.
func (p *Player) finalizeEnded(gen int) {
	p.mu.Lock()
	if p.flags.destroyed || gen != p.generation {
		p.mu.Unlock()
		return
	}
	loop := p.cfg.Playback.Loop
	eng := p.eng
	if !loop {
		p.flags.playbackEnded = true
	}
	p.mu.Unlock()

	p.bus.Emit(playkit.EventPlaybackEnded, nil)

	if loop && eng != nil {
		eng.SetCurrentTime(0)
		if err := eng.Play(); err != nil {
			p.log.WithError(err).Warn("failed restarting looped playback")
		}
	}
}

func (p *Player) onTimeUpdate(gen int, payload interface{}) {
	if !p.generationAlive(gen) {
		return
	}

	seconds, ok := payload.(float64)
	if !ok {
		p.mu.Lock()
		eng := p.eng
		p.mu.Unlock()
		if eng == nil {
			return
		}
		seconds = eng.CurrentTime()
	}

	if syncer, ok := p.captions.(interface{ SyncCue(float64) }); ok {
		syncer.SyncCue(seconds)
	}

	p.bus.Emit(playkit.EventTimeUpdate, seconds)
}

func (p *Player) onEngineError(gen int, payload interface{}) {
	if !p.generationAlive(gen) {
		return
	}

	switch e := payload.(type) {
	case *playkit.Error:
		p.dispatchError(e)
	case error:
		p.dispatchError(playkit.NewCriticalError(playkit.CategoryEngine,
			playkit.ErrCodeEngineError, "engine reported an error", e))
	default:
		p.dispatchError(playkit.NewCriticalError(playkit.CategoryEngine,
			playkit.ErrCodeEngineError, fmt.Sprintf("engine reported an error: %v", payload), nil))
	}
}

// dispatchError is the single choke point for failure reporting: every
// externally visible failure becomes an error event, and critical ones
// additionally fail the pending readiness gate.
func (p *Player) dispatchError(e *playkit.Error) {
	if e.IsCritical() {
		p.mu.Lock()
		g := p.gate
		p.mu.Unlock()

		if g != nil {
			g.fail(e)
		}
	}

	p.log.WithError(e).WithField("severity", e.Severity.String()).Warn("playback error")
	p.bus.Emit(playkit.EventError, e)
}

// Reset returns the player to its pre-media state. Calling it while
// already reset is a no-op: no collaborator resets run and no
// PLAYER_RESET is emitted. Safe to call before any engine exists.
func (p *Player) Reset() {
	p.mu.Lock()
	if p.flags.reset || p.flags.destroyed {
		p.mu.Unlock()
		return
	}

	eng := p.eng
	p.detachEngineLocked()
	// invalidate in-flight loads so a pre-reset completion cannot
	// repopulate the player
	p.generation++
	p.tracks = nil
	p.pendingVideo = nil
	p.lastDefaultText = nil
	p.userAudioLang = ""
	p.userTextLang = ""
	p.sourceLoaded = false
	p.loading = false
	p.pendingEnded = false
	p.flags = initialFlags()
	p.flags.reset = true
	oldGate := p.gate
	p.gate = newGate()
	p.mu.Unlock()

	// release anyone awaiting the superseded gate
	oldGate.fail(fmt.Errorf("player was reset"))

	if eng != nil {
		eng.Pause()
		eng.Reset()
	}
	if p.captions != nil {
		p.captions.Reset()
	}
	p.plugins.Reset()

	p.bus.Emit(playkit.EventPlayerReset, nil)
}

// Destroy tears the player down permanently: collaborators in
// dependency order, then the engine, then the listeners. Every later
// public call is a safe no-op.
func (p *Player) Destroy() {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}
	p.flags.destroyed = true

	eng := p.eng
	p.eng = nil
	p.detachEngineLocked()
	for _, off := range p.capDetach {
		off()
	}
	p.capDetach = nil
	p.tracks = nil
	p.selected = nil
	p.pendingVideo = nil
	g := p.gate
	p.mu.Unlock()

	if g != nil {
		g.fail(fmt.Errorf("player was destroyed"))
	}

	if p.captions != nil {
		p.captions.Destroy()
	}
	p.plugins.Destroy()
	if eng != nil {
		eng.Destroy()
	}

	p.bus.Emit(playkit.EventPlayerDestroy, nil)
	p.bus.RemoveAll()
}

// NotifyResize signals a fullscreen/resize change so cue positioning
// can be refreshed (debounced).
func (p *Player) NotifyResize() {
	if p.capMgr != nil {
		p.capMgr.HandleResize()
	}
}

// SelectedSource returns a copy of the currently bound source, if any.
func (p *Player) SelectedSource() *playkit.Source {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.selected == nil {
		return nil
	}
	src := *p.selected
	return &src
}

func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	eng := p.eng
	p.mu.Unlock()

	if eng == nil {
		return 0
	}
	return eng.CurrentTime()
}

// SetCurrentTime seeks, silently clamping out-of-range positions into
// the valid window.
func (p *Player) SetCurrentTime(seconds float64) {
	p.mu.Lock()
	eng := p.eng
	destroyed := p.flags.destroyed
	p.mu.Unlock()

	if eng == nil || destroyed {
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	if d := eng.Duration(); d > 0 && seconds > d {
		seconds = d
	}
	eng.SetCurrentTime(seconds)
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	eng := p.eng
	p.mu.Unlock()

	if eng == nil {
		return 0
	}
	return eng.Duration()
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	eng := p.eng
	attrs := p.attrs
	cfg := p.cfg
	p.mu.Unlock()

	if eng != nil {
		return eng.Volume()
	}
	if attrs.volume != nil {
		return *attrs.volume
	}
	return cfg.Playback.Volume
}

// SetVolume clamps into [0, 1] and caches the value as user intent for
// future engine bindings. Out-of-range values are never an error.
func (p *Player) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}
	p.attrs.volume = &volume
	eng := p.eng
	p.mu.Unlock()

	if eng != nil {
		eng.SetVolume(volume)
	}
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	eng := p.eng
	attrs := p.attrs
	cfg := p.cfg
	p.mu.Unlock()

	if eng != nil {
		return eng.Muted()
	}
	if attrs.muted != nil {
		return *attrs.muted
	}
	return cfg.Playback.Muted
}

func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}
	p.attrs.muted = &muted
	eng := p.eng
	p.mu.Unlock()

	if eng != nil {
		eng.SetMuted(muted)
	}
}

func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	eng := p.eng
	attrs := p.attrs
	p.mu.Unlock()

	if eng != nil {
		return eng.PlaybackRate()
	}
	if attrs.rate != nil {
		return *attrs.rate
	}
	return 1
}

// SetPlaybackRate ignores rates outside the configured set; valid rates
// are cached and re-applied across engine swaps.
func (p *Player) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	if p.flags.destroyed {
		p.mu.Unlock()
		return
	}

	if rates := p.cfg.Playback.PlaybackRates; len(rates) > 0 {
		valid := false
		for _, r := range rates {
			if r == rate {
				valid = true
				break
			}
		}
		if !valid {
			p.mu.Unlock()
			return
		}
	}

	p.attrs.rate = &rate
	eng := p.eng
	p.mu.Unlock()

	if eng != nil {
		eng.SetPlaybackRate(rate)
	}
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	eng := p.eng
	p.mu.Unlock()

	if eng == nil {
		return true
	}
	return eng.Paused()
}

func (p *Player) IsLive() bool {
	p.mu.Lock()
	eng := p.eng
	streamType := p.streamType
	p.mu.Unlock()

	if streamType == playkit.StreamTypeLive {
		return true
	}
	return eng != nil && eng.IsLive()
}
