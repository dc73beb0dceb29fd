package probe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
)

func newTestEngine(t *testing.T, url string) playkit.Engine {
	t.Helper()

	f := &Factory{Client: http.DefaultClient}
	eng, err := f.New(playkit.EngineOptions{
		Source: playkit.Source{Format: playkit.FormatHLS, URL: url},
	})
	require.NoError(t, err)
	return eng
}

func TestCanPlaySource(t *testing.T) {
	f := &Factory{}

	assert.True(t, f.CanPlaySource(playkit.Source{Format: playkit.FormatHLS, URL: "https://example.com/a.m3u8"}, false, nil))
	assert.True(t, f.CanPlaySource(playkit.Source{Format: playkit.FormatProgressive, URL: "https://example.com/a.mp4"}, true, nil))

	// DRM is out of reach for the probe
	assert.False(t, f.CanPlaySource(playkit.Source{Format: playkit.FormatHLS, URL: "https://example.com/a.m3u8"},
		false, playkit.DRMConfig{"widevine": "..."}))
	assert.False(t, f.CanPlaySource(playkit.Source{
		Format: playkit.FormatDash, URL: "https://example.com/a.mpd", DRM: playkit.DRMConfig{"widevine": "..."},
	}, false, nil))

	assert.False(t, f.CanPlaySource(playkit.Source{Format: "unknown", URL: "https://example.com/a"}, false, nil))
	assert.False(t, f.CanPlaySource(playkit.Source{Format: playkit.FormatHLS}, false, nil))
}

func TestLoadDeliversTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	var emitted []string
	for _, name := range []string{playkit.EventLoadedMetadata, playkit.EventLoadedData, playkit.EventTracksChanged} {
		name := name
		eng.Events().On(name, func(events.Event) { emitted = append(emitted, name) })
	}

	res := <-eng.Load(0)
	require.NoError(t, res.Err)
	require.NotEmpty(t, res.Tracks)

	video := playkit.FilterTracks(res.Tracks, playkit.TrackKindVideo)
	audio := playkit.FilterTracks(res.Tracks, playkit.TrackKindAudio)
	assert.Len(t, video, 2)
	assert.Len(t, audio, 1)
	assert.True(t, video[0].Active)

	assert.Contains(t, emitted, playkit.EventLoadedMetadata)
	assert.Contains(t, emitted, playkit.EventTracksChanged)

	assert.Equal(t, defaultDuration, eng.Duration())
}

func TestLoadStartTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(42)
	require.NoError(t, res.Err)
	assert.Equal(t, 42.0, eng.CurrentTime())
}

func TestLoadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(0)
	assert.Error(t, res.Err)
}

func TestPlayBeforeLoadFails(t *testing.T) {
	eng := newTestEngine(t, "https://example.com/a.m3u8")
	defer eng.Destroy()

	assert.Error(t, eng.Play())
	assert.True(t, eng.Paused())
}

func TestPlayPause(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(0)
	require.NoError(t, res.Err)

	var emitted []string
	for _, name := range []string{playkit.EventPlay, playkit.EventPlaying, playkit.EventPause} {
		name := name
		eng.Events().On(name, func(events.Event) { emitted = append(emitted, name) })
	}

	require.NoError(t, eng.Play())
	assert.False(t, eng.Paused())

	eng.Pause()
	assert.True(t, eng.Paused())

	assert.Equal(t, []string{playkit.EventPlay, playkit.EventPlaying, playkit.EventPause}, emitted)
}

func TestSeekClampsAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(0)
	require.NoError(t, res.Err)

	var seeks []float64
	eng.Events().On(playkit.EventSeeked, func(ev events.Event) {
		seeks = append(seeks, ev.Payload.(float64))
	})

	eng.SetCurrentTime(-5)
	assert.Equal(t, 0.0, eng.CurrentTime())

	eng.SetCurrentTime(defaultDuration + 100)
	assert.Equal(t, defaultDuration, eng.CurrentTime())

	assert.Equal(t, []float64{0, defaultDuration}, seeks)
}

func TestSelectTracks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(0)
	require.NoError(t, res.Err)

	var changed playkit.Track
	eng.Events().On(playkit.EventVideoTrackChanged, func(ev events.Event) {
		changed = ev.Payload.(playkit.Track)
	})

	require.NoError(t, eng.SelectVideoTrack(playkit.Track{Kind: playkit.TrackKindVideo, Index: 1}))
	assert.Equal(t, 1, changed.Index)

	assert.Error(t, eng.SelectVideoTrack(playkit.Track{Kind: playkit.TrackKindVideo, Index: 7}))
	assert.Error(t, eng.SelectAudioTrack(playkit.Track{Kind: playkit.TrackKindAudio, Index: 3}))
}

func TestRestoreClearsState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	eng := newTestEngine(t, srv.URL)
	defer eng.Destroy()

	res := <-eng.Load(0)
	require.NoError(t, res.Err)
	eng.SetCurrentTime(30)

	bus := eng.Events()
	eng.Restore(playkit.Source{Format: playkit.FormatHLS, URL: srv.URL + "/other"}, nil)

	// the bus instance survives restore
	assert.Same(t, bus, eng.Events())
	assert.Equal(t, 0.0, eng.CurrentTime())
	assert.True(t, eng.Paused())

	res = <-eng.Load(0)
	require.NoError(t, res.Err)
}

func TestVolumeMutedRate(t *testing.T) {
	eng := newTestEngine(t, "https://example.com/a.m3u8")
	defer eng.Destroy()

	var volumes []float64
	var mutes []bool
	var rates []float64
	eng.Events().On(playkit.EventVolumeChange, func(ev events.Event) { volumes = append(volumes, ev.Payload.(float64)) })
	eng.Events().On(playkit.EventMuteChange, func(ev events.Event) { mutes = append(mutes, ev.Payload.(bool)) })
	eng.Events().On(playkit.EventRateChange, func(ev events.Event) { rates = append(rates, ev.Payload.(float64)) })

	eng.SetVolume(0.5)
	eng.SetVolume(0.5) // unchanged, no event
	eng.SetMuted(true)
	eng.SetPlaybackRate(2)
	eng.SetPlaybackRate(0) // invalid, ignored

	assert.Equal(t, []float64{0.5}, volumes)
	assert.Equal(t, []bool{true}, mutes)
	assert.Equal(t, []float64{2}, rates)
	assert.Equal(t, 2.0, eng.PlaybackRate())
}
