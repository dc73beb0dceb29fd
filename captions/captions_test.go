package captions_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/captions"
	"github.com/eyzhub/playkit-go/events"
)

const testVTT = `WEBVTT

00:00.000 --> 00:02.000
first

00:03.000 --> 00:05.000
second
`

func nativeTracks() []playkit.Track {
	return []playkit.Track{
		{Kind: playkit.TrackKindVideo, Index: 0, Active: true},
		{Kind: playkit.TrackKindText, Index: 0, Language: "en", Active: true},
	}
}

func TestExternalTracksIndexedAfterNative(t *testing.T) {
	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{
			{URL: "https://example.com/fr.vtt", Language: "fr"},
			{URL: "https://example.com/de.vtt", Language: "de", Label: "Deutsch"},
		},
	})

	tracks := m.GetExternalTracks(nativeTracks())
	require.Len(t, tracks, 2)

	assert.Equal(t, 1, tracks[0].Index)
	assert.Equal(t, "fr", tracks[0].Language)
	assert.Equal(t, "fr", tracks[0].Label) // label falls back to language
	assert.True(t, tracks[0].External)

	assert.Equal(t, 2, tracks[1].Index)
	assert.Equal(t, "Deutsch", tracks[1].Label)
}

func TestSelectTextTrackFetchesAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testVTT))
	}))
	defer srv.Close()

	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: srv.URL, Language: "fr"}},
	})

	tracks := m.GetExternalTracks(nativeTracks())
	require.Len(t, tracks, 1)

	var changed []playkit.Track
	m.Events().On(playkit.EventTextTrackChanged, func(ev events.Event) {
		changed = append(changed, ev.Payload.(playkit.Track))
	})

	require.NoError(t, m.SelectTextTrack(tracks[0]))
	require.Len(t, changed, 1)
	assert.Equal(t, tracks[0].Index, changed[0].Index)
}

func TestSelectTextTrackUnknownIndex(t *testing.T) {
	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: "https://example.com/fr.vtt", Language: "fr"}},
	})
	m.GetExternalTracks(nativeTracks())

	err := m.SelectTextTrack(playkit.Track{Kind: playkit.TrackKindText, Index: 9})
	assert.Error(t, err)
}

func TestSyncCueEmitsOnChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testVTT))
	}))
	defer srv.Close()

	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: srv.URL, Language: "fr"}},
	})
	tracks := m.GetExternalTracks(nil)
	require.NoError(t, m.SelectTextTrack(tracks[0]))

	var payloads []interface{}
	m.Events().On(playkit.EventCueChanged, func(ev events.Event) {
		payloads = append(payloads, ev.Payload)
	})

	m.SyncCue(0.5) // enters first cue
	m.SyncCue(1.0) // same cue, no event
	m.SyncCue(2.5) // gap, cue cleared
	m.SyncCue(3.5) // second cue

	require.Len(t, payloads, 3)
	assert.Equal(t, "first", payloads[0].(captions.Cue).Text)
	assert.Nil(t, payloads[1])
	assert.Equal(t, "second", payloads[2].(captions.Cue).Text)
}

func TestSyncCueInactiveNoEvents(t *testing.T) {
	m := captions.NewManager(&captions.Options{})

	count := 0
	m.Events().On(playkit.EventCueChanged, func(events.Event) { count++ })

	m.SyncCue(1)
	assert.Equal(t, 0, count)
}

func TestResetKeepsSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testVTT))
	}))
	defer srv.Close()

	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: srv.URL, Language: "fr"}},
	})
	tracks := m.GetExternalTracks(nil)
	require.NoError(t, m.SelectTextTrack(tracks[0]))

	m.Reset()

	// still selectable after reset
	require.NoError(t, m.SelectTextTrack(tracks[0]))
}

func TestHandleResizeAfterDestroyStaysSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(testVTT))
	}))
	defer srv.Close()

	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: srv.URL, Language: "fr"}},
	})
	tracks := m.GetExternalTracks(nil)
	require.NoError(t, m.SelectTextTrack(tracks[0]))
	m.SyncCue(0.5)

	emitted := make(chan struct{}, 1)
	m.Events().On(playkit.EventCueChanged, func(events.Event) {
		select {
		case emitted <- struct{}{}:
		default:
		}
	})

	m.Destroy()
	m.HandleResize()

	select {
	case <-emitted:
		t.Fatalf("cue re-dispatched after destroy")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDestroyedManagerRefusesSelection(t *testing.T) {
	m := captions.NewManager(&captions.Options{
		Sources: []playkit.CaptionSource{{URL: "https://example.com/fr.vtt", Language: "fr"}},
	})
	tracks := m.GetExternalTracks(nil)

	m.Destroy()

	err := m.SelectTextTrack(tracks[0])
	assert.Error(t, err)
}
