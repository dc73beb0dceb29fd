package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/engine"
)

type fakeFactory struct {
	id      string
	canPlay func(source playkit.Source, preferNative bool, drm playkit.DRMConfig) bool
}

func (f *fakeFactory) ID() string { return f.id }

func (f *fakeFactory) CanPlaySource(source playkit.Source, preferNative bool, drm playkit.DRMConfig) bool {
	if f.canPlay == nil {
		return true
	}
	return f.canPlay(source, preferNative, drm)
}

func (f *fakeFactory) New(playkit.EngineOptions) (playkit.Engine, error) {
	return nil, nil
}

func testConfig() *playkit.Config {
	return &playkit.Config{
		Sources: playkit.SourcesConfig{
			HLS:  []playkit.Source{{Format: playkit.FormatHLS, URL: "https://example.com/a.m3u8"}},
			Dash: []playkit.Source{{Format: playkit.FormatDash, URL: "https://example.com/a.mpd"}},
		},
		Playback: playkit.PlaybackConfig{
			StreamPriority: []playkit.PriorityEntry{
				{Engine: "alpha", Format: playkit.FormatHLS},
				{Engine: "beta", Format: playkit.FormatDash},
			},
		},
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{id: "alpha"}))

	err := r.Register(&fakeFactory{id: "alpha"})
	require.Error(t, err)

	assert.Equal(t, []string{"alpha"}, r.IDs())
}

func TestSelectFirstMatchWins(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{id: "alpha"}))
	require.NoError(t, r.Register(&fakeFactory{id: "beta"}))

	sel, err := engine.SelectSource(r, testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, "alpha", sel.EngineID)
	assert.Equal(t, playkit.FormatHLS, sel.Format)
	assert.Equal(t, "https://example.com/a.m3u8", sel.Source.URL)
	assert.Equal(t, playkit.StreamTypeVOD, sel.StreamType)
}

func TestSelectSkipsRefusingEngine(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{
		id:      "alpha",
		canPlay: func(playkit.Source, bool, playkit.DRMConfig) bool { return false },
	}))
	require.NoError(t, r.Register(&fakeFactory{id: "beta"}))

	sel, err := engine.SelectSource(r, testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, "beta", sel.EngineID)
	assert.Equal(t, playkit.FormatDash, sel.Format)
}

func TestSelectSkipsUnregisteredEngine(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{id: "beta"}))

	sel, err := engine.SelectSource(r, testConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, "beta", sel.EngineID)
}

func TestSelectSkipsEmptyFormatBucket(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{id: "alpha"}))
	require.NoError(t, r.Register(&fakeFactory{id: "beta"}))

	cfg := testConfig()
	cfg.Sources.HLS = nil

	sel, err := engine.SelectSource(r, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, "beta", sel.EngineID)
}

func TestSelectNoEngineFound(t *testing.T) {
	r := engine.NewRegistry()

	_, err := engine.SelectSource(r, testConfig(), nil)
	assert.ErrorIs(t, err, engine.ErrNoEngineFound)
}

func TestSelectPassesPreferNative(t *testing.T) {
	var gotPreferNative bool
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{
		id: "alpha",
		canPlay: func(_ playkit.Source, preferNative bool, _ playkit.DRMConfig) bool {
			gotPreferNative = preferNative
			return true
		},
	}))

	cfg := testConfig()
	cfg.Playback.PreferNative = map[string]bool{"hls": true}

	_, err := engine.SelectSource(r, cfg, nil)
	require.NoError(t, err)

	assert.True(t, gotPreferNative)
}

func TestSelectLiveStreamType(t *testing.T) {
	r := engine.NewRegistry()
	require.NoError(t, r.Register(&fakeFactory{id: "alpha"}))

	cfg := testConfig()
	cfg.Sources.Type = playkit.StreamTypeLive

	sel, err := engine.SelectSource(r, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, playkit.StreamTypeLive, sel.StreamType)
}
