package plugin_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
	"github.com/eyzhub/playkit-go/middleware"
	"github.com/eyzhub/playkit-go/plugin"
)

type testHost struct {
	bus *events.Bus
	cfg *playkit.Config
}

func (h *testHost) Events() *events.Bus     { return h.bus }
func (h *testHost) Config() *playkit.Config { return h.cfg }

func newTestHost() *testHost {
	return &testHost{bus: events.NewBus(), cfg: &playkit.Config{}}
}

type testPlugin struct {
	name string

	configs   []map[string]interface{}
	resets    int
	destroyed int
}

func (p *testPlugin) Name() string { return p.name }

func (p *testPlugin) UpdateConfig(cfg map[string]interface{}) {
	p.configs = append(p.configs, cfg)
}

func (p *testPlugin) Reset()   { p.resets++ }
func (p *testPlugin) Destroy() { p.destroyed++ }

type middlewarePlugin struct {
	testPlugin
}

func (p *middlewarePlugin) Middleware() middleware.Middleware {
	return &middleware.Base{}
}

func register(name string, p plugin.Plugin, err error) {
	plugin.Register(name, func(plugin.Host, playkit.Logger, map[string]interface{}) (plugin.Plugin, error) {
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

func TestLoadAndGet(t *testing.T) {
	p := &testPlugin{name: "stats"}
	register("stats", p, nil)

	m := plugin.NewManager(nil, newTestHost())
	require.NoError(t, m.Load("stats", map[string]interface{}{"interval": 10}))

	got, ok := m.Get("stats")
	require.True(t, ok)
	assert.Equal(t, p, got)

	// loading again is a no-op
	require.NoError(t, m.Load("stats", nil))
}

func TestLoadUnregistered(t *testing.T) {
	m := plugin.NewManager(nil, newTestHost())
	assert.Error(t, m.Load("no-such-plugin", nil))
}

func TestFailureIsolation(t *testing.T) {
	register("broken", nil, fmt.Errorf("boom"))
	ok := &testPlugin{name: "fine"}
	register("fine", ok, nil)

	m := plugin.NewManager(nil, newTestHost())
	assert.Error(t, m.Load("broken", nil))
	require.NoError(t, m.Load("fine", nil))

	_, loaded := m.Get("broken")
	assert.False(t, loaded)
	_, loaded = m.Get("fine")
	assert.True(t, loaded)
}

func TestUpdateConfig(t *testing.T) {
	p := &testPlugin{name: "ima"}
	register("ima", p, nil)

	m := plugin.NewManager(nil, newTestHost())
	require.NoError(t, m.Load("ima", nil))

	m.UpdateConfig("ima", map[string]interface{}{"adTagUrl": "https://ads.example.com"})
	require.Len(t, p.configs, 1)
	assert.Equal(t, "https://ads.example.com", p.configs[0]["adTagUrl"])

	// unknown name is a no-op
	m.UpdateConfig("nope", nil)
}

func TestMiddlewaresInLoadOrder(t *testing.T) {
	register("plain", &testPlugin{name: "plain"}, nil)
	register("bumper", &middlewarePlugin{testPlugin{name: "bumper"}}, nil)
	register("ima", &middlewarePlugin{testPlugin{name: "ima"}}, nil)

	m := plugin.NewManager(nil, newTestHost())
	require.NoError(t, m.Load("bumper", nil))
	require.NoError(t, m.Load("plain", nil))
	require.NoError(t, m.Load("ima", nil))

	mws := m.Middlewares()
	require.Len(t, mws, 2)
	assert.Equal(t, "bumper", mws[0].Name)
	assert.Equal(t, "ima", mws[1].Name)
}

func TestResetAndDestroy(t *testing.T) {
	p := &testPlugin{name: "stats"}
	register("stats", p, nil)

	m := plugin.NewManager(nil, newTestHost())
	require.NoError(t, m.Load("stats", nil))

	m.Reset()
	assert.Equal(t, 1, p.resets)

	m.Destroy()
	assert.Equal(t, 1, p.destroyed)

	_, loaded := m.Get("stats")
	assert.False(t, loaded)
}
