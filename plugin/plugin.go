// Package plugin implements named-plugin loading and lifecycle. Plugins
// hook into the player through the event bus and may contribute
// middleware to the action chain.
package plugin

import (
	"fmt"
	"sync"

	playkit "github.com/eyzhub/playkit-go"
	"github.com/eyzhub/playkit-go/events"
	"github.com/eyzhub/playkit-go/middleware"
)

// Host is the surface a plugin sees of the player it is loaded into.
type Host interface {
	Events() *events.Bus
	Config() *playkit.Config
}

// Plugin is one loaded named plugin instance.
type Plugin interface {
	Name() string
	UpdateConfig(cfg map[string]interface{})
	Reset()
	Destroy()
}

// MiddlewareProvider is implemented by plugins that want to intercept
// load/play/pause. The middleware is installed under the plugin's name,
// so a plugin named "bumper" is pinned to the end of the chain.
type MiddlewareProvider interface {
	Middleware() middleware.Middleware
}

// Factory builds a plugin instance for a host with its config section.
type Factory func(host Host, log playkit.Logger, cfg map[string]interface{}) (Plugin, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a plugin factory available under a name. Plugin
// packages typically call this from an init function.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[name] = factory
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[name]
	return f, ok
}

// Manager owns the plugins loaded into one player.
type Manager struct {
	log  playkit.Logger
	host Host

	mu      sync.Mutex
	plugins map[string]Plugin
	order   []string
}

func NewManager(log playkit.Logger, host Host) *Manager {
	if log == nil {
		log = &playkit.NullLogger{}
	}

	return &Manager{log: log, host: host, plugins: map[string]Plugin{}}
}

// Load instantiates the named plugin with its config section. A failure
// is local to that plugin: the error is returned for reporting and
// other plugins are unaffected.
func (m *Manager) Load(name string, cfg map[string]interface{}) error {
	factory, ok := lookup(name)
	if !ok {
		return fmt.Errorf("plugin %q is not registered", name)
	}

	m.mu.Lock()
	if _, loaded := m.plugins[name]; loaded {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	p, err := factory(m.host, m.log.WithField("plugin", name), cfg)
	if err != nil {
		return fmt.Errorf("failed loading plugin %q: %w", name, err)
	}

	m.mu.Lock()
	if _, loaded := m.plugins[name]; loaded {
		// lost a concurrent load of the same plugin
		m.mu.Unlock()
		p.Destroy()
		return nil
	}
	m.plugins[name] = p
	m.order = append(m.order, name)
	m.mu.Unlock()

	m.log.WithField("plugin", name).Debugf("plugin loaded")
	return nil
}

// Get returns the loaded plugin by name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.plugins[name]
	return p, ok
}

// UpdateConfig pushes a new config section to an already loaded plugin.
func (m *Manager) UpdateConfig(name string, cfg map[string]interface{}) {
	if p, ok := m.Get(name); ok {
		p.UpdateConfig(cfg)
	}
}

// NamedMiddleware couples a plugin-contributed middleware with the
// plugin name it was installed under.
type NamedMiddleware struct {
	Name       string
	Middleware middleware.Middleware
}

// Middlewares returns the middlewares contributed by loaded plugins, in
// load order.
func (m *Manager) Middlewares() []NamedMiddleware {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []NamedMiddleware
	for _, name := range m.order {
		if provider, ok := m.plugins[name].(MiddlewareProvider); ok {
			out = append(out, NamedMiddleware{Name: name, Middleware: provider.Middleware()})
		}
	}
	return out
}

// Reset resets every plugin in load order.
func (m *Manager) Reset() {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	plugins := m.plugins
	m.mu.Unlock()

	for _, name := range order {
		plugins[name].Reset()
	}
}

// Destroy destroys every plugin and forgets them.
func (m *Manager) Destroy() {
	m.mu.Lock()
	order := append([]string(nil), m.order...)
	plugins := m.plugins
	m.plugins = map[string]Plugin{}
	m.order = nil
	m.mu.Unlock()

	for _, name := range order {
		plugins[name].Destroy()
	}
}
