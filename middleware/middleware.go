// Package middleware implements the asynchronous interceptor chain the
// player threads load, play and pause requests through before they
// reach the engine.
package middleware

import "sync"

// Action names the privileged operations a middleware may intercept.
type Action string

const (
	ActionLoad  Action = "load"
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
)

// BumperName is the middleware name that is always kept last in the
// chain regardless of registration order, so the bumper runs
// immediately before the underlying content action.
const BumperName = "bumper"

// Middleware intercepts one of the player actions. Each method must
// eventually invoke next, possibly asynchronously, possibly never: a
// middleware that never calls its continuation permanently blocks the
// action. There is no cancellation primitive.
type Middleware interface {
	Load(next func())
	Play(next func())
	Pause(next func())
}

// Base is a passthrough middleware meant for embedding, so that
// implementations only override the actions they care about.
type Base struct{}

func (Base) Load(next func())  { next() }
func (Base) Play(next func())  { next() }
func (Base) Pause(next func()) { next() }

type entry struct {
	name string
	mw   Middleware
}

// Chain is an ordered middleware list. Insertion is FIFO except for the
// bumper, which is re-pinned to the end after every insertion.
type Chain struct {
	mu      sync.Mutex
	entries []entry
}

func NewChain() *Chain {
	return &Chain{}
}

// Use appends a named middleware, preserving the bumper tie-break.
func (c *Chain) Use(name string, mw Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry{name: name, mw: mw})

	// keep the bumper last
	for i, e := range c.entries {
		if e.name == BumperName && i != len(c.entries)-1 {
			c.entries = append(append(c.entries[:i:i], c.entries[i+1:]...), e)
			break
		}
	}
}

// Len returns the number of installed middlewares.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Names returns the middleware names in invocation order.
func (c *Chain) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Run threads terminal through the chain for the given action. The
// snapshot taken here keeps a run coherent even if middlewares are
// added while continuations are still pending.
func (c *Chain) Run(action Action, terminal func()) {
	c.mu.Lock()
	snapshot := make([]entry, len(c.entries))
	copy(snapshot, c.entries)
	c.mu.Unlock()

	var step func(i int)
	step = func(i int) {
		if i >= len(snapshot) {
			terminal()
			return
		}

		next := func() { step(i + 1) }
		switch action {
		case ActionLoad:
			snapshot[i].mw.Load(next)
		case ActionPlay:
			snapshot[i].mw.Play(next)
		case ActionPause:
			snapshot[i].mw.Pause(next)
		default:
			next()
		}
	}

	step(0)
}
