package player

import "sync"

// ReadyState is the observable state of the readiness gate. Awaiting
// readiness is deliberately decoupled from observing the failure
// reason: Done is closed on either outcome, errors travel on the bus.
type ReadyState int

const (
	ReadyStatePending ReadyState = iota
	ReadyStateReady
	ReadyStateFailed
)

func (s ReadyState) String() string {
	switch s {
	case ReadyStatePending:
		return "pending"
	case ReadyStateReady:
		return "ready"
	case ReadyStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// gate is the single-shot readiness future. A fresh one is created at
// construction and at the start of every reset; it is decided exactly
// once, by the first tracks-changed signal or by a critical error seen
// before that. Later signals are no-ops.
type gate struct {
	mu     sync.Mutex
	state  ReadyState
	reason error
	done   chan struct{}
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

func (g *gate) resolve() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != ReadyStatePending {
		return false
	}

	g.state = ReadyStateReady
	close(g.done)
	return true
}

func (g *gate) fail(reason error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != ReadyStatePending {
		return false
	}

	g.state = ReadyStateFailed
	g.reason = reason
	close(g.done)
	return true
}

func (g *gate) Done() <-chan struct{} {
	return g.done
}

func (g *gate) State() (ReadyState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state, g.reason
}

var closedGateChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
