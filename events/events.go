// Package events provides the typed publish/subscribe primitive every
// playkit component communicates through. Dispatch is synchronous and
// strictly FIFO by registration order per event name.
package events

import "sync"

// Event is a single bus occurrence. Payload is event-specific and may
// be nil.
type Event struct {
	Name    string
	Payload interface{}
}

type Handler func(Event)

type listener struct {
	id   uint64
	name string
	once bool
	fn   Handler
}

// Bus is a synchronous event dispatcher. It is safe for concurrent use,
// handlers may register and remove listeners from within a dispatch.
type Bus struct {
	mu        sync.Mutex
	nextId    uint64
	listeners map[string][]*listener
}

func NewBus() *Bus {
	return &Bus{listeners: map[string][]*listener{}}
}

// On registers fn for the given event name and returns a detach
// function. Detaching twice is harmless.
func (b *Bus) On(name string, fn Handler) func() {
	return b.add(name, fn, false)
}

// Once registers fn to run for the next occurrence only. The listener
// is removed before fn is invoked, so re-emitting from within the
// handler cannot trigger it again.
func (b *Bus) Once(name string, fn Handler) func() {
	return b.add(name, fn, true)
}

func (b *Bus) add(name string, fn Handler, once bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextId++
	l := &listener{id: b.nextId, name: name, once: once, fn: fn}
	b.listeners[name] = append(b.listeners[name], l)

	id := l.id
	return func() { b.remove(name, id) }
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.listeners[name]
	for i, l := range list {
		if l.id == id {
			b.listeners[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit dispatches the event synchronously to all listeners registered
// for its name, in registration order. The listener set is snapshotted
// first, so handlers added during dispatch only see later events.
func (b *Bus) Emit(name string, payload interface{}) {
	b.mu.Lock()
	list := b.listeners[name]
	snapshot := make([]*listener, len(list))
	copy(snapshot, list)

	// drop once-listeners before invoking them so they fire exactly once
	kept := list[:0:0]
	for _, l := range list {
		if !l.once {
			kept = append(kept, l)
		}
	}
	b.listeners[name] = kept
	b.mu.Unlock()

	ev := Event{Name: name, Payload: payload}
	for _, l := range snapshot {
		if !l.once && !b.alive(name, l.id) {
			continue
		}

		l.fn(ev)
	}
}

func (b *Bus) alive(name string, id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, l := range b.listeners[name] {
		if l.id == id {
			return true
		}
	}
	return false
}

// RemoveAll drops every listener for every event name.
func (b *Bus) RemoveAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = map[string][]*listener{}
}

// ListenerCount returns the number of listeners currently registered
// for the given event name.
func (b *Bus) ListenerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.listeners[name])
}
