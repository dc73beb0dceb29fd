package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eyzhub/playkit-go/events"
)

func TestEmitOrder(t *testing.T) {
	bus := events.NewBus()

	var got []int
	bus.On("tick", func(events.Event) { got = append(got, 1) })
	bus.On("tick", func(events.Event) { got = append(got, 2) })
	bus.On("tick", func(events.Event) { got = append(got, 3) })

	bus.Emit("tick", nil)

	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestEmitPayload(t *testing.T) {
	bus := events.NewBus()

	var got events.Event
	bus.On("seek", func(ev events.Event) { got = ev })

	bus.Emit("seek", 12.5)

	if got.Name != "seek" {
		t.Fatalf("event name = %q, wanted %q", got.Name, "seek")
	} else if got.Payload != 12.5 {
		t.Fatalf("event payload = %v, wanted 12.5", got.Payload)
	}
}

func TestOnceFiresExactlyOnce(t *testing.T) {
	bus := events.NewBus()

	count := 0
	bus.Once("tick", func(events.Event) { count++ })

	bus.Emit("tick", nil)
	bus.Emit("tick", nil)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.ListenerCount("tick"))
}

func TestOnceReentrantEmit(t *testing.T) {
	bus := events.NewBus()

	count := 0
	bus.Once("tick", func(events.Event) {
		count++
		// the listener is already removed, this must not recurse
		bus.Emit("tick", nil)
	})

	bus.Emit("tick", nil)

	assert.Equal(t, 1, count)
}

func TestDetach(t *testing.T) {
	bus := events.NewBus()

	count := 0
	off := bus.On("tick", func(events.Event) { count++ })

	bus.Emit("tick", nil)
	off()
	bus.Emit("tick", nil)

	// detaching twice is harmless
	off()

	assert.Equal(t, 1, count)
}

func TestDetachDuringDispatch(t *testing.T) {
	bus := events.NewBus()

	var offSecond func()
	var got []int
	bus.On("tick", func(events.Event) {
		got = append(got, 1)
		offSecond()
	})
	offSecond = bus.On("tick", func(events.Event) { got = append(got, 2) })

	bus.Emit("tick", nil)

	// the second listener was removed before its turn in the snapshot
	assert.Equal(t, []int{1}, got)
}

func TestAddDuringDispatch(t *testing.T) {
	bus := events.NewBus()

	var got []int
	bus.On("tick", func(events.Event) {
		got = append(got, 1)
		bus.On("tick", func(events.Event) { got = append(got, 2) })
	})

	bus.Emit("tick", nil)
	assert.Equal(t, []int{1}, got)

	bus.Emit("tick", nil)
	assert.Equal(t, []int{1, 1, 2}, got)
}

func TestRemoveAll(t *testing.T) {
	bus := events.NewBus()

	count := 0
	bus.On("a", func(events.Event) { count++ })
	bus.On("b", func(events.Event) { count++ })

	bus.RemoveAll()
	bus.Emit("a", nil)
	bus.Emit("b", nil)

	assert.Equal(t, 0, count)
}
