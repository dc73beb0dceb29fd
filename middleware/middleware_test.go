package middleware_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyzhub/playkit-go/middleware"
)

type recordingMiddleware struct {
	middleware.Base

	name string
	log  *[]string
}

func (m *recordingMiddleware) Play(next func()) {
	*m.log = append(*m.log, m.name)
	next()
}

type blockingMiddleware struct {
	middleware.Base

	release chan struct{}
}

func (m *blockingMiddleware) Play(next func()) {
	go func() {
		<-m.release
		next()
	}()
}

type droppingMiddleware struct {
	middleware.Base
}

func (m *droppingMiddleware) Play(func()) {}

func TestChainOrder(t *testing.T) {
	var log []string
	c := middleware.NewChain()
	c.Use("a", &recordingMiddleware{name: "a", log: &log})
	c.Use("b", &recordingMiddleware{name: "b", log: &log})

	assert.Equal(t, 2, c.Len())

	done := false
	c.Run(middleware.ActionPlay, func() { done = true })

	require.True(t, done)
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestBumperStaysLast(t *testing.T) {
	var log []string
	c := middleware.NewChain()
	c.Use("a", &recordingMiddleware{name: "a", log: &log})
	c.Use(middleware.BumperName, &recordingMiddleware{name: "bumper", log: &log})
	c.Use("b", &recordingMiddleware{name: "b", log: &log})

	assert.Equal(t, []string{"a", "b", "bumper"}, c.Names())

	c.Run(middleware.ActionPlay, func() {})
	assert.Equal(t, []string{"a", "b", "bumper"}, log)
}

func TestAsyncContinuation(t *testing.T) {
	release := make(chan struct{})
	c := middleware.NewChain()
	c.Use("gate", &blockingMiddleware{release: release})

	done := make(chan struct{})
	c.Run(middleware.ActionPlay, func() { close(done) })

	select {
	case <-done:
		t.Fatalf("terminal ran before the middleware released it")
	default:
	}

	close(release)
	<-done
}

func TestNeverCallingNextBlocksAction(t *testing.T) {
	var log []string
	c := middleware.NewChain()
	c.Use("drop", &droppingMiddleware{})
	c.Use("after", &recordingMiddleware{name: "after", log: &log})

	done := false
	c.Run(middleware.ActionPlay, func() { done = true })

	assert.False(t, done)
	assert.Empty(t, log)
}

func TestBasePassesThroughAllActions(t *testing.T) {
	c := middleware.NewChain()
	c.Use("noop", &middleware.Base{})

	for _, action := range []middleware.Action{middleware.ActionLoad, middleware.ActionPlay, middleware.ActionPause} {
		done := false
		c.Run(action, func() { done = true })
		if !done {
			t.Fatalf("action %s did not reach the terminal", action)
		}
	}
}
