package term

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
)

func TestPollEventsStopsWhenDone(t *testing.T) {
	ss := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, ss.Init())
	defer ss.Fini()

	ss.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	ss.InjectKey(tcell.KeyRune, 'b', tcell.ModNone)

	// Nobody reads events, so the pump blocks on its first send.
	events := make(chan tcell.Event)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		pollEvents(ss, events, done)
		close(stopped)
	}()

	close(done)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("event pump still blocked after done was closed")
	}
}

func TestPollEventsClosesOnFini(t *testing.T) {
	ss := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, ss.Init())

	events := make(chan tcell.Event, 1)
	go pollEvents(ss, events, make(chan struct{}))
	ss.Fini()

	select {
	case _, ok := <-events:
		require.False(t, ok, "events is closed once the screen stops")
	case <-time.After(5 * time.Second):
		t.Fatal("event pump did not stop after Fini")
	}
}
