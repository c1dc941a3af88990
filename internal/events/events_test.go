package events

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSequenceNumbers(t *testing.T) {
	l := NewLog()
	for i := 1; i <= 5; i++ {
		ev := l.Append(GameEvent{Type: EventGameStateUpdated})
		assert.Equal(t, uint64(i), ev.SequenceNumber)
		assert.NotEqual(t, uuid.Nil, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
	}
	require.Equal(t, 5, l.Len())

	evs := l.Events()
	for i, ev := range evs {
		assert.Equal(t, uint64(i+1), ev.SequenceNumber, "log order must match sequence order")
	}
}

func TestLogEventsReturnsStablePrefix(t *testing.T) {
	l := NewLog()
	l.Append(GameEvent{Type: EventPlayerJoined})
	snapshot := l.Events()
	l.Append(GameEvent{Type: EventPlayerLeft})

	require.Len(t, snapshot, 1)
	assert.Equal(t, EventPlayerJoined, snapshot[0].Type)
}

func TestLogConcurrentAppends(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(GameEvent{Type: EventPlayerActed})
		}()
	}
	wg.Wait()

	evs := l.Events()
	require.Len(t, evs, n)
	seen := map[uint64]bool{}
	for _, ev := range evs {
		assert.False(t, seen[ev.SequenceNumber], "duplicate sequence number %d", ev.SequenceNumber)
		seen[ev.SequenceNumber] = true
	}
	for i := uint64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing sequence number %d", i)
	}
}

func TestNotifierEmitBroadcastsAndLogs(t *testing.T) {
	n := NewNotifier("room-1")
	var got []GameEvent
	n.BroadcastFn = func(ev GameEvent) { got = append(got, ev) }

	n.Emit(GameEvent{Type: EventBettingPhaseStarted, Betting: &BettingPayload{RoomID: "room-1"}})
	n.Emit(GameEvent{Type: EventGameStateUpdated, State: &RoomState{RoomID: "room-1"}})

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].SequenceNumber)
	assert.Equal(t, uint64(2), got[1].SequenceNumber)
	assert.Equal(t, 2, n.Log.Len())
}

func TestNotifierEmitToSkipsLog(t *testing.T) {
	n := NewNotifier("room-1")
	target := uuid.New()
	var gotPlayer uuid.UUID
	var gotEvent GameEvent
	n.BroadcastToPlayerFn = func(playerID uuid.UUID, ev GameEvent) {
		gotPlayer = playerID
		gotEvent = ev
	}

	n.EmitTo(target, GameEvent{Type: EventErrorOccurred, Error: &ErrorPayload{Message: "not your turn"}})

	assert.Equal(t, target, gotPlayer)
	assert.Equal(t, EventErrorOccurred, gotEvent.Type)
	assert.Equal(t, 0, n.Log.Len(), "errors are not state-changing and stay out of the log")
}
