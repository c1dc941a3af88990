package rooms

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/game"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

type eventCapture struct {
	mu       sync.Mutex
	toPlayer map[uuid.UUID][]events.GameEvent
}

func newEventCapture() *eventCapture {
	return &eventCapture{toPlayer: make(map[uuid.UUID][]events.GameEvent)}
}

func (c *eventCapture) fn(playerID uuid.UUID, ev events.GameEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toPlayer[playerID] = append(c.toPlayer[playerID], ev)
}

func (c *eventCapture) lastFor(playerID uuid.UUID) *events.GameEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	evs := c.toPlayer[playerID]
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

func TestJoinCreatesRoomAndLeaveDestroysIt(t *testing.T) {
	c := NewCoordinator(game.DefaultRules())

	room, alice, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "r1", room.ID)
	_, ok := c.Room("r1")
	assert.True(t, ok)

	sameRoom, bob, err := c.JoinRoom("r1", "bob", nil)
	require.NoError(t, err)
	assert.Same(t, room, sameRoom, "second join reuses the room")

	require.NoError(t, c.LeaveRoom("r1", alice.ID))
	_, ok = c.Room("r1")
	assert.True(t, ok, "room survives while seats remain")

	require.NoError(t, c.LeaveRoom("r1", bob.ID))
	_, ok = c.Room("r1")
	assert.False(t, ok, "empty room is destroyed")

	assert.ErrorIs(t, c.LeaveRoom("r1", bob.ID), ErrRoomNotFound)
}

func TestJoinErrorsPropagate(t *testing.T) {
	rules := game.DefaultRules()
	rules.MaxPlayers = 1
	c := NewCoordinator(rules)

	_, _, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)
	_, _, err = c.JoinRoom("r1", "bob", nil)
	assert.ErrorIs(t, err, game.ErrRoomFull)
}

func TestDispatchRoutesCommands(t *testing.T) {
	c := NewCoordinator(game.DefaultRules())
	room, alice, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)
	_, _, err = c.JoinRoom("r1", "bob", nil)
	require.NoError(t, err)

	require.NoError(t, c.Dispatch(models.Command{
		Type:     models.CmdStartRound,
		RoomID:   "r1",
		PlayerID: alice.ID,
	}))
	room.Game.Mu.Lock()
	status := room.Game.Status
	room.Game.Mu.Unlock()
	assert.Equal(t, game.StatusInProgress, status)

	err = c.Dispatch(models.Command{Type: "bogus", RoomID: "r1", PlayerID: alice.ID})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	err = c.Dispatch(models.Command{Type: models.CmdRollDice, RoomID: "nope"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDispatchEchoesErrorToActingPlayer(t *testing.T) {
	c := NewCoordinator(game.DefaultRules())
	room, alice, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)
	capture := newEventCapture()
	room.Notifier.BroadcastToPlayerFn = capture.fn

	err = c.Dispatch(models.Command{
		Type:     models.CmdRollDice,
		RoomID:   "r1",
		PlayerID: alice.ID,
	})
	require.Error(t, err, "dice roll is invalid before the round opens")

	ev := capture.lastFor(alice.ID)
	require.NotNil(t, ev, "validation failure must reach the caller")
	assert.Equal(t, events.EventErrorOccurred, ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, err.Error(), ev.Error.Message)
}

func TestMarkDisconnectedAndReconnect(t *testing.T) {
	c := NewCoordinator(game.DefaultRules())
	room, alice, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)
	capture := newEventCapture()
	room.Notifier.BroadcastToPlayerFn = capture.fn

	c.MarkDisconnected("r1", alice.ID)
	room.Game.Mu.Lock()
	connected := alice.Connected
	room.Game.Mu.Unlock()
	assert.False(t, connected)

	_, p, err := c.Reconnect("r1", alice.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.ID)
	room.Game.Mu.Lock()
	connected = alice.Connected
	room.Game.Mu.Unlock()
	assert.True(t, connected)

	ev := capture.lastFor(alice.ID)
	require.NotNil(t, ev, "reconnect replays the current state")
	assert.Equal(t, events.EventGameStateUpdated, ev.Type)
	require.NotNil(t, ev.State)
	assert.Equal(t, "r1", ev.State.RoomID)

	_, _, err = c.Reconnect("r1", uuid.New(), nil)
	assert.ErrorIs(t, err, game.ErrPlayerNotFound)
}

func TestShutdownDestroysRooms(t *testing.T) {
	c := NewCoordinator(game.DefaultRules())
	room, _, err := c.JoinRoom("r1", "alice", nil)
	require.NoError(t, err)

	c.Shutdown()
	_, ok := c.Room("r1")
	assert.False(t, ok)
	assert.ErrorIs(t, room.Game.StartRound(nil), game.ErrGameEnded)
}
