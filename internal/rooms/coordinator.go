// Package rooms maps room ids to live games and fans room events out to the
// websocket connections of the seated players. Rooms are created on first
// join and torn down when the last player leaves.
package rooms

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/game"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrUnknownCommand = errors.New("unknown command")
)

// writeTimeout bounds a single websocket delivery so one stalled client
// cannot hold up the room.
const writeTimeout = 5 * time.Second

// Room pairs one game with the connections of its players.
type Room struct {
	ID       string
	Game     *game.SabaccGame
	Notifier *events.Notifier

	connMu sync.Mutex
	conns  map[uuid.UUID]*websocket.Conn
}

func newRoom(id string, rules game.Rules) *Room {
	r := &Room{
		ID:    id,
		Game:  game.NewSabaccGame(id, rules, 0),
		conns: make(map[uuid.UUID]*websocket.Conn),
	}
	r.Notifier = events.NewNotifier(id)
	r.Notifier.BroadcastFn = r.broadcast
	r.Notifier.BroadcastToPlayerFn = r.sendTo
	r.Game.Notifier = r.Notifier
	return r
}

// broadcast delivers an event to every registered connection. Deliveries
// run concurrently so the room's command path never waits on a socket.
func (r *Room) broadcast(ev events.GameEvent) {
	r.connMu.Lock()
	conns := make(map[uuid.UUID]*websocket.Conn, len(r.conns))
	for id, c := range r.conns {
		conns[id] = c
	}
	r.connMu.Unlock()
	for id, conn := range conns {
		go r.write(id, conn, ev)
	}
}

func (r *Room) sendTo(playerID uuid.UUID, ev events.GameEvent) {
	r.connMu.Lock()
	conn := r.conns[playerID]
	r.connMu.Unlock()
	if conn == nil {
		return
	}
	go r.write(playerID, conn, ev)
}

func (r *Room) write(playerID uuid.UUID, conn *websocket.Conn, ev events.GameEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"room":   r.ID,
			"player": playerID,
			"type":   ev.Type,
		}).Warn("websocket delivery failed")
	}
}

// attach registers a player's connection for event delivery.
func (r *Room) attach(p *models.Player, conn *websocket.Conn) {
	r.Game.Mu.Lock()
	p.Conn = conn
	p.Connected = true
	r.Game.Mu.Unlock()
	if conn == nil {
		return
	}
	r.connMu.Lock()
	r.conns[p.ID] = conn
	r.connMu.Unlock()
}

func (r *Room) detachConn(playerID uuid.UUID) {
	r.connMu.Lock()
	delete(r.conns, playerID)
	r.connMu.Unlock()
}

// Coordinator owns the room registry. Each room's game serializes its own
// commands; the coordinator only guards the registry itself.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rules game.Rules
}

func NewCoordinator(rules game.Rules) *Coordinator {
	return &Coordinator{
		rooms: make(map[string]*Room),
		rules: rules,
	}
}

// Room looks up a live room.
func (c *Coordinator) Room(id string) (*Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[id]
	return r, ok
}

// JoinRoom seats a player, creating the room on first join, and registers
// their connection for event delivery.
func (c *Coordinator) JoinRoom(roomID, name string, conn *websocket.Conn) (*Room, *models.Player, error) {
	c.mu.Lock()
	r, ok := c.rooms[roomID]
	if !ok {
		r = newRoom(roomID, c.rules)
		c.rooms[roomID] = r
		logrus.WithField("room", roomID).Info("room created")
	}
	c.mu.Unlock()

	p, err := r.Game.AddPlayer(name)
	if err != nil {
		return r, nil, err
	}
	r.attach(p, conn)
	return r, p, nil
}

// LeaveRoom unseats a player and destroys the room when it empties, which
// also cancels any pending round reset.
func (c *Coordinator) LeaveRoom(roomID string, playerID uuid.UUID) error {
	r, ok := c.Room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	empty, err := r.Game.RemovePlayer(playerID)
	if err != nil {
		return err
	}
	r.detachConn(playerID)
	if empty {
		r.Game.Destroy()
		c.mu.Lock()
		delete(c.rooms, roomID)
		c.mu.Unlock()
		logrus.WithField("room", roomID).Info("room destroyed")
	}
	return nil
}

// MarkDisconnected flags a dropped connection without unseating the player,
// leaving their seat available for Reconnect.
func (c *Coordinator) MarkDisconnected(roomID string, playerID uuid.UUID) {
	r, ok := c.Room(roomID)
	if !ok {
		return
	}
	r.detachConn(playerID)
	r.Game.Mu.Lock()
	if p := findByID(r.Game.Players, playerID); p != nil {
		p.Connected = false
		p.Conn = nil
	}
	r.Game.Mu.Unlock()
}

// Reconnect re-registers a returning player's connection and replays the
// current state to them.
func (c *Coordinator) Reconnect(roomID string, playerID uuid.UUID, conn *websocket.Conn) (*Room, *models.Player, error) {
	r, ok := c.Room(roomID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	r.Game.Mu.Lock()
	p := findByID(r.Game.Players, playerID)
	if p == nil {
		r.Game.Mu.Unlock()
		return nil, nil, game.ErrPlayerNotFound
	}
	p.Conn = conn
	p.Connected = true
	state := r.Game.Snapshot()
	r.Game.Mu.Unlock()

	if conn != nil {
		r.connMu.Lock()
		r.conns[playerID] = conn
		r.connMu.Unlock()
	}

	r.Notifier.EmitTo(playerID, events.GameEvent{
		Type:  events.EventGameStateUpdated,
		State: state,
	})
	return r, p, nil
}

// Dispatch routes an inbound command to its room. Expected validation
// failures are echoed back to the acting player as errorOccurred and
// returned; fatal errors are only returned.
func (c *Coordinator) Dispatch(cmd models.Command) error {
	r, ok := c.Room(cmd.RoomID)
	if !ok {
		return ErrRoomNotFound
	}

	var err error
	switch cmd.Type {
	case models.CmdStartRound:
		err = r.Game.StartRound(cmd.DealerID)
	case models.CmdRollDice:
		err = r.Game.RollDice()
	case models.CmdSelectCards:
		err = r.Game.SelectCards(cmd.PlayerID, cmd.Indices)
	case models.CmdContinue:
		err = r.Game.ContinuePlaying(cmd.PlayerID)
	case models.CmdFold:
		err = r.Game.Fold(cmd.PlayerID)
	case models.CmdImprove:
		err = r.Game.ImproveCards(cmd.PlayerID, cmd.Indices)
	case models.CmdEndRound:
		err = r.Game.EndRound(false)
	default:
		err = ErrUnknownCommand
	}

	if err != nil && !game.IsFatal(err) && cmd.PlayerID != uuid.Nil {
		r.Notifier.EmitTo(cmd.PlayerID, events.GameEvent{
			Type:  events.EventErrorOccurred,
			Error: &events.ErrorPayload{Message: err.Error()},
		})
	}
	return err
}

// ApplyPhaseTimeout forwards an expired phase deadline to the room.
func (c *Coordinator) ApplyPhaseTimeout(roomID string) error {
	r, ok := c.Room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return r.Game.ApplyPhaseTimeout()
}

// Shutdown destroys every room.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.rooms = make(map[string]*Room)
	c.mu.Unlock()
	for _, r := range rooms {
		r.Game.Destroy()
	}
}

func findByID(players []*models.Player, id uuid.UUID) *models.Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
