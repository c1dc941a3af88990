// Package events holds the per-room append-only event log and the notifier
// that fans events out to connected clients and the Redis audit queue.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/cache"
	"github.com/dankraus/sabacc-online-sub000/internal/engine"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// GameEventType identifies one outbound event variant.
type GameEventType string

const (
	EventGameStateUpdated      GameEventType = "gameStateUpdated"
	EventPlayerJoined          GameEventType = "playerJoined"
	EventPlayerLeft            GameEventType = "playerLeft"
	EventErrorOccurred         GameEventType = "errorOccurred"
	EventBettingPhaseStarted   GameEventType = "bettingPhaseStarted"
	EventPlayerActed           GameEventType = "playerActed"
	EventBettingPhaseCompleted GameEventType = "bettingPhaseCompleted"
	EventDiceRolled            GameEventType = "diceRolled"
	EventCardsSelected         GameEventType = "cardsSelected"
	EventCardsImproved         GameEventType = "cardsImproved"
	EventRoundEnded            GameEventType = "roundEnded"
	EventGameEnded             GameEventType = "gameEnded"
)

// PlayerState is a player's public view inside a RoomState snapshot.
type PlayerState struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Chips         int                  `json:"chips"`
	HandSize      int                  `json:"handSize"`
	SelectedCards []engine.Card        `json:"selectedCards"`
	IsActive      bool                 `json:"isActive"`
	HasActed      bool                 `json:"hasActed"`
	BettingAction models.BettingAction `json:"bettingAction,omitempty"`
	Connected     bool                 `json:"connected"`
}

// RoomState is the public snapshot broadcast with every gameStateUpdated.
type RoomState struct {
	RoomID        string        `json:"roomId"`
	Status        string        `json:"status"`
	Phase         string        `json:"phase"`
	Pot           int           `json:"pot"`
	DeckSize      int           `json:"deckSize"`
	RoundNumber   int           `json:"roundNumber"`
	DealerIndex   int           `json:"dealerIndex"`
	CurrentPlayer uuid.UUID     `json:"currentPlayer,omitempty"`
	TargetNumber  *int          `json:"targetNumber,omitempty"`
	PreferredSuit string        `json:"preferredSuit,omitempty"`
	HostID        uuid.UUID     `json:"hostId,omitempty"`
	Players       []PlayerState `json:"players"`
}

// JoinedPayload accompanies playerJoined.
type JoinedPayload struct {
	PlayerID uuid.UUID `json:"playerId"`
	Name     string    `json:"name"`
	Chips    int       `json:"chips"`
}

// LeftPayload accompanies playerLeft.
type LeftPayload struct {
	Name string `json:"name"`
}

// ErrorPayload accompanies errorOccurred.
type ErrorPayload struct {
	Message string `json:"message"`
}

// BettingPayload accompanies bettingPhaseStarted / bettingPhaseCompleted.
type BettingPayload struct {
	RoomID string `json:"roomId"`
}

// ActedPayload accompanies playerActed.
type ActedPayload struct {
	PlayerID uuid.UUID            `json:"playerId"`
	Action   models.BettingAction `json:"action"`
}

// DicePayload accompanies diceRolled.
type DicePayload struct {
	RoomID        string          `json:"roomId"`
	DiceRoll      engine.DiceRoll `json:"diceRoll"`
	TargetNumber  int             `json:"targetNumber"`
	PreferredSuit string          `json:"preferredSuit"`
}

// CardsPayload accompanies cardsSelected / cardsImproved.
type CardsPayload struct {
	RoomID   string    `json:"roomId"`
	PlayerID uuid.UUID `json:"playerId"`
}

// RoundEndedPayload accompanies roundEnded. When every player folded out
// of the round, PotCarried is set, the winner fields are zero, and Pot is
// the amount rolling into the next round.
type RoundEndedPayload struct {
	WinnerID       uuid.UUID `json:"winnerId"`
	WinnerName     string    `json:"winnerName"`
	Pot            int       `json:"pot"`
	TiebreakerUsed bool      `json:"tiebreakerUsed"`
	PotCarried     bool      `json:"potCarried,omitempty"`
}

// GameEndedPayload accompanies gameEnded.
type GameEndedPayload struct {
	WinnerID   uuid.UUID      `json:"winnerId"`
	WinnerName string         `json:"winnerName"`
	FinalChips map[string]int `json:"finalChips"`
	AllPlayers []PlayerState  `json:"allPlayers"`
}

// GameEvent is one entry of a room's event log. Exactly one payload pointer
// matching Type is set; consumers can switch on Type exhaustively.
type GameEvent struct {
	ID             uuid.UUID     `json:"id"`
	Type           GameEventType `json:"type"`
	Timestamp      time.Time     `json:"timestamp"`
	SequenceNumber uint64        `json:"sequenceNumber"`
	PlayerID       uuid.UUID     `json:"playerId,omitempty"`

	State      *RoomState         `json:"state,omitempty"`
	Joined     *JoinedPayload     `json:"joined,omitempty"`
	Left       *LeftPayload       `json:"left,omitempty"`
	Error      *ErrorPayload      `json:"error,omitempty"`
	Betting    *BettingPayload    `json:"betting,omitempty"`
	Acted      *ActedPayload      `json:"acted,omitempty"`
	Dice       *DicePayload       `json:"dice,omitempty"`
	Cards      *CardsPayload      `json:"cards,omitempty"`
	RoundEnded *RoundEndedPayload `json:"roundEnded,omitempty"`
	GameEnded  *GameEndedPayload  `json:"gameEnded,omitempty"`
}

// payload returns the populated payload variant for audit publication.
func (ev *GameEvent) payload() interface{} {
	switch ev.Type {
	case EventGameStateUpdated:
		return ev.State
	case EventPlayerJoined:
		return ev.Joined
	case EventPlayerLeft:
		return ev.Left
	case EventErrorOccurred:
		return ev.Error
	case EventBettingPhaseStarted, EventBettingPhaseCompleted:
		return ev.Betting
	case EventPlayerActed:
		return ev.Acted
	case EventDiceRolled:
		return ev.Dice
	case EventCardsSelected, EventCardsImproved:
		return ev.Cards
	case EventRoundEnded:
		return ev.RoundEnded
	case EventGameEnded:
		return ev.GameEnded
	}
	return nil
}

// Log is a room's append-only event record. Sequence numbers are strictly
// increasing per room, starting at 1.
type Log struct {
	mu     sync.Mutex
	seq    uint64
	events []GameEvent
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append stamps id, timestamp and the next sequence number onto ev and
// records it. The stamped event is returned.
func (l *Log) Append(ev GameEvent) GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	ev.ID = uuid.New()
	ev.SequenceNumber = l.seq
	ev.Timestamp = time.Now()
	l.events = append(l.events, ev)
	return ev
}

// Events returns a copy of the log contents; the copy is a stable prefix
// even while appends continue.
func (l *Log) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Notifier appends room events to the log, fans them out through the
// transport callbacks, and mirrors them to the Redis audit queue.
type Notifier struct {
	RoomID string
	Log    *Log

	// BroadcastFn delivers an event to every connected client of the room.
	BroadcastFn func(ev GameEvent)
	// BroadcastToPlayerFn delivers an event to a single client.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)
}

// NewNotifier builds a notifier with a fresh log for the given room.
func NewNotifier(roomID string) *Notifier {
	return &Notifier{RoomID: roomID, Log: NewLog()}
}

// Emit records a state-changing event and broadcasts it room-wide.
func (n *Notifier) Emit(ev GameEvent) GameEvent {
	stamped := n.Log.Append(ev)
	n.publish(stamped)
	if n.BroadcastFn != nil {
		n.BroadcastFn(stamped)
	}
	return stamped
}

// EmitTo delivers an event to a single recipient. Single-recipient errors
// are not state-changing, so they bypass the log but still reach the
// audit queue.
func (n *Notifier) EmitTo(playerID uuid.UUID, ev GameEvent) {
	ev.ID = uuid.New()
	ev.Timestamp = time.Now()
	ev.PlayerID = playerID
	n.publish(ev)
	if n.BroadcastToPlayerFn != nil {
		n.BroadcastToPlayerFn(playerID, ev)
	}
}

// publish mirrors the event to Redis asynchronously with a short timeout;
// failures are logged and dropped so gameplay never blocks on the audit
// queue.
func (n *Notifier) publish(ev GameEvent) {
	rec := cache.GameEventRecord{
		RoomID:         n.RoomID,
		SequenceNumber: ev.SequenceNumber,
		EventType:      string(ev.Type),
		PlayerID:       ev.PlayerID,
		Payload:        ev.payload(),
		Timestamp:      ev.Timestamp.UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishGameEvent(ctx, rec); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"room": n.RoomID,
				"type": rec.EventType,
				"seq":  rec.SequenceNumber,
			}).Error("failed publishing event to redis")
		}
	}()
}
