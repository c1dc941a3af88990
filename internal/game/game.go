// Package game holds the authoritative per-room round engine: the phase
// state machine, the player registry, the betting protocol and the round
// controller. One SabaccGame is one room; its mutex makes every command
// an atomic validate-mutate-emit step.
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/engine"
	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// Status is the room lifecycle state, orthogonal to the phase cycle.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// Rules holds the tunable numbers for a room. The zero value is not
// playable; use DefaultRules.
type Rules struct {
	StartingChips int
	Ante          int
	ContinueCost  int
	HandSize      int
	MinPlayers    int
	MaxPlayers    int

	// RoundEndDelay is how long the round_end summary stays visible
	// before the room returns to setup.
	RoundEndDelay time.Duration
}

func DefaultRules() Rules {
	return Rules{
		StartingChips: 100,
		Ante:          5,
		ContinueCost:  5,
		HandSize:      5,
		MinPlayers:    2,
		MaxPlayers:    8,
		RoundEndDelay: 5 * time.Second,
	}
}

// SabaccGame is the authoritative state for one room. All mutation happens
// under Mu: command handlers take the lock, validate, mutate, emit, and
// release, so clients always observe whole transitions.
type SabaccGame struct {
	Mu sync.Mutex

	ID     string
	Rules  Rules
	Status Status

	CurrentPhase Phase
	Players      []*models.Player
	Deck         []engine.Card
	Pot          int

	CurrentDiceRoll *engine.DiceRoll
	TargetNumber    *int
	PreferredSuit   engine.Suit

	RoundNumber int
	DealerIndex int
	DealersUsed map[uuid.UUID]bool
	HostID      uuid.UUID

	BettingPhaseStarted  bool
	BettingRoundComplete bool
	CurrentPlayer        uuid.UUID

	// PendingWinner is set when folds leave exactly one active player,
	// letting round end award the pot without any score comparison.
	PendingWinner *uuid.UUID

	Notifier *events.Notifier

	rng *engine.RNG

	// roundEpoch increments at every round end. The delayed setup
	// transition captures it and no-ops if a newer round started first.
	roundEpoch int
	setupTimer *time.Timer

	poisoned  error
	destroyed bool
}

// NewSabaccGame creates an empty room in the waiting state. A zero seed
// derives one from the clock; tests pass a fixed seed for determinism.
func NewSabaccGame(roomID string, rules Rules, seed uint64) *SabaccGame {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SabaccGame{
		ID:           roomID,
		Rules:        rules,
		Status:       StatusWaiting,
		CurrentPhase: PhaseSetup,
		DealersUsed:  make(map[uuid.UUID]bool),
		rng:          engine.NewRNG(seed),
	}
}

// guard rejects commands against a torn-down or poisoned room, then runs
// the structural invariant checks. Callers must hold Mu.
func (g *SabaccGame) guard() error {
	if g.destroyed {
		return ErrGameEnded
	}
	if g.poisoned != nil {
		return g.poisoned
	}
	if err := g.checkInvariants(); err != nil {
		g.poison(err)
		return err
	}
	return nil
}

func (g *SabaccGame) checkInvariants() error {
	if g.Pot < 0 {
		return &InvariantError{Room: g.ID, Reason: "negative pot"}
	}
	seen := make(map[uuid.UUID]bool, len(g.Players))
	for _, p := range g.Players {
		if p.Chips < 0 {
			return &InvariantError{Room: g.ID, Reason: "negative chip count for " + p.Name}
		}
		if seen[p.ID] {
			return &InvariantError{Room: g.ID, Reason: "duplicate player id"}
		}
		seen[p.ID] = true
	}
	if g.Status == StatusInProgress {
		if len(g.Players) == 0 || g.DealerIndex < 0 || g.DealerIndex >= len(g.Players) {
			return &InvariantError{Room: g.ID, Reason: "dealer index out of range"}
		}
		if len(g.DealersUsed) > g.RoundNumber {
			return &InvariantError{Room: g.ID, Reason: "dealer rotation ahead of round counter"}
		}
	}
	return nil
}

// poison marks the room fatally broken. Every subsequent command returns
// the stored error; only room teardown clears it.
func (g *SabaccGame) poison(err error) {
	g.poisoned = err
	logrus.WithFields(logrus.Fields{
		"room":  g.ID,
		"phase": g.CurrentPhase.String(),
	}).Error(err)
}

func (g *SabaccGame) dealer() *models.Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.DealerIndex]
}

func (g *SabaccGame) findPlayer(id uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *SabaccGame) activePlayers() []*models.Player {
	var out []*models.Player
	for _, p := range g.Players {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// draw pops n cards off the top of the deck. Running out of cards mid-round
// is an engine defect, not a user error, so it poisons the room.
func (g *SabaccGame) draw(n int) ([]engine.Card, error) {
	if n > len(g.Deck) {
		err := &InvariantError{Room: g.ID, Reason: "deck exhausted"}
		g.poison(err)
		return nil, err
	}
	cards := g.Deck[len(g.Deck)-n:]
	g.Deck = g.Deck[:len(g.Deck)-n]
	out := make([]engine.Card, n)
	copy(out, cards)
	return out, nil
}

// Snapshot builds the public room state broadcast with gameStateUpdated.
// Callers must hold Mu.
func (g *SabaccGame) Snapshot() *events.RoomState {
	st := &events.RoomState{
		RoomID:        g.ID,
		Status:        string(g.Status),
		Phase:         g.CurrentPhase.String(),
		Pot:           g.Pot,
		DeckSize:      len(g.Deck),
		RoundNumber:   g.RoundNumber,
		DealerIndex:   g.DealerIndex,
		CurrentPlayer: g.CurrentPlayer,
		PreferredSuit: g.PreferredSuit.String(),
		HostID:        g.HostID,
	}
	if g.TargetNumber != nil {
		t := *g.TargetNumber
		st.TargetNumber = &t
	}
	for _, p := range g.Players {
		st.Players = append(st.Players, events.PlayerState{
			ID:            p.ID,
			Name:          p.Name,
			Chips:         p.Chips,
			HandSize:      len(p.Hand),
			SelectedCards: append([]engine.Card(nil), p.SelectedCards...),
			IsActive:      p.IsActive,
			HasActed:      p.HasActed,
			BettingAction: p.BettingAction,
			Connected:     p.Connected,
		})
	}
	return st
}

func (g *SabaccGame) emitState() {
	if g.Notifier == nil {
		return
	}
	g.Notifier.Emit(events.GameEvent{
		Type:  events.EventGameStateUpdated,
		State: g.Snapshot(),
	})
}

func (g *SabaccGame) emit(ev events.GameEvent) {
	if g.Notifier == nil {
		return
	}
	g.Notifier.Emit(ev)
}

// Destroy tears the room down: the pending setup timer is cancelled and
// every future command is rejected.
func (g *SabaccGame) Destroy() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.destroyed = true
	if g.setupTimer != nil {
		g.setupTimer.Stop()
		g.setupTimer = nil
	}
}
