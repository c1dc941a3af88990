package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/dankraus/sabacc-online-sub000/internal/engine"
)

// BettingAction is a player's declared action for the current betting phase.
type BettingAction string

const (
	BettingNone     BettingAction = ""
	BettingContinue BettingAction = "continue"
	BettingFold     BettingAction = "fold"
)

// Player is one seat in a room. Hand is private to the player; SelectedCards
// is the public wager for the round.
type Player struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Chips         int           `json:"chips"`
	Hand          []engine.Card `json:"-"`
	SelectedCards []engine.Card `json:"selectedCards"`
	IsActive      bool          `json:"isActive"`
	HasActed      bool          `json:"hasActed"`
	BettingAction BettingAction `json:"bettingAction,omitempty"`

	// AntePaid marks that this player's ante for the coming round is
	// already in the pot. Round end pre-collects it from seated players;
	// anyone who joins afterwards pays theirs at StartRound.
	AntePaid bool `json:"-"`

	Connected bool            `json:"connected"`
	Conn      *websocket.Conn `json:"-"`
}

// NewPlayer seats a new player with the given starting chips.
func NewPlayer(name string, chips int) *Player {
	return &Player{
		ID:        uuid.New(),
		Name:      name,
		Chips:     chips,
		IsActive:  true,
		Connected: true,
	}
}

// ResetForRound clears all per-round fields ahead of a new round.
func (p *Player) ResetForRound() {
	p.Hand = nil
	p.SelectedCards = nil
	p.IsActive = true
	p.AntePaid = false
	p.ResetBetting()
}

// ResetBetting clears the per-betting-phase fields.
func (p *Player) ResetBetting() {
	p.HasActed = false
	p.BettingAction = BettingNone
}
