package models

import "github.com/google/uuid"

// CommandType enumerates the inbound commands the transport may deliver.
type CommandType string

const (
	CmdJoinRoom    CommandType = "joinRoom"
	CmdLeaveRoom   CommandType = "leaveRoom"
	CmdStartRound  CommandType = "startRound"
	CmdRollDice    CommandType = "rollDice"
	CmdSelectCards CommandType = "selectCards"
	CmdContinue    CommandType = "continuePlaying"
	CmdFold        CommandType = "fold"
	CmdImprove     CommandType = "improveCards"
	CmdEndRound    CommandType = "endRound"
)

// Command is one decoded inbound message, scoped to a room and acting player.
type Command struct {
	Type     CommandType `json:"type"`
	RoomID   string      `json:"roomId"`
	PlayerID uuid.UUID   `json:"playerId,omitempty"`
	Name     string      `json:"name,omitempty"`    // joinRoom
	DealerID *uuid.UUID  `json:"dealerId,omitempty"` // startRound
	Indices  []int       `json:"indices,omitempty"` // selectCards / improveCards
}
