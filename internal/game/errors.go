package game

import (
	"errors"
	"fmt"
)

// Expected user/client errors. These are validated before any mutation,
// surfaced only to the originating caller, and leave state untouched.
var (
	ErrRoomFull               = errors.New("room is full")
	ErrAlreadyJoined          = errors.New("a player with that name already joined")
	ErrGameInProgress         = errors.New("game already in progress")
	ErrGameEnded              = errors.New("game has ended")
	ErrNotEnoughPlayers       = errors.New("not enough players to start a round")
	ErrOnlyDealerCanStart     = errors.New("only the current dealer can start the round")
	ErrInsufficientChips      = errors.New("insufficient chips")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrBettingNotStarted      = errors.New("betting phase has not started")
	ErrBettingAlreadyComplete = errors.New("betting phase is already complete")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerInactive         = errors.New("player is not active this round")
	ErrAlreadyActed           = errors.New("player already acted this betting phase")
	ErrNotYourTurn            = errors.New("not your turn to act")
	ErrRoundNotReady          = errors.New("round is not ready to end")
	ErrWrongPhase             = errors.New("action not allowed in current phase")
	ErrInvalidCardIndices     = errors.New("invalid card indices")
)

// InvariantError is a fatal category (d) failure: it indicates an engine
// defect, not a user error. A room that produced one is poisoned and
// refuses all further commands rather than risk silently corrupting chip
// or dealer accounting.
type InvariantError struct {
	Room   string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("room %s: invariant violation: %s", e.Room, e.Reason)
}

// IsFatal reports whether err is an invariant violation.
func IsFatal(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
