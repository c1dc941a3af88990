package game

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// AddPlayer seats a new player. Seats are only available while the room is
// waiting; the first player to join becomes the host.
func (g *SabaccGame) AddPlayer(name string) (*models.Player, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return nil, err
	}
	switch g.Status {
	case StatusInProgress:
		return nil, ErrGameInProgress
	case StatusEnded:
		return nil, ErrGameEnded
	}
	if len(g.Players) >= g.Rules.MaxPlayers {
		return nil, ErrRoomFull
	}
	for _, p := range g.Players {
		if p.Name == name {
			return nil, ErrAlreadyJoined
		}
	}

	p := models.NewPlayer(name, g.Rules.StartingChips)
	g.Players = append(g.Players, p)
	if len(g.Players) == 1 {
		g.HostID = p.ID
	}
	logrus.WithFields(logrus.Fields{"room": g.ID, "player": p.ID, "name": name}).Info("player joined")

	g.emit(events.GameEvent{
		Type:     events.EventPlayerJoined,
		PlayerID: p.ID,
		Joined:   &events.JoinedPayload{PlayerID: p.ID, Name: p.Name, Chips: p.Chips},
	})
	g.emitState()
	return p, nil
}

// RemovePlayer unseats a player and reports whether the room is now empty.
// Chips a mid-round leaver already paid into the pot stay in the pot.
func (g *SabaccGame) RemovePlayer(playerID uuid.UUID) (empty bool, err error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	// Deliberately skips guard(): leaving must still work in a poisoned room.
	if g.destroyed {
		return false, ErrGameEnded
	}

	idx := -1
	for i, p := range g.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, ErrPlayerNotFound
	}
	leaver := g.Players[idx]
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	// Keep the dealer pointer on the same seat where possible.
	if len(g.Players) > 0 {
		if idx < g.DealerIndex {
			g.DealerIndex--
		}
		if g.DealerIndex >= len(g.Players) {
			g.DealerIndex = 0
		}
	} else {
		g.DealerIndex = 0
	}
	if g.HostID == playerID && len(g.Players) > 0 {
		g.HostID = g.Players[0].ID
	}
	if g.PendingWinner != nil && *g.PendingWinner == playerID {
		g.PendingWinner = nil
	}
	wasActive := g.Status == StatusInProgress && leaver.IsActive
	if wasActive {
		leaver.IsActive = false
		g.recordLoneSurvivor()
	}
	logrus.WithFields(logrus.Fields{"room": g.ID, "player": playerID, "name": leaver.Name}).Info("player left")

	g.emit(events.GameEvent{
		Type:     events.EventPlayerLeft,
		PlayerID: playerID,
		Left:     &events.LeftPayload{Name: leaver.Name},
	})
	if wasActive && len(g.Players) > 0 {
		if err := g.resumeAfterDeparture(); err != nil {
			g.emitState()
			return false, err
		}
	}
	g.emitState()
	return len(g.Players) == 0, nil
}

// resumeAfterDeparture re-checks the current phase's completion condition
// after a mid-round departure, so the round never waits on an empty seat.
// Callers hold Mu.
func (g *SabaccGame) resumeAfterDeparture() error {
	switch g.CurrentPhase {
	case PhaseSelection:
		if g.selectionComplete() {
			if err := g.advancePhase(PhaseFirstBetting); err != nil {
				return err
			}
			return g.startBettingPhase()
		}
	case PhaseFirstBetting, PhaseSecondBetting:
		if g.BettingPhaseStarted && !g.BettingRoundComplete {
			return g.passTurnOrComplete()
		}
	case PhaseImprove:
		g.maybeFinishImprove()
	}
	return nil
}

// collectAnte charges the ante to every seated player who has not yet paid
// into the coming round, checking all of them before any chip moves. A
// player whose ante was pre-collected at round end is skipped, so a seat
// taken between rounds still pays at StartRound. Callers hold Mu.
func (g *SabaccGame) collectAnte() error {
	for _, p := range g.Players {
		if !p.AntePaid && p.Chips < g.Rules.Ante {
			return ErrInsufficientChips
		}
	}
	for _, p := range g.Players {
		if p.AntePaid {
			continue
		}
		p.Chips -= g.Rules.Ante
		g.Pot += g.Rules.Ante
		p.AntePaid = true
	}
	return nil
}

// recordLoneSurvivor sets PendingWinner when exactly one active player
// remains. Callers hold Mu.
func (g *SabaccGame) recordLoneSurvivor() {
	active := g.activePlayers()
	if len(active) == 1 {
		id := active[0].ID
		g.PendingWinner = &id
	}
}
