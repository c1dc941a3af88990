package game

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// startBettingPhase opens betting for the current phase: every player's
// per-phase fields are cleared and the turn pointer starts at the dealer,
// skipping forward if the dealer already folded. A phase that opens with
// nobody owed an action closes itself immediately. Callers hold Mu.
func (g *SabaccGame) startBettingPhase() error {
	for _, p := range g.Players {
		p.ResetBetting()
	}
	g.BettingPhaseStarted = true
	g.BettingRoundComplete = false
	g.CurrentPlayer = uuid.Nil
	if next := g.nextToAct(); next != nil {
		g.CurrentPlayer = next.ID
	}
	g.emit(events.GameEvent{
		Type:    events.EventBettingPhaseStarted,
		Betting: &events.BettingPayload{RoomID: g.ID},
	})
	if g.CurrentPlayer == uuid.Nil {
		return g.completeBettingPhase()
	}
	return nil
}

// nextToAct returns the next player owed an action: scanning from the
// dealer's seat and wrapping, the first active player who has not acted.
// Callers hold Mu.
func (g *SabaccGame) nextToAct() *models.Player {
	n := len(g.Players)
	for i := 0; i < n; i++ {
		p := g.Players[(g.DealerIndex+i)%n]
		if p.IsActive && !p.HasActed {
			return p
		}
	}
	return nil
}

// validateBettingTurn runs the shared continue/fold preconditions and
// returns the acting player. Callers hold Mu.
func (g *SabaccGame) validateBettingTurn(playerID uuid.UUID) (*models.Player, error) {
	if !g.BettingPhaseStarted {
		return nil, ErrBettingNotStarted
	}
	if g.BettingRoundComplete {
		return nil, ErrBettingAlreadyComplete
	}
	p := g.findPlayer(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if !p.IsActive {
		return nil, ErrPlayerInactive
	}
	if p.HasActed {
		return nil, ErrAlreadyActed
	}
	if next := g.nextToAct(); next == nil || next.ID != playerID {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// ContinuePlaying stakes the continue cost to stay in the round.
func (g *SabaccGame) ContinuePlaying(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	p, err := g.validateBettingTurn(playerID)
	if err != nil {
		return err
	}
	if p.Chips < g.Rules.ContinueCost {
		return ErrInsufficientChips
	}

	p.Chips -= g.Rules.ContinueCost
	g.Pot += g.Rules.ContinueCost
	p.HasActed = true
	p.BettingAction = models.BettingContinue

	g.recordAction(p)
	return g.passTurnOrComplete()
}

// Fold abandons the round: the player's hand and selection are discarded
// and they sit out until the next round.
func (g *SabaccGame) Fold(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	p, err := g.validateBettingTurn(playerID)
	if err != nil {
		return err
	}

	p.IsActive = false
	p.Hand = nil
	p.SelectedCards = nil
	p.HasActed = true
	p.BettingAction = models.BettingFold

	g.recordLoneSurvivor()
	g.recordAction(p)
	return g.passTurnOrComplete()
}

func (g *SabaccGame) recordAction(p *models.Player) {
	logrus.WithFields(logrus.Fields{
		"room":   g.ID,
		"player": p.ID,
		"action": p.BettingAction,
		"phase":  g.CurrentPhase.String(),
	}).Info("betting action")
	g.emit(events.GameEvent{
		Type:     events.EventPlayerActed,
		PlayerID: p.ID,
		Acted:    &events.ActedPayload{PlayerID: p.ID, Action: p.BettingAction},
	})
}

// passTurnOrComplete advances the turn pointer, or closes the betting
// phase when nobody is owed an action. Callers hold Mu.
func (g *SabaccGame) passTurnOrComplete() error {
	if next := g.nextToAct(); next != nil {
		g.CurrentPlayer = next.ID
		g.emitState()
		return nil
	}
	return g.completeBettingPhase()
}

// completeBettingPhase closes the current betting phase and drives the
// round forward: first betting flows into the sabacc shift (which itself
// opens second betting), second betting flows into improve. Callers hold Mu.
func (g *SabaccGame) completeBettingPhase() error {
	g.BettingRoundComplete = true
	g.BettingPhaseStarted = false
	g.CurrentPlayer = uuid.Nil
	g.emit(events.GameEvent{
		Type:    events.EventBettingPhaseCompleted,
		Betting: &events.BettingPayload{RoomID: g.ID},
	})

	switch g.CurrentPhase {
	case PhaseFirstBetting:
		if err := g.advancePhase(PhaseSabaccShift); err != nil {
			return err
		}
		if err := g.handleSabaccShift(); err != nil {
			return err
		}
	case PhaseSecondBetting:
		if err := g.advancePhase(PhaseImprove); err != nil {
			return err
		}
		g.maybeFinishImprove()
	}
	g.emitState()
	return nil
}
