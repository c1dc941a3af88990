package game

import (
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/engine"
	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// ApplyPhaseTimeout resolves the current phase's expired deadline: stalled
// selections pick their first card, unacted bettors are folded, and improve
// sweeps every remaining card into the selection. The external scheduler
// owns the timer; this operation is idempotent, so a duplicate or late
// invocation of it finds nothing left to resolve and changes nothing.
func (g *SabaccGame) ApplyPhaseTimeout() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}

	switch g.CurrentPhase {
	case PhaseSelection:
		return g.timeoutSelection()
	case PhaseFirstBetting, PhaseSecondBetting:
		return g.timeoutBetting()
	case PhaseImprove:
		return g.timeoutImprove()
	}
	return nil
}

func (g *SabaccGame) timeoutSelection() error {
	changed := false
	for _, p := range g.Players {
		if !p.IsActive || len(p.SelectedCards) > 0 || len(p.Hand) == 0 {
			continue
		}
		p.SelectedCards = []engine.Card{p.Hand[0]}
		changed = true
		logrus.WithFields(logrus.Fields{"room": g.ID, "player": p.ID}).Info("selection timed out, auto-selected first card")
		g.emit(events.GameEvent{
			Type:     events.EventCardsSelected,
			PlayerID: p.ID,
			Cards:    &events.CardsPayload{RoomID: g.ID, PlayerID: p.ID},
		})
	}
	if g.selectionComplete() {
		if err := g.advancePhase(PhaseFirstBetting); err != nil {
			return err
		}
		if err := g.startBettingPhase(); err != nil {
			return err
		}
		g.emitState()
		return nil
	}
	if changed {
		g.emitState()
	}
	return nil
}

func (g *SabaccGame) timeoutBetting() error {
	if !g.BettingPhaseStarted || g.BettingRoundComplete {
		return nil
	}
	for _, p := range g.Players {
		if !p.IsActive || p.HasActed {
			continue
		}
		p.IsActive = false
		p.Hand = nil
		p.SelectedCards = nil
		p.HasActed = true
		p.BettingAction = models.BettingFold
		logrus.WithFields(logrus.Fields{"room": g.ID, "player": p.ID}).Info("betting timed out, auto-folded")
		g.emit(events.GameEvent{
			Type:     events.EventPlayerActed,
			PlayerID: p.ID,
			Acted:    &events.ActedPayload{PlayerID: p.ID, Action: models.BettingFold},
		})
	}
	// Nobody is owed an action after the sweep, so the phase always closes
	// even when every remaining bettor had already acted.
	g.recordLoneSurvivor()
	return g.completeBettingPhase()
}

func (g *SabaccGame) timeoutImprove() error {
	changed := false
	for _, p := range g.Players {
		if !p.IsActive {
			continue
		}
		idx := g.unselectedIndices(p)
		if len(idx) == 0 {
			continue
		}
		for _, i := range idx {
			p.SelectedCards = append(p.SelectedCards, p.Hand[i])
		}
		changed = true
		logrus.WithFields(logrus.Fields{"room": g.ID, "player": p.ID}).Info("improve timed out, selection completed automatically")
		g.emit(events.GameEvent{
			Type:     events.EventCardsImproved,
			PlayerID: p.ID,
			Cards:    &events.CardsPayload{RoomID: g.ID, PlayerID: p.ID},
		})
	}
	g.maybeFinishImprove()
	if changed || g.CurrentPhase == PhaseReveal {
		g.emitState()
	}
	return nil
}
