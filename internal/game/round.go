package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dankraus/sabacc-online-sub000/internal/database"
	"github.com/dankraus/sabacc-online-sub000/internal/engine"
	"github.com/dankraus/sabacc-online-sub000/internal/events"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

// StartRound opens a new round. The caller, when identified, must be the
// current dealer. The ante is deducted from every player before any card
// is dealt; if round end already collected it, it is not charged again.
func (g *SabaccGame) StartRound(dealerID *uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	if g.Status == StatusEnded {
		return ErrGameEnded
	}
	if g.CurrentPhase != PhaseSetup {
		return ErrInvalidPhaseTransition
	}
	if len(g.Players) < g.Rules.MinPlayers {
		return ErrNotEnoughPlayers
	}
	dealer := g.dealer()
	if dealerID != nil && *dealerID != dealer.ID {
		return ErrOnlyDealerCanStart
	}
	for _, p := range g.Players {
		if !p.AntePaid && p.Chips < g.Rules.Ante {
			return ErrInsufficientChips
		}
	}

	g.Status = StatusInProgress
	if g.RoundNumber == 0 {
		g.RoundNumber = 1
	}
	g.DealersUsed[dealer.ID] = true
	if err := g.collectAnte(); err != nil {
		return err
	}

	g.Deck = engine.NewDeck()
	engine.Shuffle(g.Deck, g.rng)
	for _, p := range g.Players {
		p.ResetForRound()
		hand, err := g.draw(g.Rules.HandSize)
		if err != nil {
			return err
		}
		p.Hand = hand
	}

	g.CurrentDiceRoll = nil
	g.TargetNumber = nil
	g.PreferredSuit = engine.SuitNone
	g.PendingWinner = nil
	g.BettingPhaseStarted = false
	g.BettingRoundComplete = false
	g.CurrentPlayer = uuid.Nil

	if err := g.advancePhase(PhaseInitialRoll); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"room":   g.ID,
		"round":  g.RoundNumber,
		"dealer": dealer.ID,
	}).Info("round started")
	g.emitState()
	return nil
}

// RollDice rolls the gold and silver dice, fixing the round's target number
// and preferred suit, and opens card selection.
func (g *SabaccGame) RollDice() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	if g.CurrentPhase != PhaseInitialRoll {
		return ErrInvalidPhaseTransition
	}

	roll := engine.RollDice(g.rng)
	g.CurrentDiceRoll = &roll
	target := roll.GoldValue
	g.TargetNumber = &target
	g.PreferredSuit = roll.SilverSuit
	if err := g.advancePhase(PhaseSelection); err != nil {
		return err
	}

	g.emit(events.GameEvent{
		Type: events.EventDiceRolled,
		Dice: &events.DicePayload{
			RoomID:        g.ID,
			DiceRoll:      roll,
			TargetNumber:  target,
			PreferredSuit: roll.SilverSuit.String(),
		},
	})
	g.emitState()
	return nil
}

// SelectCards records the player's wager for the round: the hand cards at
// the given indices. Re-selecting before the phase closes replaces the
// previous selection. When every player has selected, first betting opens.
func (g *SabaccGame) SelectCards(playerID uuid.UUID, indices []int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	if g.CurrentPhase != PhaseSelection {
		return ErrWrongPhase
	}
	p := g.findPlayer(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.IsActive {
		return ErrPlayerInactive
	}
	if len(indices) == 0 || !validIndices(indices, len(p.Hand)) {
		return ErrInvalidCardIndices
	}

	selected := make([]engine.Card, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, p.Hand[i])
	}
	p.SelectedCards = selected

	g.emit(events.GameEvent{
		Type:     events.EventCardsSelected,
		PlayerID: p.ID,
		Cards:    &events.CardsPayload{RoomID: g.ID, PlayerID: p.ID},
	})
	if g.selectionComplete() {
		if err := g.advancePhase(PhaseFirstBetting); err != nil {
			return err
		}
		if err := g.startBettingPhase(); err != nil {
			return err
		}
	}
	g.emitState()
	return nil
}

func (g *SabaccGame) selectionComplete() bool {
	for _, p := range g.Players {
		if len(p.SelectedCards) == 0 {
			return false
		}
	}
	return true
}

// handleSabaccShift discards every hand card not in the player's selection
// and draws an equal number of replacements, leaving each hand as the kept
// selection plus fresh draws. It then opens second betting. Callers hold Mu.
func (g *SabaccGame) handleSabaccShift() error {
	for _, p := range g.Players {
		if !p.IsActive || len(p.Hand) == 0 {
			continue
		}
		discarded := len(g.unselectedIndices(p))
		drawn, err := g.draw(discarded)
		if err != nil {
			return err
		}
		hand := make([]engine.Card, 0, len(p.SelectedCards)+len(drawn))
		hand = append(hand, p.SelectedCards...)
		hand = append(hand, drawn...)
		p.Hand = hand
	}
	logrus.WithFields(logrus.Fields{"room": g.ID, "round": g.RoundNumber}).Info("sabacc shift applied")
	if err := g.advancePhase(PhaseSecondBetting); err != nil {
		return err
	}
	return g.startBettingPhase()
}

// ImproveCards adds the hand cards at the given indices to the player's
// selection. Only cards not already selected are eligible.
func (g *SabaccGame) ImproveCards(playerID uuid.UUID, indices []int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	if g.CurrentPhase != PhaseImprove {
		return ErrWrongPhase
	}
	p := g.findPlayer(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !p.IsActive {
		return ErrPlayerInactive
	}
	if len(indices) == 0 || !validIndices(indices, len(p.Hand)) {
		return ErrInvalidCardIndices
	}
	eligible := make(map[int]bool)
	for _, i := range g.unselectedIndices(p) {
		eligible[i] = true
	}
	for _, i := range indices {
		if !eligible[i] {
			return ErrInvalidCardIndices
		}
	}

	for _, i := range indices {
		p.SelectedCards = append(p.SelectedCards, p.Hand[i])
	}
	g.emit(events.GameEvent{
		Type:     events.EventCardsImproved,
		PlayerID: p.ID,
		Cards:    &events.CardsPayload{RoomID: g.ID, PlayerID: p.ID},
	})
	g.maybeFinishImprove()
	g.emitState()
	return nil
}

// unselectedIndices returns the hand indices whose cards are not covered by
// the selection, matching multiset-style so duplicate cards are only
// consumed once. Callers hold Mu.
func (g *SabaccGame) unselectedIndices(p *models.Player) []int {
	remaining := make(map[engine.Card]int, len(p.SelectedCards))
	for _, c := range p.SelectedCards {
		remaining[c]++
	}
	var out []int
	for i, c := range p.Hand {
		if remaining[c] > 0 {
			remaining[c]--
			continue
		}
		out = append(out, i)
	}
	return out
}

// maybeFinishImprove closes the improve phase once no active player holds
// an un-selected card. Callers hold Mu.
func (g *SabaccGame) maybeFinishImprove() {
	for _, p := range g.Players {
		if p.IsActive && len(g.unselectedIndices(p)) > 0 {
			return
		}
	}
	if g.CurrentPhase == PhaseImprove {
		g.CurrentPhase = PhaseReveal
	}
}

// EndRound resolves the round's winner, awards the pot, and either ends
// the game (once every player has dealt) or prepares the next round.
// With immediate unset the return to setup happens after the configured
// delay; a room torn down or restarted before then cancels the transition.
func (g *SabaccGame) EndRound(immediate bool) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if err := g.guard(); err != nil {
		return err
	}
	if g.Status != StatusInProgress {
		return ErrRoundNotReady
	}
	if g.TargetNumber == nil || g.PreferredSuit == engine.SuitNone {
		return ErrRoundNotReady
	}

	g.CurrentPhase = PhaseRoundEnd
	g.roundEpoch++

	var winner *models.Player
	tiebreakerUsed := false
	if g.PendingWinner != nil {
		winner = g.findPlayer(*g.PendingWinner)
		g.PendingWinner = nil
	}
	if winner == nil {
		winner, tiebreakerUsed = g.resolveWinner()
	}

	awarded := g.Pot
	if winner != nil {
		winner.Chips += awarded
		g.Pot = 0
		logrus.WithFields(logrus.Fields{
			"room":     g.ID,
			"round":    g.RoundNumber,
			"winner":   winner.ID,
			"pot":      awarded,
			"tiebreak": tiebreakerUsed,
		}).Info("round ended")
		g.emit(events.GameEvent{
			Type:     events.EventRoundEnded,
			PlayerID: winner.ID,
			RoundEnded: &events.RoundEndedPayload{
				WinnerID:       winner.ID,
				WinnerName:     winner.Name,
				Pot:            awarded,
				TiebreakerUsed: tiebreakerUsed,
			},
		})
		g.persistRoundResult(winner, awarded, tiebreakerUsed)
	} else {
		// Everyone folded out: the pot rolls into the next round on top
		// of its antes.
		logrus.WithFields(logrus.Fields{
			"room":  g.ID,
			"round": g.RoundNumber,
			"pot":   awarded,
		}).Info("round ended with no claimant, pot carries over")
		g.emit(events.GameEvent{
			Type:       events.EventRoundEnded,
			RoundEnded: &events.RoundEndedPayload{Pot: awarded, PotCarried: true},
		})
	}

	if len(g.DealersUsed) >= len(g.Players) {
		g.endGame()
		return nil
	}

	g.DealerIndex = (g.DealerIndex + 1) % len(g.Players)
	g.DealersUsed[g.dealer().ID] = true
	g.RoundNumber++
	for _, p := range g.Players {
		p.ResetForRound()
	}
	g.Deck = engine.NewDeck()
	engine.Shuffle(g.Deck, g.rng)
	if err := g.collectAnte(); err != nil {
		logrus.WithFields(logrus.Fields{"room": g.ID, "round": g.RoundNumber}).
			Warn("ante deferred to the next round start, a player cannot cover it")
	}
	g.CurrentDiceRoll = nil
	g.TargetNumber = nil
	g.PreferredSuit = engine.SuitNone
	g.BettingPhaseStarted = false
	g.BettingRoundComplete = false
	g.CurrentPlayer = uuid.Nil
	g.emitState()

	if immediate {
		g.finishRoundReset()
		return nil
	}
	epoch := g.roundEpoch
	g.setupTimer = time.AfterFunc(g.Rules.RoundEndDelay, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if g.destroyed || g.roundEpoch != epoch || g.CurrentPhase != PhaseRoundEnd {
			return
		}
		g.finishRoundReset()
	})
	return nil
}

// finishRoundReset completes the transition from round_end to setup and reopens
// the room for the next StartRound. Callers hold Mu.
func (g *SabaccGame) finishRoundReset() {
	g.CurrentPhase = PhaseSetup
	g.Status = StatusWaiting
	g.emitState()
}

// resolveWinner runs the cascade over active players: minimum score, then
// maximum preferred-suit count, then one tiebreaker card draw each, then a
// chance-cube roll keeping the first candidate at the maximum. Callers
// hold Mu.
func (g *SabaccGame) resolveWinner() (*models.Player, bool) {
	candidates := g.activePlayers()
	if len(candidates) == 0 {
		return nil, false
	}
	target := *g.TargetNumber

	best := engine.Score(candidates[0].SelectedCards, target)
	for _, p := range candidates[1:] {
		if s := engine.Score(p.SelectedCards, target); s < best {
			best = s
		}
	}
	candidates = filterPlayers(candidates, func(p *models.Player) bool {
		return engine.Score(p.SelectedCards, target) == best
	})

	bestSuit := engine.CountPreferredSuit(candidates[0].SelectedCards, g.PreferredSuit)
	for _, p := range candidates[1:] {
		if n := engine.CountPreferredSuit(p.SelectedCards, g.PreferredSuit); n > bestSuit {
			bestSuit = n
		}
	}
	candidates = filterPlayers(candidates, func(p *models.Player) bool {
		return engine.CountPreferredSuit(p.SelectedCards, g.PreferredSuit) == bestSuit
	})
	if len(candidates) == 1 {
		return candidates[0], false
	}

	// Tiebreaker draw: one card each from the remaining deck.
	draws := make([]engine.Card, len(candidates))
	for i := range candidates {
		cards, err := g.draw(1)
		if err != nil {
			return candidates[0], true
		}
		draws[i] = cards[0]
	}
	bestDraw := 0
	for i := 1; i < len(draws); i++ {
		if engine.CompareCards(draws[i], draws[bestDraw]) > 0 {
			bestDraw = i
		}
	}
	tied := []*models.Player{}
	for i, c := range draws {
		if engine.CompareCards(c, draws[bestDraw]) == 0 {
			tied = append(tied, candidates[i])
		}
	}
	if len(tied) == 1 {
		return tied[0], true
	}

	// Chance cube: highest roll wins; an equal top roll does not displace
	// the earlier holder.
	winner := tied[0]
	bestRoll := engine.RollChanceCube(g.rng)
	for _, p := range tied[1:] {
		if roll := engine.RollChanceCube(g.rng); roll > bestRoll {
			bestRoll = roll
			winner = p
		}
	}
	return winner, true
}

// endGame closes the room for good: the chip-richest player is crowned and
// all per-round state is cleared. Callers hold Mu.
func (g *SabaccGame) endGame() {
	winner := g.Players[0]
	for _, p := range g.Players[1:] {
		if p.Chips > winner.Chips {
			winner = p
		}
	}
	// A pot carried out of a no-claimant final round goes to the crowned
	// winner rather than vanishing.
	if g.Pot > 0 {
		winner.Chips += g.Pot
	}

	finalChips := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		finalChips[p.Name] = p.Chips
	}
	snapshot := g.Snapshot()

	g.Status = StatusEnded
	g.Pot = 0
	g.Deck = nil
	g.CurrentDiceRoll = nil
	g.TargetNumber = nil
	g.PreferredSuit = engine.SuitNone
	g.PendingWinner = nil
	g.BettingPhaseStarted = false
	g.BettingRoundComplete = false
	g.CurrentPlayer = uuid.Nil

	logrus.WithFields(logrus.Fields{
		"room":   g.ID,
		"winner": winner.ID,
		"chips":  winner.Chips,
	}).Info("game ended")
	g.emit(events.GameEvent{
		Type:     events.EventGameEnded,
		PlayerID: winner.ID,
		GameEnded: &events.GameEndedPayload{
			WinnerID:   winner.ID,
			WinnerName: winner.Name,
			FinalChips: finalChips,
			AllPlayers: snapshot.Players,
		},
	})
	g.persistFinalStandings(winner, finalChips)
	g.emitState()
}

// persistRoundResult mirrors the round outcome to Postgres. Fire and
// forget: persistence never blocks or fails a round.
func (g *SabaccGame) persistRoundResult(winner *models.Player, pot int, tiebreakerUsed bool) {
	if database.DB == nil {
		return
	}
	res := database.RoundResult{
		RoomID:         g.ID,
		RoundNumber:    g.RoundNumber,
		WinnerID:       winner.ID,
		WinnerName:     winner.Name,
		Pot:            pot,
		TiebreakerUsed: tiebreakerUsed,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StoreRoundResult(ctx, res); err != nil {
			logrus.WithError(err).WithField("room", res.RoomID).Error("failed storing round result")
		}
	}()
}

func (g *SabaccGame) persistFinalStandings(winner *models.Player, finalChips map[string]int) {
	if database.DB == nil {
		return
	}
	roomID, winnerID, winnerName := g.ID, winner.ID, winner.Name
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StoreFinalStandings(ctx, roomID, winnerID, winnerName, finalChips); err != nil {
			logrus.WithError(err).WithField("room", roomID).Error("failed storing final standings")
		}
	}()
}

func validIndices(indices []int, n int) bool {
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= n || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

func filterPlayers(in []*models.Player, keep func(*models.Player) bool) []*models.Player {
	out := in[:0:0]
	for _, p := range in {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
