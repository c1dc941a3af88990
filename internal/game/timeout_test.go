package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dankraus/sabacc-online-sub000/internal/engine"
	"github.com/dankraus/sabacc-online-sub000/internal/models"
)

func TestTimeoutAutoSelectsFirstCard(t *testing.T) {
	g, players, _ := setupGame(t, 3, DefaultRules())
	advanceToSelection(t, g)
	require.NoError(t, g.SelectCards(players[0].ID, []int{2}))

	require.NoError(t, g.ApplyPhaseTimeout())

	assert.Equal(t, []engine.Card{players[0].Hand[2]}, players[0].SelectedCards, "explicit selection untouched")
	for _, p := range players[1:] {
		require.Len(t, p.SelectedCards, 1)
		assert.Equal(t, p.Hand[0], p.SelectedCards[0], "stalled player auto-selects the first card")
	}
	assert.Equal(t, PhaseFirstBetting, g.CurrentPhase, "completed selection advances the phase")
}

func TestTimeoutFoldsUnactedBettors(t *testing.T) {
	g, players, _ := setupGame(t, 3, DefaultRules())
	advanceToSelection(t, g)
	selectFirstCards(t, g)
	require.NoError(t, g.ContinuePlaying(players[0].ID))

	require.NoError(t, g.ApplyPhaseTimeout())

	assert.False(t, players[1].IsActive)
	assert.False(t, players[2].IsActive)
	assert.Equal(t, models.BettingFold, players[1].BettingAction)
	require.NotNil(t, g.PendingWinner, "one survivor left")
	assert.Equal(t, players[0].ID, *g.PendingWinner)
	assert.Equal(t, PhaseSecondBetting, g.CurrentPhase, "completed betting advances through the shift")
	assert.Equal(t, players[0].ID, g.CurrentPlayer)
}

func TestTimeoutClosesBettingWhenNobodyOwesAction(t *testing.T) {
	g, players, _ := setupGame(t, 2, DefaultRules())
	advanceToSelection(t, g)
	selectFirstCards(t, g)
	require.NoError(t, g.ContinuePlaying(players[0].ID))

	// Empty the seat the turn pointer is waiting on without advancing it.
	g.Mu.Lock()
	players[1].IsActive = false
	players[1].HasActed = true
	g.Mu.Unlock()

	require.NoError(t, g.ApplyPhaseTimeout())

	assert.Equal(t, PhaseSecondBetting, g.CurrentPhase, "stalled betting closes even with nothing left to fold")
	assert.True(t, g.BettingPhaseStarted)
	assert.Equal(t, players[0].ID, g.CurrentPlayer)
}

func TestTimeoutSweepsImprove(t *testing.T) {
	g, players, _ := setupGame(t, 2, DefaultRules())
	advanceToSelection(t, g)
	selectFirstCards(t, g)
	continueAll(t, g)
	require.Equal(t, PhaseImprove, g.CurrentPhase)

	require.NoError(t, g.ApplyPhaseTimeout())

	assert.Equal(t, PhaseReveal, g.CurrentPhase)
	for _, p := range players {
		assert.Len(t, p.SelectedCards, 5, "entire hand swept into the selection")
	}
}

func TestTimeoutIsIdempotent(t *testing.T) {
	g, _, mb := setupGame(t, 2, DefaultRules())
	advanceToSelection(t, g)
	selectFirstCards(t, g)
	continueAll(t, g)
	require.NoError(t, g.ApplyPhaseTimeout())
	require.Equal(t, PhaseReveal, g.CurrentPhase)

	before := mb.eventCount()
	require.NoError(t, g.ApplyPhaseTimeout())
	assert.Equal(t, PhaseReveal, g.CurrentPhase)
	assert.Equal(t, before, mb.eventCount(), "a late duplicate timeout changes nothing")
}

func TestTimeoutNoOpInSetup(t *testing.T) {
	g, _, mb := setupGame(t, 2, DefaultRules())
	before := mb.eventCount()
	require.NoError(t, g.ApplyPhaseTimeout())
	assert.Equal(t, before, mb.eventCount())
	assert.Equal(t, PhaseSetup, g.CurrentPhase)
}
