package game

// Phase names one step of the fixed round cycle. Transitions are strictly
// linear: each phase has exactly one legal successor, and the cycle wraps
// from round_end back to setup.
type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseInitialRoll
	PhaseSelection
	PhaseFirstBetting
	PhaseSabaccShift
	PhaseSecondBetting
	PhaseImprove
	PhaseReveal
	PhaseRoundEnd
)

var phaseNames = [...]string{
	PhaseSetup:         "setup",
	PhaseInitialRoll:   "initial_roll",
	PhaseSelection:     "selection",
	PhaseFirstBetting:  "first_betting",
	PhaseSabaccShift:   "sabacc_shift",
	PhaseSecondBetting: "second_betting",
	PhaseImprove:       "improve",
	PhaseReveal:        "reveal",
	PhaseRoundEnd:      "round_end",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// next returns the single legal successor phase.
func (p Phase) next() Phase {
	if p == PhaseRoundEnd {
		return PhaseSetup
	}
	return p + 1
}

// advancePhase moves the game to the requested phase, rejecting anything
// other than the single legal successor of the current phase.
func (g *SabaccGame) advancePhase(to Phase) error {
	if g.CurrentPhase.next() != to {
		return ErrInvalidPhaseTransition
	}
	g.CurrentPhase = to
	return nil
}
