package engine

// DiceRoll fixes a round's target number and preferred suit.
type DiceRoll struct {
	GoldValue  int  `json:"goldValue"`
	SilverSuit Suit `json:"silverSuit"`
}

// goldFaces is the gold die's weighted face multiset: zero appears twice.
var goldFaces = [6]int{0, 0, 5, -5, 10, -10}

// RollDice rolls the gold (value) and silver (suit) dice once.
func RollDice(rng *RNG) DiceRoll {
	return DiceRoll{
		GoldValue:  goldFaces[rng.Intn(len(goldFaces))],
		SilverSuit: Suits[rng.Intn(len(Suits))],
	}
}

// RollChanceCube rolls the six-sided chance cube used as the last-resort
// tiebreaker, returning 1..6.
func RollChanceCube(rng *RNG) int {
	return rng.Intn(6) + 1
}
