// Package engine implements the Coruscant Shift sabacc rules.
//
// Everything in this package is pure and deterministic given an RNG seed:
// deck construction, shuffling, scoring, suit counting, tiebreaker card
// comparison, and the dice/cube rolls. Game orchestration lives in
// internal/game; this package holds no room or player state.
package engine

// Suit identifies one of the three sabacc suits. Wild cards carry SuitNone.
type Suit uint8

const (
	SuitNone     Suit = 0
	SuitCircle   Suit = 1
	SuitTriangle Suit = 2
	SuitSquare   Suit = 3
)

// String returns the lowercase suit name used in event payloads.
func (s Suit) String() string {
	switch s {
	case SuitCircle:
		return "circle"
	case SuitTriangle:
		return "triangle"
	case SuitSquare:
		return "square"
	}
	return ""
}

// Suits lists the three playable suits in their fixed tiebreak order,
// strongest first.
var Suits = [3]Suit{SuitCircle, SuitTriangle, SuitSquare}

// Card is a single sabacc card. IsWild implies SuitNone and Value 0.
type Card struct {
	Suit   Suit `json:"suit"`
	Value  int  `json:"value"`
	IsWild bool `json:"isWild"`
}

// Color returns "red" for negative cards, "green" for positive cards and ""
// for wilds.
func (c Card) Color() string {
	switch {
	case c.IsWild:
		return ""
	case c.Value < 0:
		return "red"
	default:
		return "green"
	}
}

// DeckSize is the full Coruscant Shift deck: 3 suits x 20 values + 2 wilds.
const DeckSize = 62

// NewDeck builds the 62-card deck in deterministic pre-shuffle order:
// for each suit the red cards -10..-1, then the green cards 1..10,
// followed by the two wild zero cards.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for v := -10; v <= -1; v++ {
			deck = append(deck, Card{Suit: suit, Value: v})
		}
		for v := 1; v <= 10; v++ {
			deck = append(deck, Card{Suit: suit, Value: v})
		}
	}
	deck = append(deck, Card{IsWild: true}, Card{IsWild: true})
	return deck
}

// RNG is a seedable xorshift64 generator. A zero seed is coerced to 1
// because xorshift cannot leave the zero state.
type RNG struct {
	state uint64
}

// NewRNG returns a generator seeded with the given value.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

func (r *RNG) next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	r.state = x
	return x
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.next() % uint64(n))
}

// Shuffle permutes cards in place with a Fisher-Yates pass.
func Shuffle(cards []Card, rng *RNG) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Score returns the round score for a selection against the target number:
// the absolute distance between the summed card values and the target.
// Lower is better. An empty selection scores |target|.
func Score(cards []Card, target int) int {
	sum := 0
	for _, c := range cards {
		sum += c.Value
	}
	return abs(sum - target)
}

// CountPreferredSuit counts cards matching the preferred suit. Wild cards
// always count, whatever suit is asked for.
func CountPreferredSuit(cards []Card, suit Suit) int {
	n := 0
	for _, c := range cards {
		if c.IsWild || c.Suit == suit {
			n++
		}
	}
	return n
}

// CompareCards orders two cards for tiebreaker draws. It returns a positive
// number when a beats b, negative when b beats a and 0 when neither wins:
// higher absolute value first, then positive over negative, then the fixed
// suit order (circle > triangle > square, wilds last).
func CompareCards(a, b Card) int {
	if d := abs(a.Value) - abs(b.Value); d != 0 {
		return d
	}
	if d := sign(a.Value) - sign(b.Value); d != 0 {
		return d
	}
	return suitStrength(a.Suit) - suitStrength(b.Suit)
}

func suitStrength(s Suit) int {
	switch s {
	case SuitCircle:
		return 3
	case SuitTriangle:
		return 2
	case SuitSquare:
		return 1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
