package engine

import (
	"testing"
)

// TestNewDeckComposition verifies the 62-card deck: 30 red, 30 green, 2 wild.
func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}

	red, green, wild := 0, 0, 0
	perSuit := map[Suit]int{}
	for _, c := range deck {
		switch {
		case c.IsWild:
			wild++
			if c.Suit != SuitNone {
				t.Errorf("wild card carries suit %v", c.Suit)
			}
			if c.Value != 0 {
				t.Errorf("wild card carries value %d", c.Value)
			}
		case c.Value < 0:
			red++
			perSuit[c.Suit]++
			if c.Color() != "red" {
				t.Errorf("negative card %+v colored %q", c, c.Color())
			}
		case c.Value > 0:
			green++
			perSuit[c.Suit]++
			if c.Color() != "green" {
				t.Errorf("positive card %+v colored %q", c, c.Color())
			}
		default:
			t.Errorf("non-wild card with value 0: %+v", c)
		}
	}

	if red != 30 || green != 30 || wild != 2 {
		t.Errorf("expected 30 red / 30 green / 2 wild, got %d/%d/%d", red, green, wild)
	}
	for _, suit := range Suits {
		if perSuit[suit] != 20 {
			t.Errorf("suit %v has %d cards, expected 20", suit, perSuit[suit])
		}
	}
}

// TestShufflePreservesMultiset verifies shuffling keeps length and contents.
func TestShufflePreservesMultiset(t *testing.T) {
	deck := NewDeck()
	shuffled := NewDeck()
	Shuffle(shuffled, NewRNG(99))

	if len(shuffled) != len(deck) {
		t.Fatalf("shuffle changed length: %d -> %d", len(deck), len(shuffled))
	}

	count := func(cards []Card) map[Card]int {
		m := make(map[Card]int)
		for _, c := range cards {
			m[c]++
		}
		return m
	}
	before, after := count(deck), count(shuffled)
	for c, n := range before {
		if after[c] != n {
			t.Errorf("card %+v count changed: %d -> %d", c, n, after[c])
		}
	}
}

// TestShuffleDeterministic verifies the same seed yields the same order.
func TestShuffleDeterministic(t *testing.T) {
	a := NewDeck()
	b := NewDeck()
	Shuffle(a, NewRNG(7))
	Shuffle(b, NewRNG(7))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("orders diverge at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		name   string
		cards  []Card
		target int
		want   int
	}{
		{"exact hit", []Card{{Suit: SuitCircle, Value: 5}}, 5, 0},
		{"two over", []Card{{Suit: SuitTriangle, Value: 3}}, 5, 2},
		{"negative sum", []Card{{Suit: SuitSquare, Value: -7}, {Suit: SuitCircle, Value: 2}}, -5, 0},
		{"empty selection", nil, 5, 5},
		{"empty negative target", nil, -10, 10},
		{"wild counts zero", []Card{{IsWild: true}, {Suit: SuitCircle, Value: 4}}, 4, 0},
	}
	for _, tc := range cases {
		if got := Score(tc.cards, tc.target); got != tc.want {
			t.Errorf("%s: Score = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCountPreferredSuit(t *testing.T) {
	cards := []Card{
		{Suit: SuitCircle, Value: 5},
		{Suit: SuitTriangle, Value: 3},
		{IsWild: true},
		{Suit: SuitCircle, Value: -2},
	}
	if got := CountPreferredSuit(cards, SuitCircle); got != 3 {
		t.Errorf("circle count = %d, want 3 (two circles + wild)", got)
	}
	// Wilds count toward any requested suit.
	if got := CountPreferredSuit(cards, SuitSquare); got != 1 {
		t.Errorf("square count = %d, want 1 (wild only)", got)
	}
}

func TestCompareCards(t *testing.T) {
	cases := []struct {
		name string
		a, b Card
		want int // sign of the expected result
	}{
		{"higher abs wins", Card{Suit: SuitSquare, Value: 8}, Card{Suit: SuitCircle, Value: 6}, 1},
		{"abs of negative counts", Card{Suit: SuitSquare, Value: -9}, Card{Suit: SuitCircle, Value: 6}, 1},
		{"positive beats negative", Card{Suit: SuitSquare, Value: 7}, Card{Suit: SuitCircle, Value: -7}, 1},
		{"suit order breaks tie", Card{Suit: SuitCircle, Value: 7}, Card{Suit: SuitTriangle, Value: 7}, 1},
		{"triangle over square", Card{Suit: SuitTriangle, Value: -4}, Card{Suit: SuitSquare, Value: -4}, 1},
		{"identical", Card{Suit: SuitCircle, Value: 7}, Card{Suit: SuitCircle, Value: 7}, 0},
	}
	for _, tc := range cases {
		got := sign(CompareCards(tc.a, tc.b))
		if got != tc.want {
			t.Errorf("%s: CompareCards(%+v, %+v) sign = %d, want %d", tc.name, tc.a, tc.b, got, tc.want)
		}
		if tc.want != 0 {
			if rev := sign(CompareCards(tc.b, tc.a)); rev != -tc.want {
				t.Errorf("%s: comparison not antisymmetric", tc.name)
			}
		}
	}
}

func TestRNGZeroSeed(t *testing.T) {
	rng := NewRNG(0)
	if rng.Intn(10) == 0 && rng.Intn(10) == 0 && rng.Intn(10) == 0 {
		// Three zeros in a row would suggest the generator is stuck at zero.
		t.Error("zero-seeded RNG appears stuck")
	}
}
