package engine

import (
	"testing"
)

// TestRollDiceFaces verifies rolls only ever land on legal faces.
func TestRollDiceFaces(t *testing.T) {
	legalGold := map[int]bool{0: true, 5: true, -5: true, 10: true, -10: true}
	legalSuit := map[Suit]bool{SuitCircle: true, SuitTriangle: true, SuitSquare: true}

	rng := NewRNG(1234)
	for i := 0; i < 1000; i++ {
		roll := RollDice(rng)
		if !legalGold[roll.GoldValue] {
			t.Fatalf("illegal gold value %d", roll.GoldValue)
		}
		if !legalSuit[roll.SilverSuit] {
			t.Fatalf("illegal silver suit %v", roll.SilverSuit)
		}
	}
}

// TestRollDiceZeroWeight checks zero lands roughly twice as often as the
// other gold faces over a large sample.
func TestRollDiceZeroWeight(t *testing.T) {
	rng := NewRNG(77)
	counts := map[int]int{}
	const n = 60000
	for i := 0; i < n; i++ {
		counts[RollDice(rng).GoldValue]++
	}
	// Zero has 2 of 6 faces; each other value has 1.
	if counts[0] < n/4 || counts[0] > 5*n/12 {
		t.Errorf("zero frequency %d outside expected band for n=%d", counts[0], n)
	}
	for _, v := range []int{5, -5, 10, -10} {
		if counts[v] < n/9 || counts[v] > 2*n/9 {
			t.Errorf("face %d frequency %d outside expected band", v, counts[v])
		}
	}
}

func TestRollChanceCubeRange(t *testing.T) {
	rng := NewRNG(5)
	seen := map[int]bool{}
	for i := 0; i < 600; i++ {
		v := RollChanceCube(rng)
		if v < 1 || v > 6 {
			t.Fatalf("chance cube rolled %d", v)
		}
		seen[v] = true
	}
	for face := 1; face <= 6; face++ {
		if !seen[face] {
			t.Errorf("face %d never rolled in 600 tries", face)
		}
	}
}
