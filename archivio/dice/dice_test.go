package dice

import "testing"

func TestRandRollerStaysInRange(t *testing.T) {
	r := NewRandRoller(42)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Roll(ChallengeSides)
		if v < 1 || v > ChallengeSides {
			t.Fatalf("Roll() = %d, out of [1,%d]", v, ChallengeSides)
		}
		seen[v] = true
	}
	if len(seen) != ChallengeSides {
		t.Errorf("expected every face to appear, saw %v", seen)
	}
}

func TestRandRollerDeterministic(t *testing.T) {
	a := NewRandRoller(7)
	b := NewRandRoller(7)
	for i := 0; i < 20; i++ {
		if x, y := a.Roll(5), b.Roll(5); x != y {
			t.Fatalf("roll %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestRandRollerInvalidSides(t *testing.T) {
	if v := NewRandRoller(1).Roll(0); v != 0 {
		t.Errorf("Roll(0) = %d, want 0", v)
	}
}

func TestFixed(t *testing.T) {
	f := NewFixed(3, 9, 0)
	want := []int{3, 5, 1, 3}
	for i, w := range want {
		if got := f.Roll(5); got != w {
			t.Errorf("roll %d = %d, want %d", i, got, w)
		}
	}
}
