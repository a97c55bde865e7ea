package progression

import "testing"

func TestLevel(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{1, 1},
		{999, 1},
		{1000, 2},
		{1005, 2},
		{1999, 2},
		{2000, 3},
		{9999, 10},
		{10000, 11},
	}
	for _, c := range cases {
		if got := Level(c.xp); got != c.level {
			t.Errorf("Level(%d) = %d, want %d", c.xp, got, c.level)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := Level(0)
	for xp := 1; xp <= 25000; xp++ {
		cur := Level(xp)
		if cur < prev {
			t.Fatalf("Level decreased at xp=%d: %d -> %d", xp, prev, cur)
		}
		prev = cur
	}
}

func TestXPToNextLevel(t *testing.T) {
	cases := []struct {
		xp        int
		remaining int
	}{
		{0, 1000},
		{999, 1},
		{1000, 1000},
		{1500, 500},
		{2999, 1},
	}
	for _, c := range cases {
		if got := XPToNextLevel(c.xp); got != c.remaining {
			t.Errorf("XPToNextLevel(%d) = %d, want %d", c.xp, got, c.remaining)
		}
	}
}

func TestProgressFraction(t *testing.T) {
	if got := ProgressFraction(0); got != 0 {
		t.Errorf("ProgressFraction(0) = %f, want 0", got)
	}
	if got := ProgressFraction(500); got != 0.5 {
		t.Errorf("ProgressFraction(500) = %f, want 0.5", got)
	}
	if got := ProgressFraction(1000); got != 0 {
		t.Errorf("ProgressFraction(1000) = %f, want 0 (fresh level)", got)
	}
	if got := ProgressFraction(1250); got != 0.25 {
		t.Errorf("ProgressFraction(1250) = %f, want 0.25", got)
	}
}
