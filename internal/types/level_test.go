package types

import "testing"

func TestLevelOrdinal_TotalOrder(t *testing.T) {
	order := []Level{LevelAwareness, LevelFoundational, LevelIntermediate, LevelAdvanced, LevelExpert}
	for i := 1; i < len(order); i++ {
		if order[i-1].Ordinal() >= order[i].Ordinal() {
			t.Fatalf("expected %s < %s", order[i-1], order[i])
		}
	}
	if Level("guru").Ordinal() != 0 {
		t.Fatalf("unknown level should have ordinal 0")
	}
}

func TestLevelNext_StopsAtExpert(t *testing.T) {
	next, ok := LevelAdvanced.Next()
	if !ok || next != LevelExpert {
		t.Fatalf("expected advanced -> expert, got %s ok=%v", next, ok)
	}
	if _, ok := LevelExpert.Next(); ok {
		t.Fatalf("expert must have no next level")
	}
	if _, ok := Level("bogus").Next(); ok {
		t.Fatalf("unknown level must have no next level")
	}
}

func TestLevelFromOrdinal_RoundTrips(t *testing.T) {
	for lvl, ord := range levelOrdinals {
		if got := LevelFromOrdinal(ord); got != lvl {
			t.Fatalf("ordinal %d: expected %s got %s", ord, lvl, got)
		}
	}
	if got := LevelFromOrdinal(0); got != LevelAwareness {
		t.Fatalf("out of range ordinal should clamp to awareness, got %s", got)
	}
	if got := LevelFromOrdinal(99); got != LevelAwareness {
		t.Fatalf("out of range ordinal should clamp to awareness, got %s", got)
	}
}

func TestLevelUpBonus_MatchesPointTable(t *testing.T) {
	cases := map[Level]int{
		LevelFoundational: 50,
		LevelIntermediate: 100,
		LevelAdvanced:     200,
		LevelExpert:       500,
	}
	for lvl, want := range cases {
		if got := LevelUpBonus[lvl]; got != want {
			t.Fatalf("bonus for %s: expected %d got %d", lvl, want, got)
		}
	}
}
