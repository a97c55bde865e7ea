package progression

import "testing"

func ownedSet(ids ...string) func(string) bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return func(id string) bool { return m[id] }
}

func noSpecial(string) bool { return false }

func badgeIDs(badges []Badge) map[string]bool {
	m := make(map[string]bool, len(badges))
	for _, b := range badges {
		m[b.ID] = true
	}
	return m
}

func TestEligibleThresholds(t *testing.T) {
	stats := Stats{XP: 1200, EpisodesWatched: 12, ChaptersRead: 1, StreakDays: 3}
	got := badgeIDs(Eligible(stats, ownedSet(), noSpecial))

	for _, want := range []string{"first-episode", "binge-watcher", "first-chapter", "streak-3", "xp-1000"} {
		if !got[want] {
			t.Errorf("expected %q to be eligible, got %v", want, got)
		}
	}
	for _, not := range []string{"seasoned-viewer", "bookworm", "streak-7", "xp-10000", "discord-join"} {
		if got[not] {
			t.Errorf("did not expect %q to be eligible", not)
		}
	}
}

func TestEligibleSkipsOwned(t *testing.T) {
	stats := Stats{EpisodesWatched: 1}
	first := Eligible(stats, ownedSet(), noSpecial)
	if len(first) != 1 || first[0].ID != "first-episode" {
		t.Fatalf("expected only first-episode, got %v", first)
	}

	// Re-evaluating with the badge owned must be a no-op.
	again := Eligible(stats, ownedSet("first-episode"), noSpecial)
	if len(again) != 0 {
		t.Errorf("expected no badges on re-evaluation, got %v", again)
	}
}

func TestEligibleSpecialRequiresProof(t *testing.T) {
	stats := Stats{}
	if got := Eligible(stats, ownedSet(), noSpecial); len(got) != 0 {
		t.Fatalf("unproven special conditions must not fire, got %v", got)
	}

	seen := func(id string) bool { return id == "discord-join" }
	got := badgeIDs(Eligible(stats, ownedSet(), seen))
	if !got["discord-join"] {
		t.Errorf("expected discord-join after proof, got %v", got)
	}
	if got["night-owl"] {
		t.Errorf("night-owl must stay locked without proof")
	}
}

func TestRegistryUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, b := range Registry() {
		if seen[b.ID] {
			t.Errorf("duplicate badge id %q", b.ID)
		}
		seen[b.ID] = true
		if b.Kind != KindSpecial && b.Threshold <= 0 {
			t.Errorf("badge %q has non-positive threshold", b.ID)
		}
		if b.XPReward <= 0 {
			t.Errorf("badge %q has non-positive reward", b.ID)
		}
	}
}

func TestBadgeByID(t *testing.T) {
	if _, ok := BadgeByID("binge-watcher"); !ok {
		t.Error("expected binge-watcher to exist")
	}
	if _, ok := BadgeByID("no-such-badge"); ok {
		t.Error("unknown id must not resolve")
	}
}
