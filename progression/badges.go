package progression

// BadgeCategory groups badges in the UI.
type BadgeCategory string

const (
	CategoryAnime     BadgeCategory = "anime"
	CategoryManga     BadgeCategory = "manga"
	CategoryCommunity BadgeCategory = "community"
	CategorySpecial   BadgeCategory = "special"
	CategoryStreak    BadgeCategory = "streak"
)

// BadgeRarity is the badge's display tier.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// ConditionKind selects which stat a badge threshold is tested against.
type ConditionKind string

const (
	KindEpisodes ConditionKind = "episodes"
	KindChapters ConditionKind = "chapters"
	KindStreak   ConditionKind = "streak"
	KindXP       ConditionKind = "xp"
	// KindSpecial conditions are proven externally (discord-join,
	// night-owl); the evaluator only checks whether the caller has
	// recorded them as seen.
	KindSpecial ConditionKind = "special"
)

// Badge is a static definition from the registry, never a per-user record.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    BadgeCategory `json:"category"`
	Rarity      BadgeRarity   `json:"rarity"`
	Kind        ConditionKind `json:"kind"`
	Threshold   int           `json:"threshold,omitempty"`
	XPReward    int           `json:"xpReward"`
}

// Stats is the snapshot a user's badge eligibility is evaluated against.
type Stats struct {
	XP              int
	EpisodesWatched int
	ChaptersRead    int
	StreakDays      int
}

var registry = []Badge{
	{ID: "first-episode", Name: "First Steps", Description: "Watch your first episode", Category: CategoryAnime, Rarity: RarityCommon, Kind: KindEpisodes, Threshold: 1, XPReward: 50},
	{ID: "binge-watcher", Name: "Binge Watcher", Description: "Watch 10 episodes", Category: CategoryAnime, Rarity: RarityCommon, Kind: KindEpisodes, Threshold: 10, XPReward: 100},
	{ID: "seasoned-viewer", Name: "Seasoned Viewer", Description: "Watch 100 episodes", Category: CategoryAnime, Rarity: RarityRare, Kind: KindEpisodes, Threshold: 100, XPReward: 300},
	{ID: "anime-sage", Name: "Anime Sage", Description: "Watch 500 episodes", Category: CategoryAnime, Rarity: RarityEpic, Kind: KindEpisodes, Threshold: 500, XPReward: 1000},

	{ID: "first-chapter", Name: "Page One", Description: "Read your first chapter", Category: CategoryManga, Rarity: RarityCommon, Kind: KindChapters, Threshold: 1, XPReward: 50},
	{ID: "bookworm", Name: "Bookworm", Description: "Read 50 chapters", Category: CategoryManga, Rarity: RarityRare, Kind: KindChapters, Threshold: 50, XPReward: 200},
	{ID: "manga-master", Name: "Manga Master", Description: "Read 500 chapters", Category: CategoryManga, Rarity: RarityEpic, Kind: KindChapters, Threshold: 500, XPReward: 1000},

	{ID: "streak-3", Name: "Warming Up", Description: "3-day activity streak", Category: CategoryStreak, Rarity: RarityCommon, Kind: KindStreak, Threshold: 3, XPReward: 75},
	{ID: "streak-7", Name: "Dedicated", Description: "7-day activity streak", Category: CategoryStreak, Rarity: RarityRare, Kind: KindStreak, Threshold: 7, XPReward: 150},
	{ID: "streak-30", Name: "Unstoppable", Description: "30-day activity streak", Category: CategoryStreak, Rarity: RarityLegendary, Kind: KindStreak, Threshold: 30, XPReward: 750},

	{ID: "xp-1000", Name: "Rising Star", Description: "Earn 1,000 XP", Category: CategoryCommunity, Rarity: RarityCommon, Kind: KindXP, Threshold: 1000, XPReward: 100},
	{ID: "xp-10000", Name: "Kami Rank", Description: "Earn 10,000 XP", Category: CategoryCommunity, Rarity: RarityLegendary, Kind: KindXP, Threshold: 10000, XPReward: 500},

	{ID: "discord-join", Name: "Community Member", Description: "Link your Discord account", Category: CategorySpecial, Rarity: RarityRare, Kind: KindSpecial, XPReward: 100},
	{ID: "night-owl", Name: "Night Owl", Description: "Watch an episode between 2AM and 5AM", Category: CategorySpecial, Rarity: RarityRare, Kind: KindSpecial, XPReward: 100},
}

// Registry returns a copy of the full badge table.
func Registry() []Badge {
	out := make([]Badge, len(registry))
	copy(out, registry)
	return out
}

// BadgeByID looks up a badge definition. ok is false for unknown ids.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range registry {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// Eligible returns badges newly earned against stats: owned badges are
// skipped so repeated evaluation is a no-op, and special kinds require the
// caller to have proven them via specialSeen.
func Eligible(stats Stats, owned func(id string) bool, specialSeen func(id string) bool) []Badge {
	var earned []Badge
	for _, b := range registry {
		if owned(b.ID) {
			continue
		}
		if passes(b, stats, specialSeen) {
			earned = append(earned, b)
		}
	}
	return earned
}

func passes(b Badge, stats Stats, specialSeen func(id string) bool) bool {
	switch b.Kind {
	case KindEpisodes:
		return stats.EpisodesWatched >= b.Threshold
	case KindChapters:
		return stats.ChaptersRead >= b.Threshold
	case KindStreak:
		return stats.StreakDays >= b.Threshold
	case KindXP:
		return stats.XP >= b.Threshold
	case KindSpecial:
		return specialSeen != nil && specialSeen(b.ID)
	}
	return false
}
