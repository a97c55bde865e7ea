package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"kamianime/apperr"
	"kamianime/models"
	"kamianime/progression"
)

// MemoryProfileStore is an in-memory ProfileStore used by service tests and
// by kamictl's dry-run mode. The single mutex makes ApplyProgress trivially
// atomic, matching the CAS semantics of the Mongo implementation.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*models.UserProfile)}
}

func copyProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	cp.Badges = append([]string(nil), p.Badges...)
	cp.Watchlist = append([]string(nil), p.Watchlist...)
	cp.MangaLibrary = append([]string(nil), p.MangaLibrary...)
	cp.SpecialSeen = append([]string(nil), p.SpecialSeen...)
	return &cp
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copyProfile(p), nil
}

func (s *MemoryProfileStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.Email == email {
			return copyProfile(p), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *MemoryProfileStore) GetByDiscordID(ctx context.Context, discordID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.DiscordID != "" && p.DiscordID == discordID {
			return copyProfile(p), nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *MemoryProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	for _, p := range s.profiles {
		if p.Email == profile.Email {
			return apperr.ErrConflict
		}
	}
	profile.Level = progression.Level(profile.XP)
	s.profiles[profile.ID.Hex()] = copyProfile(profile)
	return nil
}

func (s *MemoryProfileStore) SetFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "displayName":
			p.DisplayName = v.(string)
		case "avatarUrl":
			p.AvatarURL = v.(string)
		case "isAdmin":
			p.IsAdmin = v.(bool)
		case "isPremium":
			p.IsPremium = v.(bool)
		case "discordId":
			p.DiscordID = v.(string)
		}
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryProfileStore) AddToSet(ctx context.Context, userID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	target := s.setField(p, field)
	for _, v := range *target {
		if v == value {
			return nil
		}
	}
	*target = append(*target, value)
	return nil
}

func (s *MemoryProfileStore) PullFromSet(ctx context.Context, userID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	target := s.setField(p, field)
	out := (*target)[:0]
	for _, v := range *target {
		if v != value {
			out = append(out, v)
		}
	}
	*target = out
	return nil
}

func (s *MemoryProfileStore) setField(p *models.UserProfile, field string) *[]string {
	switch field {
	case "watchlist":
		return &p.Watchlist
	case "mangaLibrary":
		return &p.MangaLibrary
	default:
		return &p.Badges
	}
}

func (s *MemoryProfileStore) ApplyProgress(ctx context.Context, userID string, mutate func(*models.UserProfile) error) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	work := copyProfile(p)
	if err := mutate(work); err != nil {
		return nil, err
	}
	if work.XP < 0 {
		return nil, apperr.Validation("xp", "must not be negative")
	}
	work.Level = progression.Level(work.XP)
	work.UpdatedAt = time.Now().UTC()
	s.profiles[userID] = copyProfile(work)
	return work, nil
}

func (s *MemoryProfileStore) TopByXP(ctx context.Context, limit int) ([]models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryLinkCodeStore is an in-memory LinkCodeStore.
type MemoryLinkCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.LinkCode
}

func NewMemoryLinkCodeStore() *MemoryLinkCodeStore {
	return &MemoryLinkCodeStore{codes: make(map[string]*models.LinkCode)}
}

func (s *MemoryLinkCodeStore) Put(ctx context.Context, code models.LinkCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.codes {
		if c.OwnerID == code.OwnerID {
			delete(s.codes, k)
		}
	}
	s.codes[code.Code] = &code
	return nil
}

func (s *MemoryLinkCodeStore) Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	before := *c
	c.Used = true
	if before.Used {
		return nil, apperr.ErrConflict
	}
	if now.After(before.ExpiresAt) {
		return nil, apperr.ErrExpired
	}
	return &before, nil
}

// MemoryGuildStore is an in-memory GuildStore.
type MemoryGuildStore struct {
	mu     sync.Mutex
	guilds map[string]models.Guild
}

func NewMemoryGuildStore() *MemoryGuildStore {
	return &MemoryGuildStore{guilds: make(map[string]models.Guild)}
}

func (s *MemoryGuildStore) Upsert(ctx context.Context, guild models.Guild) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	guild.UpdatedAt = time.Now().UTC()
	s.guilds[guild.GuildID] = guild
	return nil
}

func (s *MemoryGuildStore) Get(ctx context.Context, guildID string) (*models.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[guildID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &g, nil
}

func (s *MemoryGuildStore) WithAiringAlerts(ctx context.Context) ([]models.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Guild
	for _, g := range s.guilds {
		if g.AiringAlerts {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryGuildStore) WithProgressUpdates(ctx context.Context) ([]models.Guild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Guild
	for _, g := range s.guilds {
		if g.ProgressUpdates {
			out = append(out, g)
		}
	}
	return out, nil
}
