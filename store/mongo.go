package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kamianime/apperr"
	"kamianime/db"
	"kamianime/models"
	"kamianime/progression"
)

const casRetries = 5

// MongoProfileStore implements ProfileStore on the users collection.
type MongoProfileStore struct {
	coll *mongo.Collection
}

func NewMongoProfileStore(d *db.DB) *MongoProfileStore {
	return &MongoProfileStore{coll: d.Collection("users")}
}

func parseID(userID string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	return oid, nil
}

func (s *MongoProfileStore) findOne(ctx context.Context, filter bson.M) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.coll.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	return &p, nil
}

func (s *MongoProfileStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoProfileStore) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoProfileStore) GetByDiscordID(ctx context.Context, discordID string) (*models.UserProfile, error) {
	return s.findOne(ctx, bson.M{"discordId": discordID})
}

func (s *MongoProfileStore) Create(ctx context.Context, profile *models.UserProfile) error {
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	profile.Level = progression.Level(profile.XP)
	_, err := s.coll.InsertOne(ctx, profile)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s: %w", profile.Email, apperr.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("profile create: %w", err)
	}
	return nil
}

func (s *MongoProfileStore) SetFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	oid, err := parseID(userID)
	if err != nil {
		return err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("profile update: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoProfileStore) AddToSet(ctx context.Context, userID, field, value string) error {
	oid, err := parseID(userID)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("add to %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *MongoProfileStore) PullFromSet(ctx context.Context, userID, field, value string) error {
	oid, err := parseID(userID)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("pull from %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ApplyProgress implements the compare-and-set loop: the filter includes the
// XP value the mutation was computed from, so a racing writer forces a
// re-read instead of a lost update. Totals are written, never incremented.
func (s *MongoProfileStore) ApplyProgress(ctx context.Context, userID string, mutate func(*models.UserProfile) error) (*models.UserProfile, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		p, err := s.findOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		prevXP := p.XP

		if err := mutate(p); err != nil {
			return nil, err
		}
		if p.XP < 0 {
			return nil, apperr.Validation("xp", "must not be negative")
		}
		p.Level = progression.Level(p.XP)
		p.UpdatedAt = time.Now().UTC()

		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": oid, "xp": prevXP},
			bson.M{"$set": bson.M{
				"xp":              p.XP,
				"level":           p.Level,
				"streak":          p.Streak,
				"lastActiveDate":  p.LastActiveDate,
				"episodesWatched": p.EpisodesWatched,
				"chaptersRead":    p.ChaptersRead,
				"badges":          p.Badges,
				"specialSeen":     p.SpecialSeen,
				"updatedAt":       p.UpdatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("progress write: %w", err)
		}
		if res.MatchedCount == 1 {
			return p, nil
		}
		// Lost the race; re-read and retry.
	}
	return nil, fmt.Errorf("progress write for user %s: contention retries exhausted", userID)
}

func (s *MongoProfileStore) TopByXP(ctx context.Context, limit int) ([]models.UserProfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "xp", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.UserProfile
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("leaderboard decode: %w", err)
	}
	return users, nil
}

// MongoLinkCodeStore implements LinkCodeStore on the link_codes collection.
type MongoLinkCodeStore struct {
	coll *mongo.Collection
}

func NewMongoLinkCodeStore(d *db.DB) *MongoLinkCodeStore {
	return &MongoLinkCodeStore{coll: d.Collection("link_codes")}
}

func (s *MongoLinkCodeStore) Put(ctx context.Context, code models.LinkCode) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"ownerId": code.OwnerID}); err != nil {
		return fmt.Errorf("replace outstanding codes: %w", err)
	}
	if _, err := s.coll.InsertOne(ctx, code); err != nil {
		return fmt.Errorf("store link code: %w", err)
	}
	return nil
}

func (s *MongoLinkCodeStore) Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error) {
	// Mark used unconditionally and decide from the pre-claim document, so
	// two racing redeemers cannot both observe an unused code.
	var before models.LinkCode
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": code},
		bson.M{"$set": bson.M{"used": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("claim link code: %w", err)
	}

	if before.Used {
		return nil, apperr.ErrConflict
	}
	if now.After(before.ExpiresAt) {
		return nil, apperr.ErrExpired
	}
	return &before, nil
}

// MongoGuildStore implements GuildStore on the guilds collection.
type MongoGuildStore struct {
	coll *mongo.Collection
}

func NewMongoGuildStore(d *db.DB) *MongoGuildStore {
	return &MongoGuildStore{coll: d.Collection("guilds")}
}

func (s *MongoGuildStore) Upsert(ctx context.Context, guild models.Guild) error {
	guild.UpdatedAt = time.Now().UTC()
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": guild.GuildID}, guild,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("guild upsert: %w", err)
	}
	return nil
}

func (s *MongoGuildStore) Get(ctx context.Context, guildID string) (*models.Guild, error) {
	var g models.Guild
	err := s.coll.FindOne(ctx, bson.M{"_id": guildID}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("guild lookup: %w", err)
	}
	return &g, nil
}

func (s *MongoGuildStore) WithAiringAlerts(ctx context.Context) ([]models.Guild, error) {
	return s.find(ctx, bson.M{"airingAlerts": true})
}

func (s *MongoGuildStore) WithProgressUpdates(ctx context.Context) ([]models.Guild, error) {
	return s.find(ctx, bson.M{"progressUpdates": true})
}

func (s *MongoGuildStore) find(ctx context.Context, filter bson.M) ([]models.Guild, error) {
	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("guild query: %w", err)
	}
	defer cursor.Close(ctx)

	var guilds []models.Guild
	if err := cursor.All(ctx, &guilds); err != nil {
		return nil, fmt.Errorf("guild decode: %w", err)
	}
	return guilds, nil
}
