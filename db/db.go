package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB is an explicitly constructed database handle. It is created once in main
// and passed into the stores; there are no package-level client singletons.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// extractDBName parses the database name from the URI, defaulting to "kamianime".
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "kamianime"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:]
	}
	return "kamianime"
}

// Connect establishes a MongoDB connection, verifies it with a ping, and
// ensures the indexes the stores rely on.
func Connect(ctx context.Context, uri string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d := &DB{client: client, database: client.Database(extractDBName(uri))}
	if err := d.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Close tears down the client connection.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Collection returns a collection by name.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.database.Collection(name)
}

func (d *DB) ensureIndexes(ctx context.Context) error {
	users := d.Collection("users")
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "discordId", Value: 1}}, Options: options.Index().SetSparse(true)},
		{Keys: bson.D{{Key: "xp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	codes := d.Collection("link_codes")
	_, err = codes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create link code index: %w", err)
	}
	return nil
}
