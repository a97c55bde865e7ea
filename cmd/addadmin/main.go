package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kamianime/apperr"
	"kamianime/config"
	"kamianime/db"
	"kamianime/models"
	"kamianime/store"
	"kamianime/utils"
)

// addadmin bootstraps the first admin account by writing directly to the
// database, since the admin HTTP API requires an existing admin token.
func main() {
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", "", "Admin password (required for new accounts)")
	name := flag.String("name", "", "Display name")
	configPath := flag.String("config", "config/config.yml", "Path to config file")
	flag.Parse()

	if *email == "" {
		fmt.Println("Error: email is required")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Close(ctx)

	profiles := store.NewMongoProfileStore(database)

	// Promote the account if it already exists, create it otherwise.
	existing, err := profiles.GetByEmail(ctx, *email)
	switch {
	case err == nil:
		if err := profiles.SetFields(ctx, existing.ID.Hex(), map[string]interface{}{"isAdmin": true}); err != nil {
			log.Fatalf("Failed to promote user: %v", err)
		}
		fmt.Printf("Promoted existing user %s to admin (id %s)\n", *email, existing.ID.Hex())

	case errors.Is(err, apperr.ErrNotFound):
		if *password == "" {
			log.Fatalf("Password is required to create a new admin account")
		}
		hash, err := utils.HashPassword(*password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		displayName := *name
		if displayName == "" {
			displayName = utils.ExtractNameFromEmail(*email)
		}
		now := time.Now().UTC()
		profile := models.UserProfile{
			Email:        *email,
			PasswordHash: hash,
			DisplayName:  displayName,
			IsAdmin:      true,
			Badges:       []string{},
			Watchlist:    []string{},
			MangaLibrary: []string{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := profiles.Create(ctx, &profile); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		fmt.Printf("Admin created: %s (id %s)\n", *email, profile.ID.Hex())

	default:
		log.Fatalf("Database error: %v", err)
	}
}
