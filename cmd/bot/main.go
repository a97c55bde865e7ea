package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kamianime/anilist"
	"kamianime/config"
	"kamianime/db"
	"kamianime/discord"
	"kamianime/internal/relay"
	"kamianime/services"
	"kamianime/store"
)

// The bot worker runs two loops: the relay consumer forwarding progression
// events into Discord channels, and the airing notifier.
func main() {
	cfg, err := config.Load("./config/config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Close(context.Background())
	log.Println("Connected to MongoDB")

	rdb, err := relay.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("Connected to Redis")

	profiles := store.NewMongoProfileStore(database)
	guilds := store.NewMongoGuildStore(database)
	sender := discord.NewSender()

	sink := services.NewDiscordSink(guilds, profiles, sender)
	consumer := relay.NewConsumer(rdb, sink)

	notifier := services.NewNotifier(
		anilist.NewClient(cfg.AniList.BaseURL),
		guilds,
		sender,
		time.Duration(cfg.Notifier.IntervalHours)*time.Hour,
		time.Duration(cfg.Notifier.LookaheadHours)*time.Hour,
	)

	go notifier.Run(ctx)

	log.Println("Bot worker started")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Relay consumer failed: %v", err)
	}
	log.Println("Bot worker stopped")
}
