package main

import (
	"context"
	"log"
	"strconv"
	"time"

	"kamianime/anilist"
	"kamianime/config"
	"kamianime/controllers"
	"kamianime/db"
	"kamianime/events"
	"kamianime/internal/relay"
	"kamianime/mangadex"
	"kamianime/middlewares"
	"kamianime/routes"
	"kamianime/services"
	"kamianime/store"
	"kamianime/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("./config/config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.Database.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.Close(ctx)
	log.Println("Connected to MongoDB")

	rdb, err := relay.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("Connected to Redis")

	profiles := store.NewMongoProfileStore(database)
	codes := store.NewMongoLinkCodeStore(database)
	guilds := store.NewMongoGuildStore(database)

	bus := events.NewBus()
	publisher := relay.NewPublisher(rdb)

	gamification := services.NewGamificationService(profiles, bus, publisher)
	linking := services.NewLinkingService(codes, profiles, gamification, bus, publisher,
		time.Duration(cfg.Sync.LinkCodeTTLMins)*time.Minute)
	sync := services.NewSyncService(cfg.Sync.WebhookKey, relay.NewDeduper(rdb),
		gamification, profiles, bus, publisher)

	controllers.Setup(controllers.Env{
		Profiles:     profiles,
		Guilds:       guilds,
		Gamification: gamification,
		Linking:      linking,
		Sync:         sync,
		Limiter:      relay.NewRateLimiter(rdb, 30, time.Minute),
		AniList:      anilist.NewClient(cfg.AniList.BaseURL),
		MangaDex:     mangadex.NewClient(cfg.MangaDex.BaseURL),
		JWTSecret:    cfg.JWT.Secret,
		JWTExpiry:    time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		WebhookKey:   cfg.Sync.WebhookKey,
	})

	hub := websocket.NewHub()
	go hub.Run(bus)

	router := setupRouter(cfg, hub)
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config, hub *websocket.Hub) *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(204) })

	// Public routes
	router.POST("/signup", routes.SignUpRouteHandler)
	router.POST("/login", routes.LoginRouteHandler)
	router.GET("/profile/:id", routes.GetProfileRouteHandler)
	router.GET("/content/anime/:id", routes.LookupAnimeRouteHandler)
	router.GET("/content/manga/:id", routes.LookupMangaRouteHandler)

	// Bot-facing routes, authenticated by the shared webhook key.
	router.POST("/sync/webhook", routes.IngestWebhookRouteHandler)
	router.POST("/sync/link/redeem", routes.RedeemLinkCodeRouteHandler)

	// Protected routes (JWT auth)
	auth := router.Group("/")
	auth.Use(middlewares.AuthMiddleware(cfg.JWT.Secret))
	{
		auth.GET("/user/me", routes.MeRouteHandler)
		auth.PUT("/user/updateprofile", routes.UpdateProfileRouteHandler)
		auth.GET("/leaderboard", routes.GetLeaderboardRouteHandler)
		auth.GET("/badges", routes.GetBadgesRouteHandler)

		auth.POST("/watchlist", routes.AddToWatchlistRouteHandler)
		auth.DELETE("/watchlist", routes.RemoveFromWatchlistRouteHandler)
		auth.POST("/library", routes.AddToMangaLibraryRouteHandler)
		auth.DELETE("/library", routes.RemoveFromMangaLibraryRouteHandler)

		auth.POST("/activity/watch", routes.WatchEpisodeRouteHandler)
		auth.POST("/activity/read", routes.ReadChapterRouteHandler)
		auth.POST("/activity/daily", routes.DailyLoginRouteHandler)

		auth.POST("/sync/link", routes.IssueLinkCodeRouteHandler)
		auth.DELETE("/sync/link", routes.UnlinkAccountRouteHandler)
		auth.POST("/sync/force", routes.ForceSyncRouteHandler)
	}

	// Live event stream. Does its own token check because browser WebSocket
	// clients cannot send an Authorization header.
	router.GET("/ws", websocket.Handler(hub, cfg.JWT.Secret))

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(cfg.JWT.Secret), middlewares.AdminMiddleware())
	{
		admin.PUT("/users/:id/premium", routes.SetPremiumRouteHandler)
		admin.PUT("/users/:id/admin", routes.SetAdminRouteHandler)
		admin.POST("/users/:id/xp", routes.AdminAwardXPRouteHandler)
		admin.POST("/users/:id/forcesync", routes.AdminForceSyncRouteHandler)
		admin.POST("/users/:id/linkcode", routes.AdminIssueLinkCodeRouteHandler)
		admin.PUT("/guilds", routes.UpsertGuildRouteHandler)
	}

	return router
}
