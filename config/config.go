package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret      string `yaml:"secret"`
		ExpiryHours int    `yaml:"expiryHours"`
	} `yaml:"jwt"`

	Sync struct {
		// WebhookKey is the shared secret the bot presents on webhook calls.
		WebhookKey      string `yaml:"webhookKey"`
		LinkCodeTTLMins int    `yaml:"linkCodeTtlMinutes"`
	} `yaml:"sync"`

	Notifier struct {
		IntervalHours  int `yaml:"intervalHours"`
		LookaheadHours int `yaml:"lookaheadHours"`
	} `yaml:"notifier"`

	AniList struct {
		BaseURL string `yaml:"baseUrl"`
	} `yaml:"anilist"`

	MangaDex struct {
		BaseURL string `yaml:"baseUrl"`
	} `yaml:"mangadex"`
}

// Load reads the YAML config file, applies a .env overlay if present, then
// lets environment variables override the secret-bearing fields so deployed
// instances never need secrets on disk.
func Load(path string) (*Config, error) {
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Database.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("WEBHOOK_API_KEY"); v != "" {
		cfg.Sync.WebhookKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.applyDefaults()

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	if cfg.Sync.WebhookKey == "" {
		return nil, fmt.Errorf("sync webhook key is not configured")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.JWT.ExpiryHours == 0 {
		c.JWT.ExpiryHours = 24
	}
	if c.Sync.LinkCodeTTLMins == 0 {
		c.Sync.LinkCodeTTLMins = 10
	}
	if c.Notifier.IntervalHours == 0 {
		c.Notifier.IntervalHours = 6
	}
	if c.Notifier.LookaheadHours == 0 {
		c.Notifier.LookaheadHours = 24
	}
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = "https://graphql.anilist.co"
	}
	if c.MangaDex.BaseURL == "" {
		c.MangaDex.BaseURL = "https://api.mangadex.org"
	}
}
