package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Projects ProjectsConfig
	Session  SessionConfig
	Gallery  GalleryConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Address        string   `env:"GALLERY_ADDR" envDefault:":8080"`
	AllowedOrigins []string `env:"GALLERY_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

type ProjectsConfig struct {
	Source   string        `env:"GALLERY_PROJECTS_SOURCE" envDefault:"allprojects.json"`
	FeedURL  string        `env:"GALLERY_PROJECTS_FEED"`
	CacheTTL time.Duration `env:"GALLERY_CACHE_TTL" envDefault:"1m"`
}

type SessionConfig struct {
	Secret string        `env:"GALLERY_SESSION_SECRET" envDefault:"change-me-in-production"`
	TTL    time.Duration `env:"GALLERY_SESSION_TTL" envDefault:"24h"`
}

type GalleryConfig struct {
	WheelDebounce time.Duration `env:"GALLERY_WHEEL_DEBOUNCE" envDefault:"200ms"`
	ItemHeight    float64       `env:"GALLERY_ITEM_HEIGHT" envDefault:"48"`
}

// Load reads the optional env files, then the environment.
func Load(envFiles ...string) (*Config, error) {
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Gallery.ItemHeight <= 0 {
		return nil, fmt.Errorf("GALLERY_ITEM_HEIGHT must be positive, got %v", cfg.Gallery.ItemHeight)
	}
	return cfg, nil
}
