// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	ServerAddr     string
	JWTSecret      string
	OpenLibraryURL string // empty selects the public endpoint
}

// Load reads configuration from the environment. A missing .env file is not
// an error; a missing DATABASE_URL is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerAddr:     getenv("SERVER_ADDR", ":8080"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		OpenLibraryURL: os.Getenv("OPENLIBRARY_URL"),
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
