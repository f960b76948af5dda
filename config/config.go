package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const devSecret = "watersync-dev-secret"

type AppConfig struct {
	Port          string
	Timezone      string
	DBDriver      string // sqlite | postgres
	DBPath        string
	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	PageSize      int
	DevLogin      bool
}

// fileConfig is the optional YAML overlay named by WATERSYNC_CONFIG.
// Environment variables win over it.
type fileConfig struct {
	Port          string `yaml:"port"`
	Timezone      string `yaml:"timezone"`
	DBDriver      string `yaml:"db_driver"`
	DBPath        string `yaml:"db_path"`
	DatabaseURL   string `yaml:"database_url"`
	SessionSecret string `yaml:"session_secret"`
	SessionTTL    string `yaml:"session_ttl"`
	PageSize      int    `yaml:"page_size"`
	DevLogin      *bool  `yaml:"dev_login"`
}

func Load() (AppConfig, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[cfg] error loading .env: %v", err)
	}

	var file fileConfig
	if path := os.Getenv("WATERSYNC_CONFIG"); path != "" {
		f, err := readFile(path)
		if err != nil {
			return AppConfig{}, err
		}
		file = f
		log.Printf("[cfg] overlay %s", path)
	}

	get := func(k, fromFile, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		if fromFile != "" {
			return fromFile
		}
		return def
	}

	dev := file.DevLogin != nil && *file.DevLogin
	if v := os.Getenv("DEV_LOGIN"); v != "" {
		dev = v == "true" || v == "1"
	}
	pageSize := strconv.Itoa(file.PageSize)
	if file.PageSize == 0 {
		pageSize = ""
	}

	cfg := AppConfig{
		Port:          get("PORT", file.Port, "8080"),
		Timezone:      get("TZ", file.Timezone, "UTC"),
		DBDriver:      get("DB_DRIVER", file.DBDriver, "sqlite"),
		DBPath:        get("DB_PATH", file.DBPath, "watersync.db"),
		DatabaseURL:   get("DATABASE_URL", file.DatabaseURL, ""),
		SessionSecret: get("SESSION_SECRET", file.SessionSecret, ""),
		DevLogin:      dev,
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", file.SessionTTL, "336h"))
	if err != nil || ttl <= 0 {
		return AppConfig{}, fmt.Errorf("SESSION_TTL: invalid duration")
	}
	cfg.SessionTTL = ttl

	cfg.PageSize, err = strconv.Atoi(get("PAGE_SIZE", pageSize, "25"))
	if err != nil || cfg.PageSize <= 0 {
		return AppConfig{}, fmt.Errorf("PAGE_SIZE: must be a positive number")
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return AppConfig{}, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return AppConfig{}, fmt.Errorf("DB_DRIVER: unknown driver %q", cfg.DBDriver)
	}

	if cfg.SessionSecret == "" {
		if !cfg.DevLogin {
			return AppConfig{}, errors.New("SESSION_SECRET is required unless DEV_LOGIN is on")
		}
		cfg.SessionSecret = devSecret
	}

	log.Printf("[cfg] port=%s tz=%s db=%s page_size=%d session_ttl=%s dev_login=%t",
		cfg.Port, cfg.Timezone, cfg.DBDriver, cfg.PageSize, cfg.SessionTTL, cfg.DevLogin)
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var out fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("parse config %s: %w", path, err)
	}
	return out, nil
}
