package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	NatsURL     string `yaml:"nats_url" env:"NATS_URL"`
	HTTPServer  `yaml:"http_server"`
	Tokens      Tokens     `yaml:"tokens"`
	Email       Email      `yaml:"email"`
	Scheduling  Scheduling `yaml:"scheduling"`
	RateLimit   RateLimit  `yaml:"rate_limit"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Tokens struct {
	Secret          string        `yaml:"secret" env:"TOKEN_SECRET" env-required:"true"`
	ActionMaxAge    time.Duration `yaml:"action_max_age" env-default:"168h"`
	DayActionMaxAge time.Duration `yaml:"day_action_max_age" env-default:"168h"`
}

type Email struct {
	ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	From         string `yaml:"from" env:"EMAIL_FROM" env-default:"SquashSync <noreply@squashsync.com>"`
	SiteURL      string `yaml:"site_url" env:"SITE_URL" env-default:"https://www.squashsync.com"`
}

type Scheduling struct {
	Timezone          string `yaml:"timezone" env:"SCHEDULE_TIMEZONE" env-default:"Africa/Johannesburg"`
	FeedLookbackDays  int    `yaml:"feed_lookback_days" env-default:"90"`
	TravelTimeMinutes int    `yaml:"travel_time_minutes" env-default:"30"`
	FeedDomain        string `yaml:"feed_domain" env-default:"squashsync.com"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"5"`
}

// Location resolves the configured timezone.
func (s Scheduling) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	return cfg
}

// Load reads .env (if present), then the YAML file at CONFIG_PATH, then
// environment overrides.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: load .env: %w", op, err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	return LoadFile(configPath)
}

func LoadFile(configPath string) (*Config, error) {
	const op = "config.LoadFile"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := cfg.Scheduling.Location(); err != nil {
		return nil, fmt.Errorf("%s: timezone: %w", op, err)
	}

	return &cfg, nil
}
