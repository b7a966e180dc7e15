package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port           string
	StoreDriver    string
	MongoURI       string
	DBName         string
	RedisURL       string
	LeaderboardTTL time.Duration
	// FirebaseKey is the service-account JSON; empty disables token checks.
	FirebaseKey       string
	CORSOrigins       []string
	BeansPerIdea      int
	TopSubmitters     int
	ReconcileInterval time.Duration
	RequestTimeout    time.Duration
}

// Load reads .env (if present), an optional config.yaml and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("PORT"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:          v.GetString("MONGO_URI"),
		DBName:            v.GetString("DB_NAME"),
		RedisURL:          v.GetString("REDIS_URL"),
		LeaderboardTTL:    v.GetDuration("LEADERBOARD_TTL"),
		FirebaseKey:       v.GetString("KEY_DATA"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		BeansPerIdea:      v.GetInt("BEANS_PER_IDEA"),
		TopSubmitters:     v.GetInt("TOP_SUBMITTERS_LIMIT"),
		ReconcileInterval: v.GetDuration("RECONCILE_INTERVAL"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_DRIVER", StoreMongo)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("DB_NAME", "idea_central")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LEADERBOARD_TTL", "60s")
	v.SetDefault("KEY_DATA", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BEANS_PER_IDEA", 100)
	v.SetDefault("TOP_SUBMITTERS_LIMIT", 5)
	v.SetDefault("RECONCILE_INTERVAL", "0s")
	v.SetDefault("REQUEST_TIMEOUT", "5s")
}

func validate(cfg *Config) error {
	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %q", StoreMongo)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, cfg.StoreDriver)
	}
	if cfg.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if cfg.BeansPerIdea < 0 {
		return fmt.Errorf("BEANS_PER_IDEA must not be negative")
	}
	if cfg.TopSubmitters <= 0 {
		return fmt.Errorf("TOP_SUBMITTERS_LIMIT must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
