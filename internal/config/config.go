package config

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/gorm"

	pkgcfg "github.com/checkmoa/auth-service/pkg/config"
	"github.com/checkmoa/auth-service/pkg/db"

	"github.com/checkmoa/auth-service/internal/repo"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret          string
	AccessTokenExpiry  string
	RefreshTokenExpiry string

	// RefreshChecksBlacklist toggles whether refresh rejects logged-out
	// refresh tokens. Defaults to the permissive observed behavior.
	RefreshChecksBlacklist bool

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: pkgcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DBHost:     pkgcfg.EnvDefault("DB_HOST", "localhost"),
		DBPort:     pkgcfg.EnvDefault("DB_PORT", "5432"),
		DBUser:     pkgcfg.EnvDefault("DB_USER", ""),
		DBPassword: pkgcfg.EnvDefault("DB_PASSWORD", ""),
		DBName:     pkgcfg.EnvDefault("DB_NAME", ""),

		JWTSecret:          pkgcfg.EnvDefault("JWT_SECRET", ""),
		AccessTokenExpiry:  pkgcfg.EnvDefault("ACCESS_TOKEN_EXPIRY", "15m"),
		RefreshTokenExpiry: pkgcfg.EnvDefault("REFRESH_TOKEN_EXPIRY", "7d"),

		RefreshChecksBlacklist: pkgcfg.EnvBoolDefault("REFRESH_CHECKS_BLACKLIST", false),

		KafkaBrokers: pkgcfg.CSV(pkgcfg.EnvDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   pkgcfg.EnvDefault("KAFKA_TOPIC", "auth.events"),

		ESURL:      pkgcfg.EnvDefault("ES_URL", ""),
		ESUser:     pkgcfg.EnvDefault("ES_USER", ""),
		ESPassword: pkgcfg.EnvDefault("ES_PASSWORD", ""),
	}

	pkgcfg.MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")

	return cfg
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func InitDB(ctx context.Context, cfg *Config) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migration: %w", err)
	}
	return gdb, nil
}
