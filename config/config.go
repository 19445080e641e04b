// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string

	// JWT signing secret (required in production).
	JWTSecret string

	// Server
	Debug      bool
	Port       string
	TLSDomains []string

	// OpenF1 telemetry API.
	OpenF1BaseURL string
	OpenF1Timeout time.Duration

	// Number of predictions scored in parallel after an import.
	ScoreWorkers int
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	cfg := fromViper(newViper())
	cfg.validate()
	return cfg
}

// LoadTools is Load for operator tools that never sign tokens.
func LoadTools() *Config {
	cfg := fromViper(newViper())
	if err := cfg.checkDB(); err != nil {
		log.Fatal(err)
	}
	return cfg
}

func fromViper(v *viper.Viper) *Config {
	// Defaults
	v.SetDefault("DB_USER", "f1picks")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "f1picks")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "")
	v.SetDefault("DEBUG", false)
	v.SetDefault("OPENF1_BASE_URL", "https://api.openf1.org/v1")
	v.SetDefault("OPENF1_TIMEOUT", "20s")
	v.SetDefault("SCORE_WORKERS", 4)

	return &Config{
		DatabaseURL:   v.GetString("DATABASE_URL"),
		DBUser:        v.GetString("DB_USER"),
		DBPass:        v.GetString("DB_PASS"),
		DBHost:        v.GetString("DB_HOST"),
		DBPort:        v.GetString("DB_PORT"),
		DBName:        v.GetString("DB_NAME"),
		DBSSLMode:     v.GetString("DB_SSLMODE"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		Debug:         v.GetBool("DEBUG"),
		Port:          v.GetString("PORT"),
		TLSDomains:    splitTrimmed(v.GetString("TLS_DOMAINS")),
		OpenF1BaseURL: strings.TrimRight(v.GetString("OPENF1_BASE_URL"), "/"),
		OpenF1Timeout: v.GetDuration("OPENF1_TIMEOUT"),
		ScoreWorkers:  v.GetInt("SCORE_WORKERS"),
	}
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser,
		c.DBPass,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

func (c *Config) checkDB() error {
	if c.DatabaseURL == "" && c.DBPass == "" {
		return fmt.Errorf("config: DATABASE_URL or DB_PASS must be set")
	}
	return nil
}

func (c *Config) validate() {
	if err := c.checkDB(); err != nil {
		log.Fatal(err)
	}
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
	if c.ScoreWorkers < 1 {
		c.ScoreWorkers = 1
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
