package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds every setting the server reads from the environment.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite, mysql or postgres
	DBDSN    string `env:"DB_DSN" envDefault:"inventrobil.db"`

	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	// First-run bootstrap
	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"owner"`
	AdminPassword     string `env:"ADMIN_PASSWORD" envDefault:"owner123"`
	AdminEmail        string `env:"ADMIN_EMAIL" envDefault:"owner@inventrobil.com"`
	SeedSampleCatalog bool   `env:"SEED_SAMPLE_CATALOG" envDefault:"false"`

	StoreName         string   `env:"STORE_NAME" envDefault:"Inventrobil"`
	CORSOrigins       []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	LowStockThreshold int      `env:"LOW_STOCK_THRESHOLD" envDefault:"10"`
	WebDir            string   `env:"WEB_DIR" envDefault:"./web"`

	RabbitMQ struct {
		URL   string `env:"RABBITMQ_URL"`
		Queue string `env:"RABBITMQ_QUEUE" envDefault:"sales.completed"`
	}

	// S3-compatible bucket for catalog snapshots
	Archive struct {
		Endpoint  string `env:"ARCHIVE_ENDPOINT"`
		Bucket    string `env:"ARCHIVE_BUCKET"`
		Region    string `env:"ARCHIVE_REGION" envDefault:"us-east-1"`
		AccessKey string `env:"ARCHIVE_ACCESS_KEY"`
		SecretKey string `env:"ARCHIVE_SECRET_KEY"`
		UseSSL    bool   `env:"ARCHIVE_USE_SSL" envDefault:"false"`
	}

	Gemini struct {
		APIKey string `env:"GEMINI_API_KEY"`
		Model  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash-001"`
	}
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LoadConfig reads a .env file when one exists, then parses the environment.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (use sqlite, mysql or postgres)", c.DBDriver)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.LowStockThreshold < 0 {
		return errors.New("LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}
