package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`

	DatabaseType string `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath string `env:"DB_PATH" envDefault:"./familytree.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	// GraphBackend selects where relationship edges live: "sql" or "neo4j".
	GraphBackend string `env:"GRAPH_BACKEND" envDefault:"sql"`
	Neo4j        Neo4jConfig

	Logging LoggingConfig

	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	Tree      TreeConfig
	RateLimit RateLimitConfig
}

// Neo4jConfig describes connectivity to the graph database.
type Neo4jConfig struct {
	URI            string `env:"NEO4J_URI"`
	Database       string `env:"NEO4J_DATABASE"`
	Username       string `env:"NEO4J_USERNAME"`
	Password       string `env:"NEO4J_PASSWORD"`
	MaxConnections int    `env:"NEO4J_MAX_CONNECTIONS" envDefault:"10"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `env:"LOG_LEVEL" envDefault:"info"`
	Format        string `env:"LOG_FORMAT" envDefault:"text"` // text|json
	IncludeCaller bool   `env:"LOG_INCLUDE_CALLER" envDefault:"false"`
}

// TreeConfig bounds tree rendering requests.
type TreeConfig struct {
	DefaultDepth int `env:"TREE_DEFAULT_DEPTH" envDefault:"3"`
	MaxDepth     int `env:"TREE_MAX_DEPTH" envDefault:"10"`
}

// RateLimitConfig governs per-client request budgets on mutating routes.
type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads a .env file when present, then the environment, applying defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	switch strings.ToLower(c.GraphBackend) {
	case "sql", "":
	case "neo4j":
		if c.Neo4j.URI == "" {
			return errors.New("NEO4J_URI is required for the neo4j graph backend")
		}
	default:
		return fmt.Errorf("unsupported graph backend: %s", c.GraphBackend)
	}

	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("TREE_MAX_DEPTH must be positive, got %d", c.Tree.MaxDepth)
	}
	if c.Tree.DefaultDepth < 0 || c.Tree.DefaultDepth > c.Tree.MaxDepth {
		return fmt.Errorf("TREE_DEFAULT_DEPTH %d must be between 0 and %d", c.Tree.DefaultDepth, c.Tree.MaxDepth)
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit requests and window must be positive")
	}
	return nil
}
