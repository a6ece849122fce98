// Package database provides PostgreSQL connection management using pgx, plus
// schema migration for the ticketing tables.
package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds PostgreSQL connection settings read from environment variables.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// configFromEnv reads database config from well-known environment variables,
// falling back to sensible local-development defaults.
func configFromEnv() Config {
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "campustickets"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// NewPool creates and validates a pgxpool connection pool.
// It retries up to 5 times to accommodate containers starting up.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := configFromEnv()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	// Sensible pool defaults for a small service.
	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				break
			}
			pool.Close()
		}
		log.Printf("db connect attempt %d/5 failed: %v - retrying in 2s", attempt, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return pool, nil
}

// schema creates the four ticketing tables. Foreign keys keep referential
// integrity; deleting an event cascades to its tickets, and the unique
// constraint on ticket serials backs the generate-and-check serial scheme.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		role       TEXT NOT NULL CHECK (role IN ('student', 'admin')),
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL UNIQUE,
		location TEXT NOT NULL,
		admin_id TEXT NOT NULL REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		start_time   TIMESTAMPTZ NOT NULL,
		end_time     TIMESTAMPTZ NOT NULL,
		capacity     INTEGER NOT NULL CHECK (capacity > 0),
		seats_left   INTEGER NOT NULL CHECK (seats_left >= 0),
		price        DOUBLE PRECISION NOT NULL DEFAULT 0,
		organizer_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		venue_id     TEXT NOT NULL REFERENCES venues (id),
		CHECK (seats_left <= capacity),
		CHECK (end_time > start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		serial   TEXT NOT NULL UNIQUE,
		user_id  TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
		status   TEXT NOT NULL DEFAULT 'purchased' CHECK (status IN ('purchased', 'checked_in'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_venue ON events (venue_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_event ON tickets (event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_user_event ON tickets (user_id, event_id)`,
}

// Migrate applies the schema. Statements are idempotent so startup can always
// run it.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
