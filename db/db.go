package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"quote-funnel-go/config"
)

type DB struct {
	pool *sql.DB
}

func New(cfg *config.Config) (*DB, error) {
	dsn := cfg.DatabaseURL
	// Railway internal Postgres doesn't use SSL; ensure sslmode is set
	if !strings.Contains(dsn, "sslmode=") {
		if strings.Contains(dsn, "?") {
			dsn += "&sslmode=disable"
		} else {
			dsn += "?sslmode=disable"
		}
	}

	log.Printf("Connecting to database...")
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open failed: %w", err)
	}

	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(30 * time.Minute)

	// Retry connection up to 5 times (the deploy platform may start this
	// service before the database is ready)
	var pingErr error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = pool.PingContext(ctx)
		cancel()
		if pingErr == nil {
			break
		}
		log.Printf("DB ping attempt %d/5 failed: %v", attempt, pingErr)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	if pingErr != nil {
		return nil, fmt.Errorf("db: ping failed after 5 attempts: %w", pingErr)
	}

	d := &DB{pool: pool}
	migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer migCancel()
	if err := d.migrate(migCtx); err != nil {
		return nil, fmt.Errorf("db: migration failed: %w", err)
	}

	log.Println("Database connected and migrated")
	return d, nil
}

func (d *DB) Close() error {
	return d.pool.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS quote_submissions (
            id SERIAL PRIMARY KEY,
            run_id TEXT NOT NULL,
            first_name TEXT,
            last_name TEXT,
            email TEXT,
            phone TEXT,
            state TEXT,
            vehicle_count INT DEFAULT 0,
            driver_count INT DEFAULT 0,
            success BOOLEAN DEFAULT FALSE,
            current_stage TEXT,
            message TEXT,
            quotes_found INT DEFAULT 0,
            best_price TEXT,
            error TEXT,
            processing_ms BIGINT DEFAULT 0,
            submitted_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_quote_submissions_email
            ON quote_submissions (email)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_submissions_submitted_at
            ON quote_submissions (submitted_at DESC)`,
	}

	for i, m := range migrations {
		if _, err := d.pool.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
