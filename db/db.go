// Package db opens the optional PostgreSQL database backing the ideas store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/alghanim/clawboard/config"
)

const (
	pingAttempts = 10
	pingDelay    = 2 * time.Second
)

// DSN builds a lib/pq connection URL from the database settings.
func DSN(cfg config.DBSettings) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	return u.String()
}

// Connect opens a PostgreSQL pool, waits for the server to answer, and
// applies schema when non-empty.
func Connect(ctx context.Context, cfg config.DBSettings, schema string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Postgres may still be starting.
	for i := 0; i < pingAttempts; i++ {
		if err = conn.PingContext(ctx); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... (%d/%d) %v", i+1, pingAttempts, err)
		select {
		case <-ctx.Done():
			conn.Close()
			return nil, ctx.Err()
		case <-time.After(pingDelay):
		}
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	if schema != "" {
		if _, err := conn.ExecContext(ctx, schema); err != nil {
			conn.Close()
			return nil, fmt.Errorf("schema migration failed: %w", err)
		}
		log.Println("✅ Database schema applied")
	}
	return conn, nil
}
