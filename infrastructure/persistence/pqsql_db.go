package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"vod-catalog/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// PostgresDSN builds a lib/pq connection URL from configuration.
func PostgresDSN(cfg configuration.Db) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := url.Values{}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPostgreSQLDB opens the warm video store connection and pings it.
func NewPostgreSQLDB(cfg configuration.Db) (*sql.DB, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres host is not configured")
	}
	db, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}
