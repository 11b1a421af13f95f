package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type DBClient struct {
	DB     *sql.DB
	logger *zap.Logger
}

// NewPostgresDB opens and pings the Postgres database at dbURL.
func NewPostgresDB(dbURL string, logger *zap.Logger) (*DBClient, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("postgres connection url is empty")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	logger.Info("Connected to PostgreSQL")
	return &DBClient{DB: db, logger: logger}, nil
}

func (c *DBClient) Close() {
	if c.DB == nil {
		return
	}
	if err := c.DB.Close(); err != nil {
		c.logger.Error("Error closing PostgreSQL connection", zap.Error(err))
		return
	}
	c.logger.Info("PostgreSQL connection closed")
}
