package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PostgresDB is a PostgreSQL message log.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres config: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	log.Infof("postgres: connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &PostgresDB{pool: pool}, nil
}

func (d *PostgresDB) Close() error {
	d.pool.Close()
	return nil
}

func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id          BIGSERIAL PRIMARY KEY,
		session     TEXT,
		channel     TEXT NOT NULL,
		protocol    TEXT NOT NULL,
		timestamp   TIMESTAMPTZ NOT NULL,
		type        TEXT NOT NULL,
		code        BIGINT NOT NULL,
		valid       BOOLEAN NOT NULL,
		outcome     TEXT NOT NULL,
		corrected   INTEGER NOT NULL DEFAULT 0,
		identifiers JSONB NOT NULL,
		text        TEXT NOT NULL,
		raw         TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_messages_protocol ON messages(protocol, type);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	`
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

func (d *PostgresDB) Insert(ctx context.Context, r Record) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO messages (session, channel, protocol, timestamp, type, code, valid, outcome, corrected, identifiers, text, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12)
	`, r.Session, r.Channel, r.Protocol, r.Timestamp, r.Type, int64(r.Code), r.Valid,
		r.Outcome, r.Corrected, r.Identifiers, r.Text, r.Raw)
	if err != nil {
		return fmt.Errorf("storage: insert: %w", err)
	}
	return nil
}
