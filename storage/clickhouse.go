package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ClickHouseDB is a ClickHouse message log.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open clickhouse: %w", err)
	}
	if err = conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("storage: ping clickhouse: %w", err)
	}
	log.Infof("clickhouse: connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return &ClickHouseDB{conn: conn}, nil
}

func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS messages (
		session     String,
		channel     LowCardinality(String),
		protocol    LowCardinality(String),
		timestamp   DateTime64(3),
		type        LowCardinality(String),
		code        UInt32,
		valid       Bool,
		outcome     LowCardinality(String),
		corrected   UInt16,
		identifiers String,
		text        String,
		raw         String
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (protocol, type, timestamp)`)
	if err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

func (d *ClickHouseDB) Insert(ctx context.Context, r Record) error {
	err := d.conn.Exec(ctx, `
		INSERT INTO messages (session, channel, protocol, timestamp, type, code, valid, outcome, corrected, identifiers, text, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Session, r.Channel, r.Protocol, r.Timestamp, r.Type, r.Code, r.Valid,
		r.Outcome, uint16(r.Corrected), r.Identifiers, r.Text, r.Raw)
	if err != nil {
		return fmt.Errorf("storage: insert: %w", err)
	}
	return nil
}

// InsertBatch stores records in one batch.
func (d *ClickHouseDB) InsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO messages (session, channel, protocol, timestamp, type, code, valid, outcome, corrected, identifiers, text, raw)
	`)
	if err != nil {
		return fmt.Errorf("storage: prepare batch: %w", err)
	}
	for _, r := range records {
		if err = batch.Append(r.Session, r.Channel, r.Protocol, r.Timestamp, r.Type, r.Code, r.Valid,
			r.Outcome, uint16(r.Corrected), r.Identifiers, r.Text, r.Raw); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("storage: append batch: %w", err)
		}
	}
	if err = batch.Send(); err != nil {
		return fmt.Errorf("storage: send batch: %w", err)
	}
	return nil
}
