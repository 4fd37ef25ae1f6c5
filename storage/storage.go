// Package storage keeps a log of decoded messages in SQLite, PostgreSQL or ClickHouse.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/publish"
)

var log = logging.MustGetLogger("lmr/storage")

// Store persists records.
type Store interface {
	CreateSchema(ctx context.Context) error
	Insert(ctx context.Context, r Record) error
	Close() error
}

// Record is one row of the message log.
type Record struct {
	Session     string
	Channel     string
	Protocol    string
	Timestamp   time.Time
	Type        string
	Code        uint32
	Valid       bool
	Outcome     string
	Corrected   int
	Identifiers string // JSON array
	Text        string
	Raw         string
}

// NewRecord returns the record of an event.
func NewRecord(session string, e channel.Event) (Record, error) {
	env := publish.NewEnvelope(session, e)
	ids := []byte("[]")
	if len(env.Identifiers) > 0 {
		var err error
		if ids, err = json.Marshal(env.Identifiers); err != nil {
			return Record{}, fmt.Errorf("storage: marshal identifiers: %w", err)
		}
	}
	return Record{
		Session:     env.Session,
		Channel:     env.Channel,
		Protocol:    env.Protocol,
		Timestamp:   env.Timestamp,
		Type:        env.Type,
		Code:        env.Code,
		Valid:       env.Valid,
		Outcome:     env.Outcome,
		Corrected:   env.Corrected,
		Identifiers: string(ids),
		Text:        env.Text,
		Raw:         env.Raw,
	}, nil
}

// Handler returns a channel handler inserting every event. Errors are logged.
func Handler(ctx context.Context, s Store, session string) channel.Handler {
	return func(e channel.Event) {
		r, err := NewRecord(session, e)
		if err == nil {
			err = s.Insert(ctx, r)
		}
		if err != nil {
			log.Errorf("store %s %s: %v", e.Channel, e.Message.Name(), err)
		}
	}
}
