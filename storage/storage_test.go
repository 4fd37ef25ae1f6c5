package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/lj1200"
	"github.com/pd0mz/go-lmr/message"
)

var testTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testEvent(function uint8, address uint32, outcome crc.Outcome) channel.Event {
	buf := bit.NewBufferFromBits(lj1200.Encode(function, address, 0x0042))
	buf.SetOutcome(outcome)
	return channel.Event{
		Channel:  "lj",
		Protocol: lmr.LJ1200,
		Message:  lj1200.Registry().Decode(function, buf, message.Context{Timestamp: testTime}),
	}
}

func TestNewRecord(t *testing.T) {
	r, err := NewRecord("run1", testEvent(lj1200.FunctionTransponder, 0x12345, crc.CorrectedBy(1)))
	if err != nil {
		t.Fatal(err)
	}
	if r.Session != "run1" || r.Protocol != "lj1200" || r.Type != "TRANSPONDER" || !r.Valid || r.Corrected != 1 {
		t.Fatalf("record: %+v", r)
	}
	var ids []map[string]any
	if err = json.Unmarshal([]byte(r.Identifiers), &ids); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0]["text"] != "12345" {
		t.Fatalf("identifiers: %s", r.Identifiers)
	}
}

func TestSQLite(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "lmr.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	// Schema creation is idempotent.
	if err = db.CreateSchema(ctx); err != nil {
		t.Fatal(err)
	}

	h := Handler(ctx, db, "run1")
	h(testEvent(lj1200.FunctionSite, 0, crc.OutcomePassed))
	h(testEvent(lj1200.FunctionTransponder, 0xabcde, crc.OutcomeFailed))

	records, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	r := records[0]
	if r.Type != "TRANSPONDER" || r.Valid || r.Outcome != "failed" || r.Session != "run1" {
		t.Fatalf("record: %+v", r)
	}
	if r.Code != uint32(lj1200.FunctionTransponder) || !r.Timestamp.Equal(testTime) {
		t.Fatalf("record: %+v", r)
	}
	if records[1].Identifiers == "" || records[1].Raw == "" {
		t.Fatalf("record: %+v", records[1])
	}

	counts, err := db.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["lj1200"] != 2 {
		t.Fatalf("counts: %v", counts)
	}
}

type failingStore struct{ calls int }

func (s *failingStore) CreateSchema(context.Context) error { return nil }
func (s *failingStore) Close() error                       { return nil }

func (s *failingStore) Insert(context.Context, Record) error {
	s.calls++
	return errors.New("disk full")
}

func TestHandlerError(t *testing.T) {
	s := &failingStore{}
	Handler(context.Background(), s, "")(testEvent(lj1200.FunctionSite, 0, crc.OutcomePassed))
	if s.calls != 1 {
		t.Fatalf("expected 1 insert, got %d", s.calls)
	}
}
