package channel

import (
	"errors"
	"testing"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/lj1200"
	"github.com/pd0mz/go-lmr/mdc1200"
)

func TestNew(t *testing.T) {
	for _, p := range lmr.Protocols() {
		c, err := New(Config{Name: p.String(), Protocol: p}, func(Event) {})
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if c.Protocol() != p {
			t.Fatalf("%s: got protocol %s", p, c.Protocol())
		}
		if (c.BandPlan() != nil) != (p == lmr.P25) {
			t.Fatalf("%s: band plan %v", p, c.BandPlan())
		}
	}

	if _, err := New(Config{Protocol: lmr.Unknown}, func(Event) {}); !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
	if _, err := New(Config{Protocol: lmr.DMR}, nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}

func TestPushBits(t *testing.T) {
	var events []Event
	c, err := New(Config{Name: "lj", Protocol: lmr.LJ1200}, func(e Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatal(err)
	}

	bad := lj1200.Encode(lj1200.FunctionSite, 0, 2)
	bad[30].Flip()
	for _, payload := range []bit.Bits{lj1200.Encode(lj1200.FunctionTransponder, 0xabcde, 0), bad} {
		c.PushBits(make(bit.Bits, 32))
		c.PushBits(bit.NewBitsFromUint(lj1200.Sync, lj1200.SyncBits))
		c.PushBits(payload)
	}
	c.PushBits(make(bit.Bits, 32))
	c.Flush()

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if e := events[0]; e.Channel != "lj" || e.Protocol != lmr.LJ1200 || !e.Message.Valid() {
		t.Fatalf("event 0: %+v", e)
	}
	if s := c.Stats(); s.Messages != 2 || s.Invalid != 1 || s.Framer.Frames != 2 {
		t.Fatalf("stats: %+v", s)
	}
}

func TestTolerance(t *testing.T) {
	sync := bit.NewBitsFromUint(lj1200.Sync, lj1200.SyncBits)
	sync[3].Flip()
	stream := append(append(append(make(bit.Bits, 32), sync...),
		lj1200.Encode(lj1200.FunctionTransponder, 0xabcde, 0)...), make(bit.Bits, 32)...)

	exact := 0
	var tests = []struct {
		tolerance *int
		want      int
	}{
		{nil, 1},
		{&exact, 0},
	}
	for _, test := range tests {
		var n int
		c, err := New(Config{Protocol: lmr.LJ1200, Tolerance: test.tolerance}, func(Event) { n++ })
		if err != nil {
			t.Fatal(err)
		}
		c.PushBits(stream)
		if n != test.want {
			t.Errorf("tolerance %v: got %d events, want %d", test.tolerance, n, test.want)
		}
	}

	negative := -1
	if _, err := New(Config{Protocol: lmr.LJ1200, Tolerance: &negative}, func(Event) {}); err == nil {
		t.Fatal("expected error for negative tolerance")
	}
}

func TestPushBytes(t *testing.T) {
	var n int
	c, err := New(Config{Protocol: lmr.MDC1200}, func(e Event) { n++ })
	if err != nil {
		t.Fatal(err)
	}
	frame := append(bit.NewBitsFromUint(mdc1200.Sync, mdc1200.SyncBits),
		mdc1200.EncodeBlock(mdc1200.NewBlock(mdc1200.OpPTTID, mdc1200.ArgPostID, 0x0815))...)
	// 8 zero bits, the frame (152 bits) and 16 zero bits fit in 22 bytes.
	padded := append(append(make(bit.Bits, 8), frame...), make(bit.Bits, 16)...)
	c.PushBytes(padded.Bytes())
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}
}

func TestPushBurst(t *testing.T) {
	c, err := New(Config{Protocol: lmr.NXDN}, func(Event) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PushBurst(1, nil, time.Now()); !errors.Is(err, ErrNotDMR) {
		t.Fatalf("expected ErrNotDMR, got %v", err)
	}
}

func TestMulti(t *testing.T) {
	var a, b int
	h := Multi(func(Event) { a++ }, nil, func(Event) { b++ })
	h(Event{})
	h(Event{})
	if a != 2 || b != 2 {
		t.Fatalf("got %d and %d calls", a, b)
	}
}
