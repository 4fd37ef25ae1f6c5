package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/lj1200"
	"github.com/pd0mz/go-lmr/message"
)

func testEvent(name string, function uint8, address uint32) channel.Event {
	buf := bit.NewBufferFromBits(lj1200.Encode(function, address, 0x0123))
	buf.SetOutcome(crc.OutcomePassed)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	return channel.Event{
		Channel:  name,
		Protocol: lmr.LJ1200,
		Message:  lj1200.Registry().Decode(function, buf, message.Context{Timestamp: ts}),
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode("abc", testEvent("cc 1", lj1200.FunctionTransponder, 0x4a2f1))
	if err != nil {
		t.Fatal(err)
	}

	var env Envelope
	if err = json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Session != "abc" || env.Channel != "cc 1" || env.Protocol != "lj1200" {
		t.Fatalf("envelope: %+v", env)
	}
	if env.Type != "TRANSPONDER" || env.Code != uint32(lj1200.FunctionTransponder) || !env.Valid || env.Outcome != "passed" {
		t.Fatalf("envelope: %+v", env)
	}
	if !env.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) || env.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp: %s", env.Timestamp)
	}
	if len(env.Identifiers) != 1 || env.Identifiers[0].Kind != "radio" || env.Identifiers[0].Text != "4A2F1" {
		t.Fatalf("identifiers: %+v", env.Identifiers)
	}
	// 64 payload bits
	if len(env.Raw) != 16 {
		t.Fatalf("raw: %q", env.Raw)
	}
}

func TestEncodeOmitsEmpty(t *testing.T) {
	data, err := Encode("", testEvent("a", lj1200.FunctionSite, 0))
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err = json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"session", "corrected"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("unexpected key %q in %s", key, data)
		}
	}
}

func TestSubject(t *testing.T) {
	var tests = []struct {
		channel, want string
	}{
		{"", "lmr.lj1200"},
		{"site1", "lmr.lj1200.site1"},
		{"site 1.cc", "lmr.lj1200.site_1_cc"},
		{"a*b>c", "lmr.lj1200.a_b_c"},
	}
	for _, test := range tests {
		if got := Subject("lmr", testEvent(test.channel, lj1200.FunctionSite, 0)); got != test.want {
			t.Fatalf("subject %q: got %q, want %q", test.channel, got, test.want)
		}
	}
}

func TestTopic(t *testing.T) {
	var tests = []struct {
		prefix, channel, want string
	}{
		{"lmr", "", "lmr/lj1200"},
		{"lmr/", "site1", "lmr/lj1200/site1"},
		{"radio/lmr", "a/b+c#", "radio/lmr/lj1200/a_b_c_"},
	}
	for _, test := range tests {
		if got := Topic(test.prefix, testEvent(test.channel, lj1200.FunctionSite, 0)); got != test.want {
			t.Fatalf("topic %q %q: got %q, want %q", test.prefix, test.channel, got, test.want)
		}
	}
}

type testPublisher struct {
	events []channel.Event
	err    error
}

func (p *testPublisher) Publish(_ context.Context, e channel.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *testPublisher) Close() error { return nil }

func TestHandler(t *testing.T) {
	p := &testPublisher{}
	h := Handler(context.Background(), p)
	h(testEvent("a", lj1200.FunctionSite, 0))
	h(testEvent("b", lj1200.FunctionReply, 1))
	if len(p.events) != 2 || p.events[1].Channel != "b" {
		t.Fatalf("events: %+v", p.events)
	}

	// Errors are logged, not propagated.
	p.err = errors.New("broker down")
	h(testEvent("c", lj1200.FunctionSite, 0))
	if len(p.events) != 2 {
		t.Fatalf("events: %+v", p.events)
	}
}
