package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/lj1200"
	"github.com/pd0mz/go-lmr/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testEvent(function uint8, outcome crc.Outcome) channel.Event {
	buf := bit.NewBufferFromBits(lj1200.Encode(function, 1, 2))
	buf.SetOutcome(outcome)
	return channel.Event{
		Channel:  "lj",
		Protocol: lmr.LJ1200,
		Message:  lj1200.Registry().Decode(function, buf, message.Context{Timestamp: time.Now()}),
	}
}

func TestObserve(t *testing.T) {
	m := New()
	h := m.Handler()
	h(testEvent(lj1200.FunctionSite, crc.OutcomePassed))
	h(testEvent(lj1200.FunctionSite, crc.CorrectedBy(2)))
	h(testEvent(lj1200.FunctionSite, crc.CorrectedBy(1)))
	h(testEvent(lj1200.FunctionReply, crc.OutcomeFailed))

	var tests = []struct {
		labels []string
		want   float64
	}{
		{[]string{"lj", "lj1200", "SITE", "passed"}, 1},
		{[]string{"lj", "lj1200", "SITE", "corrected"}, 2},
		{[]string{"lj", "lj1200", "REPLY", "failed"}, 1},
	}
	for _, test := range tests {
		if got := testutil.ToFloat64(m.messages.WithLabelValues(test.labels...)); got != test.want {
			t.Fatalf("%v: got %v, want %v", test.labels, got, test.want)
		}
	}
	if got := testutil.ToFloat64(m.corrected.WithLabelValues("lj", "lj1200")); got != 3 {
		t.Fatalf("corrected bits: got %v, want 3", got)
	}
}

func TestUpdate(t *testing.T) {
	m := New()
	c, err := channel.New(channel.Config{Name: "lj", Protocol: lmr.LJ1200}, m.Handler())
	if err != nil {
		t.Fatal(err)
	}
	c.PushBits(make(bit.Bits, 32))
	c.PushBits(bit.NewBitsFromUint(lj1200.Sync, lj1200.SyncBits))
	c.PushBits(lj1200.Encode(lj1200.FunctionSite, 0, 7))
	c.PushBits(make(bit.Bits, 32))
	m.Update(c)

	if got := testutil.ToFloat64(m.frames.WithLabelValues("lj")); got != 1 {
		t.Fatalf("frames: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bits.WithLabelValues("lj")); got != 144 {
		t.Fatalf("bits: got %v, want 144", got)
	}
}

func TestHTTPHandler(t *testing.T) {
	m := New()
	m.Observe(testEvent(lj1200.FunctionSite, crc.OutcomePassed))

	rec := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `lmr_messages_total{channel="lj",outcome="passed",protocol="lj1200",type="SITE"} 1`) {
		t.Fatalf("missing counter in:\n%s", body)
	}
}
