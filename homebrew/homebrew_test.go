package homebrew

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"testing"
	"time"
)

func TestParseData(t *testing.T) {
	want := &Data{
		Sequence:   0x2a,
		SrcID:      2041234,
		DstID:      204,
		RepeaterID: 204123401,
		Slot:       2,
		CallType:   CallTypeGroup,
		FrameType:  FrameDataSync,
		DataType:   3,
		StreamID:   0xdeadbeef,
	}
	for i := range want.Payload {
		want.Payload[i] = byte(i)
	}

	raw := want.Bytes()
	if len(raw) != DataSize || !bytes.Equal(raw[:4], DMRData) {
		t.Fatalf("encoded %d bytes: %x", len(raw), raw)
	}
	if raw[15] != 0xa3 {
		t.Fatalf("flags: got %#02x, want 0xa3", raw[15])
	}

	got, err := ParseData(raw)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got.Voice() {
		t.Fatal("data sync frame reported as voice")
	}
	if _, err = got.Burst(); err != nil {
		t.Fatal(err)
	}

	// BER and RSSI trailer
	if _, err = ParseData(append(raw, 0, 0)); err != nil {
		t.Fatal(err)
	}
}

func TestParseDataInvalid(t *testing.T) {
	var tests = []struct {
		name string
		data []byte
	}{
		{"short", []byte("DMRD")},
		{"long", make([]byte, 60)},
		{"command", append([]byte("RPTL"), make([]byte, 49)...)},
	}
	for _, test := range tests {
		if _, err := ParseData(test.data); err == nil {
			t.Fatalf("%s: expected error", test.name)
		}
	}
}

func TestRepeaterConfiguration(t *testing.T) {
	c := RepeaterConfiguration{
		Callsign:    "PD0MZ",
		ID:          2041234,
		RXFreq:      430000000,
		TXFreq:      439400000,
		TXPower:     150,
		ColorCode:   0,
		Latitude:    52.3667,
		Longitude:   4.9,
		Height:      12,
		Location:    "Amsterdam, the Netherlands",
		Description: "test",
	}
	b := c.Bytes()
	if len(b) != ConfigurationSize {
		t.Fatalf("expected %d bytes, got %d", ConfigurationSize, len(b))
	}
	var tests = []struct {
		offset int
		want   string
	}{
		{0, "RPTCPD0MZ   "},
		{12, "001f2592"},
		{20, "430000000439400000"},
		{38, "9901"},
		{62, "Amsterdam, the Nethe"},
	}
	for _, test := range tests {
		if got := string(b[test.offset : test.offset+len(test.want)]); got != test.want {
			t.Fatalf("offset %d: got %q, want %q", test.offset, got, test.want)
		}
	}
}

type testMaster struct {
	t    *testing.T
	conn *net.UDPConn
	peer *net.UDPAddr
}

func newTestMaster(t *testing.T) *testMaster {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testMaster{t: t, conn: conn}
}

func (m *testMaster) expect(prefix []byte) []byte {
	m.t.Helper()
	data := make([]byte, 512)
	for {
		m.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, peer, err := m.conn.ReadFromUDP(data)
		if err != nil {
			m.t.Fatalf("waiting for %s: %v", prefix, err)
		}
		m.peer = peer
		if bytes.HasPrefix(data[:n], prefix) {
			return data[len(prefix):n]
		}
		// Pings may interleave with the login sequence.
		if !bytes.HasPrefix(data[:n], RepeaterPing) {
			m.t.Fatalf("expected %s, got %q", prefix, data[:n])
		}
	}
}

func (m *testMaster) send(data ...[]byte) {
	m.t.Helper()
	if _, err := m.conn.WriteToUDP(bytes.Join(data, nil), m.peer); err != nil {
		m.t.Fatal(err)
	}
}

func testLink(t *testing.T, m *testMaster, bf BurstFunc) (*Link, chan error, context.CancelFunc) {
	t.Helper()
	l, err := New(Network{
		AuthKey:      "passw0rd",
		Local:        "127.0.0.1:0",
		LocalID:      2041234,
		Master:       m.conn.LocalAddr().String(),
		Retry:        time.Second,
		PingInterval: time.Second,
	}, func() RepeaterConfiguration {
		return RepeaterConfiguration{Callsign: "PD0MZ", ColorCode: 1}
	}, bf)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	return l, done, cancel
}

func TestLink(t *testing.T) {
	var (
		m      = newTestMaster(t)
		bursts = make(chan *Data, 1)
	)
	l, done, cancel := testLink(t, m, func(d *Data) { bursts <- d })
	defer cancel()

	id := []byte("001f2592")
	if got := m.expect(RepeaterLogin); !bytes.Equal(got, id) {
		t.Fatalf("login id: got %q", got)
	}
	m.send(MasterACK, []byte("00000001"), []byte("nonce"))

	hash := sha256.Sum256([]byte("noncepassw0rd"))
	if got := m.expect(RepeaterKey); string(got) != string(id)+hex.EncodeToString(hash[:]) {
		t.Fatalf("key: got %q", got)
	}
	m.send(MasterACK, []byte("00000001"))

	if got := m.expect(RepeaterConfig); len(got)+len(RepeaterConfig) != ConfigurationSize || !bytes.Contains(got, id) {
		t.Fatalf("config: got %q", got)
	}
	m.send(RepeaterACK, []byte("00000001"))

	d := &Data{SrcID: 1, DstID: 2, Slot: 1, FrameType: FrameVoiceSync}
	// The burst is delivered once the configuration has been acknowledged.
	deadline := time.Now().Add(2 * time.Second)
	for !l.LoggedIn() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	m.send(d.Bytes())
	select {
	case got := <-bursts:
		if got.SrcID != 1 || got.DstID != 2 || got.Slot != 1 || !got.Voice() {
			t.Fatalf("burst: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for burst")
	}
	if l.Received() != 1 || l.Invalid() != 0 {
		t.Fatalf("received %d, invalid %d", l.Received(), l.Invalid())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for link to stop")
	}
	m.expect(RepeaterClosing)
}

func TestLinkRefused(t *testing.T) {
	m := newTestMaster(t)
	_, done, cancel := testLink(t, m, nil)
	defer cancel()

	m.expect(RepeaterLogin)
	m.send(MasterNAK, []byte("00000001"))
	select {
	case err := <-done:
		if !errors.Is(err, ErrLoginRefused) {
			t.Fatalf("expected ErrLoginRefused, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for link to stop")
	}
}

func TestNew(t *testing.T) {
	cf := func() RepeaterConfiguration { return RepeaterConfiguration{} }
	var tests = []struct {
		name    string
		network Network
		cf      ConfigFunc
	}{
		{"no config func", Network{LocalID: 1, Master: "127.0.0.1:62031"}, nil},
		{"no local id", Network{Master: "127.0.0.1:62031"}, cf},
		{"no master", Network{LocalID: 1}, cf},
		{"bad key", Network{LocalID: 1, Master: "127.0.0.1:62031", AuthKey: "0xzz"}, cf},
	}
	for _, test := range tests {
		if _, err := New(test.network, test.cf, nil); err == nil {
			t.Fatalf("%s: expected error", test.name)
		}
	}
}
