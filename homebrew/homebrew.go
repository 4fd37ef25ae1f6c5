// Package homebrew implements the repeater side of the Homebrew DMR repeater protocol:
// login, authentication, keepalive and reception of DMRD burst packets.
package homebrew

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"
)

var log = logging.MustGetLogger("lmr/homebrew")

var (
	ErrLoginRefused = errors.New("homebrew: login refused by master")
	ErrNotRunning   = errors.New("homebrew: link not running")
)

const (
	DefaultLocal        = "0.0.0.0:62030"
	DefaultRetry        = 5 * time.Second
	DefaultPingInterval = 5 * time.Second
	maxOutstandingPings = 3
)

// Network holds the link settings.
type Network struct {
	AuthKey      string        `yaml:"auth_key"` // plain text, or hex with a 0x prefix
	Local        string        `yaml:"local"`
	LocalID      uint32        `yaml:"local_id"`
	Master       string        `yaml:"master"`
	Retry        time.Duration `yaml:"retry"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// ConfigFunc returns the current repeater configuration, sent after every login.
type ConfigFunc func() RepeaterConfiguration

// BurstFunc is called for every DMRD packet received from the master.
type BurstFunc func(*Data)

type authStatus uint32

const (
	authNone authStatus = iota
	authBegin
	authConfig
	authDone
	authFail
)

var authStatusName = map[authStatus]string{
	authNone:   "login",
	authBegin:  "authenticate",
	authConfig: "configure",
	authDone:   "logged in",
	authFail:   "refused",
}

// Link is a repeater connection to a Homebrew master.
type Link struct {
	// Dump logs a hex dump of every received packet at debug level.
	Dump bool

	network Network
	config  ConfigFunc
	burst   BurstFunc
	authKey []byte
	localID []byte
	master  *net.UDPAddr
	local   *net.UDPAddr

	mu     sync.Mutex
	conn   *net.UDPConn
	status authStatus
	since  time.Time

	outstanding atomic.Int32
	received    atomic.Uint64
	invalid     atomic.Uint64
}

// New returns a link. Missing settings are filled with defaults.
func New(network Network, cf ConfigFunc, bf BurstFunc) (*Link, error) {
	if cf == nil {
		return nil, errors.New("homebrew: config func can't be nil")
	}
	if network.LocalID == 0 {
		return nil, errors.New("homebrew: missing local id")
	}
	if network.Master == "" {
		return nil, errors.New("homebrew: no master address configured")
	}
	if network.Local == "" {
		network.Local = DefaultLocal
	}
	if network.Retry <= 0 {
		network.Retry = DefaultRetry
	}
	if network.PingInterval <= 0 {
		network.PingInterval = DefaultPingInterval
	}

	l := &Link{
		network: network,
		config:  cf,
		burst:   bf,
		localID: []byte(fmt.Sprintf("%08x", network.LocalID)),
	}

	var err error
	if strings.HasPrefix(network.AuthKey, "0x") {
		if l.authKey, err = hex.DecodeString(network.AuthKey[2:]); err != nil {
			return nil, fmt.Errorf("homebrew: auth key: %w", err)
		}
	} else {
		l.authKey = []byte(network.AuthKey)
	}
	if l.local, err = net.ResolveUDPAddr("udp", network.Local); err != nil {
		return nil, fmt.Errorf("homebrew: local address: %w", err)
	}
	if l.master, err = net.ResolveUDPAddr("udp", network.Master); err != nil {
		return nil, fmt.Errorf("homebrew: master address: %w", err)
	}
	return l, nil
}

// LoggedIn reports if the master accepted the login and configuration.
func (l *Link) LoggedIn() bool {
	return l.getStatus() == authDone
}

// Received is the number of DMRD packets received; Invalid counts those that did not parse.
func (l *Link) Received() uint64 { return l.received.Load() }
func (l *Link) Invalid() uint64  { return l.invalid.Load() }

func (l *Link) getStatus() authStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

func (l *Link) setStatus(s authStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status != s {
		log.Debugf("master %s: %s -> %s", l.master, authStatusName[l.status], authStatusName[s])
	}
	l.status, l.since = s, time.Now()
}

// Run logs in with the master and receives packets until the context is done or the
// master refuses the login.
func (l *Link) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp", l.local)
	if err != nil {
		return fmt.Errorf("homebrew: listen %s: %w", l.local, err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	log.Infof("listening on %s, master %s", conn.LocalAddr(), l.master)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		if l.getStatus() == authDone {
			_ = l.Send(l.packet(RepeaterClosing))
		}
		return conn.Close()
	})
	g.Go(func() error { return l.receive(ctx, conn) })
	g.Go(func() error { return l.control(ctx) })

	err = g.Wait()
	l.mu.Lock()
	l.conn = nil
	l.mu.Unlock()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Send writes a datagram to the master.
func (l *Link) Send(data []byte) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return ErrNotRunning
	}
	for len(data) > 0 {
		n, err := conn.WriteToUDP(data, l.master)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (l *Link) receive(ctx context.Context, conn *net.UDPConn) error {
	data := make([]byte, 512)
	for {
		n, peer, err := conn.ReadFromUDP(data)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("homebrew: read: %w", err)
		}
		if !peer.IP.Equal(l.master.IP) || peer.Port != l.master.Port {
			log.Debugf("ignored %d bytes from %s", n, peer)
			continue
		}
		if l.Dump {
			log.Debugf("received from %s:\n%s", peer, hex.Dump(data[:n]))
		}
		if err = l.handle(append([]byte(nil), data[:n]...)); err != nil {
			return err
		}
	}
}

func (l *Link) control(ctx context.Context) error {
	l.login()

	var (
		ticker   = time.NewTicker(min(l.network.Retry, l.network.PingInterval))
		lastPing time.Time
	)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		l.mu.Lock()
		status, since := l.status, l.since
		l.mu.Unlock()

		switch status {
		case authFail:
			return ErrLoginRefused
		case authDone:
			if time.Since(lastPing) < l.network.PingInterval {
				continue
			}
			if l.outstanding.Load() >= maxOutstandingPings {
				log.Warningf("master %s: no response to %d pings, logging in again", l.master, maxOutstandingPings)
				l.login()
				continue
			}
			l.outstanding.Add(1)
			lastPing = time.Now()
			if err := l.Send(l.packet(RepeaterPing)); err != nil {
				log.Errorf("send ping to %s: %v", l.master, err)
			}
		default:
			if time.Since(since) >= l.network.Retry {
				log.Infof("master %s: no reply in %s state, retrying", l.master, authStatusName[status])
				l.login()
			}
		}
	}
}

func (l *Link) login() {
	log.Infof("logging in as %d", l.network.LocalID)
	l.outstanding.Store(0)
	l.setStatus(authNone)
	if err := l.Send(l.packet(RepeaterLogin)); err != nil {
		log.Errorf("send login to %s: %v", l.master, err)
	}
}

// isACK returns the payload after an acknowledgement, which starts with the master ID
// in hex followed by the login nonce if any.
func isACK(data []byte) ([]byte, bool) {
	if len(data) < 6 {
		return nil, false
	}
	if bytes.Equal(data[:6], MasterACK) || bytes.Equal(data[:6], RepeaterACK) {
		return data[6:], true
	}
	return nil, false
}

func nonce(payload []byte) []byte {
	if len(payload) > 8 {
		if _, err := hex.DecodeString(string(payload[:8])); err == nil {
			return payload[8:]
		}
	}
	return payload
}

func (l *Link) handle(data []byte) error {
	if len(data) < 4 {
		return nil
	}
	if bytes.HasPrefix(data, DMRData) {
		l.data(data)
		return nil
	}

	payload, ack := isACK(data)
	nak := bytes.HasPrefix(data, MasterNAK)
	switch status := l.getStatus(); status {
	case authNone:
		switch {
		case ack:
			log.Infof("login accepted by master %s, authenticating", l.master)
			hash := sha256.New()
			hash.Write(nonce(payload))
			hash.Write(l.authKey)
			l.setStatus(authBegin)
			return l.sendLogged(l.packet(RepeaterKey, []byte(hex.EncodeToString(hash.Sum(nil)))...))
		case nak:
			log.Errorf("login refused by master %s", l.master)
			l.setStatus(authFail)
			return ErrLoginRefused
		}

	case authBegin:
		switch {
		case ack:
			config := l.config()
			config.ID = l.network.LocalID
			log.Infof("authenticated with master %s, sending configuration", l.master)
			l.setStatus(authConfig)
			return l.sendLogged(config.Bytes())
		case nak:
			log.Errorf("authentication refused by master %s", l.master)
			l.setStatus(authFail)
			return ErrLoginRefused
		}

	case authConfig:
		switch {
		case ack:
			log.Infof("logged in to master %s", l.master)
			l.setStatus(authDone)
		case nak:
			log.Errorf("configuration refused by master %s", l.master)
			l.setStatus(authFail)
			return ErrLoginRefused
		}

	case authDone:
		switch {
		case bytes.HasPrefix(data, MasterPong):
			l.outstanding.Store(0)
		case bytes.HasPrefix(data, MasterPing):
			return l.sendLogged(l.packet(RepeaterPong))
		case bytes.HasPrefix(data, MasterClosing), nak:
			log.Warningf("master %s closed the link, logging in again", l.master)
			l.login()
		}
	}
	return nil
}

// packet returns a command followed by the local ID and extra data.
func (l *Link) packet(command []byte, extra ...byte) []byte {
	p := make([]byte, 0, len(command)+len(l.localID)+len(extra))
	p = append(p, command...)
	p = append(p, l.localID...)
	return append(p, extra...)
}

func (l *Link) sendLogged(p []byte) error {
	if err := l.Send(p); err != nil {
		log.Errorf("send to %s: %v", l.master, err)
	}
	return nil
}

func (l *Link) data(p []byte) {
	l.received.Add(1)
	d, err := ParseData(p)
	if err != nil {
		l.invalid.Add(1)
		log.Warningf("%v", err)
		return
	}
	if log.IsEnabledFor(logging.DEBUG) {
		log.Debugf("%s", d)
	}
	if l.burst != nil {
		l.burst(d)
	}
}
