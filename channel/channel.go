// Package channel wires a sync framer to the decoder of one protocol and hands every
// decoded message to a handler.
package channel

import (
	"errors"
	"fmt"
	"time"

	"github.com/op/go-logging"
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/dmr"
	"github.com/pd0mz/go-lmr/fleetsync"
	"github.com/pd0mz/go-lmr/framer"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/lj1200"
	"github.com/pd0mz/go-lmr/mdc1200"
	"github.com/pd0mz/go-lmr/message"
	"github.com/pd0mz/go-lmr/mpt1327"
	"github.com/pd0mz/go-lmr/nxdn"
	"github.com/pd0mz/go-lmr/p25"
)

var log = logging.MustGetLogger("lmr/channel")

var (
	ErrProtocol = errors.New("channel: unsupported protocol")
	ErrNotDMR   = errors.New("channel: bursts can only be pushed to DMR channels")
)

// Config describes a logical channel.
type Config struct {
	Name     string
	Protocol lmr.Protocol
	// BandPlan is shared with the P25 decoder. A fresh plan is used if nil.
	BandPlan *identifier.BandPlan
	// Tolerance, if set, overrides the sync tolerance of all patterns. Zero only
	// accepts exact sync matches.
	Tolerance *int
}

// Event is a decoded message on a channel.
type Event struct {
	Channel  string
	Protocol lmr.Protocol
	Message  message.Message
}

// Handler receives events. It runs on the stack of Push.
type Handler func(Event)

// Multi returns a handler calling all handlers in order.
func Multi(handlers ...Handler) Handler {
	return func(e Event) {
		for _, h := range handlers {
			if h != nil {
				h(e)
			}
		}
	}
}

// Stats counts channel activity.
type Stats struct {
	Framer   framer.Stats
	Messages uint64
	Invalid  uint64
	Unknown  uint64
}

type decoder interface {
	Decode(framer.Frame) []message.Message
}

// Channel is a framer and decoder pair. It is not safe for concurrent use.
type Channel struct {
	config  Config
	handler Handler
	framer  *framer.Framer
	decoder decoder
	p25     *p25.Decoder
	dmr     *dmr.Decoder
	stats   Stats
}

// New returns a channel for the configured protocol.
func New(config Config, handler Handler) (*Channel, error) {
	if handler == nil {
		return nil, errors.New("channel: handler can't be nil")
	}
	c := &Channel{config: config, handler: handler}

	var patterns []*framer.Pattern
	switch config.Protocol {
	case lmr.P25:
		c.p25 = p25.NewDecoder(config.BandPlan)
		c.decoder, patterns = c.p25, []*framer.Pattern{c.p25.Pattern()}
	case lmr.DMR:
		c.dmr = dmr.NewDecoder()
		c.decoder, patterns = c.dmr, c.dmr.Patterns()
	case lmr.MPT1327:
		d := mpt1327.NewDecoder()
		c.decoder, patterns = d, d.Patterns()
	case lmr.NXDN:
		d := nxdn.NewDecoder()
		c.decoder, patterns = d, []*framer.Pattern{d.Pattern()}
	case lmr.Fleetsync:
		d := fleetsync.NewDecoder()
		c.decoder, patterns = d, []*framer.Pattern{d.Pattern()}
	case lmr.MDC1200:
		d := mdc1200.NewDecoder()
		c.decoder, patterns = d, []*framer.Pattern{d.Pattern()}
	case lmr.LJ1200:
		d := lj1200.NewDecoder()
		c.decoder, patterns = d, []*framer.Pattern{d.Pattern()}
	default:
		return nil, fmt.Errorf("%w: %s", ErrProtocol, config.Protocol)
	}

	var err error
	if c.framer, err = framer.New(c.frame, patterns...); err != nil {
		return nil, fmt.Errorf("channel %s: %w", config.Name, err)
	}
	if config.Tolerance != nil {
		if *config.Tolerance < 0 {
			return nil, fmt.Errorf("channel %s: negative tolerance %d", config.Name, *config.Tolerance)
		}
		c.framer.SetTolerance("", *config.Tolerance)
	}
	return c, nil
}

func (c *Channel) Name() string           { return c.config.Name }
func (c *Channel) Protocol() lmr.Protocol { return c.config.Protocol }

// BandPlan returns the P25 band plan, or nil for other protocols.
func (c *Channel) BandPlan() *identifier.BandPlan {
	if c.p25 == nil {
		return nil
	}
	return c.p25.BandPlan()
}

// Stats returns the counters.
func (c *Channel) Stats() Stats {
	s := c.stats
	s.Framer = c.framer.Stats()
	return s
}

// Push feeds one bit.
func (c *Channel) Push(b bit.Bit) { c.framer.Push(b) }

// PushBits feeds bits in order.
func (c *Channel) PushBits(bits bit.Bits) { c.framer.PushBits(bits) }

// PushBytes feeds bytes, most significant bit first.
func (c *Channel) PushBytes(data []byte) { c.framer.PushBits(bit.NewBits(data)) }

// Flush drops a pending partial frame.
func (c *Channel) Flush() { c.framer.Flush() }

// PushBurst decodes a DMR burst received without sync search, such as from a repeater
// network. Slot is 1 or 2.
func (c *Channel) PushBurst(slot int, burst *dmr.Burst, ts time.Time) error {
	if c.dmr == nil {
		return ErrNotDMR
	}
	c.emit(c.dmr.DecodeBurst(slot, burst, ts))
	return nil
}

func (c *Channel) frame(f framer.Frame) {
	c.emit(c.decoder.Decode(f))
	if c.p25 != nil && c.config.Tolerance == nil {
		c.framer.SetTolerance(p25.PatternName, c.p25.Tolerance())
	}
}

func (c *Channel) emit(msgs []message.Message) {
	for _, m := range msgs {
		c.stats.Messages++
		if !m.Valid() {
			c.stats.Invalid++
		}
		if _, ok := m.(*message.Unknown); ok {
			c.stats.Unknown++
		}
		if log.IsEnabledFor(logging.DEBUG) {
			log.Debugf("[%s] %s", c.config.Name, m)
		}
		c.handler(Event{Channel: c.config.Name, Protocol: c.config.Protocol, Message: m})
	}
}
