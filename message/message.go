// Package message defines the decoded message model shared by all protocol decoders
// and the registry that maps type codes to message constructors.
package message

import (
	"fmt"
	"strings"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/identifier"
)

// Message is a decoded, typed protocol message. Messages are immutable once
// constructed.
type Message interface {
	Protocol() lmr.Protocol
	Timestamp() time.Time
	// Valid is true if the message passed or was repaired by its CRC/FEC check.
	Valid() bool
	Outcome() crc.Outcome
	CorrectedBits() int
	Buffer() *bit.Buffer
	TypeCode() uint32
	Name() string
	Identifiers() []identifier.Identifier
	String() string
}

// Header carries the state shared by every message variant. Variants embed it and
// override Identifiers and String.
type Header struct {
	protocol  lmr.Protocol
	timestamp time.Time
	buffer    *bit.Buffer
	code      uint32
	name      string
}

// NewHeader returns a header for a message decoded from buf. A zero timestamp is
// replaced by the current time.
func NewHeader(p lmr.Protocol, code uint32, name string, buf *bit.Buffer, ts time.Time) Header {
	if ts.IsZero() {
		ts = time.Now()
	}
	return Header{protocol: p, timestamp: ts, buffer: buf, code: code, name: name}
}

func (h Header) Protocol() lmr.Protocol { return h.protocol }
func (h Header) Timestamp() time.Time   { return h.timestamp }
func (h Header) Buffer() *bit.Buffer    { return h.buffer }
func (h Header) TypeCode() uint32       { return h.code }
func (h Header) Name() string           { return h.name }

func (h Header) Outcome() crc.Outcome {
	if h.buffer == nil {
		return crc.OutcomeUnknown
	}
	return h.buffer.Outcome()
}

func (h Header) Valid() bool { return h.Outcome().Valid() }

func (h Header) CorrectedBits() int {
	if h.buffer == nil {
		return 0
	}
	return h.buffer.CorrectedBits()
}

// Identifiers is empty for the header itself.
func (h Header) Identifiers() []identifier.Identifier { return nil }

func (h Header) String() string {
	return fmt.Sprintf("%s %s [%s]", h.protocol, h.name, h.Outcome())
}

// Describe renders a message with its identifiers, for variants that have nothing
// else to add to String.
func Describe(m Message) string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s %s", m.Protocol(), m.Name())
	for _, id := range m.Identifiers() {
		s.WriteByte(' ')
		s.WriteString(id.String())
	}
	if !m.Valid() {
		fmt.Fprintf(&s, " [%s]", m.Outcome())
	} else if n := m.CorrectedBits(); n > 0 {
		fmt.Fprintf(&s, " [corrected %d]", n)
	}
	return s.String()
}

// Unknown is returned for type codes without a registered constructor.
type Unknown struct {
	Header
}

// NewUnknown returns an Unknown message for the type code.
func NewUnknown(p lmr.Protocol, code uint32, buf *bit.Buffer, ts time.Time) *Unknown {
	return &Unknown{Header: NewHeader(p, code, "Unknown", buf, ts)}
}

func (m *Unknown) String() string {
	var raw string
	if m.buffer != nil {
		raw = fmt.Sprintf("%X", m.buffer.Bytes())
	}
	return fmt.Sprintf("%s unknown type %#x %s [%s]", m.protocol, m.code, raw, m.Outcome())
}
