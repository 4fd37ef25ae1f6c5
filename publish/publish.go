// Package publish sends decoded messages to message brokers as JSON documents.
package publish

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/op/go-logging"
	"github.com/pd0mz/go-lmr/channel"
	"github.com/pd0mz/go-lmr/identifier"
)

var log = logging.MustGetLogger("lmr/publish")

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e channel.Event) error
	Close() error
}

// Identifier is the JSON form of identifier.Identifier.
type Identifier struct {
	Kind     string                  `json:"kind"`
	Role     string                  `json:"role"`
	Value    uint64                  `json:"value,omitempty"`
	Text     string                  `json:"text,omitempty"`
	Channel  *identifier.ChannelInfo `json:"channel,omitempty"`
	Position *identifier.Position    `json:"position,omitempty"`
}

// Envelope is the JSON document published for every event.
type Envelope struct {
	Session     string       `json:"session,omitempty"`
	Channel     string       `json:"channel"`
	Protocol    string       `json:"protocol"`
	Timestamp   time.Time    `json:"timestamp"`
	Type        string       `json:"type"`
	Code        uint32       `json:"code"`
	Valid       bool         `json:"valid"`
	Outcome     string       `json:"outcome"`
	Corrected   int          `json:"corrected,omitempty"`
	Identifiers []Identifier `json:"identifiers,omitempty"`
	Text        string       `json:"text"`
	Raw         string       `json:"raw,omitempty"`
}

// NewEnvelope describes an event. Session tags all events of one decoder run.
func NewEnvelope(session string, e channel.Event) Envelope {
	m := e.Message
	env := Envelope{
		Session:   session,
		Channel:   e.Channel,
		Protocol:  m.Protocol().Key(),
		Timestamp: m.Timestamp().UTC(),
		Type:      m.Name(),
		Code:      m.TypeCode(),
		Valid:     m.Valid(),
		Outcome:   m.Outcome().String(),
		Corrected: m.CorrectedBits(),
		Text:      m.String(),
	}
	if buf := m.Buffer(); buf != nil {
		env.Raw = hex.EncodeToString(buf.Bytes())
	}
	for _, id := range m.Identifiers() {
		env.Identifiers = append(env.Identifiers, Identifier{
			Kind:     id.Kind.String(),
			Role:     id.Role.String(),
			Value:    id.Value,
			Text:     id.Text,
			Channel:  id.Channel,
			Position: id.Position,
		})
	}
	return env
}

// Encode returns the JSON envelope of an event.
func Encode(session string, e channel.Event) ([]byte, error) {
	return json.Marshal(NewEnvelope(session, e))
}

// Handler returns a channel handler publishing every event. Errors are logged.
func Handler(ctx context.Context, p Publisher) channel.Handler {
	return func(e channel.Event) {
		if err := p.Publish(ctx, e); err != nil {
			log.Errorf("publish %s %s: %v", e.Channel, e.Message.Name(), err)
		}
	}
}
