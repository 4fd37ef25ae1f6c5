package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/pd0mz/go-lmr/channel"
)

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Name    string `yaml:"name"`
}

// NATSPublisher publishes events on <subject>.<protocol>.<channel>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	session string
}

// NewNATS connects to a NATS server.
func NewNATS(cfg NATSConfig, session string) (*NATSPublisher, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = "lmr"
	}
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warningf("nats: disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("nats: reconnected to %s", nc.ConnectedUrl())
		}),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: nats connect %s: %w", cfg.URL, err)
	}
	log.Infof("nats: connected to %s", conn.ConnectedUrl())
	return &NATSPublisher{conn: conn, subject: cfg.Subject, session: session}, nil
}

// Subject returns the subject of an event.
func Subject(prefix string, e channel.Event) string {
	parts := []string{prefix, e.Protocol.Key()}
	if e.Channel != "" {
		parts = append(parts, subjectToken(e.Channel))
	}
	return strings.Join(parts, ".")
}

// subjectToken replaces the characters NATS uses as separators and wildcards.
func subjectToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}

func (p *NATSPublisher) Publish(ctx context.Context, e channel.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(p.session, e)
	if err != nil {
		return fmt.Errorf("publish: encode: %w", err)
	}
	if err = p.conn.Publish(Subject(p.subject, e), data); err != nil {
		return fmt.Errorf("publish: nats: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
