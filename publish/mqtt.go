package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pd0mz/go-lmr/channel"
)

// MQTTConfig holds MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// MQTTPublisher publishes events on <topic>/<protocol>/<channel>.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	session string
}

// NewMQTT connects to an MQTT broker.
func NewMQTT(cfg MQTTConfig, session string) (*MQTTPublisher, error) {
	if cfg.QoS > 1 {
		return nil, fmt.Errorf("publish: mqtt QoS %d not supported", cfg.QoS)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "lmr_" + uuid.NewString()[:8]
	}
	if cfg.Topic == "" {
		cfg.Topic = "lmr"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infof("mqtt: connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warningf("mqtt: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &MQTTPublisher{client: client, topic: cfg.Topic, qos: cfg.QoS, session: session}, nil
}

// Topic returns the topic of an event.
func Topic(prefix string, e channel.Event) string {
	parts := []string{strings.TrimSuffix(prefix, "/"), e.Protocol.Key()}
	if e.Channel != "" {
		parts = append(parts, topicLevel(e.Channel))
	}
	return strings.Join(parts, "/")
}

// topicLevel replaces the characters MQTT uses as separators and wildcards.
func topicLevel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}

func (p *MQTTPublisher) Publish(ctx context.Context, e channel.Event) error {
	data, err := Encode(p.session, e)
	if err != nil {
		return fmt.Errorf("publish: encode: %w", err)
	}
	token := p.client.Publish(Topic(p.topic, e), p.qos, false, data)
	select {
	case <-token.Done():
		if err = token.Error(); err != nil {
			return fmt.Errorf("publish: mqtt: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects after a grace period for in flight messages.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
