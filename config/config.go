// Package config loads the decoder configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/op/go-logging"
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/homebrew"
	"github.com/pd0mz/go-lmr/publish"
	"github.com/pd0mz/go-lmr/storage"
	"gopkg.in/yaml.v2"
)

// Input formats.
const (
	FormatBits   = "bits"   // ASCII 0 and 1, other characters ignored
	FormatPacked = "packed" // bytes, most significant bit first
	FormatDibits = "dibits" // one symbol 0-3 per byte
)

var Formats = []string{FormatBits, FormatPacked, FormatDibits}

// Config is the root of the configuration file.
type Config struct {
	LogLevel string    `yaml:"log_level"`
	Channels []Channel `yaml:"channels"`
	Outputs  Outputs   `yaml:"outputs"`
	Homebrew *Homebrew `yaml:"homebrew"`
}

// Channel is one decoder pipeline reading a bit stream.
type Channel struct {
	Name     string `yaml:"name"`
	Protocol string `yaml:"protocol"`
	// Input is a file name, "-" for standard input.
	Input  string `yaml:"input"`
	Format string `yaml:"format"`
	// Tolerance overrides the sync tolerance of the protocol when set.
	Tolerance *int `yaml:"tolerance"`
}

// Outputs enables the downstream adapters. Nil or empty entries are disabled.
type Outputs struct {
	Log        bool                      `yaml:"log"`
	NATS       *publish.NATSConfig       `yaml:"nats"`
	MQTT       *publish.MQTTConfig       `yaml:"mqtt"`
	SQLite     string                    `yaml:"sqlite"`
	Postgres   *storage.PostgresConfig   `yaml:"postgres"`
	ClickHouse *storage.ClickHouseConfig `yaml:"clickhouse"`
	// Prometheus is the listen address of the /metrics endpoint.
	Prometheus string `yaml:"prometheus"`
}

// Homebrew connects to a Homebrew master and decodes the DMR bursts of both timeslots
// on one DMR channel.
type Homebrew struct {
	Name     string                         `yaml:"name"`
	Network  homebrew.Network               `yaml:"network"`
	Repeater homebrew.RepeaterConfiguration `yaml:"repeater"`
}

// Default returns a configuration that logs messages and has no channels.
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Outputs:  Outputs{Log: true},
	}
}

// Load reads and validates a configuration file. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	level, err := logging.LogLevel(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// Validate reports the first error in the configuration.
func (c *Config) Validate() error {
	if _, err := logging.LogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	if len(c.Channels) == 0 && c.Homebrew == nil {
		return errors.New("config: no channels and no homebrew link configured")
	}

	names := make(map[string]bool)
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Name == "" {
			return fmt.Errorf("config: channel %d: missing name", i)
		}
		if names[ch.Name] {
			return fmt.Errorf("config: channel %s: duplicate name", ch.Name)
		}
		names[ch.Name] = true
		if _, ok := lmr.ParseProtocol(ch.Protocol); !ok {
			return fmt.Errorf("config: channel %s: unsupported protocol %q", ch.Name, ch.Protocol)
		}
		if ch.Input == "" {
			return fmt.Errorf("config: channel %s: missing input", ch.Name)
		}
		if ch.Format == "" {
			ch.Format = FormatBits
		}
		if !ValidFormat(ch.Format) {
			return fmt.Errorf("config: channel %s: unknown format %q", ch.Name, ch.Format)
		}
		if ch.Tolerance != nil && *ch.Tolerance < 0 {
			return fmt.Errorf("config: channel %s: negative tolerance", ch.Name)
		}
	}

	if h := c.Homebrew; h != nil {
		if h.Name == "" {
			h.Name = "homebrew"
		}
		if h.Network.LocalID == 0 {
			return errors.New("config: homebrew: missing local_id")
		}
		if h.Network.Master == "" {
			return errors.New("config: homebrew: missing master")
		}
	}

	if m := c.Outputs.MQTT; m != nil {
		if m.Broker == "" {
			return errors.New("config: mqtt: missing broker")
		}
		if m.QoS > 1 {
			return fmt.Errorf("config: mqtt: QoS %d not supported", m.QoS)
		}
	}
	return nil
}

// ValidFormat reports if s names an input format.
func ValidFormat(s string) bool {
	return slices.Contains(Formats, s)
}

// ProtocolValue returns the parsed protocol of a validated channel.
func (ch Channel) ProtocolValue() lmr.Protocol {
	p, _ := lmr.ParseProtocol(ch.Protocol)
	return p
}
