// Package identifier holds the typed values carried by decoded messages: radio
// and talkgroup addresses, channels, system and network codes and free form text.
package identifier

import (
	"fmt"
	"strings"

	lmr "github.com/pd0mz/go-lmr"
)

// Kind of identifier.
type Kind uint8

const (
	Unknown Kind = iota
	Radio
	Talkgroup
	Channel
	System
	Network // P25 WACN
	Site
	RFSS
	NAC
	ColorCode
	Prefix
	Fleet
	Status
	Alias
	Location
	Patch
	Telephone
	Message
)

var KindName = map[Kind]string{
	Unknown:   "unknown",
	Radio:     "radio",
	Talkgroup: "talkgroup",
	Channel:   "channel",
	System:    "system",
	Network:   "network",
	Site:      "site",
	RFSS:      "rfss",
	NAC:       "nac",
	ColorCode: "color code",
	Prefix:    "prefix",
	Fleet:     "fleet",
	Status:    "status",
	Alias:     "alias",
	Location:  "location",
	Patch:     "patch",
	Telephone: "telephone",
	Message:   "message",
}

func (k Kind) String() string {
	if s, ok := KindName[k]; ok {
		return s
	}
	return KindName[Unknown]
}

// Role of an identifier in a message.
type Role uint8

const (
	Any Role = iota
	From
	To
	Broadcast
)

var RoleName = map[Role]string{
	Any:       "any",
	From:      "from",
	To:        "to",
	Broadcast: "broadcast",
}

func (r Role) String() string {
	if s, ok := RoleName[r]; ok {
		return s
	}
	return RoleName[Any]
}

// Identifier is a typed value. Numeric kinds use Value, Alias and Message use Text,
// Channel carries a channel descriptor and Location a position.
type Identifier struct {
	Kind     Kind
	Role     Role
	Protocol lmr.Protocol
	Value    uint64
	Text     string
	Channel  *ChannelInfo
	Position *Position
}

// ChannelInfo describes a (logical) channel. Frequencies are in Hz and zero when the
// band plan has no entry for the band.
type ChannelInfo struct {
	Band      uint8
	Number    uint16
	Slot      int
	Downlink  uint64
	Uplink    uint64
	Bandwidth uint64
}

// Position is a WGS84 coordinate in degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// New returns a numeric identifier.
func New(p lmr.Protocol, kind Kind, role Role, value uint64) Identifier {
	return Identifier{Kind: kind, Role: role, Protocol: p, Value: value}
}

// NewText returns a text identifier such as an alias.
func NewText(p lmr.Protocol, kind Kind, role Role, text string) Identifier {
	return Identifier{Kind: kind, Role: role, Protocol: p, Text: text}
}

// NewLocation returns a location identifier.
func NewLocation(p lmr.Protocol, role Role, latitude, longitude float64) Identifier {
	return Identifier{
		Kind:     Location,
		Role:     role,
		Protocol: p,
		Position: &Position{Latitude: latitude, Longitude: longitude},
	}
}

// NewChannel returns a channel identifier. The channel is resolved against the band
// plan, which may be nil.
func NewChannel(p lmr.Protocol, role Role, plan *BandPlan, band uint8, number uint16) Identifier {
	var info = plan.Resolve(band, number)
	return Identifier{
		Kind:     Channel,
		Role:     role,
		Protocol: p,
		Value:    uint64(band)<<12 | uint64(number),
		Channel:  &info,
	}
}

// NewChannelNumber returns a channel identifier for protocols without band plans.
func NewChannelNumber(p lmr.Protocol, role Role, number uint16) Identifier {
	return Identifier{
		Kind:     Channel,
		Role:     role,
		Protocol: p,
		Value:    uint64(number),
		Channel:  &ChannelInfo{Number: number},
	}
}

// Equal reports if both identifiers reference the same entity in the same role.
func (id Identifier) Equal(other Identifier) bool {
	return id.Kind == other.Kind &&
		id.Role == other.Role &&
		id.Protocol == other.Protocol &&
		id.Value == other.Value &&
		id.Text == other.Text
}

func (id Identifier) String() string {
	var s strings.Builder
	s.WriteString(id.Kind.String())
	if id.Role != Any {
		s.WriteByte('(')
		s.WriteString(id.Role.String())
		s.WriteByte(')')
	}
	s.WriteByte('=')
	switch {
	case id.Position != nil:
		fmt.Fprintf(&s, "%.5f,%.5f", id.Position.Latitude, id.Position.Longitude)
	case id.Channel != nil:
		s.WriteString(id.Channel.String())
	case id.Kind == Alias || id.Kind == Message || id.Text != "":
		s.WriteString(id.Text)
	case id.Kind == NAC || id.Kind == Network || id.Kind == System:
		fmt.Fprintf(&s, "%#x", id.Value)
	default:
		fmt.Fprintf(&s, "%d", id.Value)
	}
	return s.String()
}

func (c ChannelInfo) String() string {
	var s = fmt.Sprintf("%d-%d", c.Band, c.Number)
	if c.Slot > 0 {
		s += fmt.Sprintf("/%d", c.Slot)
	}
	if c.Downlink != 0 {
		s += fmt.Sprintf(" %.5f MHz", float64(c.Downlink)/1e6)
	}
	return s
}

// Filter returns the identifiers of the given kind.
func Filter(ids []Identifier, kind Kind) []Identifier {
	var o []Identifier
	for _, id := range ids {
		if id.Kind == kind {
			o = append(o, id)
		}
	}
	return o
}

// Find returns the first identifier with the given kind and role.
func Find(ids []Identifier, kind Kind, role Role) (Identifier, bool) {
	for _, id := range ids {
		if id.Kind == kind && id.Role == role {
			return id, true
		}
	}
	return Identifier{}, false
}
