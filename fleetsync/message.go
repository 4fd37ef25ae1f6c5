package fleetsync

import (
	"fmt"
	"time"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

var registry *message.Registry[uint8]

func init() {
	b := message.NewBuilder[uint8](Protocol)
	for _, code := range []uint8{TypeANI, TypeStatus, TypeEmergency, TypeLoneWorkerEmergency, TypePaging, TypeAcknowledge} {
		b.Add(code, TypeName[code], newCall)
	}
	registry = b.Add(TypeGPS, TypeName[TypeGPS], newGPS).Build()
}

// Registry returns the message registry keyed by Key.
func Registry() *message.Registry[uint8] { return registry }

// Call is a Fleetsync II data burst between two units.
type Call struct {
	message.Header
	MessageType uint8
	Status      uint16
	FleetFrom   uint16
	IdentFrom   uint16
	FleetTo     uint16
	IdentTo     uint16

	Emergency   bool
	LoneWorker  bool
	Paging      bool
	EOT         bool
	Manual      bool
	ANI         bool
	HasStatus   bool
	Acknowledge bool
	GPS         bool
	FleetExt    bool
}

func parseCall(h message.Header) Call {
	buf := h.Buffer()
	c := Call{
		Header:      h,
		MessageType: uint8(buf.Int(fsMessageType)),
		Status:      uint16(buf.Int(fsStatus)) + StatusOffset,
		FleetFrom:   uint16(buf.Int(fsFleetFrom)) + FleetOffset,
		IdentFrom:   uint16(buf.Int(fsIdentFrom)) + IdentOffset,
		IdentTo:     uint16(buf.Int(fsIdentTo)) + IdentOffset,
		Emergency:   !buf.Flag(fsEmergency),
		LoneWorker:  !buf.Flag(fsLoneWorker),
		Paging:      !buf.Flag(fsPaging),
		EOT:         !buf.Flag(fsEOT),
		Manual:      buf.Flag(fsManual),
		ANI:         buf.Flag(fsANI),
		HasStatus:   buf.Flag(fsStatusFlag),
		Acknowledge: buf.Flag(fsAcknowledge),
		GPS:         buf.Flag(fsGPS),
		FleetExt:    buf.Flag(fsFleetExt),
	}
	if c.FleetExt && buf.Size() >= 2*BlockBits {
		c.FleetTo = uint16(buf.Int(fsFleetTo)) + FleetOffset
	} else {
		c.FleetTo = c.FleetFrom
	}
	return c
}

func newCall(h message.Header, ctx message.Context) message.Message {
	c := parseCall(h)
	return &c
}

// From returns the calling unit as fleet-ident.
func (m *Call) From() string { return fmt.Sprintf("%d-%d", m.FleetFrom, m.IdentFrom) }

// To returns the called unit as fleet-ident.
func (m *Call) To() string { return fmt.Sprintf("%d-%d", m.FleetTo, m.IdentTo) }

func (m *Call) Identifiers() []identifier.Identifier {
	from := identifier.New(Protocol, identifier.Radio, identifier.From, uint64(m.IdentFrom))
	from.Text = m.From()
	ids := []identifier.Identifier{
		identifier.New(Protocol, identifier.Fleet, identifier.From, uint64(m.FleetFrom)),
		from,
	}
	if m.TypeCode() != uint32(TypeANI) {
		to := identifier.New(Protocol, identifier.Radio, identifier.To, uint64(m.IdentTo))
		to.Text = m.To()
		ids = append(ids, identifier.New(Protocol, identifier.Fleet, identifier.To, uint64(m.FleetTo)), to)
	}
	if m.HasStatus {
		ids = append(ids, identifier.New(Protocol, identifier.Status, identifier.Any, uint64(m.Status)))
	}
	return ids
}

func (m *Call) String() string {
	s := fmt.Sprintf("%s from %s", m.Header.String(), m.From())
	if m.TypeCode() != uint32(TypeANI) {
		s += " to " + m.To()
	}
	if m.HasStatus {
		s += fmt.Sprintf(" status %d", m.Status)
	}
	return s
}

// GPS report fields, relative to the start of block 1.
var (
	gpsHours    = bit.Indices(151, 155)
	gpsMinutes  = bit.Indices(156, 161)
	gpsSeconds  = bit.Indices(162, 167)
	gpsChecksum = bit.Indices(192, 199)
	gpsLatDM    = bit.Indices(200, 215)
	gpsLatDec   = bit.Indices(217, 230)
	gpsYear     = bit.Indices(264, 270)
	gpsMonth    = bit.Indices(271, 274)
	gpsDay      = bit.Indices(275, 279)
	gpsLonDM    = bit.Indices(280, 295)
	gpsLonDec   = bit.Indices(297, 303) // upper 7 of 14 bits, the rest overlaps the check bits
	gpsHeading  = bit.Indices(333, 344)
	gpsSpeed    = bit.Indices(463, 470)
	gpsSpeedDec = bit.Indices(471, 478)
)

const noHeading = 0xfff

// GPSReport is a call with a position report in blocks 3 to 8.
type GPSReport struct {
	Call
	Latitude  float64
	Longitude float64
	Heading   float64 // degrees, 0 if unknown
	Speed     float64 // km/h
	Checksum  uint8
	// Time is the UTC fix time, zero when the date is invalid.
	Time time.Time
}

func newGPS(h message.Header, ctx message.Context) message.Message {
	m := &GPSReport{Call: parseCall(h)}
	buf := h.Buffer()
	if buf.Size() < MaxBlocks*BlockBits {
		return &m.Call
	}
	m.Latitude = DegreesDecimalMinutes(buf.Int(gpsLatDM), buf.Int(gpsLatDec))
	m.Longitude = -DegreesDecimalMinutes(buf.Int(gpsLonDM), buf.Int(gpsLonDec)<<7)
	if v := buf.Int(gpsHeading); v != noHeading {
		m.Heading = float64(v) / 10
	}
	m.Speed = float64(buf.Int(gpsSpeed)) + float64(buf.Int(gpsSpeedDec))/256
	m.Checksum = uint8(buf.Int(gpsChecksum))

	var (
		month = int(buf.Int(gpsMonth))
		day   = int(buf.Int(gpsDay)) + 1
	)
	if month >= 1 && month <= 12 {
		m.Time = time.Date(2000+int(buf.Int(gpsYear)), time.Month(month), day,
			int(buf.Int(gpsHours)), int(buf.Int(gpsMinutes)), int(buf.Int(gpsSeconds)), 0, time.UTC)
	}
	return m
}

// DegreesDecimalMinutes converts a DDDMM value and the minute fraction in units of
// 1/10000 minute to decimal degrees.
func DegreesDecimalMinutes(dm, fraction uint32) float64 {
	return float64(dm/100) + float64(dm%100)/60 + float64(fraction)/600000
}

func (m *GPSReport) Identifiers() []identifier.Identifier {
	return append(m.Call.Identifiers(), identifier.NewLocation(Protocol, identifier.From, m.Latitude, m.Longitude))
}

func (m *GPSReport) String() string {
	return fmt.Sprintf("%s position %.5f %.5f heading %.1f speed %.1f", m.Call.String(), m.Latitude, m.Longitude, m.Heading, m.Speed)
}
