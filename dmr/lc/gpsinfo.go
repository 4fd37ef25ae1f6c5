package lc

import (
	"fmt"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Position error
// ref: ETSI TS 102 361-2 7.2.15
const (
	ErrorLT2m uint8 = iota
	ErrorLT20m
	ErrorLT200m
	ErrorLT2km
	ErrorLT20km
	ErrorLE200km
	ErrorGT200km
	ErrorUnknown
)

// PositionErrorName is a map of position error to string.
var PositionErrorName = map[uint8]string{
	ErrorLT2m:    "< 2m",
	ErrorLT20m:   "< 20m",
	ErrorLT200m:  "< 200m",
	ErrorLT2km:   "< 2km",
	ErrorLT20km:  "< 20km",
	ErrorLE200km: "<= 200km",
	ErrorGT200km: "> 200km",
	ErrorUnknown: "unknown",
}

var (
	gpsPositionError = bit.Indices(20, 22)
	gpsLongitude     = bit.Indices(23, 47)
	gpsLatitude      = bit.Indices(48, 71)
)

// GpsInfoPDU Conforms to ETSI TS 102 361-2 7.1.1.3. Longitude and latitude are two's
// complement fractions of 360 and 180 degrees.
type GpsInfoPDU struct {
	LC
	PositionError uint8
	Longitude     float64
	Latitude      float64
}

func newGpsInfo(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GpsInfoPDU{
		LC:            newLC(h, ctx),
		PositionError: uint8(buf.Int(gpsPositionError)),
		Longitude:     float64(signed(buf.Int(gpsLongitude), 25)) * 360 / (1 << 25),
		Latitude:      float64(signed(buf.Int(gpsLatitude), 24)) * 180 / (1 << 24),
	}
}

func signed(v uint32, width uint) int32 {
	if v&(1<<(width-1)) != 0 {
		return int32(v) - 1<<width
	}
	return int32(v)
}

func (m *GpsInfoPDU) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{identifier.NewLocation(lmr.DMR, identifier.From, m.Latitude, m.Longitude)}
}

func (m *GpsInfoPDU) String() string {
	return fmt.Sprintf("%s error %s", describe(m.LC, m), PositionErrorName[m.PositionError])
}

// EncodeGpsInfo returns the 72 link control bits of a position.
func EncodeGpsInfo(positionError uint8, latitude, longitude float64) bit.Bits {
	buf := bit.NewBuffer(Bits)
	buf.Load(2, 6, uint64(GpsInfo))
	buf.Load(20, 3, uint64(positionError))
	buf.Load(23, 25, uint64(int64(longitude*(1<<25)/360))&(1<<25-1))
	buf.Load(48, 24, uint64(int64(latitude*(1<<24)/180))&(1<<24-1))
	return buf.Bits()
}
