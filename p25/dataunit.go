package p25

import (
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Voice and terminator data units are delivered with their NID only.
var dataUnitEntries = []message.Entry[uint8]{
	{Code: uint8(HDU), Name: "HDU", New: newDataUnit},
	{Code: uint8(TDU), Name: "TDU", New: newDataUnit},
	{Code: uint8(LDU1), Name: "LDU1", New: newDataUnit},
	{Code: uint8(LDU2), Name: "LDU2", New: newDataUnit},
	{Code: uint8(TDULC), Name: "TDULC", New: newDataUnit},
}

// DataUnit is a voice or terminator data unit. Its buffer holds the NID bits.
type DataUnit struct {
	message.Header
	NAC  uint16
	DUID DUID
}

func newDataUnit(h message.Header, ctx message.Context) message.Message {
	return &DataUnit{
		Header: h,
		NAC:    uint16(ctx.AccessCode),
		DUID:   DUID(h.TypeCode()),
	}
}

func (m *DataUnit) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{identifier.New(Protocol, identifier.NAC, identifier.Any, uint64(m.NAC))}
}

func (m *DataUnit) String() string { return message.Describe(m) }
