package homebrew

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pd0mz/go-lmr/dmr"
)

const (
	// DataSize is the length of a DMRD packet. Some masters append BER and RSSI bytes.
	DataSize         = 53
	DataSizeExtended = 55
	payloadOffset    = 20
)

// Frame types in the DMRD flags byte.
const (
	FrameVoice     uint8 = 0x00
	FrameVoiceSync uint8 = 0x01
	FrameDataSync  uint8 = 0x02
)

var FrameTypeName = map[uint8]string{
	FrameVoice:     "voice",
	FrameVoiceSync: "voice sync",
	FrameDataSync:  "data sync",
	0x03:           "unused",
}

// Call types in the DMRD flags byte.
const (
	CallTypeGroup   uint8 = 0x00
	CallTypePrivate uint8 = 0x01
)

// Data is a DMRD packet: one DMR burst with routing information.
type Data struct {
	Sequence   uint8
	SrcID      uint32
	DstID      uint32
	RepeaterID uint32
	Slot       int // 1 or 2
	CallType   uint8
	FrameType  uint8
	// DataType is the slot type data type for data sync frames, or the voice frame
	// index (0 for A through 5 for F) for voice frames.
	DataType uint8
	StreamID uint32
	Payload  [dmr.BurstSize]byte
}

// ParseData reads a DMRD packet.
func ParseData(data []byte) (*Data, error) {
	if len(data) != DataSize && len(data) != DataSizeExtended {
		return nil, fmt.Errorf("homebrew: invalid packet length %d, expected %d bytes", len(data), DataSize)
	}
	if !bytes.Equal(data[:4], DMRData) {
		return nil, fmt.Errorf("homebrew: not a DMRD packet: %q", data[:4])
	}

	flags := data[15]
	d := &Data{
		Sequence:   data[4],
		SrcID:      uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7]),
		DstID:      uint32(data[8])<<16 | uint32(data[9])<<8 | uint32(data[10]),
		RepeaterID: binary.BigEndian.Uint32(data[11:15]),
		Slot:       1 + int(flags>>7),
		CallType:   (flags >> 6) & 0x01,
		FrameType:  (flags >> 4) & 0x03,
		DataType:   flags & 0x0f,
		StreamID:   binary.BigEndian.Uint32(data[16:20]),
	}
	copy(d.Payload[:], data[payloadOffset:payloadOffset+dmr.BurstSize])
	return d, nil
}

// Bytes returns the packet on the wire.
func (d *Data) Bytes() []byte {
	data := make([]byte, DataSize)
	copy(data, DMRData)
	data[4] = d.Sequence
	data[5], data[6], data[7] = byte(d.SrcID>>16), byte(d.SrcID>>8), byte(d.SrcID)
	data[8], data[9], data[10] = byte(d.DstID>>16), byte(d.DstID>>8), byte(d.DstID)
	binary.BigEndian.PutUint32(data[11:15], d.RepeaterID)
	var slot uint8
	if d.Slot == 2 {
		slot = 1
	}
	data[15] = slot<<7 | (d.CallType&0x01)<<6 | (d.FrameType&0x03)<<4 | d.DataType&0x0f
	binary.BigEndian.PutUint32(data[16:20], d.StreamID)
	copy(data[payloadOffset:], d.Payload[:])
	return data
}

// Burst returns the DMR burst.
func (d *Data) Burst() (*dmr.Burst, error) {
	return dmr.NewBurstFromBytes(d.Payload[:])
}

// Voice reports if the packet carries a voice burst.
func (d *Data) Voice() bool {
	return d.FrameType == FrameVoice || d.FrameType == FrameVoiceSync
}

func (d *Data) String() string {
	var kind string
	if d.Voice() {
		kind = fmt.Sprintf("voice %c", 'A'+rune(d.DataType%6))
	} else {
		kind = dmr.DataType(d.DataType).String()
	}
	return fmt.Sprintf("DMRD seq %d TS%d %d->%d repeater %d stream %08x %s, %s",
		d.Sequence, d.Slot, d.SrcID, d.DstID, d.RepeaterID, d.StreamID, FrameTypeName[d.FrameType], kind)
}
