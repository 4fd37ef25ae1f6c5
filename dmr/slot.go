package dmr

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc"
	"github.com/pd0mz/go-lmr/fec"
)

// SlotType is the Golay(20, 8) protected color code and data type of a data burst.
type SlotType struct {
	ColorCode uint8
	DataType  DataType
	Outcome   crc.Outcome
}

// DecodeSlotType corrects up to 3 bit errors in the 20 slot type bits.
func DecodeSlotType(bits bit.Bits) SlotType {
	var cw = append(bit.Bits(nil), bits[:SlotBits]...)
	v, o := fec.Golay_20_8_Decode(cw)
	return SlotType{
		ColorCode: v >> 4,
		DataType:  DataType(v & 0x0f),
		Outcome:   o,
	}
}

// EncodeSlotType returns the 20 slot type bits.
func EncodeSlotType(colorCode uint8, dataType DataType) bit.Bits {
	return bit.NewBitsFromUint(uint64(fec.Golay_20_8_Encode(colorCode<<4|uint8(dataType)&0x0f)), SlotBits)
}

func (s SlotType) String() string {
	return fmt.Sprintf("CC %d %s [%s]", s.ColorCode, s.DataType, s.Outcome)
}

// Positions of the TACT bits in the CACH, the other 17 bits carry short LC.
var tactBits = []int{0, 4, 8, 12, 14, 18, 22}

// TACT is the TDMA access channel type sent in the CACH of base station bursts.
type TACT struct {
	Busy    bool
	Slot    int
	LCSS    LCSS
	Outcome crc.Outcome
}

// DecodeCACH returns the Hamming(7, 4) protected TACT of a 24 bit CACH.
func DecodeCACH(cach bit.Bits) TACT {
	var cw = make(bit.Bits, len(tactBits))
	for i, j := range tactBits {
		cw[i] = cach[j]
	}
	o := fec.Hamming7_4_3.Correct(cw)
	return TACT{
		Busy:    cw[0] == 1,
		Slot:    int(cw[1]) + 1,
		LCSS:    LCSS(cw[2]<<1 | cw[3]),
		Outcome: o,
	}
}

// EncodeCACH returns a CACH carrying the TACT and an empty short LC.
func EncodeCACH(busy bool, slot int, lcss LCSS) bit.Bits {
	var data = make(bit.Bits, 4)
	if busy {
		data[0] = 1
	}
	data[1] = bit.Bit(slot-1) & 1
	data[2] = bit.Bit(lcss>>1) & 1
	data[3] = bit.Bit(lcss) & 1

	var (
		cw   = fec.Hamming7_4_3.Encode(data)
		cach = make(bit.Bits, CACHBits)
	)
	for i, j := range tactBits {
		cach[j] = cw[i]
	}
	return cach
}
