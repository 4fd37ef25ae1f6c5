package p25

// Reason is the deny or queue reason of a response.
type Reason uint8

// ReasonClass is the part of the reason table a code falls in.
type ReasonClass uint8

const (
	ReasonPublished ReasonClass = iota
	ReasonReserved
	ReasonReservedSystem
	ReasonManufacturer
)

var reasonName = map[Reason]string{
	0x10: "requesting unit not valid",
	0x11: "requesting unit not authorized for service",
	0x20: "target unit not valid",
	0x21: "target unit not authorized for service",
	0x2f: "target unit refused the call",
	0x30: "target group not valid",
	0x31: "target group not authorized for service",
	0x40: "invalid dialing",
	0x41: "telephone number not authorized",
	0x42: "PSTN address not valid",
	0x50: "call time-out",
	0x51: "landline terminated the call",
	0x52: "subscriber unit terminated the call",
	0x5f: "call preempted",
	0x60: "site access denial",
	0x61: "PTT collide",
	0x67: "PTT bonk",
	0x77: "call options not supported",
}

// Class returns the table class of the reason. Every 8-bit value belongs to exactly
// one class.
func (r Reason) Class() ReasonClass {
	switch _, ok := reasonName[r]; {
	case ok:
		return ReasonPublished
	case r <= 0x5f:
		return ReasonReserved
	case r <= 0xef:
		return ReasonReservedSystem
	default:
		return ReasonManufacturer
	}
}

func (r Reason) String() string {
	switch r.Class() {
	case ReasonPublished:
		return reasonName[r]
	case ReasonReserved:
		return "reserved"
	case ReasonReservedSystem:
		return "reserved (system)"
	default:
		return "manufacturer specific"
	}
}
