package dmr

import (
	"fmt"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

// Burst registry codes. Data types map onto themselves, voice superframes have a
// code of their own.
const VoiceSuperframe uint8 = 0x10

var burstRegistry = message.NewRegistry(Protocol,
	message.Entry[uint8]{Code: uint8(PIHeader), Name: "PI_HEADER", New: newPrivacyHeader},
	message.Entry[uint8]{Code: VoiceSuperframe, Name: "VOICE", New: newVoice},
)

// BurstRegistry returns the registry of bursts that are not control blocks, link
// control or packet data.
func BurstRegistry() *message.Registry[uint8] { return burstRegistry }

// Privacy algorithms
const (
	AlgorithmBasic uint8 = 0x00
	AlgorithmRC4   uint8 = 0x01
	AlgorithmDES   uint8 = 0x02
	AlgorithmAES   uint8 = 0x05
)

var AlgorithmName = map[uint8]string{
	AlgorithmBasic: "basic privacy",
	AlgorithmRC4:   "RC4",
	AlgorithmDES:   "DES",
	AlgorithmAES:   "AES-256",
}

var (
	piAlgorithm   = bit.Indices(0, 7)
	piFeatureSet  = bit.Indices(8, 15)
	piKeyID       = bit.Indices(16, 23)
	piMessageInd  = bit.Indices(24, 55)
	piDestination = bit.Indices(56, 79)
)

// PrivacyHeader precedes an encrypted voice call.
type PrivacyHeader struct {
	message.Header
	Slot             int
	ColorCode        uint8
	Algorithm        uint8
	FeatureSet       uint8
	KeyID            uint8
	MessageIndicator uint32
	Destination      uint32
}

func newPrivacyHeader(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &PrivacyHeader{
		Header:           h,
		Slot:             ctx.Slot,
		ColorCode:        uint8(ctx.AccessCode),
		Algorithm:        uint8(buf.Int(piAlgorithm)),
		FeatureSet:       uint8(buf.Int(piFeatureSet)),
		KeyID:            uint8(buf.Int(piKeyID)),
		MessageIndicator: buf.Int(piMessageInd),
		Destination:      buf.Int(piDestination),
	}
}

func (m *PrivacyHeader) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{talkgroup(identifier.To, m.Destination)}
}

func (m *PrivacyHeader) String() string {
	name, ok := AlgorithmName[m.Algorithm]
	if !ok {
		name = fmt.Sprintf("algorithm %#02x", m.Algorithm)
	}
	return fmt.Sprintf("%s, %s, key %d, MI %08X", describe(m.Slot, m.ColorCode, m), name, m.KeyID, m.MessageIndicator)
}

// Call is the voice call state of a timeslot, as learned from link control.
type Call struct {
	Source    uint32
	Target    uint32
	Group     bool
	Encrypted bool
}

// Voice reports the start of a voice superframe. The audio is not decoded.
type Voice struct {
	message.Header
	Slot      int
	ColorCode uint8
	Call      Call
	// Superframe counts the superframes since the start of the call.
	Superframe int
}

func newVoice(h message.Header, ctx message.Context) message.Message {
	return &Voice{
		Header:    h,
		Slot:      ctx.Slot,
		ColorCode: uint8(ctx.AccessCode),
	}
}

func (m *Voice) Identifiers() []identifier.Identifier {
	if m.Call.Source == 0 && m.Call.Target == 0 {
		return nil
	}
	to := radio(identifier.To, m.Call.Target)
	if m.Call.Group {
		to = talkgroup(identifier.To, m.Call.Target)
	}
	return []identifier.Identifier{to, radio(identifier.From, m.Call.Source)}
}

func (m *Voice) String() string {
	s := fmt.Sprintf("%s, superframe %d", describe(m.Slot, m.ColorCode, m), m.Superframe)
	if m.Call.Encrypted {
		s += ", encrypted"
	}
	return s
}
