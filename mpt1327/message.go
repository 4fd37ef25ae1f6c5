package mpt1327

import (
	"fmt"
	"strings"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/crc/mpt"
	"github.com/pd0mz/go-lmr/identifier"
	"github.com/pd0mz/go-lmr/message"
)

var registry *message.Registry[uint16]

func init() {
	b := message.NewBuilder[uint16](Protocol).
		Add(GTC, "GTC", newGotoChannel).
		Add(MARK, "MARK", newAddressMessage).
		Add(MAINT, "MAINT", newMaintenance).
		Add(CLEAR, "CLEAR", newClear).
		Add(MOVE, "MOVE", newMove).
		Add(BCAST, "BCAST", newBroadcast)

	for i, name := range []string{"ALH", "ALHS", "ALHD", "ALHE", "ALHR", "ALHX", "ALHF"} {
		b.Add(ALH+uint16(i), name, newAloha)
	}
	for i, name := range []string{"ACK", "ACKI", "ACKQ", "ACKX", "ACKV", "ACKE", "ACKT", "ACKB"} {
		b.Add(ACK+uint16(i), name, newAcknowledge)
	}
	b.Add(AHOY, "AHOY", newAhoy).
		Add(AHYX, "AHYX", newAhoy).
		Add(AHYP, "AHYP", newAhoy).
		Add(AHYQ, "AHYQ", newAhoy).
		Add(AHYC, "AHYC", newAhoy)
	for i := uint16(0); i < 16; i++ {
		b.Add(HEAD+i, "HEAD", newShortData)
	}
	registry = b.Build()
}

// Registry returns the message registry keyed by Key.
func Registry() *message.Registry[uint16] { return registry }

// Address carries the prefix and idents of an address codeword.
type Address struct {
	message.Header
	Prefix uint8
	Ident1 uint16
	Ident2 uint16
}

func newAddress(h message.Header, ident2 []int) Address {
	buf := h.Buffer()
	return Address{
		Header: h,
		Prefix: uint8(buf.Int(cwPrefix)),
		Ident1: uint16(buf.Int(cwIdent1)),
		Ident2: uint16(buf.Int(ident2)),
	}
}

func newAddressMessage(h message.Header, ctx message.Context) message.Message {
	m := newAddress(h, cwIdent2)
	return &m
}

func unit(role identifier.Role, prefix uint8, ident uint16) (identifier.Identifier, bool) {
	switch {
	case User(ident):
		id := identifier.New(Protocol, identifier.Radio, role, uint64(prefix)<<13|uint64(ident))
		id.Text = IdentName(prefix, ident)
		return id, true
	case ident == ALLI:
		return identifier.NewText(Protocol, identifier.Talkgroup, role, "ALL"), true
	}
	return identifier.Identifier{}, false
}

// Identifiers returns the called unit (ident 1) and the calling unit (ident 2).
func (m *Address) Identifiers() []identifier.Identifier {
	var ids []identifier.Identifier
	if id, ok := unit(identifier.To, m.Prefix, m.Ident1); ok {
		ids = append(ids, id)
	}
	if id, ok := unit(identifier.From, m.Prefix, m.Ident2); ok {
		ids = append(ids, id)
	}
	return ids
}

func (m *Address) String() string {
	return fmt.Sprintf("%s to %s from %s", m.Header.String(), IdentName(m.Prefix, m.Ident1), IdentName(m.Prefix, m.Ident2))
}

var (
	gtcDivert  = 22
	gtcChannel = bit.Indices(23, 32)
	gtcIdent2  = bit.Indices(33, 45)
)

// GotoChannel (GTC) sends the addressed units to a traffic channel.
type GotoChannel struct {
	Address
	Channel uint16
	Divert  bool
}

func newGotoChannel(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &GotoChannel{
		Address: newAddress(h, gtcIdent2),
		Channel: uint16(buf.Int(gtcChannel)),
		Divert:  buf.Flag(gtcDivert),
	}
}

func (m *GotoChannel) Identifiers() []identifier.Identifier {
	return append(m.Address.Identifiers(), identifier.NewChannelNumber(Protocol, identifier.Any, m.Channel))
}

func (m *GotoChannel) String() string {
	return fmt.Sprintf("%s channel %d", m.Address.String(), m.Channel)
}

var (
	alohaChannel  = bit.Indices(30, 33)
	alohaWait     = bit.Indices(34, 36)
	alohaReserved = bit.Indices(37, 38)
	alohaM        = bit.Indices(39, 43)
	alohaN        = bit.Indices(44, 47)

	// System identity code in the first appended codeword.
	ccscSystem = bit.Indices(1, 15)
)

// Aloha (ALH family) invites random access in the following timeslots.
type Aloha struct {
	Address
	Channel  uint8 // CHAN4
	Wait     uint8
	Reserved uint8
	M        uint8
	N        uint8
	// System is the system identity code, if the appended codeword was received.
	System    uint16
	HasSystem bool
}

func newAloha(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &Aloha{
		Address:  newAddress(h, cwIdent2),
		Channel:  uint8(buf.Int(alohaChannel)),
		Wait:     uint8(buf.Int(alohaWait)),
		Reserved: uint8(buf.Int(alohaReserved)),
		M:        uint8(buf.Int(alohaM)),
		N:        uint8(buf.Int(alohaN)),
	}
	if cont := ctx.Continuation; cont != nil && cont.Size() >= CodewordBits && cont.Outcome().Valid() {
		m.System = uint16(cont.Int(ccscSystem))
		m.HasSystem = true
	}
	return m
}

func (m *Aloha) Identifiers() []identifier.Identifier {
	var ids []identifier.Identifier
	if id, ok := unit(identifier.To, m.Prefix, m.Ident1); ok {
		ids = append(ids, id)
	}
	if m.HasSystem {
		ids = append(ids, identifier.New(Protocol, identifier.System, identifier.Broadcast, uint64(m.System)))
	}
	return ids
}

func (m *Aloha) String() string {
	return fmt.Sprintf("%s wait %d M %d N %d", message.Describe(m), m.Wait, m.M, m.N)
}

// Long acknowledgement (ACKT) appended codeword.
var (
	acktPrefix = bit.Indices(28, 34)
	acktIdent2 = bit.Indices(35, 47)
)

// Acknowledge (ACK family) answers a random access request.
type Acknowledge struct {
	Address
	// System is set from the appended codeword of long acknowledgements.
	System    uint16
	HasSystem bool
}

func newAcknowledge(h message.Header, ctx message.Context) message.Message {
	m := &Acknowledge{Address: newAddress(h, cwIdent2)}
	if cont := ctx.Continuation; cont != nil && cont.Size() >= CodewordBits && cont.Outcome().Valid() {
		m.System = uint16(cont.Int(ccscSystem))
		m.HasSystem = true
		// Inter-prefix calls carry the calling unit in the appended codeword.
		if m.Ident2 == IPFIXI {
			m.Prefix = uint8(cont.Int(acktPrefix))
			m.Ident2 = uint16(cont.Int(acktIdent2))
		}
	}
	return m
}

var (
	ahoyStatus     = bit.Indices(43, 47)
	ahoySlots      = bit.Indices(43, 44)
	ahoyDescriptor = bit.Indices(45, 47)
)

// Ahoy (AHOY family) demands a response from the addressed unit. Status messages
// (AHYQ) carry a status number, short data invitations (AHYC) the number of slots
// and a descriptor.
type Ahoy struct {
	Address
	Status     uint8
	Slots      uint8
	Descriptor uint8
}

func newAhoy(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &Ahoy{Address: newAddress(h, cwIdent2)}
	switch h.TypeCode() {
	case uint32(AHYQ):
		m.Status = uint8(buf.Int(ahoyStatus))
	case uint32(AHYC):
		m.Slots = uint8(buf.Int(ahoySlots))
		m.Descriptor = uint8(buf.Int(ahoyDescriptor))
	}
	return m
}

func (m *Ahoy) Identifiers() []identifier.Identifier {
	ids := m.Address.Identifiers()
	if m.TypeCode() == uint32(AHYQ) {
		ids = append(ids, identifier.New(Protocol, identifier.Status, identifier.Any, uint64(m.Status)))
	}
	return ids
}

func (m *Ahoy) String() string {
	switch m.TypeCode() {
	case uint32(AHYQ):
		return fmt.Sprintf("%s status %d", m.Address.String(), m.Status)
	case uint32(AHYC):
		return fmt.Sprintf("%s slots %d descriptor %d", m.Address.String(), m.Slots, m.Descriptor)
	}
	return m.Address.String()
}

var maintGroup = 37

// Maintenance (MAINT) is sent on a traffic channel during a call.
type Maintenance struct {
	Address
	Group bool
}

func newMaintenance(h message.Header, ctx message.Context) message.Message {
	return &Maintenance{
		Address: newAddress(h, cwIdent2),
		Group:   h.Buffer().Flag(maintGroup),
	}
}

var (
	clearTraffic = bit.Indices(1, 10)
	clearControl = bit.Indices(11, 20)
)

// Clear (CLEAR) sends units on a traffic channel back to the control channel.
type Clear struct {
	message.Header
	TrafficChannel uint16
	ControlChannel uint16
}

func newClear(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	return &Clear{
		Header:         h,
		TrafficChannel: uint16(buf.Int(clearTraffic)),
		ControlChannel: uint16(buf.Int(clearControl)),
	}
}

func (m *Clear) Identifiers() []identifier.Identifier {
	return []identifier.Identifier{
		identifier.NewChannelNumber(Protocol, identifier.From, m.TrafficChannel),
		identifier.NewChannelNumber(Protocol, identifier.To, m.ControlChannel),
	}
}

func (m *Clear) String() string { return message.Describe(m) }

var moveChannel = bit.Indices(30, 39)

// Move (MOVE) sends the addressed units to another control channel.
type Move struct {
	Address
	Channel uint16
}

func newMove(h message.Header, ctx message.Context) message.Message {
	return &Move{
		Address: newAddress(h, cwIdent2),
		Channel: uint16(h.Buffer().Int(moveChannel)),
	}
}

func (m *Move) Identifiers() []identifier.Identifier {
	return append(m.Address.Identifiers(), identifier.NewChannelNumber(Protocol, identifier.To, m.Channel))
}

func (m *Move) String() string { return message.Describe(m) }

// System definitions broadcast in BCAST.
const (
	AnnounceControlChannel uint8 = iota
	WithdrawControlChannel
	CallMaintenanceParameters
	RegistrationParameters
	AdjacentSite
	VoteNow
)

var SystemDefinitionName = map[uint8]string{
	AnnounceControlChannel:    "announce control channel",
	WithdrawControlChannel:    "withdraw control channel",
	CallMaintenanceParameters: "call maintenance parameters",
	RegistrationParameters:    "registration parameters",
	AdjacentSite:              "adjacent site",
	VoteNow:                   "vote now",
}

var (
	bcastSysdef      = bit.Indices(1, 5)
	bcastSystem      = bit.Indices(6, 20)
	bcastChannel     = bit.Indices(30, 39)
	bcastAdjacent    = bit.Indices(40, 43)
	bcastPeriodic    = 30
	bcastInterval    = bit.Indices(31, 35)
	bcastPresselOn   = 36
	bcastIdent1Group = 37
)

// Broadcast (BCAST) carries system parameters.
type Broadcast struct {
	message.Header
	SystemDefinition uint8
	System           uint16
	Channel          uint16
	AdjacentSite     uint8
	// Call maintenance parameters.
	Periodic    bool
	Interval    uint8
	PresselOn   bool
	Ident1Group bool
}

func newBroadcast(h message.Header, ctx message.Context) message.Message {
	buf := h.Buffer()
	m := &Broadcast{
		Header:           h,
		SystemDefinition: uint8(buf.Int(bcastSysdef)),
		System:           uint16(buf.Int(bcastSystem)),
	}
	switch m.SystemDefinition {
	case AnnounceControlChannel, WithdrawControlChannel:
		m.Channel = uint16(buf.Int(bcastChannel))
	case AdjacentSite:
		m.Channel = uint16(buf.Int(bcastChannel))
		m.AdjacentSite = uint8(buf.Int(bcastAdjacent))
	case CallMaintenanceParameters:
		m.Periodic = buf.Flag(bcastPeriodic)
		m.Interval = uint8(buf.Int(bcastInterval))
		m.PresselOn = buf.Flag(bcastPresselOn)
		m.Ident1Group = buf.Flag(bcastIdent1Group)
	}
	return m
}

func (m *Broadcast) Identifiers() []identifier.Identifier {
	ids := []identifier.Identifier{identifier.New(Protocol, identifier.System, identifier.Broadcast, uint64(m.System))}
	if m.Channel > 0 {
		ids = append(ids, identifier.NewChannelNumber(Protocol, identifier.Any, m.Channel))
	}
	if m.SystemDefinition == AdjacentSite {
		ids = append(ids, identifier.New(Protocol, identifier.Site, identifier.Any, uint64(m.AdjacentSite)))
	}
	return ids
}

func (m *Broadcast) String() string {
	name, ok := SystemDefinitionName[m.SystemDefinition]
	if !ok {
		name = fmt.Sprintf("sysdef %d", m.SystemDefinition)
	}
	s := fmt.Sprintf("%s %s", message.Describe(m), name)
	if m.SystemDefinition == CallMaintenanceParameters {
		s += fmt.Sprintf(" interval %ds periodic %t pressel %t", m.Interval, m.Periodic, m.PresselOn)
	}
	return s
}

// Short data message formats, from the transaction flag and general format of the
// first data codeword.
const (
	FormatMPT1327 uint8 = iota
	FormatBinary
	FormatBCD
	FormatTelex
	FormatASCII
	FormatReserved
	FormatSpare
	FormatCommand
	FormatMAP27
)

var FormatName = map[uint8]string{
	FormatMPT1327:  "MPT1327",
	FormatBinary:   "binary",
	FormatBCD:      "BCD",
	FormatTelex:    "telex",
	FormatASCII:    "ASCII",
	FormatReserved: "reserved",
	FormatSpare:    "spare",
	FormatCommand:  "command",
	FormatMAP27:    "MAP27",
}

var (
	headIdent2       = bit.Indices(35, 47)
	sdmTransaction   = 1
	sdmGeneralFormat = bit.Indices(2, 4)
)

// ShortData (HEAD) is a short data message with one to four appended data codewords.
type ShortData struct {
	Address
	Format  uint8
	Payload *bit.Buffer
	Text    string
}

func newShortData(h message.Header, ctx message.Context) message.Message {
	m := &ShortData{Address: newAddress(h, headIdent2)}
	cont := ctx.Continuation
	if cont == nil || cont.Size() < CodewordBits {
		return m
	}
	if cont.Flag(sdmTransaction) {
		m.Format = FormatBinary + uint8(cont.Int(sdmGeneralFormat))
	}
	m.Payload = shortDataPayload(cont, m.Format != FormatMPT1327)
	m.Text = shortDataText(m.Format, m.Payload)
	return m
}

// shortDataPayload concatenates the payload bits of the data codewords. The first
// codeword of each pair carries the segment header.
func shortDataPayload(cont *bit.Buffer, mpt1343 bool) *bit.Buffer {
	var bits bit.Bits
	for i := 0; (i+1)*CodewordBits <= cont.Size(); i++ {
		start := 2
		if i%2 == 0 && mpt1343 {
			start = 6
		}
		base := i * CodewordBits
		bits = append(bits, cont.Slice(base+start, base+mpt.InfoBits).Bits()...)
	}
	return bit.NewBufferFromBits(bits)
}

var (
	telexLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z", "\n", "\n", "", "", " ", " "}
	telexFigures = []string{"-", "?", ":", "", "3", "", "", "", "8", "", "(", ")", ".", ",", "9", "0", "1", "4", "'", "5", "7", "=", "2", "/", "6", "+", "\n", "\n", "", "", " ", " "}
)

const (
	telexLettersShift = 28
	telexFiguresShift = 29
)

// shortDataText decodes the text formats. Character data starts after one spare bit.
func shortDataText(format uint8, payload *bit.Buffer) string {
	switch format {
	case FormatBCD:
		return payload.BCD(0, payload.Size()/4)
	case FormatASCII:
		return payload.ISO7(1, (payload.Size()-1)/7)
	case FormatTelex:
		var (
			s       strings.Builder
			figures bool
		)
		for i := 1; i+5 <= payload.Size(); i += 5 {
			switch v := payload.Range(i, i+4); v {
			case telexLettersShift:
				figures = false
			case telexFiguresShift:
				figures = true
			default:
				if figures {
					s.WriteString(telexFigures[v])
				} else {
					s.WriteString(telexLetters[v])
				}
			}
		}
		return strings.TrimRight(s.String(), " \n")
	}
	return ""
}

// Codewords returns the number of appended data codewords.
func (m *ShortData) Codewords() int { return int(m.TypeCode()-uint32(HEAD))/4 + 1 }

func (m *ShortData) Identifiers() []identifier.Identifier {
	ids := m.Address.Identifiers()
	if m.Text != "" {
		ids = append(ids, identifier.NewText(Protocol, identifier.Message, identifier.Any, m.Text))
	}
	return ids
}

func (m *ShortData) String() string {
	s := fmt.Sprintf("%s %s", m.Address.String(), FormatName[m.Format])
	switch {
	case m.Text != "":
		s += fmt.Sprintf(" %q", m.Text)
	case m.Payload != nil:
		s += fmt.Sprintf(" %X", m.Payload.Bytes())
	}
	return s
}
