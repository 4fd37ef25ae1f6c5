package identifier

import "fmt"

// MaxBands is the number of band identifiers (4 bits).
const MaxBands = 16

// Band is one entry of a band plan, as announced by P25 identifier update messages.
// Frequencies are in Hz.
type Band struct {
	ID        uint8
	Base      uint64
	Spacing   uint64
	Offset    int64 // transmit offset, added to the downlink to get the uplink
	Bandwidth uint64
	Slots     int // TDMA slots per carrier, 1 for FDMA
}

// Downlink returns the downlink frequency of a channel number.
func (b Band) Downlink(number uint16) uint64 {
	return b.Base + b.Spacing*uint64(int(number)/b.slots())
}

// Uplink returns the uplink frequency of a channel number, zero if the offset would
// put it below 0 Hz.
func (b Band) Uplink(number uint16) uint64 {
	f := int64(b.Downlink(number)) + b.Offset
	if f < 0 {
		return 0
	}
	return uint64(f)
}

func (b Band) slots() int {
	if b.Slots < 1 {
		return 1
	}
	return b.Slots
}

func (b Band) String() string {
	return fmt.Sprintf("band %d: base %d Hz, spacing %d Hz, offset %d Hz, bandwidth %d Hz, %d slot(s)",
		b.ID, b.Base, b.Spacing, b.Offset, b.Bandwidth, b.slots())
}

// BandPlan maps band identifiers to bands. A plan belongs to one channel and is not
// safe for concurrent use. The nil plan resolves nothing.
type BandPlan struct {
	bands [MaxBands]*Band
}

// NewBandPlan returns an empty plan.
func NewBandPlan() *BandPlan {
	return &BandPlan{}
}

// Update stores the band under its identifier and reports if the entry changed.
func (p *BandPlan) Update(b Band) bool {
	if p == nil || int(b.ID) >= MaxBands {
		return false
	}
	if old := p.bands[b.ID]; old != nil && *old == b {
		return false
	}
	p.bands[b.ID] = &b
	return true
}

// Get returns the band with the given identifier.
func (p *BandPlan) Get(id uint8) (Band, bool) {
	if p == nil || int(id) >= MaxBands || p.bands[id] == nil {
		return Band{}, false
	}
	return *p.bands[id], true
}

// Bands returns the known bands in identifier order.
func (p *BandPlan) Bands() []Band {
	if p == nil {
		return nil
	}
	var o []Band
	for _, b := range p.bands {
		if b != nil {
			o = append(o, *b)
		}
	}
	return o
}

// Resolve computes the channel descriptor. Frequencies stay zero when the band is not
// known.
func (p *BandPlan) Resolve(band uint8, number uint16) ChannelInfo {
	var c = ChannelInfo{Band: band, Number: number}
	b, ok := p.Get(band)
	if !ok {
		return c
	}
	if b.slots() > 1 {
		c.Slot = int(number)%b.slots() + 1
	}
	c.Downlink = b.Downlink(number)
	c.Uplink = b.Uplink(number)
	c.Bandwidth = b.Bandwidth
	return c
}
