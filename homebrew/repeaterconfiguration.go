package homebrew

import (
	"fmt"
	"strings"
)

// RepeaterConfiguration describes the repeater to the master after login.
type RepeaterConfiguration struct {
	Callsign    string  `yaml:"callsign"`
	ID          uint32  `yaml:"id"`
	RXFreq      uint32  `yaml:"rx_freq"`
	TXFreq      uint32  `yaml:"tx_freq"`
	TXPower     uint8   `yaml:"tx_power"`
	ColorCode   uint8   `yaml:"color_code"`
	Latitude    float32 `yaml:"latitude"`
	Longitude   float32 `yaml:"longitude"`
	Height      uint16  `yaml:"height"`
	Location    string  `yaml:"location"`
	Description string  `yaml:"description"`
	URL         string  `yaml:"url"`
}

// ConfigurationSize is the length of an RPTC packet.
const ConfigurationSize = 306

// Bytes returns the RPTC packet.
func (r RepeaterConfiguration) Bytes() []byte {
	return []byte(r.String())
}

// String returns the RPTC packet. Out of range values are clamped and text fields are
// padded or cut to their field width.
func (r RepeaterConfiguration) String() string {
	colorCode := min(max(r.ColorCode, 1), 15)
	power := min(r.TXPower, 99)

	var b strings.Builder
	b.Write(RepeaterConfig)
	b.WriteString(field(r.Callsign, 8))
	fmt.Fprintf(&b, "%08x", r.ID)
	fmt.Fprintf(&b, "%09d", r.RXFreq%1e9)
	fmt.Fprintf(&b, "%09d", r.TXFreq%1e9)
	fmt.Fprintf(&b, "%02d", power)
	fmt.Fprintf(&b, "%02d", colorCode)
	b.WriteString(field(fmt.Sprintf("%-08f", r.Latitude), 8))
	b.WriteString(field(fmt.Sprintf("%-09f", r.Longitude), 9))
	fmt.Fprintf(&b, "%03d", r.Height%1000)
	b.WriteString(field(r.Location, 20))
	b.WriteString(field(r.Description, 19))
	b.WriteString("4") // slots: 4 = both timeslots, repeater mode
	b.WriteString(field(r.URL, 124))
	b.WriteString(field(SoftwareID, 40))
	b.WriteString(field(PackageID, 40))
	return b.String()
}

func field(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return fmt.Sprintf("%-*s", width, s)
}
