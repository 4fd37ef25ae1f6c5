// Package serviceoptions holds the service options octet of DMR calls.
package serviceoptions

import (
	"fmt"
	"strings"
)

// Priority Levels
const (
	NoPriority uint8 = iota
	Priority1
	Priority2
	Priority3
)

// PriorityName is a map of priority level to string.
var PriorityName = map[uint8]string{
	NoPriority: "no priority",
	Priority1:  "priority 1",
	Priority2:  "priority 2",
	Priority3:  "priority 3",
}

const (
	emergency         = 0x80
	privacy           = 0x40
	broadcast         = 0x08
	openVoiceCallMode = 0x04
	priority          = 0x03
)

// ServiceOptions Conforms to ETSI TS 102-361-2 7.2.1
type ServiceOptions struct {
	// Emergency service
	Emergency bool
	// Privacy is set for encrypted calls
	Privacy bool
	// Broadcast service (only defined in group calls)
	Broadcast bool
	// Open Voice Call Mode
	OpenVoiceCallMode bool
	// Priority 3 (0b11) is the highest priority
	Priority uint8
}

// Byte packs the service options to a single byte.
func (so ServiceOptions) Byte() byte {
	var b byte
	if so.Emergency {
		b |= emergency
	}
	if so.Privacy {
		b |= privacy
	}
	if so.Broadcast {
		b |= broadcast
	}
	if so.OpenVoiceCallMode {
		b |= openVoiceCallMode
	}
	return b | so.Priority&priority
}

// String representatation of the service options.
func (so ServiceOptions) String() string {
	var part = []string{}
	if so.Emergency {
		part = append(part, "emergency")
	}
	if so.Privacy {
		part = append(part, "privacy")
	}
	if so.Broadcast {
		part = append(part, "broadcast")
	}
	if so.OpenVoiceCallMode {
		part = append(part, "open voice call mode")
	}
	part = append(part, fmt.Sprintf("%s (%d)", PriorityName[so.Priority], so.Priority))
	return strings.Join(part, ", ")
}

// Parse parses the service options byte.
func Parse(data byte) ServiceOptions {
	return ServiceOptions{
		Emergency:         data&emergency > 0,
		Privacy:           data&privacy > 0,
		Broadcast:         data&broadcast > 0,
		OpenVoiceCallMode: data&openVoiceCallMode > 0,
		Priority:          data & priority,
	}
}
