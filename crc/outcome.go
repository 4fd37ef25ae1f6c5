// Package crc implements the cyclic redundancy checks used by the decoders and the
// Outcome that every validator reports.
package crc

import "fmt"

// Status of a CRC or FEC evaluation.
type Status uint8

const (
	Unknown Status = iota // validator not run or not applicable
	Passed
	Corrected
	Failed
)

var StatusName = map[Status]string{
	Unknown:   "unknown",
	Passed:    "passed",
	Corrected: "corrected",
	Failed:    "failed",
}

func (s Status) String() string {
	if n, ok := StatusName[s]; ok {
		return n
	}
	return StatusName[Unknown]
}

// Outcome is the result of validating a message region. Bits is the number of
// repaired bits and is only meaningful for Corrected.
type Outcome struct {
	Status Status
	Bits   int
}

var (
	OutcomeUnknown = Outcome{Status: Unknown}
	OutcomePassed  = Outcome{Status: Passed}
	OutcomeFailed  = Outcome{Status: Failed}
)

// CorrectedBy returns a Corrected outcome, or Passed if no bits were repaired.
func CorrectedBy(n int) Outcome {
	if n <= 0 {
		return OutcomePassed
	}
	return Outcome{Status: Corrected, Bits: n}
}

// Valid is true iff the region passed or was corrected.
func (o Outcome) Valid() bool {
	return o.Status == Passed || o.Status == Corrected
}

// Merge combines the outcome of two regions of the same message. A failure in
// either region fails the whole, corrections add up.
func (o Outcome) Merge(other Outcome) Outcome {
	switch {
	case o.Status == Failed || other.Status == Failed:
		return OutcomeFailed
	case o.Status == Unknown:
		return other
	case other.Status == Unknown:
		return o
	}
	return CorrectedBy(o.Bits + other.Bits)
}

func (o Outcome) String() string {
	if o.Status == Corrected {
		return fmt.Sprintf("corrected(%d)", o.Bits)
	}
	return o.Status.String()
}
