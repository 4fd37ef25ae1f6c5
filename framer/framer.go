// Package framer finds sync patterns in a continuous bit stream and cuts the
// candidate frames that follow them.
package framer

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/op/go-logging"
	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
)

var log = logging.MustGetLogger("lmr/framer")

var (
	ErrPatternWidth  = errors.New("framer: pattern width must be 1-64 bits")
	ErrPatternLength = errors.New("framer: frame length shorter than lead and sync")
	ErrNoPatterns    = errors.New("framer: no patterns")
	ErrDuplicateName = errors.New("framer: duplicate pattern name")
)

// Pattern describes one sync word and the shape of the frame it starts.
type Pattern struct {
	Name      string
	Protocol  lmr.Protocol
	Value     uint64
	Width     int
	Tolerance int // maximum Hamming distance for a match
	Length    int // frame length in bits, including Lead and the sync word
	Lead      int // bits before the sync word that belong to the frame

	// Extend is called when a synced frame is full. If it returns a length beyond the
	// current size, the frame is grown and framing continues.
	Extend func(frame *bit.Buffer) int

	// Follow is called after a frame is delivered. A positive return value frames that
	// many bits next without waiting for a sync word. Followed counts the frames
	// delivered without sync since the last sync match.
	Follow func(frame *bit.Buffer, followed int) int
}

func (p *Pattern) mask() uint64 {
	if p.Width == 64 {
		return ^uint64(0)
	}
	return 1<<uint(p.Width) - 1
}

// Distance returns the Hamming distance between the pattern and the low Width bits
// of window.
func (p *Pattern) Distance(window uint64) int {
	return bits.OnesCount64((window ^ p.Value) & p.mask())
}

func (p *Pattern) validate() error {
	if p.Width < 1 || p.Width > 64 {
		return fmt.Errorf("%w: %s is %d bits", ErrPatternWidth, p.Name, p.Width)
	}
	if p.Lead < 0 || p.Length < p.Lead+p.Width {
		return fmt.Errorf("%w: %s", ErrPatternLength, p.Name)
	}
	return nil
}

func (p *Pattern) String() string {
	return fmt.Sprintf("%s %s sync %0*X/%d", p.Protocol, p.Name, (p.Width+3)/4, p.Value, p.Width)
}

// Frame is a complete candidate message.
type Frame struct {
	Buffer  *bit.Buffer
	Pattern *Pattern
	// SyncErrors is the number of sync bits that differed from the pattern, or -1 if
	// the frame was framed without sync by Follow.
	SyncErrors int
	// Offset is the stream position of the first bit after the frame.
	Offset uint64
}

// Synced reports if the frame started with a sync match.
func (f Frame) Synced() bool { return f.SyncErrors >= 0 }

// Handler receives frames. It runs on the stack of Push.
type Handler func(Frame)

// State of the framer.
type State uint8

const (
	Searching State = iota
	Framing
)

var StateName = map[State]string{
	Searching: "searching",
	Framing:   "framing",
}

func (s State) String() string { return StateName[s] }

// Stats counts framer activity.
type Stats struct {
	Bits    uint64
	Syncs   uint64
	Frames  uint64
	Dropped uint64
}

// Framer is the sync state machine. It is not safe for concurrent use.
type Framer struct {
	patterns  []*Pattern
	tolerance []int
	handler   Handler

	state      State
	window     uint64
	count      int
	history    bit.Bits
	head       int
	frame      *bit.Buffer
	pattern    *Pattern
	syncErrors int
	followed   int
	stats      Stats
}

// New returns a framer matching the patterns in order. The first matching pattern
// wins.
func New(handler Handler, patterns ...*Pattern) (*Framer, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	var (
		names = make(map[string]bool)
		size  int
	)
	f := &Framer{handler: handler}
	for _, p := range patterns {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if names[p.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, p.Name)
		}
		names[p.Name] = true
		if n := p.Lead + p.Width; n > size {
			size = n
		}
		f.patterns = append(f.patterns, p)
		f.tolerance = append(f.tolerance, p.Tolerance)
	}
	f.history = make(bit.Bits, size)
	return f, nil
}

// State returns the current state.
func (f *Framer) State() State { return f.state }

// Stats returns the counters.
func (f *Framer) Stats() Stats { return f.stats }

// Patterns returns the registered patterns.
func (f *Framer) Patterns() []*Pattern { return f.patterns }

// SetTolerance changes the tolerance of the named pattern, or of all patterns if
// name is empty. It reports if any pattern was changed.
func (f *Framer) SetTolerance(name string, tolerance int) bool {
	var changed bool
	for i, p := range f.patterns {
		if name == "" || p.Name == name {
			if f.tolerance[i] != tolerance {
				log.Debugf("%s: tolerance %d -> %d", p.Name, f.tolerance[i], tolerance)
			}
			f.tolerance[i] = tolerance
			changed = true
		}
	}
	return changed
}

// Tolerance returns the current tolerance of the named pattern.
func (f *Framer) Tolerance(name string) (int, bool) {
	for i, p := range f.patterns {
		if p.Name == name {
			return f.tolerance[i], true
		}
	}
	return 0, false
}

// Push feeds one bit.
func (f *Framer) Push(b bit.Bit) {
	b &= 1
	f.stats.Bits++

	if f.state == Framing {
		f.frame.Append(b)
		if f.frame.Full() {
			f.complete()
		}
		return
	}

	f.window = f.window<<1 | uint64(b)
	f.history[f.head] = b
	f.head = (f.head + 1) % len(f.history)
	f.count++

	for i, p := range f.patterns {
		if f.count < p.Lead+p.Width {
			continue
		}
		if d := p.Distance(f.window); d <= f.tolerance[i] {
			f.open(p, d)
			return
		}
	}
}

// PushBits feeds a slice of bits.
func (f *Framer) PushBits(bits bit.Bits) {
	for _, b := range bits {
		f.Push(b)
	}
}

// Flush drops a partial frame and returns to searching.
func (f *Framer) Flush() {
	if f.state == Framing {
		log.Debugf("%s: dropped partial frame of %d/%d bits", f.pattern.Name, f.frame.Pointer(), f.frame.Size())
		f.stats.Dropped++
	}
	f.reset()
}

func (f *Framer) open(p *Pattern, syncErrors int) {
	f.stats.Syncs++
	f.state = Framing
	f.pattern = p
	f.syncErrors = syncErrors
	f.followed = 0
	f.frame = bit.NewBuffer(p.Length)

	var n = len(f.history)
	for k := p.Lead + p.Width - 1; k >= p.Width; k-- {
		f.frame.Append(f.history[(f.head-1-k+n*2)%n])
	}
	f.frame.AppendUint(p.Value, p.Width)

	if syncErrors > 0 {
		log.Debugf("%s: sync with %d bit errors", p.Name, syncErrors)
	}
	if f.frame.Full() {
		f.complete()
	}
}

func (f *Framer) complete() {
	var p = f.pattern
	if f.syncErrors >= 0 && p.Extend != nil {
		if n := p.Extend(f.frame); n > f.frame.Size() {
			f.frame.Grow(n)
			return
		}
	}

	frame := Frame{
		Buffer:     f.frame,
		Pattern:    p,
		SyncErrors: f.syncErrors,
		Offset:     f.stats.Bits,
	}
	f.stats.Frames++
	if f.handler != nil {
		f.handler(frame)
	}

	if !frame.Synced() {
		f.followed++
	}
	if p.Follow != nil {
		if n := p.Follow(frame.Buffer, f.followed); n > 0 {
			f.frame = bit.NewBuffer(n)
			f.syncErrors = -1
			return
		}
	}
	f.reset()
}

func (f *Framer) reset() {
	f.state = Searching
	f.window = 0
	f.count = 0
	f.head = 0
	f.frame = nil
	f.pattern = nil
	f.followed = 0
	for i := range f.history {
		f.history[i] = 0
	}
}
