package message

import (
	"fmt"
	"sort"
	"time"

	lmr "github.com/pd0mz/go-lmr"
	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/identifier"
)

// Code is the set of integer types used as protocol type codes.
type Code interface {
	~uint8 | ~uint16 | ~uint32
}

// Context is the decode state passed to constructors next to the header.
type Context struct {
	// Continuation holds the second block of multi-block messages, or nil.
	Continuation *bit.Buffer
	// BandPlan of the owning channel, or nil.
	BandPlan *identifier.BandPlan
	// AccessCode of the carrying frame: the P25 NAC, DMR color code or NXDN RAN.
	AccessCode uint32
	// Slot is the TDMA timeslot (1 or 2) of the carrying burst, 0 if unknown.
	Slot      int
	Timestamp time.Time
}

// Constructor builds a message variant. The header is prepared by the registry.
type Constructor func(h Header, ctx Context) Message

// Entry registers a constructor under a type code.
type Entry[K Code] struct {
	Code K
	Name string
	New  Constructor
}

// Registry maps type codes to constructors. It is immutable after construction and
// safe for concurrent use.
type Registry[K Code] struct {
	protocol lmr.Protocol
	entries  map[K]Entry[K]
}

// NewRegistry builds a registry. Duplicate codes panic.
func NewRegistry[K Code](p lmr.Protocol, entries ...Entry[K]) *Registry[K] {
	b := NewBuilder[K](p)
	for _, e := range entries {
		b.Add(e.Code, e.Name, e.New)
	}
	return b.Build()
}

// Protocol returns the protocol of the registry.
func (r *Registry[K]) Protocol() lmr.Protocol { return r.protocol }

// Lookup returns the entry for a type code.
func (r *Registry[K]) Lookup(code K) (Entry[K], bool) {
	e, ok := r.entries[code]
	return e, ok
}

// Codes returns the registered type codes in ascending order.
func (r *Registry[K]) Codes() []K {
	var o = make([]K, 0, len(r.entries))
	for code := range r.entries {
		o = append(o, code)
	}
	sort.Slice(o, func(i, j int) bool { return o[i] < o[j] })
	return o
}

// Len is the number of registered codes.
func (r *Registry[K]) Len() int { return len(r.entries) }

// Decode constructs the variant registered for code, or Unknown. It never returns nil.
func (r *Registry[K]) Decode(code K, buf *bit.Buffer, ctx Context) Message {
	e, ok := r.entries[code]
	if !ok {
		return NewUnknown(r.protocol, uint32(code), buf, ctx.Timestamp)
	}
	m := e.New(NewHeader(r.protocol, uint32(code), e.Name, buf, ctx.Timestamp), ctx)
	if m == nil {
		return NewUnknown(r.protocol, uint32(code), buf, ctx.Timestamp)
	}
	return m
}

// Builder collects entries for a Registry.
type Builder[K Code] struct {
	protocol lmr.Protocol
	entries  map[K]Entry[K]
	built    bool
}

func NewBuilder[K Code](p lmr.Protocol) *Builder[K] {
	return &Builder[K]{protocol: p, entries: make(map[K]Entry[K])}
}

// Add registers a constructor. Adding a duplicate code or adding after Build panics.
func (b *Builder[K]) Add(code K, name string, fn Constructor) *Builder[K] {
	if b.built {
		panic("message: builder already built")
	}
	if fn == nil {
		panic(fmt.Sprintf("message: %s %s (%#x) has no constructor", b.protocol, name, uint32(code)))
	}
	if e, dupe := b.entries[code]; dupe {
		panic(fmt.Sprintf("message: %s code %#x registered as %s and %s", b.protocol, uint32(code), e.Name, name))
	}
	b.entries[code] = Entry[K]{Code: code, Name: name, New: fn}
	return b
}

// Build freezes the builder into a Registry.
func (b *Builder[K]) Build() *Registry[K] {
	b.built = true
	return &Registry[K]{protocol: b.protocol, entries: b.entries}
}
