package wdp

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultSlots      = 4
	DefaultMaxParts   = 16
	DefaultBufferSize = 4096
	DefaultTimeout    = 30 * time.Second
)

var (
	ErrPoolExhausted  = errors.New("wdp: no free reassembly slot")
	ErrPartOutOfRange = errors.New("wdp: part index out of range")
	ErrPartOverflow   = errors.New("wdp: part overflows reassembly buffer")
)

// ReassemblerConfig bounds a Reassembler. Zero fields take the defaults.
type ReassemblerConfig struct {
	Slots      int
	MaxParts   int
	BufferSize int
	Timeout    time.Duration
	// Budget is the sender's datagram budget. Part n is written at
	// (n-1)*(Budget-12).
	Budget int
}

func (c ReassemblerConfig) withDefaults() ReassemblerConfig {
	if c.Slots <= 0 {
		c.Slots = DefaultSlots
	}
	if c.MaxParts <= 0 {
		c.MaxParts = DefaultMaxParts
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Budget <= ConcatHeaderLen {
		c.Budget = DefaultBudget
	}
	return c
}

// Message is one delivered logical datagram.
type Message struct {
	Sender   string
	DestPort uint16
	SrcPort  uint16
	Ref      byte
	Parts    int
	Payload  []byte
}

// SlotInfo is a point-in-time view of one reassembly slot.
type SlotInfo struct {
	Active     bool
	Generation uint64
	Sender     string
	Ref        byte
	Total      int
	Received   int
	DestPort   uint16
	SrcPort    uint16
	LastUpdate time.Time
}

type slot struct {
	active     bool
	generation uint64
	sender     string
	ref        byte
	total      int
	received   int
	destPort   uint16
	srcPort    uint16
	lastUpdate time.Time
	have       []bool
	sizes      []int
	buf        []byte
}

// Reassembler collects concatenated parts per (ref, sender) in a fixed
// slot pool. It does no locking; callers serialize access.
type Reassembler struct {
	cfg   ReassemblerConfig
	slots []slot
}

func NewReassembler(cfg ReassemblerConfig) *Reassembler {
	cfg = cfg.withDefaults()
	r := &Reassembler{cfg: cfg, slots: make([]slot, cfg.Slots)}
	for i := range r.slots {
		r.slots[i].have = make([]bool, cfg.MaxParts)
		r.slots[i].sizes = make([]int, cfg.MaxParts)
		r.slots[i].buf = make([]byte, cfg.BufferSize)
	}
	return r
}

func (r *Reassembler) Config() ReassemblerConfig {
	return r.cfg
}

// Accept ingests one datagram from sender. Simple datagrams are delivered
// immediately. Concatenated parts report false until the last part arrives.
// A part index already received is ignored.
func (r *Reassembler) Accept(sender string, datagram []byte, now time.Time) (Message, bool, error) {
	h, payload, err := ParseHeader(datagram)
	if err != nil {
		return Message{}, false, err
	}
	if !h.Concatenated {
		return Message{
			Sender:   sender,
			DestPort: h.DestPort,
			SrcPort:  h.SrcPort,
			Parts:    1,
			Payload:  append([]byte(nil), payload...),
		}, true, nil
	}

	s := r.find(h.Ref, sender)
	if s == nil {
		if int(h.Total) > r.cfg.MaxParts {
			return Message{}, false, fmt.Errorf("%w: %d parts, max %d", ErrPartOutOfRange, h.Total, r.cfg.MaxParts)
		}
		if s = r.allocate(h, sender, now); s == nil {
			return Message{}, false, ErrPoolExhausted
		}
	}

	idx := int(h.Part) - 1
	if idx >= s.total || idx >= r.cfg.MaxParts {
		return Message{}, false, fmt.Errorf("%w: part %d/%d", ErrPartOutOfRange, h.Part, s.total)
	}
	if s.have[idx] {
		return Message{}, false, nil
	}
	if len(payload) > r.stride() {
		return Message{}, false, fmt.Errorf("%w: part %d carries %d bytes, stride %d", ErrPartOverflow, h.Part, len(payload), r.stride())
	}
	offset := idx * r.stride()
	if offset+len(payload) > len(s.buf) {
		return Message{}, false, fmt.Errorf("%w: offset=%d len=%d", ErrPartOverflow, offset, len(payload))
	}
	copy(s.buf[offset:], payload)
	s.sizes[idx] = len(payload)
	s.have[idx] = true
	s.received++
	s.lastUpdate = now

	if s.received < s.total {
		return Message{}, false, nil
	}
	msg := Message{
		Sender:   s.sender,
		DestPort: s.destPort,
		SrcPort:  s.srcPort,
		Ref:      s.ref,
		Parts:    s.total,
		Payload:  r.join(s),
	}
	r.release(s)
	return msg, true, nil
}

// Sweep evicts slots idle for longer than the timeout and returns how many
// were reclaimed.
func (r *Reassembler) Sweep(now time.Time) int {
	evicted := 0
	for i := range r.slots {
		s := &r.slots[i]
		if s.active && now.Sub(s.lastUpdate) > r.cfg.Timeout {
			r.release(s)
			evicted++
		}
	}
	return evicted
}

// Active returns the number of in-progress reassemblies.
func (r *Reassembler) Active() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].active {
			n++
		}
	}
	return n
}

func (r *Reassembler) Slots() []SlotInfo {
	out := make([]SlotInfo, len(r.slots))
	for i := range r.slots {
		s := &r.slots[i]
		out[i] = SlotInfo{
			Active:     s.active,
			Generation: s.generation,
			Sender:     s.sender,
			Ref:        s.ref,
			Total:      s.total,
			Received:   s.received,
			DestPort:   s.destPort,
			SrcPort:    s.srcPort,
			LastUpdate: s.lastUpdate,
		}
	}
	return out
}

func (r *Reassembler) stride() int {
	return r.cfg.Budget - ConcatHeaderLen
}

func (r *Reassembler) find(ref byte, sender string) *slot {
	for i := range r.slots {
		s := &r.slots[i]
		if s.active && s.ref == ref && s.sender == sender {
			return s
		}
	}
	return nil
}

func (r *Reassembler) allocate(h Header, sender string, now time.Time) *slot {
	for i := range r.slots {
		s := &r.slots[i]
		if s.active {
			continue
		}
		s.active = true
		s.generation++
		s.sender = sender
		s.ref = h.Ref
		s.total = int(h.Total)
		s.received = 0
		s.destPort = h.DestPort
		s.srcPort = h.SrcPort
		s.lastUpdate = now
		return s
	}
	return nil
}

// join concatenates the received part sizes in index order.
func (r *Reassembler) join(s *slot) []byte {
	n := 0
	for i := 0; i < s.total; i++ {
		n += s.sizes[i]
	}
	out := make([]byte, 0, n)
	stride := r.stride()
	for i := 0; i < s.total; i++ {
		off := i * stride
		out = append(out, s.buf[off:off+s.sizes[i]]...)
	}
	return out
}

func (r *Reassembler) release(s *slot) {
	s.active = false
	s.sender = ""
	s.received = 0
	s.total = 0
	clear(s.have)
	clear(s.sizes)
	clear(s.buf)
}
