package session

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrRelayFull    = errors.New("session: no free relay slot")
	ErrRelayUnknown = errors.New("session: no relay entry for port")
)

// RelayEntry routes gateway replies for one client source port back to the
// mesh sender that issued the request.
type RelayEntry struct {
	Sender      string
	ClientPort  uint16
	GatewayPort uint16
	Generation  uint64
	CreatedAt   time.Time
	LastSeen    time.Time
}

type relaySlot struct {
	active bool
	entry  RelayEntry
}

// RelayTable is the proxy's fixed pool of pending connections.
type RelayTable struct {
	expiry time.Duration
	slots  []relaySlot
	gen    uint64
}

func NewRelayTable(cfg Config) *RelayTable {
	cfg = cfg.withDefaults()
	return &RelayTable{
		expiry: cfg.RelayExpiry,
		slots:  make([]relaySlot, cfg.RelaySlots),
	}
}

// Register stores a pending connection. A request from the same sender and
// client port as an active entry refreshes it and reports duplicate=true;
// the caller should not forward it again. An expired slot is reused when
// no free slot is left.
func (t *RelayTable) Register(sender string, clientPort, gatewayPort uint16, now time.Time) (RelayEntry, bool, error) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.active && s.entry.ClientPort == clientPort && s.entry.Sender == sender {
			s.entry.LastSeen = now
			return s.entry, true, nil
		}
	}

	idx := -1
	for i := range t.slots {
		s := &t.slots[i]
		if !s.active || t.expired(s, now) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RelayEntry{}, false, fmt.Errorf("%w: %d slots", ErrRelayFull, len(t.slots))
	}

	t.gen++
	t.slots[idx] = relaySlot{
		active: true,
		entry: RelayEntry{
			Sender:      sender,
			ClientPort:  clientPort,
			GatewayPort: gatewayPort,
			Generation:  t.gen,
			CreatedAt:   now,
			LastSeen:    now,
		},
	}
	return t.slots[idx].entry, false, nil
}

// Take removes and returns the entry for clientPort, used once a gateway
// reply has been relayed.
func (t *RelayTable) Take(clientPort uint16) (RelayEntry, error) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.active && s.entry.ClientPort == clientPort {
			entry := s.entry
			*s = relaySlot{}
			return entry, nil
		}
	}
	return RelayEntry{}, fmt.Errorf("%w: %d", ErrRelayUnknown, clientPort)
}

func (t *RelayTable) Get(clientPort uint16) (RelayEntry, bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.active && s.entry.ClientPort == clientPort {
			return s.entry, true
		}
	}
	return RelayEntry{}, false
}

// Sweep drops expired entries and returns them.
func (t *RelayTable) Sweep(now time.Time) []RelayEntry {
	var out []RelayEntry
	for i := range t.slots {
		s := &t.slots[i]
		if s.active && t.expired(s, now) {
			out = append(out, s.entry)
			*s = relaySlot{}
		}
	}
	return out
}

// PendingFor counts active entries targeting gatewayPort.
func (t *RelayTable) PendingFor(gatewayPort uint16) int {
	n := 0
	for i := range t.slots {
		if t.slots[i].active && t.slots[i].entry.GatewayPort == gatewayPort {
			n++
		}
	}
	return n
}

// List returns active entries ordered by client port.
func (t *RelayTable) List() []RelayEntry {
	out := make([]RelayEntry, 0, len(t.slots))
	for i := range t.slots {
		if t.slots[i].active {
			out = append(out, t.slots[i].entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ClientPort < out[j].ClientPort
	})
	return out
}

func (t *RelayTable) expired(s *relaySlot, now time.Time) bool {
	return now.Sub(s.entry.LastSeen) > t.expiry
}
