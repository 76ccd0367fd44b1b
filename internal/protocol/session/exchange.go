package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	ErrExchangeBusy = errors.New("session: an exchange is already outstanding")
	ErrNoExchange   = errors.New("session: no outstanding exchange")
	ErrStalePort    = errors.New("session: datagram for a stale source port")
)

// Exchange is the pending-exchange record for one outbound request.
type Exchange struct {
	ID            uint64
	TransactionID byte
	SrcPort       uint16
	DestPort      uint16
	Method        string
	URL           string
	StartedAt     time.Time
	LastActivity  time.Time
	Timeout       time.Duration
	PartsReceived int
}

// Deadline is the last activity plus the timeout. Each received part
// moves it forward.
func (e *Exchange) Deadline() time.Time {
	return e.LastActivity.Add(e.Timeout)
}

func (e *Exchange) Expired(now time.Time) bool {
	return !now.Before(e.Deadline())
}

// Tracker correlates inbound datagrams with the single outstanding
// exchange by destination port.
type Tracker struct {
	cfg    Config
	rng    *rand.Rand
	nextID uint64
	cur    *Exchange
}

// NewTracker creates a tracker. A nil rng uses a time-seeded source.
func NewTracker(cfg Config, rng *rand.Rand) *Tracker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Tracker{cfg: cfg.withDefaults(), rng: rng}
}

// PickPort returns a source port in [PortMin, PortMax].
func (t *Tracker) PickPort() uint16 {
	span := int(t.cfg.PortMax-t.cfg.PortMin) + 1
	return t.cfg.PortMin + uint16(t.rng.Intn(span))
}

// Begin opens an exchange on a fresh source port. Transaction ids count
// up from 1 and wrap at 256.
func (t *Tracker) Begin(method, url string, now time.Time) (*Exchange, error) {
	if t.cur != nil {
		return nil, fmt.Errorf("%w: port %d", ErrExchangeBusy, t.cur.SrcPort)
	}
	t.nextID++
	port := t.PickPort()
	t.cur = &Exchange{
		ID:            t.nextID,
		TransactionID: byte(t.nextID),
		SrcPort:       port,
		DestPort:      t.cfg.GatewayPort,
		Method:        method,
		URL:           url,
		StartedAt:     now,
		LastActivity:  now,
		Timeout:       t.cfg.ExchangeTimeout,
	}
	return t.cur, nil
}

func (t *Tracker) Current() (*Exchange, bool) {
	return t.cur, t.cur != nil
}

// Match checks that destPort belongs to the outstanding exchange and
// extends its deadline.
func (t *Tracker) Match(destPort uint16, now time.Time) (*Exchange, error) {
	if t.cur == nil {
		return nil, ErrNoExchange
	}
	if destPort != t.cur.SrcPort {
		return nil, fmt.Errorf("%w: got %d want %d", ErrStalePort, destPort, t.cur.SrcPort)
	}
	t.cur.LastActivity = now
	t.cur.PartsReceived++
	return t.cur, nil
}

// Finish closes the outstanding exchange and returns it.
func (t *Tracker) Finish() (*Exchange, bool) {
	e := t.cur
	t.cur = nil
	return e, e != nil
}

// Expire closes the outstanding exchange if its deadline has passed.
func (t *Tracker) Expire(now time.Time) (*Exchange, bool) {
	if t.cur == nil || !t.cur.Expired(now) {
		return nil, false
	}
	return t.Finish()
}
