package session

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/meshwap/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
	cfg.Jitter = true
	if got := NextBackoffDelay(cfg, 2, nil); got != 250*time.Millisecond {
		t.Fatalf("jitter without rng got=%v", got)
	}
}

func TestTrackerSingleOutstandingExchange(t *testing.T) {
	testlog.Start(t)
	tr := NewTracker(DefaultConfig(), rand.New(rand.NewSource(42)))
	now := time.Unix(1700000000, 0)
	ex, err := tr.Begin("GET", "http://wap.example/", now)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if ex.SrcPort < 1024 || ex.SrcPort > 9999 {
		t.Fatalf("source port out of range: %d", ex.SrcPort)
	}
	if ex.DestPort != 9200 || ex.TransactionID != 1 {
		t.Fatalf("exchange: %+v", ex)
	}
	if _, err := tr.Begin("GET", "http://other/", now); !errors.Is(err, ErrExchangeBusy) {
		t.Fatalf("expected ErrExchangeBusy, got %v", err)
	}

	if _, err := tr.Match(ex.SrcPort+1, now); !errors.Is(err, ErrStalePort) {
		t.Fatalf("expected ErrStalePort, got %v", err)
	}
	later := now.Add(30 * time.Second)
	if _, err := tr.Match(ex.SrcPort, later); err != nil {
		t.Fatalf("match: %v", err)
	}
	if _, expired := tr.Expire(now.Add(60 * time.Second)); expired {
		t.Fatalf("received part must extend the deadline")
	}
	if got, expired := tr.Expire(later.Add(40 * time.Second)); !expired || got.ID != ex.ID {
		t.Fatalf("expected expiry of exchange %d", ex.ID)
	}
	if _, err := tr.Match(ex.SrcPort, later); !errors.Is(err, ErrNoExchange) {
		t.Fatalf("expected ErrNoExchange, got %v", err)
	}
	next, err := tr.Begin("GET", "http://wap.example/", later)
	if err != nil || next.TransactionID != 2 {
		t.Fatalf("second exchange: %+v err=%v", next, err)
	}
}

func TestPickPortStaysInRange(t *testing.T) {
	testlog.Start(t)
	tr := NewTracker(Config{PortMin: 2000, PortMax: 2003}, rand.New(rand.NewSource(1)))
	seen := map[uint16]bool{}
	for i := 0; i < 200; i++ {
		p := tr.PickPort()
		if p < 2000 || p > 2003 {
			t.Fatalf("port out of range: %d", p)
		}
		seen[p] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected all four ports to be used, got=%v", seen)
	}
}

func TestRelayTableLifecycle(t *testing.T) {
	testlog.Start(t)
	rt := NewRelayTable(Config{RelaySlots: 2, RelayExpiry: 60 * time.Second})
	now := time.Unix(1700000000, 0)

	if _, dup, err := rt.Register("node-a", 4000, 9200, now); err != nil || dup {
		t.Fatalf("register: dup=%v err=%v", dup, err)
	}
	entry, dup, err := rt.Register("node-a", 4000, 9200, now.Add(10*time.Second))
	if err != nil || !dup {
		t.Fatalf("duplicate: dup=%v err=%v", dup, err)
	}
	if !entry.LastSeen.Equal(now.Add(10 * time.Second)) {
		t.Fatalf("duplicate must refresh last seen, got=%v", entry.LastSeen)
	}
	if _, dup, err := rt.Register("node-b", 4000, 9200, now); err != nil || dup {
		t.Fatalf("same port from another sender: dup=%v err=%v", dup, err)
	}
	if _, _, err := rt.Register("node-c", 5000, 9200, now); !errors.Is(err, ErrRelayFull) {
		t.Fatalf("expected ErrRelayFull, got %v", err)
	}
	if got := rt.PendingFor(9200); got != 2 {
		t.Fatalf("pending got=%d", got)
	}

	reuse, _, err := rt.Register("node-c", 5000, 9200, now.Add(61*time.Second))
	if err != nil {
		t.Fatalf("expired slot reuse: %v", err)
	}
	if reuse.Generation != 3 {
		t.Fatalf("generation got=%d want=3", reuse.Generation)
	}

	taken, err := rt.Take(5000)
	if err != nil || taken.Sender != "node-c" {
		t.Fatalf("take: %+v err=%v", taken, err)
	}
	if _, err := rt.Take(5000); !errors.Is(err, ErrRelayUnknown) {
		t.Fatalf("entry must clear after relaying, got %v", err)
	}
}

func TestRelayTableSweep(t *testing.T) {
	testlog.Start(t)
	rt := NewRelayTable(DefaultConfig())
	now := time.Unix(1700000000, 0)
	rt.Register("a", 1100, 9200, now)
	rt.Register("b", 1200, 9200, now.Add(30*time.Second))
	dropped := rt.Sweep(now.Add(61 * time.Second))
	if len(dropped) != 1 || dropped[0].Sender != "a" {
		t.Fatalf("sweep dropped=%+v", dropped)
	}
	list := rt.List()
	if len(list) != 1 || list[0].ClientPort != 1200 {
		t.Fatalf("list=%+v", list)
	}
}

func TestDiscoveryRetriesThenFails(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Backoff.Jitter = false
	d := NewDiscovery(cfg, nil)
	now := time.Unix(1700000000, 0)
	d.Start(now)
	pings := 1
	for i := 0; i < 200 && d.InProgress(); i++ {
		now = now.Add(time.Second)
		if d.Poll(now) {
			pings++
		}
	}
	if d.State() != DiscoveryFailed {
		t.Fatalf("state got=%v", d.State())
	}
	if pings != cfg.DiscoveryRetries || d.Attempts() != cfg.DiscoveryRetries {
		t.Fatalf("pings=%d attempts=%d want=%d", pings, d.Attempts(), cfg.DiscoveryRetries)
	}
}

func TestDiscoveryFoundStopsRetries(t *testing.T) {
	testlog.Start(t)
	d := NewDiscovery(DefaultConfig(), rand.New(rand.NewSource(9)))
	now := time.Unix(1700000000, 0)
	d.Start(now)
	if d.Poll(now.Add(7 * time.Second)) {
		t.Fatalf("no retry before the attempt timeout")
	}
	d.Found(3)
	if d.Poll(now.Add(time.Minute)) || d.State() != DiscoveryFound || d.PathLen() != 3 {
		t.Fatalf("state=%v path=%d", d.State(), d.PathLen())
	}
}
