package session

import (
	"math/rand"
	"time"
)

type DiscoveryState int

const (
	DiscoveryIdle DiscoveryState = iota
	DiscoveryPinging
	DiscoveryWaiting
	DiscoveryFound
	DiscoveryFailed
)

func (s DiscoveryState) String() string {
	switch s {
	case DiscoveryIdle:
		return "idle"
	case DiscoveryPinging:
		return "pinging"
	case DiscoveryWaiting:
		return "waiting"
	case DiscoveryFound:
		return "found"
	case DiscoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Discovery drives proxy path discovery: one ping per attempt, each with
// its own timeout, and a backoff wait before each retry.
type Discovery struct {
	timeout    time.Duration
	maxRetries int
	backoff    BackoffConfig
	rng        *rand.Rand

	state    DiscoveryState
	attempts int
	deadline time.Time
	retryAt  time.Time
	pathLen  int
}

func NewDiscovery(cfg Config, rng *rand.Rand) *Discovery {
	cfg = cfg.withDefaults()
	return &Discovery{
		timeout:    cfg.DiscoveryTimeout,
		maxRetries: cfg.DiscoveryRetries,
		backoff:    cfg.Backoff,
		rng:        rng,
		pathLen:    -1,
	}
}

// Start resets discovery and counts the first ping, which the caller sends.
func (d *Discovery) Start(now time.Time) {
	d.attempts = 0
	d.pathLen = -1
	d.ping(now)
}

func (d *Discovery) ping(now time.Time) {
	d.attempts++
	d.state = DiscoveryPinging
	d.deadline = now.Add(d.timeout)
}

// Found records a discovered path and ends the attempt cycle.
func (d *Discovery) Found(pathLen int) {
	d.state = DiscoveryFound
	d.pathLen = pathLen
}

// Poll advances timeouts and retry waits. It returns true when the caller
// should send another ping now.
func (d *Discovery) Poll(now time.Time) bool {
	switch d.state {
	case DiscoveryPinging:
		if now.Before(d.deadline) {
			return false
		}
		if d.attempts >= d.maxRetries {
			d.state = DiscoveryFailed
			return false
		}
		d.state = DiscoveryWaiting
		d.retryAt = now.Add(NextBackoffDelay(d.backoff, d.attempts, d.rng))
		if now.Before(d.retryAt) {
			return false
		}
		d.ping(now)
		return true
	case DiscoveryWaiting:
		if now.Before(d.retryAt) {
			return false
		}
		d.ping(now)
		return true
	default:
		return false
	}
}

func (d *Discovery) State() DiscoveryState {
	return d.state
}

func (d *Discovery) Attempts() int {
	return d.attempts
}

// PathLen is the discovered hop count, or -1 before discovery succeeds.
func (d *Discovery) PathLen() int {
	return d.pathLen
}

func (d *Discovery) InProgress() bool {
	return d.state == DiscoveryPinging || d.state == DiscoveryWaiting
}
