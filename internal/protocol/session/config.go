package session

import "time"

// BackoffConfig defines retry delay growth between discovery attempts.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config holds exchange, relay and discovery timing for both node roles.
type Config struct {
	// GatewayPort is the WSP connectionless port requests target.
	GatewayPort uint16
	// PortMin and PortMax bound the random client source port.
	PortMin uint16
	PortMax uint16

	ExchangeTimeout time.Duration

	RelaySlots  int
	RelayExpiry time.Duration

	DiscoveryTimeout time.Duration
	DiscoveryRetries int
	Backoff          BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		GatewayPort:      9200,
		PortMin:          1024,
		PortMax:          9999,
		ExchangeTimeout:  40 * time.Second,
		RelaySlots:       8,
		RelayExpiry:      60 * time.Second,
		DiscoveryTimeout: 8 * time.Second,
		DiscoveryRetries: 5,
		Backoff: BackoffConfig{
			InitialDelay: 500 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     8 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GatewayPort == 0 {
		c.GatewayPort = d.GatewayPort
	}
	if c.PortMin == 0 || c.PortMax < c.PortMin {
		c.PortMin, c.PortMax = d.PortMin, d.PortMax
	}
	if c.ExchangeTimeout <= 0 {
		c.ExchangeTimeout = d.ExchangeTimeout
	}
	if c.RelaySlots <= 0 {
		c.RelaySlots = d.RelaySlots
	}
	if c.RelayExpiry <= 0 {
		c.RelayExpiry = d.RelayExpiry
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = d.DiscoveryTimeout
	}
	if c.DiscoveryRetries <= 0 {
		c.DiscoveryRetries = d.DiscoveryRetries
	}
	return c
}
