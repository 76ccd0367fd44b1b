package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/danmuck/meshwap/internal/protocol/session"
)

// fileConfig is the on-disk TOML shape. Durations are strings such as "40s".
type fileConfig struct {
	Node    fileNode    `toml:"node"`
	Mesh    fileMesh    `toml:"mesh"`
	WSP     fileWSP     `toml:"wsp"`
	WDP     fileWDP     `toml:"wdp"`
	Session fileSession `toml:"session"`
	Server  fileServer  `toml:"server"`
	Log     fileLog     `toml:"log"`
}

type fileNode struct {
	ID   string `toml:"id"`
	Role string `toml:"role"`
}

type fileMesh struct {
	Proxy    string   `toml:"proxy"`
	Contacts []string `toml:"contacts"`
	MaxText  int      `toml:"max_text"`
}

type fileWSP struct {
	HostHeader        bool   `toml:"host_header"`
	UserAgent         string `toml:"user_agent"`
	MaxPDU            int    `toml:"max_pdu"`
	DecompileCapacity int    `toml:"decompile_capacity"`
}

type fileWDP struct {
	Budget            int    `toml:"budget"`
	ReassemblySlots   int    `toml:"reassembly_slots"`
	MaxParts          int    `toml:"max_parts"`
	BufferSize        int    `toml:"buffer_size"`
	ReassemblyTimeout string `toml:"reassembly_timeout"`
}

type fileSession struct {
	GatewayPort      int         `toml:"gateway_port"`
	PortMin          int         `toml:"port_min"`
	PortMax          int         `toml:"port_max"`
	ExchangeTimeout  string      `toml:"exchange_timeout"`
	RelaySlots       int         `toml:"relay_slots"`
	RelayExpiry      string      `toml:"relay_expiry"`
	DiscoveryTimeout string      `toml:"discovery_timeout"`
	DiscoveryRetries int         `toml:"discovery_retries"`
	Backoff          fileBackoff `toml:"backoff"`
}

type fileBackoff struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
}

type fileServer struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
	Token       string   `toml:"token"`
}

type fileLog struct {
	Level   string `toml:"level"`
	NoColor bool   `toml:"no_color"`
}

// Load overlays the keys present in the TOML file at path onto Default and
// validates the result.
func Load(path string) (Config, error) {
	cfg, err := load(path)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}
	o := overlay{meta: meta}

	o.text(&cfg.Node.ID, raw.Node.ID, "node", "id")
	o.text(&cfg.Node.Role, strings.ToLower(raw.Node.Role), "node", "role")

	o.text(&cfg.Mesh.Proxy, raw.Mesh.Proxy, "mesh", "proxy")
	if meta.IsDefined("mesh", "contacts") {
		cfg.Mesh.Contacts = normalizeIDs(raw.Mesh.Contacts)
	}
	o.num(&cfg.Mesh.MaxText, raw.Mesh.MaxText, "mesh", "max_text")

	o.flag(&cfg.WSP.HostHeader, raw.WSP.HostHeader, "wsp", "host_header")
	o.text(&cfg.WSP.UserAgent, raw.WSP.UserAgent, "wsp", "user_agent")
	o.num(&cfg.WSP.MaxPDU, raw.WSP.MaxPDU, "wsp", "max_pdu")
	o.num(&cfg.WSP.DecompileCapacity, raw.WSP.DecompileCapacity, "wsp", "decompile_capacity")

	o.num(&cfg.WDP.Budget, raw.WDP.Budget, "wdp", "budget")
	o.num(&cfg.WDP.ReassemblySlots, raw.WDP.ReassemblySlots, "wdp", "reassembly_slots")
	o.num(&cfg.WDP.MaxParts, raw.WDP.MaxParts, "wdp", "max_parts")
	o.num(&cfg.WDP.BufferSize, raw.WDP.BufferSize, "wdp", "buffer_size")
	o.dur(&cfg.WDP.ReassemblyTimeout, raw.WDP.ReassemblyTimeout, "wdp", "reassembly_timeout")

	s := &cfg.Session
	o.port(&s.GatewayPort, raw.Session.GatewayPort, "session", "gateway_port")
	o.port(&s.PortMin, raw.Session.PortMin, "session", "port_min")
	o.port(&s.PortMax, raw.Session.PortMax, "session", "port_max")
	o.dur(&s.ExchangeTimeout, raw.Session.ExchangeTimeout, "session", "exchange_timeout")
	o.num(&s.RelaySlots, raw.Session.RelaySlots, "session", "relay_slots")
	o.dur(&s.RelayExpiry, raw.Session.RelayExpiry, "session", "relay_expiry")
	o.dur(&s.DiscoveryTimeout, raw.Session.DiscoveryTimeout, "session", "discovery_timeout")
	o.num(&s.DiscoveryRetries, raw.Session.DiscoveryRetries, "session", "discovery_retries")
	o.dur(&s.Backoff.InitialDelay, raw.Session.Backoff.InitialDelay, "session", "backoff", "initial_delay")
	if meta.IsDefined("session", "backoff", "multiplier") {
		s.Backoff.Multiplier = raw.Session.Backoff.Multiplier
	}
	o.dur(&s.Backoff.MaxDelay, raw.Session.Backoff.MaxDelay, "session", "backoff", "max_delay")
	o.flag(&s.Backoff.Jitter, raw.Session.Backoff.Jitter, "session", "backoff", "jitter")

	o.text(&cfg.Server.Addr, raw.Server.Addr, "server", "addr")
	o.text(&cfg.Server.Token, raw.Server.Token, "server", "token")
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeIDs(raw.Server.CorsOrigins)
	}

	o.text(&cfg.Log.Level, raw.Log.Level, "log", "level")
	o.flag(&cfg.Log.NoColor, raw.Log.NoColor, "log", "no_color")

	if o.err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, o.err)
	}
	return cfg, nil
}

// overlay copies a decoded value onto its destination only when the key was
// present in the file. The first conversion error sticks.
type overlay struct {
	meta toml.MetaData
	err  error
}

func (o *overlay) defined(key ...string) bool {
	return o.err == nil && o.meta.IsDefined(key...)
}

func (o *overlay) text(dst *string, v string, key ...string) {
	if o.defined(key...) {
		*dst = strings.TrimSpace(v)
	}
}

func (o *overlay) num(dst *int, v int, key ...string) {
	if o.defined(key...) {
		*dst = v
	}
}

func (o *overlay) flag(dst *bool, v bool, key ...string) {
	if o.defined(key...) {
		*dst = v
	}
}

func (o *overlay) port(dst *uint16, v int, key ...string) {
	if !o.defined(key...) {
		return
	}
	if v < 0 || v > 65535 {
		o.err = fmt.Errorf("%s: port %d out of range", strings.Join(key, "."), v)
		return
	}
	*dst = uint16(v)
}

func (o *overlay) dur(dst *time.Duration, v string, key ...string) {
	if !o.defined(key...) {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		o.err = fmt.Errorf("parse %s: %w", strings.Join(key, "."), err)
		return
	}
	*dst = d
}

func normalizeIDs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Marshal renders cfg as TOML in the same shape Load reads.
func Marshal(cfg Config) ([]byte, error) {
	out, err := gotoml.Marshal(toFile(cfg))
	if err != nil {
		return nil, fmt.Errorf("config render failed: %w", err)
	}
	return out, nil
}

func toFile(cfg Config) fileConfig {
	s := cfg.Session
	return fileConfig{
		Node: fileNode{ID: cfg.Node.ID, Role: cfg.Node.Role},
		Mesh: fileMesh{
			Proxy:    cfg.Mesh.Proxy,
			Contacts: nonNil(cfg.Mesh.Contacts),
			MaxText:  cfg.Mesh.MaxText,
		},
		WSP: fileWSP{
			HostHeader:        cfg.WSP.HostHeader,
			UserAgent:         cfg.WSP.UserAgent,
			MaxPDU:            cfg.WSP.MaxPDU,
			DecompileCapacity: cfg.WSP.DecompileCapacity,
		},
		WDP: fileWDP{
			Budget:            cfg.WDP.Budget,
			ReassemblySlots:   cfg.WDP.ReassemblySlots,
			MaxParts:          cfg.WDP.MaxParts,
			BufferSize:        cfg.WDP.BufferSize,
			ReassemblyTimeout: cfg.WDP.ReassemblyTimeout.String(),
		},
		Session: fileSession{
			GatewayPort:      int(s.GatewayPort),
			PortMin:          int(s.PortMin),
			PortMax:          int(s.PortMax),
			ExchangeTimeout:  s.ExchangeTimeout.String(),
			RelaySlots:       s.RelaySlots,
			RelayExpiry:      s.RelayExpiry.String(),
			DiscoveryTimeout: s.DiscoveryTimeout.String(),
			DiscoveryRetries: s.DiscoveryRetries,
			Backoff:          backoffToFile(s.Backoff),
		},
		Server: fileServer{
			Addr:        cfg.Server.Addr,
			CorsOrigins: nonNil(cfg.Server.CorsOrigins),
			Token:       cfg.Server.Token,
		},
		Log: fileLog{Level: cfg.Log.Level, NoColor: cfg.Log.NoColor},
	}
}

func backoffToFile(b session.BackoffConfig) fileBackoff {
	return fileBackoff{
		InitialDelay: b.InitialDelay.String(),
		Multiplier:   b.Multiplier,
		MaxDelay:     b.MaxDelay.String(),
		Jitter:       b.Jitter,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
