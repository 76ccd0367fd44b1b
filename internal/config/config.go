package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/meshwap/internal/logging"
	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/session"
	"github.com/danmuck/meshwap/internal/protocol/wbxml"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
)

const (
	RoleClient = "client"
	RoleProxy  = "proxy"
)

type Config struct {
	Node    NodeConfig
	Mesh    MeshConfig
	WSP     WSPConfig
	WDP     WDPConfig
	Session session.Config
	Server  ServerConfig
	Log     LogConfig
}

type NodeConfig struct {
	// ID is the mesh node id. Senders are matched on its first 8 hex
	// characters.
	ID   string
	Role string
}

type MeshConfig struct {
	// Proxy is the mesh id a client sends requests to.
	Proxy    string
	Contacts []string
	MaxText  int
}

type WSPConfig struct {
	HostHeader        bool
	UserAgent         string
	MaxPDU            int
	DecompileCapacity int
}

type WDPConfig struct {
	Budget            int
	ReassemblySlots   int
	MaxParts          int
	BufferSize        int
	ReassemblyTimeout time.Duration
}

type ServerConfig struct {
	Addr        string
	CorsOrigins []string
	// Token guards the workbench /v1 routes when set.
	Token string
}

type LogConfig struct {
	Level   string
	NoColor bool
}

func Default() Config {
	return Config{
		Node: NodeConfig{ID: "00000000", Role: RoleClient},
		Mesh: MeshConfig{MaxText: protocol.MaxText},
		WSP: WSPConfig{
			HostHeader:        true,
			UserAgent:         wsp.DefaultUserAgent,
			MaxPDU:            wsp.DefaultMaxPDU,
			DecompileCapacity: 16 * 1024,
		},
		WDP: WDPConfig{
			Budget:            wdp.DefaultBudget,
			ReassemblySlots:   wdp.DefaultSlots,
			MaxParts:          wdp.DefaultMaxParts,
			BufferSize:        wdp.DefaultBufferSize,
			ReassemblyTimeout: wdp.DefaultTimeout,
		},
		Session: session.DefaultConfig(),
		Server: ServerConfig{
			Addr:        ":9280",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
	}
}

func Validate(cfg Config) error {
	switch cfg.Node.Role {
	case RoleClient:
		if strings.TrimSpace(cfg.Mesh.Proxy) == "" {
			return fmt.Errorf("client config missing mesh.proxy")
		}
		if _, err := protocol.SenderPrefix(cfg.Mesh.Proxy); err != nil {
			return fmt.Errorf("mesh.proxy invalid: %w", err)
		}
	case RoleProxy:
	default:
		return fmt.Errorf("node.role must be %q or %q, got %q", RoleClient, RoleProxy, cfg.Node.Role)
	}
	if _, err := protocol.SenderPrefix(cfg.Node.ID); err != nil {
		return fmt.Errorf("node.id invalid: %w", err)
	}
	for i, id := range cfg.Mesh.Contacts {
		if _, err := protocol.SenderPrefix(id); err != nil {
			return fmt.Errorf("mesh.contacts[%d] invalid: %w", i, err)
		}
	}
	if cfg.Mesh.MaxText <= 0 || cfg.Mesh.MaxText > protocol.MaxText {
		return fmt.Errorf("mesh.max_text must be in 1..%d", protocol.MaxText)
	}
	if cfg.WDP.Budget <= wdp.ConcatHeaderLen || cfg.WDP.Budget > protocol.MaxBinary {
		return fmt.Errorf("wdp.budget must be in %d..%d", wdp.ConcatHeaderLen+1, protocol.MaxBinary)
	}
	if cfg.WDP.MaxParts <= 0 || cfg.WDP.MaxParts > 255 {
		return fmt.Errorf("wdp.max_parts must be in 1..255")
	}
	if cfg.WSP.DecompileCapacity < wbxml.MinCapacity {
		return fmt.Errorf("wsp.decompile_capacity must be at least %d", wbxml.MinCapacity)
	}
	if cfg.Session.PortMin == 0 || cfg.Session.PortMax < cfg.Session.PortMin {
		return fmt.Errorf("session port range %d..%d invalid", cfg.Session.PortMin, cfg.Session.PortMax)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok && strings.TrimSpace(cfg.Log.Level) != "" {
		return fmt.Errorf("log.level %q unknown", cfg.Log.Level)
	}
	return nil
}
