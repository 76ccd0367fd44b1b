package config

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/gateway"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
)

func (c Config) Reassembly() wdp.ReassemblerConfig {
	return wdp.ReassemblerConfig{
		Slots:      c.WDP.ReassemblySlots,
		MaxParts:   c.WDP.MaxParts,
		BufferSize: c.WDP.BufferSize,
		Timeout:    c.WDP.ReassemblyTimeout,
		Budget:     c.WDP.Budget,
	}
}

func (c Config) ClientConfig(logger *zerolog.Logger) gateway.ClientConfig {
	return gateway.ClientConfig{
		Node:              c.Node.ID,
		Proxy:             c.Mesh.Proxy,
		Session:           c.Session,
		Budget:            c.WDP.Budget,
		MaxText:           c.Mesh.MaxText,
		DecompileCapacity: c.WSP.DecompileCapacity,
		HostHeader:        c.WSP.HostHeader,
		UserAgent:         c.WSP.UserAgent,
		MaxPDU:            c.WSP.MaxPDU,
		Reassembly:        c.Reassembly(),
		Logger:            logger,
	}
}

func (c Config) ProxyConfig(logger *zerolog.Logger) gateway.ProxyConfig {
	return gateway.ProxyConfig{
		Node:       c.Node.ID,
		Session:    c.Session,
		Budget:     c.WDP.Budget,
		MaxText:    c.Mesh.MaxText,
		Contacts:   c.Mesh.Contacts,
		Reassembly: c.Reassembly(),
		Logger:     logger,
	}
}
