package gateway

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/observability"
	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/session"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
)

const roleProxy = "proxy"

type ProxyConfig struct {
	Node    string
	Session session.Config
	Budget  int
	MaxText int
	// Contacts lists accepted sender ids. Only the first 8 hex characters
	// are compared. Empty accepts any well-formed id.
	Contacts   []string
	Reassembly wdp.ReassemblerConfig
	Logger     *zerolog.Logger
	Rand       *rand.Rand
}

// Proxy is the internet-side role relaying mesh requests to a WAP gateway.
type Proxy struct {
	mu       sync.Mutex
	cfg      ProxyConfig
	mesh     Transport
	upstream Upstream
	log      zerolog.Logger
	relay    *session.RelayTable
	reasm    *wdp.Reassembler
	frag     wdp.Fragmenter
	contacts map[string]struct{}
}

func NewProxy(cfg ProxyConfig, mesh Transport, upstream Upstream) (*Proxy, error) {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Budget <= 0 {
		cfg.Budget = wdp.DefaultBudget
	}
	cfg.Reassembly.Budget = cfg.Budget
	contacts := make(map[string]struct{}, len(cfg.Contacts))
	for _, id := range cfg.Contacts {
		prefix, err := protocol.SenderPrefix(id)
		if err != nil {
			return nil, fmt.Errorf("gateway: contact %q: %w", id, err)
		}
		contacts[hex.EncodeToString(prefix)] = struct{}{}
	}
	return &Proxy{
		cfg:      cfg,
		mesh:     mesh,
		upstream: upstream,
		log:      loggerOrNop(cfg.Logger).With().Str("role", roleProxy).Str("node", cfg.Node).Logger(),
		relay:    session.NewRelayTable(cfg.Session),
		reasm:    wdp.NewReassembler(cfg.Reassembly),
		frag:     wdp.Fragmenter{Budget: cfg.Budget, Rand: cfg.Rand},
		contacts: contacts,
	}, nil
}

func (p *Proxy) checkSender(sender string) error {
	prefix, err := protocol.SenderPrefix(sender)
	if err != nil {
		observability.RecordDrop(roleProxy, "invalid_sender")
		return err
	}
	if len(p.contacts) == 0 {
		return nil
	}
	if _, ok := p.contacts[hex.EncodeToString(prefix)]; !ok {
		observability.RecordDrop(roleProxy, "unknown_sender")
		return fmt.Errorf("%w: %s", ErrUnknownSender, sender)
	}
	return nil
}

// HandleText ingests a mesh text message. A completed request is recorded
// in the relay table and forwarded upstream. A repeat of a pending request
// from the same sender and port refreshes its entry and is not forwarded.
func (p *Proxy) HandleText(ctx context.Context, sender, text string, now time.Time) error {
	if err := p.checkSender(sender); err != nil {
		p.log.Warn().Err(err).Str("sender", sender).Msg("message rejected")
		return err
	}
	datagram, enc, err := protocol.DecodeText(text)
	if err != nil {
		observability.RecordDrop(roleProxy, "invalid_datagram")
		p.log.Warn().Err(err).Str("sender", sender).Msg("message rejected")
		return err
	}
	observability.RecordDatagrams(roleProxy, "received", 1)

	p.mu.Lock()
	msg, done, err := p.reasm.Accept(sender, datagram, now)
	if err != nil || !done {
		p.mu.Unlock()
		if err != nil {
			observability.RecordDrop(roleProxy, "reassembly")
		}
		return err
	}
	if msg.Parts > 1 {
		observability.RecordReassembly(roleProxy, "completed", 1)
	}
	entry, dup, err := p.relay.Register(sender, msg.SrcPort, msg.DestPort, now)
	pending := len(p.relay.List())
	p.mu.Unlock()
	observability.SetRelayPending(p.cfg.Node, pending)

	if err != nil {
		observability.RecordDrop(roleProxy, "relay_full")
		p.log.Warn().Err(err).Str("sender", sender).Uint16("client_port", msg.SrcPort).Msg("no relay slot")
		return err
	}
	if dup {
		p.log.Debug().Str("sender", sender).Uint16("client_port", msg.SrcPort).Msg("duplicate request refreshed")
		return nil
	}

	p.log.Info().
		Str("sender", sender).
		Str("encoding", enc.String()).
		Uint16("client_port", entry.ClientPort).
		Uint16("gateway_port", entry.GatewayPort).
		Int("bytes", len(msg.Payload)).
		Msg("forwarding request")
	if err := p.upstream.Send(ctx, msg.SrcPort, msg.DestPort, msg.Payload); err != nil {
		p.mu.Lock()
		p.relay.Take(msg.SrcPort)
		p.mu.Unlock()
		return fmt.Errorf("gateway: forward to port %d: %w", msg.DestPort, err)
	}
	return nil
}

// HandleUpstream relays a gateway reply addressed to clientPort back to the
// mesh node that asked for it and clears the relay entry.
func (p *Proxy) HandleUpstream(ctx context.Context, clientPort uint16, payload []byte) error {
	p.mu.Lock()
	entry, err := p.relay.Take(clientPort)
	pending := len(p.relay.List())
	p.mu.Unlock()
	if err != nil {
		observability.RecordDrop(roleProxy, "unknown_port")
		return err
	}
	observability.SetRelayPending(p.cfg.Node, pending)

	n, err := sendDatagrams(ctx, p.mesh, p.frag, p.cfg.MaxText, entry.Sender, payload, entry.ClientPort, entry.GatewayPort)
	observability.RecordDatagrams(roleProxy, "sent", n)
	if err != nil {
		return err
	}
	p.log.Info().
		Str("sender", entry.Sender).
		Uint16("client_port", clientPort).
		Int("bytes", len(payload)).
		Int("parts", n).
		Msg("reply relayed")
	return nil
}

// Pending lists relay entries awaiting a gateway reply.
func (p *Proxy) Pending() []session.RelayEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.relay.List()
}

// Poll evicts stale reassembly slots and expired relay entries.
func (p *Proxy) Poll(now time.Time) {
	p.mu.Lock()
	evicted := p.reasm.Sweep(now)
	expired := p.relay.Sweep(now)
	pending := len(p.relay.List())
	p.mu.Unlock()

	if evicted > 0 {
		observability.RecordReassembly(roleProxy, "evicted", evicted)
		p.log.Warn().Int("slots", evicted).Msg("reassembly timed out")
	}
	if len(expired) > 0 {
		ports := make([]string, len(expired))
		for i, e := range expired {
			ports[i] = fmt.Sprint(e.ClientPort)
		}
		p.log.Warn().Str("client_ports", strings.Join(ports, ",")).Msg("relay entries expired")
	}
	observability.SetRelayPending(p.cfg.Node, pending)
}
